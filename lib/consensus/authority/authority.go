// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package authority

import (
	"context"
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/validators"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "authority"))

const signerCacheSize = 4096

// Config is the configuration of the authority engine.
type Config struct {
	Validators validators.Set
	Headers    consensus.HeaderProvider
	// StepDuration is the length of a view in seconds.
	StepDuration uint64
}

// Engine rotates block production among a list of authorities. The view
// of a block is the number of steps elapsed since its parent, and its
// proposer is validators[(number + view) mod count].
type Engine struct {
	validators   validators.Set
	headers      consensus.HeaderProvider
	stepDuration uint64
	// signers caches sealed header hash to recovered signer
	signers *lru.Cache
}

var _ consensus.Engine = (*Engine)(nil)

// New returns an authority engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Validators == nil {
		return nil, fmt.Errorf("%w: no validator set", consensus.ErrConfiguration)
	}
	if cfg.Headers == nil {
		return nil, fmt.Errorf("%w: no header provider", consensus.ErrConfiguration)
	}
	if cfg.StepDuration == 0 {
		return nil, fmt.Errorf("%w: step duration is zero", consensus.ErrConfiguration)
	}

	signers, err := lru.New(signerCacheSize)
	if err != nil {
		return nil, err
	}

	return &Engine{
		validators:   cfg.Validators,
		headers:      cfg.Headers,
		stepDuration: cfg.StepDuration,
		signers:      signers,
	}, nil
}

// Kind returns consensus.Authority.
func (*Engine) Kind() consensus.Kind {
	return consensus.Authority
}

// View returns the number of whole steps between the parent and header timestamps.
func (e *Engine) View(header, parent *types.Header) uint64 {
	if header.Timestamp < parent.Timestamp {
		return 0
	}
	return (header.Timestamp - parent.Timestamp) / e.stepDuration
}

func sealDigest(blockHash common.Hash, view uint64) common.Hash {
	digest, err := common.Blake2bConcat(blockHash[:], consensus.EncodeView(view))
	if err != nil {
		panic(err)
	}
	return digest
}

// GenerateSeal signs candidate if the local identity is the proposer of
// its view. Otherwise it returns ErrNotReady.
func (e *Engine) GenerateSeal(_ context.Context, candidate *types.Header, signer consensus.Signer) (types.Seal, error) {
	parent, err := e.headers.HeaderAt(candidate.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("cannot get parent of block %d: %w", candidate.Number, err)
	}

	view := e.View(candidate, parent)
	proposer, err := validators.ProposerAt(e.validators, candidate.ParentHash, candidate.Number, view)
	if err != nil {
		return nil, err
	}

	if signer.Identity() != proposer {
		return nil, fmt.Errorf("%w: proposer of block %d view %d is %s",
			consensus.ErrNotReady, candidate.Number, view, proposer)
	}
	if candidate.Author != proposer {
		return nil, fmt.Errorf("%w: author %s is not the proposer %s",
			consensus.ErrInvalidHeader, candidate.Author, proposer)
	}

	sig, err := consensus.SignDigest(signer, sealDigest(candidate.Hash(), view))
	if err != nil {
		return nil, fmt.Errorf("cannot sign block %d: %w", candidate.Number, err)
	}

	logger.Debugf("sealed block %d at view %d", candidate.Number, view)
	return types.Seal{consensus.EncodeView(view), sig}, nil
}

func decodeSeal(seal types.Seal) (view uint64, sig []byte, err error) {
	if len(seal) != 2 {
		return 0, nil, fmt.Errorf("%w: expected 2 fields, got %d", consensus.ErrInvalidSeal, len(seal))
	}
	view, err = consensus.DecodeView(seal[0])
	if err != nil {
		return 0, nil, err
	}
	return view, seal[1], nil
}

func (e *Engine) signer(header *types.Header, view uint64, sig []byte) (common.Address, error) {
	hash := header.SealedHash()
	if cached, ok := e.signers.Get(hash); ok {
		return cached.(common.Address), nil
	}

	signer, err := consensus.RecoverSigner(sealDigest(header.Hash(), view), sig)
	if err != nil {
		return common.EmptyAddress, err
	}

	e.signers.Add(hash, signer)
	return signer, nil
}

// VerifySeal checks the seal is signed by the block author and that the
// author is an authority.
func (e *Engine) VerifySeal(header, parent *types.Header) error {
	view, sig, err := decodeSeal(header.Seal)
	if err != nil {
		return err
	}

	signer, err := e.signer(header, view, sig)
	if err != nil {
		return fmt.Errorf("%w: %w", consensus.ErrInvalidSeal, err)
	}
	if signer != header.Author {
		return fmt.Errorf("%w: signed by %s, author is %s", consensus.ErrInvalidSeal, signer, header.Author)
	}

	isAuthority, err := e.validators.Contains(parent.Hash(), signer)
	if err != nil {
		return err
	}
	if !isAuthority {
		return fmt.Errorf("%w: %w: %s", consensus.ErrInvalidSeal, consensus.ErrUnknownValidator, signer)
	}
	return nil
}

// VerifyBlockExternal checks header extends parent, that its view matches
// the timestamps and that its author is the rotation proposer.
func (e *Engine) VerifyBlockExternal(header, parent *types.Header) error {
	if err := consensus.VerifyParent(header, parent); err != nil {
		return err
	}

	view, _, err := decodeSeal(header.Seal)
	if err != nil {
		return err
	}
	if expected := e.View(header, parent); view != expected {
		return fmt.Errorf("%w: view %d, timestamps give view %d", consensus.ErrInvalidSeal, view, expected)
	}

	proposer, err := validators.ProposerAt(e.validators, parent.Hash(), header.Number, view)
	if err != nil {
		return err
	}
	if header.Author != proposer {
		return fmt.Errorf("%w: author %s, proposer of block %d view %d is %s",
			consensus.ErrWrongProposer, header.Author, header.Number, view, proposer)
	}
	return nil
}

// OnEpochBegin does nothing: the authority list is fixed.
func (*Engine) OnEpochBegin(uint64) error { return nil }

// IsEpochEnd always returns false.
func (*Engine) IsEpochEnd(*types.Header) bool { return false }

// CalculateScore returns zero.
func (*Engine) CalculateScore(*types.Header) *uint256.Int { return uint256.NewInt(0) }
