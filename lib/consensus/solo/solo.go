// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package solo

import (
	"context"
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/holiman/uint256"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "solo"))

// Engine seals every block with one configured signer.
type Engine struct {
	signer common.Address
}

var _ consensus.Engine = (*Engine)(nil)

// New returns a solo engine accepting blocks signed by signer.
func New(signer common.Address) (*Engine, error) {
	if signer.IsEmpty() {
		return nil, fmt.Errorf("%w: solo engine needs a signer", consensus.ErrConfiguration)
	}
	return &Engine{signer: signer}, nil
}

// Kind returns consensus.Solo.
func (*Engine) Kind() consensus.Kind {
	return consensus.Solo
}

// GenerateSeal signs the hash of candidate.
func (e *Engine) GenerateSeal(_ context.Context, candidate *types.Header, signer consensus.Signer) (types.Seal, error) {
	if signer.Identity() != e.signer {
		return nil, fmt.Errorf("%w: local identity %s is not the solo signer %s",
			consensus.ErrNotReady, signer.Identity(), e.signer)
	}
	if candidate.Author != e.signer {
		return nil, fmt.Errorf("%w: author %s is not the solo signer", consensus.ErrInvalidHeader, candidate.Author)
	}

	sig, err := consensus.SignDigest(signer, candidate.Hash())
	if err != nil {
		return nil, fmt.Errorf("cannot sign block %d: %w", candidate.Number, err)
	}

	logger.Debugf("sealed block %d", candidate.Number)
	return types.Seal{sig}, nil
}

// VerifySeal checks the seal is a signature of the solo signer.
func (e *Engine) VerifySeal(header, _ *types.Header) error {
	if len(header.Seal) != 1 {
		return fmt.Errorf("%w: expected 1 field, got %d", consensus.ErrInvalidSeal, len(header.Seal))
	}

	signer, err := consensus.RecoverSigner(header.Hash(), header.Seal[0])
	if err != nil {
		return fmt.Errorf("%w: %w", consensus.ErrInvalidSeal, err)
	}
	if signer != e.signer {
		return fmt.Errorf("%w: signed by %s, not the solo signer %s", consensus.ErrInvalidSeal, signer, e.signer)
	}
	if header.Author != signer {
		return fmt.Errorf("%w: author %s differs from signer %s", consensus.ErrInvalidSeal, header.Author, signer)
	}
	return nil
}

// VerifyBlockExternal checks header extends parent.
func (*Engine) VerifyBlockExternal(header, parent *types.Header) error {
	return consensus.VerifyParent(header, parent)
}

// OnEpochBegin does nothing: a solo chain has a single epoch.
func (*Engine) OnEpochBegin(uint64) error { return nil }

// IsEpochEnd always returns false.
func (*Engine) IsEpochEnd(*types.Header) bool { return false }

// CalculateScore returns zero.
func (*Engine) CalculateScore(*types.Header) *uint256.Int { return uint256.NewInt(0) }
