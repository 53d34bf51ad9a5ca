// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/holiman/uint256"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "pow"))

// nonces tried between two context checks
const checkInterval = 1024

var maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

// Config is the configuration of the proof-of-work engine.
type Config struct {
	// MinScore is the lowest score a sealed block may have.
	MinScore *uint256.Int
	// MaxAttempts bounds the number of nonces tried per GenerateSeal call.
	MaxAttempts uint64
}

// Engine seals blocks by searching a nonce whose work hash gives a score
// of at least MinScore.
type Engine struct {
	minScore    *uint256.Int
	maxAttempts uint64
	// randomNonce returns the first nonce tried
	randomNonce func() (uint64, error)
}

var _ consensus.Engine = (*Engine)(nil)

// New returns a proof-of-work engine.
func New(cfg Config) (*Engine, error) {
	if cfg.MinScore == nil || cfg.MinScore.IsZero() {
		return nil, fmt.Errorf("%w: minimum score must be positive", consensus.ErrConfiguration)
	}
	if cfg.MaxAttempts == 0 {
		return nil, fmt.Errorf("%w: max attempts is zero", consensus.ErrConfiguration)
	}

	return &Engine{
		minScore:    cfg.MinScore.Clone(),
		maxAttempts: cfg.MaxAttempts,
		randomNonce: randomNonce,
	}, nil
}

func randomNonce() (uint64, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

// Kind returns consensus.PoW.
func (*Engine) Kind() consensus.Kind {
	return consensus.PoW
}

// WorkHash returns blake2b(blockHash ‖ nonce).
func WorkHash(blockHash common.Hash, nonce []byte) common.Hash {
	work, err := common.Blake2bConcat(blockHash[:], nonce)
	if err != nil {
		panic(err)
	}
	return work
}

// Score returns (2^256 - 1) / (work + 1).
func Score(work common.Hash) *uint256.Int {
	w := new(uint256.Int).SetBytes(work[:])
	if w.Eq(maxUint256) {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Div(maxUint256, w.Add(w, uint256.NewInt(1)))
}

func encodeNonce(nonce uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, nonce)
	return buf
}

// GenerateSeal searches at most MaxAttempts nonces for one meeting the
// minimum score. It returns ErrNotReady when none is found.
func (e *Engine) GenerateSeal(ctx context.Context, candidate *types.Header, _ consensus.Signer) (types.Seal, error) {
	start, err := e.randomNonce()
	if err != nil {
		return nil, fmt.Errorf("cannot draw starting nonce: %w", err)
	}

	blockHash := candidate.Hash()
	for i := uint64(0); i < e.maxAttempts; i++ {
		if i%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		nonce := encodeNonce(start + i)
		if Score(WorkHash(blockHash, nonce)).Cmp(e.minScore) >= 0 {
			logger.Debugf("found nonce for block %d after %d attempts", candidate.Number, i+1)
			return types.Seal{nonce}, nil
		}
	}

	return nil, fmt.Errorf("%w: no nonce found for block %d in %d attempts",
		consensus.ErrNotReady, candidate.Number, e.maxAttempts)
}

func decodeNonce(seal types.Seal) ([]byte, error) {
	if len(seal) != 1 {
		return nil, fmt.Errorf("%w: expected 1 field, got %d", consensus.ErrInvalidSeal, len(seal))
	}
	if len(seal[0]) != 8 {
		return nil, fmt.Errorf("%w: nonce has %d bytes", consensus.ErrInvalidSeal, len(seal[0]))
	}
	return seal[0], nil
}

// VerifySeal checks the seal nonce gives a score of at least MinScore.
func (e *Engine) VerifySeal(header, _ *types.Header) error {
	nonce, err := decodeNonce(header.Seal)
	if err != nil {
		return err
	}

	score := Score(WorkHash(header.Hash(), nonce))
	if score.Lt(e.minScore) {
		return fmt.Errorf("%w: score %s below minimum %s", consensus.ErrInvalidSeal, score.ToBig(), e.minScore.ToBig())
	}
	return nil
}

// VerifyBlockExternal checks header extends parent.
func (*Engine) VerifyBlockExternal(header, parent *types.Header) error {
	return consensus.VerifyParent(header, parent)
}

// OnEpochBegin does nothing.
func (*Engine) OnEpochBegin(uint64) error { return nil }

// IsEpochEnd always returns false.
func (*Engine) IsEpochEnd(*types.Header) bool { return false }

// CalculateScore returns the score of the header seal, or zero if the
// seal is malformed.
func (*Engine) CalculateScore(header *types.Header) *uint256.Int {
	nonce, err := decodeNonce(header.Seal)
	if err != nil {
		return uint256.NewInt(0)
	}
	return Score(WorkHash(header.Hash(), nonce))
}
