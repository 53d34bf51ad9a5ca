// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package validators

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	lru "github.com/hashicorp/golang-lru"
)

// ErrIndexOutOfRange is returned by Get for an index past the set size.
var ErrIndexOutOfRange = errors.New("validator index out of range")

// Set answers who may propose and vote at a chain position. The context
// hash is the parent of the position queried: the snapshot used is the one
// effective at the parent number + 1.
type Set interface {
	Contains(ctxHash common.Hash, addr common.Address) (bool, error)
	Get(ctxHash common.Hash, index int) (common.Address, error)
	Count(ctxHash common.Hash) (int, error)
	Snapshot(ctxHash common.Hash) (*types.ValidatorSnapshot, error)
}

// ProposerAt returns the rotation proposer for (height, view) on top of ctxHash.
func ProposerAt(set Set, ctxHash common.Hash, height, view uint64) (common.Address, error) {
	snapshot, err := set.Snapshot(ctxHash)
	if err != nil {
		return common.EmptyAddress, err
	}
	return consensus.Proposer(snapshot, height, view), nil
}

func contains(snapshot *types.ValidatorSnapshot, addr common.Address) bool {
	return snapshot.Contains(addr)
}

func get(snapshot *types.ValidatorSnapshot, index int) (common.Address, error) {
	if index < 0 || index >= snapshot.Len() {
		return common.EmptyAddress, fmt.Errorf("%w: %d for %d validators",
			ErrIndexOutOfRange, index, snapshot.Len())
	}
	return snapshot.At(index).Address, nil
}

// Fixed is a validator set that never changes.
type Fixed struct {
	snapshot *types.ValidatorSnapshot
}

var _ Set = (*Fixed)(nil)

// NewFixed returns a Fixed set. An invalid snapshot is a configuration error.
func NewFixed(snapshot *types.ValidatorSnapshot) (*Fixed, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: %s", consensus.ErrConfiguration, types.ErrEmptyValidatorSet)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", consensus.ErrConfiguration, err)
	}
	return &Fixed{snapshot: snapshot}, nil
}

// Contains returns true if addr is a validator.
func (f *Fixed) Contains(_ common.Hash, addr common.Address) (bool, error) {
	return contains(f.snapshot, addr), nil
}

// Get returns the validator at index.
func (f *Fixed) Get(_ common.Hash, index int) (common.Address, error) {
	return get(f.snapshot, index)
}

// Count returns the number of validators.
func (f *Fixed) Count(common.Hash) (int, error) {
	return f.snapshot.Len(), nil
}

// Snapshot returns the fixed snapshot.
func (f *Fixed) Snapshot(common.Hash) (*types.ValidatorSnapshot, error) {
	return f.snapshot, nil
}

// EffectiveSetAt returns the fixed snapshot for every height.
func (f *Fixed) EffectiveSetAt(uint64) (*types.ValidatorSnapshot, error) {
	return f.snapshot, nil
}

// SnapshotSource returns the validator snapshot effective at a height.
type SnapshotSource interface {
	EffectiveSetAt(height uint64) (*types.ValidatorSnapshot, error)
}

const numberCacheSize = 1024

// Transitioning is a validator set that changes at epoch boundaries.
type Transitioning struct {
	headers consensus.HeaderProvider
	source  SnapshotSource
	// numbers caches context hash to block number lookups
	numbers *lru.Cache
}

var _ Set = (*Transitioning)(nil)

// NewTransitioning returns a Transitioning set resolving context hashes
// with headers and snapshots with source.
func NewTransitioning(headers consensus.HeaderProvider, source SnapshotSource) (*Transitioning, error) {
	numbers, err := lru.New(numberCacheSize)
	if err != nil {
		return nil, err
	}

	return &Transitioning{
		headers: headers,
		source:  source,
		numbers: numbers,
	}, nil
}

func (t *Transitioning) numberOf(ctxHash common.Hash) (uint64, error) {
	if cached, ok := t.numbers.Get(ctxHash); ok {
		return cached.(uint64), nil
	}

	header, err := t.headers.HeaderAt(ctxHash)
	if err != nil {
		return 0, fmt.Errorf("cannot resolve context %s: %w", ctxHash.Short(), err)
	}

	t.numbers.Add(ctxHash, header.Number)
	return header.Number, nil
}

// Snapshot returns the snapshot effective at the child of ctxHash.
func (t *Transitioning) Snapshot(ctxHash common.Hash) (*types.ValidatorSnapshot, error) {
	number, err := t.numberOf(ctxHash)
	if err != nil {
		return nil, err
	}
	return t.source.EffectiveSetAt(number + 1)
}

// Contains returns true if addr is a validator at the child of ctxHash.
func (t *Transitioning) Contains(ctxHash common.Hash, addr common.Address) (bool, error) {
	snapshot, err := t.Snapshot(ctxHash)
	if err != nil {
		return false, err
	}
	return contains(snapshot, addr), nil
}

// Get returns the validator at index at the child of ctxHash.
func (t *Transitioning) Get(ctxHash common.Hash, index int) (common.Address, error) {
	snapshot, err := t.Snapshot(ctxHash)
	if err != nil {
		return common.EmptyAddress, err
	}
	return get(snapshot, index)
}

// Count returns the number of validators at the child of ctxHash.
func (t *Transitioning) Count(ctxHash common.Hash) (int, error) {
	snapshot, err := t.Snapshot(ctxHash)
	if err != nil {
		return 0, err
	}
	return snapshot.Len(), nil
}
