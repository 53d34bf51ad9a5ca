// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package epoch

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/validators"
	"github.com/ChainSafe/sealer/lib/votes"
	"github.com/tidwall/btree"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "epoch"))

// Store persists the epoch history.
type Store interface {
	SetRecord(record *types.EpochRecord) error
	Records() ([]*types.EpochRecord, error)
}

// ProofExtractor returns the commit embedded in the seal of a finalized header.
type ProofExtractor func(finalized *types.Header) (*types.TransitionProof, error)

// Config is the configuration of a Manager.
type Config struct {
	Genesis   *types.EpochRecord
	Threshold validators.Threshold
	Headers   consensus.HeaderProvider
	Store     Store
	Sources   []Source
	Proofs    ProofExtractor
}

// history is the ordered epoch history keyed by first height.
type history = btree.Map[uint64, *types.EpochRecord]

// Manager tracks validator set transitions. Readers see an immutable
// history published atomically on every commit.
type Manager struct {
	threshold validators.Threshold
	headers   consensus.HeaderProvider
	store     Store
	sources   []Source
	proofs    ProofExtractor

	// lock serialises writers only
	lock    sync.Mutex
	history atomic.Pointer[history]
}

var _ validators.SnapshotSource = (*Manager)(nil)

// NewManager returns a Manager whose history holds the genesis epoch.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Genesis == nil {
		return nil, fmt.Errorf("%w: no genesis epoch", consensus.ErrConfiguration)
	}
	if cfg.Genesis.Number != 0 {
		return nil, fmt.Errorf("%w: genesis epoch has number %d", consensus.ErrConfiguration, cfg.Genesis.Number)
	}
	if err := cfg.Genesis.Validators.Validate(); err != nil {
		return nil, fmt.Errorf("%w: genesis validators: %s", consensus.ErrConfiguration, err)
	}
	if err := cfg.Threshold.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Sources) > 0 && cfg.Proofs == nil {
		return nil, fmt.Errorf("%w: transitions configured without a proof extractor", consensus.ErrConfiguration)
	}

	m := &Manager{
		threshold: cfg.Threshold,
		headers:   cfg.Headers,
		store:     cfg.Store,
		sources:   cfg.Sources,
		proofs:    cfg.Proofs,
	}

	h := btree.NewMap[uint64, *types.EpochRecord](0)
	h.Set(cfg.Genesis.FirstHeight, cfg.Genesis)
	m.history.Store(h)
	return m, nil
}

// Load restores the history from the store, or persists the genesis
// epoch if the store is empty.
func (m *Manager) Load() error {
	if m.store == nil {
		return nil
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	records, err := m.store.Records()
	if err != nil {
		return fmt.Errorf("cannot load epoch history: %w", err)
	}

	genesis := m.latest()
	if len(records) == 0 {
		return m.store.SetRecord(genesis)
	}

	if records[0].FirstHeight != genesis.FirstHeight || !records[0].Validators.Equal(&genesis.Validators) {
		return fmt.Errorf("%w: stored genesis epoch %s differs from configured %s",
			consensus.ErrConfiguration, records[0], genesis)
	}

	h := btree.NewMap[uint64, *types.EpochRecord](0)
	for i, record := range records {
		if i > 0 && record.FirstHeight <= records[i-1].FirstHeight {
			return fmt.Errorf("%w: stored epoch %s", ErrOutOfOrder, record)
		}
		h.Set(record.FirstHeight, record)
	}
	m.history.Store(h)

	logger.Infof("loaded %d epochs, latest %s", len(records), records[len(records)-1])
	return nil
}

func (m *Manager) latest() *types.EpochRecord {
	_, record, _ := m.history.Load().Max()
	return record
}

// Latest returns the latest committed epoch.
func (m *Manager) Latest() *types.EpochRecord {
	return m.latest()
}

// EpochAt returns the epoch containing height.
func (m *Manager) EpochAt(height uint64) (*types.EpochRecord, error) {
	var found *types.EpochRecord
	m.history.Load().Descend(height, func(_ uint64, record *types.EpochRecord) bool {
		found = record
		return false
	})

	if found == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoEpoch, height)
	}
	return found, nil
}

// EffectiveSetAt returns the validator snapshot governing height.
func (m *Manager) EffectiveSetAt(height uint64) (*types.ValidatorSnapshot, error) {
	record, err := m.EpochAt(height)
	if err != nil {
		return nil, err
	}
	return &record.Validators, nil
}

// IsTransitionHeight returns true if a non genesis epoch starts at height.
func (m *Manager) IsTransitionHeight(height uint64) bool {
	record, ok := m.history.Load().Get(height)
	return ok && record.Number > 0
}

// Records returns the history in epoch order.
func (m *Manager) Records() []*types.EpochRecord {
	h := m.history.Load()
	records := make([]*types.EpochRecord, 0, h.Len())
	h.Scan(func(_ uint64, record *types.EpochRecord) bool {
		records = append(records, record)
		return true
	})
	return records
}

// IsEpochEnd reports whether header is the last block of its epoch: either
// the next epoch is committed already or a source signals a change.
func (m *Manager) IsEpochEnd(header *types.Header) bool {
	if m.IsTransitionHeight(header.Number + 1) {
		return true
	}

	snapshot, err := m.pendingTransition(header)
	if err != nil {
		logger.Warnf("cannot check transition after block %d: %s", header.Number, err)
		return false
	}
	return snapshot != nil
}

func (m *Manager) pendingTransition(header *types.Header) (*types.ValidatorSnapshot, error) {
	for _, source := range m.sources {
		snapshot, err := source.TransitionAt(header)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			return snapshot, nil
		}
	}
	return nil, nil
}

// CheckTransition returns the epoch record starting after finalized, or
// nil if the validator set does not change there.
func (m *Manager) CheckTransition(finalized *types.Header) (*types.EpochRecord, error) {
	isFinal, err := m.headers.IsFinalized(finalized.Hash())
	if err != nil {
		return nil, err
	}
	if !isFinal {
		return nil, fmt.Errorf("%w: %d %s", ErrNotFinalized, finalized.Number, finalized.Hash().Short())
	}

	next := finalized.Number + 1
	latest := m.latest()
	if latest.FirstHeight >= next {
		return nil, nil
	}

	snapshot, err := m.pendingTransition(finalized)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || snapshot.Equal(&latest.Validators) {
		return nil, nil
	}

	proof, err := m.proofs(finalized)
	if err != nil {
		return nil, fmt.Errorf("cannot extract transition proof from block %d: %w", finalized.Number, err)
	}

	return &types.EpochRecord{
		Number:      latest.Number + 1,
		FirstHeight: next,
		Validators:  *snapshot,
		Proof:       *proof,
	}, nil
}

// VerifyProof checks the proof of record is a commit of the outgoing set
// for the block right before the transition.
func (m *Manager) VerifyProof(record *types.EpochRecord) error {
	if record.FirstHeight == 0 {
		return fmt.Errorf("%w: transition at height 0", consensus.ErrEpochProofInvalid)
	}
	if record.Proof.Height != record.FirstHeight-1 {
		return fmt.Errorf("%w: proof for height %d, transition at %d",
			consensus.ErrEpochProofInvalid, record.Proof.Height, record.FirstHeight)
	}

	outgoing, err := m.EffectiveSetAt(record.FirstHeight - 1)
	if err != nil {
		return fmt.Errorf("%w: %s", consensus.ErrEpochProofInvalid, err)
	}
	return votes.VerifyTransitionProof(outgoing, m.threshold, &record.Proof)
}

// Commit appends record to the history and publishes it.
func (m *Manager) Commit(record *types.EpochRecord) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	latest := m.latest()
	if record.Number != latest.Number+1 {
		return fmt.Errorf("%w: epoch %d after epoch %d", ErrOutOfOrder, record.Number, latest.Number)
	}
	if record.FirstHeight <= latest.FirstHeight {
		return fmt.Errorf("%w: first height %d not after %d", ErrOutOfOrder, record.FirstHeight, latest.FirstHeight)
	}
	if err := record.Validators.Validate(); err != nil {
		return fmt.Errorf("%w: %s", consensus.ErrConfiguration, err)
	}
	if err := m.VerifyProof(record); err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.SetRecord(record); err != nil {
			return fmt.Errorf("cannot persist epoch %d: %w", record.Number, err)
		}
	}

	next := m.history.Load().Copy()
	next.Set(record.FirstHeight, record)
	m.history.Store(next)

	logger.Infof("committed %s", record)
	return nil
}
