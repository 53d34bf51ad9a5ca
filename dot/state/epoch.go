// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/sealer/dot/types"
)

var (
	epochPrefix     = "epoch"
	epochInfoPrefix = []byte("info")
	latestEpochKey  = []byte("latest")
)

func epochInfoKey(epoch uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, epoch)
	return append(append([]byte{}, epochInfoPrefix...), buf...)
}

// EpochState persists the append only epoch history.
type EpochState struct {
	db   chaindb.Database
	lock sync.RWMutex
}

// NewEpochState returns an EpochState over db.
func NewEpochState(db chaindb.Database) *EpochState {
	return &EpochState{
		db: chaindb.NewTable(db, epochPrefix),
	}
}

// SetRecord appends a record. Its number must follow the latest stored one.
func (s *EpochState) SetRecord(record *types.EpochRecord) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	latest, err := s.latestNumber()
	switch {
	case errors.Is(err, chaindb.ErrKeyNotFound):
		if record.Number != 0 {
			return fmt.Errorf("%w: first record has number %d", ErrEpochOutOfOrder, record.Number)
		}
	case err != nil:
		return err
	case record.Number != latest+1:
		return fmt.Errorf("%w: record %d after %d", ErrEpochOutOfOrder, record.Number, latest)
	}

	enc, err := record.Encode()
	if err != nil {
		return fmt.Errorf("cannot encode epoch record: %w", err)
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, record.Number)

	batch := s.db.NewBatch()
	if err = batch.Put(epochInfoKey(record.Number), enc); err != nil {
		return err
	}
	if err = batch.Put(latestEpochKey, buf); err != nil {
		return err
	}
	return batch.Flush()
}

// GetRecord returns the record with the given epoch number.
func (s *EpochState) GetRecord(number uint64) (*types.EpochRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.getRecord(number)
}

func (s *EpochState) getRecord(number uint64) (*types.EpochRecord, error) {
	enc, err := s.db.Get(epochInfoKey(number))
	if err != nil {
		return nil, fmt.Errorf("epoch %d: %w", number, err)
	}
	return types.DecodeEpochRecord(enc)
}

// LatestNumber returns the number of the latest stored epoch.
func (s *EpochState) LatestNumber() (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.latestNumber()
}

func (s *EpochState) latestNumber() (uint64, error) {
	enc, err := s.db.Get(latestEpochKey)
	if err != nil {
		return 0, err
	}
	if len(enc) != 8 {
		return 0, errors.New("invalid latest epoch number")
	}
	return binary.BigEndian.Uint64(enc), nil
}

// Records returns the full history in epoch order. It is empty for an
// uninitialised database.
func (s *EpochState) Records() ([]*types.EpochRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	latest, err := s.latestNumber()
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	records := make([]*types.EpochRecord, 0, latest+1)
	for number := uint64(0); number <= latest; number++ {
		record, err := s.getRecord(number)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
