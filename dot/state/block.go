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
	"github.com/ChainSafe/sealer/lib/common"
)

var (
	blockPrefix     = "block"
	headerPrefix    = []byte("hdr")
	canonicalPrefix = []byte("num")
	genesisHashKey  = []byte("genesis")
	bestHashKey     = []byte("best")
	finalizedKey    = []byte("finalized")
)

func headerKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerPrefix...), hash[:]...)
}

func canonicalKey(number uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, number)
	return append(append([]byte{}, canonicalPrefix...), buf...)
}

// BlockState stores headers, the canonical chain, the best head and the
// finalized head.
type BlockState struct {
	db   chaindb.Database
	lock sync.RWMutex
}

// NewBlockState returns a BlockState over db.
func NewBlockState(db chaindb.Database) *BlockState {
	return &BlockState{
		db: chaindb.NewTable(db, blockPrefix),
	}
}

func (bs *BlockState) setGenesis(genesis *types.Header) error {
	bs.lock.Lock()
	defer bs.lock.Unlock()

	hash := genesis.Hash()
	batch := bs.db.NewBatch()
	enc, err := genesis.Encode()
	if err != nil {
		return err
	}

	for _, kv := range []struct{ k, v []byte }{
		{headerKey(hash), enc},
		{canonicalKey(genesis.Number), hash[:]},
		{genesisHashKey, hash[:]},
		{bestHashKey, hash[:]},
		{finalizedKey, hash[:]},
	} {
		if err = batch.Put(kv.k, kv.v); err != nil {
			return err
		}
	}

	return batch.Flush()
}

// GenesisHash returns the hash of the genesis header.
func (bs *BlockState) GenesisHash() (common.Hash, error) {
	return bs.loadHash(genesisHashKey)
}

func (bs *BlockState) loadHash(key []byte) (common.Hash, error) {
	enc, err := bs.db.Get(key)
	if err != nil {
		return common.EmptyHash, err
	}
	return common.NewHash(enc), nil
}

// HeaderAt returns the header with the given hash.
func (bs *BlockState) HeaderAt(hash common.Hash) (*types.Header, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	return bs.headerAt(hash)
}

func (bs *BlockState) headerAt(hash common.Hash) (*types.Header, error) {
	enc, err := bs.db.Get(headerKey(hash))
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", hash.Short(), err)
	}
	return types.DecodeHeader(enc)
}

// HasHeader returns true if the header is stored.
func (bs *BlockState) HasHeader(hash common.Hash) (bool, error) {
	return bs.db.Has(headerKey(hash))
}

// AddHeader stores a header whose parent is known. The header becomes the
// best head if it is higher than the current one.
func (bs *BlockState) AddHeader(header *types.Header) error {
	bs.lock.Lock()
	defer bs.lock.Unlock()

	return bs.addHeader(header)
}

func (bs *BlockState) addHeader(header *types.Header) error {
	has, err := bs.db.Has(headerKey(header.ParentHash))
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: %s", ErrParentNotFound, header.ParentHash.Short())
	}

	best, err := bs.bestHeader()
	if err != nil {
		return err
	}

	enc, err := header.Encode()
	if err != nil {
		return err
	}

	hash := header.Hash()
	batch := bs.db.NewBatch()
	if err = batch.Put(headerKey(hash), enc); err != nil {
		return err
	}

	if header.Number > best.Number {
		if err = batch.Put(bestHashKey, hash[:]); err != nil {
			return err
		}
		if err = batch.Put(canonicalKey(header.Number), hash[:]); err != nil {
			return err
		}
	}

	return batch.Flush()
}

// BestHeader returns the highest stored header.
func (bs *BlockState) BestHeader() (*types.Header, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	return bs.bestHeader()
}

func (bs *BlockState) bestHeader() (*types.Header, error) {
	hash, err := bs.loadHash(bestHashKey)
	if err != nil {
		return nil, err
	}
	return bs.headerAt(hash)
}

// FinalizedHeader returns the latest finalized header.
func (bs *BlockState) FinalizedHeader() (*types.Header, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	hash, err := bs.loadHash(finalizedKey)
	if err != nil {
		return nil, err
	}
	return bs.headerAt(hash)
}

// HashByNumber returns the canonical hash at number.
func (bs *BlockState) HashByNumber(number uint64) (common.Hash, error) {
	return bs.loadHash(canonicalKey(number))
}

// SetFinalized marks hash and its ancestors as final. The canonical chain is
// rewritten to pass through hash.
func (bs *BlockState) SetFinalized(hash common.Hash) error {
	bs.lock.Lock()
	defer bs.lock.Unlock()

	return bs.setFinalized(hash)
}

func (bs *BlockState) setFinalized(hash common.Hash) error {
	header, err := bs.headerAt(hash)
	if err != nil {
		return err
	}

	finalizedHash, err := bs.loadHash(finalizedKey)
	if err != nil {
		return err
	}
	finalized, err := bs.headerAt(finalizedHash)
	if err != nil {
		return err
	}
	if header.Number < finalized.Number {
		return fmt.Errorf("%w: %d < %d", ErrFinalizedBackwards, header.Number, finalized.Number)
	}

	batch := bs.db.NewBatch()
	// walk back to the previous finalized height, fixing the canonical index
	for current := header; current.Number > finalized.Number; {
		currentHash := current.Hash()
		if err = batch.Put(canonicalKey(current.Number), currentHash[:]); err != nil {
			return err
		}
		if current, err = bs.headerAt(current.ParentHash); err != nil {
			return err
		}
	}

	if err = batch.Put(finalizedKey, hash[:]); err != nil {
		return err
	}

	best, err := bs.bestHeader()
	if err != nil {
		return err
	}
	if best.Number <= header.Number {
		if err = batch.Put(bestHashKey, hash[:]); err != nil {
			return err
		}
	}

	return batch.Flush()
}

// IsFinalized returns true if hash is the finalized head or one of its ancestors.
func (bs *BlockState) IsFinalized(hash common.Hash) (bool, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	header, err := bs.headerAt(hash)
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	finalizedHash, err := bs.loadHash(finalizedKey)
	if err != nil {
		return false, err
	}
	finalized, err := bs.headerAt(finalizedHash)
	if err != nil {
		return false, err
	}
	if header.Number > finalized.Number {
		return false, nil
	}

	canonical, err := bs.loadHash(canonicalKey(header.Number))
	if err != nil {
		return false, err
	}
	return canonical == hash, nil
}

// ImportCommitted stores a header finalized by consensus and finalizes it.
func (bs *BlockState) ImportCommitted(header *types.Header) error {
	bs.lock.Lock()
	defer bs.lock.Unlock()

	if err := bs.addHeader(header); err != nil {
		return err
	}
	return bs.setFinalized(header.Hash())
}
