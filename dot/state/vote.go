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
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	votePrefix        = "vote"
	heightVotesPrefix = []byte("h")
	proposalsPrefix   = []byte("p")
	lowestHeightKey   = []byte("low")
	evidencePrefix    = []byte("e")
	evidenceCountKey  = []byte("ecount")
)

func uint64Key(prefix []byte, n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return append(append([]byte{}, prefix...), buf...)
}

// VoteState persists the votes and proposals of unfinished heights so a
// restarted node can replay them, and the equivocation evidence seen so far.
type VoteState struct {
	db   chaindb.Database
	lock sync.Mutex
}

// NewVoteState returns a VoteState over db.
func NewVoteState(db chaindb.Database) *VoteState {
	return &VoteState{
		db: chaindb.NewTable(db, votePrefix),
	}
}

// AddVote appends a vote to the votes stored for its height.
func (s *VoteState) AddVote(vote *types.Vote) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	votes, err := s.votes(vote.Height)
	if err != nil {
		return err
	}

	for _, v := range votes {
		if v.Equal(vote) {
			return nil
		}
	}
	votes = append(votes, vote)

	enc, err := rlp.EncodeToBytes(votes)
	if err != nil {
		return fmt.Errorf("cannot encode votes: %w", err)
	}

	return s.putAt(heightVotesPrefix, vote.Height, enc)
}

// putAt stores enc for height under prefix and lowers the lowest stored
// height if needed.
func (s *VoteState) putAt(prefix []byte, height uint64, enc []byte) error {
	batch := s.db.NewBatch()
	if err := batch.Put(uint64Key(prefix, height), enc); err != nil {
		return err
	}

	lowest, err := s.uint64At(lowestHeightKey)
	if errors.Is(err, chaindb.ErrKeyNotFound) || (err == nil && height < lowest) {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, height)
		if err = batch.Put(lowestHeightKey, buf); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return batch.Flush()
}

// Votes returns the votes stored for height in insertion order.
func (s *VoteState) Votes(height uint64) ([]*types.Vote, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.votes(height)
}

func (s *VoteState) votes(height uint64) ([]*types.Vote, error) {
	enc, err := s.db.Get(uint64Key(heightVotesPrefix, height))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var votes []*types.Vote
	if err = rlp.DecodeBytes(enc, &votes); err != nil {
		return nil, fmt.Errorf("cannot decode votes at height %d: %w", height, err)
	}
	return votes, nil
}

// AddProposal appends a proposal to the proposals stored for its height.
// A proposal already stored for the same view is kept.
func (s *VoteState) AddProposal(p *types.Proposal) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	proposals, err := s.proposals(p.Height)
	if err != nil {
		return err
	}

	for _, stored := range proposals {
		if stored.View == p.View {
			return nil
		}
	}
	proposals = append(proposals, p)

	enc, err := rlp.EncodeToBytes(proposals)
	if err != nil {
		return fmt.Errorf("cannot encode proposals: %w", err)
	}
	return s.putAt(proposalsPrefix, p.Height, enc)
}

// Proposals returns the proposals stored for height in insertion order.
func (s *VoteState) Proposals(height uint64) ([]*types.Proposal, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.proposals(height)
}

func (s *VoteState) proposals(height uint64) ([]*types.Proposal, error) {
	enc, err := s.db.Get(uint64Key(proposalsPrefix, height))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var proposals []*types.Proposal
	if err = rlp.DecodeBytes(enc, &proposals); err != nil {
		return nil, fmt.Errorf("cannot decode proposals at height %d: %w", height, err)
	}
	return proposals, nil
}

// Prune deletes the votes and proposals of every height below finalized.
func (s *VoteState) Prune(finalized uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	lowest, err := s.uint64At(lowestHeightKey)
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if lowest >= finalized {
		return nil
	}

	batch := s.db.NewBatch()
	for height := lowest; height < finalized; height++ {
		if err = batch.Del(uint64Key(heightVotesPrefix, height)); err != nil {
			return err
		}
		if err = batch.Del(uint64Key(proposalsPrefix, height)); err != nil {
			return err
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, finalized)
	if err = batch.Put(lowestHeightKey, buf); err != nil {
		return err
	}
	return batch.Flush()
}

// AddEvidence persists equivocation evidence. Evidence is never pruned.
func (s *VoteState) AddEvidence(evidence *types.Equivocation) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	count, err := s.uint64At(evidenceCountKey)
	if err != nil && !errors.Is(err, chaindb.ErrKeyNotFound) {
		return err
	}

	enc, err := evidence.Encode()
	if err != nil {
		return err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, count+1)

	batch := s.db.NewBatch()
	if err = batch.Put(uint64Key(evidencePrefix, count), enc); err != nil {
		return err
	}
	if err = batch.Put(evidenceCountKey, buf); err != nil {
		return err
	}
	return batch.Flush()
}

// Evidence returns all persisted equivocations.
func (s *VoteState) Evidence() ([]*types.Equivocation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	count, err := s.uint64At(evidenceCountKey)
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	evidence := make([]*types.Equivocation, 0, count)
	for i := uint64(0); i < count; i++ {
		enc, err := s.db.Get(uint64Key(evidencePrefix, i))
		if err != nil {
			return nil, err
		}
		e, err := types.DecodeEquivocation(enc)
		if err != nil {
			return nil, err
		}
		evidence = append(evidence, e)
	}
	return evidence, nil
}

func (s *VoteState) uint64At(key []byte) (uint64, error) {
	enc, err := s.db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(enc) != 8 {
		return 0, fmt.Errorf("invalid value length %d", len(enc))
	}
	return binary.BigEndian.Uint64(enc), nil
}
