// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"fmt"
	"sort"
	"time"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
)

// Step is a step of the round machine.
type Step uint8

const (
	StepPropose Step = iota
	StepPrevote
	StepPrecommit
	StepCommit
)

func (s Step) String() string {
	switch s {
	case StepPropose:
		return "propose"
	case StepPrevote:
		return "prevote"
	case StepPrecommit:
		return "precommit"
	case StepCommit:
		return "commit"
	default:
		return fmt.Sprintf("step(%d)", uint8(s))
	}
}

// RoundInfo is a copy of the round state of a height.
type RoundInfo struct {
	Height     uint64
	View       uint64
	Step       Step
	LockedView uint64
	LockedHash common.Hash
	ValidView  uint64
	ValidHash  common.Hash
	Deadline   time.Time
}

// roundState is the state of the height being decided. It is discarded
// once the height commits.
type roundState struct {
	height   uint64
	view     uint64
	step     Step
	snapshot *types.ValidatorSnapshot
	deadline time.Time

	// proposals holds the verified proposal of each view
	proposals map[uint64]*types.Proposal
	// blocks maps block hashes to the unsealed headers proposed for them
	blocks map[common.Hash]*types.Header
	// origins maps block hashes to the view the block was first proposed in
	origins map[common.Hash]uint64

	lockedView uint64
	lockedHash common.Hash
	validView  uint64
	validHash  common.Hash

	// candidate is the block handed over by the local producer
	candidate *types.Header
}

func newRoundState(height uint64, snapshot *types.ValidatorSnapshot) *roundState {
	return &roundState{
		height:     height,
		snapshot:   snapshot,
		proposals:  make(map[uint64]*types.Proposal),
		blocks:     make(map[common.Hash]*types.Header),
		origins:    make(map[common.Hash]uint64),
		lockedView: types.NoView,
		validView:  types.NoView,
	}
}

func (rs *roundState) isLocked() bool {
	return rs.lockedView != types.NoView
}

// addProposal records a verified proposal and the block it carries.
func (rs *roundState) addProposal(p *types.Proposal) {
	hash := p.BlockHash()
	rs.proposals[p.View] = p
	rs.blocks[hash] = &p.Header
	if _, has := rs.origins[hash]; !has {
		rs.origins[hash] = p.OriginView
	}
}

func (rs *roundState) info() RoundInfo {
	return RoundInfo{
		Height:     rs.height,
		View:       rs.view,
		Step:       rs.step,
		LockedView: rs.lockedView,
		LockedHash: rs.lockedHash,
		ValidView:  rs.validView,
		ValidHash:  rs.validHash,
		Deadline:   rs.deadline,
	}
}

// The methods below run with the service lock held.

// advance takes every transition the collected votes and proposals allow.
func (s *Service) advance() {
	for s.started {
		if s.tryCommit() {
			continue
		}
		if s.trySkip() {
			continue
		}

		var moved bool
		switch s.round.step {
		case StepPropose:
			moved = s.tryPrevote()
		case StepPrevote:
			moved = s.tryPrecommit()
		case StepPrecommit:
			moved = s.tryNextView()
		}
		if !moved {
			return
		}
	}
}

// enterView starts view at the Propose step.
func (s *Service) enterView(view uint64) {
	rs := s.round
	rs.view = view
	rs.step = StepPropose
	viewGauge.Set(float64(view))
	s.schedule()

	logger.Debugf("height %d: entering view %d, proposer %s",
		rs.height, view, consensus.Proposer(rs.snapshot, rs.height, view))

	if _, has := rs.proposals[view]; !has && s.isProposer() {
		s.propose()
	}
}

func (s *Service) enterStep(step Step) {
	s.round.step = step
	s.schedule()
}

func (s *Service) isProposer() bool {
	if s.signer == nil {
		return false
	}
	rs := s.round
	return consensus.Proposer(rs.snapshot, rs.height, rs.view) == s.signer.Identity()
}

// propose proposes the valid block if there is one, the local candidate otherwise.
func (s *Service) propose() {
	rs := s.round
	header, validView, originView := rs.candidate, types.NoView, rs.view
	if rs.validView != types.NoView {
		if valid, has := rs.blocks[rs.validHash]; has {
			header, validView, originView = valid, rs.validView, rs.origins[rs.validHash]
		}
	}
	if header == nil {
		return
	}

	p := &types.Proposal{
		Height:     rs.height,
		View:       rs.view,
		ValidView:  validView,
		OriginView: originView,
		Header:     *header.WithSeal(nil),
	}
	sig, err := consensus.SignDigest(s.signer, p.Digest())
	if err != nil {
		logger.Errorf("cannot sign proposal for height %d view %d: %s", rs.height, rs.view, err)
		return
	}
	p.Signature = sig

	rs.addProposal(p)
	s.persistProposal(p)
	s.outbox = append(s.outbox, &ProposalMessage{Proposal: p})
	logger.Debugf("sending %s", p)
}

// tryPrevote prevotes the proposal of the current view. A node locked on
// another block prevotes nil unless the proposal carries a proof-of-lock
// from a later view backed by a prevote quorum.
func (s *Service) tryPrevote() bool {
	rs := s.round
	p, has := rs.proposals[rs.view]
	if !has {
		return false
	}

	hash := p.BlockHash()
	value := types.NilHash
	if p.HasProofOfLock() {
		if !s.collector.HasQuorum(rs.height, p.ValidView, types.Prevote, hash) {
			// wait for the prevotes proving the lock, or the timeout
			return false
		}
		if !rs.isLocked() || rs.lockedView < p.ValidView || rs.lockedHash == hash {
			value = hash
		}
	} else if !rs.isLocked() || rs.lockedHash == hash {
		value = hash
	}

	s.castVote(types.Prevote, value)
	s.enterStep(StepPrevote)
	return true
}

// tryPrecommit precommits the block holding a prevote quorum at the
// current view and locks on it, or precommits nil on a nil quorum.
func (s *Service) tryPrecommit() bool {
	rs := s.round
	hash, ok := s.collector.HasQuorumAny(rs.height, rs.view, types.Prevote)
	if !ok {
		return false
	}

	if hash != types.NilHash {
		if _, known := rs.blocks[hash]; !known {
			return false
		}
		rs.lockedView, rs.lockedHash = rs.view, hash
		rs.validView, rs.validHash = rs.view, hash
		logger.Debugf("height %d: locked on %s at view %d", rs.height, hash.Short(), rs.view)
	}

	s.castVote(types.Precommit, hash)
	s.enterStep(StepPrecommit)
	return true
}

// tryNextView moves to the next view on a nil precommit quorum.
func (s *Service) tryNextView() bool {
	rs := s.round
	hash, ok := s.collector.HasQuorumAny(rs.height, rs.view, types.Precommit)
	if !ok || hash != types.NilHash {
		return false
	}
	s.enterView(rs.view + 1)
	return true
}

// trySkip jumps to the highest later view where a quorum of validators
// already voted, whatever their values.
func (s *Service) trySkip() bool {
	rs := s.round
	target := rs.view
	for _, step := range []types.Step{types.Prevote, types.Precommit} {
		for _, view := range s.collector.Views(rs.height, step) {
			if view <= target {
				continue
			}
			if _, reached := s.collector.Participation(rs.height, view, step); reached {
				target = view
			}
		}
	}

	if target == rs.view {
		return false
	}
	logger.Debugf("height %d: skipping from view %d to view %d", rs.height, rs.view, target)
	s.enterView(target)
	return true
}

// tryCommit commits a block holding a precommit quorum at any view of the
// current height, once its header is known.
func (s *Service) tryCommit() bool {
	rs := s.round
	views := s.collector.Views(rs.height, types.Precommit)
	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })

	for _, view := range views {
		hash, ok := s.collector.HasQuorumAny(rs.height, view, types.Precommit)
		if !ok || hash == types.NilHash {
			continue
		}

		header, known := rs.blocks[hash]
		if !known {
			logger.Debugf("height %d: precommit quorum at view %d for unknown block %s",
				rs.height, view, hash.Short())
			continue
		}

		if err := s.commit(header, view); err != nil {
			logger.Errorf("cannot commit block %d %s: %s", rs.height, hash.Short(), err)
			return false
		}
		return true
	}
	return false
}

// castVote signs and sends a vote for the current view. A vote already
// cast at this step, before a restart for instance, is sent again instead.
func (s *Service) castVote(step types.Step, hash common.Hash) {
	if s.signer == nil {
		return
	}
	rs := s.round
	identity := s.signer.Identity()
	if !rs.snapshot.Contains(identity) {
		return
	}

	for _, v := range s.collector.VotesByVoter(identity) {
		if v.Height == rs.height && v.View == rs.view && v.Step == step {
			s.outbox = append(s.outbox, &VoteMessage{Vote: v})
			return
		}
	}

	vote := &types.Vote{
		Height:    rs.height,
		View:      rs.view,
		Step:      step,
		BlockHash: hash,
		Voter:     identity,
	}
	sig, err := consensus.SignDigest(s.signer, vote.Digest())
	if err != nil {
		logger.Errorf("cannot sign %s: %s", vote, err)
		return
	}
	vote.Signature = sig

	if _, err = s.collector.AddVote(vote); err != nil {
		logger.Errorf("cannot add own %s: %s", vote, err)
		return
	}
	s.persist(vote)
	s.outbox = append(s.outbox, &VoteMessage{Vote: vote})
}

// recover restores the lock and view from the votes this node cast at the
// current height before a restart, and the valid block from the replayed
// prevote quorums.
func (s *Service) recover() uint64 {
	rs := s.round

	for _, view := range s.collector.Views(rs.height, types.Prevote) {
		if rs.validView != types.NoView && view <= rs.validView {
			continue
		}
		hash, ok := s.collector.HasQuorumAny(rs.height, view, types.Prevote)
		if !ok || hash == types.NilHash {
			continue
		}
		if _, known := rs.blocks[hash]; known {
			rs.validView, rs.validHash = view, hash
		}
	}

	if s.signer == nil {
		return 0
	}

	var view uint64
	for _, v := range s.collector.VotesByVoter(s.signer.Identity()) {
		if v.Height != rs.height {
			continue
		}
		if v.View > view {
			view = v.View
		}
		if v.Step == types.Precommit && !v.IsNil() && (!rs.isLocked() || v.View > rs.lockedView) {
			rs.lockedView, rs.lockedHash = v.View, v.BlockHash
		}
	}

	if rs.isLocked() {
		logger.Infof("height %d: recovered lock on %s at view %d", rs.height, rs.lockedHash.Short(), rs.lockedView)
	}
	if rs.validView != types.NoView {
		logger.Infof("height %d: recovered valid block %s at view %d", rs.height, rs.validHash.Short(), rs.validView)
	}
	return view
}
