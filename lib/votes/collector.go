// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package votes

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/validators"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "votes"))

// Status is the outcome of adding a vote.
type Status uint8

const (
	// Accepted means the vote now counts toward its block hash.
	Accepted Status = iota
	// DuplicateIgnored means the voter already voted the same hash at this step.
	DuplicateIgnored
	// Equivocation means the voter voted two different hashes at this step.
	Equivocation
	// Rejected means the vote is invalid, stale or from a non validator.
	Rejected
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case DuplicateIgnored:
		return "duplicate"
	case Equivocation:
		return "equivocation"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// AddResult is the outcome of AddVote.
type AddResult struct {
	Status Status
	// Evidence is set when Status is Equivocation.
	Evidence *types.Equivocation
}

// tally holds the votes of one (height, view, step).
type tally struct {
	total uint64
	// cast holds the distinct block hashes voted by each voter, first vote first
	cast         map[common.Address][]*types.Vote
	weights      map[common.Hash]uint64
	equivocators map[common.Address]struct{}
	counted      uint64
	order        []*types.Vote
}

func newTally(total uint64) *tally {
	return &tally{
		total:        total,
		cast:         make(map[common.Address][]*types.Vote),
		weights:      make(map[common.Hash]uint64),
		equivocators: make(map[common.Address]struct{}),
	}
}

// Collector accumulates signed votes and resolves quorums. It is safe
// for concurrent use.
type Collector struct {
	lock      sync.RWMutex
	snapshots validators.SnapshotSource
	threshold validators.Threshold

	tallies map[types.VoteKey]*tally
	byVoter map[common.Address][]*types.Vote
	// seen maps vote fingerprints to votes, so resubmissions skip signature recovery
	seen     map[uint64]*types.Vote
	horizon  uint64
	evidence []*types.Equivocation
}

// NewCollector returns a collector counting votes against the snapshots
// of source with the given quorum threshold.
func NewCollector(source validators.SnapshotSource, threshold validators.Threshold) (*Collector, error) {
	if err := threshold.Validate(); err != nil {
		return nil, err
	}

	return &Collector{
		snapshots: source,
		threshold: threshold,
		tallies:   make(map[types.VoteKey]*tally),
		byVoter:   make(map[common.Address][]*types.Vote),
		seen:      make(map[uint64]*types.Vote),
	}, nil
}

// Threshold returns the quorum threshold of the collector.
func (c *Collector) Threshold() validators.Threshold {
	return c.threshold
}

func fingerprint(vote *types.Vote) uint64 {
	enc, err := vote.Encode()
	if err != nil {
		panic(err)
	}
	return common.Fingerprint(enc)
}

// AddVote records a vote. Rejected votes come with a non nil error wrapping
// the rejection reason.
func (c *Collector) AddVote(vote *types.Vote) (result AddResult, err error) {
	defer func() {
		votesCounter.WithLabelValues(result.Status.String()).Inc()
	}()

	if !vote.Step.Valid() {
		return AddResult{Status: Rejected}, fmt.Errorf("%w: %s", ErrInvalidVote, vote.Step)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if vote.Height < c.horizon {
		return AddResult{Status: Rejected}, fmt.Errorf("%w: height %d below finalized height %d",
			consensus.ErrStaleMessage, vote.Height, c.horizon)
	}

	fp := fingerprint(vote)
	if seen, has := c.seen[fp]; has && seen.Equal(vote) {
		return AddResult{Status: DuplicateIgnored}, nil
	}

	snapshot, err := c.snapshots.EffectiveSetAt(vote.Height)
	if err != nil {
		return AddResult{Status: Rejected}, fmt.Errorf("cannot get validators at height %d: %w", vote.Height, err)
	}

	weight := snapshot.WeightOf(vote.Voter)
	if weight == 0 {
		return AddResult{Status: Rejected}, fmt.Errorf("%w: %s at height %d",
			consensus.ErrUnknownValidator, vote.Voter, vote.Height)
	}

	signer, err := consensus.RecoverSigner(vote.Digest(), vote.Signature)
	if err != nil {
		return AddResult{Status: Rejected}, err
	}
	if signer != vote.Voter {
		return AddResult{Status: Rejected}, fmt.Errorf("%w: signed by %s, not voter %s",
			consensus.ErrInvalidSignature, signer, vote.Voter)
	}

	key := vote.Key()
	t, has := c.tallies[key]
	if !has {
		t = newTally(snapshot.TotalWeight())
		c.tallies[key] = t
		trackedHeightsGauge.Set(float64(len(c.tallies)))
	}

	result = c.record(t, vote, weight)
	if result.Status == DuplicateIgnored {
		return result, nil
	}

	c.seen[fp] = vote
	t.order = append(t.order, vote)
	c.byVoter[vote.Voter] = append(c.byVoter[vote.Voter], vote)

	if result.Evidence != nil {
		c.evidence = append(c.evidence, result.Evidence)
		equivocationsCounter.Inc()
		logger.Warnf("%s", result.Evidence)
	}

	return result, nil
}

// record counts a verified vote in its tally.
func (c *Collector) record(t *tally, vote *types.Vote, weight uint64) AddResult {
	previous := t.cast[vote.Voter]
	for _, v := range previous {
		if v.BlockHash == vote.BlockHash {
			return AddResult{Status: DuplicateIgnored}
		}
	}

	t.cast[vote.Voter] = append(previous, vote)

	if len(previous) == 0 {
		t.weights[vote.BlockHash] += weight
		t.counted += weight
		return AddResult{Status: Accepted}
	}

	if _, equivocated := t.equivocators[vote.Voter]; !equivocated {
		// the first vote stops counting once the voter equivocates
		first := previous[0]
		t.weights[first.BlockHash] -= weight
		if t.weights[first.BlockHash] == 0 {
			delete(t.weights, first.BlockHash)
		}
		t.counted -= weight
		t.equivocators[vote.Voter] = struct{}{}
	}

	return AddResult{
		Status:   Equivocation,
		Evidence: types.NewEquivocation(previous[0], vote),
	}
}

// HasQuorum returns true if the voters of hash at (height, view, step) hold
// more than the threshold of the total weight.
func (c *Collector) HasQuorum(height, view uint64, step types.Step, hash common.Hash) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	t, has := c.tallies[types.VoteKey{Height: height, View: view, Step: step}]
	if !has {
		return false
	}
	return c.threshold.Reached(t.weights[hash], t.total)
}

// HasQuorumAny returns the value, possibly the nil hash, that reached a
// quorum at (height, view, step).
func (c *Collector) HasQuorumAny(height, view uint64, step types.Step) (common.Hash, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	t, has := c.tallies[types.VoteKey{Height: height, View: view, Step: step}]
	if !has {
		return common.EmptyHash, false
	}

	for hash, weight := range t.weights {
		if c.threshold.Reached(weight, t.total) {
			return hash, true
		}
	}
	return common.EmptyHash, false
}

// Participation returns the weight counted at (height, view, step) and
// whether it reached the threshold, whatever the values voted.
func (c *Collector) Participation(height, view uint64, step types.Step) (weight uint64, reached bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	t, has := c.tallies[types.VoteKey{Height: height, View: view, Step: step}]
	if !has {
		return 0, false
	}
	return t.counted, c.threshold.Reached(t.counted, t.total)
}

// Votes returns every vote recorded at (height, view, step) in arrival order,
// equivocating votes included.
func (c *Collector) Votes(height, view uint64, step types.Step) []*types.Vote {
	c.lock.RLock()
	defer c.lock.RUnlock()

	t, has := c.tallies[types.VoteKey{Height: height, View: view, Step: step}]
	if !has {
		return nil
	}
	return append([]*types.Vote(nil), t.order...)
}

// VotesFor returns the counted votes for hash at (height, view, step).
func (c *Collector) VotesFor(height, view uint64, step types.Step, hash common.Hash) []*types.Vote {
	c.lock.RLock()
	defer c.lock.RUnlock()

	t, has := c.tallies[types.VoteKey{Height: height, View: view, Step: step}]
	if !has {
		return nil
	}

	var votes []*types.Vote
	for _, v := range t.order {
		if _, equivocated := t.equivocators[v.Voter]; equivocated {
			continue
		}
		if v.BlockHash == hash {
			votes = append(votes, v)
		}
	}
	return votes
}

// VotesByVoter returns the votes of addr still held by the collector.
func (c *Collector) VotesByVoter(addr common.Address) []*types.Vote {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return append([]*types.Vote(nil), c.byVoter[addr]...)
}

// Views returns the views of height holding votes for step.
func (c *Collector) Views(height uint64, step types.Step) []uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	var views []uint64
	for key := range c.tallies {
		if key.Height == height && key.Step == step {
			views = append(views, key.View)
		}
	}
	return views
}

// Prune drops the votes of every height below finalized. Later votes for
// those heights are rejected as stale. Evidence is kept.
func (c *Collector) Prune(finalized uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if finalized <= c.horizon {
		return
	}
	c.horizon = finalized

	for key := range c.tallies {
		if key.Height < finalized {
			delete(c.tallies, key)
		}
	}

	for voter, votes := range c.byVoter {
		kept := votes[:0]
		for _, v := range votes {
			if v.Height >= finalized {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(c.byVoter, voter)
			continue
		}
		c.byVoter[voter] = kept
	}

	for fp, v := range c.seen {
		if v.Height < finalized {
			delete(c.seen, fp)
		}
	}

	trackedHeightsGauge.Set(float64(len(c.tallies)))
	logger.Debugf("pruned votes below height %d", finalized)
}

// Horizon returns the lowest height still accepted.
func (c *Collector) Horizon() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.horizon
}

// Evidence returns the equivocations detected so far.
func (c *Collector) Evidence() []*types.Equivocation {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return append([]*types.Equivocation(nil), c.evidence...)
}

// DrainEvidence returns and forgets the equivocations detected so far.
func (c *Collector) DrainEvidence() []*types.Equivocation {
	c.lock.Lock()
	defer c.lock.Unlock()

	evidence := c.evidence
	c.evidence = nil
	return evidence
}
