// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/epoch"
	"github.com/ChainSafe/sealer/lib/validators"
	"github.com/ChainSafe/sealer/lib/votes"
	lru "github.com/hashicorp/golang-lru"
	"github.com/libp2p/go-libp2p-core/peer"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "bft"))

const (
	defaultBufferSize  = 1024
	committedCacheSize = 256
	verifiedCacheSize  = 4096
)

// VoteStore persists the votes, proposals and evidence of the service.
type VoteStore interface {
	AddVote(vote *types.Vote) error
	Votes(height uint64) ([]*types.Vote, error)
	AddProposal(p *types.Proposal) error
	Proposals(height uint64) ([]*types.Proposal, error)
	Prune(finalized uint64) error
	AddEvidence(evidence *types.Equivocation) error
}

// Config is the configuration of the BFT service.
type Config struct {
	// Signer is the local validator identity. A nil signer follows consensus without voting.
	Signer   consensus.Signer
	Headers  consensus.HeaderProvider
	Importer consensus.BlockImporter
	Network  consensus.Network
	// Evidence is optional.
	Evidence consensus.EvidenceHandler
	// VoteStore is optional. Without it votes and proposals are not
	// replayed after a restart.
	VoteStore VoteStore
	// Epochs tracks validator set transitions. When nil, Validators is used at every height.
	Epochs     *epoch.Manager
	Validators validators.SnapshotSource
	// Set answers membership and rotation queries by parent hash. It
	// defaults to a validators.Transitioning set over Headers and the
	// snapshot source.
	Set       validators.Set
	Threshold validators.Threshold
	Timeouts  Timeouts
	// BufferSize bounds the number of future height messages kept.
	BufferSize int
}

// Service runs the BFT round machine. Network messages, timeouts and seal
// requests are serialised by a single lock which is never held while
// gossiping.
type Service struct {
	signer    consensus.Signer
	headers   consensus.HeaderProvider
	importer  consensus.BlockImporter
	network   consensus.Network
	evidence  consensus.EvidenceHandler
	store     VoteStore
	epochs    *epoch.Manager
	snapshots validators.SnapshotSource
	set       validators.Set
	threshold validators.Threshold
	timeouts  Timeouts

	lock      sync.Mutex
	started   bool
	round     *roundState
	collector *votes.Collector
	buffer    futureBuffer
	timer     *time.Timer
	// outbox holds the messages to gossip once the lock is released
	outbox []consensus.Message
	// replay holds the buffered messages of a height that just became current
	replay []bufferedMessage

	// committed maps block hashes to the seals built when committing them
	committed *lru.Cache
	// verified holds the sealed hashes of headers whose commit verified
	verified *lru.Cache
}

var _ consensus.Engine = (*Service)(nil)

// NewService returns a stopped BFT service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Headers == nil || cfg.Importer == nil || cfg.Network == nil {
		return nil, fmt.Errorf("%w: bft needs a header provider, a block importer and a network",
			consensus.ErrConfiguration)
	}

	snapshots := cfg.Validators
	if cfg.Epochs != nil {
		snapshots = cfg.Epochs
	}
	if snapshots == nil {
		return nil, fmt.Errorf("%w: no validator set", consensus.ErrConfiguration)
	}

	set := cfg.Set
	if set == nil {
		transitioning, err := validators.NewTransitioning(cfg.Headers, snapshots)
		if err != nil {
			return nil, err
		}
		set = transitioning
	}

	if err := cfg.Timeouts.Validate(); err != nil {
		return nil, err
	}

	collector, err := votes.NewCollector(snapshots, cfg.Threshold)
	if err != nil {
		return nil, err
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	committed, err := lru.New(committedCacheSize)
	if err != nil {
		return nil, err
	}
	verified, err := lru.New(verifiedCacheSize)
	if err != nil {
		return nil, err
	}

	return &Service{
		signer:    cfg.Signer,
		headers:   cfg.Headers,
		importer:  cfg.Importer,
		network:   cfg.Network,
		evidence:  cfg.Evidence,
		store:     cfg.VoteStore,
		epochs:    cfg.Epochs,
		snapshots: snapshots,
		set:       set,
		threshold: cfg.Threshold,
		timeouts:  cfg.Timeouts,
		collector: collector,
		buffer:    newFutureBuffer(bufferSize),
		committed: committed,
		verified:  verified,
	}, nil
}

// withLock runs f with the lock held, processes the buffered messages
// that became current, then gossips the queued messages.
func (s *Service) withLock(f func() error) error {
	s.lock.Lock()
	err := f()
	s.drainReplay()
	outbox := s.outbox
	s.outbox = nil
	s.lock.Unlock()

	for _, msg := range outbox {
		s.network.Gossip(msg)
	}
	return err
}

// Start starts the round machine at height. Votes persisted for that
// height are replayed first so a restarted node keeps its lock and never
// contradicts the votes it already cast.
func (s *Service) Start(height uint64) error {
	return s.withLock(func() error {
		if s.started {
			return ErrServiceStarted
		}
		s.started = true

		if err := s.newHeight(height); err != nil {
			s.started = false
			return err
		}
		s.advance()
		return nil
	})
}

// Stop stops the round machine. It can be started again.
func (s *Service) Stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.started = false
	s.stopTimer()
	return nil
}

// Round returns the round state of the current height.
func (s *Service) Round() RoundInfo {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.round == nil {
		return RoundInfo{LockedView: types.NoView, ValidView: types.NoView}
	}
	return s.round.info()
}

// Collector returns the vote collector of the service.
func (s *Service) Collector() *votes.Collector {
	return s.collector
}

// HandleMessage processes a payload received from a peer on ProtocolID.
// Messages for a later height are buffered and reported with an error
// wrapping ErrFutureMessage. A vote proving its voter equivocated is
// recorded and reported with an error wrapping ErrEquivocation.
func (s *Service) HandleMessage(from peer.ID, payload []byte) error {
	msg, err := DecodeMessage(payload)
	if err != nil {
		messagesCounter.WithLabelValues("unknown", "rejected").Inc()
		return err
	}

	return s.withLock(func() error {
		return s.handle(from, msg)
	})
}

func (s *Service) handle(from peer.ID, msg consensus.Message) (err error) {
	if !s.started {
		return ErrServiceNotStarted
	}

	typ := "vote"
	if _, ok := msg.(*ProposalMessage); ok {
		typ = "proposal"
	}

	rs := s.round
	height := messageHeight(msg)
	switch {
	case height < rs.height:
		messagesCounter.WithLabelValues(typ, "stale").Inc()
		return fmt.Errorf("%w: %s for height %d at height %d", consensus.ErrStaleMessage, typ, height, rs.height)
	case height > rs.height:
		enc, err := msg.Encode()
		if err != nil {
			return err
		}
		s.buffer.add(from, height, common.Fingerprint(enc), msg)
		messagesCounter.WithLabelValues(typ, "buffered").Inc()
		return fmt.Errorf("%w: %s for height %d at height %d", consensus.ErrFutureMessage, typ, height, rs.height)
	}

	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = "rejected"
		}
		messagesCounter.WithLabelValues(typ, outcome).Inc()
	}()

	switch m := msg.(type) {
	case *ProposalMessage:
		return s.handleProposal(m.Proposal)
	case *VoteMessage:
		return s.handleVote(m.Vote)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMessageType, msg)
	}
}

func (s *Service) drainReplay() {
	for len(s.replay) > 0 {
		m := s.replay[0]
		s.replay = s.replay[1:]
		if err := s.handle(m.from, m.msg); err != nil {
			logger.Debugf("buffered message from %s: %s", m.from, err)
		}
	}
}

func (s *Service) handleVote(vote *types.Vote) error {
	result, err := s.collector.AddVote(vote)
	if err != nil {
		return err
	}

	switch result.Status {
	case votes.DuplicateIgnored:
		return nil
	case votes.Equivocation:
		s.persist(vote)
		s.reportEvidence()
		s.advance()
		return fmt.Errorf("%w: %s", consensus.ErrEquivocation, result.Evidence)
	}

	s.persist(vote)
	s.advance()
	return nil
}

func (s *Service) handleProposal(p *types.Proposal) error {
	rs := s.round
	if existing, has := rs.proposals[p.View]; has {
		if existing.Digest() == p.Digest() {
			return nil
		}
		return fmt.Errorf("%w: second proposal for height %d view %d", consensus.ErrEquivocation, p.Height, p.View)
	}

	if err := s.verifyProposal(p); err != nil {
		return err
	}

	p.Header = *p.Header.WithSeal(nil)
	rs.addProposal(p)
	s.persistProposal(p)
	logger.Debugf("received %s", p)

	s.advance()
	return nil
}

// verifyProposal checks p is signed by the rotation proposer of its view
// and carries a block authored by the rotation proposer of the view it was
// first proposed in: the proposal view itself without a proof of lock, a
// view no later than the valid view with one.
func (s *Service) verifyProposal(p *types.Proposal) error {
	rs := s.round
	if p.HasProofOfLock() {
		if p.ValidView >= p.View {
			return fmt.Errorf("%w: valid view %d not before view %d", ErrInvalidProposal, p.ValidView, p.View)
		}
		if p.OriginView > p.ValidView {
			return fmt.Errorf("%w: origin view %d after valid view %d", ErrInvalidProposal, p.OriginView, p.ValidView)
		}
	} else if p.OriginView != p.View {
		return fmt.Errorf("%w: origin view %d without proof of lock at view %d",
			ErrInvalidProposal, p.OriginView, p.View)
	}

	header := &p.Header
	if header.Number != p.Height {
		return fmt.Errorf("%w: block %d proposed for height %d", ErrInvalidProposal, header.Number, p.Height)
	}
	if len(header.Seal) != 0 {
		return fmt.Errorf("%w: proposed block is sealed", ErrInvalidProposal)
	}
	if origin, has := rs.origins[p.BlockHash()]; has && origin != p.OriginView {
		return fmt.Errorf("%w: block %s first proposed at view %d, not %d",
			ErrInvalidProposal, p.BlockHash().Short(), origin, p.OriginView)
	}

	parent, err := s.headers.HeaderAt(header.ParentHash)
	if err != nil {
		return fmt.Errorf("%w: cannot get parent %s: %s", ErrInvalidProposal, header.ParentHash.Short(), err)
	}
	if err = consensus.VerifyParent(header, parent); err != nil {
		return err
	}

	snapshot, err := s.set.Snapshot(header.ParentHash)
	if err != nil {
		return fmt.Errorf("cannot get validators after %s: %w", header.ParentHash.Short(), err)
	}

	proposer := consensus.Proposer(snapshot, p.Height, p.View)
	signer, err := consensus.RecoverSigner(p.Digest(), p.Signature)
	if err != nil {
		return err
	}
	if signer != proposer {
		return fmt.Errorf("%w: proposal for view %d signed by %s, proposer is %s",
			consensus.ErrWrongProposer, p.View, signer, proposer)
	}

	if author := consensus.Proposer(snapshot, p.Height, p.OriginView); header.Author != author {
		return fmt.Errorf("%w: block authored by %s, proposer of view %d is %s",
			consensus.ErrWrongProposer, header.Author, p.OriginView, author)
	}
	return nil
}

func (s *Service) persist(vote *types.Vote) {
	if s.store == nil {
		return
	}
	if err := s.store.AddVote(vote); err != nil {
		logger.Errorf("cannot persist %s: %s", vote, err)
	}
}

func (s *Service) persistProposal(p *types.Proposal) {
	if s.store == nil {
		return
	}
	if err := s.store.AddProposal(p); err != nil {
		logger.Errorf("cannot persist %s: %s", p, err)
	}
}

func (s *Service) reportEvidence() {
	for _, evidence := range s.collector.DrainEvidence() {
		if s.store != nil {
			if err := s.store.AddEvidence(evidence); err != nil {
				logger.Errorf("cannot persist %s: %s", evidence, err)
			}
		}
		if s.evidence != nil {
			s.evidence.HandleEquivocation(evidence)
		}
	}
}

// newHeight discards the state of the previous height and starts height.
func (s *Service) newHeight(height uint64) error {
	snapshot, err := s.snapshots.EffectiveSetAt(height)
	if err != nil {
		return fmt.Errorf("cannot get validators at height %d: %w", height, err)
	}

	s.stopTimer()
	s.round = newRoundState(height, snapshot)
	s.buffer.dropBelow(height)
	heightGauge.Set(float64(height))

	if err = s.replayVotes(height); err != nil {
		return err
	}
	if err = s.replayProposals(height); err != nil {
		return err
	}
	view := s.recover()

	s.replay = append(s.replay, s.buffer.take(height)...)
	logger.Infof("starting height %d with %d validators", height, snapshot.Len())
	s.enterView(view)
	return nil
}

func (s *Service) replayVotes(height uint64) error {
	if s.store == nil {
		return nil
	}

	stored, err := s.store.Votes(height)
	if err != nil {
		return fmt.Errorf("cannot load votes at height %d: %w", height, err)
	}
	for _, vote := range stored {
		if _, err := s.collector.AddVote(vote); err != nil {
			logger.Warnf("dropping stored %s: %s", vote, err)
		}
	}
	// evidence from replayed votes is persisted already
	s.collector.DrainEvidence()

	if len(stored) > 0 {
		logger.Infof("replayed %d votes at height %d", len(stored), height)
	}
	return nil
}

func (s *Service) replayProposals(height uint64) error {
	if s.store == nil {
		return nil
	}

	stored, err := s.store.Proposals(height)
	if err != nil {
		return fmt.Errorf("cannot load proposals at height %d: %w", height, err)
	}
	for _, p := range stored {
		if err := s.verifyProposal(p); err != nil {
			logger.Warnf("dropping stored %s: %s", p, err)
			continue
		}
		p.Header = *p.Header.WithSeal(nil)
		s.round.addProposal(p)
	}
	return nil
}

// commit seals header with the precommits of view, hands it to the block
// importer and moves to the next height.
func (s *Service) commit(header *types.Header, view uint64) error {
	rs := s.round
	hash := header.Hash()

	sigs := types.CommitSigs(s.collector.VotesFor(rs.height, view, types.Precommit, hash))
	encSigs, err := types.EncodeCommitSigs(sigs)
	if err != nil {
		return err
	}
	seal := types.Seal{consensus.EncodeView(view), consensus.EncodeView(rs.origins[hash]), encSigs}

	if s.epochs != nil && rs.height > 0 && s.epochs.IsTransitionHeight(rs.height) {
		record, err := s.epochs.EpochAt(rs.height)
		if err != nil {
			return err
		}
		proof, err := record.Proof.Encode()
		if err != nil {
			return err
		}
		seal = append(seal, proof)
	}

	sealed := header.WithSeal(seal)
	if err = s.importer.ImportCommitted(sealed); err != nil {
		return fmt.Errorf("cannot import committed block: %w", err)
	}

	rs.step = StepCommit
	s.stopTimer()
	s.committed.Add(hash, seal)
	commitsCounter.Inc()
	logger.Infof("committed block %d %s at view %d with %d precommits", rs.height, hash.Short(), view, len(sigs))

	s.collector.Prune(rs.height + 1)
	if s.store != nil {
		if err = s.store.Prune(rs.height + 1); err != nil {
			logger.Errorf("cannot prune votes below height %d: %s", rs.height+1, err)
		}
	}
	s.checkEpoch(sealed)

	return s.newHeight(rs.height + 1)
}

func (s *Service) checkEpoch(finalized *types.Header) {
	if s.epochs == nil {
		return
	}

	record, err := s.epochs.CheckTransition(finalized)
	if err != nil {
		logger.Errorf("cannot check validator set transition after block %d: %s", finalized.Number, err)
		return
	}
	if record == nil {
		return
	}

	if err = s.epochs.Commit(record); err != nil {
		logger.Errorf("cannot commit %s: %s", record, err)
		return
	}
	if err = s.OnEpochBegin(record.FirstHeight); err != nil {
		logger.Errorf("cannot begin epoch %d: %s", record.Number, err)
	}
}

// schedule starts the timeout of the current step.
func (s *Service) schedule() {
	s.stopTimer()

	rs := s.round
	height, view, step := rs.height, rs.view, rs.step
	d := s.timeouts.Duration(step, view)
	rs.deadline = time.Now().Add(d)
	s.timer = time.AfterFunc(d, func() {
		s.handleTimeout(height, view, step)
	})
}

func (s *Service) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// handleTimeout takes the timeout transition of (height, view, step) if
// the machine is still there.
func (s *Service) handleTimeout(height, view uint64, step Step) {
	_ = s.withLock(func() error {
		rs := s.round
		if !s.started || rs.height != height || rs.view != view || rs.step != step {
			return nil
		}

		timeoutsCounter.WithLabelValues(step.String()).Inc()
		logger.Debugf("height %d view %d: %s timeout", height, view, step)

		switch step {
		case StepPropose:
			s.castVote(types.Prevote, types.NilHash)
			s.enterStep(StepPrevote)
		case StepPrevote:
			s.castVote(types.Precommit, types.NilHash)
			s.enterStep(StepPrecommit)
		case StepPrecommit:
			s.enterView(view + 1)
		}
		s.advance()
		return nil
	})
}

// GenerateSeal returns the seal built when candidate was committed. Until
// then it returns ErrNotReady; if the local node proposes at the current
// view, candidate becomes its proposal.
func (s *Service) GenerateSeal(_ context.Context, candidate *types.Header, signer consensus.Signer) (types.Seal, error) {
	hash := candidate.Hash()
	var seal types.Seal

	err := s.withLock(func() error {
		if cached, ok := s.committed.Get(hash); ok {
			seal = cached.(types.Seal).Copy()
			return nil
		}
		if !s.started {
			return fmt.Errorf("%w: %s", consensus.ErrNotReady, ErrServiceNotStarted)
		}
		if s.signer == nil || signer == nil || signer.Identity() != s.signer.Identity() {
			return fmt.Errorf("%w: seal requested by a signer other than the validator identity",
				consensus.ErrConfiguration)
		}

		rs := s.round
		if candidate.Number != rs.height {
			return fmt.Errorf("%w: candidate block %d, deciding height %d",
				consensus.ErrNotReady, candidate.Number, rs.height)
		}
		if candidate.Author != s.signer.Identity() {
			return fmt.Errorf("%w: candidate authored by %s", consensus.ErrInvalidHeader, candidate.Author)
		}
		parent, err := s.headers.HeaderAt(candidate.ParentHash)
		if err != nil {
			return fmt.Errorf("cannot get parent of block %d: %w", candidate.Number, err)
		}
		if err = consensus.VerifyParent(candidate, parent); err != nil {
			return err
		}

		rs.candidate = candidate.WithSeal(nil)
		if _, has := rs.proposals[rs.view]; !has && rs.step == StepPropose && s.isProposer() {
			s.propose()
			s.advance()
		}

		if cached, ok := s.committed.Get(hash); ok {
			seal = cached.(types.Seal).Copy()
			return nil
		}
		return fmt.Errorf("%w: block %d not committed yet", consensus.ErrNotReady, candidate.Number)
	})
	return seal, err
}
