// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package engine

import (
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/consensus/authority"
	"github.com/ChainSafe/sealer/lib/consensus/bft"
	"github.com/ChainSafe/sealer/lib/consensus/pow"
	"github.com/ChainSafe/sealer/lib/consensus/solo"
	"github.com/ChainSafe/sealer/lib/epoch"
	"github.com/ChainSafe/sealer/lib/validators"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "engine"))

// Config selects and parameterises the consensus algorithm.
type Config struct {
	Kind consensus.Kind

	// SoloSigner is the address sealing every block with Solo. It defaults
	// to the identity of the local signer.
	SoloSigner common.Address

	// Validators is the genesis validator set of Authority and BFT.
	Validators []types.Validator
	// StepDuration is the Authority view length in seconds.
	StepDuration uint64

	PoW pow.Config

	Threshold validators.Threshold
	Timeouts  bft.Timeouts
	// BufferSize bounds the BFT future message buffer.
	BufferSize int
	// Transitions maps activation heights to the BFT validator sets
	// taking effect there.
	Transitions map[uint64][]types.Validator
}

// Deps are the collaborators of the engine. Only Headers is needed by
// every algorithm but PoW and Solo.
type Deps struct {
	Headers  consensus.HeaderProvider
	Signer   consensus.Signer
	Importer consensus.BlockImporter
	Network  consensus.Network
	Evidence consensus.EvidenceHandler

	VoteStore  bft.VoteStore
	EpochStore epoch.Store
	// Signals holds validator set changes signalled on chain. Optional.
	Signals *epoch.SignalSource
}

// Engine is the consensus engine chosen by the configuration.
type Engine struct {
	consensus.Engine

	// BFT is the round machine, set for consensus.BFT only.
	BFT *bft.Service
	// Epochs is the validator set history, set for consensus.BFT only.
	Epochs *epoch.Manager
}

// New builds the engine selected by cfg.Kind. Configuration errors wrap
// consensus.ErrConfiguration.
func New(cfg Config, deps Deps) (*Engine, error) {
	var (
		e   = &Engine{}
		err error
	)

	switch cfg.Kind {
	case consensus.Solo:
		e.Engine, err = newSolo(cfg, deps)
	case consensus.Authority:
		e.Engine, err = newAuthority(cfg, deps)
	case consensus.PoW:
		e.Engine, err = pow.New(cfg.PoW)
	case consensus.BFT:
		e.BFT, e.Epochs, err = newBFT(cfg, deps)
		e.Engine = e.BFT
	default:
		return nil, fmt.Errorf("%w: unknown engine %s", consensus.ErrConfiguration, cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create %s engine: %w", cfg.Kind, err)
	}

	logger.Infof("using %s consensus", cfg.Kind)
	return e, nil
}

func newSolo(cfg Config, deps Deps) (*solo.Engine, error) {
	signer := cfg.SoloSigner
	if signer.IsEmpty() && deps.Signer != nil {
		signer = deps.Signer.Identity()
	}
	return solo.New(signer)
}

func newAuthority(cfg Config, deps Deps) (*authority.Engine, error) {
	snapshot, err := genesisSnapshot(cfg)
	if err != nil {
		return nil, err
	}
	set, err := validators.NewFixed(snapshot)
	if err != nil {
		return nil, err
	}

	return authority.New(authority.Config{
		Validators:   set,
		Headers:      deps.Headers,
		StepDuration: cfg.StepDuration,
	})
}

func newBFT(cfg Config, deps Deps) (*bft.Service, *epoch.Manager, error) {
	snapshot, err := genesisSnapshot(cfg)
	if err != nil {
		return nil, nil, err
	}
	if deps.Headers == nil {
		return nil, nil, fmt.Errorf("%w: no header provider", consensus.ErrConfiguration)
	}

	var sources []epoch.Source
	if len(cfg.Transitions) > 0 {
		schedule, err := epoch.NewSchedule(cfg.Transitions)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, schedule)
	}
	if deps.Signals != nil {
		sources = append(sources, deps.Signals)
	}

	epochs, err := epoch.NewManager(epoch.Config{
		Genesis:   &types.EpochRecord{Validators: *snapshot},
		Threshold: cfg.Threshold,
		Headers:   deps.Headers,
		Store:     deps.EpochStore,
		Sources:   sources,
		Proofs:    bft.ExtractProof,
	})
	if err != nil {
		return nil, nil, err
	}
	if err = epochs.Load(); err != nil {
		return nil, nil, err
	}

	set, err := validators.NewTransitioning(deps.Headers, epochs)
	if err != nil {
		return nil, nil, err
	}

	service, err := bft.NewService(bft.Config{
		Signer:     deps.Signer,
		Headers:    deps.Headers,
		Importer:   deps.Importer,
		Network:    deps.Network,
		Evidence:   deps.Evidence,
		VoteStore:  deps.VoteStore,
		Epochs:     epochs,
		Set:        set,
		Threshold:  cfg.Threshold,
		Timeouts:   cfg.Timeouts,
		BufferSize: cfg.BufferSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return service, epochs, nil
}

func genesisSnapshot(cfg Config) (*types.ValidatorSnapshot, error) {
	snapshot, err := types.NewValidatorSnapshot(cfg.Validators)
	if err != nil {
		return nil, fmt.Errorf("%w: genesis validators: %s", consensus.ErrConfiguration, err)
	}
	return snapshot, nil
}
