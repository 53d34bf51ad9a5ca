// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ChainSafe/sealer/config"
	"github.com/ChainSafe/sealer/dot/state"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/internal/metrics"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/consensus/engine"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/ChainSafe/sealer/lib/services"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "dot"))

// Genesis is the genesis header of every development chain.
var Genesis = &types.Header{}

// Options tune a node beyond its configuration file.
type Options struct {
	// Limit stops block production after that many blocks. Zero means no limit.
	Limit uint64
	// Interval is the pause between two blocks.
	Interval time.Duration
	// InMemory keeps the chain database in memory.
	InMemory bool
}

// Node is a single node development chain: the chain database, the
// consensus engine and a block producer.
type Node struct {
	Services *services.ServiceRegistry
	State    *state.Service
	Engine   *engine.Engine
	Producer *Producer
	Signer   *secp256k1.Keypair
}

// NewNode assembles a node from a validated configuration.
func NewNode(cfg *config.Config, opts Options) (*Node, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	signer, err := cfg.Signer()
	if err != nil {
		return nil, err
	}
	if signer == nil {
		if signer, err = secp256k1.GenerateKeypair(); err != nil {
			return nil, fmt.Errorf("cannot generate signer key: %w", err)
		}
		logger.Warnf("no key configured, sealing with ephemeral identity %s", signer.Identity())
	}

	basePath, err := expandPath(cfg.Global.BasePath)
	if err != nil {
		return nil, err
	}
	logger.Infof("initialising %s node at %s", engineCfg.Kind, basePath)

	stateSrvc, err := state.NewService(state.Config{BasePath: basePath, InMemory: opts.InMemory})
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}
	if err = stateSrvc.Initialise(Genesis, nil); err != nil {
		_ = stateSrvc.Stop()
		return nil, err
	}

	node, err := newNode(cfg, opts, engineCfg, signer, stateSrvc)
	if err != nil {
		_ = stateSrvc.Stop()
		return nil, err
	}
	return node, nil
}

func newNode(cfg *config.Config, opts Options, engineCfg engine.Config,
	signer *secp256k1.Keypair, stateSrvc *state.Service) (*Node, error) {
	e, err := engine.New(engineCfg, engine.Deps{
		Headers:    stateSrvc.Block,
		Signer:     signer,
		Importer:   stateSrvc.Block,
		Network:    localNetwork{},
		Evidence:   evidenceLogger{},
		VoteStore:  stateSrvc.Vote,
		EpochStore: stateSrvc.Epoch,
	})
	if err != nil {
		return nil, err
	}

	producer, err := NewProducer(ProducerConfig{
		Engine:   e,
		Signer:   signer,
		Blocks:   stateSrvc.Block,
		Interval: opts.Interval,
		Limit:    opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	node := &Node{
		Services: services.NewServiceRegistry(logger),
		State:    stateSrvc,
		Engine:   e,
		Producer: producer,
		Signer:   signer,
	}

	if cfg.Global.Metrics != "" {
		node.Services.RegisterService("metrics", metrics.NewServer(cfg.Global.Metrics))
	}
	if e.BFT != nil {
		node.Services.RegisterService("bft", &bftService{node: node})
	}
	node.Services.RegisterService("producer", producer)
	return node, nil
}

// Start starts the services and blocks until ctx is done or the producer
// ends. The node is stopped before Start returns.
func (n *Node) Start(ctx context.Context) error {
	logger.Info("starting node services...")
	if err := n.Services.StartAll(); err != nil {
		_ = n.State.Stop()
		return err
	}

	select {
	case <-ctx.Done():
		logger.Infof("shutting down: %s", ctx.Err())
	case <-n.Producer.Done():
	}
	return n.Stop()
}

// Stop stops every service, then closes the chain database.
func (n *Node) Stop() error {
	err := n.Services.StopAll()
	if stateErr := n.State.Stop(); stateErr != nil && err == nil {
		err = fmt.Errorf("cannot close state: %w", stateErr)
	}
	return err
}

// bftService starts the round machine on the height after the best block.
type bftService struct {
	node *Node
}

func (b *bftService) Start() error {
	best, err := b.node.State.Block.BestHeader()
	if err != nil {
		return fmt.Errorf("cannot get best header: %w", err)
	}
	return b.node.Engine.BFT.Start(best.Number + 1)
}

func (b *bftService) Stop() error {
	return b.node.Engine.BFT.Stop()
}

// localNetwork has no peer: the node is alone on its chain.
type localNetwork struct{}

func (localNetwork) Gossip(consensus.Message) {}

type evidenceLogger struct{}

func (evidenceLogger) HandleEquivocation(evidence *types.Equivocation) {
	logger.Warnf("%s", evidence)
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand base path: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
