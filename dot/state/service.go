// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "state"))

// Config is the configuration for the state service.
type Config struct {
	BasePath string
	InMemory bool
}

// Service is the chain database holding headers, the epoch history
// and the consensus votes of unfinished heights.
type Service struct {
	db    chaindb.Database
	Block *BlockState
	Epoch *EpochState
	Vote  *VoteState
}

// NewService opens the database under cfg.BasePath.
func NewService(cfg Config) (*Service, error) {
	db, err := chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  filepath.Join(cfg.BasePath, "db"),
		InMemory: cfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return NewServiceFromDB(db), nil
}

// NewServiceFromDB builds the state service over an opened database.
func NewServiceFromDB(db chaindb.Database) *Service {
	return &Service{
		db:    db,
		Block: NewBlockState(db),
		Epoch: NewEpochState(db),
		Vote:  NewVoteState(db),
	}
}

// Initialise stores the genesis header and the genesis epoch if the database
// is empty. It is a no-op for an initialised database holding the same genesis.
func (s *Service) Initialise(genesis *types.Header, genesisEpoch *types.EpochRecord) error {
	stored, err := s.Block.GenesisHash()
	switch {
	case err == nil:
		if stored != genesis.Hash() {
			return fmt.Errorf("%w: database genesis %s, configured genesis %s",
				ErrGenesisMismatch, stored, genesis.Hash())
		}
		logger.Debugf("database already initialised with genesis %s", stored)
		return nil
	case !errors.Is(err, chaindb.ErrKeyNotFound):
		return fmt.Errorf("cannot read genesis hash: %w", err)
	}

	if err = s.Block.setGenesis(genesis); err != nil {
		return fmt.Errorf("cannot store genesis header: %w", err)
	}

	if genesisEpoch != nil {
		if err = s.Epoch.SetRecord(genesisEpoch); err != nil {
			return fmt.Errorf("cannot store genesis epoch: %w", err)
		}
	}

	logger.Infof("initialised database with genesis %s", genesis.Hash())
	return nil
}

// DB returns the underlying database.
func (s *Service) DB() chaindb.Database {
	return s.db
}

// Stop closes the database.
func (s *Service) Stop() error {
	return s.db.Close()
}
