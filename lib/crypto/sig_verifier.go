// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package crypto

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
)

// ErrSignerMismatch is returned when a signature recovers another signer.
var ErrSignerMismatch = errors.New("signature recovers another signer")

// RecoverFunc recovers the signer of sig over msg.
type RecoverFunc func(msg, sig []byte) (common.Address, error)

// Signature is a signature expected from Signer over Msg.
type Signature struct {
	Signer      common.Address
	Sign        []byte
	Msg         []byte
	RecoverFunc RecoverFunc
}

func (s *Signature) verify() error {
	signer, err := s.RecoverFunc(s.Msg, s.Sign)
	if err != nil {
		return fmt.Errorf("signature of %s: %w", s.Signer, err)
	}
	if signer != s.Signer {
		return fmt.Errorf("%w: expected %s, got %s", ErrSignerMismatch, s.Signer, signer)
	}
	return nil
}

// SignatureVerifier verifies a batch of signatures on background workers.
// Start is called to start the workers, Add queues signatures and Finish
// waits for the batch and reports the first failure.
type SignatureVerifier struct {
	logger  log.LeveledLogger
	workers int
	sigs    chan *Signature
	wg      sync.WaitGroup

	lock    sync.RWMutex
	err     error
	started bool
}

// NewSignatureVerifier returns a verifier running workers goroutines.
func NewSignatureVerifier(logger log.LeveledLogger, workers int) *SignatureVerifier {
	if workers < 1 {
		workers = 1
	}
	return &SignatureVerifier{
		logger:  logger,
		workers: workers,
	}
}

// Start starts the verification workers.
func (sv *SignatureVerifier) Start() {
	sv.lock.Lock()
	defer sv.lock.Unlock()

	sv.started = true
	sv.err = nil
	sv.sigs = make(chan *Signature, sv.workers)

	sv.wg.Add(sv.workers)
	for i := 0; i < sv.workers; i++ {
		go sv.work(sv.sigs)
	}
}

func (sv *SignatureVerifier) work(sigs <-chan *Signature) {
	defer sv.wg.Done()
	for sig := range sigs {
		if sv.IsInvalid() {
			// drain the batch once one signature failed
			continue
		}
		if err := sig.verify(); err != nil {
			sv.logger.Debugf("batch verification failed: %s", err)
			sv.invalid(err)
		}
	}
}

// IsStarted returns true between Start and Finish.
func (sv *SignatureVerifier) IsStarted() bool {
	sv.lock.RLock()
	defer sv.lock.RUnlock()
	return sv.started
}

// IsInvalid returns true if a signature of the batch failed.
func (sv *SignatureVerifier) IsInvalid() bool {
	sv.lock.RLock()
	defer sv.lock.RUnlock()
	return sv.err != nil
}

func (sv *SignatureVerifier) invalid(err error) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	if sv.err == nil {
		sv.err = err
	}
}

// Add queues a signature of the batch. It must be called between Start and Finish.
func (sv *SignatureVerifier) Add(s *Signature) {
	sv.sigs <- s
}

// Finish waits for the batch to be verified and resets the verifier for
// reuse. It returns the first verification failure.
func (sv *SignatureVerifier) Finish() error {
	close(sv.sigs)
	sv.wg.Wait()

	sv.lock.Lock()
	defer sv.lock.Unlock()
	err := sv.err
	sv.err = nil
	sv.started = false
	return err
}
