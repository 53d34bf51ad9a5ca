// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package consensus

import "errors"

var (
	// ErrNotReady is returned by GenerateSeal when no seal can be produced yet.
	ErrNotReady = errors.New("seal not ready")
	// ErrInvalidSeal is returned for a malformed or unverifiable seal.
	ErrInvalidSeal = errors.New("invalid seal")
	// ErrInvalidHeader is returned when a header does not extend its parent.
	ErrInvalidHeader = errors.New("invalid header")
	// ErrWrongProposer is returned when a block author is not the rotation proposer.
	ErrWrongProposer = errors.New("wrong proposer")
	// ErrInvalidSignature is returned for a signature not recovering the expected signer.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInsufficientQuorum is returned when votes do not reach the quorum threshold.
	ErrInsufficientQuorum = errors.New("insufficient quorum")
	// ErrUnknownValidator is returned for a signer outside the effective validator set.
	ErrUnknownValidator = errors.New("unknown validator")
	// ErrStaleMessage is returned for a message of a height or view already past.
	ErrStaleMessage = errors.New("stale message")
	// ErrFutureMessage is returned for a message buffered until its height is current.
	ErrFutureMessage = errors.New("future message")
	// ErrEquivocation is returned alongside equivocation evidence.
	ErrEquivocation = errors.New("equivocation")
	// ErrEpochProofInvalid is returned for a missing or invalid epoch transition proof.
	ErrEpochProofInvalid = errors.New("invalid epoch transition proof")
	// ErrConfiguration is returned for an unusable configuration. It is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)
