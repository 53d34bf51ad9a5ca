// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import "errors"

var (
	// ErrGenesisMismatch is returned when the database holds another chain.
	ErrGenesisMismatch = errors.New("genesis mismatch")
	// ErrParentNotFound is returned when adding a header whose parent is unknown.
	ErrParentNotFound = errors.New("parent header not found")
	// ErrFinalizedBackwards is returned when finalizing below the finalized head.
	ErrFinalizedBackwards = errors.New("cannot finalize below the finalized head")
	// ErrEpochOutOfOrder is returned when epoch records are not appended in sequence.
	ErrEpochOutOfOrder = errors.New("epoch record out of order")
)
