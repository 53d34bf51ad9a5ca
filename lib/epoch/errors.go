// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package epoch

import "errors"

var (
	// ErrNoEpoch is returned for a height before the genesis epoch.
	ErrNoEpoch = errors.New("no epoch at height")
	// ErrNotFinalized is returned when checking a transition on a non finalized header.
	ErrNotFinalized = errors.New("header is not finalized")
	// ErrOutOfOrder is returned when committing a record that does not extend the history.
	ErrOutOfOrder = errors.New("epoch record out of order")
)
