// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package votes

import "errors"

// ErrInvalidVote is returned for a vote with a malformed step.
var ErrInvalidVote = errors.New("invalid vote")
