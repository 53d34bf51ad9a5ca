// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import "errors"

var (
	ErrInvalidProposal        = errors.New("invalid proposal")
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrServiceNotStarted      = errors.New("bft service not started")
	ErrServiceStarted         = errors.New("bft service already started")
	ErrMissingTransitionProof = errors.New("missing transition proof")
)
