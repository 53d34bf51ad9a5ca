// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

//go:generate mockgen -destination=mocks_test.go -package=$GOPACKAGE github.com/ChainSafe/sealer/lib/consensus HeaderProvider,BlockImporter,Network,EvidenceHandler
