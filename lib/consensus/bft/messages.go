// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/libp2p/go-libp2p-core/protocol"
)

// ProtocolID is the protocol BFT messages are exchanged on.
const ProtocolID protocol.ID = "/sealer/bft/1"

// MessageType is the first byte of an encoded BFT message.
type MessageType byte

const (
	ProposalMsgType MessageType = iota + 1
	VoteMsgType
)

func (t MessageType) String() string {
	switch t {
	case ProposalMsgType:
		return "proposal"
	case VoteMsgType:
		return "vote"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// ProposalMessage carries a signed proposal.
type ProposalMessage struct {
	Proposal *types.Proposal
}

// VoteMessage carries a signed vote.
type VoteMessage struct {
	Vote *types.Vote
}

var (
	_ consensus.Message = (*ProposalMessage)(nil)
	_ consensus.Message = (*VoteMessage)(nil)
)

// Encode returns the message type byte followed by the RLP encoded proposal.
func (m *ProposalMessage) Encode() ([]byte, error) {
	enc, err := m.Proposal.Encode()
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(ProposalMsgType)}, enc...), nil
}

// Encode returns the message type byte followed by the RLP encoded vote.
func (m *VoteMessage) Encode() ([]byte, error) {
	enc, err := m.Vote.Encode()
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(VoteMsgType)}, enc...), nil
}

// DecodeMessage decodes a payload received on ProtocolID.
func DecodeMessage(in []byte) (consensus.Message, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrUnknownMessageType)
	}

	switch MessageType(in[0]) {
	case ProposalMsgType:
		p, err := types.DecodeProposal(in[1:])
		if err != nil {
			return nil, err
		}
		return &ProposalMessage{Proposal: p}, nil
	case VoteMsgType:
		v, err := types.DecodeVote(in[1:])
		if err != nil {
			return nil, err
		}
		return &VoteMessage{Vote: v}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, in[0])
	}
}

// messageHeight returns the height a message belongs to.
func messageHeight(msg consensus.Message) uint64 {
	switch m := msg.(type) {
	case *ProposalMessage:
		return m.Proposal.Height
	case *VoteMessage:
		return m.Vote.Height
	default:
		panic(fmt.Sprintf("unexpected message type %T", msg))
	}
}
