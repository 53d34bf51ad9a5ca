// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"testing"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
)

func voteAt(height, view uint64) *VoteMessage {
	return &VoteMessage{Vote: &types.Vote{
		Height:    height,
		View:      view,
		Step:      types.Prevote,
		BlockHash: common.Hash{byte(view)},
	}}
}

func Test_futureBuffer_add(t *testing.T) {
	t.Parallel()

	buffer := newFutureBuffer(3)
	first, second := voteAt(11, 0), voteAt(11, 1)

	buffer.add(peer.ID("a"), 11, 1, first)
	buffer.add(peer.ID("b"), 11, 2, second)
	assert.Equal(t, 2, buffer.len())

	// resending keeps the position and updates the sender
	buffer.add(peer.ID("c"), 11, 1, first)
	assert.Equal(t, 2, buffer.len())

	messages := buffer.take(11)
	assert.Equal(t, []bufferedMessage{
		{from: peer.ID("c"), height: 11, msg: first},
		{from: peer.ID("b"), height: 11, msg: second},
	}, messages)
	assert.Equal(t, 0, buffer.len())
	assert.Empty(t, buffer.mapping)
}

func Test_futureBuffer_eviction(t *testing.T) {
	t.Parallel()

	buffer := newFutureBuffer(2)
	oldest, middle, newest := voteAt(11, 0), voteAt(12, 0), voteAt(12, 1)

	buffer.add(peer.ID("a"), 11, 1, oldest)
	buffer.add(peer.ID("a"), 12, 2, middle)
	buffer.add(peer.ID("a"), 12, 3, newest)

	assert.Equal(t, 2, buffer.len())
	assert.Nil(t, buffer.take(11))
	_, has := buffer.mapping[11]
	assert.False(t, has)

	messages := buffer.take(12)
	assert.Len(t, messages, 2)
	assert.Equal(t, middle, messages[0].msg)
	assert.Equal(t, newest, messages[1].msg)
}

func Test_futureBuffer_take(t *testing.T) {
	t.Parallel()

	buffer := newFutureBuffer(10)
	buffer.add(peer.ID("a"), 11, 1, voteAt(11, 0))
	buffer.add(peer.ID("a"), 12, 2, voteAt(12, 0))
	buffer.add(peer.ID("a"), 11, 3, voteAt(11, 1))

	messages := buffer.take(11)
	assert.Len(t, messages, 2)
	for _, m := range messages {
		assert.Equal(t, uint64(11), m.height)
	}
	assert.Equal(t, 1, buffer.len())
	assert.Nil(t, buffer.take(11))
	assert.Nil(t, buffer.take(13))
}

func Test_futureBuffer_dropBelow(t *testing.T) {
	t.Parallel()

	buffer := newFutureBuffer(10)
	buffer.add(peer.ID("a"), 11, 1, voteAt(11, 0))
	buffer.add(peer.ID("a"), 12, 2, voteAt(12, 0))
	buffer.add(peer.ID("a"), 13, 3, voteAt(13, 0))

	buffer.dropBelow(13)

	assert.Equal(t, 1, buffer.len())
	assert.Nil(t, buffer.take(11))
	assert.Nil(t, buffer.take(12))
	assert.Len(t, buffer.take(13), 1)
}
