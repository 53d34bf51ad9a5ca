// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"container/list"

	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/libp2p/go-libp2p-core/peer"
)

// bufferedMessage is a message for a future height and the peer it came from.
type bufferedMessage struct {
	from   peer.ID
	height uint64
	msg    consensus.Message
}

// futureBuffer holds messages for heights not reached yet, and removes
// the oldest ones once its capacity is reached.
// It is NOT THREAD SAFE to use.
type futureBuffer struct {
	// map of height to message fingerprint to linked list element pointer
	mapping map[uint64]map[uint64]*list.Element
	// double linked list of bufferedMessage, newest at the front
	linkedList *list.List
	capacity   int
}

func newFutureBuffer(capacity int) futureBuffer {
	return futureBuffer{
		mapping:    make(map[uint64]map[uint64]*list.Element),
		linkedList: list.New(),
		capacity:   capacity,
	}
}

// add adds a message to the buffer. A message already buffered keeps its
// position so a peer cannot push other messages out by resending it.
func (fb *futureBuffer) add(from peer.ID, height, fingerprint uint64, msg consensus.Message) {
	fingerprintToElement, has := fb.mapping[height]
	if has {
		if element, exists := fingerprintToElement[fingerprint]; exists {
			element.Value = bufferedMessage{from: from, height: height, msg: msg}
			return
		}
	} else {
		fingerprintToElement = make(map[uint64]*list.Element)
		fb.mapping[height] = fingerprintToElement
	}

	fb.cleanup()
	element := fb.linkedList.PushFront(bufferedMessage{from: from, height: height, msg: msg})
	fingerprintToElement[fingerprint] = element
	bufferedGauge.Set(float64(fb.linkedList.Len()))
}

// cleanup removes the oldest message if the buffer is full.
func (fb *futureBuffer) cleanup() {
	if fb.linkedList.Len() < fb.capacity {
		return
	}

	oldest := fb.linkedList.Back()
	fb.remove(oldest)
	bufferEvictionsCounter.Inc()
}

func (fb *futureBuffer) remove(element *list.Element) {
	fb.linkedList.Remove(element)

	height := element.Value.(bufferedMessage).height
	fingerprintToElement := fb.mapping[height]
	for fingerprint, e := range fingerprintToElement {
		if e == element {
			delete(fingerprintToElement, fingerprint)
			break
		}
	}
	if len(fingerprintToElement) == 0 {
		delete(fb.mapping, height)
	}
}

// take removes and returns the messages buffered for height, oldest first.
func (fb *futureBuffer) take(height uint64) []bufferedMessage {
	if _, has := fb.mapping[height]; !has {
		return nil
	}

	var messages []bufferedMessage
	for element := fb.linkedList.Back(); element != nil; {
		previous := element.Prev()
		if data := element.Value.(bufferedMessage); data.height == height {
			messages = append(messages, data)
			fb.linkedList.Remove(element)
		}
		element = previous
	}
	delete(fb.mapping, height)

	bufferedGauge.Set(float64(fb.linkedList.Len()))
	return messages
}

// dropBelow removes every message for a height below height.
func (fb *futureBuffer) dropBelow(height uint64) {
	for h, fingerprintToElement := range fb.mapping {
		if h >= height {
			continue
		}
		for _, element := range fingerprintToElement {
			fb.linkedList.Remove(element)
		}
		delete(fb.mapping, h)
	}
	bufferedGauge.Set(float64(fb.linkedList.Len()))
}

func (fb *futureBuffer) len() int {
	return fb.linkedList.Len()
}
