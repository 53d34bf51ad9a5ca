// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	heightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sealer_bft",
		Name:      "height",
		Help:      "height the round machine is working on",
	})
	viewGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sealer_bft",
		Name:      "view",
		Help:      "current view of the round machine",
	})
	commitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sealer_bft",
		Name:      "commits_total",
		Help:      "total number of blocks committed",
	})
	timeoutsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sealer_bft",
		Name:      "timeouts_total",
		Help:      "total number of step timeouts by step",
	}, []string{"step"})
	messagesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sealer_bft",
		Name:      "messages_total",
		Help:      "total number of messages handled by type and outcome",
	}, []string{"type", "outcome"})
	bufferedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sealer_bft",
		Name:      "buffered_messages",
		Help:      "number of future height messages buffered",
	})
	bufferEvictionsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sealer_bft",
		Name:      "buffer_evictions_total",
		Help:      "total number of buffered messages evicted by newer ones",
	})
)
