// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package votes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	votesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sealer_votes",
		Name:      "added_total",
		Help:      "total number of votes submitted to the collector by outcome",
	}, []string{"status"})
	equivocationsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sealer_votes",
		Name:      "equivocations_total",
		Help:      "total number of equivocations detected",
	})
	trackedHeightsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sealer_votes",
		Name:      "tracked_steps",
		Help:      "number of round steps holding votes in memory",
	})
)
