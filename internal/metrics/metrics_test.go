// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metrics

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sealer",
	Subsystem: "metrics_test",
	Name:      "hits_total",
	Help:      "Counter exercised by the metrics server test.",
})

func Test_Server(t *testing.T) {
	t.Parallel()

	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())

	testCounter.Inc()

	response, err := http.Get("http://" + server.Address() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), "sealer_metrics_test_hits_total 1")

	response, err = http.Get("http://" + server.Address() + "/health")
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	assert.Equal(t, http.StatusOK, response.StatusCode)

	response, err = http.Post("http://"+server.Address()+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	assert.Equal(t, http.StatusMethodNotAllowed, response.StatusCode)

	assert.NoError(t, server.Stop())
}

func Test_Server_Start_listenError(t *testing.T) {
	t.Parallel()

	server := NewServer("127.0.0.1:-1")
	err := server.Start()
	assert.ErrorContains(t, err, "cannot listen")
}
