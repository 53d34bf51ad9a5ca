// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ChainSafe/sealer/internal/httpserver"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "metrics"))

var errUnexpectedExit = errors.New("metrics server exited unexpectedly")

const stopTimeout = 30 * time.Second

// Server serves the prometheus registry on /metrics.
type Server struct {
	cancel context.CancelFunc
	server *httpserver.Server
	done   chan error
}

// NewServer creates a metrics server listening on address.
func NewServer(address string) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return &Server{
		server: httpserver.New("metrics", address, router, logger),
	}
}

// Start runs the server and returns once it listens.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ready := make(chan struct{})
	s.done = make(chan error, 1)

	go s.server.Run(ctx, ready, s.done)

	select {
	case <-ready:
		logger.Infof("serving metrics at http://%s/metrics", s.server.Address())
		return nil
	case err := <-s.done:
		cancel()
		if err != nil {
			return err
		}
		return errUnexpectedExit
	}
}

// Address returns the address the server listens on.
func (s *Server) Address() string {
	return s.server.Address()
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	s.cancel()
	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case err := <-s.done:
		return err
	case <-timer.C:
		return fmt.Errorf("metrics server exit timeout after %s", stopTimeout)
	}
}
