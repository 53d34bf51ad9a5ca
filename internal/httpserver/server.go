// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// Server is an HTTP server bound to a single handler.
type Server struct {
	name     string
	address  string
	handler  http.Handler
	logger   Logger
	optional optionalSettings

	addressLock sync.RWMutex
	addressSet  chan struct{}
}

// New creates a server named name which serves handler on address.
// An address with port 0 lets the OS pick a free port.
func New(name, address string, handler http.Handler, logger Logger,
	options ...Option) *Server {
	return &Server{
		name:       name,
		address:    address,
		handler:    handler,
		logger:     logger,
		optional:   newOptionalSettings(options),
		addressSet: make(chan struct{}),
	}
}

// Run listens and serves until ctx is canceled. ready is closed once the
// server listens, and the outcome is sent on done before Run returns.
func (s *Server) Run(ctx context.Context, ready chan<- struct{}, done chan<- error) {
	server := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.optional.readTimeout,
		ReadHeaderTimeout: s.optional.readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		done <- fmt.Errorf("cannot listen on %s: %w", s.address, err)
		return
	}

	s.addressLock.Lock()
	s.address = listener.Addr().String()
	s.addressLock.Unlock()
	close(s.addressSet)

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Warn(s.name + " http server shutting down: " + ctx.Err().Error())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.optional.shutdownTimeout)
		defer cancel()
		shutdownDone <- server.Shutdown(shutdownCtx)
	}()

	s.logger.Info(s.name + " http server listening on " + listener.Addr().String())
	close(ready)

	err = server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error(s.name + " http server crashed: " + err.Error())
		done <- err
		return
	}

	err = <-shutdownDone
	if err != nil {
		err = fmt.Errorf("%s http server failed shutting down: %w", s.name, err)
	}
	done <- err
}

// Address returns the address the server listens on, blocking until
// Run bound it.
func (s *Server) Address() string {
	<-s.addressSet
	s.addressLock.RLock()
	defer s.addressLock.RUnlock()
	return s.address
}
