// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package services

import (
	"errors"
	"fmt"
)

// ServiceRegistry starts services in registration order and stops them
// in reverse order.
type ServiceRegistry struct {
	names    []string
	services map[string]Service
	logger   Logger
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry(logger Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]Service),
		logger:   logger,
	}
}

// RegisterService adds service under name. A name registered twice keeps
// its first service.
func (s *ServiceRegistry) RegisterService(name string, service Service) {
	if _, exists := s.services[name]; exists {
		s.logger.Warnf("service %s is already registered", name)
		return
	}
	s.services[name] = service
	s.names = append(s.names, name)
}

// StartAll starts every service. If one fails, the services already
// started are stopped and the error is returned.
func (s *ServiceRegistry) StartAll() error {
	s.logger.Infof("starting services %v", s.names)
	for i, name := range s.names {
		s.logger.Debugf("starting service %s", name)
		if err := s.services[name].Start(); err != nil {
			startErr := fmt.Errorf("cannot start service %s: %w", name, err)
			return errors.Join(startErr, s.stop(s.names[:i]))
		}
	}
	return nil
}

// StopAll stops every service, returning all the errors met.
func (s *ServiceRegistry) StopAll() error {
	s.logger.Infof("stopping services %v", s.names)
	return s.stop(s.names)
}

func (s *ServiceRegistry) stop(names []string) error {
	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		s.logger.Debugf("stopping service %s", name)
		if err := s.services[name].Stop(); err != nil {
			s.logger.Errorf("cannot stop service %s: %s", name, err)
			errs = append(errs, fmt.Errorf("cannot stop service %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the service registered under name, or nil.
func (s *ServiceRegistry) Get(name string) Service {
	return s.services[name]
}
