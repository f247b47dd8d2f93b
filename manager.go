// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package xenoclient

import (
	"context"
	"errors"
	"time"
)

const defaultEventBuffer = 8

// Option customizes Manager behavior.
type Option func(*Manager)

// WithTimeout sets the per-request timeout window.
// If not provided, DefaultRequestTimeout is used.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTransport injects a custom Transport.
// If not provided, a TCP transport is used.
func WithTransport(t Transport) Option {
	return func(m *Manager) {
		if t != nil {
			m.transport = t
		}
	}
}

// WithEventBuffer sets the capacity of the Errors and Disconnected
// channels. Events beyond an unread buffer are dropped rather than
// blocking dispatch.
func WithEventBuffer(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.eventBuffer = n
		}
	}
}

// Manager owns one authenticated connection to a xenoDB server and the
// pending-request table shared by every Namespace handle derived from it.
//
// Connection parameters are immutable after construction. The Manager is
// safe for concurrent use once Connect has returned.
type Manager struct {
	address   string
	authToken string

	timeout     time.Duration
	eventBuffer int

	transport Transport
	pending   *PendingTable
	endpoint  *endpoint

	errc chan error
	disc chan string
}

// New creates a Manager for the given server address and auth token. The
// connection is not established until Connect.
func New(address, authToken string, opts ...Option) *Manager {
	m := &Manager{
		address:     address,
		authToken:   authToken,
		timeout:     DefaultRequestTimeout,
		eventBuffer: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transport == nil {
		m.transport = NewTCPTransport()
	}

	m.pending = NewPendingTable(m.timeout)
	m.errc = make(chan error, m.eventBuffer)
	m.disc = make(chan string, m.eventBuffer)
	m.endpoint = &endpoint{
		transport:   m.transport,
		pending:     m.pending,
		address:     m.address,
		errs:        m.errc,
		disconnects: m.disc,
	}
	return m
}

// Connect establishes the authenticated connection and starts dispatching
// inbound messages. It returns only once the transport confirms the
// connection is established. Connecting an already-connected Manager is a
// no-op.
func (m *Manager) Connect(ctx context.Context) error {
	if m.endpoint.isOpen() {
		return nil
	}
	return m.endpoint.connect(ctx, m.authToken)
}

// Namespace returns a handle scoped to path, sharing this Manager's
// connection and pending-request table. The connection must be open;
// namespace creation is never queued ahead of Connect.
func (m *Manager) Namespace(path string, validate Validator) (*Namespace, error) {
	if path == "" {
		return nil, errors.New("namespace path cannot be empty")
	}
	if !m.endpoint.isOpen() {
		return nil, ErrNotConnected
	}
	return &Namespace{path: path, validate: validate, manager: m}, nil
}

// Errors surfaces transport-level faults. Faults are independent of any
// in-flight operation; a request outlives them and settles by its own
// response or timeout.
func (m *Manager) Errors() <-chan error { return m.errc }

// Disconnected delivers the address of the now-closed connection once the
// transport terminates.
func (m *Manager) Disconnected() <-chan string { return m.disc }

// Connected reports whether the connection is currently open.
func (m *Manager) Connected() bool { return m.endpoint.isOpen() }

// InFlight reports the number of requests currently awaiting settlement.
func (m *Manager) InFlight() int { return m.pending.Len() }

// Close shuts the connection down. In-flight requests are not failed; each
// still settles by its own timer.
func (m *Manager) Close() error {
	err := m.transport.Close()
	closeAnalytics()
	return err
}
