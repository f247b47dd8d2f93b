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
	"encoding/json"
	"sync"
)

// endpoint owns the transport for one Manager. It translates inbound wire
// messages into settlements on the pending table and surfaces transport
// faults and closure on the Manager's event channels.
//
// A transport fault or closure settles nothing: every in-flight request
// keeps relying on its own expiry timer. See DESIGN.md for the rationale.
type endpoint struct {
	transport Transport
	pending   *PendingTable
	address   string

	errs        chan<- error
	disconnects chan<- string

	mu   sync.Mutex
	open bool
}

// connect opens the transport and starts the dispatch loop. The caller is
// not connected until the transport confirms the connection is established.
func (e *endpoint) connect(ctx context.Context, authToken string) error {
	if err := e.transport.Open(ctx, e.address, authToken); err != nil {
		trackError("connection_error", "endpoint.connect")
		return err
	}

	e.mu.Lock()
	e.open = true
	e.mu.Unlock()

	go e.dispatchLoop()
	trackClientConnected()
	return nil
}

// isOpen reports whether the connection is currently established.
func (e *endpoint) isOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// send writes one frame through the transport. Sending while the connection
// is not open is a precondition violation surfaced immediately, never
// queued.
func (e *endpoint) send(frame []byte) error {
	if !e.isOpen() {
		return ErrNotConnected
	}
	return e.transport.Send(frame)
}

func (e *endpoint) dispatchLoop() {
	for {
		select {
		case frame, ok := <-e.transport.Messages():
			if !ok {
				continue
			}
			e.dispatch(frame)
		case err := <-e.transport.Errors():
			e.publishError(err)
		case <-e.transport.Closed():
			e.mu.Lock()
			e.open = false
			e.mu.Unlock()
			e.publishDisconnect()
			return
		}
	}
}

// dispatch parses one inbound frame as a response envelope and settles the
// matching pending entry. Frames that cannot be parsed, carry no identity,
// match no pending entry, or carry neither data nor error are discarded;
// one bad message must never take down the dispatch loop.
func (e *endpoint) dispatch(frame []byte) {
	var env responseEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		trackError("protocol_error", "endpoint.dispatch")
		return
	}
	if env.RequestID == "" {
		return
	}

	switch {
	case env.Error != nil:
		trackError("server_error", "endpoint.dispatch")
		e.pending.Settle(env.RequestID, Settlement{Err: &ServerError{Message: *env.Error}})
	case env.Data != nil:
		e.pending.Settle(env.RequestID, Settlement{Data: env.Data})
	}
}

func (e *endpoint) publishError(err error) {
	select {
	case e.errs <- err:
	default:
	}
}

func (e *endpoint) publishDisconnect() {
	select {
	case e.disconnects <- e.address:
	default:
	}
}
