// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package xenoclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRequestTimeout is the window a registered request waits for its
// matching response before it is force-failed.
const DefaultRequestTimeout = 2500 * time.Millisecond

// Settlement is the terminal outcome of a pending request. Exactly one of
// Data or Err is set.
type Settlement struct {
	Data json.RawMessage
	Err  error
}

// pendingRequest is one in-flight request. The done channel has capacity 1
// so the settling side never blocks on the caller.
type pendingRequest struct {
	id    string
	done  chan Settlement
	timer *time.Timer
}

// PendingTable tracks every in-flight request for one Manager, keyed by
// request identity. An entry is only ever observable in the pending state:
// settlement and expiry both remove it under the table lock before the
// outcome is delivered, so a request settles exactly once.
//
// Entries are independent after registration; settling or expiring one
// never touches another's timer or state.
type PendingTable struct {
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*pendingRequest
}

// NewPendingTable creates an empty table. A non-positive timeout falls back
// to DefaultRequestTimeout.
func NewPendingTable(timeout time.Duration) *PendingTable {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &PendingTable{
		timeout: timeout,
		entries: make(map[string]*pendingRequest),
	}
}

// Register allocates a fresh request identity, stores a pending entry for
// it, starts its expiry timer, and returns the identity together with the
// channel its settlement will be delivered on.
func (t *PendingTable) Register() (string, <-chan Settlement) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.NewString()
	for _, taken := t.entries[id]; taken; _, taken = t.entries[id] {
		id = uuid.NewString()
	}

	req := &pendingRequest{
		id:   id,
		done: make(chan Settlement, 1),
	}
	// The expiry callback locks the table, so even a zero-length timeout
	// cannot observe the entry before this insert completes.
	req.timer = time.AfterFunc(t.timeout, func() { t.expire(id) })
	t.entries[id] = req

	return id, req.done
}

// Settle applies the outcome to the entry registered under id and removes
// it. An unknown id is a no-op: the request already timed out, was already
// settled, or the identity was never issued.
func (t *PendingTable) Settle(id string, out Settlement) {
	t.mu.Lock()
	req, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, id)
	t.mu.Unlock()

	req.timer.Stop()
	req.done <- out
}

// expire force-fails the entry registered under id with a timeout error.
// Removal is identical to Settle's, so a late response finds nothing.
func (t *PendingTable) expire(id string) {
	t.mu.Lock()
	req, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, id)
	t.mu.Unlock()

	trackError("timeout_error", "PendingTable.expire")
	req.done <- Settlement{Err: &TimeoutError{RequestID: id, After: t.timeout}}
}

// Len reports the number of requests currently in flight.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
