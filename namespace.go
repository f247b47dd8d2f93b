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
	"errors"
	"fmt"
)

// MaxKeyLength is the largest key the server accepts, in bytes.
const MaxKeyLength = 255

// Validator accepts a candidate value and returns nil or a rejection
// reason. A nil Validator means every value is accepted.
type Validator func(value any) error

// Namespace is a typed handle bound to one logical namespace of the store.
// Handles derived from one Manager share its connection and pending-request
// table; they hold no lifetime of their own.
//
// Every operation validates its input synchronously and fails without any
// network interaction on bad input; otherwise it registers a pending
// request, submits the envelope, and blocks until that request settles by
// matching response or by timeout.
type Namespace struct {
	path     string
	validate Validator
	manager  *Manager
}

// Path returns the namespace path this handle is bound to.
func (n *Namespace) Path() string { return n.path }

// ArrayResult reports the outcome of an array mutation: the length of the
// stored array after the operation and the element moved in or out.
type ArrayResult struct {
	Length  int `json:"length"`
	Element any `json:"element"`
}

// All returns every key/value pair stored under this namespace.
func (n *Namespace) All() (map[string]any, error) {
	data, err := n.roundTrip(&requestEnvelope{Method: MethodAll})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable ALL result: %v", err)}
	}
	return out, nil
}

// Has reports whether key exists in the namespace.
func (n *Namespace) Has(key string) (bool, error) {
	if err := validateKey(key, -1); err != nil {
		return false, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodHas, Key: key})
	if err != nil {
		return false, err
	}
	return decodeBool(data, MethodHas)
}

// Get returns the value stored under key, or nil if the key is absent.
func (n *Namespace) Get(key string) (any, error) {
	if err := validateKey(key, -1); err != nil {
		return nil, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodGet, Key: key})
	if err != nil {
		return nil, err
	}
	return decodeValue(data, MethodGet)
}

// GetMany returns one value per input key, nil for absent keys, in input
// order.
func (n *Namespace) GetMany(keys []string) ([]any, error) {
	for i, key := range keys {
		if err := validateKey(key, i); err != nil {
			return nil, err
		}
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodGetMany, Keys: keys})
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(keys))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable GET_MANY result: %v", err)}
	}
	return out, nil
}

// Set stores value under key and returns the stored value.
func (n *Namespace) Set(key string, value any) (any, error) {
	if err := validateKey(key, -1); err != nil {
		return nil, err
	}
	if err := n.checkValue(value, -1); err != nil {
		return nil, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodSet, Key: key, Value: value})
	if err != nil {
		return nil, err
	}
	return decodeValue(data, MethodSet)
}

// SetMany stores every entry and returns the stored values in input order.
// The first malformed entry fails the whole call, identified by index and
// field, before any request is submitted.
func (n *Namespace) SetMany(entries []Entry) ([]any, error) {
	for i, entry := range entries {
		if err := validateKey(entry.Key, i); err != nil {
			return nil, &ValidationError{Index: i, Field: "key", Err: err}
		}
		if entry.Value == nil {
			return nil, &ValidationError{Index: i, Field: "value", Err: errors.New("value is required")}
		}
		if err := n.checkValue(entry.Value, i); err != nil {
			return nil, err
		}
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodSetMany, Data: entries})
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(entries))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable SET_MANY result: %v", err)}
	}
	return out, nil
}

// Delete removes key and reports whether it existed.
func (n *Namespace) Delete(key string) (bool, error) {
	if err := validateKey(key, -1); err != nil {
		return false, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodDelete, Key: key})
	if err != nil {
		return false, err
	}
	return decodeBool(data, MethodDelete)
}

// DeleteMany removes every key and reports, per key in input order, whether
// it existed.
func (n *Namespace) DeleteMany(keys []string) ([]bool, error) {
	for i, key := range keys {
		if err := validateKey(key, i); err != nil {
			return nil, err
		}
	}
	data, err := n.roundTrip(&requestEnvelope{Method: MethodDeleteMany, Keys: keys})
	if err != nil {
		return nil, err
	}
	out := make([]bool, 0, len(keys))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable DELETE_MANY result: %v", err)}
	}
	return out, nil
}

// Pop removes and returns the last element of the array stored under key.
func (n *Namespace) Pop(key string) (*ArrayResult, error) {
	return n.arrayOp(MethodPop, key)
}

// Shift removes and returns the first element of the array stored under
// key.
func (n *Namespace) Shift(key string) (*ArrayResult, error) {
	return n.arrayOp(MethodShift, key)
}

// Push appends element to the array stored under key.
func (n *Namespace) Push(key string, element any) (*ArrayResult, error) {
	return n.appendOp(MethodPush, key, element)
}

// Unshift prepends element to the array stored under key.
func (n *Namespace) Unshift(key string, element any) (*ArrayResult, error) {
	return n.appendOp(MethodUnshift, key, element)
}

// Slice returns the [start, end) slice of the array stored under key, or
// nil if the key is absent. At most one end bound may be given; omitting it
// slices to the end of the array.
func (n *Namespace) Slice(key string, start int, end ...int) ([]any, error) {
	if err := validateKey(key, -1); err != nil {
		return nil, err
	}
	if len(end) > 1 {
		return nil, &ValidationError{Index: -1, Field: "end", Err: errors.New("at most one end bound")}
	}
	env := &requestEnvelope{Method: MethodSlice, Key: key, Start: &start}
	if len(end) == 1 {
		env.End = &end[0]
	}
	data, err := n.roundTrip(env)
	if err != nil {
		return nil, err
	}
	if isNull(data) {
		return nil, nil
	}
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable SLICE result: %v", err)}
	}
	return out, nil
}

func (n *Namespace) arrayOp(method, key string) (*ArrayResult, error) {
	if err := validateKey(key, -1); err != nil {
		return nil, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: method, Key: key})
	if err != nil {
		return nil, err
	}
	return decodeArrayResult(data, method)
}

func (n *Namespace) appendOp(method, key string, element any) (*ArrayResult, error) {
	if err := validateKey(key, -1); err != nil {
		return nil, err
	}
	// The namespace schema describes the whole array-typed value, so the
	// candidate element is validated wrapped in a one-element array.
	if err := n.checkValue([]any{element}, -1); err != nil {
		return nil, err
	}
	data, err := n.roundTrip(&requestEnvelope{Method: method, Key: key, Value: element})
	if err != nil {
		return nil, err
	}
	return decodeArrayResult(data, method)
}

// roundTrip registers a pending request, stamps the envelope with its
// identity and path, submits it, and blocks until the request settles. A
// submission failure settles the request's own entry immediately, so the
// table never leaks an entry for a frame that was never sent.
func (n *Namespace) roundTrip(env *requestEnvelope) (json.RawMessage, error) {
	id, done := n.manager.pending.Register()
	env.Path = n.path
	env.RequestID = id

	if frame, err := json.Marshal(env); err != nil {
		n.manager.pending.Settle(id, Settlement{Err: &ProtocolError{Message: fmt.Sprintf("unencodable %s request: %v", env.Method, err)}})
	} else if err := n.manager.endpoint.send(frame); err != nil {
		n.manager.pending.Settle(id, Settlement{Err: err})
	}

	out := <-done
	return out.Data, out.Err
}

// checkValue runs the injected validator, if any.
func (n *Namespace) checkValue(value any, index int) error {
	if n.validate == nil {
		return nil
	}
	if err := n.validate(value); err != nil {
		return &ValidationError{Index: index, Field: "value", Err: err}
	}
	return nil
}

func validateKey(key string, index int) error {
	if len(key) == 0 {
		return &KeyError{Key: key, Index: index, Reason: "key cannot be empty"}
	}
	if len(key) > MaxKeyLength {
		return &KeyError{Key: key, Index: index, Reason: fmt.Sprintf("key exceeds %d bytes", MaxKeyLength)}
	}
	return nil
}

func decodeValue(data json.RawMessage, method string) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable %s result: %v", method, err)}
	}
	return out, nil
}

func decodeBool(data json.RawMessage, method string) (bool, error) {
	var out bool
	if err := json.Unmarshal(data, &out); err != nil {
		return false, &ProtocolError{Message: fmt.Sprintf("undecodable %s result: %v", method, err)}
	}
	return out, nil
}

func decodeArrayResult(data json.RawMessage, method string) (*ArrayResult, error) {
	var out ArrayResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("undecodable %s result: %v", method, err)}
	}
	return &out, nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}
