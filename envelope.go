// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package xenoclient

import "encoding/json"

// Wire method names.
// Must match xenodb-server's request router exactly.
const (
	MethodAll        = "ALL"
	MethodHas        = "HAS"
	MethodGet        = "GET"
	MethodGetMany    = "GET_MANY"
	MethodSet        = "SET"
	MethodSetMany    = "SET_MANY"
	MethodDelete     = "DELETE"
	MethodDeleteMany = "DELETE_MANY"
	MethodPop        = "POP"
	MethodShift      = "SHIFT"
	MethodPush       = "PUSH"
	MethodUnshift    = "UNSHIFT"
	MethodSlice      = "SLICE"
)

// Entry is one key/value element of a SetMany batch.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// requestEnvelope is the client-to-server wire message. Every request
// carries the namespace path, a unique request identity, and the method;
// the remaining fields are method-specific.
type requestEnvelope struct {
	Path      string   `json:"path"`
	RequestID string   `json:"requestId"`
	Method    string   `json:"method"`
	Key       string   `json:"key,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	Value     any      `json:"value,omitempty"`
	Data      []Entry  `json:"data,omitempty"`
	Start     *int     `json:"start,omitempty"`
	End       *int     `json:"end,omitempty"`
}

// responseEnvelope is the server-to-client wire message: a request identity
// plus exactly one of Data or Error. A message carrying neither is treated
// as discardable noise by the dispatcher.
type responseEnvelope struct {
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *string         `json:"error,omitempty"`
}
