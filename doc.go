// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

// Package xenoclient provides the Go client SDK for xenoDB.
//
// xenoDB is a remote key-value store reached over a single persistent,
// authenticated socket. One Manager owns one connection; any number of
// Namespace handles multiplex independent logical namespaces over it.
//
// The primary lifecycle is:
//   - construct a Manager with New
//   - Connect to establish the authenticated socket
//   - derive Namespace handles with Manager.Namespace
//   - issue typed read/write/array operations through each handle
//   - Close when finished
//
// Every operation is correlated with its response by a unique request
// identity. Many operations may be in flight concurrently; each settles
// independently, by matching response or by its own timeout, whichever
// the client observes first. Responses may arrive in any order relative
// to submission.
//
// Transport faults and connection closure are reported on the Manager's
// Errors and Disconnected channels, not attached to individual in-flight
// operations.
//
// Example:
//
//	mgr := xenoclient.New("localhost:7070", os.Getenv("XENODB_TOKEN"))
//	if err := mgr.Connect(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	users, err := mgr.Namespace("app/users", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stored, err := users.Set("alice", map[string]any{"age": 30})
package xenoclient

// Version is the current SDK version.
const Version = "0.4.1"
