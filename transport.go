// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package xenoclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Transport is the socket capability a Manager drives. Open suspends until
// the underlying connection is confirmed established, with the auth token
// carried on the opening handshake, out-of-band of operation payloads.
// After a successful Open, inbound frames arrive on Messages, transport
// faults on Errors, and Closed is closed exactly once when the connection
// terminates for any reason.
type Transport interface {
	Open(ctx context.Context, address, authToken string) error
	Send(frame []byte) error
	Messages() <-chan []byte
	Errors() <-chan error
	Closed() <-chan struct{}
	Close() error
}

const defaultDialTimeout = 5 * time.Second

// TCPTransport is the default Transport: newline-delimited JSON frames over
// a TCP connection. The first line written is "AUTH <token>".
type TCPTransport struct {
	dialTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	writer *bufio.Writer
	open   bool

	messages  chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

// NewTCPTransport creates an unopened TCP transport.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{
		dialTimeout: defaultDialTimeout,
		messages:    make(chan []byte, 64),
		errs:        make(chan error, 1),
		closed:      make(chan struct{}),
	}
}

// Open dials the address, performs the auth handshake, and starts the read
// loop. It returns only once the connection is established and the
// handshake has been flushed to the socket.
func (t *TCPTransport) Open(ctx context.Context, address, authToken string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open {
		return nil
	}

	dialer := &net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return &ConnectionError{Address: address, Err: err}
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	writer := bufio.NewWriter(conn)
	if _, err := writer.WriteString("AUTH " + authToken + "\n"); err != nil {
		conn.Close()
		return &ConnectionError{Address: address, Err: err}
	}
	if err := writer.Flush(); err != nil {
		conn.Close()
		return &ConnectionError{Address: address, Err: err}
	}

	t.conn = conn
	t.writer = writer
	t.open = true

	go t.readLoop(conn, address)
	return nil
}

// Send writes one frame. The connection must be open; frames are never
// queued for a connection that is closing or closed.
func (t *TCPTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return ErrNotConnected
	}
	if _, err := t.writer.Write(frame); err != nil {
		return &ConnectionError{Address: t.conn.RemoteAddr().String(), Err: err}
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return &ConnectionError{Address: t.conn.RemoteAddr().String(), Err: err}
	}
	return t.writer.Flush()
}

// Messages returns the inbound frame channel.
func (t *TCPTransport) Messages() <-chan []byte { return t.messages }

// Errors returns the transport fault channel.
func (t *TCPTransport) Errors() <-chan error { return t.errs }

// Closed is closed once the connection has terminated.
func (t *TCPTransport) Closed() <-chan struct{} { return t.closed }

// Close shuts the connection down. The read loop observes the closed
// socket and finishes termination.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.writer = nil
	t.open = false
	t.mu.Unlock()

	t.closeOnce.Do(func() { close(t.closed) })
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *TCPTransport) readLoop(conn net.Conn, address string) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				select {
				case t.errs <- &ConnectionError{Address: address, Err: err}:
				default:
				}
			}
			t.mu.Lock()
			t.open = false
			t.mu.Unlock()
			t.closeOnce.Do(func() { close(t.closed) })
			return
		}
		frame := bytes.TrimRight(line, "\r\n")
		if len(frame) == 0 {
			continue
		}
		t.messages <- frame
	}
}
