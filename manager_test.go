package xenoclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	mgr := New("localhost:7070", "token")

	assert.Equal(t, DefaultRequestTimeout, mgr.timeout)
	assert.Equal(t, defaultEventBuffer, mgr.eventBuffer)
	assert.IsType(t, &TCPTransport{}, mgr.transport)
	assert.False(t, mgr.Connected())
	assert.Equal(t, 0, mgr.InFlight())
}

func TestOptions(t *testing.T) {
	ft := newFakeTransport()
	mgr := New("localhost:7070", "token",
		WithTimeout(time.Second),
		WithTransport(ft),
		WithEventBuffer(32),
	)

	assert.Equal(t, time.Second, mgr.timeout)
	assert.Equal(t, time.Second, mgr.pending.timeout)
	assert.Equal(t, 32, cap(mgr.errc))
	assert.Equal(t, 32, cap(mgr.disc))
	assert.Same(t, ft, mgr.transport)
}

func TestNamespaceBeforeConnect(t *testing.T) {
	mgr := New("localhost:7070", "token", WithTransport(newFakeTransport()))

	_, err := mgr.Namespace("app/users", nil)
	assert.Equal(t, ErrNotConnected, err)
}

func TestNamespaceEmptyPath(t *testing.T) {
	mgr, _ := newTestManager(t)
	defer mgr.Close()

	_, err := mgr.Namespace("", nil)
	assert.Error(t, err)
}

func TestNamespaceSharesManagerState(t *testing.T) {
	mgr, _ := newTestManager(t)
	defer mgr.Close()

	users, err := mgr.Namespace("app/users", nil)
	require.NoError(t, err)
	events, err := mgr.Namespace("app/events", nil)
	require.NoError(t, err)

	assert.Equal(t, "app/users", users.Path())
	assert.Equal(t, "app/events", events.Path())
	assert.Same(t, mgr, users.manager)
	assert.Same(t, mgr, events.manager)
}

func TestConnectIsIdempotent(t *testing.T) {
	mgr, ft := newTestManager(t)
	defer mgr.Close()

	require.NoError(t, mgr.Connect(context.Background()))
	assert.Equal(t, 1, ft.openCalls)
}

func TestConnectFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.openErr = &ConnectionError{Address: "localhost:7070", Err: errors.New("refused")}
	mgr := New("localhost:7070", "token", WithTransport(ft))

	err := mgr.Connect(context.Background())
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.False(t, mgr.Connected())
}

func TestCloseDisconnects(t *testing.T) {
	mgr, _ := newTestManager(t)

	require.NoError(t, mgr.Close())

	assert.Eventually(t, func() bool { return !mgr.Connected() },
		time.Second, 10*time.Millisecond)
	_, err := mgr.Namespace("app/users", nil)
	assert.Equal(t, ErrNotConnected, err)
}
