package xenoclient

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIssuesUniqueIdentities(t *testing.T) {
	table := NewPendingTable(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, _ := table.Register()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "identity %s issued twice", id)
		seen[id] = true
	}
	assert.Equal(t, 1000, table.Len())
}

func TestSettleResolvesExactlyOnce(t *testing.T) {
	table := NewPendingTable(time.Minute)
	id, done := table.Register()

	table.Settle(id, Settlement{Data: json.RawMessage(`42`)})
	out := recvSettlement(t, done)
	assert.NoError(t, out.Err)
	assert.Equal(t, json.RawMessage(`42`), out.Data)
	assert.Equal(t, 0, table.Len())

	// A second settlement of the same identity finds nothing.
	table.Settle(id, Settlement{Data: json.RawMessage(`43`)})
	assert.Empty(t, done)
}

func TestSettleRejectsWithError(t *testing.T) {
	table := NewPendingTable(time.Minute)
	id, done := table.Register()

	cause := &ServerError{Message: "boom"}
	table.Settle(id, Settlement{Err: cause})

	out := recvSettlement(t, done)
	assert.Equal(t, cause, out.Err)
	assert.Nil(t, out.Data)
	assert.Equal(t, 0, table.Len())
}

func TestSettleUnknownIdentityIsNoOp(t *testing.T) {
	table := NewPendingTable(time.Minute)
	id, done := table.Register()

	table.Settle("never-issued", Settlement{Data: json.RawMessage(`1`)})

	assert.Equal(t, 1, table.Len())
	table.Settle(id, Settlement{Data: json.RawMessage(`2`)})
	out := recvSettlement(t, done)
	assert.Equal(t, json.RawMessage(`2`), out.Data)
}

func TestExpiryForceFailsAndRemoves(t *testing.T) {
	table := NewPendingTable(30 * time.Millisecond)
	id, done := table.Register()

	out := recvSettlement(t, done)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(out.Err, &timeoutErr))
	assert.Equal(t, id, timeoutErr.RequestID)
	assert.Equal(t, 0, table.Len())
}

func TestLateSettleAfterExpiryIsDiscarded(t *testing.T) {
	table := NewPendingTable(30 * time.Millisecond)
	id, done := table.Register()

	out := recvSettlement(t, done)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(out.Err, &timeoutErr))

	// The late response must produce no observable effect.
	table.Settle(id, Settlement{Data: json.RawMessage(`"late"`)})
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, done)
}

func TestSettleCancelsExpiry(t *testing.T) {
	table := NewPendingTable(50 * time.Millisecond)
	id, done := table.Register()

	table.Settle(id, Settlement{Data: json.RawMessage(`true`)})
	out := recvSettlement(t, done)
	assert.NoError(t, out.Err)

	// Wait past the window; the stopped timer must not deliver a second
	// settlement.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, done)
}

func TestEntriesSettleIndependently(t *testing.T) {
	table := NewPendingTable(time.Minute)
	first, firstDone := table.Register()
	second, secondDone := table.Register()

	// Out of submission order.
	table.Settle(second, Settlement{Data: json.RawMessage(`"second"`)})
	table.Settle(first, Settlement{Data: json.RawMessage(`"first"`)})

	assert.Equal(t, json.RawMessage(`"first"`), recvSettlement(t, firstDone).Data)
	assert.Equal(t, json.RawMessage(`"second"`), recvSettlement(t, secondDone).Data)
	assert.Equal(t, 0, table.Len())
}

func TestExpiryLeavesOtherEntriesUntouched(t *testing.T) {
	table := NewPendingTable(50 * time.Millisecond)
	_, expiring := table.Register()
	settledID, settled := table.Register()

	// Settle the second entry before anything expires.
	table.Settle(settledID, Settlement{Data: json.RawMessage(`"kept"`)})
	out := recvSettlement(t, settled)
	require.NoError(t, out.Err)
	assert.Equal(t, json.RawMessage(`"kept"`), out.Data)

	// The first entry expires on its own timer, unaffected by the
	// neighbor's settlement.
	out = recvSettlement(t, expiring)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(out.Err, &timeoutErr))
	assert.Equal(t, 0, table.Len())
}

func TestConcurrentRegisterAndSettle(t *testing.T) {
	table := NewPendingTable(time.Minute)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			id, done := table.Register()
			table.Settle(id, Settlement{Data: json.RawMessage(`1`)})
			out := <-done
			assert.NoError(t, out.Err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, table.Len())
}

func TestZeroTimeoutFallsBackToDefault(t *testing.T) {
	table := NewPendingTable(0)
	assert.Equal(t, DefaultRequestTimeout, table.timeout)
}
