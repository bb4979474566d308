package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeDropsWhenFull(t *testing.T) {
	b := NewBridge()
	for i := 0; i < BridgeCapacity; i++ {
		require.True(t, b.TrySend(ToplevelRemoved{Handle: Handle(i)}))
	}

	done := make(chan bool, 1)
	go func() {
		done <- b.TrySend(ToplevelRemoved{Handle: 999})
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted, "send into a full bridge must be rejected")
	case <-time.After(time.Second):
		t.Fatal("send into a full bridge blocked")
	}
	assert.Equal(t, uint64(1), b.Dropped())

	// The queued events survive in FIFO order; the overflow one is gone.
	for i := 0; i < BridgeCapacity; i++ {
		ev := <-b.Events()
		assert.Equal(t, Handle(i), ev.(ToplevelRemoved).Handle)
	}
	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event after drain: %#v", ev)
	default:
	}
}

func TestBridgeCloseEndsStream(t *testing.T) {
	b := NewBridge()
	require.True(t, b.TrySend(WorkspacesChanged{}))
	b.Close()

	ev, ok := <-b.Events()
	require.True(t, ok)
	assert.Equal(t, "workspaces-changed", ev.Kind())

	_, ok = <-b.Events()
	assert.False(t, ok, "channel must report closed after the last event")
}
