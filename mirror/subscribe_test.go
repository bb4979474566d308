package mirror

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeUnreachableDegradesSilently(t *testing.T) {
	sub := Subscribe(Options{Socket: filepath.Join(t.TempDir(), "absent.sock")})

	select {
	case _, ok := <-sub.Events():
		require.False(t, ok, "degraded subscription must deliver zero events")
	case <-time.After(time.Second):
		t.Fatal("degraded subscription left the channel open")
	}

	assert.NoError(t, sub.Err(), "an unreachable compositor is not an error")
	assert.Zero(t, sub.Dropped())
	sub.Close() // must be safe without a connection
}
