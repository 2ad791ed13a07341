package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(discardLogger())
	client, _ := newTestClient("u1", 4)

	_, ok := r.ConnectionFor("u1")
	assert.False(t, ok)

	r.Register("u1", client)
	got, ok := r.ConnectionFor("u1")
	require.True(t, ok)
	assert.Same(t, client, got)
	assert.Equal(t, 1, r.Count())

	// re-registering the same client is idempotent
	r.Register("u1", client)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry(discardLogger())
	first, firstConn := newTestClient("u1", 4)
	second, _ := newTestClient("u1", 4)

	r.Register("u1", first)
	r.Register("u1", second)

	got, ok := r.ConnectionFor("u1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.False(t, firstConn.isClosed(), "superseded client is not closed by the registry")

	// the superseded client unregistering must not evict its replacement
	r.Unregister(first)
	got, ok = r.ConnectionFor("u1")
	require.True(t, ok)
	assert.Same(t, second, got)

	r.Unregister(second)
	_, ok = r.ConnectionFor("u1")
	assert.False(t, ok)
	assert.Zero(t, r.Count())
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry(discardLogger())
	other, _ := newTestClient("u2", 4)
	stranger, _ := newTestClient("u9", 4)
	r.Register("u2", other)

	r.Unregister(stranger)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryIgnoresClosedClient(t *testing.T) {
	r := NewRegistry(discardLogger())
	client, _ := newTestClient("u1", 4)
	r.Register("u1", client)

	client.Close()
	_, ok := r.ConnectionFor("u1")
	assert.False(t, ok)
}

func TestRegistryShutdownClosesEverything(t *testing.T) {
	r := NewRegistry(discardLogger())
	a, aConn := newTestClient("u1", 4)
	b, bConn := newTestClient("u2", 4)
	r.Register("u1", a)
	r.Register("u2", b)

	r.Shutdown()

	assert.Zero(t, r.Count())
	assert.True(t, aConn.isClosed())
	assert.True(t, bConn.isClosed())

	// sessions unregistering after shutdown are harmless
	r.Unregister(a)
	assert.Zero(t, r.Count())
}

func TestRegistryConcurrentLifecycles(t *testing.T) {
	r := NewRegistry(discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// pairs of goroutines share a user id so replacements race too
			userID := fmt.Sprintf("u%d", i/2)
			client, _ := newTestClient(userID, 4)

			r.Register(userID, client)
			if got, ok := r.ConnectionFor(userID); ok {
				assert.Equal(t, userID, got.Info().UserID)
			}
			_ = r.Count()
			r.Unregister(client)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
