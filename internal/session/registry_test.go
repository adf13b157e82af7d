package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rentshed/internal/listing"
)

func TestRegistryCreateSeedsIndependentCatalogs(t *testing.T) {
	r := NewRegistry(nil, Options{})

	id1, c1, err := r.Create()
	require.NoError(t, err)
	id2, c2, err := r.Create()
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, r.Len())

	c1.ConfirmRental("1")
	l, _ := c2.Catalog().Get("1")
	assert.True(t, l.Available, "sessions must not share catalog state")
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(nil, Options{})

	id, c, err := r.GetOrCreate("")
	require.NoError(t, err)

	sameID, same, err := r.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, id, sameID)
	assert.Same(t, c, same)

	newID, _, err := r.GetOrCreate("stale-cookie")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-cookie", newID)
	assert.Equal(t, 2, r.Len())
}

func TestRegistrySeedError(t *testing.T) {
	r := NewRegistry(func() ([]listing.Listing, error) {
		return nil, errors.New("db down")
	}, Options{})

	_, _, err := r.Create()
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySweepRemovesIdleSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(nil, Options{Chat: ChatOptions{ReplyDelay: time.Hour}})
	r.now = func() time.Time { return now }

	idle, idleCtrl, err := r.Create()
	require.NoError(t, err)
	chat, err := idleCtrl.OpenChat("1")
	require.NoError(t, err)
	chat.Send("hi")

	now = now.Add(20 * time.Minute)
	fresh, _, err := r.Create()
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	removed := r.Sweep(30 * time.Minute)

	assert.Equal(t, 1, removed)
	_, ok := r.Get(idle)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
	assert.True(t, chat.Closed(), "swept sessions cancel their chats")
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(nil, Options{})
	id, _, err := r.Create()
	require.NoError(t, err)

	r.Remove(id)
	r.Remove("unknown")
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySessionsKeepTheirOwnMapKey(t *testing.T) {
	shared := &MemoryKeyStore{}
	require.NoError(t, shared.SetMapAPIKey("site-key"))
	r := NewRegistry(nil, Options{Keys: shared})

	_, c1, err := r.Create()
	require.NoError(t, err)
	_, c2, err := r.Create()
	require.NoError(t, err)

	key, err := c1.MapAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "site-key", key, "sessions read the shared key until they save one")

	require.NoError(t, c1.SaveMapAPIKey("mine"))

	key, _ = c1.MapAPIKey()
	assert.Equal(t, "mine", key)
	key, _ = c2.MapAPIKey()
	assert.Equal(t, "site-key", key)
	key, _ = shared.MapAPIKey()
	assert.Equal(t, "site-key", key, "a session never writes the shared key")
}

func TestBoardKeyStoreWithoutShared(t *testing.T) {
	s := NewBoardKeyStore(nil)

	key, err := s.MapAPIKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.SetMapAPIKey("k"))
	key, _ = s.MapAPIKey()
	assert.Equal(t, "k", key)
}
