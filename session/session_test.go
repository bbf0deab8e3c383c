package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xianrendesu-max/threts/model"
)

var ctx = context.Background()

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	user := model.SessionUser{Id: "u1", Username: "alice", AvatarUrl: "http://a/x.png"}

	id, err := store.Create(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)

	require.NoError(t, store.Destroy(ctx, id))
	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// Destroy is idempotent.
	assert.NoError(t, store.Destroy(ctx, id))
}

func TestMemoryStoreUnknownId(t *testing.T) {
	store := NewMemoryStore()
	_, ok, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStoreWithTTL(10 * time.Millisecond)

	id, err := store.Create(ctx, model.SessionUser{Id: "u1"})
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreIdsAreUnique(t *testing.T) {
	store := NewMemoryStore()
	a, _ := store.Create(ctx, model.SessionUser{Id: "u1"})
	b, _ := store.Create(ctx, model.SessionUser{Id: "u2"})
	assert.NotEqual(t, a, b)
}
