package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore(time.Minute, zap.NewNop())
	defer store.Close()
	ctx := context.Background()

	s, err := New(time.Hour)
	require.NoError(t, err)
	s.SetFlash(MessageKey, Flash{Kind: FlashSuccess, Text: "ok"})
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Flashes[MessageKey].Text)
	assert.False(t, got.IsNew())

	got.PopFlash(MessageKey)
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Contains(t, again.Flashes, MessageKey, "stored copy is not shared")

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ExpiredIsNotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore(0, zap.NewNop())
	defer store.Close()
	ctx := context.Background()

	s, err := New(-time.Second)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, s))

	_, err = store.Get(ctx, s.ID)

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_SweeperRemovesExpired(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore(10*time.Millisecond, zap.NewNop())
	defer store.Close()
	ctx := context.Background()

	expired, err := New(-time.Second)
	require.NoError(t, err)
	live, err := New(time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore(time.Millisecond, zap.NewNop())

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	assert.NoError(t, store.Ping(context.Background()))
}
