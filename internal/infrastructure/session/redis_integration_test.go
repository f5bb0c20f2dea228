//go:build integration

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections"),
				wait.ForListeningPort("6379/tcp"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
}

func TestRedisStore(t *testing.T) {
	client := startRedis(t)
	store := NewRedisStore(client, "econutri:test:", zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	s, err := New(time.Hour)
	require.NoError(t, err)
	_, err = s.Token()
	require.NoError(t, err)
	s.SetOldInput(map[string]string{"titulo": "Sopa"})
	require.NoError(t, store.Save(ctx, s))

	ttl, err := client.TTL(ctx, "econutri:test:"+s.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.CSRFToken, got.CSRFToken)
	assert.Equal(t, "Sopa", got.OldInput["titulo"])
	assert.False(t, got.IsNew())

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
