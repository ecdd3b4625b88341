package middleware_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"internship-service/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisLimiter_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := middleware.NewRedisClient(ctx, fmt.Sprintf("redis://%s/0", endpoint))
	require.NoError(t, err)
	defer client.Close()

	limiter := middleware.NewRedisLimiter(client, nil)

	t.Run("LimitsWithinWindow", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())

		assert.True(t, limiter.Allow("login:1.2.3.4", 2, time.Minute))
		assert.True(t, limiter.Allow("login:1.2.3.4", 2, time.Minute))
		assert.False(t, limiter.Allow("login:1.2.3.4", 2, time.Minute))
		assert.True(t, limiter.Allow("login:5.6.7.8", 2, time.Minute))
	})

	t.Run("WindowExpires", func(t *testing.T) {
		require.NoError(t, client.FlushDB(ctx).Err())

		assert.True(t, limiter.Allow("k", 1, 100*time.Millisecond))
		assert.False(t, limiter.Allow("k", 1, 100*time.Millisecond))
		time.Sleep(200 * time.Millisecond)
		assert.True(t, limiter.Allow("k", 1, 100*time.Millisecond))
	})
}
