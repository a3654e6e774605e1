//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestManager_Integration_Expiry(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	manager := NewManager(client)
	ctx := context.Background()
	key := testKey()

	if err := manager.Put(ctx, key, []byte(`{"scenario": ["Base"]}`), 2*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := manager.Get(ctx, key); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	time.Sleep(3 * time.Second)

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Integration_AccountsIsolated(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	manager := NewManager(client)
	ctx := context.Background()

	alice := SnapshotKey{Path: "/masterdata", Account: "alice@example.com"}
	bob := SnapshotKey{Path: "/masterdata", Account: "bob@example.com"}

	if err := manager.Put(ctx, alice, []byte(`{"scenario": ["Base"]}`), time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := manager.Get(ctx, bob); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(bob) error = %v, want ErrCacheMiss", err)
	}
}
