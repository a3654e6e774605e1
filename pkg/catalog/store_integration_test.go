//go:build integration

package catalog

import (
	"context"
	"testing"

	"github.com/Sternrassler/thema-client/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStore_Integration_RedisSnapshot(t *testing.T) {
	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	defer rdb.Close()

	cfg := StoreConfig{
		Cache:   cache.NewManager(rdb),
		BaseURL: "https://portal.thema.no/customer-api",
		Account: "analyst@example.com",
	}

	warm := newCountingFetcher()
	if _, err := NewStore(warm, cfg, zerolog.Nop()).Load(ctx, "/masterdata"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cold := newCountingFetcher()
	c, err := NewStore(cold, cfg, zerolog.Nop()).Load(ctx, "/masterdata")
	if err != nil {
		t.Fatalf("Load() from snapshot error = %v", err)
	}
	if n := cold.count("/masterdata"); n != 0 {
		t.Errorf("fetches = %d, want 0 when snapshot is cached", n)
	}
	if got, err := c.NewestEdition("Nordics"); err != nil || got != "September 2022" {
		t.Errorf("NewestEdition(Nordics) = %q, %v; want September 2022", got, err)
	}
}
