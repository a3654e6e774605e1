//go:build integration

package client

import (
	"context"
	"testing"

	"github.com/Sternrassler/thema-client/internal/testutil"
	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

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

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_MasterDataSharedThroughRedis(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := newMarketMock(t)
	mock.SetData("/hourlyData", priceRows)
	withRedis := func(cfg *Config) { cfg.Redis = redisClient }

	ctx := context.Background()
	tmpl := query.Template{
		"scenario": query.Scalar("Base"),
		"region":   query.Scalar("Nordics"),
		"country":  query.Set("Norway", "Sweden"),
		"zone":     query.Set("NO2", "SE2"),
	}

	first := newTestClient(t, mock, withRedis)
	res, err := first.Fetch(ctx, dataset.Hourly, tmpl)
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("first rows = %d, want 2", res.Table.Len())
	}

	// A second process with the same account reads the snapshot instead
	// of calling /masterdata again.
	second := newTestClient(t, mock, withRedis)
	res, err = second.Fetch(ctx, dataset.Hourly, tmpl)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("second rows = %d, want 2", res.Table.Len())
	}

	if got := mock.PathCount("/masterdata"); got != 1 {
		t.Errorf("master data fetched %d times, want 1", got)
	}
	if got := len(mock.Requests("/hourlyData")); got != 4 {
		t.Errorf("data requests = %d, want 4", got)
	}
}

func TestIntegration_ReloadRefreshesSnapshot(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := newMarketMock(t)
	c := newTestClient(t, mock, func(cfg *Config) { cfg.Redis = redisClient })
	ctx := context.Background()

	if _, err := c.MasterData(ctx, dataset.Annual); err != nil {
		t.Fatalf("MasterData() error = %v", err)
	}

	mock.SetMasterData("/masterdata", testutil.TechnologyMasterData)
	cat, err := c.ReloadMasterData(ctx, dataset.Annual)
	if err != nil {
		t.Fatalf("ReloadMasterData() error = %v", err)
	}
	if got := cat.Domain("category"); len(got) != 4 {
		t.Errorf("categories = %v, want the reloaded body", got)
	}
	if got := mock.PathCount("/masterdata"); got != 2 {
		t.Errorf("master data fetched %d times, want 2", got)
	}
}
