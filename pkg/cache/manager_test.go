package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a Redis client against a local server, skipping the
// test when none is running. The integration suite uses testcontainers instead.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func testKey() SnapshotKey {
	return SnapshotKey{
		BaseURL: "https://portal.thema.no/customer-api",
		Path:    "/masterdata",
		Account: "analyst@example.com",
	}
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_PutAndGet(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	body := []byte(`{"scenario": ["Base"]}`)
	if err := manager.Put(ctx, testKey(), body, 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	snap, err := manager.Get(ctx, testKey())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(snap.Body) != string(body) {
		t.Errorf("Body mismatch: got %s, want %s", snap.Body, body)
	}
	if snap.Path != "/masterdata" {
		t.Errorf("Path = %q, want /masterdata", snap.Path)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	ttl, err := client.TTL(ctx, testKey().String()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 5*time.Minute {
		t.Errorf("redis TTL = %v, want (0, 5m]", ttl)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)

	_, err := manager.Get(context.Background(), SnapshotKey{Path: "/nonexistent"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Get_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	if err := client.Set(ctx, testKey().String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("raw set failed: %v", err)
	}

	_, err := manager.Get(ctx, testKey())
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestManager_Set_ExpiredSnapshot(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	snap := &Snapshot{
		Body:    []byte(`{}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}

	// Set should not cache expired snapshots
	if err := manager.Set(ctx, testKey(), snap); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, testKey()); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired snapshot, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	if err := manager.Put(ctx, testKey(), []byte(`{}`), 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := manager.Get(ctx, testKey()); err != nil {
		t.Fatalf("Get after Put failed: %v", err)
	}

	if err := manager.Delete(ctx, testKey()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := manager.Get(ctx, testKey()); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Set_NilSnapshot(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)

	if err := manager.Set(context.Background(), testKey(), nil); err == nil {
		t.Error("Set with nil snapshot should return error")
	}
}
