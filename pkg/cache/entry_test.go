package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Sternrassler/thema-client/internal/testutil"
)

func TestSnapshot_Freshness(t *testing.T) {
	tests := []struct {
		name        string
		expires     time.Duration
		wantExpired bool
		wantMaxTTL  time.Duration
	}{
		{name: "fresh for the default master data ttl", expires: time.Hour, wantMaxTTL: time.Hour},
		{name: "about to expire", expires: 2 * time.Second, wantMaxTTL: 2 * time.Second},
		{name: "stale", expires: -time.Second, wantExpired: true},
		{name: "stale for a day", expires: -24 * time.Hour, wantExpired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			snap := &Snapshot{
				Path:      "/masterdata",
				FetchedAt: now.Add(-time.Minute),
				Expires:   now.Add(tt.expires),
			}
			if got := snap.IsExpired(); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			ttl := snap.TTL()
			if tt.wantExpired && ttl != 0 {
				t.Errorf("TTL() = %v, want 0 for a stale snapshot", ttl)
			}
			if !tt.wantExpired && (ttl <= 0 || ttl > tt.wantMaxTTL) {
				t.Errorf("TTL() = %v, want (0, %v]", ttl, tt.wantMaxTTL)
			}
		})
	}
}

func TestSnapshot_JSONKeepsBodyAndFetchTime(t *testing.T) {
	fetched := time.Date(2024, 6, 3, 8, 15, 0, 0, time.UTC)
	snap := Snapshot{
		Path:      "/hydrogen/masterdata",
		Body:      []byte(testutil.HydrogenMasterData),
		FetchedAt: fetched,
		Expires:   fetched.Add(time.Hour),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("stored form is not an object: %v", err)
	}
	for _, key := range []string{"path", "body", "fetched_at", "expires"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("stored snapshot lacks %q: %s", key, data)
		}
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !bytes.Equal(back.Body, snap.Body) {
		t.Errorf("Body = %s, want the original response", back.Body)
	}
	if !back.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", back.FetchedAt, fetched)
	}
	if back.Path != snap.Path {
		t.Errorf("Path = %q, want %q", back.Path, snap.Path)
	}
}

func TestSnapshot_PutRecordsFetchTime(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := testKey()
	key.Path = "/technology/masterdata"
	body := []byte(testutil.TechnologyMasterData)

	before := time.Now()
	if err := manager.Put(ctx, key, body, 30*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	after := time.Now()

	snap, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(snap.Body, body) {
		t.Error("Body changed on its way through redis")
	}
	if snap.Path != key.Path {
		t.Errorf("Path = %q, want %q", snap.Path, key.Path)
	}
	if snap.FetchedAt.Before(before) || snap.FetchedAt.After(after) {
		t.Errorf("FetchedAt = %v, want between %v and %v", snap.FetchedAt, before, after)
	}
	if got := snap.Expires.Sub(snap.FetchedAt); got != 30*time.Minute {
		t.Errorf("Expires - FetchedAt = %v, want 30m", got)
	}
}
