// Package cache provides a Redis-backed snapshot cache for Thema master data.
//
// Master data changes rarely (new editions a few times a year) but is needed
// before every combinatorial query, so a process that starts often can reuse
// the body fetched by an earlier run instead of calling the service again.
// Only the raw response body is stored; the catalog package normalizes it on
// every load so a cached snapshot never diverges from a fresh fetch.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.SnapshotKey{
//		BaseURL: "https://portal.thema.no/customer-api",
//		Path:    "/masterdata",
//		Account: "analyst@example.com",
//	}
//
//	snap, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the service, then
//		_ = manager.Put(ctx, key, body, time.Hour)
//	}
//
// # Metrics
//
//   - thema_cache_hits_total
//   - thema_cache_misses_total
//   - thema_cache_size_bytes
//   - thema_cache_errors_total{operation}
package cache
