package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/thema-client/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var masterDataLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "thema_masterdata_loads_total",
	Help: "Master data catalog loads by source path and origin (memory, cache, remote)",
}, []string{"source", "origin"})

// DefaultSnapshotTTL is how long a master data body stays in the snapshot cache.
const DefaultSnapshotTTL = time.Hour

// Fetcher retrieves the raw master data body from a path on the service.
type Fetcher interface {
	FetchMasterData(ctx context.Context, path string) ([]byte, error)
}

// SnapshotCache is the subset of *cache.Manager the Store uses.
type SnapshotCache interface {
	Get(ctx context.Context, key cache.SnapshotKey) (*cache.Snapshot, error)
	Put(ctx context.Context, key cache.SnapshotKey, body []byte, ttl time.Duration) error
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Cache is optional; without it catalogs live only in process memory
	Cache SnapshotCache

	// TTL of cached snapshots
	TTL time.Duration

	// BaseURL and Account scope the cache keys
	BaseURL string
	Account string
}

// Store loads catalogs lazily, one per master data path, and keeps them for
// the lifetime of the session. All loads and reloads are serialized, so a
// catalog is only ever replaced as a whole.
type Store struct {
	fetcher Fetcher
	config  StoreConfig
	logger  zerolog.Logger

	mu       sync.Mutex
	catalogs map[string]*Catalog
}

// NewStore creates a catalog store.
func NewStore(fetcher Fetcher, cfg StoreConfig, logger zerolog.Logger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSnapshotTTL
	}
	return &Store{
		fetcher:  fetcher,
		config:   cfg,
		logger:   logger,
		catalogs: make(map[string]*Catalog),
	}
}

// Load returns the catalog for path, fetching it on first use. Repeated calls
// return the same snapshot without another fetch.
func (s *Store) Load(ctx context.Context, path string) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.catalogs[path]; ok {
		masterDataLoadsTotal.WithLabelValues(path, "memory").Inc()
		return c, nil
	}

	if c := s.fromCache(ctx, path); c != nil {
		s.catalogs[path] = c
		masterDataLoadsTotal.WithLabelValues(path, "cache").Inc()
		return c, nil
	}

	return s.fetch(ctx, path)
}

// Reload fetches the catalog for path again and replaces the cached one,
// bypassing the snapshot cache.
func (s *Store) Reload(ctx context.Context, path string) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetch(ctx, path)
}

// Loaded returns the catalog for path if it has been loaded already.
func (s *Store) Loaded(path string) (*Catalog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.catalogs[path]
	return c, ok
}

// Current is Loaded for callers that want an error: ErrNotLoaded when path
// has not been loaded yet.
func (s *Store) Current(path string) (*Catalog, error) {
	c, ok := s.Loaded(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotLoaded)
	}
	return c, nil
}

// fetch must be called with s.mu held.
func (s *Store) fetch(ctx context.Context, path string) (*Catalog, error) {
	body, err := s.fetcher.FetchMasterData(ctx, path)
	if err != nil {
		return nil, err
	}

	c, err := Normalize(path, body)
	if err != nil {
		return nil, fmt.Errorf("master data %s: %w", path, err)
	}
	s.catalogs[path] = c
	masterDataLoadsTotal.WithLabelValues(path, "remote").Inc()

	s.logger.Info().
		Str("source", path).
		Strs("relations", c.Names()).
		Msg("Master data loaded")

	if s.config.Cache != nil {
		if err := s.config.Cache.Put(ctx, s.key(path), body, s.config.TTL); err != nil {
			s.logger.Warn().Err(err).Str("source", path).Msg("Failed to cache master data snapshot")
		}
	}
	return c, nil
}

func (s *Store) fromCache(ctx context.Context, path string) *Catalog {
	if s.config.Cache == nil {
		return nil
	}

	snap, err := s.config.Cache.Get(ctx, s.key(path))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("source", path).Msg("Master data cache get error")
		}
		return nil
	}

	c, err := NormalizeAt(path, snap.Body, snap.FetchedAt)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", path).Msg("Discarding unreadable master data snapshot")
		return nil
	}

	s.logger.Debug().
		Str("source", path).
		Time("fetched_at", snap.FetchedAt).
		Msg("Master data loaded from cache")
	return c
}

func (s *Store) key(path string) cache.SnapshotKey {
	return cache.SnapshotKey{
		BaseURL: s.config.BaseURL,
		Path:    path,
		Account: s.config.Account,
	}
}
