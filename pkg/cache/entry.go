package cache

import (
	"time"
)

// Snapshot is one cached master data response.
type Snapshot struct {
	// Path is the master data endpoint the body was fetched from
	Path string `json:"path"`

	// Body is the raw response body, normalized again on every load
	Body []byte `json:"body"`

	// FetchedAt is when the body was fetched from the service
	FetchedAt time.Time `json:"fetched_at"`

	// Expires is when the snapshot becomes stale
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the snapshot has expired.
func (s *Snapshot) IsExpired() bool {
	return time.Now().After(s.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (s *Snapshot) TTL() time.Duration {
	ttl := time.Until(s.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
