package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SnapshotKey identifies a master data snapshot.
type SnapshotKey struct {
	// BaseURL is the service root (e.g., "https://portal.thema.no/customer-api")
	BaseURL string

	// Path is the master data endpoint (e.g., "/technology/masterdata")
	Path string

	// Account scopes the snapshot to the user it was fetched for, since
	// master data lists only what that user may query.
	Account string
}

// String generates a deterministic cache key string.
// Format: thema:masterdata:host/root:path[:acct=<hash>]
//
// Example:
//
//	thema:masterdata:portal.thema.no/customer-api:go/masterdata:acct=5e884898da280471
func (k SnapshotKey) String() string {
	parts := []string{"thema", "masterdata"}

	base := strings.TrimPrefix(k.BaseURL, "https://")
	base = strings.TrimPrefix(base, "http://")
	if base = strings.Trim(base, "/"); base != "" {
		parts = append(parts, base)
	}

	if path := strings.Trim(k.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	// The account name is hashed so user names do not show up in Redis
	if k.Account != "" {
		sum := sha256.Sum256([]byte(strings.ToLower(k.Account)))
		parts = append(parts, "acct="+hex.EncodeToString(sum[:8]))
	}

	return strings.Join(parts, ":")
}
