// Package cache defines read-through cache for token lookups.
//
// The cache never owns token state: the repository is the source of truth.
// Entries are keyed by token hash, the plaintext secret never gets into the cache.
//
// Revocation leaves a mark under the token hash instead of a plain delete.
// Lookup that read the token before revocation then can't put it back:
// Add never replaces anything, revocation mark included.
package cache

import (
	"context"
	"time"

	"github.com/nkiryanov/tokenauth/internal/models"
)

type TokenCache interface {
	// Get cached token by its hash
	// Returns false on miss. Revoked hash is a miss too
	Get(ctx context.Context, tokenHash string) (models.Token, bool, error)

	// Put token to the cache for at most ttl
	// Does nothing if the hash is cached already or revoked
	Add(ctx context.Context, token models.Token, ttl time.Duration) error

	// Mark hashes revoked for ttl, replacing cached tokens
	// ttl has to cover the longest lookup that may still be in flight
	Revoke(ctx context.Context, ttl time.Duration, tokenHashes ...string) error
}
