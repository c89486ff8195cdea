package repository

import (
	"context"
	"time"
)

// StateStore holds ephemeral service state, currently pending checkout
// sessions awaiting payment confirmation.
// Implementations: Redis (production) or in-memory (local dev / tests).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil with no error for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
