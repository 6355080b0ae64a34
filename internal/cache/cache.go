// Package cache is the key-value store the collector writes snapshots to.
// Records are flat string maps with an expiry; scalars are plain strings.
package cache

import (
	"context"
	"time"
)

// Store must give read-your-writes consistency within one process. Missing
// keys are reported as apperrors NotFound errors.
type Store interface {
	GetRecord(ctx context.Context, key string) (map[string]string, error)
	SetRecord(ctx context.Context, key string, record map[string]string, ttl time.Duration) error
	GetScalar(ctx context.Context, key string) (string, error)
	SetScalar(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}
