// Package botstate holds the single bot configuration record behind a
// model.StateStore, backed by process memory, Redis or SQLite.
package botstate

import (
	"context"
	"errors"
	"fmt"

	"quotexbot/internal/model"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("botstate: unknown backend")

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Initial    model.BotConfig
	Redis      RedisConfig
	SQLitePath string
	Breaker    *CircuitBreaker // redis only; a default breaker is used when nil
}

// Open builds the store named by opts.Backend, seeded with opts.Initial.
// Persistent backends keep an existing record and ignore Initial.
func Open(ctx context.Context, opts Options) (model.StateStore, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(opts.Initial), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis, opts.Initial, opts.Breaker)
	case BackendSQLite:
		return NewSQLiteStore(ctx, opts.SQLitePath, opts.Initial)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
