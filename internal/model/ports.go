package model

import "context"

// ── Storage Port Interfaces ──
// Business logic depends on these; the memory, Redis and SQLite backends
// in internal/botstate satisfy them.

// StateStore holds the single BotConfig instance.
type StateStore interface {
	// Get returns the current configuration.
	Get(ctx context.Context) (BotConfig, error)

	// SetActive flips the active flag and returns the resulting configuration.
	// Concurrent calls are serialized; the last write wins.
	SetActive(ctx context.Context, active bool) (BotConfig, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Backend names the storage implementation ("memory", "redis", "sqlite").
	Backend() string

	// Close releases underlying resources.
	Close() error
}
