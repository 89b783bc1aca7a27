package botstate

import (
	"context"
	"sync"

	"quotexbot/internal/model"
)

// MemoryStore keeps the configuration in process memory for the process lifetime.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg model.BotConfig
}

// NewMemoryStore creates a store holding initial.
func NewMemoryStore(initial model.BotConfig) *MemoryStore {
	return &MemoryStore{cfg: initial}
}

func (s *MemoryStore) Get(ctx context.Context) (model.BotConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, nil
}

func (s *MemoryStore) SetActive(ctx context.Context, active bool) (model.BotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Active = active
	return s.cfg, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Backend() string                { return BackendMemory }
func (s *MemoryStore) Close() error                   { return nil }
