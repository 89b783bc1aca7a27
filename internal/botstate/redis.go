package botstate

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"quotexbot/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultConfigKey = "bot:config"

	fieldCapital  = "total_capital"
	fieldRiskLow  = "risk_low"
	fieldRiskHigh = "risk_high"
	fieldMaxOps   = "max_operations"
	fieldActive   = "active"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	Key      string // hash key, defaults to "bot:config"
}

// RedisStore keeps the configuration in a Redis hash so several server
// replicas share one record. Every command goes through a circuit breaker.
type RedisStore struct {
	client  *goredis.Client
	key     string
	initial model.BotConfig
	breaker *CircuitBreaker
}

// NewRedisStore connects, pings, and seeds missing hash fields from initial.
func NewRedisStore(ctx context.Context, cfg RedisConfig, initial model.BotConfig, breaker *CircuitBreaker) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultConfigKey
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(5, 10*time.Second)
	}

	s := &RedisStore{client: client, key: key, initial: initial, breaker: breaker}
	if err := s.seed(pingCtx); err != nil {
		client.Close()
		return nil, err
	}

	log.Printf("[botstate] redis store connected to %s (key=%s)", cfg.Addr, key)
	return s, nil
}

// seed writes only the fields that do not exist yet, so a restarted replica
// keeps the shared state.
func (s *RedisStore) seed(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for field, value := range encodeConfig(s.initial) {
			pipe.HSetNX(ctx, s.key, field, value)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis seed %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (model.BotConfig, error) {
	var vals map[string]string
	err := s.breaker.Execute(func() error {
		var err error
		vals, err = s.client.HGetAll(ctx, s.key).Result()
		return err
	})
	if err != nil {
		return model.BotConfig{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	if len(vals) == 0 {
		// Key was removed behind our back; restore it.
		if err := s.breaker.Execute(func() error { return s.seed(ctx) }); err != nil {
			return model.BotConfig{}, err
		}
		return s.initial, nil
	}
	return decodeConfig(vals, s.initial)
}

func (s *RedisStore) SetActive(ctx context.Context, active bool) (model.BotConfig, error) {
	var all *goredis.StringStringMapCmd
	err := s.breaker.Execute(func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, s.key, fieldActive, formatBool(active))
			all = pipe.HGetAll(ctx, s.key)
			return nil
		})
		return err
	})
	if err != nil {
		return model.BotConfig{}, fmt.Errorf("redis set active: %w", err)
	}
	return decodeConfig(all.Val(), s.initial)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.breaker.Execute(func() error {
		return s.client.Ping(ctx).Err()
	})
}

func (s *RedisStore) Backend() string { return BackendRedis }

func (s *RedisStore) Close() error { return s.client.Close() }

func encodeConfig(c model.BotConfig) map[string]string {
	return map[string]string{
		fieldCapital:  strconv.FormatFloat(c.TotalCapital, 'f', -1, 64),
		fieldRiskLow:  strconv.FormatFloat(c.RiskLow, 'f', -1, 64),
		fieldRiskHigh: strconv.FormatFloat(c.RiskHigh, 'f', -1, 64),
		fieldMaxOps:   strconv.Itoa(c.MaxOperations),
		fieldActive:   formatBool(c.Active),
	}
}

// decodeConfig parses the hash; absent fields fall back to defaults.
func decodeConfig(vals map[string]string, defaults model.BotConfig) (model.BotConfig, error) {
	cfg := defaults
	var err error
	if v, ok := vals[fieldCapital]; ok {
		if cfg.TotalCapital, err = strconv.ParseFloat(v, 64); err != nil {
			return model.BotConfig{}, fmt.Errorf("redis field %s: %w", fieldCapital, err)
		}
	}
	if v, ok := vals[fieldRiskLow]; ok {
		if cfg.RiskLow, err = strconv.ParseFloat(v, 64); err != nil {
			return model.BotConfig{}, fmt.Errorf("redis field %s: %w", fieldRiskLow, err)
		}
	}
	if v, ok := vals[fieldRiskHigh]; ok {
		if cfg.RiskHigh, err = strconv.ParseFloat(v, 64); err != nil {
			return model.BotConfig{}, fmt.Errorf("redis field %s: %w", fieldRiskHigh, err)
		}
	}
	if v, ok := vals[fieldMaxOps]; ok {
		if cfg.MaxOperations, err = strconv.Atoi(v); err != nil {
			return model.BotConfig{}, fmt.Errorf("redis field %s: %w", fieldMaxOps, err)
		}
	}
	if v, ok := vals[fieldActive]; ok {
		cfg.Active = v == "1"
	}
	return cfg, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
