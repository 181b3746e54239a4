// README: Pricing store backed by PostgreSQL with a short Redis cache in front.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const configCacheKey = "pricing:config"

var ErrNoConfig = errors.New("pricing config not found")

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
	ttl   time.Duration
}

// NewStore caches the active config for ttl; a nil redis client or zero ttl disables caching.
func NewStore(db *pgxpool.Pool, redis *redis.Client, ttl time.Duration) *Store {
	return &Store{db: db, redis: redis, ttl: ttl}
}

func (s *Store) GetConfig(ctx context.Context) (Config, error) {
	if cfg, ok := s.cached(ctx); ok {
		return cfg, nil
	}

	var cfg Config
	err := s.db.QueryRow(ctx, `
		SELECT base_fare::float8, per_km_rate::float8, per_minute_rate::float8
		FROM pricing_config
		ORDER BY updated_at DESC
		LIMIT 1`,
	).Scan(&cfg.BaseFare, &cfg.PerKmRate, &cfg.PerMinuteRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNoConfig
	}
	if err != nil {
		return Config{}, err
	}

	s.cache(ctx, cfg)
	return cfg, nil
}

// InvalidateCache drops the cached config so the next read hits Postgres.
func (s *Store) InvalidateCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, configCacheKey).Err()
}

func (s *Store) cached(ctx context.Context) (Config, bool) {
	if s.redis == nil || s.ttl <= 0 {
		return Config{}, false
	}
	raw, err := s.redis.Get(ctx, configCacheKey).Bytes()
	if err != nil {
		return Config{}, false
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, false
	}
	return cfg, true
}

func (s *Store) cache(ctx context.Context, cfg Config) {
	if s.redis == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	// Cache write failures only cost a Postgres round trip on the next read.
	_ = s.redis.Set(ctx, configCacheKey, raw, s.ttl).Err()
}
