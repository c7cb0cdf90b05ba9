package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/model"
)

// redisPrefix namespaces every key this store writes.
const redisPrefix = "gitgazer:profile:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr string
	DB   int
	TTL  time.Duration
}

// RedisStore shares cached results between server replicas. Redis expires
// keys on its own; the entry's ExpiresAt is still checked against the clock.
type RedisStore struct {
	client *redis.Client
	addr   string
	ttl    time.Duration
	now    Clock
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig, clock Clock) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultRedisAddr
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.ProfileCacheTTL
	}
	if clock == nil {
		clock = time.Now
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, addr: cfg.Addr, ttl: cfg.TTL, now: clock}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*model.SuccessResult, bool) {
	data, err := s.client.Get(ctx, redisPrefix+Key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug("redis get failed", "key", Key(key), "error", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Debug("ignoring unreadable cache entry", "key", Key(key), "error", err)
		return nil, false
	}
	if !entry.Valid(s.now()) {
		return nil, false
	}
	return &entry.Result, true
}

func (s *RedisStore) Set(ctx context.Context, key string, result *model.SuccessResult) error {
	if result == nil {
		return nil
	}

	data, err := json.Marshal(newEntry(result, s.now(), s.ttl))
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := s.client.Set(ctx, redisPrefix+Key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Backend: BackendRedis, Location: s.addr, Total: len(keys)}
	now := s.now()
	for _, k := range keys {
		data, err := s.client.Get(ctx, k).Bytes()
		if err != nil {
			continue
		}
		var entry Entry
		if json.Unmarshal(data, &entry) == nil && entry.Valid(now) {
			stats.Valid++
		}
	}
	return stats, nil
}

// keys lists every key under redisPrefix using SCAN so large keyspaces do
// not block the server.
func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
