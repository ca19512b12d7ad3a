package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamewallet/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// EntryCache caches committed ledger entries by idempotency key. Entries are
// immutable once committed, so a hit is as good as a journal read. Balances
// are never cached.
type EntryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEntryCache(client *redis.Client, ttl time.Duration) *EntryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EntryCache{client: client, ttl: ttl}
}

func entryKey(idempotencyKey string) string {
	return "ledger:entry:" + idempotencyKey
}

// Get returns (nil, false, nil) on a miss.
func (c *EntryCache) Get(ctx context.Context, idempotencyKey string) (*models.LedgerEntry, bool, error) {
	data, err := c.client.Get(ctx, entryKey(idempotencyKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached entry: %w", err)
	}
	var entry models.LedgerEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached entry: %w", err)
	}
	return &entry, true, nil
}

func (c *EntryCache) Set(ctx context.Context, entry *models.LedgerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return c.client.Set(ctx, entryKey(entry.IdempotencyKey), data, c.ttl).Err()
}

// HealthCheck pings the server.
func (c *EntryCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (c *EntryCache) Close() error {
	return c.client.Close()
}
