package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainRepo "github.com/sangkips/restaurant-pos-api/internal/domain/repository"
)

// counterTTL keeps a day's counter around past midnight in every time zone.
const counterTTL = 48 * time.Hour

type redisCounterStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCounterStore creates an invoice counter shared by every API
// instance that talks to the same Redis.
func NewRedisCounterStore(client *redis.Client, prefix string) domainRepo.InvoiceCounterRepository {
	return &redisCounterStore{client: client, prefix: prefix}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Increment uses INCR, which Redis executes atomically, and refreshes the
// expiry in the same MULTI block.
func (s *redisCounterStore) Increment(ctx context.Context, dateKey string) (int64, error) {
	key := s.key(dateKey)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, counterTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (s *redisCounterStore) key(dateKey string) string {
	return fmt.Sprintf("%s:invoice_seq:%s", s.prefix, dateKey)
}
