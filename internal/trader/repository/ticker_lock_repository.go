package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-auto-trader/pkg/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTickerLocked is returned when another run holds the ticker.
var ErrTickerLocked = errors.New("ticker is locked by another run")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TickerLockRepository serializes buy and sell work per ticker across processes.
type TickerLockRepository interface {
	// Acquire takes the lock or returns ErrTickerLocked. The returned func releases it.
	Acquire(ctx context.Context, ticker string, ttl time.Duration) (func(context.Context) error, error)
}

type tickerLockRepository struct {
	client redis.Cmdable
}

func NewTickerLockRepository(client redis.Cmdable) TickerLockRepository {
	return &tickerLockRepository{client: client}
}

func (r *tickerLockRepository) Acquire(ctx context.Context, ticker string, ttl time.Duration) (func(context.Context) error, error) {
	key := fmt.Sprintf(common.RedisKeyTickerLock, ticker)
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrTickerLocked
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}
