package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ repository.SenderLocker = (*RedisLocker)(nil)

// RedisLocker serialises a sender across replicas with SET NX and a
// token-checked unlock.
type RedisLocker struct {
	cli     *redis.Client
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
	log     *zerolog.Logger
}

func NewLocker(c *Client, ttl time.Duration, logger *zerolog.Logger) *RedisLocker {
	l := logger.With().Str("component", "RedisLocker").Logger()
	return &RedisLocker{cli: c.cli, ttl: ttl, retry: 50 * time.Millisecond, maxWait: 30 * time.Second, log: &l}
}

func lockKey(senderID string) string { return fmt.Sprintf("conv_lock:%s", senderID) }

// TryLock makes a single attempt.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrLockNotAcquired
	}
	return token, nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

// Lock retries until the lock is taken, ctx ends or maxWait passes.
func (l *RedisLocker) Lock(ctx context.Context, senderID string) (func(), error) {
	key := lockKey(senderID)
	deadline := time.Now().Add(l.maxWait)
	for {
		token, err := l.TryLock(ctx, key, l.ttl)
		if err == nil {
			return l.unlocker(key, token), nil
		}
		if err != domain.ErrLockNotAcquired {
			l.log.Warn().Err(err).Str("key", key).Msg("lock attempt failed")
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.Unlock(ctx, key, token); err != nil {
				l.log.Warn().Err(err).Str("key", key).Msg("unlock failed; key will expire")
			}
		})
	}
}
