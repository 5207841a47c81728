package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLocked is returned when another holder owns the lock
var ErrLocked = errors.New("lock is held by another process")

// Locker guards a critical section across processes.
// The release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance SET NX PX lock
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker creates a lock on key that expires after ttl if never released
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.L()
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, logger: logger}
}

// Acquire takes the lock or returns ErrLocked
func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the caller's context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Int()
		switch {
		case err != nil:
			l.logger.Warn("failed to release lock, it stays held until expiry",
				zap.String("key", l.key),
				zap.Duration("ttl", l.ttl),
				zap.Error(err),
			)
		case deleted == 0:
			l.logger.Warn("lock expired before release", zap.String("key", l.key), zap.Duration("ttl", l.ttl))
		}
	}, nil
}

// Key is the redis key guarded by this lock
func (l *RedisLocker) Key() string {
	return l.key
}

// NewClient connects to redis and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return client, nil
}
