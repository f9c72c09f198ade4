package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
	"github.com/vsinha/stockpick/pkg/infrastructure/idgen"
)

// releaseScript deletes the key only while it still holds our token, so a
// run whose lock expired cannot release the next holder's lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes runs on the same dataset across processes
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

var _ repositories.RunLocker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker whose locks expire after ttl
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "stockpick:lock:", logger: logger}
}

// NewRedisClient builds a client for addr and checks it answers
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Acquire takes the lock for dataset or fails with ErrRunLocked
func (l *RedisLocker) Acquire(ctx context.Context, dataset string) (repositories.ReleaseFunc, error) {
	key := l.prefix + dataset
	token := idgen.New()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", dataset, entities.ErrRunLocked)
	}

	l.logger.Debug("run lock acquired", zap.String("key", key), zap.Duration("ttl", l.ttl))

	return func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if released == 0 {
			l.logger.Warn("run lock expired before release", zap.String("key", key))
		}
		return nil
	}, nil
}

// NoopLocker grants every lock; used when no Redis is configured
type NoopLocker struct{}

var _ repositories.RunLocker = NoopLocker{}

func (NoopLocker) Acquire(context.Context, string) (repositories.ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// LocalLocker serializes runs within one process, e.g. the watch loop
// sharing an orchestrator with an ad-hoc run
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]string
}

var _ repositories.RunLocker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]string)}
}

// Acquire fails fast with ErrRunLocked when dataset is already held
func (l *LocalLocker) Acquire(_ context.Context, dataset string) (repositories.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[dataset]; ok {
		return nil, fmt.Errorf("dataset %s: %w", dataset, entities.ErrRunLocked)
	}
	token := idgen.New()
	l.held[dataset] = token

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[dataset] == token {
			delete(l.held, dataset)
		}
		return nil
	}, nil
}
