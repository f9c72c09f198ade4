package lock

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewLocalLocker()

	release, err := locker.Acquire(ctx, "stock.xlsx")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "stock.xlsx")
	assert.True(t, errors.Is(err, entities.ErrRunLocked))

	other, err := locker.Acquire(ctx, "other.xlsx")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Acquire(ctx, "stock.xlsx")
	require.NoError(t, err)

	// a stale release must not free the new holder
	require.NoError(t, release(ctx))
	_, err = locker.Acquire(ctx, "stock.xlsx")
	assert.True(t, errors.Is(err, entities.ErrRunLocked))
	require.NoError(t, again(ctx))
}

func TestNoopLocker(t *testing.T) {
	ctx := context.Background()
	release, err := NoopLocker{}.Acquire(ctx, "x")
	require.NoError(t, err)
	_, err = NoopLocker{}.Acquire(ctx, "x")
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func unusedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRedisLocker_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	addr := unusedAddr(t)
	_, err := NewRedisClient(ctx, addr, "", 0)
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer client.Close()

	_, err = NewRedisLocker(client, time.Minute, nil).Acquire(ctx, "stock.xlsx")
	require.Error(t, err)
	assert.False(t, errors.Is(err, entities.ErrRunLocked))
}
