package redislock

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "reminders:dispatch", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "reminders:dispatch", time.Minute)
	assert.ErrorIs(t, err, domain.ErrSweepInProgress)

	other, err := l.Acquire(ctx, "otra", time.Minute)
	require.NoError(t, err)
	other()

	unlock()
	unlock() // segunda llamada no hace nada

	again, err := l.Acquire(ctx, "reminders:dispatch", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_Validacion(t *testing.T) {
	l := NewRedisLocker(nil, "viajes:")

	_, err := l.Acquire(context.Background(), "", time.Minute)
	assert.ErrorContains(t, err, "llave vacía")

	_, err = l.Acquire(context.Background(), "k", 0)
	assert.ErrorContains(t, err, "ttl")
}

// cmdStub implementa solo lo que usa RedisLocker; el resto de Cmdable queda nil.
type cmdStub struct {
	redis.Cmdable
	taken    map[string]string
	released []string
}

func (c *cmdStub) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if _, ok := c.taken[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	c.taken[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (c *cmdStub) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	if c.taken[keys[0]] == args[0] {
		delete(c.taken, keys[0])
		c.released = append(c.released, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	stub := &cmdStub{taken: map[string]string{}}
	l := NewRedisLocker(stub, "viajes:")
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "reminders:dispatch", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, stub.taken, "viajes:reminders:dispatch")

	_, err = l.Acquire(ctx, "reminders:dispatch", time.Minute)
	assert.ErrorIs(t, err, domain.ErrSweepInProgress)

	unlock()
	unlock()
	assert.Equal(t, []string{"viajes:reminders:dispatch"}, stub.released)
	assert.Empty(t, stub.taken)
}
