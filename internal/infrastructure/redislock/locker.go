// Package redislock exclusión mutua del ciclo de recordatorios entre réplicas (Redis)
// o dentro de un mismo proceso (LocalLocker).
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
	"github.com/jhoicas/viajes-backoffice/internal/domain"
)

// releaseScript borra la llave solo si aún es nuestra.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	_ reminder.Locker = (*RedisLocker)(nil)
	_ reminder.Locker = (*LocalLocker)(nil)
)

// RedisLocker lock con SET NX + TTL. Si el proceso muere, el TTL lo libera.
type RedisLocker struct {
	client redis.Cmdable
	script *redis.Script
	prefix string
}

// NewRedisLocker construye el locker; prefix se antepone a cada llave (ej: "viajes:").
func NewRedisLocker(client redis.Cmdable, prefix string) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
	}
}

// Acquire devuelve domain.ErrSweepInProgress si la llave ya existe.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if key == "" {
		return nil, errors.New("redislock: llave vacía")
	}
	if ttl <= 0 {
		return nil, errors.New("redislock: ttl debe ser positivo")
	}
	full := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redislock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSweepInProgress
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// El ctx de la petición puede estar cancelado; liberar igual.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
			defer cancel()
			_ = l.script.Run(rctx, l.client, []string{full}, token).Err()
		})
	}
	return unlock, nil
}

// LocalLocker lock en memoria para una sola réplica (sin REDIS_ADDR).
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

// Acquire ignora ttl: el lock vive hasta unlock.
func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, domain.ErrSweepInProgress
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
