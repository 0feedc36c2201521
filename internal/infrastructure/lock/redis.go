package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

var _ ports.Locker = (*Redis)(nil)

// releaseScript borra la clave solo si el token coincide: nunca libera un lock ajeno
// que se tomó después de que el nuestro expiró.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis locks distribuidos con SET NX PX. Comparte la exclusión entre réplicas del API.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
	log     *logger.Logger
}

// NewRedis crea el locker. ttl acota cuánto vive un lock si el proceso muere sin liberarlo.
func NewRedis(client redis.UniversalClient, ttl, timeout time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		client:  client,
		prefix:  "evcenter:lock:",
		ttl:     ttl,
		timeout: timeout,
		retry:   25 * time.Millisecond,
		log:     log.Component("lock"),
	}
}

// Acquire toma todas las claves en orden con un mismo token.
func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	token := uuid.New().String()
	keys = normalizeKeys(keys)
	acquired := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := r.lock(ctx, r.prefix+k, token); err != nil {
			r.unlockAll(acquired, token)
			return nil, busy(k, err)
		}
		acquired = append(acquired, r.prefix+k)
	}
	var once sync.Once
	return func() { once.Do(func() { r.unlockAll(acquired, token) }) }, nil
}

func (r *Redis) lock(ctx context.Context, key, token string) error {
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return nil
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (r *Redis) unlockAll(keys []string, token string) {
	// La liberación no depende del contexto de la operación, que puede estar cancelado.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, r.client, []string{keys[i]}, token).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", keys[i]).Msg("no se pudo liberar lock; expirará por TTL")
		}
	}
}
