// Package lock implementa ports.Locker en proceso y sobre Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/domain"
)

var _ ports.Locker = (*Local)(nil)

// Local locks por clave dentro del proceso. Sirve con una sola réplica del API.
type Local struct {
	mu      sync.Mutex
	locks   map[string]*entry
	timeout time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal crea el locker. timeout <= 0 espera lo que permita el contexto.
func NewLocal(timeout time.Duration) *Local {
	return &Local{locks: make(map[string]*entry), timeout: timeout}
}

// Acquire toma todas las claves en orden.
func (l *Local) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	keys = normalizeKeys(keys)
	acquired := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.lock(ctx, k); err != nil {
			l.unlockAll(acquired)
			return nil, busy(k, err)
		}
		acquired = append(acquired, k)
	}
	var once sync.Once
	return func() { once.Do(func() { l.unlockAll(acquired) }) }, nil
}

func (l *Local) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.deref(key, e)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *Local) unlockAll(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		e := l.locks[keys[i]]
		<-e.ch
		l.deref(keys[i], e)
	}
}

func (l *Local) deref(key string, e *entry) {
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func busy(key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: lock %s", domain.ErrBusy, key)
	}
	return fmt.Errorf("lock %s: %w", key, err)
}
