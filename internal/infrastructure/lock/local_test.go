package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain"
)

func TestLocal_ExclusionMutua(t *testing.T) {
	l := NewLocal(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "stock:C1:P1", "stock:C1:P2")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.locks, "las entradas deben limpiarse al liberar")
}

func TestLocal_TimeoutDevuelveBusy(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrBusy)
}

func TestLocal_OrdenEvitaInterbloqueo(t *testing.T) {
	l := NewLocal(2 * time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "a", "b")
			if !assert.NoError(t, err) {
				return
			}
			release()
		}()
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "b", "a", "b")
			if !assert.NoError(t, err) {
				return
			}
			release()
		}()
	}
	wg.Wait()
}

func TestLocal_ReleaseIdempotente(t *testing.T) {
	l := NewLocal(time.Second)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	release2, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release2()
}
