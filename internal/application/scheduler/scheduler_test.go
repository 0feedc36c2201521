package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

type recorder struct {
	mu   sync.Mutex
	runs map[string]int
	errs int
}

func (r *recorder) ObserveJob(name string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = map[string]int{}
	}
	r.runs[name]++
	if err != nil {
		r.errs++
	}
}

func counting(n *atomic.Int64) Func {
	return func(context.Context, time.Time) (int, error) {
		n.Add(1)
		return 1, nil
	}
}

func TestRegister_Validacion(t *testing.T) {
	s := New(time.Second, nil, logger.Nop())
	var n atomic.Int64

	assert.ErrorIs(t, s.Register(Job{Name: "", Interval: time.Second, Run: counting(&n)}), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Register(Job{Name: "a", Interval: 0, Run: counting(&n)}), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Register(Job{Name: "a", Interval: time.Second}), domain.ErrInvalidInput)

	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Second, Run: counting(&n)}))
	assert.ErrorIs(t, s.Register(Job{Name: "a", Interval: time.Second, Run: counting(&n)}), domain.ErrDuplicate)
}

func TestRunOnce_RegistraEstado(t *testing.T) {
	rec := &recorder{}
	s := New(time.Second, rec, logger.Nop())
	fail := errors.New("mongo caído")
	calls := 0
	require.NoError(t, s.Register(Job{Name: "reservation-expiry", Interval: time.Hour, Run: func(context.Context, time.Time) (int, error) {
		calls++
		if calls == 2 {
			return 0, fail
		}
		return 3, nil
	}}))

	st, err := s.RunOnce(context.Background(), "reservation-expiry")
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Runs)
	assert.Equal(t, 3, st.LastProcessed)
	assert.NotNil(t, st.LastRunAt)
	assert.False(t, st.Running)

	st, err = s.RunOnce(context.Background(), "reservation-expiry")
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(1), st.Failures)
	assert.Equal(t, "mongo caído", st.LastError)

	assert.Equal(t, 2, rec.runs["reservation-expiry"])
	assert.Equal(t, 1, rec.errs)

	_, err = s.RunOnce(context.Background(), "desconocido")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunOnce_AplicaTimeout(t *testing.T) {
	s := New(20*time.Millisecond, nil, logger.Nop())
	require.NoError(t, s.Register(Job{Name: "lento", Interval: time.Hour, Run: func(ctx context.Context, _ time.Time) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}}))

	_, err := s.RunOnce(context.Background(), "lento")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunOnce_NoSolapaEjecuciones(t *testing.T) {
	s := New(time.Second, nil, logger.Nop())
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(Job{Name: "bloqueado", Interval: time.Hour, Run: func(context.Context, time.Time) (int, error) {
		close(entered)
		<-release
		return 0, nil
	}}))

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background(), "bloqueado")
		done <- err
	}()
	<-entered

	_, err := s.RunOnce(context.Background(), "bloqueado")
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(release)
	assert.NoError(t, <-done)
}

func TestStartStop_EjecutaPeriodicamente(t *testing.T) {
	s := New(time.Second, nil, logger.Nop())
	var fast, slow atomic.Int64
	require.NoError(t, s.Register(Job{Name: "rapido", Interval: 5 * time.Millisecond, Run: counting(&fast)}))
	require.NoError(t, s.Register(Job{Name: "lento", Interval: time.Hour, Run: counting(&slow)}))

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return fast.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "lento", status[0].Name)
	assert.True(t, status[0].Running)
	assert.True(t, status[1].Running)

	s.Stop()
	after := fast.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, fast.Load(), "sin ejecuciones después de Stop")
	assert.Zero(t, slow.Load())
	for _, st := range s.Status() {
		assert.False(t, st.Running)
	}
}

func TestStopJob_StartJob(t *testing.T) {
	s := New(time.Second, nil, logger.Nop())
	var n atomic.Int64
	require.NoError(t, s.Register(Job{Name: "appointment-reminders", Interval: 5 * time.Millisecond, Run: counting(&n)}))

	assert.ErrorIs(t, s.StartJob("appointment-reminders"), domain.ErrConflict, "scheduler sin iniciar")

	s.Start(context.Background())
	defer s.Stop()
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.StopJob("appointment-reminders"))
	assert.False(t, s.Status()[0].Running)
	time.Sleep(20 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())

	require.NoError(t, s.StartJob("appointment-reminders"))
	require.NoError(t, s.StartJob("appointment-reminders"))
	assert.True(t, s.Status()[0].Running)
	assert.Eventually(t, func() bool { return n.Load() > stopped }, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.StopJob("otro"), domain.ErrNotFound)
	assert.ErrorIs(t, s.StartJob("otro"), domain.ErrNotFound)
}

func TestRegister_DespuesDeStartArrancaElJob(t *testing.T) {
	s := New(time.Second, nil, logger.Nop())
	s.Start(context.Background())
	defer s.Stop()

	var n atomic.Int64
	require.NoError(t, s.Register(Job{Name: "tarde", Interval: 5 * time.Millisecond, Run: counting(&n)}))
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
}
