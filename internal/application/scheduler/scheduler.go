// Package scheduler ejecuta jobs periódicos con nombre (cancelación automática, vencimiento de
// reservas y recordatorios) y permite controlarlos en caliente desde la API de administración.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// Func ejecuta una pasada del job y devuelve cuántos elementos procesó.
type Func func(ctx context.Context, now time.Time) (int, error)

// Job definición de un job periódico.
type Job struct {
	Name     string
	Interval time.Duration
	Run      Func
}

// JobStatus estado observable de un job.
type JobStatus struct {
	Name          string        `json:"name"`
	Interval      time.Duration `json:"interval"`
	Running       bool          `json:"running"`
	Runs          int64         `json:"runs"`
	Failures      int64         `json:"failures"`
	LastRunAt     *time.Time    `json:"last_run_at,omitempty"`
	LastDuration  time.Duration `json:"last_duration"`
	LastProcessed int           `json:"last_processed"`
	LastError     string        `json:"last_error,omitempty"`
}

type job struct {
	def  Job
	exec sync.Mutex // evita ejecuciones solapadas del mismo job

	// protegidos por Scheduler.mu
	stop   context.CancelFunc
	status JobStatus
}

// Scheduler mantiene los jobs registrados y sus goroutines.
type Scheduler struct {
	timeout  time.Duration
	recorder ports.JobRecorder
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	jobs    map[string]*job
	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New crea un scheduler. timeout limita cada ejecución; recorder puede ser nil.
func New(timeout time.Duration, recorder ports.JobRecorder, log *logger.Logger) *Scheduler {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		timeout:  timeout,
		recorder: recorder,
		log:      log.Component("scheduler"),
		now:      time.Now,
		jobs:     make(map[string]*job),
	}
}

// Register agrega un job. Si el scheduler ya arrancó el job empieza de inmediato.
func (s *Scheduler) Register(j Job) error {
	if j.Name == "" || j.Interval <= 0 || j.Run == nil {
		return fmt.Errorf("%w: el job requiere nombre, intervalo positivo y función", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[j.Name]; exists {
		return fmt.Errorf("%w: job %s", domain.ErrDuplicate, j.Name)
	}
	jb := &job{def: j, status: JobStatus{Name: j.Name, Interval: j.Interval}}
	s.jobs[j.Name] = jb
	if s.started {
		s.launch(jb)
	}
	return nil
}

// Start arranca todos los jobs registrados. Llamarlo dos veces no tiene efecto.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.base, s.cancel = context.WithCancel(ctx)
	s.started = true
	for _, jb := range s.jobs {
		s.launch(jb)
	}
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler iniciado")
}

// Stop detiene todos los jobs y espera a que terminen las ejecuciones en curso.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	for _, jb := range s.jobs {
		jb.stop = nil
		jb.status.Running = false
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("scheduler detenido")
}

// StartJob reanuda un job detenido. Requiere que el scheduler esté iniciado.
func (s *Scheduler) StartJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jb, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, name)
	}
	if !s.started {
		return fmt.Errorf("%w: el scheduler no está iniciado", domain.ErrConflict)
	}
	if jb.stop != nil {
		return nil
	}
	s.launch(jb)
	s.log.Info().Str("job", name).Msg("job reanudado")
	return nil
}

// StopJob detiene el job y cancela su ejecución en curso, si la hay.
func (s *Scheduler) StopJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jb, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, name)
	}
	if jb.stop != nil {
		jb.stop()
		jb.stop = nil
	}
	jb.status.Running = false
	s.log.Info().Str("job", name).Msg("job detenido")
	return nil
}

// RunOnce ejecuta el job ahora, fuera de su intervalo. Devuelve domain.ErrBusy si ya está corriendo.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (JobStatus, error) {
	s.mu.Lock()
	jb, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: job %s", domain.ErrNotFound, name)
	}
	if !jb.exec.TryLock() {
		return JobStatus{}, fmt.Errorf("%w: job %s en ejecución", domain.ErrBusy, name)
	}
	err := s.execute(ctx, jb)
	jb.exec.Unlock()

	s.mu.Lock()
	st := jb.status
	s.mu.Unlock()
	return st, err
}

// Status devuelve el estado de todos los jobs ordenados por nombre.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.jobs))
	for _, jb := range s.jobs {
		out = append(out, jb.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// launch arranca la goroutine del job. Requiere s.mu tomado.
func (s *Scheduler) launch(jb *job) {
	ctx, stop := context.WithCancel(s.base)
	jb.stop = stop
	jb.status.Running = true
	s.wg.Add(1)
	go s.loop(ctx, jb)
}

func (s *Scheduler) loop(ctx context.Context, jb *job) {
	defer s.wg.Done()
	log := s.log.WithStr("job", jb.def.Name)
	ticker := time.NewTicker(jb.def.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !jb.exec.TryLock() {
				log.Warn().Msg("ejecución anterior en curso, se omite el tick")
				continue
			}
			_ = s.execute(ctx, jb)
			jb.exec.Unlock()
		}
	}
}

// execute corre una pasada con timeout y registra el resultado. Requiere jb.exec tomado.
func (s *Scheduler) execute(ctx context.Context, jb *job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	processed, err := jb.def.Run(ctx, start.UTC())
	elapsed := s.now().Sub(start)
	s.recorder.ObserveJob(jb.def.Name, elapsed, err)

	s.mu.Lock()
	jb.status.Runs++
	ranAt := start.UTC()
	jb.status.LastRunAt = &ranAt
	jb.status.LastDuration = elapsed
	jb.status.LastProcessed = processed
	jb.status.LastError = ""
	if err != nil {
		jb.status.Failures++
		jb.status.LastError = err.Error()
	}
	s.mu.Unlock()

	log := s.log.WithStr("job", jb.def.Name)
	ev := log.Debug()
	if err != nil {
		ev = log.Error().Err(err)
	} else if processed > 0 {
		ev = log.Info()
	}
	ev.Int("procesados", processed).Dur("duracion", elapsed).Msg("job ejecutado")
	return err
}
