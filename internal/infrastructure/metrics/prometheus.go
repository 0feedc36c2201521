// Package metrics expone métricas de reservas y jobs programados en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
)

var (
	_ ports.ReservationRecorder = (*Recorder)(nil)
	_ ports.JobRecorder         = (*Recorder)(nil)
)

// Recorder registra las métricas en un registry propio (no el global).
type Recorder struct {
	registry *prometheus.Registry

	reservationOps      *prometheus.CounterVec
	reservationDuration *prometheus.HistogramVec
	backorderNotices    *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
}

// New crea el recorder con los collectors del proceso y de Go.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reservationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_operations_total",
			Help:      "Operaciones de reserva por operación, resultado y ruta.",
		}, []string{"operation", "outcome", "degraded"}),
		reservationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_operation_duration_seconds",
			Help:      "Duración de las operaciones de reserva.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		backorderNotices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backorder_notifications_total",
			Help:      "Avisos de backorder por resultado de envío.",
		}, []string{"sent"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Ejecuciones de jobs programados.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_job_duration_seconds",
			Help:      "Duración de los jobs programados.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.reservationOps,
		r.reservationDuration,
		r.backorderNotices,
		r.jobRuns,
		r.jobDuration,
	)
	return r
}

func (r *Recorder) ObserveReservation(operation, outcome string, degraded bool, elapsed time.Duration) {
	r.reservationOps.WithLabelValues(operation, outcome, strconv.FormatBool(degraded)).Inc()
	r.reservationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveBackorderNotification(sent bool) {
	r.backorderNotices.WithLabelValues(strconv.FormatBool(sent)).Inc()
}

func (r *Recorder) ObserveJob(name string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.jobRuns.WithLabelValues(name, status).Inc()
	r.jobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Handler expone el registry para /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry para tests y collectors adicionales.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
