package ports

import "time"

// ReservationRecorder registra el resultado de las operaciones de reserva.
type ReservationRecorder interface {
	ObserveReservation(operation, outcome string, degraded bool, elapsed time.Duration)
	ObserveBackorderNotification(sent bool)
}

// JobRecorder registra ejecuciones de jobs programados.
type JobRecorder interface {
	ObserveJob(name string, elapsed time.Duration, err error)
}

// NopRecorder descarta las métricas.
type NopRecorder struct{}

func (NopRecorder) ObserveReservation(string, string, bool, time.Duration) {}
func (NopRecorder) ObserveBackorderNotification(bool)                      {}
func (NopRecorder) ObserveJob(string, time.Duration, error)                 {}
