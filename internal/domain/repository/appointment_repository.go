package repository

import (
	"context"
	"time"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// AppointmentFilter criterios de listado de citas. Campos vacíos no filtran.
type AppointmentFilter struct {
	ServiceCenterID string
	CustomerID      string
	Status          string
	CreatedBefore   *time.Time
	ScheduledFrom   *time.Time
	ScheduledTo     *time.Time
	ReminderPending bool
	Limit           int
	Offset          int
}

// AppointmentRepository define el puerto de persistencia de citas.
type AppointmentRepository interface {
	Create(ctx context.Context, a *entity.Appointment) error
	// GetByID devuelve nil, nil si la cita no existe.
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	// Update reemplaza la cita solo si su estado sigue siendo expectedStatus; si no, domain.ErrConflict.
	Update(ctx context.Context, a *entity.Appointment, expectedStatus string) error
	List(ctx context.Context, f AppointmentFilter) ([]*entity.Appointment, int64, error)
}
