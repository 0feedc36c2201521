package ports

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// BackorderNotifier avisa al centro y al cliente que faltan repuestos para una cita.
type BackorderNotifier interface {
	SendBackorderNotification(ctx context.Context, appt *entity.Appointment, shortages []domain.Shortage, leadTimeDays int) error
}

// AppointmentNotifier avisos de ciclo de vida de la cita.
type AppointmentNotifier interface {
	SendCancellationNotice(ctx context.Context, appt *entity.Appointment) error
	SendReminder(ctx context.Context, appt *entity.Appointment) error
}
