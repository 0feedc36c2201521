package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una cita.
const (
	AppointmentPendingPayment = "pending_payment"
	AppointmentConfirmed      = "confirmed"
	AppointmentInProgress     = "in_progress"
	AppointmentCompleted      = "completed"
	AppointmentCancelled      = "cancelled"
)

// Estados de pago de una cita.
const (
	PaymentNotRequired = "not_required"
	PaymentPending     = "pending"
	PaymentPaid        = "paid"
)

// Estado de los repuestos asociados a la cita.
const (
	PartsNone        = "none"
	PartsHeld        = "held"
	PartsBackordered = "backordered"
	PartsReleased    = "released"
	PartsConsumed    = "consumed"
)

// Appointment cita de mantenimiento de un vehículo eléctrico.
type Appointment struct {
	ID              string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	ServiceCenterID string
	VehicleVIN      string
	VehicleModel    string
	ServiceType     string
	ScheduledAt     time.Time
	Status          string
	PaymentStatus   string
	ServiceFee      decimal.Decimal
	Parts           []ReservationItem
	ReservationID   string
	PartsStatus     string
	CancelReason    string
	Notes           string
	CancelledAt     *time.Time
	CompletedAt     *time.Time
	ReminderSentAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen indica si la cita aún puede avanzar (no cancelada ni completada).
func (a *Appointment) IsOpen() bool {
	return a.Status != AppointmentCancelled && a.Status != AppointmentCompleted
}
