package entity

import "time"

// ReservationStatus estado de una reserva. Solo avanza: held -> released | consumed.
type ReservationStatus string

const (
	ReservationHeld     ReservationStatus = "held"
	ReservationReleased ReservationStatus = "released"
	ReservationConsumed ReservationStatus = "consumed"
)

// ReservationItem cantidad retenida de un repuesto.
type ReservationItem struct {
	PartID   string
	Quantity int
}

// Reservation retiene stock de un centro para una cita. Nunca se elimina.
type Reservation struct {
	ID              string
	AppointmentID   string
	ServiceCenterID string
	Items           []ReservationItem
	Status          ReservationStatus
	ExpiresAt       *time.Time
	Notes           string
	Degraded        bool // escrita por la ruta sin transacciones
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ReleasedAt      *time.Time
	ConsumedAt      *time.Time
}

// IsHeld indica si la reserva aún retiene stock.
func (r *Reservation) IsHeld() bool {
	return r != nil && r.Status == ReservationHeld
}

// Expired indica si la reserva retenida venció respecto de now.
func (r *Reservation) Expired(now time.Time) bool {
	return r.IsHeld() && r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
