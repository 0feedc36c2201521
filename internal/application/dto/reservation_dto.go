package dto

import "time"

// ReservationItemDTO repuesto y cantidad de una reserva.
type ReservationItemDTO struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

// HoldRequest body para POST /api/reservations.
type HoldRequest struct {
	AppointmentID   string               `json:"appointment_id"`
	ServiceCenterID string               `json:"service_center_id"`
	Items           []ReservationItemDTO `json:"items"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// ReservationResponse salida de una reserva. Degraded indica que la operación usó la ruta sin transacciones.
type ReservationResponse struct {
	ID              string               `json:"id"`
	AppointmentID   string               `json:"appointment_id,omitempty"`
	ServiceCenterID string               `json:"service_center_id"`
	Items           []ReservationItemDTO `json:"items"`
	Status          string               `json:"status"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Degraded        bool                 `json:"degraded"`
	CreatedAt       time.Time            `json:"created_at"`
	ReleasedAt      *time.Time           `json:"released_at,omitempty"`
	ConsumedAt      *time.Time           `json:"consumed_at,omitempty"`
}

// ShortageErrorResponse cuerpo 400 de una retención rechazada por falta de stock.
type ShortageErrorResponse struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Shortages []ShortageDTO `json:"shortages"`
}

// ShortageDTO faltante de un repuesto.
type ShortageDTO struct {
	PartID    string `json:"part_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
}

// ConsumeErrorResponse cuerpo 409 de un consumo fallido.
type ConsumeErrorResponse struct {
	Code     string              `json:"code"`
	Message  string              `json:"message"`
	Partial  bool                `json:"partial"`
	Failures []ConsumeFailureDTO `json:"failures"`
}

// ConsumeFailureDTO ítem que no se pudo descontar.
type ConsumeFailureDTO struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}
