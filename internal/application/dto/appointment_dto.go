package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAppointmentRequest body para POST /api/appointments.
type CreateAppointmentRequest struct {
	CustomerID      string               `json:"customer_id,omitempty"`
	CustomerName    string               `json:"customer_name,omitempty"`
	CustomerEmail   string               `json:"customer_email,omitempty"`
	ServiceCenterID string               `json:"service_center_id"`
	VehicleVIN      string               `json:"vehicle_vin"`
	VehicleModel    string               `json:"vehicle_model,omitempty"`
	ServiceType     string               `json:"service_type"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	ServiceFee      decimal.Decimal      `json:"service_fee"`
	Parts           []ReservationItemDTO `json:"parts,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// CancelAppointmentRequest body para POST /api/appointments/:id/cancel.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// AppointmentResponse salida de una cita.
type AppointmentResponse struct {
	ID              string               `json:"id"`
	CustomerID      string               `json:"customer_id,omitempty"`
	CustomerName    string               `json:"customer_name,omitempty"`
	CustomerEmail   string               `json:"customer_email,omitempty"`
	ServiceCenterID string               `json:"service_center_id"`
	VehicleVIN      string               `json:"vehicle_vin"`
	VehicleModel    string               `json:"vehicle_model,omitempty"`
	ServiceType     string               `json:"service_type"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	Status          string               `json:"status"`
	PaymentStatus   string               `json:"payment_status"`
	ServiceFee      decimal.Decimal      `json:"service_fee"`
	Parts           []ReservationItemDTO `json:"parts"`
	ReservationID   string               `json:"reservation_id,omitempty"`
	PartsStatus     string               `json:"parts_status"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// AppointmentListResponse listado paginado de citas.
type AppointmentListResponse struct {
	Items []AppointmentResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
