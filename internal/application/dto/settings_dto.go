package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsResponse políticas vigentes.
type SettingsResponse struct {
	UpfrontPaymentRequired bool            `json:"upfront_payment_required"`
	PaymentWindowMinutes   int             `json:"payment_window_minutes"`
	AutoCancelEnabled      bool            `json:"auto_cancel_enabled"`
	ReminderLeadHours      int             `json:"reminder_lead_hours"`
	BackorderLeadTimeDays  int             `json:"backorder_lead_time_days"`
	ReservationHoldHours   int             `json:"reservation_hold_hours"`
	TaxRate                decimal.Decimal `json:"tax_rate"`
	InvoicePrefix          string          `json:"invoice_prefix"`
	UpdatedAt              time.Time       `json:"updated_at,omitempty"`
	UpdatedBy              string          `json:"updated_by,omitempty"`
}

// UpdateSettingsRequest body para PUT /api/settings; los campos ausentes no cambian.
type UpdateSettingsRequest struct {
	UpfrontPaymentRequired *bool            `json:"upfront_payment_required,omitempty"`
	PaymentWindowMinutes   *int             `json:"payment_window_minutes,omitempty"`
	AutoCancelEnabled      *bool            `json:"auto_cancel_enabled,omitempty"`
	ReminderLeadHours      *int             `json:"reminder_lead_hours,omitempty"`
	BackorderLeadTimeDays  *int             `json:"backorder_lead_time_days,omitempty"`
	ReservationHoldHours   *int             `json:"reservation_hold_hours,omitempty"`
	TaxRate                *decimal.Decimal `json:"tax_rate,omitempty"`
	InvoicePrefix          *string          `json:"invoice_prefix,omitempty"`
}

// CreateServiceCenterRequest body para POST /api/service-centers.
type CreateServiceCenterRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ServiceCenterResponse centro de servicio.
type ServiceCenterResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
