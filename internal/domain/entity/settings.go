package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemSettings políticas globales del sistema (un único documento).
type SystemSettings struct {
	UpfrontPaymentRequired bool
	PaymentWindowMinutes   int
	AutoCancelEnabled      bool
	ReminderLeadHours      int
	BackorderLeadTimeDays  int
	ReservationHoldHours   int // 0 = las reservas no vencen
	TaxRate                decimal.Decimal
	InvoicePrefix          string
	UpdatedAt              time.Time
	UpdatedBy              string
}

// DefaultSettings valores usados cuando aún no existe configuración guardada.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		UpfrontPaymentRequired: false,
		PaymentWindowMinutes:   30,
		AutoCancelEnabled:      true,
		ReminderLeadHours:      24,
		BackorderLeadTimeDays:  7,
		ReservationHoldHours:   72,
		TaxRate:                decimal.NewFromInt(19),
		InvoicePrefix:          "EVC",
	}
}
