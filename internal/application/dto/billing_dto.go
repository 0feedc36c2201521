package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
type CreateInvoiceRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// InvoiceResponse factura con sus líneas para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID              string                `json:"id"`
	AppointmentID   string                `json:"appointment_id"`
	ServiceCenterID string                `json:"service_center_id"`
	CustomerID      string                `json:"customer_id,omitempty"`
	CustomerName    string                `json:"customer_name,omitempty"`
	Prefix          string                `json:"prefix"`
	Number          string                `json:"number"`
	Date            time.Time             `json:"date"`
	NetTotal        decimal.Decimal       `json:"net_total"`
	TaxRate         decimal.Decimal       `json:"tax_rate"`
	TaxTotal        decimal.Decimal       `json:"tax_total"`
	GrandTotal      decimal.Decimal       `json:"grand_total"`
	IssuedBy        string                `json:"issued_by"`
	Lines           []InvoiceLineResponse `json:"lines"`
}

// InvoiceLineResponse línea de detalle en la respuesta.
type InvoiceLineResponse struct {
	Kind        string          `json:"kind"` // service | part
	PartID      string          `json:"part_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
