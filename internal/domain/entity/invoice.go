package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de línea de factura.
const (
	InvoiceLineService = "service"
	InvoiceLinePart    = "part"
)

// Invoice representa la cabecera de una factura de servicio.
type Invoice struct {
	ID              string
	AppointmentID   string
	ServiceCenterID string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	Prefix          string
	Number          string // PREFIX-YYYY-000001
	Date            time.Time
	NetTotal        decimal.Decimal
	TaxRate         decimal.Decimal
	TaxTotal        decimal.Decimal
	GrandTotal      decimal.Decimal
	IssuedBy        string
	Lines           []InvoiceLine
	CreatedAt       time.Time
}

// InvoiceLine representa una línea de detalle de una factura.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Kind        string
	PartID      string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}
