package billing

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de PostgreSQL con el repositorio de facturas atado a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// AppointmentReader consulta de citas (documento).
type AppointmentReader interface {
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
}

// ReservationReader consulta de reservas (documento).
type ReservationReader interface {
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
}

// StockReader consulta de existencias para el precio unitario de los repuestos.
type StockReader interface {
	Get(ctx context.Context, serviceCenterID, partID string) (*entity.StockRecord, error)
}

// CenterReader consulta de centros de servicio para el encabezado del PDF.
type CenterReader interface {
	GetByID(ctx context.Context, id string) (*entity.ServiceCenter, error)
}

// PolicyProvider entrega las políticas vigentes (tasa de impuesto y prefijo).
type PolicyProvider interface {
	Current(ctx context.Context) (entity.SystemSettings, error)
}

// InvoicePDFGenerator genera la representación gráfica de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, center *entity.ServiceCenter) ([]byte, error)
}
