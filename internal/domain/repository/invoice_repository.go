package repository

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	// NextNumber reserva el siguiente consecutivo para (prefix, year). Debe ejecutarse en la misma
	// transacción que Create para no dejar huecos.
	NextNumber(ctx context.Context, prefix string, year int) (int64, error)
	// Create inserta cabecera y líneas. Devuelve domain.ErrDuplicate si la cita ya fue facturada.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID y GetByAppointment devuelven nil, nil si no existe; incluyen las líneas.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByAppointment(ctx context.Context, appointmentID string) (*entity.Invoice, error)
}
