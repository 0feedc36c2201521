package reservation

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción multi-documento con repositorios atados a ella.
// Devuelve un error que envuelve domain.ErrTransactionsUnsupported cuando el despliegue no las admite.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		reservationRepo repository.ReservationRepository,
		ledgerRepo repository.InventoryTransactionRepository,
	) error) error
}

// AppointmentReader consulta de solo lectura de citas para los avisos de backorder.
type AppointmentReader interface {
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
}

// PolicyProvider entrega las políticas vigentes.
type PolicyProvider interface {
	Current(ctx context.Context) (entity.SystemSettings, error)
}
