package inventory

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si el despliegue no soporta transacciones devuelve un error que envuelve domain.ErrTransactionsUnsupported
// sin ejecutar fn.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		reservationRepo repository.ReservationRepository,
		ledgerRepo repository.InventoryTransactionRepository,
	) error) error
}
