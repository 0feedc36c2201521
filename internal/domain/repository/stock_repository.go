package repository

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// StockRepository define el puerto de persistencia de existencias por centro y repuesto.
// Las operaciones de cantidad son atómicas a nivel de base de datos; no dependen de leer antes.
type StockRepository interface {
	// Get devuelve nil, nil si el registro no existe.
	Get(ctx context.Context, serviceCenterID, partID string) (*entity.StockRecord, error)
	ListByCenter(ctx context.Context, serviceCenterID string) ([]*entity.StockRecord, error)
	// Save inserta (Version == 0) o reemplaza el registro si su versión no cambió.
	// Devuelve domain.ErrConflict si otra escritura ganó. En éxito incrementa rec.Version.
	Save(ctx context.Context, rec *entity.StockRecord) error
	// TryReserve incrementa reservedQuantity solo si currentStock - reservedQuantity >= qty.
	// Devuelve false si el registro no existe o no hay disponibilidad.
	TryReserve(ctx context.Context, serviceCenterID, partID string, qty int) (bool, error)
	// ReleaseReserved decrementa reservedQuantity en min(reservedQuantity, qty).
	ReleaseReserved(ctx context.Context, serviceCenterID, partID string, qty int) error
	// Withdraw descuenta qty de currentStock. Con protectReserved exige que lo retenido siga cubierto
	// (currentStock - reservedQuantity >= qty); sin él solo exige currentStock >= qty.
	// Devuelve domain.ErrNotFound o domain.ErrInsufficientStock.
	Withdraw(ctx context.Context, serviceCenterID, partID string, qty int, protectReserved bool) (*entity.StockRecord, error)
}
