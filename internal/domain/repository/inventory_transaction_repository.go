package repository

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// InventoryTransactionRepository define el puerto del libro de inventario (solo inserción).
type InventoryTransactionRepository interface {
	Create(ctx context.Context, t *entity.InventoryTransaction) error
	ListByPart(ctx context.Context, serviceCenterID, partID string, limit int) ([]*entity.InventoryTransaction, error)
	// ListByReference devuelve todas las transacciones de una referencia (p. ej. servicio de una cita), sin límite.
	ListByReference(ctx context.Context, serviceCenterID, referenceType, referenceID string) ([]*entity.InventoryTransaction, error)
}
