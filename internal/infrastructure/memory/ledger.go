package memory

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de inventario en memoria.
type LedgerRepo struct {
	v view
}

// Create agrega la transacción al final del libro.
func (r *LedgerRepo) Create(_ context.Context, t *entity.InventoryTransaction) error {
	return r.v.do(func(st *state) error {
		cp := *t
		st.ledger = append(st.ledger, &cp)
		return nil
	})
}

// ListByPart devuelve las transacciones más recientes primero.
func (r *LedgerRepo) ListByPart(_ context.Context, serviceCenterID, partID string, limit int) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	err := r.v.do(func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			t := st.ledger[i]
			if t.ServiceCenterID != serviceCenterID || t.PartID != partID {
				continue
			}
			cp := *t
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// ListByReference devuelve las transacciones de la referencia en orden de inserción.
func (r *LedgerRepo) ListByReference(_ context.Context, serviceCenterID, referenceType, referenceID string) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	err := r.v.do(func(st *state) error {
		for _, t := range st.ledger {
			if t.ServiceCenterID != serviceCenterID || t.ReferenceType != referenceType || t.ReferenceID != referenceID {
				continue
			}
			cp := *t
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}
