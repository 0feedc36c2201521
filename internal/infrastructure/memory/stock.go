package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo existencias en memoria.
type StockRepo struct {
	v view
}

// Get devuelve una copia del registro o nil si no existe.
func (r *StockRepo) Get(_ context.Context, serviceCenterID, partID string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := r.v.do(func(st *state) error {
		if rec, ok := st.stock[entity.StockKey(serviceCenterID, partID)]; ok {
			out = cloneStock(rec)
		}
		return nil
	})
	return out, err
}

// ListByCenter devuelve los registros del centro ordenados por repuesto.
func (r *StockRepo) ListByCenter(_ context.Context, serviceCenterID string) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	err := r.v.do(func(st *state) error {
		for _, rec := range st.stock {
			if rec.ServiceCenterID == serviceCenterID {
				out = append(out, cloneStock(rec))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PartID < out[j].PartID })
	return out, err
}

// Save inserta o reemplaza con control de versión.
func (r *StockRepo) Save(_ context.Context, rec *entity.StockRecord) error {
	return r.v.do(func(st *state) error {
		key := entity.StockKey(rec.ServiceCenterID, rec.PartID)
		cur, exists := st.stock[key]
		switch {
		case rec.Version == 0 && exists:
			return domain.ErrConflict
		case rec.Version != 0 && (!exists || cur.Version != rec.Version):
			return domain.ErrConflict
		}
		rec.Version++
		st.stock[key] = cloneStock(rec)
		return nil
	})
}

// TryReserve incremento condicional de lo retenido.
func (r *StockRepo) TryReserve(_ context.Context, serviceCenterID, partID string, qty int) (bool, error) {
	ok := false
	err := r.v.do(func(st *state) error {
		rec, exists := st.stock[entity.StockKey(serviceCenterID, partID)]
		if !exists || rec.CurrentStock-rec.ReservedQuantity < qty {
			return nil
		}
		rec.ReservedQuantity += qty
		rec.Version++
		rec.UpdatedAt = time.Now()
		ok = true
		return nil
	})
	return ok, err
}

// ReleaseReserved decremento acotado en cero.
func (r *StockRepo) ReleaseReserved(_ context.Context, serviceCenterID, partID string, qty int) error {
	return r.v.do(func(st *state) error {
		rec, exists := st.stock[entity.StockKey(serviceCenterID, partID)]
		if !exists {
			return domain.ErrNotFound
		}
		rec.ReservedQuantity -= min(rec.ReservedQuantity, qty)
		rec.Version++
		rec.UpdatedAt = time.Now()
		return nil
	})
}

// Withdraw descuenta stock si la condición se cumple.
func (r *StockRepo) Withdraw(_ context.Context, serviceCenterID, partID string, qty int, protectReserved bool) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := r.v.do(func(st *state) error {
		rec, exists := st.stock[entity.StockKey(serviceCenterID, partID)]
		if !exists {
			return domain.ErrNotFound
		}
		limit := rec.CurrentStock
		if protectReserved {
			limit = rec.CurrentStock - rec.ReservedQuantity
		}
		if limit < qty {
			return domain.ErrInsufficientStock
		}
		rec.CurrentStock -= qty
		rec.Version++
		rec.UpdatedAt = time.Now()
		out = cloneStock(rec)
		return nil
	})
	return out, err
}
