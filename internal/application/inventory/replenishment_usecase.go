package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/inventory"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición de un centro de servicio.
type ReplenishmentUseCase struct {
	stockRepo repository.StockRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stockRepo repository.StockRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stockRepo: stockRepo}
}

// LowStockList devuelve los repuestos cuya disponibilidad está bajo el punto de reorden,
// ordenados de mayor a menor déficit.
func (uc *ReplenishmentUseCase) LowStockList(ctx context.Context, serviceCenterID string) ([]dto.LowStockItemDTO, error) {
	if serviceCenterID == "" {
		return nil, domain.ErrInvalidInput
	}
	records, err := uc.stockRepo.ListByCenter(ctx, serviceCenterID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.LowStockItemDTO, 0)
	for _, r := range records {
		if r.MinStock <= 0 || r.Available() >= r.MinStock {
			continue
		}
		qty := inventory.SuggestedOrderQuantity(r.Available(), r.MinStock)
		items = append(items, dto.LowStockItemDTO{
			PartID:             r.PartID,
			PartName:           r.PartName,
			CurrentStock:       r.CurrentStock,
			ReservedQuantity:   r.ReservedQuantity,
			Available:          r.Available(),
			MinStock:           r.MinStock,
			SuggestedOrderQty:  qty,
			UnitPrice:          r.UnitPrice,
			EstimatedOrderCost: r.UnitPrice.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		di := items[i].MinStock - items[i].Available
		dj := items[j].MinStock - items[j].Available
		if di != dj {
			return di > dj
		}
		return items[i].PartID < items[j].PartID
	})
	return items, nil
}
