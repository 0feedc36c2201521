package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/inventory"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// saveAttempts reintentos ante conflicto de versión al guardar un registro completo.
const saveAttempts = 3

// LedgerUseCase registra transacciones del libro de inventario (in, out, adjustment)
// y mantiene las existencias de cada centro.
type LedgerUseCase struct {
	txRunner   TxRunner
	stockRepo  repository.StockRepository
	ledgerRepo repository.InventoryTransactionRepository
	log        *logger.Logger
	now        func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	ledgerRepo repository.InventoryTransactionRepository,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:   txRunner,
		stockRepo:  stockRepo,
		ledgerRepo: ledgerRepo,
		log:        log.Component("inventory"),
		now:        time.Now,
	}
}

// TransactionInput entrada para registrar una transacción de inventario.
// Para in: Quantity > 0 y UnitCost obligatorio. Para out: Quantity > 0.
// Para adjustment: Quantity con signo, distinta de cero.
type TransactionInput struct {
	ServiceCenterID string
	PartID          string
	PartName        string
	Type            string
	Quantity        int
	UnitCost        *decimal.Decimal
	MinStock        *int
	ReferenceType   string
	ReferenceID     string
	Notes           string
	// FromReserved indica que la salida consume stock ya retenido (consumo de reserva):
	// solo se exige currentStock >= Quantity.
	FromReserved bool
}

// Validate revisa la entrada según el tipo de transacción.
func (in TransactionInput) Validate() error {
	if in.ServiceCenterID == "" || in.PartID == "" {
		return fmt.Errorf("%w: service_center_id y part_id son requeridos", domain.ErrInvalidInput)
	}
	switch in.Type {
	case entity.TransactionTypeIn:
		if in.Quantity <= 0 {
			return fmt.Errorf("%w: quantity debe ser positiva", domain.ErrInvalidInput)
		}
		if in.UnitCost == nil || in.UnitCost.IsNegative() {
			return fmt.Errorf("%w: unit_cost es requerido en entradas", domain.ErrInvalidInput)
		}
	case entity.TransactionTypeOut:
		if in.Quantity <= 0 {
			return fmt.Errorf("%w: quantity debe ser positiva", domain.ErrInvalidInput)
		}
	case entity.TransactionTypeAdjustment:
		if in.Quantity == 0 {
			return fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de transacción %q", domain.ErrInvalidInput, in.Type)
	}
	if in.MinStock != nil && *in.MinStock < 0 {
		return fmt.Errorf("%w: min_stock no puede ser negativo", domain.ErrInvalidInput)
	}
	return nil
}

// CreateTransaction aplica la transacción y la registra en el libro.
// Usa una transacción de BD cuando el despliegue la soporta; si no, aplica la actualización atómica
// del registro y luego inserta la transacción del libro.
func (uc *LedgerUseCase) CreateTransaction(ctx context.Context, in TransactionInput, performedBy string) (*entity.InventoryTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ReferenceType == "" {
		in.ReferenceType = entity.ReferenceTypeManual
	}

	var out *entity.InventoryTransaction
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.ReservationRepository,
		ledgerRepo repository.InventoryTransactionRepository,
	) error {
		t, err := uc.ApplyInTx(ctx, stockRepo, ledgerRepo, in, performedBy)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if errors.Is(err, domain.ErrTransactionsUnsupported) {
		uc.log.Debug().Str("part_id", in.PartID).Msg("transacción de inventario sin soporte transaccional")
		return uc.ApplyInTx(ctx, uc.stockRepo, uc.ledgerRepo, in, performedBy)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyInTx ejecuta la transacción usando los repositorios proporcionados (misma transacción del caller).
// Si retorna error el caller debe hacer rollback.
func (uc *LedgerUseCase) ApplyInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	ledgerRepo repository.InventoryTransactionRepository,
	in TransactionInput,
	performedBy string,
) (*entity.InventoryTransaction, error) {
	var (
		rec *entity.StockRecord
		err error
	)
	switch {
	case in.Type == entity.TransactionTypeIn:
		rec, err = uc.receive(ctx, stockRepo, in, in.Quantity, in.UnitCost)
	case in.Type == entity.TransactionTypeAdjustment && in.Quantity > 0:
		rec, err = uc.receive(ctx, stockRepo, in, in.Quantity, nil)
	case in.Type == entity.TransactionTypeAdjustment:
		rec, err = stockRepo.Withdraw(ctx, in.ServiceCenterID, in.PartID, -in.Quantity, true)
	default:
		rec, err = stockRepo.Withdraw(ctx, in.ServiceCenterID, in.PartID, in.Quantity, !in.FromReserved)
	}
	if err != nil {
		return nil, err
	}

	t := &entity.InventoryTransaction{
		ID:              uuid.New().String(),
		InventoryID:     rec.ID,
		ServiceCenterID: in.ServiceCenterID,
		PartID:          in.PartID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		Notes:           in.Notes,
		PerformedBy:     performedBy,
		StockAfter:      rec.CurrentStock,
		CreatedAt:       uc.now(),
	}
	if err := ledgerRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("registrar transacción de inventario: %w", err)
	}
	return t, nil
}

// receive suma cantidad al registro (lo crea si no existe). Con unitCost recalcula el costo promedio.
func (uc *LedgerUseCase) receive(
	ctx context.Context,
	stockRepo repository.StockRepository,
	in TransactionInput,
	qty int,
	unitCost *decimal.Decimal,
) (*entity.StockRecord, error) {
	for attempt := 1; ; attempt++ {
		now := uc.now()
		rec, err := stockRepo.Get(ctx, in.ServiceCenterID, in.PartID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			rec = &entity.StockRecord{
				ID:              uuid.New().String(),
				ServiceCenterID: in.ServiceCenterID,
				PartID:          in.PartID,
				PartName:        in.PartName,
				CreatedAt:       now,
			}
		}
		if unitCost != nil {
			rec.UnitPrice = inventory.WeightedAverageCost(rec.CurrentStock, rec.UnitPrice, qty, *unitCost)
		}
		rec.CurrentStock += qty
		if in.PartName != "" {
			rec.PartName = in.PartName
		}
		if in.MinStock != nil {
			rec.MinStock = *in.MinStock
		}
		rec.UpdatedAt = now

		err = stockRepo.Save(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= saveAttempts {
			return nil, err
		}
		uc.log.Debug().Int("intento", attempt).Str("part_id", in.PartID).Msg("conflicto de versión en stock, reintentando")
	}
}

// GetStock devuelve la existencia de un repuesto en un centro.
func (uc *LedgerUseCase) GetStock(ctx context.Context, serviceCenterID, partID string) (*entity.StockRecord, error) {
	rec, err := uc.stockRepo.Get(ctx, serviceCenterID, partID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListStock devuelve todas las existencias de un centro.
func (uc *LedgerUseCase) ListStock(ctx context.Context, serviceCenterID string) ([]*entity.StockRecord, error) {
	if serviceCenterID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.ListByCenter(ctx, serviceCenterID)
}

// History devuelve las últimas transacciones de un repuesto.
func (uc *LedgerUseCase) History(ctx context.Context, serviceCenterID, partID string, limit int) ([]*entity.InventoryTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.ledgerRepo.ListByPart(ctx, serviceCenterID, partID, limit)
}
