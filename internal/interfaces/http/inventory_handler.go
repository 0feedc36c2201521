package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// InventoryHandler maneja el libro de inventario y las existencias por centro (protegido).
type InventoryHandler struct {
	ledger        *inventory.LedgerUseCase
	replenishment *inventory.ReplenishmentUseCase
	errs          errorMapper
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, replenishment: replenishment, errs: newErrorMapper(log)}
}

// CreateTransaction godoc
// @Summary      Registrar transacción de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransactionRequest  true  "service_center_id, part_id, type (in|out|adjustment), quantity, unit_cost (entradas)"
// @Success      201   {object}  dto.InventoryTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !centerAllowed(c, in.ServiceCenterID) {
		return forbiddenCenter(c)
	}
	t, err := h.ledger.CreateTransaction(c.Context(), inventory.TransactionInput{
		ServiceCenterID: in.ServiceCenterID,
		PartID:          in.PartID,
		PartName:        in.PartName,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		MinStock:        in.MinStock,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		Notes:           in.Notes,
	}, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(t))
}

// ListStock godoc
// @Summary      Existencias de un centro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        centerId  path  string  true  "ID del centro de servicio"
// @Success      200  {array}   dto.StockResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/{centerId} [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	records, err := h.ledger.ListStock(c.Context(), c.Params("centerId"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := make([]dto.StockResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toStockResponse(r))
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Existencia de un repuesto con su historial reciente
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        centerId  path   string  true   "ID del centro de servicio"
// @Param        partId    path   string  true   "ID del repuesto"
// @Param        limit     query  int     false  "Transacciones a devolver (máx. 200)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/{centerId}/parts/{partId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	centerID, partID := c.Params("centerId"), c.Params("partId")
	rec, err := h.ledger.GetStock(c.Context(), centerID, partID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	history, err := h.ledger.History(c.Context(), centerID, partID, c.QueryInt("limit", 50))
	if err != nil {
		return h.errs.respond(c, err)
	}
	txs := make([]dto.InventoryTransactionResponse, 0, len(history))
	for _, t := range history {
		txs = append(txs, toTransactionResponse(t))
	}
	return c.JSON(fiber.Map{
		"stock":        toStockResponse(rec),
		"transactions": txs,
	})
}

// LowStock godoc
// @Summary      Repuestos bajo el punto de reorden
// @Description  Devuelve los repuestos cuya disponibilidad está por debajo de min_stock con la cantidad sugerida de pedido.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        centerId  path  string  true  "ID del centro de servicio"
// @Success      200  {array}   dto.LowStockItemDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/{centerId}/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.replenishment.LowStockList(c.Context(), c.Params("centerId"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": list,
	})
}

func toStockResponse(r *entity.StockRecord) dto.StockResponse {
	return dto.StockResponse{
		ID:               r.ID,
		ServiceCenterID:  r.ServiceCenterID,
		PartID:           r.PartID,
		PartName:         r.PartName,
		CurrentStock:     r.CurrentStock,
		ReservedQuantity: r.ReservedQuantity,
		Available:        r.Available(),
		MinStock:         r.MinStock,
		UnitPrice:        r.UnitPrice,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toTransactionResponse(t *entity.InventoryTransaction) dto.InventoryTransactionResponse {
	return dto.InventoryTransactionResponse{
		ID:              t.ID,
		InventoryID:     t.InventoryID,
		ServiceCenterID: t.ServiceCenterID,
		PartID:          t.PartID,
		Type:            t.Type,
		Quantity:        t.Quantity,
		ReferenceType:   t.ReferenceType,
		ReferenceID:     t.ReferenceID,
		Notes:           t.Notes,
		PerformedBy:     t.PerformedBy,
		StockAfter:      t.StockAfter,
		CreatedAt:       t.CreatedAt,
	}
}
