package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest body para POST /api/inventory/transactions.
type CreateTransactionRequest struct {
	ServiceCenterID string           `json:"service_center_id"`
	PartID          string           `json:"part_id"`
	PartName        string           `json:"part_name,omitempty"`
	Type            string           `json:"type"` // in | out | adjustment
	Quantity        int              `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	MinStock        *int             `json:"min_stock,omitempty"`
	ReferenceType   string           `json:"reference_type,omitempty"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// InventoryTransactionResponse salida de una transacción del libro de inventario.
type InventoryTransactionResponse struct {
	ID              string    `json:"id"`
	InventoryID     string    `json:"inventory_id"`
	ServiceCenterID string    `json:"service_center_id"`
	PartID          string    `json:"part_id"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	ReferenceType   string    `json:"reference_type"`
	ReferenceID     string    `json:"reference_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	PerformedBy     string    `json:"performed_by"`
	StockAfter      int       `json:"stock_after"`
	CreatedAt       time.Time `json:"created_at"`
}

// StockResponse existencia de un repuesto en un centro.
type StockResponse struct {
	ID               string          `json:"id"`
	ServiceCenterID  string          `json:"service_center_id"`
	PartID           string          `json:"part_id"`
	PartName         string          `json:"part_name"`
	CurrentStock     int             `json:"current_stock"`
	ReservedQuantity int             `json:"reserved_quantity"`
	Available        int             `json:"available"`
	MinStock         int             `json:"min_stock"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LowStockItemDTO repuesto bajo su punto de reorden con la cantidad sugerida de pedido.
type LowStockItemDTO struct {
	PartID             string          `json:"part_id"`
	PartName           string          `json:"part_name"`
	CurrentStock       int             `json:"current_stock"`
	ReservedQuantity   int             `json:"reserved_quantity"`
	Available          int             `json:"available"`
	MinStock           int             `json:"min_stock"`
	SuggestedOrderQty  int             `json:"suggested_order_qty"` // 1.5 * MinStock - Available
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
}
