package entity

import "time"

// Tipos de transacción del libro de inventario.
const (
	TransactionTypeIn         = "in"         // entrada (compra, devolución)
	TransactionTypeOut        = "out"        // salida (consumo en servicio, venta)
	TransactionTypeAdjustment = "adjustment" // ajuste manual con signo
)

// Tipos de referencia de una transacción.
const (
	ReferenceTypeService  = "service"
	ReferenceTypePurchase = "purchase"
	ReferenceTypeManual   = "manual"
)

// InventoryTransaction registro inmutable del libro de inventario.
// Quantity es positiva para in/out; en adjustment lleva el signo del ajuste.
type InventoryTransaction struct {
	ID              string
	InventoryID     string
	ServiceCenterID string
	PartID          string
	Type            string
	Quantity        int
	ReferenceType   string
	ReferenceID     string
	Notes           string
	PerformedBy     string
	StockAfter      int
	CreatedAt       time.Time
}
