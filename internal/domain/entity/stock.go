package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord representa la existencia de un repuesto en un centro de servicio.
// Invariantes tras cada operación exitosa: CurrentStock >= 0, ReservedQuantity >= 0
// y ReservedQuantity <= CurrentStock.
type StockRecord struct {
	ID               string
	ServiceCenterID  string
	PartID           string
	PartName         string
	CurrentStock     int
	ReservedQuantity int
	MinStock         int             // punto de reorden
	UnitPrice        decimal.Decimal // costo promedio ponderado
	Version          int64           // bloqueo optimista para escrituras completas
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available devuelve la cantidad que aún puede retenerse.
func (s *StockRecord) Available() int {
	if s == nil {
		return 0
	}
	return s.CurrentStock - s.ReservedQuantity
}

// StockKey identifica un registro de stock para locks y mapas.
func StockKey(serviceCenterID, partID string) string {
	return serviceCenterID + ":" + partID
}
