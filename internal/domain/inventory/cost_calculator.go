package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost calcula el costo promedio ponderado tras una entrada de repuestos.
// nuevoCosto = ((stockActual * costoActual) + (cantEntrada * costoEntrada)) / (stockActual + cantEntrada)
// Un stock negativo o nulo no aporta al promedio.
func WeightedAverageCost(currentStock int, currentCost decimal.Decimal, inQty int, inCost decimal.Decimal) decimal.Decimal {
	if currentStock < 0 {
		currentStock = 0
	}
	stock := decimal.NewFromInt(int64(currentStock))
	qty := decimal.NewFromInt(int64(inQty))
	sum := stock.Add(qty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stock.Mul(currentCost).Add(qty.Mul(inCost))
	return num.DivRound(sum, 4)
}

// SuggestedOrderQuantity cantidad sugerida para volver a 1.5 veces el punto de reorden.
func SuggestedOrderQuantity(available, minStock int) int {
	target := decimal.NewFromInt(int64(minStock)).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart()
	q := int(target) - available
	if q < 0 {
		return 0
	}
	return q
}
