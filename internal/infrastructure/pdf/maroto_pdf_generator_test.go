package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0,00", formatMoney(decimal.Zero))
	assert.Equal(t, "999,90", formatMoney(decimal.RequireFromString("999.9")))
	assert.Equal(t, "1.234.567,50", formatMoney(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "-25.000,00", formatMoney(decimal.NewFromInt(-25000)))
}

func TestGenerateInvoicePDF(t *testing.T) {
	inv := &entity.Invoice{
		Number: "EVC-2026-000001", AppointmentID: "A1", CustomerName: "Ana", Date: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		NetTotal: decimal.NewFromInt(191), TaxRate: decimal.NewFromInt(19),
		TaxTotal: decimal.RequireFromString("36.29"), GrandTotal: decimal.RequireFromString("227.29"), IssuedBy: "staff-1",
		Lines: []entity.InvoiceLine{
			{Kind: entity.InvoiceLineService, Description: "diagnóstico", Quantity: 1, UnitPrice: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(100)},
			{Kind: entity.InvoiceLinePart, PartID: "P1", Description: "filtro", Quantity: 2, UnitPrice: decimal.RequireFromString("45.5"), Subtotal: decimal.NewFromInt(91)},
		},
	}

	doc, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), inv, &entity.ServiceCenter{Name: "EV Norte"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
