package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// PDF genera la representación gráfica de la factura.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
func (uc *UseCase) PDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.Get(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}

	// El encabezado se arma igual sin datos del centro.
	center := &entity.ServiceCenter{ID: inv.ServiceCenterID, Name: "Centro " + inv.ServiceCenterID}
	if uc.centers != nil {
		if c, cErr := uc.centers.GetByID(ctx, inv.ServiceCenterID); cErr == nil && c != nil {
			center = c
		} else if cErr != nil {
			uc.log.Warn().Err(cErr).Str("service_center_id", inv.ServiceCenterID).Msg("pdf sin datos del centro")
		}
	}

	pdfBytes, err = uc.pdf.GenerateInvoicePDF(ctx, inv, center)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", inv.Number), nil
}
