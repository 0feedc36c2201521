package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// Deps dependencias del caso de uso de facturación.
type Deps struct {
	TxRunner     TxRunner
	Invoices     repository.InvoiceRepository
	Appointments AppointmentReader
	Reservations ReservationReader
	Stock        StockReader
	Centers      CenterReader
	Policy       PolicyProvider
	PDF          InvoicePDFGenerator
	Log          *logger.Logger
}

// UseCase emite facturas de servicio a partir de citas completadas.
type UseCase struct {
	txRunner     TxRunner
	invoices     repository.InvoiceRepository
	appointments AppointmentReader
	reservations ReservationReader
	stock        StockReader
	centers      CenterReader
	policy       PolicyProvider
	pdf          InvoicePDFGenerator
	log          *logger.Logger
	now          func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:     d.TxRunner,
		invoices:     d.Invoices,
		appointments: d.Appointments,
		reservations: d.Reservations,
		stock:        d.Stock,
		centers:      d.Centers,
		policy:       d.Policy,
		pdf:          d.PDF,
		log:          log.Component("billing"),
		now:          time.Now,
	}
}

// CreateForAppointment factura una cita completada: una línea por la tarifa del servicio y una por
// cada repuesto consumido al costo del registro de stock. El consecutivo se toma en la misma
// transacción que inserta la factura.
func (uc *UseCase) CreateForAppointment(ctx context.Context, appointmentID, issuedBy string) (*entity.Invoice, error) {
	if appointmentID == "" {
		return nil, fmt.Errorf("%w: appointment_id es requerido", domain.ErrInvalidInput)
	}
	appt, err := uc.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("obtener cita: %w", err)
	}
	if appt == nil {
		return nil, domain.ErrNotFound
	}
	if appt.Status != entity.AppointmentCompleted {
		return nil, fmt.Errorf("%w: solo se facturan citas completadas (estado %s)", domain.ErrConflict, appt.Status)
	}

	existing, err := uc.invoices.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("buscar factura: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: la cita ya tiene la factura %s", domain.ErrDuplicate, existing.Number)
	}

	policy, err := uc.policy.Current(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := uc.buildLines(ctx, appt)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	inv := &entity.Invoice{
		ID:              uuid.New().String(),
		AppointmentID:   appt.ID,
		ServiceCenterID: appt.ServiceCenterID,
		CustomerID:      appt.CustomerID,
		CustomerName:    appt.CustomerName,
		CustomerEmail:   appt.CustomerEmail,
		Prefix:          policy.InvoicePrefix,
		Date:            now,
		TaxRate:         policy.TaxRate,
		IssuedBy:        issuedBy,
		Lines:           lines,
		CreatedAt:       now,
	}
	computeTotals(inv)

	err = uc.txRunner.Run(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		seq, err := invoiceRepo.NextNumber(ctx, inv.Prefix, now.Year())
		if err != nil {
			return fmt.Errorf("consecutivo: %w", err)
		}
		inv.Number = FormatNumber(inv.Prefix, now.Year(), seq)
		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: la cita ya fue facturada", domain.ErrDuplicate)
		}
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("appointment_id", appt.ID).
		Str("grand_total", inv.GrandTotal.StringFixed(2)).
		Msg("factura emitida")
	return inv, nil
}

// buildLines arma las líneas de la factura. Con repuestos exige la reserva consumida.
func (uc *UseCase) buildLines(ctx context.Context, appt *entity.Appointment) ([]entity.InvoiceLine, error) {
	lines := []entity.InvoiceLine{{
		ID:          uuid.New().String(),
		Kind:        entity.InvoiceLineService,
		Description: appt.ServiceType,
		Quantity:    1,
		UnitPrice:   appt.ServiceFee,
		Subtotal:    appt.ServiceFee,
	}}
	if len(appt.Parts) == 0 {
		return lines, nil
	}

	if appt.ReservationID == "" {
		return nil, fmt.Errorf("%w: la cita no tiene reserva de repuestos", domain.ErrConflict)
	}
	res, err := uc.reservations.GetByID(ctx, appt.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("obtener reserva: %w", err)
	}
	if res == nil || res.Status != entity.ReservationConsumed {
		return nil, fmt.Errorf("%w: los repuestos de la cita no fueron consumidos", domain.ErrConflict)
	}

	for _, it := range res.Items {
		rec, err := uc.stock.Get(ctx, res.ServiceCenterID, it.PartID)
		if err != nil {
			return nil, fmt.Errorf("obtener stock de %s: %w", it.PartID, err)
		}
		price := decimal.Zero
		desc := it.PartID
		if rec != nil {
			price = rec.UnitPrice
			if rec.PartName != "" {
				desc = rec.PartName
			}
		}
		lines = append(lines, entity.InvoiceLine{
			ID:          uuid.New().String(),
			Kind:        entity.InvoiceLinePart,
			PartID:      it.PartID,
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			Subtotal:    price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
		})
	}
	return lines, nil
}

// computeTotals calcula neto, impuesto (tasa en porcentaje) y total con dos decimales.
func computeTotals(inv *entity.Invoice) {
	net := decimal.Zero
	for i := range inv.Lines {
		inv.Lines[i].InvoiceID = inv.ID
		net = net.Add(inv.Lines[i].Subtotal)
	}
	inv.NetTotal = net.Round(2)
	inv.TaxTotal = net.Mul(inv.TaxRate).Div(hundred).Round(2)
	inv.GrandTotal = inv.NetTotal.Add(inv.TaxTotal)
}

// FormatNumber arma el número visible: PREFIX-YYYY-000001.
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// Get devuelve la factura con sus líneas o domain.ErrNotFound.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}
