package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, appointment_id, service_center_id, customer_id, customer_name, customer_email,
	prefix, number, date, net_total, tax_rate, tax_total, grand_total, issued_by, created_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// NextNumber incrementa el contador de (prefix, year). El upsert bloquea la fila hasta el fin de la tx.
func (r *InvoiceRepo) NextNumber(ctx context.Context, prefix string, year int) (int64, error) {
	const query = `
		INSERT INTO invoice_counters (prefix, year, last_value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET last_value = invoice_counters.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, prefix, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("next invoice number: %w", err)
	}
	return n, nil
}

// Create persiste la cabecera y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.AppointmentID, inv.ServiceCenterID, nullIfEmpty(inv.CustomerID),
		nullIfEmpty(inv.CustomerName), nullIfEmpty(inv.CustomerEmail),
		inv.Prefix, inv.Number, inv.Date, inv.NetTotal, inv.TaxRate, inv.TaxTotal, inv.GrandTotal,
		inv.IssuedBy, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, constraintName(err))
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	const lineQuery = `
		INSERT INTO invoice_lines (id, invoice_id, position, kind, part_id, description, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range inv.Lines {
		l := &inv.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.InvoiceID = inv.ID
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.InvoiceID, i, l.Kind, nullIfEmpty(l.PartID), l.Description, l.Quantity, l.UnitPrice, l.Subtotal,
		); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByAppointment obtiene la factura de una cita.
func (r *InvoiceRepo) GetByAppointment(ctx context.Context, appointmentID string) (*entity.Invoice, error) {
	return r.findOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE appointment_id = $1`, appointmentID)
}

func (r *InvoiceRepo) findOne(ctx context.Context, query, arg string) (*entity.Invoice, error) {
	var inv entity.Invoice
	var customerID, customerName, customerEmail *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.AppointmentID, &inv.ServiceCenterID, &customerID, &customerName, &customerEmail,
		&inv.Prefix, &inv.Number, &inv.Date, &inv.NetTotal, &inv.TaxRate, &inv.TaxTotal, &inv.GrandTotal,
		&inv.IssuedBy, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.CustomerID = derefStr(customerID)
	inv.CustomerName = derefStr(customerName)
	inv.CustomerEmail = derefStr(customerEmail)

	lines, err := r.lines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func (r *InvoiceRepo) lines(ctx context.Context, invoiceID string) ([]entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, kind, part_id, description, quantity, unit_price, subtotal
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	var list []entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		var partID *string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Kind, &partID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		l.PartID = derefStr(partID)
		list = append(list, l)
	}
	return list, rows.Err()
}
