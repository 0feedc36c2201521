package mongodb

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type stockDocument struct {
	ID               string               `bson:"_id"`
	ServiceCenterID  string               `bson:"service_center_id"`
	PartID           string               `bson:"part_id"`
	PartName         string               `bson:"part_name"`
	CurrentStock     int                  `bson:"current_stock"`
	ReservedQuantity int                  `bson:"reserved_quantity"`
	MinStock         int                  `bson:"min_stock"`
	UnitPrice        primitive.Decimal128 `bson:"unit_price"`
	Version          int64                `bson:"version"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
}

func newStockDocument(r *entity.StockRecord) stockDocument {
	return stockDocument{
		ID:               r.ID,
		ServiceCenterID:  r.ServiceCenterID,
		PartID:           r.PartID,
		PartName:         r.PartName,
		CurrentStock:     r.CurrentStock,
		ReservedQuantity: r.ReservedQuantity,
		MinStock:         r.MinStock,
		UnitPrice:        toDecimal128(r.UnitPrice),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (d stockDocument) entity() *entity.StockRecord {
	return &entity.StockRecord{
		ID:               d.ID,
		ServiceCenterID:  d.ServiceCenterID,
		PartID:           d.PartID,
		PartName:         d.PartName,
		CurrentStock:     d.CurrentStock,
		ReservedQuantity: d.ReservedQuantity,
		MinStock:         d.MinStock,
		UnitPrice:        fromDecimal128(d.UnitPrice),
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type itemDocument struct {
	PartID   string `bson:"part_id"`
	Quantity int    `bson:"quantity"`
}

func toItemDocuments(items []entity.ReservationItem) []itemDocument {
	out := make([]itemDocument, 0, len(items))
	for _, it := range items {
		out = append(out, itemDocument{PartID: it.PartID, Quantity: it.Quantity})
	}
	return out
}

func fromItemDocuments(items []itemDocument) []entity.ReservationItem {
	out := make([]entity.ReservationItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.ReservationItem{PartID: it.PartID, Quantity: it.Quantity})
	}
	return out
}

type reservationDocument struct {
	ID              string         `bson:"_id"`
	AppointmentID   string         `bson:"appointment_id"`
	ServiceCenterID string         `bson:"service_center_id"`
	Items           []itemDocument `bson:"items"`
	Status          string         `bson:"status"`
	ExpiresAt       *time.Time     `bson:"expires_at,omitempty"`
	Notes           string         `bson:"notes,omitempty"`
	Degraded        bool           `bson:"degraded"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
	ReleasedAt      *time.Time     `bson:"released_at,omitempty"`
	ConsumedAt      *time.Time     `bson:"consumed_at,omitempty"`
}

func newReservationDocument(r *entity.Reservation) reservationDocument {
	return reservationDocument{
		ID:              r.ID,
		AppointmentID:   r.AppointmentID,
		ServiceCenterID: r.ServiceCenterID,
		Items:           toItemDocuments(r.Items),
		Status:          string(r.Status),
		ExpiresAt:       r.ExpiresAt,
		Notes:           r.Notes,
		Degraded:        r.Degraded,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ReleasedAt:      r.ReleasedAt,
		ConsumedAt:      r.ConsumedAt,
	}
}

func (d reservationDocument) entity() *entity.Reservation {
	return &entity.Reservation{
		ID:              d.ID,
		AppointmentID:   d.AppointmentID,
		ServiceCenterID: d.ServiceCenterID,
		Items:           fromItemDocuments(d.Items),
		Status:          entity.ReservationStatus(d.Status),
		ExpiresAt:       d.ExpiresAt,
		Notes:           d.Notes,
		Degraded:        d.Degraded,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ReleasedAt:      d.ReleasedAt,
		ConsumedAt:      d.ConsumedAt,
	}
}

type transactionDocument struct {
	ID              string    `bson:"_id"`
	InventoryID     string    `bson:"inventory_id"`
	ServiceCenterID string    `bson:"service_center_id"`
	PartID          string    `bson:"part_id"`
	Type            string    `bson:"type"`
	Quantity        int       `bson:"quantity"`
	ReferenceType   string    `bson:"reference_type"`
	ReferenceID     string    `bson:"reference_id,omitempty"`
	Notes           string    `bson:"notes,omitempty"`
	PerformedBy     string    `bson:"performed_by,omitempty"`
	StockAfter      int       `bson:"stock_after"`
	CreatedAt       time.Time `bson:"created_at"`
}

func newTransactionDocument(t *entity.InventoryTransaction) transactionDocument {
	return transactionDocument{
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

func (d transactionDocument) entity() *entity.InventoryTransaction {
	return &entity.InventoryTransaction{
		ID:              d.ID,
		InventoryID:     d.InventoryID,
		ServiceCenterID: d.ServiceCenterID,
		PartID:          d.PartID,
		Type:            d.Type,
		Quantity:        d.Quantity,
		ReferenceType:   d.ReferenceType,
		ReferenceID:     d.ReferenceID,
		Notes:           d.Notes,
		PerformedBy:     d.PerformedBy,
		StockAfter:      d.StockAfter,
		CreatedAt:       d.CreatedAt,
	}
}

type appointmentDocument struct {
	ID              string               `bson:"_id"`
	CustomerID      string               `bson:"customer_id"`
	CustomerName    string               `bson:"customer_name"`
	CustomerEmail   string               `bson:"customer_email"`
	ServiceCenterID string               `bson:"service_center_id"`
	VehicleVIN      string               `bson:"vehicle_vin"`
	VehicleModel    string               `bson:"vehicle_model"`
	ServiceType     string               `bson:"service_type"`
	ScheduledAt     time.Time            `bson:"scheduled_at"`
	Status          string               `bson:"status"`
	PaymentStatus   string               `bson:"payment_status"`
	ServiceFee      primitive.Decimal128 `bson:"service_fee"`
	Parts           []itemDocument       `bson:"parts"`
	ReservationID   string               `bson:"reservation_id,omitempty"`
	PartsStatus     string               `bson:"parts_status"`
	CancelReason    string               `bson:"cancel_reason,omitempty"`
	Notes           string               `bson:"notes,omitempty"`
	CancelledAt     *time.Time           `bson:"cancelled_at,omitempty"`
	CompletedAt     *time.Time           `bson:"completed_at,omitempty"`
	ReminderSentAt  *time.Time           `bson:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func newAppointmentDocument(a *entity.Appointment) appointmentDocument {
	return appointmentDocument{
		ID:              a.ID,
		CustomerID:      a.CustomerID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		ServiceCenterID: a.ServiceCenterID,
		VehicleVIN:      a.VehicleVIN,
		VehicleModel:    a.VehicleModel,
		ServiceType:     a.ServiceType,
		ScheduledAt:     a.ScheduledAt,
		Status:          a.Status,
		PaymentStatus:   a.PaymentStatus,
		ServiceFee:      toDecimal128(a.ServiceFee),
		Parts:           toItemDocuments(a.Parts),
		ReservationID:   a.ReservationID,
		PartsStatus:     a.PartsStatus,
		CancelReason:    a.CancelReason,
		Notes:           a.Notes,
		CancelledAt:     a.CancelledAt,
		CompletedAt:     a.CompletedAt,
		ReminderSentAt:  a.ReminderSentAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (d appointmentDocument) entity() *entity.Appointment {
	return &entity.Appointment{
		ID:              d.ID,
		CustomerID:      d.CustomerID,
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		ServiceCenterID: d.ServiceCenterID,
		VehicleVIN:      d.VehicleVIN,
		VehicleModel:    d.VehicleModel,
		ServiceType:     d.ServiceType,
		ScheduledAt:     d.ScheduledAt,
		Status:          d.Status,
		PaymentStatus:   d.PaymentStatus,
		ServiceFee:      fromDecimal128(d.ServiceFee),
		Parts:           fromItemDocuments(d.Parts),
		ReservationID:   d.ReservationID,
		PartsStatus:     d.PartsStatus,
		CancelReason:    d.CancelReason,
		Notes:           d.Notes,
		CancelledAt:     d.CancelledAt,
		CompletedAt:     d.CompletedAt,
		ReminderSentAt:  d.ReminderSentAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type serviceCenterDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Address   string    `bson:"address"`
	Phone     string    `bson:"phone"`
	Email     string    `bson:"email"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type settingsDocument struct {
	ID                     string               `bson:"_id"`
	UpfrontPaymentRequired bool                 `bson:"upfront_payment_required"`
	PaymentWindowMinutes   int                  `bson:"payment_window_minutes"`
	AutoCancelEnabled      bool                 `bson:"auto_cancel_enabled"`
	ReminderLeadHours      int                  `bson:"reminder_lead_hours"`
	BackorderLeadTimeDays  int                  `bson:"backorder_lead_time_days"`
	ReservationHoldHours   int                  `bson:"reservation_hold_hours"`
	TaxRate                primitive.Decimal128 `bson:"tax_rate"`
	InvoicePrefix          string               `bson:"invoice_prefix"`
	UpdatedAt              time.Time            `bson:"updated_at"`
	UpdatedBy              string               `bson:"updated_by,omitempty"`
}
