package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

const settingsID = "system"

var (
	_ repository.SettingsRepository      = (*SettingsRepository)(nil)
	_ repository.ServiceCenterRepository = (*ServiceCenterRepository)(nil)
)

// SettingsRepository documento único de políticas.
type SettingsRepository struct {
	col *mongo.Collection
}

// NewSettingsRepository crea el repositorio.
func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{col: db.Collection(colSettings)}
}

func (r *SettingsRepository) Get(ctx context.Context) (*entity.SystemSettings, error) {
	var d settingsDocument
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: settingsID}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar políticas: %w", err)
	}
	return &entity.SystemSettings{
		UpfrontPaymentRequired: d.UpfrontPaymentRequired,
		PaymentWindowMinutes:   d.PaymentWindowMinutes,
		AutoCancelEnabled:      d.AutoCancelEnabled,
		ReminderLeadHours:      d.ReminderLeadHours,
		BackorderLeadTimeDays:  d.BackorderLeadTimeDays,
		ReservationHoldHours:   d.ReservationHoldHours,
		TaxRate:                fromDecimal128(d.TaxRate),
		InvoicePrefix:          d.InvoicePrefix,
		UpdatedAt:              d.UpdatedAt,
		UpdatedBy:              d.UpdatedBy,
	}, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *entity.SystemSettings) error {
	d := settingsDocument{
		ID:                     settingsID,
		UpfrontPaymentRequired: s.UpfrontPaymentRequired,
		PaymentWindowMinutes:   s.PaymentWindowMinutes,
		AutoCancelEnabled:      s.AutoCancelEnabled,
		ReminderLeadHours:      s.ReminderLeadHours,
		BackorderLeadTimeDays:  s.BackorderLeadTimeDays,
		ReservationHoldHours:   s.ReservationHoldHours,
		TaxRate:                toDecimal128(s.TaxRate),
		InvoicePrefix:          s.InvoicePrefix,
		UpdatedAt:              s.UpdatedAt,
		UpdatedBy:              s.UpdatedBy,
	}
	_, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: settingsID}}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("guardar políticas: %w", err)
	}
	return nil
}

// ServiceCenterRepository centros de servicio.
type ServiceCenterRepository struct {
	col *mongo.Collection
}

// NewServiceCenterRepository crea el repositorio.
func NewServiceCenterRepository(db *mongo.Database) *ServiceCenterRepository {
	return &ServiceCenterRepository{col: db.Collection(colServiceCenters)}
}

func (r *ServiceCenterRepository) Create(ctx context.Context, c *entity.ServiceCenter) error {
	_, err := r.col.InsertOne(ctx, serviceCenterDocument{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insertar centro: %w", err)
	}
	return nil
}

func (r *ServiceCenterRepository) GetByID(ctx context.Context, id string) (*entity.ServiceCenter, error) {
	var d serviceCenterDocument
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar centro: %w", err)
	}
	return d.entity(), nil
}

func (r *ServiceCenterRepository) List(ctx context.Context) ([]*entity.ServiceCenter, error) {
	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listar centros: %w", err)
	}
	var docs []serviceCenterDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listar centros: %w", err)
	}
	out := make([]*entity.ServiceCenter, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

func (d serviceCenterDocument) entity() *entity.ServiceCenter {
	return &entity.ServiceCenter{
		ID:        d.ID,
		Name:      d.Name,
		Address:   d.Address,
		Phone:     d.Phone,
		Email:     d.Email,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
