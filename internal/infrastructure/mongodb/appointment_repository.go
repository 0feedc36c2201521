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

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

// AppointmentRepository citas de mantenimiento.
type AppointmentRepository struct {
	col *mongo.Collection
}

// NewAppointmentRepository crea el repositorio.
func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{col: db.Collection(colAppointments)}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *entity.Appointment) error {
	if _, err := r.col.InsertOne(ctx, newAppointmentDocument(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insertar cita: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	var doc appointmentDocument
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar cita: %w", err)
	}
	return doc.entity(), nil
}

// Update reemplaza la cita solo si el estado guardado sigue siendo expectedStatus.
func (r *AppointmentRepository) Update(ctx context.Context, a *entity.Appointment, expectedStatus string) error {
	res, err := r.col.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: a.ID}, {Key: "status", Value: expectedStatus}},
		newAppointmentDocument(a),
	)
	if err != nil {
		return fmt.Errorf("actualizar cita: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.D{{Key: "_id", Value: a.ID}})
	if err != nil {
		return fmt.Errorf("actualizar cita: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *AppointmentRepository) List(ctx context.Context, f repository.AppointmentFilter) ([]*entity.Appointment, int64, error) {
	filter := appointmentFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("contar citas: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}, {Key: "_id", Value: 1}})
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listar citas: %w", err)
	}
	var docs []appointmentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("listar citas: %w", err)
	}
	out := make([]*entity.Appointment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, total, nil
}

func appointmentFilter(f repository.AppointmentFilter) bson.D {
	filter := bson.D{}
	if f.ServiceCenterID != "" {
		filter = append(filter, bson.E{Key: "service_center_id", Value: f.ServiceCenterID})
	}
	if f.CustomerID != "" {
		filter = append(filter, bson.E{Key: "customer_id", Value: f.CustomerID})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.CreatedBefore != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$lt", Value: *f.CreatedBefore}}})
	}
	scheduled := bson.D{}
	if f.ScheduledFrom != nil {
		scheduled = append(scheduled, bson.E{Key: "$gte", Value: *f.ScheduledFrom})
	}
	if f.ScheduledTo != nil {
		scheduled = append(scheduled, bson.E{Key: "$lte", Value: *f.ScheduledTo})
	}
	if len(scheduled) > 0 {
		filter = append(filter, bson.E{Key: "scheduled_at", Value: scheduled})
	}
	if f.ReminderPending {
		filter = append(filter, bson.E{Key: "reminder_sent_at", Value: bson.D{{Key: "$exists", Value: false}}})
	}
	return filter
}
