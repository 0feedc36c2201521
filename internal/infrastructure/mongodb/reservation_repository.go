package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepository)(nil)

// ReservationRepository reservas de stock. Nunca se eliminan.
type ReservationRepository struct {
	col *mongo.Collection
	b   binder
}

// NewReservationRepository crea el repositorio fuera de transacción.
func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(colReservations)}
}

func (r *ReservationRepository) withSession(sess mongo.Session) *ReservationRepository {
	return &ReservationRepository{col: r.col, b: binder{sess: sess}}
}

func (r *ReservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	if _, err := r.col.InsertOne(r.b.ctx(ctx), newReservationDocument(res)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insertar reserva: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var doc reservationDocument
	err := r.col.FindOne(r.b.ctx(ctx), bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar reserva: %w", err)
	}
	return doc.entity(), nil
}

// TransitionStatus compare-and-set sobre el campo status.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id string, from, to entity.ReservationStatus, at time.Time) (bool, error) {
	set := bson.D{{Key: "status", Value: string(to)}, {Key: "updated_at", Value: at}}
	switch to {
	case entity.ReservationReleased:
		set = append(set, bson.E{Key: "released_at", Value: at})
	case entity.ReservationConsumed:
		set = append(set, bson.E{Key: "consumed_at", Value: at})
	}
	res, err := r.col.UpdateOne(r.b.ctx(ctx),
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: string(from)}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return false, fmt.Errorf("cambiar estado de reserva: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	ctx = r.b.ctx(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.D{
		{Key: "status", Value: string(entity.ReservationHeld)},
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now}}},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("listar reservas vencidas: %w", err)
	}
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listar reservas vencidas: %w", err)
	}
	out := make([]*entity.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}
