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

var _ repository.StockRepository = (*StockRepository)(nil)

// StockRepository existencias por (centro, repuesto). Las operaciones de cantidad son
// actualizaciones condicionales de un solo documento.
type StockRepository struct {
	col *mongo.Collection
	b   binder
}

// NewStockRepository crea el repositorio fuera de transacción.
func NewStockRepository(db *mongo.Database) *StockRepository {
	return &StockRepository{col: db.Collection(colInventory)}
}

func (r *StockRepository) withSession(sess mongo.Session) *StockRepository {
	return &StockRepository{col: r.col, b: binder{sess: sess}}
}

func stockFilter(serviceCenterID, partID string) bson.D {
	return bson.D{{Key: "service_center_id", Value: serviceCenterID}, {Key: "part_id", Value: partID}}
}

func (r *StockRepository) Get(ctx context.Context, serviceCenterID, partID string) (*entity.StockRecord, error) {
	var doc stockDocument
	err := r.col.FindOne(r.b.ctx(ctx), stockFilter(serviceCenterID, partID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar stock: %w", err)
	}
	return doc.entity(), nil
}

func (r *StockRepository) ListByCenter(ctx context.Context, serviceCenterID string) ([]*entity.StockRecord, error) {
	ctx = r.b.ctx(ctx)
	cur, err := r.col.Find(ctx,
		bson.D{{Key: "service_center_id", Value: serviceCenterID}},
		options.Find().SetSort(bson.D{{Key: "part_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	var docs []stockDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	out := make([]*entity.StockRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

// Save inserta con versión 1 o reemplaza solo si la versión leída sigue vigente.
func (r *StockRepository) Save(ctx context.Context, rec *entity.StockRecord) error {
	ctx = r.b.ctx(ctx)
	doc := newStockDocument(rec)
	doc.Version = rec.Version + 1

	if rec.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("insertar stock: %w", err)
		}
		rec.Version = doc.Version
		return nil
	}

	filter := append(stockFilter(rec.ServiceCenterID, rec.PartID), bson.E{Key: "version", Value: rec.Version})
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("guardar stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConflict
	}
	rec.Version = doc.Version
	return nil
}

// TryReserve $inc condicionado a currentStock - reservedQuantity >= qty.
func (r *StockRepository) TryReserve(ctx context.Context, serviceCenterID, partID string, qty int) (bool, error) {
	filter := append(stockFilter(serviceCenterID, partID), bson.E{Key: "$expr", Value: bson.D{
		{Key: "$gte", Value: bson.A{bson.D{{Key: "$subtract", Value: bson.A{"$current_stock", "$reserved_quantity"}}}, qty}},
	}})
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "reserved_quantity", Value: qty}, {Key: "version", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	res, err := r.col.UpdateOne(r.b.ctx(ctx), filter, update)
	if err != nil {
		return false, fmt.Errorf("retener stock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseReserved resta qty de lo retenido sin bajar de cero (update con pipeline).
func (r *StockRepository) ReleaseReserved(ctx context.Context, serviceCenterID, partID string, qty int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "reserved_quantity", Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$reserved_quantity", qty}}},
			}}}},
			{Key: "version", Value: bson.D{{Key: "$add", Value: bson.A{"$version", 1}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}
	res, err := r.col.UpdateOne(r.b.ctx(ctx), stockFilter(serviceCenterID, partID), update)
	if err != nil {
		return fmt.Errorf("liberar stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Withdraw descuenta currentStock si la condición se cumple y devuelve el registro resultante.
func (r *StockRepository) Withdraw(ctx context.Context, serviceCenterID, partID string, qty int, protectReserved bool) (*entity.StockRecord, error) {
	ctx = r.b.ctx(ctx)
	var cond bson.E
	if protectReserved {
		cond = bson.E{Key: "$expr", Value: bson.D{
			{Key: "$gte", Value: bson.A{bson.D{{Key: "$subtract", Value: bson.A{"$current_stock", "$reserved_quantity"}}}, qty}},
		}}
	} else {
		cond = bson.E{Key: "current_stock", Value: bson.D{{Key: "$gte", Value: qty}}}
	}
	filter := append(stockFilter(serviceCenterID, partID), cond)
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "current_stock", Value: -qty}, {Key: "version", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}

	var doc stockDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		rec, gerr := r.Get(ctx, serviceCenterID, partID)
		if gerr != nil {
			return nil, gerr
		}
		if rec == nil {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("descontar stock: %w", err)
	}
	return doc.entity(), nil
}
