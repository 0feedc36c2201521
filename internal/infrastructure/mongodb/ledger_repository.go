package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*LedgerRepository)(nil)

// LedgerRepository libro de inventario (solo inserción).
type LedgerRepository struct {
	col *mongo.Collection
	b   binder
}

// NewLedgerRepository crea el repositorio fuera de transacción.
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(colTransactions)}
}

func (r *LedgerRepository) withSession(sess mongo.Session) *LedgerRepository {
	return &LedgerRepository{col: r.col, b: binder{sess: sess}}
}

func (r *LedgerRepository) Create(ctx context.Context, t *entity.InventoryTransaction) error {
	if _, err := r.col.InsertOne(r.b.ctx(ctx), newTransactionDocument(t)); err != nil {
		return fmt.Errorf("insertar transacción de inventario: %w", err)
	}
	return nil
}

// ListByPart devuelve las transacciones más recientes primero.
func (r *LedgerRepository) ListByPart(ctx context.Context, serviceCenterID, partID string, limit int) ([]*entity.InventoryTransaction, error) {
	ctx = r.b.ctx(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, stockFilter(serviceCenterID, partID), opts)
	if err != nil {
		return nil, fmt.Errorf("listar transacciones: %w", err)
	}
	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listar transacciones: %w", err)
	}
	out := make([]*entity.InventoryTransaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}

// ListByReference usa el índice (reference_type, reference_id).
func (r *LedgerRepository) ListByReference(ctx context.Context, serviceCenterID, referenceType, referenceID string) ([]*entity.InventoryTransaction, error) {
	ctx = r.b.ctx(ctx)
	filter := bson.D{
		{Key: "reference_type", Value: referenceType},
		{Key: "reference_id", Value: referenceID},
		{Key: "service_center_id", Value: serviceCenterID},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listar transacciones por referencia: %w", err)
	}
	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listar transacciones por referencia: %w", err)
	}
	out := make([]*entity.InventoryTransaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity())
	}
	return out, nil
}
