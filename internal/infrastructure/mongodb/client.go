// Package mongodb implementa el almacén operativo (existencias, reservas, libro de inventario,
// citas, centros y políticas) sobre MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/evcenter-api/pkg/config"
)

// Nombres de colecciones.
const (
	colInventory      = "inventory"
	colReservations   = "reservations"
	colTransactions   = "inventory_transactions"
	colAppointments   = "appointments"
	colServiceCenters = "service_centers"
	colSettings       = "system_settings"
)

// Connect abre el cliente con pool de conexiones y verifica la conectividad con un ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout / 2).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: conectar: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes crea los índices que sostienen las consultas y la unicidad de (centro, repuesto).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		colInventory: {
			{
				Keys:    bson.D{{Key: "service_center_id", Value: 1}, {Key: "part_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_center_part"),
			},
		},
		colReservations: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
			{Keys: bson.D{{Key: "appointment_id", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "service_center_id", Value: 1}, {Key: "part_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "reference_type", Value: 1}, {Key: "reference_id", Value: 1}}},
		},
		colAppointments: {
			{Keys: bson.D{{Key: "service_center_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb: índices de %s: %w", col, err)
		}
	}
	return nil
}

// binder asocia las operaciones de un repositorio a una sesión (transacción) cuando existe.
type binder struct {
	sess mongo.Session
}

func (b binder) ctx(ctx context.Context) context.Context {
	if b.sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, b.sess)
}
