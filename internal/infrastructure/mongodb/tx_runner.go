package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/config"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// codeIllegalOperation lo devuelve un servidor standalone al recibir un número de transacción.
const codeIllegalOperation = 20

// TxRunner ejecuta fn dentro de una transacción multi-documento con repositorios ligados a la sesión.
// Si el despliegue no soporta transacciones (standalone) lo recuerda y devuelve
// domain.ErrTransactionsUnsupported sin volver a intentarlo.
type TxRunner struct {
	client       *mongo.Client
	stock        *StockRepository
	reservations *ReservationRepository
	ledger       *LedgerRepository
	mode         string
	unsupported  atomic.Bool
	log          *logger.Logger
}

// NewTxRunner crea el ejecutor. mode es config.TxModeAuto, TxModeRequired o TxModeDisabled.
func NewTxRunner(client *mongo.Client, db *mongo.Database, mode string, log *logger.Logger) *TxRunner {
	return &TxRunner{
		client:       client,
		stock:        NewStockRepository(db),
		reservations: NewReservationRepository(db),
		ledger:       NewLedgerRepository(db),
		mode:         mode,
		log:          log.Component("mongodb"),
	}
}

// Supported indica si la última evidencia del servidor admite transacciones.
func (r *TxRunner) Supported() bool {
	return r.mode != config.TxModeDisabled && !r.unsupported.Load()
}

// Run implementa inventory.TxRunner y reservation.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	reservationRepo repository.ReservationRepository,
	ledgerRepo repository.InventoryTransactionRepository,
) error) error {
	if !r.Supported() {
		return fmt.Errorf("mongodb: %w", domain.ErrTransactionsUnsupported)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return r.classify(fmt.Errorf("mongodb: iniciar sesión: %w", err))
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(_ mongo.SessionContext) (interface{}, error) {
		return nil, fn(r.stock.withSession(sess), r.reservations.withSession(sess), r.ledger.withSession(sess))
	})
	return r.classify(err)
}

func (r *TxRunner) classify(err error) error {
	if err == nil || !isTransactionsUnsupported(err) {
		return err
	}
	if r.unsupported.CompareAndSwap(false, true) {
		r.log.Warn().Err(err).Str("mode", r.mode).Msg("el despliegue de MongoDB no soporta transacciones; se usa la ruta degradada")
	}
	return fmt.Errorf("mongodb: %w", domain.ErrTransactionsUnsupported)
}

func isTransactionsUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeIllegalOperation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction numbers are only allowed") ||
		strings.Contains(msg, "transactions are not supported")
}
