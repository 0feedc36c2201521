package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

func TestTxRunner_RollbackEnError(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Transactions: true})
	s.PutStock(entity.StockRecord{ServiceCenterID: "C1", PartID: "P1", CurrentStock: 5})

	boom := errors.New("boom")
	err := s.TxRunner().Run(ctx, func(stock repository.StockRepository, res repository.ReservationRepository, _ repository.InventoryTransactionRepository) error {
		ok, err := stock.TryReserve(ctx, "C1", "P1", 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, res.Create(ctx, &entity.Reservation{ID: "R1", Status: entity.ReservationHeld}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := s.Stock().Get(ctx, "C1", "P1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReservedQuantity, "el incremento debe descartarse")
	got, err := s.Reservations().GetByID(ctx, "R1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTxRunner_CommitPublicaCambios(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Transactions: true})
	s.PutStock(entity.StockRecord{ServiceCenterID: "C1", PartID: "P1", CurrentStock: 5})

	err := s.TxRunner().Run(ctx, func(stock repository.StockRepository, _ repository.ReservationRepository, _ repository.InventoryTransactionRepository) error {
		_, err := stock.TryReserve(ctx, "C1", "P1", 2)
		return err
	})
	require.NoError(t, err)

	rec, _ := s.Stock().Get(ctx, "C1", "P1")
	assert.Equal(t, 2, rec.ReservedQuantity)
}

func TestTxRunner_SinSoporte(t *testing.T) {
	s := New(Options{})
	called := false
	err := s.TxRunner().Run(context.Background(), func(repository.StockRepository, repository.ReservationRepository, repository.InventoryTransactionRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrTransactionsUnsupported)
	assert.False(t, called)
}

func TestStockRepo_OperacionesCondicionales(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	repo := s.Stock()
	s.PutStock(entity.StockRecord{ServiceCenterID: "C1", PartID: "P1", CurrentStock: 5, ReservedQuantity: 3})

	ok, err := repo.TryReserve(ctx, "C1", "P1", 3)
	require.NoError(t, err)
	assert.False(t, ok, "solo hay 2 disponibles")

	ok, err = repo.TryReserve(ctx, "C1", "NOPE", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Withdraw(ctx, "C1", "P1", 3, true)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rec, err := repo.Withdraw(ctx, "C1", "P1", 3, false)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CurrentStock)

	require.NoError(t, repo.ReleaseReserved(ctx, "C1", "P1", 10))
	rec, _ = repo.Get(ctx, "C1", "P1")
	assert.Equal(t, 0, rec.ReservedQuantity, "el decremento se acota en cero")

	assert.ErrorIs(t, repo.ReleaseReserved(ctx, "C1", "NOPE", 1), domain.ErrNotFound)
}

func TestStockRepo_SaveConVersion(t *testing.T) {
	ctx := context.Background()
	repo := New(Options{}).Stock()

	rec := &entity.StockRecord{ID: "S1", ServiceCenterID: "C1", PartID: "P1", CurrentStock: 1}
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	dup := &entity.StockRecord{ID: "S2", ServiceCenterID: "C1", PartID: "P1"}
	assert.ErrorIs(t, repo.Save(ctx, dup), domain.ErrConflict)

	stale, _ := repo.Get(ctx, "C1", "P1")
	rec.CurrentStock = 4
	require.NoError(t, repo.Save(ctx, rec))

	stale.CurrentStock = 9
	assert.ErrorIs(t, repo.Save(ctx, stale), domain.ErrConflict)
}

func TestReservationRepo_TransitionYVencidas(t *testing.T) {
	ctx := context.Background()
	repo := New(Options{}).Reservations()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, repo.Create(ctx, &entity.Reservation{ID: "R1", Status: entity.ReservationHeld, ExpiresAt: &past}))
	require.NoError(t, repo.Create(ctx, &entity.Reservation{ID: "R2", Status: entity.ReservationHeld, ExpiresAt: &future}))
	require.NoError(t, repo.Create(ctx, &entity.Reservation{ID: "R3", Status: entity.ReservationHeld}))

	expired, err := repo.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "R1", expired[0].ID)

	ok, err := repo.TransitionStatus(ctx, "R1", entity.ReservationHeld, entity.ReservationReleased, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, "R1", entity.ReservationHeld, entity.ReservationConsumed, now)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda transición debe perder")

	got, _ := repo.GetByID(ctx, "R1")
	assert.Equal(t, entity.ReservationReleased, got.Status)
	assert.NotNil(t, got.ReleasedAt)
}
