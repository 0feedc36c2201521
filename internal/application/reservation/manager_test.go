package reservation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/lock"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

const (
	center = "C1"
	apptID = "A1"
)

type backorderCall struct {
	Appointment *entity.Appointment
	Shortages   []domain.Shortage
	LeadDays    int
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []backorderCall
	err   error
}

func (f *fakeNotifier) SendBackorderNotification(_ context.Context, appt *entity.Appointment, shortages []domain.Shortage, lead int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, backorderCall{Appointment: appt, Shortages: shortages, LeadDays: lead})
	return f.err
}

func (f *fakeNotifier) Calls() []backorderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backorderCall(nil), f.calls...)
}

type fixedPolicy struct{ s entity.SystemSettings }

func (p fixedPolicy) Current(context.Context) (entity.SystemSettings, error) { return p.s, nil }

type fixture struct {
	store    *memory.Store
	manager  *reservation.Manager
	notifier *fakeNotifier
}

func newFixture(t *testing.T, transactions bool, mutate ...func(*reservation.Deps)) *fixture {
	t.Helper()
	store := memory.New(memory.Options{Transactions: transactions})
	notifier := &fakeNotifier{}
	policy := entity.DefaultSettings()
	policy.BackorderLeadTimeDays = 10

	require.NoError(t, store.Appointments().Create(context.Background(), &entity.Appointment{
		ID:              apptID,
		ServiceCenterID: center,
		CustomerEmail:   "cliente@example.com",
		Status:          entity.AppointmentConfirmed,
	}))

	deps := reservation.Deps{
		TxRunner:     store.TxRunner(),
		Stock:        store.Stock(),
		Reservations: store.Reservations(),
		Ledger:       store.Ledger(),
		LedgerUC:     inventory.NewLedgerUseCase(store.TxRunner(), store.Stock(), store.Ledger(), logger.Nop()),
		Appointments: store.Appointments(),
		Policy:       fixedPolicy{s: policy},
		Notifier:     notifier,
		Locker:       lock.NewLocal(2 * time.Second),
		Log:          logger.Nop(),
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	return &fixture{store: store, manager: reservation.NewManager(deps), notifier: notifier}
}

func (f *fixture) seed(partID string, current, reserved int) {
	f.store.PutStock(entity.StockRecord{ServiceCenterID: center, PartID: partID, PartName: "Repuesto " + partID, CurrentStock: current, ReservedQuantity: reserved})
}

func (f *fixture) stock(t *testing.T, partID string) *entity.StockRecord {
	t.Helper()
	rec, err := f.store.Stock().Get(context.Background(), center, partID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func hold(items ...entity.ReservationItem) reservation.HoldInput {
	return reservation.HoldInput{AppointmentID: apptID, ServiceCenterID: center, Items: items}
}

func item(partID string, qty int) entity.ReservationItem {
	return entity.ReservationItem{PartID: partID, Quantity: qty}
}

var modes = []struct {
	name         string
	transactions bool
}{
	{"transaccional", true},
	{"sin_transacciones", false},
}

func TestHold_RetieneTodosLosItems(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			f := newFixture(t, mode.transactions)
			f.seed("P1", 5, 0)
			f.seed("P2", 2, 1)

			out, err := f.manager.Hold(context.Background(), hold(item("P1", 3), item("P2", 1)))
			require.NoError(t, err)

			assert.Equal(t, !mode.transactions, out.Degraded)
			assert.Equal(t, entity.ReservationHeld, out.Reservation.Status)
			assert.Equal(t, !mode.transactions, out.Reservation.Degraded)
			assert.Equal(t, 3, f.stock(t, "P1").ReservedQuantity)
			assert.Equal(t, 2, f.stock(t, "P2").ReservedQuantity)

			stored, err := f.manager.Get(context.Background(), out.Reservation.ID)
			require.NoError(t, err)
			assert.Equal(t, []entity.ReservationItem{item("P1", 3), item("P2", 1)}, stored.Items)
			assert.Empty(t, f.notifier.Calls())
		})
	}
}

func TestHold_SegundaRetencionSinDisponible(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			f := newFixture(t, mode.transactions)
			f.seed("P1", 5, 0)

			_, err := f.manager.Hold(context.Background(), hold(item("P1", 3)))
			require.NoError(t, err)

			_, err = f.manager.Hold(context.Background(), hold(item("P1", 3)))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)

			var se *domain.ShortageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, []domain.Shortage{{PartID: "P1", Required: 3, Available: 2, Reserved: 3}}, se.Shortages)
			assert.Equal(t, 3, f.stock(t, "P1").ReservedQuantity, "la retención fallida no cambia nada")
		})
	}
}

func TestHold_ReportaTodosLosFaltantesYNoRetieneNada(t *testing.T) {
	f := newFixture(t, true)
	f.seed("P1", 10, 0)
	f.seed("P2", 1, 0)

	_, err := f.manager.Hold(context.Background(), hold(item("P1", 2), item("P2", 2), item("P3", 1)))

	var se *domain.ShortageError
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Shortages, 2)
	assert.Equal(t, domain.Shortage{PartID: "P2", Required: 2, Available: 1, Reserved: 0}, se.Shortages[0])
	assert.Equal(t, domain.Shortage{PartID: "P3", Required: 1, Available: 0, Reserved: 0}, se.Shortages[1])
	assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, se.Shortages, calls[0].Shortages)
	assert.Equal(t, 10, calls[0].LeadDays)
	assert.Equal(t, "cliente@example.com", calls[0].Appointment.CustomerEmail)
}

func TestHold_FalloDelAvisoNoSePropaga(t *testing.T) {
	f := newFixture(t, true)
	f.notifier.err = errors.New("smtp caído")

	_, err := f.manager.Hold(context.Background(), hold(item("P1", 1)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, f.notifier.Calls(), 1)
}

func TestHold_AgrupaRepuestosRepetidos(t *testing.T) {
	f := newFixture(t, true)
	f.seed("P1", 5, 0)

	out, err := f.manager.Hold(context.Background(), hold(item("P1", 2), item("P1", 2)))
	require.NoError(t, err)
	assert.Equal(t, []entity.ReservationItem{item("P1", 4)}, out.Reservation.Items)
	assert.Equal(t, 4, f.stock(t, "P1").ReservedQuantity)
}

func TestHold_EntradaInvalida(t *testing.T) {
	f := newFixture(t, true)
	cases := map[string]reservation.HoldInput{
		"sin items":     hold(),
		"cantidad cero": hold(item("P1", 0)),
		"sin repuesto":  hold(item("", 1)),
		"sin centro":    {AppointmentID: apptID, Items: []entity.ReservationItem{item("P1", 1)}},
		"sin cita":      {ServiceCenterID: center, Items: []entity.ReservationItem{item("P1", 1)}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.manager.Hold(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestHold_TransaccionesObligatorias(t *testing.T) {
	f := newFixture(t, false, func(d *reservation.Deps) { d.RequireTransactions = true })
	f.seed("P1", 5, 0)

	_, err := f.manager.Hold(context.Background(), hold(item("P1", 1)))
	assert.ErrorIs(t, err, domain.ErrTransactionsUnsupported)
	assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)
}

func TestHold_ConcurrenteNuncaSobreReserva(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			f := newFixture(t, mode.transactions)
			f.seed("P1", 10, 0)
			f.seed("P2", 100, 0)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				ok      int
				failed  int
				unknown []error
			)
			for i := 0; i < 30; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.manager.Hold(context.Background(), hold(item("P2", 1), item("P1", 1)))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.Is(err, domain.ErrInsufficientStock):
						failed++
					default:
						unknown = append(unknown, err)
					}
				}()
			}
			wg.Wait()

			assert.Empty(t, unknown)
			assert.Equal(t, 10, ok)
			assert.Equal(t, 20, failed)
			assert.Equal(t, 10, f.stock(t, "P1").ReservedQuantity)
			assert.Equal(t, 10, f.stock(t, "P2").ReservedQuantity, "las retenciones fallidas se compensan")
		})
	}
}

func TestRelease_DevuelveLoRetenido(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, mode.transactions)
			f.seed("P1", 5, 0)
			f.seed("P2", 5, 0)

			held, err := f.manager.Hold(ctx, hold(item("P1", 3), item("P2", 2)))
			require.NoError(t, err)

			out, err := f.manager.Release(ctx, held.Reservation.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.ReservationReleased, out.Reservation.Status)
			assert.Equal(t, !mode.transactions, out.Degraded)
			assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)
			assert.Equal(t, 0, f.stock(t, "P2").ReservedQuantity)

			stored, _ := f.manager.Get(ctx, held.Reservation.ID)
			assert.Equal(t, entity.ReservationReleased, stored.Status)
			assert.NotNil(t, stored.ReleasedAt)

			_, err = f.manager.Release(ctx, held.Reservation.ID)
			assert.ErrorIs(t, err, domain.ErrReservationNotHeld, "una reserva liberada no se libera dos veces")
			assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)
		})
	}
}

func TestRelease_AcotaEnCero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seed("P1", 5, 0)

	held, err := f.manager.Hold(ctx, hold(item("P1", 3)))
	require.NoError(t, err)
	f.seed("P1", 5, 1) // corrección manual del retenido

	_, err = f.manager.Release(ctx, held.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)
}

func TestRelease_NoExisteOConsumida(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seed("P1", 5, 0)

	_, err := f.manager.Release(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	held, err := f.manager.Hold(ctx, hold(item("P1", 2)))
	require.NoError(t, err)
	_, err = f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
	require.NoError(t, err)

	_, err = f.manager.Release(ctx, held.Reservation.ID)
	assert.ErrorIs(t, err, domain.ErrReservationNotHeld)
	rec := f.stock(t, "P1")
	assert.Equal(t, 3, rec.CurrentStock)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestConsume_RegistraSalidasYDescuentaRetenido(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, mode.transactions)
			f.seed("P1", 5, 0)
			f.seed("P2", 4, 1)

			held, err := f.manager.Hold(ctx, hold(item("P1", 3), item("P2", 2)))
			require.NoError(t, err)

			out, err := f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
			require.NoError(t, err)
			assert.Equal(t, entity.ReservationConsumed, out.Reservation.Status)

			p1, p2 := f.stock(t, "P1"), f.stock(t, "P2")
			assert.Equal(t, 2, p1.CurrentStock)
			assert.Equal(t, 0, p1.ReservedQuantity)
			assert.Equal(t, 2, p2.CurrentStock)
			assert.Equal(t, 1, p2.ReservedQuantity, "lo retenido por otras reservas se conserva")

			txs, err := f.store.Ledger().ListByPart(ctx, center, "P1", 10)
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, entity.TransactionTypeOut, txs[0].Type)
			assert.Equal(t, 3, txs[0].Quantity)
			assert.Equal(t, entity.ReferenceTypeService, txs[0].ReferenceType)
			assert.Equal(t, apptID, txs[0].ReferenceID)
			assert.Equal(t, "tech-1", txs[0].PerformedBy)
			assert.Equal(t, 2, txs[0].StockAfter)

			_, err = f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
			assert.ErrorIs(t, err, domain.ErrReservationNotHeld)
		})
	}
}

func TestConsume_TransaccionalAbortaTodoAnteUnaFalla(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seed("P1", 5, 0)
	f.seed("P2", 5, 0)

	held, err := f.manager.Hold(ctx, hold(item("P1", 2), item("P2", 3)))
	require.NoError(t, err)
	f.seed("P2", 1, 3) // merma detectada después de retener

	_, err = f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
	var ce *domain.ConsumeError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.Partial)
	require.Len(t, ce.Failures, 1)
	assert.Equal(t, "P2", ce.Failures[0].PartID)

	p1 := f.stock(t, "P1")
	assert.Equal(t, 5, p1.CurrentStock, "el ítem exitoso se revierte con la transacción")
	assert.Equal(t, 2, p1.ReservedQuantity)
	txs, _ := f.store.Ledger().ListByPart(ctx, center, "P1", 10)
	assert.Empty(t, txs)

	stored, _ := f.manager.Get(ctx, held.Reservation.ID)
	assert.Equal(t, entity.ReservationHeld, stored.Status)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "P2", calls[0].Shortages[0].PartID)
}

func TestConsume_SinTransaccionesParcialNoSeRevierte(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.seed("P1", 5, 0)
	f.seed("P2", 5, 0)

	held, err := f.manager.Hold(ctx, hold(item("P1", 2), item("P2", 3)))
	require.NoError(t, err)
	f.seed("P2", 1, 3)

	_, err = f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
	var ce *domain.ConsumeError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Partial)
	require.Len(t, ce.Failures, 1)
	assert.Equal(t, "P2", ce.Failures[0].PartID)

	p1 := f.stock(t, "P1")
	assert.Equal(t, 3, p1.CurrentStock, "el ítem exitoso queda aplicado")
	assert.Equal(t, 0, p1.ReservedQuantity)

	stored, _ := f.manager.Get(ctx, held.Reservation.ID)
	assert.Equal(t, entity.ReservationHeld, stored.Status)
	assert.Len(t, f.notifier.Calls(), 1)

	// Repuesto recibido: el reintento no vuelve a descontar P1.
	f.seed("P2", 6, 3)
	out, err := f.manager.Consume(ctx, held.Reservation.ID, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationConsumed, out.Reservation.Status)
	assert.Equal(t, 3, f.stock(t, "P1").CurrentStock)
	assert.Equal(t, 3, f.stock(t, "P2").CurrentStock)
	assert.Equal(t, 0, f.stock(t, "P2").ReservedQuantity)
}

func TestRelease_TrasConsumoParcialNoDevuelveLoConsumido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.seed("P1", 5, 0)
	f.seed("P2", 5, 0)

	a, err := f.manager.Hold(ctx, hold(item("P1", 3), item("P2", 3)))
	require.NoError(t, err)
	b, err := f.manager.Hold(ctx, hold(item("P1", 2)))
	require.NoError(t, err)
	f.seed("P2", 1, 3)

	_, err = f.manager.Consume(ctx, a.Reservation.ID, "tech-1")
	var ce *domain.ConsumeError
	require.ErrorAs(t, err, &ce)
	require.True(t, ce.Partial)
	assert.Equal(t, 2, f.stock(t, "P1").CurrentStock)
	assert.Equal(t, 2, f.stock(t, "P1").ReservedQuantity)

	_, err = f.manager.Release(ctx, a.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, "P1").ReservedQuantity, "lo retenido por B no se toca")
	assert.Equal(t, 0, f.stock(t, "P2").ReservedQuantity)

	_, err = f.manager.Release(ctx, b.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, "P1").ReservedQuantity)
}

func TestRelease_TransaccionalOmiteItemsYaConsumidos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seed("P1", 5, 0)
	f.seed("P2", 5, 0)

	a, err := f.manager.Hold(ctx, hold(item("P1", 3), item("P2", 1)))
	require.NoError(t, err)
	_, err = f.manager.Hold(ctx, hold(item("P1", 2)))
	require.NoError(t, err)

	// Salida de P1 registrada por un consumo parcial anterior sin transacciones.
	f.seed("P1", 2, 2)
	require.NoError(t, f.store.Ledger().Create(ctx, &entity.InventoryTransaction{
		ID:              "tx-previa",
		ServiceCenterID: center,
		PartID:          "P1",
		Type:            entity.TransactionTypeOut,
		Quantity:        3,
		ReferenceType:   entity.ReferenceTypeService,
		ReferenceID:     apptID,
		Notes:           "reserva " + a.Reservation.ID,
		CreatedAt:       time.Now(),
	}))

	_, err = f.manager.Release(ctx, a.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, "P1").ReservedQuantity)
	assert.Equal(t, 0, f.stock(t, "P2").ReservedQuantity)
}

func TestReleaseExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seed("P1", 10, 0)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	in := hold(item("P1", 2))
	in.ExpiresAt = &past
	expired, err := f.manager.Hold(ctx, in)
	require.NoError(t, err)

	in.ExpiresAt = &future
	live, err := f.manager.Hold(ctx, in)
	require.NoError(t, err)

	n, err := f.manager.ReleaseExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, f.stock(t, "P1").ReservedQuantity)

	got, _ := f.manager.Get(ctx, expired.Reservation.ID)
	assert.Equal(t, entity.ReservationReleased, got.Status)
	got, _ = f.manager.Get(ctx, live.Reservation.ID)
	assert.Equal(t, entity.ReservationHeld, got.Status)

	n, err = f.manager.ReleaseExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
