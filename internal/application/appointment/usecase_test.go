package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/application/settings"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/lock"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

type fakeNotifier struct {
	mu            sync.Mutex
	cancellations []string
	reminders     []string
}

func (f *fakeNotifier) SendCancellationNotice(_ context.Context, a *entity.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancellations = append(f.cancellations, a.ID)
	return nil
}

func (f *fakeNotifier) SendReminder(_ context.Context, a *entity.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, a.ID)
	return nil
}

type fixture struct {
	store    *memory.Store
	settings *settings.UseCase
	uc       *UseCase
	notifier *fakeNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(memory.Options{Transactions: true})
	policy := settings.NewUseCase(store.Settings())
	manager := reservation.NewManager(reservation.Deps{
		TxRunner:     store.TxRunner(),
		Stock:        store.Stock(),
		Reservations: store.Reservations(),
		Ledger:       store.Ledger(),
		LedgerUC:     inventory.NewLedgerUseCase(store.TxRunner(), store.Stock(), store.Ledger(), logger.Nop()),
		Appointments: store.Appointments(),
		Policy:       policy,
		Locker:       lock.NewLocal(time.Second),
		Log:          logger.Nop(),
	})
	f := &fixture{
		store:    store,
		settings: policy,
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	f.uc = NewUseCase(store.Appointments(), manager, policy, f.notifier, nil, logger.Nop())
	f.uc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) seed(partID string, current int) {
	f.store.PutStock(entity.StockRecord{ServiceCenterID: "C1", PartID: partID, CurrentStock: current, UnitPrice: decimal.NewFromInt(50)})
}

func (f *fixture) reserved(t *testing.T, partID string) int {
	rec, err := f.store.Stock().Get(context.Background(), "C1", partID)
	require.NoError(t, err)
	return rec.ReservedQuantity
}

func (f *fixture) input(parts ...entity.ReservationItem) CreateInput {
	return CreateInput{
		CustomerID:      "U1",
		CustomerEmail:   "Cliente@Example.com",
		ServiceCenterID: "C1",
		VehicleVIN:      "5yj3e1ea7kf000001",
		VehicleModel:    "Model 3",
		ServiceType:     "cambio de filtro",
		ScheduledAt:     f.now.Add(48 * time.Hour),
		ServiceFee:      decimal.NewFromInt(120),
		Parts:           parts,
	}
}

func (f *fixture) setUpfront(t *testing.T) {
	upfront := true
	_, err := f.settings.Update(context.Background(), settings.UpdateInput{UpfrontPaymentRequired: &upfront}, "admin")
	require.NoError(t, err)
}

func TestCreate_RetieneRepuestos(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)

	a, err := f.uc.Create(context.Background(), f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, entity.AppointmentConfirmed, a.Status)
	assert.Equal(t, entity.PaymentNotRequired, a.PaymentStatus)
	assert.Equal(t, entity.PartsHeld, a.PartsStatus)
	assert.NotEmpty(t, a.ReservationID)
	assert.Equal(t, "cliente@example.com", a.CustomerEmail)
	assert.Equal(t, "5YJ3E1EA7KF000001", a.VehicleVIN)
	assert.Equal(t, 2, f.reserved(t, "P1"))

	res, err := f.store.Reservations().GetByID(context.Background(), a.ReservationID)
	require.NoError(t, err)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, a.ScheduledAt.Add(72*time.Hour), *res.ExpiresAt)

	stored, err := f.uc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PartsHeld, stored.PartsStatus)
}

func TestCreate_FaltanteQuedaEnBackorder(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 1)

	a, err := f.uc.Create(context.Background(), f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, entity.PartsBackordered, a.PartsStatus)
	assert.Empty(t, a.ReservationID)
	assert.Equal(t, 0, f.reserved(t, "P1"))

	_, err = f.uc.RetryParts(context.Background(), a.ID)
	assert.NoError(t, err)
	stored, _ := f.uc.Get(context.Background(), a.ID)
	assert.Equal(t, entity.PartsBackordered, stored.PartsStatus, "sigue sin stock")

	f.seed("P1", 4)
	a, err = f.uc.RetryParts(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PartsHeld, a.PartsStatus)
	assert.Equal(t, 2, f.reserved(t, "P1"))

	_, err = f.uc.RetryParts(context.Background(), a.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_Validacion(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.ScheduledAt = f.now.Add(-time.Hour)
	_, err := f.uc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = f.input(entity.ReservationItem{PartID: "P1", Quantity: 0})
	_, err = f.uc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancel_LiberaLaReserva(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)
	ctx := context.Background()

	a, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 3}))
	require.NoError(t, err)

	a, err = f.uc.Cancel(ctx, a.ID, "cliente no puede asistir")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentCancelled, a.Status)
	assert.Equal(t, entity.PartsReleased, a.PartsStatus)
	assert.NotNil(t, a.CancelledAt)
	assert.Equal(t, 0, f.reserved(t, "P1"))
	assert.Equal(t, []string{a.ID}, f.notifier.cancellations)

	_, err = f.uc.Cancel(ctx, a.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancel_ReservaYaConsumidaSeInformaComoConsumida(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)
	ctx := context.Background()

	a, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	_, err = f.uc.Start(ctx, a.ID)
	require.NoError(t, err)

	// Un Complete concurrente consumió la reserva pero no llegó a guardar la cita.
	_, err = f.uc.parts.Consume(ctx, a.ReservationID, "tech-1")
	require.NoError(t, err)

	a, err = f.uc.Cancel(ctx, a.ID, "cliente se retiró")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentCancelled, a.Status)
	assert.Equal(t, entity.PartsConsumed, a.PartsStatus)

	stored, _ := f.uc.Get(ctx, a.ID)
	assert.Equal(t, entity.PartsConsumed, stored.PartsStatus)
	rec, _ := f.store.Stock().Get(ctx, "C1", "P1")
	assert.Equal(t, 3, rec.CurrentStock)
}

// conflictOnUpdate simula una cita modificada por otro proceso entre la lectura y la escritura.
type conflictOnUpdate struct {
	repository.AppointmentRepository
}

func (conflictOnUpdate) Update(context.Context, *entity.Appointment, string) error {
	return domain.ErrConflict
}

func TestRetryParts_SiNoSeGuardaLaCitaLiberaLaReserva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("P1", 0)

	a, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	require.Equal(t, entity.PartsBackordered, a.PartsStatus)

	f.seed("P1", 5)
	uc := NewUseCase(conflictOnUpdate{f.store.Appointments()}, f.uc.parts, f.settings, f.notifier, nil, logger.Nop())
	uc.now = f.uc.now

	_, err = uc.RetryParts(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, f.reserved(t, "P1"), "la reserva huérfana no retiene stock")
}

func TestCreate_SiNoSeGuardaElEstadoDeRepuestosLiberaLaReserva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("P1", 5)

	uc := NewUseCase(conflictOnUpdate{f.store.Appointments()}, f.uc.parts, f.settings, f.notifier, nil, logger.Nop())
	uc.now = f.uc.now

	_, err := uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 3}))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, f.reserved(t, "P1"))
}

func TestFlujoCompleto_ConsumeRepuestos(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)
	ctx := context.Background()
	f.setUpfront(t)

	a, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentPendingPayment, a.Status)

	_, err = f.uc.Start(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "sin pago no inicia")

	a, err = f.uc.ConfirmPayment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, a.PaymentStatus)

	_, err = f.uc.Complete(ctx, a.ID, "tech-1")
	assert.ErrorIs(t, err, domain.ErrConflict, "solo se completa en curso")

	_, err = f.uc.Start(ctx, a.ID)
	require.NoError(t, err)
	a, err = f.uc.Complete(ctx, a.ID, "tech-1")
	require.NoError(t, err)

	assert.Equal(t, entity.AppointmentCompleted, a.Status)
	assert.Equal(t, entity.PartsConsumed, a.PartsStatus)
	rec, _ := f.store.Stock().Get(ctx, "C1", "P1")
	assert.Equal(t, 3, rec.CurrentStock)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestComplete_FallaDeConsumoMantieneLaCitaEnCurso(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)
	ctx := context.Background()

	a, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	_, err = f.uc.Start(ctx, a.ID)
	require.NoError(t, err)
	f.store.PutStock(entity.StockRecord{ServiceCenterID: "C1", PartID: "P1", CurrentStock: 1, ReservedQuantity: 2})

	_, err = f.uc.Complete(ctx, a.ID, "tech-1")
	var ce *domain.ConsumeError
	require.ErrorAs(t, err, &ce)

	stored, _ := f.uc.Get(ctx, a.ID)
	assert.Equal(t, entity.AppointmentInProgress, stored.Status)
	assert.Equal(t, entity.PartsHeld, stored.PartsStatus)
}

func TestComplete_SinRepuestos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.uc.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, entity.PartsNone, a.PartsStatus)

	_, err = f.uc.Start(ctx, a.ID)
	require.NoError(t, err)
	a, err = f.uc.Complete(ctx, a.ID, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentCompleted, a.Status)
}

func TestAutoCanceller_CancelaImpagasVencidas(t *testing.T) {
	f := newFixture(t)
	f.seed("P1", 5)
	ctx := context.Background()
	f.setUpfront(t)

	unpaid, err := f.uc.Create(ctx, f.input(entity.ReservationItem{PartID: "P1", Quantity: 2}))
	require.NoError(t, err)
	paid, err := f.uc.Create(ctx, f.input())
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayment(ctx, paid.ID)
	require.NoError(t, err)

	sweeper := NewAutoCanceller(f.uc)

	n, err := sweeper.Sweep(ctx, f.now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n, "aún dentro de la ventana de pago")

	n, err = sweeper.Sweep(ctx, f.now.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := f.uc.Get(ctx, unpaid.ID)
	assert.Equal(t, entity.AppointmentCancelled, got.Status)
	assert.Equal(t, entity.PartsReleased, got.PartsStatus)
	assert.Equal(t, 0, f.reserved(t, "P1"))
	got, _ = f.uc.Get(ctx, paid.ID)
	assert.Equal(t, entity.AppointmentConfirmed, got.Status)
}

func TestAutoCanceller_DeshabilitadoPorPolitica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUpfront(t)
	off := false
	_, err := f.settings.Update(ctx, settings.UpdateInput{AutoCancelEnabled: &off}, "admin")
	require.NoError(t, err)

	_, err = f.uc.Create(ctx, f.input())
	require.NoError(t, err)

	n, err := NewAutoCanceller(f.uc).Sweep(ctx, f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminder_EnviaUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := f.input()
	soon.ScheduledAt = f.now.Add(10 * time.Hour)
	a, err := f.uc.Create(ctx, soon)
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, f.input()) // a 48h, fuera de la ventana de 24h
	require.NoError(t, err)

	r := NewReminder(f.uc)
	n, err := r.Sweep(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{a.ID}, f.notifier.reminders)

	n, err = r.Sweep(ctx, f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, _ := f.uc.Get(ctx, a.ID)
	assert.NotNil(t, got.ReminderSentAt)
}
