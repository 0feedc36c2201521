package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

const (
	opHold    = "hold"
	opRelease = "release"
	opConsume = "consume"

	notifyTimeout = 15 * time.Second
)

// Deps dependencias del gestor de reservas.
type Deps struct {
	TxRunner     TxRunner
	Stock        repository.StockRepository
	Reservations repository.ReservationRepository
	Ledger       repository.InventoryTransactionRepository
	LedgerUC     *inventory.LedgerUseCase
	Appointments AppointmentReader
	Policy       PolicyProvider
	Notifier     ports.BackorderNotifier
	Locker       ports.Locker
	Events       ports.EventPublisher
	Metrics      ports.ReservationRecorder
	Log          *logger.Logger
	// RequireTransactions desactiva la ruta degradada: sin transacciones las operaciones fallan.
	RequireTransactions bool
	ExpiryBatch         int
}

// Manager retiene, libera y consume stock de repuestos por cita.
// Prefiere transacciones multi-documento; si el despliegue no las soporta usa incrementos
// condicionales bajo locks por clave y marca el resultado como degradado.
type Manager struct {
	txRunner     TxRunner
	stock        repository.StockRepository
	reservations repository.ReservationRepository
	ledger       repository.InventoryTransactionRepository
	ledgerUC     *inventory.LedgerUseCase
	appointments AppointmentReader
	policy       PolicyProvider
	notifier     ports.BackorderNotifier
	locker       ports.Locker
	events       ports.EventPublisher
	metrics      ports.ReservationRecorder
	log          *logger.Logger
	requireTx    bool
	expiryBatch  int
	now          func() time.Time
}

// NewManager construye el gestor.
func NewManager(d Deps) *Manager {
	m := &Manager{
		txRunner:     d.TxRunner,
		stock:        d.Stock,
		reservations: d.Reservations,
		ledger:       d.Ledger,
		ledgerUC:     d.LedgerUC,
		appointments: d.Appointments,
		policy:       d.Policy,
		notifier:     d.Notifier,
		locker:       d.Locker,
		events:       d.Events,
		metrics:      d.Metrics,
		log:          d.Log,
		requireTx:    d.RequireTransactions,
		expiryBatch:  d.ExpiryBatch,
		now:          time.Now,
	}
	if m.events == nil {
		m.events = ports.NopPublisher{}
	}
	if m.metrics == nil {
		m.metrics = ports.NopRecorder{}
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	m.log = m.log.Component("reservations")
	if m.expiryBatch <= 0 {
		m.expiryBatch = 200
	}
	return m
}

// HoldInput solicitud de retención de repuestos para una cita.
type HoldInput struct {
	AppointmentID   string
	ServiceCenterID string
	Items           []entity.ReservationItem
	ExpiresAt       *time.Time
	Notes           string
}

// Result resultado de una operación. Degraded indica que se usó la ruta sin transacciones.
type Result struct {
	Reservation *entity.Reservation
	Degraded    bool
}

// raceLostError un incremento condicional perdió contra otra retención después del chequeo previo.
type raceLostError struct {
	PartID   string
	Quantity int
}

func (e *raceLostError) Error() string {
	return fmt.Sprintf("disponibilidad de %s cambió durante la retención", e.PartID)
}

// Hold verifica la disponibilidad de todos los ítems y, si alcanza, retiene todo o nada.
// Con faltantes no retiene nada, intenta avisar el backorder y devuelve *domain.ShortageError.
func (m *Manager) Hold(ctx context.Context, in HoldInput) (out *Result, err error) {
	start := m.now()
	defer func() { m.observe(opHold, start, out, err) }()

	items, err := normalizeItems(in)
	if err != nil {
		return nil, err
	}

	shortages, err := m.shortages(ctx, in.ServiceCenterID, items)
	if err != nil {
		return nil, err
	}
	if len(shortages) > 0 {
		return nil, m.rejectHold(ctx, in, shortages)
	}

	now := m.now()
	res := &entity.Reservation{
		ID:              uuid.New().String(),
		AppointmentID:   in.AppointmentID,
		ServiceCenterID: in.ServiceCenterID,
		Items:           items,
		Status:          entity.ReservationHeld,
		ExpiresAt:       in.ExpiresAt,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = m.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		reservationRepo repository.ReservationRepository,
		_ repository.InventoryTransactionRepository,
	) error {
		res.Degraded = false
		for _, it := range items {
			ok, err := stockRepo.TryReserve(ctx, in.ServiceCenterID, it.PartID, it.Quantity)
			if err != nil {
				return fmt.Errorf("retener %s: %w", it.PartID, err)
			}
			if !ok {
				return &raceLostError{PartID: it.PartID, Quantity: it.Quantity}
			}
		}
		return reservationRepo.Create(ctx, res)
	})

	degraded := false
	if errors.Is(err, domain.ErrTransactionsUnsupported) {
		if m.requireTx {
			return nil, err
		}
		degraded = true
		err = m.holdWithoutTx(ctx, res)
	}

	var lost *raceLostError
	if errors.As(err, &lost) {
		shortages, serr := m.shortages(ctx, in.ServiceCenterID, items)
		if serr != nil {
			return nil, serr
		}
		if len(shortages) == 0 {
			// La disponibilidad volvió a alcanzar después de perder la carrera.
			shortages = []domain.Shortage{{PartID: lost.PartID, Required: lost.Quantity}}
		}
		return nil, m.rejectHold(ctx, in, shortages)
	}
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("reservation_id", res.ID).
		Str("appointment_id", res.AppointmentID).
		Int("items", len(items)).
		Bool("degraded", degraded).
		Msg("repuestos retenidos")
	m.publish(ctx, ports.EventReservationHeld, res)
	return &Result{Reservation: res, Degraded: degraded}, nil
}

// holdWithoutTx retiene bajo locks por (centro, repuesto). Si un ítem falla compensa los ya retenidos.
func (m *Manager) holdWithoutTx(ctx context.Context, res *entity.Reservation) error {
	keys := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		keys = append(keys, stockLockKey(res.ServiceCenterID, it.PartID))
	}
	release, err := m.locker.Acquire(ctx, keys...)
	if err != nil {
		return fmt.Errorf("adquirir locks de stock: %w", err)
	}
	defer release()

	done := make([]entity.ReservationItem, 0, len(res.Items))
	for _, it := range res.Items {
		ok, err := m.stock.TryReserve(ctx, res.ServiceCenterID, it.PartID, it.Quantity)
		if err == nil && !ok {
			err = &raceLostError{PartID: it.PartID, Quantity: it.Quantity}
		}
		if err != nil {
			m.compensate(ctx, res.ServiceCenterID, done)
			return err
		}
		done = append(done, it)
	}

	res.Degraded = true
	if err := m.reservations.Create(ctx, res); err != nil {
		m.compensate(ctx, res.ServiceCenterID, done)
		return fmt.Errorf("guardar reserva: %w", err)
	}
	return nil
}

// compensate deshace incrementos de reservedQuantity de una retención fallida.
func (m *Manager) compensate(ctx context.Context, centerID string, items []entity.ReservationItem) {
	for _, it := range items {
		if err := m.stock.ReleaseReserved(ctx, centerID, it.PartID, it.Quantity); err != nil {
			m.log.Error().Err(err).
				Str("service_center_id", centerID).
				Str("part_id", it.PartID).
				Int("quantity", it.Quantity).
				Msg("no se pudo compensar la retención; revisar reservedQuantity")
		}
	}
}

func (m *Manager) rejectHold(ctx context.Context, in HoldInput, shortages []domain.Shortage) error {
	m.log.Info().
		Str("appointment_id", in.AppointmentID).
		Int("faltantes", len(shortages)).
		Msg("retención rechazada por stock insuficiente")
	m.notifyBackorder(ctx, in.AppointmentID, in.ServiceCenterID, shortages)
	return &domain.ShortageError{Shortages: shortages}
}

// shortages lee la disponibilidad actual de cada ítem; un registro inexistente cuenta como 0.
func (m *Manager) shortages(ctx context.Context, centerID string, items []entity.ReservationItem) ([]domain.Shortage, error) {
	var out []domain.Shortage
	for _, it := range items {
		rec, err := m.stock.Get(ctx, centerID, it.PartID)
		if err != nil {
			return nil, fmt.Errorf("consultar stock de %s: %w", it.PartID, err)
		}
		if avail := rec.Available(); avail < it.Quantity {
			reserved := 0
			if rec != nil {
				reserved = rec.ReservedQuantity
			}
			out = append(out, domain.Shortage{
				PartID:    it.PartID,
				Required:  it.Quantity,
				Available: avail,
				Reserved:  reserved,
			})
		}
	}
	return out, nil
}

// Release devuelve al disponible todo lo retenido por la reserva.
// Solo se admite desde held; otro estado devuelve domain.ErrReservationNotHeld.
func (m *Manager) Release(ctx context.Context, id string) (out *Result, err error) {
	start := m.now()
	defer func() { m.observe(opRelease, start, out, err) }()

	res, err := m.heldReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	err = m.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		reservationRepo repository.ReservationRepository,
		ledgerRepo repository.InventoryTransactionRepository,
	) error {
		ok, err := reservationRepo.TransitionStatus(ctx, id, entity.ReservationHeld, entity.ReservationReleased, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReservationNotHeld
		}
		consumed, err := consumedParts(ctx, ledgerRepo, res)
		if err != nil {
			return err
		}
		for _, it := range res.Items {
			if consumed[it.PartID] {
				continue
			}
			if err := stockRepo.ReleaseReserved(ctx, res.ServiceCenterID, it.PartID, it.Quantity); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("liberar %s: %w", it.PartID, err)
			}
		}
		return nil
	})

	degraded := false
	if errors.Is(err, domain.ErrTransactionsUnsupported) {
		if m.requireTx {
			return nil, err
		}
		degraded = true
		err = m.releaseWithoutTx(ctx, res, now)
	}
	if err != nil {
		return nil, err
	}

	res.Status = entity.ReservationReleased
	res.ReleasedAt = &now
	res.UpdatedAt = now
	m.log.Info().Str("reservation_id", id).Bool("degraded", degraded).Msg("reserva liberada")
	m.publish(ctx, ports.EventReservationReleased, res)
	return &Result{Reservation: res, Degraded: degraded}, nil
}

// releaseWithoutTx reclama la reserva con un compare-and-set y luego devuelve cada ítem no consumido.
// Un fallo en un ítem no revierte el estado released: se registra y se devuelve.
func (m *Manager) releaseWithoutTx(ctx context.Context, res *entity.Reservation, now time.Time) error {
	release, err := m.locker.Acquire(ctx, reservationLockKey(res.ID))
	if err != nil {
		return fmt.Errorf("adquirir lock de reserva: %w", err)
	}
	defer release()

	// Los ítems ya descontados por un consumo parcial no tienen retenido que devolver.
	consumed, err := consumedParts(ctx, m.ledger, res)
	if err != nil {
		return err
	}
	ok, err := m.reservations.TransitionStatus(ctx, res.ID, entity.ReservationHeld, entity.ReservationReleased, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReservationNotHeld
	}

	var errs []error
	for _, it := range res.Items {
		if consumed[it.PartID] {
			continue
		}
		if err := m.stock.ReleaseReserved(ctx, res.ServiceCenterID, it.PartID, it.Quantity); err != nil && !errors.Is(err, domain.ErrNotFound) {
			m.log.Error().Err(err).
				Str("reservation_id", res.ID).
				Str("part_id", it.PartID).
				Int("quantity", it.Quantity).
				Msg("reserva liberada pero no se pudo devolver el ítem")
			errs = append(errs, fmt.Errorf("liberar %s: %w", it.PartID, err))
		}
	}
	return errors.Join(errs...)
}

// Consume convierte lo retenido en salidas del libro de inventario (referencia: servicio de la cita).
// Con transacción cualquier ítem fallido aborta todo y la reserva sigue held.
// Sin transacción cada ítem se procesa por separado: los exitosos no se revierten y la reserva
// solo pasa a consumed si no hubo fallas.
func (m *Manager) Consume(ctx context.Context, id, performedBy string) (out *Result, err error) {
	start := m.now()
	defer func() { m.observe(opConsume, start, out, err) }()

	res, err := m.heldReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	err = m.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		reservationRepo repository.ReservationRepository,
		ledgerRepo repository.InventoryTransactionRepository,
	) error {
		ok, err := reservationRepo.TransitionStatus(ctx, id, entity.ReservationHeld, entity.ReservationConsumed, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReservationNotHeld
		}
		consumed, err := consumedParts(ctx, ledgerRepo, res)
		if err != nil {
			return err
		}
		var failures []domain.ConsumeFailure
		for _, it := range res.Items {
			if consumed[it.PartID] {
				continue
			}
			failure, err := m.consumeItem(ctx, stockRepo, ledgerRepo, res, it, performedBy)
			if err != nil {
				return err
			}
			if failure != nil {
				failures = append(failures, *failure)
			}
		}
		if len(failures) > 0 {
			return &domain.ConsumeError{Failures: failures}
		}
		return nil
	})

	degraded := false
	if errors.Is(err, domain.ErrTransactionsUnsupported) {
		if m.requireTx {
			return nil, err
		}
		degraded = true
		err = m.consumeWithoutTx(ctx, res, performedBy, now)
	}

	var ce *domain.ConsumeError
	if errors.As(err, &ce) {
		m.log.Warn().
			Str("reservation_id", id).
			Bool("partial", ce.Partial).
			Int("fallas", len(ce.Failures)).
			Msg("consumo de reserva con fallas")
		m.publish(ctx, ports.EventReservationConsumeFailed, res)
		m.notifyBackorder(ctx, res.AppointmentID, res.ServiceCenterID, ce.Shortages())
		return nil, ce
	}
	if err != nil {
		return nil, err
	}

	res.Status = entity.ReservationConsumed
	res.ConsumedAt = &now
	res.UpdatedAt = now
	m.log.Info().Str("reservation_id", id).Bool("degraded", degraded).Msg("reserva consumida")
	m.publish(ctx, ports.EventReservationConsumed, res)
	return &Result{Reservation: res, Degraded: degraded}, nil
}

func (m *Manager) consumeWithoutTx(ctx context.Context, res *entity.Reservation, performedBy string, now time.Time) error {
	release, err := m.locker.Acquire(ctx, reservationLockKey(res.ID))
	if err != nil {
		return fmt.Errorf("adquirir lock de reserva: %w", err)
	}
	defer release()

	// Relectura bajo lock: otro proceso pudo liberarla o consumirla.
	current, err := m.reservations.GetByID(ctx, res.ID)
	if err != nil {
		return err
	}
	if !current.IsHeld() {
		return domain.ErrReservationNotHeld
	}

	consumed, err := consumedParts(ctx, m.ledger, res)
	if err != nil {
		return err
	}
	var failures []domain.ConsumeFailure
	succeeded := 0
	for _, it := range res.Items {
		if consumed[it.PartID] {
			succeeded++
			continue
		}
		failure, err := m.consumeItem(ctx, m.stock, m.ledger, res, it, performedBy)
		if err != nil {
			failure = &domain.ConsumeFailure{PartID: it.PartID, Quantity: it.Quantity, Reason: err.Error()}
		}
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		succeeded++
	}
	if len(failures) > 0 {
		return &domain.ConsumeError{Failures: failures, Partial: succeeded > 0}
	}

	ok, err := m.reservations.TransitionStatus(ctx, res.ID, entity.ReservationHeld, entity.ReservationConsumed, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReservationNotHeld
	}
	return nil
}

// consumeItem registra la salida de un ítem y descuenta lo retenido.
// Devuelve una falla de negocio (stock) o un error de infraestructura.
func (m *Manager) consumeItem(
	ctx context.Context,
	stockRepo repository.StockRepository,
	ledgerRepo repository.InventoryTransactionRepository,
	res *entity.Reservation,
	it entity.ReservationItem,
	performedBy string,
) (*domain.ConsumeFailure, error) {
	rec, err := stockRepo.Get(ctx, res.ServiceCenterID, it.PartID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &domain.ConsumeFailure{PartID: it.PartID, Quantity: it.Quantity, Reason: "repuesto sin registro de stock"}, nil
	}
	if rec.CurrentStock < it.Quantity {
		return &domain.ConsumeFailure{
			PartID:   it.PartID,
			Quantity: it.Quantity,
			Reason:   fmt.Sprintf("stock insuficiente (actual %d, requerido %d)", rec.CurrentStock, it.Quantity),
		}, nil
	}

	_, err = m.ledgerUC.ApplyInTx(ctx, stockRepo, ledgerRepo, inventory.TransactionInput{
		ServiceCenterID: res.ServiceCenterID,
		PartID:          it.PartID,
		Type:            entity.TransactionTypeOut,
		Quantity:        it.Quantity,
		ReferenceType:   entity.ReferenceTypeService,
		ReferenceID:     res.AppointmentID,
		Notes:           consumeNote(res.ID),
		FromReserved:    true,
	}, performedBy)
	if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrNotFound) {
		return &domain.ConsumeFailure{PartID: it.PartID, Quantity: it.Quantity, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := stockRepo.ReleaseReserved(ctx, res.ServiceCenterID, it.PartID, it.Quantity); err != nil {
		return nil, fmt.Errorf("descontar retenido de %s: %w", it.PartID, err)
	}
	return nil, nil
}

// consumedParts devuelve los repuestos de la reserva que ya tienen su salida en el libro
// (consumo parcial de la ruta sin transacciones). Consulta por la referencia de la cita,
// sin ventana de recencia.
func consumedParts(ctx context.Context, ledgerRepo repository.InventoryTransactionRepository, res *entity.Reservation) (map[string]bool, error) {
	txs, err := ledgerRepo.ListByReference(ctx, res.ServiceCenterID, entity.ReferenceTypeService, res.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("consultar consumos previos: %w", err)
	}
	note := consumeNote(res.ID)
	out := make(map[string]bool)
	for _, t := range txs {
		if t.Type == entity.TransactionTypeOut && t.Notes == note {
			out[t.PartID] = true
		}
	}
	return out, nil
}

// Get devuelve una reserva.
func (m *Manager) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// ReleaseExpired libera las reservas held cuyo vencimiento ya pasó. Devuelve cuántas liberó.
func (m *Manager) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := m.reservations.ListExpired(ctx, now, m.expiryBatch)
	if err != nil {
		return 0, fmt.Errorf("listar reservas vencidas: %w", err)
	}
	released := 0
	var errs []error
	for _, res := range expired {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		_, err := m.Release(ctx, res.ID)
		switch {
		case err == nil:
			released++
		case errors.Is(err, domain.ErrReservationNotHeld):
			// Otro proceso la liberó o consumió primero.
		default:
			m.log.Error().Err(err).Str("reservation_id", res.ID).Msg("no se pudo liberar reserva vencida")
			errs = append(errs, err)
		}
	}
	if released > 0 {
		m.log.Info().Int("liberadas", released).Msg("reservas vencidas liberadas")
	}
	return released, errors.Join(errs...)
}

func (m *Manager) heldReservation(ctx context.Context, id string) (*entity.Reservation, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	if !res.IsHeld() {
		return nil, fmt.Errorf("%w: estado actual %s", domain.ErrReservationNotHeld, res.Status)
	}
	return res, nil
}

// notifyBackorder avisa el faltante sin propagar errores. Se desacopla de la cancelación del request.
func (m *Manager) notifyBackorder(ctx context.Context, appointmentID, centerID string, shortages []domain.Shortage) {
	if m.notifier == nil || len(shortages) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	appt := &entity.Appointment{ID: appointmentID, ServiceCenterID: centerID}
	if m.appointments != nil && appointmentID != "" {
		found, err := m.appointments.GetByID(ctx, appointmentID)
		switch {
		case err != nil:
			m.log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("no se pudo consultar la cita para el aviso de backorder")
		case found != nil:
			appt = found
		}
	}

	lead := entity.DefaultSettings().BackorderLeadTimeDays
	if m.policy != nil {
		if s, err := m.policy.Current(ctx); err == nil {
			lead = s.BackorderLeadTimeDays
		}
	}

	err := m.notifier.SendBackorderNotification(ctx, appt, shortages, lead)
	m.metrics.ObserveBackorderNotification(err == nil)
	if err != nil {
		m.log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("aviso de backorder no enviado")
	}
	_ = m.events.Publish(ctx, ports.Event{
		Type:       ports.EventPartsBackordered,
		Key:        appointmentID,
		OccurredAt: m.now(),
		Payload:    map[string]any{"appointment_id": appointmentID, "service_center_id": centerID, "shortages": shortages},
	})
}

func (m *Manager) publish(ctx context.Context, eventType string, res *entity.Reservation) {
	err := m.events.Publish(context.WithoutCancel(ctx), ports.Event{
		Type:       eventType,
		Key:        res.ID,
		OccurredAt: m.now(),
		Payload:    toEventPayload(res),
	})
	if err != nil {
		m.log.Warn().Err(err).Str("type", eventType).Str("reservation_id", res.ID).Msg("evento no publicado")
	}
}

func (m *Manager) observe(op string, start time.Time, out *Result, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientStock):
		outcome = "insufficient_stock"
	case errors.Is(err, domain.ErrReservationNotHeld):
		outcome = "not_held"
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	m.metrics.ObserveReservation(op, outcome, out != nil && out.Degraded, m.now().Sub(start))
}

// normalizeItems valida la solicitud y agrupa repuestos repetidos conservando el orden de aparición.
func normalizeItems(in HoldInput) ([]entity.ReservationItem, error) {
	if in.ServiceCenterID == "" || in.AppointmentID == "" {
		return nil, fmt.Errorf("%w: appointment_id y service_center_id son requeridos", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos un ítem", domain.ErrInvalidInput)
	}
	index := make(map[string]int, len(in.Items))
	items := make([]entity.ReservationItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.PartID == "" || it.Quantity < 1 {
			return nil, fmt.Errorf("%w: cada ítem requiere part_id y quantity >= 1", domain.ErrInvalidInput)
		}
		if i, ok := index[it.PartID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		index[it.PartID] = len(items)
		items = append(items, it)
	}
	return items, nil
}

func stockLockKey(centerID, partID string) string {
	return "stock:" + entity.StockKey(centerID, partID)
}

func reservationLockKey(id string) string {
	return "reservation:" + id
}

func consumeNote(reservationID string) string {
	return "reserva " + reservationID
}

type eventItem struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

type eventPayload struct {
	ReservationID   string      `json:"reservation_id"`
	AppointmentID   string      `json:"appointment_id"`
	ServiceCenterID string      `json:"service_center_id"`
	Status          string      `json:"status"`
	Degraded        bool        `json:"degraded"`
	Items           []eventItem `json:"items"`
}

func toEventPayload(res *entity.Reservation) eventPayload {
	items := make([]eventItem, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, eventItem{PartID: it.PartID, Quantity: it.Quantity})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PartID < items[j].PartID })
	return eventPayload{
		ReservationID:   res.ID,
		AppointmentID:   res.AppointmentID,
		ServiceCenterID: res.ServiceCenterID,
		Status:          string(res.Status),
		Degraded:        res.Degraded,
		Items:           items,
	}
}
