package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

const notifyTimeout = 15 * time.Second

// UseCase ciclo de vida de las citas y su vínculo con la reserva de repuestos.
type UseCase struct {
	repo     repository.AppointmentRepository
	parts    PartsReserver
	policy   PolicyProvider
	notifier ports.AppointmentNotifier
	events   ports.EventPublisher
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. notifier y events pueden ser nil.
func NewUseCase(
	repo repository.AppointmentRepository,
	parts PartsReserver,
	policy PolicyProvider,
	notifier ports.AppointmentNotifier,
	events ports.EventPublisher,
	log *logger.Logger,
) *UseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &UseCase{
		repo:     repo,
		parts:    parts,
		policy:   policy,
		notifier: notifier,
		events:   events,
		log:      log.Component("appointments"),
		now:      time.Now,
	}
}

// CreateInput datos para agendar una cita.
type CreateInput struct {
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	ServiceCenterID string
	VehicleVIN      string
	VehicleModel    string
	ServiceType     string
	ScheduledAt     time.Time
	ServiceFee      decimal.Decimal
	Parts           []entity.ReservationItem
	Notes           string
}

func (in CreateInput) validate(now time.Time) error {
	switch {
	case in.ServiceCenterID == "":
		return fmt.Errorf("%w: service_center_id es requerido", domain.ErrInvalidInput)
	case in.CustomerID == "" && in.CustomerEmail == "":
		return fmt.Errorf("%w: customer_id o customer_email es requerido", domain.ErrInvalidInput)
	case strings.TrimSpace(in.VehicleVIN) == "":
		return fmt.Errorf("%w: vehicle_vin es requerido", domain.ErrInvalidInput)
	case strings.TrimSpace(in.ServiceType) == "":
		return fmt.Errorf("%w: service_type es requerido", domain.ErrInvalidInput)
	case !in.ScheduledAt.After(now):
		return fmt.Errorf("%w: scheduled_at debe ser futuro", domain.ErrInvalidInput)
	case in.ServiceFee.IsNegative():
		return fmt.Errorf("%w: service_fee no puede ser negativo", domain.ErrInvalidInput)
	}
	for _, p := range in.Parts {
		if p.PartID == "" || p.Quantity < 1 {
			return fmt.Errorf("%w: cada repuesto requiere part_id y quantity >= 1", domain.ErrInvalidInput)
		}
	}
	return nil
}

// Create guarda la cita según las políticas y pide la retención de sus repuestos.
// Un faltante no impide agendar: la cita queda con PartsStatus backordered.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Appointment, error) {
	now := uc.now().UTC()
	if err := in.validate(now); err != nil {
		return nil, err
	}
	policy, err := uc.policy.Current(ctx)
	if err != nil {
		return nil, err
	}

	a := &entity.Appointment{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		ServiceCenterID: in.ServiceCenterID,
		VehicleVIN:      strings.ToUpper(strings.TrimSpace(in.VehicleVIN)),
		VehicleModel:    strings.TrimSpace(in.VehicleModel),
		ServiceType:     strings.TrimSpace(in.ServiceType),
		ScheduledAt:     in.ScheduledAt.UTC(),
		Status:          entity.AppointmentConfirmed,
		PaymentStatus:   entity.PaymentNotRequired,
		ServiceFee:      in.ServiceFee,
		Parts:           in.Parts,
		PartsStatus:     entity.PartsNone,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if policy.UpfrontPaymentRequired {
		a.Status = entity.AppointmentPendingPayment
		a.PaymentStatus = entity.PaymentPending
	}
	if err := uc.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("guardar cita: %w", err)
	}

	if len(a.Parts) > 0 {
		uc.holdParts(ctx, a, policy)
		if err := uc.repo.Update(ctx, a, a.Status); err != nil {
			uc.releaseUnlinked(ctx, a)
			return nil, fmt.Errorf("guardar estado de repuestos: %w", err)
		}
	}

	uc.log.Info().
		Str("appointment_id", a.ID).
		Str("status", a.Status).
		Str("parts_status", a.PartsStatus).
		Msg("cita agendada")
	return a, nil
}

// RetryParts vuelve a pedir la retención de una cita abierta sin repuestos retenidos.
func (uc *UseCase) RetryParts(ctx context.Context, id string) (*entity.Appointment, error) {
	a, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsOpen() || len(a.Parts) == 0 || a.PartsStatus == entity.PartsHeld || a.PartsStatus == entity.PartsConsumed {
		return nil, fmt.Errorf("%w: la cita no tiene repuestos pendientes", domain.ErrConflict)
	}
	policy, err := uc.policy.Current(ctx)
	if err != nil {
		return nil, err
	}
	expected := a.Status
	uc.holdParts(ctx, a, policy)
	if err := uc.repo.Update(ctx, a, expected); err != nil {
		uc.releaseUnlinked(ctx, a)
		return nil, err
	}
	return a, nil
}

// releaseUnlinked libera una reserva recién creada que no quedó asociada a la cita
// (la actualización falló, p. ej. por una cancelación concurrente).
func (uc *UseCase) releaseUnlinked(ctx context.Context, a *entity.Appointment) {
	if a.PartsStatus != entity.PartsHeld || a.ReservationID == "" {
		return
	}
	if _, err := uc.parts.Release(ctx, a.ReservationID); err != nil && !errors.Is(err, domain.ErrReservationNotHeld) {
		uc.log.Error().Err(err).
			Str("appointment_id", a.ID).
			Str("reservation_id", a.ReservationID).
			Msg("reserva sin cita asociada no liberada; queda hasta su vencimiento")
		return
	}
	uc.log.Warn().Str("appointment_id", a.ID).Str("reservation_id", a.ReservationID).Msg("reserva liberada: no se pudo asociar a la cita")
}

// holdParts actualiza a en memoria según el resultado de la retención.
func (uc *UseCase) holdParts(ctx context.Context, a *entity.Appointment, policy entity.SystemSettings) {
	now := uc.now().UTC()
	in := reservation.HoldInput{
		AppointmentID:   a.ID,
		ServiceCenterID: a.ServiceCenterID,
		Items:           a.Parts,
		Notes:           "cita " + a.ID,
	}
	if policy.ReservationHoldHours > 0 {
		// Vence horas después de la fecha programada: cubre la inasistencia del cliente.
		exp := a.ScheduledAt.Add(time.Duration(policy.ReservationHoldHours) * time.Hour)
		in.ExpiresAt = &exp
	}

	res, err := uc.parts.Hold(ctx, in)
	a.UpdatedAt = now
	switch {
	case err == nil:
		a.ReservationID = res.Reservation.ID
		a.PartsStatus = entity.PartsHeld
	case errors.Is(err, domain.ErrInsufficientStock):
		a.PartsStatus = entity.PartsBackordered
	default:
		uc.log.Error().Err(err).Str("appointment_id", a.ID).Msg("no se pudieron retener los repuestos de la cita")
		a.PartsStatus = entity.PartsNone
	}
}

// ConfirmPayment registra el pago de una cita pendiente.
func (uc *UseCase) ConfirmPayment(ctx context.Context, id string) (*entity.Appointment, error) {
	return uc.transition(ctx, id, []string{entity.AppointmentPendingPayment}, func(a *entity.Appointment) error {
		a.Status = entity.AppointmentConfirmed
		a.PaymentStatus = entity.PaymentPaid
		return nil
	})
}

// Start marca el inicio del servicio.
func (uc *UseCase) Start(ctx context.Context, id string) (*entity.Appointment, error) {
	return uc.transition(ctx, id, []string{entity.AppointmentConfirmed}, func(a *entity.Appointment) error {
		a.Status = entity.AppointmentInProgress
		return nil
	})
}

// Cancel cancela la cita y libera su reserva si aún retiene stock.
func (uc *UseCase) Cancel(ctx context.Context, id, reason string) (*entity.Appointment, error) {
	a, err := uc.transition(ctx, id,
		[]string{entity.AppointmentPendingPayment, entity.AppointmentConfirmed, entity.AppointmentInProgress},
		func(a *entity.Appointment) error {
			now := uc.now().UTC()
			a.Status = entity.AppointmentCancelled
			a.CancelReason = strings.TrimSpace(reason)
			a.CancelledAt = &now
			return nil
		})
	if err != nil {
		return nil, err
	}

	if a.ReservationID != "" && a.PartsStatus == entity.PartsHeld {
		_, err := uc.parts.Release(ctx, a.ReservationID)
		switch {
		case err == nil:
			a.PartsStatus = entity.PartsReleased
		case errors.Is(err, domain.ErrReservationNotHeld):
			a.PartsStatus = uc.settledPartsStatus(ctx, a)
		default:
			// La reserva queda retenida hasta su vencimiento.
			uc.log.Error().Err(err).Str("appointment_id", a.ID).Str("reservation_id", a.ReservationID).Msg("cita cancelada sin liberar la reserva")
		}
		if a.PartsStatus != entity.PartsHeld {
			if err := uc.repo.Update(ctx, a, entity.AppointmentCancelled); err != nil {
				uc.log.Warn().Err(err).Str("appointment_id", a.ID).Msg("no se pudo guardar el estado de repuestos")
			}
		}
	}

	uc.notifyCancellation(ctx, a)
	uc.publish(ctx, ports.EventAppointmentCancelled, a)
	uc.log.Info().Str("appointment_id", a.ID).Str("reason", a.CancelReason).Msg("cita cancelada")
	return a, nil
}

// settledPartsStatus refleja el estado real de una reserva que otro proceso ya cerró.
// Si fue consumida (Complete concurrente) el stock ya salió y la cita cancelada lo informa.
func (uc *UseCase) settledPartsStatus(ctx context.Context, a *entity.Appointment) string {
	res, err := uc.parts.Get(ctx, a.ReservationID)
	if err != nil {
		uc.log.Error().Err(err).Str("reservation_id", a.ReservationID).Msg("no se pudo leer la reserva de la cita cancelada")
		return entity.PartsHeld
	}
	switch res.Status {
	case entity.ReservationConsumed:
		uc.log.Warn().
			Str("appointment_id", a.ID).
			Str("reservation_id", res.ID).
			Msg("cita cancelada con repuestos ya consumidos")
		return entity.PartsConsumed
	case entity.ReservationReleased:
		return entity.PartsReleased
	default:
		return entity.PartsHeld
	}
}

// Complete consume los repuestos retenidos y cierra la cita. Si el consumo falla la cita sigue en curso.
func (uc *UseCase) Complete(ctx context.Context, id, performedBy string) (*entity.Appointment, error) {
	a, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != entity.AppointmentInProgress {
		return nil, fmt.Errorf("%w: la cita está en estado %s", domain.ErrConflict, a.Status)
	}
	if len(a.Parts) > 0 && a.PartsStatus != entity.PartsHeld && a.PartsStatus != entity.PartsConsumed {
		return nil, fmt.Errorf("%w: los repuestos de la cita no están retenidos (%s)", domain.ErrConflict, a.PartsStatus)
	}

	if a.PartsStatus == entity.PartsHeld {
		if _, err := uc.parts.Consume(ctx, a.ReservationID, performedBy); err != nil {
			return nil, err
		}
		a.PartsStatus = entity.PartsConsumed
	}

	now := uc.now().UTC()
	a.Status = entity.AppointmentCompleted
	a.CompletedAt = &now
	a.UpdatedAt = now
	if err := uc.repo.Update(ctx, a, entity.AppointmentInProgress); err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventAppointmentCompleted, a)
	uc.log.Info().Str("appointment_id", a.ID).Str("performed_by", performedBy).Msg("cita completada")
	return a, nil
}

// Get devuelve la cita o domain.ErrNotFound.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Appointment, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	a, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// List lista con filtros y paginación (límite por defecto 20, máximo 100).
func (uc *UseCase) List(ctx context.Context, f repository.AppointmentFilter) ([]*entity.Appointment, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return uc.repo.List(ctx, f)
}

// transition aplica mutate si el estado actual está en from y guarda con compare-and-set.
func (uc *UseCase) transition(ctx context.Context, id string, from []string, mutate func(*entity.Appointment) error) (*entity.Appointment, error) {
	a, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, s := range from {
		if a.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: la cita está en estado %s", domain.ErrConflict, a.Status)
	}
	expected := a.Status
	if err := mutate(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, a, expected); err != nil {
		return nil, err
	}
	return a, nil
}

func (uc *UseCase) notifyCancellation(ctx context.Context, a *entity.Appointment) {
	if uc.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := uc.notifier.SendCancellationNotice(ctx, a); err != nil {
		uc.log.Warn().Err(err).Str("appointment_id", a.ID).Msg("aviso de cancelación no enviado")
	}
}

func (uc *UseCase) publish(ctx context.Context, eventType string, a *entity.Appointment) {
	err := uc.events.Publish(context.WithoutCancel(ctx), ports.Event{
		Type:       eventType,
		Key:        a.ID,
		OccurredAt: uc.now(),
		Payload: map[string]any{
			"appointment_id":    a.ID,
			"service_center_id": a.ServiceCenterID,
			"status":            a.Status,
			"parts_status":      a.PartsStatus,
			"reservation_id":    a.ReservationID,
		},
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("type", eventType).Str("appointment_id", a.ID).Msg("evento no publicado")
	}
}
