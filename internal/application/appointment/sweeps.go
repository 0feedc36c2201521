package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

const sweepBatch = 200

// AutoCanceller cancela las citas cuyo pago anticipado no llegó dentro de la ventana.
type AutoCanceller struct {
	uc *UseCase
}

// NewAutoCanceller crea el barrido de cancelación automática.
func NewAutoCanceller(uc *UseCase) *AutoCanceller {
	return &AutoCanceller{uc: uc}
}

// Sweep devuelve cuántas citas canceló. Solo actúa si la política lo habilita.
func (s *AutoCanceller) Sweep(ctx context.Context, now time.Time) (int, error) {
	policy, err := s.uc.policy.Current(ctx)
	if err != nil {
		return 0, err
	}
	if !policy.AutoCancelEnabled || !policy.UpfrontPaymentRequired {
		return 0, nil
	}

	deadline := now.Add(-time.Duration(policy.PaymentWindowMinutes) * time.Minute)
	pending, _, err := s.uc.repo.List(ctx, repository.AppointmentFilter{
		Status:        entity.AppointmentPendingPayment,
		CreatedBefore: &deadline,
		Limit:         sweepBatch,
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	var errs []error
	for _, a := range pending {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		_, err := s.uc.Cancel(ctx, a.ID, "pago no recibido dentro de la ventana")
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, domain.ErrConflict):
			// Pagada o cancelada mientras tanto.
		default:
			s.uc.log.Error().Err(err).Str("appointment_id", a.ID).Msg("no se pudo cancelar la cita impaga")
			errs = append(errs, err)
		}
	}
	if cancelled > 0 {
		s.uc.log.Info().Int("canceladas", cancelled).Msg("citas impagas canceladas")
	}
	return cancelled, errors.Join(errs...)
}

// Reminder envía el recordatorio de las citas confirmadas próximas.
type Reminder struct {
	uc *UseCase
}

// NewReminder crea el barrido de recordatorios.
func NewReminder(uc *UseCase) *Reminder {
	return &Reminder{uc: uc}
}

// Sweep devuelve cuántos recordatorios envió.
func (s *Reminder) Sweep(ctx context.Context, now time.Time) (int, error) {
	if s.uc.notifier == nil {
		return 0, nil
	}
	policy, err := s.uc.policy.Current(ctx)
	if err != nil {
		return 0, err
	}
	if policy.ReminderLeadHours <= 0 {
		return 0, nil
	}

	until := now.Add(time.Duration(policy.ReminderLeadHours) * time.Hour)
	due, _, err := s.uc.repo.List(ctx, repository.AppointmentFilter{
		Status:          entity.AppointmentConfirmed,
		ScheduledFrom:   &now,
		ScheduledTo:     &until,
		ReminderPending: true,
		Limit:           sweepBatch,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.uc.notifier.SendReminder(ctx, a); err != nil {
			s.uc.log.Warn().Err(err).Str("appointment_id", a.ID).Msg("recordatorio no enviado")
			continue
		}
		at := now.UTC()
		a.ReminderSentAt = &at
		a.UpdatedAt = at
		if err := s.uc.repo.Update(ctx, a, entity.AppointmentConfirmed); err != nil && !errors.Is(err, domain.ErrConflict) {
			s.uc.log.Error().Err(err).Str("appointment_id", a.ID).Msg("no se pudo marcar el recordatorio")
		}
		sent++
	}
	return sent, nil
}
