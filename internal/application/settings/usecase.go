package settings

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

const cacheTTL = 30 * time.Second

var prefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// UseCase lee y actualiza las políticas del sistema. Current guarda una copia en memoria por 30s.
type UseCase struct {
	repo repository.SettingsRepository
	now  func() time.Time

	mu       sync.RWMutex
	cached   *entity.SystemSettings
	loadedAt time.Time
}

// NewUseCase crea el caso de uso.
func NewUseCase(repo repository.SettingsRepository) *UseCase {
	return &UseCase{repo: repo, now: time.Now}
}

// Current devuelve las políticas vigentes desde la caché si no venció.
func (uc *UseCase) Current(ctx context.Context) (entity.SystemSettings, error) {
	uc.mu.RLock()
	if uc.cached != nil && uc.now().Sub(uc.loadedAt) < cacheTTL {
		s := *uc.cached
		uc.mu.RUnlock()
		return s, nil
	}
	uc.mu.RUnlock()

	s, err := uc.Get(ctx)
	if err != nil {
		return entity.SystemSettings{}, err
	}
	uc.store(s)
	return s, nil
}

// Get lee las políticas guardadas; sin documento devuelve los valores por defecto.
func (uc *UseCase) Get(ctx context.Context) (entity.SystemSettings, error) {
	s, err := uc.repo.Get(ctx)
	if err != nil {
		return entity.SystemSettings{}, fmt.Errorf("leer políticas: %w", err)
	}
	if s == nil {
		return entity.DefaultSettings(), nil
	}
	return *s, nil
}

// UpdateInput cambios parciales; los campos nil se conservan.
type UpdateInput struct {
	UpfrontPaymentRequired *bool
	PaymentWindowMinutes   *int
	AutoCancelEnabled      *bool
	ReminderLeadHours      *int
	BackorderLeadTimeDays  *int
	ReservationHoldHours   *int
	TaxRate                *decimal.Decimal
	InvoicePrefix          *string
}

// Update aplica los cambios, valida el resultado y lo guarda.
func (uc *UseCase) Update(ctx context.Context, in UpdateInput, updatedBy string) (entity.SystemSettings, error) {
	s, err := uc.Get(ctx)
	if err != nil {
		return entity.SystemSettings{}, err
	}
	if in.UpfrontPaymentRequired != nil {
		s.UpfrontPaymentRequired = *in.UpfrontPaymentRequired
	}
	if in.PaymentWindowMinutes != nil {
		s.PaymentWindowMinutes = *in.PaymentWindowMinutes
	}
	if in.AutoCancelEnabled != nil {
		s.AutoCancelEnabled = *in.AutoCancelEnabled
	}
	if in.ReminderLeadHours != nil {
		s.ReminderLeadHours = *in.ReminderLeadHours
	}
	if in.BackorderLeadTimeDays != nil {
		s.BackorderLeadTimeDays = *in.BackorderLeadTimeDays
	}
	if in.ReservationHoldHours != nil {
		s.ReservationHoldHours = *in.ReservationHoldHours
	}
	if in.TaxRate != nil {
		s.TaxRate = *in.TaxRate
	}
	if in.InvoicePrefix != nil {
		s.InvoicePrefix = strings.ToUpper(strings.TrimSpace(*in.InvoicePrefix))
	}
	if err := Validate(s); err != nil {
		return entity.SystemSettings{}, err
	}

	s.UpdatedAt = uc.now().UTC()
	s.UpdatedBy = updatedBy
	if err := uc.repo.Save(ctx, &s); err != nil {
		return entity.SystemSettings{}, fmt.Errorf("guardar políticas: %w", err)
	}
	uc.store(s)
	return s, nil
}

// Validate revisa los rangos admitidos.
func Validate(s entity.SystemSettings) error {
	switch {
	case s.PaymentWindowMinutes < 1 || s.PaymentWindowMinutes > 24*60:
		return fmt.Errorf("%w: payment_window_minutes debe estar entre 1 y 1440", domain.ErrInvalidInput)
	case s.ReminderLeadHours < 0 || s.ReminderLeadHours > 168:
		return fmt.Errorf("%w: reminder_lead_hours debe estar entre 0 y 168", domain.ErrInvalidInput)
	case s.BackorderLeadTimeDays < 0 || s.BackorderLeadTimeDays > 365:
		return fmt.Errorf("%w: backorder_lead_time_days debe estar entre 0 y 365", domain.ErrInvalidInput)
	case s.ReservationHoldHours < 0 || s.ReservationHoldHours > 720:
		return fmt.Errorf("%w: reservation_hold_hours debe estar entre 0 y 720", domain.ErrInvalidInput)
	case s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: tax_rate debe estar entre 0 y 100", domain.ErrInvalidInput)
	case !prefixPattern.MatchString(s.InvoicePrefix):
		return fmt.Errorf("%w: invoice_prefix debe ser alfanumérico de hasta 10 caracteres", domain.ErrInvalidInput)
	}
	return nil
}

func (uc *UseCase) store(s entity.SystemSettings) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.cached = &s
	uc.loadedAt = uc.now()
}
