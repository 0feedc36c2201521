package settings

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
)

func TestGet_SinDocumentoDevuelveDefaults(t *testing.T) {
	uc := NewUseCase(memory.New(memory.Options{}).Settings())
	s, err := uc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSettings(), s)
}

func TestUpdate_ParcialYValidado(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(memory.Options{}).Settings()
	uc := NewUseCase(repo)

	upfront := true
	window := 45
	prefix := " evx "
	s, err := uc.Update(ctx, UpdateInput{UpfrontPaymentRequired: &upfront, PaymentWindowMinutes: &window, InvoicePrefix: &prefix}, "admin-1")
	require.NoError(t, err)
	assert.True(t, s.UpfrontPaymentRequired)
	assert.Equal(t, 45, s.PaymentWindowMinutes)
	assert.Equal(t, "EVX", s.InvoicePrefix)
	assert.Equal(t, 24, s.ReminderLeadHours, "los campos no enviados se conservan")
	assert.Equal(t, "admin-1", s.UpdatedBy)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EVX", stored.InvoicePrefix)

	bad := 0
	_, err = uc.Update(ctx, UpdateInput{PaymentWindowMinutes: &bad}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tax := decimal.NewFromInt(101)
	_, err = uc.Update(ctx, UpdateInput{TaxRate: &tax}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	badPrefix := "EV-1"
	_, err = uc.Update(ctx, UpdateInput{InvoicePrefix: &badPrefix}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCurrent_UsaCacheHastaQueVence(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(memory.Options{}).Settings()
	uc := NewUseCase(repo)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	first, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, first.BackorderLeadTimeDays)

	changed := entity.DefaultSettings()
	changed.BackorderLeadTimeDays = 12
	require.NoError(t, repo.Save(ctx, &changed))

	cached, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, cached.BackorderLeadTimeDays)

	now = now.Add(cacheTTL + time.Second)
	fresh, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, fresh.BackorderLeadTimeDays)
}
