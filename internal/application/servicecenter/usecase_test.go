package servicecenter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/application/servicecenter"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
)

func TestCentros(t *testing.T) {
	store := memory.New(memory.Options{Transactions: true})
	uc := servicecenter.NewUseCase(store.ServiceCenters())
	ctx := context.Background()

	_, err := uc.Create(ctx, servicecenter.CreateInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sur, err := uc.Create(ctx, servicecenter.CreateInput{Name: "EV Sur", Email: "Sur@EVC.co"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, servicecenter.CreateInput{Name: "EV Norte"})
	require.NoError(t, err)
	assert.Equal(t, "sur@evc.co", sur.Email)
	assert.True(t, sur.Active)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "EV Norte", list[0].Name)

	got, err := uc.Get(ctx, sur.ID)
	require.NoError(t, err)
	assert.Equal(t, "EV Sur", got.Name)
	_, err = uc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
