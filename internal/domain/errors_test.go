package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortageError_IsInsufficientStock(t *testing.T) {
	err := fmt.Errorf("hold: %w", &ShortageError{Shortages: []Shortage{
		{PartID: "P1", Required: 3, Available: 2},
		{PartID: "P2", Required: 1, Available: 0},
	}})

	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var se *ShortageError
	assert.True(t, errors.As(err, &se))
	assert.Len(t, se.Shortages, 2)
	assert.Contains(t, err.Error(), "P1 (requerido 3, disponible 2)")
	assert.Contains(t, err.Error(), "P2")
}

func TestConsumeError(t *testing.T) {
	err := &ConsumeError{
		Failures: []ConsumeFailure{{PartID: "P2", Quantity: 3, Reason: "stock insuficiente"}},
		Partial:  true,
	}

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "consumo parcial")
	assert.Equal(t, []Shortage{{PartID: "P2", Required: 3}}, err.Shortages())

	err.Partial = false
	assert.Contains(t, err.Error(), "consumo fallido")
}
