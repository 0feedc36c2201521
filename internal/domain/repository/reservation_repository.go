package repository

import (
	"context"
	"time"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	// GetByID devuelve nil, nil si la reserva no existe.
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	// TransitionStatus cambia el estado solo si sigue en from. Devuelve false si otro proceso lo cambió antes.
	TransitionStatus(ctx context.Context, id string, from, to entity.ReservationStatus, at time.Time) (bool, error)
	// ListExpired devuelve reservas held con ExpiresAt anterior a now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}
