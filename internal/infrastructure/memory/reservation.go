package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas en memoria.
type ReservationRepo struct {
	v view
}

// Create inserta la reserva; el ID debe ser único.
func (r *ReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.reservations[res.ID]; exists {
			return domain.ErrDuplicate
		}
		st.reservations[res.ID] = cloneReservation(res)
		return nil
	})
}

// GetByID devuelve una copia de la reserva o nil.
func (r *ReservationRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	var out *entity.Reservation
	err := r.v.do(func(st *state) error {
		if res, ok := st.reservations[id]; ok {
			out = cloneReservation(res)
		}
		return nil
	})
	return out, err
}

// TransitionStatus compare-and-set del estado.
func (r *ReservationRepo) TransitionStatus(_ context.Context, id string, from, to entity.ReservationStatus, at time.Time) (bool, error) {
	ok := false
	err := r.v.do(func(st *state) error {
		res, exists := st.reservations[id]
		if !exists || res.Status != from {
			return nil
		}
		res.Status = to
		res.UpdatedAt = at
		switch to {
		case entity.ReservationReleased:
			res.ReleasedAt = &at
		case entity.ReservationConsumed:
			res.ConsumedAt = &at
		}
		ok = true
		return nil
	})
	return ok, err
}

// ListExpired reservas held vencidas, las más antiguas primero.
func (r *ReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.v.do(func(st *state) error {
		for _, res := range st.reservations {
			if res.Expired(now) {
				out = append(out, cloneReservation(res))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
