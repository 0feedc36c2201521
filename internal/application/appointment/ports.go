package appointment

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// PartsReserver retiene, libera y consume los repuestos de una cita (reservation.Manager).
type PartsReserver interface {
	Hold(ctx context.Context, in reservation.HoldInput) (*reservation.Result, error)
	Release(ctx context.Context, id string) (*reservation.Result, error)
	Consume(ctx context.Context, id, performedBy string) (*reservation.Result, error)
	Get(ctx context.Context, id string) (*entity.Reservation, error)
}

// PolicyProvider entrega las políticas vigentes.
type PolicyProvider interface {
	Current(ctx context.Context) (entity.SystemSettings, error)
}
