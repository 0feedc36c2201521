package repository

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// ServiceCenterRepository define el puerto de persistencia de centros de servicio.
type ServiceCenterRepository interface {
	Create(ctx context.Context, c *entity.ServiceCenter) error
	GetByID(ctx context.Context, id string) (*entity.ServiceCenter, error)
	List(ctx context.Context) ([]*entity.ServiceCenter, error)
}
