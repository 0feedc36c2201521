package memory

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var (
	_ repository.SettingsRepository      = (*SettingsRepo)(nil)
	_ repository.ServiceCenterRepository = (*ServiceCenterRepo)(nil)
)

// SettingsRepo documento de políticas en memoria.
type SettingsRepo struct {
	v view
}

// Get devuelve una copia o nil si no se ha guardado.
func (r *SettingsRepo) Get(_ context.Context) (*entity.SystemSettings, error) {
	var out *entity.SystemSettings
	err := r.v.do(func(st *state) error {
		if st.settings != nil {
			cp := *st.settings
			out = &cp
		}
		return nil
	})
	return out, err
}

// Save reemplaza el documento.
func (r *SettingsRepo) Save(_ context.Context, s *entity.SystemSettings) error {
	return r.v.do(func(st *state) error {
		cp := *s
		st.settings = &cp
		return nil
	})
}

// ServiceCenterRepo centros de servicio en memoria.
type ServiceCenterRepo struct {
	v view
}

// Create inserta el centro.
func (r *ServiceCenterRepo) Create(_ context.Context, c *entity.ServiceCenter) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.centers[c.ID]; exists {
			return domain.ErrDuplicate
		}
		cp := *c
		st.centers[c.ID] = &cp
		return nil
	})
}

// GetByID devuelve el centro o nil.
func (r *ServiceCenterRepo) GetByID(_ context.Context, id string) (*entity.ServiceCenter, error) {
	var out *entity.ServiceCenter
	err := r.v.do(func(st *state) error {
		if c, ok := st.centers[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

// List devuelve todos los centros.
func (r *ServiceCenterRepo) List(_ context.Context) ([]*entity.ServiceCenter, error) {
	var out []*entity.ServiceCenter
	err := r.v.do(func(st *state) error {
		for _, c := range st.centers {
			cp := *c
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}
