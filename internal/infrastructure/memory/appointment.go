package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

var _ repository.AppointmentRepository = (*AppointmentRepo)(nil)

// AppointmentRepo citas en memoria.
type AppointmentRepo struct {
	v view
}

// Create inserta la cita.
func (r *AppointmentRepo) Create(_ context.Context, a *entity.Appointment) error {
	return r.v.do(func(st *state) error {
		if _, exists := st.appointments[a.ID]; exists {
			return domain.ErrDuplicate
		}
		st.appointments[a.ID] = cloneAppointment(a)
		return nil
	})
}

// GetByID devuelve una copia de la cita o nil.
func (r *AppointmentRepo) GetByID(_ context.Context, id string) (*entity.Appointment, error) {
	var out *entity.Appointment
	err := r.v.do(func(st *state) error {
		if a, ok := st.appointments[id]; ok {
			out = cloneAppointment(a)
		}
		return nil
	})
	return out, err
}

// Update reemplaza la cita si el estado no cambió desde la lectura.
func (r *AppointmentRepo) Update(_ context.Context, a *entity.Appointment, expectedStatus string) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.appointments[a.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expectedStatus {
			return domain.ErrConflict
		}
		st.appointments[a.ID] = cloneAppointment(a)
		return nil
	})
}

// List filtra y pagina por fecha programada ascendente.
func (r *AppointmentRepo) List(_ context.Context, f repository.AppointmentFilter) ([]*entity.Appointment, int64, error) {
	var all []*entity.Appointment
	err := r.v.do(func(st *state) error {
		for _, a := range st.appointments {
			if matches(a, f) {
				all = append(all, cloneAppointment(a))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ScheduledAt.Equal(all[j].ScheduledAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].ScheduledAt.Before(all[j].ScheduledAt)
	})
	total := int64(len(all))
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return []*entity.Appointment{}, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func matches(a *entity.Appointment, f repository.AppointmentFilter) bool {
	if f.ServiceCenterID != "" && a.ServiceCenterID != f.ServiceCenterID {
		return false
	}
	if f.CustomerID != "" && a.CustomerID != f.CustomerID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CreatedBefore != nil && !a.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.ScheduledFrom != nil && a.ScheduledAt.Before(*f.ScheduledFrom) {
		return false
	}
	if f.ScheduledTo != nil && a.ScheduledAt.After(*f.ScheduledTo) {
		return false
	}
	if f.ReminderPending && a.ReminderSentAt != nil {
		return false
	}
	return true
}
