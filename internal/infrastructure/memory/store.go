// Package memory implementa los repositorios operativos en memoria.
// Se usa en desarrollo cuando no hay MongoDB configurado y en los tests de los casos de uso.
// Con Transactions=false el TxRunner se comporta como un MongoDB standalone: no ejecuta nada
// y devuelve domain.ErrTransactionsUnsupported.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// Options configura el almacén.
type Options struct {
	Transactions bool
}

// Store contiene el estado compartido. Las transacciones toman el lock exclusivo durante toda
// su ejecución y trabajan sobre una copia que solo se publica si fn no falla.
type Store struct {
	mu    sync.Mutex
	state *state
	opts  Options
}

// New crea un almacén vacío.
func New(opts Options) *Store {
	return &Store{state: newState(), opts: opts}
}

type state struct {
	stock        map[string]*entity.StockRecord // clave StockKey(center, part)
	reservations map[string]*entity.Reservation
	ledger       []*entity.InventoryTransaction
	appointments map[string]*entity.Appointment
	centers      map[string]*entity.ServiceCenter
	settings     *entity.SystemSettings
}

func newState() *state {
	return &state{
		stock:        make(map[string]*entity.StockRecord),
		reservations: make(map[string]*entity.Reservation),
		appointments: make(map[string]*entity.Appointment),
		centers:      make(map[string]*entity.ServiceCenter),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.stock {
		c.stock[k] = cloneStock(v)
	}
	for k, v := range s.reservations {
		c.reservations[k] = cloneReservation(v)
	}
	c.ledger = append([]*entity.InventoryTransaction(nil), s.ledger...)
	for k, v := range s.appointments {
		c.appointments[k] = cloneAppointment(v)
	}
	for k, v := range s.centers {
		cp := *v
		c.centers[k] = &cp
	}
	if s.settings != nil {
		cp := *s.settings
		c.settings = &cp
	}
	return c
}

// view ejecuta fn sobre el estado: el de la transacción si existe, o el compartido bajo lock.
type view struct {
	s  *Store
	tx *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.state)
}

// Stock devuelve el repositorio de existencias fuera de transacción.
func (s *Store) Stock() *StockRepo { return &StockRepo{view{s: s}} }

// Reservations devuelve el repositorio de reservas fuera de transacción.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{view{s: s}} }

// Ledger devuelve el repositorio del libro de inventario fuera de transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{view{s: s}} }

// Appointments devuelve el repositorio de citas.
func (s *Store) Appointments() *AppointmentRepo { return &AppointmentRepo{view{s: s}} }

// ServiceCenters devuelve el repositorio de centros.
func (s *Store) ServiceCenters() *ServiceCenterRepo { return &ServiceCenterRepo{view{s: s}} }

// Settings devuelve el repositorio de políticas.
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{view{s: s}} }

// TxRunner devuelve el ejecutor de transacciones del almacén.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// TxRunner implementa inventory.TxRunner y reservation.TxRunner.
type TxRunner struct {
	s *Store
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	reservationRepo repository.ReservationRepository,
	ledgerRepo repository.InventoryTransactionRepository,
) error) error {
	if !r.s.opts.Transactions {
		return fmt.Errorf("memory: %w", domain.ErrTransactionsUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := r.s.state.clone()
	v := view{s: r.s, tx: tx}
	if err := fn(&StockRepo{v}, &ReservationRepo{v}, &LedgerRepo{v}); err != nil {
		return err
	}
	r.s.state = tx
	return nil
}

// PutStock inserta o reemplaza un registro tal cual (siembra de datos y tests).
func (s *Store) PutStock(rec entity.StockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = entity.StockKey(rec.ServiceCenterID, rec.PartID)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.state.stock[entity.StockKey(rec.ServiceCenterID, rec.PartID)] = &rec
}

func cloneStock(r *entity.StockRecord) *entity.StockRecord {
	cp := *r
	return &cp
}

func cloneReservation(r *entity.Reservation) *entity.Reservation {
	cp := *r
	cp.Items = append([]entity.ReservationItem(nil), r.Items...)
	cp.ExpiresAt = cloneTime(r.ExpiresAt)
	cp.ReleasedAt = cloneTime(r.ReleasedAt)
	cp.ConsumedAt = cloneTime(r.ConsumedAt)
	return &cp
}

func cloneAppointment(a *entity.Appointment) *entity.Appointment {
	cp := *a
	cp.Parts = append([]entity.ReservationItem(nil), a.Parts...)
	cp.CancelledAt = cloneTime(a.CancelledAt)
	cp.CompletedAt = cloneTime(a.CompletedAt)
	cp.ReminderSentAt = cloneTime(a.ReminderSentAt)
	return &cp
}
