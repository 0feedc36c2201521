package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// ErrReservationNotHeld: release/consume sobre una reserva que ya no está en estado held.
	ErrReservationNotHeld = errors.New("la reserva no está retenida")
	// ErrTransactionsUnsupported: el despliegue de la base de datos no admite transacciones multi-documento.
	ErrTransactionsUnsupported = errors.New("transacciones no soportadas por la base de datos")
	// ErrBusy: no se obtuvo un lock dentro del tiempo de espera.
	ErrBusy = errors.New("recurso ocupado, reintente")
)

// Shortage describe un repuesto sin disponibilidad suficiente.
type Shortage struct {
	PartID    string `json:"part_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
}

// ShortageError se devuelve cuando una retención no puede cubrir todos los ítems.
// Incluye todos los faltantes, no solo el primero.
type ShortageError struct {
	Shortages []Shortage
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requerido %d, disponible %d)", s.PartID, s.Required, s.Available))
	}
	return "stock insuficiente: " + strings.Join(parts, ", ")
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *ShortageError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ConsumeFailure describe un ítem que no se pudo descontar al consumir una reserva.
type ConsumeFailure struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// ConsumeError se devuelve cuando el consumo de una reserva falla para uno o más ítems.
// Partial indica que los ítems exitosos ya quedaron aplicados (ruta sin transacciones).
type ConsumeError struct {
	Failures []ConsumeFailure
	Partial  bool
}

func (e *ConsumeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.PartID, f.Reason))
	}
	prefix := "consumo fallido"
	if e.Partial {
		prefix = "consumo parcial"
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *ConsumeError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Shortages convierte las fallas en faltantes para el aviso de backorder.
func (e *ConsumeError) Shortages() []Shortage {
	out := make([]Shortage, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, Shortage{PartID: f.PartID, Required: f.Quantity})
	}
	return out
}
