package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleTechnician = "technician"
	RoleCustomer   = "customer"
)

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleTechnician, RoleCustomer:
		return true
	}
	return false
}

// User representa un usuario del sistema. Personal y técnicos pertenecen a un centro de servicio.
type User struct {
	ID              string
	ServiceCenterID string // vacío para clientes y administradores globales
	Email           string
	PasswordHash    string // bcrypt hash, nunca plano en dominio después de persistir
	Name            string
	Phone           string
	Role            string
	Status          string // active, inactive, suspended
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
