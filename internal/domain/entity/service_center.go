package entity

import "time"

// ServiceCenter centro de servicio con inventario propio.
type ServiceCenter struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
