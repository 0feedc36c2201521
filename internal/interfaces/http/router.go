package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/appointment"
	"github.com/jhoicas/evcenter-api/internal/application/auth"
	"github.com/jhoicas/evcenter-api/internal/application/billing"
	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/application/scheduler"
	"github.com/jhoicas/evcenter-api/internal/application/servicecenter"
	"github.com/jhoicas/evcenter-api/internal/application/settings"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	Reservations    *reservation.Manager
	Ledger          *inventory.LedgerUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	AppointmentUC   *appointment.UseCase
	InvoiceUC       *billing.UseCase
	SettingsUC      *settings.UseCase
	ServiceCenterUC *servicecenter.UseCase
	Scheduler       *scheduler.Scheduler
	JWTSecret       string
	Log             *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	staffRoles := RequireRole(entity.RoleAdmin, entity.RoleStaff)
	workshopRoles := RequireRole(entity.RoleAdmin, entity.RoleStaff, entity.RoleTechnician)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Auth (público salvo me y staff)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/staff", adminOnly, authHandler.CreateStaff)

	// Reservas de repuestos
	reservationHandler := NewReservationHandler(deps.Reservations, deps.Log)
	reservations := protected.Group("/reservations")
	reservations.Post("/", staffRoles, reservationHandler.Hold)
	reservations.Get("/:id", workshopRoles, reservationHandler.GetByID)
	reservations.Post("/:id/release", staffRoles, reservationHandler.Release)
	reservations.Post("/:id/consume", workshopRoles, reservationHandler.Consume)

	// Inventario
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Replenishment, deps.Log)
	inv := protected.Group("/inventory", workshopRoles)
	inv.Post("/transactions", staffRoles, inventoryHandler.CreateTransaction)
	ownCenter := RequireCenterParam("centerId")
	inv.Get("/:centerId", ownCenter, inventoryHandler.ListStock)
	inv.Get("/:centerId/low-stock", ownCenter, inventoryHandler.LowStock)
	inv.Get("/:centerId/parts/:partId", ownCenter, inventoryHandler.GetStock)

	// Citas
	appointmentHandler := NewAppointmentHandler(deps.AppointmentUC, deps.Log)
	appointments := protected.Group("/appointments")
	appointments.Post("/", appointmentHandler.Create)
	appointments.Get("/", appointmentHandler.List)
	appointments.Get("/:id", appointmentHandler.GetByID)
	appointments.Post("/:id/cancel", appointmentHandler.Cancel)
	appointments.Post("/:id/confirm-payment", staffRoles, appointmentHandler.ConfirmPayment)
	appointments.Post("/:id/start", workshopRoles, appointmentHandler.Start)
	appointments.Post("/:id/complete", workshopRoles, appointmentHandler.Complete)
	appointments.Post("/:id/hold-parts", staffRoles, appointmentHandler.RetryParts)

	// Facturas
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.AppointmentUC, deps.Log)
	invoices := protected.Group("/invoices", staffRoles)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", invoiceHandler.GetPDF)

	// Políticas del sistema
	settingsHandler := NewSettingsHandler(deps.SettingsUC, deps.Log)
	protected.Get("/settings", workshopRoles, settingsHandler.Get)
	protected.Put("/settings", adminOnly, settingsHandler.Update)

	// Centros de servicio
	centerHandler := NewServiceCenterHandler(deps.ServiceCenterUC, deps.Log)
	centers := protected.Group("/service-centers")
	centers.Get("/", centerHandler.List)
	centers.Get("/:id", centerHandler.GetByID)
	centers.Post("/", adminOnly, centerHandler.Create)

	// Jobs programados
	adminHandler := NewAdminHandler(deps.Scheduler, deps.Log)
	jobs := protected.Group("/admin/jobs", adminOnly)
	jobs.Get("/", adminHandler.ListJobs)
	jobs.Post("/:name/run", adminHandler.RunJob)
	jobs.Post("/:name/start", adminHandler.StartJob)
	jobs.Post("/:name/stop", adminHandler.StopJob)
}
