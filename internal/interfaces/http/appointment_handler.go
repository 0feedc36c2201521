package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/appointment"
	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// AppointmentHandler maneja el ciclo de vida de las citas (protegido).
type AppointmentHandler struct {
	uc   *appointment.UseCase
	errs errorMapper
}

// NewAppointmentHandler construye el handler.
func NewAppointmentHandler(uc *appointment.UseCase, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{uc: uc, errs: newErrorMapper(log)}
}

// Create godoc
// @Summary      Agendar cita
// @Description  Retiene los repuestos indicados; si faltan, la cita queda con parts_status=backordered.
// @Tags         appointments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAppointmentRequest  true  "service_center_id, vehicle_vin, service_type, scheduled_at, parts"
// @Success      201   {object}  dto.AppointmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAppointmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	switch GetRole(c) {
	case entity.RoleCustomer:
		in.CustomerID = GetUserID(c)
	case entity.RoleAdmin:
	default:
		if !centerAllowed(c, in.ServiceCenterID) {
			return forbiddenCenter(c)
		}
	}
	parts := make([]entity.ReservationItem, 0, len(in.Parts))
	for _, p := range in.Parts {
		parts = append(parts, entity.ReservationItem{PartID: p.PartID, Quantity: p.Quantity})
	}
	a, err := h.uc.Create(c.Context(), appointment.CreateInput{
		CustomerID:      in.CustomerID,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		ServiceCenterID: in.ServiceCenterID,
		VehicleVIN:      in.VehicleVIN,
		VehicleModel:    in.VehicleModel,
		ServiceType:     in.ServiceType,
		ScheduledAt:     in.ScheduledAt,
		ServiceFee:      in.ServiceFee,
		Parts:           parts,
		Notes:           in.Notes,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAppointmentResponse(a))
}

// List godoc
// @Summary      Listar citas
// @Description  Los clientes ven solo sus citas; el personal, las de su centro.
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        status             query  string  false  "Estado"
// @Param        service_center_id  query  string  false  "Centro (solo admin)"
// @Param        limit              query  int     false  "Máx. 100"
// @Param        offset             query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.AppointmentListResponse
// @Router       /api/appointments [get]
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	f := repository.AppointmentFilter{
		Status:          c.Query("status"),
		ServiceCenterID: c.Query("service_center_id"),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}
	switch GetRole(c) {
	case entity.RoleCustomer:
		f.CustomerID = GetUserID(c)
	case entity.RoleAdmin:
	default:
		f.ServiceCenterID = GetServiceCenterID(c)
	}

	items, total, err := h.uc.List(c.Context(), f)
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := dto.AppointmentListResponse{
		Items: make([]dto.AppointmentResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: int(total)},
	}
	for _, a := range items {
		out.Items = append(out.Items, toAppointmentResponse(a))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de una cita
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cita"
// @Success      200  {object}  dto.AppointmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/appointments/{id} [get]
func (h *AppointmentHandler) GetByID(c *fiber.Ctx) error {
	a, ok, err := h.scoped(c, c.Params("id"))
	if !ok {
		return err
	}
	return c.JSON(toAppointmentResponse(a))
}

// ConfirmPayment godoc
// @Summary      Confirmar pago anticipado
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cita"
// @Success      200  {object}  dto.AppointmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/appointments/{id}/confirm-payment [post]
func (h *AppointmentHandler) ConfirmPayment(c *fiber.Ctx) error {
	if _, ok, err := h.scoped(c, c.Params("id")); !ok {
		return err
	}
	a, err := h.uc.ConfirmPayment(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toAppointmentResponse(a))
}

// Start godoc
// @Summary      Iniciar el servicio
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cita"
// @Success      200  {object}  dto.AppointmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/appointments/{id}/start [post]
func (h *AppointmentHandler) Start(c *fiber.Ctx) error {
	if _, ok, err := h.scoped(c, c.Params("id")); !ok {
		return err
	}
	a, err := h.uc.Start(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toAppointmentResponse(a))
}

// Cancel godoc
// @Summary      Cancelar cita
// @Description  Libera la reserva de repuestos si sigue retenida.
// @Tags         appointments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true   "ID de la cita"
// @Param        body  body  dto.CancelAppointmentRequest  false  "reason"
// @Success      200   {object}  dto.AppointmentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelAppointmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	id := c.Params("id")
	if _, ok, err := h.scoped(c, id); !ok {
		return err
	}
	a, err := h.uc.Cancel(c.Context(), id, in.Reason)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toAppointmentResponse(a))
}

// Complete godoc
// @Summary      Completar cita
// @Description  Consume la reserva; si el consumo falla la cita sigue en curso y responde 409.
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cita"
// @Success      200  {object}  dto.AppointmentResponse
// @Failure      409  {object}  dto.ConsumeErrorResponse
// @Router       /api/appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *fiber.Ctx) error {
	if _, ok, err := h.scoped(c, c.Params("id")); !ok {
		return err
	}
	a, err := h.uc.Complete(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toAppointmentResponse(a))
}

// RetryParts godoc
// @Summary      Reintentar la retención de repuestos
// @Tags         appointments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la cita"
// @Success      200  {object}  dto.AppointmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/appointments/{id}/hold-parts [post]
func (h *AppointmentHandler) RetryParts(c *fiber.Ctx) error {
	if _, ok, err := h.scoped(c, c.Params("id")); !ok {
		return err
	}
	a, err := h.uc.RetryParts(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toAppointmentResponse(a))
}

// scoped carga la cita y corta con 404/403 si no existe o queda fuera del alcance del token.
// ok=false significa que la respuesta ya se escribió.
func (h *AppointmentHandler) scoped(c *fiber.Ctx, id string) (*entity.Appointment, bool, error) {
	a, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return nil, false, h.errs.respond(c, err)
	}
	if !canSeeAppointment(c, a) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado a la cita"})
	}
	return a, true, nil
}

func canSeeAppointment(c *fiber.Ctx, a *entity.Appointment) bool {
	switch GetRole(c) {
	case entity.RoleAdmin:
		return true
	case entity.RoleCustomer:
		return a.CustomerID != "" && a.CustomerID == GetUserID(c)
	default:
		return centerAllowed(c, a.ServiceCenterID)
	}
}

func toAppointmentResponse(a *entity.Appointment) dto.AppointmentResponse {
	parts := make([]dto.ReservationItemDTO, 0, len(a.Parts))
	for _, p := range a.Parts {
		parts = append(parts, dto.ReservationItemDTO{PartID: p.PartID, Quantity: p.Quantity})
	}
	return dto.AppointmentResponse{
		ID:              a.ID,
		CustomerID:      a.CustomerID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		ServiceCenterID: a.ServiceCenterID,
		VehicleVIN:      a.VehicleVIN,
		VehicleModel:    a.VehicleModel,
		ServiceType:     a.ServiceType,
		ScheduledAt:     a.ScheduledAt,
		Status:          a.Status,
		PaymentStatus:   a.PaymentStatus,
		ServiceFee:      a.ServiceFee,
		Parts:           parts,
		ReservationID:   a.ReservationID,
		PartsStatus:     a.PartsStatus,
		CancelReason:    a.CancelReason,
		Notes:           a.Notes,
		CancelledAt:     a.CancelledAt,
		CompletedAt:     a.CompletedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
