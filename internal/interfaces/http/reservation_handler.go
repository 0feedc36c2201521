package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// ReservationHandler expone retención, liberación y consumo de repuestos (protegido).
type ReservationHandler struct {
	manager *reservation.Manager
	errs    errorMapper
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *reservation.Manager, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{manager: manager, errs: newErrorMapper(log)}
}

// Hold godoc
// @Summary      Retener repuestos para una cita
// @Description  Todo o nada: con faltantes responde 400 con la lista completa y no retiene nada.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.HoldRequest  true  "appointment_id, service_center_id, items"
// @Success      201   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ShortageErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Hold(c *fiber.Ctx) error {
	var in dto.HoldRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !centerAllowed(c, in.ServiceCenterID) {
		return forbiddenCenter(c)
	}
	items := make([]entity.ReservationItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.ReservationItem{PartID: it.PartID, Quantity: it.Quantity})
	}
	out, err := h.manager.Hold(c.Context(), reservation.HoldInput{
		AppointmentID:   in.AppointmentID,
		ServiceCenterID: in.ServiceCenterID,
		Items:           items,
		ExpiresAt:       in.ExpiresAt,
		Notes:           in.Notes,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return reservationResult(c, fiber.StatusCreated, out)
}

// Release godoc
// @Summary      Liberar una reserva retenida
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if _, ok, err := h.scoped(c); !ok {
		return err
	}
	out, err := h.manager.Release(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return reservationResult(c, fiber.StatusOK, out)
}

// Consume godoc
// @Summary      Consumir una reserva retenida
// @Description  Descuenta el stock y registra una salida en el libro por ítem.
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ConsumeErrorResponse
// @Router       /api/reservations/{id}/consume [post]
func (h *ReservationHandler) Consume(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	if _, ok, err := h.scoped(c); !ok {
		return err
	}
	out, err := h.manager.Consume(c.Context(), c.Params("id"), userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return reservationResult(c, fiber.StatusOK, out)
}

// GetByID godoc
// @Summary      Detalle de una reserva
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	res, ok, err := h.scoped(c)
	if !ok {
		return err
	}
	return c.JSON(toReservationResponse(res, res.Degraded))
}

// scoped carga la reserva del path y corta con 404/403 si no existe o es de otro centro.
// ok=false significa que la respuesta ya se escribió.
func (h *ReservationHandler) scoped(c *fiber.Ctx) (*entity.Reservation, bool, error) {
	res, err := h.manager.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, false, h.errs.respond(c, err)
	}
	if !centerAllowed(c, res.ServiceCenterID) {
		return nil, false, forbiddenCenter(c)
	}
	return res, true, nil
}

// reservationResult marca con X-Consistency: degraded las operaciones que usaron la ruta sin transacciones.
func reservationResult(c *fiber.Ctx, status int, out *reservation.Result) error {
	if out.Degraded {
		c.Set("X-Consistency", "degraded")
	}
	return c.Status(status).JSON(toReservationResponse(out.Reservation, out.Degraded))
}

func toReservationResponse(r *entity.Reservation, degraded bool) dto.ReservationResponse {
	items := make([]dto.ReservationItemDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, dto.ReservationItemDTO{PartID: it.PartID, Quantity: it.Quantity})
	}
	return dto.ReservationResponse{
		ID:              r.ID,
		AppointmentID:   r.AppointmentID,
		ServiceCenterID: r.ServiceCenterID,
		Items:           items,
		Status:          string(r.Status),
		ExpiresAt:       r.ExpiresAt,
		Notes:           r.Notes,
		Degraded:        degraded,
		CreatedAt:       r.CreatedAt,
		ReleasedAt:      r.ReleasedAt,
		ConsumedAt:      r.ConsumedAt,
	}
}

