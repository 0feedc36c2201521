package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/application/servicecenter"
	"github.com/jhoicas/evcenter-api/internal/application/settings"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// SettingsHandler expone las políticas del sistema.
type SettingsHandler struct {
	uc   *settings.UseCase
	errs errorMapper
}

// NewSettingsHandler construye el handler.
func NewSettingsHandler(uc *settings.UseCase, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{uc: uc, errs: newErrorMapper(log)}
}

// Get godoc
// @Summary      Políticas vigentes
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SettingsResponse
// @Router       /api/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.Get(c.Context())
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toSettingsResponse(s))
}

// Update godoc
// @Summary      Actualizar políticas (admin)
// @Description  Los campos ausentes conservan su valor.
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateSettingsRequest  true  "cambios parciales"
// @Success      200   {object}  dto.SettingsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.uc.Update(c.Context(), settings.UpdateInput{
		UpfrontPaymentRequired: in.UpfrontPaymentRequired,
		PaymentWindowMinutes:   in.PaymentWindowMinutes,
		AutoCancelEnabled:      in.AutoCancelEnabled,
		ReminderLeadHours:      in.ReminderLeadHours,
		BackorderLeadTimeDays:  in.BackorderLeadTimeDays,
		ReservationHoldHours:   in.ReservationHoldHours,
		TaxRate:                in.TaxRate,
		InvoicePrefix:          in.InvoicePrefix,
	}, GetUserID(c))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toSettingsResponse(s))
}

func toSettingsResponse(s entity.SystemSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		UpfrontPaymentRequired: s.UpfrontPaymentRequired,
		PaymentWindowMinutes:   s.PaymentWindowMinutes,
		AutoCancelEnabled:      s.AutoCancelEnabled,
		ReminderLeadHours:      s.ReminderLeadHours,
		BackorderLeadTimeDays:  s.BackorderLeadTimeDays,
		ReservationHoldHours:   s.ReservationHoldHours,
		TaxRate:                s.TaxRate,
		InvoicePrefix:          s.InvoicePrefix,
		UpdatedAt:              s.UpdatedAt,
		UpdatedBy:              s.UpdatedBy,
	}
}

// ServiceCenterHandler alta y consulta de centros de servicio.
type ServiceCenterHandler struct {
	uc   *servicecenter.UseCase
	errs errorMapper
}

// NewServiceCenterHandler construye el handler.
func NewServiceCenterHandler(uc *servicecenter.UseCase, log *logger.Logger) *ServiceCenterHandler {
	return &ServiceCenterHandler{uc: uc, errs: newErrorMapper(log)}
}

// Create godoc
// @Summary      Crear centro de servicio (admin)
// @Tags         service-centers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateServiceCenterRequest  true  "name, address, phone, email"
// @Success      201   {object}  dto.ServiceCenterResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/service-centers [post]
func (h *ServiceCenterHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateServiceCenterRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sc, err := h.uc.Create(c.Context(), servicecenter.CreateInput{
		Name:    in.Name,
		Address: in.Address,
		Phone:   in.Phone,
		Email:   in.Email,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toServiceCenterResponse(sc))
}

// List godoc
// @Summary      Listar centros de servicio
// @Tags         service-centers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ServiceCenterResponse
// @Router       /api/service-centers [get]
func (h *ServiceCenterHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context())
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := make([]dto.ServiceCenterResponse, 0, len(list))
	for _, sc := range list {
		out = append(out, toServiceCenterResponse(sc))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de un centro de servicio
// @Tags         service-centers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del centro"
// @Success      200  {object}  dto.ServiceCenterResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/service-centers/{id} [get]
func (h *ServiceCenterHandler) GetByID(c *fiber.Ctx) error {
	sc, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toServiceCenterResponse(sc))
}

func toServiceCenterResponse(sc *entity.ServiceCenter) dto.ServiceCenterResponse {
	return dto.ServiceCenterResponse{
		ID:        sc.ID,
		Name:      sc.Name,
		Address:   sc.Address,
		Phone:     sc.Phone,
		Email:     sc.Email,
		Active:    sc.Active,
		CreatedAt: sc.CreatedAt,
	}
}
