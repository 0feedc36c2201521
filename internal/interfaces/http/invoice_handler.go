package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/billing"
	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// appointmentGetter lectura de citas para validar el centro antes de facturar.
type appointmentGetter interface {
	Get(ctx context.Context, id string) (*entity.Appointment, error)
}

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc           *billing.UseCase
	appointments appointmentGetter
	errs         errorMapper
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.UseCase, appointments appointmentGetter, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, appointments: appointments, errs: newErrorMapper(log)}
}

// Create godoc
// @Summary      Facturar una cita completada
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "appointment_id"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	appt, err := h.appointments.Get(c.Context(), in.AppointmentID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	if !centerAllowed(c, appt.ServiceCenterID) {
		return forbiddenCenter(c)
	}
	invoice, err := h.uc.CreateForAppointment(c.Context(), in.AppointmentID, userID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInvoiceResponse(invoice))
}

// GetByID godoc
// @Summary      Detalle de una factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	invoice, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	if !centerAllowed(c, invoice.ServiceCenterID) {
		return forbiddenCenter(c)
	}
	return c.JSON(toInvoiceResponse(invoice))
}

// GetPDF godoc
// @Summary      Representación gráfica de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetPDF(c *fiber.Ctx) error {
	invoice, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	if !centerAllowed(c, invoice.ServiceCenterID) {
		return forbiddenCenter(c)
	}
	pdf, filename, err := h.uc.PDF(c.Context(), invoice.ID)
	if err != nil {
		return h.errs.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

func toInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	lines := make([]dto.InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, dto.InvoiceLineResponse{
			Kind:        l.Kind,
			PartID:      l.PartID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return dto.InvoiceResponse{
		ID:              inv.ID,
		AppointmentID:   inv.AppointmentID,
		ServiceCenterID: inv.ServiceCenterID,
		CustomerID:      inv.CustomerID,
		CustomerName:    inv.CustomerName,
		Prefix:          inv.Prefix,
		Number:          inv.Number,
		Date:            inv.Date,
		NetTotal:        inv.NetTotal,
		TaxRate:         inv.TaxRate,
		TaxTotal:        inv.TaxTotal,
		GrandTotal:      inv.GrandTotal,
		IssuedBy:        inv.IssuedBy,
		Lines:           lines,
	}
}
