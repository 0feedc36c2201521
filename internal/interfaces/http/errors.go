package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// errorMapper traduce errores de dominio a respuestas HTTP. Los errores no reconocidos
// se registran y responden 500 sin exponer el detalle.
type errorMapper struct {
	log *logger.Logger
}

func newErrorMapper(log *logger.Logger) errorMapper {
	if log == nil {
		log = logger.Nop()
	}
	return errorMapper{log: log.Component("http")}
}

func (m errorMapper) respond(c *fiber.Ctx, err error) error {
	var shortage *domain.ShortageError
	if errors.As(err, &shortage) {
		out := dto.ShortageErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente para uno o más repuestos",
			Shortages: make([]dto.ShortageDTO, 0, len(shortage.Shortages)),
		}
		for _, s := range shortage.Shortages {
			out.Shortages = append(out.Shortages, dto.ShortageDTO{
				PartID: s.PartID, Required: s.Required, Available: s.Available, Reserved: s.Reserved,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(out)
	}

	var consume *domain.ConsumeError
	if errors.As(err, &consume) {
		out := dto.ConsumeErrorResponse{
			Code:     "CONSUME_FAILED",
			Message:  consume.Error(),
			Partial:  consume.Partial,
			Failures: make([]dto.ConsumeFailureDTO, 0, len(consume.Failures)),
		}
		if consume.Partial {
			out.Code = "CONSUME_PARTIAL"
		}
		for _, f := range consume.Failures {
			out.Failures = append(out.Failures, dto.ConsumeFailureDTO{PartID: f.PartID, Quantity: f.Quantity, Reason: f.Reason})
		}
		return c.Status(fiber.StatusConflict).JSON(out)
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusBadRequest, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrReservationNotHeld):
		status, code = fiber.StatusConflict, "RESERVATION_NOT_HELD"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code = fiber.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrTransactionsUnsupported):
		status, code = fiber.StatusServiceUnavailable, "TRANSACTIONS_REQUIRED"
	case errors.Is(err, domain.ErrBusy):
		status, code = fiber.StatusServiceUnavailable, "BUSY"
	}
	if status == fiber.StatusInternalServerError {
		m.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno del servidor"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func forbiddenCenter(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "centro de servicio ajeno"})
}
