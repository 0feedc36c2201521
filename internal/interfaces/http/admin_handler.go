package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/scheduler"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// AdminHandler control de los jobs programados (admin).
type AdminHandler struct {
	jobs *scheduler.Scheduler
	errs errorMapper
}

// NewAdminHandler construye el handler.
func NewAdminHandler(jobs *scheduler.Scheduler, log *logger.Logger) *AdminHandler {
	return &AdminHandler{jobs: jobs, errs: newErrorMapper(log)}
}

// ListJobs godoc
// @Summary      Estado de los jobs programados
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  scheduler.JobStatus
// @Router       /api/admin/jobs [get]
func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	return c.JSON(h.jobs.Status())
}

// RunJob godoc
// @Summary      Ejecutar un job ahora
// @Description  Si la ejecución falla responde 200 con last_error; 503 si el job ya está corriendo.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre del job"
// @Success      200  {object}  scheduler.JobStatus
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/admin/jobs/{name}/run [post]
func (h *AdminHandler) RunJob(c *fiber.Ctx) error {
	st, err := h.jobs.RunOnce(c.Context(), c.Params("name"))
	if err != nil && (errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBusy)) {
		return h.errs.respond(c, err)
	}
	return c.JSON(st)
}

// StartJob godoc
// @Summary      Reanudar un job
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre del job"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/admin/jobs/{name}/start [post]
func (h *AdminHandler) StartJob(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.jobs.StartJob(name); err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(fiber.Map{"job": name, "message": "job reanudado"})
}

// StopJob godoc
// @Summary      Detener un job
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre del job"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/jobs/{name}/stop [post]
func (h *AdminHandler) StopJob(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.jobs.StopJob(name); err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(fiber.Map{"job": name, "message": "job detenido"})
}
