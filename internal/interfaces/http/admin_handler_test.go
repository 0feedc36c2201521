package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/application/scheduler"
	"github.com/jhoicas/evcenter-api/internal/application/settings"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/evcenter-api/internal/interfaces/http"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

func newAdminApp(t *testing.T, jobs *scheduler.Scheduler) *fiber.App {
	t.Helper()
	store := memory.New(memory.Options{})
	sh := apphttp.NewSettingsHandler(settings.NewUseCase(store.Settings()), logger.Nop())
	ah := apphttp.NewAdminHandler(jobs, logger.Nop())

	app := fiber.New()
	api := app.Group("/api", apphttp.AuthMiddleware(testJWTSecret))
	api.Get("/settings", sh.Get)
	api.Put("/settings", apphttp.RequireRole("admin"), sh.Update)
	adm := api.Group("/admin/jobs", apphttp.RequireRole("admin"))
	adm.Get("/", ah.ListJobs)
	adm.Post("/:name/run", ah.RunJob)
	adm.Post("/:name/stop", ah.StopJob)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := new(bytes.Buffer)
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestSettingsHandler_DefaultsYActualizacion(t *testing.T) {
	app := newAdminApp(t, scheduler.New(time.Second, nil, logger.Nop()))

	resp, body := send(t, app, http.MethodGet, "/api/settings", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.SettingsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 30, got.PaymentWindowMinutes)
	assert.Equal(t, "EVC", got.InvoicePrefix)

	window := 45
	tax := decimal.NewFromInt(16)
	resp, body = send(t, app, http.MethodPut, "/api/settings", "admin",
		dto.UpdateSettingsRequest{PaymentWindowMinutes: &window, TaxRate: &tax})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 45, got.PaymentWindowMinutes)
	assert.True(t, got.TaxRate.Equal(tax))
	assert.Equal(t, testUserID, got.UpdatedBy)
}

func TestSettingsHandler_RangoInvalido400(t *testing.T) {
	app := newAdminApp(t, scheduler.New(time.Second, nil, logger.Nop()))

	window := 0
	resp, body := send(t, app, http.MethodPut, "/api/settings", "admin", dto.UpdateSettingsRequest{PaymentWindowMinutes: &window})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestSettingsHandler_SoloAdminActualiza(t *testing.T) {
	app := newAdminApp(t, scheduler.New(time.Second, nil, logger.Nop()))

	window := 10
	resp, _ := send(t, app, http.MethodPut, "/api/settings", "staff", dto.UpdateSettingsRequest{PaymentWindowMinutes: &window})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminHandler_RunJob(t *testing.T) {
	jobs := scheduler.New(time.Second, nil, logger.Nop())
	require.NoError(t, jobs.Register(scheduler.Job{
		Name:     "ok",
		Interval: time.Hour,
		Run:      func(context.Context, time.Time) (int, error) { return 3, nil },
	}))
	require.NoError(t, jobs.Register(scheduler.Job{
		Name:     "falla",
		Interval: time.Hour,
		Run:      func(context.Context, time.Time) (int, error) { return 0, errors.New("mongo caído") },
	}))
	app := newAdminApp(t, jobs)

	resp, body := send(t, app, http.MethodPost, "/api/admin/jobs/ok/run", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var st scheduler.JobStatus
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, int64(1), st.Runs)
	assert.Equal(t, 3, st.LastProcessed)

	resp, body = send(t, app, http.MethodPost, "/api/admin/jobs/falla/run", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, int64(1), st.Failures)
	assert.Contains(t, st.LastError, "mongo caído")

	resp, _ = send(t, app, http.MethodPost, "/api/admin/jobs/no-existe/run", "admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = send(t, app, http.MethodGet, "/api/admin/jobs", "staff", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
