package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/evcenter-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/evcenter-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCenterID  = "00000000-0000-0000-0000-000000000002"
	otherCenterID = "00000000-0000-0000-0000-000000000003"
)

// tokenFor firma un JWT para el rol y centro dados, con prefijo Bearer.
func tokenFor(t *testing.T, role, centerID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, centerID, role, "evcenter-test", 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	return tokenFor(t, role, testCenterID)
}

func call(t *testing.T, app *fiber.App, path, auth string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRequireRole_Matriz(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		auth    func(t *testing.T) string
		status  int
		code    string
	}{
		{"admin en ruta de admin", []string{"admin"}, func(t *testing.T) string { return tokenForRole(t, "admin") }, http.StatusOK, ""},
		{"staff en ruta admin o staff", []string{"admin", "staff"}, func(t *testing.T) string { return tokenForRole(t, "staff") }, http.StatusOK, ""},
		{"cliente en ruta de admin", []string{"admin"}, func(t *testing.T) string { return tokenForRole(t, "customer") }, http.StatusForbidden, "FORBIDDEN"},
		{"técnico en ruta de staff", []string{"staff"}, func(t *testing.T) string { return tokenForRole(t, "technician") }, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, func(t *testing.T) string { return tokenFor(t, "", testCenterID) }, http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin cabecera", []string{"admin"}, func(*testing.T) string { return "" }, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"token corrupto", []string{"admin"}, func(*testing.T) string { return "Bearer token.invalido.aqui" }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"esquema distinto de Bearer", []string{"admin"}, func(*testing.T) string { return "Token abc" }, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/x", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole(tc.allowed...), func(c *fiber.Ctx) error {
				return c.SendString(apphttp.GetRole(c))
			})

			status, body := call(t, app, "/x", tc.auth(t))
			assert.Equal(t, tc.status, status, body)
			if tc.code != "" {
				assert.Contains(t, body, tc.code)
			}
		})
	}
}

func TestAuthMiddleware_OtraClaveFirmante401(t *testing.T) {
	tok, err := pkgjwt.Generate("otra-clave", testUserID, testCenterID, "admin", "evcenter-test", 60)
	require.NoError(t, err)
	app := fiber.New()
	app.Get("/x", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	status, _ := call(t, app, "/x", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthMiddleware_DejaClaimsEnLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":           apphttp.GetUserID(c),
			"service_center_id": apphttp.GetServiceCenterID(c),
			"role":              apphttp.GetRole(c),
		})
	})

	status, body := call(t, app, "/me", tokenForRole(t, "technician"))
	require.Equal(t, http.StatusOK, status)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, map[string]string{
		"user_id":           testUserID,
		"service_center_id": testCenterID,
		"role":              "technician",
	}, got)
}

func TestRequireCenterParam(t *testing.T) {
	app := fiber.New()
	app.Get("/centers/:centerId", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireCenterParam("centerId"), func(c *fiber.Ctx) error {
		return c.SendString(c.Params("centerId"))
	})

	cases := []struct {
		name   string
		auth   string
		center string
		status int
	}{
		{"staff en su centro", tokenFor(t, "staff", testCenterID), testCenterID, http.StatusOK},
		{"técnico en su centro", tokenFor(t, "technician", testCenterID), testCenterID, http.StatusOK},
		{"staff en centro ajeno", tokenFor(t, "staff", testCenterID), otherCenterID, http.StatusForbidden},
		{"admin en cualquier centro", tokenFor(t, "admin", testCenterID), otherCenterID, http.StatusOK},
		{"admin sin centro en el token", tokenFor(t, "admin", ""), otherCenterID, http.StatusOK},
		{"cliente sin centro", tokenFor(t, "customer", ""), testCenterID, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, "/centers/"+tc.center, tc.auth)
			assert.Equal(t, tc.status, status, body)
			if tc.status == http.StatusForbidden {
				assert.Contains(t, body, "FORBIDDEN")
			}
		})
	}
}
