package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/jwt"
)

// Locals keys para los claims del token en Fiber.
const (
	LocalUserID          = "user_id"
	LocalServiceCenterID = "service_center_id"
	LocalRole            = "role"
)

// AuthMiddleware valida el Bearer Token JWT y deja user_id, service_center_id y role en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalServiceCenterID, claims.ServiceCenterID)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequireRole permite el paso solo a los roles indicados. Debe ir después de AuthMiddleware.
//   - 401 MISSING_ROLE si el token no trae rol.
//   - 403 FORBIDDEN si el rol no está en la lista.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if _, ok := allowed[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
		}
		return c.Next()
	}
}

// RequireCenterParam corta con 403 si el centro del path (param) no es el del token.
// Admin pasa siempre. Debe ir después de AuthMiddleware.
func RequireCenterParam(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !centerAllowed(c, c.Params(param)) {
			return forbiddenCenter(c)
		}
		return c.Next()
	}
}

// centerAllowed: admin opera sobre cualquier centro; el resto solo sobre el centro de su token.
// Un token sin centro (cliente) no tiene alcance sobre ninguno.
func centerAllowed(c *fiber.Ctx, centerID string) bool {
	if GetRole(c) == entity.RoleAdmin {
		return true
	}
	own := GetServiceCenterID(c)
	return own != "" && own == centerID
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetServiceCenterID devuelve el centro de servicio del token; vacío para clientes y admins globales.
func GetServiceCenterID(c *fiber.Ctx) string {
	return localString(c, LocalServiceCenterID)
}

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
