package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoicing-api/internal/application/auth"
	"github.com/jhoicas/invoicing-api/internal/application/dto"
	"github.com/jhoicas/invoicing-api/internal/domain"
)

// Locals keys para UserID y TenantID en Fiber.
const (
	LocalUserID   = "user_id"
	LocalTenantID = "tenant_id"
)

// SessionValidator valida un token de sesión y devuelve el usuario y su tenant.
type SessionValidator interface {
	Session(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware acepta Bearer Token o la cookie de sesión. El tenant del token se revalida en
// cada petición: un tenant borrado invalida las sesiones emitidas.
func AuthMiddleware(sessions SessionValidator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := sessionToken(c, cookieName)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header o cookie de sesión requeridos"})
		}
		sess, err := sessions.Session(c.UserContext(), token)
		if err != nil {
			c.Locals(LocalError, err)
			status, _, _ := errorStatus(err)
			if status != fiber.StatusUnauthorized {
				return fail(c, err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, sess.UserID)
		c.Locals(LocalTenantID, sess.TenantID)
		return c.Next()
	}
}

// sessionToken extrae el token del header Authorization; sin header, de la cookie.
// Un header presente con formato incorrecto es un error aunque exista la cookie.
func sessionToken(c *fiber.Ctx, cookieName string) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", domain.ErrUnauthorized
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName == "" {
		return "", nil
	}
	return strings.TrimSpace(c.Cookies(cookieName)), nil
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetTenantID devuelve el TenantID del contexto (después del middleware de auth).
func GetTenantID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalTenantID).(string)
	return s
}

// requestTenant el tenant de la sesión. Un tenantId en la query es opcional, pero si viene debe
// coincidir: otro valor responde como recurso inexistente.
func requestTenant(c *fiber.Ctx) (string, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return "", domain.ErrUnauthorized
	}
	if q := strings.TrimSpace(c.Query("tenantId")); q != "" && q != tenantID {
		return "", domain.ErrNotFound
	}
	return tenantID, nil
}
