package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "butik/internal/log"
	"butik/internal/services"
)

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireUser verifies the bearer token and stores the caller's id and role
// in request locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return fail(c, fiber.StatusUnauthorized, "access token is required")
		}
		claims, err := auth.Verify(tok)
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return fail(c, fiber.StatusForbidden, "invalid or expired token")
		}
		c.Locals("user_id", claims.Subject)
		c.Locals("user_role", claims.Role)
		return c.Next()
	}
}

// RequireAdmin verifies the bearer token and rejects non-admin callers.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return fail(c, fiber.StatusUnauthorized, "access token is required")
		}
		claims, err := auth.Verify(tok)
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return fail(c, fiber.StatusForbidden, "invalid or expired token")
		}
		if claims.Role != "admin" {
			applog.Security(c, "access.denied.admin", nil)
			return fail(c, fiber.StatusForbidden, "admin access required")
		}
		c.Locals("user_id", claims.Subject)
		c.Locals("user_role", claims.Role)
		return c.Next()
	}
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func callerRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}
