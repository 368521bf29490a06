package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

const identityContextKey = "currentIdentity"

// Identity is the verified caller stored in request locals by AuthMiddleware.
type Identity struct {
	UserID uint
	Role   models.Role
}

// Actor converts the identity into the service-layer caller.
func (i Identity) Actor() services.Actor {
	return services.Actor{UserID: i.UserID, Role: i.Role}
}

// AuthMiddleware validates JWT tokens and loads the caller's identity into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseToken(cfg.JWTSecret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(identityContextKey, Identity{UserID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

// AdminOnly rejects callers whose token does not carry the admin role.
// It must run after AuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if identity.Role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// CurrentIdentity extracts the authenticated identity from context.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityContextKey).(Identity)
	return identity, ok
}

// CurrentActor is CurrentIdentity converted for service calls.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		return services.Actor{}, false
	}
	return identity.Actor(), true
}
