package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/utils"
)

const customerContextKey = "currentCustomerAddress"

// AuthMiddleware validates JWT tokens and loads the authenticated customer
// address into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		address, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(customerContextKey, address)
		return c.Next()
	}
}

// GetCurrentCustomer extracts the authenticated customer address from context.
func GetCurrentCustomer(c *fiber.Ctx) (string, bool) {
	value := c.Locals(customerContextKey)
	if value == nil {
		return "", false
	}

	if address, ok := value.(string); ok && address != "" {
		return address, true
	}

	return "", false
}
