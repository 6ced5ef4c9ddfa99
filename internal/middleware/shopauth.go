package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/utils"
)

const shopContextKey = "currentShopID"

// ShopAuthMiddleware authenticates a shop by its id and API key headers and
// loads the shop ID into context. Inactive shops are rejected here; the
// verifier re-checks active/verified on the redemption path as well.
func ShopAuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID, err := uuid.Parse(c.Get("X-Shop-ID"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid shop id")
		}

		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing api key")
		}

		var shop models.Shop
		if err := db.First(&shop, "id = ?", shopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unknown shop")
			}
			return err
		}

		if !shop.Active {
			return fiber.NewError(fiber.StatusUnauthorized, "shop is deactivated")
		}

		if !utils.CheckPassword(shop.APIKeyHash, apiKey) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
		}

		c.Locals(shopContextKey, shop.ID)
		return c.Next()
	}
}

// GetCurrentShop extracts the authenticated shop ID from context.
func GetCurrentShop(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(shopContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
