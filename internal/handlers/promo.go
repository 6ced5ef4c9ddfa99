package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rcn/internal/middleware"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/services"
)

// PromoHandler serves promo code endpoints.
type PromoHandler struct {
	promos *services.PromoService
}

// NewPromoHandler constructs PromoHandler.
func NewPromoHandler(promos *services.PromoService) *PromoHandler {
	return &PromoHandler{promos: promos}
}

type createPromoRequest struct {
	Code             string    `json:"code"`
	BonusType        string    `json:"bonus_type"`
	BonusValue       int64     `json:"bonus_value"`
	MaxBonus         *int64    `json:"max_bonus"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TotalUsageLimit  *int64    `json:"total_usage_limit"`
	PerCustomerLimit int64     `json:"per_customer_limit"`
}

// Create issues a promo code for the calling shop.
func (h *PromoHandler) Create(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPromoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	promo, err := h.promos.Create(c.Context(), shopID, services.CreatePromoInput{
		Code:             req.Code,
		BonusType:        models.BonusType(req.BonusType),
		BonusValue:       req.BonusValue,
		MaxBonus:         req.MaxBonus,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TotalUsageLimit:  req.TotalUsageLimit,
		PerCustomerLimit: req.PerCustomerLimit,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": promo})
}

// List returns the calling shop's promo codes.
func (h *PromoHandler) List(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	promos, err := h.promos.ListByShop(c.Context(), shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": promos})
}

type validatePromoRequest struct {
	Code            string `json:"code"`
	ShopID          string `json:"shop_id"`
	CustomerAddress string `json:"customer_address"`
	BaseReward      int64  `json:"base_reward"`
}

// Validate checks a promo code without consuming a use.
func (h *PromoHandler) Validate(c *fiber.Ctx) error {
	var req validatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid shop id")
	}

	result, err := h.promos.Validate(c.Context(), shopID, req.Code, req.CustomerAddress, req.BaseReward)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}

type usePromoRequest struct {
	Code            string `json:"code"`
	CustomerAddress string `json:"customer_address"`
	BaseReward      int64  `json:"base_reward"`
}

// Use consumes a promo use for the calling shop and credits the bonus.
func (h *PromoHandler) Use(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req usePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.promos.Use(c.Context(), shopID, req.Code, req.CustomerAddress, req.BaseReward)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"bonus":        result.Bonus,
			"base_reward":  result.Use.BaseReward,
			"total_reward": result.Use.TotalReward,
			"used_at":      result.Use.UsedAt,
		},
	})
}
