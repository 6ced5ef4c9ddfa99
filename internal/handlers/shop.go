package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/rcn/internal/middleware"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
	"github.com/example/rcn/internal/services"
	"github.com/example/rcn/internal/utils"
)

// ShopHandler serves shop registration, lookup and reward endpoints.
type ShopHandler struct {
	db        *gorm.DB
	tokens    *services.TokenService
	referrals *services.ReferralService
	promos    *services.PromoService
}

// NewShopHandler constructs ShopHandler.
func NewShopHandler(db *gorm.DB, tokens *services.TokenService, referrals *services.ReferralService, promos *services.PromoService) *ShopHandler {
	return &ShopHandler{db: db, tokens: tokens, referrals: referrals, promos: promos}
}

type registerShopRequest struct {
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address"`
}

// Register creates a shop and returns its API key. The key is shown once;
// only the bcrypt hash is stored.
func (h *ShopHandler) Register(c *fiber.Ctx) error {
	var req registerShopRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shop name is required")
	}

	apiKey := uuid.NewString()
	keyHash, err := utils.HashPassword(apiKey)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash api key")
	}

	shop := models.Shop{
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		Active:        true,
		Verified:      false,
		APIKeyHash:    keyHash,
	}
	if err := h.db.Create(&shop).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":      shop.ID,
			"name":    shop.Name,
			"api_key": apiKey,
		},
	})
}

// Get returns a shop's public record.
func (h *ShopHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var shop models.Shop
	if err := h.db.First(&shop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "shop not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": shop})
}

type updateShopRequest struct {
	Name     *string `json:"name"`
	Active   *bool   `json:"active"`
	Verified *bool   `json:"verified"`
}

// Update changes shop flags (activation, verification).
func (h *ShopHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateShopRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Verified != nil {
		updates["verified"] = *req.Verified
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(&models.Shop{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "shop updated"})
}

type rewardRequest struct {
	CustomerAddress string `json:"customer_address"`
	RepairAmount    int64  `json:"repair_amount"`
	PromoCode       string `json:"promo_code"`
}

// Reward credits a completed repair to a customer: base reward plus tier
// bonus, both capacity-guarded. An optional promo code applies its bonus on
// top of the base reward.
func (h *ShopHandler) Reward(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req rewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.tokens.RepairReward(c.Context(), shopID, req.CustomerAddress, req.RepairAmount)
	if err != nil {
		return respondError(c, err)
	}

	data := fiber.Map{
		"base_reward": result.BaseReward.Amount,
		"tier":        result.Tier,
	}
	if result.TierBonus != nil {
		data["tier_bonus"] = result.TierBonus.Amount
	}

	// The repair credits are already committed; a failing promo reports in
	// the response instead of unwinding them.
	if req.PromoCode != "" {
		promoRes, err := h.promos.Use(c.Context(), shopID, req.PromoCode, req.CustomerAddress, result.BaseReward.Amount)
		if err != nil {
			var e *rcn.Error
			if !errors.As(err, &e) {
				return err
			}
			data["promo_error"] = e.Message
		} else {
			data["promo_bonus"] = promoRes.Bonus
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

type completeReferralRequest struct {
	CustomerAddress string `json:"customer_address"`
}

// CompleteReferral pays out a pending referral after the referee's first
// repair at the calling shop.
func (h *ShopHandler) CompleteReferral(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req completeReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.referrals.Complete(c.Context(), req.CustomerAddress, &shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"referral_id":      result.Referral.ID,
			"referrer_address": result.Referral.ReferrerAddress,
			"referee_address":  result.Referral.RefereeAddress,
			"referrer_tokens":  result.Referrer.Amount,
			"referee_tokens":   result.Referee.Amount,
		},
	})
}
