package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/rcn/internal/config"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/rcn"
	"github.com/example/rcn/internal/services"
	"github.com/example/rcn/internal/utils"
)

// AuthHandler bundles dependencies for customer authentication endpoints.
type AuthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	referrals *services.ReferralService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, referrals *services.ReferralService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, referrals: referrals}
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a new customer account keyed by wallet address.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Password == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	address, err := rcn.NormalizeAddress(req.Address)
	if err != nil {
		return respondError(c, err)
	}

	var existing models.Customer
	if err := h.db.Where("address = ?", address).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "customer already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	customer := models.Customer{
		Address:      address,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Tier:         string(rcn.TierBronze),
		ReferralCode: utils.NewReferralCode(),
		Active:       true,
	}
	if err := h.db.Create(&customer).Error; err != nil {
		return err
	}

	if req.ReferralCode != "" {
		if _, err := h.referrals.Register(c.Context(), req.ReferralCode, address); err != nil {
			return respondError(c, err)
		}
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, address, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"address":       customer.Address,
			"tier":          customer.Tier,
			"referral_code": customer.ReferralCode,
			"token":         token,
		},
	})
}

type loginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Login authenticates a customer and returns a JWT.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	address, err := rcn.NormalizeAddress(req.Address)
	if err != nil {
		return respondError(c, err)
	}

	var customer models.Customer
	if err := h.db.Where("address = ?", address).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !customer.Active {
		return fiber.NewError(fiber.StatusUnauthorized, "account is deactivated")
	}

	if !utils.CheckPassword(customer.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, address, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"token": token, "address": address},
	})
}
