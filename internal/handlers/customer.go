package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/rcn/internal/middleware"
	"github.com/example/rcn/internal/models"
	"github.com/example/rcn/internal/services"
	"github.com/example/rcn/internal/utils"
)

// CustomerHandler serves customer profile, balance and history endpoints.
type CustomerHandler struct {
	db     *gorm.DB
	tokens *services.TokenService
}

// NewCustomerHandler constructs CustomerHandler.
func NewCustomerHandler(db *gorm.DB, tokens *services.TokenService) *CustomerHandler {
	return &CustomerHandler{db: db, tokens: tokens}
}

// Me returns the authenticated customer's profile with derived balances.
func (h *CustomerHandler) Me(c *fiber.Ctx) error {
	address, ok := middleware.GetCurrentCustomer(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var customer models.Customer
	if err := h.db.First(&customer, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return err
	}

	balance, err := h.tokens.Balances(c.Context(), address)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"address":           customer.Address,
			"name":              customer.Name,
			"email":             customer.Email,
			"tier":              customer.Tier,
			"lifetime_earnings": customer.LifetimeEarnings,
			"daily_earnings":    customer.DailyEarnings,
			"monthly_earnings":  customer.MonthlyEarnings,
			"home_shop_id":      customer.HomeShopID,
			"referral_code":     customer.ReferralCode,
			"earned_balance":    balance.EarnedBalance,
			"total_balance":     balance.TotalBalance,
			"market_balance":    balance.MarketBalance,
		},
	})
}

// EarnedBalance returns the earned/total/market breakdown for an address.
func (h *CustomerHandler) EarnedBalance(c *fiber.Ctx) error {
	balance, err := h.tokens.Balances(c.Context(), c.Params("address"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": balance})
}

// ListTransactions returns the customer's audit trail, newest first.
func (h *CustomerHandler) ListTransactions(c *fiber.Ctx) error {
	address, ok := middleware.GetCurrentCustomer(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("customer_address = ?", address).Model(&models.Transaction{})

	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Transaction
	if err := query.Order("timestamp desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type giftRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

// Gift transfers tokens to another customer. The received tokens are
// recorded as non-redeemable provenance.
func (h *CustomerHandler) Gift(c *fiber.Ctx) error {
	address, ok := middleware.GetCurrentCustomer(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req giftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.tokens.Gift(c.Context(), address, req.To, req.Amount, req.Note)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"transaction_id": result.Source.TransactionID,
			"to":             result.Source.CustomerAddress,
			"amount":         result.Source.Amount,
			"is_redeemable":  result.Source.IsRedeemable,
		},
	})
}
