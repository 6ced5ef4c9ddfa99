package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rcn/internal/middleware"
	"github.com/example/rcn/internal/services"
)

// RedemptionHandler serves the verifier and session endpoints.
type RedemptionHandler struct {
	tokens   *services.TokenService
	sessions *services.SessionService
}

// NewRedemptionHandler constructs RedemptionHandler.
func NewRedemptionHandler(tokens *services.TokenService, sessions *services.SessionService) *RedemptionHandler {
	return &RedemptionHandler{tokens: tokens, sessions: sessions}
}

type verifyRequest struct {
	CustomerAddress string `json:"customer_address"`
	ShopID          string `json:"shop_id"`
	Amount          int64  `json:"amount"`
}

// Verify returns the redemption decision without side effects.
func (h *RedemptionHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid shop id")
	}

	decision, err := h.tokens.Verify(c.Context(), req.CustomerAddress, shopID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": decision})
}

type createSessionRequest struct {
	CustomerAddress string `json:"customer_address"`
	Amount          int64  `json:"amount"`
}

// CreateSession opens a pending redemption session for the calling shop.
func (h *RedemptionHandler) CreateSession(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.sessions.Create(c.Context(), shopID, req.CustomerAddress, req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": session})
}

type approveRequest struct {
	Signature string `json:"signature"`
}

// ApproveSession records the customer's approval signature.
func (h *RedemptionHandler) ApproveSession(c *fiber.Ctx) error {
	address, ok := middleware.GetCurrentCustomer(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.sessions.Approve(c.Context(), id, address, req.Signature)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}

// RejectSession lets the customer decline a pending session.
func (h *RedemptionHandler) RejectSession(c *fiber.Ctx) error {
	address, ok := middleware.GetCurrentCustomer(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.sessions.Reject(c.Context(), id, address)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}

// UseSession completes an approved session and debits the ledger.
func (h *RedemptionHandler) UseSession(c *fiber.Ctx) error {
	shopID, ok := middleware.GetCurrentShop(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.sessions.Use(c.Context(), id, shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}

// GetSession returns a session by id.
func (h *RedemptionHandler) GetSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.sessions.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}
