package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/rcn/internal/rcn"
)

// respondError maps engine business errors to structured HTTP responses.
// Infrastructure errors pass through to the fiber error handler as 500s.
func respondError(c *fiber.Ctx, err error) error {
	var e *rcn.Error
	if !errors.As(err, &e) {
		return err
	}

	body := fiber.Map{
		"success": false,
		"error":   string(e.Kind),
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return c.Status(statusFor(e.Kind)).JSON(body)
}

func statusFor(kind rcn.Kind) int {
	switch kind {
	case rcn.KindNotFound:
		return fiber.StatusNotFound
	case rcn.KindConflict:
		return fiber.StatusConflict
	case rcn.KindLimitExceeded:
		return fiber.StatusUnprocessableEntity
	case rcn.KindExpiredState:
		return fiber.StatusGone
	case rcn.KindUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}
