package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrMaxDepthExceeded):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidStatus):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrOverPayment):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		body["details"] = verr.Fields
	}
	if status == fiber.StatusInternalServerError {
		middleware.GetLoggerFromCtx(c.UserContext()).Error("Request failed", slog.String("error", err.Error()))
		if !errors.Is(err, apperrors.ErrInvariantViolation) {
			body["error"] = "Internal Server Error"
		}
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
