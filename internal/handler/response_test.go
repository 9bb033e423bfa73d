package handler

import (
	"errors"
	"fmt"
	"testing"

	"backoffice-api/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.Wrap(apperrors.ErrNotFound, "quotation x"), fiber.StatusNotFound},
		{fmt.Errorf("create category: %w", apperrors.ErrDuplicate), fiber.StatusConflict},
		{apperrors.Invalid("amount", "must be positive"), fiber.StatusBadRequest},
		{apperrors.Wrap(apperrors.ErrMaxDepthExceeded, "level 3"), fiber.StatusBadRequest},
		{apperrors.Wrap(apperrors.ErrInvalidStatus, "Draft"), fiber.StatusConflict},
		{apperrors.Wrap(apperrors.ErrOverPayment, "10 over"), fiber.StatusUnprocessableEntity},
		{apperrors.Wrap(apperrors.ErrInvariantViolation, "balance"), fiber.StatusInternalServerError},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
