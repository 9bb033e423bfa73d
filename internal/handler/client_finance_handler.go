package handler

import (
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ClientFinanceHandler struct {
	service service.ClientFinanceService
}

func NewClientFinanceHandler(s service.ClientFinanceService) *ClientFinanceHandler {
	return &ClientFinanceHandler{service: s}
}

func (h *ClientFinanceHandler) AddTransaction(c *fiber.Ctx) error {
	var req service.ClientTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	tx, err := h.service.AddTransaction(c.UserContext(), req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

func (h *ClientFinanceHandler) GetTransactions(c *fiber.Ctx) error {
	id, err := paramID(c, "quotationId")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	txs, err := h.service.ListByQuotation(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": txs})
}

func (h *ClientFinanceHandler) GetSummary(c *fiber.Ctx) error {
	id, err := paramID(c, "quotationId")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	summary, err := h.service.Summary(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": summary})
}
