package handler

import (
	"context"

	"backoffice-api/internal/middleware"
	"backoffice-api/internal/model"
	"backoffice-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QuotationHandler struct {
	quotations service.QuotationService
	ledger     service.LedgerService
}

func NewQuotationHandler(q service.QuotationService, l service.LedgerService) *QuotationHandler {
	return &QuotationHandler{quotations: q, ledger: l}
}

func (h *QuotationHandler) CreateQuotation(c *fiber.Ctx) error {
	var req service.CreateQuotationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	q, err := h.quotations.Create(c.UserContext(), req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Quotation created", "data": q})
}

type addProductsRequest struct {
	Items []model.QuotationItem `json:"items"`
}

func (h *QuotationHandler) AddProducts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	var req addProductsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	q, err := h.quotations.AddProducts(c.UserContext(), id, req.Items, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Products updated", "data": q})
}

func (h *QuotationHandler) AddFinancialDetails(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	var req service.FinancialDetails
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	q, err := h.quotations.AddFinancialDetails(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Financial details updated", "data": q})
}

// transition adapts a status change that only needs the quotation id.
func (h *QuotationHandler) transition(message string, fn func(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return badRequest(c, "Invalid quotation ID")
		}
		q, err := fn(c.UserContext(), id, middleware.ActorFrom(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"message": message, "data": q})
	}
}

func (h *QuotationHandler) Finalize() fiber.Handler {
	return h.transition("Quotation finalized", h.quotations.Finalize)
}

func (h *QuotationHandler) Approve() fiber.Handler {
	return h.transition("Quotation approved", h.quotations.Approve)
}

func (h *QuotationHandler) Reject() fiber.Handler {
	return h.transition("Quotation rejected", h.quotations.Reject)
}

func (h *QuotationHandler) UpdateQuotation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	var req service.UpdateQuotationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	q, err := h.quotations.Update(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quotation updated", "data": q})
}

func (h *QuotationHandler) DeleteQuotation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	if err := h.quotations.Delete(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quotation deleted"})
}

func (h *QuotationHandler) GetQuotation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	q, err := h.quotations.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": q})
}

// GetQuotations supports ?status=, ?search=, ?category=, ?page= and ?limit=.
func (h *QuotationHandler) GetQuotations(c *fiber.Ctx) error {
	page, err := h.quotations.List(c.UserContext(), service.QuotationListRequest{
		Status:       model.QuotationStatus(c.Query("status")),
		Search:       c.Query("search"),
		ItemCategory: c.Query("category"),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 20),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": page})
}

func (h *QuotationHandler) GetItemCategories(c *fiber.Ctx) error {
	categories, err := h.quotations.ItemCategories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": categories})
}

func (h *QuotationHandler) GetNumbers(c *fiber.Ctx) error {
	numbers, err := h.quotations.Numbers(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": numbers})
}

func (h *QuotationHandler) AddPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	q, err := h.ledger.ApplyPayment(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Payment recorded", "data": q})
}

func (h *QuotationHandler) AddTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid quotation ID")
	}
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	entry, err := h.ledger.AppendTransaction(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": entry})
}
