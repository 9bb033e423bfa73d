package handler

import (
	"strings"

	"backoffice-api/internal/middleware"
	"backoffice-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Create(c.UserContext(), req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.Update(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": product})
}

// GetProducts supports ?search=, ?category=<id>, ?page= and ?limit=.
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	req := service.ProductListRequest{
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid category ID")
		}
		req.CategoryID = &id
	}

	page, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": page})
}

// UploadAsset stores the multipart "file" field and returns its key.
func (h *ProductHandler) UploadAsset(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing file")
	}
	f, err := header.Open()
	if err != nil {
		return badRequest(c, "Unreadable file")
	}
	defer f.Close()

	asset, err := h.service.Upload(c.UserContext(), header.Filename, f, header.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "File uploaded", "data": asset})
}
