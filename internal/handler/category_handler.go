package handler

import (
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	service service.CategoryService
}

func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategorySpec
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	category, err := h.service.CreateCategory(c.UserContext(), req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Category created", "data": category})
}

type bulkCategoryRequest struct {
	Categories []service.CategorySpec `json:"categories"`
}

// CreateBulk answers 201 when every entry was created and 207 when some failed.
func (h *CategoryHandler) CreateBulk(c *fiber.Ctx) error {
	var req bulkCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.service.CreateBulk(c.UserContext(), req.Categories, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if len(result.Errors) > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"message": "Bulk create finished", "data": result})
}

type addChildrenRequest struct {
	Subcategories []service.CategorySpec `json:"subcategories"`
}

func (h *CategoryHandler) AddChildren(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	var req addChildrenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	children, err := h.service.AddChildren(c.UserContext(), id, req.Subcategories, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Subcategories added", "data": children})
}

func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	var req service.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	category, err := h.service.Rename(c.UserContext(), id, req, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}

	result, err := h.service.DeleteCategory(c.UserContext(), id, middleware.ActorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted", "data": result})
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	tree, err := h.service.ListTree(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": tree})
}

func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	category, err := h.service.GetCategory(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": category})
}

func (h *CategoryHandler) GetChildren(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid category ID")
	}
	children, err := h.service.ListByParent(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": children})
}

func (h *CategoryHandler) GetParents(c *fiber.Ctx) error {
	parents, err := h.service.ListParents(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": parents})
}

func (h *CategoryHandler) GetDropdown(c *fiber.Ctx) error {
	options, err := h.service.Dropdown(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": options})
}
