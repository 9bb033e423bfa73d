package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Categories    *CategoryHandler
	Products      *ProductHandler
	Quotations    *QuotationHandler
	ClientFinance *ClientFinanceHandler
}

// RegisterRoutes mounts every API route below api. Static segments are
// registered before their :id siblings.
func RegisterRoutes(api fiber.Router, h Handlers) {
	categories := api.Group("/categories")
	categories.Get("/", h.Categories.GetCategories)
	categories.Get("/parents", h.Categories.GetParents)
	categories.Get("/dropdown", h.Categories.GetDropdown)
	categories.Post("/", h.Categories.CreateCategory)
	categories.Post("/bulk", h.Categories.CreateBulk)
	categories.Get("/:id", h.Categories.GetCategory)
	categories.Get("/:id/children", h.Categories.GetChildren)
	categories.Post("/:id/children", h.Categories.AddChildren)
	categories.Put("/:id", h.Categories.UpdateCategory)
	categories.Delete("/:id", h.Categories.DeleteCategory)

	products := api.Group("/products")
	products.Get("/", h.Products.GetProducts)
	products.Post("/", h.Products.CreateProduct)
	products.Post("/assets", h.Products.UploadAsset)
	products.Get("/:id", h.Products.GetProduct)
	products.Put("/:id", h.Products.UpdateProduct)
	products.Delete("/:id", h.Products.DeleteProduct)

	quotations := api.Group("/quotations")
	quotations.Get("/", h.Quotations.GetQuotations)
	quotations.Get("/categories", h.Quotations.GetItemCategories)
	quotations.Get("/numbers", h.Quotations.GetNumbers)
	quotations.Post("/", h.Quotations.CreateQuotation)
	quotations.Get("/:id", h.Quotations.GetQuotation)
	quotations.Put("/:id", h.Quotations.UpdateQuotation)
	quotations.Delete("/:id", h.Quotations.DeleteQuotation)
	quotations.Post("/:id/products", h.Quotations.AddProducts)
	quotations.Post("/:id/financial", h.Quotations.AddFinancialDetails)
	quotations.Post("/:id/finalize", h.Quotations.Finalize())
	quotations.Patch("/:id/approve", h.Quotations.Approve())
	quotations.Patch("/:id/reject", h.Quotations.Reject())
	quotations.Post("/:id/payments", h.Quotations.AddPayment)
	quotations.Post("/:id/transactions", h.Quotations.AddTransaction)

	finance := api.Group("/client-finance")
	finance.Post("/transactions", h.ClientFinance.AddTransaction)
	finance.Get("/transactions/:quotationId", h.ClientFinance.GetTransactions)
	finance.Get("/summary/:quotationId", h.ClientFinance.GetSummary)
}
