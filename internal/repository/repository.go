package repository

import (
	"context"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
)

// Store groups the repositories of one backend. Repositories obtained from
// the Store passed to WithinTx operate inside that transaction.
type Store interface {
	Categories() CategoryRepository
	Products() ProductRepository
	Quotations() QuotationRepository
	ClientTransactions() ClientTransactionRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Repositories return apperrors.ErrNotFound for missing records and
// apperrors.ErrDuplicate for unique key violations.

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	NameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	// FindAll returns categories sorted by name.
	FindAll(ctx context.Context, activeOnly bool) ([]model.Category, error)
	FindByLevel(ctx context.Context, level int, activeOnly bool) ([]model.Category, error)
	FindByParent(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error)
	FindByParents(ctx context.Context, parentIDs []uuid.UUID) ([]model.Category, error)
	// CountChildren counts direct children per parent id.
	CountChildren(ctx context.Context, parentIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID]int64, error)
	Update(ctx context.Context, category *model.Category) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Page       int
	Limit      int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	// FindAll returns one page of products, newest first, and the total match count.
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	// ClearCategoryReferences nulls every product category field pointing at ids.
	ClearCategoryReferences(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type QuotationFilter struct {
	Status       model.QuotationStatus
	Search       string
	ItemCategory string
	Page         int
	Limit        int
}

type QuotationRepository interface {
	// Create persists the quotation together with any ledger entries it carries.
	Create(ctx context.Context, quotation *model.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	// FindByIDForUpdate loads the quotation and holds it against concurrent
	// writers until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByNumber(ctx context.Context, number string) (*model.Quotation, error)
	// FindAll excludes soft-deleted quotations and sorts newest first.
	FindAll(ctx context.Context, filter QuotationFilter) ([]model.Quotation, int64, error)
	Numbers(ctx context.Context) ([]string, error)
	ItemCategories(ctx context.Context) ([]string, error)
	// Save writes header, items and payments. Ledger entries are only ever appended.
	Save(ctx context.Context, quotation *model.Quotation) error
	AppendEntry(ctx context.Context, quotationID uuid.UUID, entry *model.LedgerEntry) error
	// NextSequence atomically increments and returns the counter of a financial year.
	NextSequence(ctx context.Context, financialYear int) (int64, error)
}

type ClientTransactionRepository interface {
	Create(ctx context.Context, tx *model.ClientTransaction) error
	// FindByQuotation returns the transactions of a quotation, newest first.
	FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error)
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}
