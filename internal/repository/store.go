package repository

import (
	"context"
	"errors"
	"fmt"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns the postgres backed Store. The gorm.DB must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Categories() CategoryRepository { return NewCategoryRepo(s.db) }

func (s *gormStore) Products() ProductRepository { return NewProductRepo(s.db) }

func (s *gormStore) Quotations() QuotationRepository { return NewQuotationRepo(s.db) }

func (s *gormStore) ClientTransactions() ClientTransactionRepository {
	return NewClientTransactionRepo(s.db)
}

// WithinTx runs fn in a database transaction. Nested calls become savepoints.
func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// AutoMigrate creates or updates every table the Store uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Quotation{},
		&model.LedgerEntry{},
		&model.QuotationCounter{},
		&model.ClientTransaction{},
	)
}

// translate maps gorm errors onto the apperrors taxonomy.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
