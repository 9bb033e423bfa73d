package repository

import (
	"context"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clientTransactionRepo struct {
	db *gorm.DB
}

func NewClientTransactionRepo(db *gorm.DB) ClientTransactionRepository {
	return &clientTransactionRepo{db}
}

func (r *clientTransactionRepo) Create(ctx context.Context, tx *model.ClientTransaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error, "create client transaction")
}

func (r *clientTransactionRepo) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error) {
	var transactions []model.ClientTransaction
	err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("date DESC").Order("created_at DESC").
		Find(&transactions).Error
	return transactions, translate(err, "list client transactions of %s", quotationID)
}
