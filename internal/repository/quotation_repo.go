package repository

import (
	"context"
	"encoding/json"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotationRepo struct {
	db *gorm.DB
}

func NewQuotationRepo(db *gorm.DB) QuotationRepository {
	return &quotationRepo{db}
}

func orderedEntries(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func (r *quotationRepo) Create(ctx context.Context, quotation *model.Quotation) error {
	return translate(r.db.WithContext(ctx).Create(quotation).Error, "create quotation %q", quotation.QuotationNumber)
}

func (r *quotationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	err := r.db.WithContext(ctx).Preload("Transactions", orderedEntries).First(&q, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find quotation %s", id)
	}
	return &q, nil
}

func (r *quotationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Transactions", orderedEntries).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "lock quotation %s", id)
	}
	return &q, nil
}

func (r *quotationRepo) FindByNumber(ctx context.Context, number string) (*model.Quotation, error) {
	var q model.Quotation
	err := r.db.WithContext(ctx).Preload("Transactions", orderedEntries).
		First(&q, "quotation_number = ? AND is_deleted = ?", number, false).Error
	if err != nil {
		return nil, translate(err, "find quotation %q", number)
	}
	return &q, nil
}

func (r *quotationRepo) FindAll(ctx context.Context, filter QuotationFilter) ([]model.Quotation, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Quotation{}).Where("is_deleted = ?", false)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("quotation_name ILIKE ? OR client_name ILIKE ? OR quotation_number ILIKE ?", like, like, like)
	}
	if filter.ItemCategory != "" {
		contains, err := json.Marshal([]map[string]string{{"category": filter.ItemCategory}})
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("items @> ?::jsonb", string(contains))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count quotations")
	}

	q = q.Order("date DESC").Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Offset(Offset(filter.Page, filter.Limit)).Limit(filter.Limit)
	}
	var quotations []model.Quotation
	if err := q.Preload("Transactions", orderedEntries).Find(&quotations).Error; err != nil {
		return nil, 0, translate(err, "list quotations")
	}
	return quotations, total, nil
}

func (r *quotationRepo) Numbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&model.Quotation{}).
		Where("is_deleted = ?", false).
		Order("quotation_number ASC").
		Pluck("quotation_number", &numbers).Error
	return numbers, translate(err, "list quotation numbers")
}

func (r *quotationRepo) ItemCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT item->>'category' AS category
		FROM quotations, jsonb_array_elements(items) AS item
		WHERE is_deleted = false AND COALESCE(item->>'category', '') <> ''
		ORDER BY category ASC`).
		Scan(&categories).Error
	return categories, translate(err, "list item categories")
}

func (r *quotationRepo) Save(ctx context.Context, quotation *model.Quotation) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(quotation).Error
	return translate(err, "save quotation %s", quotation.ID)
}

func (r *quotationRepo) AppendEntry(ctx context.Context, quotationID uuid.UUID, entry *model.LedgerEntry) error {
	entry.QuotationID = quotationID
	return translate(r.db.WithContext(ctx).Create(entry).Error, "append ledger entry to %s", quotationID)
}

func (r *quotationRepo) NextSequence(ctx context.Context, financialYear int) (int64, error) {
	counter := model.QuotationCounter{FinancialYear: financialYear, Seq: 1}
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "financial_year"}},
			DoUpdates: clause.Assignments(map[string]any{"seq": gorm.Expr("quotation_counters.seq + 1")}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "seq"}}},
	).Create(&counter).Error
	if err != nil {
		return 0, translate(err, "next quotation sequence for %d", financialYear)
	}
	return counter.Seq, nil
}
