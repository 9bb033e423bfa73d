package repository

import (
	"context"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	colMainCategory   = "category_main_category"
	colSubCategory    = "category_sub_category"
	colSubSubCategory = "category_sub_sub_category"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "create product %q", product.Code)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find product %s", id)
	}
	return &product, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "code = ?", code).Error; err != nil {
		return nil, translate(err, "find product by code %q", code)
	}
	return &product, nil
}

func (r *productRepo) FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("product_name ILIKE ? OR code ILIKE ?", like, like)
	}
	if filter.CategoryID != nil {
		id := *filter.CategoryID
		q = q.Where(colMainCategory+" = ? OR "+colSubCategory+" = ? OR "+colSubSubCategory+" = ?", id, id, id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count products")
	}

	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Offset(Offset(filter.Page, filter.Limit)).Limit(filter.Limit)
	}
	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, translate(err, "list products")
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error, "update product %s", product.ID)
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete product %s", id)
	}
	return translate(res.Error, "delete product %s", id)
}

func (r *productRepo) CountInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(colMainCategory+" = ? OR "+colSubCategory+" = ? OR "+colSubSubCategory+" = ?", categoryID, categoryID, categoryID).
		Count(&count).Error
	return count, translate(err, "count products in category %s", categoryID)
}

func (r *productRepo) ClearCategoryReferences(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	nullIn := func(col string) any {
		return gorm.Expr("CASE WHEN "+col+" IN ? THEN NULL ELSE "+col+" END", ids)
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(colMainCategory+" IN ? OR "+colSubCategory+" IN ? OR "+colSubSubCategory+" IN ?", ids, ids, ids).
		Updates(map[string]any{
			colMainCategory:   nullIn(colMainCategory),
			colSubCategory:    nullIn(colSubCategory),
			colSubSubCategory: nullIn(colSubSubCategory),
		})
	return res.RowsAffected, translate(res.Error, "clear category references")
}
