package repository

import (
	"context"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error, "create category %q", category.CategoryName)
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find category %s", id)
	}
	return &category, nil
}

func (r *categoryRepo) NameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("category_name = ?", name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "check category name")
	}
	return count > 0, nil
}

func (r *categoryRepo) scoped(ctx context.Context, activeOnly bool) *gorm.DB {
	q := r.db.WithContext(ctx).Order("category_name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return q
}

func (r *categoryRepo) FindAll(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	var categories []model.Category
	err := r.scoped(ctx, activeOnly).Find(&categories).Error
	return categories, translate(err, "list categories")
}

func (r *categoryRepo) FindByLevel(ctx context.Context, level int, activeOnly bool) ([]model.Category, error) {
	var categories []model.Category
	err := r.scoped(ctx, activeOnly).Where("level = ?", level).Find(&categories).Error
	return categories, translate(err, "list categories at level %d", level)
}

func (r *categoryRepo) FindByParent(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error) {
	var categories []model.Category
	err := r.scoped(ctx, activeOnly).Where("parent_category = ?", parentID).Find(&categories).Error
	return categories, translate(err, "list children of %s", parentID)
}

func (r *categoryRepo) FindByParents(ctx context.Context, parentIDs []uuid.UUID) ([]model.Category, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var categories []model.Category
	err := r.scoped(ctx, false).Where("parent_category IN ?", parentIDs).Find(&categories).Error
	return categories, translate(err, "list children")
}

func (r *categoryRepo) CountChildren(ctx context.Context, parentIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ParentCategory uuid.UUID
		Count          int64
	}
	q := r.db.WithContext(ctx).Model(&model.Category{}).
		Select("parent_category, COUNT(*) AS count").
		Where("parent_category IN ?", parentIDs)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Group("parent_category").Scan(&rows).Error; err != nil {
		return nil, translate(err, "count children")
	}
	for _, row := range rows {
		counts[row.ParentCategory] = row.Count
	}
	return counts, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error, "update category %s", category.ID)
}

func (r *categoryRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Category{})
	return res.RowsAffected, translate(res.Error, "delete categories")
}
