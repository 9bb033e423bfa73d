package memory

import (
	"context"
	"sort"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
)

type categoryRepo struct {
	s *Store
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.s.update(func(st *state) error {
		for _, c := range st.categories {
			if c.CategoryName == category.CategoryName {
				return duplicate("create category %q", category.CategoryName)
			}
		}
		category.Touch(r.s.db.now())
		if _, ok := st.categories[category.ID]; ok {
			return duplicate("create category %s", category.ID)
		}
		st.categories[category.ID] = cloneCategory(*category)
		return nil
	})
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var out model.Category
	err := r.s.view(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return notFound("find category %s", id)
		}
		out = cloneCategory(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *categoryRepo) NameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.s.view(func(st *state) error {
		for id, c := range st.categories {
			if c.CategoryName == name && (excludeID == nil || id != *excludeID) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

// collect returns the matching categories sorted by name.
func (r *categoryRepo) collect(match func(c model.Category) bool) ([]model.Category, error) {
	var out []model.Category
	err := r.s.view(func(st *state) error {
		for _, c := range st.categories {
			if match(c) {
				out = append(out, cloneCategory(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, err
}

func (r *categoryRepo) FindAll(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	return r.collect(func(c model.Category) bool { return !activeOnly || c.IsActive })
}

func (r *categoryRepo) FindByLevel(ctx context.Context, level int, activeOnly bool) ([]model.Category, error) {
	return r.collect(func(c model.Category) bool {
		return c.Level == level && (!activeOnly || c.IsActive)
	})
}

func (r *categoryRepo) FindByParent(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error) {
	return r.collect(func(c model.Category) bool {
		return c.ParentCategory != nil && *c.ParentCategory == parentID && (!activeOnly || c.IsActive)
	})
}

func (r *categoryRepo) FindByParents(ctx context.Context, parentIDs []uuid.UUID) ([]model.Category, error) {
	set := make(map[uuid.UUID]bool, len(parentIDs))
	for _, id := range parentIDs {
		set[id] = true
	}
	return r.collect(func(c model.Category) bool {
		return c.ParentCategory != nil && set[*c.ParentCategory]
	})
}

func (r *categoryRepo) CountChildren(ctx context.Context, parentIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	set := make(map[uuid.UUID]bool, len(parentIDs))
	for _, id := range parentIDs {
		set[id] = true
	}
	err := r.s.view(func(st *state) error {
		for _, c := range st.categories {
			if c.ParentCategory == nil || !set[*c.ParentCategory] {
				continue
			}
			if activeOnly && !c.IsActive {
				continue
			}
			counts[*c.ParentCategory]++
		}
		return nil
	})
	return counts, err
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.categories[category.ID]; !ok {
			return notFound("update category %s", category.ID)
		}
		for id, c := range st.categories {
			if id != category.ID && c.CategoryName == category.CategoryName {
				return duplicate("update category %q", category.CategoryName)
			}
		}
		category.UpdatedAt = r.s.db.now()
		st.categories[category.ID] = cloneCategory(*category)
		return nil
	})
}

func (r *categoryRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	err := r.s.update(func(st *state) error {
		for _, id := range ids {
			if _, ok := st.categories[id]; ok {
				delete(st.categories, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
