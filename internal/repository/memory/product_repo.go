package memory

import (
	"context"
	"sort"
	"strings"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
)

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.s.update(func(st *state) error {
		for _, p := range st.products {
			if p.Code == product.Code {
				return duplicate("create product %q", product.Code)
			}
		}
		product.Touch(r.s.db.now())
		st.products[product.ID] = cloneProduct(*product)
		return nil
	})
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var out model.Product
	err := r.s.view(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return notFound("find product %s", id)
		}
		out = cloneProduct(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var out *model.Product
	err := r.s.view(func(st *state) error {
		for _, p := range st.products {
			if p.Code == code {
				c := cloneProduct(p)
				out = &c
				return nil
			}
		}
		return notFound("find product by code %q", code)
	})
	return out, err
}

func inCategory(p model.Product, id uuid.UUID) bool {
	for _, ref := range p.Category.References() {
		if ref == id {
			return true
		}
	}
	return false
}

func (r *productRepo) FindAll(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	search := strings.ToLower(filter.Search)
	var matches []model.Product
	err := r.s.view(func(st *state) error {
		for _, p := range st.products {
			if search != "" &&
				!strings.Contains(strings.ToLower(p.ProductName), search) &&
				!strings.Contains(strings.ToLower(p.Code), search) {
				continue
			}
			if filter.CategoryID != nil && !inCategory(p, *filter.CategoryID) {
				continue
			}
			matches = append(matches, cloneProduct(p))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	total := int64(len(matches))
	return paginate(matches, filter.Page, filter.Limit), total, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := repository.Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return notFound("update product %s", product.ID)
		}
		for id, p := range st.products {
			if id != product.ID && p.Code == product.Code {
				return duplicate("update product %q", product.Code)
			}
		}
		product.UpdatedAt = r.s.db.now()
		st.products[product.ID] = cloneProduct(*product)
		return nil
	})
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return notFound("delete product %s", id)
		}
		delete(st.products, id)
		return nil
	})
}

func (r *productRepo) CountInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.s.view(func(st *state) error {
		for _, p := range st.products {
			if inCategory(p, categoryID) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *productRepo) ClearCategoryReferences(ctx context.Context, ids []uuid.UUID) (int64, error) {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	hit := func(ref *uuid.UUID) bool { return ref != nil && set[*ref] }

	var n int64
	err := r.s.update(func(st *state) error {
		for id, p := range st.products {
			pc := p.Category
			if !hit(pc.MainCategory) && !hit(pc.SubCategory) && !hit(pc.SubSubCategory) {
				continue
			}
			if hit(pc.MainCategory) {
				p.Category.MainCategory = nil
			}
			if hit(pc.SubCategory) {
				p.Category.SubCategory = nil
			}
			if hit(pc.SubSubCategory) {
				p.Category.SubSubCategory = nil
			}
			p.UpdatedAt = r.s.db.now()
			st.products[id] = p
			n++
		}
		return nil
	})
	return n, err
}
