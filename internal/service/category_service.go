package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
)

// CategorySpec describes a category to create, optionally with a nested subtree.
type CategorySpec struct {
	CategoryName  string         `json:"categoryName" validate:"required,min=2,max=50"`
	Description   string         `json:"description" validate:"max=500"`
	IsActive      *bool          `json:"isActive"`
	Subcategories []CategorySpec `json:"subcategories" validate:"dive"`
}

type UpdateCategoryRequest struct {
	CategoryName *string `json:"categoryName" validate:"omitempty,min=2,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	IsActive     *bool   `json:"isActive"`
}

type BulkError struct {
	Index        int    `json:"index"`
	CategoryName string `json:"categoryName"`
	Error        string `json:"error"`
}

type BulkResult struct {
	Created []model.Category `json:"created"`
	Errors  []BulkError      `json:"errors"`
}

type DeleteCategoryResult struct {
	DeletedIDs      []uuid.UUID `json:"deletedIds"`
	ProductsUpdated int64       `json:"productsUpdated"`
}

type CategoryService interface {
	CreateCategory(ctx context.Context, spec CategorySpec, actor model.Actor) (*model.Category, error)
	CreateBulk(ctx context.Context, specs []CategorySpec, actor model.Actor) (*BulkResult, error)
	AddChildren(ctx context.Context, parentID uuid.UUID, specs []CategorySpec, actor model.Actor) ([]model.Category, error)
	Rename(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest, actor model.Actor) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, actor model.Actor) (*DeleteCategoryResult, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListTree(ctx context.Context) ([]model.Category, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.Category, error)
	ListParents(ctx context.Context) ([]model.Category, error)
	Dropdown(ctx context.Context) ([]model.CategoryOption, error)
}

type categoryService struct {
	store  repository.Store
	events Notifier
}

func NewCategoryService(store repository.Store, events Notifier) CategoryService {
	return &categoryService{store: store, events: notifierOrNop(events)}
}

func normalizeSpecs(specs []CategorySpec) {
	for i := range specs {
		specs[i].CategoryName = strings.TrimSpace(specs[i].CategoryName)
		specs[i].Description = strings.TrimSpace(specs[i].Description)
		normalizeSpecs(specs[i].Subcategories)
	}
}

// checkSpecs validates specs planted below a node at parentLevel (-1 for
// roots) and rejects names repeated inside the request.
func checkSpecs(specs []CategorySpec, parentLevel int) ([]string, error) {
	type pending struct {
		spec  *CategorySpec
		level int
	}
	queue := make([]pending, 0, len(specs))
	for i := range specs {
		queue = append(queue, pending{&specs[i], parentLevel + 1})
	}

	seen := map[string]bool{}
	var names []string
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if err := validate(p.spec); err != nil {
			return nil, err
		}
		if p.level > model.MaxCategoryLevel {
			return nil, apperrors.Wrap(apperrors.ErrMaxDepthExceeded,
				"category '%s' would be at level %d, maximum is %d", p.spec.CategoryName, p.level, model.MaxCategoryLevel)
		}
		if seen[p.spec.CategoryName] {
			return nil, apperrors.Wrap(apperrors.ErrDuplicate, "category name '%s' is repeated in the request", p.spec.CategoryName)
		}
		seen[p.spec.CategoryName] = true
		names = append(names, p.spec.CategoryName)

		for i := range p.spec.Subcategories {
			queue = append(queue, pending{&p.spec.Subcategories[i], p.level + 1})
		}
	}
	return names, nil
}

func ensureNamesFree(ctx context.Context, repo repository.CategoryRepository, names []string) error {
	for _, name := range names {
		exists, err := repo.NameExists(ctx, name, nil)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Wrap(apperrors.ErrDuplicate, "category '%s' already exists", name)
		}
	}
	return nil
}

type treeNode struct {
	category *model.Category
	children []*treeNode
}

func (n *treeNode) value() model.Category {
	c := *n.category
	c.Subcategories = make([]model.Category, 0, len(n.children))
	for _, child := range n.children {
		c.Subcategories = append(c.Subcategories, child.value())
	}
	return c
}

// plant creates specs below parent (nil for roots) breadth first, deriving
// level, type and ancestry path from the parent of each node.
func plant(ctx context.Context, repo repository.CategoryRepository, parent *model.Category, specs []CategorySpec, actor model.Actor) ([]*treeNode, error) {
	type pending struct {
		spec   *CategorySpec
		parent *treeNode
	}
	var roots []*treeNode
	anchor := &treeNode{category: parent}
	queue := make([]pending, 0, len(specs))
	for i := range specs {
		queue = append(queue, pending{&specs[i], anchor})
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		c := &model.Category{
			CategoryName: p.spec.CategoryName,
			Description:  p.spec.Description,
			IsActive:     p.spec.IsActive == nil || *p.spec.IsActive,
			AncestryPath: []uuid.UUID{},
		}
		c.ID = uuid.New()
		c.CreatedBy = actor.ID
		c.UpdatedBy = actor.ID
		if pc := p.parent.category; pc != nil {
			parentID := pc.ID
			c.Level = pc.Level + 1
			c.ParentCategory = &parentID
			c.AncestryPath = append(append(c.AncestryPath, pc.AncestryPath...), pc.ID)
		}
		if c.Level > model.MaxCategoryLevel {
			return nil, apperrors.Wrap(apperrors.ErrMaxDepthExceeded, "category '%s' exceeds level %d", c.CategoryName, model.MaxCategoryLevel)
		}
		c.CategoryType = model.CategoryTypeForLevel(c.Level)

		if err := repo.Create(ctx, c); err != nil {
			return nil, err
		}

		node := &treeNode{category: c}
		if p.parent == anchor {
			roots = append(roots, node)
		} else {
			p.parent.children = append(p.parent.children, node)
		}
		for i := range p.spec.Subcategories {
			queue = append(queue, pending{&p.spec.Subcategories[i], node})
		}
	}
	return roots, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, spec CategorySpec, actor model.Actor) (*model.Category, error) {
	specs := []CategorySpec{spec}
	normalizeSpecs(specs)
	names, err := checkSpecs(specs, -1)
	if err != nil {
		return nil, err
	}

	var created model.Category
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := ensureNamesFree(ctx, tx.Categories(), names); err != nil {
			return err
		}
		roots, err := plant(ctx, tx.Categories(), nil, specs, actor)
		if err != nil {
			return err
		}
		created = roots[0].value()
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Category created",
		slog.String("category_id", created.ID.String()),
		slog.Int("nodes", len(names)))
	s.events.Publish(model.Event{
		Type:    "category_update",
		Action:  "category_created",
		Data:    created,
		User:    actor,
		Message: fmt.Sprintf("%s created category '%s'", actor.Name, created.CategoryName),
	})
	return &created, nil
}

// CreateBulk creates each entry in its own transaction; one failing entry
// does not affect the others.
func (s *categoryService) CreateBulk(ctx context.Context, specs []CategorySpec, actor model.Actor) (*BulkResult, error) {
	if len(specs) == 0 {
		return nil, apperrors.Invalid("categories", "at least one category is required")
	}
	result := &BulkResult{Created: []model.Category{}, Errors: []BulkError{}}
	for i, spec := range specs {
		created, err := s.CreateCategory(ctx, spec, actor)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Errors = append(result.Errors, BulkError{
				Index:        i,
				CategoryName: strings.TrimSpace(spec.CategoryName),
				Error:        err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, *created)
	}
	return result, nil
}

func (s *categoryService) AddChildren(ctx context.Context, parentID uuid.UUID, specs []CategorySpec, actor model.Actor) ([]model.Category, error) {
	if len(specs) == 0 {
		return nil, apperrors.Invalid("subcategories", "at least one subcategory is required")
	}
	normalizeSpecs(specs)

	var created []model.Category
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		parent, err := tx.Categories().FindByID(ctx, parentID)
		if err != nil {
			return err
		}
		if parent.Level >= model.MaxCategoryLevel {
			return apperrors.Wrap(apperrors.ErrMaxDepthExceeded,
				"category '%s' is at level %d and cannot have children", parent.CategoryName, parent.Level)
		}
		names, err := checkSpecs(specs, parent.Level)
		if err != nil {
			return err
		}
		if err := ensureNamesFree(ctx, tx.Categories(), names); err != nil {
			return err
		}
		roots, err := plant(ctx, tx.Categories(), parent, specs, actor)
		if err != nil {
			return err
		}
		created = make([]model.Category, 0, len(roots))
		for _, r := range roots {
			created = append(created, r.value())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Type:    "category_update",
		Action:  "subcategories_added",
		Data:    map[string]any{"parentId": parentID, "subcategories": created},
		User:    actor,
		Message: fmt.Sprintf("%s added %d subcategories", actor.Name, len(created)),
	})
	return created, nil
}

func (s *categoryService) Rename(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest, actor model.Actor) (*model.Category, error) {
	if req.CategoryName != nil {
		name := strings.TrimSpace(*req.CategoryName)
		req.CategoryName = &name
		if name == "" {
			return nil, apperrors.Invalid("categoryName", "category name cannot be empty")
		}
	}
	if err := validate(&req); err != nil {
		return nil, err
	}

	var updated *model.Category
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.CategoryName != nil && *req.CategoryName != c.CategoryName {
			exists, err := tx.Categories().NameExists(ctx, *req.CategoryName, &id)
			if err != nil {
				return err
			}
			if exists {
				return apperrors.Wrap(apperrors.ErrDuplicate, "category '%s' already exists", *req.CategoryName)
			}
			c.CategoryName = *req.CategoryName
		}
		if req.Description != nil {
			c.Description = strings.TrimSpace(*req.Description)
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		c.UpdatedBy = actor.ID
		if err := tx.Categories().Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Type:    "category_update",
		Action:  "category_updated",
		Data:    updated,
		User:    actor,
		Message: fmt.Sprintf("%s updated category '%s'", actor.Name, updated.CategoryName),
	})
	return updated, nil
}

// DeleteCategory removes the category and all its descendants, deepest
// level first, and detaches products from every removed category.
func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID, actor model.Actor) (*DeleteCategoryResult, error) {
	result := &DeleteCategoryResult{}
	var name string
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		root, err := tx.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		name = root.CategoryName

		levels := [][]uuid.UUID{{root.ID}}
		for depth := root.Level; depth < model.MaxCategoryLevel; depth++ {
			children, err := tx.Categories().FindByParents(ctx, levels[len(levels)-1])
			if err != nil {
				return err
			}
			if len(children) == 0 {
				break
			}
			ids := make([]uuid.UUID, 0, len(children))
			for _, c := range children {
				ids = append(ids, c.ID)
			}
			levels = append(levels, ids)
		}

		var all []uuid.UUID
		for i := len(levels) - 1; i >= 0; i-- {
			if _, err := tx.Categories().DeleteByIDs(ctx, levels[i]); err != nil {
				return err
			}
			all = append(all, levels[i]...)
		}

		updated, err := tx.Products().ClearCategoryReferences(ctx, all)
		if err != nil {
			return err
		}
		result.DeletedIDs = all
		result.ProductsUpdated = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Category deleted",
		slog.String("category_id", id.String()),
		slog.Int("removed", len(result.DeletedIDs)),
		slog.Int64("products_updated", result.ProductsUpdated))
	s.events.Publish(model.Event{
		Type:    "category_update",
		Action:  "category_deleted",
		Data:    result,
		User:    actor,
		Message: fmt.Sprintf("%s deleted category '%s'", actor.Name, name),
	})
	return result, nil
}

// assemble nests categories (sorted by name) below their parents.
func assemble(all []model.Category, roots []model.Category) []model.Category {
	byParent := map[uuid.UUID][]*treeNode{}
	nodes := make(map[uuid.UUID]*treeNode, len(all))
	for i := range all {
		nodes[all[i].ID] = &treeNode{category: &all[i]}
	}
	for i := range all {
		if p := all[i].ParentCategory; p != nil {
			byParent[*p] = append(byParent[*p], nodes[all[i].ID])
		}
	}
	for _, n := range nodes {
		n.children = byParent[n.category.ID]
	}

	out := make([]model.Category, 0, len(roots))
	for i := range roots {
		n, ok := nodes[roots[i].ID]
		if !ok {
			n = &treeNode{category: &roots[i], children: byParent[roots[i].ID]}
		}
		out = append(out, n.value())
	}
	return out
}

func (s *categoryService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Categories().FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	tree := assemble(all, []model.Category{*c})
	return &tree[0], nil
}

func (s *categoryService) ListTree(ctx context.Context) ([]model.Category, error) {
	all, err := s.store.Categories().FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	var roots []model.Category
	for _, c := range all {
		if c.Level == 0 {
			roots = append(roots, c)
		}
	}
	return assemble(all, roots), nil
}

func (s *categoryService) ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.Category, error) {
	if _, err := s.store.Categories().FindByID(ctx, parentID); err != nil {
		return nil, err
	}
	children, err := s.store.Categories().FindByParent(ctx, parentID, true)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	counts, err := s.store.Categories().CountChildren(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	for i := range children {
		n := counts[children[i].ID]
		children[i].ChildCount = &n
	}
	if children == nil {
		children = []model.Category{}
	}
	return children, nil
}

func (s *categoryService) ListParents(ctx context.Context) ([]model.Category, error) {
	parents, err := s.store.Categories().FindByLevel(ctx, 0, true)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(parents))
	for _, c := range parents {
		ids = append(ids, c.ID)
	}
	counts, err := s.store.Categories().CountChildren(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	for i := range parents {
		products, err := s.store.Products().CountInCategory(ctx, parents[i].ID)
		if err != nil {
			return nil, err
		}
		subs := counts[parents[i].ID]
		parents[i].ProductCount = &products
		parents[i].SubcategoriesCount = &subs
	}
	if parents == nil {
		parents = []model.Category{}
	}
	return parents, nil
}

func (s *categoryService) Dropdown(ctx context.Context) ([]model.CategoryOption, error) {
	all, err := s.store.Categories().FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	options := make([]model.CategoryOption, 0, len(all))
	for _, c := range all {
		options = append(options, model.CategoryOption{
			ID:       c.ID,
			Name:     c.CategoryName,
			Level:    c.Level,
			Type:     c.CategoryType,
			ParentID: c.ParentCategory,
		})
	}
	return options, nil
}
