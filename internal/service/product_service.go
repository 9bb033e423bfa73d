package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	ProductName    string                `json:"productName" validate:"required,max=255"`
	Code           string                `json:"code" validate:"required,max=50"`
	Category       model.ProductCategory `json:"category"`
	Price          decimal.Decimal       `json:"price" validate:"gte=0,scale=2"`
	Quantity       decimal.Decimal       `json:"quantity" validate:"gte=0,scale=3"`
	Unit           string                `json:"unit" validate:"max=20"`
	Description    string                `json:"description" validate:"max=2000"`
	ProductImage   string                `json:"productImage" validate:"max=255"`
	ProductGallery []string              `json:"productGallery" validate:"max=20,dive,max=255"`
	IsActive       *bool                 `json:"isActive"`
}

type ProductListRequest struct {
	Search     string
	CategoryID *uuid.UUID
	Page       int
	Limit      int
}

type UploadedAsset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ProductService interface {
	Create(ctx context.Context, req ProductRequest, actor model.Actor) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req ProductRequest, actor model.Actor) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, req ProductListRequest) (*Page[model.Product], error)
	Upload(ctx context.Context, filename string, body io.Reader, contentType string) (*UploadedAsset, error)
}

type productService struct {
	store  repository.Store
	assets AssetStore
	events Notifier
}

func NewProductService(store repository.Store, assets AssetStore, events Notifier) ProductService {
	return &productService{store: store, assets: assets, events: notifierOrNop(events)}
}

// checkCategoryLevel loads id and makes sure it sits at level with the given parent.
func checkCategoryLevel(ctx context.Context, repo repository.CategoryRepository, field string, id uuid.UUID, level int, parent *uuid.UUID) error {
	c, err := repo.FindByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Invalid(field, fmt.Sprintf("category %s does not exist", id))
	}
	if err != nil {
		return err
	}
	if c.Level != level {
		return apperrors.Invalid(field, fmt.Sprintf("category '%s' is not a %s", c.CategoryName, model.CategoryTypeForLevel(level)))
	}
	if parent != nil && (c.ParentCategory == nil || *c.ParentCategory != *parent) {
		return apperrors.Invalid(field, fmt.Sprintf("category '%s' does not belong to the selected parent", c.CategoryName))
	}
	return nil
}

func checkProductCategory(ctx context.Context, repo repository.CategoryRepository, pc model.ProductCategory) error {
	if pc.MainCategory == nil {
		return apperrors.Invalid("category.mainCategory", "main category is required")
	}
	if err := checkCategoryLevel(ctx, repo, "category.mainCategory", *pc.MainCategory, 0, nil); err != nil {
		return err
	}
	if pc.SubCategory != nil {
		if err := checkCategoryLevel(ctx, repo, "category.subCategory", *pc.SubCategory, 1, pc.MainCategory); err != nil {
			return err
		}
	}
	if pc.SubSubCategory != nil {
		if pc.SubCategory == nil {
			return apperrors.Invalid("category.subSubCategory", "a sub-subcategory needs a subcategory")
		}
		if err := checkCategoryLevel(ctx, repo, "category.subSubCategory", *pc.SubSubCategory, 2, pc.SubCategory); err != nil {
			return err
		}
	}
	return nil
}

func ensureCodeFree(ctx context.Context, repo repository.ProductRepository, code string, self uuid.UUID) error {
	existing, err := repo.FindByCode(ctx, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperrors.Wrap(apperrors.ErrDuplicate, "product code '%s' already exists", code)
	}
	return nil
}

func (r *ProductRequest) normalize() {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.Code = strings.TrimSpace(r.Code)
	r.Unit = strings.TrimSpace(r.Unit)
}

func (r *ProductRequest) apply(p *model.Product) {
	p.ProductName = r.ProductName
	p.Code = r.Code
	p.Category = r.Category
	p.Price = r.Price
	p.Quantity = r.Quantity
	p.Unit = r.Unit
	p.Description = r.Description
	p.ProductImage = r.ProductImage
	p.ProductGallery = append([]string{}, r.ProductGallery...)
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

func (s *productService) withURLs(p *model.Product) {
	p.ProductImageURL = s.assets.URLFor(p.ProductImage)
	p.ProductGalleryURLs = make([]string, 0, len(p.ProductGallery))
	for _, f := range p.ProductGallery {
		p.ProductGalleryURLs = append(p.ProductGalleryURLs, s.assets.URLFor(f))
	}
}

// removeAssets runs after commit; a failure leaves an orphaned file, not a
// broken product, so it is only logged.
func (s *productService) removeAssets(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.assets.DeleteAssets(ctx, keys); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to delete product assets",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

func (s *productService) Create(ctx context.Context, req ProductRequest, actor model.Actor) (*model.Product, error) {
	req.normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}

	p := &model.Product{IsActive: true}
	req.apply(p)
	p.ID = uuid.New()
	p.CreatedBy = actor.ID
	p.UpdatedBy = actor.ID
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := checkProductCategory(ctx, tx.Categories(), p.Category); err != nil {
			return err
		}
		if err := ensureCodeFree(ctx, tx.Products(), p.Code, p.ID); err != nil {
			return err
		}
		return tx.Products().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.withURLs(p)
	s.events.Publish(model.Event{
		Type:    "product_update",
		Action:  "product_created",
		Data:    p,
		User:    actor,
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, p.ProductName),
	})
	return p, nil
}

// Update replaces the product. Files no longer referenced are removed
// from the asset store once the change is committed.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req ProductRequest, actor model.Actor) (*model.Product, error) {
	req.normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}

	var (
		p       *model.Product
		removed []string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkProductCategory(ctx, tx.Categories(), req.Category); err != nil {
			return err
		}
		if err := ensureCodeFree(ctx, tx.Products(), req.Code, id); err != nil {
			return err
		}

		before := existing.Assets()
		req.apply(existing)
		existing.UpdatedBy = actor.ID
		if err := tx.Products().Update(ctx, existing); err != nil {
			return err
		}
		kept := map[string]bool{}
		for _, f := range existing.Assets() {
			kept[f] = true
		}
		for _, f := range before {
			if !kept[f] {
				removed = append(removed, f)
			}
		}
		p = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeAssets(ctx, removed)
	s.withURLs(p)
	s.events.Publish(model.Event{
		Type:    "product_update",
		Action:  "product_updated",
		Data:    p,
		User:    actor,
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, p.ProductName),
	})
	return p, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	var p *model.Product
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		found, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		p = found
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.removeAssets(ctx, p.Assets())
	s.events.Publish(model.Event{
		Type:    "product_update",
		Action:  "product_deleted",
		Data:    map[string]any{"_id": id},
		User:    actor,
		Message: fmt.Sprintf("%s deleted product '%s'", actor.Name, p.ProductName),
	})
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.withURLs(p)
	return p, nil
}

func (s *productService) List(ctx context.Context, req ProductListRequest) (*Page[model.Product], error) {
	page, limit := normalizePage(req.Page, req.Limit)
	items, total, err := s.store.Products().FindAll(ctx, repository.ProductFilter{
		Search:     strings.TrimSpace(req.Search),
		CategoryID: req.CategoryID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.withURLs(&items[i])
	}
	if items == nil {
		items = []model.Product{}
	}
	return &Page[model.Product]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *productService) Upload(ctx context.Context, filename string, body io.Reader, contentType string) (*UploadedAsset, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, apperrors.Invalid("file", "file name is required")
	}
	key, err := s.assets.PutAsset(ctx, filename, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	return &UploadedAsset{Key: key, URL: s.assets.URLFor(key)}, nil
}
