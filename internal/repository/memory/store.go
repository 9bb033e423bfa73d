// Package memory is a process local Store used for development and tests.
// Transactions work on a copy of the data that replaces the live copy on
// success, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	categories map[uuid.UUID]model.Category
	products   map[uuid.UUID]model.Product
	quotations map[uuid.UUID]model.Quotation
	clientTxs  []model.ClientTransaction
	counters   map[int]int64
}

func newState() *state {
	return &state{
		categories: map[uuid.UUID]model.Category{},
		products:   map[uuid.UUID]model.Product{},
		quotations: map[uuid.UUID]model.Quotation{},
		counters:   map[int]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, v := range s.categories {
		c.categories[id] = cloneCategory(v)
	}
	for id, v := range s.products {
		c.products[id] = cloneProduct(v)
	}
	for id, v := range s.quotations {
		c.quotations[id] = cloneQuotation(v)
	}
	c.clientTxs = append([]model.ClientTransaction(nil), s.clientTxs...)
	for fy, seq := range s.counters {
		c.counters[fy] = seq
	}
	return c
}

type db struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// Store implements repository.Store.
type Store struct {
	db *db
	tx *state // non-nil inside WithinTx
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{db: &db{state: newState(), now: time.Now}}
}

// SetClock replaces the time source used for audit timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.now = now
}

// view runs fn against the state visible to s, locking unless s is
// already inside a transaction that holds the lock.
func (s *Store) view(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}

// update is like view but writes to a copy that only replaces the live
// state when fn succeeds.
func (s *Store) update(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	work := s.db.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.db.state = work
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	work := s.db.state.clone()
	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.state = work
	return nil
}

func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }

func (s *Store) Quotations() repository.QuotationRepository { return &quotationRepo{s} }

func (s *Store) ClientTransactions() repository.ClientTransactionRepository {
	return &clientTransactionRepo{s}
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrNotFound)
}

func duplicate(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrDuplicate)
}

func cloneCategory(c model.Category) model.Category {
	c.AncestryPath = append(c.AncestryPath[:0:0], c.AncestryPath...)
	if c.ParentCategory != nil {
		p := *c.ParentCategory
		c.ParentCategory = &p
	}
	c.Subcategories = nil
	c.ChildCount, c.ProductCount, c.SubcategoriesCount = nil, nil, nil
	return c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneProduct(p model.Product) model.Product {
	p.ProductGallery = append(p.ProductGallery[:0:0], p.ProductGallery...)
	p.Category.MainCategory = cloneID(p.Category.MainCategory)
	p.Category.SubCategory = cloneID(p.Category.SubCategory)
	p.Category.SubSubCategory = cloneID(p.Category.SubSubCategory)
	p.ProductImageURL, p.ProductGalleryURLs = "", nil
	return p
}

func cloneQuotation(q model.Quotation) model.Quotation {
	q.Items = append(q.Items[:0:0], q.Items...)
	q.Payments = append(q.Payments[:0:0], q.Payments...)
	q.Transactions = append(q.Transactions[:0:0], q.Transactions...)
	q.Attachments = append(q.Attachments[:0:0], q.Attachments...)
	return q
}
