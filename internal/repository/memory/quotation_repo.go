package memory

import (
	"context"
	"sort"
	"strings"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
)

type quotationRepo struct {
	s *Store
}

func (r *quotationRepo) Create(ctx context.Context, quotation *model.Quotation) error {
	return r.s.update(func(st *state) error {
		for _, q := range st.quotations {
			if q.QuotationNumber == quotation.QuotationNumber {
				return duplicate("create quotation %q", quotation.QuotationNumber)
			}
		}
		now := r.s.db.now()
		quotation.Touch(now)
		for i := range quotation.Transactions {
			quotation.Transactions[i].QuotationID = quotation.ID
			if quotation.Transactions[i].ID == uuid.Nil {
				quotation.Transactions[i].ID = uuid.New()
			}
			if quotation.Transactions[i].CreatedAt.IsZero() {
				quotation.Transactions[i].CreatedAt = now
			}
		}
		st.quotations[quotation.ID] = cloneQuotation(*quotation)
		return nil
	})
}

func (r *quotationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var out model.Quotation
	err := r.s.view(func(st *state) error {
		q, ok := st.quotations[id]
		if !ok {
			return notFound("find quotation %s", id)
		}
		out = cloneQuotation(q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIDForUpdate needs no extra locking: a transaction holds the store lock.
func (r *quotationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	return r.FindByID(ctx, id)
}

func (r *quotationRepo) FindByNumber(ctx context.Context, number string) (*model.Quotation, error) {
	var out *model.Quotation
	err := r.s.view(func(st *state) error {
		for _, q := range st.quotations {
			if q.QuotationNumber == number && !q.IsDeleted {
				c := cloneQuotation(q)
				out = &c
				return nil
			}
		}
		return notFound("find quotation %q", number)
	})
	return out, err
}

func (r *quotationRepo) live() []model.Quotation {
	var out []model.Quotation
	_ = r.s.view(func(st *state) error {
		for _, q := range st.quotations {
			if !q.IsDeleted {
				out = append(out, cloneQuotation(q))
			}
		}
		return nil
	})
	return out
}

func matchesQuotation(q model.Quotation, f repository.QuotationFilter) bool {
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(q.QuotationName), s) &&
			!strings.Contains(strings.ToLower(q.ClientName), s) &&
			!strings.Contains(strings.ToLower(q.QuotationNumber), s) {
			return false
		}
	}
	if f.ItemCategory != "" {
		for _, item := range q.Items {
			if item.Category == f.ItemCategory {
				return true
			}
		}
		return false
	}
	return true
}

func (r *quotationRepo) FindAll(ctx context.Context, filter repository.QuotationFilter) ([]model.Quotation, int64, error) {
	var matches []model.Quotation
	for _, q := range r.live() {
		if matchesQuotation(q, filter) {
			matches = append(matches, q)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.After(matches[j].Date)
		}
		return matches[i].QuotationNumber > matches[j].QuotationNumber
	})
	return paginate(matches, filter.Page, filter.Limit), int64(len(matches)), nil
}

func (r *quotationRepo) Numbers(ctx context.Context) ([]string, error) {
	var numbers []string
	for _, q := range r.live() {
		numbers = append(numbers, q.QuotationNumber)
	}
	sort.Strings(numbers)
	return numbers, nil
}

func (r *quotationRepo) ItemCategories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var categories []string
	for _, q := range r.live() {
		for _, item := range q.Items {
			if item.Category != "" && !seen[item.Category] {
				seen[item.Category] = true
				categories = append(categories, item.Category)
			}
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *quotationRepo) Save(ctx context.Context, quotation *model.Quotation) error {
	return r.s.update(func(st *state) error {
		existing, ok := st.quotations[quotation.ID]
		if !ok {
			return notFound("save quotation %s", quotation.ID)
		}
		quotation.UpdatedAt = r.s.db.now()
		saved := cloneQuotation(*quotation)
		saved.Transactions = existing.Transactions
		st.quotations[quotation.ID] = saved
		return nil
	})
}

func (r *quotationRepo) AppendEntry(ctx context.Context, quotationID uuid.UUID, entry *model.LedgerEntry) error {
	return r.s.update(func(st *state) error {
		q, ok := st.quotations[quotationID]
		if !ok {
			return notFound("append ledger entry to %s", quotationID)
		}
		entry.QuotationID = quotationID
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = r.s.db.now()
		}
		q.Transactions = append(q.Transactions[:len(q.Transactions):len(q.Transactions)], *entry)
		st.quotations[quotationID] = q
		return nil
	})
}

func (r *quotationRepo) NextSequence(ctx context.Context, financialYear int) (int64, error) {
	var seq int64
	err := r.s.update(func(st *state) error {
		st.counters[financialYear]++
		seq = st.counters[financialYear]
		return nil
	})
	return seq, err
}
