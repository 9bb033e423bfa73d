package memory

import (
	"context"
	"sort"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
)

type clientTransactionRepo struct {
	s *Store
}

func (r *clientTransactionRepo) Create(ctx context.Context, tx *model.ClientTransaction) error {
	return r.s.update(func(st *state) error {
		tx.Touch(r.s.db.now())
		c := *tx
		c.QuotationID = cloneID(tx.QuotationID)
		st.clientTxs = append(st.clientTxs, c)
		return nil
	})
}

func (r *clientTransactionRepo) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error) {
	var out []model.ClientTransaction
	err := r.s.view(func(st *state) error {
		// newest insert first so equal dates keep reverse creation order
		for i := len(st.clientTxs) - 1; i >= 0; i-- {
			t := st.clientTxs[i]
			if t.QuotationID != nil && *t.QuotationID == quotationID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, err
}
