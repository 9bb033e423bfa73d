package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/ledger"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClientTransactionRequest struct {
	QuotationID     *uuid.UUID                  `json:"quotationId"`
	QuotationNumber string                      `json:"quotationNumber" validate:"max=20"`
	ClientID        string                      `json:"clientId" validate:"max=64"`
	Type            model.ClientTransactionType `json:"type" validate:"required,oneof=credit debit"`
	Amount          decimal.Decimal             `json:"amount" validate:"gt=0,scale=2"`
	Date            *time.Time                  `json:"date"`
	PaymentMode     string                      `json:"paymentMode" validate:"max=50"`
	TransactionID   string                      `json:"transactionId" validate:"max=100"`
	Note            string                      `json:"note" validate:"max=500"`
}

type ClientFinanceService interface {
	AddTransaction(ctx context.Context, req ClientTransactionRequest, actor model.Actor) (*model.ClientTransaction, error)
	ListByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error)
	Summary(ctx context.Context, quotationID uuid.UUID) (*model.FinanceSummary, error)
}

type clientFinanceService struct {
	store  repository.Store
	events Notifier
	now    func() time.Time
}

func NewClientFinanceService(store repository.Store, events Notifier) ClientFinanceService {
	return &clientFinanceService{store: store, events: notifierOrNop(events), now: time.Now}
}

func liveQuotation(ctx context.Context, repo repository.QuotationRepository, id uuid.UUID) (*model.Quotation, error) {
	q, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.IsDeleted {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "quotation %s", id)
	}
	return q, nil
}

// AddTransaction records a client credit or debit. A quotation number wins
// over the client id sent by the caller when that quotation names a client.
func (s *clientFinanceService) AddTransaction(ctx context.Context, req ClientTransactionRequest, actor model.Actor) (*model.ClientTransaction, error) {
	req.QuotationNumber = strings.TrimSpace(req.QuotationNumber)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if err := validate(&req); err != nil {
		return nil, err
	}

	t := &model.ClientTransaction{
		QuotationID:     req.QuotationID,
		QuotationNumber: req.QuotationNumber,
		ClientID:        req.ClientID,
		Type:            req.Type,
		Amount:          req.Amount,
		Date:            s.now(),
		PaymentMode:     req.PaymentMode,
		TransactionID:   req.TransactionID,
		Note:            req.Note,
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	t.CreatedBy = actor.ID
	t.UpdatedBy = actor.ID

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		switch {
		case t.QuotationNumber != "":
			q, err := tx.Quotations().FindByNumber(ctx, t.QuotationNumber)
			if err != nil {
				return err
			}
			id := q.ID
			t.QuotationID = &id
			if q.ClientID != "" {
				t.ClientID = q.ClientID
			}
		case t.QuotationID != nil:
			q, err := liveQuotation(ctx, tx.Quotations(), *t.QuotationID)
			if err != nil {
				return err
			}
			t.QuotationNumber = q.QuotationNumber
			if t.ClientID == "" {
				t.ClientID = q.ClientID
			}
		}
		if t.ClientID == "" {
			return apperrors.Invalid("clientId", "client id is required")
		}
		return tx.ClientTransactions().Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Type:    "quotation_update",
		Action:  "client_transaction_added",
		Data:    t,
		User:    actor,
		Message: fmt.Sprintf("%s recorded a client %s of %s", actor.Name, t.Type, t.Amount.String()),
	})
	return t, nil
}

func (s *clientFinanceService) ListByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error) {
	txs, err := s.store.ClientTransactions().FindByQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []model.ClientTransaction{}
	}
	return txs, nil
}

// Summary keeps two independent views: profit from client transactions and
// settlement from the quotation's own payments.
func (s *clientFinanceService) Summary(ctx context.Context, quotationID uuid.UUID) (*model.FinanceSummary, error) {
	q, err := liveQuotation(ctx, s.store.Quotations(), quotationID)
	if err != nil {
		return nil, err
	}
	txs, err := s.ListByQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	summary := &model.FinanceSummary{
		Quotation:     q,
		Transactions:  txs,
		TotalCredited: decimal.Zero,
		TotalDebited:  decimal.Zero,
	}
	for _, t := range txs {
		switch t.Type {
		case model.ClientCredit:
			summary.TotalCredited = summary.TotalCredited.Add(t.Amount)
		case model.ClientDebit:
			summary.TotalDebited = summary.TotalDebited.Add(t.Amount)
		}
	}
	summary.Profit = summary.TotalCredited.Sub(summary.TotalDebited)
	summary.Paid = ledger.PaymentsTotal(q.Payments)
	summary.Due = q.Total.Sub(summary.Paid)
	return summary, nil
}
