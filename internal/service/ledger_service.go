package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/ledger"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	AmountReceived  decimal.Decimal     `json:"amountReceived" validate:"gt=0,scale=2"`
	PaymentDate     *time.Time          `json:"paymentDate"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod"`
	ReferenceNumber string              `json:"referenceNumber" validate:"max=100"`
	Notes           string              `json:"notes" validate:"max=500"`
}

type TransactionRequest struct {
	Type           model.EntryType `json:"type" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0,scale=2"`
	Date           *time.Time      `json:"date"`
	Note           string          `json:"note" validate:"max=500"`
	PaymentMode    string          `json:"paymentMode" validate:"max=50"`
	TransactionID  string          `json:"transactionId" validate:"max=100"`
	TaxType        model.TaxType   `json:"taxType"`
	TaxPercentage  decimal.Decimal `json:"taxPercentage" validate:"gte=0,lte=100,scale=2"`
	DiscountReason string          `json:"discountReason" validate:"max=255"`
	Attachment     string          `json:"attachment" validate:"max=255"`
}

type LedgerService interface {
	ApplyPayment(ctx context.Context, quotationID uuid.UUID, req PaymentRequest, actor model.Actor) (*model.Quotation, error)
	AppendTransaction(ctx context.Context, quotationID uuid.UUID, req TransactionRequest, actor model.Actor) (*model.LedgerEntry, error)
	VerifyBalance(q *model.Quotation) error
}

type ledgerService struct {
	store  repository.Store
	events Notifier
	now    func() time.Time
}

func NewLedgerService(store repository.Store, events Notifier) LedgerService {
	return &ledgerService{store: store, events: notifierOrNop(events), now: time.Now}
}

// ApplyPayment records a payment on a Sent or Approved quotation and mirrors
// it as a credit in the ledger. Payments may never exceed the total.
func (s *ledgerService) ApplyPayment(ctx context.Context, quotationID uuid.UUID, req PaymentRequest, actor model.Actor) (*model.Quotation, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	now := s.now()
	paidAt := now
	if req.PaymentDate != nil {
		paidAt = *req.PaymentDate
	}
	if paidAt.After(now) {
		return nil, apperrors.Invalid("paymentDate", "payment date cannot be in the future")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentBankTransfer
	}
	if !req.PaymentMethod.Valid() {
		return nil, apperrors.Invalid("paymentMethod", fmt.Sprintf("unknown payment method '%s'", req.PaymentMethod))
	}

	var out *model.Quotation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		q, err := lockQuotation(ctx, tx, quotationID, model.StatusSent, model.StatusApproved)
		if err != nil {
			return err
		}
		paid := ledger.PaymentsTotal(q.Payments)
		if paid.Add(req.AmountReceived).GreaterThan(q.Total) {
			return apperrors.Wrap(apperrors.ErrOverPayment,
				"payment of %s exceeds the outstanding %s", req.AmountReceived.String(), q.Total.Sub(paid).String())
		}

		q.Payments = append(q.Payments, model.Payment{
			ID:              uuid.New(),
			AmountReceived:  req.AmountReceived,
			PaymentDate:     paidAt,
			PaymentMethod:   req.PaymentMethod,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
			RecordedBy:      actor.ID,
		})
		note := strings.TrimSpace(req.Notes)
		if note == "" {
			note = "Payment received"
		}
		if _, err := appendEntry(ctx, tx, q, model.LedgerEntry{
			Type:          model.EntryCredit,
			Amount:        req.AmountReceived,
			Date:          paidAt,
			Note:          note,
			PaymentMode:   string(req.PaymentMethod),
			TransactionID: req.ReferenceNumber,
			CreatedBy:     actor.ID,
		}); err != nil {
			return err
		}
		q.UpdatedBy = actor.ID
		if err := tx.Quotations().Save(ctx, q); err != nil {
			return err
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Payment applied",
		slog.String("quotation_number", out.QuotationNumber),
		slog.String("amount", req.AmountReceived.String()),
		slog.String("running_balance", out.RunningBalance.String()))
	s.events.Publish(model.Event{
		Type:    "quotation_update",
		Action:  "payment_applied",
		Data:    out,
		User:    actor,
		Message: fmt.Sprintf("%s recorded a payment of %s on %s", actor.Name, req.AmountReceived.String(), out.QuotationNumber),
	})
	return out, nil
}

// AppendTransaction adds a raw ledger entry regardless of quotation status.
func (s *ledgerService) AppendTransaction(ctx context.Context, quotationID uuid.UUID, req TransactionRequest, actor model.Actor) (*model.LedgerEntry, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, apperrors.Invalid("type", fmt.Sprintf("unknown transaction type '%s'", req.Type))
	}
	if req.TaxType != "" && !req.TaxType.Valid() {
		return nil, apperrors.Invalid("taxType", fmt.Sprintf("unknown tax type '%s'", req.TaxType))
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	var (
		appended model.LedgerEntry
		number   string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		q, err := lockQuotation(ctx, tx, quotationID)
		if err != nil {
			return err
		}
		appended, err = appendEntry(ctx, tx, q, model.LedgerEntry{
			Type:           req.Type,
			Amount:         req.Amount,
			Date:           date,
			Note:           req.Note,
			PaymentMode:    req.PaymentMode,
			TransactionID:  req.TransactionID,
			TaxType:        req.TaxType,
			TaxPercentage:  req.TaxPercentage,
			DiscountReason: req.DiscountReason,
			Attachment:     req.Attachment,
			CreatedBy:      actor.ID,
		})
		if err != nil {
			return err
		}
		number = q.QuotationNumber
		q.UpdatedBy = actor.ID
		return tx.Quotations().Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(model.Event{
		Type:    "quotation_update",
		Action:  "transaction_added",
		Data:    map[string]any{"quotationId": quotationID, "transaction": appended},
		User:    actor,
		Message: fmt.Sprintf("%s added a %s of %s to %s", actor.Name, appended.Type, appended.Amount.String(), number),
	})
	return &appended, nil
}

func (s *ledgerService) VerifyBalance(q *model.Quotation) error {
	return verifyBalance(q)
}
