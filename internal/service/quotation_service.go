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

// FinancialDetails are the tax and discount inputs of a quotation.
type FinancialDetails struct {
	CGST     decimal.Decimal `json:"cgst" validate:"gte=0,scale=2"`
	SGST     decimal.Decimal `json:"sgst" validate:"gte=0,scale=2"`
	OtherTax decimal.Decimal `json:"otherTax" validate:"gte=0,scale=2"`
	Discount decimal.Decimal `json:"discount" validate:"gte=0,scale=2"`
}

type CreateQuotationRequest struct {
	QuotationName      string                `json:"quotationName" validate:"max=255"`
	ClientName         string                `json:"clientName" validate:"required,max=255"`
	ClientID           string                `json:"clientId" validate:"max=64"`
	Subject            string                `json:"subject" validate:"max=500"`
	Date               *time.Time            `json:"date"`
	Items              []model.QuotationItem `json:"items" validate:"dive"`
	TermsAndConditions string                `json:"termsAndConditions"`
	Attachments        []string              `json:"attachments"`
	FinancialDetails
}

// UpdateQuotationRequest is a partial update. Nil fields are left untouched;
// a non-nil Items replaces the item list.
type UpdateQuotationRequest struct {
	QuotationName      *string               `json:"quotationName" validate:"omitempty,max=255"`
	ClientName         *string               `json:"clientName" validate:"omitempty,min=1,max=255"`
	ClientID           *string               `json:"clientId" validate:"omitempty,max=64"`
	Subject            *string               `json:"subject" validate:"omitempty,max=500"`
	Date               *time.Time            `json:"date"`
	Items              []model.QuotationItem `json:"items" validate:"omitempty,dive"`
	CGST               *decimal.Decimal      `json:"cgst" validate:"omitempty,gte=0,scale=2"`
	SGST               *decimal.Decimal      `json:"sgst" validate:"omitempty,gte=0,scale=2"`
	OtherTax           *decimal.Decimal      `json:"otherTax" validate:"omitempty,gte=0,scale=2"`
	Discount           *decimal.Decimal      `json:"discount" validate:"omitempty,gte=0,scale=2"`
	TermsAndConditions *string               `json:"termsAndConditions"`
	Attachments        []string              `json:"attachments"`
}

type itemsRequest struct {
	Items []model.QuotationItem `json:"items" validate:"min=1,dive"`
}

type QuotationListRequest struct {
	Status       model.QuotationStatus
	Search       string
	ItemCategory string
	Page         int
	Limit        int
}

type QuotationService interface {
	Create(ctx context.Context, req CreateQuotationRequest, actor model.Actor) (*model.Quotation, error)
	AddProducts(ctx context.Context, id uuid.UUID, items []model.QuotationItem, actor model.Actor) (*model.Quotation, error)
	AddFinancialDetails(ctx context.Context, id uuid.UUID, details FinancialDetails, actor model.Actor) (*model.Quotation, error)
	Finalize(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error)
	Approve(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error)
	Reject(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest, actor model.Actor) (*model.Quotation, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	List(ctx context.Context, req QuotationListRequest) (*Page[model.Quotation], error)
	ItemCategories(ctx context.Context) ([]string, error)
	Numbers(ctx context.Context) ([]string, error)
}

type quotationService struct {
	store  repository.Store
	events Notifier
	now    func() time.Time
}

func NewQuotationService(store repository.Store, events Notifier) QuotationService {
	return &quotationService{store: store, events: notifierOrNop(events), now: time.Now}
}

func statusIn(status model.QuotationStatus, allowed []model.QuotationStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// verifyBalance reports a quotation whose stored running balance disagrees
// with its ledger.
func verifyBalance(q *model.Quotation) error {
	if ledger.Verify(q) {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvariantViolation,
		"quotation %s running balance %s does not match ledger total %s",
		q.QuotationNumber, q.RunningBalance.String(), ledger.RunningBalance(q.Transactions).String())
}

// appendEntry appends entry to q's ledger inside tx and refreshes q's
// running balance. The caller still has to Save q.
func appendEntry(ctx context.Context, tx repository.Store, q *model.Quotation, entry model.LedgerEntry) (model.LedgerEntry, error) {
	entries, balance := ledger.Append(q.Transactions, entry)
	appended := entries[len(entries)-1]
	if err := tx.Quotations().AppendEntry(ctx, q.ID, &appended); err != nil {
		return model.LedgerEntry{}, err
	}
	entries[len(entries)-1] = appended
	q.Transactions = entries
	q.RunningBalance = balance
	return appended, nil
}

// lockQuotation loads a live quotation for update and checks its status.
func lockQuotation(ctx context.Context, tx repository.Store, id uuid.UUID, allowed ...model.QuotationStatus) (*model.Quotation, error) {
	q, err := tx.Quotations().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.IsDeleted {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "quotation %s", id)
	}
	if len(allowed) > 0 && !statusIn(q.Status, allowed) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidStatus, "quotation %s is %s", q.QuotationNumber, q.Status)
	}
	return q, nil
}

func checkTotal(q *model.Quotation) error {
	if q.Total.IsNegative() {
		return apperrors.Invalid("discount", fmt.Sprintf("total cannot be negative (%s)", q.Total.String()))
	}
	return nil
}

// mutate runs fn on a locked quotation in one of the allowed statuses, then
// recomputes totals and saves it.
func (s *quotationService) mutate(ctx context.Context, id uuid.UUID, actor model.Actor, allowed []model.QuotationStatus,
	fn func(tx repository.Store, q *model.Quotation) error) (*model.Quotation, error) {
	var out *model.Quotation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		q, err := lockQuotation(ctx, tx, id, allowed...)
		if err != nil {
			return err
		}
		if err := fn(tx, q); err != nil {
			return err
		}
		ledger.Apply(q)
		if err := checkTotal(q); err != nil {
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
	return out, nil
}

func (s *quotationService) publish(action string, q *model.Quotation, actor model.Actor, message string) {
	s.events.Publish(model.Event{
		Type:    "quotation_update",
		Action:  action,
		Data:    q,
		User:    actor,
		Message: message,
	})
}

func (s *quotationService) Create(ctx context.Context, req CreateQuotationRequest, actor model.Actor) (*model.Quotation, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.QuotationName = strings.TrimSpace(req.QuotationName)
	if err := validate(&req); err != nil {
		return nil, err
	}

	now := s.now()
	q := &model.Quotation{
		QuotationName:      req.QuotationName,
		ClientName:         req.ClientName,
		ClientID:           strings.TrimSpace(req.ClientID),
		Subject:            req.Subject,
		Date:               now,
		Status:             model.StatusDraft,
		Items:              append([]model.QuotationItem{}, req.Items...),
		Payments:           []model.Payment{},
		Transactions:       []model.LedgerEntry{},
		CGST:               req.CGST,
		SGST:               req.SGST,
		OtherTax:           req.OtherTax,
		Discount:           req.Discount,
		TermsAndConditions: req.TermsAndConditions,
		Attachments:        append([]string{}, req.Attachments...),
	}
	if req.Date != nil {
		q.Date = *req.Date
	}
	q.ID = uuid.New()
	q.CreatedBy = actor.ID
	q.UpdatedBy = actor.ID
	ledger.Apply(q)
	if err := checkTotal(q); err != nil {
		return nil, err
	}

	fy := ledger.FinancialYear(now)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		seq, err := tx.Quotations().NextSequence(ctx, fy)
		if err != nil {
			return err
		}
		q.QuotationNumber = ledger.QuotationNumber(fy, seq)
		return tx.Quotations().Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Quotation created",
		slog.String("quotation_id", q.ID.String()),
		slog.String("quotation_number", q.QuotationNumber))
	s.publish("quotation_created", q, actor, fmt.Sprintf("%s created quotation %s", actor.Name, q.QuotationNumber))
	return q, nil
}

func (s *quotationService) AddProducts(ctx context.Context, id uuid.UUID, items []model.QuotationItem, actor model.Actor) (*model.Quotation, error) {
	if err := validate(&itemsRequest{Items: items}); err != nil {
		return nil, err
	}
	q, err := s.mutate(ctx, id, actor, []model.QuotationStatus{model.StatusDraft}, func(_ repository.Store, q *model.Quotation) error {
		q.Items = append([]model.QuotationItem{}, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish("quotation_products_updated", q, actor, fmt.Sprintf("%s updated the products of %s", actor.Name, q.QuotationNumber))
	return q, nil
}

func (s *quotationService) AddFinancialDetails(ctx context.Context, id uuid.UUID, details FinancialDetails, actor model.Actor) (*model.Quotation, error) {
	if err := validate(&details); err != nil {
		return nil, err
	}
	q, err := s.mutate(ctx, id, actor, []model.QuotationStatus{model.StatusDraft}, func(_ repository.Store, q *model.Quotation) error {
		q.CGST = details.CGST
		q.SGST = details.SGST
		q.OtherTax = details.OtherTax
		q.Discount = details.Discount
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish("quotation_financials_updated", q, actor, fmt.Sprintf("%s updated the financial details of %s", actor.Name, q.QuotationNumber))
	return q, nil
}

func (s *quotationService) Finalize(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error) {
	q, err := s.mutate(ctx, id, actor, []model.QuotationStatus{model.StatusDraft}, func(tx repository.Store, q *model.Quotation) error {
		ledger.Apply(q)
		if len(q.Items) == 0 {
			return apperrors.Invalid("items", "a quotation needs at least one item to be finalized")
		}
		if !q.Total.IsPositive() {
			return apperrors.Invalid("total", "total must be greater than zero to finalize")
		}
		q.Status = model.StatusSent
		_, err := appendEntry(ctx, tx, q, model.LedgerEntry{
			Type:      model.EntryCredit,
			Amount:    q.Total,
			Date:      s.now(),
			Note:      "Quotation finalized",
			CreatedBy: actor.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Quotation finalized",
		slog.String("quotation_number", q.QuotationNumber),
		slog.String("total", q.Total.String()))
	s.publish("quotation_finalized", q, actor, fmt.Sprintf("%s finalized quotation %s", actor.Name, q.QuotationNumber))
	return q, nil
}

func (s *quotationService) transition(ctx context.Context, id uuid.UUID, to model.QuotationStatus, action string, actor model.Actor) (*model.Quotation, error) {
	q, err := s.mutate(ctx, id, actor, []model.QuotationStatus{model.StatusSent}, func(_ repository.Store, q *model.Quotation) error {
		q.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(action, q, actor, fmt.Sprintf("%s marked quotation %s as %s", actor.Name, q.QuotationNumber, to))
	return q, nil
}

func (s *quotationService) Approve(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error) {
	return s.transition(ctx, id, model.StatusApproved, "quotation_approved", actor)
}

func (s *quotationService) Reject(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Quotation, error) {
	return s.transition(ctx, id, model.StatusRejected, "quotation_rejected", actor)
}

// Update merges req into a Draft or Sent quotation. Once Sent, a change of
// total is booked as a corrective ledger entry: a credit for an increase and
// an adjustment for a decrease.
func (s *quotationService) Update(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest, actor model.Actor) (*model.Quotation, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	allowed := []model.QuotationStatus{model.StatusDraft, model.StatusSent}
	q, err := s.mutate(ctx, id, actor, allowed, func(tx repository.Store, q *model.Quotation) error {
		before := q.Total
		mergeQuotation(q, req)
		ledger.Apply(q)
		if err := checkTotal(q); err != nil {
			return err
		}
		if q.Status != model.StatusSent || q.Total.Equal(before) {
			return nil
		}
		if paid := ledger.PaymentsTotal(q.Payments); q.Total.LessThan(paid) {
			return apperrors.Wrap(apperrors.ErrOverPayment,
				"revised total %s is below the %s already received", q.Total.String(), paid.String())
		}
		entry := model.LedgerEntry{
			Type:      model.EntryCredit,
			Amount:    q.Total.Sub(before),
			Date:      s.now(),
			Note:      "Quotation revised",
			CreatedBy: actor.ID,
		}
		if entry.Amount.IsNegative() {
			entry.Type = model.EntryAdjustment
			entry.Amount = entry.Amount.Neg()
		}
		_, err := appendEntry(ctx, tx, q, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish("quotation_updated", q, actor, fmt.Sprintf("%s updated quotation %s", actor.Name, q.QuotationNumber))
	return q, nil
}

func mergeQuotation(q *model.Quotation, req UpdateQuotationRequest) {
	if req.QuotationName != nil {
		q.QuotationName = strings.TrimSpace(*req.QuotationName)
	}
	if req.ClientName != nil {
		q.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.ClientID != nil {
		q.ClientID = strings.TrimSpace(*req.ClientID)
	}
	if req.Subject != nil {
		q.Subject = *req.Subject
	}
	if req.Date != nil {
		q.Date = *req.Date
	}
	if req.Items != nil {
		q.Items = append([]model.QuotationItem{}, req.Items...)
	}
	if req.CGST != nil {
		q.CGST = *req.CGST
	}
	if req.SGST != nil {
		q.SGST = *req.SGST
	}
	if req.OtherTax != nil {
		q.OtherTax = *req.OtherTax
	}
	if req.Discount != nil {
		q.Discount = *req.Discount
	}
	if req.TermsAndConditions != nil {
		q.TermsAndConditions = *req.TermsAndConditions
	}
	if req.Attachments != nil {
		q.Attachments = append([]string{}, req.Attachments...)
	}
}

func (s *quotationService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	allowed := []model.QuotationStatus{model.StatusDraft, model.StatusRejected}
	q, err := s.mutate(ctx, id, actor, allowed, func(_ repository.Store, q *model.Quotation) error {
		q.IsDeleted = true
		return nil
	})
	if err != nil {
		return err
	}
	s.publish("quotation_deleted", q, actor, fmt.Sprintf("%s deleted quotation %s", actor.Name, q.QuotationNumber))
	return nil
}

func (s *quotationService) Get(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	q, err := s.store.Quotations().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.IsDeleted {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "quotation %s", id)
	}
	if err := verifyBalance(q); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Ledger mismatch", slog.String("quotation_number", q.QuotationNumber), slog.String("error", err.Error()))
		return nil, err
	}
	return q, nil
}

// List only logs ledger mismatches so one bad record does not hide the rest.
func (s *quotationService) List(ctx context.Context, req QuotationListRequest) (*Page[model.Quotation], error) {
	if req.Status != "" && !statusIn(req.Status, []model.QuotationStatus{model.StatusDraft, model.StatusSent, model.StatusApproved, model.StatusRejected}) {
		return nil, apperrors.Invalid("status", fmt.Sprintf("unknown status '%s'", req.Status))
	}
	page, limit := normalizePage(req.Page, req.Limit)
	items, total, err := s.store.Quotations().FindAll(ctx, repository.QuotationFilter{
		Status:       req.Status,
		Search:       strings.TrimSpace(req.Search),
		ItemCategory: strings.TrimSpace(req.ItemCategory),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	for i := range items {
		if err := verifyBalance(&items[i]); err != nil {
			logger.Error("Ledger mismatch", slog.String("quotation_number", items[i].QuotationNumber), slog.String("error", err.Error()))
		}
	}
	if items == nil {
		items = []model.Quotation{}
	}
	return &Page[model.Quotation]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *quotationService) ItemCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.Quotations().ItemCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *quotationService) Numbers(ctx context.Context) ([]string, error) {
	numbers, err := s.store.Quotations().Numbers(ctx)
	if err != nil {
		return nil, err
	}
	if numbers == nil {
		numbers = []string{}
	}
	return numbers, nil
}
