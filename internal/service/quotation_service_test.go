package service

import (
	"context"
	"testing"
	"time"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type QuotationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	events  *eventRecorder
	clock   time.Time
	quotes  *quotationService
	ledger  *ledgerService
	finance *clientFinanceService
}

func TestQuotationService(t *testing.T) {
	suite.Run(t, new(QuotationServiceSuite))
}

func (s *QuotationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.events = &eventRecorder{}
	s.clock = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return s.clock }
	s.store.SetClock(now)
	s.quotes = &quotationService{store: s.store, events: s.events, now: now}
	s.ledger = &ledgerService{store: s.store, events: s.events, now: now}
	s.finance = &clientFinanceService{store: s.store, events: s.events, now: now}
}

func (s *QuotationServiceSuite) equalDec(expected string, actual decimal.Decimal) {
	s.T().Helper()
	s.True(dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

// draft creates the quotation of the reference scenario: 2 x 100, cgst 9,
// sgst 9, discount 10.
func (s *QuotationServiceSuite) draft() *model.Quotation {
	q, err := s.quotes.Create(s.ctx, CreateQuotationRequest{
		QuotationName: "Showroom fit-out",
		ClientName:    "Acme Interiors",
		ClientID:      "C-1",
		Items: []model.QuotationItem{
			{ProductName: "Panel", Quantity: dec("2"), UnitPrice: dec("100"), TotalPrice: dec("1"), Category: "Lighting"},
		},
		FinancialDetails: FinancialDetails{CGST: dec("9"), SGST: dec("9"), Discount: dec("10")},
	}, tester)
	s.Require().NoError(err)
	return q
}

func (s *QuotationServiceSuite) sent() *model.Quotation {
	q := s.draft()
	q, err := s.quotes.Finalize(s.ctx, q.ID, tester)
	s.Require().NoError(err)
	return q
}

func (s *QuotationServiceSuite) TestReferenceScenario() {
	q := s.draft()
	s.Equal(model.StatusDraft, q.Status)
	s.Equal("2024-ME-001", q.QuotationNumber)
	s.equalDec("200", q.Items[0].TotalPrice)
	s.equalDec("200", q.Subtotal)
	s.equalDec("18", q.Tax)
	s.equalDec("208", q.Total)
	s.equalDec("0", q.RunningBalance)
	s.Empty(q.Transactions)

	q, err := s.quotes.Finalize(s.ctx, q.ID, tester)
	s.Require().NoError(err)
	s.Equal(model.StatusSent, q.Status)
	s.Require().Len(q.Transactions, 1)
	s.Equal(model.EntryCredit, q.Transactions[0].Type)
	s.equalDec("208", q.Transactions[0].Amount)
	s.equalDec("208", q.Transactions[0].BalanceAfter)
	s.Equal("Quotation finalized", q.Transactions[0].Note)
	s.equalDec("208", q.RunningBalance)

	q, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("100")}, tester)
	s.Require().NoError(err)
	s.equalDec("308", q.RunningBalance)
	s.Require().Len(q.Payments, 1)
	s.Equal(model.PaymentBankTransfer, q.Payments[0].PaymentMethod)
	s.Require().Len(q.Transactions, 2)
	s.Equal("Payment received", q.Transactions[1].Note)
	s.Equal("Bank Transfer", q.Transactions[1].PaymentMode)

	summary, err := s.finance.Summary(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("100", summary.Paid)
	s.equalDec("108", summary.Due)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("308", stored.RunningBalance)
	s.Len(stored.Transactions, 2)

	s.Equal([]string{"quotation_created", "quotation_finalized", "payment_applied"}, s.events.actions())
}

func (s *QuotationServiceSuite) TestNumbersAreSequentialPerFinancialYear() {
	for _, want := range []string{"2024-ME-001", "2024-ME-002", "2024-ME-003"} {
		s.Equal(want, s.draft().QuotationNumber)
	}

	s.clock = time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	s.Equal("2024-ME-004", s.draft().QuotationNumber)

	s.clock = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
	s.Equal("2025-ME-001", s.draft().QuotationNumber)
}

func (s *QuotationServiceSuite) TestCreateValidates() {
	_, err := s.quotes.Create(s.ctx, CreateQuotationRequest{ClientName: " "}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName: "Acme",
		Items:      []model.QuotationItem{{ProductName: "Panel", Quantity: dec("0"), UnitPrice: dec("10")}},
	}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName:       "Acme",
		FinancialDetails: FinancialDetails{CGST: dec("-1")},
	}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *QuotationServiceSuite) TestFinalizeTwiceFails() {
	q := s.sent()

	_, err := s.quotes.Finalize(s.ctx, q.ID, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Len(stored.Transactions, 1)
}

func (s *QuotationServiceSuite) TestFinalizeRequiresItemsAndPositiveTotal() {
	q, err := s.quotes.Create(s.ctx, CreateQuotationRequest{ClientName: "Acme"}, tester)
	s.Require().NoError(err)

	_, err = s.quotes.Finalize(s.ctx, q.ID, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.quotes.AddProducts(s.ctx, q.ID, []model.QuotationItem{{ProductName: "Sample", Quantity: dec("1"), UnitPrice: dec("0")}}, tester)
	s.Require().NoError(err)
	_, err = s.quotes.Finalize(s.ctx, q.ID, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusDraft, stored.Status)
}

func (s *QuotationServiceSuite) TestAddProductsReplacesItems() {
	q := s.draft()

	q, err := s.quotes.AddProducts(s.ctx, q.ID, []model.QuotationItem{
		{ProductName: "Spotlight", Quantity: dec("3"), UnitPrice: dec("50")},
	}, tester)
	s.Require().NoError(err)
	s.Require().Len(q.Items, 1)
	s.Equal("Spotlight", q.Items[0].ProductName)
	s.equalDec("150", q.Subtotal)
	s.equalDec("158", q.Total)

	_, err = s.quotes.AddProducts(s.ctx, q.ID, nil, tester)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *QuotationServiceSuite) TestDraftOnlyOperations() {
	q := s.sent()

	_, err := s.quotes.AddProducts(s.ctx, q.ID, []model.QuotationItem{{ProductName: "x", Quantity: dec("1"), UnitPrice: dec("1")}}, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	_, err = s.quotes.AddFinancialDetails(s.ctx, q.ID, FinancialDetails{}, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)
}

func (s *QuotationServiceSuite) TestFinancialDetailsRejectNegativeTotal() {
	q := s.draft()

	_, err := s.quotes.AddFinancialDetails(s.ctx, q.ID, FinancialDetails{Discount: dec("500")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	q, err = s.quotes.AddFinancialDetails(s.ctx, q.ID, FinancialDetails{CGST: dec("18"), OtherTax: dec("2")}, tester)
	s.Require().NoError(err)
	s.equalDec("20", q.Tax)
	s.equalDec("220", q.Total)
}

func (s *QuotationServiceSuite) TestApproveAndReject() {
	q := s.draft()

	_, err := s.quotes.Approve(s.ctx, q.ID, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	_, err = s.quotes.Finalize(s.ctx, q.ID, tester)
	s.Require().NoError(err)
	q, err = s.quotes.Approve(s.ctx, q.ID, tester)
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, q.Status)
	s.Len(q.Transactions, 1)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("8"), PaymentMethod: model.PaymentCash}, tester)
	s.Require().NoError(err)

	_, err = s.quotes.Reject(s.ctx, q.ID, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	other := s.sent()
	other, err = s.quotes.Reject(s.ctx, other.ID, tester)
	s.Require().NoError(err)
	s.Equal(model.StatusRejected, other.Status)

	_, err = s.quotes.Update(s.ctx, other.ID, UpdateQuotationRequest{}, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)
}

func (s *QuotationServiceSuite) TestOverPaymentLeavesStateUnchanged() {
	q := s.sent()
	_, err := s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("200")}, tester)
	s.Require().NoError(err)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("10")}, tester)
	s.ErrorIs(err, apperrors.ErrOverPayment)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Len(stored.Payments, 1)
	s.Len(stored.Transactions, 2)
	s.equalDec("408", stored.RunningBalance)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("8")}, tester)
	s.NoError(err)
}

func (s *QuotationServiceSuite) TestApplyPaymentValidation() {
	draft := s.draft()
	_, err := s.ledger.ApplyPayment(s.ctx, draft.ID, PaymentRequest{AmountReceived: dec("10")}, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	q := s.sent()
	future := s.clock.Add(24 * time.Hour)
	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("10"), PaymentDate: &future}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("10"), PaymentMethod: "Barter"}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("0")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.ApplyPayment(s.ctx, uuid.New(), PaymentRequest{AmountReceived: dec("10")}, tester)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *QuotationServiceSuite) TestUpdateSentBooksCorrections() {
	q := s.sent()

	discount := dec("20")
	q, err := s.quotes.Update(s.ctx, q.ID, UpdateQuotationRequest{Discount: &discount}, tester)
	s.Require().NoError(err)
	s.equalDec("198", q.Total)
	s.Require().Len(q.Transactions, 2)
	s.Equal(model.EntryAdjustment, q.Transactions[1].Type)
	s.equalDec("10", q.Transactions[1].Amount)
	s.equalDec("198", q.RunningBalance)

	q, err = s.quotes.Update(s.ctx, q.ID, UpdateQuotationRequest{
		Items: []model.QuotationItem{{ProductName: "Panel", Quantity: dec("3"), UnitPrice: dec("100")}},
	}, tester)
	s.Require().NoError(err)
	s.equalDec("298", q.Total)
	s.Require().Len(q.Transactions, 3)
	s.Equal(model.EntryCredit, q.Transactions[2].Type)
	s.equalDec("100", q.Transactions[2].Amount)
	s.Equal("Quotation revised", q.Transactions[2].Note)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("298", stored.RunningBalance)
}

func (s *QuotationServiceSuite) TestUpdateDraftDoesNotTouchLedger() {
	q := s.draft()
	name := "Lobby"

	q, err := s.quotes.Update(s.ctx, q.ID, UpdateQuotationRequest{QuotationName: &name, Discount: &decimal.Zero}, tester)
	s.Require().NoError(err)
	s.Equal("Lobby", q.QuotationName)
	s.equalDec("218", q.Total)
	s.Empty(q.Transactions)
}

func (s *QuotationServiceSuite) TestUpdateCannotDropBelowPaid() {
	q := s.sent()
	_, err := s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("200")}, tester)
	s.Require().NoError(err)

	discount := dec("100")
	_, err = s.quotes.Update(s.ctx, q.ID, UpdateQuotationRequest{Discount: &discount}, tester)
	s.ErrorIs(err, apperrors.ErrOverPayment)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("208", stored.Total)
}

func (s *QuotationServiceSuite) TestDeleteIsSoft() {
	sent := s.sent()
	err := s.quotes.Delete(s.ctx, sent.ID, tester)
	s.ErrorIs(err, apperrors.ErrInvalidStatus)

	q := s.draft()
	s.Require().NoError(s.quotes.Delete(s.ctx, q.ID, tester))

	_, err = s.quotes.Get(s.ctx, q.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.quotes.Delete(s.ctx, q.ID, tester), apperrors.ErrNotFound)

	raw, err := s.store.Quotations().FindByID(s.ctx, q.ID)
	s.Require().NoError(err)
	s.True(raw.IsDeleted)

	numbers, err := s.quotes.Numbers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{sent.QuotationNumber}, numbers)

	_, err = s.quotes.Reject(s.ctx, sent.ID, tester)
	s.Require().NoError(err)
	s.NoError(s.quotes.Delete(s.ctx, sent.ID, tester))
}

func (s *QuotationServiceSuite) TestAppendTransaction() {
	q := s.draft()

	entry, err := s.ledger.AppendTransaction(s.ctx, q.ID, TransactionRequest{
		Type:          model.EntryTax,
		Amount:        dec("50"),
		TaxType:       model.TaxIGST,
		TaxPercentage: dec("18"),
	}, tester)
	s.Require().NoError(err)
	s.equalDec("-50", entry.BalanceAfter)
	s.NotEqual(uuid.Nil, entry.ID)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("-50", stored.RunningBalance)
	s.Equal(model.TaxIGST, stored.Transactions[0].TaxType)

	_, err = s.ledger.AppendTransaction(s.ctx, q.ID, TransactionRequest{Type: "refund", Amount: dec("1")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.AppendTransaction(s.ctx, q.ID, TransactionRequest{Type: model.EntryTax, Amount: dec("1"), TaxType: "VAT"}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *QuotationServiceSuite) TestGetDetectsLedgerMismatch() {
	q := s.sent()

	raw, err := s.store.Quotations().FindByID(s.ctx, q.ID)
	s.Require().NoError(err)
	raw.RunningBalance = dec("999")
	s.Require().NoError(s.store.Quotations().Save(s.ctx, raw))

	_, err = s.quotes.Get(s.ctx, q.ID)
	s.ErrorIs(err, apperrors.ErrInvariantViolation)
	s.ErrorIs(s.ledger.VerifyBalance(raw), apperrors.ErrInvariantViolation)

	page, err := s.quotes.List(s.ctx, QuotationListRequest{})
	s.Require().NoError(err)
	s.Len(page.Items, 1)
}

func (s *QuotationServiceSuite) TestListFilters() {
	lighting := s.sent()
	_, err := s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName: "Beta Builders",
		Items:      []model.QuotationItem{{ProductName: "Tap", Quantity: dec("1"), UnitPrice: dec("40"), Category: "Plumbing"}},
	}, tester)
	s.Require().NoError(err)

	page, err := s.quotes.List(s.ctx, QuotationListRequest{ItemCategory: "Lighting"})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(lighting.ID, page.Items[0].ID)

	page, err = s.quotes.List(s.ctx, QuotationListRequest{Status: model.StatusDraft})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("Beta Builders", page.Items[0].ClientName)

	page, err = s.quotes.List(s.ctx, QuotationListRequest{Search: "acme"})
	s.Require().NoError(err)
	s.Equal(int64(1), page.Total)

	page, err = s.quotes.List(s.ctx, QuotationListRequest{Page: 2, Limit: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.Len(page.Items, 1)

	_, err = s.quotes.List(s.ctx, QuotationListRequest{Status: "Archived"})
	s.ErrorIs(err, apperrors.ErrValidation)

	categories, err := s.quotes.ItemCategories(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Lighting", "Plumbing"}, categories)
}

func (s *QuotationServiceSuite) TestClientTransactions() {
	q := s.sent()

	credit, err := s.finance.AddTransaction(s.ctx, ClientTransactionRequest{
		QuotationNumber: q.QuotationNumber,
		ClientID:        "someone-else",
		Type:            model.ClientCredit,
		Amount:          dec("500"),
	}, tester)
	s.Require().NoError(err)
	s.Equal("C-1", credit.ClientID)
	s.Require().NotNil(credit.QuotationID)
	s.Equal(q.ID, *credit.QuotationID)

	debit, err := s.finance.AddTransaction(s.ctx, ClientTransactionRequest{
		QuotationID: &q.ID,
		Type:        model.ClientDebit,
		Amount:      dec("120"),
	}, tester)
	s.Require().NoError(err)
	s.Equal(q.QuotationNumber, debit.QuotationNumber)
	s.Equal("C-1", debit.ClientID)

	_, err = s.finance.AddTransaction(s.ctx, ClientTransactionRequest{QuotationNumber: "2019-ME-999", ClientID: "C-9", Type: model.ClientCredit, Amount: dec("1")}, tester)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.finance.AddTransaction(s.ctx, ClientTransactionRequest{Type: model.ClientCredit, Amount: dec("1")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.finance.AddTransaction(s.ctx, ClientTransactionRequest{ClientID: "C-1", Type: "refund", Amount: dec("1")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	standalone, err := s.finance.AddTransaction(s.ctx, ClientTransactionRequest{ClientID: "C-2", Type: model.ClientCredit, Amount: dec("5")}, tester)
	s.Require().NoError(err)
	s.Nil(standalone.QuotationID)

	txs, err := s.finance.ListByQuotation(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Len(txs, 2)

	summary, err := s.finance.Summary(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("500", summary.TotalCredited)
	s.equalDec("120", summary.TotalDebited)
	s.equalDec("380", summary.Profit)
	s.equalDec("0", summary.Paid)
	s.equalDec("208", summary.Due)

	_, err = s.finance.Summary(s.ctx, uuid.New())
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *QuotationServiceSuite) TestFractionalAmountsFitStoredScale() {
	_, err := s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName: "Acme Interiors",
		Items:      []model.QuotationItem{{ProductName: "Cable", Quantity: dec("0.5"), UnitPrice: dec("10.255")}},
	}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName: "Acme Interiors",
		Items:      []model.QuotationItem{{ProductName: "Cable", Quantity: dec("0.1255"), UnitPrice: dec("10")}},
	}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	q, err := s.quotes.Create(s.ctx, CreateQuotationRequest{
		ClientName: "Acme Interiors",
		Items:      []model.QuotationItem{{ProductName: "Cable", Quantity: dec("0.5"), UnitPrice: dec("10.25")}},
	}, tester)
	s.Require().NoError(err)
	s.equalDec("5.125", q.Subtotal)

	discount := dec("0.001")
	_, err = s.quotes.Update(s.ctx, q.ID, UpdateQuotationRequest{Discount: &discount}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.quotes.Finalize(s.ctx, q.ID, tester)
	s.Require().NoError(err)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("5.125")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.ledger.AppendTransaction(s.ctx, q.ID, TransactionRequest{Type: model.EntryDiscount, Amount: dec("0.005")}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("5.12")}, tester)
	s.Require().NoError(err)
	_, err = s.ledger.ApplyPayment(s.ctx, q.ID, PaymentRequest{AmountReceived: dec("0.01")}, tester)
	s.ErrorIs(err, apperrors.ErrOverPayment)

	stored, err := s.quotes.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.equalDec("10.245", stored.RunningBalance)

	// derived columns are numeric(20,5)
	for _, v := range []decimal.Decimal{stored.Subtotal, stored.Total, stored.RunningBalance} {
		s.True(v.Equal(v.Round(5)), v.String())
	}
	for _, e := range stored.Transactions {
		s.True(e.Amount.Equal(e.Amount.Round(5)), e.Amount.String())
		s.True(e.BalanceAfter.Equal(e.BalanceAfter.Round(5)), e.BalanceAfter.String())
	}
}
