// Package ledger holds the pure arithmetic behind quotation totals, the
// running balance and quotation numbering.
package ledger

import (
	"fmt"
	"time"

	"backoffice-api/internal/model"

	"github.com/shopspring/decimal"
)

// Financials are the adjustable money fields of a quotation.
type Financials struct {
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	OtherTax decimal.Decimal
	Discount decimal.Decimal
}

type Totals struct {
	Items    []model.QuotationItem
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// RecomputeTotals recomputes every item's totalPrice and derives
// subtotal, tax and total from them. The input slice is not modified.
func RecomputeTotals(items []model.QuotationItem, f Financials) Totals {
	out := make([]model.QuotationItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		item.TotalPrice = item.Quantity.Mul(item.UnitPrice)
		subtotal = subtotal.Add(item.TotalPrice)
		out[i] = item
	}
	tax := f.CGST.Add(f.SGST).Add(f.OtherTax)
	return Totals{
		Items:    out,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax).Sub(f.Discount),
	}
}

// Apply writes the recomputed totals back onto q.
func Apply(q *model.Quotation) {
	t := RecomputeTotals(q.Items, Financials{CGST: q.CGST, SGST: q.SGST, OtherTax: q.OtherTax, Discount: q.Discount})
	q.Items = t.Items
	q.Subtotal = t.Subtotal
	q.Tax = t.Tax
	q.Total = t.Total
}

// Signed returns the effect of one entry on the balance: credits add,
// every other type subtracts.
func Signed(e model.LedgerEntry) decimal.Decimal {
	if e.Type == model.EntryCredit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// RunningBalance folds the entries in order.
func RunningBalance(entries []model.LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(Signed(e))
	}
	return balance
}

// Append adds entry to the log, stamping its BalanceAfter and sequence,
// and returns the new log and balance.
func Append(entries []model.LedgerEntry, entry model.LedgerEntry) ([]model.LedgerEntry, decimal.Decimal) {
	balance := RunningBalance(entries).Add(Signed(entry))
	entry.BalanceAfter = balance
	entry.Seq = len(entries) + 1
	out := make([]model.LedgerEntry, len(entries), len(entries)+1)
	copy(out, entries)
	return append(out, entry), balance
}

// Verify reports whether the stored running balance matches the log.
func Verify(q *model.Quotation) bool {
	return q.RunningBalance.Equal(RunningBalance(q.Transactions))
}

// PaymentsTotal sums the amounts received.
func PaymentsTotal(payments []model.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.AmountReceived)
	}
	return sum
}

// FinancialYear returns the starting calendar year of the April-March
// financial year t falls in.
func FinancialYear(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// QuotationNumber formats a number as {FY}-ME-{seq}, seq zero padded to three digits.
func QuotationNumber(fy int, seq int64) string {
	return fmt.Sprintf("%d-ME-%03d", fy, seq)
}
