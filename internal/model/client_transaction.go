package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClientTransactionType string

const (
	ClientCredit ClientTransactionType = "credit"
	ClientDebit  ClientTransactionType = "debit"
)

// ClientTransaction is a money movement recorded against a client outside the
// quotation's own ledger, optionally tied to a quotation.
type ClientTransaction struct {
	BaseModel       `bson:",inline"`
	QuotationID     *uuid.UUID            `gorm:"type:uuid;index" json:"quotationId" bson:"quotationId"`
	QuotationNumber string                `gorm:"type:varchar(20);index" json:"quotationNumber,omitempty" bson:"quotationNumber,omitempty"`
	ClientID        string                `gorm:"type:varchar(64);index;not null" json:"clientId" bson:"clientId"`
	Type            ClientTransactionType `gorm:"type:varchar(10);not null" json:"type" bson:"type"`
	Amount          decimal.Decimal       `gorm:"type:numeric(14,2);not null" json:"amount" bson:"amount"`
	Date            time.Time             `json:"date" bson:"date"`
	PaymentMode     string                `gorm:"type:varchar(50)" json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	TransactionID   string                `gorm:"type:varchar(100)" json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	Note            string                `json:"note,omitempty" bson:"note,omitempty"`
}

// FinanceSummary aggregates a quotation's payments and client transactions.
type FinanceSummary struct {
	Quotation     *Quotation          `json:"quotation"`
	Transactions  []ClientTransaction `json:"transactions"`
	TotalCredited decimal.Decimal     `json:"totalCredited"`
	TotalDebited  decimal.Decimal     `json:"totalDebited"`
	Profit        decimal.Decimal     `json:"profit"`
	Paid          decimal.Decimal     `json:"paid"`
	Due           decimal.Decimal     `json:"due"`
}
