package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "Draft"
	StatusSent     QuotationStatus = "Sent"
	StatusApproved QuotationStatus = "Approved"
	StatusRejected QuotationStatus = "Rejected"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentCheque       PaymentMethod = "Cheque"
	PaymentOther        PaymentMethod = "Other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCreditCard, PaymentCheque, PaymentOther:
		return true
	}
	return false
}

type EntryType string

const (
	EntryCredit     EntryType = "credit"
	EntryDebit      EntryType = "debit"
	EntryTax        EntryType = "tax"
	EntryDiscount   EntryType = "discount"
	EntryAdjustment EntryType = "adjustment"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryCredit, EntryDebit, EntryTax, EntryDiscount, EntryAdjustment:
		return true
	}
	return false
}

type TaxType string

const (
	TaxCGST  TaxType = "CGST"
	TaxSGST  TaxType = "SGST"
	TaxIGST  TaxType = "IGST"
	TaxOther TaxType = "Other"
)

func (t TaxType) Valid() bool {
	switch t {
	case TaxCGST, TaxSGST, TaxIGST, TaxOther:
		return true
	}
	return false
}

type QuotationItem struct {
	ProductName string          `json:"productName" bson:"productName" validate:"required"`
	Description string          `json:"description" bson:"description"`
	Quantity    decimal.Decimal `json:"quantity" bson:"quantity" validate:"gt=0,scale=3"`
	UnitPrice   decimal.Decimal `json:"unitPrice" bson:"unitPrice" validate:"gte=0,scale=2"`
	TotalPrice  decimal.Decimal `json:"totalPrice" bson:"totalPrice"`
	Category    string          `json:"category" bson:"category"`
	Code        string          `json:"code" bson:"code"`
	Unit        string          `json:"unit" bson:"unit"`
}

type Payment struct {
	ID              uuid.UUID       `json:"_id" bson:"_id"`
	AmountReceived  decimal.Decimal `json:"amountReceived" bson:"amountReceived"`
	PaymentDate     time.Time       `json:"paymentDate" bson:"paymentDate"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" bson:"paymentMethod"`
	ReferenceNumber string          `json:"referenceNumber" bson:"referenceNumber"`
	Notes           string          `json:"notes" bson:"notes"`
	RecordedBy      string          `json:"recordedBy,omitempty" bson:"recordedBy,omitempty"`
}

// LedgerEntry is one append-only line of a quotation's transaction log.
// BalanceAfter is the running balance once the entry is applied.
type LedgerEntry struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"_id" bson:"_id"`
	QuotationID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"-" bson:"-"`
	Seq            int             `gorm:"not null" json:"-" bson:"-"`
	Type           EntryType       `gorm:"type:varchar(20);not null" json:"type" bson:"type"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,5);not null" json:"amount" bson:"amount"`
	Date           time.Time       `json:"date" bson:"date"`
	Note           string          `json:"note" bson:"note"`
	PaymentMode    string          `gorm:"type:varchar(50)" json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	TransactionID  string          `gorm:"type:varchar(100)" json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	TaxType        TaxType         `gorm:"type:varchar(10)" json:"taxType,omitempty" bson:"taxType,omitempty"`
	TaxPercentage  decimal.Decimal `gorm:"type:numeric(6,2);default:0" json:"taxPercentage" bson:"taxPercentage"`
	DiscountReason string          `json:"discountReason,omitempty" bson:"discountReason,omitempty"`
	Attachment     string          `json:"attachment,omitempty" bson:"attachment,omitempty"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(20,5);not null" json:"balanceAfter" bson:"balanceAfter"`
	CreatedBy      string          `gorm:"type:varchar(255)" json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "quotation_transactions"
}

type Quotation struct {
	BaseModel          `bson:",inline"`
	QuotationNumber    string                             `gorm:"type:varchar(20);uniqueIndex;not null" json:"quotationNumber" bson:"quotationNumber"`
	QuotationName      string                             `gorm:"type:varchar(255)" json:"quotationName" bson:"quotationName"`
	ClientName         string                             `gorm:"type:varchar(255);index" json:"clientName" bson:"clientName"`
	ClientID           string                             `gorm:"type:varchar(64);index" json:"clientId,omitempty" bson:"clientId,omitempty"`
	Subject            string                             `json:"subject" bson:"subject"`
	Date               time.Time                          `json:"date" bson:"date"`
	Status             QuotationStatus                    `gorm:"type:varchar(20);not null;index" json:"status" bson:"status"`
	Items              datatypes.JSONSlice[QuotationItem] `gorm:"type:jsonb" json:"items" bson:"items"`
	Payments           datatypes.JSONSlice[Payment]       `gorm:"type:jsonb" json:"payments" bson:"payments"`
	Transactions       []LedgerEntry                      `gorm:"foreignKey:QuotationID" json:"transactions" bson:"transactions"`
	Subtotal           decimal.Decimal                    `gorm:"type:numeric(20,5);not null;default:0" json:"subtotal" bson:"subtotal"`
	CGST               decimal.Decimal                    `gorm:"column:cgst;type:numeric(14,2);not null;default:0" json:"cgst" bson:"cgst"`
	SGST               decimal.Decimal                    `gorm:"column:sgst;type:numeric(14,2);not null;default:0" json:"sgst" bson:"sgst"`
	OtherTax           decimal.Decimal                    `gorm:"type:numeric(14,2);not null;default:0" json:"otherTax" bson:"otherTax"`
	Tax                decimal.Decimal                    `gorm:"type:numeric(14,2);not null;default:0" json:"tax" bson:"tax"`
	Discount           decimal.Decimal                    `gorm:"type:numeric(14,2);not null;default:0" json:"discount" bson:"discount"`
	Total              decimal.Decimal                    `gorm:"type:numeric(20,5);not null;default:0" json:"total" bson:"total"`
	RunningBalance     decimal.Decimal                    `gorm:"type:numeric(20,5);not null;default:0" json:"runningBalance" bson:"runningBalance"`
	TermsAndConditions string                             `json:"termsAndConditions" bson:"termsAndConditions"`
	Attachments        datatypes.JSONSlice[string]        `gorm:"type:jsonb" json:"attachments" bson:"attachments"`
	IsDeleted          bool                               `gorm:"not null;default:false;index" json:"isDeleted" bson:"isDeleted"`
}

// QuotationCounter holds the last sequence handed out for a financial year.
type QuotationCounter struct {
	FinancialYear int   `gorm:"primaryKey;autoIncrement:false" json:"financialYear" bson:"_id"`
	Seq           int64 `gorm:"not null;default:0" json:"seq" bson:"seq"`
}
