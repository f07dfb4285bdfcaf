package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt is a monetary transaction. A positive Amount is debt incurred by the
// customer, a negative Amount is a payment received. RateToCUP is locked in
// when the record is created and is never recalculated.
type Debt struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  Currency        `json:"currency"`
	Notes     string          `json:"notes"`
	Date      time.Time       `json:"date"`
	RateToCUP decimal.Decimal `json:"rateToCUP"`
}

// IsPayment reports whether the record reduces the customer's balance.
func (d Debt) IsPayment() bool { return d.Amount.IsNegative() }

// AmountInCUP is the CUP-equivalent of the record at its locked rate.
func (d Debt) AmountInCUP() decimal.Decimal { return d.Amount.Mul(d.RateToCUP) }

// BoxTransactionType distinguishes incurred box debt from box payments.
type BoxTransactionType string

const (
	BoxTransactionAdd BoxTransactionType = "ADD"
	BoxTransactionPay BoxTransactionType = "PAY"
)

// BoxTransaction is a unit ("box") transaction. ADD entries record boxes owed,
// PAY entries settle boxes against the ADD entry named by DebtID.
//
// For PAY entries Boxes is derived from the settlement fields when the record
// is created and stored as-is afterwards.
type BoxTransaction struct {
	ID    string             `json:"id"`
	Type  BoxTransactionType `json:"type"`
	Boxes decimal.Decimal    `json:"boxes"`
	Notes string             `json:"notes"`
	Date  time.Time          `json:"date"`

	PaymentAmount    *decimal.Decimal `json:"paymentAmount,omitempty"`
	PaymentCurrency  Currency         `json:"paymentCurrency,omitempty"`
	PaymentRateToCUP *decimal.Decimal `json:"paymentRateToCUP,omitempty"`
	BoxValueInCUP    *decimal.Decimal `json:"boxValueInCUP,omitempty"`
	DebtID           string           `json:"debtId,omitempty"`
}

func (t BoxTransaction) IsAdd() bool { return t.Type == BoxTransactionAdd }

func (t BoxTransaction) IsPay() bool { return t.Type == BoxTransactionPay }
