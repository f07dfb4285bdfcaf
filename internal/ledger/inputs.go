package ledger

import (
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// NewDebt is the input for recording a monetary debt or payment. Amount is a
// positive magnitude in both cases; AddPayment stores it negated.
type NewDebt struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency  models.Currency `json:"currency" validate:"currency"`
	RateToCUP decimal.Decimal `json:"rateToCUP" validate:"gt=0"`
	Notes     string          `json:"notes" validate:"notblank"`
}

// NewBoxDebt is the input for recording boxes owed.
type NewBoxDebt struct {
	Boxes decimal.Decimal `json:"boxes" validate:"gt=0"`
	Notes string          `json:"notes" validate:"notblank"`
}

// NewBoxPayment settles boxes of the ADD entry DebtID. The number of boxes is
// derived from the other fields.
type NewBoxPayment struct {
	DebtID           string          `json:"debtId" validate:"required"`
	PaymentAmount    decimal.Decimal `json:"paymentAmount" validate:"gt=0"`
	PaymentCurrency  models.Currency `json:"paymentCurrency" validate:"currency"`
	PaymentRateToCUP decimal.Decimal `json:"paymentRateToCUP" validate:"gt=0"`
	BoxValueInCUP    decimal.Decimal `json:"boxValueInCUP" validate:"gt=0"`
	Notes            string          `json:"notes"`
}

// BoxPaymentResult is returned by PayBoxes. Overpaid is a warning only: the
// payment has been recorded in full.
type BoxPaymentResult struct {
	Transaction     models.BoxTransaction `json:"transaction"`
	RemainingBefore decimal.Decimal       `json:"remainingBefore"`
	RemainingAfter  decimal.Decimal       `json:"remainingAfter"`
	Overpaid        bool                  `json:"overpaid"`
}

var one = decimal.NewFromInt(1)

// checkBaseRate enforces that amounts in CUP convert at exactly 1.
func checkBaseRate(currency models.Currency, rate decimal.Decimal) error {
	if currency == models.BaseCurrency && !rate.Equal(one) {
		return validationErrorf("rate for %s must be 1, got %s", models.BaseCurrency, rate)
	}
	return nil
}

// checkRateTable accepts only known non-CUP currencies with positive rates.
func checkRateTable(table models.ExchangeRates) error {
	for currency, rate := range table {
		if !currency.Valid() || currency == models.BaseCurrency {
			return validationErrorf("no rate can be set for %q", currency)
		}
		if !rate.IsPositive() {
			return validationErrorf("rate for %s must be positive, got %s", currency, rate)
		}
	}
	return nil
}
