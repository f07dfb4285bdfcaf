// Package rates holds the exchange rate table helpers. Rates in the table are
// only suggestions for new transactions; recorded transactions keep the rate
// they were created with.
package rates

import (
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Defaults is the table a brand new ledger starts with.
func Defaults() models.ExchangeRates {
	return models.ExchangeRates{
		models.CurrencyUSD:   decimal.NewFromInt(360),
		models.CurrencyEUR:   decimal.NewFromInt(370),
		models.CurrencyZELLE: decimal.NewFromInt(365),
		models.CurrencyUSDT:  decimal.NewFromInt(365),
	}
}

// Suggest returns the default rate to CUP for currency. CUP is always 1. A
// missing or non-positive entry yields ok == false.
func Suggest(table models.ExchangeRates, currency models.Currency) (rate decimal.Decimal, ok bool) {
	if currency == models.BaseCurrency {
		return decimal.NewFromInt(1), true
	}
	rate, ok = table[currency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

// Draft is a staged copy of the table. Edits stay local until the caller
// commits Rates() and are thrown away by Cancel.
type Draft struct {
	original models.ExchangeRates
	staged   models.ExchangeRates
}

func NewDraft(table models.ExchangeRates) *Draft {
	staged := table.Clone()
	if staged == nil {
		staged = models.ExchangeRates{}
	}
	return &Draft{original: table.Clone(), staged: staged}
}

// Set stages a rate. Non-positive values remove the entry.
func (d *Draft) Set(currency models.Currency, rate decimal.Decimal) {
	if !rate.IsPositive() {
		delete(d.staged, currency)
		return
	}
	d.staged[currency] = rate
}

func (d *Draft) Clear(currency models.Currency) {
	delete(d.staged, currency)
}

// Rates returns a copy of the staged table.
func (d *Draft) Rates() models.ExchangeRates {
	return d.staged.Clone()
}

// Dirty reports whether the staged table differs from the original.
func (d *Draft) Dirty() bool {
	if len(d.staged) != len(d.original) {
		return true
	}
	for c, v := range d.staged {
		o, ok := d.original[c]
		if !ok || !o.Equal(v) {
			return true
		}
	}
	return false
}

// Cancel discards every staged edit.
func (d *Draft) Cancel() {
	d.staged = d.original.Clone()
	if d.staged == nil {
		d.staged = models.ExchangeRates{}
	}
}
