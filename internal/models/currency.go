package models

import "github.com/shopspring/decimal"

func init() {
	// Stored documents carry amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Currency is one of the closed set of currencies a transaction can be recorded in.
type Currency string

const (
	CurrencyUSD   Currency = "USD"
	CurrencyEUR   Currency = "EUR"
	CurrencyZELLE Currency = "ZELLE"
	CurrencyUSDT  Currency = "USDT"
	CurrencyCUP   Currency = "CUP"
)

// BaseCurrency is the accounting currency all totals are expressed in.
const BaseCurrency = CurrencyCUP

// Currencies lists every supported currency in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyZELLE, CurrencyUSDT, CurrencyCUP}

// RateCurrencies are the currencies that carry an editable rate to CUP.
var RateCurrencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyZELLE, CurrencyUSDT}

func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

func (c Currency) String() string { return string(c) }

// ExchangeRates maps a currency to the amount of CUP one unit of it buys.
// The mapping is partial: a missing entry means there is no default rate.
type ExchangeRates map[Currency]decimal.Decimal

// Clone returns an independent copy, nil stays nil.
func (r ExchangeRates) Clone() ExchangeRates {
	if r == nil {
		return nil
	}
	out := make(ExchangeRates, len(r))
	for c, v := range r {
		out[c] = v
	}
	return out
}
