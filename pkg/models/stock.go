// Package models defines the core data structures used throughout fairprice.
package models

import "strings"

// Currency is the trading currency of a listing.
type Currency string

const (
	KRW Currency = "KRW"
	USD Currency = "USD"
)

// ParseCurrency maps a currency code to a known Currency.
func ParseCurrency(s string) (Currency, bool) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case KRW:
		return KRW, true
	case USD:
		return USD, true
	}
	return "", false
}

// FinancialFacts is the snapshot of one symbol at fetch time.
// Statement figures are in the listing currency's base unit (won, dollars).
type FinancialFacts struct {
	Symbol            string   `json:"symbol,omitempty"`
	Name              string   `json:"name,omitempty"`
	CurrentPrice      Figure   `json:"current_price"`
	SharesOutstanding Figure   `json:"shares_outstanding"`
	NetIncome         Figure   `json:"net_income"`
	Revenue           Figure   `json:"revenue"`
	Equity            Figure   `json:"equity"` // shareholders' equity (book value)
	Currency          Currency `json:"currency"`
}

// HistoricalPoint is one year of averaged market data paired with the
// statement figure used as the multiple's base.
type HistoricalPoint struct {
	Year              int     `json:"year"`
	AveragePrice      float64 `json:"average_price"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	BaseValue         float64 `json:"base_value"`
}
