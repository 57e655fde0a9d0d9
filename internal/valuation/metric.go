// Package valuation computes multiple-based fair prices from a snapshot of
// financial facts. Every function here is pure and safe for concurrent use.
package valuation

import (
	"fmt"
	"strings"

	"github.com/seenimoa/fairprice/pkg/models"
)

// Metric selects the valuation multiple and, with it, the statement figure
// the multiple is applied to.
type Metric string

const (
	PER Metric = "PER" // price / earnings, base = net income
	PSR Metric = "PSR" // price / sales, base = revenue
	PBR Metric = "PBR" // price / book, base = shareholders' equity
)

// Metrics lists the supported metrics in display order.
var Metrics = []Metric{PER, PSR, PBR}

// ParseMetric accepts a metric name in any case.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &InvalidParamsError{Field: "metric", Value: s, Reason: "must be one of PER, PSR, PBR"}
	}
	return m, nil
}

// Valid reports whether m is one of the enumerated metrics.
func (m Metric) Valid() bool {
	switch m {
	case PER, PSR, PBR:
		return true
	}
	return false
}

// BaseField is the name of the facts field the metric reads.
func (m Metric) BaseField() string {
	switch m {
	case PER:
		return FieldNetIncome
	case PSR:
		return FieldRevenue
	case PBR:
		return FieldEquity
	}
	return ""
}

// BaseValue returns the statement figure the metric is applied to.
func (m Metric) BaseValue(f models.FinancialFacts) models.Figure {
	switch m {
	case PER:
		return f.NetIncome
	case PSR:
		return f.Revenue
	case PBR:
		return f.Equity
	}
	return models.None()
}

// Label is a short human description.
func (m Metric) Label() string {
	switch m {
	case PER:
		return "Price/Earnings"
	case PSR:
		return "Price/Sales"
	case PBR:
		return "Price/Book"
	}
	return fmt.Sprintf("unknown metric %q", string(m))
}

// Field names used in errors and resolution reports.
const (
	FieldCurrentPrice      = "current_price"
	FieldSharesOutstanding = "shares_outstanding"
	FieldNetIncome         = "net_income"
	FieldRevenue           = "revenue"
	FieldEquity            = "equity"
)
