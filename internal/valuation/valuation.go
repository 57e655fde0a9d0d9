package valuation

import (
	"math"

	"github.com/seenimoa/fairprice/pkg/models"
)

// Params are the user-chosen inputs of a valuation.
type Params struct {
	Metric              Metric  `json:"metric"`
	Multiple            float64 `json:"multiple"`
	SafetyMarginPercent float64 `json:"safety_margin_pct"`
}

// Validate checks every parameter against its domain.
func (p Params) Validate() error {
	if !p.Metric.Valid() {
		return &InvalidParamsError{Field: "metric", Value: p.Metric, Reason: "must be one of PER, PSR, PBR"}
	}
	if math.IsNaN(p.Multiple) || math.IsInf(p.Multiple, 0) || p.Multiple < 0 {
		return &InvalidParamsError{Field: "multiple", Value: p.Multiple, Reason: "must be a finite number >= 0"}
	}
	if math.IsNaN(p.SafetyMarginPercent) || p.SafetyMarginPercent < 0 || p.SafetyMarginPercent > 100 {
		return &InvalidParamsError{Field: "safety_margin_pct", Value: p.SafetyMarginPercent, Reason: "must be within [0, 100]"}
	}
	return nil
}

// Result holds the unrounded outputs of a valuation. Formatting for a
// currency or locale is left to the caller.
type Result struct {
	Metric        Metric          `json:"metric"`
	Multiple      float64         `json:"multiple"`
	BaseValue     float64         `json:"base_value"`
	FairMarketCap float64         `json:"fair_market_cap"`
	FairPrice     float64         `json:"fair_price"`
	BuyPrice      float64         `json:"buy_price"`
	CurrentPrice  float64         `json:"current_price"`
	UpsidePercent float64         `json:"upside_pct"`
	Currency      models.Currency `json:"currency"`
}

// Undervalued reports whether the fair price is above the market price.
func (r Result) Undervalued() bool {
	return r.FairPrice > r.CurrentPrice
}

// ComputeFairPrice values facts with the chosen multiple:
//
//	fairMarketCap = base × multiple
//	fairPrice     = fairMarketCap / shares
//	buyPrice      = fairPrice × (1 − margin/100)
//	upside        = (fairPrice − price) / price × 100
//
// Absent or non-positive inputs fail with *MissingDataError; nothing is
// substituted.
func ComputeFairPrice(facts models.FinancialFacts, params Params) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	base, err := require(params.Metric.BaseField(), params.Metric.BaseValue(facts))
	if err != nil {
		return Result{}, err
	}
	shares, err := require(FieldSharesOutstanding, facts.SharesOutstanding)
	if err != nil {
		return Result{}, err
	}
	price, err := require(FieldCurrentPrice, facts.CurrentPrice)
	if err != nil {
		return Result{}, err
	}

	fairMarketCap := base * params.Multiple
	fairPrice := fairMarketCap / shares

	return Result{
		Metric:        params.Metric,
		Multiple:      params.Multiple,
		BaseValue:     base,
		FairMarketCap: fairMarketCap,
		FairPrice:     fairPrice,
		BuyPrice:      fairPrice * (1 - params.SafetyMarginPercent/100),
		CurrentPrice:  price,
		UpsidePercent: (fairPrice - price) / price * 100,
		Currency:      facts.Currency,
	}, nil
}

func require(field string, f models.Figure) (float64, error) {
	if !f.Positive() {
		return 0, &MissingDataError{Field: field, Present: f.Present()}
	}
	v, _ := f.Get()
	return v, nil
}
