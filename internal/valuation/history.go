package valuation

import (
	"math"

	"github.com/seenimoa/fairprice/pkg/models"
)

// DefaultHistoricalMultiple is used when no historical point yields an
// implied multiple.
const DefaultHistoricalMultiple = 10.0

// HistoricalMultiple is the outcome of averaging implied multiples.
type HistoricalMultiple struct {
	Multiple    float64 `json:"multiple"`
	UsedDefault bool    `json:"used_default"`
	Points      int     `json:"points"` // points that contributed
}

// ImpliedMultiple returns price × shares / base for one point. ok is false
// when the point cannot produce a finite, positive multiple: any of price,
// shares or base is non-positive or non-finite.
func ImpliedMultiple(p models.HistoricalPoint) (float64, bool) {
	if !positive(p.AveragePrice) || !positive(p.SharesOutstanding) || !positive(p.BaseValue) {
		return 0, false
	}
	m := p.AveragePrice * p.SharesOutstanding / p.BaseValue
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return 0, false
	}
	return m, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// ComputeHistoricalAverageMultiple averages implied multiples over points,
// falling back to DefaultHistoricalMultiple.
func ComputeHistoricalAverageMultiple(points []models.HistoricalPoint) HistoricalMultiple {
	return HistoricalAverageMultiple(points, DefaultHistoricalMultiple)
}

// HistoricalAverageMultiple averages the implied multiple of every point with
// a positive base value. Order does not matter and duplicate years are kept.
// With nothing to average it returns fallback tagged UsedDefault.
func HistoricalAverageMultiple(points []models.HistoricalPoint, fallback float64) HistoricalMultiple {
	var sum float64
	var n int
	for _, p := range points {
		m, ok := ImpliedMultiple(p)
		if !ok {
			continue
		}
		sum += m
		n++
	}

	if n == 0 {
		return HistoricalMultiple{Multiple: fallback, UsedDefault: true}
	}
	return HistoricalMultiple{Multiple: sum / float64(n), Points: n}
}
