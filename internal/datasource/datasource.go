// Package datasource is the boundary between the valuation engine and the
// places financial facts come from. Sources hand the engine either a complete
// FinancialFacts snapshot or an *UpstreamDataError; never partial data.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/pkg/models"
)

// FactSource supplies facts and historical points for a normalized symbol.
type FactSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Facts returns the current financial snapshot for symbol.
	Facts(ctx context.Context, symbol string) (models.FinancialFacts, error)

	// History returns yearly points whose BaseValue is the given field.
	History(ctx context.Context, symbol string, base resolve.Field) ([]models.HistoricalPoint, error)
}

// ErrSymbolNotFound is wrapped by UpstreamDataError when a source has
// nothing for the symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// UpstreamDataError reports a failure fetching or decoding provider data.
type UpstreamDataError struct {
	Symbol string
	Source string
	Err    error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}

func upstream(source, symbol string, err error) error {
	return &UpstreamDataError{Symbol: symbol, Source: source, Err: err}
}
