// Package batch values many symbols concurrently against one FactSource.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fairprice/internal/datasource"
	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/models"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// Options tune a batch run.
type Options struct {
	Concurrency     int     // max symbols in flight; <= 0 means 4
	UseHistory      bool    // replace Params.Multiple with the historical average
	DefaultMultiple float64 // fallback when history yields nothing; 0 means valuation.DefaultHistoricalMultiple
	OnResult        func(Item)
}

// Item is the outcome for one symbol. Exactly one of Result and Err is set.
type Item struct {
	Input      string                        `json:"input"`
	Symbol     string                        `json:"symbol,omitempty"`
	Facts      *models.FinancialFacts        `json:"facts,omitempty"`
	Result     *valuation.Result             `json:"result,omitempty"`
	Historical *valuation.HistoricalMultiple `json:"historical,omitempty"`
	Err        error                         `json:"-"`
	Error      string                        `json:"error,omitempty"`
}

// Run values every symbol with params. Per-symbol failures are recorded on
// the item and do not stop the batch; only ctx cancellation does. Items are
// returned in input order.
func Run(ctx context.Context, src datasource.FactSource, symbols []string, params valuation.Params, opts Options) ([]Item, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.DefaultMultiple <= 0 {
		opts.DefaultMultiple = valuation.DefaultHistoricalMultiple
	}

	start := time.Now()
	items := make([]Item, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, input := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := One(gctx, src, input, params, opts)
			items[i] = item
			if opts.OnResult != nil {
				opts.OnResult(item)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	if err := ctx.Err(); err != nil {
		return items, err
	}

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	log.Info().Int("symbols", len(symbols)).Int("failed", failed).Dur("took", time.Since(start)).Msg("batch valuation finished")
	return items, nil
}

// One values a single symbol. It never returns a nil-error item without a result.
func One(ctx context.Context, src datasource.FactSource, input string, params valuation.Params, opts Options) Item {
	item := Item{Input: input}
	fail := func(err error) Item {
		item.Err = err
		item.Error = err.Error()
		log.Warn().Str("symbol", input).Err(err).Msg("valuation failed")
		return item
	}

	sym, err := utils.NormalizeSymbol(input)
	if err != nil {
		return fail(err)
	}
	item.Symbol = sym.Code

	facts, err := src.Facts(ctx, sym.Code)
	if err != nil {
		return fail(err)
	}
	item.Facts = &facts

	if opts.UseHistory {
		fallback := opts.DefaultMultiple
		if fallback <= 0 {
			fallback = valuation.DefaultHistoricalMultiple
		}
		points, err := src.History(ctx, sym.Code, resolve.Field(params.Metric.BaseField()))
		if err != nil {
			return fail(fmt.Errorf("history: %w", err))
		}
		hm := valuation.HistoricalAverageMultiple(points, fallback)
		item.Historical = &hm
		params.Multiple = hm.Multiple
	}

	res, err := valuation.ComputeFairPrice(facts, params)
	if err != nil {
		return fail(err)
	}
	item.Result = &res
	log.Debug().Str("symbol", sym.Code).Float64("fair_price", res.FairPrice).Float64("upside_pct", res.UpsidePercent).Msg("valued")
	return item
}
