package batch

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/fairprice/internal/datasource"
	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/models"
)

type memSource struct {
	facts    map[string]models.FinancialFacts
	history  map[string][]models.HistoricalPoint
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *memSource) Name() string { return "mem" }

func (m *memSource) Facts(ctx context.Context, symbol string) (models.FinancialFacts, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return models.FinancialFacts{}, ctx.Err()
		}
	}
	f, ok := m.facts[symbol]
	if !ok {
		return models.FinancialFacts{}, &datasource.UpstreamDataError{Symbol: symbol, Source: "mem", Err: datasource.ErrSymbolNotFound}
	}
	return f, nil
}

func (m *memSource) History(_ context.Context, symbol string, _ resolve.Field) ([]models.HistoricalPoint, error) {
	return m.history[symbol], nil
}

func facts(price, shares, ni float64) models.FinancialFacts {
	return models.FinancialFacts{
		CurrentPrice:      models.Some(price),
		SharesOutstanding: models.Some(shares),
		NetIncome:         models.Some(ni),
		Currency:          models.USD,
	}
}

func TestRunPreservesOrderAndRecordsFailures(t *testing.T) {
	src := &memSource{facts: map[string]models.FinancialFacts{
		"AAPL":   facts(100, 1000, 10000),
		"MSFT":   facts(200, 1000, 10000),
		"005930": {CurrentPrice: models.Some(70000), SharesOutstanding: models.Some(100), Currency: models.KRW},
	}}
	params := valuation.Params{Metric: valuation.PER, Multiple: 15, SafetyMarginPercent: 20}

	items, err := Run(context.Background(), src, []string{"aapl", "NOPE", "005930", "$msft", "not a symbol"}, params, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, "AAPL", items[0].Symbol)
	require.NotNil(t, items[0].Result)
	assert.InDelta(t, 150, items[0].Result.FairPrice, 1e-9)

	assert.ErrorIs(t, items[1].Err, datasource.ErrSymbolNotFound)
	assert.NotEmpty(t, items[1].Error)

	assert.ErrorIs(t, items[2].Err, valuation.ErrMissingData, "net income absent")
	assert.Nil(t, items[2].Result)

	require.NotNil(t, items[3].Result)
	assert.InDelta(t, -25, items[3].Result.UpsidePercent, 1e-9)

	assert.Error(t, items[4].Err)
	assert.Empty(t, items[4].Symbol)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	src := &memSource{facts: map[string]models.FinancialFacts{}, delay: 10 * time.Millisecond}
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, s := range symbols {
		src.facts[s] = facts(10, 10, 10)
	}

	_, err := Run(context.Background(), src, symbols, valuation.Params{Metric: valuation.PER, Multiple: 1}, Options{Concurrency: 3})
	require.NoError(t, err)
	assert.LessOrEqual(t, src.peak.Load(), int32(3))
}

func TestRunInvalidParams(t *testing.T) {
	_, err := Run(context.Background(), &memSource{}, []string{"AAPL"}, valuation.Params{Metric: valuation.PER, Multiple: -1}, Options{})
	assert.ErrorIs(t, err, valuation.ErrInvalidParams)
}

func TestRunCancelled(t *testing.T) {
	src := &memSource{facts: map[string]models.FinancialFacts{"AAPL": facts(1, 1, 1)}, delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, src, []string{"AAPL", "AAPL", "AAPL"}, valuation.Params{Metric: valuation.PER, Multiple: 1}, Options{Concurrency: 1})
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestRunUseHistory(t *testing.T) {
	src := &memSource{
		facts: map[string]models.FinancialFacts{
			"AAPL": facts(100, 1000, 10000),
			"MSFT": facts(100, 1000, 10000),
		},
		history: map[string][]models.HistoricalPoint{
			"AAPL": {
				{Year: 2021, AveragePrice: 100, SharesOutstanding: 1000, BaseValue: 5000},
				{Year: 2022, AveragePrice: 120, SharesOutstanding: 1000, BaseValue: 6000},
			},
		},
	}

	var mu sync.Mutex
	var seen []string
	items, err := Run(context.Background(), src, []string{"AAPL", "MSFT"}, valuation.Params{Metric: valuation.PER, Multiple: 99, SafetyMarginPercent: 0}, Options{
		UseHistory:      true,
		DefaultMultiple: 8,
		OnResult: func(it Item) {
			mu.Lock()
			seen = append(seen, it.Symbol)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.NotNil(t, items[0].Historical)
	assert.False(t, items[0].Historical.UsedDefault)
	assert.InDelta(t, 20, items[0].Result.Multiple, 1e-9)
	assert.InDelta(t, 200, items[0].Result.FairPrice, 1e-9)

	require.NotNil(t, items[1].Historical)
	assert.True(t, items[1].Historical.UsedDefault)
	assert.InDelta(t, 8, items[1].Result.Multiple, 1e-9)

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, seen)
}

func TestRunUseHistoryIgnoresNonFinitePrices(t *testing.T) {
	src := &memSource{
		facts: map[string]models.FinancialFacts{"AAPL": facts(100, 1000, 10000)},
		history: map[string][]models.HistoricalPoint{
			"AAPL": {
				{Year: 2021, AveragePrice: math.NaN(), SharesOutstanding: 1000, BaseValue: 5000},
				{Year: 2022, AveragePrice: 120, SharesOutstanding: 1000, BaseValue: 6000},
			},
		},
	}

	items, err := Run(context.Background(), src, []string{"AAPL"}, valuation.Params{Metric: valuation.PER, Multiple: 99}, Options{UseHistory: true})
	require.NoError(t, err)
	require.NoError(t, items[0].Err)
	require.NotNil(t, items[0].Historical)
	assert.Equal(t, 1, items[0].Historical.Points)
	assert.InDelta(t, 20, items[0].Result.Multiple, 1e-9)
}
