package datasource

import (
	"context"
	"slices"
	"time"

	"github.com/seenimoa/fairprice/internal/infra"
	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/pkg/models"
)

// CachedSource memoizes successful lookups of another source for a TTL.
// Failures are not cached.
type CachedSource struct {
	src     FactSource
	facts   *infra.Cache[models.FinancialFacts]
	history *infra.Cache[[]models.HistoricalPoint]
}

// NewCachedSource wraps src.
func NewCachedSource(src FactSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src:     src,
		facts:   infra.NewCache[models.FinancialFacts](ttl),
		history: infra.NewCache[[]models.HistoricalPoint](ttl),
	}
}

func (c *CachedSource) Name() string {
	return c.src.Name() + " (cached)"
}

func (c *CachedSource) Facts(ctx context.Context, symbol string) (models.FinancialFacts, error) {
	if f, ok := c.facts.Get(symbol); ok {
		return f, nil
	}
	f, err := c.src.Facts(ctx, symbol)
	if err != nil {
		return models.FinancialFacts{}, err
	}
	c.facts.Set(symbol, f)
	return f, nil
}

func (c *CachedSource) History(ctx context.Context, symbol string, base resolve.Field) ([]models.HistoricalPoint, error) {
	key := symbol + "|" + string(base)
	if h, ok := c.history.Get(key); ok {
		return slices.Clone(h), nil
	}
	h, err := c.src.History(ctx, symbol, base)
	if err != nil {
		return nil, err
	}
	c.history.Set(key, slices.Clone(h))
	return h, nil
}

// Cleanup drops expired entries.
func (c *CachedSource) Cleanup() {
	c.facts.Cleanup()
	c.history.Cleanup()
}
