package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/fairprice/internal/resolve"
	"github.com/seenimoa/fairprice/pkg/models"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// FileSource reads exported provider payloads from a directory:
// <dir>/<symbol>.json (quote and statement fields, plus an optional
// "history" array) or <dir>/<symbol>.html (a statement table page).
type FileSource struct {
	Dir    string
	Policy resolve.Policy
}

// NewFileSource creates a file source using policy, or the default policy when nil.
func NewFileSource(dir string, policy resolve.Policy) *FileSource {
	if policy == nil {
		policy = resolve.DefaultPolicy()
	}
	return &FileSource{Dir: dir, Policy: policy}
}

func (s *FileSource) Name() string {
	return "file:" + s.Dir
}

// Facts resolves the symbol's payload through the policy.
func (s *FileSource) Facts(ctx context.Context, symbol string) (models.FinancialFacts, error) {
	if err := ctx.Err(); err != nil {
		return models.FinancialFacts{}, err
	}

	var (
		rec  resolve.Record
		meta resolve.JSONRecord
	)
	if data, err := s.read(symbol, ".json"); err == nil {
		jr := resolve.NewJSONRecord(data)
		if !jr.Valid() {
			return models.FinancialFacts{}, upstream(s.Name(), symbol, fmt.Errorf("%s.json: invalid JSON", symbol))
		}
		rec, meta = jr, jr
	} else if !errors.Is(err, fs.ErrNotExist) {
		return models.FinancialFacts{}, upstream(s.Name(), symbol, err)
	} else {
		f, err := os.Open(s.path(symbol, ".html"))
		if errors.Is(err, fs.ErrNotExist) {
			return models.FinancialFacts{}, upstream(s.Name(), symbol, ErrSymbolNotFound)
		}
		if err != nil {
			return models.FinancialFacts{}, upstream(s.Name(), symbol, err)
		}
		defer f.Close()

		table, err := ParseStatementHTML(f)
		if err != nil {
			return models.FinancialFacts{}, upstream(s.Name(), symbol, err)
		}
		rec = table
	}

	facts, _ := s.Policy.Resolve(rec)
	facts.Symbol = symbol
	facts.Currency = utils.CurrencyFor(symbol)
	if c, ok := models.ParseCurrency(meta.Get("currency").String()); ok {
		facts.Currency = c
	}
	facts.Name = meta.Get("name").String()
	return facts, nil
}

// History returns the points in the payload's "history" array. Each entry is
// resolved with the same policy; its price comes from "average_price".
// Entries without a usable base value get BaseValue 0 and are skipped by the
// averaging step.
func (s *FileSource) History(ctx context.Context, symbol string, base resolve.Field) ([]models.HistoricalPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.read(symbol, ".json")
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(s.path(symbol, ".html")); statErr == nil {
			return nil, nil // statement pages carry no history
		}
		return nil, upstream(s.Name(), symbol, ErrSymbolNotFound)
	}
	if err != nil {
		return nil, upstream(s.Name(), symbol, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, upstream(s.Name(), symbol, fmt.Errorf("%s.json: invalid JSON", symbol))
	}

	var points []models.HistoricalPoint
	gjson.GetBytes(data, "history").ForEach(func(_, entry gjson.Result) bool {
		rec := resolve.NewJSONRecord([]byte(entry.Raw))
		p := models.HistoricalPoint{Year: int(entry.Get("year").Int())}
		p.AveragePrice, _ = rec.Lookup("average_price")
		if fig, _, ok := s.Policy.Lookup(rec, resolve.SharesOutstanding); ok {
			p.SharesOutstanding = fig.Or(0)
		}
		if fig, _, ok := s.Policy.Lookup(rec, base); ok {
			p.BaseValue = fig.Or(0)
		}
		points = append(points, p)
		return true
	})
	return points, nil
}

func (s *FileSource) path(symbol, ext string) string {
	return filepath.Join(s.Dir, filepath.Base(symbol)+ext)
}

func (s *FileSource) read(symbol, ext string) ([]byte, error) {
	return os.ReadFile(s.path(symbol, ext))
}
