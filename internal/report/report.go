// Package report renders valuations for terminals and markdown documents.
// All currency formatting happens here; the valuation package never rounds.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/models"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// Format specifies the output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "text", "markdown" or "md".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Valuation bundles what a report shows for one symbol.
type Valuation struct {
	Facts        models.FinancialFacts
	Result       valuation.Result
	Historical   *valuation.HistoricalMultiple
	SafetyMargin float64
	GeneratedAt  time.Time
}

// Verdict summarizes the upside.
func (v Valuation) Verdict() string {
	switch {
	case v.Result.CurrentPrice <= v.Result.BuyPrice:
		return "Below buy price"
	case v.Result.Undervalued():
		return "Undervalued"
	case v.Result.FairPrice == v.Result.CurrentPrice:
		return "Fairly valued"
	default:
		return "Overvalued"
	}
}

// Render writes v in the given format.
func Render(w io.Writer, v Valuation, f Format) error {
	switch f {
	case FormatMarkdown:
		return renderMarkdown(w, v)
	case FormatText, "":
		return renderText(w, v)
	}
	return fmt.Errorf("unknown report format %q", f)
}

func rows(v Valuation) [][2]string {
	c := v.Result.Currency
	r := v.Result
	out := [][2]string{
		{"Current price", utils.FormatMoney(c, r.CurrentPrice)},
		{"Fair price", utils.FormatMoney(c, r.FairPrice)},
		{"Buy price", fmt.Sprintf("%s (margin %.0f%%)", utils.FormatMoney(c, r.BuyPrice), v.SafetyMargin)},
		{"Upside", utils.FormatPct(r.UpsidePercent)},
		{"Multiple", fmt.Sprintf("%s %s", utils.FormatMultiple(r.Multiple), r.Metric)},
		{"Base (" + r.Metric.BaseField() + ")", utils.FormatMoneyCompact(c, r.BaseValue)},
		{"Fair market cap", utils.FormatMoneyCompact(c, r.FairMarketCap)},
	}
	if h := v.Historical; h != nil {
		src := fmt.Sprintf("average of %d year(s)", h.Points)
		if h.UsedDefault {
			src = "default, no usable history"
		}
		out = append(out, [2]string{"Historical multiple", fmt.Sprintf("%s (%s)", utils.FormatMultiple(h.Multiple), src)})
	}
	out = append(out, [2]string{"Verdict", v.Verdict()})
	return out
}

func title(v Valuation) string {
	if v.Facts.Name != "" {
		return fmt.Sprintf("%s (%s)", v.Facts.Name, v.Facts.Symbol)
	}
	return v.Facts.Symbol
}

func renderText(w io.Writer, v Valuation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", title(v))
	fmt.Fprintf(tw, "%s\n", strings.Repeat("─", 40))
	for _, row := range rows(v) {
		fmt.Fprintf(tw, "  %s:\t%s\n", row[0], row[1])
	}
	if !v.GeneratedAt.IsZero() {
		fmt.Fprintf(tw, "  Generated:\t%s\n", v.GeneratedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func renderMarkdown(w io.Writer, v Valuation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title(v))
	b.WriteString("| Item | Value |\n|------|-------|\n")
	for _, row := range rows(v) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}
	if !v.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "\n_Generated %s_\n", v.GeneratedAt.Format(time.RFC3339))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
