package datasource

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/fairprice/internal/resolve"
)

// ParseStatementHTML reads every table row of an exported statement page
// into a label → value record. The first numeric cell after the label is
// taken, which is the current term on DART-style layouts. When a label
// repeats, the first occurrence is kept.
func ParseStatementHTML(r io.Reader) (resolve.TableRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse statement HTML: %w", err)
	}

	rec := make(resolve.TableRecord)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := normalizeLabel(cells.First().Text())
		if label == "" {
			return
		}
		if _, seen := rec[label]; seen {
			return
		}
		cells.Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			v, ok := resolve.ParseAmount(cell.Text())
			if !ok {
				return true
			}
			rec[label] = v
			return false
		})
	})

	if len(rec) == 0 {
		return nil, fmt.Errorf("parse statement HTML: no labelled rows found")
	}
	return rec, nil
}

// normalizeLabel collapses whitespace and strips the footnote markers and
// roman-numeral prefixes statement exports put on account names.
func normalizeLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, prefix := range []string{"Ⅰ.", "Ⅱ.", "Ⅲ.", "Ⅳ.", "Ⅴ.", "Ⅵ."} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimRight(s, "*")
	return strings.TrimSpace(s)
}
