// Package resolve locates financial figures in raw provider payloads.
//
// A Policy lists, for every field, the named sources to try in order. The
// first source holding a value wins, even when that value is zero; whether a
// zero is acceptable is decided later by the valuation rules.
package resolve

import (
	"fmt"
	"sort"

	"github.com/seenimoa/fairprice/pkg/models"
)

// Field is a FinancialFacts figure the policy can fill.
type Field string

const (
	CurrentPrice      Field = "current_price"
	SharesOutstanding Field = "shares_outstanding"
	NetIncome         Field = "net_income"
	Revenue           Field = "revenue"
	Equity            Field = "equity"
)

// Fields lists every resolvable field.
var Fields = []Field{CurrentPrice, SharesOutstanding, NetIncome, Revenue, Equity}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Source is one place a figure may be found.
type Source struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Policy is the ordered list of sources per field.
type Policy map[Field][]Source

// Resolution records which source supplied each field. Fields absent from
// the map were not found in any source.
type Resolution map[Field]Source

// Missing returns the fields no source could fill, in Fields order.
func (r Resolution) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if _, ok := r[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Lookup evaluates the sources for one field in order.
func (p Policy) Lookup(rec Record, f Field) (models.Figure, Source, bool) {
	for _, src := range p[f] {
		if v, ok := rec.Lookup(src.Path); ok {
			return models.Some(v), src, true
		}
	}
	return models.None(), Source{}, false
}

// Resolve fills every field of FinancialFacts from rec. Symbol and currency
// are left for the caller.
func (p Policy) Resolve(rec Record) (models.FinancialFacts, Resolution) {
	var facts models.FinancialFacts
	res := make(Resolution)

	targets := map[Field]*models.Figure{
		CurrentPrice:      &facts.CurrentPrice,
		SharesOutstanding: &facts.SharesOutstanding,
		NetIncome:         &facts.NetIncome,
		Revenue:           &facts.Revenue,
		Equity:            &facts.Equity,
	}
	for f, dst := range targets {
		fig, src, ok := p.Lookup(rec, f)
		if !ok {
			continue
		}
		*dst = fig
		res[f] = src
	}
	return facts, res
}

// With returns a copy of p where the given fields use the listed paths, in
// order, instead of their current sources. Each path doubles as its name.
func (p Policy) With(overrides map[Field][]string) Policy {
	out := make(Policy, len(p))
	for f, srcs := range p {
		out[f] = append([]Source(nil), srcs...)
	}
	for f, paths := range overrides {
		srcs := make([]Source, 0, len(paths))
		for _, path := range paths {
			srcs = append(srcs, Source{Name: path, Path: path})
		}
		out[f] = srcs
	}
	return out
}

// FromStrings builds overrides from loosely typed config, rejecting unknown fields.
func FromStrings(m map[string][]string) (map[Field][]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[Field][]string, len(m))
	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		if len(m[k]) > 0 {
			out[f] = m[k]
		}
	}
	return out, nil
}
