package resolve

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record is a raw provider payload that can be queried by path.
type Record interface {
	// Lookup returns the numeric value at path. ok is false when the path is
	// missing, null, blank, not a number or not finite.
	Lookup(path string) (float64, bool)
}

// JSONRecord queries a JSON payload with gjson paths.
type JSONRecord struct {
	raw string
}

// NewJSONRecord wraps raw JSON bytes.
func NewJSONRecord(data []byte) JSONRecord {
	return JSONRecord{raw: string(data)}
}

// Valid reports whether the payload is well-formed JSON.
func (r JSONRecord) Valid() bool {
	return gjson.Valid(r.raw)
}

// Get exposes the underlying gjson result for non-numeric fields.
func (r JSONRecord) Get(path string) gjson.Result {
	return gjson.Get(r.raw, path)
}

func (r JSONRecord) Lookup(path string) (float64, bool) {
	res := gjson.Get(r.raw, path)
	switch res.Type {
	case gjson.Number:
		if math.IsInf(res.Num, 0) {
			return 0, false
		}
		return res.Num, true
	case gjson.String:
		return ParseAmount(res.Str)
	}
	return 0, false
}

// TableRecord maps row labels to values, as scraped from statement tables.
type TableRecord map[string]float64

func (r TableRecord) Lookup(path string) (float64, bool) {
	v, ok := r[path]
	return v, ok
}

// ParseAmount parses a provider-formatted number such as "1,234,567",
// "(1,200)" or "-". Blank and dash placeholders are absent.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "—", "N/A", "n/a", "null":
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
