package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Figure is a financial amount that may be absent. The zero value is absent,
// which keeps "not reported" apart from "reported as 0".
type Figure struct {
	value float64
	ok    bool
}

// Some returns a present figure holding v.
func Some(v float64) Figure {
	return Figure{value: v, ok: true}
}

// None returns an absent figure.
func None() Figure {
	return Figure{}
}

// Get returns the value and whether it is present.
func (f Figure) Get() (float64, bool) {
	return f.value, f.ok
}

// Present reports whether the figure carries a value.
func (f Figure) Present() bool {
	return f.ok
}

// Positive reports whether the figure is present, finite and strictly greater than zero.
func (f Figure) Positive() bool {
	return f.ok && f.value > 0 && !math.IsInf(f.value, 0) && !math.IsNaN(f.value)
}

// Or returns the value if present, otherwise def.
func (f Figure) Or(def float64) float64 {
	if !f.ok {
		return def
	}
	return f.value
}

// String renders the value, or "n/a" when absent.
func (f Figure) String() string {
	if !f.ok {
		return "n/a"
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

// MarshalJSON encodes an absent figure as null.
func (f Figure) MarshalJSON() ([]byte, error) {
	if !f.ok {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as absent and any number (including 0) as present.
func (f *Figure) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}
