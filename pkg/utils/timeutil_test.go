package utils

import (
	"testing"
	"time"
)

func TestIsMarketOpenAtKRX(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday morning", time.Date(2026, 10, 14, 10, 0, 0, 0, KST), true},
		{"before open", time.Date(2026, 10, 14, 8, 59, 0, 0, KST), false},
		{"at close", time.Date(2026, 10, 14, 15, 30, 0, 0, KST), false},
		{"saturday", time.Date(2026, 10, 17, 11, 0, 0, 0, KST), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpenAt(ExchangeKRX, tt.at); got != tt.want {
				t.Errorf("IsMarketOpenAt(KRX, %v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsMarketOpenAtUS(t *testing.T) {
	open := time.Date(2026, 10, 14, 10, 0, 0, 0, ET)
	if !IsMarketOpenAt(ExchangeUS, open) {
		t.Error("US market should be open at 10:00 ET on a Wednesday")
	}
	// 10:00 KST Wednesday is Tuesday evening in New York.
	if IsMarketOpenAt(ExchangeUS, time.Date(2026, 10, 14, 10, 0, 0, 0, KST)) {
		t.Error("US market should be closed at 10:00 KST")
	}
	if MarketStatus(ExchangeUS, open) != "open" {
		t.Error("MarketStatus should report open")
	}
}
