package utils

import (
	"errors"
	"testing"

	"github.com/seenimoa/fairprice/pkg/models"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		code     string
		exchange Exchange
		currency models.Currency
	}{
		{"005930", "005930", ExchangeKRX, models.KRW},
		{" A005930 ", "005930", ExchangeKRX, models.KRW},
		{"005930.KS", "005930", ExchangeKRX, models.KRW},
		{"035720.kq", "035720", ExchangeKRX, models.KRW},
		{"삼성전자", "005930", ExchangeKRX, models.KRW},
		{"samsung", "005930", ExchangeKRX, models.KRW},
		{"aapl", "AAPL", ExchangeUS, models.USD},
		{"$MSFT", "MSFT", ExchangeUS, models.USD},
		{"BRK.B", "BRK.B", ExchangeUS, models.USD},
		{"TSLA.US", "TSLA", ExchangeUS, models.USD},
		{"google", "GOOGL", ExchangeUS, models.USD},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sym, err := NormalizeSymbol(tt.input)
			if err != nil {
				t.Fatalf("NormalizeSymbol(%q) error: %v", tt.input, err)
			}
			if sym.Code != tt.code || sym.Exchange != tt.exchange || sym.Currency != tt.currency {
				t.Errorf("NormalizeSymbol(%q) = %+v, want %s/%s/%s", tt.input, sym, tt.code, tt.exchange, tt.currency)
			}
		})
	}
}

func TestNormalizeSymbolRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "12345", "0059301", "TOO LONG NAME", "../etc"} {
		if _, err := NormalizeSymbol(in); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("NormalizeSymbol(%q) error = %v, want ErrInvalidSymbol", in, err)
		}
	}
}

func TestCurrencyFor(t *testing.T) {
	if CurrencyFor("000660") != models.KRW {
		t.Error("000660 should be KRW")
	}
	if CurrencyFor("NVDA") != models.USD {
		t.Error("NVDA should be USD")
	}
	if CurrencyFor("???") != models.USD {
		t.Error("unknown symbols default to USD")
	}
}
