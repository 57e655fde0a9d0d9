package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/seenimoa/fairprice/pkg/models"
)

// Exchange identifies where a symbol is listed.
type Exchange string

const (
	ExchangeKRX Exchange = "KRX"
	ExchangeUS  Exchange = "US"
)

// Symbol is a normalized listing identifier.
type Symbol struct {
	Code     string          `json:"code"` // "005930", "AAPL"
	Exchange Exchange        `json:"exchange"`
	Currency models.Currency `json:"currency"`
}

// ErrInvalidSymbol is returned for input that is neither a KRX code nor a US ticker.
var ErrInvalidSymbol = errors.New("unrecognized symbol")

func (s Symbol) String() string {
	return s.Code
}

var (
	krxCode  = regexp.MustCompile(`^[0-9]{6}$`)
	usTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,5}([.-][A-Z])?$`)
)

// Common Korean names and aliases for frequently queried listings.
var symbolAliases = map[string]string{
	"SAMSUNG":       "005930",
	"삼성전자":          "005930",
	"SK HYNIX":      "000660",
	"SKHYNIX":       "000660",
	"SK하이닉스":        "000660",
	"NAVER":         "035420",
	"네이버":           "035420",
	"KAKAO":         "035720",
	"카카오":           "035720",
	"HYUNDAI MOTOR": "005380",
	"현대차":           "005380",
	"LG ENERGY":     "373220",
	"LG에너지솔루션":      "373220",
	"GOOGLE":        "GOOGL",
	"ALPHABET":      "GOOGL",
	"FACEBOOK":      "META",
	"BERKSHIRE":     "BRK.B",
}

// NormalizeSymbol turns user input into a canonical symbol.
// KRX codes accept "A005930", "005930.KS" and "005930.KQ"; US tickers accept
// a "$" prefix and a ".US" suffix.
func NormalizeSymbol(input string) (Symbol, error) {
	s := strings.TrimSpace(strings.ToUpper(input))
	s = strings.TrimPrefix(s, "$")

	if alias, ok := symbolAliases[s]; ok {
		s = alias
	}

	s = strings.TrimSuffix(s, ".KS")
	s = strings.TrimSuffix(s, ".KQ")
	if len(s) == 7 && s[0] == 'A' && krxCode.MatchString(s[1:]) {
		s = s[1:]
	}
	if krxCode.MatchString(s) {
		return Symbol{Code: s, Exchange: ExchangeKRX, Currency: models.KRW}, nil
	}

	s = strings.TrimSuffix(s, ".US")
	if usTicker.MatchString(s) {
		return Symbol{Code: s, Exchange: ExchangeUS, Currency: models.USD}, nil
	}

	return Symbol{}, fmt.Errorf("%w %q", ErrInvalidSymbol, input)
}

// CurrencyFor returns the listing currency implied by a symbol, defaulting to USD.
func CurrencyFor(input string) models.Currency {
	sym, err := NormalizeSymbol(input)
	if err != nil {
		return models.USD
	}
	return sym.Currency
}
