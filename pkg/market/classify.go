// Package market fetches and formats real-time stock quotes.
package market

import (
	"regexp"
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

// Market is the quote-source grouping a symbol belongs to.
type Market string

const (
	MarketUS          Market = "US"
	MarketHK          Market = "HK"
	MarketHS          Market = "HS"
	MarketUnsupported Market = "UNSUPPORTED"
)

var (
	lettersOnly = regexp.MustCompile(`^[a-z]+$`)
	fiveDigits  = regexp.MustCompile(`^\d{5}$`)
	sixDigits   = regexp.MustCompile(`^(sh|sz)?\d{6}$`)
	symbolShape = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)
)

// Classify maps a raw symbol to its market. Symbols matching none of the
// known shapes are MarketUnsupported; there is no silent default.
func Classify(symbol string) Market {
	code := strings.ToLower(strings.TrimSpace(symbol))
	switch {
	case lettersOnly.MatchString(code):
		return MarketUS
	case fiveDigits.MatchString(code):
		return MarketHK
	case sixDigits.MatchString(code):
		return MarketHS
	default:
		return MarketUnsupported
	}
}

// Label is the human-readable market name.
func (m Market) Label() string {
	switch m {
	case MarketUS:
		return "US"
	case MarketHK:
		return "Hong Kong"
	case MarketHS:
		return "Shanghai/Shenzhen"
	default:
		return "unsupported"
	}
}

// NormalizeSymbol trims symbol and checks it is 1-10 ASCII letters or digits.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return "", apperr.New(apperr.KindValidation, "stock symbol is required")
	}
	if !symbolShape.MatchString(s) {
		return "", apperr.New(apperr.KindValidation, "invalid stock symbol %q: expected 1-10 letters or digits", s)
	}
	return s, nil
}

// queryParam returns the request parameter name and value for symbol.
func queryParam(m Market, symbol string) (string, string) {
	code := strings.ToLower(strings.TrimSpace(symbol))
	switch m {
	case MarketHK:
		return "num", code
	case MarketHS:
		if !strings.HasPrefix(code, "sh") && !strings.HasPrefix(code, "sz") {
			if strings.HasPrefix(code, "6") {
				code = "sh" + code
			} else {
				code = "sz" + code
			}
		}
		return "gid", code
	default:
		return "gid", code
	}
}
