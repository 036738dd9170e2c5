package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// UnavailableMarker is the market block used when no live quote exists.
const UnavailableMarker = "Real-time market data unavailable (API connection failed or no data)."

const rule = "==========================================================="

// FormatForPrompt renders q as a plain-text block for prompt injection.
// A nil quote yields UnavailableMarker.
func FormatForPrompt(q *Quote) string {
	if q == nil {
		return UnavailableMarker
	}

	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  Real-time market data (%s market)\n", q.Market)
	b.WriteString(rule + "\n\n")

	b.WriteString("[Basic info]\n")
	field(&b, "Name", q.Name, "N/A")
	field(&b, "Code", q.Code, "N/A")
	field(&b, "Current price", orDefault(q.Price, "0"), "0")
	field(&b, "Change", signed(orDefault(q.ChangePercent, "0"))+"%", "")
	field(&b, "Change amount", signed(orDefault(q.ChangeAmount, "0")), "")

	b.WriteString("\n[Price details]\n")
	field(&b, "Open", q.Open, "N/A")
	field(&b, "Previous close", q.PrevClose, "N/A")
	field(&b, "High", q.High, "N/A")
	field(&b, "Low", q.Low, "N/A")

	b.WriteString("\n[Trading]\n")
	field(&b, "Volume", q.Volume, "N/A")
	field(&b, "Turnover", q.Turnover, "N/A")

	switch q.Market {
	case MarketUS:
		b.WriteString("\n[US market data]\n")
		field(&b, "P/E", q.PE, "N/A")
		field(&b, "EPS", q.EPS, "N/A")
		field(&b, "52-week high", q.High52, "N/A")
		field(&b, "52-week low", q.Low52, "N/A")
	case MarketHK:
		b.WriteString("\n[Hong Kong market data]\n")
		field(&b, "P/E", q.PE, "N/A")
		field(&b, "52-week high", q.High52, "N/A")
		field(&b, "52-week low", q.Low52, "N/A")
	default:
		b.WriteString("\n[A-share market data]\n")
		field(&b, "Bid", q.Bid, "--")
		field(&b, "Ask", q.Ask, "--")
	}

	b.WriteString("\n[Technical charts (URL)]\n")
	field(&b, "Intraday", q.Minute, "N/A")
	field(&b, "Daily K", q.Day, "N/A")
	field(&b, "Weekly K", q.Week, "N/A")
	field(&b, "Monthly K", q.Month, "N/A")

	b.WriteString(rule + "\n")
	return b.String()
}

func field(b *strings.Builder, label, value, fallback string) {
	fmt.Fprintf(b, "  %s: %s\n", label, orDefault(value, fallback))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// signed prefixes non-negative numeric values with "+". Values that do not
// parse as numbers are returned unchanged.
func signed(v string) string {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	unsigned := strings.TrimPrefix(v, "+")
	d, err := decimal.NewFromString(unsigned)
	if err != nil || d.IsNegative() {
		return v
	}
	return "+" + unsigned
}
