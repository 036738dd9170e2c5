package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBracketVariants(t *testing.T) {
	tmpl := "[[Ticker]] / [Ticker] / {Ticker} / {{ticker}} / [ TICKER ]"
	got := Render(tmpl, Values{Ticker: "aapl"})
	assert.Equal(t, "AAPL / AAPL / AAPL / AAPL / AAPL", got)
}

func TestRenderAllPlaceholders(t *testing.T) {
	tmpl := "T={{Ticker}} P={PriceData} C={Context} H={Cost} D={CurrentDate}"
	got := Render(tmpl, Values{
		Ticker:      "600519",
		PriceData:   "price 1700",
		Context:     "prior",
		Cost:        "1500",
		CurrentDate: "2026-10-18",
	})
	assert.Equal(t, "T=600519 P=price 1700 C=prior H=1500 D=2026-10-18", got)
}

func TestRenderAliases(t *testing.T) {
	tmpl := "[Price Data] | [Knowledge Base Summary] | [Holding Cost] | [Current Date]"
	got := Render(tmpl, Values{PriceData: "p", Context: "c", Cost: "h", CurrentDate: "d"})
	assert.Equal(t, "p | c | h | d", got)
}

func TestRenderFallbacks(t *testing.T) {
	tmpl := "{Ticker}|{PriceData}|{Context}|{Cost}|{CurrentDate}"
	got := Render(tmpl, Values{Context: "   "})
	assert.Equal(t,
		FallbackTicker+"|"+FallbackPriceData+"|"+FallbackContext+"|"+FallbackCost+"|"+FallbackCurrentDate,
		got)
}

func TestRenderIsPureAndIdempotent(t *testing.T) {
	tmpl := "Analyse [[Ticker]] given [Context]"
	values := Values{Ticker: "tsla", Context: "report"}

	first := Render(tmpl, values)
	second := Render(tmpl, values)

	assert.Equal(t, first, second)
	assert.Equal(t, "Analyse [[Ticker]] given [Context]", tmpl)
	assert.Equal(t, "tsla", values[Ticker])
}

func TestRenderValueIsInsertedLiterally(t *testing.T) {
	got := Render("{Context}", Values{Context: "cost was $1 and ${1} [Ticker]"})
	assert.Equal(t, "cost was $1 and ${1} [Ticker]", got)
}

func TestRenderLeavesUnknownBracketsAlone(t *testing.T) {
	tmpl := "[Buy/Add] and [company name] stay"
	assert.Equal(t, tmpl, Render(tmpl, Values{}))
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []Placeholder{Ticker, Context}, References("[[Ticker]] {context}"))
	assert.Empty(t, References("plain text"))
	assert.True(t, Uses("hold at [Holding Cost]", Cost))
	assert.False(t, Uses("hold", Cost))
}

func TestRenderDoesNotExpandInsideValues(t *testing.T) {
	got := Render("{Context} / {Cost}", Values{Context: "earlier memo mentioned [Cost] and [Current Date]", Cost: "120"})
	assert.Equal(t, "earlier memo mentioned [Cost] and [Current Date] / 120", got)
}
