// Package prompt renders stage prompt templates.
//
// Templates use a small fixed set of named placeholders. A placeholder is
// written with single or double square or curly brackets and matched case
// insensitively, so [[Ticker]], [Ticker], {Ticker} and {{ticker}} are all the
// same slot. Replacement is literal: there are no conditionals, loops or
// escapes.
package prompt

import (
	"regexp"
	"strings"
)

// Placeholder names one substitutable slot.
type Placeholder string

const (
	Ticker      Placeholder = "ticker"
	PriceData   Placeholder = "price_data"
	Context     Placeholder = "context"
	Cost        Placeholder = "cost"
	CurrentDate Placeholder = "current_date"
)

// Fallback sentences used when a value is missing or blank.
const (
	FallbackTicker      = "(ticker not provided)"
	FallbackPriceData   = "No real-time market data available."
	FallbackContext     = "No prior analysis available (this is the first stage)."
	FallbackCost        = "No holding cost provided."
	FallbackCurrentDate = "(date not provided)"
)

// Values maps placeholders to their runtime text.
type Values map[Placeholder]string

type slot struct {
	name     Placeholder
	aliases  string
	fallback string
	exact    *regexp.Regexp
}

const (
	openBracket  = `(?:\[\[|\{\{|\[|\{)\s*`
	closeBracket = `\s*(?:\]\]|\}\}|\]|\})`
)

var slots = []*slot{
	{name: Ticker, aliases: `ticker`, fallback: FallbackTicker},
	{name: PriceData, aliases: `price[\s_]*data`, fallback: FallbackPriceData},
	{name: Context, aliases: `context|knowledge[\s_]*base[\s_]*summary`, fallback: FallbackContext},
	{name: Cost, aliases: `holding[\s_]*cost|cost`, fallback: FallbackCost},
	{name: CurrentDate, aliases: `current[\s_]*date`, fallback: FallbackCurrentDate},
}

// anyPlaceholder matches every slot in one pass so substituted text is never
// scanned again.
var anyPlaceholder *regexp.Regexp

func init() {
	all := make([]string, len(slots))
	for i, s := range slots {
		s.exact = regexp.MustCompile(`(?i)^` + openBracket + `(?:` + s.aliases + `)` + closeBracket + `$`)
		all[i] = s.aliases
	}
	anyPlaceholder = regexp.MustCompile(`(?i)` + openBracket + `(?:` + strings.Join(all, "|") + `)` + closeBracket)
}

func lookup(match string) *slot {
	for _, s := range slots {
		if s.exact.MatchString(match) {
			return s
		}
	}
	return nil
}

// Placeholders returns every recognized placeholder in a fixed order.
func Placeholders() []Placeholder {
	out := make([]Placeholder, len(slots))
	for i, s := range slots {
		out[i] = s.name
	}
	return out
}

// Render substitutes every placeholder occurrence in template. Blank values
// are replaced by the placeholder's fallback sentence. The ticker is upper
// cased. Render has no side effects and never fails.
func Render(template string, values Values) string {
	resolved := make(map[Placeholder]string, len(slots))
	for _, s := range slots {
		v := strings.TrimSpace(values[s.name])
		switch {
		case v == "":
			v = s.fallback
		case s.name == Ticker:
			v = strings.ToUpper(v)
		}
		resolved[s.name] = v
	}
	return anyPlaceholder.ReplaceAllStringFunc(template, func(m string) string {
		if s := lookup(m); s != nil {
			return resolved[s.name]
		}
		return m
	})
}

// References reports which placeholders appear in template, in the order of
// Placeholders.
func References(template string) []Placeholder {
	seen := make(map[Placeholder]bool)
	for _, m := range anyPlaceholder.FindAllString(template, -1) {
		if s := lookup(m); s != nil {
			seen[s.name] = true
		}
	}
	var out []Placeholder
	for _, s := range slots {
		if seen[s.name] {
			out = append(out, s.name)
		}
	}
	return out
}

// Uses reports whether template references p.
func Uses(template string, p Placeholder) bool {
	for _, ref := range References(template) {
		if ref == p {
			return true
		}
	}
	return false
}
