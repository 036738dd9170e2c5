package logging

import "regexp"

// Sanitizer redacts credentials from log messages.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with the default credential patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// Anthropic (before the generic sk- rule)
		`sk-ant-[a-zA-Z0-9_-]{20,}`,
		// OpenAI, DeepSeek, DashScope
		`sk-[A-Za-z0-9_-]{16,}`,
		// Google AI
		`AIza[a-zA-Z0-9_-]{35}`,
		`(?i)bearer\s+[a-zA-Z0-9._-]{16,}`,
		// key=... query strings (Juhe)
		`(?i)([?&]key=)[A-Za-z0-9]{8,}`,
		`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{16,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		if pattern.NumSubexp() > 0 {
			result = pattern.ReplaceAllString(result, "${1}"+s.redacted)
			continue
		}
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}
