package llm

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText NFC-normalizes s, collapses runs of whitespace and trims it.
// Vision models sometimes return decomposed Hangul jamo, which would break
// name comparison during deduplication.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// StringField returns the first non-empty value found under any of keys,
// cleaned. Numbers are formatted without exponent; other types are ignored.
func StringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%.0f", t)
		default:
			continue
		}
		if s = CleanText(s); s != "" {
			return s
		}
	}
	return ""
}
