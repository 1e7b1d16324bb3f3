// Package bizno handles Korean business registration numbers.
//
// The canonical textual form is NNN-NN-NNNNN. Platform probes take the bare
// ten digit form.
package bizno

import (
	"regexp"
	"strings"
)

var canonicalRe = regexp.MustCompile(`^\d{3}-\d{2}-\d{5}$`)

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsTenDigits reports whether s consists of exactly ten ASCII digits.
func IsTenDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize formats raw as NNN-NN-NNNNN when it holds exactly ten digits
// after stripping everything else. Any other input is returned unchanged.
func Normalize(raw string) string {
	d := Digits(raw)
	if len(d) != 10 {
		return raw
	}
	return d[:3] + "-" + d[3:5] + "-" + d[5:]
}

// Valid reports whether s is already in canonical form.
func Valid(s string) bool {
	return canonicalRe.MatchString(s)
}

// Canonical normalizes raw and clears it when the result is not canonical.
// Records only ever store the output of Canonical.
func Canonical(raw string) string {
	n := Normalize(strings.TrimSpace(raw))
	if !Valid(n) {
		return ""
	}
	return n
}
