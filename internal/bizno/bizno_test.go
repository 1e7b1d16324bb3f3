package bizno

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1234567890", "123-45-67890"},
		{"123-45-67890", "123-45-67890"},
		{"123 45 67890", "123-45-67890"},
		{"사업자 123.45.67890", "123-45-67890"},
		{"12345", "12345"},
		{"12345678901", "12345678901"},
		{"", ""},
		{"abc", "abc"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeProperty(t *testing.T) {
	inputs := []string{"0000000000", "999-99-99999", "1-2-3-4-5-6-7-8-9-0", "x1y2z3", "", "12"}
	for _, in := range inputs {
		out := Normalize(in)
		if len(Digits(in)) == 10 {
			assert.True(t, Valid(out), "input %q", in)
			assert.Equal(t, Digits(in), Digits(out))
		} else {
			assert.Equal(t, in, out)
		}
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "123-45-67890", Canonical(" 1234567890 "))
	assert.Equal(t, "", Canonical("12345"))
	assert.Equal(t, "", Canonical(""))
}

func TestIsTenDigits(t *testing.T) {
	assert.True(t, IsTenDigits("0123456789"))
	assert.False(t, IsTenDigits("012345678"))
	assert.False(t, IsTenDigits("012345678a"))
	assert.False(t, IsTenDigits("123-45-678"))
}
