package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/bizscan/constants"
)

func TestAvailability_FullySaturated(t *testing.T) {
	verdicts := []Verdict{VerdictAvailable, VerdictRegistered, VerdictUnknown}
	for _, d := range verdicts {
		for _, y := range verdicts {
			for _, c := range verdicts {
				a := Availability{Ddangyo: d, Yogiyo: y, CoupangEats: c}
				want := d == VerdictRegistered && y == VerdictRegistered && c == VerdictRegistered
				assert.Equal(t, want, a.FullySaturated(), "%v", a)
			}
		}
	}
}

func TestAvailability_ZeroValueIsUnknown(t *testing.T) {
	var a Availability
	for _, p := range constants.Platforms {
		assert.Equal(t, VerdictUnknown, a.Get(p))
	}
	a.Set(constants.PlatformYogiyo, VerdictAvailable)
	assert.True(t, a.AnyAvailable())
	assert.False(t, a.FullySaturated())
}

func TestRecord_DisplayName(t *testing.T) {
	assert.Equal(t, "가게(홍길동)", Record{CompanyName: "가게", RepresentativeName: "홍길동"}.DisplayName())
	assert.Equal(t, "가게", Record{CompanyName: "가게"}.DisplayName())
}
