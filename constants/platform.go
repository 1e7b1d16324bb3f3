package constants

// Platform identifies one of the delivery platforms a registration number is checked against.
type Platform string

const (
	PlatformDdangyo     Platform = "ddangyo"
	PlatformYogiyo      Platform = "yogiyo"
	PlatformCoupangEats Platform = "coupangeats"
)

// Platforms is the fixed order used by summaries and workbook columns.
var Platforms = []Platform{PlatformDdangyo, PlatformYogiyo, PlatformCoupangEats}

var platformLabels = map[Platform]string{
	PlatformDdangyo:     "땡겨요",
	PlatformYogiyo:      "요기요",
	PlatformCoupangEats: "쿠팡이츠",
}

// Label returns the Korean display name of the platform.
func (p Platform) Label() string {
	if l, ok := platformLabels[p]; ok {
		return l
	}
	return string(p)
}
