package entity

import (
	"github.com/joseph-ayodele/bizscan/constants"
)

// Unconfirmed marks a phone number or opening hours that could not be verified.
const Unconfirmed = "미확인"

// Verdict is the tri-state outcome of one platform probe.
type Verdict string

const (
	VerdictAvailable  Verdict = "available"
	VerdictRegistered Verdict = "registered"
	VerdictUnknown    Verdict = "unknown"
)

// Availability holds one verdict per delivery platform.
type Availability struct {
	Ddangyo     Verdict `json:"ddangyo"`
	Yogiyo      Verdict `json:"yogiyo"`
	CoupangEats Verdict `json:"coupangeats"`
}

// UnknownAvailability is the result when nothing could be checked.
func UnknownAvailability() Availability {
	return Availability{Ddangyo: VerdictUnknown, Yogiyo: VerdictUnknown, CoupangEats: VerdictUnknown}
}

// Get returns the verdict for p. A zero value reads as unknown.
func (a Availability) Get(p constants.Platform) Verdict {
	var v Verdict
	switch p {
	case constants.PlatformDdangyo:
		v = a.Ddangyo
	case constants.PlatformYogiyo:
		v = a.Yogiyo
	case constants.PlatformCoupangEats:
		v = a.CoupangEats
	}
	if v == "" {
		return VerdictUnknown
	}
	return v
}

// Set stores the verdict for p.
func (a *Availability) Set(p constants.Platform, v Verdict) {
	switch p {
	case constants.PlatformDdangyo:
		a.Ddangyo = v
	case constants.PlatformYogiyo:
		a.Yogiyo = v
	case constants.PlatformCoupangEats:
		a.CoupangEats = v
	}
}

// FullySaturated is true only when every platform reports registered.
func (a Availability) FullySaturated() bool {
	for _, p := range constants.Platforms {
		if a.Get(p) != VerdictRegistered {
			return false
		}
	}
	return true
}

// AnyAvailable reports whether at least one platform accepts the number.
func (a Availability) AnyAvailable() bool {
	for _, p := range constants.Platforms {
		if a.Get(p) == VerdictAvailable {
			return true
		}
	}
	return false
}

// Record is the data extracted for one certificate.
type Record struct {
	CompanyName         string       `json:"companyName"`
	Address             string       `json:"address"`
	RegistrationNumber  string       `json:"registrationNumber"` // NNN-NN-NNNNN or empty
	RepresentativeName  string       `json:"representativeName"`
	PhoneNumber         string       `json:"phoneNumber"`
	OpenHours           string       `json:"openHours"`
	Memo                string       `json:"memo"`
	Availability        Availability `json:"availability"`
	AvailabilitySummary string       `json:"availabilitySummary"`
	SourceFile          string       `json:"sourceFile,omitempty"`
}

// DisplayName renders "company(representative)" the way the workbook shows it.
func (r Record) DisplayName() string {
	if r.RepresentativeName == "" {
		return r.CompanyName
	}
	return r.CompanyName + "(" + r.RepresentativeName + ")"
}
