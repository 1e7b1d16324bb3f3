// Package dedup merges record lists, dropping repeats of the same business.
package dedup

import (
	"strings"

	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const memoSeparator = " / "

// Removed identifies a record dropped as a duplicate.
type Removed struct {
	CompanyName        string `json:"companyName"`
	RegistrationNumber string `json:"registrationNumber"`
}

// Result of Merge.
type Result struct {
	Merged            []entity.Record `json:"merged"`
	DuplicatesRemoved []Removed       `json:"duplicatesRemoved"`
}

// Merge folds existing then incoming left to right. The first record seen for
// a business wins; a later duplicate only contributes its memo.
//
// Records are keyed by registration number, or by company name when the number
// is empty. Two records are duplicates only when the key and the company name
// both match. Records with neither value are always kept.
func Merge(existing, incoming []entity.Record) Result {
	total := len(existing) + len(incoming)
	res := Result{
		Merged:            make([]entity.Record, 0, total),
		DuplicatesRemoved: []Removed{},
	}
	// key -> indexes into res.Merged holding that key
	seen := make(map[string][]int, total)

	add := func(rec entity.Record) {
		k, ok := key(rec)
		if !ok {
			res.Merged = append(res.Merged, rec)
			return
		}
		name := normName(rec.CompanyName)
		for _, i := range seen[k] {
			if normName(res.Merged[i].CompanyName) == name {
				res.Merged[i].Memo = MergeMemo(res.Merged[i].Memo, rec.Memo)
				res.DuplicatesRemoved = append(res.DuplicatesRemoved, Removed{
					CompanyName:        rec.CompanyName,
					RegistrationNumber: rec.RegistrationNumber,
				})
				return
			}
		}
		seen[k] = append(seen[k], len(res.Merged))
		res.Merged = append(res.Merged, rec)
	}

	for _, r := range existing {
		add(r)
	}
	for _, r := range incoming {
		add(r)
	}
	return res
}

// key returns the dedup key and whether the record has one.
func key(rec entity.Record) (string, bool) {
	if d := bizno.Digits(rec.RegistrationNumber); d != "" {
		return "n:" + d, true
	}
	if n := normName(rec.CompanyName); n != "" {
		return "c:" + n, true
	}
	return "", false
}

func normName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MergeMemo combines two memos: the non-empty one wins, differing non-empty
// memos are joined, and a memo already contained in the other is not repeated.
func MergeMemo(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case b == "" || a == b:
		return a
	case a == "":
		return b
	}
	for _, part := range strings.Split(a, memoSeparator) {
		if part == b {
			return a
		}
	}
	return a + memoSeparator + b
}
