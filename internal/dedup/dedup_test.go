package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/internal/entity"
)

func rec(name, num, memo string) entity.Record {
	return entity.Record{CompanyName: name, RegistrationNumber: num, Memo: memo}
}

func TestMerge_DropsDuplicateAndMergesMemo(t *testing.T) {
	existing := []entity.Record{rec("행복식당", "123-45-67890", "1층")}
	incoming := []entity.Record{rec("행복식당", "123-45-67890", "주차 가능"), rec("다른집", "111-22-33333", "")}

	res := Merge(existing, incoming)

	require.Len(t, res.Merged, 2)
	assert.Equal(t, "1층 / 주차 가능", res.Merged[0].Memo)
	assert.Equal(t, "다른집", res.Merged[1].CompanyName)
	assert.Equal(t, []Removed{{CompanyName: "행복식당", RegistrationNumber: "123-45-67890"}}, res.DuplicatesRemoved)
}

func TestMerge_SameNumberDifferentNameKeepsBoth(t *testing.T) {
	res := Merge(nil, []entity.Record{rec("A상회", "123-45-67890", ""), rec("B상회", "123-45-67890", "")})

	assert.Len(t, res.Merged, 2)
	assert.Empty(t, res.DuplicatesRemoved)
}

func TestMerge_NameKeyed(t *testing.T) {
	res := Merge(nil, []entity.Record{
		rec("이름만", "", ""),
		rec(" 이름만 ", "", "메모"),
		rec("", "", "빈 레코드"),
		rec("", "", "빈 레코드"),
	})

	require.Len(t, res.Merged, 3)
	assert.Equal(t, "메모", res.Merged[0].Memo)
	assert.Len(t, res.DuplicatesRemoved, 1)
}

func TestMerge_FirstSeenWins(t *testing.T) {
	first := rec("행복식당", "123-45-67890", "")
	first.Address = "첫 주소"
	second := rec("행복식당", "123-45-67890", "")
	second.Address = "두번째 주소"

	res := Merge([]entity.Record{first}, []entity.Record{second})

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "첫 주소", res.Merged[0].Address)
}

func TestMerge_Idempotent(t *testing.T) {
	a := []entity.Record{rec("A", "123-45-67890", "x"), rec("B", "", ""), rec("A", "123-45-67890", "y")}
	b := []entity.Record{rec("A", "123-45-67890", "x"), rec("C", "222-33-44444", "z"), rec("B", "", "w"), rec("", "", "")}

	once := Merge(a, b).Merged
	twice := Merge(once, nil).Merged

	assert.Equal(t, once, twice)
	assert.Equal(t, once, Merge(nil, once).Merged)
}

func TestMerge_MemoUnion(t *testing.T) {
	a := []entity.Record{rec("A", "123-45-67890", "m1")}
	b := []entity.Record{rec("A", "123-45-67890", "m2"), rec("A", "123-45-67890", "m1"), rec("A", "123-45-67890", "")}

	res := Merge(a, b)

	require.Len(t, res.Merged, 1)
	assert.Equal(t, "m1 / m2", res.Merged[0].Memo)
	assert.Len(t, res.DuplicatesRemoved, 3)
}

func TestMergeMemo(t *testing.T) {
	assert.Equal(t, "", MergeMemo("", ""))
	assert.Equal(t, "a", MergeMemo("a", ""))
	assert.Equal(t, "b", MergeMemo("", "b"))
	assert.Equal(t, "a", MergeMemo("a", "a"))
	assert.Equal(t, "a / b", MergeMemo("a", "b"))
	assert.Equal(t, "a / b", MergeMemo("a / b", "b"))
}
