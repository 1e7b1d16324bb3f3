package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

func record(name string, v entity.Verdict) entity.Record {
	return entity.Record{
		CompanyName:        name,
		RepresentativeName: "홍길동",
		Address:            "서울특별시 강남구 역삼동 1",
		RegistrationNumber: "123-45-67890",
		PhoneNumber:        "02-123-4567",
		OpenHours:          "10:00-22:00",
		Availability:       entity.Availability{Ddangyo: v, Yogiyo: entity.VerdictRegistered, CoupangEats: entity.VerdictUnknown},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRender_HeaderAndOrdering(t *testing.T) {
	recs := []entity.Record{
		record("닫힌가게", entity.VerdictRegistered),
		record("열린가게", entity.VerdictAvailable),
	}
	data, err := NewRenderer(nil).Render(t.Context(), recs)
	require.NoError(t, err)

	f := open(t, data)
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "열린가게(홍길동)", rows[1][0])
	assert.Equal(t, "가능", rows[1][6])
	assert.Equal(t, "입점", rows[1][7])
	assert.Equal(t, "확인불가", rows[1][8])
	assert.Equal(t, "땡겨요(가능) / 요기요(불가) / 쿠팡이츠(불가)", rows[1][9])
	assert.Equal(t, "닫힌가게(홍길동)", rows[2][0])

	styleID, err := f.GetCellStyle(sheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestRenderPartial_SummaryBlock(t *testing.T) {
	snap := entity.Snapshot{
		BatchID:   "b1",
		State:     constants.BatchPaused,
		Records:   []entity.Record{record("가게", entity.VerdictAvailable)},
		Failed:    []entity.FailedItem{{FileName: "x.jpg", Error: "boom"}},
		Discarded: 2,
		Progress:  entity.Progress{Total: 10},
	}
	data, err := NewRenderer(nil).RenderPartial(t.Context(), snap)
	require.NoError(t, err)

	rows, err := open(t, data).GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"처리 요약"}, rows[0])
	assert.Equal(t, []string{"총 파일 수", "10"}, rows[1])
	assert.Equal(t, []string{"성공", "1"}, rows[2])
	assert.Equal(t, []string{"실패", "1"}, rows[3])
	assert.Equal(t, []string{"제외", "2"}, rows[4])
	assert.Equal(t, headers[0], rows[5][0])
	assert.Equal(t, "가게(홍길동)", rows[6][0])
}

func TestRender_Empty(t *testing.T) {
	data, err := NewRenderer(nil).Render(t.Context(), nil)
	require.NoError(t, err)
	rows, err := open(t, data).GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewRenderer(nil).Render(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrdered_StableAndCopy(t *testing.T) {
	in := []entity.Record{
		record("a", entity.VerdictRegistered),
		record("b", entity.VerdictAvailable),
		record("c", entity.VerdictRegistered),
		record("d", entity.VerdictAvailable),
	}
	out := Ordered(in)
	names := []string{out[0].CompanyName, out[1].CompanyName, out[2].CompanyName, out[3].CompanyName}
	assert.Equal(t, []string{"b", "d", "a", "c"}, names)
	assert.Equal(t, "a", in[0].CompanyName)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "bizscan_result_b1_20240301_090507.xlsx", FileName("b1", false, at))
	assert.Equal(t, "bizscan_partial_b1_20240301_090507.xlsx", FileName("b1", true, at))
}
