// Package export renders batch results as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const sheetName = "사업자등록증 데이터"

var headers = []string{
	"상호명(대표자명)",
	"오픈시간",
	"메모",
	"주소",
	"사업자번호",
	"전화번호",
	constants.PlatformDdangyo.Label(),
	constants.PlatformYogiyo.Label(),
	constants.PlatformCoupangEats.Label(),
	"영업가능",
}

var widths = []float64{40, 20, 30, 60, 25, 20, 12, 12, 12, 50}

// Renderer turns records into workbook bytes. It holds no state besides the logger.
type Renderer struct {
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render writes the full workbook: a styled header row with an autofilter and
// one row per record, records with at least one open platform first.
func (r *Renderer) Render(ctx context.Context, recs []entity.Record) ([]byte, error) {
	return r.render(ctx, recs, nil)
}

// RenderPartial writes the snapshot's records under a summary block so an
// unfinished batch can still be saved.
func (r *Renderer) RenderPartial(ctx context.Context, snap entity.Snapshot) ([]byte, error) {
	sum := [][]any{
		{"처리 요약"},
		{"총 파일 수", snap.Progress.Total},
		{"성공", len(snap.Records)},
		{"실패", len(snap.Failed)},
		{"제외", snap.Discarded},
	}
	return r.render(ctx, snap.Records, sum)
}

func (r *Renderer) render(ctx context.Context, recs []entity.Record, summary [][]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	for _, line := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return nil, fmt.Errorf("summary row: %w", err)
		}
		row++
	}
	headerRow := row

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheetName, cell, &hdr); err != nil {
		return nil, fmt.Errorf("header row: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err := f.SetCellStyle(sheetName, cell, last, style); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	// autofilter only makes sense when the header is the first row
	if len(summary) == 0 {
		if err := f.AutoFilter(sheetName, cell+":"+last, nil); err != nil {
			return nil, fmt.Errorf("autofilter: %w", err)
		}
	}

	for i, rec := range Ordered(recs) {
		values := Row(rec)
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("data row %d: %w", i, err)
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, w)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	r.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"partial", len(summary) > 0,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Row maps a record onto the workbook columns.
func Row(rec entity.Record) []any {
	return []any{
		rec.DisplayName(),
		rec.OpenHours,
		rec.Memo,
		rec.Address,
		rec.RegistrationNumber,
		rec.PhoneNumber,
		verdictLabel(rec.Availability.Get(constants.PlatformDdangyo)),
		verdictLabel(rec.Availability.Get(constants.PlatformYogiyo)),
		verdictLabel(rec.Availability.Get(constants.PlatformCoupangEats)),
		summaryOf(rec),
	}
}

func summaryOf(rec entity.Record) string {
	if rec.AvailabilitySummary != "" {
		return rec.AvailabilitySummary
	}
	return delivery.FormatSummary(rec.Availability)
}

// Ordered returns a copy with records whose summary shows an open platform
// first. Relative order is otherwise kept.
func Ordered(recs []entity.Record) []entity.Record {
	out := append([]entity.Record(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		return delivery.SummaryHasAvailable(summaryOf(out[i])) && !delivery.SummaryHasAvailable(summaryOf(out[j]))
	})
	return out
}

func verdictLabel(v entity.Verdict) string {
	switch v {
	case entity.VerdictAvailable:
		return "가능"
	case entity.VerdictRegistered:
		return "입점"
	default:
		return "확인불가"
	}
}

// FileName builds the download name for a batch workbook.
func FileName(batchID string, partial bool, now time.Time) string {
	kind := "result"
	if partial {
		kind = "partial"
	}
	return fmt.Sprintf("bizscan_%s_%s_%s.xlsx", kind, batchID, now.Format("20060102_150405"))
}
