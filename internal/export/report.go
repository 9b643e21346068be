package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// BuildXLSX renders a workbook with a measurements sheet in CSV column
// order and a summary sheet.
func BuildXLSX(rep Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	recordsSheet := "measurements"
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	header := append(append([]string{}, CSVHeader...), "Judgement")
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(recordsSheet, cell, h)
	}
	for i, r := range rep.Records {
		row := i + 2
		cells := []any{
			r.ID, r.PointID, r.PointName, r.Category.Label(), r.Operator, r.Instrument,
			JoinValues(r.Values), roundTenth(r.Average), r.Timestamp.UTC().Format(TimestampLayout),
			syncedMark(r.Synced), r.Memo, string(rep.judge(r)),
		}
		for col, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(recordsSheet, cell, v)
		}
	}

	s := rep.Summary
	rows := [][2]any{
		{"Site", s.SiteName},
		{"Operator", s.Operator},
		{"Instruments", strings.Join(s.Instruments, ", ")},
		{"Points", s.TotalPoints},
		{"Fully measured", s.FullyMeasured},
		{"Records", s.Records},
		{"Unsynced", s.Unsynced},
		{"Generated", s.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	_ = f.SetCellValue(summarySheet, "A1", "Film thickness inspection")
	for i, kv := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), kv[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders an A4 landscape inspection report. The core fonts only
// cover Latin-1, so other characters are transliterated by gofpdf.
func BuildPDF(rep Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	s := rep.Summary
	pdf.Cell(0, 8, "Film Thickness Inspection Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Site: %s", s.SiteName)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Operator: %s", s.Operator)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Instruments: %s", strings.Join(s.Instruments, ", "))))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Points fully measured: %d / %d", s.FullyMeasured, s.TotalPoints))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Records: %d (unsynced %d)", s.Records, s.Unsynced))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", s.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Point", 55, "L"},
		{"Category", 28, "L"},
		{"Operator", 30, "L"},
		{"Instrument", 26, "L"},
		{"Readings", 70, "L"},
		{"Avg", 16, "R"},
		{"Result", 16, "C"},
		{"Measured", 36, "C"},
	}
	pdf.SetFont("Arial", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, r := range rep.Records {
		vals := []string{
			r.PointName,
			r.Category.Label(),
			r.Operator,
			r.Instrument,
			strings.ReplaceAll(JoinValues(r.Values), ";", " "),
			fmt.Sprintf("%.1f", r.Average),
			strings.ToUpper(string(rep.judge(r))),
			r.Timestamp.UTC().Format("2006-01-02 15:04"),
		}
		for i, c := range cols {
			pdf.CellFormat(c.width, 6, tr(vals[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func syncedMark(synced bool) string {
	if synced {
		return "✓"
	}
	return ""
}
