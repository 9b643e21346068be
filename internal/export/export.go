// Package export renders measurement records for hand-off: JSON and CSV for
// re-import and spreadsheets, XLSX and PDF for inspection reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// Format is an export file type.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX, FormatPDF}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want json, csv, xlsx or pdf)", s)
}

// FileName is the default file name for an export made at now.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("measurements_%s.%s", now.UTC().Format("2006-01-02"), f)
}

// Summary is the report header shown in XLSX and PDF exports.
type Summary struct {
	SiteName      string
	Operator      string
	Instruments   []string
	TotalPoints   int
	FullyMeasured int
	Records       int
	Unsynced      int
	GeneratedAt   time.Time
}

// Report bundles what the spreadsheet and PDF renderers need.
type Report struct {
	Summary    Summary
	Records    []domain.MeasurementRecord
	Thresholds domain.ThresholdTable
}

func (r Report) judge(rec domain.MeasurementRecord) domain.Judgement {
	th := r.Thresholds
	if th == nil {
		th = domain.DefaultThresholds()
	}
	return th.For(rec.Category).Judge(rec.Average)
}

// WriteJSON writes the records as a pretty-printed JSON array.
func WriteJSON(w io.Writer, records []domain.MeasurementRecord) error {
	if records == nil {
		records = []domain.MeasurementRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// ReadJSON reads records written by WriteJSON.
func ReadJSON(r io.Reader) ([]domain.MeasurementRecord, error) {
	var records []domain.MeasurementRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

// CSVHeader is the fixed column order of CSV exports.
var CSVHeader = []string{
	"ID", "PointID", "PointName", "Category", "Operator", "Instrument",
	"Values", "Average", "Timestamp", "Synced", "Memo",
}

const utf8BOM = "\xEF\xBB\xBF"

// TimestampLayout is how record instants are printed in CSV and reports.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// WriteCSV writes the records with a UTF-8 byte-order mark so spreadsheet
// applications detect the encoding.
func WriteCSV(w io.Writer, records []domain.MeasurementRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r domain.MeasurementRecord) []string {
	return []string{
		r.ID,
		r.PointID,
		r.PointName,
		r.Category.Label(),
		r.Operator,
		r.Instrument,
		JoinValues(r.Values),
		strconv.FormatFloat(r.Average, 'f', 1, 64),
		r.Timestamp.UTC().Format(TimestampLayout),
		syncedMark(r.Synced),
		r.Memo,
	}
}

// JoinValues renders readings as a semicolon-separated list.
func JoinValues(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
