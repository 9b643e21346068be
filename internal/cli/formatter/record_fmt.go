package formatter

import (
	"strings"

	"github.com/alexanderramin/dftlog/internal/domain"
)

const recordTimeLayout = "2006-01-02 15:04"

// FormatRecords renders records as a table, judging each average against
// the band of its category.
func FormatRecords(records []domain.MeasurementRecord, th domain.ThresholdTable) string {
	if len(records) == 0 {
		return Dim("No measurements recorded.") + "\n"
	}
	if th == nil {
		th = domain.DefaultThresholds()
	}
	headers := []string{"ID", "POINT", "CATEGORY", "OPERATOR", "INSTRUMENT", "VALUES", "AVG", "", "TAKEN", "STATE"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		j := th.For(r.Category).Judge(r.Average)
		taken := r.Timestamp.Local().Format(recordTimeLayout)
		if r.Memo != "" {
			taken += " " + Dim("✎")
		}
		rows = append(rows, []string{
			TruncID(r.ID),
			Bold(r.PointName),
			CategoryBadge(r.Category),
			r.Operator,
			r.Instrument,
			Dim(FormatValues(r.Values)),
			JudgementStyle(j).Render(FormatAverage(r.Average)),
			JudgementIndicator(j),
			taken,
			SyncedBadge(r.Synced),
		})
	}
	return RenderTable(headers, rows)
}

// FormatRecordLine is the one-line form used in the summary list.
func FormatRecordLine(r domain.MeasurementRecord, j domain.Judgement) string {
	parts := []string{
		Truncate(r.PointName, 24),
		r.Instrument,
		JudgementStyle(j).Render(FormatAverage(r.Average) + "µm"),
		Dim(r.Operator),
		SyncedBadge(r.Synced),
	}
	if r.Memo != "" {
		parts = append(parts, Dim("✎ "+Truncate(r.Memo, 20)))
	}
	return strings.Join(parts, "  ")
}
