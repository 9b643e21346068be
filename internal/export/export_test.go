package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []domain.MeasurementRecord {
	splice := testutil.NewTestPoint("8", testutil.WithCategory(domain.CategorySplice))
	general := testutil.NewTestPoint("1")
	return []domain.MeasurementRecord{
		testutil.NewTestRecord(general),
		testutil.NewTestRecord(splice,
			testutil.WithSynced(),
			testutil.WithMemo(`edge, "north"`),
			testutil.WithValues(301, 302, 302, 303, 304, 305),
			testutil.WithTimestamp(time.Date(2026, 3, 14, 10, 0, 0, 123_000_000, time.UTC)),
		),
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	in := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"id\""), "two-space indent")

	out, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestCSV_LayoutAndBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	raw := buf.String()
	require.True(t, strings.HasPrefix(raw, "\xEF\xBB\xBF"))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[1])
	assert.Equal(t, "General", first[3])
	assert.Equal(t, "100;110;120;130;140", first[6])
	assert.Equal(t, "120.0", first[7])
	assert.Equal(t, "2026-03-14T09:30:00.000Z", first[8])
	assert.Empty(t, first[9])

	second := rows[2]
	assert.Equal(t, "Splice plate", second[3])
	assert.Equal(t, "302.8", second[7])
	assert.Equal(t, "2026-03-14T10:00:00.123Z", second[8])
	assert.Equal(t, "✓", second[9])
	assert.Equal(t, `edge, "north"`, second[10], "memo survives quoting")
}

func TestParseFormatAndFileName(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)

	assert.Equal(t, "measurements_2026-03-14.csv", FileName(FormatCSV, testutil.FixedNow))
}

func testReport() Report {
	recs := sampleRecords()
	return Report{
		Summary: Summary{
			SiteName:      "Demo bridge",
			Operator:      "X",
			Instruments:   []string{"Pro-W"},
			TotalPoints:   8,
			FullyMeasured: 2,
			Records:       len(recs),
			Unsynced:      1,
			GeneratedAt:   testutil.FixedNow,
		},
		Records: recs,
	}
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(testReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"measurements", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("measurements")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Judgement", rows[0][len(rows[0])-1])
	assert.Equal(t, "Pro-W", rows[1][5])
	assert.Equal(t, "low", rows[1][11], "120 is below the 175 general floor")

	site, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Demo bridge", site)
	measured, err := f.GetCellValue("summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "2", measured)
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(testReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}

func TestReportJudgement(t *testing.T) {
	rep := testReport()
	assert.Equal(t, domain.JudgementLow, rep.judge(rep.Records[0]))
	assert.Equal(t, domain.JudgementOK, rep.judge(rep.Records[1]))
}
