package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/config"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/repository"
	"github.com/alexanderramin/dftlog/internal/service"
	"github.com/alexanderramin/dftlog/internal/teatest"
	"github.com/alexanderramin/dftlog/internal/testutil"
	"github.com/alexanderramin/dftlog/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUploader accepts every batch unless err is set.
type fakeUploader struct {
	err     error
	batches [][]domain.MeasurementRecord
}

func (f *fakeUploader) Upload(_ context.Context, records []domain.MeasurementRecord) (int, error) {
	f.batches = append(f.batches, records)
	if f.err != nil {
		return 0, f.err
	}
	return len(records), nil
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	app, _ := testAppWithUploader(t)
	return app
}

func testAppWithUploader(t *testing.T) (*App, *fakeUploader) {
	t.Helper()
	database := testutil.NewTestDB(t)
	kv := repository.NewSQLiteKVStore(database)
	uploader := &fakeUploader{}

	field := service.NewFieldService(
		repository.NewKVRecordRepo(kv),
		repository.NewKVCatalogRepo(kv),
		repository.NewKVSessionRepo(kv),
		testutil.NewTestUoW(database),
		catalog.DemoRegistry(),
		uploader,
	)
	require.NoError(t, field.Load(context.Background()))

	return &App{
		Field:     field,
		Config:    config.Default(),
		ExportDir: t.TempDir(),
		Now:       func() time.Time { return testutil.FixedNow },
	}, uploader
}

// startSession starts a session on the demo route with the given instruments.
func startSession(t *testing.T, app *App, instruments ...string) {
	t.Helper()
	if len(instruments) == 0 {
		instruments = []string{"Pro-W"}
	}
	cfg := testutil.NewTestSession(testutil.WithInstruments(instruments...))
	require.NoError(t, app.Field.StartSession(context.Background(), cfg))
}

// addRecord registers five readings on pointID with the session instrument.
func addRecord(t *testing.T, app *App, pointID string) domain.MeasurementRecord {
	t.Helper()
	rec, err := app.Field.AddRecord(context.Background(), service.AddRecordInput{
		PointID: pointID,
		Values:  []int{200, 210, 220, 230, 240},
	})
	require.NoError(t, err)
	return rec
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func plain(s string) string { return teatest.StripANSI(s) }

func TestRoot_NonInteractivePrintsHelp(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, out, "dftlog records dry film thickness readings")
	assert.Contains(t, out, "session")
	assert.Contains(t, out, "sync")
}

func TestSitesCmd_ListsDemoSite(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "sites")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Demo bridge")
	assert.Contains(t, plain(out), catalog.DemoSiteID)
}

func TestSessionStart_ConfiguresAndLoadsRoute(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "session", "start", "--operator", "Sato", "--instruments", "Pro-W,LZ990")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Session started on Demo bridge (8 points)")
	assert.Contains(t, plain(out), "Sato")

	st := app.Field.Status()
	assert.Equal(t, navigation.ModeList, st.Mode)
	assert.Equal(t, []string{"Pro-W", "LZ990"}, st.Session.SelectedInstruments)
	assert.Equal(t, "Pro-W", st.Session.PrimaryInstrument, "label defaults to the first instrument")
}

func TestSessionStart_RepeatedInstrumentFlags(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "session", "start", "--operator", "Sato",
		"--instruments", "Pro-W", "--instruments", "Elcometer", "--label", "gauge 7")
	require.NoError(t, err)

	st := app.Field.Status()
	assert.Equal(t, []string{"Pro-W", "Elcometer"}, st.Session.SelectedInstruments)
	assert.Equal(t, "gauge 7", st.Session.PrimaryInstrument)
}

func TestSessionStart_UnknownInstrumentFails(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "session", "start", "--operator", "Sato", "--instruments", "Caliper")
	require.Error(t, err)
	assert.Equal(t, navigation.ModeSetup, app.Field.Status().Mode)
}

func TestSessionStart_UnknownSiteFails(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "session", "start", "--site", "nowhere", "--operator", "Sato", "--instruments", "Pro-W")
	require.ErrorIs(t, err, catalog.ErrUnknownSite)
}

func TestSessionShow_NoSession(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "No session configured")
}

func TestPointsList_ShowsCompletion(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")

	out, err := executeCmd(t, app, "points", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "G1_main-girder_1-1")
	assert.Contains(t, plain(out), "splice-plate_1")
	assert.Contains(t, plain(out), "1/1 ✔")
}

func TestPointsLoad_ReplacesCatalog(t *testing.T) {
	app := testApp(t)
	startSession(t, app)

	path := filepath.Join(t.TempDir(), "route.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,category,routeOrder\nP1,Pier north,general,1\nP2,Pier south,splice,2\n"), 0o644))

	out, err := executeCmd(t, app, "points", "load", path)
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Loaded 2 points from "+path)

	out, err = executeCmd(t, app, "points", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Pier south")
	assert.NotContains(t, plain(out), "G1_main-girder_1-1")
}

func TestPointsLoad_MissingFile(t *testing.T) {
	app := testApp(t)
	startSession(t, app)

	_, err := executeCmd(t, app, "points", "load", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, 8, app.Field.Status().TotalPoints, "catalog untouched")
}

func TestRecordAdd_RegistersReadings(t *testing.T) {
	app := testApp(t)
	startSession(t, app)

	out, err := executeCmd(t, app, "record", "add", "--point", "1", "--values", "200,210,220,230,240", "--memo", "north face")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Registered ")
	assert.Contains(t, plain(out), "220.0µm")

	records := app.Field.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Pro-W", records[0].Instrument)
	assert.Equal(t, "north face", records[0].Memo)
	assert.Equal(t, "X", records[0].Operator)
}

func TestRecordAdd_TooFewReadings(t *testing.T) {
	app := testApp(t)
	startSession(t, app)

	_, err := executeCmd(t, app, "record", "add", "--point", "1", "--values", "200,210")
	require.Error(t, err)
	assert.Empty(t, app.Field.Records())
}

func TestRecordAdd_UnknownPoint(t *testing.T) {
	app := testApp(t)
	startSession(t, app)

	_, err := executeCmd(t, app, "record", "add", "--point", "99", "--values", "200,210,220,230,240")
	require.ErrorIs(t, err, navigation.ErrUnknownPoint)
}

func TestRecordAdd_ExplicitInstrument(t *testing.T) {
	app := testApp(t)
	startSession(t, app, "Pro-W", "LZ990")

	_, err := executeCmd(t, app, "record", "add", "--point", "2", "--values", "300,300,300,300,300", "--instrument", "LZ990")
	require.NoError(t, err)

	records := app.Field.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "LZ990", records[0].Instrument)
}

func TestRecordList_FiltersUnsynced(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")
	_, err := app.Field.Sync(context.Background())
	require.NoError(t, err)
	addRecord(t, app, "2")

	out, err := executeCmd(t, app, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "G1_main-girder_1-1")
	assert.Contains(t, plain(out), "G1_main-girder_1-2")

	out, err = executeCmd(t, app, "record", "list", "--unsynced")
	require.NoError(t, err)
	assert.NotContains(t, plain(out), "G1_main-girder_1-1")
	assert.Contains(t, plain(out), "G1_main-girder_1-2")
}

func TestRecordList_Empty(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "No measurements recorded.")
}

func TestRecordDelete_ByPrefix(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	rec := addRecord(t, app, "1")

	out, err := executeCmd(t, app, "record", "delete", rec.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Deleted "+rec.ID)
	assert.Empty(t, app.Field.Records())
}

func TestRecordDelete_SyncedRefused(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	rec := addRecord(t, app, "1")
	_, err := app.Field.Sync(context.Background())
	require.NoError(t, err)

	_, err = executeCmd(t, app, "record", "delete", rec.ID)
	require.ErrorIs(t, err, domain.ErrRecordSynced)
	assert.Len(t, app.Field.Records(), 1)
}

func TestRecordRetag_ChangesInstrument(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	rec := addRecord(t, app, "1")

	out, err := executeCmd(t, app, "record", "retag", rec.ID, "Elcometer")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "as Elcometer")
	assert.Equal(t, "Elcometer", app.Field.Records()[0].Instrument)
}

func TestRecordRetag_UnknownInstrument(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	rec := addRecord(t, app, "1")

	_, err := executeCmd(t, app, "record", "retag", rec.ID, "Caliper")
	require.Error(t, err)
	var unknown *domain.UnknownInstrumentError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Pro-W", app.Field.Records()[0].Instrument)
}

func TestResolveRecordID(t *testing.T) {
	records := []domain.MeasurementRecord{
		{ID: "abc-111"},
		{ID: "abc-222"},
		{ID: "def-333"},
	}

	id, err := resolveRecordID(records, "def")
	require.NoError(t, err)
	assert.Equal(t, "def-333", id)

	id, err = resolveRecordID(records, "abc-111")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", id)

	_, err = resolveRecordID(records, "abc")
	assert.ErrorIs(t, err, errAmbiguousRecord)

	_, err = resolveRecordID(records, "zzz")
	assert.ErrorIs(t, err, navigation.ErrUnknownRecord)

	_, err = resolveRecordID(records, "")
	assert.ErrorIs(t, err, navigation.ErrUnknownRecord)
}

func TestStatusCmd_ShowsCounts(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")
	addRecord(t, app, "2")

	out, err := executeCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Demo bridge")
	assert.Contains(t, plain(out), "2/8")
	assert.Contains(t, plain(out), "Unsynced:     2")
}

func TestSyncCmd_UploadsUnsynced(t *testing.T) {
	app, uploader := testAppWithUploader(t)
	startSession(t, app)
	addRecord(t, app, "1")
	addRecord(t, app, "2")

	out, err := executeCmd(t, app, "sync")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Synced 2 records")
	require.Len(t, uploader.batches, 1)
	assert.Len(t, uploader.batches[0], 2)
	assert.Zero(t, app.Field.Status().Unsynced)

	out, err = executeCmd(t, app, "sync")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Nothing to sync.")
	assert.Len(t, uploader.batches, 1, "an empty ledger is not uploaded")
}

func TestSyncCmd_FailureKeepsRecordsUnsynced(t *testing.T) {
	app, uploader := testAppWithUploader(t)
	uploader.err = upload.ErrUnavailable
	startSession(t, app)
	addRecord(t, app, "1")

	_, err := executeCmd(t, app, "sync")
	require.ErrorIs(t, err, upload.ErrUnavailable)
	assert.Contains(t, err.Error(), "sync failed")
	assert.Equal(t, 1, app.Field.Status().Unsynced)
}

func TestExportCmd_JSONToStdout(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")

	out, err := executeCmd(t, app, "export", "--format", "json", "--out", "-")
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, out, "G1_main-girder_1-1")
}

func TestExportCmd_DefaultFileName(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "records.csv")
	out, err := executeCmd(t, app, "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Exported 1 record to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "G1_main-girder_1-1")
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "export", "--format", "docx", "--out", "-")
	require.Error(t, err)
}

func TestExportCmd_AllFormatsWriteFiles(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")

	dir := t.TempDir()
	for _, name := range []string{"json", "csv", "xlsx", "pdf"} {
		path := filepath.Join(dir, "records."+name)
		_, err := executeCmd(t, app, "export", "--format", name, "--out", path)
		require.NoError(t, err, name)
		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")

	_, err := executeCmd(t, app, "reset")
	require.ErrorIs(t, err, errResetNotConfirmed)
	assert.Len(t, app.Field.Records(), 1)

	out, err := executeCmd(t, app, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, plain(out), "Removed 1 record")
	assert.Empty(t, app.Field.Records())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Pro-W", "LZ990", "Elcometer"}, splitList([]string{"Pro-W, LZ990", " ", "Elcometer,"}))
	assert.Nil(t, splitList(nil))
}

func TestExportCmd_ReportsRecordCount(t *testing.T) {
	app := testApp(t)
	startSession(t, app)
	addRecord(t, app, "1")
	addRecord(t, app, "2")

	path := filepath.Join(t.TempDir(), "r.json")
	out, err := executeCmd(t, app, "export", "--format", "json", "--out", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(plain(out), "Exported 2 records"))
}
