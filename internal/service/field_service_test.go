package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/export"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/repository"
	"github.com/alexanderramin/dftlog/internal/syncer"
	"github.com/alexanderramin/dftlog/internal/testutil"
	"github.com/alexanderramin/dftlog/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	err    error
	calls  int
	got    [][]string
	during func()
}

func (f *fakeUploader) Upload(_ context.Context, records []domain.MeasurementRecord) (int, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	f.got = append(f.got, ids)
	if f.err != nil {
		return 0, f.err
	}
	return len(records), nil
}

type recordingObserver struct {
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.events = append(o.events, e)
}

type testEnv struct {
	db       *sql.DB
	kv       *repository.SQLiteKVStore
	uploader *fakeUploader
	observer *recordingObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	return &testEnv{
		db:       database,
		kv:       repository.NewSQLiteKVStore(database),
		uploader: &fakeUploader{},
		observer: &recordingObserver{},
	}
}

// service builds a fresh service over the shared store, as a new process would.
func (e *testEnv) service(t *testing.T, uow db.UnitOfWork) *fieldService {
	t.Helper()
	if uow == nil {
		uow = testutil.NewTestUoW(e.db)
	}
	seq := 0
	opts := []navigation.Option{
		navigation.WithClock(func() time.Time { return testutil.FixedNow }),
		navigation.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("rec-%d", seq)
		}),
	}
	svc := newFieldService(
		repository.NewKVRecordRepo(e.kv),
		repository.NewKVCatalogRepo(e.kv),
		repository.NewKVSessionRepo(e.kv),
		uow,
		catalog.DemoRegistry(),
		e.uploader,
		opts,
		e.observer,
	)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func fiveValues() []int { return []int{200, 210, 220, 230, 240} }

func startedService(t *testing.T, e *testEnv, instruments ...string) *fieldService {
	t.Helper()
	svc := e.service(t, nil)
	cfg := testutil.NewTestSession(testutil.WithInstruments(instruments...))
	require.NoError(t, svc.StartSession(context.Background(), cfg))
	return svc
}

func TestLoad_EmptyStoreUsesDemoRoute(t *testing.T) {
	e := newTestEnv(t)
	svc := e.service(t, nil)

	st := svc.Status()
	assert.Equal(t, navigation.ModeSetup, st.Mode)
	assert.Equal(t, 8, st.TotalPoints)
	assert.Zero(t, st.Records)
	assert.Empty(t, st.Session.Operator)
}

func TestStartSession_PersistsSessionAndCatalog(t *testing.T) {
	e := newTestEnv(t)
	startedService(t, e, "Pro-W", "LZ990")

	reloaded := e.service(t, nil)
	st := reloaded.Status()
	assert.Equal(t, navigation.ModeSetup, st.Mode, "navigation position is not restored")
	assert.Equal(t, "X", st.Session.Operator)
	assert.Equal(t, "Demo bridge", st.Session.SiteName)
	assert.Equal(t, []string{"Pro-W", "LZ990"}, st.Session.SelectedInstruments)
	assert.Equal(t, 8, st.TotalPoints)
}

func TestStartSession_ValidationLeavesStoreUntouched(t *testing.T) {
	e := newTestEnv(t)
	svc := e.service(t, nil)
	ctx := context.Background()

	err := svc.StartSession(ctx, testutil.NewTestSession(testutil.WithOperator("  ")))
	assert.ErrorIs(t, err, domain.ErrOperatorRequired)

	err = svc.StartSession(ctx, testutil.NewTestSession(testutil.WithSite("elsewhere", "")))
	assert.ErrorIs(t, err, catalog.ErrUnknownSite)

	keys, err := e.kv.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAddRecord_SingleInstrument(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")

	rec, err := svc.AddRecord(context.Background(), AddRecordInput{PointID: "5", Values: fiveValues(), Memo: "bolt side"})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Pro-W", rec.Instrument)
	assert.Equal(t, domain.CategoryExtra, rec.Category)
	assert.Equal(t, "G2_main-girder_1-1", rec.PointName)
	assert.InDelta(t, 220.0, rec.Average, 1e-9)
	assert.Equal(t, "bolt side", rec.Memo)

	reloaded := e.service(t, nil)
	require.Len(t, reloaded.Records(), 1)
	assert.Equal(t, rec, reloaded.Records()[0])
	assert.Equal(t, "Pro-W", reloaded.Status().Session.PrimaryInstrument)
}

func TestAddRecord_PicksInstrument(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W", "LZ990")
	ctx := context.Background()

	rec, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Instrument: "LZ990", Values: fiveValues()})
	require.NoError(t, err)
	assert.Equal(t, "LZ990", rec.Instrument)

	// The primary label now names LZ990, so it is the fallback.
	rec, err = svc.AddRecord(ctx, AddRecordInput{PointID: "2", Values: fiveValues()})
	require.NoError(t, err)
	assert.Equal(t, "LZ990", rec.Instrument)

	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "3", Instrument: "Elcometer", Values: fiveValues()})
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument, "not selected for the session")

	rec, err = svc.AddRecord(ctx, AddRecordInput{PointID: "1", Instrument: "Elcometer", Values: fiveValues(), Additional: true})
	require.NoError(t, err, "additional measurements may use any catalog gauge")
	assert.Equal(t, "Elcometer", rec.Instrument)

	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "4", Instrument: "Elcometer", Values: fiveValues(), Additional: true})
	assert.ErrorIs(t, err, navigation.ErrNotMeasured, "additional needs a prior measurement")

	assert.Len(t, svc.Records(), 3)
	svc.View(func(m *navigation.Machine) {
		assert.False(t, m.AdditionalMode())
		assert.Equal(t, navigation.ModeList, m.Mode())
	})
}

func TestAddRecord_RejectsBadInput(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	unstarted := e.service(t, nil)
	_, err := unstarted.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	assert.ErrorIs(t, err, domain.ErrNoSite)

	svc := startedService(t, e, "Pro-W")
	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: []int{1, 2, 3}})
	assert.ErrorIs(t, err, domain.ErrTooFewValues)

	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: []int{100, 0, 100, 100, 100}})
	assert.ErrorIs(t, err, domain.ErrNonPositiveValue)

	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "99", Values: fiveValues()})
	assert.ErrorIs(t, err, navigation.ErrUnknownPoint)

	assert.Empty(t, svc.Records())
	svc.View(func(m *navigation.Machine) {
		assert.Equal(t, navigation.ModeList, m.Mode())
		assert.Zero(t, m.Entry().Count(), "rewound readings do not leak into the next point")
	})
}

func TestAddRecord_WriteFailureRevertsMemory(t *testing.T) {
	e := newTestEnv(t)
	// Exec #1 and #2 are the session and catalog of StartSession; #3 is the
	// records write of AddRecord.
	failUoW := &testutil.FailOnNthExecUoW{DB: e.db, FailOn: 3, Err: errors.New("disk full")}
	svc := e.service(t, failUoW)
	ctx := context.Background()
	require.NoError(t, svc.StartSession(ctx, testutil.NewTestSession(testutil.WithInstruments("Pro-W", "LZ990"))))

	_, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Instrument: "LZ990", Values: fiveValues()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 3, failUoW.Execs())

	assert.Empty(t, svc.Records())
	st := svc.Status()
	assert.Equal(t, "gauge #1", st.Session.PrimaryInstrument, "primary label reverted with the record")
	assert.Equal(t, navigation.ModeList, st.Mode)

	reloaded := e.service(t, nil)
	assert.Empty(t, reloaded.Records())
	assert.Equal(t, "gauge #1", reloaded.Status().Session.PrimaryInstrument)

	// The next attempt goes through.
	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "1", Instrument: "LZ990", Values: fiveValues()})
	require.NoError(t, err)
	assert.Len(t, e.service(t, nil).Records(), 1)
}

func TestApply_EntryKeysAreNotPersisted(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()
	before := len(e.observer.events)

	require.NoError(t, svc.Apply(ctx, "select", func(m *navigation.Machine) (navigation.Effects, error) {
		return m.SelectPoint("1")
	}))
	for _, r := range "250" {
		require.NoError(t, svc.Apply(ctx, "digit", func(m *navigation.Machine) (navigation.Effects, error) {
			m.Entry().Digit(r)
			return 0, nil
		}))
	}
	svc.View(func(m *navigation.Machine) {
		assert.Equal(t, navigation.ModeMeasure, m.Mode())
		assert.Equal(t, "250", m.Entry().Buffer())
	})

	names := []string{}
	for _, ev := range e.observer.events[before:] {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"select"}, names, "only persisting transitions are reported")
}

func TestApply_TransitionErrorRewinds(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")

	err := svc.Apply(context.Background(), "half-done", func(m *navigation.Machine) (navigation.Effects, error) {
		if _, err := m.StartRoute(); err != nil {
			return 0, err
		}
		return 0, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	assert.Equal(t, navigation.ModeList, svc.Status().Mode)
}

func TestDeleteAndRetag(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()

	a, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)
	b, err := svc.AddRecord(ctx, AddRecordInput{PointID: "2", Values: fiveValues()})
	require.NoError(t, err)

	require.NoError(t, svc.RetagRecord(ctx, a.ID, "Elcometer"))
	assert.ErrorIs(t, svc.RetagRecord(ctx, a.ID, "Caliper"), domain.ErrUnknownInstrument)
	require.NoError(t, svc.DeleteRecord(ctx, b.ID))
	assert.ErrorIs(t, svc.DeleteRecord(ctx, b.ID), navigation.ErrUnknownRecord)

	stored := e.service(t, nil).Records()
	require.Len(t, stored, 1)
	assert.Equal(t, "Elcometer", stored[0].Instrument)

	_, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteRecord(ctx, a.ID), domain.ErrRecordSynced)
	assert.ErrorIs(t, svc.RetagRecord(ctx, a.ID, "Pro-W"), domain.ErrRecordSynced)
}

func TestSync_MarksUploadedRecords(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()

	for _, id := range []string{"1", "2"} {
		_, err := svc.AddRecord(ctx, AddRecordInput{PointID: id, Values: fiveValues()})
		require.NoError(t, err)
	}

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"rec-1", "rec-2"}, res.SubmittedIDs)
	assert.Zero(t, svc.Status().Unsynced)

	for _, r := range e.service(t, nil).Records() {
		assert.True(t, r.Synced, r.ID)
	}

	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Equal(t, 1, e.uploader.calls, "nothing left to upload")
}

func TestSync_FailureKeepsFlagsForRetry(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()
	_, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)

	e.uploader.err = upload.ErrUnavailable
	_, err = svc.Sync(ctx)
	assert.ErrorIs(t, err, upload.ErrUnavailable)
	assert.Equal(t, 1, svc.Status().Unsynced)

	e.uploader.err = nil
	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, e.uploader.got[0], e.uploader.got[1], "retry sends the same batch")
	assert.False(t, svc.SyncBusy())
}

func TestSync_RecordsFrozenDuringUpload(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()
	a, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)
	b, err := svc.AddRecord(ctx, AddRecordInput{PointID: "2", Values: fiveValues()})
	require.NoError(t, err)

	var retagErr, deleteErr, resetErr error
	e.uploader.during = func() {
		retagErr = svc.RetagRecord(ctx, a.ID, "Elcometer")
		deleteErr = svc.DeleteRecord(ctx, b.ID)
		resetErr = svc.ResetRecords(ctx)
	}

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.ErrorIs(t, retagErr, syncer.ErrSyncInProgress)
	assert.ErrorIs(t, deleteErr, syncer.ErrSyncInProgress)
	assert.ErrorIs(t, resetErr, syncer.ErrSyncInProgress)

	stored := e.service(t, nil).Records()
	require.Len(t, stored, 2)
	for _, r := range stored {
		assert.True(t, r.Synced, r.ID)
		assert.Equal(t, "Pro-W", r.Instrument, "synced record matches what was uploaded")
	}

	e.uploader.during = nil
	_, err = svc.AddRecord(ctx, AddRecordInput{PointID: "3", Values: fiveValues()})
	require.NoError(t, err)
	require.NoError(t, svc.RetagRecord(ctx, "rec-3", "Elcometer"), "edits allowed once the upload is done")
}

func TestSync_NotConfigured(t *testing.T) {
	e := newTestEnv(t)
	svc := newFieldService(
		repository.NewKVRecordRepo(e.kv),
		repository.NewKVCatalogRepo(e.kv),
		repository.NewKVSessionRepo(e.kv),
		testutil.NewTestUoW(e.db),
		nil,
		upload.NewHTTPUploader("", 0, nil),
		nil,
	)
	ctx := context.Background()
	require.NoError(t, svc.StartSession(ctx, testutil.NewTestSession()))
	_, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)

	_, err = svc.Sync(ctx)
	assert.ErrorIs(t, err, upload.ErrNotConfigured)
}

func TestResetRecords_RemovesKey(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()
	_, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)

	require.NoError(t, svc.ResetRecords(ctx))
	assert.Empty(t, svc.Records())
	_, err = e.kv.Get(ctx, repository.KeyMeasurements)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.kv.Get(ctx, repository.KeySession)
	assert.NoError(t, err, "session survives a reset")
}

func TestLoadPoints_ReplacesCatalog(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	path := filepath.Join(t.TempDir(), "route.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,category,routeOrder\na,Pier A,special,2\nb,Pier B,,1\n"), 0644))

	n, err := svc.LoadPoints(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	svc.View(func(m *navigation.Machine) {
		require.Len(t, m.Points(), 2)
		assert.Equal(t, "b", m.Points()[0].ID)
	})
	assert.Equal(t, 2, e.service(t, nil).Status().TotalPoints)

	_, err = svc.LoadPoints(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, 2, svc.Status().TotalPoints, "catalog unchanged on load failure")
}

func TestExport(t *testing.T) {
	e := newTestEnv(t)
	svc := startedService(t, e, "Pro-W")
	ctx := context.Background()
	_, err := svc.AddRecord(ctx, AddRecordInput{PointID: "1", Values: fiveValues()})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := svc.Export(ctx, &buf, export.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := export.ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, svc.Records(), got)

	buf.Reset()
	_, err = svc.Export(ctx, &buf, export.FormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "\ufeffID,PointID"))

	buf.Reset()
	_, err = svc.Export(ctx, &buf, export.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	_, err = svc.Export(ctx, &buf, export.Format("docx"))
	assert.Error(t, err)
}

func TestLogUseCaseObserver_WritesServiceLine(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEnv(t)
	svc := newFieldService(
		repository.NewKVRecordRepo(e.kv),
		repository.NewKVCatalogRepo(e.kv),
		repository.NewKVSessionRepo(e.kv),
		testutil.NewTestUoW(e.db),
		nil,
		e.uploader,
		nil,
		NewLogUseCaseObserver(&buf),
	)
	require.NoError(t, svc.StartSession(context.Background(), testutil.NewTestSession()))

	out := buf.String()
	assert.Contains(t, out, "msg=service_use_case")
	assert.Contains(t, out, "use_case=start-session")
	assert.Contains(t, out, "success=true")
	assert.Contains(t, out, "points=8")
}
