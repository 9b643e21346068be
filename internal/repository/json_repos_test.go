package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAt(path string) (*sql.DB, error) {
	return db.OpenDB(path)
}

func TestRecordRepo_EmptyWhenAbsent(t *testing.T) {
	repo := NewKVRecordRepo(NewSQLiteKVStore(testutil.NewTestDB(t)))

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordRepo_RoundTrip(t *testing.T) {
	kv := NewSQLiteKVStore(testutil.NewTestDB(t))
	repo := NewKVRecordRepo(kv)
	ctx := context.Background()

	p := testutil.NewTestPoint("7", testutil.WithCategory(domain.CategorySplice))
	in := []domain.MeasurementRecord{
		testutil.NewTestRecord(p),
		testutil.NewTestRecord(p, testutil.WithSynced(), testutil.WithMemo("edge"), testutil.WithValues(300, 301, 302, 303, 304, 305)),
	}
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	raw, err := kv.Get(ctx, KeyMeasurements)
	require.NoError(t, err)
	assert.Contains(t, string(raw.Value), `"pointId":"7"`)
	assert.Contains(t, string(raw.Value), `"category":"splice"`)
}

func TestRecordRepo_SaveEmptyRemovesKey(t *testing.T) {
	kv := NewSQLiteKVStore(testutil.NewTestDB(t))
	repo := NewKVRecordRepo(kv)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []domain.MeasurementRecord{testutil.NewTestRecord(testutil.NewTestPoint("1"))}))
	require.NoError(t, repo.Save(ctx, nil))

	_, err := kv.Get(ctx, KeyMeasurements)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogRepo_NotFoundThenRoundTrip(t *testing.T) {
	repo := NewKVCatalogRepo(NewSQLiteKVStore(testutil.NewTestDB(t)))
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	pts := testutil.NewTestPoints(3)
	require.NoError(t, repo.Save(ctx, pts))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, pts, got)
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	kv := NewSQLiteKVStore(testutil.NewTestDB(t))
	repo := NewKVSessionRepo(kv)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	s := testutil.NewTestSession(testutil.WithInstruments("Pro-W", "LZ990"))
	require.NoError(t, repo.Save(ctx, s))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, *got)

	raw, err := kv.Get(ctx, KeySession)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operator":"X","instrument":"gauge #1","selectedInstruments":["Pro-W","LZ990"],"siteId":"demo","siteName":"Demo site"}`, string(raw.Value))
}

func TestSessionRepo_CorruptBlob(t *testing.T) {
	kv := NewSQLiteKVStore(testutil.NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeySession, []byte("{not json")))

	_, err := NewKVSessionRepo(kv).Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "decoding sessionInfo")
}

func TestRepos_WithinTxRollback(t *testing.T) {
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		kv := NewSQLiteKVStore(tx)
		if err := NewKVCatalogRepo(kv).Save(ctx, testutil.NewTestPoints(2)); err != nil {
			return err
		}
		return sql.ErrConnDone
	})
	require.ErrorIs(t, err, sql.ErrConnDone)

	_, err = NewKVCatalogRepo(NewSQLiteKVStore(database)).Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
