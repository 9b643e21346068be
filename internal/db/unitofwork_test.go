package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func putEntry(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, '2026-01-01T00:00:00Z')`, key, value)
	return err
}

func hasEntry(t *testing.T, database *sql.DB, key string) bool {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM kv_entries WHERE key = ?`, key).Scan(&n))
	return n > 0
}

func TestWithinTx_CommitsAllWrites(t *testing.T) {
	database, uow := openTestDB(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putEntry(ctx, tx, "sessionInfo", "{}"); err != nil {
			return err
		}
		return putEntry(ctx, tx, "measurements", "[]")
	})
	require.NoError(t, err)

	assert.True(t, hasEntry(t, database, "sessionInfo"))
	assert.True(t, hasEntry(t, database, "measurements"))
}

func TestWithinTx_RollsBackEveryWriteOnError(t *testing.T) {
	database, uow := openTestDB(t)
	boom := errors.New("second write failed")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putEntry(ctx, tx, "sessionInfo", "{}"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, hasEntry(t, database, "sessionInfo"), "first write rolled back")
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	database, uow := openTestDB(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putEntry(ctx, tx, "measurements", "[]")
			panic("boom")
		})
	})
	assert.False(t, hasEntry(t, database, "measurements"))
}

func TestWithinTx_ConstraintViolationSurfaces(t *testing.T) {
	_, uow := openTestDB(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putEntry(ctx, tx, "k", "a"); err != nil {
			return err
		}
		return putEntry(ctx, tx, "k", "b")
	})
	assert.Error(t, err)
}
