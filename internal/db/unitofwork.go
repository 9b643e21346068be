package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork groups the key writes of one field action so the session,
// catalog and records keys change together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork runs each action in a database/sql transaction on the
// local store.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

// WithinTx commits when fn returns nil and rolls back on an error or panic.
// The kv store handed to fn must be built from tx, not from the *sql.DB.
func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if ferr := fn(ctx, tx); ferr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", ferr, rbErr)
		}
		return ferr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing key writes: %w", err)
	}
	return nil
}
