package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/alexanderramin/dftlog/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// StoredRecord is an uploaded record with the instant the receiver stored it.
type StoredRecord struct {
	domain.MeasurementRecord
	UploadedAt time.Time `json:"uploadedAt"`
}

var schema = map[db.Dialect]string{
	db.DialectSQLite: `CREATE TABLE IF NOT EXISTS uploaded_measurements (
		id          TEXT PRIMARY KEY,
		point_id    TEXT NOT NULL,
		point_name  TEXT NOT NULL,
		category    TEXT NOT NULL,
		operator    TEXT NOT NULL,
		instrument  TEXT NOT NULL,
		vals        TEXT NOT NULL,
		average     REAL NOT NULL,
		measured_at TEXT NOT NULL,
		synced      INTEGER NOT NULL DEFAULT 0,
		memo        TEXT NOT NULL DEFAULT '',
		uploaded_at TEXT NOT NULL
	)`,
	db.DialectPostgres: `CREATE TABLE IF NOT EXISTS uploaded_measurements (
		id          TEXT PRIMARY KEY,
		point_id    TEXT NOT NULL,
		point_name  TEXT NOT NULL,
		category    TEXT NOT NULL,
		operator    TEXT NOT NULL,
		instrument  TEXT NOT NULL,
		vals        TEXT NOT NULL,
		average     DOUBLE PRECISION NOT NULL,
		measured_at TEXT NOT NULL,
		synced      INTEGER NOT NULL DEFAULT 0,
		memo        TEXT NOT NULL DEFAULT '',
		uploaded_at TEXT NOT NULL
	)`,
}

const uploadedIndex = `CREATE INDEX IF NOT EXISTS idx_uploaded_measurements_uploaded ON uploaded_measurements(uploaded_at)`

// Store keeps uploaded records in SQLite or PostgreSQL.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL backend.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenStore opens the receiver database. A postgres:// or postgresql://
// DSN uses pgx; anything else is a SQLite file path.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	dialect := db.DialectSQLite
	if IsPostgresDSN(dsn) {
		dialect = db.DialectPostgres
	} else if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("creating ingest db directory: %w", err)
		}
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ingest database: %w", err)
	}
	if dialect == db.DialectSQLite {
		if dsn == ":memory:" {
			conn.SetMaxOpenConns(1)
		}
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to ingest database: %w", err)
	}

	s := &Store{db: conn, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range []string{schema[s.dialect], uploadedIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating ingest schema: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Dialect reports the backing database flavour.
func (s *Store) Dialect() db.Dialect { return s.dialect }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// InsertBatch stores every record in one transaction, stamping uploadedAt.
// Records whose id is already stored are skipped, so a retried batch is
// harmless. It returns how many rows were new.
func (s *Store) InsertBatch(ctx context.Context, records []domain.MeasurementRecord, uploadedAt time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query := s.dialect.Rebind(`INSERT INTO uploaded_measurements (
		id, point_id, point_name, category, operator, instrument,
		vals, average, measured_at, synced, memo, uploaded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`)
	stamp := uploadedAt.UTC().Format(time.RFC3339Nano)

	inserted := 0
	for _, r := range records {
		vals, err := json.Marshal(r.Values)
		if err != nil {
			return 0, fmt.Errorf("encoding values of %s: %w", r.ID, err)
		}
		synced := 0
		if r.Synced {
			synced = 1
		}
		res, err := tx.ExecContext(ctx, query,
			r.ID, r.PointID, r.PointName, string(r.Category), r.Operator, r.Instrument,
			string(vals), r.Average, r.Timestamp.UTC().Format(time.RFC3339Nano), synced, r.Memo, stamp,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}
	committed = true
	return inserted, nil
}

// Recent returns the most recently uploaded records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`SELECT
		id, point_id, point_name, category, operator, instrument,
		vals, average, measured_at, synced, memo, uploaded_at
	FROM uploaded_measurements
	ORDER BY uploaded_at DESC, measured_at DESC, id
	LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanStored(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploaded_measurements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting uploads: %w", err)
	}
	return n, nil
}

func scanStored(rows *sql.Rows) (StoredRecord, error) {
	var (
		r                      StoredRecord
		category, vals         string
		measuredAt, uploadedAt string
		synced                 int
	)
	if err := rows.Scan(
		&r.ID, &r.PointID, &r.PointName, &category, &r.Operator, &r.Instrument,
		&vals, &r.Average, &measuredAt, &synced, &r.Memo, &uploadedAt,
	); err != nil {
		return StoredRecord{}, fmt.Errorf("scanning upload: %w", err)
	}
	if err := json.Unmarshal([]byte(vals), &r.Values); err != nil {
		return StoredRecord{}, fmt.Errorf("decoding values of %s: %w", r.ID, err)
	}
	r.Category = domain.Category(category)
	r.Synced = synced != 0
	r.Timestamp, _ = time.Parse(time.RFC3339Nano, measuredAt)
	r.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
	return r, nil
}
