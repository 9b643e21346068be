package service

import (
	"context"
	"io"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/export"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/syncer"
)

// Transition is a navigation step run under the service lock. The effects
// it returns are persisted before the lock is released.
type Transition func(m *navigation.Machine) (navigation.Effects, error)

// FieldService drives one operator's measurement session. All methods are
// safe for concurrent use; navigation state lives only in memory while the
// workspace is persisted after every change.
type FieldService interface {
	// Load replaces the in-memory workspace with the persisted one and
	// returns to setup.
	Load(ctx context.Context) error

	// View runs fn with the machine locked. fn must not mutate it.
	View(fn func(m *navigation.Machine))
	// Apply runs t with the machine locked and persists its effects. When
	// t or the write fails the machine is rewound to its prior state.
	Apply(ctx context.Context, name string, t Transition) error

	Sites() []catalog.Site
	StartSession(ctx context.Context, cfg domain.SessionConfig) error
	LoadPoints(ctx context.Context, path string) (int, error)

	AddRecord(ctx context.Context, in AddRecordInput) (domain.MeasurementRecord, error)
	Records() []domain.MeasurementRecord
	DeleteRecord(ctx context.Context, id string) error
	RetagRecord(ctx context.Context, id, instrument string) error
	ResetRecords(ctx context.Context) error

	Status() Status
	Sync(ctx context.Context) (syncer.Result, error)
	SyncBusy() bool
	Export(ctx context.Context, w io.Writer, f export.Format) (int, error)
}

// AddRecordInput registers a record without walking the TUI.
// An empty Instrument uses the only selected instrument, or the session's
// primary instrument when several are selected.
type AddRecordInput struct {
	PointID    string
	Instrument string
	Values     []int
	Memo       string
	Additional bool
}

// Status is a point-in-time overview of the session.
type Status struct {
	Mode          navigation.Mode
	Session       domain.SessionConfig
	TotalPoints   int
	FullyMeasured int
	Records       int
	Unsynced      int
	SyncBusy      bool
}
