// Package syncer uploads unsynced measurement records as one batch and
// flags them synced only when the whole batch was accepted.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// ErrSyncInProgress is returned when Sync is called while another run is in flight.
var ErrSyncInProgress = errors.New("sync already in progress")

// Uploader sends a batch of records to the remote store.
type Uploader interface {
	// Upload returns the number of records the remote accepted, or an error
	// if any part of the batch failed.
	Upload(ctx context.Context, records []domain.MeasurementRecord) (int, error)
}

// Ledger is the local side of a sync: where unsynced records come from and
// where their synced flag is recorded.
type Ledger interface {
	Unsynced() []domain.MeasurementRecord
	MarkSynced(ids []string) error
}

// Result describes a finished sync run.
type Result struct {
	Count        int
	SubmittedIDs []string
}

// Coordinator runs at most one sync at a time.
type Coordinator struct {
	uploader Uploader
	busy     atomic.Bool
}

// NewCoordinator creates a Coordinator that uploads through u.
func NewCoordinator(u Uploader) *Coordinator {
	return &Coordinator{uploader: u}
}

// Busy reports whether a sync is in flight.
func (c *Coordinator) Busy() bool { return c.busy.Load() }

// Sync uploads every unsynced record in ledger. Nothing is uploaded when the
// ledger is empty. On upload failure no record is marked, so the same batch
// can be retried.
func (c *Coordinator) Sync(ctx context.Context, ledger Ledger) (Result, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInProgress
	}
	defer c.busy.Store(false)

	batch := ledger.Unsynced()
	if len(batch) == 0 {
		return Result{}, nil
	}
	ids := make([]string, len(batch))
	for i, r := range batch {
		ids[i] = r.ID
	}

	if _, err := c.uploader.Upload(ctx, batch); err != nil {
		return Result{}, fmt.Errorf("uploading %d record(s): %w", len(batch), err)
	}
	if err := ledger.MarkSynced(ids); err != nil {
		return Result{}, fmt.Errorf("recording sync of %d record(s): %w", len(batch), err)
	}
	return Result{Count: len(batch), SubmittedIDs: ids}, nil
}
