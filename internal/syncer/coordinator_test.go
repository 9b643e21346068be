package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	mu      sync.Mutex
	records []domain.MeasurementRecord
	markErr error
}

func (l *memLedger) Unsynced() []domain.MeasurementRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.MeasurementRecord
	for _, r := range l.records {
		if !r.Synced {
			out = append(out, r)
		}
	}
	return out
}

func (l *memLedger) MarkSynced(ids []string) error {
	if l.markErr != nil {
		return l.markErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		for i := range l.records {
			if l.records[i].ID == id {
				l.records[i].Synced = true
			}
		}
	}
	return nil
}

func (l *memLedger) synced() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]bool, len(l.records))
	for i, r := range l.records {
		out[i] = r.Synced
	}
	return out
}

type fakeUploader struct {
	err     error
	calls   int
	batches [][]domain.MeasurementRecord
	block   chan struct{}
	started chan struct{}
}

func (u *fakeUploader) Upload(ctx context.Context, records []domain.MeasurementRecord) (int, error) {
	u.calls++
	u.batches = append(u.batches, records)
	if u.started != nil {
		close(u.started)
	}
	if u.block != nil {
		<-u.block
	}
	if u.err != nil {
		return 0, u.err
	}
	return len(records), nil
}

func twoUnsynced() *memLedger {
	return &memLedger{records: []domain.MeasurementRecord{
		{ID: "a", PointID: "1", Values: []int{1, 2, 3, 4, 5}},
		{ID: "b", PointID: "2", Values: []int{1, 2, 3, 4, 5}},
		{ID: "c", PointID: "3", Values: []int{1, 2, 3, 4, 5}, Synced: true},
	}}
}

func TestSync_SuccessMarksSubmitted(t *testing.T) {
	ledger := twoUnsynced()
	up := &fakeUploader{}
	c := NewCoordinator(up)

	res, err := c.Sync(context.Background(), ledger)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"a", "b"}, res.SubmittedIDs)
	require.Len(t, up.batches, 1)
	assert.Len(t, up.batches[0], 2, "synced records are not re-sent")
	assert.Equal(t, []bool{true, true, true}, ledger.synced())
}

func TestScenarioD_FailureLeavesFlagsAndAllowsRetry(t *testing.T) {
	ledger := twoUnsynced()
	up := &fakeUploader{err: errors.New("remote said no")}
	c := NewCoordinator(up)

	_, err := c.Sync(context.Background(), ledger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote said no")
	assert.Equal(t, []bool{false, false, true}, ledger.synced())
	assert.False(t, c.Busy())

	up.err = nil
	res, err := c.Sync(context.Background(), ledger)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, up.calls)
	assert.Equal(t, up.batches[0], up.batches[1], "retry sends the same batch")
}

func TestSync_EmptyIsNoOp(t *testing.T) {
	up := &fakeUploader{}
	res, err := NewCoordinator(up).Sync(context.Background(), &memLedger{})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Zero(t, up.calls)
}

func TestSync_RejectsReentrantCall(t *testing.T) {
	ledger := twoUnsynced()
	up := &fakeUploader{block: make(chan struct{}), started: make(chan struct{})}
	c := NewCoordinator(up)

	done := make(chan error, 1)
	go func() {
		_, err := c.Sync(context.Background(), ledger)
		done <- err
	}()
	<-up.started
	assert.True(t, c.Busy())

	_, err := c.Sync(context.Background(), ledger)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(up.block)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, 1, up.calls)
}

func TestSync_MarkFailureSurfaces(t *testing.T) {
	ledger := twoUnsynced()
	ledger.markErr = errors.New("disk full")
	_, err := NewCoordinator(&fakeUploader{}).Sync(context.Background(), ledger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
