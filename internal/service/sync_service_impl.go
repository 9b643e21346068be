package service

import (
	"context"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/syncer"
)

// ledger exposes the machine's records to the sync coordinator. Each call
// takes the service lock on its own so the upload runs unlocked.
type ledger struct {
	ctx context.Context
	s   *fieldService
}

func (l ledger) Unsynced() []domain.MeasurementRecord {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.machine.Unsynced()
}

func (l ledger) MarkSynced(ids []string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	_, err := l.s.applyLocked(l.ctx, func(m *navigation.Machine) (navigation.Effects, error) {
		_, eff := m.MarkSynced(ids)
		return eff, nil
	})
	return err
}

func (s *fieldService) Sync(ctx context.Context) (res syncer.Result, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		fields["count"] = res.Count
		observe(ctx, s.observer, "sync", startedAt, fields, err)
	}()

	return s.coord.Sync(ctx, ledger{ctx: ctx, s: s})
}

func (s *fieldService) SyncBusy() bool {
	return s.coord.Busy()
}
