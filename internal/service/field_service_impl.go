package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/repository"
	"github.com/alexanderramin/dftlog/internal/syncer"
)

type fieldService struct {
	records  repository.RecordRepo
	points   repository.CatalogRepo
	sessions repository.SessionRepo
	uow      db.UnitOfWork
	registry *catalog.Registry
	coord    *syncer.Coordinator
	observer UseCaseObserver
	machOpts []navigation.Option

	mu      sync.Mutex
	machine *navigation.Machine
}

// NewFieldService wires the session driver. Reads go through the given
// repositories; writes go through uow so each action commits atomically.
// Call Load before use to pick up persisted state.
func NewFieldService(
	records repository.RecordRepo,
	points repository.CatalogRepo,
	sessions repository.SessionRepo,
	uow db.UnitOfWork,
	registry *catalog.Registry,
	uploader syncer.Uploader,
	observers ...UseCaseObserver,
) FieldService {
	return newFieldService(records, points, sessions, uow, registry, uploader, nil, observers...)
}

func newFieldService(
	records repository.RecordRepo,
	points repository.CatalogRepo,
	sessions repository.SessionRepo,
	uow db.UnitOfWork,
	registry *catalog.Registry,
	uploader syncer.Uploader,
	machOpts []navigation.Option,
	observers ...UseCaseObserver,
) *fieldService {
	if registry == nil {
		registry = catalog.DemoRegistry()
	}
	return &fieldService{
		records:  records,
		points:   points,
		sessions: sessions,
		uow:      uow,
		registry: registry,
		coord:    syncer.NewCoordinator(uploader),
		observer: useCaseObserverOrNoop(observers),
		machOpts: machOpts,
		machine:  navigation.NewMachine(navigation.Workspace{Points: domain.DefaultPoints()}, machOpts...),
	}
}

func (s *fieldService) Load(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() { observe(ctx, s.observer, "load-workspace", startedAt, fields, err) }()

	ws := navigation.Workspace{}
	ws.Records, err = s.records.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	ws.Points, err = s.points.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		ws.Points = domain.DefaultPoints()
	case err != nil:
		return fmt.Errorf("loading points: %w", err)
	}
	cfg, err := s.sessions.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return fmt.Errorf("loading session: %w", err)
	default:
		ws.Session = *cfg
	}
	err = nil
	ws.Thresholds = s.registry.Thresholds(ws.Session.SiteID)

	fields["records"] = len(ws.Records)
	fields["points"] = len(ws.Points)

	s.mu.Lock()
	s.machine = navigation.NewMachine(ws, s.machOpts...)
	s.mu.Unlock()
	return nil
}

func (s *fieldService) View(fn func(m *navigation.Machine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.machine)
}

func (s *fieldService) Apply(ctx context.Context, name string, t Transition) error {
	startedAt := time.Now().UTC()
	s.mu.Lock()
	eff, err := s.applyLocked(ctx, t)
	s.mu.Unlock()
	if eff != 0 || err != nil {
		observe(ctx, s.observer, name, startedAt, map[string]any{"effects": int(eff)}, err)
	}
	return err
}

// applyLocked runs t and persists what it touched. Callers hold s.mu.
func (s *fieldService) applyLocked(ctx context.Context, t Transition) (navigation.Effects, error) {
	snap := s.machine.Snapshot()
	eff, err := t(s.machine)
	if err != nil {
		s.machine.Restore(snap)
		return eff, err
	}
	if err := s.persist(ctx, eff); err != nil {
		s.machine.Restore(snap)
		return eff, err
	}
	return eff, nil
}

// persist writes every key named by eff in one transaction.
func (s *fieldService) persist(ctx context.Context, eff navigation.Effects) error {
	if eff == 0 {
		return nil
	}
	ws := s.machine.Workspace()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		kv := repository.NewSQLiteKVStore(tx)
		if eff.Has(navigation.PersistRecords) {
			if err := repository.NewKVRecordRepo(kv).Save(ctx, ws.Records); err != nil {
				return fmt.Errorf("saving records: %w", err)
			}
		}
		if eff.Has(navigation.PersistSession) {
			if err := repository.NewKVSessionRepo(kv).Save(ctx, ws.Session); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
		}
		if eff.Has(navigation.PersistCatalog) {
			if err := repository.NewKVCatalogRepo(kv).Save(ctx, ws.Points); err != nil {
				return fmt.Errorf("saving points: %w", err)
			}
		}
		return nil
	})
}

func (s *fieldService) Sites() []catalog.Site {
	return append([]catalog.Site(nil), s.registry.Sites...)
}

func (s *fieldService) StartSession(ctx context.Context, cfg domain.SessionConfig) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"site": cfg.SiteID, "operator": cfg.Operator}
	defer func() { observe(ctx, s.observer, "start-session", startedAt, fields, err) }()

	cfg = cfg.Normalize()
	if err = cfg.Validate(); err != nil {
		return err
	}
	site, err := s.registry.Site(cfg.SiteID)
	if err != nil {
		return err
	}
	points, err := s.registry.LoadPoints(site.ID)
	if err != nil {
		return err
	}
	cfg.SiteName = site.Name
	thresholds := s.registry.Thresholds(site.ID)
	fields["points"] = len(points)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.applyLocked(ctx, func(m *navigation.Machine) (navigation.Effects, error) {
		return m.StartSession(cfg, points, thresholds)
	})
	return err
}

func (s *fieldService) LoadPoints(ctx context.Context, path string) (n int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"file": path}
	defer func() { observe(ctx, s.observer, "load-points", startedAt, fields, err) }()

	points, err := catalog.LoadFile(path)
	if err != nil {
		return 0, err
	}
	fields["points"] = len(points)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err = s.applyLocked(ctx, func(m *navigation.Machine) (navigation.Effects, error) {
		return m.ReplaceCatalog(points)
	}); err != nil {
		return 0, err
	}
	return len(points), nil
}

func (s *fieldService) AddRecord(ctx context.Context, in AddRecordInput) (rec domain.MeasurementRecord, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"point": in.PointID, "values": len(in.Values)}
	defer func() { observe(ctx, s.observer, "add-record", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.applyLocked(ctx, func(m *navigation.Machine) (navigation.Effects, error) {
		if err := m.Resume(); err != nil {
			return 0, err
		}
		wasAdditional := m.AdditionalMode()
		if in.Additional != wasAdditional {
			m.ToggleAdditional()
		}
		eff, err := m.SelectPoint(in.PointID)
		if err != nil {
			return 0, err
		}
		if m.Mode() == navigation.ModePickInstrument {
			name := in.Instrument
			if ins := m.Session().SelectedInstruments; name == "" && len(ins) == 1 {
				name = ins[0]
			} else if name == "" {
				name = m.Session().PrimaryInstrument
			}
			chosen, err := m.ChooseInstrument(name)
			if err != nil {
				return 0, err
			}
			eff |= chosen
		} else if in.Instrument != "" && in.Instrument != m.Session().PrimaryInstrument {
			return 0, &domain.UnknownInstrumentError{Name: in.Instrument}
		}

		entry := m.Entry()
		for _, v := range in.Values {
			if err := entry.Add(v); err != nil {
				return 0, err
			}
		}
		entry.SetMemo(in.Memo)
		r, registered, err := m.Register()
		if err != nil {
			return 0, err
		}
		if m.AdditionalMode() != wasAdditional {
			m.ToggleAdditional()
		}
		rec = r
		return eff | registered, nil
	})
	if err != nil {
		return domain.MeasurementRecord{}, err
	}
	fields["record"] = rec.ID
	fields["instrument"] = rec.Instrument
	return rec, nil
}

func (s *fieldService) Records() []domain.MeasurementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MeasurementRecord(nil), s.machine.Records()...)
}

// syncIdle refuses record edits while an upload is in flight. The uploaded
// batch is marked synced by id afterwards. Callers hold s.mu.
func (s *fieldService) syncIdle(action string) error {
	if s.coord.Busy() {
		return fmt.Errorf("%s: %w", action, syncer.ErrSyncInProgress)
	}
	return nil
}

func (s *fieldService) DeleteRecord(ctx context.Context, id string) error {
	return s.Apply(ctx, "delete-record", func(m *navigation.Machine) (navigation.Effects, error) {
		if err := s.syncIdle("delete record"); err != nil {
			return 0, err
		}
		return m.DeleteRecord(id)
	})
}

func (s *fieldService) RetagRecord(ctx context.Context, id, instrument string) error {
	return s.Apply(ctx, "retag-record", func(m *navigation.Machine) (navigation.Effects, error) {
		if err := s.syncIdle("retag record"); err != nil {
			return 0, err
		}
		return m.RetagRecord(id, instrument)
	})
}

func (s *fieldService) ResetRecords(ctx context.Context) error {
	return s.Apply(ctx, "reset-records", func(m *navigation.Machine) (navigation.Effects, error) {
		if err := s.syncIdle("reset records"); err != nil {
			return 0, err
		}
		return m.ResetRecords(), nil
	})
}

func (s *fieldService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.machine
	ev := m.Evaluator()
	return Status{
		Mode:          m.Mode(),
		Session:       m.Session(),
		TotalPoints:   len(m.Points()),
		FullyMeasured: ev.FullyMeasuredCount(),
		Records:       len(m.Records()),
		Unsynced:      ev.UnsyncedCount(),
		SyncBusy:      s.coord.Busy(),
	}
}
