// Package navigation holds the measurement session state machine: which view
// the operator is in, which point is active, and every transition between
// them. Transitions mutate the owned Workspace and report which parts of it
// must be persisted; they never touch storage themselves.
package navigation

import (
	"fmt"
	"time"

	"github.com/alexanderramin/dftlog/internal/completion"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/google/uuid"
)

// Machine is the navigation state plus the workspace it governs. It is not
// safe for concurrent use; callers serialize access.
type Machine struct {
	ws          Workspace
	mode        Mode
	cursor      int
	selected    string
	pending     *Pending
	additional  bool
	lastTouched string
	entry       Entry

	newID func() string
	now   func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithIDGenerator replaces the record id source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// WithClock replaces the record timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(m *Machine) { m.now = fn }
}

// NewMachine starts in setup mode over ws. Navigation position is never
// restored from storage.
func NewMachine(ws Workspace, opts ...Option) *Machine {
	if ws.Thresholds == nil {
		ws.Thresholds = domain.DefaultThresholds()
	}
	m := &Machine{
		ws:    ws,
		mode:  ModeSetup,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Accessors

func (m *Machine) Mode() Mode                          { return m.mode }
func (m *Machine) Workspace() Workspace                { return m.ws }
func (m *Machine) Session() domain.SessionConfig       { return m.ws.Session }
func (m *Machine) Points() []domain.PointDefinition    { return m.ws.Points }
func (m *Machine) Records() []domain.MeasurementRecord { return m.ws.Records }
func (m *Machine) RouteCursor() int                    { return m.cursor }
func (m *Machine) SelectedPointID() string             { return m.selected }
func (m *Machine) AdditionalMode() bool                { return m.additional }
func (m *Machine) LastTouched() string                 { return m.lastTouched }
func (m *Machine) Entry() *Entry                       { return &m.entry }

// Pending returns the point awaiting an instrument choice.
func (m *Machine) Pending() (Pending, bool) {
	if m.pending == nil {
		return Pending{}, false
	}
	return *m.pending, true
}

// Evaluator answers completion questions over the current workspace.
func (m *Machine) Evaluator() *completion.Evaluator {
	return completion.New(m.ws.Points, m.ws.Records, m.ws.Session)
}

// CurrentPoint is the point being measured in route or measure mode.
func (m *Machine) CurrentPoint() (domain.PointDefinition, bool) {
	switch m.mode {
	case ModeRoute:
		if m.cursor >= 0 && m.cursor < len(m.ws.Points) {
			return m.ws.Points[m.cursor], true
		}
	case ModeMeasure:
		return domain.FindPoint(m.ws.Points, m.selected)
	}
	return domain.PointDefinition{}, false
}

// CurrentThreshold is the tolerance band for the current point.
func (m *Machine) CurrentThreshold() (domain.Threshold, bool) {
	p, ok := m.CurrentPoint()
	if !ok {
		return domain.Threshold{}, false
	}
	return m.ws.Thresholds.For(p.Category), true
}

// VisiblePoints is the list view's content: the whole catalog, or in
// additional mode only points the current operator has already measured.
func (m *Machine) VisiblePoints() []domain.PointDefinition {
	if !m.additional {
		return m.ws.Points
	}
	return m.Evaluator().MeasuredPoints()
}

// PickerOptions lists the instruments offered for the pending point.
// Additional measurements may use any catalog instrument.
func (m *Machine) PickerOptions() []InstrumentOption {
	if m.pending == nil {
		return nil
	}
	names := m.ws.Session.SelectedInstruments
	if m.pending.ForAdditional {
		names = domain.Instruments
	}
	ev := m.Evaluator()
	out := make([]InstrumentOption, 0, len(names))
	for _, n := range names {
		out = append(out, InstrumentOption{Name: n, AlreadyMeasured: ev.InstrumentMeasured(m.pending.PointID, n)})
	}
	return out
}

// Snapshot captures the full machine state so a caller can undo a
// transition whose persistence failed.
type Snapshot struct {
	ws          Workspace
	mode        Mode
	cursor      int
	selected    string
	pending     *Pending
	additional  bool
	lastTouched string
	entry       Entry
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		ws:          m.ws.clone(),
		mode:        m.mode,
		cursor:      m.cursor,
		selected:    m.selected,
		additional:  m.additional,
		lastTouched: m.lastTouched,
		entry:       m.entry,
	}
	s.entry.values = append([]int(nil), m.entry.values...)
	if m.pending != nil {
		p := *m.pending
		s.pending = &p
	}
	return s
}

// Restore rewinds the machine to s.
func (m *Machine) Restore(s Snapshot) {
	m.ws = s.ws
	m.mode = s.mode
	m.cursor = s.cursor
	m.selected = s.selected
	m.pending = s.pending
	m.additional = s.additional
	m.lastTouched = s.lastTouched
	m.entry = s.entry
}

// syncEntry resets the reading buffer whenever the active point changes.
func (m *Machine) syncEntry() {
	id := ""
	if p, ok := m.CurrentPoint(); ok {
		id = p.ID
	}
	if id != m.entry.pointID {
		m.entry.reset(id)
	}
}

func (m *Machine) toList() {
	m.mode = ModeList
	m.selected = ""
	m.pending = nil
}

// guardEntry refuses to leave a point while too few readings are entered.
func (m *Machine) guardEntry() error {
	if (m.mode == ModeRoute || m.mode == ModeMeasure) && m.entry.InProgress() {
		return &IncompleteEntryError{Entered: m.entry.Count(), Needed: m.entry.Remaining()}
	}
	return nil
}

// DiscardEntry drops any readings typed for the current point.
func (m *Machine) DiscardEntry() {
	m.entry.reset(m.entry.pointID)
}

// Setup

// StartSession validates cfg, installs the site's catalog and thresholds,
// and enters the list. The catalog is replaced only when validation passes.
func (m *Machine) StartSession(cfg domain.SessionConfig, points []domain.PointDefinition, thresholds domain.ThresholdTable) (Effects, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("site %s: %w", cfg.SiteID, ErrEmptyCatalog)
	}
	if thresholds == nil {
		thresholds = domain.DefaultThresholds()
	}
	m.ws.Session = cfg
	m.ws.Points = append([]domain.PointDefinition(nil), points...)
	m.ws.Thresholds = thresholds
	m.cursor = 0
	m.lastTouched = ""
	m.toList()
	m.syncEntry()
	return PersistSession | PersistCatalog, nil
}

// Resume enters the list with the persisted session, as if the setup form
// were submitted unchanged.
func (m *Machine) Resume() error {
	if m.mode != ModeSetup {
		return nil
	}
	cfg := m.ws.Session.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(m.ws.Points) == 0 {
		return ErrEmptyCatalog
	}
	m.ws.Session = cfg
	m.cursor = 0
	m.toList()
	m.syncEntry()
	return nil
}

// ReplaceCatalog swaps in a new point list. Existing records keep their
// snapshot names; any point being measured is abandoned.
func (m *Machine) ReplaceCatalog(points []domain.PointDefinition) (Effects, error) {
	if len(points) == 0 {
		return 0, ErrEmptyCatalog
	}
	m.ws.Points = append([]domain.PointDefinition(nil), points...)
	m.cursor = 0
	m.lastTouched = ""
	switch m.mode {
	case ModeRoute, ModeMeasure, ModePickInstrument:
		m.toList()
	}
	m.syncEntry()
	return PersistCatalog, nil
}

// ReturnToSetup leaves the session; nothing persisted is cleared.
func (m *Machine) ReturnToSetup() error {
	if m.mode != ModeSummary {
		return transitionErr("setup", m.mode)
	}
	m.mode = ModeSetup
	m.syncEntry()
	return nil
}

// List

// StartRoute walks the catalog from the first point. With a single selected
// instrument it becomes the primary, as when tapping a point.
func (m *Machine) StartRoute() (Effects, error) {
	if m.mode != ModeList {
		return 0, transitionErr("start route", m.mode)
	}
	var eff Effects
	if ins := m.ws.Session.SelectedInstruments; len(ins) == 1 && m.ws.Session.PrimaryInstrument != ins[0] {
		m.ws.Session.PrimaryInstrument = ins[0]
		eff |= PersistSession
	}
	m.cursor = 0
	m.mode = ModeRoute
	m.syncEntry()
	return eff, nil
}

// ToggleAdditional flips additional-measurement mode and returns the new value.
func (m *Machine) ToggleAdditional() bool {
	m.additional = !m.additional
	return m.additional
}

// SelectPoint is a tap on a list row. In additional mode only points the
// operator has already measured are listed, so others are refused.
func (m *Machine) SelectPoint(pointID string) (Effects, error) {
	if m.mode != ModeList {
		return 0, transitionErr("select point", m.mode)
	}
	if m.additional {
		if _, ok := domain.FindPoint(m.ws.Points, pointID); ok && !m.Evaluator().HasMeasurement(pointID) {
			return 0, fmt.Errorf("additional measurement of %s: %w", pointID, ErrNotMeasured)
		}
	}
	return m.selectPoint(pointID)
}

func (m *Machine) selectPoint(pointID string) (Effects, error) {
	if _, ok := domain.FindPoint(m.ws.Points, pointID); !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPoint, pointID)
	}
	ins := m.ws.Session.SelectedInstruments
	if !m.additional && len(ins) == 1 {
		m.ws.Session.PrimaryInstrument = ins[0]
		m.selected = pointID
		m.pending = nil
		m.mode = ModeMeasure
		m.syncEntry()
		return PersistSession, nil
	}
	m.pending = &Pending{PointID: pointID, ForAdditional: m.additional}
	m.selected = ""
	m.mode = ModePickInstrument
	m.syncEntry()
	return 0, nil
}

// Instrument picker

// ChooseInstrument makes name the primary instrument and starts measuring
// the pending point.
func (m *Machine) ChooseInstrument(name string) (Effects, error) {
	if m.mode != ModePickInstrument || m.pending == nil {
		return 0, transitionErr("choose instrument", m.mode)
	}
	offered := false
	for _, o := range m.PickerOptions() {
		if o.Name == name {
			offered = true
			break
		}
	}
	if !offered {
		return 0, &domain.UnknownInstrumentError{Name: name}
	}
	m.ws.Session.PrimaryInstrument = name
	m.selected = m.pending.PointID
	m.pending = nil
	m.mode = ModeMeasure
	m.syncEntry()
	return PersistSession, nil
}

// CancelPick closes the picker and returns to the list.
func (m *Machine) CancelPick() error {
	if m.mode != ModePickInstrument {
		return transitionErr("cancel", m.mode)
	}
	m.toList()
	m.syncEntry()
	return nil
}

// Measuring

// Register turns the entry buffer into a record for the current point.
// Route mode advances to the next point, or the summary after the last;
// measure mode returns to the list.
func (m *Machine) Register() (domain.MeasurementRecord, Effects, error) {
	p, ok := m.CurrentPoint()
	if !ok {
		return domain.MeasurementRecord{}, 0, fmt.Errorf("register: %w", ErrNoActivePoint)
	}
	rec, err := domain.NewMeasurementRecord(domain.NewRecordInput{
		ID:         m.newID(),
		Point:      p,
		Operator:   m.ws.Session.Operator,
		Instrument: m.ws.Session.PrimaryInstrument,
		Values:     m.entry.values,
		Memo:       m.entry.memo,
		Now:        m.now(),
	})
	if err != nil {
		return domain.MeasurementRecord{}, 0, err
	}
	m.ws.Records = append(m.ws.Records, rec)
	m.lastTouched = p.ID
	m.entry.reset(p.ID)

	if m.mode == ModeRoute {
		m.advanceRoute()
	} else {
		m.toList()
	}
	m.syncEntry()
	return rec, PersistRecords, nil
}

func (m *Machine) advanceRoute() {
	if m.cursor+1 >= len(m.ws.Points) {
		m.mode = ModeSummary
		return
	}
	m.cursor++
}

// Skip leaves the current point without registering. Route mode moves to
// the next route point; measure mode jumps to the next incomplete point,
// wrapping around the catalog, or back to the list when none is left.
func (m *Machine) Skip() (Effects, error) {
	switch m.mode {
	case ModeRoute:
		if err := m.guardEntry(); err != nil {
			return 0, err
		}
		m.advanceRoute()
		m.syncEntry()
		return 0, nil
	case ModeMeasure:
		if err := m.guardEntry(); err != nil {
			return 0, err
		}
		from := m.selected
		next, ok := m.Evaluator().NextUnmeasured(from)
		m.lastTouched = from
		if !ok {
			m.toList()
			m.syncEntry()
			return 0, nil
		}
		return m.selectPoint(next.ID)
	default:
		return 0, transitionErr("skip", m.mode)
	}
}

// Back steps to the previous route point, or returns to the list without
// the scroll-to-last-measured jump.
func (m *Machine) Back() error {
	switch m.mode {
	case ModeRoute, ModeMeasure:
		if err := m.guardEntry(); err != nil {
			return err
		}
		if m.mode == ModeRoute && m.cursor > 0 {
			m.cursor--
		} else {
			m.toList()
			m.lastTouched = ""
		}
	case ModePickInstrument:
		m.toList()
	case ModeSummary:
		m.toList()
	default:
		return transitionErr("back", m.mode)
	}
	m.syncEntry()
	return nil
}

// Finish opens the summary.
func (m *Machine) Finish() error {
	switch m.mode {
	case ModeSetup:
		return transitionErr("finish", m.mode)
	case ModeSummary:
		return nil
	}
	if err := m.guardEntry(); err != nil {
		return err
	}
	m.pending = nil
	m.mode = ModeSummary
	m.syncEntry()
	return nil
}

// ReturnToList leaves the summary for the list.
func (m *Machine) ReturnToList() error {
	if m.mode != ModeSummary {
		return transitionErr("list", m.mode)
	}
	m.toList()
	m.syncEntry()
	return nil
}

// Records

func (m *Machine) recordIndex(id string) int {
	for i := range m.ws.Records {
		if m.ws.Records[i].ID == id {
			return i
		}
	}
	return -1
}

// DeleteRecord removes an unsynced record.
func (m *Machine) DeleteRecord(id string) (Effects, error) {
	i := m.recordIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if !m.ws.Records[i].CanDelete() {
		return 0, fmt.Errorf("delete %s: %w", id, domain.ErrRecordSynced)
	}
	m.ws.Records = append(m.ws.Records[:i:i], m.ws.Records[i+1:]...)
	return PersistRecords, nil
}

// RetagRecord changes the instrument of an unsynced record to a catalog instrument.
func (m *Machine) RetagRecord(id, instrument string) (Effects, error) {
	i := m.recordIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if !domain.IsKnownInstrument(instrument) {
		return 0, &domain.UnknownInstrumentError{Name: instrument}
	}
	if err := m.ws.Records[i].Retag(instrument); err != nil {
		return 0, err
	}
	return PersistRecords, nil
}

// Unsynced returns copies of every record not yet uploaded.
func (m *Machine) Unsynced() []domain.MeasurementRecord {
	var out []domain.MeasurementRecord
	for _, r := range m.ws.Records {
		if !r.Synced {
			out = append(out, r)
		}
	}
	return out
}

// MarkSynced flags exactly the given records as uploaded and returns how
// many changed.
func (m *Machine) MarkSynced(ids []string) (int, Effects) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range m.ws.Records {
		if want[m.ws.Records[i].ID] && !m.ws.Records[i].Synced {
			m.ws.Records[i].Synced = true
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return n, PersistRecords
}

// ResetRecords drops every local record and returns to the list at the
// start of the route.
func (m *Machine) ResetRecords() Effects {
	m.ws.Records = nil
	m.cursor = 0
	m.lastTouched = ""
	if m.mode != ModeSetup {
		m.toList()
	}
	m.syncEntry()
	return PersistRecords
}
