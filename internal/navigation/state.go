package navigation

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// Mode is the view the operator is in.
type Mode int

const (
	ModeSetup Mode = iota
	ModeList
	ModeRoute
	ModeMeasure
	// ModePickInstrument waits for the operator to choose which instrument
	// the pending point is measured with.
	ModePickInstrument
	ModeSummary
)

var modeNames = map[Mode]string{
	ModeSetup:          "setup",
	ModeList:           "list",
	ModeRoute:          "route",
	ModeMeasure:        "measure",
	ModePickInstrument: "pick-instrument",
	ModeSummary:        "summary",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Pending is the point awaiting an instrument choice.
type Pending struct {
	PointID       string
	ForAdditional bool
}

// Effects tells the caller which persisted keys a transition touched.
type Effects uint8

const (
	PersistSession Effects = 1 << iota
	PersistRecords
	PersistCatalog
)

// Has reports whether every bit of o is set in e.
func (e Effects) Has(o Effects) bool { return e&o == o }

// Workspace is the persisted part of the machine's world.
type Workspace struct {
	Points     []domain.PointDefinition
	Thresholds domain.ThresholdTable
	Records    []domain.MeasurementRecord
	Session    domain.SessionConfig
}

func (w Workspace) clone() Workspace {
	c := w
	c.Points = append([]domain.PointDefinition(nil), w.Points...)
	c.Records = append([]domain.MeasurementRecord(nil), w.Records...)
	c.Session.SelectedInstruments = append([]string(nil), w.Session.SelectedInstruments...)
	if w.Thresholds != nil {
		c.Thresholds = make(domain.ThresholdTable, len(w.Thresholds))
		for k, v := range w.Thresholds {
			c.Thresholds[k] = v
		}
	}
	return c
}

// InstrumentOption is one row of the instrument picker.
type InstrumentOption struct {
	Name            string
	AlreadyMeasured bool
}

var (
	ErrInvalidTransition = errors.New("action not available here")
	ErrUnknownPoint      = errors.New("unknown point")
	ErrUnknownRecord     = errors.New("unknown record")
	ErrEmptyCatalog      = errors.New("catalog has no points")
	ErrNoSuchValue       = errors.New("no such reading")
	ErrNoActivePoint     = errors.New("no point is being measured")
	ErrNotMeasured       = errors.New("point has no measurement yet")
)

// IncompleteEntryError blocks leaving a point with some, but too few,
// readings entered. Call Machine.DiscardEntry to drop them and retry.
type IncompleteEntryError struct {
	Entered int
	Needed  int
}

func (e *IncompleteEntryError) Error() string {
	return fmt.Sprintf("%d reading(s) entered, %d more needed to register (discard them to leave this point)",
		e.Entered, e.Needed)
}

func transitionErr(action string, from Mode) error {
	return fmt.Errorf("%s from %s: %w", action, from, ErrInvalidTransition)
}
