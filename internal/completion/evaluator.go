// Package completion derives per-point and aggregate progress from the point
// catalog, the session configuration and the measurement records. Everything
// here is a pure function of its inputs.
package completion

import "github.com/alexanderramin/dftlog/internal/domain"

// PointStatus summarises how far a point has been measured this session.
type PointStatus struct {
	// Measured lists selected instruments that have at least one record,
	// in selection order.
	Measured []string
	Total    int
	Complete bool
}

// Evaluator answers completion questions for one operator and instrument set.
type Evaluator struct {
	points      []domain.PointDefinition
	records     []domain.MeasurementRecord
	operator    string
	instruments []string
}

// New builds an Evaluator. Completion is scoped to the session operator, so
// switching operators starts every point from zero.
func New(points []domain.PointDefinition, records []domain.MeasurementRecord, session domain.SessionConfig) *Evaluator {
	return &Evaluator{
		points:      points,
		records:     records,
		operator:    session.Operator,
		instruments: session.SelectedInstruments,
	}
}

// InstrumentMeasured reports whether the current operator has a record for
// pointID taken with instrument.
func (e *Evaluator) InstrumentMeasured(pointID, instrument string) bool {
	for _, r := range e.records {
		if r.PointID == pointID && r.Operator == e.operator && r.Instrument == instrument {
			return true
		}
	}
	return false
}

// PointStatus reports which selected instruments have measured pointID.
// A session with no selected instruments never completes a point.
func (e *Evaluator) PointStatus(pointID string) PointStatus {
	st := PointStatus{Total: len(e.instruments)}
	for _, in := range e.instruments {
		if e.InstrumentMeasured(pointID, in) {
			st.Measured = append(st.Measured, in)
		}
	}
	st.Complete = st.Total > 0 && len(st.Measured) == st.Total
	return st
}

// Complete is shorthand for PointStatus(pointID).Complete.
func (e *Evaluator) Complete(pointID string) bool {
	return e.PointStatus(pointID).Complete
}

// AdditionalCount counts repeat records for pointID: for each instrument,
// every record after the first.
func (e *Evaluator) AdditionalCount(pointID string) int {
	byInstrument := make(map[string]int)
	for _, r := range e.records {
		if r.PointID == pointID && r.Operator == e.operator {
			byInstrument[r.Instrument]++
		}
	}
	extra := 0
	for _, n := range byInstrument {
		if n > 1 {
			extra += n - 1
		}
	}
	return extra
}

// HasMeasurement reports whether the current operator has any record for pointID.
func (e *Evaluator) HasMeasurement(pointID string) bool {
	for _, r := range e.records {
		if r.PointID == pointID && r.Operator == e.operator {
			return true
		}
	}
	return false
}

// MeasuredPoints returns the catalog points that have at least one record
// for the current operator, in catalog order.
func (e *Evaluator) MeasuredPoints() []domain.PointDefinition {
	var out []domain.PointDefinition
	for _, p := range e.points {
		if e.HasMeasurement(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// FullyMeasuredCount counts catalog points whose status is complete.
func (e *Evaluator) FullyMeasuredCount() int {
	n := 0
	for _, p := range e.points {
		if e.Complete(p.ID) {
			n++
		}
	}
	return n
}

// UnsyncedCount counts records of any operator that have not been uploaded.
func (e *Evaluator) UnsyncedCount() int {
	n := 0
	for _, r := range e.records {
		if !r.Synced {
			n++
		}
	}
	return n
}

// NextUnmeasured scans the catalog after fromPointID, wrapping to the start,
// and returns the first incomplete point. The start point itself is not a
// candidate. It returns false when every other point is complete or
// fromPointID is not in the catalog.
func (e *Evaluator) NextUnmeasured(fromPointID string) (domain.PointDefinition, bool) {
	start := domain.IndexOfPoint(e.points, fromPointID)
	if start < 0 {
		return domain.PointDefinition{}, false
	}
	n := len(e.points)
	for step := 1; step < n; step++ {
		p := e.points[(start+step)%n]
		if !e.Complete(p.ID) {
			return p, true
		}
	}
	return domain.PointDefinition{}, false
}
