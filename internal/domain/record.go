package domain

import (
	"fmt"
	"time"
)

const (
	// MinValues is the fewest readings a record may hold.
	MinValues = 5
	// MaxValues is the most readings a record may hold.
	MaxValues = 10
)

// MeasurementRecord is one registered set of readings for a point.
// PointName and Category are snapshots taken at registration so that a later
// catalog reload does not rewrite history. Average is computed once and never
// recomputed; only Instrument and Synced change after creation.
type MeasurementRecord struct {
	ID         string    `json:"id"`
	PointID    string    `json:"pointId"`
	PointName  string    `json:"pointName"`
	Category   Category  `json:"category"`
	Operator   string    `json:"operator"`
	Instrument string    `json:"instrument"`
	Values     []int     `json:"values"`
	Average    float64   `json:"average"`
	Timestamp  time.Time `json:"timestamp"`
	Synced     bool      `json:"synced"`
	Memo       string    `json:"memo,omitempty"`
}

// NewRecordInput carries everything needed to register a record.
type NewRecordInput struct {
	ID         string
	Point      PointDefinition
	Operator   string
	Instrument string
	Values     []int
	Memo       string
	Now        time.Time
}

// ValidateValues checks the reading count and that every reading is positive.
func ValidateValues(values []int) error {
	if len(values) < MinValues {
		return fmt.Errorf("%w: have %d, need at least %d", ErrTooFewValues, len(values), MinValues)
	}
	if len(values) > MaxValues {
		return fmt.Errorf("%w: have %d, at most %d allowed", ErrTooManyValues, len(values), MaxValues)
	}
	for i, v := range values {
		if v <= 0 {
			return fmt.Errorf("%w: reading %d is %d", ErrNonPositiveValue, i+1, v)
		}
	}
	return nil
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// NewMeasurementRecord validates the readings and builds an unsynced record
// with its average fixed at creation time.
func NewMeasurementRecord(in NewRecordInput) (MeasurementRecord, error) {
	if err := ValidateValues(in.Values); err != nil {
		return MeasurementRecord{}, err
	}
	values := make([]int, len(in.Values))
	copy(values, in.Values)

	return MeasurementRecord{
		ID:         in.ID,
		PointID:    in.Point.ID,
		PointName:  in.Point.Name,
		Category:   in.Point.Category,
		Operator:   in.Operator,
		Instrument: in.Instrument,
		Values:     values,
		Average:    Mean(values),
		Timestamp:  in.Now.UTC().Truncate(time.Millisecond),
		Memo:       in.Memo,
	}, nil
}

// Retag changes the instrument of an unsynced record.
func (r *MeasurementRecord) Retag(instrument string) error {
	if r.Synced {
		return fmt.Errorf("retag %s: %w", r.ID, ErrRecordSynced)
	}
	if instrument == "" {
		return ErrInstrumentLabelRequired
	}
	r.Instrument = instrument
	return nil
}

// CanDelete reports whether the record may still be removed locally.
func (r MeasurementRecord) CanDelete() bool {
	return !r.Synced
}
