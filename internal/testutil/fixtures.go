package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/google/uuid"
)

var testRouteCounter atomic.Int64

// FixedNow is the timestamp fixtures use unless overridden.
var FixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Point options
type PointOption func(*domain.PointDefinition)

func WithCategory(c domain.Category) PointOption {
	return func(p *domain.PointDefinition) {
		p.Category = c
	}
}

func WithRouteOrder(n int) PointOption {
	return func(p *domain.PointDefinition) {
		p.RouteOrder = n
	}
}

func NewTestPoint(id string, opts ...PointOption) domain.PointDefinition {
	p := domain.PointDefinition{
		ID:         id,
		Name:       "Point " + id,
		Category:   domain.CategoryGeneral,
		RouteOrder: int(testRouteCounter.Add(1)),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewTestPoints returns n general points with ids "1".."n" in route order.
func NewTestPoints(n int) []domain.PointDefinition {
	out := make([]domain.PointDefinition, n)
	for i := range out {
		out[i] = NewTestPoint(fmt.Sprint(i+1), WithRouteOrder(i+1))
	}
	return out
}

// Session options
type SessionOption func(*domain.SessionConfig)

func WithOperator(name string) SessionOption {
	return func(s *domain.SessionConfig) {
		s.Operator = name
	}
}

func WithInstruments(names ...string) SessionOption {
	return func(s *domain.SessionConfig) {
		s.SelectedInstruments = names
	}
}

func WithSite(id, name string) SessionOption {
	return func(s *domain.SessionConfig) {
		s.SiteID = id
		s.SiteName = name
	}
}

func NewTestSession(opts ...SessionOption) domain.SessionConfig {
	s := domain.SessionConfig{
		Operator:            "X",
		PrimaryInstrument:   "gauge #1",
		SelectedInstruments: []string{"Pro-W"},
		SiteID:              "demo",
		SiteName:            "Demo site",
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Record options
type RecordOption func(*domain.MeasurementRecord)

func WithRecordOperator(name string) RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Operator = name
	}
}

func WithInstrument(name string) RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Instrument = name
	}
}

func WithValues(values ...int) RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Values = values
		r.Average = domain.Mean(values)
	}
}

func WithSynced() RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Synced = true
	}
}

func WithMemo(memo string) RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Memo = memo
	}
}

func WithTimestamp(t time.Time) RecordOption {
	return func(r *domain.MeasurementRecord) {
		r.Timestamp = t
	}
}

// NewTestRecord builds an unsynced record for point taken by operator "X"
// with Pro-W and five readings averaging 120.
func NewTestRecord(point domain.PointDefinition, opts ...RecordOption) domain.MeasurementRecord {
	values := []int{100, 110, 120, 130, 140}
	r := domain.MeasurementRecord{
		ID:         uuid.New().String(),
		PointID:    point.ID,
		PointName:  point.Name,
		Category:   point.Category,
		Operator:   "X",
		Instrument: "Pro-W",
		Values:     values,
		Average:    domain.Mean(values),
		Timestamp:  FixedNow,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
