package domain

import "errors"

var (
	ErrOperatorRequired        = errors.New("operator name is required")
	ErrInstrumentLabelRequired = errors.New("instrument label is required")
	ErrNoInstruments           = errors.New("select at least one instrument")
	ErrUnknownInstrument       = errors.New("unknown instrument")
	ErrNoSite                  = errors.New("choose a site")

	// ErrTooFewValues is returned when a record would hold fewer than MinValues readings.
	ErrTooFewValues = errors.New("not enough readings")
	// ErrTooManyValues is returned when a record would hold more than MaxValues readings.
	ErrTooManyValues = errors.New("too many readings")
	// ErrNonPositiveValue is returned for a reading of zero or less.
	ErrNonPositiveValue = errors.New("readings must be positive")

	// ErrRecordSynced is returned when mutating a record that has already been uploaded.
	ErrRecordSynced = errors.New("record already synced")
)
