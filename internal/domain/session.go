package domain

import (
	"fmt"
	"strings"
)

// SessionConfig identifies who is measuring, where, and with which gauges.
// PrimaryInstrument is a free-text label that is also overwritten with the
// catalog instrument picked for each point; SelectedInstruments drives
// completion tracking.
type SessionConfig struct {
	Operator            string   `json:"operator"`
	PrimaryInstrument   string   `json:"instrument"`
	SelectedInstruments []string `json:"selectedInstruments"`
	SiteID              string   `json:"siteId"`
	SiteName            string   `json:"siteName"`
}

// Normalize trims free-text fields and drops duplicate instruments while
// preserving selection order.
func (s SessionConfig) Normalize() SessionConfig {
	s.Operator = strings.TrimSpace(s.Operator)
	s.PrimaryInstrument = strings.TrimSpace(s.PrimaryInstrument)
	s.SiteID = strings.TrimSpace(s.SiteID)

	seen := make(map[string]bool, len(s.SelectedInstruments))
	var out []string
	for _, in := range s.SelectedInstruments {
		in = strings.TrimSpace(in)
		if in == "" || seen[in] {
			continue
		}
		seen[in] = true
		out = append(out, in)
	}
	s.SelectedInstruments = out
	return s
}

// Validate enforces the guards for starting a session.
func (s SessionConfig) Validate() error {
	switch {
	case s.SiteID == "":
		return ErrNoSite
	case s.Operator == "":
		return ErrOperatorRequired
	case s.PrimaryInstrument == "":
		return ErrInstrumentLabelRequired
	case len(s.SelectedInstruments) == 0:
		return ErrNoInstruments
	}
	for _, in := range s.SelectedInstruments {
		if !IsKnownInstrument(in) {
			return &UnknownInstrumentError{Name: in}
		}
	}
	return nil
}

// HasInstrument reports whether name is among the selected instruments.
func (s SessionConfig) HasInstrument(name string) bool {
	for _, in := range s.SelectedInstruments {
		if in == name {
			return true
		}
	}
	return false
}

// UnknownInstrumentError names an instrument outside the catalog.
type UnknownInstrumentError struct {
	Name string
}

func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("unknown instrument %q (known: %s)", e.Name, strings.Join(Instruments, ", "))
}

func (e *UnknownInstrumentError) Unwrap() error { return ErrUnknownInstrument }
