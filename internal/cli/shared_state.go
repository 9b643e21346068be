package cli

import (
	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/navigation"
)

// SharedState holds context shared across all views via pointer.
type SharedState struct {
	App *App

	// Flash is the one-line outcome of the last action, already styled.
	Flash string

	// Terminal dimensions
	Width  int
	Height int
}

// SetFlashError shows err on the flash line.
func (s *SharedState) SetFlashError(err error) {
	s.Flash = formatter.ErrorLine(err)
}

// SetFlashOK shows a confirmation on the flash line.
func (s *SharedState) SetFlashOK(text string) {
	s.Flash = formatter.OKLine(text)
}

// ClearFlash empties the flash line.
func (s *SharedState) ClearFlash() {
	s.Flash = ""
}

// Mode reads the machine's current mode.
func (s *SharedState) Mode() navigation.Mode {
	var mode navigation.Mode
	s.App.Field.View(func(m *navigation.Machine) { mode = m.Mode() })
	return mode
}

// ContentHeight returns the available height for view content,
// accounting for header (2 lines: title + separator), the flash line,
// and status bar (2 lines: separator + hints).
func (s *SharedState) ContentHeight() int {
	h := s.Height - 5
	if h < 1 {
		return 1
	}
	return h
}
