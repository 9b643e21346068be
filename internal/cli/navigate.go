package cli

import (
	"github.com/alexanderramin/dftlog/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// pushViewMsg pushes an overlay, typically a wizard, onto the stack.
type pushViewMsg struct {
	view View
}

// wizardCompleteMsg is sent when a wizard form completes or is cancelled.
// The appModel pops the wizard, shows flash if set, then runs nextCmd.
type wizardCompleteMsg struct {
	nextCmd tea.Cmd
	flash   string
}

// actionResultMsg reports a finished service call. The appModel shows the
// outcome on the flash line and swaps the base view if the mode changed.
type actionResultMsg struct {
	name  string
	flash string
	err   error

	// retry is rerun after the operator agrees to discard an incomplete
	// entry.
	retry service.Transition
}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}
