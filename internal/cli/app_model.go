package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// appModel is the root bubbletea Model for the TUI.
// The bottom of the view stack always shows the machine's current mode;
// wizards are pushed above it.
type appModel struct {
	state     *SharedState
	viewStack []View
	mode      navigation.Mode
	quitting  bool
}

func newAppModel(app *App) appModel {
	state := &SharedState{App: app}
	m := appModel{state: state}
	m.mode = state.Mode()
	m.viewStack = []View{newModeView(state, m.mode)}
	return m
}

// newModeView builds the base view for mode.
func newModeView(state *SharedState, mode navigation.Mode) View {
	switch mode {
	case navigation.ModeList:
		return newListView(state)
	case navigation.ModeRoute, navigation.ModeMeasure:
		return newEntryView(state)
	case navigation.ModePickInstrument:
		return newPickerView(state)
	case navigation.ModeSummary:
		return newSummaryView(state)
	default:
		return newSetupView(state)
	}
}

// activeView returns the top view on the stack, or nil.
func (m *appModel) activeView() View {
	if len(m.viewStack) == 0 {
		return nil
	}
	return m.viewStack[len(m.viewStack)-1]
}

// setActiveView replaces the top of the view stack.
// If the stack is empty, this is a no-op.
func (m *appModel) setActiveView(v View) {
	if len(m.viewStack) > 0 {
		m.viewStack[len(m.viewStack)-1] = v
	}
}

// followMode swaps the base view when the machine left the mode it shows.
func (m *appModel) followMode() tea.Cmd {
	mode := m.state.Mode()
	if mode == m.mode {
		return nil
	}
	m.mode = mode
	v := newModeView(m.state, mode)
	m.viewStack = []View{v}
	return v.Init()
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m appModel) Init() tea.Cmd {
	if v := m.activeView(); v != nil {
		return v.Init()
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		// Every view sizes itself from SharedState; forward so forms reflow.
		var cmds []tea.Cmd
		for i, v := range m.viewStack {
			updated, cmd := v.Update(msg)
			m.viewStack[i] = updated.(View)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pushViewMsg:
		m.viewStack = append(m.viewStack, msg.view)
		return m, msg.view.Init()

	case wizardCompleteMsg:
		// Atomically pop the wizard view and execute the follow-up command.
		if len(m.viewStack) > 1 {
			m.viewStack = m.viewStack[:len(m.viewStack)-1]
		}
		if msg.flash != "" {
			m.state.Flash = formatter.Dim(msg.flash)
		}
		return m, msg.nextCmd

	case actionResultMsg:
		return m.handleResult(msg)
	}

	// Forward to active view
	if v := m.activeView(); v != nil {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	return m, nil
}

func (m appModel) handleResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		if msg.flash != "" {
			m.state.SetFlashOK(msg.flash)
		}
		cmd := m.followMode()
		return m, cmd
	}

	m.state.SetFlashError(msg.err)
	cmd := m.followMode()
	if inc, ok := isIncompleteEntry(msg.err); ok && msg.retry != nil {
		var confirmed bool
		app, name, retry := m.state.App, msg.name, msg.retry
		form := wizardConfirm(
			fmt.Sprintf("Discard %s?", formatter.Plural(inc.Entered, "reading")),
			fmt.Sprintf("%d more needed to register this point.", inc.Needed),
			&confirmed,
		)
		cmd = tea.Batch(cmd, startWizardCmd(m.state, "Discard", form, func() tea.Msg {
			return applyDiscardAndRetry(app, name, retry, confirmed)
		}))
	}
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	// Any key acknowledges the last flash.
	m.state.ClearFlash()

	// If active view captures input (has its own text input), forward directly.
	// This bypasses global keybindings so forms and the memo field can
	// receive all characters including 'q'.
	if v := m.activeView(); v != nil && viewCapturesInput(v) {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	switch {
	case msg.String() == "q":
		m.quitting = true
		return m, tea.Quit

	case msg.Type == tea.KeyEsc && len(m.viewStack) > 1:
		m.viewStack = m.viewStack[:len(m.viewStack)-1]
		return m, nil
	}

	// Forward to active view
	if v := m.activeView(); v != nil {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	return m, nil
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	var sections []string

	sections = append(sections, m.renderHeader())

	if v := m.activeView(); v != nil {
		sections = append(sections, v.View())
	}

	sections = append(sections, m.state.Flash)
	sections = append(sections, m.renderStatusBar())

	result := strings.Join(sections, "\n")

	// Pad to terminal height to prevent stale line artifacts from
	// bubbletea's line-diff renderer in alt-screen mode.
	if m.state.Height > 0 {
		lines := strings.Count(result, "\n") + 1
		if lines < m.state.Height {
			result += strings.Repeat("\n", m.state.Height-lines)
		}
	}

	return result
}

// ── rendering helpers ────────────────────────────────────────────────────────

func (m *appModel) renderHeader() string {
	title := formatter.StylePurple.Render("dftlog")

	// Breadcrumb from view stack
	var crumbs []string
	for _, v := range m.viewStack {
		if t := v.Title(); t != "" {
			crumbs = append(crumbs, t)
		}
	}
	header := title
	if len(crumbs) > 0 {
		header += " " + formatter.Dim("›") + " " + formatter.Dim(strings.Join(crumbs, " › "))
	}

	var session domain.SessionConfig
	var unsynced int
	m.state.App.Field.View(func(mach *navigation.Machine) {
		session = mach.Session()
		unsynced = mach.Evaluator().UnsyncedCount()
	})
	if m.mode != navigation.ModeSetup && session.Operator != "" {
		header += "  " + formatter.Dim("[") + formatter.StyleGreen.Render(session.Operator) +
			formatter.Dim(" @ "+session.SiteName+"]")
	}
	if unsynced > 0 {
		header += "  " + formatter.StyleYellow.Render(fmt.Sprintf("● %d unsynced", unsynced))
	}

	sep := formatter.Dim(strings.Repeat("─", max(m.state.Width, 20)))
	return header + "\n" + sep
}

func (m *appModel) renderStatusBar() string {
	var hints []string

	if v := m.activeView(); v != nil {
		for _, b := range v.ShortHelp() {
			hints = append(hints, formatter.Dim(b.Help().Key+": "+b.Help().Desc))
		}
		if !viewCapturesInput(v) {
			hints = append(hints, formatter.Dim("q: quit"))
		}
	}

	bar := strings.Join(hints, "  ")
	sepStyle := lipgloss.NewStyle().Foreground(formatter.ColorDim)
	sep := sepStyle.Render(strings.Repeat("─", max(m.state.Width, 20)))
	return sep + "\n" + bar
}

// viewCapturesInput returns true if the active view has its own text input
// and should receive all key events (bypassing global keybindings like q/Esc).
func viewCapturesInput(v View) bool {
	if v == nil {
		return false
	}
	switch v.ID() {
	case ViewSetup, ViewForm:
		return true
	}
	if c, ok := v.(inputCapturer); ok {
		return c.CapturesInput()
	}
	return false
}
