package cli

import (
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupView is the session form. It is pre-filled from the persisted
// session so returning operators only press enter through it.
type setupView struct {
	state  *SharedState
	fields *setupFields
	form   *huh.Form
}

func newSetupView(state *SharedState) *setupView {
	var session domain.SessionConfig
	state.App.Field.View(func(m *navigation.Machine) { session = m.Session() })
	f := setupFieldsFrom(session)
	return &setupView{
		state:  state,
		fields: &f,
		form:   newSetupForm(state.App.Field.Sites(), &f),
	}
}

func (v *setupView) ID() ViewID    { return ViewSetup }
func (v *setupView) Title() string { return "Setup" }

func (v *setupView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x/space", "toggle instrument")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (v *setupView) Init() tea.Cmd {
	return v.form.Init()
}

func (v *setupView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State != huh.StateCompleted {
		return v, cmd
	}

	// Rebuild the form with the same answers so a rejected submission can
	// be corrected in place.
	fields := *v.fields
	app := v.state.App
	v.form = newSetupForm(app.Field.Sites(), v.fields)
	return v, tea.Batch(cmd, v.form.Init(), func() tea.Msg { return applySetup(app, fields) })
}

func (v *setupView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header("Measurement session"))
	b.WriteString("\n\n")
	b.WriteString(v.form.View())
	return b.String()
}
