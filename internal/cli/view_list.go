package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/completion"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const listHeaderLines = 5

// listView shows every catalog point with its completion badges. In
// additional mode only points already measured by the operator are shown.
type listView struct {
	state  *SharedState
	cursor int
	offset int
}

// listSnapshot is what one render needs from the machine.
type listSnapshot struct {
	points      []domain.PointDefinition
	ev          *completion.Evaluator
	session     domain.SessionConfig
	lastTouched string
	additional  bool
	total       int
	complete    int
}

func newListView(state *SharedState) *listView {
	v := &listView{state: state}
	snap := v.snapshot()
	// Land on the point measured last so the operator continues from there.
	if i := domain.IndexOfPoint(snap.points, snap.lastTouched); i >= 0 {
		v.cursor = i
	}
	return v
}

func (v *listView) snapshot() listSnapshot {
	var s listSnapshot
	v.state.App.Field.View(func(m *navigation.Machine) {
		s.points = m.VisiblePoints()
		s.ev = m.Evaluator()
		s.session = m.Session()
		s.lastTouched = m.LastTouched()
		s.additional = m.AdditionalMode()
		s.total = len(m.Points())
		s.complete = s.ev.FullyMeasuredCount()
	})
	return s
}

func (v *listView) ID() ViewID    { return ViewList }
func (v *listView) Title() string { return "Points" }

func (v *listView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "measure")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "route")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "additional")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
	}
}

func (v *listView) Init() tea.Cmd { return nil }

func (v *listView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	app := v.state.App
	points := v.snapshot().points

	switch keyMsg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(points)-1 {
			v.cursor++
		}
	case "home", "g":
		v.cursor = 0
	case "end", "G":
		v.cursor = max(len(points)-1, 0)
	case "enter":
		if v.cursor < len(points) {
			id := points[v.cursor].ID
			return v, runAction(app, "select-point", func(m *navigation.Machine) (navigation.Effects, error) {
				return m.SelectPoint(id)
			}, "")
		}
	case "r":
		return v, runAction(app, "start-route", func(m *navigation.Machine) (navigation.Effects, error) {
			return m.StartRoute()
		}, "")
	case "a":
		_ = app.Field.Apply(context.Background(), "toggle-additional", func(m *navigation.Machine) (navigation.Effects, error) {
			m.ToggleAdditional()
			return 0, nil
		})
		v.cursor, v.offset = 0, 0
	case "f":
		return v, runAction(app, "finish", move((*navigation.Machine).Finish), "")
	}
	return v, nil
}

func (v *listView) View() string {
	s := v.snapshot()
	if v.cursor >= len(s.points) {
		v.cursor = max(len(s.points)-1, 0)
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n", formatter.Bold(s.session.SiteName), formatter.Dim(s.session.PrimaryInstrument+" · "+strings.Join(s.session.SelectedInstruments, ", ")))
	fmt.Fprintf(&b, "  %s %s\n", formatter.Dim("Complete"), formatter.RenderCount(s.complete, s.total, 20))
	if s.additional {
		b.WriteString("  " + formatter.StylePurple.Render("Additional measurement: choose a measured point") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(s.points) == 0 {
		if s.additional {
			b.WriteString("  " + formatter.Dim("No measured points yet. Press a to leave additional mode."))
		} else {
			b.WriteString("  " + formatter.Dim("No points loaded."))
		}
		return b.String()
	}

	rows := max(v.state.ContentHeight()-listHeaderLines, 3)
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+rows {
		v.offset = v.cursor - rows + 1
	}
	end := min(v.offset+rows, len(s.points))

	nameWidth := 0
	for _, p := range s.points {
		nameWidth = max(nameWidth, lipgloss.Width(p.Name))
	}
	nameWidth = min(nameWidth, 32)

	for i := v.offset; i < end; i++ {
		b.WriteString(v.renderRow(s, s.points[i], i == v.cursor, nameWidth))
		b.WriteByte('\n')
	}
	if end < len(s.points) {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("… %d more", len(s.points)-end)))
	}
	return b.String()
}

func (v *listView) renderRow(s listSnapshot, p domain.PointDefinition, isCursor bool, nameWidth int) string {
	cursor := "  "
	if isCursor {
		cursor = formatter.StyleGreen.Render("▸ ")
	}
	st := s.ev.PointStatus(p.ID)
	name := formatter.Truncate(p.Name, nameWidth)
	name += strings.Repeat(" ", max(nameWidth-lipgloss.Width(name), 0))
	if p.ID == s.lastTouched {
		name = formatter.StyleHighlight.Render(name)
	}

	parts := []string{
		cursor + formatter.Dim(fmt.Sprintf("%3d", p.RouteOrder)),
		name,
		formatter.CategoryBadge(p.Category),
		formatter.CompletionBadge(st),
	}
	if len(st.Measured) > 0 {
		parts = append(parts, formatter.Dim(strings.Join(st.Measured, ", ")))
	}
	if extra := formatter.AdditionalBadge(s.ev.AdditionalCount(p.ID)); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, "  ")
}
