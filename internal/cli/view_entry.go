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
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	valuesPerRow = 5
	gaugeWidth   = 40
)

// entryView is the numeric pad for the point being measured, in both route
// and single-point mode.
type entryView struct {
	state *SharedState

	pointID     string
	valueCursor int // -1 selects the last reading

	memo        textinput.Model
	editingMemo bool
}

// entrySnapshot is what one render needs from the machine.
type entrySnapshot struct {
	mode        navigation.Mode
	point       domain.PointDefinition
	threshold   domain.Threshold
	session     domain.SessionConfig
	status      completion.PointStatus
	additional  bool
	routeIndex  int
	routeLen    int
	buffer      string
	values      []int
	memo        string
	average     float64
	remaining   int
	canRegister bool
	full        bool
}

func newEntryView(state *SharedState) *entryView {
	ti := textinput.New()
	ti.Placeholder = "memo for this record"
	ti.CharLimit = 200
	ti.Prompt = "✎ "
	v := &entryView{state: state, memo: ti, valueCursor: -1}
	v.pointID = v.snapshot().point.ID
	return v
}

func (v *entryView) snapshot() entrySnapshot {
	var s entrySnapshot
	v.state.App.Field.View(func(m *navigation.Machine) {
		s.mode = m.Mode()
		s.point, _ = m.CurrentPoint()
		s.threshold, _ = m.CurrentThreshold()
		s.session = m.Session()
		s.status = m.Evaluator().PointStatus(s.point.ID)
		s.additional = m.AdditionalMode()
		s.routeIndex = m.RouteCursor()
		s.routeLen = len(m.Points())
		e := m.Entry()
		s.buffer = e.Buffer()
		s.values = e.Values()
		s.memo = e.Memo()
		s.average = e.Average()
		s.remaining = e.Remaining()
		s.canRegister = e.CanRegister()
		s.full = e.Full()
	})
	return s
}

// follow resets per-point state once the machine moved to another point.
func (v *entryView) follow(s entrySnapshot) {
	if s.point.ID == v.pointID {
		return
	}
	v.pointID = s.point.ID
	v.valueCursor = -1
	v.editingMemo = false
	v.memo.Blur()
	v.memo.SetValue("")
}

func (v *entryView) ID() ViewID { return ViewEntry }

func (v *entryView) Title() string {
	if v.state.Mode() == navigation.ModeRoute {
		return "Route"
	}
	return "Measure"
}

func (v *entryView) CapturesInput() bool { return v.editingMemo }

func (v *entryView) ShortHelp() []key.Binding {
	if v.editingMemo {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save memo")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("0"), key.WithHelp("0-9", "type")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add/register")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("←→ d", "delete reading")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		key.NewBinding(key.WithKeys("b"), key.WithHelp("b/esc", "back")),
		key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "memo")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "discard")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
	}
}

func (v *entryView) Init() tea.Cmd { return nil }

func (v *entryView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if v.editingMemo {
			var cmd tea.Cmd
			v.memo, cmd = v.memo.Update(msg)
			return v, cmd
		}
		return v, nil
	}
	s := v.snapshot()
	v.follow(s)
	if v.editingMemo {
		return v.updateMemo(keyMsg)
	}

	app := v.state.App
	switch k := keyMsg.String(); k {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		editEntry(app, func(e *navigation.Entry) { e.Digit(rune(k[0])) })
	case "backspace":
		editEntry(app, func(e *navigation.Entry) { e.Backspace() })
	case "enter":
		switch {
		case s.buffer != "":
			editEntry(app, func(e *navigation.Entry) { e.Confirm() })
			v.valueCursor = -1
		case s.canRegister:
			return v, registerCmd(app)
		default:
			v.state.Flash = formatter.Dim(fmt.Sprintf("%s more needed to register", formatter.Plural(s.remaining, "reading")))
		}
	case "r":
		return v, registerCmd(app)
	case "left", "h":
		if n := len(s.values); n > 0 {
			if v.valueCursor < 0 {
				v.valueCursor = n - 1
			} else {
				v.valueCursor = max(v.valueCursor-1, 0)
			}
		}
	case "right", "l":
		if v.valueCursor >= 0 {
			v.valueCursor++
			if v.valueCursor >= len(s.values) {
				v.valueCursor = -1
			}
		}
	case "d", "delete":
		i := v.selectedValue(len(s.values))
		if i < 0 {
			break
		}
		var err error
		editEntry(app, func(e *navigation.Entry) { err = e.DeleteValue(i) })
		if err != nil {
			v.state.SetFlashError(err)
		}
		v.valueCursor = -1
	case "x":
		_ = app.Field.Apply(context.Background(), "discard-entry", func(m *navigation.Machine) (navigation.Effects, error) {
			m.DiscardEntry()
			return 0, nil
		})
		v.valueCursor = -1
	case "m":
		v.editingMemo = true
		v.memo.SetValue(s.memo)
		v.memo.CursorEnd()
		return v, v.memo.Focus()
	case "s":
		return v, runAction(app, "skip", (*navigation.Machine).Skip, "")
	case "b", "esc":
		return v, runAction(app, "back", move((*navigation.Machine).Back), "")
	case "f":
		return v, runAction(app, "finish", move((*navigation.Machine).Finish), "")
	}
	return v, nil
}

func (v *entryView) updateMemo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		memo := strings.TrimSpace(v.memo.Value())
		editEntry(v.state.App, func(e *navigation.Entry) { e.SetMemo(memo) })
		v.editingMemo = false
		v.memo.Blur()
		return v, nil
	case tea.KeyEsc:
		v.editingMemo = false
		v.memo.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.memo, cmd = v.memo.Update(msg)
	return v, cmd
}

// selectedValue is the reading index d acts on, or -1 when there are none.
func (v *entryView) selectedValue(n int) int {
	if n == 0 {
		return -1
	}
	if v.valueCursor < 0 || v.valueCursor >= n {
		return n - 1
	}
	return v.valueCursor
}

func (v *entryView) View() string {
	s := v.snapshot()
	v.follow(s)

	var b strings.Builder
	b.WriteString("\n")

	if s.mode == navigation.ModeRoute {
		fmt.Fprintf(&b, "  %s %s\n", formatter.Dim("Route"), formatter.RenderCount(s.routeIndex+1, s.routeLen, 24))
	} else {
		label := "Single point"
		if s.additional {
			label = formatter.StylePurple.Render("Additional measurement")
		}
		b.WriteString("  " + formatter.Dim(label) + "\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  %s  %s  %s\n", formatter.Bold(s.point.Name), formatter.CategoryBadge(s.point.Category), formatter.Dim("#"+s.point.ID))
	fmt.Fprintf(&b, "  %s %s  %s %s  %s\n",
		formatter.Dim("Instrument"), s.session.PrimaryInstrument,
		formatter.Dim("Operator"), s.session.Operator,
		formatter.CompletionBadge(s.status))
	b.WriteString("  " + formatter.Dim(formatter.BandLabel(s.threshold)) + "\n\n")

	j := s.threshold.Judge(s.average)
	avg := formatter.Dim("--")
	if len(s.values) > 0 {
		avg = formatter.JudgementStyle(j).Render(formatter.FormatAverage(s.average) + "µm")
	}
	fmt.Fprintf(&b, "  %s  %s %s\n\n", formatter.RenderGauge(s.average, s.threshold, gaugeWidth), avg, formatter.JudgementIndicator(j))

	fmt.Fprintf(&b, "  %s\n", formatter.Dim(fmt.Sprintf("Readings %d/%d", len(s.values), domain.MaxValues)))
	b.WriteString(v.renderValues(s.values))

	prompt := formatter.StyleHeader.Render("  > ") + s.buffer + formatter.Dim("_")
	b.WriteString("\n" + prompt + "\n")

	switch {
	case s.full:
		b.WriteString("  " + formatter.StyleYellow.Render("Maximum readings reached. Press enter to register.") + "\n")
	case s.canRegister:
		b.WriteString("  " + formatter.StyleGreen.Render("Ready to register (enter)") + "\n")
	default:
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("%s more needed", formatter.Plural(s.remaining, "reading"))) + "\n")
	}

	if v.editingMemo {
		b.WriteString("  " + v.memo.View() + "\n")
	} else if s.memo != "" {
		b.WriteString("  " + formatter.Dim("✎ "+s.memo) + "\n")
	}
	return b.String()
}

func (v *entryView) renderValues(values []int) string {
	if len(values) == 0 {
		return "  " + formatter.Dim("none yet") + "\n"
	}
	sel := v.selectedValue(len(values))
	var b strings.Builder
	for i, val := range values {
		if i%valuesPerRow == 0 {
			b.WriteString("  ")
		}
		cell := fmt.Sprintf("%s %-5d", formatter.Dim(fmt.Sprintf("%2d:", i+1)), val)
		if i == sel && v.valueCursor >= 0 {
			cell = formatter.StyleHighlight.Render(fmt.Sprintf("%2d: %-5d", i+1, val))
		}
		b.WriteString(cell)
		if i%valuesPerRow == valuesPerRow-1 || i == len(values)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}
