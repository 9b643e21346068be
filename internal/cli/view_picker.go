package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// pickerView asks which instrument the pending point is measured with.
type pickerView struct {
	state  *SharedState
	cursor int
}

func newPickerView(state *SharedState) *pickerView {
	v := &pickerView{state: state}
	// Start on the first instrument still missing for this point.
	for i, o := range v.options() {
		if !o.AlreadyMeasured {
			v.cursor = i
			break
		}
	}
	return v
}

func (v *pickerView) options() []navigation.InstrumentOption {
	var opts []navigation.InstrumentOption
	v.state.App.Field.View(func(m *navigation.Machine) { opts = m.PickerOptions() })
	return opts
}

func (v *pickerView) ID() ViewID    { return ViewPicker }
func (v *pickerView) Title() string { return "Instrument" }

func (v *pickerView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "measure with")),
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1-9", "pick")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (v *pickerView) Init() tea.Cmd { return nil }

func (v *pickerView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	opts := v.options()

	switch k := keyMsg.String(); k {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(opts)-1 {
			v.cursor++
		}
	case "enter":
		if v.cursor < len(opts) {
			return v, v.choose(opts[v.cursor].Name)
		}
	case "esc", "b":
		return v, runAction(v.state.App, "cancel-pick", move((*navigation.Machine).CancelPick), "")
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < len(opts) {
				v.cursor = i
				return v, v.choose(opts[i].Name)
			}
		}
	}
	return v, nil
}

func (v *pickerView) choose(name string) tea.Cmd {
	return runAction(v.state.App, "choose-instrument", func(m *navigation.Machine) (navigation.Effects, error) {
		return m.ChooseInstrument(name)
	}, "")
}

func (v *pickerView) View() string {
	var pending navigation.Pending
	var point domain.PointDefinition
	var opts []navigation.InstrumentOption
	v.state.App.Field.View(func(m *navigation.Machine) {
		pending, _ = m.Pending()
		point, _ = domain.FindPoint(m.Points(), pending.PointID)
		opts = m.PickerOptions()
	})

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n", formatter.Bold(point.Name), formatter.CategoryBadge(point.Category))
	if pending.ForAdditional {
		b.WriteString("  " + formatter.StylePurple.Render("Additional measurement: any instrument") + "\n")
	}
	b.WriteString("\n  " + formatter.Dim("Measure with:") + "\n\n")

	for i, o := range opts {
		cursor := "  "
		name := o.Name
		if i == v.cursor {
			cursor = formatter.StyleGreen.Render("▸ ")
			name = formatter.Bold(name)
		}
		mark := ""
		if o.AlreadyMeasured {
			mark = "  " + formatter.StyleGreen.Render("✔ measured")
		}
		fmt.Fprintf(&b, "  %s%s %s%s\n", cursor, formatter.Dim(fmt.Sprintf("%d.", i+1)), name, mark)
	}
	return b.String()
}
