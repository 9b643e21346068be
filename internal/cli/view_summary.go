package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/syncer"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const summaryHeaderLines = 6

// summaryView lists the session's records and hosts the record actions:
// retag, delete, sync, export and reset.
type summaryView struct {
	state  *SharedState
	cursor int
	vp     viewport.Model
}

type summarySnapshot struct {
	records    []domain.MeasurementRecord
	thresholds domain.ThresholdTable
	total      int
	complete   int
	unsynced   int
}

func newSummaryView(state *SharedState) *summaryView {
	return &summaryView{state: state, vp: viewport.New(80, 10)}
}

func (v *summaryView) snapshot() summarySnapshot {
	var s summarySnapshot
	v.state.App.Field.View(func(m *navigation.Machine) {
		s.records = append([]domain.MeasurementRecord(nil), m.Records()...)
		s.thresholds = m.Workspace().Thresholds
		s.total = len(m.Points())
		ev := m.Evaluator()
		s.complete = ev.FullyMeasuredCount()
		s.unsynced = ev.UnsyncedCount()
	})
	if s.thresholds == nil {
		s.thresholds = domain.DefaultThresholds()
	}
	return s
}

func (v *summaryView) ID() ViewID    { return ViewSummary }
func (v *summaryView) Title() string { return "Summary" }

func (v *summaryView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "instrument")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "list")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
	}
}

func (v *summaryView) Init() tea.Cmd { return nil }

func (v *summaryView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	app := v.state.App
	s := v.snapshot()
	selected, hasSelection := v.selected(s.records)

	switch keyMsg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(s.records)-1 {
			v.cursor++
		}
	case "t":
		if !hasSelection || v.refuseWhileSyncing() {
			break
		}
		if selected.Synced {
			v.state.SetFlashError(domain.ErrRecordSynced)
			break
		}
		instrument := selected.Instrument
		id := selected.ID
		form := wizardSelectInstrument(fmt.Sprintf("Instrument for %s", selected.PointName), &instrument)
		return v, startWizardCmd(v.state, "Instrument", form, func() tea.Msg {
			return applyRetag(app, id, instrument)
		})
	case "x", "delete":
		if !hasSelection || v.refuseWhileSyncing() {
			break
		}
		return v, func() tea.Msg { return applyDelete(app, selected.ID) }
	case "s":
		if s.unsynced == 0 {
			v.state.Flash = formatter.Dim("Everything is synced")
			break
		}
		v.state.Flash = formatter.Dim("Uploading…")
		return v, syncCmd(app)
	case "e":
		var format string
		form := wizardSelectFormat(&format)
		return v, startWizardCmd(v.state, "Export", form, func() tea.Msg {
			return applyExport(app, format)
		})
	case "l":
		return v, runAction(app, "list", move((*navigation.Machine).ReturnToList), "")
	case "n":
		return v, runAction(app, "setup", move((*navigation.Machine).ReturnToSetup), "")
	case "R":
		if v.refuseWhileSyncing() {
			break
		}
		var confirmed bool
		form := wizardConfirm(
			fmt.Sprintf("Delete all %s?", formatter.Plural(len(s.records), "record")),
			"Unsynced readings are lost.",
			&confirmed,
		)
		return v, startWizardCmd(v.state, "Reset", form, func() tea.Msg {
			return applyReset(app, confirmed)
		})
	}
	return v, nil
}

// refuseWhileSyncing flashes an error and reports true while an upload runs.
func (v *summaryView) refuseWhileSyncing() bool {
	if !v.state.App.Field.SyncBusy() {
		return false
	}
	v.state.SetFlashError(syncer.ErrSyncInProgress)
	return true
}

func (v *summaryView) selected(records []domain.MeasurementRecord) (domain.MeasurementRecord, bool) {
	if len(records) == 0 {
		return domain.MeasurementRecord{}, false
	}
	if v.cursor >= len(records) {
		v.cursor = len(records) - 1
	}
	return records[v.cursor], true
}

func (v *summaryView) View() string {
	s := v.snapshot()
	if v.cursor >= len(s.records) {
		v.cursor = max(len(s.records)-1, 0)
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", formatter.Dim("Complete"), formatter.RenderCount(s.complete, s.total, 20))
	fmt.Fprintf(&b, "  %s %d   %s %s\n",
		formatter.Dim("Records"), len(s.records),
		formatter.Dim("Unsynced"), unsyncedLabel(s.unsynced))
	b.WriteString("\n")

	if len(s.records) == 0 {
		b.WriteString("  " + formatter.Dim("No measurements recorded."))
		return b.String()
	}

	lines := make([]string, len(s.records))
	for i, r := range s.records {
		j := s.thresholds.For(r.Category).Judge(r.Average)
		prefix := "  "
		if i == v.cursor {
			prefix = formatter.StyleGreen.Render("▸ ")
		}
		lines[i] = prefix + formatter.FormatRecordLine(r, j)
	}

	v.vp.Width = max(v.state.Width, 20)
	v.vp.Height = max(v.state.ContentHeight()-summaryHeaderLines, 3)
	v.vp.SetContent(strings.Join(lines, "\n"))
	if v.cursor < v.vp.YOffset {
		v.vp.SetYOffset(v.cursor)
	} else if v.cursor >= v.vp.YOffset+v.vp.Height {
		v.vp.SetYOffset(v.cursor - v.vp.Height + 1)
	}
	b.WriteString(v.vp.View())
	return b.String()
}

func unsyncedLabel(n int) string {
	if n == 0 {
		return formatter.StyleGreen.Render("0")
	}
	return formatter.StyleYellow.Render(fmt.Sprintf("%d", n))
}
