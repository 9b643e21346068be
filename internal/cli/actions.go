package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/export"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// runAction applies t through the field service in a Cmd. ok is flashed
// on success.
func runAction(app *App, name string, t service.Transition, ok string) tea.Cmd {
	return func() tea.Msg {
		err := app.Field.Apply(context.Background(), name, t)
		return actionResultMsg{name: name, flash: ok, err: err, retry: t}
	}
}

// move wraps a navigation step that persists nothing.
func move(step func(m *navigation.Machine) error) service.Transition {
	return func(m *navigation.Machine) (navigation.Effects, error) {
		return 0, step(m)
	}
}

// editEntry changes the entry buffer in place. The buffer is never
// persisted, so this runs synchronously inside Update.
func editEntry(app *App, fn func(e *navigation.Entry)) {
	_ = app.Field.Apply(context.Background(), "entry", func(m *navigation.Machine) (navigation.Effects, error) {
		fn(m.Entry())
		return 0, nil
	})
}

func registerTransition(rec *domain.MeasurementRecord) service.Transition {
	return func(m *navigation.Machine) (navigation.Effects, error) {
		r, eff, err := m.Register()
		*rec = r
		return eff, err
	}
}

// registerCmd registers the entry buffer and flashes the new record.
func registerCmd(app *App) tea.Cmd {
	return func() tea.Msg {
		var rec domain.MeasurementRecord
		t := registerTransition(&rec)
		if err := app.Field.Apply(context.Background(), "register", t); err != nil {
			return actionResultMsg{name: "register", err: err}
		}
		return actionResultMsg{
			name:  "register",
			flash: fmt.Sprintf("Registered %s · %s · %sµm", rec.PointName, rec.Instrument, formatter.FormatAverage(rec.Average)),
		}
	}
}

// syncCmd uploads unsynced records. The upload runs outside the service
// lock, so the UI keeps rendering while it is in flight.
func syncCmd(app *App) tea.Cmd {
	return func() tea.Msg {
		res, err := app.Field.Sync(context.Background())
		switch {
		case err != nil:
			return actionResultMsg{name: "sync", err: fmt.Errorf("sync failed: %w", err)}
		case len(res.SubmittedIDs) == 0:
			return actionResultMsg{name: "sync", flash: "Nothing to sync"}
		default:
			return actionResultMsg{name: "sync", flash: fmt.Sprintf("Synced %s", formatter.Plural(res.Count, "record"))}
		}
	}
}

// setupFields backs the setup form.
type setupFields struct {
	SiteID      string
	Operator    string
	Label       string
	Instruments []string
}

func setupFieldsFrom(cfg domain.SessionConfig) setupFields {
	f := setupFields{
		SiteID:      cfg.SiteID,
		Operator:    cfg.Operator,
		Label:       cfg.PrimaryInstrument,
		Instruments: append([]string(nil), cfg.SelectedInstruments...),
	}
	return f
}

// applySetup starts the session described by the setup form.
func applySetup(app *App, f setupFields) tea.Msg {
	err := app.Field.StartSession(context.Background(), domain.SessionConfig{
		SiteID:              f.SiteID,
		Operator:            f.Operator,
		PrimaryInstrument:   f.Label,
		SelectedInstruments: f.Instruments,
	})
	if err != nil {
		return actionResultMsg{name: "start-session", err: err}
	}
	var session domain.SessionConfig
	var points int
	app.Field.View(func(m *navigation.Machine) {
		session = m.Session()
		points = len(m.Points())
	})
	return actionResultMsg{
		name:  "start-session",
		flash: fmt.Sprintf("%s · %s · %s", session.SiteName, session.Operator, formatter.Plural(points, "point")),
	}
}

// applyRetag changes the instrument of record id.
func applyRetag(app *App, id, instrument string) tea.Msg {
	if err := app.Field.RetagRecord(context.Background(), id, instrument); err != nil {
		return actionResultMsg{name: "retag-record", err: err}
	}
	return actionResultMsg{name: "retag-record", flash: "Instrument changed to " + instrument}
}

// applyDelete removes record id.
func applyDelete(app *App, id string) tea.Msg {
	if err := app.Field.DeleteRecord(context.Background(), id); err != nil {
		return actionResultMsg{name: "delete-record", err: err}
	}
	return actionResultMsg{name: "delete-record", flash: "Record deleted"}
}

// applyReset drops every local record once confirmed.
func applyReset(app *App, confirmed bool) tea.Msg {
	if !confirmed {
		return actionResultMsg{name: "reset-records", flash: "Reset cancelled"}
	}
	n := len(app.Field.Records())
	if err := app.Field.ResetRecords(context.Background()); err != nil {
		return actionResultMsg{name: "reset-records", err: err}
	}
	return actionResultMsg{name: "reset-records", flash: fmt.Sprintf("Removed %s", formatter.Plural(n, "record"))}
}

// applyExport writes an export file into the app's export directory.
func applyExport(app *App, formatName string) tea.Msg {
	f, err := export.ParseFormat(formatName)
	if err != nil {
		return actionResultMsg{name: "export", err: err}
	}
	path := filepath.Join(app.ExportDir, export.FileName(f, app.now()))
	n, err := exportToFile(app, path, f)
	if err != nil {
		return actionResultMsg{name: "export", err: err}
	}
	return actionResultMsg{name: "export", flash: fmt.Sprintf("Exported %s to %s", formatter.Plural(n, "record"), path)}
}

// applyDiscardAndRetry drops the incomplete entry and reruns the step the
// guard blocked.
func applyDiscardAndRetry(app *App, name string, retry service.Transition, confirmed bool) tea.Msg {
	if !confirmed {
		return actionResultMsg{name: name, flash: "Kept the readings"}
	}
	err := app.Field.Apply(context.Background(), name, func(m *navigation.Machine) (navigation.Effects, error) {
		m.DiscardEntry()
		return retry(m)
	})
	if err != nil {
		return actionResultMsg{name: name, err: err}
	}
	return actionResultMsg{name: name, flash: "Readings discarded"}
}

func isIncompleteEntry(err error) (*navigation.IncompleteEntryError, bool) {
	var inc *navigation.IncompleteEntryError
	ok := errors.As(err, &inc)
	return inc, ok
}
