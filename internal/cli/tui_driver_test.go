package cli

import (
	"testing"

	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/teatest"
)

// TestDriver wraps teatest.Driver with dftlog-specific inspection methods.
// It provides access to appModel internals (view stack, shared state,
// machine mode) that the generic driver can't see.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver creates a TestDriver from a test App.
// It constructs the appModel, sets terminal size, and drains Init().
func NewTestDriver(t *testing.T, app *App) *TestDriver {
	t.Helper()

	m := newAppModel(app)
	d := teatest.New(t, m, teatest.WithSize(120, 40))
	d.DrainInit()

	return &TestDriver{Driver: d}
}

// ── High-level helpers ───────────────────────────────────────────────────────

// Readings types each value followed by enter.
func (d *TestDriver) Readings(values ...string) {
	d.T.Helper()
	for _, v := range values {
		d.TypeEnter(v)
	}
}

// ── dftlog-specific inspection ───────────────────────────────────────────────

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

// ActiveViewID returns the ViewID of the top view on the stack.
func (d *TestDriver) ActiveViewID() ViewID {
	m := d.appModel()
	v := m.activeView()
	if v == nil {
		return ViewID(-1)
	}
	return v.ID()
}

// ActiveViewTitle returns the Title() of the top view on the stack.
func (d *TestDriver) ActiveViewTitle() string {
	m := d.appModel()
	v := m.activeView()
	if v == nil {
		return ""
	}
	return v.Title()
}

// ViewStackLen returns the number of views on the stack.
func (d *TestDriver) ViewStackLen() int {
	return len(d.appModel().viewStack)
}

// State returns the shared state for inspection.
func (d *TestDriver) State() *SharedState {
	return d.appModel().state
}

// Flash returns the flash line without styling.
func (d *TestDriver) Flash() string {
	return teatest.StripANSI(d.State().Flash)
}

// Mode returns the machine's current mode.
func (d *TestDriver) Mode() navigation.Mode {
	return d.State().Mode()
}

// EntryValues returns the readings typed for the current point.
func (d *TestDriver) EntryValues() []int {
	var values []int
	d.State().App.Field.View(func(m *navigation.Machine) { values = m.Entry().Values() })
	return values
}

// IsQuitting returns whether the app has signaled a quit.
func (d *TestDriver) IsQuitting() bool {
	return d.appModel().quitting || d.Quitting
}
