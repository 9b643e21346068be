package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/export"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// dftlogHuhTheme returns a custom huh theme using the Gruvbox palette.
func dftlogHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorGreen).SetString("[✔] ")
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorDim).SetString("[ ] ")
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// requiredText rejects blank input.
func requiredText(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateInstruments(selected []string) error {
	if len(selected) == 0 {
		return domain.ErrNoInstruments
	}
	return nil
}

// newSetupForm builds the session form: site, operator, instrument label
// and the instruments in use.
func newSetupForm(sites []catalog.Site, f *setupFields) *huh.Form {
	siteOptions := make([]huh.Option[string], 0, len(sites))
	for _, s := range sites {
		siteOptions = append(siteOptions, huh.NewOption(fmt.Sprintf("%s (%s)", s.Name, s.ID), s.ID))
	}
	if f.SiteID == "" && len(sites) > 0 {
		f.SiteID = sites[0].ID
	}

	instrumentOptions := make([]huh.Option[string], 0, len(domain.Instruments))
	for _, name := range domain.Instruments {
		opt := huh.NewOption(name, name)
		for _, sel := range f.Instruments {
			if sel == name {
				opt = opt.Selected(true)
			}
		}
		instrumentOptions = append(instrumentOptions, opt)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Site").
				Options(siteOptions...).
				Value(&f.SiteID),
			huh.NewInput().
				Title("Operator").
				Placeholder("name").
				Value(&f.Operator).
				Validate(requiredText("operator name")),
			huh.NewInput().
				Title("Instrument label").
				Description("Printed on records, e.g. the gauge serial").
				Placeholder("gauge #1").
				Value(&f.Label).
				Validate(requiredText("instrument label")),
			huh.NewMultiSelect[string]().
				Title("Instruments in use").
				Description("Each point is complete once measured with every instrument").
				Options(instrumentOptions...).
				Value(&f.Instruments).
				Validate(validateInstruments),
		),
	).WithTheme(dftlogHuhTheme()).WithShowHelp(false)
}

// wizardSelectInstrument creates a huh form to pick a catalog instrument.
func wizardSelectInstrument(title string, result *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(domain.Instruments))
	for _, name := range domain.Instruments {
		options = append(options, huh.NewOption(name, name))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(result),
		),
	).WithTheme(dftlogHuhTheme()).WithShowHelp(false)
}

// wizardSelectFormat creates a huh form to choose an export format.
func wizardSelectFormat(result *string) *huh.Form {
	if *result == "" {
		*result = string(export.FormatCSV)
	}
	labels := map[export.Format]string{
		export.FormatCSV:  "CSV (spreadsheet, UTF-8)",
		export.FormatJSON: "JSON (backup)",
		export.FormatXLSX: "Excel workbook",
		export.FormatPDF:  "PDF inspection report",
	}
	options := make([]huh.Option[string], 0, len(export.Formats))
	for _, f := range export.Formats {
		options = append(options, huh.NewOption(labels[f], string(f)))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Export format").
				Options(options...).
				Value(result),
		),
	).WithTheme(dftlogHuhTheme()).WithShowHelp(false)
}

// wizardConfirm creates a huh form for a yes/no confirmation.
func wizardConfirm(title, description string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(dftlogHuhTheme()).WithShowHelp(false)
}
