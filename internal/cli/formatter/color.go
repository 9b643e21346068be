package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)

	// StyleHighlight marks the row the operator last worked on.
	StyleHighlight = lipgloss.NewStyle().Foreground(ColorFg).Background(lipgloss.Color("#3c3836"))
)

// JudgementStyle colors an average by how it compares to its band.
func JudgementStyle(j domain.Judgement) lipgloss.Style {
	switch j {
	case domain.JudgementOK:
		return StyleGreen
	case domain.JudgementLow:
		return StyleYellow
	case domain.JudgementHigh:
		return StyleRed
	default:
		return StyleDim
	}
}

// JudgementIndicator returns a colored label such as "● OK".
func JudgementIndicator(j domain.Judgement) string {
	switch j {
	case domain.JudgementOK:
		return StyleGreen.Render("● OK")
	case domain.JudgementLow:
		return StyleYellow.Render("▼ LOW")
	case domain.JudgementHigh:
		return StyleRed.Render("▲ HIGH")
	default:
		return StyleDim.Render("○ --")
	}
}

var categoryStyles = map[domain.Category]lipgloss.Style{
	domain.CategoryGeneral: StyleBlue,
	domain.CategoryExtra:   StylePurple,
	domain.CategorySpecial: StyleYellow,
	domain.CategorySplice:  StyleGreen,
}

// CategoryBadge renders a category label in its own color.
func CategoryBadge(c domain.Category) string {
	style, ok := categoryStyles[c]
	if !ok {
		style = StyleDim
	}
	return style.Render("[" + c.Label() + "]")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// ErrorLine renders an error for the flash line.
func ErrorLine(err error) string {
	return StyleRed.Render("✖ " + err.Error())
}

// OKLine renders a confirmation for the flash line.
func OKLine(text string) string {
	return StyleGreen.Render("✔ " + text)
}
