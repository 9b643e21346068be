package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/completion"
	"github.com/alexanderramin/dftlog/internal/domain"
)

// FormatSites lists the registry.
func FormatSites(sites []catalog.Site) string {
	if len(sites) == 0 {
		return Dim("No sites configured.") + "\n"
	}
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		file := s.File
		if file == "" {
			file = Dim("built-in")
		}
		overrides := Dim("--")
		if len(s.Thresholds) > 0 {
			overrides = Plural(len(s.Thresholds), "override")
		}
		rows = append(rows, []string{StyleBlue.Render(s.ID), Bold(s.Name), file, overrides})
	}
	return RenderTable([]string{"ID", "NAME", "ROUTE FILE", "THRESHOLDS"}, rows)
}

// CompletionBadge renders "n/total" in green once every instrument is in.
func CompletionBadge(st completion.PointStatus) string {
	text := fmt.Sprintf("%d/%d", len(st.Measured), st.Total)
	switch {
	case st.Complete:
		return StyleGreen.Render(text + " ✔")
	case len(st.Measured) > 0:
		return StyleYellow.Render(text)
	default:
		return Dim(text)
	}
}

// AdditionalBadge renders "+n" for extra measurements, or nothing.
func AdditionalBadge(n int) string {
	if n <= 0 {
		return ""
	}
	return StylePurple.Render(fmt.Sprintf("+%d", n))
}

// FormatPoints lists the catalog with per-point completion for the
// session's operator.
func FormatPoints(points []domain.PointDefinition, ev *completion.Evaluator) string {
	if len(points) == 0 {
		return Dim("No points loaded.") + "\n"
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		st := ev.PointStatus(p.ID)
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.RouteOrder),
			StyleBlue.Render(p.ID),
			Bold(p.Name),
			CategoryBadge(p.Category),
			CompletionBadge(st),
			strings.Join(st.Measured, ", "),
			AdditionalBadge(ev.AdditionalCount(p.ID)),
		})
	}
	return RenderTable([]string{"#", "ID", "NAME", "CATEGORY", "DONE", "MEASURED WITH", "EXTRA"}, rows)
}
