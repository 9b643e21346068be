package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/service"
)

const statusProgressBarWidth = 20

// FormatSession renders the session configuration.
func FormatSession(cfg domain.SessionConfig) string {
	if cfg.SiteID == "" && cfg.Operator == "" {
		return Dim("No session configured. Run 'dftlog session start'.") + "\n"
	}
	var b strings.Builder
	site := cfg.SiteName
	if site == "" {
		site = cfg.SiteID
	}
	fmt.Fprintf(&b, "%s  %s %s\n", Dim("Site:       "), Bold(site), Dim("("+cfg.SiteID+")"))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Operator:   "), cfg.Operator)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Label:      "), cfg.PrimaryInstrument)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Instruments:"), strings.Join(cfg.SelectedInstruments, ", "))
	return b.String()
}

// FormatStatus renders the session overview printed by 'dftlog status'.
func FormatStatus(st service.Status) string {
	var b strings.Builder
	b.WriteString(Header("Session"))
	b.WriteString("\n")
	b.WriteString(FormatSession(st.Session))
	b.WriteString("\n")

	b.WriteString(Header("Progress"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n", Dim("Complete:   "), RenderCount(st.FullyMeasured, st.TotalPoints, statusProgressBarWidth))
	fmt.Fprintf(&b, "%s  %d\n", Dim("Records:    "), st.Records)

	unsynced := StyleGreen.Render("0")
	if st.Unsynced > 0 {
		unsynced = StyleYellow.Render(fmt.Sprintf("%d", st.Unsynced))
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("Unsynced:   "), unsynced)
	if st.SyncBusy {
		b.WriteString(Dim("Sync in progress…") + "\n")
	}
	return b.String()
}
