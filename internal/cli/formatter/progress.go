package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
	gaugeMark   = "┃"
)

// RenderProgress renders a progress bar like [████░░░░] 45%.
// The bar is colored based on percentage: green >66%, yellow 33-66%, red <33%.
func RenderProgress(pct float64, width int) string {
	pct = clamp01(pct)
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// RenderCount renders "done/total" with a progress bar.
func RenderCount(done, total, width int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	return fmt.Sprintf("%d/%d %s", done, total, RenderProgress(pct, width))
}

// RenderGauge draws the live average on a scale from zero to twice the
// target. The band between the lower and upper limits is drawn solid and
// the average is marked with a bar colored by its judgement.
func RenderGauge(avg float64, th domain.Threshold, width int) string {
	if width < 10 {
		width = 10
	}
	span := th.TargetValue * 2
	if span <= 0 {
		return Dim(strings.Repeat(emptyBlock, width))
	}
	pos := func(v float64) int {
		i := int(clamp01(v/span) * float64(width-1))
		return i
	}
	lo, hi := pos(th.LowerLimit()), pos(th.UpperLimit())
	j := th.Judge(avg)

	var b strings.Builder
	mark := -1
	if j != domain.JudgementNone {
		mark = pos(avg)
	}
	for i := 0; i < width; i++ {
		switch {
		case i == mark:
			b.WriteString(JudgementStyle(j).Render(gaugeMark))
		case i >= lo && i <= hi:
			b.WriteString(StyleGreen.Render(filledBlock))
		default:
			b.WriteString(StyleDim.Render(emptyBlock))
		}
	}
	return b.String()
}

// BandLabel describes a tolerance band, e.g. "target 250µm (175-325)".
func BandLabel(th domain.Threshold) string {
	return fmt.Sprintf("target %sµm (%s-%s)",
		FormatAverage(th.TargetValue), FormatAverage(th.LowerLimit()), FormatAverage(th.UpperLimit()))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
