package domain

// Threshold is the tolerance band for one category, in micrometres.
// The band runs from TargetValue*LowerPercent/100 to TargetValue*UpperPercent/100.
type Threshold struct {
	Category     Category `json:"category" yaml:"-"`
	TargetValue  float64  `json:"targetValue" yaml:"target"`
	LowerPercent float64  `json:"lowerPercent" yaml:"lower"`
	UpperPercent float64  `json:"upperPercent" yaml:"upper"`
}

func (t Threshold) LowerLimit() float64 { return t.TargetValue * t.LowerPercent / 100 }
func (t Threshold) UpperLimit() float64 { return t.TargetValue * t.UpperPercent / 100 }

// Judge compares an average against the band. Averages of zero or less mean
// nothing has been entered yet.
func (t Threshold) Judge(avg float64) Judgement {
	switch {
	case avg <= 0:
		return JudgementNone
	case avg < t.LowerLimit():
		return JudgementLow
	case avg > t.UpperLimit():
		return JudgementHigh
	default:
		return JudgementOK
	}
}

// ThresholdTable holds one threshold per category.
type ThresholdTable map[Category]Threshold

// DefaultThresholds returns the standard bands for the four categories.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		CategoryGeneral: {Category: CategoryGeneral, TargetValue: 250, LowerPercent: 70, UpperPercent: 130},
		CategoryExtra:   {Category: CategoryExtra, TargetValue: 310, LowerPercent: 70, UpperPercent: 130},
		CategorySpecial: {Category: CategorySpecial, TargetValue: 490, LowerPercent: 70, UpperPercent: 130},
		CategorySplice:  {Category: CategorySplice, TargetValue: 300, LowerPercent: 70, UpperPercent: 130},
	}
}

// For returns the threshold for c, falling back to the general band.
func (t ThresholdTable) For(c Category) Threshold {
	if th, ok := t[c]; ok {
		return th
	}
	if th, ok := t[CategoryGeneral]; ok {
		return th
	}
	return DefaultThresholds()[CategoryGeneral]
}

// Merge returns a copy of t with the given overrides applied. Overrides with
// a non-positive target are ignored.
func (t ThresholdTable) Merge(overrides map[Category]Threshold) ThresholdTable {
	out := make(ThresholdTable, len(t))
	for c, th := range t {
		out[c] = th
	}
	for c, th := range overrides {
		if !c.Valid() || th.TargetValue <= 0 {
			continue
		}
		th.Category = c
		out[c] = th
	}
	return out
}
