package domain

// Category classifies a measurement point by the coating specification that
// applies to it. Each category has its own tolerance band.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryExtra   Category = "extra"
	CategorySpecial Category = "special"
	CategorySplice  Category = "splice"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryGeneral, CategoryExtra, CategorySpecial, CategorySplice}

var categoryLabels = map[Category]string{
	CategoryGeneral: "General",
	CategoryExtra:   "Extra coat",
	CategorySpecial: "Special",
	CategorySplice:  "Splice plate",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable category name used in exports and the UI.
// Unknown categories are returned verbatim.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory maps raw text to a Category, falling back to general for
// empty or unrecognised input.
func ParseCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryGeneral
}

// Judgement is the outcome of comparing an average reading to a tolerance band.
type Judgement string

const (
	JudgementNone Judgement = "none"
	JudgementLow  Judgement = "low"
	JudgementOK   Judgement = "ok"
	JudgementHigh Judgement = "high"
)

// Instruments is the fixed catalog of gauges that can be selected for a
// session and tracked for completion.
var Instruments = []string{"Pro-W", "LZ990", "Elcometer"}

// IsKnownInstrument reports whether name is part of the instrument catalog.
func IsKnownInstrument(name string) bool {
	for _, in := range Instruments {
		if in == name {
			return true
		}
	}
	return false
}
