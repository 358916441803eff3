package model

import "whencal/internal/datecalc"

// Label values for items relative to today.
const (
	LabelToday     = "today"
	LabelYesterday = "yesterday"
	LabelTomorrow  = "tomorrow"
)

// Item is a single calendar entry falling on a concrete date within the
// reporting window. An entry whose expression matches several dates in the
// window produces one Item per date.
type Item struct {
	Date datecalc.Date `json:"-"`

	// Label is one of the Label constants or empty.
	Label string `json:"label,omitempty"`

	Description string `json:"description"`

	// Expr is the entry's expression as written in the calendar file.
	Expr string `json:"expr"`

	// Line is the 1-based line number in the calendar file.
	Line int `json:"line"`
}

// LabelFor returns the label for date relative to today.
func LabelFor(date, today datecalc.Date) string {
	switch today.DaysUntil(date) {
	case 0:
		return LabelToday
	case -1:
		return LabelYesterday
	case 1:
		return LabelTomorrow
	}
	return ""
}
