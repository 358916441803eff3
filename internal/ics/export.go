// Package ics converts between calendar entries and iCalendar data.
package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"whencal/internal/calfile"
	"whencal/internal/datecalc"
	appLog "whencal/internal/log"
	"whencal/internal/report"
)

const productID = "-//whencal//whencal//EN"

// uidNamespace scopes the name-based UUIDs used as VEVENT UIDs so that
// re-exporting an unchanged calendar produces the same UIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://whencal/vevent"))

// ExportOptions controls Export.
type ExportOptions struct {
	// Window bounds the dates that are exported.
	Window report.Window

	// Recurring, if set, exports entries that have an equivalent
	// recurrence rule as a single recurring event starting at their first
	// match in the window. Other entries, and all entries when Recurring
	// is not set, are exported as one all-day event per match.
	Recurring bool

	// Now is used for DTSTAMP.
	Now time.Time
}

// Export returns a calendar containing the entries' matches within the
// window.
func Export(entries []calfile.Entry, opts ExportOptions) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	now := opts.Now.UTC()
	events := 0
	for _, e := range entries {
		if opts.Recurring {
			if rule, ok := RuleFor(e.Checker); ok {
				first, found := datecalc.FirstMatch(e.Checker, opts.Window.From, opts.Window.To)
				if !found {
					continue
				}
				ev := addEvent(cal, e, first, now)
				ev.AddProperty(ical.ComponentPropertyRrule, rule.String())
				events++
				continue
			}
		}
		for _, d := range datecalc.CheckRange(e.Checker, opts.Window.From, opts.Window.To) {
			addEvent(cal, e, d, now)
			events++
		}
	}
	appLog.Info("ics export", "window", opts.Window.String(), "entries", len(entries), "events", events)
	return cal
}

// Write serializes cal to w.
func Write(w io.Writer, cal *ical.Calendar) error {
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// EventUID returns the UID used for entry e's event starting on d.
func EventUID(e calfile.Entry, d datecalc.Date) string {
	name := e.Expr + "\x00" + e.Description + "\x00" + d.String()
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@whencal"
}

func addEvent(cal *ical.Calendar, e calfile.Entry, d datecalc.Date, now time.Time) *ical.VEvent {
	ev := cal.AddEvent(EventUID(e, d))
	ev.SetDtStampTime(now)
	ev.SetSummary(e.Description)
	ev.SetDescription(e.Expr)
	ev.SetAllDayStartAt(d.Time())
	ev.SetAllDayEndAt(d.AddDays(1).Time())
	return ev
}
