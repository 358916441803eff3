// Package report selects the calendar entries that fall within a window
// around today and prints them.
package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"whencal/internal/calfile"
	"whencal/internal/datecalc"
	"whencal/internal/model"
)

// Window is the inclusive range of dates that a report covers.
type Window struct {
	From datecalc.Date
	To   datecalc.Date
}

// NewWindow returns the window [today+past, today+future]. past is
// normally negative.
func NewWindow(today datecalc.Date, past, future int) Window {
	return Window{From: today.AddDays(past), To: today.AddDays(future)}
}

func (w Window) String() string {
	return w.From.String() + ".." + w.To.String()
}

// Collect evaluates every entry over the window and returns one item per
// matching date, ordered by date and then by position in the calendar file.
func Collect(entries []calfile.Entry, w Window, today datecalc.Date) []model.Item {
	var items []model.Item
	for _, e := range entries {
		for _, d := range datecalc.CheckRange(e.Checker, w.From, w.To) {
			items = append(items, model.Item{
				Date:        d,
				Label:       model.LabelFor(d, today),
				Description: e.Description,
				Expr:        e.Expr,
				Line:        e.Line,
			})
		}
	}
	slices.SortStableFunc(items, func(a, b model.Item) int {
		return a.Date.Compare(b.Date)
	})
	return items
}

// Options controls Write.
type Options struct {
	// Header, if set, prints the current date and time before the items.
	Header bool
	// Now is used for the header.
	Now time.Time
}

// Write prints items, one per line, as
//
//	<label>    2021 Jun 17 <description>
func Write(w io.Writer, items []model.Item, opts Options) error {
	if opts.Header {
		if _, err := fmt.Fprintf(w, "%s\n\n", opts.Now.Format("Mon 2006 Jan _2 15:04")); err != nil {
			return err
		}
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%-10s %s %s\n", it.Label, it.Date.Format("2006 Jan _2"), it.Description); err != nil {
			return err
		}
	}
	return nil
}
