package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"whencal/internal/datecalc"
	appLog "whencal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 500

// ParsedEvent is the part of a VEVENT that import uses.
type ParsedEvent struct {
	UID     string
	Summary string
	Start   datecalc.Date

	RawRRule string
	ExDates  []datecalc.Date
}

// ImportOptions controls Import.
type ImportOptions struct {
	// From and To bound the expansion of recurrence rules that have no
	// equivalent date expression.
	From datecalc.Date
	To   datecalc.Date

	// MaxOccurrencesPerEvent caps such expansions. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// Import converts the events in an iCalendar payload into calendar lines.
// Events that cannot be parsed are logged and skipped.
func Import(r io.Reader, opts ImportOptions) ([]string, error) {
	events, err := ParseICS(r)
	if err != nil {
		return nil, err
	}
	if opts.MaxOccurrencesPerEvent <= 0 {
		opts.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	var lines []string
	for _, ev := range events {
		exprs, err := Expressions(ev, opts)
		if err != nil {
			appLog.Warn("ics import: event skipped", "uid", ev.UID, "err", err)
			continue
		}
		for _, expr := range exprs {
			lines = append(lines, expr+","+ev.Summary)
		}
	}
	appLog.Info("ics import completed", "event_count", len(events), "line_count", len(lines))
	return lines, nil
}

// ParseICS parses the VEVENTs in an iCalendar payload.
func ParseICS(r io.Reader) ([]ParsedEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics parse failed: %w", err)
	}
	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics vevent parse failed", "err", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.Join(strings.Fields(textUnescaper.Replace(p.Value)), " ")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	if isAllDay(dtStart) {
		d, err := parseICSDate(dtStart.Value)
		if err != nil {
			return out, err
		}
		out.Start = d
	} else {
		// The library resolves TZID; the civil date is taken in the local zone.
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = datecalc.FromTime(start.In(time.Local))
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if d, err := parseICSDate(part); err == nil {
				out.ExDates = append(out.ExDates, d)
			}
		}
	}
	return out, nil
}

// textUnescaper undoes RFC 5545 TEXT escaping; newlines become spaces
// since a calendar line cannot hold them.
var textUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, ",", `\;`, ";", `\n`, " ", `\N`, " ")

// isAllDay reports whether DTSTART has VALUE=DATE or a YYYYMMDD value.
func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSDate returns the date part of an ICS DATE or DATE-TIME value.
func parseICSDate(v string) (datecalc.Date, error) {
	v = strings.TrimSpace(v)
	if len(v) < 8 {
		return datecalc.Date{}, fmt.Errorf("invalid ICS date %q", v)
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return datecalc.Date{}, err
	}
	return datecalc.FromTime(t), nil
}

// Expressions returns the date expressions for ev. Simple yearly, monthly
// and weekly rules that have already started by opts.From become a single
// recurring expression, since expressions cannot carry a start date. Any
// other rule is expanded into one concrete date per occurrence within
// [opts.From, opts.To].
func Expressions(ev ParsedEvent, opts ImportOptions) ([]string, error) {
	if ev.RawRRule == "" {
		return []string{literal(ev.Start)}, nil
	}
	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE %q: %w", ev.RawRRule, err)
	}
	started := opts.From.IsZero() || !ev.Start.After(opts.From)
	if len(ev.ExDates) == 0 && started {
		if expr, ok := simpleExpression(opt, ev.Start); ok {
			return []string{expr}, nil
		}
	}
	return expandRule(ev, opt, opts)
}

func literal(d datecalc.Date) string {
	return fmt.Sprintf("%d %s %d", d.Year(), datecalc.MonthAbbrev(d.Month()), d.Day())
}

// simpleExpression maps an unbounded rule with at most one BYMONTH,
// BYMONTHDAY or BYDAY value onto a date expression.
func simpleExpression(opt *rrule.ROption, start datecalc.Date) (string, bool) {
	if opt.Interval > 1 || opt.Count != 0 || !opt.Until.IsZero() ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Bysetpos) > 0 ||
		len(opt.Bymonth) > 1 || len(opt.Bymonthday) > 1 || len(opt.Byweekday) > 1 {
		return "", false
	}
	switch opt.Freq {
	case rrule.YEARLY:
		if len(opt.Byweekday) > 0 {
			return "", false
		}
		month, day := start.Month(), start.Day()
		if len(opt.Bymonth) == 1 {
			month = opt.Bymonth[0]
		}
		if len(opt.Bymonthday) == 1 {
			day = opt.Bymonthday[0]
		}
		if day < 1 {
			return "", false
		}
		return fmt.Sprintf("* %s %d", datecalc.MonthAbbrev(month), day), true
	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonth) > 0 {
			return "", false
		}
		day := start.Day()
		if len(opt.Bymonthday) == 1 {
			day = opt.Bymonthday[0]
		}
		if day < 1 {
			return "", false
		}
		return fmt.Sprintf("d=%d", day), true
	case rrule.WEEKLY:
		if len(opt.Bymonthday) > 0 || len(opt.Bymonth) > 0 {
			return "", false
		}
		wd := start.Weekday()
		if len(opt.Byweekday) == 1 {
			if opt.Byweekday[0].N() != 0 {
				return "", false
			}
			wd = opt.Byweekday[0].Day() + 1
		}
		return fmt.Sprintf("w=%d", wd), true
	}
	return "", false
}

func expandRule(ev ParsedEvent, opt *rrule.ROption, opts ImportOptions) ([]string, error) {
	if opts.To.Before(opts.From) || opts.From.IsZero() {
		return nil, errors.New("expand: no valid import range")
	}
	opt.Dtstart = ev.Start.Time()
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.Time())
	}
	occ := set.Between(opts.From.Time(), opts.To.Time(), true)
	if len(occ) > opts.MaxOccurrencesPerEvent {
		appLog.Warn("ics import: truncated occurrences", "uid", ev.UID, "cap", opts.MaxOccurrencesPerEvent)
		occ = occ[:opts.MaxOccurrencesPerEvent]
	}
	exprs := make([]string, 0, len(occ))
	for _, t := range occ {
		exprs = append(exprs, literal(datecalc.FromTime(t)))
	}
	return exprs, nil
}
