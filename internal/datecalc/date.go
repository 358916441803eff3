// Package datecalc implements the calendar date expression language: a
// civil date type, the expression parser and the matcher that evaluates
// parsed expressions against single dates and inclusive date ranges.
package datecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// unixEpochOrdinal is the ordinal (days since 0001-01-01, which is day 1)
// of 1970-01-01.
const unixEpochOrdinal = 719163

const secondsPerDay = 24 * 60 * 60

// Date is a proleptic Gregorian civil date with no time of day and no
// location. The zero value is not a valid date; use NewDate, FromTime or
// ParseDate. Dates are comparable with == and safe to use as map keys.
type Date struct {
	year  int
	month int
	day   int
}

// NewDate returns the date year-month-day, or an error if month or day are
// out of range for the given year.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("invalid month: %d", month)
	}
	if day < 1 || day > int(datetime.DaysInMonth(year, datetime.Month(month))) {
		return Date{}, fmt.Errorf("invalid day for %04d-%02d: %d", year, month, day)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustDate is like NewDate but panics on an invalid date. It is intended
// for literals.
func MustDate(year, month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the civil date of t in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: int(m), day: d}
}

// Today returns the current local civil date.
func Today() Date {
	return FromTime(time.Now())
}

// ParseDate parses "<year> <month> <day>" where month is either a number or
// an unambiguous, case-insensitive prefix of an English month name, eg.
// "2021 Jan 9" or "2021 1 9".
func ParseDate(text string) (Date, bool) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return Date{}, false
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return Date{}, false
	}
	month, ok := ResolveMonth(fields[1])
	if !ok {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Date{}, false
		}
		month = n
	}
	day, err := strconv.Atoi(fields[2])
	if err != nil {
		return Date{}, false
	}
	d, err := NewDate(year, month, day)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

func (d Date) Year() int  { return d.year }
func (d Date) Month() int { return d.month }
func (d Date) Day() int   { return d.day }

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.year, time.Month(d.month), d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d; n may be negative.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Weekday returns the ISO day of the week, 1 for Monday through 7 for Sunday.
func (d Date) Weekday() int {
	wd := int(d.Time().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// YearDay returns the 1-based day of the year.
func (d Date) YearDay() int {
	return d.Time().YearDay()
}

// WeekOfMonth returns 1 for days 1-7, 2 for days 8-14 and so on.
func (d Date) WeekOfMonth() int {
	return (d.day-1)/7 + 1
}

// Ordinal returns the number of days since the start of the common era,
// counting 0001-01-01 as day 1.
func (d Date) Ordinal() int {
	return int(floorDiv(d.Time().Unix(), secondsPerDay)) + unixEpochOrdinal
}

// DaysUntil returns the number of days from d to other, negative if other
// is earlier.
func (d Date) DaysUntil(other Date) int {
	return other.Ordinal() - d.Ordinal()
}

// Compare returns -1, 0 or +1 as d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(d.month, other.month)
	default:
		return cmpInt(d.day, other.day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool  { return d == other }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Format formats d using a time package layout.
func (d Date) Format(layout string) string {
	return d.Time().Format(layout)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
