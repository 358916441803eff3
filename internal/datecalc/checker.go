package datecalc

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberMatch constrains one numeric date field: it either matches any
// value or exactly one value.
type NumberMatch struct {
	exact bool
	n     uint64
}

// Wildcard returns a NumberMatch that matches every value.
func Wildcard() NumberMatch {
	return NumberMatch{}
}

// Exactly returns a NumberMatch that matches only n.
func Exactly(n uint64) NumberMatch {
	return NumberMatch{exact: true, n: n}
}

// IsWildcard reports whether m matches every value.
func (m NumberMatch) IsWildcard() bool {
	return !m.exact
}

// Value returns the exact value and true, or 0 and false for a wildcard.
func (m NumberMatch) Value() (uint64, bool) {
	return m.n, m.exact
}

// Matches reports whether v satisfies m.
func (m NumberMatch) Matches(v int) bool {
	if !m.exact {
		return true
	}
	return v >= 0 && uint64(v) == m.n
}

func (m NumberMatch) String() string {
	if !m.exact {
		return "*"
	}
	return strconv.FormatUint(m.n, 10)
}

// TermKind identifies the date field a conjunctive term tests.
type TermKind int

const (
	Weekday     TermKind = iota + 1 // w: 1=Monday..7=Sunday
	Month                           // m
	DayOfMonth                      // d
	Year                            // y
	WeekOfMonth                     // a: 1 for days 1-7, 2 for 8-14, ...
	DayOfYear                       // z
)

var termKeys = map[string]TermKind{
	"w": Weekday,
	"m": Month,
	"d": DayOfMonth,
	"y": Year,
	"a": WeekOfMonth,
	"z": DayOfYear,
}

// Key returns the single letter used for k in expressions.
func (k TermKind) Key() string {
	switch k {
	case Weekday:
		return "w"
	case Month:
		return "m"
	case DayOfMonth:
		return "d"
	case Year:
		return "y"
	case WeekOfMonth:
		return "a"
	case DayOfYear:
		return "z"
	}
	return "?"
}

// Term is a single key=value test in a conjunctive expression.
type Term struct {
	Kind  TermKind
	Value uint64
}

func (t Term) field(d Date) int {
	switch t.Kind {
	case Weekday:
		return d.Weekday()
	case Month:
		return d.Month()
	case DayOfMonth:
		return d.Day()
	case Year:
		return d.Year()
	case WeekOfMonth:
		return d.WeekOfMonth()
	case DayOfYear:
		return d.YearDay()
	}
	return -1
}

// Matches reports whether d satisfies t.
func (t Term) Matches(d Date) bool {
	return Exactly(t.Value).Matches(t.field(d))
}

func (t Term) String() string {
	return t.Kind.Key() + "=" + strconv.FormatUint(t.Value, 10)
}

// Checker is the parsed form of a date expression. The set of
// implementations is closed: Positional and Conjunctive.
type Checker interface {
	fmt.Stringer
	checker()
}

// Positional matches dates by year, month and day, each of which may be
// a wildcard.
type Positional struct {
	Year  NumberMatch
	Month NumberMatch
	Day   NumberMatch
}

func (Positional) checker() {}

func (p Positional) String() string {
	month := p.Month.String()
	if n, ok := p.Month.Value(); ok && n >= 1 && n <= 12 {
		month = MonthAbbrev(int(n))
	}
	return p.Year.String() + " " + month + " " + p.Day.String()
}

// Conjunctive matches dates that satisfy all of its terms. An empty
// Conjunctive matches every date.
type Conjunctive struct {
	terms []Term
}

// NewConjunctive returns a Conjunctive over a copy of terms.
func NewConjunctive(terms ...Term) Conjunctive {
	return Conjunctive{terms: append([]Term(nil), terms...)}
}

func (Conjunctive) checker() {}

// Terms returns a copy of the terms in parse order.
func (c Conjunctive) Terms() []Term {
	return append([]Term(nil), c.terms...)
}

func (c Conjunctive) String() string {
	parts := make([]string, len(c.terms))
	for i, t := range c.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " & ")
}

// CheckDate reports whether d satisfies c.
func CheckDate(c Checker, d Date) bool {
	switch c := c.(type) {
	case Positional:
		return c.Year.Matches(d.Year()) &&
			c.Month.Matches(d.Month()) &&
			c.Day.Matches(d.Day())
	case Conjunctive:
		for _, t := range c.terms {
			if !t.Matches(d) {
				return false
			}
		}
		return true
	}
	return false
}
