package ics

import (
	"github.com/teambition/rrule-go"

	"whencal/internal/datecalc"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// RuleFor returns the recurrence rule equivalent to c, if there is one.
// The rule has no DTSTART; callers anchor it at the first date that c
// matches. Checkers that pin a year, hold out of range values or combine a
// day of year with other terms have no equivalent rule.
func RuleFor(c datecalc.Checker) (*rrule.ROption, bool) {
	var opt *rrule.ROption
	switch c := c.(type) {
	case datecalc.Positional:
		opt = positionalRule(c)
	case datecalc.Conjunctive:
		opt = conjunctiveRule(c.Terms())
	}
	if opt == nil {
		return nil, false
	}
	if _, err := rrule.NewRRule(*opt); err != nil {
		return nil, false
	}
	return opt, true
}

func positionalRule(p datecalc.Positional) *rrule.ROption {
	month, ok := p.Month.Value()
	if !p.Year.IsWildcard() || !ok || month < 1 || month > 12 {
		return nil
	}
	if day, ok := p.Day.Value(); ok {
		if day < 1 || day > 31 {
			return nil
		}
		return &rrule.ROption{Freq: rrule.YEARLY, Bymonth: []int{int(month)}, Bymonthday: []int{int(day)}}
	}
	return &rrule.ROption{Freq: rrule.DAILY, Bymonth: []int{int(month)}}
}

// valueSet tracks the single value a term kind is constrained to; a
// repeated kind with a different value can never match.
type valueSet struct {
	set   bool
	value uint64
}

func (v *valueSet) add(n uint64) bool {
	if v.set && v.value != n {
		return false
	}
	v.set, v.value = true, n
	return true
}

func conjunctiveRule(terms []datecalc.Term) *rrule.ROption {
	if len(terms) == 0 {
		return &rrule.ROption{Freq: rrule.DAILY}
	}
	var w, m, d, a, z valueSet
	for _, t := range terms {
		var ok bool
		switch t.Kind {
		case datecalc.Weekday:
			ok = t.Value >= 1 && t.Value <= 7 && w.add(t.Value)
		case datecalc.Month:
			ok = t.Value >= 1 && t.Value <= 12 && m.add(t.Value)
		case datecalc.DayOfMonth:
			ok = t.Value >= 1 && t.Value <= 31 && d.add(t.Value)
		case datecalc.WeekOfMonth:
			ok = t.Value >= 1 && t.Value <= 5 && a.add(t.Value)
		case datecalc.DayOfYear:
			ok = t.Value >= 1 && t.Value <= 366 && z.add(t.Value)
		}
		if !ok {
			return nil
		}
	}
	if z.set {
		if w.set || m.set || d.set || a.set {
			return nil
		}
		return &rrule.ROption{Freq: rrule.YEARLY, Byyearday: []int{int(z.value)}}
	}
	opt := &rrule.ROption{Freq: rrule.DAILY}
	if w.set {
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[w.value-1]}
	}
	if m.set {
		opt.Bymonth = []int{int(m.value)}
	}
	switch {
	case d.set && a.set:
		if (d.value-1)/7+1 != a.value {
			return nil
		}
		opt.Bymonthday = []int{int(d.value)}
	case d.set:
		opt.Bymonthday = []int{int(d.value)}
	case a.set:
		for day := (a.value-1)*7 + 1; day <= a.value*7 && day <= 31; day++ {
			opt.Bymonthday = append(opt.Bymonthday, int(day))
		}
	}
	return opt
}
