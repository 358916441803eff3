package datecalc

import "iter"

// Dates returns an iterator over every date in the closed interval
// [first, last] in ascending order. It yields nothing if first is after
// last.
func Dates(first, last Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if first.After(last) {
			return
		}
		n := first.DaysUntil(last)
		start := first.Time()
		for i := 0; i <= n; i++ {
			if !yield(FromTime(start.AddDate(0, 0, i))) {
				return
			}
		}
	}
}

// CheckRange returns, in ascending order, every date in the closed
// interval [first, last] that satisfies c. The result is empty if first is
// after last.
func CheckRange(c Checker, first, last Date) []Date {
	var out []Date
	for d := range Dates(first, last) {
		if CheckDate(c, d) {
			out = append(out, d)
		}
	}
	return out
}

// FirstMatch returns the earliest date in [first, last] that satisfies c.
func FirstMatch(c Checker, first, last Date) (Date, bool) {
	for d := range Dates(first, last) {
		if CheckDate(c, d) {
			return d, true
		}
	}
	return Date{}, false
}
