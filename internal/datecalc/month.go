package datecalc

import "strings"

var monthNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ResolveMonth returns the month number (1-12) of the only English month
// name that has s as a case-insensitive prefix. It fails for an empty s and
// for prefixes shared by more than one month such as "j", "ju" or "ma".
func ResolveMonth(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	lc := strings.ToLower(s)
	found := 0
	for i, name := range monthNames {
		if strings.HasPrefix(name, lc) {
			if found != 0 {
				return 0, false
			}
			found = i + 1
		}
	}
	return found, found != 0
}

// MonthAbbrev returns the three letter English abbreviation of month, eg.
// "Jan", or "" if month is out of range.
func MonthAbbrev(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	n := monthNames[month-1]
	return strings.ToUpper(n[:1]) + n[1:3]
}
