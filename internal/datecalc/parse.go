package datecalc

import (
	"strconv"
	"strings"
)

// Parse parses a date expression. An expression that contains neither '='
// nor '&' is positional:
//
//	<year|*> <month> <day|*>
//
// where month is a number or an unambiguous prefix of an English month
// name. Any other expression is a conjunction of key=value terms separated
// by '&':
//
//	m=jan & w=1 & a=3
//
// with keys w (weekday, 1=Monday), m (month, number or name), d (day of
// month), y (year), a (week of month) and z (day of year). Values are not
// range checked, so d=99 is legal and never matches.
func Parse(expr string) (Checker, error) {
	s := strings.TrimSpace(expr)
	if !strings.ContainsAny(s, "=&") {
		return parsePositional(expr, s)
	}
	return parseConjunctive(expr, s)
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) Checker {
	c, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func parsePositional(expr, s string) (Checker, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return nil, newParseError(expr, BadShape, "expected <year> <month> <day>, got %d fields", len(fields))
	}
	year, ok := parseNumberMatch(fields[0])
	if !ok {
		return nil, newParseError(expr, BadYear, "%q is neither * nor a number", fields[0])
	}
	month, ok := parseMonthValue(fields[1])
	if !ok {
		return nil, newParseError(expr, BadMonth, "%q is not a month", fields[1])
	}
	day, ok := parseNumberMatch(fields[2])
	if !ok {
		return nil, newParseError(expr, BadDay, "%q is neither * nor a number", fields[2])
	}
	return Positional{Year: year, Month: Exactly(month), Day: day}, nil
}

func parseConjunctive(expr, s string) (Checker, error) {
	tokens := tokenize(s)
	if len(tokens)%2 == 0 {
		return nil, newParseError(expr, BadShape, "terms must be separated by a single &")
	}
	terms := make([]Term, 0, len(tokens)/2+1)
	for i, tok := range tokens {
		if i%2 == 1 {
			if tok != "&" {
				return nil, newParseError(expr, BadShape, "expected & before %q", tok)
			}
			continue
		}
		t, err := parseTerm(expr, tok)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return Conjunctive{terms: terms}, nil
}

// tokenize splits s on whitespace and makes every '&' a token of its own so
// that "m=6&d=17" and "m=6 & d=17" are equivalent.
func tokenize(s string) []string {
	var tokens []string
	for _, f := range strings.Fields(s) {
		for {
			i := strings.IndexByte(f, '&')
			if i < 0 {
				break
			}
			if i > 0 {
				tokens = append(tokens, f[:i])
			}
			tokens = append(tokens, "&")
			f = f[i+1:]
		}
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func parseTerm(expr, tok string) (Term, error) {
	parts := strings.Split(tok, "=")
	if len(parts) != 2 {
		return Term{}, newParseError(expr, BadTerm, "%q is not of the form key=value", tok)
	}
	key, value := parts[0], parts[1]
	kind, ok := termKeys[key]
	if !ok {
		return Term{}, newParseError(expr, UnknownKey, "%q", key)
	}
	if kind == Month {
		n, ok := parseMonthValue(value)
		if !ok {
			return Term{}, newParseError(expr, BadValue, "%q is not a month", value)
		}
		return Term{Kind: Month, Value: n}, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return Term{}, newParseError(expr, BadValue, "%s=%q is not a number", key, value)
	}
	return Term{Kind: kind, Value: n}, nil
}

func parseNumberMatch(s string) (NumberMatch, bool) {
	if s == "*" {
		return Wildcard(), true
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NumberMatch{}, false
	}
	return Exactly(n), true
}

// parseMonthValue accepts a number or a month name prefix.
func parseMonthValue(s string) (uint64, bool) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, true
	}
	m, ok := ResolveMonth(s)
	return uint64(m), ok
}
