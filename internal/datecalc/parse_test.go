package datecalc_test

import (
	"errors"
	"reflect"
	"testing"

	"whencal/internal/datecalc"
)

func TestParsePositional(t *testing.T) {
	wild := datecalc.Wildcard()
	ex := datecalc.Exactly
	for _, tc := range []struct {
		expr string
		want datecalc.Positional
	}{
		{"1999 Jun 17", datecalc.Positional{Year: ex(1999), Month: ex(6), Day: ex(17)}},
		{"* jun 17", datecalc.Positional{Year: wild, Month: ex(6), Day: ex(17)}},
		{"* 6 *", datecalc.Positional{Year: wild, Month: ex(6), Day: wild}},
		{"  2021\tDECEMBER  25 ", datecalc.Positional{Year: ex(2021), Month: ex(12), Day: ex(25)}},
		{"2021 13 40", datecalc.Positional{Year: ex(2021), Month: ex(13), Day: ex(40)}},
	} {
		c, err := datecalc.Parse(tc.expr)
		if err != nil {
			t.Errorf("%q: %v", tc.expr, err)
			continue
		}
		if got, want := c, datecalc.Checker(tc.want); !reflect.DeepEqual(got, want) {
			t.Errorf("%q: got %#v, want %#v", tc.expr, got, want)
		}
	}
}

func TestParseConjunctive(t *testing.T) {
	for _, tc := range []struct {
		expr  string
		terms []datecalc.Term
	}{
		{"w=2", []datecalc.Term{{Kind: datecalc.Weekday, Value: 2}}},
		{"m=9 & w=2", []datecalc.Term{{Kind: datecalc.Month, Value: 9}, {Kind: datecalc.Weekday, Value: 2}}},
		{"m=sep&w=2", []datecalc.Term{{Kind: datecalc.Month, Value: 9}, {Kind: datecalc.Weekday, Value: 2}}},
		{"m=Jan & w=1 & a=3", []datecalc.Term{
			{Kind: datecalc.Month, Value: 1},
			{Kind: datecalc.Weekday, Value: 1},
			{Kind: datecalc.WeekOfMonth, Value: 3},
		}},
		{"y=2021 & z=32", []datecalc.Term{{Kind: datecalc.Year, Value: 2021}, {Kind: datecalc.DayOfYear, Value: 32}}},
		{"d=99", []datecalc.Term{{Kind: datecalc.DayOfMonth, Value: 99}}},
	} {
		c, err := datecalc.Parse(tc.expr)
		if err != nil {
			t.Errorf("%q: %v", tc.expr, err)
			continue
		}
		conj, ok := c.(datecalc.Conjunctive)
		if !ok {
			t.Errorf("%q: got %T, want datecalc.Conjunctive", tc.expr, c)
			continue
		}
		if got, want := conj.Terms(), tc.terms; !reflect.DeepEqual(got, want) {
			t.Errorf("%q: got %v, want %v", tc.expr, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		expr string
		kind datecalc.ErrorKind
		err  error
	}{
		{"", datecalc.BadShape, datecalc.ErrBadShape},
		{"1999 Jun", datecalc.BadShape, datecalc.ErrBadShape},
		{"1999 Jun 17 x", datecalc.BadShape, datecalc.ErrBadShape},
		{"w", datecalc.BadShape, datecalc.ErrBadShape},
		{"x Jun 17", datecalc.BadYear, datecalc.ErrBadYear},
		{"-1 Jun 17", datecalc.BadYear, datecalc.ErrBadYear},
		{"* * 17", datecalc.BadMonth, datecalc.ErrBadMonth},
		{"* Ju 17", datecalc.BadMonth, datecalc.ErrBadMonth},
		{"* Jun x", datecalc.BadDay, datecalc.ErrBadDay},
		{"w=2 &", datecalc.BadShape, datecalc.ErrBadShape},
		{"& w=2", datecalc.BadShape, datecalc.ErrBadShape},
		{"w=2 & & d=1", datecalc.BadShape, datecalc.ErrBadShape},
		{"w=2 d=1", datecalc.BadShape, datecalc.ErrBadShape},
		{"w=2 d=1 m=3", datecalc.BadShape, datecalc.ErrBadShape},
		{"w==2", datecalc.BadTerm, datecalc.ErrBadTerm},
		{"w=2 & m", datecalc.BadTerm, datecalc.ErrBadTerm},
		{"q=2", datecalc.UnknownKey, datecalc.ErrUnknownKey},
		{"=2", datecalc.UnknownKey, datecalc.ErrUnknownKey},
		{"w=x", datecalc.BadValue, datecalc.ErrBadValue},
		{"d=-1", datecalc.BadValue, datecalc.ErrBadValue},
		{"m=ju", datecalc.BadValue, datecalc.ErrBadValue},
		{"m=", datecalc.BadValue, datecalc.ErrBadValue},
	} {
		c, err := datecalc.Parse(tc.expr)
		if err == nil {
			t.Errorf("%q: expected an error, got %v", tc.expr, c)
			continue
		}
		var pe *datecalc.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: got %T, want *datecalc.ParseError", tc.expr, err)
			continue
		}
		if got, want := pe.Kind, tc.kind; got != want {
			t.Errorf("%q: got %v, want %v", tc.expr, got, want)
		}
		if !errors.Is(err, tc.err) {
			t.Errorf("%q: %v is not %v", tc.expr, err, tc.err)
		}
		if got, want := pe.Expr, tc.expr; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestCheckerString(t *testing.T) {
	for _, tc := range []struct {
		expr, want string
	}{
		{"* june 17", "* Jun 17"},
		{"1999 6 *", "1999 Jun *"},
		{"2021 13 1", "2021 13 1"},
		{"m=jan&w=1 & a=3", "m=1 & w=1 & a=3"},
		{"z=32", "z=32"},
	} {
		c := datecalc.MustParse(tc.expr)
		if got := c.String(); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.expr, got, tc.want)
		}
		again, err := datecalc.Parse(c.String())
		if err != nil {
			t.Errorf("%q: %v", c.String(), err)
			continue
		}
		if !reflect.DeepEqual(again, c) {
			t.Errorf("%q: got %#v, want %#v", tc.expr, again, c)
		}
	}
}
