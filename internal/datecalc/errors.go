package datecalc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	BadShape ErrorKind = iota + 1
	BadYear
	BadMonth
	BadDay
	BadTerm
	UnknownKey
	BadValue
)

// Sentinel errors, one per ErrorKind, for use with errors.Is.
var (
	ErrBadShape   = errors.New("bad date expression")
	ErrBadYear    = errors.New("bad year")
	ErrBadMonth   = errors.New("bad month")
	ErrBadDay     = errors.New("bad day")
	ErrBadTerm    = errors.New("bad term")
	ErrUnknownKey = errors.New("unknown key")
	ErrBadValue   = errors.New("bad value")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case BadShape:
		return ErrBadShape
	case BadYear:
		return ErrBadYear
	case BadMonth:
		return ErrBadMonth
	case BadDay:
		return ErrBadDay
	case BadTerm:
		return ErrBadTerm
	case UnknownKey:
		return ErrUnknownKey
	case BadValue:
		return ErrBadValue
	}
	return ErrBadShape
}

func (k ErrorKind) String() string {
	return k.sentinel().Error()
}

// ParseError describes why an expression could not be parsed.
type ParseError struct {
	Expr   string
	Kind   ErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Expr)
	}
	return fmt.Sprintf("%v: %q: %s", e.Kind, e.Expr, e.Detail)
}

// Unwrap returns the sentinel error for e.Kind.
func (e *ParseError) Unwrap() error {
	return e.Kind.sentinel()
}

func newParseError(expr string, kind ErrorKind, format string, args ...any) error {
	return &ParseError{Expr: expr, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
