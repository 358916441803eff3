// Package calfile reads calendar files: one "<expression>,<description>"
// record per line.
package calfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"cloudeng.io/errors"

	"whencal/internal/datecalc"
	appLog "whencal/internal/log"
)

// Entry is a successfully parsed calendar line.
type Entry struct {
	Line        int
	Expr        string
	Description string
	Checker     datecalc.Checker
}

// LineError records a calendar line that was skipped.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ErrNoSeparator is returned for a line without a comma.
var ErrNoSeparator = errors.New("missing ',' between expression and description")

// SplitLine splits a calendar line at its first comma. The expression must
// be non-empty; the description may itself contain commas.
func SplitLine(line string) (expr, description string, ok bool) {
	expr, description, found := strings.Cut(line, ",")
	if !found || expr == "" {
		return "", "", false
	}
	return expr, description, true
}

// Read parses every line of r. Blank lines and lines whose first non-blank
// character is '#' are ignored. Lines that cannot be split or whose
// expression does not parse are skipped, logged and reported as
// *LineError values in the returned error, but never prevent the remaining
// lines from being read. Entries are returned in file order and are valid
// even when the error is non-nil.
func Read(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		errs    errors.M
	)
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		text, rerr := br.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return entries, rerr
		}
		if rerr == io.EOF && text == "" {
			break
		}
		lineNo++
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		expr, descr, ok := SplitLine(text)
		if !ok {
			errs.Append(&LineError{Line: lineNo, Text: text, Err: ErrNoSeparator})
			appLog.Warn("calendar line skipped", "line", lineNo, "reason", ErrNoSeparator)
			continue
		}
		checker, err := datecalc.Parse(expr)
		if err != nil {
			errs.Append(&LineError{Line: lineNo, Text: text, Err: err})
			appLog.Warn("calendar line skipped", "line", lineNo, "expr", expr, "err", err)
			continue
		}
		entries = append(entries, Entry{
			Line:        lineNo,
			Expr:        strings.TrimSpace(expr),
			Description: strings.TrimSpace(descr),
			Checker:     checker,
		})
	}
	appLog.Debug("calendar read", "lines", lineNo, "entries", len(entries))
	return entries, errs.Err()
}

// Load opens and reads the calendar file at path. A failure to open or
// read the file is returned as is; line errors are returned as by Read and
// the caller may treat them as warnings.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// IsLineErrors reports whether err consists only of line errors, ie. the
// calendar was read but some lines were skipped.
func IsLineErrors(err error) bool {
	if err == nil {
		return false
	}
	m, ok := err.(*errors.M)
	if !ok {
		var le *LineError
		return errors.As(err, &le)
	}
	for _, e := range m.Unwrap() {
		var le *LineError
		if !errors.As(e, &le) {
			return false
		}
	}
	return true
}

// LineErrors returns the line errors contained in err.
func LineErrors(err error) []*LineError {
	var out []*LineError
	if err == nil {
		return out
	}
	if m, ok := err.(*errors.M); ok {
		for _, e := range m.Unwrap() {
			var le *LineError
			if errors.As(e, &le) {
				out = append(out, le)
			}
		}
		return out
	}
	var le *LineError
	if errors.As(err, &le) {
		out = append(out, le)
	}
	return out
}
