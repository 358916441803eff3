// Package setup implements interactive first-run setup: it creates the
// whencal directory, the preferences file and an empty calendar.
package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"whencal/internal/config"
	appLog "whencal/internal/log"
)

// ErrDeclined is returned when the user chooses not to set up a calendar.
var ErrDeclined = errors.New("setup declined")

// ErrNotInteractive is returned when stdin or stdout is not a terminal.
var ErrNotInteractive = errors.New("not in interactive mode")

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Run asks the user to confirm setup and to choose an editor, then writes
// the preferences to prefsPath and creates an empty calendar file next to
// it. It returns the new configuration.
func Run(in io.Reader, out io.Writer, prefsPath string) (*config.Config, error) {
	rd := bufio.NewReader(in)

	answer, err := prompt(rd, out, `
You can now set up your calendar. This involves creating a directory
`+filepath.Dir(prefsPath)+` and making a couple of files in it.
If you want to do this, type y and hit return.`)
	if err != nil {
		return nil, err
	}
	if answer != "y" {
		return nil, ErrDeclined
	}

	editor, err := prompt(rd, out, `
You can edit your calendar file using your favorite editor. Please enter the
command you want to use to run your editor, or hit return to accept this
default:
  `+config.DefaultEditor)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig(filepath.Join(filepath.Dir(prefsPath), "calendar"))
	if editor != "" {
		cfg.Editor = editor
	}
	if err := cfg.Save(prefsPath); err != nil {
		return nil, fmt.Errorf("writing %s: %w", prefsPath, err)
	}
	f, err := os.OpenFile(cfg.Calendar, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	switch {
	case errors.Is(err, os.ErrExist):
		appLog.Info("keeping existing calendar", "path", cfg.Calendar)
	case err != nil:
		return nil, fmt.Errorf("creating %s: %w", cfg.Calendar, err)
	default:
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	appLog.Info("setup complete", "preferences", prefsPath, "calendar", cfg.Calendar)

	fmt.Fprintln(out, `
You can now add items to your calendar file. Do "whencal --help" for more
information.`)
	return cfg, nil
}

func prompt(rd *bufio.Reader, out io.Writer, message string) (string, error) {
	fmt.Fprintln(out, message)
	line, err := rd.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
