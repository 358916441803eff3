// Package editor runs the user's editor on the calendar file.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	appLog "whencal/internal/log"
)

// Command returns the command that edits path with editor, where editor
// may include arguments, eg. "emacs -nw".
func Command(ctx context.Context, editor, path string) (*exec.Cmd, error) {
	args := strings.Fields(editor)
	if len(args) == 0 {
		return nil, errors.New("no editor configured")
	}
	args = append(args, path)
	return exec.CommandContext(ctx, args[0], args[1:]...), nil
}

// Run edits path with editor attached to the current terminal.
func Run(ctx context.Context, editor, path string) error {
	cmd, err := Command(ctx, editor, path)
	if err != nil {
		return err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	appLog.Debug("running editor", "cmd", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("invoking editor %q failed: %w", editor, err)
	}
	return nil
}
