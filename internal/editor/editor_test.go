package editor

import (
	"context"
	"testing"
)

func TestCommand(t *testing.T) {
	cmd, err := Command(context.Background(), " emacs  -nw ", "/tmp/calendar")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(cmd.Args), 3; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := cmd.Args[1], "-nw"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := cmd.Args[2], "/tmp/calendar"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := Command(context.Background(), "  ", "/tmp/calendar"); err == nil {
		t.Errorf("expected an error")
	}
}
