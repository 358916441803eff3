package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetLevel(LevelWarn)

	SetLevel(LevelWarn)
	Debug("hidden")
	Info("hidden")
	Warn("skipping line", "line", 3, "expr", "w=2 &")
	Error("open failed", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, `[WARN] skipping line line=3 expr="w=2 &"`) {
		t.Errorf("missing warning: %s", out)
	}
	if !strings.Contains(out, "[ERROR] open failed err=boom") {
		t.Errorf("missing error: %s", out)
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("shown", "odd")
	if got := buf.String(); !strings.Contains(got, "[DEBUG] shown\n") {
		t.Errorf("got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" Info ", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"", LevelWarn},
	} {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("expected an error")
	}
}
