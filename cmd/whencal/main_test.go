package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whencal/internal/config"
	"whencal/internal/datecalc"
	appLog "whencal/internal/log"
)

func setupFiles(t *testing.T, calendar string) string {
	t.Helper()
	dir := t.TempDir()
	cal := filepath.Join(dir, "calendar")
	if err := os.WriteFile(cal, []byte(calendar), 0o600); err != nil {
		t.Fatal(err)
	}
	prefs := filepath.Join(dir, "preferences.yaml")
	if err := config.DefaultConfig(cal).Save(prefs); err != nil {
		t.Fatal(err)
	}
	return prefs
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	today = func() datecalc.Date { return datecalc.MustDate(2021, 9, 20) }
	now = func() time.Time { return time.Date(2021, 9, 20, 8, 5, 0, 0, time.Local) }
	defer func() {
		today = datecalc.Today
		now = time.Now
	}()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const calendar = `* Sep 20,Anniversary
m=9 & w=2,Standup
w=2 &,broken
* Oct 1,October
`

func TestReport(t *testing.T) {
	prefs := setupFiles(t, calendar)
	out, err := execute(t, "--config", prefs)
	if err != nil {
		t.Fatal(err)
	}
	want := "Mon 2021 Sep 20 08:05\n\n" +
		"today      2021 Sep 20 Anniversary\n" +
		"tomorrow   2021 Sep 21 Standup\n" +
		"           2021 Sep 28 Standup\n" +
		"           2021 Oct  1 October\n"
	if out != want {
		t.Errorf("got\n%q\nwant\n%q", out, want)
	}
}

func TestReportWindowFlags(t *testing.T) {
	prefs := setupFiles(t, calendar)
	out, err := execute(t, "--config", prefs, "--noheader", "--past", "0", "--future", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(out, "\n"), 2; got != want {
		t.Errorf("got %v lines, want %v:\n%s", got, want, out)
	}

	out, err = execute(t, "--config", prefs, "--noheader", "w")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "October") || !strings.Contains(out, "2021 Sep 21 Standup") {
		t.Errorf("unexpected week report:\n%s", out)
	}

	out, err = execute(t, "--config", prefs, "--noheader", "--today", "1999 Jun 17", "--past", "0", "--future", "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("got %q", out)
	}
	if _, err := execute(t, "--config", prefs, "--today", "1999 Ju 17"); err == nil {
		t.Errorf("expected an error for an ambiguous month")
	}
}

func TestCheck(t *testing.T) {
	prefs := setupFiles(t, calendar)
	out, err := execute(t, "--config", prefs, "check")
	if err == nil {
		t.Errorf("expected an error")
	}
	if !strings.Contains(out, ":3: bad date expression") || !strings.Contains(out, "3 entries, 1 skipped lines") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestExportImport(t *testing.T) {
	prefs := setupFiles(t, calendar)
	out, err := execute(t, "--config", prefs, "--past", "0", "--future", "1", "export")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(out, "BEGIN:VEVENT"), 2; got != want {
		t.Fatalf("got %v, want %v:\n%s", got, want, out)
	}

	path := filepath.Join(t.TempDir(), "out.ics")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatal(err)
	}
	lines, err := execute(t, "--config", prefs, "import", path)
	if err != nil {
		t.Fatal(err)
	}
	want := "2021 Sep 20,Anniversary\n2021 Sep 21,Standup\n"
	if lines != want {
		t.Errorf("got %q, want %q", lines, want)
	}
}

func TestMissingCalendar(t *testing.T) {
	dir := t.TempDir()
	prefs := filepath.Join(dir, "preferences.yaml")
	if err := config.DefaultConfig(filepath.Join(dir, "missing")).Save(prefs); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", prefs); err == nil {
		t.Errorf("expected an error")
	}
}

func TestLogLevelPreference(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "calendar")
	if err := os.WriteFile(cal, []byte(calendar), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig(cal)
	cfg.LogLevel = "debug"
	prefs := filepath.Join(dir, "preferences.yaml")
	if err := cfg.Save(prefs); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	defer func() {
		appLog.SetOutput(os.Stderr)
		appLog.SetLevel(appLog.LevelWarn)
	}()

	if _, err := execute(t, "--config", prefs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[DEBUG]") {
		t.Errorf("log_level debug not applied, log output %q", buf.String())
	}

	// An explicit flag wins over the preference.
	buf.Reset()
	if _, err := execute(t, "--config", prefs, "--log-level", "error"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "[DEBUG]") || strings.Contains(buf.String(), "[WARN]") {
		t.Errorf("--log-level error not honored, log output %q", buf.String())
	}

	cfg.LogLevel = "chatty"
	if err := cfg.Save(prefs); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", prefs); err == nil {
		t.Errorf("expected an error for an unknown log_level")
	}
}
