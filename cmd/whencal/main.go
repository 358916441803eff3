package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"whencal/internal/calfile"
	"whencal/internal/config"
	"whencal/internal/datecalc"
	appLog "whencal/internal/log"
	"whencal/internal/report"
	"whencal/internal/setup"
)

// flagConfig holds values of the persistent flags.
type flagConfig struct {
	configPath string
	calendar   string
	past       int
	future     int
	header     bool
	noHeader   bool
	logLevel   string
	asOf       string
}

// today and now are replaced in tests.
var (
	today = datecalc.Today
	now   = time.Now
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		appLog.Error("whencal failed", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &flagConfig{}

	root := &cobra.Command{
		Use:   "whencal",
		Short: "Simple personal calendar utility",
		Long: `whencal prints the entries of your calendar file that fall within a window
around today. Each line of the calendar file is

  <date expression>,<description>

where the date expression is either "<year|*> <month> <day|*>", eg. "* Dec 25",
or a conjunction of terms such as "m=jan & w=1 & a=3" using the keys
w (weekday, 1=Monday), m (month), d (day of month), y (year), a (week of
month) and z (day of year).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := appLog.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			appLog.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, 0)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "preferences file (default ~/.whencal/preferences.yaml)")
	pf.StringVar(&flags.calendar, "calendar", "", "calendar file, overrides the preferences")
	pf.IntVar(&flags.past, "past", config.DefaultPast, `how many days into the past the report extends.
Like --future, --past is an offset relative to today, so normally
it is negative`)
	pf.IntVar(&flags.future, "future", config.DefaultFuture, "how many days into the future the report extends")
	pf.BoolVar(&flags.header, "header", false, "print a header at the top of the output")
	pf.BoolVar(&flags.noHeader, "noheader", false, "don't print a header at the top of the output")
	pf.StringVar(&flags.asOf, "today", "", `report as of this date instead of today, eg. "2021 Jan 9"`)
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(editCmd(flags))
	root.AddCommand(windowCmd(flags, "w", "print items for the coming week", 7))
	root.AddCommand(windowCmd(flags, "m", "print items for the coming month", 31))
	root.AddCommand(windowCmd(flags, "y", "print items for the coming year", 366))
	root.AddCommand(initCmd(flags))
	root.AddCommand(checkCmd(flags))
	root.AddCommand(exportCmd(flags))
	root.AddCommand(importCmd(flags))
	root.AddCommand(watchCmd(flags))
	root.AddCommand(serveCmd(flags))
	return root
}

func preferencesPath(flags *flagConfig) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.yaml"), nil
}

// loadConfig loads the preferences, running first-time setup if there are
// none and the session is interactive, and applies flag overrides.
func loadConfig(cmd *cobra.Command, flags *flagConfig) (*config.Config, error) {
	path, err := preferencesPath(flags)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNotExist) {
		if !setup.IsInteractive() {
			return nil, fmt.Errorf("%w: run \"whencal init\" in a terminal", err)
		}
		cfg, err = setup.Run(cmd.InOrStdin(), cmd.OutOrStdout(), path)
	}
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if !fs.Changed("log-level") && cfg.LogLevel != "" {
		level, err := appLog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		appLog.SetLevel(level)
	}
	if flags.calendar != "" {
		cfg.Calendar = flags.calendar
	}
	if fs.Changed("past") {
		cfg.Past = &flags.past
	}
	if fs.Changed("future") {
		cfg.Future = &flags.future
	}
	switch {
	case flags.noHeader:
		cfg.Header = new(bool)
	case flags.header:
		show := true
		cfg.Header = &show
	}
	if cfg.Calendar == "" {
		return nil, errors.New("configuration doesn't define a calendar")
	}
	appLog.Debug("effective config",
		"preferences", path,
		"calendar", cfg.Calendar,
		"past", cfg.PastDays(),
		"future", cfg.FutureDays(),
		"header", cfg.ShowHeader(),
	)
	return cfg, nil
}

// loadEntries reads the calendar; skipped lines are only logged.
func loadEntries(cfg *config.Config) ([]calfile.Entry, error) {
	entries, err := calfile.Load(cfg.Calendar)
	if err != nil && !calfile.IsLineErrors(err) {
		return nil, fmt.Errorf("failure opening %s: %w", cfg.Calendar, err)
	}
	return entries, nil
}

// runReport prints the report. A non-zero future replaces the configured
// future offset.
func runReport(cmd *cobra.Command, flags *flagConfig, future int) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	if future != 0 {
		cfg.Future = &future
	}
	return printReport(cmd, flags, cfg)
}

func printReport(cmd *cobra.Command, flags *flagConfig, cfg *config.Config) error {
	t, err := flags.today()
	if err != nil {
		return err
	}
	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	win := report.NewWindow(t, cfg.PastDays(), cfg.FutureDays())
	items := report.Collect(entries, win, t)
	return report.Write(cmd.OutOrStdout(), items, report.Options{
		Header: cfg.ShowHeader(),
		Now:    now(),
	})
}

func windowCmd(flags *flagConfig, name, short string, future int) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, flags, future)
		},
	}
}
