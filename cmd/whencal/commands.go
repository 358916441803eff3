package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"whencal/internal/calfile"
	"whencal/internal/config"
	"whencal/internal/datecalc"
	"whencal/internal/editor"
	"whencal/internal/ics"
	appLog "whencal/internal/log"
	"whencal/internal/report"
	"whencal/internal/schedule"
	"whencal/internal/setup"
	"whencal/internal/web"
)

func editCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "e",
		Short: "run the editor on the calendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return editor.Run(cmd.Context(), cfg.Editor, cfg.Calendar)
		},
	}
}

func initCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "interactively create the preferences and calendar files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !setup.IsInteractive() {
				return setup.ErrNotInteractive
			}
			path, err := preferencesPath(flags)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			_, err = setup.Run(cmd.InOrStdin(), cmd.OutOrStdout(), path)
			if errors.Is(err, setup.ErrDeclined) {
				return nil
			}
			return err
		},
	}
}

func checkCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "report calendar lines that cannot be parsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			entries, err := calfile.Load(cfg.Calendar)
			if err != nil && !calfile.IsLineErrors(err) {
				return err
			}
			out := cmd.OutOrStdout()
			lerrs := calfile.LineErrors(err)
			for _, le := range lerrs {
				fmt.Fprintf(out, "%s:%d: %v\n", cfg.Calendar, le.Line, le.Err)
			}
			fmt.Fprintf(out, "%d entries, %d skipped lines\n", len(entries), len(lerrs))
			if len(lerrs) > 0 {
				return fmt.Errorf("%s has %d bad lines", cfg.Calendar, len(lerrs))
			}
			return nil
		},
	}
}

func exportCmd(flags *flagConfig) *cobra.Command {
	var (
		outPath   string
		recurring bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "write the report window as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			entries, err := loadEntries(cfg)
			if err != nil {
				return err
			}
			t, err := flags.today()
			if err != nil {
				return err
			}
			cal := ics.Export(entries, ics.ExportOptions{
				Window:    report.NewWindow(t, cfg.PastDays(), cfg.FutureDays()),
				Recurring: recurring,
				Now:       now(),
			})
			if outPath == "" || outPath == "-" {
				return ics.Write(cmd.OutOrStdout(), cal)
			}
			var buf bytes.Buffer
			if err := ics.Write(&buf, cal); err != nil {
				return err
			}
			return os.WriteFile(outPath, buf.Bytes(), 0o600)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, - or empty for stdout")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "export recurring entries as RRULE events")
	return cmd
}

func importCmd(flags *flagConfig) *cobra.Command {
	var (
		appendTo bool
		horizon  int
	)
	cmd := &cobra.Command{
		Use:   "import <file.ics|url>",
		Short: "convert iCalendar events into calendar lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readICS(cmd, args[0])
			if err != nil {
				return err
			}
			t, err := flags.today()
			if err != nil {
				return err
			}
			lines, err := ics.Import(bytes.NewReader(body), ics.ImportOptions{From: t, To: t.AddDays(horizon)})
			if err != nil {
				return err
			}
			text := strings.Join(lines, "\n")
			if len(lines) > 0 {
				text += "\n"
			}
			if !appendTo {
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			f, err := os.OpenFile(cfg.Calendar, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(f, text); err != nil {
				f.Close()
				return err
			}
			appLog.Info("imported calendar lines", "count", len(lines), "calendar", cfg.Calendar)
			return f.Close()
		},
	}
	cmd.Flags().BoolVar(&appendTo, "append", false, "append to the calendar file instead of printing")
	cmd.Flags().IntVar(&horizon, "horizon", 366, "days ahead to expand complex recurrence rules")
	return cmd
}

func readICS(cmd *cobra.Command, src string) ([]byte, error) {
	if !ics.IsURL(src) {
		return os.ReadFile(src)
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	res, err := ics.NewFetcher(filepath.Join(dir, "ics-cache")).Fetch(cmd.Context(), src)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

func watchCmd(flags *flagConfig) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "print the report now and then on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if spec == "" {
				spec = cfg.Refresh
			}
			if err := schedule.Validate(spec); err != nil {
				return err
			}
			if err := printReport(cmd, flags, cfg); err != nil {
				return err
			}
			return schedule.Run(cmd.Context(), spec, func(context.Context) {
				fmt.Fprintln(cmd.OutOrStdout())
				if err := printReport(cmd, flags, cfg); err != nil {
					appLog.Error("report failed", err, "calendar", cfg.Calendar)
				}
			})
		},
	}
	cmd.Flags().StringVar(&spec, "schedule", "", "cron schedule, overrides the refresh preference")
	return cmd
}

func serveCmd(flags *flagConfig) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the report and an iCalendar feed over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return web.ListenAndServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address, overrides the preferences")
	return cmd
}

// today returns the date given by --today, or the current date.
func (f *flagConfig) today() (datecalc.Date, error) {
	if f.asOf == "" {
		return today(), nil
	}
	d, ok := datecalc.ParseDate(f.asOf)
	if !ok {
		return datecalc.Date{}, fmt.Errorf("invalid --today %q, expected <year> <month> <day>", f.asOf)
	}
	return d, nil
}
