// Package cmd implements the schedpdf CLI using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/gaurav-prasanna/schedpdf/internal/config"
	"github.com/gaurav-prasanna/schedpdf/internal/schedule"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

// Global flag variables.
var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "schedpdf",
	Short: "schedpdf — construction schedule PDF export and import",
	Long: `schedpdf renders construction schedules into PDF (and HTML, Markdown or JSON)
and reads schedules back out of uploaded PDF or HTML documents.

Usage:
  schedpdf serve
  schedpdf render <schedule-id> --pdf
  schedpdf extract <path-or-url> [--project <id>]`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./schedpdf.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDB != "" {
		c.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}

	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	cfg = c
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// openService opens the configured store and builds a schedule service on it.
// The caller closes the store.
func openService() (*store.Store, *schedule.Service, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	svc := schedule.New(st, schedule.Config{
		Resolver: fonts.NewResolver(cfg.Fonts.Candidates),
		Logger:   logger,
	})
	return st, svc, nil
}
