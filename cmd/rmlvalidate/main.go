// Package main provides the rmlvalidate binary entry point.
// rmlvalidate checks RML mapping documents written in Turtle against a
// SHACL shape graph, one document at a time or merged into one graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/rmlvalidate/config"
	"github.com/c360studio/rmlvalidate/output"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "rmlvalidate"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the raw command line values. Only flags the user set are
// applied over the loaded configuration.
type flags struct {
	configPath   string
	shapeFile    string
	output       string
	reportFile   string
	logLevel     string
	combined     bool
	failFast     bool
	strict       bool
	excludes     []string
	reportFormat string
	reportGraph  string
	metricsFile  string
	natsURL      string
	natsSubject  string
	watch        bool
	debounce     time.Duration
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "rmlvalidate <rml_paths...>",
		Short: "Validate RML mappings against SHACL shapes",
		Long: `rmlvalidate checks RML mapping documents written in Turtle against a
SHACL shape graph.

Each path is a Turtle file or a directory searched recursively for .ttl
files. By default every document is validated on its own; with --combined
all documents are merged and validated once as a single graph.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, stderr)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	fl.StringVar(&f.shapeFile, "shape-file", config.DefaultShapeFile, "SHACL shape file")
	fl.StringVar(&f.output, "output", string(config.OutputFile), "Log destination (console, file)")
	fl.StringVar(&f.reportFile, "report-file", config.DefaultReportFile, "Log file used with --output file")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fl.BoolVar(&f.combined, "combined", false, "Merge all documents and validate them as one graph")
	fl.BoolVar(&f.failFast, "fail-fast", false, "Stop after the first failed document")
	fl.BoolVar(&f.strict, "strict", false, "Exit with status 1 when any document failed")
	fl.StringArrayVar(&f.excludes, "exclude", nil, "Glob of directory entries to skip (repeatable)")
	fl.StringVar(&f.reportFormat, "report-format", config.ReportFormatNone, "SHACL report graph format (none, turtle, ntriples, jsonld)")
	fl.StringVar(&f.reportGraph, "report-graph", "", "Path of the SHACL report graph")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Prometheus textfile written after each run")
	fl.StringVar(&f.natsURL, "nats-url", "", "Publish outcomes to this NATS server")
	fl.StringVar(&f.natsSubject, "nats-subject", "", "Subject prefix for published outcomes")
	fl.BoolVar(&f.watch, "watch", false, "Re-validate when inputs or shapes change")
	fl.DurationVar(&f.debounce, "watch-debounce", 0, "Quiet period before re-validating in watch mode")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	cmd.AddCommand(configCmd(stderr))

	return cmd
}

func configCmd(stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NewLoader(bootstrapLogger(stderr, "")).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var path string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(bootstrapLogger(stderr, "")).Load(path)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().StringVarP(&path, "config", "c", "", "Config file path (YAML)")
	cmd.AddCommand(show)

	return cmd
}

// bootstrapLogger reports config loading before the log sink exists.
func bootstrapLogger(w io.Writer, level string) *slog.Logger {
	l, err := output.ParseLevel(level)
	if err != nil || level == "" {
		l = slog.LevelWarn
	}
	return slog.New(output.NewHandler(w, l))
}

// resolveConfig layers the config files and the explicitly set flags, then
// validates the result.
func resolveConfig(cmd *cobra.Command, f *flags, stderr io.Writer) (*config.Config, error) {
	cfg, err := config.NewLoader(bootstrapLogger(stderr, f.logLevel)).Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("shape-file") {
		cfg.Shapes.File = f.shapeFile
	}
	if changed("output") {
		cfg.Output.Method = config.OutputMethod(f.output)
	}
	if changed("report-file") {
		cfg.Output.ReportFile = f.reportFile
	}
	if changed("log-level") {
		cfg.Output.LogLevel = f.logLevel
	}
	if changed("combined") {
		cfg.Run.Combined = f.combined
	}
	if changed("fail-fast") {
		cfg.Run.FailFast = f.failFast
	}
	if changed("strict") {
		cfg.Run.Strict = f.strict
	}
	if changed("exclude") {
		cfg.Discovery.Exclude = append(cfg.Discovery.Exclude, f.excludes...)
	}
	if changed("report-format") {
		cfg.Report.Format = f.reportFormat
	}
	if changed("report-graph") {
		cfg.Report.Path = f.reportGraph
	}
	if changed("metrics-file") {
		cfg.Metrics.File = f.metricsFile
	}
	if changed("nats-url") {
		cfg.NATS.URL = f.natsURL
	}
	if changed("nats-subject") {
		cfg.NATS.Subject = f.natsSubject
	}
	if changed("watch") {
		cfg.Watch.Enabled = f.watch
	}
	if changed("watch-debounce") {
		cfg.Watch.Debounce = f.debounce
	}
}

// FailuresError is returned under --strict when documents failed.
type FailuresError struct {
	Failures int
	Total    int
}

func (e *FailuresError) Error() string {
	return fmt.Sprintf("%d of %d validation outcome(s) failed", e.Failures, e.Total)
}

func run(ctx context.Context, cfg *config.Config, paths []string, stdout, stderr io.Writer) error {
	app, err := NewApp(cfg, afero.NewOsFs(), stdout, stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Watch.Enabled {
		return app.Watch(ctx, paths)
	}

	summary, err := app.RunOnce(ctx, paths)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if cfg.Run.Strict && summary.Failures() > 0 {
		return &FailuresError{Failures: summary.Failures(), Total: len(summary.Outcomes)}
	}
	return nil
}
