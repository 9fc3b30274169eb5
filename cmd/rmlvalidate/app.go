package main

import (
	"context"
	"fmt"
	"io"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/nats-io/nats.go"
	"github.com/spf13/afero"

	"github.com/c360studio/rmlvalidate/config"
	"github.com/c360studio/rmlvalidate/events"
	"github.com/c360studio/rmlvalidate/export"
	"github.com/c360studio/rmlvalidate/metrics"
	"github.com/c360studio/rmlvalidate/output"
	"github.com/c360studio/rmlvalidate/runner"
	"github.com/c360studio/rmlvalidate/shacl"
	"github.com/c360studio/rmlvalidate/watch"
)

// App wires the configured sinks around validation runs.
type App struct {
	cfg    *config.Config
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	metrics *metrics.Metrics

	// NATS, nil unless nats.url is set
	natsConn  *nats.Conn
	publisher events.Publisher
}

// NewApp creates the application and connects to NATS when configured.
func NewApp(cfg *config.Config, fs afero.Fs, stdout, stderr io.Writer) (*App, error) {
	app := &App{
		cfg:     cfg,
		fs:      fs,
		stdout:  stdout,
		stderr:  stderr,
		metrics: metrics.New(),
	}

	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		app.natsConn = conn
		app.publisher = conn
	}
	return app, nil
}

// Close flushes and closes the NATS connection.
func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Flush()
		a.natsConn.Close()
	}
}

func (a *App) parseOptions() []rdf.Option {
	p := a.cfg.Parser
	var opts []rdf.Option
	if p.SafeLimits {
		opts = append(opts, rdf.OptSafeLimits())
	}
	if p.MaxDepth > 0 {
		opts = append(opts, rdf.OptMaxDepth(p.MaxDepth))
	}
	if p.MaxTriples > 0 {
		opts = append(opts, rdf.OptMaxTriples(p.MaxTriples))
	}
	if p.StrictIRIs {
		opts = append(opts, rdf.OptStrictIRIValidation())
	}
	return opts
}

// RunOnce validates paths once. The log sink is reopened for every run, so
// a report file only holds the latest run.
func (a *App) RunOnce(ctx context.Context, paths []string) (*runner.Summary, error) {
	sink, err := output.OpenLog(a.cfg.Output, a.fs, a.stderr)
	if err != nil {
		return nil, err
	}
	defer sink.Close()
	logger := sink.Logger

	parseOpts := a.parseOptions()
	validator, err := shacl.LoadValidator(ctx, a.fs, a.cfg.Shapes.File, parseOpts, shacl.WithLogger(logger))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load shapes: %v", err))
		return nil, err
	}

	observers := []runner.Observer{
		output.NewPrinter(a.stdout),
		output.NewLogObserver(logger),
		a.metrics,
	}
	if a.publisher != nil {
		observers = append(observers, events.NewOutcomePublisher(a.publisher, a.cfg.NATS.Subject, logger))
	}

	r, err := runner.New(validator, runner.Options{
		Combined:     a.cfg.Run.Combined,
		FailFast:     a.cfg.Run.FailFast,
		Excludes:     a.cfg.Discovery.Exclude,
		ParseOptions: parseOpts,
		Observers:    observers,
		Fs:           a.fs,
		Logger:       logger,
	})
	if err != nil {
		return nil, &config.ConfigurationError{Field: "discovery.exclude", Reason: err.Error()}
	}

	summary, err := r.Run(ctx, paths)
	if err != nil {
		return summary, err
	}
	logger.Debug("Run complete",
		"run_id", summary.RunID,
		"documents", summary.Documents(),
		"failures", summary.Failures(),
		"duration", summary.Duration)

	a.metrics.ObserveRun(summary)
	if a.cfg.Metrics.File != "" {
		if err := a.metrics.WriteFile(a.cfg.Metrics.File); err != nil {
			logger.Warn(fmt.Sprintf("Failed to write metrics to %s: %v", a.cfg.Metrics.File, err))
		}
	}

	if a.cfg.Report.Format != config.ReportFormatNone {
		g := export.ReportGraph(summary)
		if err := export.WriteFile(a.fs, a.cfg.Report.Path, g, export.Format(a.cfg.Report.Format)); err != nil {
			return summary, fmt.Errorf("write report graph: %w", err)
		}
	}
	return summary, nil
}

// Watch runs once, then again whenever an input or the shape file changes,
// until ctx is done. Errors from a run are reported and watching goes on.
func (a *App) Watch(ctx context.Context, paths []string) error {
	w, err := watch.New(append([]string{a.cfg.Shapes.File}, paths...), runner.TurtleExtension, a.cfg.Watch.Debounce, bootstrapLogger(a.stderr, a.cfg.Output.LogLevel))
	if err != nil {
		return err
	}
	defer w.Close()

	a.cycle(ctx, paths)
	fmt.Fprintln(a.stderr, "Watching for changes, press Ctrl+C to stop")

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		fmt.Fprintf(a.stderr, "Change detected in %d file(s), re-validating\n", len(changed))
		a.cycle(ctx, paths)
	})
}

func (a *App) cycle(ctx context.Context, paths []string) {
	if _, err := a.RunOnce(ctx, paths); err != nil && ctx.Err() == nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
}
