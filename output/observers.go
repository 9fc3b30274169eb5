package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/c360studio/rmlvalidate/runner"
)

// Line returns the human-readable line for an outcome.
func Line(o runner.Outcome) string {
	if o.IsCombinedResult() {
		if o.Failed() {
			return fmt.Sprintf("Combined validation failed: %v", o.Err)
		}
		return "Combined validation successful"
	}

	switch {
	case o.Mode == runner.ModeCombined && o.Failed():
		return fmt.Sprintf("Failed to load %s: %v", o.Path, o.Err)
	case o.Mode == runner.ModeCombined:
		return fmt.Sprintf("Loaded %s into combined graph", o.Path)
	case o.Failed():
		return fmt.Sprintf("Validation failed for %s: %v", o.Path, o.Err)
	default:
		return fmt.Sprintf("Validation successful for %s", o.Path)
	}
}

// Printer writes outcome lines to standard output. The combined verdict
// only goes to the log.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Observe implements runner.Observer.
func (p *Printer) Observe(o runner.Outcome) {
	if o.IsCombinedResult() {
		return
	}
	fmt.Fprintln(p.w, Line(o))
}

// LogObserver writes every outcome to the log sink. A failed document in
// per-file mode is logged at INFO like its success; a load failure in
// combined mode and a failed combined verdict are logged at ERROR. At DEBUG the full SHACL report of a non-conforming graph follows.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// Observe implements runner.Observer.
func (l *LogObserver) Observe(o runner.Outcome) {
	ctx := context.Background()
	level := slog.LevelInfo
	if o.Failed() && o.Mode == runner.ModeCombined {
		level = slog.LevelError
	}
	l.logger.Log(ctx, level, Line(o))

	if o.Report != nil && !o.Report.Conforms() && l.logger.Enabled(ctx, slog.LevelDebug) {
		l.logger.Debug(strings.TrimRight(o.Report.Text(), "\n"))
	}
}
