package output

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/c360studio/rmlvalidate/config"
)

// Sink is an open log destination.
type Sink struct {
	Logger *slog.Logger

	// Path is the report file, empty for console output.
	Path string

	closer io.Closer
}

// OpenLog validates the output configuration and opens the log sink. With
// the console method records go to console; with the file method the
// report file is created or truncated. A bad configuration is returned as
// a *config.ConfigurationError before anything is opened.
func OpenLog(cfg config.OutputConfig, fs afero.Fs, console io.Writer) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "output.log_level", Reason: err.Error()}
	}

	if cfg.Method == config.OutputConsole {
		return &Sink{Logger: slog.New(NewHandler(console, level))}, nil
	}

	f, err := fs.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "output.report_file", Reason: err.Error()}
	}
	return &Sink{Logger: slog.New(NewHandler(f, level)), Path: cfg.ReportFile, closer: f}, nil
}

// Close closes the report file, if any.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
