// Package runner implements batch validation of RML mapping documents.
//
// A Runner resolves input paths into Turtle documents and validates them
// against a shapes graph, either one graph per document or a single graph
// combining every document. Every document produces a typed Outcome that
// is handed to the registered observers; failures never stop the batch
// unless FailFast is set.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/c360studio/rmlvalidate/graph"
	"github.com/c360studio/rmlvalidate/shacl"
)

// Mode selects how documents are validated.
type Mode string

const (
	// ModePerFile validates every document in its own graph.
	ModePerFile Mode = "per-file"
	// ModeCombined merges all documents and validates the union once.
	ModeCombined Mode = "combined"
)

// Status is the result of one step of a run.
type Status string

const (
	// StatusLoaded marks a document merged into the combined graph.
	StatusLoaded Status = "loaded"
	// StatusPassed marks a graph that conforms to the shapes.
	StatusPassed Status = "passed"
	// StatusParseFailed marks a document that could not be read as Turtle.
	StatusParseFailed Status = "parse_failed"
	// StatusValidationFailed marks a graph that does not conform.
	StatusValidationFailed Status = "validation_failed"
)

// Outcome records one step of a run. In per-file mode every document gets
// exactly one outcome. In combined mode every document gets a load outcome
// and the run ends with one outcome for the combined graph, whose Path is
// empty.
type Outcome struct {
	RunID   string        `json:"run_id"`
	Mode    Mode          `json:"mode"`
	Path    string        `json:"path,omitempty"`
	Status  Status        `json:"status"`
	Err     error         `json:"-"`
	Report  *shacl.Report `json:"-"`
	Triples int           `json:"triples"`
	Time    time.Time     `json:"time"`
}

// Failed reports whether the outcome is a parse or validation failure.
func (o Outcome) Failed() bool {
	return o.Status == StatusParseFailed || o.Status == StatusValidationFailed
}

// IsCombinedResult reports whether the outcome is the verdict on the
// combined graph.
func (o Outcome) IsCombinedResult() bool {
	return o.Mode == ModeCombined && o.Path == ""
}

// Summary is the result of a run.
type Summary struct {
	RunID    string
	Mode     Mode
	Outcomes []Outcome
	Started  time.Time
	Duration time.Duration
}

// Failures returns the number of failed outcomes.
func (s *Summary) Failures() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Documents returns the number of resolved inputs.
func (s *Summary) Documents() int {
	n := 0
	for _, o := range s.Outcomes {
		if !o.IsCombinedResult() {
			n++
		}
	}
	return n
}

// Observer receives outcomes as they are produced.
type Observer interface {
	Observe(Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Outcome)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Outcome) { f(o) }

// Validator checks a data graph against compiled shapes. *shacl.Validator
// implements it.
type Validator interface {
	Validate(ctx context.Context, data *graph.Graph) (*shacl.Report, error)
}

// Options configures a Runner.
type Options struct {
	Combined bool
	FailFast bool

	// Excludes are doublestar patterns applied to directory-discovered files.
	Excludes []string

	// ParseOptions are passed to the Turtle parser.
	ParseOptions []rdf.Option

	Observers []Observer

	// Fs defaults to the OS filesystem.
	Fs afero.Fs

	Logger *slog.Logger
}

// Runner validates batches of documents.
type Runner struct {
	validator Validator
	opts      Options
	fs        afero.Fs
	logger    *slog.Logger
}

// New creates a Runner.
func New(v Validator, opts Options) (*Runner, error) {
	if v == nil {
		return nil, errors.New("validator is required")
	}
	if err := ValidateExcludes(opts.Excludes); err != nil {
		return nil, err
	}

	r := &Runner{validator: v, opts: opts, fs: opts.Fs, logger: opts.Logger}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Run validates the documents resolved from paths. The returned error is
// non-nil only when ctx is cancelled; document failures are reported as
// outcomes.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	mode := ModePerFile
	if r.opts.Combined {
		mode = ModeCombined
	}
	s := &Summary{RunID: uuid.New().String(), Mode: mode, Started: time.Now()}
	defer func() { s.Duration = time.Since(s.Started) }()

	docs := Discover(r.fs, paths, r.opts.Excludes, r.logger)
	r.logger.Debug("Resolved documents", "run_id", s.RunID, "inputs", len(paths), "documents", len(docs))

	var err error
	if r.opts.Combined {
		err = r.runCombined(ctx, s, docs)
	} else {
		err = r.runPerFile(ctx, s, docs)
	}
	return s, err
}

func (r *Runner) runPerFile(ctx context.Context, s *Summary, docs []Document) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		g := graph.New()
		n, err := r.load(ctx, doc, g)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.emit(s, Outcome{Path: doc.Path, Status: StatusParseFailed, Err: err})
		} else {
			o, err := r.validate(ctx, doc.Path, g)
			if err != nil {
				return err
			}
			o.Triples = n
			r.emit(s, o)
		}

		if r.opts.FailFast && s.Outcomes[len(s.Outcomes)-1].Failed() {
			r.logger.Debug("Stopping after first failure", "run_id", s.RunID, "path", doc.Path)
			return nil
		}
	}
	return nil
}

func (r *Runner) runCombined(ctx context.Context, s *Summary, docs []Document) error {
	combined := graph.New()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.load(ctx, doc, combined)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.emit(s, Outcome{Path: doc.Path, Status: StatusParseFailed, Err: err})
			if r.opts.FailFast {
				r.logger.Debug("Stopping after first failure", "run_id", s.RunID, "path", doc.Path)
				return nil
			}
			continue
		}
		r.emit(s, Outcome{Path: doc.Path, Status: StatusLoaded, Triples: n})
	}

	o, err := r.validate(ctx, "", combined)
	if err != nil {
		return err
	}
	o.Triples = combined.Len()
	r.emit(s, o)
	return nil
}

// load parses doc into g. Failures come back as *ParseError.
func (r *Runner) load(ctx context.Context, doc Document, g *graph.Graph) (int, error) {
	if doc.Err != nil {
		return 0, &ParseError{Path: doc.Path, err: doc.Err}
	}
	n, err := graph.LoadFile(ctx, r.fs, doc.Path, g, r.opts.ParseOptions...)
	if err != nil {
		return 0, &ParseError{Path: doc.Path, err: err}
	}
	return n, nil
}

// validate checks g and builds its outcome. The error is non-nil only when
// ctx was cancelled.
func (r *Runner) validate(ctx context.Context, path string, g *graph.Graph) (Outcome, error) {
	o := Outcome{Path: path, Status: StatusPassed}

	report, err := r.validator.Validate(ctx, g)
	switch {
	case err != nil && ctx.Err() != nil:
		return o, ctx.Err()
	case err != nil:
		o.Status = StatusValidationFailed
		o.Err = &ValidationError{Path: path, err: fmt.Errorf("validate: %w", err)}
	case !report.Conforms():
		o.Status = StatusValidationFailed
		o.Report = report
		o.Err = &ValidationError{Path: path, err: &shacl.NonConformanceError{Report: report}}
	default:
		o.Report = report
	}
	return o, nil
}

func (r *Runner) emit(s *Summary, o Outcome) {
	o.RunID = s.RunID
	o.Mode = s.Mode
	o.Time = time.Now()
	s.Outcomes = append(s.Outcomes, o)

	r.logger.Debug("Outcome", "run_id", o.RunID, "path", o.Path, "status", o.Status, "triples", o.Triples)
	for _, obs := range r.opts.Observers {
		obs.Observe(o)
	}
}
