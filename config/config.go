// Package config provides configuration loading and management for rmlvalidate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultShapeFile is the shape file looked up in the working directory
// when none is configured.
const DefaultShapeFile = "rml_rules_shape.ttl"

// DefaultReportFile is the log report written when the output method is file.
const DefaultReportFile = "validation_report.txt"

// OutputMethod selects where the validation log is written.
type OutputMethod string

const (
	// OutputConsole writes the log to standard error.
	OutputConsole OutputMethod = "console"
	// OutputFile writes the log to the report file, truncating it first.
	OutputFile OutputMethod = "file"
)

// Report export formats accepted by ReportConfig.Format.
const (
	ReportFormatNone     = "none"
	ReportFormatTurtle   = "turtle"
	ReportFormatNTriples = "ntriples"
	ReportFormatJSONLD   = "jsonld"
)

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	reportFormats = []string{ReportFormatNone, ReportFormatTurtle, ReportFormatNTriples, ReportFormatJSONLD}
)

// Config represents the complete rmlvalidate configuration
type Config struct {
	Shapes    ShapesConfig    `yaml:"shapes"`
	Output    OutputConfig    `yaml:"output"`
	Run       RunConfig       `yaml:"run"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Parser    ParserConfig    `yaml:"parser"`
	Report    ReportConfig    `yaml:"report"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	NATS      NATSConfig      `yaml:"nats"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ShapesConfig configures the SHACL shape graph
type ShapesConfig struct {
	// File is the Turtle file holding the shapes
	File string `yaml:"file"`
}

// OutputConfig configures the validation log sink
type OutputConfig struct {
	// Method is console or file
	Method OutputMethod `yaml:"method"`
	// ReportFile is the log file used when Method is file
	ReportFile string `yaml:"report_file"`
	// LogLevel is the minimum level written to the sink (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// RunConfig configures how documents are validated
type RunConfig struct {
	// Combined merges every document into one graph before validating
	Combined bool `yaml:"combined"`
	// FailFast stops the run after the first failed document
	FailFast bool `yaml:"fail_fast"`
	// Strict makes document failures affect the exit status
	Strict bool `yaml:"strict"`
}

// DiscoveryConfig configures directory expansion
type DiscoveryConfig struct {
	// Exclude lists doublestar globs matched against paths relative to the walked directory
	Exclude []string `yaml:"exclude"`
}

// ParserConfig configures Turtle parsing limits
type ParserConfig struct {
	// MaxDepth bounds nesting of collections and blank node property lists (0 = library default)
	MaxDepth int `yaml:"max_depth"`
	// MaxTriples bounds the triples read from one document (0 = library default)
	MaxTriples int64 `yaml:"max_triples"`
	// StrictIRIs enables RFC 3987 IRI validation
	StrictIRIs bool `yaml:"strict_iris"`
	// SafeLimits applies the parser's conservative limits for untrusted input
	SafeLimits bool `yaml:"safe_limits"`
}

// ReportConfig configures the machine-readable SHACL report export
type ReportConfig struct {
	// Format is none, turtle, ntriples or jsonld
	Format string `yaml:"format"`
	// Path is where the report graph is written
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	// File is the textfile written after each run (empty = disabled)
	File string `yaml:"file"`
}

// NATSConfig configures outcome publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = disabled)
	URL string `yaml:"url"`
	// Subject is the subject prefix; the outcome status is appended
	Subject string `yaml:"subject"`
}

// WatchConfig configures re-validation on file changes
type WatchConfig struct {
	// Enabled keeps the process running and re-validates on change
	Enabled bool `yaml:"enabled"`
	// Debounce is how long to wait for more changes before re-running
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Shapes: ShapesConfig{
			File: defaultShapePath(),
		},
		Output: OutputConfig{
			Method:     OutputFile,
			ReportFile: DefaultReportFile,
			LogLevel:   "info",
		},
		Report: ReportConfig{
			Format: ReportFormatNone,
		},
		NATS: NATSConfig{
			Subject: "rmlvalidate.outcome",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// defaultShapePath resolves DefaultShapeFile against the working directory.
func defaultShapePath() string {
	abs, err := filepath.Abs(DefaultShapeFile)
	if err != nil {
		return DefaultShapeFile
	}
	return abs
}

// Validate checks that the configuration is valid. Every failure is a
// *ConfigurationError.
func (c *Config) Validate() error {
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if c.Shapes.File == "" {
		return newConfigurationError("shapes.file", "is required")
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Output.LogLevel)) {
		return newConfigurationError("output.log_level", fmt.Sprintf("must be one of %s", strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(reportFormats, c.Report.Format) {
		return newConfigurationError("report.format", fmt.Sprintf("must be one of %s", strings.Join(reportFormats, ", ")))
	}
	if c.Report.Format != ReportFormatNone && c.Report.Path == "" {
		return newConfigurationError("report.path", "is required when report.format is set")
	}
	if c.Parser.MaxDepth < 0 || c.Parser.MaxTriples < 0 {
		return newConfigurationError("parser", "limits must not be negative")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return newConfigurationError("nats.subject", "is required when nats.url is set")
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return newConfigurationError("watch.debounce", "must be positive")
	}
	return nil
}

// Validate checks the logging destination: console, or file with a report
// file. It runs before any document is touched.
func (o OutputConfig) Validate() error {
	switch {
	case o.Method == OutputConsole:
		return nil
	case o.Method == OutputFile && o.ReportFile != "":
		return nil
	default:
		return newConfigurationError("output", "invalid output method or missing report file for file output")
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	fileLayer, err := readFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	config.mergeLayer(fileLayer)
	return config, nil
}

// layer is one decoded config file. Booleans are kept apart as pointers,
// since a false in the file must be told apart from a missing key.
type layer struct {
	config   *Config
	switches switches
}

type switches struct {
	Run struct {
		Combined *bool `yaml:"combined"`
		FailFast *bool `yaml:"fail_fast"`
		Strict   *bool `yaml:"strict"`
	} `yaml:"run"`
	Parser struct {
		StrictIRIs *bool `yaml:"strict_iris"`
		SafeLimits *bool `yaml:"safe_limits"`
	} `yaml:"parser"`
	Watch struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"watch"`
}

func (s switches) apply(c *Config) {
	for _, sw := range []struct {
		dst *bool
		src *bool
	}{
		{&c.Run.Combined, s.Run.Combined},
		{&c.Run.FailFast, s.Run.FailFast},
		{&c.Run.Strict, s.Run.Strict},
		{&c.Parser.StrictIRIs, s.Parser.StrictIRIs},
		{&c.Parser.SafeLimits, s.Parser.SafeLimits},
		{&c.Watch.Enabled, s.Watch.Enabled},
	} {
		if sw.src != nil {
			*sw.dst = *sw.src
		}
	}
}

// readFile decodes a YAML file without applying defaults, so that layers
// only override what they set.
func readFile(path string) (*layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	l := &layer{config: &Config{}}
	if err := yaml.Unmarshal(data, l.config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &l.switches); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return l, nil
}

// mergeLayer merges a config file. Unlike Merge, a boolean the file sets to
// false turns the flag off.
func (c *Config) mergeLayer(l *layer) {
	c.Merge(l.config)
	l.switches.apply(c)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// A false boolean in other is indistinguishable from an unset one, so Merge
// can only switch flags on.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Shapes
	if other.Shapes.File != "" {
		c.Shapes.File = other.Shapes.File
	}

	// Output
	if other.Output.Method != "" {
		c.Output.Method = other.Output.Method
	}
	if other.Output.ReportFile != "" {
		c.Output.ReportFile = other.Output.ReportFile
	}
	if other.Output.LogLevel != "" {
		c.Output.LogLevel = other.Output.LogLevel
	}

	// Run
	c.Run.Combined = c.Run.Combined || other.Run.Combined
	c.Run.FailFast = c.Run.FailFast || other.Run.FailFast
	c.Run.Strict = c.Run.Strict || other.Run.Strict

	// Discovery
	if len(other.Discovery.Exclude) > 0 {
		c.Discovery.Exclude = other.Discovery.Exclude
	}

	// Parser
	if other.Parser.MaxDepth != 0 {
		c.Parser.MaxDepth = other.Parser.MaxDepth
	}
	if other.Parser.MaxTriples != 0 {
		c.Parser.MaxTriples = other.Parser.MaxTriples
	}
	c.Parser.StrictIRIs = c.Parser.StrictIRIs || other.Parser.StrictIRIs
	c.Parser.SafeLimits = c.Parser.SafeLimits || other.Parser.SafeLimits

	// Report
	if other.Report.Format != "" {
		c.Report.Format = other.Report.Format
	}
	if other.Report.Path != "" {
		c.Report.Path = other.Report.Path
	}

	// Metrics
	if other.Metrics.File != "" {
		c.Metrics.File = other.Metrics.File
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Watch
	c.Watch.Enabled = c.Watch.Enabled || other.Watch.Enabled
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
