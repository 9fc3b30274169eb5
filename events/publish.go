// Package events publishes validation outcomes over NATS.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/rmlvalidate/graph"
	"github.com/c360studio/rmlvalidate/runner"
)

// DefaultSubject is the subject prefix outcomes are published under. The
// outcome status is appended, e.g. rmlvalidate.outcome.validation_failed.
const DefaultSubject = "rmlvalidate.outcome"

// OutcomeMessage is the message format for outcome events.
type OutcomeMessage struct {
	RunID    string    `json:"run_id"`
	Mode     string    `json:"mode"`
	Path     string    `json:"path,omitempty"`
	Document string    `json:"document,omitempty"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Triples  int       `json:"triples"`
	Findings []Finding `json:"findings,omitempty"`
	Time     time.Time `json:"time"`
}

// Finding is one SHACL result of a non-conforming graph.
type Finding struct {
	FocusNode string `json:"focus_node"`
	Path      string `json:"path,omitempty"`
	Value     string `json:"value,omitempty"`
	Shape     string `json:"shape"`
	Component string `json:"component"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// Publisher is the part of *nats.Conn used to send messages.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// OutcomePublisher sends every outcome it observes to NATS.
type OutcomePublisher struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

// NewOutcomePublisher creates an OutcomePublisher. An empty subject uses
// DefaultSubject.
func NewOutcomePublisher(pub Publisher, subject string, logger *slog.Logger) *OutcomePublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutcomePublisher{pub: pub, subject: subject, logger: logger}
}

// Connect opens a NATS connection named after the tool.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("rmlvalidate"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// NewMessage builds the message for an outcome.
func NewMessage(o runner.Outcome) OutcomeMessage {
	msg := OutcomeMessage{
		RunID:   o.RunID,
		Mode:    string(o.Mode),
		Path:    o.Path,
		Status:  string(o.Status),
		Triples: o.Triples,
		Time:    o.Time,
	}
	if o.Path != "" {
		msg.Document = graph.FileIRI(o.Path)
	}
	if o.Err != nil {
		msg.Error = o.Err.Error()
	}
	if o.Report != nil {
		for _, r := range o.Report.Results {
			f := Finding{
				FocusNode: graph.Key(r.FocusNode),
				Path:      r.Path,
				Shape:     graph.Key(r.SourceShape),
				Component: r.Component.Value,
				Severity:  r.Severity.Value,
				Message:   r.Message,
			}
			if r.Value != nil {
				f.Value = graph.Key(r.Value)
			}
			msg.Findings = append(msg.Findings, f)
		}
	}
	return msg
}

// Publish sends the outcome to <subject>.<status>.
func (p *OutcomePublisher) Publish(o runner.Outcome) error {
	data, err := json.Marshal(NewMessage(o))
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	subject := p.subject + "." + string(o.Status)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish outcome to %s: %w", subject, err)
	}
	return nil
}

// Observe implements runner.Observer. Publish failures are logged and do
// not affect the run.
func (p *OutcomePublisher) Observe(o runner.Outcome) {
	if err := p.Publish(o); err != nil {
		p.logger.Warn(fmt.Sprintf("Failed to publish outcome for %s: %v", o.Path, err))
	}
}
