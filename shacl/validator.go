// Package shacl validates RDF graphs against SHACL Core shapes.
//
// A Validator compiles a shapes graph once and can then validate any
// number of data graphs. Validate returns the full report; Check returns a
// *NonConformanceError when the data graph does not conform.
package shacl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/spf13/afero"

	"github.com/c360studio/rmlvalidate/graph"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// maxDepth bounds nested shape evaluation through sh:node, sh:property and
// the logical components.
const maxDepth = 32

// ErrRecursion is returned when shape references nest deeper than the
// validator supports, which in practice means a recursive shape.
var ErrRecursion = errors.New("shape recursion too deep")

// Validator holds a compiled shapes graph.
type Validator struct {
	roots  []*Shape
	shapes int
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// NewValidator compiles every shape of the shapes graph.
func NewValidator(shapes *graph.Graph, opts ...Option) (*Validator, error) {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}

	c := &compiler{g: shapes, shapes: make(map[string]*Shape)}
	for _, node := range shapeNodes(shapes) {
		s, err := c.shape(node)
		if err != nil {
			return nil, err
		}
		if len(s.targets) > 0 {
			v.roots = append(v.roots, s)
		}
	}
	v.shapes = len(c.shapes)

	v.logger.Debug("Compiled shapes graph", "shapes", v.shapes, "targeted", len(v.roots))
	return v, nil
}

// LoadValidator reads a Turtle shape file and compiles it.
func LoadValidator(ctx context.Context, fs afero.Fs, path string, parseOpts []rdf.Option, opts ...Option) (*Validator, error) {
	g := graph.New()
	if _, err := graph.LoadFile(ctx, fs, path, g, parseOpts...); err != nil {
		return nil, fmt.Errorf("load shapes: %w", err)
	}
	v, err := NewValidator(g, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile shapes %s: %w", path, err)
	}
	return v, nil
}

// Shapes returns the number of compiled shapes.
func (v *Validator) Shapes() int {
	return v.shapes
}

// Validate checks data against the compiled shapes.
func (v *Validator) Validate(ctx context.Context, data *graph.Graph) (*Report, error) {
	ev := &evaluation{data: data, supers: make(map[string]map[string]bool)}
	report := &Report{}

	for _, s := range v.roots {
		if s.deactivated {
			continue
		}
		for _, focus := range ev.focusNodes(s) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.Results = append(report.Results, ev.validate(s, focus)...)
			if ev.err != nil {
				return nil, fmt.Errorf("shape %s: %w", graph.Key(s.ID), ev.err)
			}
		}
	}
	return report, nil
}

// Check validates data and returns a *NonConformanceError if it does not
// conform.
func (v *Validator) Check(ctx context.Context, data *graph.Graph) error {
	report, err := v.Validate(ctx, data)
	if err != nil {
		return err
	}
	if !report.Conforms() {
		return &NonConformanceError{Report: report}
	}
	return nil
}

// evaluation is the state of one Validate call.
type evaluation struct {
	data  *graph.Graph
	depth int
	err   error

	// supers caches the rdfs:subClassOf closure per class, including the class itself
	supers map[string]map[string]bool
}

func (ev *evaluation) validate(s *Shape, focus rdf.Term) []Result {
	if s.deactivated || ev.err != nil {
		return nil
	}
	if ev.depth >= maxDepth {
		ev.err = ErrRecursion
		return nil
	}
	ev.depth++
	defer func() { ev.depth-- }()

	values := []rdf.Term{focus}
	if s.path != nil {
		values = s.path.forward(ev.data, focus)
	}

	var out []Result
	for _, c := range s.constraints {
		out = append(out, c.validate(ev, s, focus, values)...)
	}
	return out
}

// conforms reports whether node produces no results against s.
func (ev *evaluation) conforms(s *Shape, node rdf.Term) bool {
	return len(ev.validate(s, node)) == 0
}

func (ev *evaluation) focusNodes(s *Shape) []rdf.Term {
	var nodes []rdf.Term
	for _, t := range s.targets {
		switch t.kind {
		case targetClass:
			nodes = append(nodes, ev.instances(t.term)...)
		case targetNode:
			nodes = append(nodes, t.term)
		case targetSubjectsOf, targetObjectsOf:
			p, ok := t.term.(rdf.IRI)
			if !ok {
				continue
			}
			if t.kind == targetSubjectsOf {
				nodes = append(nodes, ev.data.SubjectsOf(p)...)
			} else {
				nodes = append(nodes, ev.data.ObjectsOf(p)...)
			}
		}
	}
	return dedupe(nodes)
}

// instances returns the nodes typed with class or one of its subclasses.
func (ev *evaluation) instances(class rdf.Term) []rdf.Term {
	rdfType := iriOf(w3c.RDFType)
	var out []rdf.Term
	for _, typed := range ev.data.ObjectsOf(rdfType) {
		if ev.superclasses(typed)[graph.Key(class)] {
			out = append(out, ev.data.Subjects(rdfType, typed)...)
		}
	}
	return dedupe(out)
}

// instanceOf reports whether node has an rdf:type that is class or a
// subclass of it.
func (ev *evaluation) instanceOf(node, class rdf.Term) bool {
	want := graph.Key(class)
	for _, typed := range ev.data.Objects(node, iriOf(w3c.RDFType)) {
		if ev.superclasses(typed)[want] {
			return true
		}
	}
	return false
}

func (ev *evaluation) superclasses(class rdf.Term) map[string]bool {
	key := graph.Key(class)
	if cached, ok := ev.supers[key]; ok {
		return cached
	}

	closure := map[string]bool{key: true}
	subClassOf := iriOf(w3c.RDFSSubClassOf)
	frontier := []rdf.Term{class}
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, c := range frontier {
			for _, super := range ev.data.Objects(c, subClassOf) {
				if k := graph.Key(super); !closure[k] {
					closure[k] = true
					next = append(next, super)
				}
			}
		}
		frontier = next
	}
	ev.supers[key] = closure
	return closure
}
