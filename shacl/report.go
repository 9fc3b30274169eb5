package shacl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/c360studio/rmlvalidate/graph"
	sh "github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// Result is one validation result.
type Result struct {
	FocusNode   rdf.Term
	Path        string // empty for node shapes
	Value       rdf.Term
	SourceShape rdf.Term
	Component   rdf.IRI
	Severity    rdf.IRI
	Message     string

	path propertyPath
}

// Report is the outcome of validating one data graph.
type Report struct {
	Results []Result
}

func (s *Shape) result(focus, value rdf.Term, component, message string) Result {
	r := Result{
		FocusNode:   focus,
		Value:       value,
		SourceShape: s.ID,
		Component:   iriOf(component),
		Severity:    s.severity,
		Message:     message,
		path:        s.path,
	}
	if s.message != "" {
		r.Message = s.message
	}
	if s.path != nil {
		r.Path = s.path.String()
	}
	return r
}

// Conforms reports whether the data graph produced no results.
func (r *Report) Conforms() bool {
	return len(r.Results) == 0
}

// Count returns the number of results with the given severity IRI.
func (r *Report) Count(severity string) int {
	n := 0
	for _, res := range r.Results {
		if res.Severity.Value == severity {
			n++
		}
	}
	return n
}

// Summary describes the report in one line.
func (r *Report) Summary() string {
	if r.Conforms() {
		return "conforms"
	}
	first := r.Results[0]
	line := fmt.Sprintf("%d result(s), first: %s (focus %s", len(r.Results), first.Message, graph.Key(first.FocusNode))
	if first.Path != "" {
		line += ", path " + first.Path
	}
	return line + ")"
}

// Text renders the report in the multi-line layout used by pySHACL.
func (r *Report) Text() string {
	var sb strings.Builder
	sb.WriteString("Validation Report\n")
	sb.WriteString("Conforms: " + pyBool(r.Conforms()) + "\n")
	if r.Conforms() {
		return sb.String()
	}

	fmt.Fprintf(&sb, "Results (%d):\n", len(r.Results))
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "Constraint %s in %s (%s):\n", localName(res.Severity.Value), localName(res.Component.Value), res.Component.Value)
		fmt.Fprintf(&sb, "\tSeverity: sh:%s\n", localName(res.Severity.Value))
		fmt.Fprintf(&sb, "\tSource Shape: %s\n", graph.Key(res.SourceShape))
		fmt.Fprintf(&sb, "\tFocus Node: %s\n", graph.Key(res.FocusNode))
		if res.Value != nil {
			fmt.Fprintf(&sb, "\tValue Node: %s\n", graph.Key(res.Value))
		}
		if res.Path != "" {
			fmt.Fprintf(&sb, "\tResult Path: %s\n", res.Path)
		}
		fmt.Fprintf(&sb, "\tMessage: %s\n", res.Message)
	}
	return sb.String()
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Graph returns the report as an sh:ValidationReport graph.
func (r *Report) Graph() *graph.Graph {
	b := &builder{g: graph.New()}
	report := b.blank()
	b.add(report, w3c.RDFType, iriOf(sh.ClassValidationReport))
	b.add(report, sh.Conforms, rdf.Literal{Lexical: strconv.FormatBool(r.Conforms()), Datatype: iriOf(w3c.XSDBoolean)})

	for _, res := range r.Results {
		n := b.blank()
		b.add(report, sh.Result, n)
		b.add(n, w3c.RDFType, iriOf(sh.ClassValidationResult))
		b.add(n, sh.FocusNode, res.FocusNode)
		if res.path != nil {
			b.add(n, sh.ResultPath, res.path.term(b))
		}
		if res.Value != nil {
			b.add(n, sh.Value, res.Value)
		}
		b.add(n, sh.SourceShape, res.SourceShape)
		b.add(n, sh.SourceConstraintComponent, res.Component)
		b.add(n, sh.ResultSeverity, res.Severity)
		b.add(n, sh.ResultMessage, rdf.Literal{Lexical: res.Message})
	}
	return b.g
}

// builder writes triples with fresh blank nodes into a graph.
type builder struct {
	g *graph.Graph
	n int
}

func (b *builder) blank() rdf.BlankNode {
	b.n++
	return rdf.BlankNode{ID: "report" + strconv.Itoa(b.n)}
}

func (b *builder) add(s rdf.Term, predicate string, o rdf.Term) {
	b.g.Add(rdf.Triple{S: s, P: iriOf(predicate), O: o})
}

// list writes an RDF collection and returns its head.
func (b *builder) list(items []rdf.Term) rdf.Term {
	var head rdf.Term = iriOf(w3c.RDFNil)
	for i := len(items) - 1; i >= 0; i-- {
		cell := b.blank()
		b.add(cell, w3c.RDFFirst, items[i])
		b.add(cell, w3c.RDFRest, head)
		head = cell
	}
	return head
}
