package shacl

import (
	"fmt"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/c360studio/rmlvalidate/graph"
	sh "github.com/c360studio/rmlvalidate/vocabulary/shacl"
)

// propertyPath is a compiled SHACL property path. forward follows the path
// from a focus node, backward follows it in reverse.
type propertyPath interface {
	forward(g *graph.Graph, node rdf.Term) []rdf.Term
	backward(g *graph.Graph, node rdf.Term) []rdf.Term
	// term writes the path's RDF description into b and returns its node.
	term(b *builder) rdf.Term
	String() string
}

type predicatePath struct{ iri rdf.IRI }

type inversePath struct{ inner propertyPath }

type sequencePath struct{ steps []propertyPath }

type alternativePath struct{ options []propertyPath }

// repeatPath covers sh:zeroOrMorePath, sh:oneOrMorePath and sh:zeroOrOnePath.
type repeatPath struct {
	inner     propertyPath
	predicate string
	minOne    bool
	maxOne    bool
}

func (p predicatePath) forward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return g.Objects(node, p.iri)
}

func (p predicatePath) backward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return g.Subjects(p.iri, node)
}

func (p predicatePath) term(*builder) rdf.Term { return p.iri }

func (p predicatePath) String() string { return "<" + p.iri.Value + ">" }

func (p inversePath) forward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return p.inner.backward(g, node)
}

func (p inversePath) backward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return p.inner.forward(g, node)
}

func (p inversePath) term(b *builder) rdf.Term {
	n := b.blank()
	b.add(n, sh.InversePath, p.inner.term(b))
	return n
}

func (p inversePath) String() string { return "^" + p.inner.String() }

func (p sequencePath) forward(g *graph.Graph, node rdf.Term) []rdf.Term {
	current := []rdf.Term{node}
	for _, step := range p.steps {
		current = stepAll(g, current, step.forward)
	}
	return current
}

func (p sequencePath) backward(g *graph.Graph, node rdf.Term) []rdf.Term {
	current := []rdf.Term{node}
	for i := len(p.steps) - 1; i >= 0; i-- {
		current = stepAll(g, current, p.steps[i].backward)
	}
	return current
}

func (p sequencePath) term(b *builder) rdf.Term {
	items := make([]rdf.Term, len(p.steps))
	for i, step := range p.steps {
		items[i] = step.term(b)
	}
	return b.list(items)
}

func (p sequencePath) String() string { return joinPaths(p.steps, "/") }

func (p alternativePath) forward(g *graph.Graph, node rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, option := range p.options {
		out = append(out, option.forward(g, node)...)
	}
	return dedupe(out)
}

func (p alternativePath) backward(g *graph.Graph, node rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, option := range p.options {
		out = append(out, option.backward(g, node)...)
	}
	return dedupe(out)
}

func (p alternativePath) term(b *builder) rdf.Term {
	items := make([]rdf.Term, len(p.options))
	for i, option := range p.options {
		items[i] = option.term(b)
	}
	n := b.blank()
	b.add(n, sh.AlternativePath, b.list(items))
	return n
}

func (p alternativePath) String() string { return "(" + joinPaths(p.options, "|") + ")" }

func (p repeatPath) forward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return p.walk(g, node, p.inner.forward)
}

func (p repeatPath) backward(g *graph.Graph, node rdf.Term) []rdf.Term {
	return p.walk(g, node, p.inner.backward)
}

// walk collects the nodes reachable through repetitions of step.
func (p repeatPath) walk(g *graph.Graph, node rdf.Term, step func(*graph.Graph, rdf.Term) []rdf.Term) []rdf.Term {
	var out []rdf.Term
	seen := make(map[string]bool)
	if !p.minOne {
		out = append(out, node)
		seen[graph.Key(node)] = true
	}

	frontier := []rdf.Term{node}
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, n := range frontier {
			for _, reached := range step(g, n) {
				k := graph.Key(reached)
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, reached)
				next = append(next, reached)
			}
		}
		if p.maxOne {
			break
		}
		frontier = next
	}
	return out
}

func (p repeatPath) term(b *builder) rdf.Term {
	n := b.blank()
	b.add(n, p.predicate, p.inner.term(b))
	return n
}

func (p repeatPath) String() string {
	switch {
	case p.maxOne:
		return p.inner.String() + "?"
	case p.minOne:
		return p.inner.String() + "+"
	default:
		return p.inner.String() + "*"
	}
}

func stepAll(g *graph.Graph, nodes []rdf.Term, step func(*graph.Graph, rdf.Term) []rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, n := range nodes {
		out = append(out, step(g, n)...)
	}
	return dedupe(out)
}

func joinPaths(paths []propertyPath, sep string) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

// dedupe keeps the first occurrence of every term.
func dedupe(terms []rdf.Term) []rdf.Term {
	if len(terms) < 2 {
		return terms
	}
	out := terms[:0:0]
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		k := graph.Key(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

// compilePath reads the path description rooted at node from the shapes graph.
func compilePath(g *graph.Graph, node rdf.Term) (propertyPath, error) {
	if iri, ok := node.(rdf.IRI); ok {
		if graph.IsNil(iri) {
			return nil, fmt.Errorf("rdf:nil is not a property path")
		}
		return predicatePath{iri: iri}, nil
	}

	if inner, ok := g.Object(node, iriOf(sh.InversePath)); ok {
		p, err := compilePath(g, inner)
		if err != nil {
			return nil, err
		}
		return inversePath{inner: p}, nil
	}

	if head, ok := g.Object(node, iriOf(sh.AlternativePath)); ok {
		options, err := compilePathList(g, head)
		if err != nil {
			return nil, fmt.Errorf("sh:alternativePath: %w", err)
		}
		return alternativePath{options: options}, nil
	}

	repeats := []struct {
		predicate      string
		minOne, maxOne bool
	}{
		{sh.ZeroOrMorePath, false, false},
		{sh.OneOrMorePath, true, false},
		{sh.ZeroOrOnePath, false, true},
	}
	for _, r := range repeats {
		if inner, ok := g.Object(node, iriOf(r.predicate)); ok {
			p, err := compilePath(g, inner)
			if err != nil {
				return nil, err
			}
			return repeatPath{inner: p, predicate: r.predicate, minOne: r.minOne, maxOne: r.maxOne}, nil
		}
	}

	// Anything else must be an RDF list: a sequence path.
	steps, err := compilePathList(g, node)
	if err != nil {
		return nil, fmt.Errorf("unsupported property path %s: %w", graph.Key(node), err)
	}
	if len(steps) < 2 {
		return nil, fmt.Errorf("sequence path %s needs at least two members", graph.Key(node))
	}
	return sequencePath{steps: steps}, nil
}

func compilePathList(g *graph.Graph, head rdf.Term) ([]propertyPath, error) {
	members, err := g.List(head)
	if err != nil {
		return nil, err
	}
	paths := make([]propertyPath, 0, len(members))
	for _, m := range members {
		p, err := compilePath(g, m)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
