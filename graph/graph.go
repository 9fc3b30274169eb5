// Package graph provides the in-memory RDF graph that mapping documents and
// shape files are loaded into.
//
// A Graph is a set of triples: adding a triple twice keeps one copy. Triples
// are indexed by subject, predicate and object so the shape engine can follow
// edges in both directions. Iteration order is insertion order, which keeps
// validation reports stable between runs.
package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// ErrMalformedList is returned when an RDF collection is cyclic or misses
// rdf:first/rdf:rest.
var ErrMalformedList = errors.New("malformed RDF list")

var (
	rdfFirst = rdf.IRI{Value: w3c.RDFFirst}
	rdfRest  = rdf.IRI{Value: w3c.RDFRest}
)

// Graph is an indexed set of RDF triples. It is not safe for concurrent
// mutation.
type Graph struct {
	triples     []rdf.Triple
	index       map[string]int
	bySubject   map[string][]int
	byPredicate map[string][]int
	byObject    map[string][]int

	// scopes counts scoped merges; each one renames its blank nodes into its own scope
	scopes int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:       make(map[string]int),
		bySubject:   make(map[string][]int),
		byPredicate: make(map[string][]int),
		byObject:    make(map[string][]int),
	}
}

// Add inserts a triple and reports whether it was new.
func (g *Graph) Add(t rdf.Triple) bool {
	sk, pk, objKey := Key(t.S), Key(t.P), Key(t.O)
	key := sk + " " + pk + " " + objKey
	if _, exists := g.index[key]; exists {
		return false
	}

	i := len(g.triples)
	g.triples = append(g.triples, t)
	g.index[key] = i
	g.bySubject[sk] = append(g.bySubject[sk], i)
	g.byPredicate[pk] = append(g.byPredicate[pk], i)
	g.byObject[objKey] = append(g.byObject[objKey], i)
	return true
}

// Has reports whether the graph contains t.
func (g *Graph) Has(t rdf.Triple) bool {
	_, ok := g.index[Key(t.S)+" "+Key(t.P)+" "+Key(t.O)]
	return ok
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns a copy of all triples in insertion order.
func (g *Graph) Triples() []rdf.Triple {
	out := make([]rdf.Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Merge adds every triple of other and returns how many were new.
func (g *Graph) Merge(other *Graph) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, t := range other.triples {
		if g.Add(t) {
			added++
		}
	}
	return added
}

// MergeScoped adds every triple of other with its blank nodes renamed into
// a fresh scope of g, so they stay distinct from the blank nodes already
// in g. It returns how many triples were new.
func (g *Graph) MergeScoped(other *Graph) int {
	if other == nil {
		return 0
	}
	g.scopes++
	scope := fmt.Sprintf("d%d_", g.scopes)

	added := 0
	for _, t := range other.triples {
		if g.Add(rdf.Triple{S: scoped(t.S, scope), P: t.P, O: scoped(t.O, scope)}) {
			added++
		}
	}
	return added
}

// Match returns the triples matching the pattern. A nil term is a wildcard.
func (g *Graph) Match(s, p, o rdf.Term) []rdf.Triple {
	candidates, filtered := g.candidates(s, p, o)
	if !filtered {
		return g.Triples()
	}

	var out []rdf.Triple
	for _, i := range candidates {
		t := g.triples[i]
		if s != nil && Key(t.S) != Key(s) {
			continue
		}
		if p != nil && Key(t.P) != Key(p) {
			continue
		}
		if o != nil && Key(t.O) != Key(o) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// candidates picks the smallest index bucket for the bound terms.
func (g *Graph) candidates(s, p, o rdf.Term) ([]int, bool) {
	var best []int
	found := false
	consider := func(idx map[string][]int, term rdf.Term) {
		if term == nil {
			return
		}
		bucket := idx[Key(term)]
		if !found || len(bucket) < len(best) {
			best = bucket
			found = true
		}
	}
	consider(g.bySubject, s)
	consider(g.byPredicate, p)
	consider(g.byObject, o)
	return best, found
}

// Objects returns the objects of triples with subject s and predicate p.
func (g *Graph) Objects(s rdf.Term, p rdf.IRI) []rdf.Term {
	var out []rdf.Term
	for _, t := range g.Match(s, p, nil) {
		out = append(out, t.O)
	}
	return out
}

// Object returns the first object of s and p.
func (g *Graph) Object(s rdf.Term, p rdf.IRI) (rdf.Term, bool) {
	for _, i := range g.bySubject[Key(s)] {
		if t := g.triples[i]; t.P.Value == p.Value {
			return t.O, true
		}
	}
	return nil, false
}

// Subjects returns the subjects of triples with predicate p and object o.
func (g *Graph) Subjects(p rdf.IRI, o rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, t := range g.Match(nil, p, o) {
		out = append(out, t.S)
	}
	return out
}

// SubjectsOf returns the distinct subjects that have predicate p.
func (g *Graph) SubjectsOf(p rdf.IRI) []rdf.Term {
	return distinct(g.byPredicate[Key(p)], g.triples, func(t rdf.Triple) rdf.Term { return t.S })
}

// ObjectsOf returns the distinct objects of predicate p.
func (g *Graph) ObjectsOf(p rdf.IRI) []rdf.Term {
	return distinct(g.byPredicate[Key(p)], g.triples, func(t rdf.Triple) rdf.Term { return t.O })
}

// Predicates returns the distinct predicates used with subject s.
func (g *Graph) Predicates(s rdf.Term) []rdf.IRI {
	var out []rdf.IRI
	seen := make(map[string]bool)
	for _, i := range g.bySubject[Key(s)] {
		p := g.triples[i].P
		if !seen[p.Value] {
			seen[p.Value] = true
			out = append(out, p)
		}
	}
	return out
}

func distinct(indexes []int, triples []rdf.Triple, pick func(rdf.Triple) rdf.Term) []rdf.Term {
	var out []rdf.Term
	seen := make(map[string]bool, len(indexes))
	for _, i := range indexes {
		term := pick(triples[i])
		k := Key(term)
		if !seen[k] {
			seen[k] = true
			out = append(out, term)
		}
	}
	return out
}

// List returns the members of the RDF collection starting at head.
func (g *Graph) List(head rdf.Term) ([]rdf.Term, error) {
	var items []rdf.Term
	seen := make(map[string]bool)
	node := head
	for !IsNil(node) {
		k := Key(node)
		if seen[k] {
			return nil, fmt.Errorf("%w: cycle at %s", ErrMalformedList, node)
		}
		seen[k] = true

		first, ok := g.Object(node, rdfFirst)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no rdf:first", ErrMalformedList, node)
		}
		items = append(items, first)

		rest, ok := g.Object(node, rdfRest)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no rdf:rest", ErrMalformedList, node)
		}
		node = rest
	}
	return items, nil
}

// IsNil reports whether t is rdf:nil.
func IsNil(t rdf.Term) bool {
	iri, ok := t.(rdf.IRI)
	return ok && iri.Value == w3c.RDFNil
}

// Key returns a string identifying a term. Terms with equal keys are the same
// RDF term; plain literals and xsd:string literals share a key.
func Key(t rdf.Term) string {
	switch v := t.(type) {
	case nil:
		return ""
	case rdf.IRI:
		return "<" + v.Value + ">"
	case rdf.BlankNode:
		return "_:" + v.ID
	case rdf.Literal:
		lexical := strconv.Quote(v.Lexical)
		switch {
		case v.Lang != "":
			return lexical + "@" + strings.ToLower(v.Lang)
		case v.Datatype.Value == "" || v.Datatype.Value == w3c.XSDString:
			return lexical
		default:
			return lexical + "^^<" + v.Datatype.Value + ">"
		}
	case rdf.TripleTerm:
		return "<<" + Key(v.S) + " " + Key(v.P) + " " + Key(v.O) + ">>"
	default:
		return fmt.Sprintf("%T(%s)", t, t.String())
	}
}

// Equal reports whether a and b are the same RDF term.
func Equal(a, b rdf.Term) bool {
	return Key(a) == Key(b)
}
