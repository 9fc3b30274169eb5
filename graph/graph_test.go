package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

const ex = "http://example.org/"

func iri(local string) rdf.IRI { return rdf.IRI{Value: ex + local} }

func TestAddIsSetSemantics(t *testing.T) {
	g := New()
	tr := rdf.Triple{S: iri("s"), P: iri("p"), O: rdf.Literal{Lexical: "v"}}

	assert.True(t, g.Add(tr))
	assert.False(t, g.Add(tr))
	// xsd:string and plain literals are the same term
	assert.False(t, g.Add(rdf.Triple{S: iri("s"), P: iri("p"), O: rdf.Literal{Lexical: "v", Datatype: rdf.IRI{Value: w3c.XSDString}}}))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has(tr))
}

func TestMatchAndAccessors(t *testing.T) {
	g := New()
	g.Add(rdf.Triple{S: iri("a"), P: iri("knows"), O: iri("b")})
	g.Add(rdf.Triple{S: iri("a"), P: iri("knows"), O: iri("c")})
	g.Add(rdf.Triple{S: iri("b"), P: iri("knows"), O: iri("c")})
	g.Add(rdf.Triple{S: iri("a"), P: iri("name"), O: rdf.Literal{Lexical: "A"}})

	assert.Len(t, g.Match(nil, nil, nil), 4)
	assert.Len(t, g.Match(iri("a"), nil, nil), 3)
	assert.Len(t, g.Match(nil, iri("knows"), iri("c")), 2)
	assert.Empty(t, g.Match(iri("c"), nil, nil))

	assert.Equal(t, []rdf.Term{iri("b"), iri("c")}, g.Objects(iri("a"), iri("knows")))
	assert.Equal(t, []rdf.Term{iri("a"), iri("b")}, g.Subjects(iri("knows"), iri("c")))
	assert.Equal(t, []rdf.Term{iri("a"), iri("b")}, g.SubjectsOf(iri("knows")))
	assert.Equal(t, []rdf.Term{iri("b"), iri("c")}, g.ObjectsOf(iri("knows")))
	assert.Equal(t, []rdf.IRI{iri("knows"), iri("name")}, g.Predicates(iri("a")))

	name, ok := g.Object(iri("a"), iri("name"))
	require.True(t, ok)
	assert.Equal(t, "A", name.(rdf.Literal).Lexical)
}

func TestMerge(t *testing.T) {
	a := New()
	a.Add(rdf.Triple{S: iri("s"), P: iri("p"), O: iri("o1")})
	b := New()
	b.Add(rdf.Triple{S: iri("s"), P: iri("p"), O: iri("o1")})
	b.Add(rdf.Triple{S: iri("s"), P: iri("p"), O: iri("o2")})

	assert.Equal(t, 1, a.Merge(b))
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 0, a.Merge(nil))
}

func TestList(t *testing.T) {
	g := New()
	_, err := g.Load(context.Background(), strings.NewReader(`
@prefix ex: <http://example.org/> .
ex:s ex:items ( ex:a ex:b "c" ) .
ex:s ex:empty () .
`), "")
	require.NoError(t, err)

	head, ok := g.Object(iri("s"), iri("items"))
	require.True(t, ok)
	items, err := g.List(head)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.True(t, Equal(iri("a"), items[0]))
	assert.True(t, Equal(iri("b"), items[1]))
	assert.True(t, Equal(rdf.Literal{Lexical: "c"}, items[2]))

	empty, ok := g.Object(iri("s"), iri("empty"))
	require.True(t, ok)
	none, err := g.List(empty)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListMalformed(t *testing.T) {
	g := New()
	node := rdf.BlankNode{ID: "l1"}
	g.Add(rdf.Triple{S: node, P: rdfFirst, O: iri("a")})
	g.Add(rdf.Triple{S: node, P: rdfRest, O: node})

	_, err := g.List(node)
	assert.True(t, errors.Is(err, ErrMalformedList))

	_, err = g.List(rdf.BlankNode{ID: "dangling"})
	assert.True(t, errors.Is(err, ErrMalformedList))
}

func TestLoadScopesBlankNodes(t *testing.T) {
	doc := `
@prefix ex: <http://example.org/> .
_:x ex:p ex:o .
ex:s ex:q [ ex:r "anon" ] .
`
	g := New()
	n1, err := g.Load(context.Background(), strings.NewReader(doc), "")
	require.NoError(t, err)
	n2, err := g.Load(context.Background(), strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Equal(t, 3, n1)
	assert.Equal(t, 3, n2)
	// ex:s ex:q _ is not ground, so every triple is kept twice
	assert.Equal(t, 6, g.Len())
	assert.Len(t, g.SubjectsOf(iri("p")), 2)
}

func TestLoadIsAtomic(t *testing.T) {
	g := New()
	g.Add(rdf.Triple{S: iri("keep"), P: iri("p"), O: iri("o")})

	_, err := g.Load(context.Background(), strings.NewReader(`
@prefix ex: <http://example.org/> .
ex:a ex:p ex:b .
ex:c ex:p .
`), "")
	require.Error(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestLoadFileResolvesRelativeIRIs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/maps/people.ttl", []byte(`
@prefix rr: <http://www.w3.org/ns/r2rml#> .
<#PeopleMap> a rr:TriplesMap .
`), 0644))

	g := New()
	n, err := LoadFile(context.Background(), fs, "/maps/people.ttl", g)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	subjects := g.SubjectsOf(rdf.IRI{Value: w3c.RDFType})
	require.Len(t, subjects, 1)
	assert.Equal(t, FileIRI("/maps/people.ttl")+"#PeopleMap", subjects[0].(rdf.IRI).Value)
}

func TestLoadFilePrefixOnFirstLine(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/maps/first.ttl", []byte("@prefix ex: <http://example.org/> .\nex:a ex:p <#b> .\n"), 0644))

	g := New()
	n, err := LoadFile(context.Background(), fs, "/maps/first.ttl", g)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, g.Has(rdf.Triple{S: iri("a"), P: iri("p"), O: rdf.IRI{Value: FileIRI("/maps/first.ttl") + "#b"}}))
}

func TestLoadFileErrorLineIsDocumentLine(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/maps/broken.ttl", []byte("@prefix ex: <http://example.org/> .\nex:a ex:p .\n"), 0644))

	_, err := LoadFile(context.Background(), fs, "/maps/broken.ttl", New())
	require.Error(t, err)
	var pe *rdf.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		assert.Equal(t, 2, pe.Line)
	}
}

// The Turtle parser reads one statement per line; a second statement on
// the same line is rejected.
func TestLoadRejectsStatementsSharingALine(t *testing.T) {
	g := New()
	_, err := g.Load(context.Background(), strings.NewReader(
		"<http://e/a> <http://e/p> <http://e/b> . <http://e/b> <http://e/p> <http://e/c> .\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token after statement")
	assert.Equal(t, 0, g.Len())

	_, err = g.Load(context.Background(), strings.NewReader(
		"<http://e/a> <http://e/p> <http://e/b> .\n<http://e/b> <http://e/p> <http://e/c> .\n"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), afero.NewMemMapFs(), "/nope.ttl", New())
	assert.ErrorContains(t, err, "open /nope.ttl")
}

func TestFileIRI(t *testing.T) {
	assert.Equal(t, "file:///data/a%20b.ttl", FileIRI("/data/a b.ttl"))
}

func TestMergeScoped(t *testing.T) {
	other := New()
	other.Add(rdf.Triple{S: rdf.BlankNode{ID: "r1"}, P: iri("p"), O: iri("o")})
	other.Add(rdf.Triple{S: iri("s"), P: iri("p"), O: iri("o")})

	g := New()
	assert.Equal(t, 2, g.MergeScoped(other))
	assert.Equal(t, 1, g.MergeScoped(other))
	assert.Equal(t, 3, g.Len())
	assert.Len(t, g.Subjects(iri("p"), iri("o")), 3)
	assert.Equal(t, 0, g.MergeScoped(nil))
}
