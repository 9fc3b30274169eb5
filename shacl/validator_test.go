package shacl

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/rmlvalidate/graph"
	sh "github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

const prefixes = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/> .
`

func load(t *testing.T, doc string) *graph.Graph {
	t.Helper()
	g := graph.New()
	_, err := g.Load(context.Background(), strings.NewReader(prefixes+doc), "")
	require.NoError(t, err)
	return g
}

func validate(t *testing.T, shapes, data string) *Report {
	t.Helper()
	v, err := NewValidator(load(t, shapes))
	require.NoError(t, err)
	report, err := v.Validate(context.Background(), load(t, data))
	require.NoError(t, err)
	return report
}

func components(r *Report) []string {
	var out []string
	for _, res := range r.Results {
		out = append(out, localName(res.Component.Value))
	}
	return out
}

func TestConstraintComponents(t *testing.T) {
	tests := []struct {
		name   string
		shapes string
		data   string
		want   []string
	}{
		{
			name: "minCount",
			shapes: `ex:S a sh:NodeShape ; sh:targetClass ex:Person ;
				sh:property [ sh:path ex:name ; sh:minCount 1 ] .`,
			data: `ex:alice a ex:Person ; ex:name "Alice" .
				ex:bob a ex:Person .`,
			want: []string{"MinCountConstraintComponent"},
		},
		{
			name: "maxCount",
			shapes: `ex:S a sh:NodeShape ; sh:targetClass ex:Person ;
				sh:property [ sh:path ex:name ; sh:maxCount 1 ] .`,
			data: `ex:alice a ex:Person ; ex:name "Alice", "Al" .`,
			want: []string{"MaxCountConstraintComponent"},
		},
		{
			name: "datatype",
			shapes: `ex:S a sh:NodeShape ; sh:targetClass ex:Person ;
				sh:property [ sh:path ex:age ; sh:datatype xsd:integer ] .`,
			data: `ex:a a ex:Person ; ex:age 42 .
				ex:b a ex:Person ; ex:age "old" .
				ex:c a ex:Person ; ex:age "4x"^^xsd:integer .`,
			want: []string{"DatatypeConstraintComponent", "DatatypeConstraintComponent"},
		},
		{
			name: "nodeKind",
			shapes: `ex:S a sh:NodeShape ; sh:targetSubjectsOf ex:knows ;
				sh:property [ sh:path ex:knows ; sh:nodeKind sh:IRI ] .`,
			data: `ex:a ex:knows ex:b, "b", [ ex:p ex:q ] .`,
			want: []string{"NodeKindConstraintComponent", "NodeKindConstraintComponent"},
		},
		{
			name: "class with subclass",
			shapes: `ex:S a sh:NodeShape ; sh:targetSubjectsOf ex:owner ;
				sh:property [ sh:path ex:owner ; sh:class ex:Agent ] .`,
			data: `ex:Person rdfs:subClassOf ex:Agent .
				ex:alice a ex:Person .
				ex:car ex:owner ex:alice .
				ex:bike ex:owner ex:rock .`,
			want: []string{"ClassConstraintComponent"},
		},
		{
			name: "pattern with flags",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:code ; sh:pattern "^ab" ; sh:flags "i" ] .`,
			data: `ex:a ex:code "ABC", "xab" .`,
			want: []string{"PatternConstraintComponent"},
		},
		{
			name: "string length",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:code ; sh:minLength 2 ; sh:maxLength 3 ] .`,
			data: `ex:a ex:code "a", "abc", "abcd" .`,
			want: []string{"MinLengthConstraintComponent", "MaxLengthConstraintComponent"},
		},
		{
			name: "in and hasValue",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:color ; sh:in ( "red" "green" ) ] ;
				sh:property [ sh:path ex:tag ; sh:hasValue ex:required ] .`,
			data: `ex:a ex:color "red", "blue" ; ex:tag ex:other .`,
			want: []string{"InConstraintComponent", "HasValueConstraintComponent"},
		},
		{
			name: "languageIn and uniqueLang",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:label ; sh:languageIn ( "en" "fr" ) ; sh:uniqueLang true ] .`,
			data: `ex:a ex:label "one"@en, "un"@fr, "uno"@es, "ONE"@en-GB, "One"@EN .`,
			want: []string{"LanguageInConstraintComponent", "UniqueLangConstraintComponent"},
		},
		{
			name: "numeric ranges",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:n ; sh:minInclusive 1 ; sh:maxExclusive 10 ] .`,
			data: `ex:a ex:n 1, 5, 10, 0.5, "x" .`,
			want: []string{"MaxExclusiveConstraintComponent", "MinInclusiveConstraintComponent", "MinInclusiveConstraintComponent", "MaxExclusiveConstraintComponent"},
		},
		{
			name: "equals and disjoint",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:p ; sh:equals ex:q ] ;
				sh:property [ sh:path ex:p ; sh:disjoint ex:r ] .`,
			data: `ex:a ex:p ex:x ; ex:q ex:x, ex:y ; ex:r ex:x .`,
			want: []string{"EqualsConstraintComponent", "DisjointConstraintComponent"},
		},
		{
			name: "closed",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ; sh:closed true ;
				sh:ignoredProperties ( ex:ignored ) ;
				sh:property [ sh:path ex:p ] .`,
			data: `ex:a ex:p 1 ; ex:ignored 2 ; ex:extra 3 .`,
			want: []string{"ClosedConstraintComponent"},
		},
		{
			name: "node and not",
			shapes: `ex:Named a sh:NodeShape ; sh:property [ sh:path ex:name ; sh:minCount 1 ] .
				ex:S a sh:NodeShape ; sh:targetSubjectsOf ex:friend ;
				sh:property [ sh:path ex:friend ; sh:node ex:Named ] ;
				sh:not ex:Named .`,
			data: `ex:a ex:friend ex:b, ex:c .
				ex:b ex:name "B" .`,
			want: []string{"NodeConstraintComponent"},
		},
		{
			name: "or and xone",
			shapes: `ex:HasA sh:property [ sh:path ex:a ; sh:minCount 1 ] .
				ex:HasB sh:property [ sh:path ex:b ; sh:minCount 1 ] .
				ex:S a sh:NodeShape ; sh:targetNode ex:none, ex:both ;
				sh:or ( ex:HasA ex:HasB ) ; sh:xone ( ex:HasA ex:HasB ) .`,
			data: `ex:both ex:a 1 ; ex:b 2 .`,
			want: []string{"OrConstraintComponent", "XoneConstraintComponent", "XoneConstraintComponent"},
		},
		{
			name: "qualified counts",
			shapes: `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ex:part ; sh:qualifiedValueShape [ sh:class ex:Wheel ] ; sh:qualifiedMinCount 2 ] .`,
			data: `ex:a ex:part ex:w1, ex:e .
				ex:w1 a ex:Wheel .
				ex:e a ex:Engine .`,
			want: []string{"QualifiedMinCountConstraintComponent"},
		},
		{
			name: "deactivated shape",
			shapes: `ex:S a sh:NodeShape ; sh:targetClass ex:Person ; sh:deactivated true ;
				sh:property [ sh:path ex:name ; sh:minCount 1 ] .`,
			data: `ex:bob a ex:Person .`,
		},
		{
			name: "implicit class target",
			shapes: `ex:Person a rdfs:Class, sh:NodeShape ;
				sh:property [ sh:path ex:name ; sh:minCount 1 ] .`,
			data: `ex:bob a ex:Person .`,
			want: []string{"MinCountConstraintComponent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := validate(t, tt.shapes, tt.data)
			assert.ElementsMatch(t, tt.want, components(report))
			assert.Equal(t, len(tt.want) == 0, report.Conforms())
		})
	}
}

func TestPropertyPaths(t *testing.T) {
	data := `ex:a ex:child ex:b .
ex:b ex:child ex:c .
ex:c ex:name "C" .
ex:x ex:alias ex:a .`

	tests := []struct {
		name  string
		path  string
		count int
	}{
		{"predicate", "ex:child", 1},
		{"inverse", "[ sh:inversePath ex:alias ]", 1},
		{"sequence", "( ex:child ex:child )", 1},
		{"alternative", "[ sh:alternativePath ( ex:child [ sh:inversePath ex:alias ] ) ]", 2},
		{"zeroOrMore", "[ sh:zeroOrMorePath ex:child ]", 3},
		{"oneOrMore", "[ sh:oneOrMorePath ex:child ]", 2},
		{"zeroOrOne", "[ sh:zeroOrOnePath ex:child ]", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes := `ex:S a sh:NodeShape ; sh:targetNode ex:a ;
				sh:property [ sh:path ` + tt.path + ` ; sh:maxCount 0 ] .`
			report := validate(t, shapes, data)
			require.Len(t, report.Results, 1)
			assert.Contains(t, report.Results[0].Message, "More than 0 values")

			// one more than the reachable count conforms
			shapes = strings.Replace(shapes, "sh:maxCount 0", "sh:maxCount "+strconv.Itoa(tt.count), 1)
			assert.True(t, validate(t, shapes, data).Conforms())
		})
	}
}

func TestRecursiveShapeFails(t *testing.T) {
	shapes := load(t, `ex:S a sh:NodeShape ; sh:targetNode ex:a ; sh:node ex:S .`)
	v, err := NewValidator(shapes)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), graph.New())
	assert.ErrorIs(t, err, ErrRecursion)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		shapes string
		want   string
	}{
		{"property shape without path", `ex:S a sh:PropertyShape ; sh:targetNode ex:a .`, "has no sh:path"},
		{"minCount on node shape", `ex:S a sh:NodeShape ; sh:targetNode ex:a ; sh:minCount 1 .`, "only allowed on property shapes"},
		{"bad pattern", `ex:S sh:targetNode ex:a ; sh:pattern "(" .`, "sh:pattern"},
		{"negative count", `ex:S sh:targetNode ex:a ; sh:property [ sh:path ex:p ; sh:minCount -1 ] .`, "non-negative integer"},
		{"unknown node kind", `ex:S sh:targetNode ex:a ; sh:nodeKind ex:Thing .`, "sh:nodeKind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(load(t, tt.shapes))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCheckReturnsNonConformance(t *testing.T) {
	v, err := NewValidator(load(t, `ex:S a sh:NodeShape ; sh:targetClass ex:Person ;
		sh:property [ sh:path ex:name ; sh:minCount 1 ; sh:message "name required" ] .`))
	require.NoError(t, err)

	err = v.Check(context.Background(), load(t, `ex:bob a ex:Person .`))
	require.Error(t, err)
	assert.True(t, IsNonConformance(err))
	assert.Contains(t, err.Error(), "name required")

	assert.NoError(t, v.Check(context.Background(), load(t, `ex:bob a ex:Person ; ex:name "Bob" .`)))
}

func TestValidateHonoursContext(t *testing.T) {
	v, err := NewValidator(load(t, `ex:S sh:targetNode ex:a ; sh:property [ sh:path ex:p ; sh:minCount 1 ] .`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.Validate(ctx, graph.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadValidator(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/shapes.ttl", []byte(prefixes+`
ex:S a sh:NodeShape ; sh:targetClass ex:Person ; sh:property ex:NameShape .
ex:NameShape a sh:PropertyShape ; sh:path ex:name ; sh:minCount 1 .
`), 0644))

	v, err := LoadValidator(context.Background(), fs, "/shapes.ttl", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Shapes())

	_, err = LoadValidator(context.Background(), fs, "/missing.ttl", nil)
	assert.ErrorContains(t, err, "load shapes")
}

func TestReportRendering(t *testing.T) {
	report := validate(t,
		`ex:S a sh:NodeShape ; sh:targetNode ex:a ;
			sh:property [ sh:path ex:p ; sh:minCount 1 ; sh:severity sh:Warning ] .`,
		`ex:b ex:p 1 .`)
	require.False(t, report.Conforms())
	assert.Equal(t, 1, report.Count(sh.Warning))
	assert.Equal(t, 0, report.Count(sh.Violation))

	text := report.Text()
	assert.Contains(t, text, "Conforms: False")
	assert.Contains(t, text, "Constraint Warning in MinCountConstraintComponent")
	assert.Contains(t, text, "Focus Node: <http://example.org/a>")
	assert.Contains(t, text, "Result Path: <http://example.org/p>")
	assert.Contains(t, report.Summary(), "1 result(s)")

	g := report.Graph()
	reports := g.Subjects(rdf.IRI{Value: w3c.RDFType}, rdf.IRI{Value: sh.ClassValidationReport})
	require.Len(t, reports, 1)
	conforms, ok := g.Object(reports[0], rdf.IRI{Value: sh.Conforms})
	require.True(t, ok)
	assert.Equal(t, "false", conforms.(rdf.Literal).Lexical)
	assert.Len(t, g.Objects(reports[0], rdf.IRI{Value: sh.Result}), 1)
	assert.Len(t, g.ObjectsOf(rdf.IRI{Value: sh.ResultPath}), 1)

	empty := &Report{}
	assert.Equal(t, "Validation Report\nConforms: True\n", empty.Text())
	assert.Equal(t, "conforms", empty.Summary())
}

func TestReportGraphSequencePath(t *testing.T) {
	report := validate(t,
		`ex:S sh:targetNode ex:a ; sh:property [ sh:path ( ex:p [ sh:inversePath ex:q ] ) ; sh:minCount 1 ] .`,
		`ex:a ex:other 1 .`)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "<http://example.org/p>/^<http://example.org/q>", report.Results[0].Path)

	g := report.Graph()
	head, ok := g.Object(g.SubjectsOf(rdf.IRI{Value: sh.ResultPath})[0], rdf.IRI{Value: sh.ResultPath})
	require.True(t, ok)
	steps, err := g.List(head)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.True(t, graph.Equal(rdf.IRI{Value: "http://example.org/p"}, steps[0]))
	inv, ok := g.Object(steps[1], rdf.IRI{Value: sh.InversePath})
	require.True(t, ok)
	assert.True(t, graph.Equal(rdf.IRI{Value: "http://example.org/q"}, inv))
}
