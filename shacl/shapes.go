package shacl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/c360studio/rmlvalidate/graph"
	sh "github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// targetKind identifies how a shape selects its focus nodes.
type targetKind int

const (
	targetClass targetKind = iota
	targetNode
	targetSubjectsOf
	targetObjectsOf
)

type target struct {
	kind targetKind
	term rdf.Term
}

// Shape is a compiled node or property shape.
type Shape struct {
	// ID is the shape's node in the shapes graph.
	ID rdf.Term

	path        propertyPath
	targets     []target
	constraints []constraint
	severity    rdf.IRI
	message     string
	deactivated bool
}

// IsPropertyShape reports whether the shape has a sh:path.
func (s *Shape) IsPropertyShape() bool {
	return s.path != nil
}

// compiler turns shape nodes of a shapes graph into Shapes. Shapes are
// memoised by node, so recursive references resolve to the same value.
type compiler struct {
	g      *graph.Graph
	shapes map[string]*Shape
}

func iriOf(value string) rdf.IRI {
	return rdf.IRI{Value: value}
}

// shapeNodes returns the nodes that are shapes by declaration or because
// they carry a target, in the order they first appear.
func shapeNodes(g *graph.Graph) []rdf.Term {
	targetPredicates := map[string]bool{
		sh.TargetClass:      true,
		sh.TargetNode:       true,
		sh.TargetSubjectsOf: true,
		sh.TargetObjectsOf:  true,
	}

	var nodes []rdf.Term
	seen := make(map[string]bool)
	for _, t := range g.Triples() {
		declared := t.P.Value == w3c.RDFType && (graph.Equal(t.O, iriOf(sh.ClassNodeShape)) || graph.Equal(t.O, iriOf(sh.ClassPropertyShape)))
		if !declared && !targetPredicates[t.P.Value] {
			continue
		}
		if k := graph.Key(t.S); !seen[k] {
			seen[k] = true
			nodes = append(nodes, t.S)
		}
	}
	return nodes
}

// shape compiles the shape at node.
func (c *compiler) shape(node rdf.Term) (*Shape, error) {
	key := graph.Key(node)
	if s, ok := c.shapes[key]; ok {
		return s, nil
	}

	s := &Shape{ID: node, severity: iriOf(sh.Violation)}
	c.shapes[key] = s

	if pathNode, ok := c.g.Object(node, iriOf(sh.Path)); ok {
		p, err := compilePath(c.g, pathNode)
		if err != nil {
			return nil, fmt.Errorf("shape %s: sh:path: %w", key, err)
		}
		s.path = p
	} else if c.g.Has(rdf.Triple{S: node, P: iriOf(w3c.RDFType), O: iriOf(sh.ClassPropertyShape)}) {
		return nil, fmt.Errorf("shape %s: property shape has no sh:path", key)
	}

	if sev, ok := c.g.Object(node, iriOf(sh.Severity)); ok {
		iri, isIRI := sev.(rdf.IRI)
		if !isIRI {
			return nil, fmt.Errorf("shape %s: sh:severity must be an IRI", key)
		}
		s.severity = iri
	}
	if msg, ok := c.g.Object(node, iriOf(sh.Message)); ok {
		if lit, isLit := msg.(rdf.Literal); isLit {
			s.message = lit.Lexical
		}
	}
	if deactivated, ok := c.g.Object(node, iriOf(sh.Deactivated)); ok {
		s.deactivated = isTrue(deactivated)
	}

	c.compileTargets(s)
	if err := c.compileConstraints(s); err != nil {
		return nil, fmt.Errorf("shape %s: %w", key, err)
	}
	return s, nil
}

func (c *compiler) compileTargets(s *Shape) {
	for _, cls := range c.g.Objects(s.ID, iriOf(sh.TargetClass)) {
		s.targets = append(s.targets, target{kind: targetClass, term: cls})
	}
	// A shape that is also an rdfs:Class targets its own instances.
	if c.g.Has(rdf.Triple{S: s.ID, P: iriOf(w3c.RDFType), O: iriOf(w3c.RDFSClass)}) {
		s.targets = append(s.targets, target{kind: targetClass, term: s.ID})
	}
	for _, n := range c.g.Objects(s.ID, iriOf(sh.TargetNode)) {
		s.targets = append(s.targets, target{kind: targetNode, term: n})
	}
	for _, p := range c.g.Objects(s.ID, iriOf(sh.TargetSubjectsOf)) {
		s.targets = append(s.targets, target{kind: targetSubjectsOf, term: p})
	}
	for _, p := range c.g.Objects(s.ID, iriOf(sh.TargetObjectsOf)) {
		s.targets = append(s.targets, target{kind: targetObjectsOf, term: p})
	}
}

func (c *compiler) compileConstraints(s *Shape) error {
	node := s.ID
	for _, p := range c.g.Predicates(node) {
		for _, value := range c.g.Objects(node, p) {
			con, err := c.constraintFor(s, p.Value, value)
			if err != nil {
				return err
			}
			if con != nil {
				s.constraints = append(s.constraints, con)
			}
		}
	}
	return nil
}

// constraintFor compiles one parameter of s. Parameters that are read
// together with another one (sh:flags, sh:ignoredProperties, qualified
// counts) and non-constraint predicates return nil.
func (c *compiler) constraintFor(s *Shape, parameter string, value rdf.Term) (constraint, error) {
	switch parameter {
	case sh.Class:
		return classConstraint{class: value}, nil
	case sh.Datatype:
		iri, ok := value.(rdf.IRI)
		if !ok {
			return nil, fmt.Errorf("sh:datatype must be an IRI")
		}
		return datatypeConstraint{datatype: iri}, nil
	case sh.NodeKind:
		iri, ok := value.(rdf.IRI)
		if !ok || !validNodeKind(iri.Value) {
			return nil, fmt.Errorf("sh:nodeKind has unknown value %s", graph.Key(value))
		}
		return nodeKindConstraint{kind: iri}, nil
	case sh.MinCount, sh.MaxCount:
		if s.path == nil {
			return nil, fmt.Errorf("%s is only allowed on property shapes", localName(parameter))
		}
		n, err := integerParam(parameter, value)
		if err != nil {
			return nil, err
		}
		if parameter == sh.MinCount {
			return minCountConstraint{min: n}, nil
		}
		return maxCountConstraint{max: n}, nil
	case sh.MinLength, sh.MaxLength:
		n, err := integerParam(parameter, value)
		if err != nil {
			return nil, err
		}
		return lengthConstraint{limit: n, max: parameter == sh.MaxLength}, nil
	case sh.Pattern:
		return c.patternConstraint(s, value)
	case sh.LanguageIn:
		members, err := c.g.List(value)
		if err != nil {
			return nil, fmt.Errorf("sh:languageIn: %w", err)
		}
		var ranges []string
		for _, m := range members {
			lit, ok := m.(rdf.Literal)
			if !ok {
				return nil, fmt.Errorf("sh:languageIn members must be literals")
			}
			ranges = append(ranges, lit.Lexical)
		}
		return languageInConstraint{ranges: ranges}, nil
	case sh.UniqueLang:
		if s.path == nil || !isTrue(value) {
			return nil, nil
		}
		return uniqueLangConstraint{}, nil
	case sh.In:
		members, err := c.g.List(value)
		if err != nil {
			return nil, fmt.Errorf("sh:in: %w", err)
		}
		return newInConstraint(members), nil
	case sh.HasValue:
		return hasValueConstraint{value: value}, nil
	case sh.Equals, sh.Disjoint:
		iri, ok := value.(rdf.IRI)
		if !ok {
			return nil, fmt.Errorf("%s must be an IRI", localName(parameter))
		}
		return pairConstraint{predicate: iri, disjoint: parameter == sh.Disjoint}, nil
	case sh.MinInclusive, sh.MaxInclusive, sh.MinExclusive, sh.MaxExclusive:
		return newRangeConstraint(parameter, value)
	case sh.Node, sh.Not:
		ref, err := c.shape(value)
		if err != nil {
			return nil, err
		}
		if parameter == sh.Not {
			return notConstraint{shape: ref}, nil
		}
		return nodeConstraint{shape: ref}, nil
	case sh.And, sh.Or, sh.Xone:
		members, err := c.g.List(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", localName(parameter), err)
		}
		shapes := make([]*Shape, 0, len(members))
		for _, m := range members {
			ref, err := c.shape(m)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, ref)
		}
		return logicalConstraint{parameter: parameter, shapes: shapes}, nil
	case sh.Property:
		ref, err := c.shape(value)
		if err != nil {
			return nil, err
		}
		if ref.path == nil {
			return nil, fmt.Errorf("sh:property %s has no sh:path", graph.Key(value))
		}
		return propertyConstraint{shape: ref}, nil
	case sh.Closed:
		if !isTrue(value) {
			return nil, nil
		}
		return c.closedConstraint(s)
	case sh.QualifiedValueShape:
		return c.qualifiedConstraint(s, value)
	}
	return nil, nil
}

func (c *compiler) patternConstraint(s *Shape, value rdf.Term) (constraint, error) {
	lit, ok := value.(rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("sh:pattern must be a literal")
	}
	prefix := ""
	if flags, ok := c.g.Object(s.ID, iriOf(sh.Flags)); ok {
		if f, isLit := flags.(rdf.Literal); isLit {
			for _, r := range f.Lexical {
				// RE2 has no equivalent of the x and q flags
				if strings.ContainsRune("ims", r) {
					prefix += string(r)
				}
			}
		}
	}
	expr := lit.Lexical
	if prefix != "" {
		expr = "(?" + prefix + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("sh:pattern %q: %w", lit.Lexical, err)
	}
	return patternConstraint{pattern: lit.Lexical, re: re}, nil
}

func (c *compiler) closedConstraint(s *Shape) (constraint, error) {
	allowed := make(map[string]bool)
	for _, prop := range c.g.Objects(s.ID, iriOf(sh.Property)) {
		if pathNode, ok := c.g.Object(prop, iriOf(sh.Path)); ok {
			if iri, isIRI := pathNode.(rdf.IRI); isIRI {
				allowed[iri.Value] = true
			}
		}
	}
	if head, ok := c.g.Object(s.ID, iriOf(sh.IgnoredProperties)); ok {
		ignored, err := c.g.List(head)
		if err != nil {
			return nil, fmt.Errorf("sh:ignoredProperties: %w", err)
		}
		for _, p := range ignored {
			if iri, isIRI := p.(rdf.IRI); isIRI {
				allowed[iri.Value] = true
			}
		}
	}
	return closedConstraint{allowed: allowed}, nil
}

func (c *compiler) qualifiedConstraint(s *Shape, value rdf.Term) (constraint, error) {
	if s.path == nil {
		return nil, fmt.Errorf("sh:qualifiedValueShape is only allowed on property shapes")
	}
	ref, err := c.shape(value)
	if err != nil {
		return nil, err
	}
	q := qualifiedConstraint{shape: ref, min: -1, max: -1}
	if v, ok := c.g.Object(s.ID, iriOf(sh.QualifiedMinCount)); ok {
		if q.min, err = integerParam(sh.QualifiedMinCount, v); err != nil {
			return nil, err
		}
	}
	if v, ok := c.g.Object(s.ID, iriOf(sh.QualifiedMaxCount)); ok {
		if q.max, err = integerParam(sh.QualifiedMaxCount, v); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func integerParam(parameter string, value rdf.Term) (int, error) {
	lit, ok := value.(rdf.Literal)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer literal", localName(parameter))
	}
	n, err := strconv.Atoi(strings.TrimPrefix(lit.Lexical, "+"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", localName(parameter), lit.Lexical)
	}
	return n, nil
}

func isTrue(t rdf.Term) bool {
	lit, ok := t.(rdf.Literal)
	return ok && (lit.Lexical == "true" || lit.Lexical == "1")
}

func validNodeKind(v string) bool {
	switch v {
	case sh.NodeKindIRI, sh.NodeKindBlankNode, sh.NodeKindLiteral,
		sh.NodeKindBlankNodeOrIRI, sh.NodeKindBlankNodeOrLiteral, sh.NodeKindIRIOrLiteral:
		return true
	}
	return false
}

// localName returns the part of an IRI after the last '#' or '/'.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
