package shacl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/c360studio/rmlvalidate/graph"
	sh "github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// constraint is one compiled constraint component of a shape. values are
// the value nodes of focus: the focus itself for node shapes, the nodes
// reached through the path for property shapes.
type constraint interface {
	validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result
}

type classConstraint struct{ class rdf.Term }

func (c classConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		if !ev.instanceOf(v, c.class) {
			out = append(out, s.result(focus, v, sh.ClassConstraintComponent,
				fmt.Sprintf("Value does not have class %s", graph.Key(c.class))))
		}
	}
	return out
}

type datatypeConstraint struct{ datatype rdf.IRI }

func (c datatypeConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		lit, ok := v.(rdf.Literal)
		if !ok || effectiveDatatype(lit) != c.datatype.Value || !wellFormed(lit) {
			out = append(out, s.result(focus, v, sh.DatatypeConstraintComponent,
				fmt.Sprintf("Value is not Literal with datatype %s", graph.Key(c.datatype))))
		}
	}
	return out
}

func effectiveDatatype(lit rdf.Literal) string {
	switch {
	case lit.Lang != "":
		return w3c.RDFLangString
	case lit.Datatype.Value == "":
		return w3c.XSDString
	default:
		return lit.Datatype.Value
	}
}

var (
	integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalLexical = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
)

// wellFormed checks the lexical form of the XSD datatypes that mapping
// documents commonly use. Other datatypes are accepted as written.
func wellFormed(lit rdf.Literal) bool {
	switch lit.Datatype.Value {
	case w3c.XSDInteger:
		return integerLexical.MatchString(lit.Lexical)
	case w3c.XSDDecimal:
		return decimalLexical.MatchString(lit.Lexical)
	case w3c.XSDBoolean:
		switch lit.Lexical {
		case "true", "false", "1", "0":
			return true
		}
		return false
	case w3c.XSDDouble, w3c.XSDFloat:
		switch lit.Lexical {
		case "INF", "+INF", "-INF", "NaN":
			return true
		}
		_, err := strconv.ParseFloat(lit.Lexical, 64)
		return err == nil
	}
	return true
}

type nodeKindConstraint struct{ kind rdf.IRI }

func (c nodeKindConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		if !matchesNodeKind(v, c.kind.Value) {
			out = append(out, s.result(focus, v, sh.NodeKindConstraintComponent,
				fmt.Sprintf("Value is not of Node Kind sh:%s", localName(c.kind.Value))))
		}
	}
	return out
}

func matchesNodeKind(v rdf.Term, kind string) bool {
	_, isIRI := v.(rdf.IRI)
	_, isBlank := v.(rdf.BlankNode)
	_, isLiteral := v.(rdf.Literal)
	switch kind {
	case sh.NodeKindIRI:
		return isIRI
	case sh.NodeKindBlankNode:
		return isBlank
	case sh.NodeKindLiteral:
		return isLiteral
	case sh.NodeKindBlankNodeOrIRI:
		return isBlank || isIRI
	case sh.NodeKindBlankNodeOrLiteral:
		return isBlank || isLiteral
	case sh.NodeKindIRIOrLiteral:
		return isIRI || isLiteral
	}
	return false
}

type minCountConstraint struct{ min int }

func (c minCountConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	if len(values) >= c.min {
		return nil
	}
	return []Result{s.result(focus, nil, sh.MinCountConstraintComponent,
		fmt.Sprintf("Less than %d values on %s->%s", c.min, graph.Key(focus), s.path))}
}

type maxCountConstraint struct{ max int }

func (c maxCountConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	if len(values) <= c.max {
		return nil
	}
	return []Result{s.result(focus, nil, sh.MaxCountConstraintComponent,
		fmt.Sprintf("More than %d values on %s->%s", c.max, graph.Key(focus), s.path))}
}

type lengthConstraint struct {
	limit int
	max   bool
}

func (c lengthConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	component, op := sh.MinLengthConstraintComponent, ">="
	if c.max {
		component, op = sh.MaxLengthConstraintComponent, "<="
	}

	var out []Result
	for _, v := range values {
		text, ok := stringValue(v)
		n := utf8.RuneCountInString(text)
		if ok && ((c.max && n <= c.limit) || (!c.max && n >= c.limit)) {
			continue
		}
		out = append(out, s.result(focus, v, component, fmt.Sprintf("String length not %s %d", op, c.limit)))
	}
	return out
}

// stringValue returns the string form of an IRI or literal. Blank nodes
// have none.
func stringValue(v rdf.Term) (string, bool) {
	switch t := v.(type) {
	case rdf.IRI:
		return t.Value, true
	case rdf.Literal:
		return t.Lexical, true
	}
	return "", false
}

type patternConstraint struct {
	pattern string
	re      *regexp.Regexp
}

func (c patternConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		text, ok := stringValue(v)
		if ok && c.re.MatchString(text) {
			continue
		}
		out = append(out, s.result(focus, v, sh.PatternConstraintComponent,
			fmt.Sprintf("Value does not match pattern %q", c.pattern)))
	}
	return out
}

type languageInConstraint struct{ ranges []string }

func (c languageInConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		lit, ok := v.(rdf.Literal)
		if ok && lit.Lang != "" && c.matches(lit.Lang) {
			continue
		}
		out = append(out, s.result(focus, v, sh.LanguageInConstraintComponent,
			fmt.Sprintf("String language is not in [%s]", strings.Join(c.ranges, ", "))))
	}
	return out
}

// matches implements basic language range matching.
func (c languageInConstraint) matches(tag string) bool {
	tag = strings.ToLower(tag)
	for _, r := range c.ranges {
		r = strings.ToLower(r)
		if r == "*" || tag == r || strings.HasPrefix(tag, r+"-") {
			return true
		}
	}
	return false
}

type uniqueLangConstraint struct{}

func (uniqueLangConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		lit, ok := v.(rdf.Literal)
		if !ok || lit.Lang == "" {
			continue
		}
		lang := strings.ToLower(lit.Lang)
		if counts[lang] == 0 {
			order = append(order, lang)
		}
		counts[lang]++
	}

	var out []Result
	for _, lang := range order {
		if counts[lang] > 1 {
			out = append(out, s.result(focus, nil, sh.UniqueLangConstraintComponent,
				fmt.Sprintf("More than one String shares language %q", lang)))
		}
	}
	return out
}

type inConstraint struct {
	members []rdf.Term
	allowed map[string]bool
}

func newInConstraint(members []rdf.Term) inConstraint {
	allowed := make(map[string]bool, len(members))
	for _, m := range members {
		allowed[graph.Key(m)] = true
	}
	return inConstraint{members: members, allowed: allowed}
}

func (c inConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		if !c.allowed[graph.Key(v)] {
			out = append(out, s.result(focus, v, sh.InConstraintComponent,
				fmt.Sprintf("Value is not in [%s]", renderTerms(c.members))))
		}
	}
	return out
}

type hasValueConstraint struct{ value rdf.Term }

func (c hasValueConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	for _, v := range values {
		if graph.Equal(v, c.value) {
			return nil
		}
	}
	msg := fmt.Sprintf("Node %s does not contain value %s", graph.Key(focus), graph.Key(c.value))
	if s.path != nil {
		msg = fmt.Sprintf("Node %s->%s does not contain value %s", graph.Key(focus), s.path, graph.Key(c.value))
	}
	return []Result{s.result(focus, nil, sh.HasValueConstraintComponent, msg)}
}

// pairConstraint implements sh:equals and sh:disjoint.
type pairConstraint struct {
	predicate rdf.IRI
	disjoint  bool
}

func (c pairConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	other := ev.data.Objects(focus, c.predicate)
	otherSet := keySet(other)

	var out []Result
	if c.disjoint {
		for _, v := range values {
			if otherSet[graph.Key(v)] {
				out = append(out, s.result(focus, v, sh.DisjointConstraintComponent,
					fmt.Sprintf("Value %s is also a value of %s", graph.Key(v), graph.Key(c.predicate))))
			}
		}
		return out
	}

	valueSet := keySet(values)
	mismatch := func(v rdf.Term) Result {
		return s.result(focus, v, sh.EqualsConstraintComponent,
			fmt.Sprintf("Value %s is not shared with %s", graph.Key(v), graph.Key(c.predicate)))
	}
	for _, v := range values {
		if !otherSet[graph.Key(v)] {
			out = append(out, mismatch(v))
		}
	}
	for _, v := range other {
		if !valueSet[graph.Key(v)] {
			out = append(out, mismatch(v))
		}
	}
	return out
}

func keySet(terms []rdf.Term) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[graph.Key(t)] = true
	}
	return set
}

// rangeConstraint implements the four numeric range components.
type rangeConstraint struct {
	component string
	bound     float64
	lexical   string
	accept    func(v, bound float64) bool
	op        string
}

func newRangeConstraint(parameter string, value rdf.Term) (constraint, error) {
	bound, ok := numericValue(value)
	if !ok {
		return nil, fmt.Errorf("%s must be a numeric literal", localName(parameter))
	}
	c := rangeConstraint{bound: bound, lexical: value.(rdf.Literal).Lexical}
	switch parameter {
	case sh.MinInclusive:
		c.component, c.op, c.accept = sh.MinInclusiveConstraintComponent, ">=", func(v, b float64) bool { return v >= b }
	case sh.MaxInclusive:
		c.component, c.op, c.accept = sh.MaxInclusiveConstraintComponent, "<=", func(v, b float64) bool { return v <= b }
	case sh.MinExclusive:
		c.component, c.op, c.accept = sh.MinExclusiveConstraintComponent, ">", func(v, b float64) bool { return v > b }
	default:
		c.component, c.op, c.accept = sh.MaxExclusiveConstraintComponent, "<", func(v, b float64) bool { return v < b }
	}
	return c, nil
}

func (c rangeConstraint) validate(_ *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		n, ok := numericValue(v)
		if ok && c.accept(n, c.bound) {
			continue
		}
		out = append(out, s.result(focus, v, c.component, fmt.Sprintf("Value is not %s %s", c.op, c.lexical)))
	}
	return out
}

func numericValue(t rdf.Term) (float64, bool) {
	lit, ok := t.(rdf.Literal)
	if !ok || lit.Lang != "" {
		return 0, false
	}
	switch lit.Datatype.Value {
	case w3c.XSDInteger, w3c.XSDDecimal, w3c.XSDDouble, w3c.XSDFloat:
	default:
		if !strings.HasPrefix(lit.Datatype.Value, w3c.XSDNamespace) || !isDerivedNumeric(lit.Datatype.Value) {
			return 0, false
		}
	}
	n, err := strconv.ParseFloat(strings.TrimPrefix(lit.Lexical, "+"), 64)
	return n, err == nil
}

func isDerivedNumeric(datatype string) bool {
	switch strings.TrimPrefix(datatype, w3c.XSDNamespace) {
	case "int", "long", "short", "byte", "nonNegativeInteger", "positiveInteger",
		"nonPositiveInteger", "negativeInteger", "unsignedInt", "unsignedLong",
		"unsignedShort", "unsignedByte":
		return true
	}
	return false
}

type nodeConstraint struct{ shape *Shape }

func (c nodeConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		if !ev.conforms(c.shape, v) {
			out = append(out, s.result(focus, v, sh.NodeConstraintComponent,
				fmt.Sprintf("Value does not conform to Shape %s", graph.Key(c.shape.ID))))
		}
	}
	return out
}

type notConstraint struct{ shape *Shape }

func (c notConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		if ev.conforms(c.shape, v) {
			out = append(out, s.result(focus, v, sh.NotConstraintComponent,
				fmt.Sprintf("Node %s conforms to shape %s", graph.Key(v), graph.Key(c.shape.ID))))
		}
	}
	return out
}

// logicalConstraint implements sh:and, sh:or and sh:xone.
type logicalConstraint struct {
	parameter string
	shapes    []*Shape
}

func (c logicalConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	ids := make([]rdf.Term, len(c.shapes))
	for i, ref := range c.shapes {
		ids[i] = ref.ID
	}

	var out []Result
	for _, v := range values {
		passed := 0
		for _, ref := range c.shapes {
			if ev.conforms(ref, v) {
				passed++
			}
		}

		var component, msg string
		switch c.parameter {
		case sh.And:
			if passed == len(c.shapes) {
				continue
			}
			component, msg = sh.AndConstraintComponent, "does not conform to all shapes in"
		case sh.Or:
			if passed > 0 {
				continue
			}
			component, msg = sh.OrConstraintComponent, "does not conform to one or more shapes in"
		default:
			if passed == 1 {
				continue
			}
			component, msg = sh.XoneConstraintComponent, "does not conform to exactly one shape in"
		}
		out = append(out, s.result(focus, v, component,
			fmt.Sprintf("Node %s %s [%s]", graph.Key(v), msg, renderTerms(ids))))
	}
	return out
}

// propertyConstraint validates each value node against a nested property
// shape. Results are reported with the nested shape as their source.
type propertyConstraint struct{ shape *Shape }

func (c propertyConstraint) validate(ev *evaluation, _ *Shape, _ rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		out = append(out, ev.validate(c.shape, v)...)
	}
	return out
}

type closedConstraint struct{ allowed map[string]bool }

func (c closedConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	var out []Result
	for _, v := range values {
		for _, t := range ev.data.Match(v, nil, nil) {
			if c.allowed[t.P.Value] {
				continue
			}
			r := s.result(focus, t.O, sh.ClosedConstraintComponent,
				fmt.Sprintf("Node %s is closed. It cannot have value: %s", graph.Key(v), graph.Key(t.O)))
			r.path = predicatePath{iri: t.P}
			r.Path = r.path.String()
			out = append(out, r)
		}
	}
	return out
}

type qualifiedConstraint struct {
	shape    *Shape
	min, max int
}

func (c qualifiedConstraint) validate(ev *evaluation, s *Shape, focus rdf.Term, values []rdf.Term) []Result {
	conforming := 0
	for _, v := range values {
		if ev.conforms(c.shape, v) {
			conforming++
		}
	}

	var out []Result
	if c.min >= 0 && conforming < c.min {
		out = append(out, s.result(focus, nil, sh.QualifiedMinCountConstraintComponent,
			fmt.Sprintf("Focus node does not conform to at least %d values of %s", c.min, graph.Key(c.shape.ID))))
	}
	if c.max >= 0 && conforming > c.max {
		out = append(out, s.result(focus, nil, sh.QualifiedMaxCountConstraintComponent,
			fmt.Sprintf("Focus node conforms to more than %d values of %s", c.max, graph.Key(c.shape.ID))))
	}
	return out
}

func renderTerms(terms []rdf.Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = graph.Key(t)
	}
	return strings.Join(parts, ", ")
}
