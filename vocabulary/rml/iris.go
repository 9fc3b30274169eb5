// Package rml holds the R2RML and RML namespaces and the classes and
// predicates referenced by the bundled mapping shapes.
package rml

// Namespace IRIs.
const (
	// R2RMLNamespace is the W3C R2RML vocabulary (prefix rr:).
	R2RMLNamespace = "http://www.w3.org/ns/r2rml#"

	// RMLNamespace is the RML extension vocabulary (prefix rml:).
	RMLNamespace = "http://semweb.mmlab.be/ns/rml#"

	// QLNamespace is the query language vocabulary used by rml:referenceFormulation (prefix ql:).
	QLNamespace = "http://semweb.mmlab.be/ns/ql#"
)

// Classes.
const (
	ClassTriplesMap         = R2RMLNamespace + "TriplesMap"
	ClassSubjectMap         = R2RMLNamespace + "SubjectMap"
	ClassPredicateObjectMap = R2RMLNamespace + "PredicateObjectMap"
	ClassLogicalSource      = RMLNamespace + "LogicalSource"
)

// Predicates.
const (
	LogicalTable       = R2RMLNamespace + "logicalTable"
	SubjectMap         = R2RMLNamespace + "subjectMap"
	PredicateObjectMap = R2RMLNamespace + "predicateObjectMap"
	Predicate          = R2RMLNamespace + "predicate"
	PredicateMap       = R2RMLNamespace + "predicateMap"
	ObjectMap          = R2RMLNamespace + "objectMap"
	Object             = R2RMLNamespace + "object"
	Template           = R2RMLNamespace + "template"
	Constant           = R2RMLNamespace + "constant"
	Column             = R2RMLNamespace + "column"
	TermType           = R2RMLNamespace + "termType"
	ParentTriplesMap   = R2RMLNamespace + "parentTriplesMap"
	LogicalSource      = RMLNamespace + "logicalSource"
	Source             = RMLNamespace + "source"
	Reference          = RMLNamespace + "reference"
	Iterator           = RMLNamespace + "iterator"
	ReferenceFormula   = RMLNamespace + "referenceFormulation"
)

// Prefixes maps the conventional prefix of each namespace, used when
// writing Turtle reports.
var Prefixes = map[string]string{
	"rr":  R2RMLNamespace,
	"rml": RMLNamespace,
	"ql":  QLNamespace,
}
