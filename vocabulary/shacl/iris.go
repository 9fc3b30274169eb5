package shacl

// Namespace is the base IRI of the SHACL vocabulary.
const Namespace = "http://www.w3.org/ns/shacl#"

// Classes.
const (
	ClassNodeShape        = Namespace + "NodeShape"
	ClassPropertyShape    = Namespace + "PropertyShape"
	ClassValidationReport = Namespace + "ValidationReport"
	ClassValidationResult = Namespace + "ValidationResult"
)

// Severities.
const (
	Violation = Namespace + "Violation"
	Warning   = Namespace + "Warning"
	Info      = Namespace + "Info"
)

// Node kinds used as values of sh:nodeKind.
const (
	NodeKindIRI                = Namespace + "IRI"
	NodeKindBlankNode          = Namespace + "BlankNode"
	NodeKindLiteral            = Namespace + "Literal"
	NodeKindBlankNodeOrIRI     = Namespace + "BlankNodeOrIRI"
	NodeKindBlankNodeOrLiteral = Namespace + "BlankNodeOrLiteral"
	NodeKindIRIOrLiteral       = Namespace + "IRIOrLiteral"
)

// Target and shape structure predicates.
const (
	TargetClass       = Namespace + "targetClass"
	TargetNode        = Namespace + "targetNode"
	TargetSubjectsOf  = Namespace + "targetSubjectsOf"
	TargetObjectsOf   = Namespace + "targetObjectsOf"
	Property          = Namespace + "property"
	Path              = Namespace + "path"
	Severity          = Namespace + "severity"
	Message           = Namespace + "message"
	Deactivated       = Namespace + "deactivated"
	InversePath       = Namespace + "inversePath"
	AlternativePath   = Namespace + "alternativePath"
	ZeroOrMorePath    = Namespace + "zeroOrMorePath"
	OneOrMorePath     = Namespace + "oneOrMorePath"
	ZeroOrOnePath     = Namespace + "zeroOrOnePath"
	IgnoredProperties = Namespace + "ignoredProperties"
)

// Constraint parameters.
const (
	Class                  = Namespace + "class"
	Datatype               = Namespace + "datatype"
	NodeKind               = Namespace + "nodeKind"
	MinCount               = Namespace + "minCount"
	MaxCount               = Namespace + "maxCount"
	MinLength              = Namespace + "minLength"
	MaxLength              = Namespace + "maxLength"
	Pattern                = Namespace + "pattern"
	Flags                  = Namespace + "flags"
	LanguageIn             = Namespace + "languageIn"
	UniqueLang             = Namespace + "uniqueLang"
	In                     = Namespace + "in"
	HasValue               = Namespace + "hasValue"
	Equals                 = Namespace + "equals"
	Disjoint               = Namespace + "disjoint"
	MinInclusive           = Namespace + "minInclusive"
	MaxInclusive           = Namespace + "maxInclusive"
	MinExclusive           = Namespace + "minExclusive"
	MaxExclusive           = Namespace + "maxExclusive"
	Node                   = Namespace + "node"
	Not                    = Namespace + "not"
	And                    = Namespace + "and"
	Or                     = Namespace + "or"
	Xone                   = Namespace + "xone"
	Closed                 = Namespace + "closed"
	QualifiedValueShape    = Namespace + "qualifiedValueShape"
	QualifiedMinCount      = Namespace + "qualifiedMinCount"
	QualifiedMaxCount      = Namespace + "qualifiedMaxCount"
)

// Constraint component IRIs reported as sh:sourceConstraintComponent.
const (
	ClassConstraintComponent               = Namespace + "ClassConstraintComponent"
	DatatypeConstraintComponent            = Namespace + "DatatypeConstraintComponent"
	NodeKindConstraintComponent            = Namespace + "NodeKindConstraintComponent"
	MinCountConstraintComponent            = Namespace + "MinCountConstraintComponent"
	MaxCountConstraintComponent            = Namespace + "MaxCountConstraintComponent"
	MinLengthConstraintComponent           = Namespace + "MinLengthConstraintComponent"
	MaxLengthConstraintComponent           = Namespace + "MaxLengthConstraintComponent"
	PatternConstraintComponent             = Namespace + "PatternConstraintComponent"
	LanguageInConstraintComponent          = Namespace + "LanguageInConstraintComponent"
	UniqueLangConstraintComponent          = Namespace + "UniqueLangConstraintComponent"
	InConstraintComponent                  = Namespace + "InConstraintComponent"
	HasValueConstraintComponent            = Namespace + "HasValueConstraintComponent"
	EqualsConstraintComponent              = Namespace + "EqualsConstraintComponent"
	DisjointConstraintComponent            = Namespace + "DisjointConstraintComponent"
	MinInclusiveConstraintComponent        = Namespace + "MinInclusiveConstraintComponent"
	MaxInclusiveConstraintComponent        = Namespace + "MaxInclusiveConstraintComponent"
	MinExclusiveConstraintComponent        = Namespace + "MinExclusiveConstraintComponent"
	MaxExclusiveConstraintComponent        = Namespace + "MaxExclusiveConstraintComponent"
	NodeConstraintComponent                = Namespace + "NodeConstraintComponent"
	NotConstraintComponent                 = Namespace + "NotConstraintComponent"
	AndConstraintComponent                 = Namespace + "AndConstraintComponent"
	OrConstraintComponent                  = Namespace + "OrConstraintComponent"
	XoneConstraintComponent                = Namespace + "XoneConstraintComponent"
	ClosedConstraintComponent              = Namespace + "ClosedConstraintComponent"
	QualifiedMinCountConstraintComponent   = Namespace + "QualifiedMinCountConstraintComponent"
	QualifiedMaxCountConstraintComponent   = Namespace + "QualifiedMaxCountConstraintComponent"
)

// Validation report predicates.
const (
	Conforms                  = Namespace + "conforms"
	Result                    = Namespace + "result"
	FocusNode                 = Namespace + "focusNode"
	ResultPath                = Namespace + "resultPath"
	Value                     = Namespace + "value"
	SourceShape               = Namespace + "sourceShape"
	SourceConstraintComponent = Namespace + "sourceConstraintComponent"
	ResultSeverity            = Namespace + "resultSeverity"
	ResultMessage             = Namespace + "resultMessage"
)
