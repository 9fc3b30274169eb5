// Package w3c holds the RDF, RDFS, XSD and Dublin Core terms the validator
// needs.
package w3c

// Namespace IRIs for the core W3C vocabularies.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	DCNamespace   = "http://purl.org/dc/terms/"
)

// RDF terms.
const (
	RDFType       = RDFNamespace + "type"
	RDFFirst      = RDFNamespace + "first"
	RDFRest       = RDFNamespace + "rest"
	RDFNil        = RDFNamespace + "nil"
	RDFLangString = RDFNamespace + "langString"
)

// RDFS terms.
const (
	RDFSClass      = RDFSNamespace + "Class"
	RDFSSubClassOf = RDFSNamespace + "subClassOf"
)

// XSD datatypes with lexical checks in the shape engine.
const (
	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDInteger  = XSDNamespace + "integer"
	XSDDecimal  = XSDNamespace + "decimal"
	XSDDouble   = XSDNamespace + "double"
	XSDFloat    = XSDNamespace + "float"
	XSDDate     = XSDNamespace + "date"
	XSDDateTime = XSDNamespace + "dateTime"
)

// Dublin Core terms used to annotate exported reports.
const (
	DCSource     = DCNamespace + "source"
	DCIdentifier = DCNamespace + "identifier"
	DCCreated    = DCNamespace + "created"
)
