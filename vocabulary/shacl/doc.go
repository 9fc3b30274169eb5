// Package shacl defines the IRIs of the W3C Shapes Constraint Language vocabulary.
//
// Only the terms understood by the shape engine are listed. Constraint component
// IRIs follow the parameter they are keyed on, e.g. MinCount is validated by
// MinCountConstraintComponent.
package shacl
