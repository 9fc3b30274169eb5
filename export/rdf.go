// Package export serializes SHACL validation reports to Turtle, N-Triples
// and JSON-LD.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/piprate/json-gold/ld"

	"github.com/c360studio/rmlvalidate/graph"
	"github.com/c360studio/rmlvalidate/vocabulary/rml"
	"github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	prefixes := map[string]string{
		"rdf":     w3c.RDFNamespace,
		"rdfs":    w3c.RDFSNamespace,
		"xsd":     w3c.XSDNamespace,
		"dcterms": w3c.DCNamespace,
		"sh":      shacl.Namespace,
	}
	for prefix, iri := range rml.Prefixes {
		prefixes[prefix] = iri
	}
	return prefixes
}

// TurtleWriter writes RDF in Turtle format, grouping triples by subject.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with default prefixes.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{
		prefixes: defaultPrefixes(),
	}
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	// Sort prefixes for consistent output
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", prefix, w.prefixes[prefix])
	}
	w.sb.WriteString("\n")
}

// WriteGraph writes one block per subject, in the order subjects first
// appear in g.
func (w *TurtleWriter) WriteGraph(g *graph.Graph) {
	var subjects []rdf.Term
	seen := make(map[string]bool)
	for _, t := range g.Triples() {
		if k := graph.Key(t.S); !seen[k] {
			seen[k] = true
			subjects = append(subjects, t.S)
		}
	}

	for _, s := range subjects {
		w.sb.WriteString(w.term(s))
		w.sb.WriteString("\n")

		predicates := g.Predicates(s)
		for i, p := range predicates {
			objects := g.Objects(s, p)
			rendered := make([]string, len(objects))
			for j, o := range objects {
				rendered[j] = w.term(o)
			}

			terminator := " ;"
			if i == len(predicates)-1 {
				terminator = " ."
			}
			fmt.Fprintf(&w.sb, "    %s %s%s\n", w.predicate(p), strings.Join(rendered, " , "), terminator)
		}
		w.sb.WriteString("\n")
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func (w *TurtleWriter) predicate(p rdf.IRI) string {
	if p.Value == w3c.RDFType {
		return "a"
	}
	return w.iri(p.Value)
}

func (w *TurtleWriter) term(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return w.iri(v.Value)
	case rdf.BlankNode:
		return "_:" + v.ID
	case rdf.Literal:
		lexical := `"` + escapeString(v.Lexical) + `"`
		switch {
		case v.Lang != "":
			return lexical + "@" + v.Lang
		case v.Datatype.Value == "" || v.Datatype.Value == w3c.XSDString:
			return lexical
		default:
			return lexical + "^^" + w.iri(v.Datatype.Value)
		}
	case rdf.TripleTerm:
		return "<< " + w.term(v.S) + " " + w.iri(v.P.Value) + " " + w.term(v.O) + " >>"
	default:
		return graph.Key(t)
	}
}

// iri returns a prefixed name when a prefix covers iri and the local part
// needs no escaping, the full <iri> otherwise.
func (w *TurtleWriter) iri(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range w.prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS != "" {
		if local := iri[len(bestNS):]; plainLocalName(local) {
			return best + ":" + local
		}
	}
	return "<" + iri + ">"
}

func plainLocalName(local string) bool {
	if local == "" {
		return false
	}
	for i, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// escapeString escapes special characters for Turtle and N-Triples strings.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func writeTurtle(w io.Writer, g *graph.Graph) error {
	tw := NewTurtleWriter()
	tw.WritePrefixes()
	tw.WriteGraph(g)
	_, err := io.WriteString(w, tw.String())
	return err
}

func writeNTriples(w io.Writer, g *graph.Graph) error {
	enc, err := rdf.NewWriter(w, rdf.FormatNTriples)
	if err != nil {
		return err
	}
	for _, t := range g.Triples() {
		if err := enc.Write(rdf.Statement{S: t.S, P: t.P, O: t.O}); err != nil {
			enc.Close()
			return err
		}
	}
	if err := enc.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// writeJSONLD converts g to JSON-LD through json-gold and compacts it with
// the default prefixes as context.
func writeJSONLD(w io.Writer, g *graph.Graph) error {
	var nquads bytes.Buffer
	if err := writeNTriples(&nquads, g); err != nil {
		return err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	doc, err := proc.FromRDF(nquads.String(), opts)
	if err != nil {
		return fmt.Errorf("from rdf: %w", err)
	}

	context := make(map[string]any)
	for prefix, iri := range defaultPrefixes() {
		context[prefix] = iri
	}
	compacted, err := proc.Compact(doc, map[string]any{"@context": context}, ld.NewJsonLdOptions(""))
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(compacted)
}
