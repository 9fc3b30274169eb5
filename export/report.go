package export

import (
	"bytes"
	"fmt"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/spf13/afero"

	"github.com/c360studio/rmlvalidate/graph"
	"github.com/c360studio/rmlvalidate/runner"
	"github.com/c360studio/rmlvalidate/vocabulary/shacl"
	"github.com/c360studio/rmlvalidate/vocabulary/w3c"
)

// ReportGraph collects the SHACL report of every validated graph of a run
// into one graph. Each sh:ValidationReport carries the run ID and, for
// per-document reports, the document's file IRI as dcterms:source.
func ReportGraph(s *runner.Summary) *graph.Graph {
	out := graph.New()
	for _, o := range s.Outcomes {
		if o.Report == nil {
			continue
		}

		rg := o.Report.Graph()
		for _, report := range rg.Subjects(rdf.IRI{Value: w3c.RDFType}, rdf.IRI{Value: shacl.ClassValidationReport}) {
			rg.Add(rdf.Triple{S: report, P: rdf.IRI{Value: w3c.DCIdentifier}, O: rdf.Literal{Lexical: s.RunID}})
			if o.Path != "" {
				rg.Add(rdf.Triple{S: report, P: rdf.IRI{Value: w3c.DCSource}, O: rdf.IRI{Value: graph.FileIRI(o.Path)}})
			}
		}
		out.MergeScoped(rg)
	}
	return out
}

// WriteFile serializes g to path on fs, replacing any previous content.
func WriteFile(fs afero.Fs, path string, g *graph.Graph, format Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, g, format); err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report graph: %w", err)
	}
	return nil
}
