package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/spf13/afero"
)

// Load parses Turtle from r and merges the triples into g. It returns the
// number of triples read.
//
// Relative IRIs resolve against base unless the document declares its own
// @base; an empty base leaves them as written. Blank nodes are renamed into
// a scope owned by this call, so two documents using the same label (or the
// parser's anonymous-node counter) never share a node. On error g is left
// unchanged.
func (g *Graph) Load(ctx context.Context, r io.Reader, base string, opts ...rdf.Option) (int, error) {
	header := ""
	if base != "" {
		// The parser reads one statement per line, so the directive needs
		// its own line.
		header = "@base <" + base + "> .\n"
		r = io.MultiReader(strings.NewReader(header), r)
	}

	scratch := New()
	err := rdf.Parse(ctx, r, rdf.FormatTurtle, func(st rdf.Statement) error {
		scratch.Add(st.AsTriple())
		return nil
	}, opts...)
	if err != nil {
		return 0, documentPosition(err, header)
	}

	g.MergeScoped(scratch)
	return scratch.Len(), nil
}

// documentPosition shifts the position of a parse error back past header,
// so it points into the document as the user wrote it.
func documentPosition(err error, header string) error {
	var pe *rdf.ParseError
	if header == "" || !errors.As(err, &pe) {
		return err
	}
	if pe.Line > 1 {
		pe.Line--
	}
	if pe.Offset >= len(header) {
		pe.Offset -= len(header)
	}
	return err
}

// LoadFile opens path on fs and loads it into g, resolving relative IRIs
// against the file's own file:// IRI.
func LoadFile(ctx context.Context, fs afero.Fs, path string, g *Graph, opts ...rdf.Option) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := g.Load(ctx, f, FileIRI(path), opts...)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

// FileIRI returns the file:// IRI of path.
func FileIRI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

func scoped(t rdf.Term, scope string) rdf.Term {
	switch v := t.(type) {
	case rdf.BlankNode:
		return rdf.BlankNode{ID: scope + v.ID}
	case rdf.TripleTerm:
		return rdf.TripleTerm{S: scoped(v.S, scope), P: v.P, O: scoped(v.O, scope)}
	default:
		return t
	}
}
