package runner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// TurtleExtension is the suffix a file needs to be picked up from a
// directory walk. The match is literal and case-sensitive.
const TurtleExtension = ".ttl"

// Document is one resolved input.
type Document struct {
	// Path is the file to load.
	Path string

	// Discovered is true for files found by walking a directory, false for
	// paths named explicitly.
	Discovered bool

	// Err is set when the input could not be resolved; such documents are
	// reported as load failures.
	Err error
}

// Discover expands paths into documents, preserving the order of paths.
// Explicit files are taken as-is whatever their extension; directories are
// walked recursively in lexical order and only .ttl files not matching an
// exclude pattern are kept. Exclude patterns use doublestar syntax and are
// matched against the slash-separated path relative to the walked
// directory. A path that is neither a file nor a directory, including one
// that does not exist, is skipped.
func Discover(fs afero.Fs, paths []string, excludes []string, logger *slog.Logger) []Document {
	if logger == nil {
		logger = slog.Default()
	}
	var docs []Document
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			logger.Debug("Skipping path", "path", p, "error", err)
			continue
		}

		switch {
		case info.Mode().IsRegular():
			docs = append(docs, Document{Path: p})
		case info.IsDir():
			docs = append(docs, walk(fs, p, excludes)...)
		default:
			logger.Debug("Skipping path", "path", p, "mode", info.Mode().String())
		}
	}
	return docs
}

func walk(fs afero.Fs, root string, excludes []string) []Document {
	var docs []Document
	// afero.Walk visits entries in lexical order
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			docs = append(docs, Document{Path: path, Discovered: true, Err: err})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), TurtleExtension) {
			return nil
		}
		if excluded(root, path, excludes) {
			return nil
		}
		docs = append(docs, Document{Path: path, Discovered: true})
		return nil
	})
	if err != nil {
		docs = append(docs, Document{Path: root, Discovered: true, Err: err})
	}
	return docs
}

func excluded(root, path string, excludes []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// ValidateExcludes checks that every exclude pattern is well formed.
func ValidateExcludes(excludes []string) error {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}
