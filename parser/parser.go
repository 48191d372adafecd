// Package parser extracts plain text from policy document files.
// The triplet extractor consumes whole-document text, so parsers flatten
// their source format into one string rather than structured sections.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no registered parser.
var ErrUnsupportedFormat = errors.New("parser: unsupported document format")

// Parser can extract text from a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}

// Registry maps file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a registry with all built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(&PDFParser{})
	r.Register(&TextParser{})
	r.Register(&XLSXParser{})
	return r
}

// Register adds a parser for each of its supported formats.
func (r *Registry) Register(p Parser) {
	for _, f := range p.SupportedFormats() {
		r.parsers[f] = p
	}
}

// ParserFor returns the parser for a file path based on its extension.
func (r *Registry) ParserFor(path string) (Parser, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	p, ok := r.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return p, nil
}

// Parse extracts text from a single file using the format-appropriate parser.
func (r *Registry) Parse(ctx context.Context, path string) (string, error) {
	p, err := r.ParserFor(path)
	if err != nil {
		return "", err
	}
	return p.Parse(ctx, path)
}

// ParseDir extracts text from every supported file in dir, keyed by base
// filename. Files with unsupported extensions are skipped; per-file parse
// errors are reported through onError (which may be nil) and do not abort
// the rest of the batch.
func (r *Registry) ParseDir(ctx context.Context, dir string, onError func(path string, err error)) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading documents dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name)
		p, err := r.ParserFor(path)
		if err != nil {
			continue // not a document format we know
		}
		text, err := p.Parse(ctx, path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			continue
		}
		docs[name] = text
	}

	return docs, nil
}
