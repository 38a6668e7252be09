package sourcemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sourcemap/sourcemap"
)

// ErrInvalidMap is returned when a map document cannot be read.
var ErrInvalidMap = errors.New("invalid source map")

// Document is the subset of a version 3 source map that composition rewrites.
type Document struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Parse decodes a map document.
func Parse(text string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	if doc.Version != 3 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidMap, doc.Version)
	}
	return &doc, nil
}

// String encodes the document as compact JSON.
func (d *Document) String() string {
	if d.Sources == nil {
		d.Sources = []string{}
	}
	if d.Names == nil {
		d.Names = []string{}
	}
	// Marshal cannot fail: every field is a string, int or string slice.
	b, _ := json.Marshal(d)
	return string(b)
}

// Compose returns a map from the generated positions of outer to the
// original positions recorded in prev. outer describes a transform whose
// input was the output described by prev. Segments of outer that have no
// counterpart in prev are dropped. An empty prev returns outer unchanged.
func Compose(outer, prev string) (string, error) {
	if strings.TrimSpace(prev) == "" {
		return outer, nil
	}

	doc, err := Parse(outer)
	if err != nil {
		return "", fmt.Errorf("reading transform map: %w", err)
	}
	if err := checkIndexes(prev); err != nil {
		return "", fmt.Errorf("reading previous map: %w", err)
	}
	consumer, err := sourcemap.Parse("", []byte(prev))
	if err != nil {
		return "", fmt.Errorf("%w: reading previous map: %v", ErrInvalidMap, err)
	}
	segments, err := DecodeMappings(doc.Mappings)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	idx := newIndex()
	composed := make([]Mapping, 0, len(segments))
	for _, seg := range segments {
		if seg.Source < 0 {
			continue
		}
		source, name, line, column, ok := consumer.Source(seg.SourceLine+1, seg.SourceColumn)
		if !ok || source == "" {
			continue
		}
		m := Mapping{
			GenLine:      seg.GenLine,
			GenColumn:    seg.GenColumn,
			Source:       idx.source(source),
			SourceLine:   line - 1,
			SourceColumn: column,
			Name:         -1,
		}
		switch {
		case name != "":
			m.Name = idx.name(name)
		case seg.Name >= 0 && seg.Name < len(doc.Names):
			m.Name = idx.name(doc.Names[seg.Name])
		}
		composed = append(composed, m)
	}

	out := &Document{
		Version:  3,
		File:     doc.File,
		Sources:  idx.sources,
		Names:    idx.names,
		Mappings: EncodeMappings(composed),
	}
	return out.String(), nil
}

// checkIndexes rejects a map whose segments point past its sources or names.
// The consumer indexes both slices without bounds checks.
func checkIndexes(text string) error {
	doc, err := Parse(text)
	if err != nil {
		return err
	}
	segments, err := DecodeMappings(doc.Mappings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	for _, seg := range segments {
		if seg.Source >= len(doc.Sources) {
			return fmt.Errorf("%w: source index %d out of range (%d sources)", ErrInvalidMap, seg.Source, len(doc.Sources))
		}
		if seg.Name >= len(doc.Names) {
			return fmt.Errorf("%w: name index %d out of range (%d names)", ErrInvalidMap, seg.Name, len(doc.Names))
		}
	}
	return nil
}

// index assigns stable positions to sources and names in first-seen order.
type index struct {
	sources   []string
	names     []string
	sourceIDs map[string]int
	nameIDs   map[string]int
}

func newIndex() *index {
	return &index{
		sources:   []string{},
		names:     []string{},
		sourceIDs: make(map[string]int),
		nameIDs:   make(map[string]int),
	}
}

func (x *index) source(s string) int {
	if id, ok := x.sourceIDs[s]; ok {
		return id
	}
	x.sourceIDs[s] = len(x.sources)
	x.sources = append(x.sources, s)
	return x.sourceIDs[s]
}

func (x *index) name(s string) int {
	if id, ok := x.nameIDs[s]; ok {
		return id
	}
	x.nameIDs[s] = len(x.names)
	x.names = append(x.names, s)
	return x.nameIDs[s]
}
