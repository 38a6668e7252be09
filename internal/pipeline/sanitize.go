package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/alnah/go-lesspipe/internal/fileutil"
)

// Sentinel errors for source map sanitation.
var (
	ErrInvalidSourceMap = errors.New("invalid source map")
	ErrSourceRead       = errors.New("failed to read map source")
)

// SanitizeOptions locate the files a source map refers to.
// All paths must be absolute.
type SanitizeOptions struct {
	InputFile  string // sources in the incoming map are relative to its directory
	OutputFile string // CSS file the map describes
	BaseDir    string // sources in the result are relative to this directory
	SourceRoot string // written verbatim to "sourceRoot"
}

// SanitizeSourceMap makes a map self-contained and relative to BaseDir:
// every source is read from fsys into "sourcesContent" (index-aligned with
// "sources"), sources are re-expressed relative to BaseDir with forward
// slashes, and "sourceRoot" and "file" are set. Other fields pass through
// untouched. Any unreadable source fails the whole call.
func SanitizeSourceMap(fsys afero.Fs, in Stylesheet, opts SanitizeOptions) (Stylesheet, error) {
	if !gjson.Valid(in.Map) {
		return Stylesheet{}, fmt.Errorf("%w: not valid JSON", ErrInvalidSourceMap)
	}
	sources := gjson.Get(in.Map, "sources")
	if !sources.IsArray() {
		return Stylesheet{}, fmt.Errorf("%w: missing sources", ErrInvalidSourceMap)
	}

	mapDir := filepath.Dir(opts.InputFile)
	entries := sources.Array()
	contents := make([]string, 0, len(entries))
	rebased := make([]string, 0, len(entries))

	for _, entry := range entries {
		abs := resolveSource(mapDir, entry.String())
		data, err := afero.ReadFile(fsys, abs)
		if err != nil {
			return Stylesheet{}, fmt.Errorf("%w: %w", ErrSourceRead, err)
		}
		contents = append(contents, string(data))
		rebased = append(rebased, relativeTo(opts.BaseDir, abs))
	}

	out := in.Map
	for _, field := range []struct {
		path  string
		value any
	}{
		{"sourcesContent", contents},
		{"sources", rebased},
		{"sourceRoot", opts.SourceRoot},
		{"file", filepath.Base(opts.OutputFile)},
	} {
		var err error
		out, err = sjson.Set(out, field.path, field.value)
		if err != nil {
			return Stylesheet{}, fmt.Errorf("%w: setting %s: %v", ErrInvalidSourceMap, field.path, err)
		}
	}

	return Stylesheet{CSS: in.CSS, Map: out}, nil
}

// resolveSource returns the absolute, cleaned path of a map source relative to dir.
func resolveSource(dir, source string) string {
	p := filepath.FromSlash(source)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// relativeTo expresses abs relative to base with forward slashes.
// Falls back to the absolute path when no relative form exists
// (different volumes on Windows).
func relativeTo(base, abs string) string {
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		rel = abs
	}
	return fileutil.ForwardSlashes(rel)
}
