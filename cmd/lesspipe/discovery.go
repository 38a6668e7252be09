package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/alnah/go-lesspipe/internal/config"
	"github.com/alnah/go-lesspipe/internal/fileutil"
)

const (
	lessExt = ".less"
	cssExt  = ".css"
)

// ErrInvalidExtension is returned when an explicit input is not a .less file.
var ErrInvalidExtension = errors.New("file must have .less extension")

// FileToRender represents a single stylesheet to process.
type FileToRender struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all stylesheets to render. Directories are walked
// recursively; partials (names starting with "_") are skipped there because
// they are only meant to be imported. An explicitly named file is always rendered.
func discoverFiles(fsys afero.Fs, inputs []string, outputDir string) ([]FileToRender, error) {
	var files []FileToRender
	seen := make(map[string]bool)
	add := func(f FileToRender) {
		if !seen[f.InputPath] {
			seen[f.InputPath] = true
			files = append(files, f)
		}
	}

	for _, input := range inputs {
		info, err := fsys.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateLessExtension(input); err != nil {
				return nil, err
			}
			add(FileToRender{InputPath: input, OutputPath: resolveOutputPath(input, outputDir, "", len(inputs) == 1)})
			continue
		}

		err = afero.Walk(fsys, input, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if info.IsDir() {
				if path != input && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !hasLessExt(path) || isPartial(path) {
				return nil
			}
			add(FileToRender{InputPath: path, OutputPath: resolveOutputPath(path, outputDir, input, false)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// hasLessExt reports whether path ends in .less, ignoring case.
func hasLessExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), lessExt)
}

// isPartial reports whether path names an import-only stylesheet.
func isPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

// resolveOutputPath determines the CSS output path for a Less file.
// Files found under baseInputDir keep their relative directory inside outputDir.
// A single input may name the output file directly with a .css outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string, single bool) string {
	name := fileutil.ReplaceExt(filepath.Base(inputPath), lessExt, cssExt)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}

	if single && strings.HasSuffix(outputDir, cssExt) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), name)
		}
	}

	return filepath.Join(outputDir, name)
}

// validateLessExtension checks that the file has a .less extension.
func validateLessExtension(path string) error {
	if !hasLessExt(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}
