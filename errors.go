package lesspipe

import (
	"errors"

	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Sentinel errors for pipeline stages.
var (
	ErrCompile    = errors.New("compilation failed")
	ErrPrefix     = errors.New("prefixing failed")
	ErrMinify     = errors.New("minification failed")
	ErrSourceMap  = errors.New("source map processing failed")
	ErrSourceRead = errors.New("failed to read map source")

	// Options validation errors.
	ErrMissingFrom  = errors.New("input path (From) is required")
	ErrMissingTo    = errors.New("output path (To) is required")
	ErrInvalidMath  = errors.New("invalid math mode")
	ErrInvalidVar   = errors.New("invalid variable name")
	ErrEmptyInclude = errors.New("include path cannot be empty")

	// ErrInvalidBrowser is returned for an unknown prefixing target.
	ErrInvalidBrowser = pipeline.ErrInvalidBrowser
)
