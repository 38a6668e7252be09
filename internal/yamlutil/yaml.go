// Package yamlutil decodes and encodes config files with goccy/go-yaml.
// Decode errors carry the offending line so users can fix their file.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// DecodeError is a syntax or schema error with a source excerpt.
type DecodeError struct {
	Detail string // position and excerpt, as formatted by go-yaml
	Err    error
}

func (e *DecodeError) Error() string { return "yamlutil: " + e.Detail }

func (e *DecodeError) Unwrap() error { return e.Err }

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// UnmarshalStrict decodes data into v, rejecting unknown fields.
// Fields missing from data keep the values already in v.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return &DecodeError{Detail: yaml.FormatError(err, false, true), Err: err}
	}
	return nil
}

// Marshal encodes v with two-space indentation and indented sequences,
// the layout used in documented config files.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}
