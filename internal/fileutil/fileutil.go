// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrNameEmpty         = errors.New("file name cannot be empty")
	ErrNamePathTraversal = errors.New("file name contains path separator or null byte")
)

// WriteTempSource creates a private temporary directory holding a single file
// called name with the given content. Returns the file path and a cleanup
// function that removes the whole directory.
func WriteTempSource(name, content string) (path string, cleanup func(), err error) {
	if err := ValidateName(name); err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp("", "lesspipe-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}

	return path, cleanup, nil
}

// ValidateName checks that name is a bare file name, safe to join to a directory.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrNamePathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "lesspipe" -> false (name)
//   - "./lesspipe.yaml" -> true (relative path)
//   - "/etc/lesspipe.yaml" -> true (absolute)
//   - "C:\config\lesspipe.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// ReplaceExt swaps a trailing extension matched case-insensitively.
// Paths that do not end in oldExt are returned unchanged.
//
//	ReplaceExt("site/main.LESS", ".less", ".css") -> "site/main.css"
//	ReplaceExt("site/main.css", ".less", ".css")  -> "site/main.css"
func ReplaceExt(path, oldExt, newExt string) string {
	if len(path) < len(oldExt) || !strings.EqualFold(path[len(path)-len(oldExt):], oldExt) {
		return path
	}
	return path[:len(path)-len(oldExt)] + newExt
}

// ForwardSlashes replaces every backslash with a forward slash, independent
// of the host separator, so generated references read the same everywhere.
func ForwardSlashes(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
