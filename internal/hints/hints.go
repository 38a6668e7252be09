// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-lesspipe/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForLesscNotFound returns hints for a missing lessc binary.
// Suggests an install command and the LESSPIPE_LESSC override when unset.
func ForLesscNotFound() string {
	hints := []string{"install with: npm install -g less"}

	if IsInContainer() {
		hints[0] = "add nodejs and npm to the image, then: npm install -g less"
	}

	if os.Getenv("LESSPIPE_LESSC") == "" {
		hints = append(hints, "or set LESSPIPE_LESSC / --lessc to its path")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow compilations.
func ForTimeout() string {
	return format("for large stylesheets, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-lesspipe/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(fileutil.ForwardSlashes(p), "/go-lesspipe/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForSourceRead returns hints for map sources that vanished or are unreadable.
func ForSourceRead() string {
	return format("an imported file changed or was removed during the build; re-run, or use --embed-errors in watch mode")
}

// ForInvalidBrowser returns hints for unknown prefixing targets.
func ForInvalidBrowser(known []string) string {
	if len(known) == 0 {
		return ""
	}
	return format("use <browser><version>, browsers: " + strings.Join(known, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
