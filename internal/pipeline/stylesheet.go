package pipeline

import "github.com/alnah/go-lesspipe/internal/fileutil"

// Stylesheet pairs generated CSS with the source map describing it.
// Stages never modify a Stylesheet in place; they return a new value.
type Stylesheet struct {
	CSS string
	Map string // JSON text of a version 3 source map
}

// OutputName returns the logical CSS name of a Less input, used as the
// "from"/"to" file name when post-processors run.
func OutputName(inputFile string) string {
	return fileutil.ReplaceExt(inputFile, ".less", ".css")
}
