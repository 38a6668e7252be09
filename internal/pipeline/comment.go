package pipeline

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/alnah/go-lesspipe/internal/fileutil"
)

// MapFileName returns the name the mapping comment points at:
// the base name of outputFile + ".map".
func MapFileName(outputFile string) string {
	return fileutil.ForwardSlashes(filepath.Base(outputFile + ".map"))
}

// InjectSourceMappingComment appends a sourceMappingURL comment referencing
// the map file next to outputFile. The map itself is not touched.
func InjectSourceMappingComment(in Stylesheet, outputFile string) Stylesheet {
	return Stylesheet{
		CSS: in.CSS + "\n/*# sourceMappingURL=" + MapFileName(outputFile) + " */",
		Map: in.Map,
	}
}

// StripSourceMappingComments removes sourceMappingURL comments, plus the
// whitespace trailing the stylesheet once one was removed. Input the lexer
// rejects is returned unchanged.
func StripSourceMappingComments(src string) string {
	lexer := css.NewLexer(parse.NewInputString(src))

	var b strings.Builder
	b.Grow(len(src))
	removed := false
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if lexer.Err() != io.EOF {
				return src
			}
			break
		}
		if tt == css.CommentToken && isMappingComment(data) {
			removed = true
			continue
		}
		b.Write(data)
	}

	if !removed {
		return src
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// isMappingComment reports whether a comment token is a
// "/*# sourceMappingURL=... */" annotation (or the legacy "/*@" form).
func isMappingComment(comment []byte) bool {
	body := bytes.TrimPrefix(comment, []byte("/*"))
	body = bytes.TrimSuffix(body, []byte("*/"))
	body = bytes.TrimSpace(body)
	if len(body) == 0 || (body[0] != '#' && body[0] != '@') {
		return false
	}
	return bytes.HasPrefix(bytes.TrimSpace(body[1:]), []byte("sourceMappingURL="))
}
