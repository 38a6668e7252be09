package lesspipe

import (
	"strconv"
	"strings"
)

// errorBanner holds the declarations of the error overlay, in output order.
// The content declaration is appended last.
var errorBanner = []struct{ property, value string }{
	{"display", "block"},
	{"z-index", "1000"},
	{"position", "fixed"},
	{"top", "0"},
	{"left", "0"},
	{"right", "0"},
	{"font-size", ".9em"},
	{"padding", "1.5em 1em 1.5em 4.5em"},
	{"color", "white"},
	{"background", "linear-gradient(#DF4F5E, #CE3741)"},
	{"border", "1px solid #C64F4B"},
	{"box-shadow", "inset 0 1px 0 #EB8A93, 0 0 .3em rgba(0, 0, 0, .5)"},
	{"white-space", "pre"},
	{"font-family", "monospace"},
	{"text-shadow", "0 1px #A82734"},
}

// errorResult renders err as an html::before overlay with an empty map.
func errorResult(err error) *Result {
	decls := make([]string, 0, len(errorBanner)+1)
	for _, d := range errorBanner {
		decls = append(decls, d.property+":"+d.value)
	}
	decls = append(decls, `content:"`+escapeCSSString(err.Error())+`"`)

	return &Result{
		CSS: "html::before{" + strings.Join(decls, ";") + "}",
		Map: "",
	}
}

// escapeCSSString escapes s for use inside a double-quoted CSS string.
// Backslashes and double quotes get a backslash; code points outside
// printable ASCII become an uppercase hex escape. The escape is closed by a
// space only when the next character would otherwise extend it.
func escapeCSSString(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r > 0x7E:
			b.WriteByte('\\')
			b.WriteString(strings.ToUpper(strconv.FormatInt(int64(r), 16)))
			if i+1 < len(runes) && needsEscapeTerminator(runes[i+1]) {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// needsEscapeTerminator reports whether r would be read as part of a
// preceding hex escape.
func needsEscapeTerminator(r rune) bool {
	return r == ' ' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'f') ||
		(r >= 'A' && r <= 'F')
}
