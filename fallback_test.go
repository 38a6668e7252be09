package lesspipe

import (
	"errors"
	"strings"
	"testing"
)

func TestEscapeCSSString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ASCII", "Unrecognised input", "Unrecognised input"},
		{"double quote", `expected "}"`, `expected \"}\"`},
		{"single quote untouched", "it's", "it's"},
		{"backslash", `C:\styles\a.less`, `C:\\styles\\a.less`},
		{"newline", "line 1\nline 2", `line 1\Aline 2`},
		{"newline before non-hex", "a\nz", `a\Az`},
		{"newline before digit", "a\n1", `a\A 1`},
		{"newline before space", "a\n b", `a\A  b`},
		{"consecutive escapes", "\n\n", `\A\A`},
		{"tab", "a\tb", `a\9 b`},
		{"carriage return", "a\r\n", `a\D\A`},
		{"delete", "a\x7fb", `a\7F b`},
		{"non-ASCII", "café", `caf\E9`},
		{"astral", "😀", `\1F600`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := escapeCSSString(tt.input); got != tt.want {
				t.Errorf("escapeCSSString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeCSSString_NoUnescapedQuote(t *testing.T) {
	t.Parallel()

	inputs := []string{`"`, `\"`, `\\"`, `a"b"c`, "\"\n\"", `""""`}
	for _, in := range inputs {
		out := escapeCSSString(in)
		for i := 0; i < len(out); i++ {
			if out[i] != '"' {
				continue
			}
			backslashes := 0
			for j := i - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				t.Errorf("escapeCSSString(%q) = %q has an unescaped quote at %d", in, out, i)
			}
		}
	}
}

func TestErrorResult(t *testing.T) {
	t.Parallel()

	res := errorResult(errors.New(`ParseError: missing "}"`))

	want := "html::before{" +
		"display:block;" +
		"z-index:1000;" +
		"position:fixed;" +
		"top:0;" +
		"left:0;" +
		"right:0;" +
		"font-size:.9em;" +
		"padding:1.5em 1em 1.5em 4.5em;" +
		"color:white;" +
		"background:linear-gradient(#DF4F5E, #CE3741);" +
		"border:1px solid #C64F4B;" +
		"box-shadow:inset 0 1px 0 #EB8A93, 0 0 .3em rgba(0, 0, 0, .5);" +
		"white-space:pre;" +
		"font-family:monospace;" +
		"text-shadow:0 1px #A82734;" +
		`content:"ParseError: missing \"}\""` +
		"}"
	if res.CSS != want {
		t.Errorf("CSS =\n%s\nwant\n%s", res.CSS, want)
	}
	if res.Map != "" {
		t.Errorf("Map = %q, want empty", res.Map)
	}
	if res.Sources() != nil {
		t.Errorf("Sources() = %v, want nil", res.Sources())
	}
}

func TestErrorResult_MultilineMessage(t *testing.T) {
	t.Parallel()

	res := errorResult(errors.New("NameError: x\n1 a { b: @x; }"))
	if strings.Contains(res.CSS, "\n") {
		t.Errorf("CSS contains a raw newline: %q", res.CSS)
	}
	if !strings.Contains(res.CSS, `NameError: x\A 1 a { b: @x; }`) {
		t.Errorf("CSS = %q, want escaped newline", res.CSS)
	}
}
