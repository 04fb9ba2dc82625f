package directive

import (
	"strings"
	"unicode"
)

// Directive is one lexed line of the directive language: a lower-cased
// name, its raw value, and the origin used in every error message.
type Directive struct {
	File  string
	Line  int
	Name  string
	Value string
}

// Lex turns raw lines into directives. Each line is truncated at the first
// unescaped '#', trimmed, and split on the first whitespace run; blank and
// comment-only lines produce nothing. A lone token yields an empty value.
func Lex(lines []Line) []Directive {
	out := make([]Directive, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimSpace(stripComment(l.Text))
		if text == "" {
			continue
		}

		name := text
		value := ""
		if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
			name = text[:i]
			value = strings.TrimSpace(text[i:])
		}
		out = append(out, Directive{
			File:  l.File,
			Line:  l.Num,
			Name:  strings.ToLower(name),
			Value: value,
		})
	}
	return out
}

// stripComment cuts the line at the first '#' not preceded by a backslash
// and unescapes any remaining "\#" sequences.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i > 0 && line[i-1] == '\\' {
			continue
		}
		line = line[:i]
		break
	}
	return strings.ReplaceAll(line, `\#`, "#")
}
