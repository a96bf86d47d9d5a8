// Package template fills {{key}} placeholders in feature info templates.
// Values are HTML-escaped; {{{key}}} inserts the raw value.
package template

import (
	"html"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\{([^}]+)\}\}\}|\{\{([^}]+)\}\}`)

type token struct {
	text string
	key  bool
	raw  bool
}

// Template is a compiled feature info template
type Template struct {
	source string
	tokens []token
}

// Compile splits src into literal text and placeholder tokens
func Compile(src string) *Template {
	t := &Template{source: src}
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(src, -1) {
		if m[0] > last {
			t.tokens = append(t.tokens, token{text: src[last:m[0]]})
		}
		tok := token{key: true}
		if m[2] >= 0 {
			tok.text, tok.raw = strings.TrimSpace(src[m[2]:m[3]]), true
		} else {
			tok.text = strings.TrimSpace(src[m[4]:m[5]])
		}
		t.tokens = append(t.tokens, tok)
		last = m[1]
	}
	if last < len(src) {
		t.tokens = append(t.tokens, token{text: src[last:]})
	}
	return t
}

// Keys returns the placeholder names in order of appearance
func (t *Template) Keys() []string {
	var keys []string
	for _, tok := range t.tokens {
		if tok.key {
			keys = append(keys, tok.text)
		}
	}
	return keys
}

// String returns the template source
func (t *Template) String() string { return t.source }

// Execute substitutes every placeholder with its value in data. Unknown keys
// render as empty strings; substituted values are never re-scanned.
// {{key}} values are HTML-escaped, {{{key}}} values are not.
func (t *Template) Execute(data map[string]string) string {
	var b strings.Builder
	b.Grow(len(t.source))
	for _, tok := range t.tokens {
		switch {
		case tok.raw:
			b.WriteString(data[tok.text])
		case tok.key:
			b.WriteString(html.EscapeString(data[tok.text]))
		default:
			b.WriteString(tok.text)
		}
	}
	return b.String()
}

// Describe renders the template for one table row
func (t *Template) Describe(_ []string, row map[string]string) string {
	return t.Execute(row)
}

// Render compiles and executes src in one step
func Render(src string, data map[string]string) string {
	return Compile(src).Execute(data)
}
