// Package textnorm prepares OCR output for matching. It exposes the raw text
// alongside a cleaned view, an upper-cased comparison view and trimmed lines.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// zeroWidth are format characters OCR engines leave between glyphs.
var zeroWidth = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
	"\u00ad", "",
)

func prepare(raw string) string {
	return zeroWidth.Replace(norm.NFKC.String(raw))
}

// collapse folds every whitespace run, newlines included, into one space.
func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Clean NFKC-normalizes raw, drops zero-width characters, collapses whitespace and trims.
func Clean(raw string) string {
	return collapse(prepare(raw))
}

// Upper is Clean followed by upper-casing.
func Upper(raw string) string {
	return strings.ToUpper(Clean(raw))
}

// Lines splits raw on line breaks and returns the non-empty lines, each cleaned.
func Lines(raw string) []string {
	parts := strings.FieldsFunc(prepare(raw), func(r rune) bool {
		return r == '\n' || r == '\r' || r == '\u2028'
	})
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if line := collapse(p); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Text is an immutable, precomputed view of one OCR block. Safe for concurrent use.
type Text struct {
	raw   string
	clean string
	upper string
	lines []string
}

// New computes every view of raw once.
func New(raw string) *Text {
	clean := Clean(raw)
	return &Text{
		raw:   raw,
		clean: clean,
		upper: strings.ToUpper(clean),
		lines: Lines(raw),
	}
}

// Raw returns the text exactly as submitted.
func (t *Text) Raw() string { return t.raw }

// Clean returns the whitespace-collapsed single-line view.
func (t *Text) Clean() string { return t.clean }

// Upper returns the upper-cased comparison view.
func (t *Text) Upper() string { return t.upper }

// Lines returns the cleaned non-empty lines. Callers must not modify the slice.
func (t *Text) Lines() []string { return t.lines }

// Joined returns the cleaned lines joined by newlines. Line-anchored patterns
// match against this view.
func (t *Text) Joined() string { return strings.Join(t.lines, "\n") }

// IsBlank reports whether nothing but whitespace was submitted.
func (t *Text) IsBlank() bool { return t.clean == "" }
