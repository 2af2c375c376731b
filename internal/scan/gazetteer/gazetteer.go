// Package gazetteer maps noisy place names, Latin or Arabic, to the canonical
// emirate names using exact then fuzzy matching.
package gazetteer

import (
	"strings"
	"unicode"

	"cardscan/internal/scan/similarity"
	"cardscan/internal/scan/textnorm"
)

// DefaultThreshold is the similarity a fuzzy candidate must exceed.
const DefaultThreshold = 0.70

// Gazetteer is an immutable alias table. Safe for concurrent use.
type Gazetteer struct {
	aliases   []Alias
	exact     map[string]string
	threshold float64
	// terms are searched verbatim by FindEmirateInText.
	terms []string
}

// Option customizes a Gazetteer.
type Option func(*Gazetteer)

// WithAliases appends extra aliases after the built-in table.
func WithAliases(extra ...Alias) Option {
	return func(g *Gazetteer) {
		g.aliases = append(g.aliases, extra...)
	}
}

// WithThreshold overrides the fuzzy acceptance threshold. Values outside (0, 1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(g *Gazetteer) {
		if threshold > 0 && threshold <= 1 {
			g.threshold = threshold
		}
	}
}

// New builds a gazetteer from the built-in table plus options.
func New(opts ...Option) *Gazetteer {
	g := &Gazetteer{
		aliases:   DefaultAliases(),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.exact = make(map[string]string, len(g.aliases))
	for i, a := range g.aliases {
		key := textnorm.Upper(a.Name)
		g.aliases[i].Name = key
		if _, dup := g.exact[key]; !dup {
			g.exact[key] = a.Canonical
		}
	}
	g.terms = searchTerms(g.aliases)
	return g
}

// searchTerms returns the canonical names and every Arabic alias, in table order.
func searchTerms(aliases []Alias) []string {
	var terms []string
	seen := make(map[string]struct{})
	add := func(term string) {
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	for _, a := range aliases {
		if a.Name == textnorm.Upper(a.Canonical) || isArabic(a.Name) {
			add(a.Name)
		}
	}
	return terms
}

func isArabic(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.Is(unicode.Arabic, r)
		}
	}
	return false
}

// IsCanonical reports whether name is one of the canonical names.
func IsCanonical(name string) bool {
	for _, c := range CanonicalNames {
		if c == name {
			return true
		}
	}
	return false
}

// Threshold returns the fuzzy acceptance threshold in use.
func (g *Gazetteer) Threshold() float64 { return g.threshold }

// NormalizePlace returns the canonical name for raw, or "" when nothing matches.
func (g *Gazetteer) NormalizePlace(raw string) string {
	cleaned := textnorm.Upper(raw)
	if cleaned == "" {
		return ""
	}
	if canonical, ok := g.exact[cleaned]; ok {
		return canonical
	}
	for _, a := range g.aliases {
		if !strings.Contains(cleaned, a.Name) && !strings.Contains(a.Name, cleaned) {
			continue
		}
		if similarity.Similarity(cleaned, a.Name) > g.threshold {
			return a.Canonical
		}
	}
	return ""
}

// FindEmirateInText looks for a canonical name or Arabic form anywhere in full
// and normalizes the first one found.
func (g *Gazetteer) FindEmirateInText(full string) string {
	upper := textnorm.Upper(full)
	for _, term := range g.terms {
		if strings.Contains(upper, term) {
			return g.NormalizePlace(term)
		}
	}
	return ""
}

// Default is the gazetteer behind the package-level helpers.
var Default = New()

// NormalizePlace uses the default gazetteer.
func NormalizePlace(raw string) string {
	return Default.NormalizePlace(raw)
}

// FindEmirateInText uses the default gazetteer.
func FindEmirateInText(full string) string {
	return Default.FindEmirateInText(full)
}
