// Package extractor turns the text of an accepted card side into fields.
// Every field is an ordered chain of strategies; the first non-empty result wins
// and a field no strategy finds is simply absent.
package extractor

import (
	"cardscan/internal/scan/gazetteer"
	"cardscan/internal/scan/models"
	"cardscan/internal/scan/textnorm"
	pstrings "cardscan/pkg/platform/strings"
)

// CommonNationalities is searched when the card carries no nationality label.
var CommonNationalities = []string{
	"India", "Pakistan", "Bangladesh", "Philippines", "Egypt", "Jordan", "Syria",
	"Lebanon", "Sudan", "Yemen", "Iraq", "Iran", "Sri Lanka", "Nepal", "China",
	"United Kingdom", "United States", "Canada", "Australia", "France", "Germany",
	"Italy", "Spain", "Russia", "Saudi Arabia", "Oman", "Kuwait", "Qatar", "Bahrain",
	"Morocco", "Tunisia", "Algeria", "Palestine", "Ethiopia", "Kenya", "Nigeria",
	"South Africa", "Indonesia", "Afghanistan", "Turkey",
}

// Extractor is stateless after construction and safe for concurrent use.
type Extractor struct {
	strictIDPrefix bool
	places         *gazetteer.Gazetteer
	nationalities  []string

	front []FieldChain
	back  []FieldChain
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithStrictIDPrefix requires the 784 prefix on printed ID numbers.
func WithStrictIDPrefix(strict bool) Option {
	return func(e *Extractor) { e.strictIDPrefix = strict }
}

// WithGazetteer replaces the default place table.
func WithGazetteer(g *gazetteer.Gazetteer) Option {
	return func(e *Extractor) {
		if g != nil {
			e.places = g
		}
	}
}

// WithNationalities appends names to the nationality fallback list.
func WithNationalities(names ...string) Option {
	return func(e *Extractor) {
		e.nationalities = append(e.nationalities, names...)
	}
}

// New builds an extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		places:        gazetteer.Default,
		nationalities: append([]string(nil), CommonNationalities...),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.nationalities = pstrings.DedupeFold(e.nationalities)
	e.front = e.frontChains()
	e.back = e.backChains()
	return e
}

// FrontChains exposes the ordered front strategies, for inspection in tests and tooling.
func (e *Extractor) FrontChains() []FieldChain { return e.front }

// BackChains exposes the ordered back strategies.
func (e *Extractor) BackChains() []FieldChain { return e.back }

// ExtractFront pulls the front-side fields, including the date heuristic.
func (e *Extractor) ExtractFront(raw string) models.FieldMap {
	return e.ExtractFrontText(textnorm.New(raw))
}

// ExtractFrontText is ExtractFront over already normalized text.
func (e *Extractor) ExtractFrontText(t *textnorm.Text) models.FieldMap {
	fields := models.FieldMap{}
	runChains(t, e.front, fields)
	extractDates(t, fields, true)
	return fields
}

// ExtractBack pulls the back-side fields. Dates only come from labels here.
func (e *Extractor) ExtractBack(raw string) models.FieldMap {
	return e.ExtractBackText(textnorm.New(raw))
}

// ExtractBackText is ExtractBack over already normalized text.
func (e *Extractor) ExtractBackText(t *textnorm.Text) models.FieldMap {
	fields := models.FieldMap{}
	runChains(t, e.back, fields)
	extractDates(t, fields, false)
	backfillFromMRZ(fields[models.FieldMRZData], fields)
	return fields
}

// Merge combines both passes: front values win, back values fill gaps, and
// fullName is the English name or else the Arabic one.
func Merge(front, back models.FieldMap) models.FieldMap {
	merged := front.Clone()
	merged.Merge(back)
	if !merged.SetIfEmpty(models.FieldFullName, merged[models.FieldNameEn]) {
		merged.SetIfEmpty(models.FieldFullName, merged[models.FieldNameAr])
	}
	return merged
}

// Extract runs both passes sequentially and merges them.
func (e *Extractor) Extract(front, back string) models.FieldMap {
	return Merge(e.ExtractFront(front), e.ExtractBack(back))
}

func runChains(t *textnorm.Text, chains []FieldChain, fields models.FieldMap) {
	for _, fc := range chains {
		if v, _, ok := fc.Chain.Run(t); ok {
			fields.SetIfEmpty(fc.Key, v)
		}
	}
}
