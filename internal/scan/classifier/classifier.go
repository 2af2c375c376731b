// Package classifier decides whether a block of OCR text shows the front or
// the back of an Emirates ID card. Each side is a weighted signature scored
// against a threshold.
package classifier

import (
	"cardscan/internal/scan/gazetteer"
	"cardscan/internal/scan/patterns"
	"cardscan/internal/scan/textnorm"
)

const (
	// FrontThreshold is reached by an ID number alone (5) or by the header (3)
	// together with any supporting indicator (1).
	FrontThreshold = 4
	// BackThreshold needs one field label (1) and one piece of back evidence (1).
	BackThreshold = 2
)

// Classifier holds the two side signatures. Safe for concurrent use.
type Classifier struct {
	front Signature
	back  Signature
}

// Option customizes a Classifier.
type Option func(*options)

type options struct {
	strictIDPrefix bool
	places         *gazetteer.Gazetteer
}

// WithStrictIDPrefix requires the 784 country prefix on ID numbers.
func WithStrictIDPrefix(strict bool) Option {
	return func(o *options) { o.strictIDPrefix = strict }
}

// WithGazetteer replaces the default place table used for emirate detection.
func WithGazetteer(g *gazetteer.Gazetteer) Option {
	return func(o *options) {
		if g != nil {
			o.places = g
		}
	}
}

// New builds a classifier with the standard front and back signatures.
func New(opts ...Option) *Classifier {
	o := options{places: gazetteer.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return &Classifier{
		front: FrontSignature(o.strictIDPrefix),
		back:  BackSignature(o.places),
	}
}

// FrontSignature describes the front: ID number, or header plus a supporting detail.
func FrontSignature(strictIDPrefix bool) Signature {
	idPattern := patterns.IDPattern(strictIDPrefix)
	return Signature{
		Name:      "front",
		Threshold: FrontThreshold,
		Groups: []Group{
			{Name: "id_number", Weight: 5, Indicators: []Indicator{
				{Name: "id_pattern", Match: func(t *textnorm.Text) bool { return idPattern.MatchString(t.Clean()) }},
			}},
			{Name: "header", Weight: 3, Indicators: []Indicator{
				{Name: "header_text", Match: phrases(patterns.HeaderPhrases)},
			}},
			{Name: "supporting", Weight: 1, Indicators: []Indicator{
				{Name: "date_format", Match: func(t *textnorm.Text) bool { return patterns.HasDDMMYYYY(t.Clean()) }},
				{Name: "nationality", Match: phrases(patterns.NationalityPhrases)},
				{Name: "card_text", Match: phrases(patterns.CardTextPhrases)},
			}},
		},
	}
}

// BackSignature describes the back: a field label plus one piece of evidence.
func BackSignature(places *gazetteer.Gazetteer) Signature {
	return Signature{
		Name:      "back",
		Threshold: BackThreshold,
		Groups: []Group{
			{Name: "labels", Weight: 1, Indicators: []Indicator{
				{Name: "card_number", Match: phrases(patterns.CardNumberLabels)},
				{Name: "occupation", Match: phrases(patterns.OccupationLabels)},
				{Name: "employer", Match: phrases(patterns.EmployerLabels)},
				{Name: "issuing_place", Match: phrases(patterns.IssuingPlaceLabels)},
			}},
			{Name: "evidence", Weight: 1, Indicators: []Indicator{
				{Name: "mrz_pattern", Match: func(t *textnorm.Text) bool { return patterns.HasMRZ(t.Clean()) }},
				{Name: "chip_info", Match: func(t *textnorm.Text) bool {
					return patterns.ContainsAny(t.Upper(), patterns.ChipPhrases) || patterns.HasLongDigitRun(t.Clean())
				}},
				{Name: "emirate_location", Match: func(t *textnorm.Text) bool { return places.FindEmirateInText(t.Clean()) != "" }},
				{Name: "notice", Match: phrases(patterns.NoticePhrases)},
			}},
		},
	}
}

func phrases(list []string) func(*textnorm.Text) bool {
	return func(t *textnorm.Text) bool { return patterns.ContainsAny(t.Upper(), list) }
}

// ScoreFront scores text against the front signature.
func (c *Classifier) ScoreFront(t *textnorm.Text) Verdict { return c.front.Score(t) }

// ScoreBack scores text against the back signature.
func (c *Classifier) ScoreBack(t *textnorm.Text) Verdict { return c.back.Score(t) }

// ClassifyFront reports whether raw reads as a card front.
func (c *Classifier) ClassifyFront(raw string) bool {
	return c.ScoreFront(textnorm.New(raw)).Valid
}

// ClassifyBack reports whether raw reads as a card back.
func (c *Classifier) ClassifyBack(raw string) bool {
	return c.ScoreBack(textnorm.New(raw)).Valid
}
