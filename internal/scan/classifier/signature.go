package classifier

import "cardscan/internal/scan/textnorm"

// Indicator is one named predicate over normalized text.
type Indicator struct {
	Name  string
	Match func(*textnorm.Text) bool
}

// Group bundles related indicators. A group adds its weight once when any of
// its indicators matches, however many do.
type Group struct {
	Name       string
	Weight     int
	Indicators []Indicator
}

// Signature is the declarative description of one card side.
type Signature struct {
	Name      string
	Groups    []Group
	Threshold int
}

// Verdict is the scored outcome of matching text against a signature.
type Verdict struct {
	Valid     bool
	Score     int
	Threshold int
	// Hits lists "group.indicator" for every indicator that matched.
	Hits []string
}

// Score evaluates every indicator so Hits is complete, then sums group weights.
func (s Signature) Score(t *textnorm.Text) Verdict {
	v := Verdict{Threshold: s.Threshold, Hits: []string{}}
	for _, g := range s.Groups {
		matched := false
		for _, ind := range g.Indicators {
			if ind.Match(t) {
				matched = true
				v.Hits = append(v.Hits, g.Name+"."+ind.Name)
			}
		}
		if matched {
			v.Score += g.Weight
		}
	}
	v.Valid = v.Score >= s.Threshold
	return v
}
