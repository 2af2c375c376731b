package similarity

import (
	"cardscan/internal/scan/patterns"
	"cardscan/internal/scan/textnorm"
)

// Rule names which check decided a duplicate verdict.
type Rule string

const (
	RuleNone      Rule = "none"
	RuleSharedID  Rule = "shared_id_number"
	RuleBothFront Rule = "both_front"
	RuleBothBack  Rule = "both_back"
)

// minKeywordsPerSide is how many side phrases both texts need to read as the same side.
const minKeywordsPerSide = 2

// DuplicateVerdict is the outcome of comparing a capture against the opposite side.
type DuplicateVerdict struct {
	Duplicate bool
	Rule      Rule
	// CandidateIsFront is carried for logging only; the checks are symmetric.
	CandidateIsFront bool
}

// DuplicateDetector decides whether two OCR blocks show the same physical side.
type DuplicateDetector struct {
	strictIDPrefix bool
}

// NewDuplicateDetector builds a detector that matches ID numbers with the
// given prefix strictness.
func NewDuplicateDetector(strictIDPrefix bool) *DuplicateDetector {
	return &DuplicateDetector{strictIDPrefix: strictIDPrefix}
}

// IsDuplicateSide reports whether candidate and other are the same side.
func (d *DuplicateDetector) IsDuplicateSide(candidate, other string, candidateIsFront bool) bool {
	return d.Compare(textnorm.New(candidate), textnorm.New(other), candidateIsFront).Duplicate
}

// Compare runs the checks in order and stops at the first that fires:
// a shared ID number, then both texts reading as fronts, then both as backs.
func (d *DuplicateDetector) Compare(candidate, other *textnorm.Text, candidateIsFront bool) DuplicateVerdict {
	verdict := DuplicateVerdict{Rule: RuleNone, CandidateIsFront: candidateIsFront}

	if d.shareIDNumber(candidate, other) {
		verdict.Duplicate, verdict.Rule = true, RuleSharedID
		return verdict
	}
	if frontHits(candidate) >= minKeywordsPerSide && frontHits(other) >= minKeywordsPerSide {
		verdict.Duplicate, verdict.Rule = true, RuleBothFront
		return verdict
	}
	if backHits(candidate) >= minKeywordsPerSide && backHits(other) >= minKeywordsPerSide {
		verdict.Duplicate, verdict.Rule = true, RuleBothBack
		return verdict
	}
	return verdict
}

func (d *DuplicateDetector) shareIDNumber(a, b *textnorm.Text) bool {
	left := patterns.FindIDNumbers(a.Clean(), d.strictIDPrefix)
	if len(left) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(left))
	for _, m := range left {
		seen[m] = struct{}{}
	}
	for _, m := range patterns.FindIDNumbers(b.Clean(), d.strictIDPrefix) {
		if _, ok := seen[m]; ok {
			return true
		}
	}
	return false
}

func frontHits(t *textnorm.Text) int {
	return patterns.CountHits(t.Upper(), patterns.FrontKeywords)
}

func backHits(t *textnorm.Text) int {
	n := patterns.CountHits(t.Upper(), patterns.BackKeywords)
	if patterns.HasMRZ(t.Clean()) {
		n++
	}
	return n
}
