package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"cardscan/internal/scan/models"
	"cardscan/internal/scan/patterns"
	"cardscan/internal/scan/textnorm"
)

const (
	minNameLength = 5
	// arabicNameRatio is the share of non-space characters that must be Arabic letters.
	arabicNameRatio = 0.6
)

// DefaultNationality is reported when the card names no nationality.
const DefaultNationality = "United Arab Emirates"

var (
	// "Name: JOHN SMITH" with the words kept on one line.
	nameEnLabeled = regexp.MustCompile(`\b(?i:name)\s*:?\s*([A-Z][A-Za-z'\-]*(?:[ \t]+[A-Z][A-Za-z'\-]*)*)`)
	capitalRun    = regexp.MustCompile(`\b[A-Z][A-Za-z'\-]+(?:[ \t]+[A-Z][A-Za-z'\-]+)+`)

	nameArLabeled = regexp.MustCompile(`(?:الاسم|\b(?i:name))\s*:?\s*(\p{Arabic}+(?:[ \t]+\p{Arabic}+)*)`)

	nationalityLabeled   = regexp.MustCompile(`\b(?i:nationality)\s*:?[ \t]*([A-Za-z][A-Za-z \t]*)`)
	nationalityArLabeled = regexp.MustCompile(`الجنسية\s*:?[ \t]*(\p{Arabic}+(?:[ \t]+\p{Arabic}+)*)`)

	genderLabeled   = regexp.MustCompile(`\b(?i:sex|gender)\s*[:/]?\s*((?i:female|male|f|m))\b`)
	genderArLabeled = regexp.MustCompile(`الجنس\s*[:/]?\s*(ذكر|أنثى|انثى)(?:[^\p{Arabic}]|$)`)
)

func (e *Extractor) frontChains() []FieldChain {
	return []FieldChain{
		{Key: models.FieldIDNumber, Chain: Chain{
			{Name: "id_pattern", Extract: e.idNumber},
		}},
		{Key: models.FieldNameEn, Chain: Chain{
			regexGroup("labeled", nameEnLabeled, joined, acceptLatinName),
			{Name: "capitalized_line", Extract: latinNameLine},
		}},
		{Key: models.FieldNameAr, Chain: Chain{
			regexGroup("labeled", nameArLabeled, joined, acceptArabicName),
			{Name: "arabic_line", Extract: arabicNameLine},
		}},
		{Key: models.FieldNationality, Chain: Chain{
			regexGroup("labeled", nationalityLabeled, joined, acceptLabeledValue),
			regexGroup("labeled_ar", nationalityArLabeled, joined, acceptLabeledValue),
			{Name: "known_list", Extract: e.knownNationality},
			fixed("default", DefaultNationality),
		}},
		{Key: models.FieldGender, Chain: Chain{
			regexGroup("labeled", genderLabeled, joined, normalizeGender),
			regexGroup("labeled_ar", genderArLabeled, joined, normalizeGender),
			{Name: "single_token", Extract: singleGenderToken},
		}},
	}
}

func (e *Extractor) idNumber(t *textnorm.Text) (string, bool) {
	ids := patterns.FindIDNumbers(t.Clean(), e.strictIDPrefix)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

func acceptLatinName(v string) (string, bool) {
	v = truncateAtExcluded(v)
	return v, len(v) >= minNameLength
}

// truncateAtExcluded keeps the words before the first header or label word.
func truncateAtExcluded(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		if _, bad := excludedNameWords[strings.ToUpper(w)]; bad {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func latinNameLine(t *textnorm.Text) (string, bool) {
	for _, line := range t.Lines() {
		if hasDigit(line) || hasExcludedWord(line) {
			continue
		}
		if run := capitalRun.FindString(line); len(run) >= minNameLength {
			return run, true
		}
	}
	return "", false
}

func hasExcludedWord(line string) bool {
	for _, w := range strings.FieldsFunc(strings.ToUpper(line), func(r rune) bool { return !unicode.IsLetter(r) }) {
		if _, bad := excludedNameWords[w]; bad {
			return true
		}
	}
	return false
}

func acceptArabicName(v string) (string, bool) {
	for _, label := range arabicLabels {
		if strings.Contains(v, label) {
			return "", false
		}
	}
	return v, len([]rune(v)) >= 2
}

func arabicNameLine(t *textnorm.Text) (string, bool) {
	for _, line := range t.Lines() {
		if hasDigit(line) || containsAny(line, arabicLabels) || patterns.ContainsAny(strings.ToUpper(line), patterns.HeaderPhrases) {
			continue
		}
		if arabicShare(line) > arabicNameRatio {
			return line, true
		}
	}
	return "", false
}

// arabicShare is the fraction of non-space characters that are Arabic letters.
func arabicShare(s string) float64 {
	var total, arabic int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r) {
			arabic++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(arabic) / float64(total)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func acceptLabeledValue(v string) (string, bool) {
	v = cutAtLabel(v)
	return v, v != ""
}

func (e *Extractor) knownNationality(t *textnorm.Text) (string, bool) {
	upper := t.Upper()
	for _, n := range e.nationalities {
		if containsWord(upper, strings.ToUpper(n)) {
			return n, true
		}
	}
	return "", false
}

func normalizeGender(v string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "M", "MALE", "ذكر":
		return "M", true
	case "F", "FEMALE", "أنثى", "انثى":
		return "F", true
	}
	return "", false
}

// singleGenderToken accepts a lone "M" or "F" only when it is the only such
// token in the text. This is a heuristic: any other stray single letter
// M or F on the card defeats it.
func singleGenderToken(t *textnorm.Text) (string, bool) {
	var found []string
	for _, tok := range strings.FieldsFunc(t.Upper(), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if tok == "M" || tok == "F" {
			found = append(found, tok)
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}
