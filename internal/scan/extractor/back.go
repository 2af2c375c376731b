package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"cardscan/internal/scan/models"
	"cardscan/internal/scan/patterns"
	"cardscan/internal/scan/textnorm"
)

// maxEmployerContinuation caps how many following lines an employer name may span.
const maxEmployerContinuation = 2

var (
	cardNumberLabeled = regexp.MustCompile(`(?:\b(?i:card\s*(?:number|no\.?))|رقم البطاقة)\s*[:#]?\s*(\d{6,12})\b`)
	cardNumberBare    = regexp.MustCompile(`\b(\d{8,10})\b`)

	occupationLabeled = regexp.MustCompile(`(?:\b(?i:occupation|profession)|المهنة)\s*:?[ \t]*([^\n]+)`)
	issuingLabeled    = regexp.MustCompile(`(?:\b(?i:issuing\s+place|place\s+of\s+issue)|مكان الإصدار|مكان الاصدار)\s*:?[ \t]*([^\n]+)`)
	employerLabel     = regexp.MustCompile(`(?:\b(?i:employer)|صاحب العمل|جهة العمل)\s*:?[ \t]*`)

	// SURNAME<<GIVEN<NAMES<<<<
	mrzName = regexp.MustCompile(`^([A-Z]+(?:<[A-Z]+)*)<<([A-Z]+(?:<[A-Z]+)*)<*$`)
)

func (e *Extractor) backChains() []FieldChain {
	return []FieldChain{
		{Key: models.FieldCardNumber, Chain: Chain{
			regexGroup("labeled", cardNumberLabeled, joined, nil),
			regexGroup("bare_digits", cardNumberBare, joined, nil),
		}},
		{Key: models.FieldOccupation, Chain: Chain{
			regexGroup("labeled", occupationLabeled, joined, acceptLabeledValue),
		}},
		{Key: models.FieldEmployer, Chain: Chain{
			{Name: "labeled_multiline", Extract: employer},
		}},
		{Key: models.FieldIssuingPlace, Chain: Chain{
			{Name: "labeled", Extract: e.labeledIssuingPlace},
			{Name: "emirate_in_text", Extract: e.emirateInText},
		}},
		{Key: models.FieldMRZData, Chain: Chain{
			{Name: "mrz_lines", Extract: mrzData},
		}},
	}
}

// employer takes the labeled value and continues over up to two plain-word
// lines, stopping at another label, an MRZ line or any line with digits.
func employer(t *textnorm.Text) (string, bool) {
	lines := t.Lines()
	for i, line := range lines {
		loc := employerLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		parts := []string{}
		if first := cutAtLabel(line[loc[1]:]); first != "" {
			parts = append(parts, first)
		}
		for j := i + 1; j < len(lines) && j <= i+maxEmployerContinuation; j++ {
			next := lines[j]
			if hasLabel(next) || patterns.IsMRZLine(next) || hasDigit(next) || !isPlainWords(next) {
				break
			}
			parts = append(parts, next)
		}
		if len(parts) > 0 {
			return strings.Join(parts, " "), true
		}
	}
	return "", false
}

// isPlainWords accepts letters, spaces and the punctuation found in company names.
func isPlainWords(line string) bool {
	hasLetter := false
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsSpace(r), strings.ContainsRune("&.,'-()/", r):
		default:
			return false
		}
	}
	return hasLetter
}

// labeledIssuingPlace normalizes the labeled value; when that fails it looks
// for any emirate in the text and finally keeps the value as printed.
func (e *Extractor) labeledIssuingPlace(t *textnorm.Text) (string, bool) {
	m := issuingLabeled.FindStringSubmatch(t.Joined())
	if m == nil {
		return "", false
	}
	raw := cutAtLabel(m[1])
	if place := e.places.NormalizePlace(raw); place != "" {
		return place, true
	}
	if place := e.places.FindEmirateInText(t.Clean()); place != "" {
		return place, true
	}
	return raw, raw != ""
}

func (e *Extractor) emirateInText(t *textnorm.Text) (string, bool) {
	place := e.places.FindEmirateInText(t.Clean())
	return place, place != ""
}

func mrzData(t *textnorm.Text) (string, bool) {
	lines := mrzLines(t)
	return strings.Join(lines, "\n"), len(lines) > 0
}

func mrzLines(t *textnorm.Text) []string {
	var out []string
	for _, line := range t.Lines() {
		if patterns.IsMRZLine(line) {
			out = append(out, strings.ReplaceAll(line, " ", ""))
		}
	}
	return out
}

// backfillFromMRZ fills idNumber and nameEn from the machine-readable zone
// when the printed text did not yield them.
func backfillFromMRZ(mrz string, fields models.FieldMap) {
	if mrz == "" {
		return
	}
	if !fields.Has(models.FieldIDNumber) {
		if id, ok := patterns.FormatMRZIDNumber(mrz); ok {
			fields.SetIfEmpty(models.FieldIDNumber, id)
		}
	}
	if !fields.Has(models.FieldNameEn) {
		for _, line := range strings.Split(mrz, "\n") {
			m := mrzName.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			surname := strings.ReplaceAll(m[1], "<", " ")
			given := strings.ReplaceAll(m[2], "<", " ")
			fields.SetIfEmpty(models.FieldNameEn, given+" "+surname)
			break
		}
	}
}
