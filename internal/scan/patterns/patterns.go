// Package patterns holds the regular expressions and bilingual phrase lists
// shared by the classifier, the duplicate detector and the field extractor.
package patterns

import (
	"regexp"
	"strings"
)

// UAECountryCode is the fixed prefix of Emirates ID numbers.
const UAECountryCode = "784"

var (
	idLenient = regexp.MustCompile(`\b\d{3}-\d{4}-\d{7}-\d\b`)
	idStrict  = regexp.MustCompile(`\b784-\d{4}-\d{7}-\d\b`)

	// mrzIDRun matches the 15 digit ID number of the first MRZ line.
	mrzIDRun = regexp.MustCompile(`^784\d{12}$`)

	longDigitRun = regexp.MustCompile(`\d{8,}`)
)

// IDPattern returns the ID-number matcher for the given strictness.
// Strict mode requires the 784 country prefix; lenient accepts any three digits.
func IDPattern(strict bool) *regexp.Regexp {
	if strict {
		return idStrict
	}
	return idLenient
}

// FindIDNumbers returns every ID-number match in document order.
func FindIDNumbers(text string, strict bool) []string {
	return IDPattern(strict).FindAllString(text, -1)
}

// mrzIDOffset is where the ID number starts on the first MRZ line, after the
// document code, issuing state, card number and its check digit.
const mrzIDOffset = 15

// FormatMRZIDNumber finds the 784 prefixed 15 digit ID number in the MRZ and
// renders it in the printed 784-dddd-ddddddd-d layout. A run at the ID offset
// of a line wins; otherwise the last run in the zone is used, since the card
// number that precedes the ID may itself contain 784.
func FormatMRZIDNumber(mrz string) (string, bool) {
	lines := strings.Split(mrz, "\n")
	for _, line := range lines {
		if len(line) >= mrzIDOffset+15 && mrzIDRun.MatchString(line[mrzIDOffset:mrzIDOffset+15]) {
			return formatIDRun(line[mrzIDOffset : mrzIDOffset+15]), true
		}
	}
	joined := strings.Join(lines, "")
	for i := len(joined) - 15; i >= 0; i-- {
		if mrzIDRun.MatchString(joined[i : i+15]) {
			return formatIDRun(joined[i : i+15]), true
		}
	}
	return "", false
}

func formatIDRun(run string) string {
	return run[0:3] + "-" + run[3:7] + "-" + run[7:14] + "-" + run[14:15]
}

// HasLongDigitRun reports an 8+ digit run, the chip serial printed on the back.
func HasLongDigitRun(text string) bool {
	return longDigitRun.MatchString(text)
}

// MRZFiller pads machine-readable-zone fields.
const MRZFiller = "<"

// HasMRZ reports six consecutive fillers or more than five fillers in total.
func HasMRZ(text string) bool {
	return strings.Contains(text, strings.Repeat(MRZFiller, 6)) || strings.Count(text, MRZFiller) > 5
}

// IsMRZLine reports whether one line belongs to the machine-readable zone.
func IsMRZLine(line string) bool {
	return strings.Count(line, MRZFiller) > 5
}

// Front-side phrases. Matching is done against upper-cased, cleaned text.
var (
	HeaderPhrases = []string{
		"UNITED ARAB EMIRATES",
		"FEDERAL AUTHORITY",
		"الإمارات العربية المتحدة",
		"الامارات العربية المتحدة",
		"الهيئة الاتحادية",
	}
	NationalityPhrases = []string{
		"NATIONALITY",
		"الجنسية",
	}
	CardTextPhrases = []string{
		"IDENTITY CARD",
		"RESIDENT IDENTITY",
		"ID CARD",
		"بطاقة الهوية",
		"بطاقة هوية",
	}
)

// Back-side phrases.
var (
	CardNumberLabels   = []string{"CARD NUMBER", "CARD NO", "رقم البطاقة"}
	OccupationLabels   = []string{"OCCUPATION", "PROFESSION", "المهنة"}
	EmployerLabels     = []string{"EMPLOYER", "صاحب العمل", "جهة العمل"}
	IssuingPlaceLabels = []string{"ISSUING PLACE", "PLACE OF ISSUE", "مكان الإصدار", "مكان الاصدار"}
	ChipPhrases        = []string{"CHIP", "الشريحة"}
	NoticePhrases      = []string{
		"PLEASE RETURN",
		"POLICE STATION",
		"IF FOUND",
		"يرجى إعادة",
		"يرجى اعادة",
		"مركز شرطة",
	}
)

// FrontKeywords is the phrase list counted by the duplicate detector for the front.
var FrontKeywords = concat(HeaderPhrases, NationalityPhrases, CardTextPhrases)

// BackLabels are the field labels printed on the back.
var BackLabels = concat(CardNumberLabels, OccupationLabels, EmployerLabels, IssuingPlaceLabels)

// BackKeywords is the phrase list counted by the duplicate detector for the back.
var BackKeywords = concat(BackLabels, ChipPhrases, NoticePhrases)

// ContainsAny reports whether upper contains any of phrases.
func ContainsAny(upper string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

// CountHits returns how many distinct phrases occur in upper.
func CountHits(upper string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(upper, p) {
			n++
		}
	}
	return n
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
