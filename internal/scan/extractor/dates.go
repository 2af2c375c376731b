package extractor

import (
	"regexp"
	"slices"
	"strings"

	"cardscan/internal/scan/models"
	"cardscan/internal/scan/patterns"
	"cardscan/internal/scan/textnorm"
)

var datePattern = `(` + patterns.DatePattern + `)\b`

var (
	birthLabeled  = regexp.MustCompile(`(?:\b(?i:date\s+of\s+birth|birth\s*date|dob)|تاريخ الميلاد)\s*[:\-]?\s*` + datePattern)
	issueLabeled  = regexp.MustCompile(`(?:\b(?i:issu(?:e|ing)\s+date|date\s+of\s+issue)|تاريخ الإصدار|تاريخ الاصدار)\s*[:\-]?\s*` + datePattern)
	expiryLabeled = regexp.MustCompile(`(?:\b(?i:expiry\s+date|date\s+of\s+expiry|expires?|valid\s+until)|تاريخ الانتهاء)\s*[:\-]?\s*` + datePattern)
)

// Keywords for the line scan, matched against upper-cased lines.
var (
	birthKeywords  = []string{"BIRTH", "DOB", "الميلاد"}
	issueKeywords  = []string{"ISSUE", "ISSUING DATE", "تاريخ الإصدار", "تاريخ الاصدار"}
	expiryKeywords = []string{"EXPIR", "VALID", "الانتهاء"}
)

type dateField struct {
	key      models.FieldKey
	labeled  *regexp.Regexp
	keywords []string
	// skip excludes lines whose keyword belongs to another label, e.g. "PLACE OF ISSUE".
	skip []string
}

var dateFields = []dateField{
	{key: models.FieldDateOfBirth, labeled: birthLabeled, keywords: birthKeywords},
	{key: models.FieldIssueDate, labeled: issueLabeled, keywords: issueKeywords, skip: patterns.IssuingPlaceLabels},
	{key: models.FieldExpiryDate, labeled: expiryLabeled, keywords: expiryKeywords},
}

func (f dateField) chain() Chain {
	return Chain{
		regexGroup("labeled", f.labeled, joined, validDate),
		{Name: "keyword_line", Extract: keywordLineDate(f.keywords, f.skip)},
	}
}

func validDate(v string) (string, bool) {
	_, ok := patterns.ParseDate(v)
	return v, ok
}

// keywordLineDate finds a line carrying one of keywords and takes the date on
// that line, or failing that on the next one.
func keywordLineDate(keywords, skip []string) func(*textnorm.Text) (string, bool) {
	return func(t *textnorm.Text) (string, bool) {
		lines := t.Lines()
		for i, line := range lines {
			upper := strings.ToUpper(line)
			if !containsAny(upper, keywords) || containsAny(upper, skip) {
				continue
			}
			if d, ok := patterns.FindDate(line); ok {
				return d, true
			}
			if i+1 < len(lines) {
				if d, ok := patterns.FindDate(lines[i+1]); ok {
					return d, true
				}
			}
		}
		return "", false
	}
}

// extractDates fills the three date fields. Labeled and keyword strategies
// run first. With withHeuristic set, the remaining gaps are then filled from
// the unassigned dates in document order.
func extractDates(t *textnorm.Text, fields models.FieldMap, withHeuristic bool) {
	for _, f := range dateFields {
		if v, _, ok := f.chain().Run(t); ok {
			fields.SetIfEmpty(f.key, v)
		}
	}
	if withHeuristic {
		assignByHeuristic(patterns.FindDates(t.Joined()), fields)
	}
}

// assignByHeuristic resolves dates no label claimed:
//  1. birth takes the oldest date;
//  2. with issue and expiry both open and two dates left, they take the first
//     two in document order;
//  3. otherwise expiry takes the newest.
func assignByHeuristic(all []patterns.DateMatch, fields models.FieldMap) {
	assigned := map[string]struct{}{}
	for _, f := range dateFields {
		if v, ok := fields[f.key]; ok {
			assigned[v] = struct{}{}
		}
	}
	var free []patterns.DateMatch
	for _, d := range all {
		if _, taken := assigned[d.Value]; !taken {
			free = append(free, d)
		}
	}

	if !fields.Has(models.FieldDateOfBirth) && len(free) > 0 {
		oldest := 0
		for i, d := range free {
			if d.Time.Before(free[oldest].Time) {
				oldest = i
			}
		}
		fields.SetIfEmpty(models.FieldDateOfBirth, free[oldest].Value)
		free = slices.Delete(free, oldest, oldest+1)
	}

	issueOpen := !fields.Has(models.FieldIssueDate)
	expiryOpen := !fields.Has(models.FieldExpiryDate)
	switch {
	case issueOpen && expiryOpen && len(free) >= 2:
		fields.SetIfEmpty(models.FieldIssueDate, free[0].Value)
		fields.SetIfEmpty(models.FieldExpiryDate, free[1].Value)
	case expiryOpen && len(free) > 0:
		newest := 0
		for i, d := range free {
			if d.Time.After(free[newest].Time) {
				newest = i
			}
		}
		fields.SetIfEmpty(models.FieldExpiryDate, free[newest].Value)
	}
}
