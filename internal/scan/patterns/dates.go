package patterns

import (
	"regexp"
	"strconv"
	"time"
)

// DatePattern matches the three printed layouts: D/M/Y, Y/M/D and D.M.Y.
// Four digit years are tried before two digit ones.
const DatePattern = `\d{4}/\d{1,2}/\d{1,2}|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})|\d{1,2}\.\d{1,2}\.(?:\d{4}|\d{2})`

var (
	dateRe    = regexp.MustCompile(`\b(?:` + DatePattern + `)\b`)
	ddmmyyyy  = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	ymdParts  = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	dmyParts  = regexp.MustCompile(`^(\d{1,2})[/.](\d{1,2})[/.](\d{4}|\d{2})$`)
)

// centuryPivot splits two digit years between the 2000s and the 1900s.
const centuryPivot = 50

// DateMatch is one date found in text, in document order.
type DateMatch struct {
	Value  string
	Offset int
	Time   time.Time
}

// HasDDMMYYYY reports a DD/MM/YYYY date anywhere in text.
func HasDDMMYYYY(text string) bool {
	return ddmmyyyy.MatchString(text)
}

// FindDate returns the first parseable date in text.
func FindDate(text string) (string, bool) {
	dates := FindDates(text)
	if len(dates) == 0 {
		return "", false
	}
	return dates[0].Value, true
}

// FindDates returns every parseable date in document order.
func FindDates(text string) []DateMatch {
	locs := dateRe.FindAllStringIndex(text, -1)
	out := make([]DateMatch, 0, len(locs))
	for _, loc := range locs {
		value := text[loc[0]:loc[1]]
		t, ok := ParseDate(value)
		if !ok {
			continue
		}
		out = append(out, DateMatch{Value: value, Offset: loc[0], Time: t})
	}
	return out
}

// ParseDate parses one of the printed layouts. Two digit years below 50
// are read as 20xx, the rest as 19xx.
func ParseDate(value string) (time.Time, bool) {
	var y, m, d int
	if p := ymdParts.FindStringSubmatch(value); p != nil {
		y, m, d = atoi(p[1]), atoi(p[2]), atoi(p[3])
	} else if p := dmyParts.FindStringSubmatch(value); p != nil {
		d, m, y = atoi(p[1]), atoi(p[2]), expandYear(p[3])
	} else {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// Reject dates that time.Date normalized, e.g. 31/02.
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < centuryPivot {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
