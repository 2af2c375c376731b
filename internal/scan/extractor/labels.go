package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// labelStops end a labeled value when OCR joins several fields on one line.
var labelStops = []string{
	"NAME", "NATIONALITY", "DATE OF BIRTH", "BIRTH", "SEX", "GENDER",
	"ISSUE DATE", "ISSUING DATE", "DATE OF ISSUE", "EXPIRY", "CARD NUMBER", "CARD NO",
	"OCCUPATION", "PROFESSION", "EMPLOYER", "ISSUING PLACE", "PLACE OF ISSUE", "SIGNATURE",
	"الاسم", "الجنسية", "تاريخ الميلاد", "الجنس", "تاريخ الإصدار", "تاريخ الاصدار",
	"تاريخ الانتهاء", "رقم البطاقة", "المهنة", "صاحب العمل", "جهة العمل", "مكان الإصدار", "مكان الاصدار",
}

// excludedNameWords never appear in a person's name on the card.
var excludedNameWords = map[string]struct{}{
	"UNITED": {}, "ARAB": {}, "EMIRATES": {}, "FEDERAL": {}, "AUTHORITY": {},
	"IDENTITY": {}, "CITIZENSHIP": {}, "RESIDENT": {}, "RESIDENCY": {}, "CARD": {},
	"NAME": {}, "NATIONALITY": {}, "DATE": {}, "BIRTH": {}, "ISSUE": {}, "ISSUING": {},
	"EXPIRY": {}, "SEX": {}, "GENDER": {}, "SIGNATURE": {}, "NUMBER": {}, "ID": {},
	"OCCUPATION": {}, "EMPLOYER": {}, "PLACE": {}, "MINISTRY": {}, "INTERIOR": {},
	"UAE": {}, "ICP": {}, "SECURITY": {}, "PORTS": {},
}

// arabicLabels mark a line or capture as a label rather than a name.
var arabicLabels = []string{
	"الاسم", "الجنسية", "الميلاد", "الإصدار", "الاصدار", "الانتهاء", "تاريخ", "الجنس",
	"بطاقة", "الهوية", "الإمارات", "الامارات", "الهيئة", "الاتحادية",
}

// cutAtLabel truncates value at the first label that starts a new word. The
// printed casing of the kept part is preserved.
func cutAtLabel(value string) string {
	upper, srcAt := upperIndexed(value)
	cut := len(upper)
	for _, stop := range labelStops {
		if i := indexWord(upper, stop); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimRight(strings.TrimSpace(value[:srcAt[cut]]), " :-,")
}

// upperIndexed upper-cases s rune by rune. srcAt maps every byte offset of the
// result, plus its length, to the offset of the source rune it came from.
func upperIndexed(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	srcAt := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToUpper(r))
		for range b.Len() - n {
			srcAt = append(srcAt, i)
		}
	}
	return b.String(), append(srcAt, len(s))
}

// hasLabel reports whether line contains any known field label.
func hasLabel(line string) bool {
	upper := strings.ToUpper(line)
	for _, stop := range labelStops {
		if indexWord(upper, stop) >= 0 {
			return true
		}
	}
	return false
}

// indexWord finds needle in s where it is not glued to surrounding letters.
func indexWord(s, needle string) int {
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		if !letterBefore(s, i) && !letterAt(s, end) {
			return i
		}
		from = i + 1
	}
}

func letterBefore(s string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(s[:i])
	return size > 0 && unicode.IsLetter(r)
}

func letterAt(s string, i int) bool {
	r, size := utf8.DecodeRuneInString(s[i:])
	return size > 0 && unicode.IsLetter(r)
}

// containsWord is strings.Contains restricted to whole words.
func containsWord(s, word string) bool {
	return indexWord(s, word) >= 0
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
