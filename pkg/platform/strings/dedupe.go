// Package strings provides string list helpers shared by the scan packages.
package strings

import (
	"strings"
)

// DedupeFold normalizes each value by trimming it and collapsing inner
// whitespace, drops empty values, and removes case-insensitive duplicates.
// The first spelling wins and order is preserved.
//
// Example:
//
//	DedupeFold([]string{" Saudi  Arabia", "EGYPT", "saudi arabia", "", "Egypt"})
//	// Returns: []string{"Saudi Arabia", "EGYPT"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := strings.Join(strings.Fields(v), " ")
		if normalized == "" {
			continue
		}
		key := strings.ToUpper(normalized)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, normalized)
	}

	return result
}
