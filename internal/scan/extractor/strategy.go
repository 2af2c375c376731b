package extractor

import (
	"regexp"
	"strings"

	"cardscan/internal/scan/models"
	"cardscan/internal/scan/textnorm"
)

// Strategy is one way of finding a field. It reports ok=false when it has
// nothing to offer so the next strategy can run.
type Strategy struct {
	Name    string
	Extract func(*textnorm.Text) (string, bool)
}

// Chain is an ordered list of strategies for one field.
type Chain []Strategy

// Run returns the first non-blank result and the name of the strategy that produced it.
func (c Chain) Run(t *textnorm.Text) (value, strategy string, ok bool) {
	for _, s := range c {
		v, found := s.Extract(t)
		if v = strings.TrimSpace(v); found && v != "" {
			return v, s.Name, true
		}
	}
	return "", "", false
}

// FieldChain binds a chain to the field it fills.
type FieldChain struct {
	Key   models.FieldKey
	Chain Chain
}

// regexGroup returns a strategy that yields the first capture group of re
// across all matches accepted by keep. A nil keep accepts everything.
func regexGroup(name string, re *regexp.Regexp, view func(*textnorm.Text) string, keep func(string) (string, bool)) Strategy {
	return Strategy{
		Name: name,
		Extract: func(t *textnorm.Text) (string, bool) {
			for _, m := range re.FindAllStringSubmatch(view(t), -1) {
				v := strings.TrimSpace(m[1])
				if keep != nil {
					var ok bool
					if v, ok = keep(v); !ok {
						continue
					}
				}
				if v != "" {
					return v, true
				}
			}
			return "", false
		},
	}
}

func joined(t *textnorm.Text) string { return t.Joined() }

func fixed(name, value string) Strategy {
	return Strategy{Name: name, Extract: func(*textnorm.Text) (string, bool) { return value, true }}
}
