package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cardscan/internal/scan/textnorm"
)

const (
	frontText = "UNITED ARAB EMIRATES\nIDENTITY CARD\n784-1991-1234567-3\nNAME: JOHN SMITH\nNationality: EGYPT"
	backText  = "Card Number 0123456789\nOccupation: ENGINEER\nEmployer: ACME LLC\nIssuing Place: Dubai\n<<<<<<<<<<<<<<<<"
)

func TestIsDuplicateSide(t *testing.T) {
	d := NewDuplicateDetector(false)

	tests := []struct {
		name      string
		candidate string
		other     string
		isFront   bool
		want      bool
		rule      Rule
	}{
		{
			name:      "identical id number with otherwise different content",
			candidate: "Card Number 123456789\n784-1991-1234567-3\n<<<<<<<<",
			other:     "random header 784-1991-1234567-3 text",
			want:      true,
			rule:      RuleSharedID,
		},
		{
			name:      "different id numbers do not match",
			candidate: "784-1991-1234567-3",
			other:     "784-1991-7654321-3",
			want:      false,
			rule:      RuleNone,
		},
		{
			name:      "front keywords against back keywords",
			candidate: backText,
			other:     frontText,
			want:      false,
			rule:      RuleNone,
		},
		{
			name:      "two fronts",
			candidate: "UNITED ARAB EMIRATES IDENTITY CARD",
			other:     "FEDERAL AUTHORITY NATIONALITY: INDIA",
			isFront:   true,
			want:      true,
			rule:      RuleBothFront,
		},
		{
			name:      "two backs counting mrz",
			candidate: "OCCUPATION: CLERK\n<<<<<<<<<<",
			other:     backText,
			want:      true,
			rule:      RuleBothBack,
		},
		{
			name:      "weak signals on one side",
			candidate: "OCCUPATION",
			other:     backText,
			want:      false,
			rule:      RuleNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsDuplicateSide(tt.candidate, tt.other, tt.isFront))
			assert.Equal(t, tt.want, d.IsDuplicateSide(tt.other, tt.candidate, !tt.isFront), "symmetric")

			verdict := d.Compare(textnorm.New(tt.candidate), textnorm.New(tt.other), tt.isFront)
			assert.Equal(t, tt.rule, verdict.Rule)
			assert.Equal(t, tt.isFront, verdict.CandidateIsFront)
		})
	}
}

func TestIsDuplicateSide_StrictPrefix(t *testing.T) {
	a := "ID 123-1991-1234567-3"
	b := "ID 123-1991-1234567-3 again"

	assert.True(t, NewDuplicateDetector(false).IsDuplicateSide(a, b, false))
	assert.False(t, NewDuplicateDetector(true).IsDuplicateSide(a, b, false))
}
