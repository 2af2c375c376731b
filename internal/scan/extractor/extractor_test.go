package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/scan/gazetteer"
	"cardscan/internal/scan/models"
	"cardscan/internal/scan/textnorm"
)

const (
	scenarioFront = "UNITED ARAB EMIRATES\nIDENTITY CARD\n784-1991-1234567-3\nNAME: JOHN SMITH\nNationality: EGYPT"
	scenarioBack  = "Card Number 0123456789\nOccupation: ENGINEER\nEmployer: ACME LLC\nIssuing Place: Dubai\n<<<<<<<<<<<<<<<<"
)

func TestExtractFront_Scenario(t *testing.T) {
	fields := New().ExtractFront(scenarioFront)

	assert.Equal(t, "784-1991-1234567-3", fields[models.FieldIDNumber])
	assert.Equal(t, "JOHN SMITH", fields[models.FieldNameEn])
	assert.Equal(t, "EGYPT", fields[models.FieldNationality])
	assert.False(t, fields.Has(models.FieldDateOfBirth))
	assert.False(t, fields.Has(models.FieldNameAr))
}

func TestExtractBack_Scenario(t *testing.T) {
	fields := New().ExtractBack(scenarioBack)

	assert.Equal(t, "0123456789", fields[models.FieldCardNumber])
	assert.Equal(t, "ENGINEER", fields[models.FieldOccupation])
	assert.Equal(t, "ACME LLC", fields[models.FieldEmployer])
	assert.Equal(t, "Dubai", fields[models.FieldIssuingPlace])
	assert.Equal(t, "<<<<<<<<<<<<<<<<", fields[models.FieldMRZData])
}

func TestExtractFront_DateHeuristic(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		birth  string
		issue  string
		expiry string
	}{
		{
			name:   "oldest and newest without labels",
			text:   "UNITED ARAB EMIRATES\n01/01/1990\n01/01/2030",
			birth:  "01/01/1990",
			expiry: "01/01/2030",
		},
		{
			name:   "three unlabeled dates",
			text:   "15/03/1985\n02/05/2021\n01/05/2026",
			birth:  "15/03/1985",
			issue:  "02/05/2021",
			expiry: "01/05/2026",
		},
		{
			name:   "labels win over the heuristic",
			text:   "Expiry Date: 01/01/2030\nDate of Birth: 01/01/1990\nIssue Date: 01/01/2020",
			birth:  "01/01/1990",
			issue:  "01/01/2020",
			expiry: "01/01/2030",
		},
		{
			name:   "keyword on the previous line",
			text:   "Date of Birth\n12.07.88\nsomething 2020/01/31",
			birth:  "12.07.88",
			expiry: "2020/01/31",
		},
		{
			name:   "arabic labels",
			text:   "تاريخ الميلاد 05/06/1979\nتاريخ الانتهاء 05/06/2031",
			birth:  "05/06/1979",
			expiry: "05/06/2031",
		},
		{
			name:   "two digit years",
			text:   "01/01/49 01/01/51",
			birth:  "01/01/51",
			expiry: "01/01/49",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := New().ExtractFront(tt.text)
			assert.Equal(t, tt.birth, fields[models.FieldDateOfBirth])
			assert.Equal(t, tt.issue, fields[models.FieldIssueDate])
			assert.Equal(t, tt.expiry, fields[models.FieldExpiryDate])
		})
	}
}

func TestExtractFront_Names(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		nameEn string
		nameAr string
	}{
		{
			name:   "label followed by another label on the same line",
			text:   "Name: Ahmed Ali Hassan Nationality: Jordan",
			nameEn: "Ahmed Ali Hassan",
		},
		{
			name:   "header words are not names",
			text:   "UNITED ARAB EMIRATES\nFEDERAL AUTHORITY\nMARIA SANTOS CRUZ",
			nameEn: "MARIA SANTOS CRUZ",
		},
		{
			name:   "short labeled value falls back to a line",
			text:   "Name: AL\nSARA KHAN",
			nameEn: "SARA KHAN",
		},
		{
			name:   "arabic labeled name",
			text:   "الاسم: محمد أحمد\nالجنسية: مصر",
			nameAr: "محمد أحمد",
		},
		{
			name:   "arabic line fallback skips headers",
			text:   "الإمارات العربية المتحدة\nبطاقة الهوية\nفاطمة الزهراء",
			nameAr: "فاطمة الزهراء",
		},
		{
			name:   "arabic labeled capture containing another label is rejected",
			text:   "الاسم الجنسية\n784-1991-1234567-3",
			nameAr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := New().ExtractFront(tt.text)
			assert.Equal(t, tt.nameEn, fields[models.FieldNameEn])
			assert.Equal(t, tt.nameAr, fields[models.FieldNameAr])
		})
	}
}

func TestExtractFront_Nationality(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"latin label", "Nationality: India", "India"},
		{"arabic label", "الجنسية: مصر", "مصر"},
		{"known list", "PASSPORT HOLDER PAKISTAN", "Pakistan"},
		{"whole words only", "ROMANIA", DefaultNationality},
		{"default", "UNITED ARAB EMIRATES 784-1991-1234567-3", DefaultNationality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New().ExtractFront(tt.text)[models.FieldNationality])
		})
	}

	custom := New(WithNationalities("Romania"))
	assert.Equal(t, "Romania", custom.ExtractFront("ROMANIA")[models.FieldNationality])
}

func TestExtractFront_Gender(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled letter", "Sex: M", "M"},
		{"labeled word", "Gender: Female", "F"},
		{"arabic", "الجنس: أنثى", "F"},
		{"arabic without colon", "الجنس ذكر\n01/01/1990", "M"},
		{"arabic word containing the value", "JOHN SMITH\nتذكرة", ""},
		{"arabic value without label", "ذكر", ""},
		{"arabic label with longer word", "الجنس: ذكرى", ""},
		{"single standalone token", "JOHN SMITH\nF\n01/01/1990", "F"},
		{"ambiguous tokens", "M\nF", ""},
		{"repeated token is still ambiguous", "M ... M", ""},
		{"no token", "JOHN SMITH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New().ExtractFront(tt.text)[models.FieldGender])
		})
	}
}

func TestExtractFront_StrictIDPrefix(t *testing.T) {
	text := "ID 123-1991-1234567-3"
	assert.Equal(t, "123-1991-1234567-3", New().ExtractFront(text)[models.FieldIDNumber])
	assert.False(t, New(WithStrictIDPrefix(true)).ExtractFront(text).Has(models.FieldIDNumber))
}

func TestExtractBack_Fields(t *testing.T) {
	t.Run("employer continues over plain lines", func(t *testing.T) {
		fields := New().ExtractBack("Employer: EMIRATES NATIONAL\nOIL COMPANY\nLIMITED\nEXTRA LINE\nCard Number 123456789")
		assert.Equal(t, "EMIRATES NATIONAL OIL COMPANY LIMITED", fields[models.FieldEmployer])
	})

	t.Run("employer stops at digits and mrz", func(t *testing.T) {
		fields := New().ExtractBack("Employer: ACME\nPO BOX 1234\nIDARE<<<<<<<<")
		assert.Equal(t, "ACME", fields[models.FieldEmployer])
	})

	t.Run("employer value on the next line", func(t *testing.T) {
		fields := New().ExtractBack("Employer:\nGULF TRADING\nOccupation: CLERK")
		assert.Equal(t, "GULF TRADING", fields[models.FieldEmployer])
		assert.Equal(t, "CLERK", fields[models.FieldOccupation])
	})

	t.Run("bare card number", func(t *testing.T) {
		fields := New().ExtractBack("Occupation: DRIVER\n 87654321 \n<<<<<<")
		assert.Equal(t, "87654321", fields[models.FieldCardNumber])
	})

	t.Run("issuing place fuzzy", func(t *testing.T) {
		fields := New().ExtractBack("Issuing Place: ABUDHABI")
		assert.Equal(t, gazetteer.AbuDhabi, fields[models.FieldIssuingPlace])
	})

	t.Run("issuing place falls back to text search", func(t *testing.T) {
		fields := New().ExtractBack("Issuing Place: XYZ\nSharjah Police")
		assert.Equal(t, gazetteer.Sharjah, fields[models.FieldIssuingPlace])
	})

	t.Run("issuing place keeps unknown labeled value", func(t *testing.T) {
		fields := New().ExtractBack("Issuing Place: Khor Fakkan")
		assert.Equal(t, "Khor Fakkan", fields[models.FieldIssuingPlace])
	})

	t.Run("issuing place without label", func(t *testing.T) {
		fields := New().ExtractBack("Occupation: CLERK\nالشارقة")
		assert.Equal(t, gazetteer.Sharjah, fields[models.FieldIssuingPlace])
	})

	t.Run("labeled dates on the back", func(t *testing.T) {
		fields := New().ExtractBack("Issue Date: 10/10/2020\nExpiry Date 09/10/2025\n05/05/1950")
		assert.Equal(t, "10/10/2020", fields[models.FieldIssueDate])
		assert.Equal(t, "09/10/2025", fields[models.FieldExpiryDate])
		assert.False(t, fields.Has(models.FieldDateOfBirth), "no heuristic on the back")
	})
}

func TestExtractBack_MRZBackfill(t *testing.T) {
	back := "Card Number 123456789\n" +
		"ILARE1234567890784199112345673<<<<<<\n" +
		"8501017M2901011ARE<<<<<<<<<<<4\n" +
		"SMITH<<JOHN<PAUL<<<<<<<<<<<<<<"

	fields := New().ExtractBack(back)

	require.True(t, fields.Has(models.FieldMRZData))
	assert.Len(t, (&models.Snapshot{Fields: fields}).MRZLines(), 3)
	assert.Equal(t, "784-1991-1234567-3", fields[models.FieldIDNumber])
	assert.Equal(t, "JOHN PAUL SMITH", fields[models.FieldNameEn])
}

func TestExtractBack_MRZBackfillSkipsCardNumber(t *testing.T) {
	back := "ILARE1784123450784199012345673<<<<<<<<\n" +
		"8501017M2901011ARE<<<<<<<<<<<4\n" +
		"SMITH<<JOHN<<<<<<<<<<<<<<<<<<<"

	fields := New().ExtractBack(back)

	assert.Equal(t, "784-1990-1234567-3", fields[models.FieldIDNumber])
}

func TestMerge(t *testing.T) {
	front := models.FieldMap{models.FieldIDNumber: "784-1991-1234567-3", models.FieldNameAr: "محمد"}
	back := models.FieldMap{models.FieldIDNumber: "784-0000-0000000-0", models.FieldNameEn: "MOHAMMED", models.FieldCardNumber: "123456789"}

	merged := Merge(front, back)

	assert.Equal(t, "784-1991-1234567-3", merged[models.FieldIDNumber], "front wins")
	assert.Equal(t, "123456789", merged[models.FieldCardNumber], "back fills gaps")
	assert.Equal(t, "MOHAMMED", merged[models.FieldFullName], "english name preferred")

	arabicOnly := Merge(models.FieldMap{models.FieldNameAr: "محمد"}, models.FieldMap{})
	assert.Equal(t, "محمد", arabicOnly[models.FieldFullName])

	assert.False(t, Merge(models.FieldMap{}, models.FieldMap{}).Has(models.FieldFullName))
}

func TestExtract_EndToEnd(t *testing.T) {
	fields := New().Extract(scenarioFront, scenarioBack)

	assert.Equal(t, "JOHN SMITH", fields[models.FieldFullName])
	assert.Equal(t, "784-1991-1234567-3", fields[models.FieldIDNumber])
	assert.Equal(t, "0123456789", fields[models.FieldCardNumber])
	assert.Equal(t, "Dubai", fields[models.FieldIssuingPlace])
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	chain := Chain{
		{Name: "blank", Extract: func(*textnorm.Text) (string, bool) { return "   ", true }},
		{Name: "miss", Extract: func(*textnorm.Text) (string, bool) { return "", false }},
		{Name: "hit", Extract: func(*textnorm.Text) (string, bool) { return " value ", true }},
		{Name: "later", Extract: func(*textnorm.Text) (string, bool) { return "other", true }},
	}

	v, name, ok := chain.Run(textnorm.New(""))
	require.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, "hit", name)

	_, _, ok = Chain{}.Run(textnorm.New("x"))
	assert.False(t, ok)
}

func TestFrontChains_Order(t *testing.T) {
	var keys []models.FieldKey
	for _, fc := range New().FrontChains() {
		keys = append(keys, fc.Key)
	}
	assert.Equal(t, []models.FieldKey{
		models.FieldIDNumber, models.FieldNameEn, models.FieldNameAr, models.FieldNationality, models.FieldGender,
	}, keys)
	assert.Len(t, New().BackChains(), 5)
}

func TestCutAtLabel(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"no label", "Engineer", "Engineer"},
		{"label ends value", "Engineer Employer: ACME", "Engineer"},
		{"label glued to a word is kept", "Surname Smith", "Surname Smith"},
		{"dotless i keeps printed casing", "Kadıköy Occupation: Engineer", "Kadıköy"},
		{"dotless i without label", "Aşçı", "Aşçı"},
		{"arabic label", "مهندس المهنة: طبيب", "مهندس"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cutAtLabel(tt.value))
		})
	}
}
