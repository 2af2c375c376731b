package gazetteer

// Canonical emirate and city names returned by the normalizer.
const (
	AbuDhabi     = "Abu Dhabi"
	Dubai        = "Dubai"
	Sharjah      = "Sharjah"
	AlAin        = "Al Ain"
	Ajman        = "Ajman"
	Fujairah     = "Fujairah"
	RasAlKhaimah = "Ras Al Khaimah"
	UmmAlQuwain  = "Umm Al Quwain"
)

// CanonicalNames lists every name the gazetteer can return, in table order.
var CanonicalNames = []string{AbuDhabi, Dubai, Sharjah, AlAin, Ajman, Fujairah, RasAlKhaimah, UmmAlQuwain}

// Alias maps one spelling seen on cards or in OCR output to a canonical name.
type Alias struct {
	Name      string
	Canonical string
}

// defaultAliases is ordered: fuzzy matching accepts the first entry that clears
// the threshold, so earlier rows win ties. Each canonical name is listed in its
// own upper-case form so normalizing a canonical name is a no-op.
var defaultAliases = []Alias{
	{"ABU DHABI", AbuDhabi},
	{"ABUDHABI", AbuDhabi},
	{"ABU DHABHI", AbuDhabi},
	{"ABU DABI", AbuDhabi},
	{"ABOU DHABI", AbuDhabi},
	{"أبو ظبي", AbuDhabi},
	{"ابو ظبي", AbuDhabi},
	{"أبوظبي", AbuDhabi},
	{"ابوظبي", AbuDhabi},

	{"DUBAI", Dubai},
	{"DUBAYY", Dubai},
	{"DUBAL", Dubai},
	{"دبي", Dubai},

	{"SHARJAH", Sharjah},
	{"SHARJA", Sharjah},
	{"SHARGAH", Sharjah},
	{"الشارقة", Sharjah},
	{"الشارقه", Sharjah},

	{"AL AIN", AlAin},
	{"ALAIN", AlAin},
	{"AL-AIN", AlAin},
	{"العين", AlAin},

	{"AJMAN", Ajman},
	{"AJMAAN", Ajman},
	{"عجمان", Ajman},

	{"FUJAIRAH", Fujairah},
	{"FUJAIRA", Fujairah},
	{"AL FUJAIRAH", Fujairah},
	{"الفجيرة", Fujairah},
	{"الفجيره", Fujairah},

	{"RAS AL KHAIMAH", RasAlKhaimah},
	{"RAS AL-KHAIMAH", RasAlKhaimah},
	{"RAS ALKHAIMAH", RasAlKhaimah},
	{"RAK", RasAlKhaimah},
	{"رأس الخيمة", RasAlKhaimah},
	{"راس الخيمة", RasAlKhaimah},
	{"رأس الخيمه", RasAlKhaimah},

	{"UMM AL QUWAIN", UmmAlQuwain},
	{"UMM AL-QUWAIN", UmmAlQuwain},
	{"UMM AL QAIWAIN", UmmAlQuwain},
	{"UAQ", UmmAlQuwain},
	{"أم القيوين", UmmAlQuwain},
	{"ام القيوين", UmmAlQuwain},
}

// DefaultAliases returns a copy of the built-in alias table.
func DefaultAliases() []Alias {
	return append([]Alias(nil), defaultAliases...)
}
