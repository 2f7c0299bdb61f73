package models

import "time"

// Choice pairs a stored value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Access levels for a bin.
const (
	AccessPublic  = "public"
	AccessPrivate = "private"
)

// CategoryChoices lists the selectable bin categories.
var CategoryChoices = []Choice{
	{"NONE", "No category"},
	{"Cryptocurrency", "Cryptocurrency"},
	{"Cybersecurity", "Cybersecurity"},
	{"Fixit", "Fixit"},
	{"Food", "Food"},
	{"Gaming", "Gaming"},
	{"Haiku", "Haiku"},
	{"Help", "Help"},
	{"History", "History"},
	{"Housing", "Housing"},
	{"Jokes", "Jokes"},
	{"legal", "Legal"},
	{"Money", "Money"},
	{"Movies", "Movies"},
	{"Music", "Music"},
	{"Pets", "Pets"},
	{"Photos", "Photos"},
	{"Science", "Science"},
	{"Software", "Software"},
	{"Source Code", "Source Code"},
	{"Spirit", "Spirit"},
	{"Sport", "Sport"},
	{"Travel", "Travel"},
	{"TW", "TV"},
	{"Writing", "Writing"},
}

// LanguageChoices lists the syntax highlighting languages.
var LanguageChoices = []Choice{
	{"none", "Plain text"},
	{"c", "C"},
	{"c#", "C#"},
	{"cpp", "C++"},
	{"css", "CSS"},
	{"html", "HTML"},
	{"java", "Java"},
	{"javascript", "JavaScript"},
	{"lua", "Lua"},
	{"objective-c", "Objective-C"},
	{"php", "PHP"},
	{"perl", "Perl"},
	{"python", "Python"},
	{"ruby", "Ruby"},
	{"swift", "Swift"},
}

// ExpiryChoices lists the supported lifetime tokens.
var ExpiryChoices = []Choice{
	{"never", "Never"},
	{"1m", "1 minute"},
	{"1h", "1 hour"},
	{"12h", "12 hours"},
	{"1d", "1 day"},
	{"7d", "7 days"},
	{"2w", "2 weeks"},
	{"30d", "30 days"},
	{"6mo", "6 months"},
	{"1y", "1 year"},
}

// AccessChoices lists the supported access levels.
var AccessChoices = []Choice{
	{AccessPublic, "Public"},
	{AccessPrivate, "Private"},
}

// expiryDurations maps lifetime tokens onto durations. "never" is absent on
// purpose: it maps to a nil expiry timestamp. "1w" is a legacy alias of "7d".
var expiryDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"1h":  time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"2w":  14 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"6mo": 180 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// ExpiryAt resolves an expiry token into an absolute deadline relative to now.
// Unknown tokens and "never" yield nil (no expiry).
func ExpiryAt(token string, now time.Time) *time.Time {
	if d, ok := expiryDurations[token]; ok {
		at := now.Add(d)
		return &at
	}
	return nil
}

// ValidExpiry reports whether the token is a known lifetime choice.
func ValidExpiry(token string) bool {
	if token == "never" || token == "1w" {
		return true
	}
	_, ok := expiryDurations[token]
	return ok
}

func labelOf(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func validChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CategoryLabel returns the display label for a category value.
func CategoryLabel(value string) string { return labelOf(CategoryChoices, value) }

// LanguageLabel returns the display label for a language value.
func LanguageLabel(value string) string { return labelOf(LanguageChoices, value) }

// ValidCategory reports whether the value is a known category.
func ValidCategory(value string) bool { return validChoice(CategoryChoices, value) }

// ValidLanguage reports whether the value is a known language.
func ValidLanguage(value string) bool { return validChoice(LanguageChoices, value) }

// ValidAccess reports whether the value is a known access level.
func ValidAccess(value string) bool { return validChoice(AccessChoices, value) }
