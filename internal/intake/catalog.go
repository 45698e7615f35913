package intake

import "github.com/nyayasetu/legal-intake-platform/internal/i18n"

// Category is a bookable legal-consultation area with a fixed fee.
type Category struct {
	ID       string
	FeePaise int
	Labels   map[string]string
}

// CategoryOther is the catch-all category, also used for free rebookings.
const CategoryOther = "other"

// Categories is the fixed option set shown in AWAITING_CATEGORY, in display
// order. Fees are rupees stored in paise.
var Categories = []Category{
	{ID: "police", FeePaise: 19900, Labels: map[string]string{
		i18n.LocaleEnglish: "Police Matters", i18n.LocaleHindi: "पुलिस मामले", i18n.LocaleMarathi: "पोलीस प्रकरणे"}},
	{ID: "property", FeePaise: 29900, Labels: map[string]string{
		i18n.LocaleEnglish: "Property", i18n.LocaleHindi: "संपत्ति", i18n.LocaleMarathi: "मालमत्ता"}},
	{ID: "family", FeePaise: 24900, Labels: map[string]string{
		i18n.LocaleEnglish: "Family & Divorce", i18n.LocaleHindi: "परिवार और तलाक", i18n.LocaleMarathi: "कुटुंब व घटस्फोट"}},
	{ID: "employment", FeePaise: 24900, Labels: map[string]string{
		i18n.LocaleEnglish: "Employment", i18n.LocaleHindi: "रोज़गार", i18n.LocaleMarathi: "रोजगार"}},
	{ID: "consumer", FeePaise: 19900, Labels: map[string]string{
		i18n.LocaleEnglish: "Consumer", i18n.LocaleHindi: "उपभोक्ता", i18n.LocaleMarathi: "ग्राहक"}},
	{ID: CategoryOther, FeePaise: 14900, Labels: map[string]string{
		i18n.LocaleEnglish: "Something Else", i18n.LocaleHindi: "कुछ और", i18n.LocaleMarathi: "इतर काही"}},
}

// Language is a selectable conversation locale. Labels are shown in the
// language itself, so they are not localized further.
type Language struct {
	ID     string
	Locale string
	Label  string
	// Aliases match free-typed language choices ("english", "हिंदी").
	Aliases []string
}

// Languages is the option set shown in AWAITING_LANGUAGE.
var Languages = []Language{
	{ID: "lang_en", Locale: i18n.LocaleEnglish, Label: "English", Aliases: []string{"english", "en", "1"}},
	{ID: "lang_hi", Locale: i18n.LocaleHindi, Label: "हिन्दी", Aliases: []string{"hindi", "हिंदी", "हिन्दी", "hi", "2"}},
	{ID: "lang_mr", Locale: i18n.LocaleMarathi, Label: "मराठी", Aliases: []string{"marathi", "मराठी", "mr", "3"}},
}

// CategoryByInput resolves a button ID or typed text to a category.
func CategoryByInput(input string) (Category, bool) {
	norm := Normalize(input)
	for _, c := range Categories {
		if norm == c.ID || norm == "cat_"+c.ID {
			return c, true
		}
		for _, label := range c.Labels {
			if norm == Normalize(label) {
				return c, true
			}
		}
	}
	return Category{}, false
}

// CategoryByID resolves a category by its identifier only.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// LanguageByInput resolves a button ID or typed text to a language.
func LanguageByInput(input string) (Language, bool) {
	norm := Normalize(input)
	for _, l := range Languages {
		if norm == l.ID || norm == Normalize(l.Label) {
			return l, true
		}
		for _, alias := range l.Aliases {
			if norm == alias {
				return l, true
			}
		}
	}
	return Language{}, false
}
