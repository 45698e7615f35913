// Package i18n renders user-facing copy for a locale. The intake core only
// ever references message keys; the wording lives here.
package i18n

import (
	"bytes"
	"fmt"
	"text/template"
)

// Supported locales. Anything else falls back to English.
const (
	LocaleEnglish = "en"
	LocaleHindi   = "hi"
	LocaleMarathi = "mr"
)

// MessageKey identifies a piece of outbound copy.
type MessageKey string

const (
	MsgWelcome          MessageKey = "welcome"
	MsgLanguageConfirm  MessageKey = "language_confirm"
	MsgLanguageReprompt MessageKey = "language_reprompt"
	MsgCategoryPrompt   MessageKey = "category_prompt"
	MsgCategoryReprompt MessageKey = "category_reprompt"
	MsgSlotPrompt       MessageKey = "slot_prompt"
	MsgBookingConfirm   MessageKey = "booking_confirm"
	MsgBookingActive    MessageKey = "booking_active"
	MsgRebookConfirm    MessageKey = "rebook_confirm"
	MsgPaymentReceived  MessageKey = "payment_received"
	MsgRatingRequest    MessageKey = "rating_request"
	MsgRatingReprompt   MessageKey = "rating_reprompt"
	MsgRatingThanks     MessageKey = "rating_thanks"
	MsgRatingSorry      MessageKey = "rating_sorry"
	MsgRebookSlotPrompt MessageKey = "rebook_slot_prompt"
	MsgUpsell           MessageKey = "upsell"
	MsgReplyFallback    MessageKey = "reply_fallback"
	MsgTextOnly         MessageKey = "text_only"
)

// Translator renders a message key for a locale. The intake executor treats
// this as an opaque dependency.
type Translator interface {
	Translate(locale string, key MessageKey, params map[string]string) string
}

// Catalog is a static, in-code Translator.
type Catalog struct{}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog { return &Catalog{} }

// Translate renders key for locale, falling back to English and, if the key
// is unknown, to the reply-fallback message so users are never left hanging.
func (c *Catalog) Translate(locale string, key MessageKey, params map[string]string) string {
	table, ok := catalogs[locale]
	if !ok {
		table = catalogs[LocaleEnglish]
	}
	tmpl, ok := table[key]
	if !ok {
		tmpl = catalogs[LocaleEnglish][key]
	}
	if tmpl == "" {
		return catalogs[LocaleEnglish][MsgReplyFallback]
	}
	out, err := render(string(key), tmpl, params)
	if err != nil {
		return catalogs[LocaleEnglish][MsgReplyFallback]
	}
	return out
}

func render(name, tmpl string, data map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("i18n: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("i18n: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

var english = map[MessageKey]string{
	MsgWelcome:          "Welcome to NyayaSetu Legal Help! Your case ID is {{.CaseID}}. Please choose your language.",
	MsgLanguageConfirm:  "Great, we will continue in English. Ask me any legal question.",
	MsgLanguageReprompt: "Please pick one of the language options below.",
	MsgCategoryPrompt:   "Which area does your matter fall under?",
	MsgCategoryReprompt: "Sorry, I did not recognise that category. Please choose one of the options.",
	MsgSlotPrompt:       "A consultation in {{.Category}} costs ₹{{.Fee}}. When would you like the call? (e.g. \"Tomorrow 5pm\")",
	MsgBookingConfirm:   "Your consultation is noted for \"{{.Slot}}\". Please complete the payment of ₹{{.Fee}} here: {{.Link}}",
	MsgBookingActive:    "You already have a consultation in progress. Please finish that one before booking another.",
	MsgRebookConfirm:    "Your free follow-up consultation is noted for \"{{.Slot}}\". Our advocate will call you then.",
	MsgPaymentReceived:  "Payment received, thank you! Our advocate will call you at the chosen time. Case ID: {{.CaseID}}",
	MsgRatingRequest:    "Your consultation is complete. How did we do? Reply 1 (excellent) to 4 (poor).",
	MsgRatingReprompt:   "Please reply with a single digit between 1 and 4.",
	MsgRatingThanks:     "Thank you for the feedback!",
	MsgRatingSorry:      "We are sorry the consultation fell short. Would you like a free follow-up consultation? Reply yes to book one.",
	MsgRebookSlotPrompt: "When would you like the free follow-up call?",
	MsgUpsell:           "If you would like to speak to an advocate directly, just say \"book\" and I will set up a consultation.",
	MsgReplyFallback:    "Sorry, I could not process that right now. Please try again in a moment.",
	MsgTextOnly:         "I can only read text messages for now. Please type your question.",
}

var hindi = map[MessageKey]string{
	MsgWelcome:          "NyayaSetu कानूनी सहायता में आपका स्वागत है! आपका केस ID {{.CaseID}} है। कृपया अपनी भाषा चुनें।",
	MsgLanguageConfirm:  "ठीक है, हम हिंदी में बात करेंगे। कोई भी कानूनी सवाल पूछें।",
	MsgLanguageReprompt: "कृपया नीचे दिए विकल्पों में से एक भाषा चुनें।",
	MsgCategoryPrompt:   "आपका मामला किस क्षेत्र में आता है?",
	MsgCategoryReprompt: "माफ कीजिए, यह श्रेणी समझ नहीं आई। कृपया विकल्पों में से चुनें।",
	MsgSlotPrompt:       "{{.Category}} में परामर्श की फीस ₹{{.Fee}} है। कॉल कब चाहिए? (जैसे \"कल शाम 5 बजे\")",
	MsgBookingConfirm:   "आपका परामर्श \"{{.Slot}}\" के लिए नोट कर लिया गया है। कृपया ₹{{.Fee}} का भुगतान यहाँ करें: {{.Link}}",
	MsgBookingActive:    "आपका एक परामर्श पहले से चल रहा है। नया बुक करने से पहले कृपया उसे पूरा करें।",
	MsgRebookConfirm:    "आपका नि:शुल्क फॉलो-अप परामर्श \"{{.Slot}}\" के लिए नोट हो गया है।",
	MsgPaymentReceived:  "भुगतान प्राप्त हुआ, धन्यवाद! हमारे अधिवक्ता चुने हुए समय पर कॉल करेंगे। केस ID: {{.CaseID}}",
	MsgRatingRequest:    "आपका परामर्श पूरा हुआ। हमें 1 (उत्कृष्ट) से 4 (खराब) तक रेटिंग दें।",
	MsgRatingReprompt:   "कृपया 1 से 4 के बीच केवल एक अंक भेजें।",
	MsgRatingThanks:     "आपकी प्रतिक्रिया के लिए धन्यवाद!",
	MsgRatingSorry:      "हमें खेद है कि परामर्श अच्छा नहीं रहा। क्या आप नि:शुल्क फॉलो-अप चाहेंगे? हाँ लिखें।",
	MsgRebookSlotPrompt: "नि:शुल्क फॉलो-अप कॉल कब चाहिए?",
	MsgUpsell:           "यदि आप सीधे अधिवक्ता से बात करना चाहें तो \"book\" लिखें, मैं परामर्श बुक कर दूँगा।",
	MsgReplyFallback:    "क्षमा करें, अभी जवाब नहीं दे पा रहा। कृपया थोड़ी देर में फिर प्रयास करें।",
	MsgTextOnly:         "अभी मैं केवल टेक्स्ट संदेश पढ़ सकता हूँ। कृपया अपना सवाल लिखें।",
}

var marathi = map[MessageKey]string{
	MsgWelcome:          "NyayaSetu कायदेशीर मदतीमध्ये स्वागत आहे! तुमचा केस ID {{.CaseID}} आहे. कृपया भाषा निवडा.",
	MsgLanguageConfirm:  "ठीक आहे, आपण मराठीत बोलू. कोणताही कायदेशीर प्रश्न विचारा.",
	MsgLanguageReprompt: "कृपया खालील पर्यायांमधून एक भाषा निवडा.",
	MsgCategoryPrompt:   "तुमचे प्रकरण कोणत्या क्षेत्रात येते?",
	MsgCategoryReprompt: "माफ करा, ही श्रेणी ओळखता आली नाही. कृपया पर्यायांमधून निवडा.",
	MsgSlotPrompt:       "{{.Category}} मधील सल्ल्याची फी ₹{{.Fee}} आहे. कॉल कधी हवा? (उदा. \"उद्या संध्याकाळी ५\")",
	MsgBookingConfirm:   "तुमचा सल्ला \"{{.Slot}}\" साठी नोंदवला आहे. कृपया ₹{{.Fee}} चे पेमेंट येथे करा: {{.Link}}",
	MsgBookingActive:    "तुमचा एक सल्ला आधीच सुरू आहे. नवीन बुक करण्यापूर्वी कृपया तो पूर्ण करा.",
	MsgRebookConfirm:    "तुमचा मोफत फॉलो-अप सल्ला \"{{.Slot}}\" साठी नोंदवला आहे.",
	MsgPaymentReceived:  "पेमेंट मिळाले, धन्यवाद! आमचे वकील निवडलेल्या वेळी कॉल करतील. केस ID: {{.CaseID}}",
	MsgRatingRequest:    "तुमचा सल्ला पूर्ण झाला. 1 (उत्तम) ते 4 (वाईट) रेटिंग द्या.",
	MsgRatingReprompt:   "कृपया 1 ते 4 मधील एकच अंक पाठवा.",
	MsgRatingThanks:     "तुमच्या अभिप्रायाबद्दल धन्यवाद!",
	MsgRatingSorry:      "सल्ला चांगला झाला नाही याबद्दल क्षमस्व. मोफत फॉलो-अप हवा का? हो लिहा.",
	MsgRebookSlotPrompt: "मोफत फॉलो-अप कॉल कधी हवा?",
	MsgUpsell:           "वकिलांशी थेट बोलायचे असल्यास \"book\" लिहा, मी सल्ला बुक करून देईन.",
	MsgReplyFallback:    "माफ करा, सध्या उत्तर देता येत नाही. कृपया थोड्या वेळाने पुन्हा प्रयत्न करा.",
	MsgTextOnly:         "सध्या मी फक्त मजकूर संदेश वाचू शकतो. कृपया तुमचा प्रश्न लिहा.",
}

var catalogs = map[string]map[MessageKey]string{
	LocaleEnglish: english,
	LocaleHindi:   hindi,
	LocaleMarathi: marathi,
}
