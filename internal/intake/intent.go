package intake

import (
	"strconv"
	"strings"
	"unicode"
)

// bookingKeywords is the ordered substring list for booking-intent detection.
// This is a documented heuristic, not a classifier: a word like "call" inside
// an unrelated sentence will match. The real-question gate in the transition
// table keeps the worst false positives (a cold "book" with no context) out.
var bookingKeywords = []string{
	"book",
	"consult",
	"appointment",
	"talk to a lawyer",
	"speak to a lawyer",
	"lawyer",
	"advocate",
	"call",
	"वकील",
	"परामर्श",
	"सल्ला",
}

// stopSet holds normalized greetings and commands that never count as real
// questions.
var stopSet = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "namaste": {}, "नमस्ते": {}, "नमस्कार": {},
	"ok": {}, "okay": {}, "thanks": {}, "thank you": {}, "धन्यवाद": {},
	"yes": {}, "no": {}, "हाँ": {}, "नहीं": {}, "हो": {},
	"start": {}, "menu": {}, "help": {}, "stop": {},
	"good morning": {}, "good evening": {},
}

// Normalize lowercases, trims, and collapses inner whitespace.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	return strings.Join(fields, " ")
}

// MatchBookingIntent reports whether the text contains any booking keyword,
// checked in list order with plain substring matching.
func MatchBookingIntent(text string) bool {
	norm := Normalize(text)
	if norm == "" {
		return false
	}
	for _, kw := range bookingKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// IsRealQuestion reports whether an inbound text counts toward the user's
// substantive-question counter: non-empty, not in the greeting/command stop
// set, not purely digits, and not itself a booking command.
func IsRealQuestion(text string) bool {
	norm := Normalize(text)
	if norm == "" {
		return false
	}
	if _, stopped := stopSet[norm]; stopped {
		return false
	}
	if isDigits(norm) {
		return false
	}
	if MatchBookingIntent(norm) {
		return false
	}
	return true
}

// ParseRating parses a 1-4 score; ok is false for anything else.
func ParseRating(text string) (int, bool) {
	norm := Normalize(text)
	score, err := strconv.Atoi(norm)
	if err != nil || score < 1 || score > 4 {
		return 0, false
	}
	return score, true
}

// IsAffirmative reports whether the text normalizes to a "yes" in any
// supported language.
func IsAffirmative(text string) bool {
	switch Normalize(text) {
	case "yes", "y", "yes please", "haan", "ha", "हाँ", "हा", "हो", "होय":
		return true
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
