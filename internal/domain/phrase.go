package domain

import (
	"strings"
	"unicode"
)

// NormalizePhrase lowercases, drops punctuation and collapses whitespace.
// Apostrophes inside words are kept so "don't" stays one token.
func NormalizePhrase(raw string) string {
	runes := []rune(strings.ToLower(raw))
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			if i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				b.WriteRune('\'')
			} else {
				b.WriteRune(' ')
			}
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// StripWakeWord removes a leading wake word, e.g. "roland, gear down".
func StripWakeWord(phrase, wakeWord string) string {
	wake := NormalizePhrase(wakeWord)
	if wake == "" {
		return phrase
	}
	for _, prefix := range []string{"hey " + wake, "ok " + wake, "okay " + wake, wake} {
		if phrase == prefix {
			return ""
		}
		if rest, ok := strings.CutPrefix(phrase, prefix+" "); ok {
			return rest
		}
	}

	return phrase
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

var (
	repeatPhrases = []string{
		"repeat", "do that again", "again", "same again", "one more time",
		"do it again", "repeat that", "same thing",
	}
	cancelPhrases = []string{
		"cancel", "cancel that", "undo", "never mind", "nevermind", "stop",
	}
)

func IsRepeatPhrase(phrase string) bool {
	return containsPhrase(repeatPhrases, phrase)
}

func IsCancelPhrase(phrase string) bool {
	return containsPhrase(cancelPhrases, phrase)
}

// ReservedPhrases are control phrases no macro may claim as an alias.
func ReservedPhrases() []string {
	out := make([]string, 0, len(repeatPhrases)+len(cancelPhrases))
	out = append(out, repeatPhrases...)
	return append(out, cancelPhrases...)
}

func containsPhrase(phrases []string, phrase string) bool {
	for _, candidate := range phrases {
		if candidate == phrase {
			return true
		}
	}
	return false
}
