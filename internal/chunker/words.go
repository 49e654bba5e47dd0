package chunker

import (
	"strings"
	"unicode"
)

// SpellOut spaces out the characters of a fully capitalized word so TTS
// engines read acronyms letter by letter: "NASA" becomes "N A S A".
// Words without letters or with any lowercase letter are returned unchanged.
func SpellOut(word string) string {
	if !isShouted(word) {
		return word
	}
	runes := []rune(word)
	if len(runes) < 2 {
		return word
	}
	var sb strings.Builder
	sb.Grow(len(word) * 2)
	for i, r := range runes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// isShouted reports whether word has at least one letter and no lowercase
// letters. Only cased letters count, so caseless scripts are left alone.
func isShouted(word string) bool {
	hasUpper := false
	for _, r := range word {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
