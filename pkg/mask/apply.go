package mask

import "strings"

// Apply lays raw input into mask. Editable positions (maskChar) consume input
// characters in order; separators are written only while input remains, so a
// partial entry never ends with a dangling separator. Separator characters
// typed by the user are ignored.
func Apply(mask, raw, maskChar string) string {
	if maskChar == "" {
		maskChar = DefaultChar
	}
	placeholder := []rune(maskChar)[0]
	input := []rune(stripLiterals(mask, raw, placeholder))

	var b strings.Builder
	pos := 0
	for _, m := range mask {
		if pos >= len(input) {
			break
		}
		if m == placeholder {
			b.WriteRune(input[pos])
			pos++
			continue
		}
		b.WriteRune(m)
	}
	return b.String()
}

// Unmask returns the characters typed into editable positions of text.
func Unmask(mask, text, maskChar string) string {
	if maskChar == "" {
		maskChar = DefaultChar
	}
	placeholder := []rune(maskChar)[0]
	maskRunes := []rune(mask)
	var b strings.Builder
	for i, r := range []rune(text) {
		if i >= len(maskRunes) {
			break
		}
		if maskRunes[i] == placeholder {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Complete reports whether text fills every position of mask.
func Complete(mask, text string) bool {
	return len([]rune(text)) == len([]rune(mask))
}

func stripLiterals(mask, raw string, placeholder rune) string {
	literals := make(map[rune]struct{})
	for _, m := range mask {
		if m != placeholder {
			literals[m] = struct{}{}
		}
	}
	var b strings.Builder
	for _, r := range raw {
		if _, ok := literals[r]; ok {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
