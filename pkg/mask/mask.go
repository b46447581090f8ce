// Package mask derives input masks from Unicode date/time token formats and
// parses or formats values against the same formats. Only the token subset
// the date and time widgets accept is recognised:
//
//	date: yyyy yy MM M dd d
//	time: HH H hh h mm m ss s a
//
// Everything that is not a letter is a literal separator.
package mask

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultChar is the placeholder used for editable mask positions.
const DefaultChar = "0"

// TokenSet maps a token letter to the width its mask slot occupies.
type TokenSet map[rune]int

// DateTokens is the token subset accepted by date fields.
var DateTokens = TokenSet{'y': 4, 'M': 2, 'd': 2}

// TimeTokens is the token subset accepted by time fields.
var TimeTokens = TokenSet{'H': 2, 'h': 2, 'm': 2, 's': 2, 'a': 2}

// AllTokens accepts both date and time tokens.
var AllTokens = merge(DateTokens, TimeTokens)

var (
	// ErrEmptyFormat is returned for blank formats.
	ErrEmptyFormat = errors.New("mask: format is empty")
	// ErrUnknownToken is returned when a format uses a token outside the set.
	ErrUnknownToken = errors.New("mask: unsupported token")
)

type segment struct {
	token   rune
	literal bool
	text    string
}

func split(format string) []segment {
	var out []segment
	runes := []rune(format)
	for i := 0; i < len(runes); {
		r := runes[i]
		if !unicode.IsLetter(r) {
			j := i
			for j < len(runes) && !unicode.IsLetter(runes[j]) {
				j++
			}
			out = append(out, segment{literal: true, text: string(runes[i:j])})
			i = j
			continue
		}
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		out = append(out, segment{token: r, text: string(runes[i:j])})
		i = j
	}
	return out
}

func width(tokens TokenSet, seg segment) int {
	w, ok := tokens[seg.token]
	if !ok {
		return len([]rune(seg.text))
	}
	if seg.token == 'y' && len(seg.text) <= 2 {
		return 2
	}
	return w
}

// FormatToMask replaces every token run with maskChar repeated to the slot
// width and keeps separators. Runs outside the recognised set keep their own
// length.
func FormatToMask(format, maskChar string) string {
	if maskChar == "" {
		maskChar = DefaultChar
	}
	var b strings.Builder
	for _, seg := range split(format) {
		if seg.literal {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(strings.Repeat(maskChar, width(AllTokens, seg)))
	}
	return b.String()
}

// ValidateFormat checks that format only uses tokens from the set.
func ValidateFormat(format string, tokens TokenSet) error {
	if strings.TrimSpace(format) == "" {
		return ErrEmptyFormat
	}
	for _, seg := range split(format) {
		if seg.literal {
			continue
		}
		if _, ok := tokens[seg.token]; !ok {
			return fmt.Errorf("%w %q in %q", ErrUnknownToken, seg.text, format)
		}
		if len(seg.text) > 2 && seg.token != 'y' {
			return fmt.Errorf("%w %q in %q", ErrUnknownToken, seg.text, format)
		}
		if seg.token == 'y' && len(seg.text) != 2 && len(seg.text) != 4 {
			return fmt.Errorf("%w %q in %q", ErrUnknownToken, seg.text, format)
		}
		if seg.token == 'a' && len(seg.text) != 1 {
			return fmt.Errorf("%w %q in %q", ErrUnknownToken, seg.text, format)
		}
	}
	return nil
}

func merge(sets ...TokenSet) TokenSet {
	out := TokenSet{}
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}
