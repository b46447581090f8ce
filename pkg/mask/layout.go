package mask

import (
	"strings"
	"time"
)

// goLayout maps tokens to zero-padded layouts. Every slot in the mask has a
// fixed width, so single-letter tokens are written padded too.
var goLayout = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MM":   "01",
	"M":    "01",
	"dd":   "02",
	"d":    "02",
	"HH":   "15",
	"H":    "15",
	"hh":   "03",
	"h":    "03",
	"mm":   "04",
	"m":    "04",
	"ss":   "05",
	"s":    "05",
	"a":    "PM",
}

// Layout translates a validated Unicode token format into a time layout.
func Layout(format string) string {
	var b strings.Builder
	for _, seg := range split(format) {
		if seg.literal {
			b.WriteString(seg.text)
			continue
		}
		if layout, ok := goLayout[seg.text]; ok {
			b.WriteString(layout)
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String()
}

// Parse reads text written in format. Incomplete or invalid text reports
// false; callers treat that as an empty value.
func Parse(format, text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout(format), strings.ToUpper(text), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders t in format. The zero time renders as "".
func Format(format string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout(format))
}
