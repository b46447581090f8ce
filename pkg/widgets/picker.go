package widgets

import (
	"time"

	"github.com/goliatone/go-formfields/pkg/field"
)

// PickerConfig constrains the calendar popup of a DateField.
type PickerConfig struct {
	MinDate    time.Time
	MaxDate    time.Time
	DisableDay func(day time.Time) bool
	FirstDay   time.Weekday
}

// Day is one cell of the picker grid.
type Day struct {
	Date     time.Time
	InMonth  bool
	Disabled bool
}

// Picker is the calendar popup owned by a DateField. It only proposes dates;
// the field owns the value.
type Picker struct {
	cfg      PickerConfig
	element  *field.Element
	open     bool
	month    time.Time
	onSelect func(time.Time) bool
}

func newPicker(cfg PickerConfig, onSelect func(time.Time) bool) *Picker {
	return &Picker{
		cfg:      cfg,
		element:  field.NewElement("date-picker"),
		month:    firstOfMonth(time.Now()),
		onSelect: onSelect,
	}
}

// Element returns the popup element, owned by the field for outside-click
// detection.
func (p *Picker) Element() *field.Element { return p.element }

// Open reports whether the popup is shown.
func (p *Picker) Open() bool { return p.open }

// Month returns the first day of the displayed month.
func (p *Picker) Month() time.Time { return p.month }

// Show displays the month containing t.
func (p *Picker) Show(t time.Time) { p.month = firstOfMonth(t) }

// NextMonth and PrevMonth page the calendar.
func (p *Picker) NextMonth() { p.month = p.month.AddDate(0, 1, 0) }
func (p *Picker) PrevMonth() { p.month = p.month.AddDate(0, -1, 0) }

// Allowed reports whether day may be picked.
func (p *Picker) Allowed(day time.Time) bool {
	d := dateOf(day)
	if !p.cfg.MinDate.IsZero() && d.Before(dateOf(p.cfg.MinDate)) {
		return false
	}
	if !p.cfg.MaxDate.IsZero() && d.After(dateOf(p.cfg.MaxDate)) {
		return false
	}
	if p.cfg.DisableDay != nil && p.cfg.DisableDay(d) {
		return false
	}
	return true
}

// Grid returns six weeks of days covering the displayed month, each week
// starting on FirstDay.
func (p *Picker) Grid() [][]Day {
	lead := (int(p.month.Weekday()) - int(p.cfg.FirstDay) + 7) % 7
	start := p.month.AddDate(0, 0, -lead)
	weeks := make([][]Day, 6)
	for w := range weeks {
		weeks[w] = make([]Day, 7)
		for d := range weeks[w] {
			date := start.AddDate(0, 0, w*7+d)
			weeks[w][d] = Day{
				Date:     date,
				InMonth:  date.Month() == p.month.Month(),
				Disabled: !p.Allowed(date),
			}
		}
	}
	return weeks
}

// Pick selects day if it is allowed.
func (p *Picker) Pick(day time.Time) bool {
	if !p.Allowed(day) {
		return false
	}
	return p.onSelect(dateOf(day))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func firstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
}
