package presenter

import (
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/stream"
	"github.com/goliatone/go-formfields/pkg/validation"
)

// Presenter holds the displayable errors of a single control.
type Presenter struct {
	control forms.AbstractControl
	last    []string
	visible []string
	changes *stream.Stream[[]string]
	policy  *bluemonday.Policy
	bag     stream.Bag
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithPolicy replaces the sanitisation policy used by HTML.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(p *Presenter) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// New starts presenting c. Must be called on c's loop goroutine.
func New(c forms.AbstractControl, opts ...Option) *Presenter {
	p := &Presenter{
		control: c,
		changes: stream.New[[]string](),
		policy:  bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.refresh()
	p.bag.Add(c.Events().Subscribe(func(ev forms.Event) {
		switch ev.Kind {
		case forms.StatusChanged, forms.TouchedChanged, forms.ControlsChanged:
			p.refresh()
		}
	}))
	return p
}

// Control returns the presented control.
func (p *Presenter) Control() forms.AbstractControl { return p.control }

// Errors returns the messages to show: the last settled errors once the
// control has been touched, nil otherwise.
func (p *Presenter) Errors() []string { return p.visible }

// Last returns the last settled errors regardless of touched state.
func (p *Presenter) Last() []string { return p.last }

// First returns the first visible message.
func (p *Presenter) First() string {
	if len(p.visible) == 0 {
		return ""
	}
	return p.visible[0]
}

// Changes emits the visible errors whenever they change.
func (p *Presenter) Changes() *stream.Stream[[]string] { return p.changes }

// HTML renders the visible errors as a list. Each message goes through the
// presenter policy, strict by default, so only markup the policy allows
// survives.
func (p *Presenter) HTML() string {
	if len(p.visible) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="field-errors" role="alert">`)
	for _, msg := range p.visible {
		clean := strings.TrimSpace(p.policy.Sanitize(msg))
		if clean == "" {
			continue
		}
		b.WriteString("<li>")
		b.WriteString(clean)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// Close stops following the control and completes Changes.
func (p *Presenter) Close() {
	p.bag.Release()
	p.changes.Close()
}

func (p *Presenter) refresh() {
	c := p.control
	switch {
	case c.Disabled():
		p.last = nil
	case !c.Pending():
		p.last = nil
		if errs := c.Errors(); len(errs) > 0 {
			if msgs := validation.MessagesOf(errs); len(msgs) > 0 {
				p.last = msgs
			}
		}
	}

	var visible []string
	if c.Touched() {
		visible = p.last
	}
	if slices.Equal(visible, p.visible) {
		return
	}
	p.visible = visible
	p.changes.Emit(visible)
}
