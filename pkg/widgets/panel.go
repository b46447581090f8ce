package widgets

import (
	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Placement reports the free rows below and above a field and the rows the
// panel needs. Hosts without geometry leave it nil and panels open below.
type Placement func() (below, above, needed int)

type panel struct {
	state    *field.State
	element  *field.Element
	open     bool
	position field.PanelPosition
	place    Placement
	scrolled int
	changes  *stream.Stream[bool]
}

func newPanel(state *field.State, name string) *panel {
	p := &panel{
		state:    state,
		element:  field.NewElement(name + "-panel"),
		position: field.PanelBelow,
		scrolled: -1,
		changes:  stream.New[bool](),
	}
	state.Own(p.element)
	return p
}

// reposition flips the panel above the field when it does not fit below and
// there is more room above.
func (p *panel) reposition() {
	p.position = field.PanelBelow
	if p.place == nil {
		return
	}
	below, above, needed := p.place()
	if below < needed && above > below {
		p.position = field.PanelAbove
	}
}

func (p *panel) setOpen(open bool) bool {
	if p.open == open {
		return false
	}
	p.open = open
	if open {
		p.reposition()
	}
	p.changes.Emit(open)
	return true
}

// scrollTo records the index brought into view on the next tick, once the
// panel content has been laid out.
func (p *panel) scrollTo(index int) {
	p.state.Defer(func() {
		if p.open {
			p.scrolled = index
		}
	})
}

func (p *panel) destroy() {
	p.changes.Close()
}
