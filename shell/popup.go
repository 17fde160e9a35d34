package shell

import (
	"image"
	"slices"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/internal/xslices"
	"deedles.dev/shoji/seat"
	"golang.org/x/exp/maps"
)

// Popup is an xdg_popup-role surface positioned relative to its
// parent surface. Popups are transient; a popup may or may not take
// part in an input grab.
type Popup struct {
	// OnDone tells the client the popup was dismissed.
	OnDone func()

	surface  *compositor.Surface
	parent   *compositor.Surface
	geometry image.Rectangle // position and size relative to the parent
}

// NewPopup assigns the popup role to a surface positioned at geo
// relative to parent.
func NewPopup(s, parent *compositor.Surface, geo image.Rectangle) (*Popup, error) {
	if err := s.SetRole(compositor.RolePopup); err != nil {
		return nil, err
	}
	return &Popup{
		surface:  s,
		parent:   parent,
		geometry: geo.Canon(),
	}, nil
}

func (p *Popup) Surface() *compositor.Surface { return p.surface }
func (p *Popup) Parent() *compositor.Surface  { return p.parent }
func (p *Popup) Geometry() image.Rectangle    { return p.geometry }

func (p *Popup) SetGeometry(geo image.Rectangle) {
	p.geometry = geo.Canon()
}

// SetParent attaches the popup to a parent surface after creation.
// Shells that parent popups through their own requests, like the
// layer shell, create the popup first and attach it here.
func (p *Popup) SetParent(parent *compositor.Surface) {
	p.parent = parent
}

func (p *Popup) dismiss() {
	if p.OnDone != nil {
		p.OnDone()
	}
}

// PopupManager tracks every live popup for one compositor instance,
// grabbed or not. Ungrabbed popups are tracked purely for
// enumeration and rendering; only grabbed ones take part in the grab
// state machine.
type PopupManager struct {
	popups map[compositor.SurfaceID]*Popup
	order  []compositor.SurfaceID // mapping order, oldest first
	grabs  map[*seat.Seat]*PopupGrab
}

func NewPopupManager() *PopupManager {
	return &PopupManager{
		popups: make(map[compositor.SurfaceID]*Popup),
		grabs:  make(map[*seat.Seat]*PopupGrab),
	}
}

// Track registers a popup.
func (m *PopupManager) Track(p *Popup) {
	id := p.surface.ID()
	if _, ok := m.popups[id]; ok {
		return
	}
	m.popups[id] = p
	m.order = append(m.order, id)
}

// Popup returns the popup whose surface has the given ID, if any.
func (m *PopupManager) Popup(id compositor.SurfaceID) *Popup {
	return m.popups[id]
}

// PopupsFor returns the popups parented on the given surface, in
// mapping order.
func (m *PopupManager) PopupsFor(parent compositor.SurfaceID) []*Popup {
	var ps []*Popup
	for _, id := range m.order {
		p := m.popups[id]
		if p != nil && p.parent != nil && p.parent.ID() == parent {
			ps = append(ps, p)
		}
	}
	return ps
}

// Grab returns the seat's active popup grab, if any.
func (m *PopupManager) Grab(s *seat.Seat) *PopupGrab {
	return m.grabs[s]
}

// DestroySurface removes the popup belonging to the surface, if any,
// cascading to popups parented on it and to the grab stack. It is
// also the hook for parent-surface destruction: popups whose parent
// is the destroyed surface are dismissed too.
func (m *PopupManager) DestroySurface(id compositor.SurfaceID) {
	// Children first: popups parented on the surface go away with it.
	for _, c := range m.PopupsFor(id) {
		m.DestroySurface(c.surface.ID())
		c.dismiss()
	}

	p := m.popups[id]
	if p == nil {
		return
	}
	delete(m.popups, id)
	m.order = xslices.Remove(m.order, id)

	for _, g := range maps.Values(m.grabs) {
		if slices.Contains(g.stack, p) {
			g.Dismiss(p, UngrabAllAbove)
		}
	}
}

// topmostIn reports whether p is the most recently mapped popup among
// those parented on p's parent.
func (m *PopupManager) topmostIn(p *Popup) bool {
	if len(m.PopupsFor(p.surface.ID())) > 0 {
		// p already has child popups of its own.
		return false
	}
	siblings := m.PopupsFor(p.parent.ID())
	return len(siblings) > 0 && siblings[len(siblings)-1] == p
}
