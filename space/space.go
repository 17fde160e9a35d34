// Package space arranges windows and outputs on a 2-D plane and
// tracks, per output, the screen regions that need redrawing. It is
// arrangement mechanism only; which window goes where is the
// caller's policy.
package space

import (
	"image"
	"iter"
	"slices"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/internal/xslices"
	"deedles.dev/shoji/shell"
	"deedles.dev/xiter"
)

// Element is a window placed in the space, as yielded to renderers.
type Element struct {
	Window   *shell.Window
	Position image.Point
	Z        int
}

// Region returns the screen rectangle the element occupies.
func (e Element) Region() image.Rectangle {
	size := e.Window.Geometry().Size()
	return image.Rectangle{Min: e.Position, Max: e.Position.Add(size)}
}

type element struct {
	win *shell.Window
	pos image.Point
	z   int
	seq int // insertion order, tiebreak within equal z
}

func (e *element) region() image.Rectangle {
	size := e.win.Geometry().Size()
	return image.Rectangle{Min: e.pos, Max: e.pos.Add(size)}
}

// Space is the scene arrangement: windows with positions and
// explicit z-order, outputs with geometry, and per-output
// accumulated damage.
type Space struct {
	elements []*element // sorted ascending by (z, seq)
	outputs  []*Output
	damage   map[*Output][]image.Rectangle
	nextSeq  int
}

func New() *Space {
	return &Space{
		damage: make(map[*Output][]image.Rectangle),
	}
}

func (sp *Space) AddOutput(o *Output) {
	if !slices.Contains(sp.outputs, o) {
		sp.outputs = append(sp.outputs, o)
	}
}

func (sp *Space) RemoveOutput(o *Output) {
	sp.outputs = xslices.Remove(sp.outputs, o)
	delete(sp.damage, o)
}

func (sp *Space) Outputs() []*Output { return sp.outputs }

func (sp *Space) find(w *shell.Window) *element {
	for _, e := range sp.elements {
		if e.win == w {
			return e
		}
	}
	return nil
}

// MapElement inserts the window at the given position and z-order,
// or repositions it if it is already mapped. Both the vacated and
// the newly covered regions are damaged.
func (sp *Space) MapElement(w *shell.Window, pos image.Point, z int) {
	e := sp.find(w)
	if e == nil {
		e = &element{win: w, seq: sp.nextSeq}
		sp.nextSeq++
		sp.elements = append(sp.elements, e)
	} else {
		sp.damageRegion(e.region())
	}
	e.pos = pos
	e.z = z
	sp.sort()
	sp.damageRegion(e.region())
}

// UnmapElement removes the window, damaging the region it occupied
// on every output it overlapped.
func (sp *Space) UnmapElement(w *shell.Window) {
	e := sp.find(w)
	if e == nil {
		return
	}
	sp.damageRegion(e.region())
	sp.elements = xslices.Remove(sp.elements, e)
}

// Raise moves the window to the top of its z level.
func (sp *Space) Raise(w *shell.Window) {
	e := sp.find(w)
	if e == nil {
		return
	}
	e.seq = sp.nextSeq
	sp.nextSeq++
	sp.sort()
	sp.damageRegion(e.region())
}

// Position returns the window's assigned position.
func (sp *Space) Position(w *shell.Window) (image.Point, bool) {
	e := sp.find(w)
	if e == nil {
		return image.Point{}, false
	}
	return e.pos, true
}

func (sp *Space) sort() {
	slices.SortStableFunc(sp.elements, func(a, b *element) int {
		if a.z != b.z {
			return a.z - b.z
		}
		return a.seq - b.seq
	})
}

// ElementUnder returns the topmost window whose surface tree accepts
// input at pt, along with the hit surface and pt in that surface's
// coordinates.
func (sp *Space) ElementUnder(pt image.Point) (Element, *compositor.Surface, image.Point, bool) {
	for i := len(sp.elements) - 1; i >= 0; i-- {
		e := sp.elements[i]
		if !e.win.Mapped() || !pt.In(e.region()) {
			continue
		}
		if s, local, ok := e.win.SurfaceUnder(pt.Sub(e.pos)); ok {
			return Element{Window: e.win, Position: e.pos, Z: e.z}, s, local, true
		}
	}
	return Element{}, nil, image.Point{}, false
}

// NotifyCommit pulls the damage a window's surface tree accumulated
// in commits and records it against the outputs the window overlaps.
func (sp *Space) NotifyCommit(w *shell.Window) {
	e := sp.find(w)
	if e == nil {
		return
	}
	root := w.Surface()
	if root == nil {
		return
	}
	root.Walk(e.pos, func(s *compositor.Surface, pos image.Point) bool {
		for _, d := range s.TakeDamage() {
			sp.damageRegion(d.Add(pos))
		}
		return true
	})
}

// Refresh drops windows whose surfaces have died, damaging the
// regions they occupied.
func (sp *Space) Refresh() {
	for _, e := range slices.Clone(sp.elements) {
		if !e.win.Alive() {
			sp.UnmapElement(e.win)
		}
	}
}

// damageRegion records r against every output it intersects.
func (sp *Space) damageRegion(r image.Rectangle) {
	if r.Empty() {
		return
	}
	for _, o := range sp.outputs {
		clipped := r.Intersect(o.Geometry())
		if clipped.Empty() {
			continue
		}
		if containsRect(sp.damage[o], clipped) {
			continue
		}
		sp.damage[o] = append(sp.damage[o], clipped)
	}
}

func containsRect(rs []image.Rectangle, r image.Rectangle) bool {
	return slices.ContainsFunc(rs, func(have image.Rectangle) bool {
		return r.In(have)
	})
}

// Damage records an already-clipped damaged region directly, e.g.
// for output-wide invalidation.
func (sp *Space) Damage(r image.Rectangle) {
	sp.damageRegion(r)
}

// DamageForOutput returns the regions needing redraw on the output
// since the last call, and resets them. Consume-once: a second call
// with no intervening mutation returns nothing.
func (sp *Space) DamageForOutput(o *Output) []image.Rectangle {
	d := sp.damage[o]
	delete(sp.damage, o)
	return d
}

// Elements yields every mapped window back-to-front, lowest z first.
func (sp *Space) Elements() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, e := range sp.elements {
			if !yield(Element{Window: e.win, Position: e.pos, Z: e.z}) {
				return
			}
		}
	}
}

// ElementsForOutput yields the mapped windows intersecting the
// output, back-to-front. The sequence is lazy and restartable.
func (sp *Space) ElementsForOutput(o *Output) iter.Seq[Element] {
	return xiter.Filter(sp.Elements(), func(e Element) bool {
		return e.Window.Mapped() && e.Region().Overlaps(o.Geometry())
	})
}
