// Package render drives a frame through an external renderer. The
// renderer itself, GL or software or whatever else, stays an opaque
// collaborator behind the Renderer interface; this package walks the
// scene in compositing order, borrows buffer references for the
// duration of the frame, and fires frame callbacks and deferred
// buffer releases at the frame boundary.
package render

import (
	"fmt"
	"image"
	"time"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/layershell"
	"deedles.dev/shoji/shell"
	"deedles.dev/shoji/space"
)

// Texture is an imported buffer, owned by the renderer.
type Texture interface {
	Size() image.Point
}

// Renderer is the capability this core drives to put pixels on an
// output.
type Renderer interface {
	// Begin starts a frame. damage holds the regions that changed
	// since the renderer's last frame; an empty list means nothing
	// did, and the renderer may skip drawing entirely.
	Begin(damage []image.Rectangle) error

	// Import makes a buffer's content available to the renderer.
	// Import failure is reported to the caller of Output; the surface
	// keeps displaying its previous content.
	Import(b *compositor.Buffer) (Texture, error)

	// Render draws a texture at dst, clipped to the damaged regions.
	Render(t Texture, dst image.Rectangle, transform compositor.Transform, damage []image.Rectangle) error
}

// Output composites one output: background and bottom layers, then
// the space's windows back to front with their popups, then top and
// overlay layers. Buffer references borrowed for the frame are
// returned before the deferred release queue is drained, so release
// notifications reach clients in attach order once per buffer.
func Output(r Renderer, st *compositor.State, sp *space.Space, lm *layershell.Map, pm *shell.PopupManager, o *space.Output, at time.Time) error {
	fr := frame{
		r:      r,
		o:      o,
		pm:     pm,
		msec:   uint32(at.UnixMilli()),
		damage: sp.DamageForOutput(o),
	}
	defer func() {
		fr.release()
		st.FlushReleases()
	}()

	if err := r.Begin(fr.damage); err != nil {
		return err
	}

	for _, l := range []layershell.Layer{layershell.LayerBackground, layershell.LayerBottom} {
		for _, ls := range lm.Layer(o, l) {
			if err := fr.surfaceTree(ls.Surface(), ls.Geometry().Min); err != nil {
				return err
			}
		}
	}

	for e := range sp.ElementsForOutput(o) {
		if err := fr.surfaceTree(e.Window.Surface(), e.Position); err != nil {
			return err
		}
		if err := fr.popups(e.Window.Surface().ID(), e.Position); err != nil {
			return err
		}
	}

	for _, l := range []layershell.Layer{layershell.LayerTop, layershell.LayerOverlay} {
		for _, ls := range lm.Layer(o, l) {
			if err := fr.surfaceTree(ls.Surface(), ls.Geometry().Min); err != nil {
				return err
			}
			if err := fr.popups(ls.Surface().ID(), ls.Geometry().Min); err != nil {
				return err
			}
		}
	}

	return nil
}

type frame struct {
	r      Renderer
	o      *space.Output
	pm     *shell.PopupManager
	msec   uint32
	damage []image.Rectangle
	held   []*compositor.Buffer
}

// popups renders the popups parented on a surface, oldest first, each
// followed by its own popups.
func (fr *frame) popups(parent compositor.SurfaceID, origin image.Point) error {
	if fr.pm == nil {
		return nil
	}
	for _, p := range fr.pm.PopupsFor(parent) {
		at := origin.Add(p.Geometry().Min)
		if err := fr.surfaceTree(p.Surface(), at); err != nil {
			return err
		}
		if err := fr.popups(p.Surface().ID(), at); err != nil {
			return err
		}
	}
	return nil
}

// surfaceTree renders a surface and its mapped descendants bottom to
// top.
func (fr *frame) surfaceTree(root *compositor.Surface, at image.Point) error {
	if root == nil {
		return nil
	}

	var err error
	root.Walk(at, func(s *compositor.Surface, pos image.Point) bool {
		err = fr.surface(s, pos)
		return err == nil
	})
	return err
}

func (fr *frame) surface(s *compositor.Surface, pos image.Point) error {
	b := s.Current().Buffer
	if b == nil {
		return nil
	}

	b.BeginRender()
	fr.held = append(fr.held, b)

	t, err := fr.r.Import(b)
	if err != nil {
		return fmt.Errorf("import buffer for surface %v: %w", s.ID(), err)
	}

	dst := s.Extent().Add(pos)
	if err := fr.r.Render(t, dst, s.Current().Transform, fr.damage); err != nil {
		return fmt.Errorf("render surface %v: %w", s.ID(), err)
	}

	for _, f := range s.TakeFrameCallbacks() {
		f(fr.msec)
	}
	return nil
}

// release returns every buffer reference borrowed during the frame.
func (fr *frame) release() {
	for _, b := range fr.held {
		b.EndRender()
	}
	fr.held = nil
}
