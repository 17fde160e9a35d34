package shell

import (
	"image"

	"deedles.dev/shoji/compositor"
)

// Toplevel is an xdg_toplevel-role window surface.
type Toplevel struct {
	Title string
	AppID string

	// OnConfigure delivers a configure event to the client. size is a
	// hint; (0, 0) leaves the size up to the client.
	OnConfigure func(serial uint32, size image.Point)

	// OnClose asks the client to close the window.
	OnClose func()

	surface  *compositor.Surface
	geometry image.Rectangle
}

// NewToplevel assigns the toplevel role to a surface.
func NewToplevel(s *compositor.Surface) (*Toplevel, error) {
	if err := s.SetRole(compositor.RoleToplevel); err != nil {
		return nil, err
	}
	return &Toplevel{surface: s}, nil
}

func (t *Toplevel) Surface() *compositor.Surface { return t.surface }

// SetGeometry records the client-declared window geometry.
func (t *Toplevel) SetGeometry(geo image.Rectangle) {
	t.geometry = geo.Canon()
}

// Geometry returns the client-declared window geometry, clamped to
// the surface's actual extents. An unset geometry defaults to the
// full extent of the surface tree.
func (t *Toplevel) Geometry() image.Rectangle {
	ext := t.surface.Extents()
	if t.geometry.Empty() {
		return ext
	}
	return t.geometry.Intersect(ext)
}
