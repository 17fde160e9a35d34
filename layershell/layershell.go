// Package layershell implements the layer-shell surface arrangement:
// surfaces bound to one of four compositing layers on one output,
// positioned by anchors and margins, optionally reserving an
// exclusive zone at an output edge.
package layershell

import (
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/space"
)

// Layer is one of the four layer-shell compositing layers. Windows
// render between LayerBottom and LayerTop.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay

	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	}
	return "unknown"
}

// Anchor is a bitmask of output edges a layer surface is anchored to.
type Anchor uint32

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight
)

func (a Anchor) Has(edge Anchor) bool {
	return a&edge != 0
}

// Margins are the distances, in pixels, a surface keeps from the
// edges it is anchored to.
type Margins struct {
	Top, Bottom, Left, Right int
}

// Surface is a layer-shell surface: a surface bound to one layer on
// exactly one output.
type Surface struct {
	Anchor Anchor

	// Exclusive is the requested exclusive zone in pixels. Positive
	// values reserve that much of the output's usable area at the
	// anchored edge; zero requests no reservation; -1 asks to be
	// positioned ignoring other surfaces' reservations.
	Exclusive int

	Margins Margins

	// DesiredSize is the client-requested size. A zero dimension
	// means "stretch along that axis", which requires being anchored
	// to both of the corresponding edges.
	DesiredSize image.Point

	// OnConfigure tells the client its arranged size.
	OnConfigure func(size image.Point)

	// OnClosed tells the client the surface was closed, e.g. because
	// its output went away.
	OnClosed func()

	surface *compositor.Surface
	output  *space.Output
	layer   Layer
	geo     image.Rectangle
	lastCfg image.Point
}

// NewSurface binds a surface to a layer on an output.
func NewSurface(s *compositor.Surface, o *space.Output, layer Layer) (*Surface, error) {
	if err := s.SetRole(compositor.RoleLayer); err != nil {
		return nil, err
	}
	return &Surface{
		surface: s,
		output:  o,
		layer:   layer,
	}, nil
}

func (ls *Surface) Surface() *compositor.Surface { return ls.surface }
func (ls *Surface) Output() *space.Output        { return ls.output }
func (ls *Surface) Layer() Layer                 { return ls.layer }

// Geometry returns the surface's arranged rectangle in layout
// coordinates. It is only meaningful after Arrange has run for the
// surface's output.
func (ls *Surface) Geometry() image.Rectangle { return ls.geo }

// Close tells the client the surface is done for.
func (ls *Surface) Close() {
	if ls.OnClosed != nil {
		ls.OnClosed()
	}
}
