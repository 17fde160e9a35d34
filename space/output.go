package space

import (
	"image"

	"deedles.dev/shoji/compositor"
)

// Output is a display in the layout: a geometry in layout
// coordinates plus scale and transform. This core only ever reads
// output descriptions; enabling and modesetting belong to the
// backend.
type Output struct {
	Name      string
	Scale     float64
	Transform compositor.Transform

	geo image.Rectangle
}

func NewOutput(name string, geo image.Rectangle, scale float64) *Output {
	if scale == 0 {
		scale = 1
	}
	return &Output{
		Name:  name,
		Scale: scale,
		geo:   geo.Canon(),
	}
}

// Geometry returns the output's rectangle in layout coordinates.
func (o *Output) Geometry() image.Rectangle { return o.geo }

// Move repositions the output in the layout without resizing it.
func (o *Output) Move(pt image.Point) {
	o.geo = image.Rectangle{Min: pt, Max: pt.Add(o.geo.Size())}
}
