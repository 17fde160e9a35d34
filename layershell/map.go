package layershell

import (
	"image"
	"iter"

	"deedles.dev/shoji/internal/xslices"
	"deedles.dev/shoji/space"
)

type outputLayers struct {
	layers [numLayers][]*Surface // insertion order within each layer
	usable image.Rectangle
}

// Map holds the per-output layer surface arrangement. Within a
// layer, stacking order is insertion order; across layers the order
// is always background < bottom < top < overlay.
type Map struct {
	outputs map[*space.Output]*outputLayers
}

func NewMap() *Map {
	return &Map{
		outputs: make(map[*space.Output]*outputLayers),
	}
}

func (m *Map) output(o *space.Output) *outputLayers {
	ol := m.outputs[o]
	if ol == nil {
		ol = &outputLayers{usable: o.Geometry()}
		m.outputs[o] = ol
	}
	return ol
}

// Add inserts the surface at the top of its layer on its output and
// rearranges the output.
func (m *Map) Add(ls *Surface) {
	ol := m.output(ls.output)
	ol.layers[ls.layer] = append(ol.layers[ls.layer], ls)
	m.Arrange(ls.output)
}

// Remove takes the surface out of its output's arrangement and
// rearranges what is left.
func (m *Map) Remove(ls *Surface) {
	ol := m.outputs[ls.output]
	if ol == nil {
		return
	}
	ol.layers[ls.layer] = xslices.Remove(ol.layers[ls.layer], ls)
	m.Arrange(ls.output)
}

// SetLayer rebinds the surface to a different layer on its output and
// rearranges.
func (m *Map) SetLayer(ls *Surface, l Layer) {
	ol := m.outputs[ls.output]
	if ol == nil || ls.layer == l {
		ls.layer = l
		return
	}
	ol.layers[ls.layer] = xslices.Remove(ol.layers[ls.layer], ls)
	ls.layer = l
	ol.layers[l] = append(ol.layers[l], ls)
	m.Arrange(ls.output)
}

// RemoveOutput drops an output's arrangement entirely, closing every
// surface that was on it.
func (m *Map) RemoveOutput(o *space.Output) {
	ol := m.outputs[o]
	if ol == nil {
		return
	}
	delete(m.outputs, o)
	for _, layer := range ol.layers {
		for _, ls := range layer {
			ls.Close()
		}
	}
}

// UsableArea returns the output rectangle left over after exclusive
// zones, in layout coordinates.
func (m *Map) UsableArea(o *space.Output) image.Rectangle {
	ol := m.outputs[o]
	if ol == nil {
		return o.Geometry()
	}
	return ol.usable
}

// Layer returns the surfaces on one layer of an output, bottom to
// top.
func (m *Map) Layer(o *space.Output, l Layer) []*Surface {
	ol := m.outputs[o]
	if ol == nil {
		return nil
	}
	return ol.layers[l]
}

// All yields every layer surface on the output in compositing order,
// background first.
func (m *Map) All(o *space.Output) iter.Seq[*Surface] {
	return func(yield func(*Surface) bool) {
		ol := m.outputs[o]
		if ol == nil {
			return
		}
		for _, layer := range ol.layers {
			for _, ls := range layer {
				if !yield(ls) {
					return
				}
			}
		}
	}
}

// Arrange recomputes the output's usable rectangle and every layer
// surface's geometry from scratch, layer by layer in stacking order.
// Arranging twice with unchanged inputs yields identical results.
func (m *Map) Arrange(o *space.Output) {
	ol := m.outputs[o]
	if ol == nil {
		return
	}

	full := o.Geometry()
	usable := full

	for _, layer := range ol.layers {
		for _, ls := range layer {
			ref := usable
			if ls.Exclusive < 0 {
				ref = full
			}

			ls.geo = arrangeSurface(ls, ref)

			if ls.Exclusive > 0 {
				usable = reserve(usable, ls)
			}

			if size := ls.geo.Size(); size != ls.lastCfg {
				ls.lastCfg = size
				if ls.OnConfigure != nil {
					ls.OnConfigure(size)
				}
			}
		}
	}

	ol.usable = usable
}

// arrangeSurface positions one surface inside ref per its anchors,
// margins, and desired size.
func arrangeSurface(ls *Surface, ref image.Rectangle) image.Rectangle {
	a, mg := ls.Anchor, ls.Margins

	w := ls.DesiredSize.X
	if w == 0 {
		w = ref.Dx() - mg.Left - mg.Right
	}
	h := ls.DesiredSize.Y
	if h == 0 {
		h = ref.Dy() - mg.Top - mg.Bottom
	}

	var x int
	switch {
	case a.Has(AnchorLeft) && a.Has(AnchorRight):
		x = ref.Min.X + mg.Left
	case a.Has(AnchorLeft):
		x = ref.Min.X + mg.Left
	case a.Has(AnchorRight):
		x = ref.Max.X - mg.Right - w
	default:
		x = ref.Min.X + (ref.Dx()-w)/2
	}

	var y int
	switch {
	case a.Has(AnchorTop) && a.Has(AnchorBottom):
		y = ref.Min.Y + mg.Top
	case a.Has(AnchorTop):
		y = ref.Min.Y + mg.Top
	case a.Has(AnchorBottom):
		y = ref.Max.Y - mg.Bottom - h
	default:
		y = ref.Min.Y + (ref.Dy()-h)/2
	}

	return image.Rect(x, y, x+w, y+h)
}

// reserve shrinks the usable rectangle by the surface's exclusive
// zone at the edge it is anchored to. A surface anchored to opposing
// edges on one axis reserves along the other axis.
func reserve(usable image.Rectangle, ls *Surface) image.Rectangle {
	a := ls.Anchor
	zone := ls.Exclusive

	switch {
	case a.Has(AnchorTop) && !a.Has(AnchorBottom):
		usable.Min.Y += zone + ls.Margins.Top
	case a.Has(AnchorBottom) && !a.Has(AnchorTop):
		usable.Max.Y -= zone + ls.Margins.Bottom
	case a.Has(AnchorLeft) && !a.Has(AnchorRight):
		usable.Min.X += zone + ls.Margins.Left
	case a.Has(AnchorRight) && !a.Has(AnchorLeft):
		usable.Max.X -= zone + ls.Margins.Right
	}

	return usable
}
