package compositor

import "image"

type field uint32

const (
	fieldBuffer field = 1 << iota
	fieldOffset
	fieldScale
	fieldTransform
	fieldInput
	fieldOpaque
)

// SurfaceState is one side of a surface's double-buffered state. The
// pending side accumulates client requests; Commit merges it into the
// current side atomically, so readers of current state never observe
// a half-updated frame.
type SurfaceState struct {
	set field

	// Buffer is the attached buffer. nil with the buffer field set
	// means the client explicitly attached a null buffer, unmapping
	// the surface.
	Buffer *Buffer

	// Offset is the attach offset relative to the previous buffer.
	Offset image.Point

	// Damage is the accumulated damage in surface-local coordinates.
	Damage []image.Rectangle

	// Input is the input region. nil means the whole surface accepts
	// input.
	Input *Region

	// Opaque is the region the client promises to be fully opaque.
	Opaque *Region

	Scale     int32
	Transform Transform

	// Frame holds pending frame callbacks, fired with a timestamp in
	// milliseconds when the surface is next composited.
	Frame []func(msec uint32)
}

// merge folds src into dst. Single-valued attributes are replaced
// only if src actually set them; damage and frame callbacks
// accumulate.
func (dst *SurfaceState) merge(src *SurfaceState) {
	if src.set&fieldBuffer != 0 {
		dst.Buffer = src.Buffer
	}
	if src.set&fieldOffset != 0 {
		dst.Offset = src.Offset
	}
	if src.set&fieldScale != 0 {
		dst.Scale = src.Scale
	}
	if src.set&fieldTransform != 0 {
		dst.Transform = src.Transform
	}
	if src.set&fieldInput != 0 {
		dst.Input = src.Input
	}
	if src.set&fieldOpaque != 0 {
		dst.Opaque = src.Opaque
	}
	dst.Damage = append(dst.Damage, src.Damage...)
	dst.Frame = append(dst.Frame, src.Frame...)
	dst.set |= src.set
}

// Transform is a wl_output-style buffer transform.
type Transform uint32

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

func (t Transform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case Transform90:
		return "90"
	case Transform180:
		return "180"
	case Transform270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	}
	return "unknown"
}
