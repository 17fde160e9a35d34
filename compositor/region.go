package compositor

import "image"

type regionOp struct {
	add  bool
	rect image.Rectangle
}

// Region is a 2-D pixel region built from an ordered sequence of
// rectangle additions and subtractions, mirroring wl_region.
type Region struct {
	ops []regionOp
}

func (r *Region) Add(rect image.Rectangle) {
	r.ops = append(r.ops, regionOp{add: true, rect: rect.Canon()})
}

func (r *Region) Subtract(rect image.Rectangle) {
	r.ops = append(r.ops, regionOp{add: false, rect: rect.Canon()})
}

// Contains reports whether the point is inside the region. The ops
// are replayed in order; the last op covering the point wins.
func (r *Region) Contains(pt image.Point) bool {
	var in bool
	for _, op := range r.ops {
		if pt.In(op.rect) {
			in = op.add
		}
	}
	return in
}

// Empty reports whether the region cannot contain any point. It is
// conservative: a region whose additions were all subtracted again is
// not detected as empty.
func (r *Region) Empty() bool {
	if r == nil {
		return true
	}
	for _, op := range r.ops {
		if op.add && !op.rect.Empty() {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share op storage with r.
func (r *Region) Clone() *Region {
	if r == nil {
		return nil
	}
	c := Region{ops: make([]regionOp, len(r.ops))}
	copy(c.ops, r.ops)
	return &c
}
