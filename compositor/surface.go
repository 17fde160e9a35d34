package compositor

import (
	"image"
	"slices"

	"deedles.dev/shoji/internal/xslices"
)

// Role is the protocol role assigned to a surface. A surface gets at
// most one role in its lifetime; assigning a second one is a protocol
// violation.
type Role uint8

const (
	RoleNone Role = iota
	RoleSubsurface
	RoleToplevel
	RolePopup
	RoleLayer
	RoleX11
	RoleCursor
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleSubsurface:
		return "subsurface"
	case RoleToplevel:
		return "toplevel"
	case RolePopup:
		return "popup"
	case RoleLayer:
		return "layer"
	case RoleX11:
		return "x11"
	case RoleCursor:
		return "cursor"
	}
	return "unknown"
}

// Surface is a client-owned drawable canvas. Its attribute state is
// double buffered: requests mutate the pending side, and Commit
// atomically merges pending into current.
type Surface struct {
	id SurfaceID
	st *State

	parent   SurfaceID
	children []SurfaceID // z-order, later index stacks higher

	role Role
	err  error // latched protocol error, fatal to the client
	dead bool

	// Subsurface state. sync is the surface's own mode flag; the
	// effective mode also depends on the ancestor chain.
	sync       bool
	cached     *SurfaceState // commits staged while synchronized
	pos        image.Point   // position in parent coordinates
	pendingPos *image.Point  // applied on the next parent commit

	pending SurfaceState
	current SurfaceState

	// unreleased holds attached buffers in attach order. Releases pop
	// from the front only, which is what guarantees FIFO release.
	unreleased []*Buffer
}

func (s *Surface) ID() SurfaceID { return s.id }

// Alive reports whether the surface is still in its arena.
func (s *Surface) Alive() bool { return !s.dead }

func (s *Surface) Role() Role { return s.role }

// SetRole assigns the surface's role. Assigning a role to a surface
// that already has a different one is a protocol violation.
func (s *Surface) SetRole(r Role) error {
	if s.role != RoleNone && s.role != r {
		err := Errorf(ErrRole, "surface %v already has role %v", s.id, s.role)
		s.err = err
		return err
	}
	s.role = r
	return nil
}

// Err returns the surface's latched protocol error, if any. Once a
// surface has errored, every subsequent commit fails with the same
// error.
func (s *Surface) Err() error { return s.err }

// Current returns the last committed state. The returned pointer is
// only valid to read until the next commit applies.
func (s *Surface) Current() *SurfaceState { return &s.current }

// Pending returns the state accumulated since the last commit.
func (s *Surface) Pending() *SurfaceState { return &s.pending }

func (s *Surface) Parent() *Surface {
	return s.st.surfaces[s.parent]
}

func (s *Surface) Children() []SurfaceID {
	return s.children
}

// Position returns the surface's position in its parent's coordinate
// space. It is zero for surfaces that are not subsurfaces.
func (s *Surface) Position() image.Point { return s.pos }

// Mapped reports whether the surface has committed content.
func (s *Surface) Mapped() bool {
	return s.current.Buffer != nil
}

// Extent returns the surface-local rectangle covered by the current
// buffer, in surface coordinates (buffer pixels divided by scale).
func (s *Surface) Extent() image.Rectangle {
	b := s.current.Buffer
	if b == nil {
		return image.Rectangle{}
	}
	scale := max(s.current.Scale, 1)
	return image.Rect(0, 0, b.Size.X/int(scale), b.Size.Y/int(scale))
}

// InputContains reports whether the point, in surface-local
// coordinates, is inside the surface's input region.
func (s *Surface) InputContains(pt image.Point) bool {
	if !pt.In(s.Extent()) {
		return false
	}
	if s.current.Input == nil {
		return true
	}
	return s.current.Input.Contains(pt)
}

// Attach replaces the pending buffer. A nil buffer unmaps the
// surface on the next commit. The buffer joins the surface's release
// queue immediately so that release ordering matches attach ordering.
func (s *Surface) Attach(b *Buffer, offset image.Point) {
	s.pending.Buffer = b
	s.pending.Offset = offset
	s.pending.set |= fieldBuffer | fieldOffset
	if b != nil {
		b.owner = s
		b.released = false
		if !slices.Contains(s.unreleased, b) {
			s.unreleased = append(s.unreleased, b)
		}
	}
}

// Damage adds a damaged rectangle, in surface-local coordinates, to
// the pending state.
func (s *Surface) Damage(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	s.pending.Damage = append(s.pending.Damage, r)
}

// Frame registers a frame callback to be fired the next time the
// surface is composited after a commit.
func (s *Surface) Frame(f func(msec uint32)) {
	s.pending.Frame = append(s.pending.Frame, f)
}

func (s *Surface) SetInputRegion(r *Region) {
	s.pending.Input = r.Clone()
	s.pending.set |= fieldInput
}

func (s *Surface) SetOpaqueRegion(r *Region) {
	s.pending.Opaque = r.Clone()
	s.pending.set |= fieldOpaque
}

func (s *Surface) SetScale(scale int32) error {
	if scale <= 0 {
		err := Errorf(ErrSurfaceInvalidScale, "invalid buffer scale %v", scale)
		s.err = err
		return err
	}
	s.pending.Scale = scale
	s.pending.set |= fieldScale
	return nil
}

func (s *Surface) SetTransform(t Transform) error {
	if t > TransformFlipped270 {
		err := Errorf(ErrSurfaceInvalidTransform, "invalid buffer transform %v", uint32(t))
		s.err = err
		return err
	}
	s.pending.Transform = t
	s.pending.set |= fieldTransform
	return nil
}

// Commit atomically applies the pending state. For a synchronized
// subsurface the merged state is cached instead and applied when the
// nearest non-synchronized ancestor commits.
func (s *Surface) Commit() error {
	if s.err != nil {
		return s.err
	}

	staged := s.pending
	s.pending = SurfaceState{}

	if s.Synchronized() {
		if s.cached == nil {
			s.cached = &SurfaceState{}
		}
		s.cached.merge(&staged)
		return nil
	}

	s.apply(&staged)
	return nil
}

// Synchronized reports the surface's effective subsurface sync mode:
// a subsurface is synchronized if its own mode flag is set or any
// ancestor subsurface up the chain is synchronized.
func (s *Surface) Synchronized() bool {
	if s.role != RoleSubsurface || s.parent == 0 {
		return false
	}
	if s.sync {
		return true
	}
	p := s.st.surfaces[s.parent]
	return p != nil && p.Synchronized()
}

// apply merges staged state into current and propagates the commit
// to synchronized children, in child order.
func (s *Surface) apply(staged *SurfaceState) {
	s.applyState(staged)

	for _, id := range slices.Clone(s.children) {
		c := s.st.surfaces[id]
		if c == nil {
			continue
		}
		if c.pendingPos != nil {
			c.pos = *c.pendingPos
			c.pendingPos = nil
		}
		if c.sync {
			c.applyCached()
		}
	}
}

// applyCached applies a synchronized subsurface's cached commit, if
// any, then recurses into its own synchronized children.
func (s *Surface) applyCached() {
	if c := s.cached; c != nil {
		s.cached = nil
		s.applyState(c)
	}
	for _, id := range slices.Clone(s.children) {
		c := s.st.surfaces[id]
		if c == nil || !c.sync {
			continue
		}
		if c.pendingPos != nil {
			c.pos = *c.pendingPos
			c.pendingPos = nil
		}
		c.applyCached()
	}
}

func (s *Surface) applyState(staged *SurfaceState) {
	s.current.merge(staged)

	// Any buffer this commit stopped referencing, including a pending
	// buffer that was replaced before it ever became current, may now
	// be idle. flushFree pops only the idle prefix, so order is safe.
	s.flushFree()
}

// TakeDamage returns the damage accumulated by commits since the
// last call and resets it.
func (s *Surface) TakeDamage() []image.Rectangle {
	d := s.current.Damage
	s.current.Damage = nil
	return d
}

// TakeFrameCallbacks returns the committed frame callbacks and
// resets them. The renderer fires them after compositing a frame
// that included this surface.
func (s *Surface) TakeFrameCallbacks() []func(msec uint32) {
	f := s.current.Frame
	s.current.Frame = nil
	return f
}

// AddChild makes c a subsurface of s, stacked above all current
// children. The child starts out synchronized, per the protocol.
func (s *Surface) AddChild(c *Surface) error {
	if c == s || c.parent != 0 {
		err := Errorf(ErrSubsurfaceBadSurface, "surface %v cannot become a subsurface of %v", c.id, s.id)
		c.err = err
		return err
	}
	if err := c.SetRole(RoleSubsurface); err != nil {
		return err
	}
	c.parent = s.id
	c.sync = true
	s.children = append(s.children, c.id)
	return nil
}

// Unparent severs the subsurface relationship. The surface keeps its
// role but no longer takes part in the parent's commit cycle.
func (s *Surface) Unparent() {
	if p := s.st.surfaces[s.parent]; p != nil {
		p.removeChild(s.id)
	}
	s.parent = 0
}

func (s *Surface) removeChild(id SurfaceID) {
	s.children = xslices.Remove(s.children, id)
}

// SetSync sets the subsurface's own sync mode flag. Switching to
// desynchronized applies any cached state immediately, unless an
// ancestor is still synchronized.
func (s *Surface) SetSync(sync bool) {
	if s.role != RoleSubsurface {
		return
	}
	s.sync = sync
	if !sync && !s.Synchronized() {
		s.applyCached()
	}
}

// SetPosition schedules a move of the subsurface within its parent's
// coordinate space. It takes effect when the parent commits.
func (s *Surface) SetPosition(pt image.Point) {
	if s.role != RoleSubsurface {
		return
	}
	s.pendingPos = &pt
}

// PlaceAbove restacks s directly above sibling in the parent's child
// list. sibling may be the parent itself, placing s at the bottom of
// the child stack's upper section per the wl_subsurface semantics.
func (s *Surface) PlaceAbove(sibling *Surface) error {
	return s.restack(sibling, true)
}

// PlaceBelow restacks s directly below sibling.
func (s *Surface) PlaceBelow(sibling *Surface) error {
	return s.restack(sibling, false)
}

func (s *Surface) restack(sibling *Surface, above bool) error {
	p := s.st.surfaces[s.parent]
	if p == nil {
		return Errorf(ErrSubsurfaceBadSurface, "surface %v has no parent", s.id)
	}
	if sibling == nil || (sibling != p && sibling.parent != s.parent) {
		err := Errorf(ErrSubsurfaceBadSurface, "restack target is not a sibling of surface %v", s.id)
		s.err = err
		return err
	}

	p.children = xslices.Remove(p.children, s.id)
	at := 0
	if sibling != p {
		at = slices.Index(p.children, sibling.id)
		if above {
			at++
		}
	} else if above {
		at = 0
	}
	p.children = slices.Insert(p.children, at, s.id)
	return nil
}

// Walk visits s and every mapped descendant in bottom-to-top stacking
// order, passing each surface's origin relative to the origin passed
// for s. It stops early if f returns false.
func (s *Surface) Walk(pos image.Point, f func(s *Surface, pos image.Point) bool) bool {
	if !f(s, pos) {
		return false
	}
	for _, id := range s.children {
		c := s.st.surfaces[id]
		if c == nil || !c.Mapped() {
			continue
		}
		if !c.Walk(pos.Add(c.pos), f) {
			return false
		}
	}
	return true
}

// Extents returns the bounding rectangle of the surface and all of
// its mapped descendants, relative to the surface origin.
func (s *Surface) Extents() image.Rectangle {
	var bbox image.Rectangle
	s.Walk(image.Point{}, func(c *Surface, pos image.Point) bool {
		bbox = bbox.Union(c.Extent().Add(pos))
		return true
	})
	return bbox
}
