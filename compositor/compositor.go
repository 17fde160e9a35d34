// Package compositor implements the server-side surface state
// machine: an arena of surfaces with double-buffered attribute state,
// synchronized subsurface commit propagation, and buffer lifetime
// accounting with FIFO release ordering.
//
// All of the state in this package is owned by a single State value
// and is intended to be mutated from one goroutine, normally the one
// draining a server's event queue.
package compositor

// SurfaceID is a stable handle for a surface. Components refer to
// surfaces by ID rather than by pointer so that the surface tree,
// window wrappers, and popup bookkeeping can be updated independently
// without reference cycles.
type SurfaceID uint64

// State is the compositor-wide surface arena. It owns every surface
// and the deferred buffer release queue.
type State struct {
	surfaces map[SurfaceID]*Surface
	nextID   SurfaceID
	releases []*Buffer
}

func NewState() *State {
	return &State{
		surfaces: make(map[SurfaceID]*Surface),
		nextID:   1,
	}
}

// CreateSurface allocates a new surface with no role, no parent, and
// empty pending state.
func (st *State) CreateSurface() *Surface {
	s := &Surface{
		id: st.nextID,
		st: st,
		current: SurfaceState{
			Scale: 1,
		},
	}
	st.nextID++
	st.surfaces[s.id] = s
	return s
}

// Surface returns the surface with the given ID, or nil if it does
// not exist or has been destroyed.
func (st *State) Surface(id SurfaceID) *Surface {
	return st.surfaces[id]
}

// DestroySurface removes a surface from the arena. Its children are
// orphaned, it is removed from its parent's child list, and any
// buffers it still holds become eligible for release.
func (st *State) DestroySurface(id SurfaceID) {
	s := st.surfaces[id]
	if s == nil {
		return
	}

	for _, cid := range s.children {
		if c := st.surfaces[cid]; c != nil {
			c.parent = 0
		}
	}
	if p := st.surfaces[s.parent]; p != nil {
		p.removeChild(id)
	}

	s.current.Buffer = nil
	s.pending.Buffer = nil
	s.cached = nil
	s.flushFree()

	s.dead = true
	delete(st.surfaces, id)
}

// scheduleRelease queues a buffer release notification. Releases are
// never delivered from inside a commit; they wait for FlushReleases
// at the next frame boundary.
func (st *State) scheduleRelease(b *Buffer) {
	st.releases = append(st.releases, b)
}

// FlushReleases delivers all queued buffer release notifications. It
// is called once per frame boundary, after the renderer has returned
// its buffer references.
func (st *State) FlushReleases() {
	releases := st.releases
	st.releases = nil
	for _, b := range releases {
		if b.Release != nil {
			b.Release()
		}
	}
}
