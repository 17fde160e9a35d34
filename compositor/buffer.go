package compositor

import "image"

// Buffer is a client-owned buffer handle. It is shared by reference:
// the surface displaying it holds one reference, and the renderer
// borrows another for the duration of one composited frame. The
// client-visible release fires exactly once, only after both are
// gone, and never before a buffer attached earlier to the same
// surface has released.
type Buffer struct {
	// Size is the buffer size in pixels.
	Size image.Point

	// Stride is the length in bytes of one row of Pix.
	Stride int

	// Pix is the raw pixel data backing the buffer, if it is
	// memory-backed. It may be nil for buffers imported by reference.
	Pix []byte

	// Release is invoked when the compositor is done with the buffer
	// and the client may reuse its storage. It runs from
	// State.FlushReleases, on the event loop.
	Release func()

	owner      *Surface
	renderRefs int
	released   bool
}

// BeginRender borrows the buffer for one composited frame. The
// renderer must pair it with EndRender before the buffer can
// release.
func (b *Buffer) BeginRender() {
	b.renderRefs++
}

// EndRender returns the renderer's borrow. Dropping the last
// reference may make the buffer, and any buffers attached after it
// that are already idle, eligible for release.
func (b *Buffer) EndRender() {
	if b.renderRefs > 0 {
		b.renderRefs--
	}
	if b.renderRefs == 0 && b.owner != nil {
		b.owner.flushFree()
	}
}

// idle reports whether the surface and renderer references are both
// gone.
func (b *Buffer) idle(s *Surface) bool {
	if b.renderRefs > 0 {
		return false
	}
	if b == s.current.Buffer || b == s.pending.Buffer {
		return false
	}
	if s.cached != nil && b == s.cached.Buffer {
		return false
	}
	return true
}

// flushFree releases the longest idle prefix of the surface's attach
// queue. Popping only from the front is what keeps release order
// equal to attach order: an idle buffer behind a busy one waits.
func (s *Surface) flushFree() {
	for len(s.unreleased) > 0 {
		b := s.unreleased[0]
		if !b.idle(s) {
			return
		}
		s.unreleased = s.unreleased[1:]
		if !b.released {
			b.released = true
			s.st.scheduleRelease(b)
		}
	}
}
