package compositor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buffer(w, h int) *Buffer {
	return &Buffer{Size: image.Pt(w, h)}
}

func TestCommitAppliesPendingAtomically(t *testing.T) {
	st := NewState()
	s := st.CreateSurface()

	b := buffer(64, 32)
	s.Attach(b, image.Pt(1, 2))
	s.Damage(image.Rect(0, 0, 10, 10))
	require.NoError(t, s.SetScale(2))

	// Nothing is visible before the commit.
	assert.Nil(t, s.Current().Buffer)
	assert.False(t, s.Mapped())

	require.NoError(t, s.Commit())

	assert.Same(t, b, s.Current().Buffer)
	assert.Equal(t, image.Pt(1, 2), s.Current().Offset)
	assert.Equal(t, int32(2), s.Current().Scale)
	assert.True(t, s.Mapped())
	assert.Equal(t, image.Rect(0, 0, 32, 16), s.Extent())

	// The pending side is clean again.
	assert.Nil(t, s.Pending().Buffer)
	assert.Empty(t, s.Pending().Damage)
}

func TestPendingAccumulatesAcrossRequests(t *testing.T) {
	st := NewState()
	s := st.CreateSurface()

	s.Damage(image.Rect(0, 0, 5, 5))
	s.Damage(image.Rect(5, 5, 10, 10))
	s.Attach(buffer(16, 16), image.Point{})
	require.NoError(t, s.Commit())

	assert.Len(t, s.TakeDamage(), 2)
	assert.Empty(t, s.TakeDamage())
}

func TestUncommittedStateInvisible(t *testing.T) {
	st := NewState()
	s := st.CreateSurface()

	s.Attach(buffer(16, 16), image.Point{})
	require.NoError(t, s.Commit())
	require.NoError(t, s.SetScale(3))

	assert.Equal(t, int32(1), s.Current().Scale)
	require.NoError(t, s.Commit())
	assert.Equal(t, int32(3), s.Current().Scale)
}

func TestRoleIsPermanent(t *testing.T) {
	st := NewState()
	s := st.CreateSurface()

	require.NoError(t, s.SetRole(RoleToplevel))
	require.NoError(t, s.SetRole(RoleToplevel), "reassigning the same role is fine")

	err := s.SetRole(RolePopup)
	require.Error(t, err)

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrRole, perr.Code)

	// The error latches: commits fail from here on.
	assert.Error(t, s.Commit())
}

func TestInvalidScaleAndTransform(t *testing.T) {
	st := NewState()

	s := st.CreateSurface()
	require.Error(t, s.SetScale(0))
	require.Error(t, s.Commit())

	s = st.CreateSurface()
	require.Error(t, s.SetTransform(Transform(99)))
	require.Error(t, s.Commit())

	s = st.CreateSurface()
	require.NoError(t, s.SetTransform(TransformFlipped270))
	require.NoError(t, s.Commit())
	assert.Equal(t, TransformFlipped270, s.Current().Transform)
}

func TestSynchronizedSubsurfaceCaching(t *testing.T) {
	st := NewState()
	parent := st.CreateSurface()
	child := st.CreateSurface()
	require.NoError(t, parent.AddChild(child))

	// New subsurfaces start out synchronized.
	assert.True(t, child.Synchronized())

	child.Attach(buffer(8, 8), image.Point{})
	require.NoError(t, child.Commit())

	// The child's commit is cached, not applied.
	assert.False(t, child.Mapped())

	parent.Attach(buffer(32, 32), image.Point{})
	require.NoError(t, parent.Commit())

	// The parent commit applies the cached child state.
	assert.True(t, child.Mapped())
}

func TestSyncChainRecursiveApply(t *testing.T) {
	st := NewState()
	root := st.CreateSurface()
	mid := st.CreateSurface()
	leaf := st.CreateSurface()
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))

	leaf.Attach(buffer(4, 4), image.Point{})
	require.NoError(t, leaf.Commit())
	mid.Attach(buffer(8, 8), image.Point{})
	require.NoError(t, mid.Commit())

	assert.False(t, mid.Mapped())
	assert.False(t, leaf.Mapped())

	root.Attach(buffer(16, 16), image.Point{})
	require.NoError(t, root.Commit())

	assert.True(t, mid.Mapped())
	assert.True(t, leaf.Mapped())
}

func TestDesyncAppliesCachedState(t *testing.T) {
	st := NewState()
	parent := st.CreateSurface()
	child := st.CreateSurface()
	require.NoError(t, parent.AddChild(child))

	child.Attach(buffer(8, 8), image.Point{})
	require.NoError(t, child.Commit())
	require.False(t, child.Mapped())

	child.SetSync(false)
	assert.True(t, child.Mapped(), "leaving sync mode applies the cached commit")

	// Desynchronized commits apply immediately.
	child.Attach(buffer(10, 10), image.Point{})
	require.NoError(t, child.Commit())
	assert.Equal(t, image.Pt(10, 10), child.Current().Buffer.Size)
}

func TestDesyncUnderSyncAncestorStaysCached(t *testing.T) {
	st := NewState()
	root := st.CreateSurface()
	mid := st.CreateSurface()
	leaf := st.CreateSurface()
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))

	leaf.Attach(buffer(4, 4), image.Point{})
	require.NoError(t, leaf.Commit())

	// The leaf goes desync, but mid is still synchronized, so the
	// effective mode stays synchronized.
	leaf.SetSync(false)
	assert.True(t, leaf.Synchronized())
	assert.False(t, leaf.Mapped())
}

func TestSubsurfacePositionAppliesOnParentCommit(t *testing.T) {
	st := NewState()
	parent := st.CreateSurface()
	child := st.CreateSurface()
	require.NoError(t, parent.AddChild(child))

	child.SetPosition(image.Pt(5, 7))
	assert.Equal(t, image.Point{}, child.Position())

	require.NoError(t, parent.Commit())
	assert.Equal(t, image.Pt(5, 7), child.Position())
}

func TestRestacking(t *testing.T) {
	st := NewState()
	parent := st.CreateSurface()
	a := st.CreateSurface()
	b := st.CreateSurface()
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))
	require.Equal(t, []SurfaceID{a.ID(), b.ID()}, parent.Children())

	require.NoError(t, a.PlaceAbove(b))
	assert.Equal(t, []SurfaceID{b.ID(), a.ID()}, parent.Children())

	require.NoError(t, a.PlaceBelow(b))
	assert.Equal(t, []SurfaceID{a.ID(), b.ID()}, parent.Children())

	// Restacking against a non-sibling is a protocol error.
	stranger := st.CreateSurface()
	require.Error(t, a.PlaceAbove(stranger))
}

func TestWalkOrderAndExtents(t *testing.T) {
	st := NewState()
	root := st.CreateSurface()
	low := st.CreateSurface()
	high := st.CreateSurface()
	require.NoError(t, root.AddChild(low))
	require.NoError(t, root.AddChild(high))

	low.SetSync(false)
	high.SetSync(false)

	root.Attach(buffer(100, 100), image.Point{})
	require.NoError(t, root.Commit())
	low.Attach(buffer(10, 10), image.Point{})
	require.NoError(t, low.Commit())
	high.Attach(buffer(20, 20), image.Point{})
	require.NoError(t, high.Commit())

	low.SetPosition(image.Pt(-5, -5))
	high.SetPosition(image.Pt(95, 95))
	require.NoError(t, root.Commit())

	var order []SurfaceID
	root.Walk(image.Point{}, func(s *Surface, pos image.Point) bool {
		order = append(order, s.ID())
		return true
	})
	assert.Equal(t, []SurfaceID{root.ID(), low.ID(), high.ID()}, order)

	assert.Equal(t, image.Rect(-5, -5, 115, 115), root.Extents())
}

func TestDestroySurfaceOrphansChildren(t *testing.T) {
	st := NewState()
	parent := st.CreateSurface()
	child := st.CreateSurface()
	require.NoError(t, parent.AddChild(child))

	st.DestroySurface(parent.ID())

	assert.Nil(t, st.Surface(parent.ID()))
	assert.False(t, parent.Alive())
	assert.Nil(t, child.Parent())
	assert.True(t, child.Alive())
}

func TestInputRegion(t *testing.T) {
	st := NewState()
	s := st.CreateSurface()
	s.Attach(buffer(20, 20), image.Point{})

	var r Region
	r.Add(image.Rect(0, 0, 10, 10))
	s.SetInputRegion(&r)
	require.NoError(t, s.Commit())

	assert.True(t, s.InputContains(image.Pt(5, 5)))
	assert.False(t, s.InputContains(image.Pt(15, 15)))

	// Mutating the caller's region after the fact changes nothing.
	r.Add(image.Rect(10, 10, 20, 20))
	assert.False(t, s.InputContains(image.Pt(15, 15)))

	// A nil input region means the whole extent accepts input, but
	// never outside it.
	s.SetInputRegion(nil)
	require.NoError(t, s.Commit())
	assert.True(t, s.InputContains(image.Pt(15, 15)))
	assert.False(t, s.InputContains(image.Pt(25, 25)))
}
