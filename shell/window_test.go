package shell

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/shoji/compositor"
)

func mapSurface(t *testing.T, s *compositor.Surface, w, h int) {
	t.Helper()
	s.Attach(&compositor.Buffer{Size: image.Pt(w, h)}, image.Point{})
	require.NoError(t, s.Commit())
}

func TestWindowGeometryDefaultsToExtents(t *testing.T) {
	st := compositor.NewState()
	s := st.CreateSurface()
	tl, err := NewToplevel(s)
	require.NoError(t, err)

	mapSurface(t, s, 200, 100)
	w := &Window{XDG: tl}

	assert.Equal(t, image.Rect(0, 0, 200, 100), w.Geometry())
}

func TestWindowGeometryClampedToExtents(t *testing.T) {
	st := compositor.NewState()
	s := st.CreateSurface()
	tl, err := NewToplevel(s)
	require.NoError(t, err)
	mapSurface(t, s, 200, 100)

	// A geometry poking out past the surface gets clamped.
	tl.SetGeometry(image.Rect(-10, -10, 500, 500))
	assert.Equal(t, image.Rect(0, 0, 200, 100), tl.Geometry())

	// A well-behaved inset geometry is honored.
	tl.SetGeometry(image.Rect(10, 10, 190, 90))
	assert.Equal(t, image.Rect(10, 10, 190, 90), tl.Geometry())
}

func TestWindowMappedAndAlive(t *testing.T) {
	st := compositor.NewState()
	s := st.CreateSurface()
	tl, err := NewToplevel(s)
	require.NoError(t, err)
	w := &Window{XDG: tl}

	assert.False(t, w.Mapped())
	assert.True(t, w.Alive())

	mapSurface(t, s, 10, 10)
	assert.True(t, w.Mapped())

	st.DestroySurface(s.ID())
	assert.False(t, w.Alive())
}

func TestSurfaceUnderPrefersTopmost(t *testing.T) {
	st := compositor.NewState()
	root := st.CreateSurface()
	tl, err := NewToplevel(root)
	require.NoError(t, err)
	w := &Window{XDG: tl}
	mapSurface(t, root, 100, 100)

	low := st.CreateSurface()
	high := st.CreateSurface()
	require.NoError(t, root.AddChild(low))
	require.NoError(t, root.AddChild(high))
	low.SetSync(false)
	high.SetSync(false)
	mapSurface(t, low, 50, 50)
	mapSurface(t, high, 50, 50)

	// Both children overlap at (10, 10); high is stacked later.
	low.SetPosition(image.Pt(0, 0))
	high.SetPosition(image.Pt(10, 10))
	require.NoError(t, root.Commit())

	s, local, ok := w.SurfaceUnder(image.Pt(20, 20))
	require.True(t, ok)
	assert.Same(t, high, s)
	assert.Equal(t, image.Pt(10, 10), local)

	// Outside high but inside low.
	s, local, ok = w.SurfaceUnder(image.Pt(5, 5))
	require.True(t, ok)
	assert.Same(t, low, s)
	assert.Equal(t, image.Pt(5, 5), local)

	// Outside everything.
	_, _, ok = w.SurfaceUnder(image.Pt(150, 150))
	assert.False(t, ok)
}

func TestSurfaceUnderHonorsInputRegion(t *testing.T) {
	st := compositor.NewState()
	root := st.CreateSurface()
	tl, err := NewToplevel(root)
	require.NoError(t, err)
	w := &Window{XDG: tl}

	var r compositor.Region
	r.Add(image.Rect(0, 0, 50, 50))
	root.SetInputRegion(&r)
	mapSurface(t, root, 100, 100)

	_, _, ok := w.SurfaceUnder(image.Pt(25, 25))
	assert.True(t, ok)
	_, _, ok = w.SurfaceUnder(image.Pt(75, 75))
	assert.False(t, ok, "input region excludes the point")
}
