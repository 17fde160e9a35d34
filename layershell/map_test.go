package layershell

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/space"
)

func newFixture(t *testing.T) (*compositor.State, *space.Output, *Map) {
	t.Helper()
	st := compositor.NewState()
	o := space.NewOutput("test-0", image.Rect(0, 0, 800, 600), 1)
	return st, o, NewMap()
}

func layerSurface(t *testing.T, st *compositor.State, o *space.Output, l Layer) *Surface {
	t.Helper()
	ls, err := NewSurface(st.CreateSurface(), o, l)
	require.NoError(t, err)
	return ls
}

func TestArrangeAnchoredBar(t *testing.T) {
	st, o, m := newFixture(t)

	bar := layerSurface(t, st, o, LayerTop)
	bar.Anchor = AnchorTop | AnchorLeft | AnchorRight
	bar.DesiredSize = image.Pt(0, 30) // stretch horizontally
	bar.Exclusive = 30

	m.Add(bar)

	assert.Equal(t, image.Rect(0, 0, 800, 30), bar.Geometry())
	assert.Equal(t, image.Rect(0, 30, 800, 600), m.UsableArea(o))
}

func TestArrangeIsIdempotent(t *testing.T) {
	st, o, m := newFixture(t)

	bar := layerSurface(t, st, o, LayerTop)
	bar.Anchor = AnchorTop | AnchorLeft | AnchorRight
	bar.DesiredSize = image.Pt(0, 30)
	bar.Exclusive = 30
	m.Add(bar)

	dock := layerSurface(t, st, o, LayerBottom)
	dock.Anchor = AnchorBottom
	dock.DesiredSize = image.Pt(400, 48)
	dock.Exclusive = 48
	m.Add(dock)

	geoBar, geoDock, usable := bar.Geometry(), dock.Geometry(), m.UsableArea(o)

	m.Arrange(o)
	m.Arrange(o)

	assert.Equal(t, geoBar, bar.Geometry())
	assert.Equal(t, geoDock, dock.Geometry())
	assert.Equal(t, usable, m.UsableArea(o))
}

func TestExclusiveZonesStack(t *testing.T) {
	st, o, m := newFixture(t)

	top := layerSurface(t, st, o, LayerTop)
	top.Anchor = AnchorTop
	top.DesiredSize = image.Pt(800, 20)
	top.Exclusive = 20
	m.Add(top)

	left := layerSurface(t, st, o, LayerTop)
	left.Anchor = AnchorLeft
	left.DesiredSize = image.Pt(60, 0)
	left.Exclusive = 60
	m.Add(left)

	assert.Equal(t, image.Rect(60, 20, 800, 600), m.UsableArea(o))

	// The left panel was arranged inside the area the top bar left
	// over, so it starts below the bar.
	assert.Equal(t, 20, left.Geometry().Min.Y)
}

func TestNegativeExclusiveIgnoresReservations(t *testing.T) {
	st, o, m := newFixture(t)

	bar := layerSurface(t, st, o, LayerTop)
	bar.Anchor = AnchorTop
	bar.DesiredSize = image.Pt(800, 30)
	bar.Exclusive = 30
	m.Add(bar)

	bg := layerSurface(t, st, o, LayerBackground)
	bg.Anchor = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
	bg.Exclusive = -1
	m.Add(bg)

	// Exclusive -1 positions against the full output, not the usable
	// area.
	assert.Equal(t, image.Rect(0, 0, 800, 600), bg.Geometry())
}

func TestMarginsApply(t *testing.T) {
	st, o, m := newFixture(t)

	ls := layerSurface(t, st, o, LayerTop)
	ls.Anchor = AnchorTop | AnchorRight
	ls.DesiredSize = image.Pt(100, 50)
	ls.Margins = Margins{Top: 10, Right: 20}
	m.Add(ls)

	assert.Equal(t, image.Rect(680, 10, 780, 60), ls.Geometry())
}

func TestCenteredWhenUnanchored(t *testing.T) {
	st, o, m := newFixture(t)

	ls := layerSurface(t, st, o, LayerTop)
	ls.DesiredSize = image.Pt(200, 100)
	m.Add(ls)

	assert.Equal(t, image.Rect(300, 250, 500, 350), ls.Geometry())
}

func TestConfigureFiresOnlyOnSizeChange(t *testing.T) {
	st, o, m := newFixture(t)

	var configures []image.Point
	ls := layerSurface(t, st, o, LayerTop)
	ls.Anchor = AnchorTop | AnchorLeft | AnchorRight
	ls.DesiredSize = image.Pt(0, 30)
	ls.OnConfigure = func(size image.Point) { configures = append(configures, size) }

	m.Add(ls)
	require.Equal(t, []image.Point{{X: 800, Y: 30}}, configures)

	// Rearranging with nothing changed stays quiet.
	m.Arrange(o)
	assert.Len(t, configures, 1)

	ls.DesiredSize = image.Pt(0, 40)
	m.Arrange(o)
	assert.Equal(t, image.Pt(800, 40), configures[1])
}

func TestSetLayerMovesSurface(t *testing.T) {
	st, o, m := newFixture(t)

	ls := layerSurface(t, st, o, LayerBottom)
	ls.DesiredSize = image.Pt(100, 100)
	m.Add(ls)
	require.Len(t, m.Layer(o, LayerBottom), 1)

	m.SetLayer(ls, LayerOverlay)
	assert.Empty(t, m.Layer(o, LayerBottom))
	require.Len(t, m.Layer(o, LayerOverlay), 1)
	assert.Equal(t, LayerOverlay, ls.Layer())
}

func TestRemoveOutputClosesSurfaces(t *testing.T) {
	st, o, m := newFixture(t)

	var closed int
	ls := layerSurface(t, st, o, LayerTop)
	ls.DesiredSize = image.Pt(100, 100)
	ls.OnClosed = func() { closed++ }
	m.Add(ls)

	m.RemoveOutput(o)
	assert.Equal(t, 1, closed)
	assert.Empty(t, m.Layer(o, LayerTop))
	assert.Equal(t, o.Geometry(), m.UsableArea(o))
}

func TestAllYieldsInStackingOrder(t *testing.T) {
	st, o, m := newFixture(t)

	over := layerSurface(t, st, o, LayerOverlay)
	bg := layerSurface(t, st, o, LayerBackground)
	top := layerSurface(t, st, o, LayerTop)
	for _, ls := range []*Surface{over, bg, top} {
		ls.DesiredSize = image.Pt(10, 10)
		m.Add(ls)
	}

	var order []Layer
	for ls := range m.All(o) {
		order = append(order, ls.Layer())
	}
	assert.Equal(t, []Layer{LayerBackground, LayerTop, LayerOverlay}, order)
}
