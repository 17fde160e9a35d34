package shell

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/seat"
)

type popupFixture struct {
	st   *compositor.State
	mgr  *PopupManager
	seat *seat.Seat
	root *compositor.Surface
}

func newPopupFixture(t *testing.T) *popupFixture {
	t.Helper()
	f := &popupFixture{
		st:   compositor.NewState(),
		mgr:  NewPopupManager(),
		seat: seat.New("seat0"),
	}
	f.root = f.st.CreateSurface()
	_, err := NewToplevel(f.root)
	require.NoError(t, err)
	return f
}

// popup creates and tracks a popup parented on parent. done counts
// dismissals.
func (f *popupFixture) popup(t *testing.T, parent *compositor.Surface, done *int) *Popup {
	t.Helper()
	s := f.st.CreateSurface()
	p, err := NewPopup(s, parent, image.Rect(10, 10, 110, 110))
	require.NoError(t, err)
	if done != nil {
		p.OnDone = func() { *done++ }
	}
	f.mgr.Track(p)
	return p
}

func TestGrabRequiresValidSerial(t *testing.T) {
	f := newPopupFixture(t)
	p := f.popup(t, f.root, nil)

	_, err := f.mgr.GrabPopup(f.seat, p, 42)
	assert.ErrorIs(t, err, ErrInvalidSerial)
	_, err = f.mgr.GrabPopup(f.seat, p, 0)
	assert.ErrorIs(t, err, ErrInvalidSerial)

	serial := f.seat.NextSerial()
	_, err = f.mgr.GrabPopup(f.seat, p, serial)
	assert.NoError(t, err)
}

func TestGrabStackNesting(t *testing.T) {
	f := newPopupFixture(t)
	p1 := f.popup(t, f.root, nil)
	p2 := f.popup(t, p1.Surface(), nil)

	serial := f.seat.NextSerial()

	// Grabbing p2 first is out of order: the chain must grab
	// outward-in.
	_, err := f.mgr.GrabPopup(f.seat, p2, serial)
	assert.ErrorIs(t, err, ErrNotTheTopmostPopup)

	g, err := f.mgr.GrabPopup(f.seat, p1, serial)
	require.Error(t, err, "p1 has a child popup, so it is not topmost")

	// Start over with a fresh chain.
	f = newPopupFixture(t)
	p1 = f.popup(t, f.root, nil)
	serial = f.seat.NextSerial()

	g, err = f.mgr.GrabPopup(f.seat, p1, serial)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Depth())
	assert.Equal(t, p1.Surface().ID(), f.seat.KeyboardFocus())

	p2 = f.popup(t, p1.Surface(), nil)
	g2, err := f.mgr.GrabPopup(f.seat, p2, serial)
	require.NoError(t, err)
	assert.Same(t, g, g2, "nested grabs extend the same grab")
	assert.Equal(t, 2, g.Depth())
	assert.Equal(t, p2.Surface().ID(), f.seat.KeyboardFocus())

	// A popup whose parent is not the current topmost cannot join.
	p3 := f.popup(t, p1.Surface(), nil)
	_, err = f.mgr.GrabPopup(f.seat, p3, serial)
	assert.ErrorIs(t, err, ErrNotTheTopmostPopup)
}

func TestGrabExtensionRequiresMostRecentSibling(t *testing.T) {
	f := newPopupFixture(t)
	p1 := f.popup(t, f.root, nil)
	serial := f.seat.NextSerial()
	g, err := f.mgr.GrabPopup(f.seat, p1, serial)
	require.NoError(t, err)

	// Two siblings mapped on the grabbed popup. Only the newer one may
	// extend the grab.
	p2a := f.popup(t, p1.Surface(), nil)
	p2b := f.popup(t, p1.Surface(), nil)

	_, err = f.mgr.GrabPopup(f.seat, p2a, serial)
	assert.ErrorIs(t, err, ErrNotTheTopmostPopup)
	assert.Equal(t, 1, g.Depth())

	g2, err := f.mgr.GrabPopup(f.seat, p2b, serial)
	require.NoError(t, err)
	assert.Same(t, g, g2)
	assert.Equal(t, 2, g.Depth())
	assert.Equal(t, p2b.Surface().ID(), f.seat.KeyboardFocus())
}

func TestDismissTopmostOnly(t *testing.T) {
	f := newPopupFixture(t)
	var done1, done2 int
	p1 := f.popup(t, f.root, &done1)
	serial := f.seat.NextSerial()
	g, err := f.mgr.GrabPopup(f.seat, p1, serial)
	require.NoError(t, err)
	p2 := f.popup(t, p1.Surface(), &done2)
	_, err = f.mgr.GrabPopup(f.seat, p2, serial)
	require.NoError(t, err)

	// Topmost-only on a non-topmost popup is an error, not a cascade.
	err = g.Dismiss(p1, UngrabTopmostOnly)
	assert.ErrorIs(t, err, ErrNotTheTopmostPopup)
	assert.Equal(t, 2, g.Depth())

	require.NoError(t, g.Dismiss(p2, UngrabTopmostOnly))
	assert.Equal(t, 1, g.Depth())
	assert.Equal(t, 0, done2, "the initiator learns nothing new")
	assert.Equal(t, p1.Surface().ID(), f.seat.KeyboardFocus())
}

func TestDismissCascades(t *testing.T) {
	f := newPopupFixture(t)
	var done1, done2, done3 int
	p1 := f.popup(t, f.root, &done1)
	serial := f.seat.NextSerial()
	g, err := f.mgr.GrabPopup(f.seat, p1, serial)
	require.NoError(t, err)
	p2 := f.popup(t, p1.Surface(), &done2)
	_, err = f.mgr.GrabPopup(f.seat, p2, serial)
	require.NoError(t, err)
	p3 := f.popup(t, p2.Surface(), &done3)
	_, err = f.mgr.GrabPopup(f.seat, p3, serial)
	require.NoError(t, err)

	prevFocus := f.seat.KeyboardFocus()
	require.Equal(t, p3.Surface().ID(), prevFocus)

	// Dismissing the bottom entry takes everything above with it in
	// one step and ends the grab.
	require.NoError(t, g.Dismiss(p1, UngrabAllAbove))
	assert.Equal(t, 0, g.Depth())
	assert.Equal(t, 0, done1, "p1 initiated the dismissal")
	assert.Equal(t, 1, done2)
	assert.Equal(t, 1, done3)
	assert.Nil(t, f.mgr.Grab(f.seat))
	assert.Nil(t, f.seat.Grab())
}

func TestGrabRestoresFocus(t *testing.T) {
	f := newPopupFixture(t)
	f.seat.FocusKeyboard(f.root.ID())
	f.seat.FocusPointer(f.root.ID())

	p := f.popup(t, f.root, nil)
	serial := f.seat.NextSerial()
	g, err := f.mgr.GrabPopup(f.seat, p, serial)
	require.NoError(t, err)
	require.Equal(t, p.Surface().ID(), f.seat.KeyboardFocus())

	require.NoError(t, g.Dismiss(p, UngrabTopmostOnly))
	assert.Equal(t, f.root.ID(), f.seat.KeyboardFocus())
	assert.Equal(t, f.root.ID(), f.seat.PointerFocus())
}

func TestButtonPressOutsideDismissesGrab(t *testing.T) {
	f := newPopupFixture(t)
	var done int
	p := f.popup(t, f.root, &done)
	serial := f.seat.NextSerial()
	_, err := f.mgr.GrabPopup(f.seat, p, serial)
	require.NoError(t, err)

	// A press inside the grabbed popup goes through.
	f.seat.PointerButton(seat.ButtonLeft, true, p.Surface().ID())
	assert.NotNil(t, f.seat.Grab())
	assert.Equal(t, 0, done)

	// A press outside tears the grab down.
	f.seat.PointerButton(seat.ButtonLeft, true, f.root.ID())
	assert.Nil(t, f.seat.Grab())
	assert.Equal(t, 1, done)
}

func TestOtherSeatCannotGrabSameParent(t *testing.T) {
	f := newPopupFixture(t)
	other := seat.New("seat1")

	p1 := f.popup(t, f.root, nil)
	serial := f.seat.NextSerial()
	_, err := f.mgr.GrabPopup(f.seat, p1, serial)
	require.NoError(t, err)

	// A second seat cannot grab a popup whose parent is held by the
	// first seat's grab.
	p2 := f.popup(t, p1.Surface(), nil)
	otherSerial := other.NextSerial()
	_, err = f.mgr.GrabPopup(other, p2, otherSerial)
	assert.ErrorIs(t, err, ErrParentGrabbed)
}

func TestDestroySurfaceCascadesThroughPopups(t *testing.T) {
	f := newPopupFixture(t)
	var done1, done2 int
	p1 := f.popup(t, f.root, &done1)
	p2 := f.popup(t, p1.Surface(), &done2)
	_ = p2

	// Destroying the root surface dismisses the whole chain, children
	// first.
	f.mgr.DestroySurface(f.root.ID())
	assert.Equal(t, 1, done1)
	assert.Equal(t, 1, done2)
	assert.Nil(t, f.mgr.Popup(p1.Surface().ID()))
	assert.Empty(t, f.mgr.PopupsFor(f.root.ID()))
}
