package seat

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/shoji/compositor"
)

func TestSerials(t *testing.T) {
	s := New("seat0")

	assert.False(t, s.ValidSerial(0))
	assert.False(t, s.ValidSerial(1), "not issued yet")

	first := s.NextSerial()
	second := s.NextSerial()
	assert.Less(t, first, second)
	assert.True(t, s.ValidSerial(first))
	assert.True(t, s.ValidSerial(second))
	assert.False(t, s.ValidSerial(second+1))
}

func TestFocusCallbacks(t *testing.T) {
	s := New("seat0")

	type change struct{ old, new compositor.SurfaceID }
	var pointer, keyboard []change
	s.OnPointerFocus = func(old, new compositor.SurfaceID) {
		pointer = append(pointer, change{old, new})
	}
	s.OnKeyboardFocus = func(old, new compositor.SurfaceID) {
		keyboard = append(keyboard, change{old, new})
	}

	s.FocusPointer(3)
	s.FocusPointer(3) // no-op
	s.FocusPointer(0)
	assert.Equal(t, []change{{0, 3}, {3, 0}}, pointer)
	assert.Equal(t, compositor.SurfaceID(0), s.PointerFocus())

	s.FocusKeyboard(7)
	assert.Equal(t, []change{{0, 7}}, keyboard)
	assert.Equal(t, compositor.SurfaceID(7), s.KeyboardFocus())
}

func TestButtonAndKeyDelivery(t *testing.T) {
	s := New("seat0")
	s.FocusPointer(3)
	s.FocusKeyboard(7)

	var gotBtn, gotKey compositor.SurfaceID
	s.OnButton = func(serial uint32, btn Button, pressed bool, focus compositor.SurfaceID) {
		assert.True(t, s.ValidSerial(serial))
		assert.Equal(t, ButtonLeft, btn)
		assert.True(t, pressed)
		gotBtn = focus
	}
	s.OnKey = func(serial uint32, key uint32, pressed bool, focus compositor.SurfaceID) {
		assert.Equal(t, uint32(30), key)
		gotKey = focus
	}

	s.PointerButton(ButtonLeft, true, 3)
	s.Key(30, true)
	assert.Equal(t, compositor.SurfaceID(3), gotBtn)
	assert.Equal(t, compositor.SurfaceID(7), gotKey)
}

// recordingGrab logs everything routed through it and can swallow
// events selectively.
type recordingGrab struct {
	motions   []image.Point
	buttons   int
	keys      int
	cancelled int

	passButtons bool
	passKeys    bool
}

func (g *recordingGrab) Motion(pt image.Point, under compositor.SurfaceID) {
	g.motions = append(g.motions, pt)
}

func (g *recordingGrab) Button(btn Button, pressed bool, under compositor.SurfaceID) bool {
	g.buttons++
	return g.passButtons
}

func (g *recordingGrab) Key(key uint32, pressed bool) bool {
	g.keys++
	return g.passKeys
}

func (g *recordingGrab) Cancel() { g.cancelled++ }

func TestGrabInterceptsInput(t *testing.T) {
	s := New("seat0")
	var delivered int
	s.OnButton = func(uint32, Button, bool, compositor.SurfaceID) { delivered++ }
	s.OnKey = func(uint32, uint32, bool, compositor.SurfaceID) { delivered++ }

	g := &recordingGrab{}
	s.SetGrab(g)
	require.Same(t, Grab(g), s.Grab())

	// Motion goes to the grab instead of moving focus.
	s.PointerMotion(image.Pt(5, 5), 3)
	assert.Equal(t, []image.Point{{X: 5, Y: 5}}, g.motions)
	assert.Equal(t, compositor.SurfaceID(0), s.PointerFocus())

	// A swallowing grab stops normal delivery.
	s.PointerButton(ButtonLeft, true, 3)
	s.Key(30, true)
	assert.Equal(t, 1, g.buttons)
	assert.Equal(t, 1, g.keys)
	assert.Zero(t, delivered)

	// A pass-through grab still sees the event first.
	g.passButtons = true
	g.passKeys = true
	s.PointerButton(ButtonLeft, false, 3)
	s.Key(30, false)
	assert.Equal(t, 2, delivered)
}

func TestSetGrabCancelsPrevious(t *testing.T) {
	s := New("seat0")

	first := &recordingGrab{}
	second := &recordingGrab{}
	s.SetGrab(first)
	s.SetGrab(second)

	assert.Equal(t, 1, first.cancelled)
	assert.Zero(t, second.cancelled)
	assert.Same(t, Grab(second), s.Grab())

	// Re-installing the current grab does not cancel it.
	s.SetGrab(second)
	assert.Zero(t, second.cancelled)
}

func TestClearGrabOnlyRemovesOwn(t *testing.T) {
	s := New("seat0")
	g := &recordingGrab{}
	other := &recordingGrab{}

	s.SetGrab(g)
	s.ClearGrab(other)
	assert.Same(t, Grab(g), s.Grab())

	s.ClearGrab(g)
	assert.Nil(t, s.Grab())
	assert.Zero(t, g.cancelled)
}

func TestCancelGrab(t *testing.T) {
	s := New("seat0")
	g := &recordingGrab{}
	s.SetGrab(g)

	s.CancelGrab()
	assert.Equal(t, 1, g.cancelled)
	assert.Nil(t, s.Grab())

	// Nothing installed is fine.
	s.CancelGrab()
}
