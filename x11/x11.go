// Package x11 provides the minimal X11 window control needed for
// Xwayland interop: configuring and closing X11-backed windows. The
// rest of the X11 protocol is Xwayland's problem.
package x11

import (
	"fmt"
	"image"

	"deedles.dev/shoji/compositor"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Conn is a connection to the X server run by Xwayland.
type Conn struct {
	x *xgb.Conn
}

// Connect connects to the X server at the given display, e.g. ":1".
// An empty display uses $DISPLAY.
func Connect(display string) (*Conn, error) {
	x, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return &Conn{x: x}, nil
}

func (c *Conn) Close() {
	c.x.Close()
}

// Window is an X11 window paired with the Wayland surface Xwayland
// created for it.
type Window struct {
	// XID is the window's X11 resource ID.
	XID xproto.Window

	// OverrideRedirect marks windows that manage their own geometry,
	// e.g. menus and tooltips.
	OverrideRedirect bool

	conn    *Conn
	surface *compositor.Surface
	geo     image.Rectangle
}

// NewWindow pairs an X11 window with its surface. conn may be nil in
// tests; window control then degrades to local bookkeeping.
func NewWindow(conn *Conn, xid xproto.Window, surface *compositor.Surface) (*Window, error) {
	if err := surface.SetRole(compositor.RoleX11); err != nil {
		return nil, err
	}
	return &Window{
		XID:     xid,
		conn:    conn,
		surface: surface,
	}, nil
}

func (w *Window) Surface() *compositor.Surface { return w.surface }

func (w *Window) Geometry() image.Rectangle { return w.geo }

// Configure moves and resizes the X11 window. X11 windows have no
// configure/ack round trip; the new geometry takes effect
// immediately.
func (w *Window) Configure(geo image.Rectangle) error {
	w.geo = geo
	if w.conn == nil {
		return nil
	}

	const mask = xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	vals := []uint32{
		uint32(geo.Min.X),
		uint32(geo.Min.Y),
		uint32(geo.Dx()),
		uint32(geo.Dy()),
	}
	err := xproto.ConfigureWindowChecked(w.conn.x, w.XID, mask, vals).Check()
	if err != nil {
		return fmt.Errorf("configure X11 window %#x: %w", uint32(w.XID), err)
	}
	return nil
}

// Close kills the client owning the window. Polite WM_DELETE_WINDOW
// negotiation is window-manager policy and out of scope here.
func (w *Window) Close() error {
	if w.conn == nil {
		return nil
	}
	err := xproto.KillClientChecked(w.conn.x, uint32(w.XID)).Check()
	if err != nil {
		return fmt.Errorf("kill X11 client of window %#x: %w", uint32(w.XID), err)
	}
	return nil
}
