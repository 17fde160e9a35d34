package server

import (
	"fmt"
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/shell"
	"deedles.dev/shoji/wire"
)

// xdg_wm_base error codes.
const (
	xdgErrRole                uint32 = 0
	xdgErrInvalidPopupParent  uint32 = 3
	xdgErrInvalidSurfaceState uint32 = 4
)

// wmBaseResource is an xdg_wm_base: the entry point of the xdg-shell
// window protocol.
type wmBaseResource struct {
	object
	client *Client
}

var wmBaseRequests = []string{"destroy", "create_positioner", "get_xdg_surface", "pong"}

func (r *wmBaseResource) String() string {
	return fmt.Sprintf("xdg_wm_base@%v", r.id)
}

func (r *wmBaseResource) MethodName(op uint16) string {
	return methodName(wmBaseRequests, op)
}

func (r *wmBaseResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.client.deleteID(r.id)
		return nil

	case 1: // create_positioner
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		r.client.addWithID(id, &positionerResource{client: r.client})
		return nil

	case 2: // get_xdg_surface
		id := msg.ReadUint()
		surfaceID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		sr, ok := r.client.Get(surfaceID).(*surfaceResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", surfaceID)
		}
		x := &xdgSurfaceResource{client: r.client, sr: sr}
		r.client.addWithID(id, x)
		sr.onCommit = append(sr.onCommit, x.committed)
		return nil

	case 3: // pong
		msg.ReadUint()
		return msg.Err()
	}
	return wire.UnknownOpError{Interface: "xdg_wm_base", Op: msg.Op()}
}

// positionerResource is an xdg_positioner: a bag of placement rules
// collected ahead of popup creation.
type positionerResource struct {
	object
	client *Client

	size       image.Point
	anchorRect image.Rectangle
	anchor     uint32
	gravity    uint32
	offset     image.Point
}

var positionerRequests = []string{
	"destroy", "set_size", "set_anchor_rect", "set_anchor",
	"set_gravity", "set_constraint_adjustment", "set_offset",
}

func (r *positionerResource) String() string {
	return fmt.Sprintf("xdg_positioner@%v", r.id)
}

func (r *positionerResource) MethodName(op uint16) string {
	return methodName(positionerRequests, op)
}

func (r *positionerResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.client.deleteID(r.id)
		return nil

	case 1: // set_size
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		r.size = image.Pt(int(w), int(h))
		return nil

	case 2: // set_anchor_rect
		x := msg.ReadInt()
		y := msg.ReadInt()
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		r.anchorRect = image.Rect(int(x), int(y), int(x+w), int(y+h))
		return nil

	case 3: // set_anchor
		r.anchor = msg.ReadUint()
		return msg.Err()

	case 4: // set_gravity
		r.gravity = msg.ReadUint()
		return msg.Err()

	case 5: // set_constraint_adjustment
		msg.ReadUint() // constraint solving is not implemented
		return msg.Err()

	case 6: // set_offset
		x := msg.ReadInt()
		y := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		r.offset = image.Pt(int(x), int(y))
		return nil
	}
	return wire.UnknownOpError{Interface: "xdg_positioner", Op: msg.Op()}
}

// The anchor and gravity enums share values: none, then the four
// edges, then the four corners.
const (
	edgeNone uint32 = iota
	edgeTop
	edgeBottom
	edgeLeft
	edgeRight
	edgeTopLeft
	edgeBottomLeft
	edgeTopRight
	edgeBottomRight
)

// geometry resolves the positioner into a rectangle relative to the
// parent surface.
func (r *positionerResource) geometry() image.Rectangle {
	ar := r.anchorRect
	pt := image.Pt(ar.Min.X+ar.Dx()/2, ar.Min.Y+ar.Dy()/2)

	switch r.anchor {
	case edgeTop, edgeTopLeft, edgeTopRight:
		pt.Y = ar.Min.Y
	case edgeBottom, edgeBottomLeft, edgeBottomRight:
		pt.Y = ar.Max.Y
	}
	switch r.anchor {
	case edgeLeft, edgeTopLeft, edgeBottomLeft:
		pt.X = ar.Min.X
	case edgeRight, edgeTopRight, edgeBottomRight:
		pt.X = ar.Max.X
	}
	pt = pt.Add(r.offset)

	min := pt.Sub(image.Pt(r.size.X/2, r.size.Y/2))
	switch r.gravity {
	case edgeTop, edgeTopLeft, edgeTopRight:
		min.Y = pt.Y - r.size.Y
	case edgeBottom, edgeBottomLeft, edgeBottomRight:
		min.Y = pt.Y
	}
	switch r.gravity {
	case edgeLeft, edgeTopLeft, edgeBottomLeft:
		min.X = pt.X - r.size.X
	case edgeRight, edgeTopRight, edgeBottomRight:
		min.X = pt.X
	}

	return image.Rectangle{Min: min, Max: min.Add(r.size)}
}

// xdgSurfaceResource is an xdg_surface: the shared machinery under
// toplevels and popups, including the configure handshake and the
// commit-driven map state machine.
type xdgSurfaceResource struct {
	object
	client *Client
	sr     *surfaceResource

	toplevel *toplevelResource
	popup    *popupResource

	serial     uint32
	configured bool
	mapped     bool
}

var xdgSurfaceRequests = []string{
	"destroy", "get_toplevel", "get_popup", "set_window_geometry", "ack_configure",
}

func (x *xdgSurfaceResource) String() string {
	return fmt.Sprintf("xdg_surface@%v", x.id)
}

func (x *xdgSurfaceResource) MethodName(op uint16) string {
	return methodName(xdgSurfaceRequests, op)
}

func (x *xdgSurfaceResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		if x.toplevel != nil || x.popup != nil {
			return compositor.Errorf(compositor.ErrorCode(xdgErrRole), "xdg_surface destroyed before its role object")
		}
		x.client.deleteID(x.id)
		return nil

	case 1: // get_toplevel
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		t, err := shell.NewToplevel(x.sr.s)
		if err != nil {
			return err
		}
		tr := &toplevelResource{client: x.client, x: x, toplevel: t}
		x.toplevel = tr
		x.sr.window = &shell.Window{XDG: t}
		t.OnConfigure = func(_ uint32, size image.Point) {
			tr.configure(size)
		}
		t.OnClose = tr.sendClose
		x.client.addWithID(id, tr)
		return nil

	case 2: // get_popup
		id := msg.ReadUint()
		parentID := msg.ReadUint()
		positionerID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		pos, ok := x.client.Get(positionerID).(*positionerResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a positioner", positionerID)
		}

		// A parentless popup is allowed here; other shells, like the
		// layer shell, attach the parent through their own requests.
		var parent *compositor.Surface
		if parentID != 0 {
			px, ok := x.client.Get(parentID).(*xdgSurfaceResource)
			if !ok {
				return compositor.Errorf(compositor.ErrorCode(xdgErrInvalidPopupParent), "object %v is not an xdg_surface", parentID)
			}
			parent = px.sr.s
		}

		p, err := shell.NewPopup(x.sr.s, parent, pos.geometry())
		if err != nil {
			return err
		}
		pr := &popupResource{client: x.client, x: x, popup: p}
		x.popup = pr
		p.OnDone = pr.sendDone
		if parent != nil {
			x.client.server.state.Popups.Track(p)
		}
		x.client.addWithID(id, pr)
		return nil

	case 3: // set_window_geometry
		gx := msg.ReadInt()
		gy := msg.ReadInt()
		gw := msg.ReadInt()
		gh := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if x.toplevel != nil {
			x.toplevel.toplevel.SetGeometry(image.Rect(int(gx), int(gy), int(gx+gw), int(gy+gh)))
		}
		return nil

	case 4: // ack_configure
		msg.ReadUint()
		return msg.Err()
	}
	return wire.UnknownOpError{Interface: "xdg_surface", Op: msg.Op()}
}

// configure sends the xdg_surface half of the configure handshake.
// Role events go out first, per the protocol.
func (x *xdgSurfaceResource) configure() {
	x.serial++
	x.configured = true
	msg := event(x, 0, "configure")
	msg.WriteUint(x.serial)
	x.client.Enqueue(msg)
}

// committed is the surface commit hook: it drives the initial
// configure and the map and unmap transitions.
func (x *xdgSurfaceResource) committed() error {
	mapped := x.sr.s.Mapped()

	if !x.configured {
		if mapped {
			return compositor.Errorf(compositor.ErrorCode(xdgErrInvalidSurfaceState), "buffer attached before initial configure")
		}
		switch {
		case x.toplevel != nil:
			x.toplevel.configure(image.Point{})
		case x.popup != nil:
			x.popup.configure()
		}
		return nil
	}

	server := x.client.server
	switch {
	case mapped && !x.mapped:
		x.mapped = true
		if x.toplevel != nil {
			server.handler.MapWindow(x.sr.window)
		}
		if x.popup != nil {
			server.state.Space.Damage(x.popup.globalGeometry())
		}
	case !mapped && x.mapped:
		x.mapped = false
		if x.toplevel != nil {
			server.handler.UnmapWindow(x.sr.window)
		}
		if x.popup != nil {
			server.state.Space.Damage(x.popup.globalGeometry())
		}
	case mapped && x.popup != nil:
		server.state.Space.Damage(x.popup.globalGeometry())
	}
	return nil
}

// toplevelResource is an xdg_toplevel. Sizing and tiling requests are
// policy and are accepted but ignored.
type toplevelResource struct {
	object
	client   *Client
	x        *xdgSurfaceResource
	toplevel *shell.Toplevel
}

var toplevelRequests = []string{
	"destroy", "set_parent", "set_title", "set_app_id",
	"show_window_menu", "move", "resize", "set_max_size", "set_min_size",
	"set_maximized", "unset_maximized", "set_fullscreen", "unset_fullscreen",
	"set_minimized",
}

func (r *toplevelResource) String() string {
	return fmt.Sprintf("xdg_toplevel@%v", r.id)
}

func (r *toplevelResource) MethodName(op uint16) string {
	return methodName(toplevelRequests, op)
}

func (r *toplevelResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		if r.x.mapped {
			r.x.mapped = false
			r.client.server.handler.UnmapWindow(r.x.sr.window)
		}
		r.x.toplevel = nil
		r.client.deleteID(r.id)
		return nil

	case 1: // set_parent
		msg.ReadUint()
		return msg.Err()

	case 2: // set_title
		r.toplevel.Title = msg.ReadString()
		return msg.Err()

	case 3: // set_app_id
		r.toplevel.AppID = msg.ReadString()
		return msg.Err()

	case 4: // show_window_menu
		msg.ReadUint()
		msg.ReadUint()
		msg.ReadInt()
		msg.ReadInt()
		return msg.Err()

	case 5, 6: // move, resize
		msg.ReadUint()
		msg.ReadUint()
		if msg.Op() == 6 {
			msg.ReadUint()
		}
		return msg.Err()

	case 7, 8: // set_max_size, set_min_size
		msg.ReadInt()
		msg.ReadInt()
		return msg.Err()

	case 9, 10, 12, 13: // set_maximized, unset_maximized, unset_fullscreen, set_minimized
		return nil

	case 11: // set_fullscreen
		msg.ReadUint()
		return msg.Err()
	}
	return wire.UnknownOpError{Interface: "xdg_toplevel", Op: msg.Op()}
}

// configure sends a size suggestion followed by the xdg_surface
// configure that seals it.
func (r *toplevelResource) configure(size image.Point) {
	msg := event(r, 0, "configure")
	msg.WriteInt(int32(size.X))
	msg.WriteInt(int32(size.Y))
	msg.WriteArray(nil)
	r.client.Enqueue(msg)
	r.x.configure()
}

func (r *toplevelResource) sendClose() {
	r.client.Enqueue(event(r, 1, "close"))
}

// popupResource is an xdg_popup.
type popupResource struct {
	object
	client *Client
	x      *xdgSurfaceResource
	popup  *shell.Popup
}

var popupRequests = []string{"destroy", "grab", "reposition"}

func (r *popupResource) String() string {
	return fmt.Sprintf("xdg_popup@%v", r.id)
}

func (r *popupResource) MethodName(op uint16) string {
	return methodName(popupRequests, op)
}

func (r *popupResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.client.server.state.Space.Damage(r.globalGeometry())
		r.client.server.state.Popups.DestroySurface(r.popup.Surface().ID())
		r.x.popup = nil
		r.x.mapped = false
		r.client.deleteID(r.id)
		return nil

	case 1: // grab
		msg.ReadUint() // seat
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		state := r.client.server.state
		_, err := state.Popups.GrabPopup(state.Seat, r.popup, serial)
		if err != nil {
			return compositor.Errorf(0, "invalid grab: %v", err)
		}
		return nil

	case 2: // reposition
		positionerID := msg.ReadUint()
		token := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		pos, ok := r.client.Get(positionerID).(*positionerResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a positioner", positionerID)
		}
		r.client.server.state.Space.Damage(r.globalGeometry())
		r.popup.SetGeometry(pos.geometry())
		r.client.server.state.Space.Damage(r.globalGeometry())

		reply := event(r, 2, "repositioned")
		reply.WriteUint(token)
		r.client.Enqueue(reply)
		r.configure()
		return nil
	}
	return wire.UnknownOpError{Interface: "xdg_popup", Op: msg.Op()}
}

// configure reports the popup's placement relative to its parent.
func (r *popupResource) configure() {
	geo := r.popup.Geometry()
	msg := event(r, 0, "configure")
	msg.WriteInt(int32(geo.Min.X))
	msg.WriteInt(int32(geo.Min.Y))
	msg.WriteInt(int32(geo.Dx()))
	msg.WriteInt(int32(geo.Dy()))
	r.client.Enqueue(msg)
	r.x.configure()
}

func (r *popupResource) sendDone() {
	r.client.server.state.Space.Damage(r.globalGeometry())
	r.client.Enqueue(event(r, 1, "popup_done"))
}

// globalGeometry resolves the popup's rectangle into layout
// coordinates by walking its parent chain down to something the space
// knows a position for.
func (r *popupResource) globalGeometry() image.Rectangle {
	server := r.client.server
	return r.popup.Geometry().Add(popupOrigin(server, r.popup))
}

func popupOrigin(server *Server, p *shell.Popup) image.Point {
	parent := p.Parent()
	if parent == nil {
		return image.Point{}
	}

	if pp := server.state.Popups.Popup(parent.ID()); pp != nil {
		return popupOrigin(server, pp).Add(pp.Geometry().Min)
	}
	sr := server.surfaces[parent.ID()]
	if sr == nil {
		return image.Point{}
	}
	if sr.layer != nil {
		return sr.layer.Geometry().Min
	}
	if sr.window != nil {
		if pos, ok := server.state.Space.Position(sr.window); ok {
			return pos
		}
	}
	return image.Point{}
}
