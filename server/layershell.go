package server

import (
	"fmt"
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/layershell"
	"deedles.dev/shoji/space"
	"deedles.dev/shoji/wire"
)

// layerShellResource is a zwlr_layer_shell_v1.
type layerShellResource struct {
	object
	client *Client
}

var layerShellRequests = []string{"get_layer_surface", "destroy"}

func (r *layerShellResource) String() string {
	return fmt.Sprintf("zwlr_layer_shell_v1@%v", r.id)
}

func (r *layerShellResource) MethodName(op uint16) string {
	return methodName(layerShellRequests, op)
}

func (r *layerShellResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // get_layer_surface
		id := msg.ReadUint()
		surfaceID := msg.ReadUint()
		outputID := msg.ReadUint()
		layer := msg.ReadUint()
		msg.ReadString() // namespace
		if err := msg.Err(); err != nil {
			return err
		}

		sr, ok := r.client.Get(surfaceID).(*surfaceResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", surfaceID)
		}
		if layer > uint32(layershell.LayerOverlay) {
			return compositor.Errorf(compositor.ErrInvalidMethod, "invalid layer %v", layer)
		}

		output := r.pickOutput(outputID)
		if output == nil {
			return compositor.Errorf(compositor.ErrInvalidObject, "no output to bind layer surface to")
		}

		ls, err := layershell.NewSurface(sr.s, output, layershell.Layer(layer))
		if err != nil {
			return err
		}
		l := &layerSurfaceResource{client: r.client, sr: sr, ls: ls}
		ls.OnConfigure = l.configure
		ls.OnClosed = l.closed
		sr.layer = ls
		sr.onCommit = append(sr.onCommit, l.committed)
		r.client.addWithID(id, l)
		return nil

	case 1: // destroy
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "zwlr_layer_shell_v1", Op: msg.Op()}
}

// pickOutput resolves a wl_output argument, defaulting to the first
// output in the layout.
func (r *layerShellResource) pickOutput(id uint32) *space.Output {
	if id != 0 {
		if or, ok := r.client.Get(id).(*outputResource); ok {
			return or.output
		}
		return nil
	}
	outputs := r.client.server.state.Space.Outputs()
	if len(outputs) == 0 {
		return nil
	}
	return outputs[0]
}

// layerSurfaceResource is a zwlr_layer_surface_v1. Property requests
// take effect on the next commit, which also inserts the surface into
// the layer map the first time.
type layerSurfaceResource struct {
	object
	client *Client
	sr     *surfaceResource
	ls     *layershell.Surface

	serial        uint32
	added         bool
	mapped        bool
	dirty         bool
	kbInteractive bool
}

var layerSurfaceRequests = []string{
	"set_size", "set_anchor", "set_exclusive_zone", "set_margin",
	"set_keyboard_interactivity", "get_popup", "ack_configure",
	"destroy", "set_layer",
}

func (l *layerSurfaceResource) String() string {
	return fmt.Sprintf("zwlr_layer_surface_v1@%v", l.id)
}

func (l *layerSurfaceResource) MethodName(op uint16) string {
	return methodName(layerSurfaceRequests, op)
}

func (l *layerSurfaceResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // set_size
		w := msg.ReadUint()
		h := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		l.ls.DesiredSize = image.Pt(int(w), int(h))
		l.dirty = true
		return nil

	case 1: // set_anchor
		anchor := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		l.ls.Anchor = layershell.Anchor(anchor)
		l.dirty = true
		return nil

	case 2: // set_exclusive_zone
		zone := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		l.ls.Exclusive = int(zone)
		l.dirty = true
		return nil

	case 3: // set_margin
		top := msg.ReadInt()
		right := msg.ReadInt()
		bottom := msg.ReadInt()
		left := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		l.ls.Margins = layershell.Margins{
			Top:    int(top),
			Right:  int(right),
			Bottom: int(bottom),
			Left:   int(left),
		}
		l.dirty = true
		return nil

	case 4: // set_keyboard_interactivity
		l.kbInteractive = msg.ReadUint() != 0
		return msg.Err()

	case 5: // get_popup
		popupID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		pr, ok := l.client.Get(popupID).(*popupResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a popup", popupID)
		}
		pr.popup.SetParent(l.sr.s)
		l.client.server.state.Popups.Track(pr.popup)
		return nil

	case 6: // ack_configure
		msg.ReadUint()
		return msg.Err()

	case 7: // destroy
		l.cleanup()
		l.client.deleteID(l.id)
		return nil

	case 8: // set_layer
		layer := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if layer > uint32(layershell.LayerOverlay) {
			return compositor.Errorf(compositor.ErrInvalidMethod, "invalid layer %v", layer)
		}
		l.client.server.state.Layers.SetLayer(l.ls, layershell.Layer(layer))
		return nil
	}
	return wire.UnknownOpError{Interface: "zwlr_layer_surface_v1", Op: msg.Op()}
}

// configure is the arrangement callback: it reports the arranged size
// to the client.
func (l *layerSurfaceResource) configure(size image.Point) {
	l.serial++
	msg := event(l, 0, "configure")
	msg.WriteUint(l.serial)
	msg.WriteUint(uint32(size.X))
	msg.WriteUint(uint32(size.Y))
	l.client.Enqueue(msg)
}

func (l *layerSurfaceResource) closed() {
	l.client.Enqueue(event(l, 1, "closed"))
}

// committed drives the layer surface's map state machine and keeps
// the output arrangement current.
func (l *layerSurfaceResource) committed() error {
	server := l.client.server

	if !l.added {
		l.added = true
		l.dirty = false
		server.state.Layers.Add(l.ls)
	} else if l.dirty {
		l.dirty = false
		server.state.Layers.Arrange(l.ls.Output())
	}

	mapped := l.sr.s.Mapped()
	switch {
	case mapped && !l.mapped:
		l.mapped = true
		server.handler.MapLayerSurface(l.ls)
		server.state.Space.Damage(l.ls.Geometry())
		if l.kbInteractive {
			server.state.Seat.FocusKeyboard(l.sr.s.ID())
		}
	case !mapped && l.mapped:
		l.mapped = false
		server.handler.UnmapLayerSurface(l.ls)
		server.state.Space.Damage(l.ls.Geometry())
	}
	return nil
}

// cleanup removes the surface from its output's arrangement.
func (l *layerSurfaceResource) cleanup() {
	server := l.client.server
	if l.mapped {
		l.mapped = false
		server.handler.UnmapLayerSurface(l.ls)
		server.state.Space.Damage(l.ls.Geometry())
	}
	if l.added {
		l.added = false
		server.state.Layers.Remove(l.ls)
	}
	l.sr.layer = nil
}
