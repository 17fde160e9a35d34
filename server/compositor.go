package server

import (
	"fmt"
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/layershell"
	"deedles.dev/shoji/shell"
	"deedles.dev/shoji/wire"
)

// compositorResource is a wl_compositor: the factory for surfaces and
// regions.
type compositorResource struct {
	object
	client *Client
}

var compositorRequests = []string{"create_surface", "create_region"}

func (r *compositorResource) String() string {
	return fmt.Sprintf("wl_compositor@%v", r.id)
}

func (r *compositorResource) MethodName(op uint16) string {
	return methodName(compositorRequests, op)
}

func (r *compositorResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // create_surface
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		s := r.client.server.state.Surfaces.CreateSurface()
		sr := &surfaceResource{client: r.client, s: s}
		r.client.addWithID(id, sr)
		r.client.server.surfaces[s.ID()] = sr
		return nil

	case 1: // create_region
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		r.client.addWithID(id, &regionResource{client: r.client, region: new(compositor.Region)})
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_compositor", Op: msg.Op()}
}

// surfaceResource is a wl_surface. It fronts a compositor.Surface and
// carries the commit hooks its role object registers.
type surfaceResource struct {
	object
	client *Client
	s      *compositor.Surface

	// window is set once the surface becomes the root of a window, so
	// that commit damage can be attributed to the space. layer is the
	// equivalent for layer-shell surfaces.
	window *shell.Window
	layer  *layershell.Surface

	// onCommit runs after each successful commit, in registration
	// order. Role objects use it to drive their map state machines.
	onCommit []func() error
}

var surfaceRequests = []string{
	"destroy", "attach", "damage", "frame",
	"set_opaque_region", "set_input_region", "commit",
	"set_buffer_transform", "set_buffer_scale", "damage_buffer",
}

func (r *surfaceResource) String() string {
	return fmt.Sprintf("wl_surface@%v", r.id)
}

func (r *surfaceResource) MethodName(op uint16) string {
	return methodName(surfaceRequests, op)
}

func (r *surfaceResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.cleanup()
		r.client.deleteID(r.id)
		r.client.server.state.Space.Refresh()
		return nil

	case 1: // attach
		bufID := msg.ReadUint()
		x := msg.ReadInt()
		y := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		var buf *compositor.Buffer
		if bufID != 0 {
			br, ok := r.client.Get(bufID).(*bufferResource)
			if !ok {
				return compositor.Errorf(compositor.ErrInvalidObject, "attach non-buffer object %v", bufID)
			}
			buf = br.buf
		}
		r.s.Attach(buf, image.Pt(int(x), int(y)))
		return nil

	case 2, 9: // damage, damage_buffer
		x := msg.ReadInt()
		y := msg.ReadInt()
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		r.s.Damage(image.Rect(int(x), int(y), int(x+w), int(y+h)))
		return nil

	case 3: // frame
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		cb := &callbackResource{client: r.client}
		r.client.addWithID(id, cb)
		r.s.Frame(cb.done)
		return nil

	case 4: // set_opaque_region
		return r.setRegion(msg, r.s.SetOpaqueRegion)

	case 5: // set_input_region
		return r.setRegion(msg, r.s.SetInputRegion)

	case 6: // commit
		if err := r.s.Commit(); err != nil {
			return err
		}
		for _, f := range r.onCommit {
			if err := f(); err != nil {
				return err
			}
		}
		r.recordDamage()
		return nil

	case 7: // set_buffer_transform
		t := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		return r.s.SetTransform(compositor.Transform(t))

	case 8: // set_buffer_scale
		scale := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		return r.s.SetScale(scale)
	}
	return wire.UnknownOpError{Interface: "wl_surface", Op: msg.Op()}
}

func (r *surfaceResource) setRegion(msg *wire.MessageBuffer, set func(*compositor.Region)) error {
	regID := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}

	if regID == 0 {
		set(nil)
		return nil
	}
	reg, ok := r.client.Get(regID).(*regionResource)
	if !ok {
		return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a region", regID)
	}
	set(reg.region)
	return nil
}

// recordDamage attributes the damage a commit produced to the space,
// through whatever the surface's root is mapped as.
func (r *surfaceResource) recordDamage() {
	server := r.client.server

	root := r.s
	for root.Parent() != nil {
		root = root.Parent()
	}
	rr := server.surfaces[root.ID()]
	switch {
	case rr == nil:
	case rr.window != nil:
		server.state.Space.NotifyCommit(rr.window)
	case rr.layer != nil:
		root.Walk(rr.layer.Geometry().Min, func(s *compositor.Surface, pos image.Point) bool {
			for _, d := range s.TakeDamage() {
				server.state.Space.Damage(d.Add(pos))
			}
			return true
		})
	}
}

// cleanup tears down the compositor-side surface. Popups parented on
// it cascade away first.
func (r *surfaceResource) cleanup() {
	if r.s == nil || !r.s.Alive() {
		return
	}
	server := r.client.server
	id := r.s.ID()
	server.state.Popups.DestroySurface(id)
	server.state.Surfaces.DestroySurface(id)
	delete(server.surfaces, id)
}

// regionResource is a wl_region under construction.
type regionResource struct {
	object
	client *Client
	region *compositor.Region
}

var regionRequests = []string{"destroy", "add", "subtract"}

func (r *regionResource) String() string {
	return fmt.Sprintf("wl_region@%v", r.id)
}

func (r *regionResource) MethodName(op uint16) string {
	return methodName(regionRequests, op)
}

func (r *regionResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.client.deleteID(r.id)
		return nil

	case 1, 2: // add, subtract
		x := msg.ReadInt()
		y := msg.ReadInt()
		w := msg.ReadInt()
		h := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		rect := image.Rect(int(x), int(y), int(x+w), int(y+h))
		if msg.Op() == 1 {
			r.region.Add(rect)
		} else {
			r.region.Subtract(rect)
		}
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_region", Op: msg.Op()}
}

// subcompositorResource is a wl_subcompositor.
type subcompositorResource struct {
	object
	client *Client
}

var subcompositorRequests = []string{"destroy", "get_subsurface"}

func (r *subcompositorResource) String() string {
	return fmt.Sprintf("wl_subcompositor@%v", r.id)
}

func (r *subcompositorResource) MethodName(op uint16) string {
	return methodName(subcompositorRequests, op)
}

func (r *subcompositorResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.client.deleteID(r.id)
		return nil

	case 1: // get_subsurface
		id := msg.ReadUint()
		surfaceID := msg.ReadUint()
		parentID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		sr, ok := r.client.Get(surfaceID).(*surfaceResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", surfaceID)
		}
		pr, ok := r.client.Get(parentID).(*surfaceResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", parentID)
		}

		if err := pr.s.AddChild(sr.s); err != nil {
			return err
		}
		r.client.addWithID(id, &subsurfaceResource{client: r.client, sub: sr})
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_subcompositor", Op: msg.Op()}
}

// subsurfaceResource is a wl_subsurface: the role object controlling
// one subsurface's position, stacking, and sync mode.
type subsurfaceResource struct {
	object
	client *Client
	sub    *surfaceResource
}

var subsurfaceRequests = []string{
	"destroy", "set_position", "place_above", "place_below",
	"set_sync", "set_desync",
}

func (r *subsurfaceResource) String() string {
	return fmt.Sprintf("wl_subsurface@%v", r.id)
}

func (r *subsurfaceResource) MethodName(op uint16) string {
	return methodName(subsurfaceRequests, op)
}

func (r *subsurfaceResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.sub.s.Unparent()
		r.client.deleteID(r.id)
		return nil

	case 1: // set_position
		x := msg.ReadInt()
		y := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		r.sub.s.SetPosition(image.Pt(int(x), int(y)))
		return nil

	case 2, 3: // place_above, place_below
		sibID := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		sib, ok := r.client.Get(sibID).(*surfaceResource)
		if !ok {
			return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", sibID)
		}
		if msg.Op() == 2 {
			return r.sub.s.PlaceAbove(sib.s)
		}
		return r.sub.s.PlaceBelow(sib.s)

	case 4: // set_sync
		r.sub.s.SetSync(true)
		return nil

	case 5: // set_desync
		r.sub.s.SetSync(false)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_subsurface", Op: msg.Op()}
}
