package server

import (
	"fmt"

	"deedles.dev/shoji/space"
	"deedles.dev/shoji/wire"
)

// outputResource is a wl_output bound to one of the space's outputs.
type outputResource struct {
	object
	client *Client
	output *space.Output
}

var outputRequests = []string{"release"}

func (r *outputResource) String() string {
	return fmt.Sprintf("wl_output@%v", r.id)
}

func (r *outputResource) MethodName(op uint16) string {
	return methodName(outputRequests, op)
}

// sendGeometry describes the output: position and physical geometry,
// the current mode, and the scale factor.
func (r *outputResource) sendGeometry() {
	geo := r.output.Geometry()

	msg := event(r, 0, "geometry")
	msg.WriteInt(int32(geo.Min.X))
	msg.WriteInt(int32(geo.Min.Y))
	msg.WriteInt(0) // physical width unknown
	msg.WriteInt(0) // physical height unknown
	msg.WriteInt(0) // subpixel unknown
	msg.WriteString("shoji")
	msg.WriteString(r.output.Name)
	msg.WriteInt(int32(r.output.Transform))
	r.client.Enqueue(msg)

	msg = event(r, 1, "mode")
	msg.WriteUint(1) // current
	msg.WriteInt(int32(geo.Dx()))
	msg.WriteInt(int32(geo.Dy()))
	msg.WriteInt(0) // refresh unknown
	r.client.Enqueue(msg)

	msg = event(r, 3, "scale")
	msg.WriteInt(int32(r.output.Scale))
	r.client.Enqueue(msg)

	r.client.Enqueue(event(r, 2, "done"))
}

func (r *outputResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // release
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_output", Op: msg.Op()}
}
