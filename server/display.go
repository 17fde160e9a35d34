package server

import (
	"fmt"

	"deedles.dev/shoji/wire"
)

// displayResource is the wl_display singleton, object 1 on every
// connection.
type displayResource struct {
	object
	client *Client
	serial uint32
}

var displayRequests = []string{"sync", "get_registry"}

func (d *displayResource) String() string {
	return fmt.Sprintf("wl_display@%v", d.id)
}

func (d *displayResource) MethodName(op uint16) string {
	return methodName(displayRequests, op)
}

func (d *displayResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // sync
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		cb := &callbackResource{client: d.client}
		d.client.addWithID(id, cb)
		d.serial++
		cb.done(d.serial)
		return nil

	case 1: // get_registry
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		r := &registryResource{client: d.client}
		d.client.addWithID(id, r)
		for _, g := range d.client.server.globals {
			r.global(g)
		}
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_display", Op: msg.Op()}
}

func (d *displayResource) postError(id uint32, code uint32, message string) {
	msg := event(d, 0, "error")
	msg.WriteUint(id)
	msg.WriteUint(code)
	msg.WriteString(message)
	d.client.Enqueue(msg)
}

func (d *displayResource) deleteID(id uint32) {
	msg := event(d, 1, "delete_id")
	msg.WriteUint(id)
	d.client.Enqueue(msg)
}

// registryResource is a wl_registry: the directory of globals a
// client can bind.
type registryResource struct {
	object
	client *Client
}

var registryRequests = []string{"bind"}

func (r *registryResource) String() string {
	return fmt.Sprintf("wl_registry@%v", r.id)
}

func (r *registryResource) MethodName(op uint16) string {
	return methodName(registryRequests, op)
}

func (r *registryResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // bind
		name := msg.ReadUint()
		id := msg.ReadNewID()
		if err := msg.Err(); err != nil {
			return err
		}

		g := r.client.server.findGlobal(name)
		if g == nil {
			return fmt.Errorf("bind to unknown global %v", name)
		}
		if g.iface != id.Interface {
			return fmt.Errorf("bind global %v as %q, but it is %q", name, id.Interface, g.iface)
		}
		g.bind(r.client, id.ID)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_registry", Op: msg.Op()}
}

func (r *registryResource) global(g *global) {
	msg := event(r, 0, "global")
	msg.WriteUint(g.name)
	msg.WriteString(g.iface)
	msg.WriteUint(g.version)
	r.client.Enqueue(msg)
}

// callbackResource is a wl_callback. It fires exactly once and is
// deleted with the done event.
type callbackResource struct {
	object
	client *Client
}

func (cb *callbackResource) String() string {
	return fmt.Sprintf("wl_callback@%v", cb.id)
}

func (cb *callbackResource) MethodName(op uint16) string {
	return "unknown"
}

func (cb *callbackResource) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: "wl_callback", Op: msg.Op()}
}

func (cb *callbackResource) done(data uint32) {
	msg := event(cb, 0, "done")
	msg.WriteUint(data)
	cb.client.Enqueue(msg)
	cb.client.deleteID(cb.id)
}
