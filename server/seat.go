package server

import (
	"fmt"
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/internal/xslices"
	"deedles.dev/shoji/seat"
	"deedles.dev/shoji/shm"
	"deedles.dev/shoji/wire"
)

const (
	capabilityPointer  uint32 = 1 << 0
	capabilityKeyboard uint32 = 1 << 1
)

// seatResource is a wl_seat. Every seat resource fronts the server's
// single seat.
type seatResource struct {
	object
	client *Client
}

var seatRequests = []string{"get_pointer", "get_keyboard", "get_touch", "release"}

func (r *seatResource) String() string {
	return fmt.Sprintf("wl_seat@%v", r.id)
}

func (r *seatResource) MethodName(op uint16) string {
	return methodName(seatRequests, op)
}

func (r *seatResource) sendCapabilities() {
	msg := event(r, 0, "capabilities")
	msg.WriteUint(capabilityPointer | capabilityKeyboard)
	r.client.Enqueue(msg)

	msg = event(r, 1, "name")
	msg.WriteString(r.client.server.state.Seat.Name)
	r.client.Enqueue(msg)
}

func (r *seatResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // get_pointer
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		p := &pointerResource{client: r.client}
		r.client.addWithID(id, p)
		r.client.pointers = append(r.client.pointers, p)
		return nil

	case 1: // get_keyboard
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		k := &keyboardResource{client: r.client}
		r.client.addWithID(id, k)
		r.client.keyboards = append(r.client.keyboards, k)
		k.sendKeymap()
		return nil

	case 2: // get_touch
		return compositor.Errorf(0, "seat has no touch capability")

	case 3: // release
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_seat", Op: msg.Op()}
}

// pointerResource is a wl_pointer.
type pointerResource struct {
	object
	client *Client
}

var pointerRequests = []string{"set_cursor", "release"}

func (r *pointerResource) String() string {
	return fmt.Sprintf("wl_pointer@%v", r.id)
}

func (r *pointerResource) MethodName(op uint16) string {
	return methodName(pointerRequests, op)
}

func (r *pointerResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // set_cursor
		msg.ReadUint() // serial
		surfaceID := msg.ReadUint()
		msg.ReadInt() // hotspot_x
		msg.ReadInt() // hotspot_y
		if err := msg.Err(); err != nil {
			return err
		}

		if surfaceID != 0 {
			sr, ok := r.client.Get(surfaceID).(*surfaceResource)
			if !ok {
				return compositor.Errorf(compositor.ErrInvalidObject, "object %v is not a surface", surfaceID)
			}
			return sr.s.SetRole(compositor.RoleCursor)
		}
		return nil

	case 1: // release
		r.client.pointers = xslices.Remove(r.client.pointers, r)
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_pointer", Op: msg.Op()}
}

// keyboardResource is a wl_keyboard.
type keyboardResource struct {
	object
	client *Client
}

var keyboardRequests = []string{"release"}

func (r *keyboardResource) String() string {
	return fmt.Sprintf("wl_keyboard@%v", r.id)
}

func (r *keyboardResource) MethodName(op uint16) string {
	return methodName(keyboardRequests, op)
}

// sendKeymap announces that no keymap is available. Clients receive
// raw scancodes.
func (r *keyboardResource) sendKeymap() {
	file, err := shm.Create()
	if err != nil {
		r.client.log.WithError(err).Error("create keymap file")
		return
	}
	defer file.Close()

	msg := event(r, 0, "keymap")
	msg.WriteUint(0) // no_keymap
	msg.WriteFile(file)
	msg.WriteUint(0)
	r.client.Enqueue(msg)
}

func (r *keyboardResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // release
		r.client.keyboards = xslices.Remove(r.client.keyboards, r)
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_keyboard", Op: msg.Op()}
}

// Input delivery. Each helper fans one seat event out to every
// matching device resource the client has bound.

func (client *Client) pointerEnter(serial uint32, sr *surfaceResource, local image.Point) {
	for _, p := range client.pointers {
		msg := event(p, 0, "enter")
		msg.WriteUint(serial)
		msg.WriteObject(sr)
		msg.WriteFixed(wire.FixedInt(local.X))
		msg.WriteFixed(wire.FixedInt(local.Y))
		client.Enqueue(msg)
	}
}

func (client *Client) pointerLeave(serial uint32, sr *surfaceResource) {
	for _, p := range client.pointers {
		msg := event(p, 1, "leave")
		msg.WriteUint(serial)
		msg.WriteObject(sr)
		client.Enqueue(msg)
	}
}

func (client *Client) pointerMotion(time uint32, local image.Point) {
	for _, p := range client.pointers {
		msg := event(p, 2, "motion")
		msg.WriteUint(time)
		msg.WriteFixed(wire.FixedInt(local.X))
		msg.WriteFixed(wire.FixedInt(local.Y))
		client.Enqueue(msg)
	}
}

func (client *Client) pointerButton(serial, time uint32, btn seat.Button, pressed bool) {
	var state uint32
	if pressed {
		state = 1
	}
	for _, p := range client.pointers {
		msg := event(p, 3, "button")
		msg.WriteUint(serial)
		msg.WriteUint(time)
		msg.WriteUint(uint32(btn))
		msg.WriteUint(state)
		client.Enqueue(msg)
	}
}

func (client *Client) keyboardEnter(serial uint32, sr *surfaceResource) {
	for _, k := range client.keyboards {
		msg := event(k, 1, "enter")
		msg.WriteUint(serial)
		msg.WriteObject(sr)
		msg.WriteArray(nil)
		client.Enqueue(msg)
	}
}

func (client *Client) keyboardLeave(serial uint32, sr *surfaceResource) {
	for _, k := range client.keyboards {
		msg := event(k, 2, "leave")
		msg.WriteUint(serial)
		msg.WriteObject(sr)
		client.Enqueue(msg)
	}
}

func (client *Client) keyboardKey(serial, time, key uint32, pressed bool) {
	var state uint32
	if pressed {
		state = 1
	}
	for _, k := range client.keyboards {
		msg := event(k, 3, "key")
		msg.WriteUint(serial)
		msg.WriteUint(time)
		msg.WriteUint(key)
		msg.WriteUint(state)
		client.Enqueue(msg)
	}
}
