// Package wire implements the Wayland wire format: Unix socket
// connections with file descriptor passing, message encoding and
// decoding, and the 24.8 fixed-point number format. It is the
// transport underneath the protocol dispatch in the server package.
package wire

// Object represents a server-side Wayland protocol object.
type Object interface {
	// ID is the protocol object ID, unique per client connection.
	ID() uint32

	// SetID assigns the object ID. It is called exactly once, when the
	// object is added to a client's object store.
	SetID(id uint32)

	// Dispatch performs the request carried by the message buffer.
	Dispatch(msg *MessageBuffer) error

	// Delete is called when the object is removed from its client's
	// object store.
	Delete()

	// MethodName returns the protocol name of the request with the
	// given opcode. It is used for debug output only.
	MethodName(op uint16) string
}

// NewID is the wire representation of a new_id argument with an
// interface that is not fixed by the protocol.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

func padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}
