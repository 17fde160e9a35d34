package server

import "deedles.dev/shoji/wire"

// object is the common core of every protocol resource: ID storage
// and default no-op deletion.
type object struct {
	id uint32
}

func (o *object) ID() uint32      { return o.id }
func (o *object) SetID(id uint32) { o.id = id }
func (o *object) Delete()         {}

// event starts an outgoing message. The name is carried for debug
// output; opcodes alone are ambiguous between requests and events.
func event(sender wire.Object, op uint16, name string) *wire.MessageBuilder {
	msg := wire.NewMessage(sender, op)
	msg.Method = name
	return msg
}

// methodName indexes a request name table, for debug output.
func methodName(names []string, op uint16) string {
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}
