package wire

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"deedles.dev/shoji/internal/bin"
	"golang.org/x/sys/unix"
)

// MessageBuilder is a message that is under construction.
type MessageBuilder struct {
	// Method is the name of the method being called. It is included
	// purely for debugging purposes.
	Method string

	// Args is the original set of arguments passed to the function from
	// which this MessageBuilder was generated. It is included purely
	// for debugging purposes.
	Args []any

	sender Object
	op     uint16
	data   bytes.Buffer
	fds    []int
	err    error
}

func NewMessage(sender Object, op uint16) *MessageBuilder {
	return &MessageBuilder{
		Method: sender.MethodName(op),
		sender: sender,
		op:     op,
	}
}

func (mb *MessageBuilder) Sender() Object {
	return mb.sender
}

func (mb *MessageBuilder) Op() uint16 {
	return mb.op
}

// arg records v in the debug argument trace and reports whether the
// builder is still healthy. Every Write method funnels through it.
func (mb *MessageBuilder) arg(v any) bool {
	if mb.err != nil {
		return false
	}
	mb.Args = append(mb.Args, v)
	return true
}

// block writes a length word followed by the bytes of b, with extra
// trailing zero bytes before padding out to a word boundary. Strings
// pass extra == 1 for the NUL terminator.
func (mb *MessageBuilder) block(b []byte, extra uint32) {
	length := uint32(len(b)) + extra
	bin.Write(&mb.data, length)
	mb.data.Write(b)
	for range extra + padding(length) {
		mb.data.WriteByte(0)
	}
}

func (mb *MessageBuilder) WriteInt(v int32) {
	if mb.arg(v) {
		bin.Write(&mb.data, v)
	}
}

func (mb *MessageBuilder) WriteUint(v uint32) {
	if mb.arg(v) {
		bin.Write(&mb.data, v)
	}
}

func (mb *MessageBuilder) WriteObject(v Object) {
	var id uint32
	if !isNil(v) {
		id = v.ID()
	}
	mb.WriteUint(id)
}

func (mb *MessageBuilder) WriteNewID(v NewID) {
	mb.WriteString(v.Interface)
	mb.WriteUint(v.Version)
	mb.WriteUint(v.ID)
}

func (mb *MessageBuilder) WriteFixed(v Fixed) {
	if mb.arg(v) {
		bin.Write(&mb.data, v)
	}
}

func (mb *MessageBuilder) WriteString(v string) {
	if mb.arg(v) {
		mb.block([]byte(v), 1)
	}
}

func (mb *MessageBuilder) WriteArray(v []byte) {
	if mb.arg(v) {
		mb.block(v, 0)
	}
}

func (mb *MessageBuilder) WriteFile(v *os.File) {
	if !mb.arg(v) {
		return
	}

	fd, err := unix.Dup(int(v.Fd()))
	if err != nil {
		mb.err = err
		return
	}

	if len(mb.fds) == 0 {
		runtime.SetFinalizer(mb, (*MessageBuilder).close)
	}
	mb.fds = append(mb.fds, fd)
}

// Build builds the message and sends it to c. The MessageBuilder
// should not be used again after this method is called.
func (mb *MessageBuilder) Build(c *Conn) error {
	if mb.err != nil {
		return mb.err
	}

	length := uint32(8 + mb.data.Len())
	sender := bin.Bytes(mb.sender.ID())
	header := bin.Bytes((length << 16) | uint32(mb.op))

	msg := make([]byte, 0, length)
	msg = append(msg, sender[:]...)
	msg = append(msg, header[:]...)
	msg = append(msg, mb.data.Bytes()...)

	_, _, mb.err = c.conn.WriteMsgUnix(msg, unix.UnixRights(mb.fds...), nil)
	return mb.err
}

func (mb *MessageBuilder) close() {
	errs := make([]error, 0, len(mb.fds))
	for _, fd := range mb.fds {
		errs = append(errs, unix.Close(fd))
	}
	if mb.err == nil {
		mb.err = errors.Join(errs...)
	}
	mb.fds = nil
	runtime.SetFinalizer(mb, nil)
}

func (mb *MessageBuilder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v.%v(", mb.sender, mb.Method)
	for i, arg := range mb.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch arg := arg.(type) {
		case string:
			sb.WriteString(strconv.Quote(arg))
		case *os.File:
			fmt.Fprint(&sb, arg.Fd())
		default:
			fmt.Fprint(&sb, arg)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func isNil(v Object) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
