// Package bin reads and writes the 32-bit words that make up the wire
// format, in host byte order.
package bin

import (
	"encoding/binary"
	"io"
)

type Word interface {
	~int32 | ~uint32
}

func Bytes[T Word](v T) [4]byte {
	var data [4]byte
	binary.NativeEndian.PutUint32(data[:], uint32(v))
	return data
}

func Value[T Word](data [4]byte) T {
	return T(binary.NativeEndian.Uint32(data[:]))
}

func Read[T Word](r io.Reader) (T, error) {
	var data [4]byte
	if _, err := io.ReadFull(r, data[:]); err != nil {
		return 0, err
	}
	return Value[T](data), nil
}

func Write[T Word](w io.Writer, v T) error {
	data := Bytes(v)
	n, err := w.Write(data[:])
	if err == nil && n < len(data) {
		return io.ErrShortWrite
	}
	return err
}
