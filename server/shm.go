package server

import (
	"fmt"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/shm"
	"deedles.dev/shoji/wire"
)

// Pixel formats from the wl_shm format enum. Only the two mandatory
// 32-bit formats are offered.
const (
	formatARGB8888 uint32 = 0
	formatXRGB8888 uint32 = 1
)

// shmResource is a wl_shm: the factory for shared memory pools.
type shmResource struct {
	object
	client *Client
}

var shmRequests = []string{"create_pool"}

func (r *shmResource) String() string {
	return fmt.Sprintf("wl_shm@%v", r.id)
}

func (r *shmResource) MethodName(op uint16) string {
	return methodName(shmRequests, op)
}

func (r *shmResource) sendFormats() {
	for _, f := range []uint32{formatARGB8888, formatXRGB8888} {
		msg := event(r, 0, "format")
		msg.WriteUint(f)
		r.client.Enqueue(msg)
	}
}

func (r *shmResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // create_pool
		id := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}

		pool, err := shm.NewPool(file, size)
		if err != nil {
			return compositor.Errorf(compositor.ErrNoMemory, "create pool: %v", err)
		}
		r.client.addWithID(id, &shmPoolResource{client: r.client, pool: pool})
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_shm", Op: msg.Op()}
}

// shmPoolResource is a wl_shm_pool.
type shmPoolResource struct {
	object
	client *Client
	pool   *shm.Pool
}

var shmPoolRequests = []string{"create_buffer", "destroy", "resize"}

func (r *shmPoolResource) String() string {
	return fmt.Sprintf("wl_shm_pool@%v", r.id)
}

func (r *shmPoolResource) MethodName(op uint16) string {
	return methodName(shmPoolRequests, op)
}

func (r *shmPoolResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // create_buffer
		id := msg.ReadUint()
		offset := msg.ReadInt()
		width := msg.ReadInt()
		height := msg.ReadInt()
		stride := msg.ReadInt()
		format := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		if format != formatARGB8888 && format != formatXRGB8888 {
			return compositor.Errorf(compositor.ErrInvalidMethod, "unsupported pixel format %v", format)
		}

		br := &bufferResource{client: r.client}
		buf, err := r.pool.Buffer(offset, width, height, stride, br.release)
		if err != nil {
			return compositor.Errorf(compositor.ErrInvalidMethod, "create buffer: %v", err)
		}
		br.buf = buf
		r.client.addWithID(id, br)
		return nil

	case 1: // destroy
		// Buffers carved from the pool keep their mapping alive via the
		// pixel slices they alias; the pool object itself just goes away.
		r.client.deleteID(r.id)
		return nil

	case 2: // resize
		size := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if err := r.pool.Resize(size); err != nil {
			return compositor.Errorf(compositor.ErrNoMemory, "resize pool: %v", err)
		}
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_shm_pool", Op: msg.Op()}
}

// cleanup unmaps the pool when its client goes away.
func (r *shmPoolResource) cleanup() {
	r.pool.Destroy()
}

// bufferResource is a wl_buffer. Its release event fires from the
// compositor's deferred release queue, at a frame boundary.
type bufferResource struct {
	object
	client *Client
	buf    *compositor.Buffer
	dead   bool
}

var bufferRequests = []string{"destroy"}

func (r *bufferResource) String() string {
	return fmt.Sprintf("wl_buffer@%v", r.id)
}

func (r *bufferResource) MethodName(op uint16) string {
	return methodName(bufferRequests, op)
}

func (r *bufferResource) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0: // destroy
		r.dead = true
		r.buf.Release = nil
		r.client.deleteID(r.id)
		return nil
	}
	return wire.UnknownOpError{Interface: "wl_buffer", Op: msg.Op()}
}

// release is the buffer's Release hook: it tells the client the
// storage is reusable.
func (r *bufferResource) release() {
	if r.dead {
		return
	}
	r.client.Enqueue(event(r, 0, "release"))
}
