package shm

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"deedles.dev/ximage/format"
	"golang.org/x/sys/unix"

	"deedles.dev/shoji/compositor"
)

// Pool is a client's shared memory pool: a mapped file that buffers
// are carved out of.
type Pool struct {
	file *os.File
	mmap Mmap
}

// NewPool maps size bytes of a client-provided file. The pool keeps
// the file open; Destroy closes it.
func NewPool(file *os.File, size int32) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid pool size %v", size)
	}

	mmap, err := Map(file, int(size), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil, fmt.Errorf("mmap pool: %w", err)
	}

	return &Pool{file: file, mmap: mmap}, nil
}

// Resize grows the pool's mapping. Pools never shrink.
func (p *Pool) Resize(size int32) error {
	if int(size) <= len(p.mmap) {
		return nil
	}

	err := p.mmap.Unmap()
	if err != nil {
		return fmt.Errorf("unmap pool: %w", err)
	}
	mmap, err := Map(p.file, int(size), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return fmt.Errorf("remap pool: %w", err)
	}
	p.mmap = mmap
	return nil
}

func (p *Pool) Destroy() error {
	err := p.mmap.Unmap()
	p.mmap = nil
	if cerr := p.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Buffer carves a buffer out of the pool. The returned buffer's
// pixel slice aliases the pool mapping, so the client sees the
// compositor read exactly what it wrote.
func (p *Pool) Buffer(offset, w, h, stride int32, release func()) (*compositor.Buffer, error) {
	if offset < 0 || w <= 0 || h <= 0 || stride < w*4 {
		return nil, fmt.Errorf("invalid buffer parameters %vx%v stride %v offset %v", w, h, stride, offset)
	}
	end := int(offset) + int(stride)*int(h)
	if end > len(p.mmap) {
		return nil, fmt.Errorf("buffer extends past end of pool: %v > %v", end, len(p.mmap))
	}

	return &compositor.Buffer{
		Size:    image.Pt(int(w), int(h)),
		Stride:  int(stride),
		Pix:     p.mmap[offset:end],
		Release: release,
	}, nil
}

// Image wraps a memory-backed buffer's pixels as a draw.Image for
// software compositing.
func Image(b *compositor.Buffer) draw.Image {
	return &format.Image{
		Format: format.ARGB8888,
		Rect:   image.Rect(0, 0, b.Size.X, b.Size.Y),
		Pix:    b.Pix,
	}
}
