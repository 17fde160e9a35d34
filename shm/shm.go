// Package shm provides helpers for dealing with shared memory
// buffers: the backing store behind wl_shm.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Create creates an anonymous shared memory file. The file is
// unlinked immediately; it lives as long as its descriptors do.
func Create() (*os.File, error) {
	path := fmt.Sprintf("/dev/shm/shoji-shm-%v", os.Getpid())

	file, err := os.CreateTemp("/dev/shm", "shoji-shm-")
	if err != nil {
		// Fall back for systems without /dev/shm semantics.
		file, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, err
		}
	}

	return file, os.Remove(file.Name())
}

// Mmap is a mapped region of a shared memory file.
type Mmap []byte

// Map maps size bytes of file with the given protection flags,
// shared with the file's other users.
func Map(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}
