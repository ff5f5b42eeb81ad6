//go:build unix

package region

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Map reserves size bytes of anonymous private memory. Guarded regions
// start sealed.
func Map(size int, guarded bool) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}
	prot := unix.PROT_READ | unix.PROT_WRITE
	if guarded {
		prot = unix.PROT_NONE
	}
	data, err := unix.Mmap(-1, 0, size, prot, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: mmap %d bytes: %w", size, err)
	}
	return &Region{data: data, guarded: guarded}, nil
}

// Open makes a guarded region readable and writable.
func (r *Region) Open() error {
	if !r.guarded {
		return nil
	}
	if r.data == nil {
		return ErrUnmapped
	}
	return unix.Mprotect(r.data, unix.PROT_READ|unix.PROT_WRITE)
}

// Seal revokes all access to a guarded region.
func (r *Region) Seal() error {
	if !r.guarded {
		return nil
	}
	if r.data == nil {
		return ErrUnmapped
	}
	return unix.Mprotect(r.data, unix.PROT_NONE)
}

// Unmap releases the region. Unmapping twice is a no-op.
func (r *Region) Unmap() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
