//go:build !unix

package region

import "fmt"

// Map allocates size bytes on the Go heap when mmap is not available.
// Heap objects do not move, so addresses stay stable while the region is
// referenced.
func Map(size int, guarded bool) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}
	return &Region{data: make([]byte, size), guarded: guarded}, nil
}

// Open is a no-op without memory protection support.
func (r *Region) Open() error {
	if r.data == nil {
		return ErrUnmapped
	}
	return nil
}

// Seal is a no-op without memory protection support.
func (r *Region) Seal() error {
	if r.data == nil {
		return ErrUnmapped
	}
	return nil
}

// Unmap drops the backing slice.
func (r *Region) Unmap() error {
	r.data = nil
	return nil
}
