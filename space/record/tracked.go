package record

import (
	"io"

	"github.com/joshuapare/spacekit/space"
)

// AllocateTracked allocates through the default registry.
func AllocateTracked(sp space.Space, label string, n int) (space.Ptr, error) {
	return Default().AllocateTracked(sp, label, n)
}

// DeallocateTracked releases through the default registry.
func DeallocateTracked(sp space.Space, p space.Ptr) error {
	return Default().DeallocateTracked(sp, p)
}

// ReallocateTracked reallocates through the default registry.
func ReallocateTracked(sp space.Space, p space.Ptr, n int) (space.Ptr, error) {
	return Default().ReallocateTracked(sp, p, n)
}

// GetRecord looks p up in the default registry.
func GetRecord(sp space.Space, p space.Ptr) (*Record, error) {
	return Default().GetRecord(sp, p)
}

// PrintRecords prints the default registry's records for sp.
func PrintRecords(w io.Writer, sp space.Space, detail bool) error {
	return Default().PrintRecords(w, sp, detail)
}
