// Package replay records the allocation and transfer events a memory space
// produces, so a run can be inspected or replayed later.
//
// Recorders:
//   - LogRecorder: debug-level structured log lines
//   - Store: durable pebble database, one key per event
//   - Multi, Discard: composition helpers
package replay

import (
	"fmt"
	"time"
)

// Kind classifies an event.
type Kind uint8

const (
	KindCopy Kind = iota + 1
	KindAllocate
	KindDeallocate
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindAllocate:
		return "allocate"
	case KindDeallocate:
		return "deallocate"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindCopy, KindAllocate, KindDeallocate} {
		if string(b) == c.String() {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("replay: unknown event kind %q", b)
}

// Event is one recorded operation. For copies, Src and Dst are the header
// addresses of the owning allocations and the offsets locate the transferred
// bytes within them. Allocation events use Dst only.
type Event struct {
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"time"`
	Kind        Kind      `json:"kind"`
	Src         uintptr   `json:"src,omitempty"`
	SrcOffset   uint64    `json:"src_offset,omitempty"`
	Dst         uintptr   `json:"dst,omitempty"`
	DstOffset   uint64    `json:"dst_offset,omitempty"`
	Size        uint64    `json:"size"`
	SrcStrategy string    `json:"src_strategy,omitempty"`
	DstStrategy string    `json:"dst_strategy,omitempty"`
	Label       string    `json:"label,omitempty"`
}

// Recorder receives events. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ev Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ev Event) error

// Record implements Recorder.
func (f RecorderFunc) Record(ev Event) error { return f(ev) }
