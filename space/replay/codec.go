package replay

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers. Unknown fields are skipped on decode so new fields can
// be added without breaking old stores.
const (
	fieldSeq         protowire.Number = 1
	fieldTime        protowire.Number = 2
	fieldKind        protowire.Number = 3
	fieldSrc         protowire.Number = 4
	fieldSrcOffset   protowire.Number = 5
	fieldDst         protowire.Number = 6
	fieldDstOffset   protowire.Number = 7
	fieldSize        protowire.Number = 8
	fieldSrcStrategy protowire.Number = 9
	fieldDstStrategy protowire.Number = 10
	fieldLabel       protowire.Number = 11
)

// ErrBadEvent indicates a stored event that cannot be decoded.
var ErrBadEvent = errors.New("replay: malformed event")

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// EncodeEvent serialises ev in protobuf wire format.
func EncodeEvent(ev Event) []byte {
	var b []byte
	b = appendVarintField(b, fieldSeq, ev.Seq)
	if !ev.Time.IsZero() {
		b = protowire.AppendTag(b, fieldTime, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(ev.Time.UnixNano()))
	}
	b = appendVarintField(b, fieldKind, uint64(ev.Kind))
	b = appendVarintField(b, fieldSrc, uint64(ev.Src))
	b = appendVarintField(b, fieldSrcOffset, ev.SrcOffset)
	b = appendVarintField(b, fieldDst, uint64(ev.Dst))
	b = appendVarintField(b, fieldDstOffset, ev.DstOffset)
	b = appendVarintField(b, fieldSize, ev.Size)
	b = appendStringField(b, fieldSrcStrategy, ev.SrcStrategy)
	b = appendStringField(b, fieldDstStrategy, ev.DstStrategy)
	b = appendStringField(b, fieldLabel, ev.Label)
	return b
}

// DecodeEvent parses an event written by EncodeEvent.
func DecodeEvent(b []byte) (Event, error) {
	var ev Event
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Event{}, fmt.Errorf("%w: %w", ErrBadEvent, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Event{}, fmt.Errorf("%w: field %d: %w", ErrBadEvent, num, protowire.ParseError(n))
			}
			b = b[n:]
			setVarint(&ev, num, v)
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Event{}, fmt.Errorf("%w: field %d: %w", ErrBadEvent, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldSrcStrategy:
				ev.SrcStrategy = v
			case fieldDstStrategy:
				ev.DstStrategy = v
			case fieldLabel:
				ev.Label = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Event{}, fmt.Errorf("%w: field %d: %w", ErrBadEvent, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return ev, nil
}

func setVarint(ev *Event, num protowire.Number, v uint64) {
	switch num {
	case fieldSeq:
		ev.Seq = v
	case fieldTime:
		ev.Time = time.Unix(0, protowire.DecodeZigZag(v))
	case fieldKind:
		ev.Kind = Kind(v)
	case fieldSrc:
		ev.Src = uintptr(v)
	case fieldSrcOffset:
		ev.SrcOffset = v
	case fieldDst:
		ev.Dst = uintptr(v)
	case fieldDstOffset:
		ev.DstOffset = v
	case fieldSize:
		ev.Size = v
	}
}
