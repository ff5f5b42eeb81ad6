package replay

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/joshuapare/spacekit/internal/logger"
)

// Discard drops every event.
var Discard Recorder = RecorderFunc(func(Event) error { return nil })

// Multi fans each event out to every recorder and joins their errors.
func Multi(rs ...Recorder) Recorder {
	return RecorderFunc(func(ev Event) error {
		var errs []error
		for _, r := range rs {
			if r == nil {
				continue
			}
			if err := r.Record(ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// LogRecorder writes events as debug log records.
type LogRecorder struct {
	// Logger receives the records. Nil means the package-wide logger at the
	// time of each call.
	Logger *slog.Logger
}

// Record implements Recorder.
func (l LogRecorder) Record(ev Event) error {
	lg := l.Logger
	if lg == nil {
		lg = logger.L
	}
	lg.Debug("replay",
		"seq", ev.Seq,
		"kind", ev.Kind.String(),
		"src", ev.Src,
		"src_offset", ev.SrcOffset,
		"dst", ev.Dst,
		"dst_offset", ev.DstOffset,
		"size", ev.Size,
		"src_strategy", ev.SrcStrategy,
		"dst_strategy", ev.DstStrategy,
		"label", ev.Label,
	)
	return nil
}

// Sequence numbers events in the order they reach it before passing them on.
// Numbering starts at 1.
func Sequence(r Recorder) Recorder {
	var seq atomic.Uint64
	return RecorderFunc(func(ev Event) error {
		ev.Seq = seq.Add(1)
		return r.Record(ev)
	})
}
