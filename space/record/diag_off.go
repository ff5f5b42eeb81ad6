//go:build spacekit_nodiag

package record

import (
	"io"

	"github.com/joshuapare/spacekit/space"
)

// DiagnosticsEnabled reports whether per-space root lists are compiled in.
const DiagnosticsEnabled = false

type links struct{}

type rootList struct{}

func (*rootList) push(*Record)   {}
func (*rootList) remove(*Record) {}

// PrintRecords is unavailable without diagnostics.
func (g *Registry) PrintRecords(io.Writer, space.Space, bool) error {
	return ErrDiagnosticsDisabled
}
