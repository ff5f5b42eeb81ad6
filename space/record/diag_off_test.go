//go:build spacekit_nodiag

package record

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_PrintRecordsDisabled(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.reg.PrintRecords(io.Discard, e.host(), false), ErrDiagnosticsDisabled)
	assert.False(t, DiagnosticsEnabled)
}
