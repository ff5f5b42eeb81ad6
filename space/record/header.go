package record

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/joshuapare/spacekit/internal/buf"
	"github.com/joshuapare/spacekit/pkg/types"
)

// header is the host image of an allocation header.
type header [types.HeaderSize]byte

// newHeader builds the header for a record.
func newHeader(id uint64, label string) header {
	var h header
	buf.PutU64LE(h[:types.HeaderOwnerSize], id)
	copy(h[types.HeaderOwnerSize:], clampLabel(label))
	return h
}

// owner returns the record ID stored in the header.
func (h *header) owner() uint64 {
	return buf.U64LE(h[:types.HeaderOwnerSize])
}

// label returns the label up to the first NUL.
func (h *header) label() string {
	l := h[types.HeaderOwnerSize:]
	if i := bytes.IndexByte(l, 0); i >= 0 {
		l = l[:i]
	}
	return string(l)
}

// clampLabel cuts label so that it fits in the header with its terminating
// NUL. Bytes are kept as given; a cut never splits a UTF-8 sequence and backs
// off to the start of a combining sequence so no base character loses its
// marks. Embedded NULs end the label.
func clampLabel(label string) string {
	if i := strings.IndexByte(label, 0); i >= 0 {
		label = label[:i]
	}
	limit := types.MaxLabelLength - 1
	if len(label) <= limit {
		return label
	}
	cut := runeStart(label, limit)
	for c := cut; c > 0; c = runeStart(label, c-1) {
		if norm.NFC.PropertiesString(label[c:]).BoundaryBefore() {
			return label[:c]
		}
	}
	// No boundary in the prefix: a lone run of combining marks.
	return label[:cut]
}

// runeStart returns the largest i <= n that starts a UTF-8 sequence in s.
// Stray continuation bytes count as their own sequence.
func runeStart(s string, n int) int {
	for i := n; i > 0 && n-i < utf8.UTFMax; i-- {
		if utf8.RuneStart(s[i]) {
			return i
		}
	}
	return n
}
