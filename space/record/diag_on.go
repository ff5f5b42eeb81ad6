//go:build !spacekit_nodiag

package record

import (
	"fmt"
	"io"

	"github.com/joshuapare/spacekit/space"
)

// DiagnosticsEnabled reports whether per-space root lists are compiled in.
const DiagnosticsEnabled = true

type links struct {
	prev, next *Record
}

// rootList is an intrusive list of the live records of one space, newest first.
type rootList struct {
	head *Record
}

func (l *rootList) push(r *Record) {
	r.prev = nil
	r.next = l.head
	if l.head != nil {
		l.head.prev = r
	}
	l.head = r
}

func (l *rootList) remove(r *Record) {
	if r.prev != nil {
		r.prev.next = r.next
	} else if l.head == r {
		l.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.prev, r.next = nil, nil
}

func (l *rootList) snapshot() []*Record {
	var out []*Record
	for r := l.head; r != nil; r = r.next {
		out = append(out, r)
	}
	return out
}

// PrintRecords writes one line per live record of sp, newest first. detail
// adds list links, reference counts and header addresses.
func (g *Registry) PrintRecords(w io.Writer, sp space.Space, detail bool) error {
	g.mu.Lock()
	var recs []*Record
	if l, ok := g.roots[keyOf(sp)]; ok {
		recs = l.snapshot()
	}
	type line struct {
		r          *Record
		prev, next uint64
	}
	lines := make([]line, len(recs))
	for i, r := range recs {
		lines[i].r = r
		if r.prev != nil {
			lines[i].prev = r.prev.id
		}
		if r.next != nil {
			lines[i].next = r.next.id
		}
	}
	g.mu.Unlock()

	for _, ln := range lines {
		r := ln.r
		label, err := r.Label()
		if err != nil {
			return err
		}
		if detail {
			_, err = fmt.Fprintf(w, "%s record( %d ) list( %d %d ) extent[ 0x%.12x + %.8d ] count(%d) %s\n",
				sp.Name(), r.id, ln.prev, ln.next, uintptr(r.raw), r.total, r.UseCount(), label)
		} else {
			_, err = fmt.Fprintf(w, "%s [ 0x%.12x + %d ] %s\n",
				sp.Name(), uintptr(r.Data()), r.Size(), label)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
