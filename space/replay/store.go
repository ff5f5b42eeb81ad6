package replay

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/joshuapare/spacekit/internal/logger"
)

const keyPrefix = "event/"

// Store persists events in a pebble database. Sequence numbers continue from
// the highest key already present, so reopening a store appends.
type Store struct {
	db *pebble.DB

	mu   sync.Mutex
	next uint64
	sync bool
}

// StoreOptions configures OpenStore.
type StoreOptions struct {
	// Sync forces an fsync after every event.
	// Default: false
	Sync bool
}

// OpenStore opens or creates a store in dir.
func OpenStore(dir string, opts StoreOptions) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", dir, err)
	}
	s := &Store{db: db, sync: opts.Sync, next: 1}
	last, err := s.lastSeq()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.next = last + 1
	logger.Info("replay: store opened", "dir", dir, "next_seq", s.next)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements Recorder. The event's Seq is replaced by the store's own
// sequence number and a zero Time is set to now.
func (s *Store) Record(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Seq = s.next
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	wo := pebble.NoSync
	if s.sync {
		wo = pebble.Sync
	}
	if err := s.db.Set(keyFor(ev.Seq), EncodeEvent(ev), wo); err != nil {
		return fmt.Errorf("replay: write event %d: %w", ev.Seq, err)
	}
	s.next++
	return nil
}

// Len returns the number of events recorded.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.Scan(func(Event) error { n++; return nil })
	return n, err
}

// errStop ends a scan early without reporting an error.
var errStop = errors.New("replay: stop")

// Scan calls fn for every event in sequence order. An error from fn stops the
// scan and is returned.
func (s *Store) Scan(fn func(ev Event) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		ev, err := DecodeEvent(iter.Value())
		if err != nil {
			return fmt.Errorf("%s: %w", iter.Key(), err)
		}
		if err := fn(ev); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return iter.Error()
}

func (s *Store) lastSeq() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	seq, err := strconv.ParseUint(string(bytes.TrimPrefix(b, []byte(keyPrefix))), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("replay: bad key %q: %w", b, err)
	}
	return seq, nil
}

// Events returns up to limit events in sequence order. A limit below 1
// returns every event.
func (s *Store) Events(limit int) ([]Event, error) {
	var out []Event
	err := s.Scan(func(ev Event) error {
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			return errStop
		}
		return nil
	})
	return out, err
}
