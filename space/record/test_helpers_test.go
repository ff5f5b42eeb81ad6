package record

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/spacekit/internal/testutil"
	"github.com/joshuapare/spacekit/space"
	"github.com/joshuapare/spacekit/space/replay"
	"github.com/joshuapare/spacekit/space/resource"
)

// eventLog collects replay events.
type eventLog struct {
	mu     sync.Mutex
	events []replay.Event
}

func (l *eventLog) Record(ev replay.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) kinds() []replay.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]replay.Kind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

type env struct {
	reg    *Registry
	events *eventLog
	spaces map[string]space.Space
}

// newEnv builds an isolated manager, registry and one space per built-in
// strategy.
func newEnv(t *testing.T) *env {
	t.Helper()
	m := testutil.NewManager(t)
	e := &env{events: &eventLog{}, spaces: map[string]space.Space{}}
	e.reg = NewRegistry(Options{Recorder: e.events})
	for _, name := range m.Names() {
		sp, err := space.New(name, space.WithManager(m))
		require.NoError(t, err)
		e.spaces[name] = sp
	}
	return e
}

func (e *env) host() space.Space { return e.spaces[resource.Host] }
func (e *env) device() space.Space { return e.spaces[resource.Device] }

func pattern(n int) []byte { return testutil.Pattern(n, 1) }
