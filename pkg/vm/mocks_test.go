package vm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

// fakeSource serves fixed resource bytes and records every load.
type fakeSource struct {
	data  map[resource.Handle][]byte
	loads []resource.Handle
}

func newFakeSource() *fakeSource {
	return &fakeSource{data: make(map[resource.Handle][]byte)}
}

func (f *fakeSource) put(t resource.Type, idx int, b []byte) {
	f.data[resource.Handle{Type: t, Index: idx}] = b
}

func (f *fakeSource) LoadResourceBytes(t resource.Type, idx int) ([]byte, error) {
	h := resource.Handle{Type: t, Index: idx}
	f.loads = append(f.loads, h)
	b, ok := f.data[h]
	if !ok {
		return nil, fmt.Errorf("no data for %s", h)
	}
	return append([]byte(nil), b...), nil
}

func (f *fakeSource) LocateResource(t resource.Type, idx int) (int, int, error) {
	if _, ok := f.data[resource.Handle{Type: t, Index: idx}]; !ok {
		return 0, 0, fmt.Errorf("no data for %s", resource.Handle{Type: t, Index: idx})
	}
	return idx, 0, nil
}

func (f *fakeSource) loadCount(t resource.Type, idx int) int {
	n := 0
	for _, h := range f.loads {
		if h.Type == t && h.Index == idx {
			n++
		}
	}
	return n
}

// recordingSink keeps every message shown.
type recordingSink struct {
	mu   sync.Mutex
	msgs []text.Message
}

func (s *recordingSink) Show(msg text.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSink) Clear() {}

func (s *recordingSink) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.msgs {
		out = append(out, m.Text)
	}
	return out
}

// countingHost counts the requests scripts make.
type countingHost struct {
	quits, restarts, pauses int
}

func (h *countingHost) Quit()    { h.quits++ }
func (h *countingHost) Restart() { h.restarts++ }
func (h *countingHost) Pause()   { h.pauses++ }

// newTestMachine builds a machine for dialect id over src with quiet logging
// and a fixed random seed.
func newTestMachine(t *testing.T, id version.ID, src resource.GameDataSource, opts ...Option) *Machine {
	t.Helper()
	prof, err := version.ForID(id)
	if err != nil {
		t.Fatalf("ForID(%s): %v", id, err)
	}
	res := resource.NewManager(resource.WithLogger(logger.Discard()), resource.WithSource(src))
	if err := ConfigureResources(res, prof); err != nil {
		t.Fatalf("ConfigureResources: %v", err)
	}
	store := vars.NewStore(prof.Counts.Variables, prof.Counts.BitVariables, prof.Vars)
	objs := vars.NewObjects(prof.Counts.GlobalObjects)
	opts = append([]Option{WithLogger(logger.Discard()), WithSeed(1)}, opts...)
	m, err := New(prof, res, store, objs, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// global reads global variable i or fails the test.
func global(t *testing.T, m *Machine, i int) int32 {
	t.Helper()
	v, err := m.Vars().Global(i)
	if err != nil {
		t.Fatalf("Global(%d): %v", i, err)
	}
	return v
}
