package engine

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/savegame"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/version"
)

// mapSource serves resources from memory.
type mapSource map[resource.Handle][]byte

func (s mapSource) put(t resource.Type, idx int, b []byte) {
	s[resource.Handle{Type: t, Index: idx}] = b
}

func (s mapSource) LoadResourceBytes(t resource.Type, idx int) ([]byte, error) {
	b, ok := s[resource.Handle{Type: t, Index: idx}]
	if !ok {
		return nil, fmt.Errorf("no data for %s", resource.Handle{Type: t, Index: idx})
	}
	return append([]byte(nil), b...), nil
}

func (s mapSource) LocateResource(t resource.Type, idx int) (int, int, error) {
	if _, ok := s[resource.Handle{Type: t, Index: idx}]; !ok {
		return 0, 0, fmt.Errorf("no data for %s", resource.Handle{Type: t, Index: idx})
	}
	return idx, 0, nil
}

// memSaves keeps encoded snapshots in memory, going through the real codec.
type memSaves struct {
	mu    sync.Mutex
	slots map[string][]byte
	fail  error
}

func newMemSaves() *memSaves { return &memSaves{slots: make(map[string][]byte)} }

func slotKey(target string, slot int) string { return fmt.Sprintf("%s/%d", target, slot) }

func (m *memSaves) Put(target string, slot int, snap *savegame.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	data, err := savegame.Encode(snap)
	if err != nil {
		return err
	}
	m.slots[slotKey(target, slot)] = data
	return nil
}

func (m *memSaves) Get(target string, slot int) (*savegame.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slotKey(target, slot)]
	if !ok {
		return nil, savegame.ErrSlotNotFound
	}
	return savegame.Decode(data)
}

// recordingSink keeps every message shown.
type recordingSink struct {
	mu   sync.Mutex
	msgs []text.Message
}

func (r *recordingSink) Show(m text.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recordingSink) Clear() {}

func (r *recordingSink) system() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		if m.Kind == text.KindSystem {
			out = append(out, m.Text)
		}
	}
	return out
}

// counterBoot dims an array whose id lands in var 310, then increments global 300 once per tick.
func counterBoot() []byte {
	b := opcode.NewBuilder(version.V6)
	b.Push(4).Op(opcode.V6DimArray).Byte(opcode.DimInt).Word(310)
	b.Push(1).Push(55).Op(opcode.V6WordArrayWrite).Word(310)
	b.Label("top").Op(opcode.V6WordVarInc).Word(300).Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")
	return b.Script()
}

// emptyRoom encodes a room with a header and nothing else.
func emptyRoom(width, height int) []byte {
	le := binary.LittleEndian
	rmhd := le.AppendUint16(nil, uint16(width))
	rmhd = le.AppendUint16(rmhd, uint16(height))
	rmhd = le.AppendUint16(rmhd, 0)
	body := resource.AppendChunk(nil, resource.MakeTag("RMHD"), rmhd)
	return resource.AppendChunk(nil, resource.MakeTag("ROOM"), body)
}

func newTestEngine(t *testing.T, src mapSource, opts ...Option) *Engine {
	t.Helper()
	prof, err := version.ForID(version.V6)
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithLogger(logger.Discard()), WithSeed(1)}, opts...)
	e, err := New(prof, src, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func global(t *testing.T, e *Engine, i int) int32 {
	t.Helper()
	v, err := e.Machine().Vars().Global(i)
	if err != nil {
		t.Fatalf("global %d: %v", i, err)
	}
	return v
}
