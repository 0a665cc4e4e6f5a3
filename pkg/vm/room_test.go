package vm

import (
	"bytes"
	"encoding/binary"
	"image"
	"maps"
	"slices"
	"testing"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

type testObject struct {
	id         int
	x, y, w, h int
	name       string
	verbs      map[int][]byte
}

// appendObject encodes an OBCD block. Verb offsets are relative to the VERB block.
func appendObject(dst []byte, o testObject) []byte {
	le := binary.LittleEndian
	var hdr []byte
	for _, v := range []int{o.id, o.x, o.y, o.w, o.h} {
		hdr = le.AppendUint16(hdr, uint16(v))
	}
	verbs := slices.Sorted(maps.Keys(o.verbs))
	table := resource.ChunkHeaderSize + 3*len(verbs) + 1
	var entries, code []byte
	for _, v := range verbs {
		entries = append(entries, byte(v))
		entries = le.AppendUint16(entries, uint16(table+len(code)))
		code = append(code, o.verbs[v]...)
	}
	entries = append(entries, 0)

	var body []byte
	body = resource.AppendChunk(body, resource.MakeTag("CDHD"), hdr)
	body = resource.AppendChunk(body, resource.MakeTag("VERB"), append(entries, code...))
	body = resource.AppendChunk(body, resource.MakeTag("OBNA"), append([]byte(o.name), 0))
	return resource.AppendChunk(dst, resource.MakeTag("OBCD"), body)
}

// buildRoom encodes a V5/V6 room with entry and exit code, one-byte local
// script ids and the given objects.
func buildRoom(width, height int, entry, exit []byte, locals map[int][]byte, objs ...testObject) []byte {
	le := binary.LittleEndian
	var body []byte
	rmhd := le.AppendUint16(nil, uint16(width))
	rmhd = le.AppendUint16(rmhd, uint16(height))
	rmhd = le.AppendUint16(rmhd, uint16(len(objs)))
	body = resource.AppendChunk(body, resource.MakeTag("RMHD"), rmhd)
	if entry != nil {
		body = resource.AppendChunk(body, resource.MakeTag("ENCD"), entry)
	}
	if exit != nil {
		body = resource.AppendChunk(body, resource.MakeTag("EXCD"), exit)
	}
	for id, code := range locals {
		body = resource.AppendChunk(body, resource.MakeTag("LSCR"), append([]byte{byte(id)}, code...))
	}
	for _, o := range objs {
		body = appendObject(body, o)
	}
	return resource.AppendChunk(nil, resource.MakeTag("ROOM"), body)
}

// writer returns V6 code storing v in global g.
func writer(g, v int) []byte {
	b := opcode.NewBuilder(version.V6)
	b.Push(v).WriteVar(g).Op(opcode.V6StopObjectCodeA)
	return b.Bytes()
}

func testRoom() []byte {
	door := testObject{
		id: 5, x: 10, y: 20, w: 30, h: 40, name: "door",
		verbs: map[int][]byte{1: writer(323, 7), defaultVerb: writer(324, 8)},
	}
	return buildRoom(320, 200, writer(320, 1), writer(321, 1), map[int][]byte{200: writer(322, 5)}, door)
}

func TestParseRoom_Layout(t *testing.T) {
	prof, _ := version.ForID(version.V6)
	data := testRoom()
	r, err := ParseRoom(1, data, prof)
	if err != nil {
		t.Fatalf("ParseRoom: %v", err)
	}
	if r.Width != 320 || r.Height != 200 {
		t.Errorf("size = %dx%d, want 320x200", r.Width, r.Height)
	}
	if !bytes.HasPrefix(data[r.Entry:], writer(320, 1)) {
		t.Errorf("entry offset %d does not point at entry code", r.Entry)
	}
	if !bytes.HasPrefix(data[r.Exit:], writer(321, 1)) {
		t.Errorf("exit offset %d does not point at exit code", r.Exit)
	}
	off, ok := r.Locals[200]
	if !ok || !bytes.HasPrefix(data[off:], writer(322, 5)) {
		t.Errorf("local script 200 at %d (found %v)", off, ok)
	}

	o, ok := r.Object(5)
	if !ok {
		t.Fatal("object 5 missing")
	}
	if string(o.Name) != "door" {
		t.Errorf("name = %q", o.Name)
	}
	if want := image.Rect(10, 20, 40, 60); o.Bounds != want {
		t.Errorf("bounds = %v, want %v", o.Bounds, want)
	}
	if !bytes.HasPrefix(data[o.Verbs[1]:], writer(323, 7)) {
		t.Errorf("verb 1 offset %d does not point at its handler", o.Verbs[1])
	}
	if !bytes.HasPrefix(data[o.Verbs[defaultVerb]:], writer(324, 8)) {
		t.Errorf("default verb offset %d does not point at its handler", o.Verbs[defaultVerb])
	}
}

func TestParseRoom_Malformed(t *testing.T) {
	prof, _ := version.ForID(version.V6)
	data := testRoom()
	if _, err := ParseRoom(1, data[:len(data)-3], prof); err == nil {
		t.Error("truncated room parsed")
	}
	bad := resource.AppendChunk(nil, resource.MakeTag("RMHD"), []byte{1})
	if _, err := ParseRoom(1, bad, prof); err == nil {
		t.Error("short room header parsed")
	}
}

func TestStartScene_MalformedRoomIsNotKept(t *testing.T) {
	src := newFakeSource()
	src.put(resource.TypeRoom, 1, testRoom())
	bad := testRoom()
	src.put(resource.TypeRoom, 2, bad[:len(bad)-3])
	m := newTestMachine(t, version.V6, src)

	if err := m.StartScene(1); err != nil {
		t.Fatal(err)
	}
	if err := m.StartScene(2); err == nil {
		t.Fatal("StartScene with a truncated room succeeded")
	}
	if m.CurrentRoom() != nil {
		t.Errorf("current room = %v after a failed entry", m.CurrentRoom())
	}
	res := m.Resources()
	if res.IsLocked(resource.TypeRoom, 2) || res.Resident(resource.TypeRoom, 2) {
		t.Error("malformed room left locked or resident")
	}
	if res.Resident(resource.TypeRoom, 1) {
		t.Error("previous room still resident")
	}
	if got := m.Vars().Peek(vars.VarRoom); got != 0 {
		t.Errorf("VAR_ROOM = %d after a failed entry, want 0", got)
	}
}

func TestStartScene_RunsRoomCodeAndObjects(t *testing.T) {
	src := newFakeSource()
	src.put(resource.TypeRoom, 1, testRoom())
	m := newTestMachine(t, version.V6, src)
	m.Vars().Poke(vars.VarEgo, 1)

	if err := m.StartScene(1); err != nil {
		t.Fatalf("StartScene(1): %v", err)
	}
	if global(t, m, 320) != 1 {
		t.Error("entry code did not run")
	}
	if r := m.CurrentRoom(); r == nil || r.Number != 1 {
		t.Fatalf("current room = %v", r)
	}
	if got := m.Vars().Peek(vars.VarRoom); got != 1 {
		t.Errorf("VAR_ROOM = %d, want 1", got)
	}
	if !m.Resources().IsLocked(resource.TypeRoom, 1) {
		t.Error("current room is not locked")
	}
	if room, _ := m.Objects().Room(5); room != 1 {
		t.Errorf("object 5 room = %d, want 1", room)
	}
	if owner, _ := m.Objects().Owner(5); owner != m.Profile().OwnerRoom {
		t.Errorf("object 5 owner = %d, want room owner", owner)
	}

	if err := m.RunScript(200, false, false, nil); err != nil {
		t.Fatalf("local script: %v", err)
	}
	if global(t, m, 322) != 5 {
		t.Error("local script did not run")
	}
	if err := m.RunObjectScript(5, 1, false, false, nil); err != nil {
		t.Fatal(err)
	}
	if global(t, m, 323) != 7 {
		t.Error("verb handler did not run")
	}
	if err := m.RunObjectScript(5, 9, false, false, nil); err != nil {
		t.Fatal(err)
	}
	if global(t, m, 324) != 8 {
		t.Error("default verb handler did not run")
	}

	if err := m.PickupObject(5, 1); err != nil {
		t.Fatalf("PickupObject: %v", err)
	}
	if !slices.Equal(m.Inventory(), []int{5}) {
		t.Errorf("inventory = %v, want [5]", m.Inventory())
	}
	if owner, _ := m.Objects().Owner(5); owner != 1 {
		t.Errorf("picked up object owner = %d, want ego", owner)
	}

	if err := m.StartScene(0); err != nil {
		t.Fatalf("StartScene(0): %v", err)
	}
	if global(t, m, 321) != 1 {
		t.Error("exit code did not run")
	}
	if m.CurrentRoom() != nil || m.Resources().Resident(resource.TypeRoom, 1) {
		t.Error("old room still loaded")
	}

	_ = m.Vars().SetGlobal(323, 0)
	if err := m.RunObjectScript(5, 1, false, false, nil); err != nil {
		t.Fatal(err)
	}
	if global(t, m, 323) != 7 {
		t.Error("inventory copy of the object did not run its verb")
	}
	if err := m.RunScript(200, false, false, nil); err == nil {
		t.Error("local script ran without a room")
	}
}

func TestStartScene_KillsRoomScripts(t *testing.T) {
	loop := opcode.NewBuilder(version.V6)
	loop.Label("top").Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")
	src := newFakeSource()
	src.put(resource.TypeRoom, 1, buildRoom(320, 200, nil, nil, map[int][]byte{200: loop.Bytes()}))
	src.put(resource.TypeRoom, 2, buildRoom(320, 200, nil, nil, nil))
	src.put(resource.TypeScript, 1, loopScript(version.V6))
	m := newTestMachine(t, version.V6, src)

	if err := m.StartScene(1); err != nil {
		t.Fatal(err)
	}
	if err := m.RunScript(200, false, false, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.RunScript(1, false, false, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.StartScene(2); err != nil {
		t.Fatal(err)
	}
	if m.IsScriptRunning(200) {
		t.Error("local script survived the room change")
	}
	if !m.IsScriptRunning(1) {
		t.Error("global script was killed by the room change")
	}
}
