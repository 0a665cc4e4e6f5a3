package savegame

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
	"github.com/zurustar/sputm/pkg/vm"
)

func buildSnapshot(name string, globals []int32, bits []byte, class []uint32, array []byte) *Snapshot {
	n := len(class)
	objs := vars.ObjectTables{
		Owner: make([]uint8, n),
		State: make([]uint8, n),
		Room:  make([]uint8, n),
		Class: class,
	}
	for i := range n {
		objs.Owner[i] = uint8(i)
		objs.State[i] = uint8(n - i)
		objs.Room[i] = 1
	}
	s := &Snapshot{
		Format:  FormatVersion,
		Game:    version.V6,
		Name:    name,
		Tick:    uint64(len(globals)) * 60,
		Globals: globals,
		Bits:    bits,
		Objects: objs,
		Actors: []actor.State{
			{Room: 1, X: 160, Y: 120, Costume: 2, Name: []byte("guybrush"), Visible: true, Frames: [5]int{1, 2, 3, 4, 5}},
			{Walking: true, DestX: 10, DestY: 20, Name: []byte("?")},
		},
		Camera: actor.CameraState{X: 160, DestX: 200, MinX: 160, MaxX: 480, Follow: 1},
		Screen: screen.State{Intensity: 200},
		Machine: vm.State{
			Slots: []vm.SlotState{{
				Slot: 2, Script: 7, Owner: vm.OwnerGlobal,
				Code:   resource.Handle{Type: resource.TypeScript, Index: 7},
				PC:     12,
				Locals: append([]int32(nil), globals...),
				Status: vm.StatusWaitingOnDelay,
				Delay:  30,
			}},
			Cutscenes:    []vm.CutsceneState{{Data: 3, Slot: 2, OverridePC: 40, HasOverride: true}},
			Room:         1,
			Inventory:    []int{5},
			InventoryOBC: [][]byte{{1, 2, 3}},
			ObjectNames:  map[int][]byte{5: []byte("door")},
			Arrays:       map[int][]byte{310: array},
			Cursor:       1,
			PrintStyle:   [5]text.Style{{X: 10, Y: 20, Color: 15, Center: true}},
		},
	}
	s.Screen.Palette[1] = [3]uint8{0xAA, 0, 0x55}
	s.Screen.Cycles[0] = screen.Cycle{Start: 16, End: 31, Delay: 8, Forward: true}
	return s
}

func sampleSnapshot() *Snapshot {
	return buildSnapshot("before the bridge", []int32{1, -2, 300000}, []byte{0x81}, []uint32{0, 1 << 31}, []byte{4, 0, 9, 9})
}

func TestProperty_EncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a decoded snapshot equals the encoded one", prop.ForAll(
		func(name string, globals []int32, bits []byte, class []uint32, array []byte) bool {
			want := buildSnapshot(name, globals, bits, class, array)
			data, err := Encode(want)
			if err != nil {
				return false
			}
			got, err := Decode(data)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(got, want)
		},
		gen.AlphaString(),
		gen.SliceOfN(16, gen.Int32()),
		gen.SliceOfN(4, gen.UInt8()),
		gen.SliceOfN(8, gen.UInt32()),
		gen.SliceOfN(6, gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestEncode_Deterministic(t *testing.T) {
	s := sampleSnapshot()
	s.Machine.ObjectNames[9] = []byte("key")
	s.Machine.ObjectNames[2] = []byte("rope")
	a, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("the same snapshot encoded differently")
	}
}

func TestDecode_RejectsBadData(t *testing.T) {
	if _, err := Decode([]byte{0xC1, 0x00}); err == nil {
		t.Error("garbage decoded")
	}
	s := sampleSnapshot()
	s.Format = FormatVersion + 1
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrFormat) {
		t.Errorf("Decode(newer format) = %v, want ErrFormat", err)
	}
}

func TestSnapshot_Check(t *testing.T) {
	s := sampleSnapshot()
	if err := s.Check(version.V6); err != nil {
		t.Errorf("Check(V6) = %v", err)
	}
	if err := s.Check(version.V5); !errors.Is(err, ErrWrongGame) {
		t.Errorf("Check(V5) = %v, want ErrWrongGame", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "saves.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	want := sampleSnapshot()
	if err := s.Put("monkey2", 1, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("monkey2", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get returned a different snapshot:\n got %+v\nwant %+v", got, want)
	}

	if _, err := s.Get("monkey2", 2); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("Get(empty slot) = %v, want ErrSlotNotFound", err)
	}
	if _, err := s.Get("atlantis", 1); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("slot leaked across targets: %v", err)
	}
}

func TestStore_PutReplacesSlot(t *testing.T) {
	s := openTestStore(t)
	first := sampleSnapshot()
	if err := s.Put("monkey2", 3, first); err != nil {
		t.Fatal(err)
	}
	second := sampleSnapshot()
	second.Name = "after the bridge"
	second.Globals[0] = 99
	if err := s.Put("monkey2", 3, second); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("monkey2", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "after the bridge" || got.Globals[0] != 99 {
		t.Errorf("slot holds %q globals[0]=%d, want the second save", got.Name, got.Globals[0])
	}
	infos, err := s.List("monkey2")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Errorf("List = %d slots, want 1", len(infos))
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	for _, slot := range []int{5, 1, 3} {
		snap := sampleSnapshot()
		snap.Name = "slot"
		if err := s.Put("monkey2", slot, snap); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Put("atlantis", 1, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}

	infos, err := s.List("monkey2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var slots []int
	for _, in := range infos {
		slots = append(slots, in.Slot)
		if in.Target != "monkey2" || in.Name != "slot" || in.Size == 0 || in.SavedAt.IsZero() {
			t.Errorf("info = %+v", in)
		}
	}
	if !reflect.DeepEqual(slots, []int{1, 3, 5}) {
		t.Errorf("slots = %v, want [1 3 5]", slots)
	}

	if err := s.Delete("monkey2", 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("monkey2", 3); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("second Delete = %v, want ErrSlotNotFound", err)
	}
	infos, _ = s.List("monkey2")
	if len(infos) != 2 {
		t.Errorf("%d slots after delete, want 2", len(infos))
	}
	if other, _ := s.List("atlantis"); len(other) != 1 {
		t.Errorf("delete touched another target: %v", other)
	}
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("monkey2", 1, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get("monkey2", 1); err != nil {
		t.Errorf("save lost across reopen: %v", err)
	}
}
