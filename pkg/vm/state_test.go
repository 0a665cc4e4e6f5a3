package vm

import (
	"reflect"
	"testing"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

func stateSource() *fakeSource {
	b := opcode.NewBuilder(version.V6)
	b.Push(4).Op(opcode.V6DimArray).Byte(opcode.DimInt).Word(310)
	b.Push(2).Push(99).Op(opcode.V6WordArrayWrite).Word(310)
	b.Push(42).WriteVar(b.Local(3))
	b.Label("top").Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")

	src := newFakeSource()
	src.put(resource.TypeScript, 1, b.Script())
	src.put(resource.TypeRoom, 1, testRoom())
	return src
}

func TestState_RestoreRoundTrip(t *testing.T) {
	a := newTestMachine(t, version.V6, stateSource())
	a.Vars().Poke(vars.VarEgo, 1)
	if err := a.StartScene(1); err != nil {
		t.Fatal(err)
	}
	if err := a.RunScript(1, true, false, []int32{7}); err != nil {
		t.Fatal(err)
	}
	if err := a.PickupObject(5, 1); err != nil {
		t.Fatal(err)
	}
	a.queueSentence(3, 5, 0)
	if err := a.Resources().Lock(resource.TypeCostume, 2); err != nil {
		t.Fatal(err)
	}
	want := a.State()
	if len(want.Locks) != 1 || want.Locks[0] != (resource.Handle{Type: resource.TypeCostume, Index: 2}) {
		t.Errorf("saved locks = %v, want costume 2 only", want.Locks)
	}

	src := stateSource()
	b := newTestMachine(t, version.V6, src)
	if err := b.Resources().Lock(resource.TypeCostume, 3); err != nil {
		t.Fatal(err)
	}
	if err := b.Restore(want); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := b.State(); !reflect.DeepEqual(got, want) {
		t.Errorf("state after restore differs:\n got %+v\nwant %+v", got, want)
	}
	if global(t, b, 320) != 0 {
		t.Error("restore ran the room entry code")
	}
	if !b.Resources().IsLocked(resource.TypeCostume, 2) || b.Resources().IsLocked(resource.TypeCostume, 3) {
		t.Error("script locks were not carried over")
	}
	if src.loadCount(resource.TypeScript, 1) != 0 {
		t.Error("restore loaded script code eagerly")
	}

	if err := b.RunAll(); err != nil {
		t.Fatalf("RunAll after restore: %v", err)
	}
	in := b.Slot(want.Slots[0].Slot)
	if in.State() != StatusRunning || in.Locals[3] != 42 || in.Locals[0] != 7 {
		t.Errorf("restored instance = %+v", in)
	}
}

func TestState_RestoreRejectsInconsistentState(t *testing.T) {
	m := newTestMachine(t, version.V6, newFakeSource())
	cases := map[string]State{
		"inventory without code": {Inventory: []int{5}},
		"slot out of range":      {Slots: []SlotState{{Slot: 1000, Status: StatusRunning}}},
		"too many cutscenes":     {Cutscenes: make([]CutsceneState, 10)},
	}
	for name, st := range cases {
		if err := m.Restore(st); err == nil {
			t.Errorf("%s: Restore accepted it", name)
		}
	}
}
