package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/sputm/pkg/audio"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

func counterSource() mapSource {
	src := mapSource{}
	src.put(resource.TypeScript, 1, counterBoot())
	src.put(resource.TypeRoom, 1, emptyRoom(320, 200))
	return src
}

func TestInit_RunsBootScript(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := global(t, e, 300); got != 1 {
		t.Errorf("var 300 after boot = %d, want 1", got)
	}
	for range 2 {
		if _, err := e.RunTick(67); err != nil {
			t.Fatalf("RunTick: %v", err)
		}
	}
	if got := global(t, e, 300); got != 3 {
		t.Errorf("var 300 after two ticks = %d, want 3", got)
	}
	if e.Tick() != 2 {
		t.Errorf("Tick() = %d, want 2", e.Tick())
	}
	if err := e.Init(0); err == nil {
		t.Error("second Init succeeded")
	}
}

func TestRunTick_RequiresInit(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if _, err := e.RunTick(16); err == nil {
		t.Error("RunTick before Init succeeded")
	}
}

func TestInit_MissingBootScript(t *testing.T) {
	e := newTestEngine(t, mapSource{})
	err := e.Init(0)
	if err == nil {
		t.Fatal("Init without script 1 succeeded")
	}
	if errors.Is(err, ErrFatal) {
		t.Errorf("missing boot script reported as fatal: %v", err)
	}
}

func TestRequestQuit_ObservedAtNextTick(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	e.RequestQuit()
	e.RequestQuit()
	if _, err := e.RunTick(67); !errors.Is(err, ErrTerminated) {
		t.Fatalf("RunTick after quit = %v, want ErrTerminated", err)
	}
	if got := global(t, e, 300); got != 1 {
		t.Errorf("scripts ran after quit: var 300 = %d", got)
	}
}

func TestScriptQuit_StopsEngine(t *testing.T) {
	b := opcode.NewBuilder(version.V6)
	b.Op(opcode.V6SystemOps).Byte(opcode.SysQuit)
	b.Label("top").Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")
	src := mapSource{}
	src.put(resource.TypeScript, 1, b.Script())
	e := newTestEngine(t, src)

	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	if _, err := e.RunTick(67); !errors.Is(err, ErrTerminated) {
		t.Errorf("RunTick = %v, want ErrTerminated", err)
	}
}

func TestFatalError_StopsEngine(t *testing.T) {
	b := opcode.NewBuilder(version.V6)
	b.Push(2).Push(1).PushList().Op(opcode.V6StartScript).Op(opcode.V6StopObjectCodeA)
	src := mapSource{}
	src.put(resource.TypeScript, 1, b.Script())
	e := newTestEngine(t, src)

	err := e.Init(0)
	if !errors.Is(err, ErrFatal) {
		t.Fatalf("Init = %v, want ErrFatal", err)
	}
	if _, err := e.RunTick(67); !errors.Is(err, ErrFatal) {
		t.Errorf("RunTick after fatal = %v, want ErrFatal", err)
	}
	if e.Err() == nil {
		t.Error("Err() is nil after a fatal error")
	}
}

func TestRunTick_NextDelayFollowsTimerNext(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	next, err := e.RunTick(67)
	if err != nil {
		t.Fatal(err)
	}
	if next != 66 {
		t.Errorf("default next delay = %d ms, want 66", next)
	}
	if err := e.Machine().Vars().Set(vars.VarTimerNext, 6); err != nil {
		t.Fatal(err)
	}
	if next, _ = e.RunTick(67); next != 100 {
		t.Errorf("next delay = %d ms, want 100", next)
	}
}

func TestDelay_ResumesAfterElapsedTime(t *testing.T) {
	b := opcode.NewBuilder(version.V6)
	b.Push(10).Op(opcode.V6Delay).Push(1).WriteVar(301).Op(opcode.V6StopObjectCodeA)
	src := mapSource{}
	src.put(resource.TypeScript, 1, b.Script())
	e := newTestEngine(t, src)
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}

	if _, err := e.RunTick(100); err != nil {
		t.Fatal(err)
	}
	if global(t, e, 301) != 0 {
		t.Fatal("script resumed after 6 of 10 jiffies")
	}
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if global(t, e, 301) != 1 {
		t.Error("script did not resume once 10 jiffies had passed")
	}
}

func TestProperty_TimersAdvanceByExactlyTheDelta(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("timer vars count whole jiffies of the clamped elapsed time", prop.ForAll(
		func(deltas []int) bool {
			e := newTestEngine(t, counterSource())
			if err := e.Init(0); err != nil {
				return false
			}
			total := 0
			for _, d := range deltas {
				if _, err := e.RunTick(d); err != nil {
					return false
				}
				total += min(d, DefaultMaxTickDelta)
			}
			want := int32(total * 60 / 1000)
			store := e.Machine().Vars()
			return store.Peek(vars.VarTimerTotal) == want && store.Peek(vars.VarTmr1) == want
		},
		gen.SliceOf(gen.IntRange(0, 400)),
	))

	properties.TestingRun(t)
}

func TestInput_MouseAndClickReachScripts(t *testing.T) {
	src := counterSource()
	b := opcode.NewBuilder(version.V6)
	b.PushVar(b.Local(0)).WriteVar(301)
	b.PushVar(b.Local(1)).WriteVar(302)
	b.Op(opcode.V6StopObjectCodeA)
	src.put(resource.TypeScript, 2, b.Script())
	e := newTestEngine(t, src)
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	if err := e.Machine().Vars().Set(vars.VarVerbScript, 2); err != nil {
		t.Fatal(err)
	}

	e.PushInput(InputEvent{Kind: InputMouseMove, X: 10, Y: 20})
	e.PushInput(InputEvent{Kind: InputMouseDown, X: 12, Y: 22, Button: ButtonLeft})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}

	store := e.Machine().Vars()
	if x, y := store.Peek(vars.VarMouseX), store.Peek(vars.VarMouseY); x != 12 || y != 22 {
		t.Errorf("mouse = (%d, %d), want (12, 22)", x, y)
	}
	if got := global(t, e, 301); got != areaScene {
		t.Errorf("click area = %d, want %d", got, areaScene)
	}
	if got := global(t, e, 302); got != ButtonLeft {
		t.Errorf("button = %d, want %d", got, ButtonLeft)
	}
}

func TestInput_PauseKeyStopsScripts(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	const pauseKey = 'p'
	if err := e.Machine().Vars().Set(vars.VarPauseKey, pauseKey); err != nil {
		t.Fatal(err)
	}

	e.PushInput(InputEvent{Kind: InputKey, Key: pauseKey})
	for range 3 {
		if _, err := e.RunTick(67); err != nil {
			t.Fatal(err)
		}
	}
	if !e.Paused() {
		t.Fatal("pause key did not pause")
	}
	if got := global(t, e, 300); got != 1 {
		t.Errorf("scripts ran while paused: var 300 = %d", got)
	}

	e.PushInput(InputEvent{Kind: InputKey, Key: pauseKey})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if e.Paused() || global(t, e, 300) != 2 {
		t.Errorf("paused=%v var 300=%d after unpausing, want false and 2", e.Paused(), global(t, e, 300))
	}
}

func TestInput_PausedIgnoresClicksAndKeys(t *testing.T) {
	src := counterSource()
	b := opcode.NewBuilder(version.V6)
	b.Push(99).WriteVar(301).Op(opcode.V6StopObjectCodeA)
	src.put(resource.TypeScript, 2, b.Script())
	e := newTestEngine(t, src)
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	store := e.Machine().Vars()
	const pauseKey = 'p'
	if err := store.Set(vars.VarVerbScript, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(vars.VarPauseKey, pauseKey); err != nil {
		t.Fatal(err)
	}

	e.PushInput(InputEvent{Kind: InputKey, Key: pauseKey})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	e.PushInput(InputEvent{Kind: InputMouseDown, X: 30, Y: 40, Button: ButtonLeft})
	e.PushInput(InputEvent{Kind: InputKey, Key: 'x'})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}

	if !e.Paused() {
		t.Fatal("game unpaused by a click or key")
	}
	if got := global(t, e, 301); got != 0 {
		t.Errorf("input script ran while paused: var 301 = %d", got)
	}
	if got := store.Peek(vars.VarKeypress); got != 0 {
		t.Errorf("VAR_KEYPRESS = %d while paused, want 0", got)
	}
	if x, y := store.Peek(vars.VarMouseX), store.Peek(vars.VarMouseY); x != 30 || y != 40 {
		t.Errorf("mouse = (%d, %d) while paused, want (30, 40)", x, y)
	}

	e.PushInput(InputEvent{Kind: InputKey, Key: pauseKey})
	e.PushInput(InputEvent{Kind: InputMouseDown, X: 30, Y: 40, Button: ButtonLeft})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if got := global(t, e, 301); got != 99 {
		t.Errorf("input script after unpausing: var 301 = %d, want 99", got)
	}
}

func TestRestartKey_RebootsGame(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if _, err := e.RunTick(67); err != nil {
			t.Fatal(err)
		}
	}
	const restartKey = 'r'
	if err := e.Machine().Vars().Set(vars.VarRestartKey, restartKey); err != nil {
		t.Fatal(err)
	}
	e.PushInput(InputEvent{Kind: InputKey, Key: restartKey})
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if got := global(t, e, 300); got != 2 {
		t.Errorf("var 300 after restart = %d, want 2", got)
	}
	if live := countLive(e); live != 1 {
		t.Errorf("%d scripts alive after restart, want 1", live)
	}
}

func countLive(e *Engine) int {
	n := 0
	for i := range e.Machine().NumSlots() {
		if e.Machine().Slot(i).Alive() {
			n++
		}
	}
	return n
}

func TestComposite_PresentsToDisplay(t *testing.T) {
	disp := &screen.NullDisplay{}
	e := newTestEngine(t, counterSource(), WithDisplay(disp))
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	if err := e.Machine().StartScene(1); err != nil {
		t.Fatal(err)
	}
	if err := e.Machine().Actors().Put(1, 100, 100, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if disp.Presents == 0 || disp.Rects == 0 {
		t.Errorf("display got %d presents with %d rects", disp.Presents, disp.Rects)
	}

	// the next tick repaints the actor's area once more, then nothing changes
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	before := disp.Presents
	if _, err := e.RunTick(67); err != nil {
		t.Fatal(err)
	}
	if disp.Presents != before {
		t.Error("an unchanged frame was presented again")
	}
}

func TestSnapshot_CarriesEngineState(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot("here")
	if snap.Game != version.V6 || snap.Name != "here" {
		t.Errorf("header = %v %q", snap.Game, snap.Name)
	}
	if snap.Globals[300] != 1 {
		t.Errorf("globals[300] = %d, want 1", snap.Globals[300])
	}
	id := int(snap.Globals[310])
	if id == 0 {
		t.Fatal("boot script did not store an array id in var 310")
	}
	if _, ok := snap.Machine.Arrays[id]; !ok {
		t.Errorf("array %d missing from snapshot", id)
	}
	if len(snap.Machine.Slots) != 1 {
		t.Errorf("%d script slots saved, want 1", len(snap.Machine.Slots))
	}
	if want := (resource.Handle{Type: resource.TypeScript, Index: 1}); snap.Machine.Slots[0].Code != want {
		t.Errorf("saved code handle = %v", snap.Machine.Slots[0].Code)
	}
}

func TestRestore_RejectsAndRollsBack(t *testing.T) {
	e := newTestEngine(t, counterSource())
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	if err := e.Machine().StartScene(1); err != nil {
		t.Fatal(err)
	}
	before := e.Snapshot("x")

	other := e.Snapshot("x")
	other.Game = version.V5
	if err := e.Restore(other); err == nil {
		t.Error("snapshot of another version restored")
	}

	short := e.Snapshot("x")
	short.Globals = short.Globals[:10]
	if err := e.Restore(short); err == nil {
		t.Error("snapshot with missing variables restored")
	}

	missingRoom := e.Snapshot("x")
	missingRoom.Machine.Room = 99
	missingRoom.Globals[300] = 1234
	if err := e.Restore(missingRoom); err == nil {
		t.Error("snapshot in a missing room restored")
	}

	if after := e.Snapshot("x"); !reflect.DeepEqual(after, before) {
		t.Errorf("failed restores changed the state:\n got %+v\nwant %+v", after, before)
	}
	if e.Err() != nil {
		t.Errorf("engine stopped: %v", e.Err())
	}
}

func TestRestore_StopsSoundOnlyWhenApplied(t *testing.T) {
	null := audio.NewNull()
	e := newTestEngine(t, counterSource(), WithAudio(null))
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	if err := e.Machine().StartScene(1); err != nil {
		t.Fatal(err)
	}
	good := e.Snapshot("x")
	pcm := resource.AppendChunk(nil, resource.MakeTag("SBL "), make([]byte, 11025))
	if err := null.PlaySound(5, pcm, 0, audio.MaxVolume, 0); err != nil {
		t.Fatal(err)
	}

	bad := e.Snapshot("x")
	bad.Machine.Room = 99
	if err := e.Restore(bad); err == nil {
		t.Fatal("snapshot in a missing room restored")
	}
	if !null.IsSoundRunning(5) {
		t.Error("failed restore stopped the music")
	}

	if err := e.Restore(good); err != nil {
		t.Fatal(err)
	}
	if null.IsSoundRunning(5) {
		t.Error("sound kept playing across a restore")
	}
}

// clockedAudio records how far the engine moved its clock.
type clockedAudio struct {
	*audio.Null
	advanced time.Duration
}

func (a *clockedAudio) Advance(d time.Duration) {
	a.advanced += d
	a.Null.Advance(d)
}

func TestRunTick_AdvancesSilentAudioClock(t *testing.T) {
	a := &clockedAudio{Null: audio.NewNull()}
	e := newTestEngine(t, counterSource(), WithAudio(a))
	if err := e.Init(0); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := e.RunTick(67); err != nil {
			t.Fatal(err)
		}
	}
	if want := 3 * (4 * time.Second / 60); a.advanced != want {
		t.Errorf("audio advanced %v, want %v", a.advanced, want)
	}
}
