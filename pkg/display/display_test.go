package display

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/sputm/pkg/engine"
)

// fakeRunner records ticks and stops after quitAfter ticks when set.
type fakeRunner struct {
	delay     int
	quitAfter int
	fail      error
	deltas    []int
	inputs    []engine.InputEvent
	quits     int
	paused    bool
}

func (r *fakeRunner) RunTick(deltaMs int) (int, error) {
	if r.quits > 0 || (r.quitAfter > 0 && len(r.deltas) >= r.quitAfter) {
		return 0, engine.ErrTerminated
	}
	if r.fail != nil {
		return 0, r.fail
	}
	r.deltas = append(r.deltas, deltaMs)
	return r.delay, nil
}

func (r *fakeRunner) PushInput(ev engine.InputEvent) { r.inputs = append(r.inputs, ev) }
func (r *fakeRunner) RequestQuit()                   { r.quits++ }
func (r *fakeRunner) Tick() uint64                   { return uint64(len(r.deltas)) }
func (r *fakeRunner) Paused() bool                   { return r.paused }

// manualClock only moves when told to, or when slept on.
type manualClock struct {
	now      time.Time
	deadline time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time               { return c.now }
func (c *manualClock) advance(d time.Duration)      { c.now = c.now.Add(d) }
func (c *manualClock) advanceMs(ms int)             { c.advance(time.Duration(ms) * time.Millisecond) }
func (c *manualClock) withDeadline(d time.Duration) { c.deadline = c.now.Add(d) }

func (c *manualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	if !c.deadline.IsZero() && !c.now.Before(c.deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

// scriptedInput returns queued events one frame at a time.
type scriptedInput struct {
	frames [][]engine.InputEvent
}

func (s *scriptedInput) Poll(width, height int) []engine.InputEvent {
	if len(s.frames) == 0 {
		return nil
	}
	evs := s.frames[0]
	s.frames = s.frames[1:]
	return evs
}

func testGame(r *fakeRunner, clock *manualClock, cfg Config, in poller) *Game {
	if cfg.Canvas == nil {
		cfg.Canvas = NewCanvas(320, 200)
	}
	if in == nil {
		in = &scriptedInput{}
	}
	return newGame(r, cfg, clock, in)
}

func TestUpdate_PacesTicksByReturnedDelay(t *testing.T) {
	r := &fakeRunner{delay: 66}
	clock := newManualClock()
	g := testGame(r, clock, Config{}, nil)

	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	clock.advanceMs(16)
	_ = g.Update()
	clock.advanceMs(16)
	_ = g.Update()
	if len(r.deltas) != 1 {
		t.Fatalf("ticks before delay elapsed = %d, want 1", len(r.deltas))
	}

	clock.advanceMs(40)
	_ = g.Update()
	if len(r.deltas) != 2 {
		t.Fatalf("ticks after delay = %d, want 2", len(r.deltas))
	}
	if r.deltas[0] != 0 || r.deltas[1] != 72 {
		t.Errorf("deltas = %v, want [0 72]", r.deltas)
	}
}

func TestUpdate_ForwardsInputEveryFrame(t *testing.T) {
	r := &fakeRunner{delay: 1000}
	clock := newManualClock()
	in := &scriptedInput{frames: [][]engine.InputEvent{
		{{Kind: engine.InputMouseMove, X: 10, Y: 20}},
		{{Kind: engine.InputMouseDown, X: 10, Y: 20, Button: engine.ButtonLeft}, {Kind: engine.InputKey, Key: 'a'}},
	}}
	g := testGame(r, clock, Config{}, in)

	_ = g.Update()
	clock.advanceMs(16)
	_ = g.Update()
	if len(r.inputs) != 3 {
		t.Fatalf("inputs = %+v", r.inputs)
	}
	if r.inputs[2].Key != 'a' {
		t.Errorf("last input = %+v", r.inputs[2])
	}
	// input is forwarded even while the next tick is not yet due
	if len(r.deltas) != 1 {
		t.Errorf("ticks = %d, want 1", len(r.deltas))
	}
}

func TestUpdate_Termination(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr error
	}{
		{"game quit", &fakeRunner{quits: 1}, nil},
		{"fatal error", &fakeRunner{fail: engine.ErrFatal}, engine.ErrFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGame(tt.runner, newManualClock(), Config{}, nil)
			if err := g.Update(); err != ebiten.Termination {
				t.Fatalf("Update = %v, want ebiten.Termination", err)
			}
			if !errors.Is(g.Err(), tt.wantErr) || (tt.wantErr == nil && g.Err() != nil) {
				t.Errorf("Err = %v, want %v", g.Err(), tt.wantErr)
			}
		})
	}
}

func TestUpdate_Timeout(t *testing.T) {
	r := &fakeRunner{delay: 66}
	clock := newManualClock()
	g := testGame(r, clock, Config{Timeout: time.Second}, nil)

	_ = g.Update()
	clock.advance(time.Second)
	if err := g.Update(); err != ebiten.Termination {
		t.Fatalf("Update = %v, want ebiten.Termination", err)
	}
	if r.quits != 1 {
		t.Errorf("RequestQuit calls = %d, want 1", r.quits)
	}
}

func TestLayout_IsVirtualScreenSize(t *testing.T) {
	g := testGame(&fakeRunner{}, newManualClock(), Config{Canvas: NewCanvas(640, 480)}, nil)
	w, h := g.Layout(1920, 1080)
	if w != 640 || h != 480 {
		t.Errorf("Layout = %dx%d, want 640x480", w, h)
	}
}

func TestCanvas_PresentsOnlyDirtyRects(t *testing.T) {
	c := NewCanvas(16, 8)
	var pal [256]color.RGBA
	pal[1] = color.RGBA{0x10, 0x20, 0x30, 0xFF}
	pal[2] = color.RGBA{0xAA, 0xBB, 0xCC, 0xFF}
	c.SetPalette(pal)

	frame := image.NewPaletted(image.Rect(0, 0, 16, 8), nil)
	for i := range frame.Pix {
		frame.Pix[i] = 1
	}
	frame.SetColorIndex(9, 1, 2)
	c.PresentDirtyRects(frame, []image.Rectangle{image.Rect(8, 0, 16, 8)})

	if got := c.At(9, 1); got != pal[2] {
		t.Errorf("At(9,1) = %v, want %v", got, pal[2])
	}
	if got := c.At(10, 5); got != pal[1] {
		t.Errorf("At(10,5) = %v, want %v", got, pal[1])
	}
	if got := c.At(0, 0); got != (color.RGBA{}) {
		t.Errorf("pixel outside the rect changed: %v", got)
	}
	if c.Presents() != 1 {
		t.Errorf("Presents = %d", c.Presents())
	}

	copies := 0
	c.copyIfDirty(func([]byte) { copies++ })
	c.copyIfDirty(func([]byte) { copies++ })
	if copies != 1 {
		t.Errorf("copies = %d, want 1", copies)
	}
}

func TestKeyCode(t *testing.T) {
	tests := []struct {
		key   ebiten.Key
		shift bool
		want  int
		ok    bool
	}{
		{ebiten.KeyA, false, 'a', true},
		{ebiten.KeyZ, true, 'Z', true},
		{ebiten.KeyDigit7, false, '7', true},
		{ebiten.KeyF5, false, 319, true},
		{ebiten.KeyEscape, false, 27, true},
		{ebiten.KeyEnter, false, 13, true},
		{ebiten.KeyArrowUp, false, 0, false},
	}
	for _, tt := range tests {
		got, ok := keyCode(tt.key, tt.shift)
		if got != tt.want || ok != tt.ok {
			t.Errorf("keyCode(%v, %v) = %d, %v; want %d, %v", tt.key, tt.shift, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRunHeadless_StopsWhenGameQuits(t *testing.T) {
	r := &fakeRunner{delay: 50, quitAfter: 4}
	if err := RunHeadless(context.Background(), r, newManualClock()); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	want := []int{0, 50, 50, 50}
	if len(r.deltas) != len(want) {
		t.Fatalf("deltas = %v, want %v", r.deltas, want)
	}
	for i := range want {
		if r.deltas[i] != want[i] {
			t.Fatalf("deltas = %v, want %v", r.deltas, want)
		}
	}
}

func TestRunHeadless_TimeoutIsNotAnError(t *testing.T) {
	r := &fakeRunner{delay: 100}
	clock := newManualClock()
	clock.withDeadline(time.Second)
	if err := RunHeadless(context.Background(), r, clock); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if len(r.deltas) != 10 {
		t.Errorf("ticks = %d, want 10", len(r.deltas))
	}
	if r.quits != 1 {
		t.Errorf("RequestQuit calls = %d, want 1", r.quits)
	}
}

func TestRunHeadless_CancelAndFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunHeadless(ctx, &fakeRunner{delay: 10}, newManualClock()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run = %v, want context.Canceled", err)
	}
	if err := RunHeadless(context.Background(), &fakeRunner{fail: engine.ErrFatal}, newManualClock()); !errors.Is(err, engine.ErrFatal) {
		t.Errorf("fatal run = %v, want ErrFatal", err)
	}
}

func TestProperty_HeadlessDeltasMatchDelays(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every tick after the first sees the previous delay", prop.ForAll(
		func(delay, ticks int) bool {
			r := &fakeRunner{delay: delay, quitAfter: ticks}
			if err := RunHeadless(context.Background(), r, newManualClock()); err != nil {
				return false
			}
			if len(r.deltas) != ticks || r.deltas[0] != 0 {
				return false
			}
			for _, d := range r.deltas[1:] {
				if d != delay {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 500),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
