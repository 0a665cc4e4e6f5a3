package display

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/sputm/pkg/engine"
	"github.com/zurustar/sputm/pkg/logger"
)

var (
	overlayColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	overlayFace  = text.NewGoXFace(basicfont.Face7x13)
)

// Config controls the game window.
type Config struct {
	Canvas       *Canvas
	Title        string
	Scale        int
	Timeout      time.Duration // 0 means no limit
	DebugOverlay bool
}

// poller reads device state once per frame and reports it as engine events.
type poller interface {
	Poll(width, height int) []engine.InputEvent
}

// Game implements ebiten.Game around an engine.
type Game struct {
	runner  Runner
	canvas  *Canvas
	clock   Clock
	input   poller
	timeout time.Duration
	overlay bool

	start    time.Time
	lastTick time.Time
	due      time.Time
	frame    *ebiten.Image
	err      error
}

// NewGame creates the window game. The first Update runs a tick.
func NewGame(r Runner, cfg Config, clock Clock) *Game {
	return newGame(r, cfg, clock, &ebitenInput{})
}

func newGame(r Runner, cfg Config, clock Clock, in poller) *Game {
	now := clock.Now()
	return &Game{
		runner:   r,
		canvas:   cfg.Canvas,
		clock:    clock,
		input:    in,
		timeout:  cfg.Timeout,
		overlay:  cfg.DebugOverlay,
		start:    now,
		lastTick: now,
		due:      now,
	}
}

// Err returns the error that stopped the game, if any.
func (g *Game) Err() error { return g.err }

// Update forwards input and runs a tick once the previous tick's delay has passed.
func (g *Game) Update() error {
	now := g.clock.Now()
	if g.timeout > 0 && now.Sub(g.start) >= g.timeout {
		g.runner.RequestQuit()
		return ebiten.Termination
	}

	w, h := g.canvas.Size()
	for _, ev := range g.input.Poll(w, h) {
		g.runner.PushInput(ev)
	}

	if now.Before(g.due) {
		return nil
	}
	delay, err := g.runner.RunTick(int(now.Sub(g.lastTick) / time.Millisecond))
	g.lastTick = now
	if errors.Is(err, engine.ErrTerminated) {
		return ebiten.Termination
	}
	if err != nil {
		g.err = err
		return ebiten.Termination
	}
	g.due = now.Add(time.Duration(delay) * time.Millisecond)
	return nil
}

// Draw shows the last presented frame.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		w, h := g.canvas.Size()
		g.frame = ebiten.NewImage(w, h)
	}
	g.canvas.copyIfDirty(g.frame.WritePixels)
	screen.DrawImage(g.frame, nil)

	if g.overlay {
		status := fmt.Sprintf("tick %d  tps %.0f  fps %.0f", g.runner.Tick(), ebiten.ActualTPS(), ebiten.ActualFPS())
		if g.runner.Paused() {
			status += "  paused"
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(2, 2)
		op.ColorScale.ScaleWithColor(overlayColor)
		text.Draw(screen, status, overlayFace, op)
	}
}

// Layout keeps the virtual screen size; ebiten scales it to the window
// with letterboxing.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.canvas.Size()
}

// Run opens a window and drives e until the game quits or the window closes.
func Run(e Runner, cfg Config) error {
	if cfg.Canvas == nil {
		return errors.New("display: no canvas configured")
	}
	scale := max(1, cfg.Scale)
	w, h := cfg.Canvas.Size()
	title := cfg.Title
	if title == "" {
		title = "sputm"
	}

	ebiten.SetWindowSize(w*scale, h*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := NewGame(e, cfg, SystemClock{})
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	e.RequestQuit()
	if game.Err() != nil {
		return game.Err()
	}
	logger.GetLogger().Info("Window closed", "tick", e.Tick())
	return nil
}

// ebitenInput polls ebiten's input state.
type ebitenInput struct {
	lastX, lastY int
	keys         []ebiten.Key
}

var mouseButtons = []struct {
	button ebiten.MouseButton
	code   int
}{
	{ebiten.MouseButtonLeft, engine.ButtonLeft},
	{ebiten.MouseButtonRight, engine.ButtonRight},
}

func (in *ebitenInput) Poll(width, height int) []engine.InputEvent {
	var out []engine.InputEvent

	// Layout fixes the logical size, so the cursor is already in screen coordinates.
	x, y := ebiten.CursorPosition()
	x = max(0, min(x, width-1))
	y = max(0, min(y, height-1))
	if x != in.lastX || y != in.lastY {
		out = append(out, engine.InputEvent{Kind: engine.InputMouseMove, X: x, Y: y})
		in.lastX, in.lastY = x, y
	}

	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b.button) {
			out = append(out, engine.InputEvent{Kind: engine.InputMouseDown, X: x, Y: y, Button: b.code})
		}
		if inpututil.IsMouseButtonJustReleased(b.button) {
			out = append(out, engine.InputEvent{Kind: engine.InputMouseUp, X: x, Y: y, Button: b.code})
		}
	}

	in.keys = inpututil.AppendJustPressedKeys(in.keys[:0])
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for _, k := range in.keys {
		if code, ok := keyCode(k, shift); ok {
			out = append(out, engine.InputEvent{Kind: engine.InputKey, Key: code})
		}
	}
	return out
}

// Key codes scripts compare VAR_KEYPRESS against.
const (
	keyBackspace = 8
	keyTab       = 9
	keyEnter     = 13
	keyEscape    = 27
	keySpace     = 32
	keyF1        = 315
)

var (
	letterKeys = []ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF, ebiten.KeyG,
		ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN,
		ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT, ebiten.KeyU,
		ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY, ebiten.KeyZ,
	}
	digitKeys = []ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	functionKeys = []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
		ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	specialKeys = map[ebiten.Key]int{
		ebiten.KeyBackspace:   keyBackspace,
		ebiten.KeyTab:         keyTab,
		ebiten.KeyEnter:       keyEnter,
		ebiten.KeyNumpadEnter: keyEnter,
		ebiten.KeyEscape:      keyEscape,
		ebiten.KeySpace:       keySpace,
		ebiten.KeyPeriod:      '.',
		ebiten.KeyComma:       ',',
	}
)

// keyCode maps an ebiten key to the code a game script receives.
func keyCode(k ebiten.Key, shift bool) (int, bool) {
	for i, lk := range letterKeys {
		if k == lk {
			if shift {
				return 'A' + i, true
			}
			return 'a' + i, true
		}
	}
	for i, dk := range digitKeys {
		if k == dk {
			return '0' + i, true
		}
	}
	for i, fk := range functionKeys {
		if k == fk {
			return keyF1 + i, true
		}
	}
	code, ok := specialKeys[k]
	return code, ok
}
