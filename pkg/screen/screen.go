// Package screen holds the virtual screen: the 8-bit frame, the palette with
// its cycle and fade effects, and the dirty-strip bookkeeping that decides
// which rectangles the display backend receives.
package screen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/version"
)

// StripWidth is the width of one dirty column in pixels.
const StripWidth = 8

// NumCycles is the number of palette cycle slots.
const NumCycles = 16

// MaxIntensity is full palette brightness.
const MaxIntensity = 255

// ErrBadCycle is returned for a cycle slot or range that does not fit the palette.
var ErrBadCycle = errors.New("invalid palette cycle")

// DisplayBackend receives finished frames.
type DisplayBackend interface {
	SetPalette(pal [256]color.RGBA)
	PresentDirtyRects(frame *image.Paletted, rects []image.Rectangle)
}

// Cycle rotates palette entries Start..End every Delay jiffies.
type Cycle struct {
	Start   int  `msgpack:"start"`
	End     int  `msgpack:"end"`
	Delay   int  `msgpack:"delay"`
	Forward bool `msgpack:"forward"`
	Counter int  `msgpack:"counter"`
}

func (c Cycle) active() bool { return c.Delay > 0 && c.End > c.Start }

type strip struct {
	top, bottom int
}

func (s strip) empty() bool { return s.bottom <= s.top }

// Screen is the compositing target the main loop draws into.
type Screen struct {
	mu sync.Mutex

	frame     *image.Paletted
	base      [256]color.RGBA
	palette   [256]color.RGBA
	cycles    [NumCycles]Cycle
	intensity int
	fadeTo    int
	fadeStep  int
	shaking   bool

	strips       []strip
	paletteDirty bool

	strategy version.PaletteStrategy
	backend  DisplayBackend
	log      *slog.Logger
}

// Option configures a Screen.
type Option func(*Screen)

// WithBackend sets the display backend Present delivers to.
func WithBackend(b DisplayBackend) Option {
	return func(s *Screen) {
		s.backend = b
	}
}

// WithPaletteStrategy sets how ResetPalette seeds the palette.
func WithPaletteStrategy(p version.PaletteStrategy) Option {
	return func(s *Screen) {
		s.strategy = p
	}
}

// WithLogger sets the screen's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Screen) {
		s.log = log
	}
}

// New creates a width x height screen with a reset palette and every strip dirty.
func New(width, height int, opts ...Option) *Screen {
	s := &Screen{
		intensity: MaxIntensity,
		fadeTo:    MaxIntensity,
		strategy:  version.ZeroPalette{},
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.RGBA{A: 0xFF}
	}
	s.frame = image.NewPaletted(image.Rect(0, 0, width, height), pal)
	s.strips = make([]strip, (width+StripWidth-1)/StripWidth)
	s.ResetPalette()
	s.MarkAll()
	return s
}

// Frame returns the frame buffer. Draw into it and mark what changed.
func (s *Screen) Frame() *image.Paletted { return s.frame }

// Bounds returns the screen rectangle.
func (s *Screen) Bounds() image.Rectangle { return s.frame.Rect }

// ResetPalette seeds the palette through the version's strategy.
func (s *Screen) ResetPalette() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy.Setup(s.base[:])
	s.applyLocked()
}

// LoadPalette replaces entries from packed RGB triples (a room's CLUT block).
func (s *Screen) LoadPalette(rgb []byte) error {
	if len(rgb)%3 != 0 || len(rgb) > 256*3 {
		return fmt.Errorf("palette of %d bytes: want a multiple of 3 up to 768", len(rgb))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(rgb)/3; i++ {
		s.base[i] = color.RGBA{rgb[i*3], rgb[i*3+1], rgb[i*3+2], 0xFF}
	}
	s.applyLocked()
	return nil
}

// SetColor sets one palette entry.
func (s *Screen) SetColor(i int, c color.RGBA) {
	if i < 0 || i > 255 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.A = 0xFF
	s.base[i] = c
	s.applyLocked()
}

// BaseColor returns entry i before intensity is applied.
func (s *Screen) BaseColor(i int) color.RGBA {
	if i < 0 || i > 255 {
		return color.RGBA{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base[i]
}

// Palette returns the effective palette after intensity.
func (s *Screen) Palette() [256]color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette
}

// applyLocked recomputes the effective palette and marks it for upload.
func (s *Screen) applyLocked() {
	for i, c := range s.base {
		s.palette[i] = color.RGBA{
			R: uint8(int(c.R) * s.intensity / MaxIntensity),
			G: uint8(int(c.G) * s.intensity / MaxIntensity),
			B: uint8(int(c.B) * s.intensity / MaxIntensity),
			A: 0xFF,
		}
		s.frame.Palette[i] = s.palette[i]
	}
	s.paletteDirty = true
}

// SetCycle configures cycle slot. A zero delay disables it.
func (s *Screen) SetCycle(slot int, c Cycle) error {
	if slot < 0 || slot >= NumCycles || c.Start < 0 || c.End > 255 || c.Start > c.End {
		return fmt.Errorf("cycle %d (%d..%d): %w", slot, c.Start, c.End, ErrBadCycle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Counter = 0
	s.cycles[slot] = c
	return nil
}

// ClearCycles disables every cycle.
func (s *Screen) ClearCycles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = [NumCycles]Cycle{}
}

// Cycles returns the cycle table.
func (s *Screen) Cycles() [NumCycles]Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// SetIntensity sets the brightness immediately and cancels any fade.
func (s *Screen) SetIntensity(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = max(0, min(MaxIntensity, v))
	s.intensity, s.fadeTo, s.fadeStep = v, v, 0
	s.applyLocked()
}

// Intensity returns the current brightness.
func (s *Screen) Intensity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensity
}

// FadeTo moves the brightness towards target by step per jiffy.
func (s *Screen) FadeTo(target, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fadeTo = max(0, min(MaxIntensity, target))
	s.fadeStep = max(1, step)
}

// Fading reports whether a fade is in progress.
func (s *Screen) Fading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensity != s.fadeTo
}

// Shake starts or stops the screen shake effect.
func (s *Screen) Shake(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shaking = on
}

// Shaking reports whether the shake effect is on.
func (s *Screen) Shaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shaking
}

// Step advances palette cycles and the fade by jiffies.
func (s *Screen) Step(jiffies int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for i := range s.cycles {
		c := &s.cycles[i]
		if !c.active() {
			continue
		}
		c.Counter += jiffies
		for c.Counter >= c.Delay {
			c.Counter -= c.Delay
			rotate(s.base[c.Start:c.End+1], c.Forward)
			changed = true
		}
	}
	if s.intensity != s.fadeTo {
		delta := s.fadeStep * max(1, jiffies)
		if s.intensity < s.fadeTo {
			s.intensity = min(s.fadeTo, s.intensity+delta)
		} else {
			s.intensity = max(s.fadeTo, s.intensity-delta)
		}
		changed = true
	}
	if changed {
		s.applyLocked()
	}
}

func rotate(p []color.RGBA, forward bool) {
	if len(p) < 2 {
		return
	}
	if forward {
		last := p[len(p)-1]
		copy(p[1:], p[:len(p)-1])
		p[0] = last
	} else {
		first := p[0]
		copy(p, p[1:])
		p[len(p)-1] = first
	}
}

// MarkDirty records that r changed.
func (s *Screen) MarkDirty(r image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLocked(r)
}

func (s *Screen) markLocked(r image.Rectangle) {
	r = r.Intersect(s.frame.Rect)
	if r.Empty() {
		return
	}
	for i := r.Min.X / StripWidth; i <= (r.Max.X-1)/StripWidth; i++ {
		st := &s.strips[i]
		if st.empty() {
			st.top, st.bottom = r.Min.Y, r.Max.Y
			continue
		}
		st.top = min(st.top, r.Min.Y)
		st.bottom = max(st.bottom, r.Max.Y)
	}
}

// MarkAll marks the whole screen dirty.
func (s *Screen) MarkAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLocked(s.frame.Rect)
}

// DirtyRects returns the dirty area as rectangles. Neighbouring strips with the
// same vertical extent merge into one rectangle.
func (s *Screen) DirtyRects() []image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Screen) dirtyLocked() []image.Rectangle {
	var rects []image.Rectangle
	w := s.frame.Rect.Dx()
	for i := 0; i < len(s.strips); {
		st := s.strips[i]
		if st.empty() {
			i++
			continue
		}
		j := i + 1
		for j < len(s.strips) && s.strips[j] == st {
			j++
		}
		rects = append(rects, image.Rect(i*StripWidth, st.top, min(j*StripWidth, w), st.bottom))
		i = j
	}
	return rects
}

// Present uploads a changed palette, hands the dirty rectangles to the
// backend and clears the dirty state. It returns the rectangles presented.
func (s *Screen) Present() []image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()

	rects := s.dirtyLocked()
	if s.paletteDirty && len(rects) == 0 {
		// a palette change alone still needs a present
		rects = []image.Rectangle{s.frame.Rect}
	}
	if s.backend != nil {
		if s.paletteDirty {
			s.backend.SetPalette(s.palette)
		}
		if len(rects) > 0 {
			s.backend.PresentDirtyRects(s.frame, rects)
		}
	}
	s.paletteDirty = false
	clear(s.strips)
	return rects
}

// Clear fills the frame with colour index 0 and marks it dirty.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.frame.Pix)
	s.markLocked(s.frame.Rect)
}

// State is the part of the screen saved with a game.
type State struct {
	Palette   [256][3]uint8    `msgpack:"palette"`
	Cycles    [NumCycles]Cycle `msgpack:"cycles"`
	Intensity int              `msgpack:"intensity"`
}

// Snapshot returns the savable state.
func (s *Screen) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Cycles: s.cycles, Intensity: s.intensity}
	for i, c := range s.base {
		st.Palette[i] = [3]uint8{c.R, c.G, c.B}
	}
	return st
}

// Restore applies a saved state and marks everything dirty.
func (s *Screen) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range st.Palette {
		s.base[i] = color.RGBA{c[0], c[1], c[2], 0xFF}
	}
	s.cycles = st.Cycles
	s.intensity = max(0, min(MaxIntensity, st.Intensity))
	s.fadeTo, s.fadeStep = s.intensity, 0
	s.applyLocked()
	s.markLocked(s.frame.Rect)
}

// NullDisplay counts presents and keeps the last palette. Headless runs use it.
type NullDisplay struct {
	mu       sync.Mutex
	Presents int
	Rects    int
	Last     [256]color.RGBA
}

func (d *NullDisplay) SetPalette(pal [256]color.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Last = pal
}

func (d *NullDisplay) PresentDirtyRects(frame *image.Paletted, rects []image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Presents++
	d.Rects += len(rects)
}
