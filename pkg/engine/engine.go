// Package engine assembles the interpreter, its stores and collaborators and
// drives them one tick at a time.
package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/audio"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/savegame"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
	"github.com/zurustar/sputm/pkg/vm"
)

var (
	// ErrTerminated is returned by RunTick once a quit has been observed.
	ErrTerminated = errors.New("engine terminated")
	// ErrFatal wraps the error that stopped the engine for good.
	ErrFatal = errors.New("fatal engine error")
)

// DefaultMaxTickDelta caps the time one tick may account for, in milliseconds.
const DefaultMaxTickDelta = 250

// videoModeVGA is the video mode games expect to find on boot.
const videoModeVGA = 19

// gameLoadedMarker is written to VAR_GAME_LOADED after a successful load.
const gameLoadedMarker = 201

// audioClock is a backend whose playback time follows the engine clock
// instead of a sound card.
type audioClock interface {
	Advance(d time.Duration)
}

// SaveStore keeps snapshots in numbered slots per game target.
type SaveStore interface {
	Put(target string, slot int, snap *savegame.Snapshot) error
	Get(target string, slot int) (*savegame.Snapshot, error)
}

type saveRequest struct {
	slot int
	name string
}

// Engine owns one running game.
type Engine struct {
	prof *version.Profile
	res  *resource.Manager
	vm   *vm.Machine

	audio    audio.Backend
	display  screen.DisplayBackend
	sink     text.Sink
	renderer actor.CostumeRenderer
	saves    SaveStore
	target   string
	input    *InputQueue

	lang     string
	objects  *vars.ObjectTables
	seed     int64
	hasSeed  bool
	heapMin  int
	heapMax  int
	hardMax  int
	maxDelta int

	quit           atomic.Bool
	fatal          error
	inited         bool
	bootParam      int
	boot           *savegame.Snapshot
	paused         bool
	restartPending bool

	reqMu       sync.Mutex
	pendingSave *saveRequest
	pendingLoad *int

	acc        int
	tick       uint64
	mouseX     int
	mouseY     int
	lastRoom   int
	lastActors []image.Rectangle

	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by every component.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithAudio sets the sound backend. The default is a silent audio.Null.
func WithAudio(b audio.Backend) Option {
	return func(e *Engine) {
		e.audio = b
	}
}

// WithDisplay sets where finished frames are presented.
func WithDisplay(d screen.DisplayBackend) Option {
	return func(e *Engine) {
		e.display = d
	}
}

// WithTextSink sets where messages and save/load failures are shown.
func WithTextSink(s text.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithCostumeRenderer sets the actor renderer. The default draws boxes.
func WithCostumeRenderer(r actor.CostumeRenderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithSaves attaches slot storage for the named game target.
func WithSaves(store SaveStore, target string) Option {
	return func(e *Engine) {
		e.saves = store
		e.target = target
	}
}

// WithLanguage selects the message decoder.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.lang = lang
	}
}

// WithObjects seeds the object table, usually from the game's index file.
func WithObjects(t vars.ObjectTables) Option {
	return func(e *Engine) {
		e.objects = &t
	}
}

// WithSeed makes the script random numbers reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.hasSeed = true
	}
}

// WithHeap overrides the profile's eviction thresholds in bytes.
func WithHeap(minHeap, maxHeap int) Option {
	return func(e *Engine) {
		e.heapMin, e.heapMax = minHeap, maxHeap
	}
}

// WithHardLimit makes allocations past limit bytes fatal.
func WithHardLimit(limit int) Option {
	return func(e *Engine) {
		e.hardMax = limit
	}
}

// WithMaxTickDelta caps the milliseconds a single tick may account for.
func WithMaxTickDelta(ms int) Option {
	return func(e *Engine) {
		if ms > 0 {
			e.maxDelta = ms
		}
	}
}

// New builds an engine for prof reading game data from src.
func New(prof *version.Profile, src resource.GameDataSource, opts ...Option) (*Engine, error) {
	e := &Engine{
		prof:     prof,
		input:    NewInputQueue(DefaultInputQueueSize),
		maxDelta: DefaultMaxTickDelta,
		lastRoom: -1,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.audio == nil {
		e.audio = audio.NewNull()
	}
	if e.display == nil {
		e.display = &screen.NullDisplay{}
	}
	if e.sink == nil {
		e.sink = text.LogSink{Log: e.log}
	}

	resOpts := []resource.Option{resource.WithLogger(e.log), resource.WithSource(src)}
	if e.hardMax > 0 {
		resOpts = append(resOpts, resource.WithHardLimit(e.hardMax))
	}
	e.res = resource.NewManager(resOpts...)
	if err := vm.ConfigureResources(e.res, prof); err != nil {
		return nil, err
	}
	if e.heapMax > 0 {
		if err := e.res.SetHeapThreshold(e.heapMin, e.heapMax); err != nil {
			return nil, fmt.Errorf("heap thresholds: %w", err)
		}
	}

	store := vars.NewStore(prof.Counts.Variables, prof.Counts.BitVariables, prof.Vars)
	store.SetLogger(e.log)
	objs := vars.NewObjects(prof.Counts.GlobalObjects)
	if e.objects != nil {
		if err := objs.Restore(*e.objects); err != nil {
			return nil, fmt.Errorf("initial objects: %w", err)
		}
	}
	scr := screen.New(prof.ScreenWidth, prof.ScreenHeight,
		screen.WithBackend(e.display),
		screen.WithPaletteStrategy(prof.Palette),
		screen.WithLogger(e.log))

	vmOpts := []vm.Option{
		vm.WithLogger(e.log),
		vm.WithAudio(e.audio),
		vm.WithScreen(scr),
		vm.WithTextSink(e.sink),
		vm.WithLanguage(e.lang),
		vm.WithHost(scriptHost{e}),
	}
	if e.hasSeed {
		vmOpts = append(vmOpts, vm.WithSeed(e.seed))
	}
	m, err := vm.New(prof, e.res, store, objs, vmOpts...)
	if err != nil {
		return nil, err
	}
	e.vm = m
	return e, nil
}

// Machine returns the interpreter.
func (e *Engine) Machine() *vm.Machine { return e.vm }

// Profile returns the dialect profile.
func (e *Engine) Profile() *version.Profile { return e.prof }

// Tick returns the number of ticks run so far.
func (e *Engine) Tick() uint64 { return e.tick }

// Paused reports whether the pause key or a script paused the game.
func (e *Engine) Paused() bool { return e.paused }

// Err returns the error that stopped the engine, or nil.
func (e *Engine) Err() error { return e.fatal }

// Init prepares the variables and the screen and starts the boot script
// with bootParam.
func (e *Engine) Init(bootParam int) error {
	if e.inited {
		return errors.New("engine already initialised")
	}
	e.inited = true
	e.bootParam = bootParam

	store := e.vm.Vars()
	store.Poke(vars.VarVideoMode, videoModeVGA)
	store.Poke(vars.VarTimerNext, int32(e.prof.TimerNext))
	e.mirrorHeap()
	e.vm.Screen().ResetPalette()
	e.boot = e.Snapshot("boot")

	e.log.Info("Engine initialised", "version", e.prof.ID.String(), "boot_param", bootParam)
	return e.runBoot()
}

func (e *Engine) runBoot() error {
	if err := e.vm.RunScript(1, false, false, []int32{int32(e.bootParam)}); err != nil {
		if fatal := e.vm.Err(); fatal != nil {
			e.fatal = fmt.Errorf("%w: %w", ErrFatal, fatal)
			return e.fatal
		}
		return fmt.Errorf("boot script: %w", err)
	}
	if fatal := e.vm.Err(); fatal != nil {
		e.fatal = fmt.Errorf("%w: %w", ErrFatal, fatal)
		return e.fatal
	}
	return nil
}

// RequestQuit asks the engine to stop. RunTick observes it at the top of
// the next tick. Safe to call from any goroutine.
func (e *Engine) RequestQuit() {
	if !e.quit.Swap(true) {
		e.log.Info("Quit requested")
	}
}

// PushInput queues a device event for the next tick. Safe to call from any goroutine.
func (e *Engine) PushInput(ev InputEvent) {
	e.input.Push(ev)
}

// RunTick advances the game by deltaMs milliseconds and returns how long
// the host should wait before the next tick.
func (e *Engine) RunTick(deltaMs int) (int, error) {
	if e.quit.Load() {
		return 0, ErrTerminated
	}
	if e.fatal != nil {
		return 0, e.fatal
	}
	if !e.inited {
		return 0, errors.New("engine not initialised")
	}
	e.tick++

	jiffies := e.advanceClock(deltaMs)
	if !e.paused {
		e.advanceTimers(jiffies)
	}
	e.processInput()
	if e.paused {
		return e.nextDelay(), nil
	}
	e.mirror()

	e.handleRequests()
	if e.fatal != nil {
		return 0, e.fatal
	}

	if err := e.vm.RunAll(); err != nil {
		e.fatal = fmt.Errorf("%w: %w", ErrFatal, err)
		e.log.Error("Engine stopped", "tick", e.tick, "error", err)
		return 0, e.fatal
	}

	e.stepWorld(jiffies)
	e.composite()
	return e.nextDelay(), nil
}

// advanceClock converts deltaMs to whole jiffies, carrying the remainder
// to the next tick so no time is lost or counted twice.
func (e *Engine) advanceClock(deltaMs int) int {
	deltaMs = max(0, min(deltaMs, e.maxDelta))
	e.acc += deltaMs * 60
	jiffies := e.acc / 1000
	e.acc -= jiffies * 1000
	return jiffies
}

func (e *Engine) advanceTimers(jiffies int) {
	store := e.vm.Vars()
	j := int32(jiffies)
	store.Poke(vars.VarTimer, j)
	store.Poke(vars.VarTimerTotal, store.Peek(vars.VarTimerTotal)+j)
	for _, id := range []vars.VarID{vars.VarTmr1, vars.VarTmr2, vars.VarTmr3, vars.VarTmr4} {
		store.Poke(id, store.Peek(id)+j)
	}
	e.vm.AdvanceTimers(jiffies)
	if c, ok := e.audio.(audioClock); ok {
		c.Advance(time.Duration(jiffies) * time.Second / 60)
	}
	if e.vm.Talk().Tick(jiffies) {
		store.Poke(vars.VarHaveMsg, 0)
	}
}

// mirror copies state owned outside the variable store into it.
func (e *Engine) mirror() {
	store := e.vm.Vars()
	e.audio.Update()
	for _, id := range e.audio.Finished() {
		e.log.Debug("Sound finished", "sound", id, "tick", e.tick)
	}
	store.Poke(vars.VarMusicTimer, int32(e.audio.Timer()))
	if !e.vm.Talk().Talking() {
		store.Poke(vars.VarHaveMsg, 0)
	}
	e.mirrorHeap()
}

func (e *Engine) mirrorHeap() {
	_, maxHeap := e.res.HeapThreshold()
	free := max(0, maxHeap-e.res.Allocated())
	e.vm.Vars().Poke(vars.VarHeapSpace, int32(free/1024))
}

func (e *Engine) stepWorld(jiffies int) {
	actors, camera := e.vm.Actors(), e.vm.Camera()
	actors.Step()
	camera.Step(actors)
	e.vm.Vars().Poke(vars.VarCameraPosX, int32(camera.X))
	e.vm.Screen().Step(jiffies)
	e.res.Age()
}

// composite redraws actors over the areas they left and presents the
// dirty strips.
func (e *Engine) composite() {
	scr := e.vm.Screen()
	room := 0
	if r := e.vm.CurrentRoom(); r != nil {
		room = r.Number
	}
	if room != e.lastRoom {
		scr.Clear()
		e.lastActors = nil
		e.lastRoom = room
	}

	frame := scr.Frame()
	for _, r := range e.lastActors {
		erase(frame, r)
		scr.MarkDirty(r)
	}
	e.lastActors = nil
	if room != 0 {
		e.lastActors = e.vm.Actors().Draw(frame, room, e.vm.Camera().Left(), e.renderer, e.costume)
		for _, r := range e.lastActors {
			scr.MarkDirty(r)
		}
	}
	scr.Present()
}

func (e *Engine) costume(id int) []byte {
	data, err := e.res.Load(resource.TypeCostume, id)
	if err != nil {
		e.log.Debug("Costume unavailable", "costume", id, "error", err)
		return nil
	}
	return data
}

func erase(dst *image.Paletted, r image.Rectangle) {
	r = r.Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(r.Min.X, y):dst.PixOffset(r.Max.X, y)]
		clear(row)
	}
}

// nextDelay converts VAR_TIMER_NEXT to milliseconds.
func (e *Engine) nextDelay() int {
	next := int(e.vm.Vars().Peek(vars.VarTimerNext))
	if next <= 0 {
		next = e.prof.TimerNext
	}
	return next * 1000 / 60
}

// restart returns every table to its boot state and runs the boot script again.
func (e *Engine) restart() {
	e.restartPending = false
	e.log.Info("Restarting game")
	e.audio.StopAll()
	if err := e.apply(e.boot); err != nil {
		e.fatal = fmt.Errorf("%w: restart: %w", ErrFatal, err)
		return
	}
	if err := e.runBoot(); err != nil && e.fatal == nil {
		e.log.Error("Boot script failed on restart", "error", err)
	}
}

// dialog reports a recoverable failure to the player.
func (e *Engine) dialog(msg string, err error) {
	e.log.Warn(msg, "error", err)
	e.sink.Show(text.Message{Kind: text.KindSystem, Text: fmt.Sprintf("%s: %v", msg, err)})
}

// scriptHost receives quit, restart and pause requests from scripts.
// Restart is deferred to the next tick so it never runs inside a script.
type scriptHost struct{ e *Engine }

func (h scriptHost) Quit()    { h.e.RequestQuit() }
func (h scriptHost) Restart() { h.e.restartPending = true }
func (h scriptHost) Pause()   { h.e.paused = !h.e.paused }
