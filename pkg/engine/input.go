package engine

import (
	"sync"

	"github.com/zurustar/sputm/pkg/vars"
)

// InputKind is the kind of a host input event.
type InputKind int

const (
	InputMouseMove InputKind = iota
	InputMouseDown
	InputMouseUp
	InputKey
)

func (k InputKind) String() string {
	switch k {
	case InputMouseMove:
		return "mouse-move"
	case InputMouseDown:
		return "mouse-down"
	case InputMouseUp:
		return "mouse-up"
	case InputKey:
		return "key"
	}
	return "unknown"
}

// Mouse buttons as scripts see them.
const (
	ButtonLeft  = 1
	ButtonRight = 2
)

// Click areas passed to the input script.
const (
	areaScene = 2
	areaKey   = 4
)

// InputEvent is one device event in virtual screen coordinates.
type InputEvent struct {
	Kind   InputKind
	X, Y   int
	Button int
	Key    int
}

// DefaultInputQueueSize bounds the input queue.
const DefaultInputQueueSize = 256

// InputQueue collects events from the host goroutine until the next tick.
// When full, the oldest event is dropped.
type InputQueue struct {
	mu      sync.Mutex
	events  []InputEvent
	maxSize int
}

// NewInputQueue creates a queue holding at most maxSize events.
func NewInputQueue(maxSize int) *InputQueue {
	if maxSize <= 0 {
		maxSize = DefaultInputQueueSize
	}
	return &InputQueue{events: make([]InputEvent, 0, maxSize), maxSize: maxSize}
}

// Push appends ev.
func (q *InputQueue) Push(ev InputEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.maxSize {
		q.events = q.events[1:]
	}
	q.events = append(q.events, ev)
}

// Drain removes and returns every queued event in arrival order.
func (q *InputQueue) Drain() []InputEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := make([]InputEvent, len(q.events))
	copy(out, q.events)
	q.events = q.events[:0]
	return out
}

// Len returns the number of queued events.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// processInput applies queued events to the mouse and key variables and
// hands clicks and key presses to the input script.
func (e *Engine) processInput() {
	store := e.vm.Vars()
	store.Poke(vars.VarLeftButtonDown, 0)
	store.Poke(vars.VarRightButtonDown, 0)
	store.Poke(vars.VarKeypress, 0)

	for _, ev := range e.input.Drain() {
		switch ev.Kind {
		case InputMouseMove:
			e.mouseX, e.mouseY = ev.X, ev.Y
		case InputMouseDown:
			e.mouseX, e.mouseY = ev.X, ev.Y
			e.buttonDown(ev.Button, true)
			e.click(ev.Button)
		case InputMouseUp:
			e.buttonDown(ev.Button, false)
		case InputKey:
			e.key(ev.Key)
		}
	}

	store.Poke(vars.VarMouseX, int32(e.mouseX))
	store.Poke(vars.VarMouseY, int32(e.mouseY))
	store.Poke(vars.VarVirtMouseX, int32(e.mouseX+e.vm.Camera().Left()))
	store.Poke(vars.VarVirtMouseY, int32(e.mouseY))
}

func (e *Engine) buttonDown(button int, down bool) {
	store := e.vm.Vars()
	var v int32
	if down {
		v = 1
	}
	switch button {
	case ButtonLeft:
		store.Poke(vars.VarLeftButtonHold, v)
		if down {
			store.Poke(vars.VarLeftButtonDown, 1)
		}
	case ButtonRight:
		store.Poke(vars.VarRightButtonHold, v)
		if down {
			store.Poke(vars.VarRightButtonDown, 1)
		}
	}
}

// click runs the input script for a press in the scene, unless the game is
// paused or scripts have taken input away.
func (e *Engine) click(button int) {
	if e.paused {
		return
	}
	if _, userput := e.vm.CursorState(); userput <= 0 {
		return
	}
	e.runInputScript(areaScene, button)
}

// key handles the keys the engine owns before passing the rest to scripts.
// While paused only the pause and restart keys do anything.
func (e *Engine) key(code int) {
	store := e.vm.Vars()
	pauseKey := int(store.Peek(vars.VarPauseKey))
	restartKey := int(store.Peek(vars.VarRestartKey))
	switch {
	case code == 0:
		return
	case e.paused && code != pauseKey && code != restartKey:
		return
	case code == int(store.Peek(vars.VarCutsceneExitKey)):
		if e.vm.AbortCutscene() {
			e.log.Debug("Cutscene aborted by key", "key", code)
			return
		}
	case code == restartKey:
		e.log.Info("Restart requested by key", "key", code)
		e.restartPending = true
		return
	case code == pauseKey:
		e.paused = !e.paused
		e.log.Info("Pause toggled", "paused", e.paused)
		return
	case code == int(store.Peek(vars.VarTalkStopKey)):
		e.vm.Talk().Stop()
		return
	}
	store.Poke(vars.VarKeypress, int32(code))
	if _, userput := e.vm.CursorState(); userput <= 0 {
		return
	}
	e.runInputScript(areaKey, code)
}

func (e *Engine) runInputScript(area, value int) {
	id := int(e.vm.Vars().Peek(vars.VarVerbScript))
	if id == 0 {
		return
	}
	if err := e.vm.RunScript(id, false, false, []int32{int32(area), int32(value), 1}); err != nil {
		e.log.Warn("Input script failed", "script", id, "area", area, "value", value, "error", err)
	}
}
