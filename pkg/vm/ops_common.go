package vm

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/audio"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/vars"
)

// Helpers shared by every dialect. Operands are already decoded; errors from
// the stores fault the executing instance.

func subOpError(sub int) error {
	return fmt.Errorf("sub-opcode 0x%02x: %w", sub, ErrUnknownSubOp)
}

func (m *Machine) check(err error) bool {
	if err != nil {
		m.fail(err)
		return false
	}
	return true
}

func (m *Machine) getState(obj int) int32 {
	v, err := m.objs.State(obj)
	m.check(err)
	return int32(v)
}

func (m *Machine) setState(obj, state int) {
	m.check(m.objs.PutState(obj, state))
}

func (m *Machine) getOwner(obj int) int32 {
	v, err := m.objs.Owner(obj)
	m.check(err)
	return int32(v)
}

// setOwner changes the owner of obj. Objects given back to no one or to
// their room leave the inventory.
func (m *Machine) setOwner(obj, owner int) {
	if !m.check(m.objs.PutOwner(obj, owner)) {
		return
	}
	if owner == 0 || owner == m.prof.OwnerRoom {
		m.dropInventory()
	}
}

// classMatch reports whether obj satisfies every class in classes. A class
// with bit 0x80 must be set, one without it must be clear.
func (m *Machine) classMatch(obj int, classes []int32) bool {
	ok := true
	for _, c := range classes {
		cls := int(c) & 0x7F
		has, err := m.objs.Class(obj, cls)
		if !m.check(err) {
			return false
		}
		if has != (c&0x80 != 0) {
			ok = false
		}
	}
	return ok
}

// setClasses applies a class list to obj. Class 0 clears every class.
func (m *Machine) setClasses(obj int, classes []int32) {
	for _, c := range classes {
		cls := int(c) & 0x7F
		if !m.check(m.objs.PutClass(obj, cls, c&0x80 != 0 && cls != 0)) {
			return
		}
	}
}

func (m *Machine) findInventory(owner, idx int) int32 {
	n := 0
	for _, obj := range m.inventory {
		if o, err := m.objs.Owner(obj); err == nil && o == owner {
			n++
			if n == idx {
				return int32(obj)
			}
		}
	}
	return 0
}

func (m *Machine) inventoryCount(owner int) int32 {
	var n int32
	for _, obj := range m.inventory {
		if o, err := m.objs.Owner(obj); err == nil && o == owner {
			n++
		}
	}
	return n
}

func (m *Machine) getActor(n int) *actor.Actor {
	a, err := m.actors.Get(n)
	if !m.check(err) {
		return nil
	}
	return a
}

// actorValue reads a property of actor n, faulting on a bad actor number.
func (m *Machine) actorValue(n int, f func(a *actor.Actor) int) int32 {
	a := m.getActor(n)
	if a == nil {
		return 0
	}
	return int32(f(a))
}

func (m *Machine) putActor(n, x, y, room int) {
	a := m.getActor(n)
	if a == nil {
		return
	}
	if room < 0 {
		room = a.Room
	}
	m.check(m.actors.Put(n, x, y, room))
}

func (m *Machine) putActorAtObject(n, obj, room int) {
	x, y, ok := m.objectPosition(obj)
	if !ok {
		x, y = 160, 120
	}
	m.putActor(n, x, y, room)
}

func (m *Machine) walkActorToObject(n, obj int) {
	x, y, ok := m.objectPosition(obj)
	if !ok {
		m.log.Debug("Walk to unknown object", "actor", n, "object", obj)
		return
	}
	m.check(m.actors.WalkTo(n, x, y))
}

func (m *Machine) faceActor(n, obj int) {
	if _, err := m.actors.Get(obj); err == nil {
		m.check(m.actors.FaceActor(n, obj))
		return
	}
	a := m.getActor(n)
	x, y, ok := m.objectPosition(obj)
	if a == nil || !ok {
		return
	}
	dx, dy := x-a.X, y-a.Y
	dir := actor.DirSouth
	switch {
	case abs(dx) > abs(dy) && dx > 0:
		dir = actor.DirEast
	case abs(dx) > abs(dy):
		dir = actor.DirWest
	case dy < 0:
		dir = actor.DirNorth
	}
	m.check(m.actors.Face(n, dir))
}

// actorFollowCamera makes the camera follow n, entering n's room when it is
// not the current one.
func (m *Machine) actorFollowCamera(n int) {
	a := m.getActor(n)
	if a == nil {
		return
	}
	m.camera.FollowActor(n)
	if a.Room != 0 && a.Room != m.roomNumber() {
		m.loadRoom(a.Room)
		return
	}
	m.camera.SetAt(a.X)
	m.camera.FollowActor(n)
}

// loadRoom changes scene. The executing instance may be killed by it.
func (m *Machine) loadRoom(room int) {
	in, id := m.cur, m.cur.id
	err := m.StartScene(room)
	if err == nil {
		return
	}
	if in.id == id && m.fatal == nil {
		m.fail(err)
		return
	}
	m.log.Warn("Scene change failed", "room", room, "error", err)
}

// loadRoomWithEgo puts ego beside obj in room, enters it and walks ego to (x, y).
func (m *Machine) loadRoomWithEgo(obj, room, x, y int) {
	ego := int(m.engineVar(vars.VarEgo))
	if m.getActor(ego) == nil {
		return
	}
	m.check(m.actors.PutInRoom(ego, room))
	in, id := m.cur, m.cur.id
	m.setEngineVar(vars.VarWalkToObj, int32(obj))
	m.loadRoom(room)
	if in.id != id || m.room == nil {
		return
	}
	m.setEngineVar(vars.VarWalkToObj, 0)
	m.putActorAtObject(ego, obj, room)
	if a := m.getActor(ego); a != nil {
		m.camera.SetAt(a.X)
	}
	m.camera.FollowActor(ego)
	if x != -1 && y != -1 {
		m.check(m.actors.WalkTo(ego, x, y))
	}
}

func (m *Machine) pickupObject(obj, room int) {
	if room == 0 {
		room = m.roomNumber()
	}
	if err := m.PickupObject(obj, room); err != nil {
		if errors.Is(err, vars.ErrObjectOutOfRange) {
			m.fail(err)
			return
		}
		m.log.Warn("Pickup failed", "object", obj, "room", room, "error", err)
	}
}

// dist is the distance between two actors or objects; 0xFF when either is unknown.
func (m *Machine) dist(a, b int) int32 {
	ax, ay, ok1 := m.objectPosition(a)
	bx, by, ok2 := m.objectPosition(b)
	if !ok1 || !ok2 {
		return 0xFF
	}
	return int32(max(abs(ax-bx), abs(ay-by)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (m *Machine) random(lo, hi int) int32 {
	if hi < lo {
		lo, hi = hi, lo
	}
	v := int32(lo + m.rnd.IntN(hi-lo+1))
	m.setEngineVar(vars.VarRandomNr, v)
	return v
}

func (m *Machine) startSound(id int) {
	data, err := m.res.Load(resource.TypeSound, id)
	if err != nil {
		m.log.Warn("Sound not available", "sound", id, "error", err)
		return
	}
	if err := m.audio.PlaySound(id, data, 0, audio.MaxVolume, 0); err != nil {
		m.log.Warn("Sound not started", "sound", id, "error", err)
		return
	}
	m.setEngineVar(vars.VarLastSound, int32(id))
}

// soundKludge passes a command list to the music driver. Only the start,
// stop and stop-all commands are acted on.
func (m *Machine) soundKludge(args []int32) {
	if len(args) == 0 {
		return
	}
	switch {
	case args[0] == opcode.KludgeStopAll:
		m.audio.StopAll()
	case len(args) < 2:
	case args[0] == opcode.KludgeStart:
		m.startSound(int(args[1]))
	case args[0] == opcode.KludgeStop:
		m.audio.StopSound(int(args[1]))
	}
}

func (m *Machine) freeze(v int) {
	if v != 0 {
		m.FreezeScripts(v >= 0x80)
		return
	}
	m.UnfreezeScripts()
}

// stopScriptOp stops script id; 0 stops the executing instance.
func (m *Machine) stopScriptOp(id int) {
	if id == 0 {
		m.stopCurrent()
		return
	}
	m.StopScript(id)
}

// chainScript replaces the executing instance with script id.
func (m *Machine) chainScript(id int, args []int32) {
	fr := m.cur.FreezeResistant
	m.stopCurrent()
	m.startScript(id, fr, false, args)
}

type resAction uint8

const (
	resLoad resAction = iota
	resNuke
	resLock
	resUnlock
)

type resOp struct {
	t   resource.Type
	act resAction
}

// resourceSubOps maps the resourceRoutines sub-opcodes of the stack dialects.
var resourceSubOps = map[int]resOp{
	opcode.ResLoadScript:    {resource.TypeScript, resLoad},
	opcode.ResLoadSound:     {resource.TypeSound, resLoad},
	opcode.ResLoadCostume:   {resource.TypeCostume, resLoad},
	opcode.ResLoadRoom:      {resource.TypeRoom, resLoad},
	opcode.ResNukeScript:    {resource.TypeScript, resNuke},
	opcode.ResNukeSound:     {resource.TypeSound, resNuke},
	opcode.ResNukeCostume:   {resource.TypeCostume, resNuke},
	opcode.ResNukeRoom:      {resource.TypeRoom, resNuke},
	opcode.ResLockScript:    {resource.TypeScript, resLock},
	opcode.ResLockSound:     {resource.TypeSound, resLock},
	opcode.ResLockCostume:   {resource.TypeCostume, resLock},
	opcode.ResLockRoom:      {resource.TypeRoom, resLock},
	opcode.ResUnlockScript:  {resource.TypeScript, resUnlock},
	opcode.ResUnlockSound:   {resource.TypeSound, resUnlock},
	opcode.ResUnlockCostume: {resource.TypeCostume, resUnlock},
	opcode.ResUnlockRoom:    {resource.TypeRoom, resUnlock},
	opcode.ResLoadCharset:   {resource.TypeCharset, resLoad},
	opcode.ResNukeCharset:   {resource.TypeCharset, resNuke},
}

// applyResource applies a load, nuke, lock or unlock request from a script.
func (m *Machine) applyResource(op resOp, idx int) {
	switch op.act {
	case resLoad:
		if _, err := m.res.Load(op.t, idx); err != nil {
			m.fail(err)
		}
	case resNuke:
		if op.t == resource.TypeRoom && idx == m.roomNumber() {
			return
		}
		m.res.Free(op.t, idx)
	case resLock:
		m.check(m.res.Lock(op.t, idx))
	case resUnlock:
		if err := m.res.Unlock(op.t, idx); err != nil && !errors.Is(err, resource.ErrLogic) {
			m.fail(err)
		}
	}
}

// loadFlObject loads and pins the room holding obj so its code stays reachable.
func (m *Machine) loadFlObject(obj, room int) {
	if _, err := m.res.Load(resource.TypeRoom, room); err != nil {
		m.fail(err)
		return
	}
	m.check(m.res.Lock(resource.TypeRoom, room))
	m.log.Debug("Flobject loaded", "object", obj, "room", room)
}

// setCursor applies a cursor or userput state sub-opcode and mirrors the
// counters into their variables. It reports whether sub was one of them.
func (m *Machine) setCursor(sub int) bool {
	switch sub {
	case opcode.CursorOn:
		m.cursor = 1
	case opcode.CursorOff:
		m.cursor = 0
	case opcode.UserputOn:
		m.userput = 1
	case opcode.UserputOff:
		m.userput = 0
	case opcode.CursorSoftOn:
		m.cursor++
	case opcode.CursorSoftOff:
		m.cursor--
	case opcode.UserputSoftOn:
		m.userput++
	case opcode.UserputSoftOff:
		m.userput--
	default:
		return false
	}
	m.setEngineVar(vars.VarCursorState, int32(m.cursor))
	m.setEngineVar(vars.VarUserPut, int32(m.userput))
	return true
}

func (m *Machine) systemOp(sub int) {
	switch sub {
	case opcode.SysRestart:
		m.host.Restart()
	case opcode.SysPause:
		m.host.Pause()
	case opcode.SysQuit:
		m.host.Quit()
	default:
		m.fail(subOpError(sub))
	}
}

func (m *Machine) waitOp(sub, arg int) {
	switch sub {
	case opcode.WaitForActor:
		m.wait(WaitActor, arg)
	case opcode.WaitForMessage:
		m.wait(WaitMessage, 0)
	case opcode.WaitForCamera:
		m.wait(WaitCamera, 0)
	case opcode.WaitForSentence:
		m.wait(WaitSentence, 0)
	default:
		m.fail(subOpError(sub))
	}
}

// Room and palette effects.

func (m *Machine) roomScroll(minX, maxX int) {
	half := m.camera.Width / 2
	minX = max(minX, half)
	maxX = max(maxX, minX)
	m.camera.MinX, m.camera.MaxX = minX, maxX
	m.camera.SetAt(m.camera.X)
	m.setEngineVar(vars.VarCameraMinX, int32(minX))
	m.setEngineVar(vars.VarCameraMaxX, int32(maxX))
}

func (m *Machine) setPalColor(idx, r, g, b int) {
	m.screen.SetColor(idx, color.RGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: 0xFF})
}

func clamp8(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

func (m *Machine) cycleSpeed(slot, delay int) {
	cycles := m.screen.Cycles()
	if slot < 1 || slot > screen.NumCycles {
		m.fail(fmt.Errorf("cycle %d: %w", slot, screen.ErrBadCycle))
		return
	}
	c := cycles[slot-1]
	c.Delay = delay
	m.check(m.screen.SetCycle(slot-1, c))
}

// fade starts a screen transition: effects with bit 0x80 fade to black.
func (m *Machine) fade(effect int) {
	step := int(m.engineVar(vars.VarFadeDelay))
	if step <= 0 {
		step = 16
	}
	if effect&0x80 != 0 {
		m.screen.FadeTo(0, step)
		return
	}
	m.screen.FadeTo(screen.MaxIntensity, step)
}

func (m *Machine) newPalette(room int) {
	if m.room == nil || m.room.Number != room {
		m.log.Debug("Palette of a room that is not loaded", "room", room)
		return
	}
	m.screen.ResetPalette()
	if len(m.room.Palette) > 0 {
		m.check(m.screen.LoadPalette(m.room.Palette))
	}
}

// Kernel functions of the stack dialects.

func (m *Machine) kernelGet(args []int32) int32 {
	if len(args) == 0 {
		m.fail(fmt.Errorf("kernel query without arguments: %w", ErrStackUnderflow))
		return 0
	}
	switch args[0] {
	case opcode.KernelPixel:
		if len(args) < 3 {
			break
		}
		f := m.screen.Frame()
		x, y := int(args[1]), int(args[2])
		if x < 0 || y < 0 || x >= f.Rect.Dx() || y >= f.Rect.Dy() {
			return -1
		}
		return int32(f.ColorIndexAt(x, y))
	case opcode.KernelActorBox:
		if len(args) < 2 {
			break
		}
		if a, err := m.actors.Get(int(args[1])); err == nil {
			return int32(a.Bounds().Dx())
		}
		return 0
	}
	m.log.Debug("Unhandled kernel query", "function", args[0])
	return 0
}

func (m *Machine) kernelSet(args []int32) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case opcode.KernelSetPalette:
		if len(args) >= 5 {
			m.setPalColor(int(args[1]), int(args[2]), int(args[3]), int(args[4]))
			return
		}
	}
	m.log.Debug("Unhandled kernel call", "function", args[0], "args", len(args)-1)
}

// getDateTime stores the wall clock in the date/time variables.
func (m *Machine) getDateTime() {
	now := time.Now()
	m.setEngineVar(vars.VarTimeDateYear, int32(now.Year()-1900))
	m.setEngineVar(vars.VarTimeDateMonth, int32(now.Month())-1)
	m.setEngineVar(vars.VarTimeDateDay, int32(now.Day()))
	m.setEngineVar(vars.VarTimeDateHour, int32(now.Hour()))
	m.setEngineVar(vars.VarTimeDateMinute, int32(now.Minute()))
	m.setEngineVar(vars.VarTimeDateSecond, int32(now.Second()))
}

// setObjectName renames obj with the inline name that follows.
func (m *Machine) setObjectName(obj int) {
	name := m.fetchString()
	if m.faulted() {
		return
	}
	if obj > 0 && obj < m.actors.Count() {
		m.fail(fmt.Errorf("rename of actor %d: %w", obj, vars.ErrObjectOutOfRange))
		return
	}
	if _, err := m.objs.Owner(obj); !m.check(err) {
		return
	}
	m.objectNames[obj] = name
}

// shuffle permutes elements lo..hi of the one-dimensional array in varWord.
func (m *Machine) shuffle(varWord, lo, hi int) {
	for i := hi; i > lo; i-- {
		j := lo + m.rnd.IntN(i-lo+1)
		a, b := m.readArray(varWord, 0, i), m.readArray(varWord, 0, j)
		m.writeArray(varWord, 0, i, b)
		m.writeArray(varWord, 0, j, a)
		if m.faulted() {
			return
		}
	}
}
