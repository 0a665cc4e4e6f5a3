package vm

import (
	"fmt"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
)

// Handlers of the stack dialects. Word-sized immediates and variable words
// are read at the dialect's width, so V8 binds the same functions.

func opPushByte(m *Machine)    { m.push(int32(m.fetchByte())) }
func opPushWord(m *Machine)    { m.push(m.fetchOperand()) }
func opPushByteVar(m *Machine) { m.push(m.readVar(m.fetchByte())) }
func opPushWordVar(m *Machine) { m.push(m.readVar(m.fetchVarWord())) }

func opByteArrayRead(m *Machine) {
	arr := m.fetchByte()
	base := m.popInt()
	m.push(m.readArray(arr, 0, base))
}

func opWordArrayRead(m *Machine) {
	arr := m.fetchVarWord()
	base := m.popInt()
	m.push(m.readArray(arr, 0, base))
}

func opByteArrayIndexedRead(m *Machine) {
	arr := m.fetchByte()
	base := m.popInt()
	idx := m.popInt()
	m.push(m.readArray(arr, idx, base))
}

func opWordArrayIndexedRead(m *Machine) {
	arr := m.fetchVarWord()
	base := m.popInt()
	idx := m.popInt()
	m.push(m.readArray(arr, idx, base))
}

func opDup(m *Machine) {
	v := m.pop()
	m.push(v)
	m.push(v)
}

func opNot(m *Machine) { m.pushBool(m.pop() == 0) }

// binOp pops b then a and pushes f(a, b).
func binOp(f func(a, b int32) int32) func(*Machine) {
	return func(m *Machine) {
		b := m.pop()
		a := m.pop()
		m.push(f(a, b))
	}
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

var (
	opEq   = binOp(func(a, b int32) int32 { return b2i(a == b) })
	opNeq  = binOp(func(a, b int32) int32 { return b2i(a != b) })
	opGt   = binOp(func(a, b int32) int32 { return b2i(a > b) })
	opLt   = binOp(func(a, b int32) int32 { return b2i(a < b) })
	opLe   = binOp(func(a, b int32) int32 { return b2i(a <= b) })
	opGe   = binOp(func(a, b int32) int32 { return b2i(a >= b) })
	opAdd  = binOp(func(a, b int32) int32 { return a + b })
	opSub  = binOp(func(a, b int32) int32 { return a - b })
	opMul  = binOp(func(a, b int32) int32 { return a * b })
	opLand = binOp(func(a, b int32) int32 { return b2i(a != 0 && b != 0) })
	opLor  = binOp(func(a, b int32) int32 { return b2i(a != 0 || b != 0) })
	opBand = binOp(func(a, b int32) int32 { return a & b })
	opBor  = binOp(func(a, b int32) int32 { return a | b })
)

func opDiv(m *Machine) {
	b := m.pop()
	a := m.pop()
	if b == 0 {
		m.fail(ErrDivideByZero)
		m.push(0)
		return
	}
	m.push(a / b)
}

func opMod(m *Machine) {
	b := m.pop()
	a := m.pop()
	if b == 0 {
		m.fail(ErrDivideByZero)
		m.push(0)
		return
	}
	m.push(a % b)
}

func opAbs(m *Machine) {
	v := m.pop()
	if v < 0 {
		v = -v
	}
	m.push(v)
}

func opPop(m *Machine) { m.pop() }

func opWriteByteVar(m *Machine) { m.writeVar(m.fetchByte(), m.pop()) }
func opWriteWordVar(m *Machine) { m.writeVar(m.fetchVarWord(), m.pop()) }

func opByteArrayWrite(m *Machine) {
	arr := m.fetchByte()
	v := m.pop()
	m.writeArray(arr, 0, m.popInt(), v)
}

func opWordArrayWrite(m *Machine) {
	arr := m.fetchVarWord()
	v := m.pop()
	m.writeArray(arr, 0, m.popInt(), v)
}

func opByteArrayIndexedWrite(m *Machine) {
	arr := m.fetchByte()
	v := m.pop()
	base := m.popInt()
	m.writeArray(arr, m.popInt(), base, v)
}

func opWordArrayIndexedWrite(m *Machine) {
	arr := m.fetchVarWord()
	v := m.pop()
	base := m.popInt()
	m.writeArray(arr, m.popInt(), base, v)
}

// varAdder returns a handler adding delta to the variable that follows.
func varAdder(wordVar bool, delta int32) func(*Machine) {
	return func(m *Machine) {
		var w int
		if wordVar {
			w = m.fetchVarWord()
		} else {
			w = m.fetchByte()
		}
		m.writeVar(w, m.readVar(w)+delta)
	}
}

// arrayAdder returns a handler adding delta to an array element.
func arrayAdder(wordVar bool, delta int32) func(*Machine) {
	return func(m *Machine) {
		var arr int
		if wordVar {
			arr = m.fetchVarWord()
		} else {
			arr = m.fetchByte()
		}
		base := m.popInt()
		m.writeArray(arr, 0, base, m.readArray(arr, 0, base)+delta)
	}
}

func opIf(m *Machine)    { m.jumpRel(m.pop() != 0) }
func opIfNot(m *Machine) { m.jumpRel(m.pop() == 0) }
func opJump(m *Machine)  { m.jumpRel(true) }

func opStartScript(m *Machine) {
	args := m.popList()
	script := m.popInt()
	flags := m.popInt()
	if m.faulted() {
		return
	}
	m.startScript(script, flags&1 != 0, flags&2 != 0, args)
}

func opStartScriptQuick(m *Machine) {
	args := m.popList()
	script := m.popInt()
	if m.faulted() {
		return
	}
	m.startScript(script, false, false, args)
}

func opStartScriptQuick2(m *Machine) {
	args := m.popList()
	script := m.popInt()
	if m.faulted() {
		return
	}
	m.startScript(script, false, true, args)
}

func opStartObject(m *Machine) {
	args := m.popList()
	verb := m.popInt()
	obj := m.popInt()
	flags := m.popInt()
	if m.faulted() {
		return
	}
	m.startObject(obj, verb, flags&1 != 0, flags&2 != 0, args)
}

func opStartObjectQuick(m *Machine) {
	args := m.popList()
	verb := m.popInt()
	obj := m.popInt()
	if m.faulted() {
		return
	}
	m.startObject(obj, verb, false, true, args)
}

func opJumpToScript(m *Machine) {
	args := m.popList()
	script := m.popInt()
	flags := m.popInt()
	if m.faulted() {
		return
	}
	m.stopCurrent()
	m.startScript(script, flags&1 != 0, flags&2 != 0, args)
}

func opStopObjectCode(m *Machine) { m.stopCurrent() }
func opBreakHere(m *Machine)      { m.yield() }

func opCutscene(m *Machine) {
	args := m.popList()
	if m.faulted() {
		return
	}
	m.BeginCutscene(args)
}

func opEndCutscene(m *Machine)   { m.EndCutscene() }
func opBeginOverride(m *Machine) { m.beginOverride() }
func opEndOverride(m *Machine)   { m.endOverride() }
func opStopMusic(m *Machine)     { m.audio.StopAll() }
func opFreezeUnfreeze(m *Machine) { m.freeze(m.popInt()) }

func opCursorCommand(m *Machine) { m.cursorCommand(m.fetchByte()) }

// opCursorCommandV7 adds the transparent colour sub-opcode.
func opCursorCommandV7(m *Machine) {
	sub := m.fetchByte()
	if sub == opcode.CursorTransparent {
		m.pop()
		return
	}
	m.cursorCommand(sub)
}

func (m *Machine) cursorCommand(sub int) {
	if m.setCursor(sub) {
		return
	}
	switch sub {
	case opcode.CursorImage, opcode.CursorHotspot:
		m.pop()
		m.pop()
	case opcode.CursorInitCharset:
		m.pop()
	case opcode.CursorCharsetColors:
		m.popList()
	default:
		m.fail(subOpError(sub))
	}
}

func opIfClassOfIs(m *Machine) {
	classes := m.popList()
	obj := m.popInt()
	if m.faulted() {
		m.push(0)
		return
	}
	m.pushBool(m.classMatch(obj, classes))
}

func opSetClass(m *Machine) {
	classes := m.popList()
	obj := m.popInt()
	if !m.faulted() {
		m.setClasses(obj, classes)
	}
}

func opGetState(m *Machine) { m.push(m.getState(m.popInt())) }

func opSetState(m *Machine) {
	state := m.popInt()
	m.setState(m.popInt(), state)
}

func opSetOwner(m *Machine) {
	owner := m.popInt()
	m.setOwner(m.popInt(), owner)
}

func opGetOwner(m *Machine)         { m.push(m.getOwner(m.popInt())) }
func opStartSound(m *Machine)       { m.startSound(m.popInt()) }
func opStopSound(m *Machine)        { m.audio.StopSound(m.popInt()) }
func opStopObjectScript(m *Machine) { m.StopObjectScript(m.popInt()) }
func opPanCameraTo(m *Machine)      { m.camera.PanTo(m.popInt()) }
func opSetCameraAt(m *Machine)      { m.camera.SetAt(m.popInt()) }
func opStopScript(m *Machine)       { m.stopScriptOp(m.popInt()) }

func opActorFollowCamera(m *Machine) { m.actorFollowCamera(m.popInt()) }
func opLoadRoom(m *Machine)          { m.loadRoom(m.popInt()) }

func opWalkActorToObj(m *Machine) {
	m.popInt() // distance
	obj := m.popInt()
	m.walkActorToObject(m.popInt(), obj)
}

func opWalkActorTo(m *Machine) {
	y := m.popInt()
	x := m.popInt()
	m.check(m.actors.WalkTo(m.popInt(), x, y))
}

func opPutActorAtXY(m *Machine) {
	room := m.popInt()
	y := m.popInt()
	x := m.popInt()
	n := m.popInt()
	if room == 0xFF || room == -1 {
		room = -1
	}
	m.putActor(n, x, y, room)
}

func opPutActorAtObject(m *Machine) {
	room := m.popInt()
	obj := m.popInt()
	m.putActorAtObject(m.popInt(), obj, room)
}

func opFaceActor(m *Machine) {
	obj := m.popInt()
	m.faceActor(m.popInt(), obj)
}

func opAnimateActor(m *Machine) {
	anim := m.popInt()
	m.check(m.actors.Animate(m.popInt(), anim))
}

func opDoSentence(m *Machine) {
	b := m.popInt()
	m.pop()
	a := m.popInt()
	verb := m.popInt()
	m.queueSentence(verb, a, b)
}

func opPickupObject(m *Machine) {
	room := m.popInt()
	m.pickupObject(m.popInt(), room)
}

func opLoadRoomWithEgo(m *Machine) {
	y := m.popInt()
	x := m.popInt()
	room := m.popInt()
	obj := m.popInt()
	if m.faulted() {
		return
	}
	m.loadRoomWithEgo(obj, room, x, y)
}

func opGetRandomNumber(m *Machine) { m.push(m.random(0, m.popInt())) }

func opGetRandomNumberRange(m *Machine) {
	hi := m.popInt()
	m.push(m.random(m.popInt(), hi))
}

func opGetActorMoving(m *Machine) {
	n := m.popInt()
	m.push(b2i(m.getActor(n) != nil && m.actors.Moving(n)))
}

func opIsScriptRunning(m *Machine)     { m.pushBool(m.IsScriptRunning(m.popInt())) }
func opIsRoomScriptRunning(m *Machine) { m.pushBool(m.IsRoomScriptRunning(m.popInt())) }

func opGetActorRoom(m *Machine) {
	n := m.popInt()
	if n == 0 {
		m.push(0)
		return
	}
	m.push(m.actorValue(n, func(a *actor.Actor) int { return a.Room }))
}

func opGetObjectX(m *Machine) {
	x, _, _ := m.objectPosition(m.popInt())
	m.push(int32(x))
}

func opGetObjectY(m *Machine) {
	_, y, _ := m.objectPosition(m.popInt())
	m.push(int32(y))
}

func opGetObjectOldDir(m *Machine) {
	n := m.popInt()
	if a, err := m.actors.Get(n); err == nil {
		m.push(int32(a.Facing))
		return
	}
	m.push(0)
}

func opGetActorCostume(m *Machine) {
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.Costume }))
}

func opFindInventory(m *Machine) {
	idx := m.popInt()
	m.push(m.findInventory(m.popInt(), idx))
}

func opGetInventoryCount(m *Machine) { m.push(m.inventoryCount(m.popInt())) }
func opSetObjectName(m *Machine)     { m.setObjectName(m.popInt()) }
func opIsSoundRunning(m *Machine)    { m.pushBool(m.audio.IsSoundRunning(m.popInt())) }

func opResourceRoutines(m *Machine) {
	sub := m.fetchByte()
	if sub == opcode.ResLoadFlObject {
		obj := m.popInt()
		room := m.popInt()
		if !m.faulted() {
			m.loadFlObject(obj, room)
		}
		return
	}
	op, ok := resourceSubOps[sub]
	if !ok {
		m.fail(subOpError(sub))
		return
	}
	idx := m.popInt()
	if !m.faulted() {
		m.applyResource(op, idx)
	}
}

func opRoomOps(m *Machine) {
	switch sub := m.fetchByte(); sub {
	case opcode.RoomScroll:
		b := m.popInt()
		m.roomScroll(m.popInt(), b)
	case opcode.RoomScreen:
		m.pop()
		m.pop()
	case opcode.RoomPalette:
		idx := m.popInt()
		b := m.popInt()
		g := m.popInt()
		r := m.popInt()
		m.setPalColor(idx, r, g, b)
	case opcode.RoomShake:
		m.screen.Shake(true)
	case opcode.RoomUnshake:
		m.screen.Shake(false)
	case opcode.RoomIntensity:
		m.pop()
		m.pop()
		m.screen.SetIntensity(m.popInt())
	case opcode.RoomCycleSpeed:
		delay := m.popInt()
		m.cycleSpeed(m.popInt(), delay)
	case opcode.RoomFade:
		m.fade(m.popInt())
	case opcode.RoomRGBIntensity:
		m.pop()
		m.pop()
		b := m.popInt()
		g := m.popInt()
		r := m.popInt()
		m.screen.SetIntensity((r + g + b) / 3)
	case opcode.RoomCopyPalette:
		dst := m.popInt()
		src := m.popInt()
		c := m.screen.BaseColor(src)
		m.setPalColor(dst, int(c.R), int(c.G), int(c.B))
	case opcode.RoomNewPalette:
		m.newPalette(m.popInt())
	default:
		m.fail(subOpError(sub))
	}
}

func opActorOps(m *Machine) {
	sub := m.fetchByte()
	if sub == opcode.ActorSetCurrent {
		m.curActor = m.popInt()
		return
	}
	var a *actor.Actor
	resolve := func() bool {
		a = m.getActor(m.curActor)
		return a != nil
	}
	switch sub {
	case opcode.ActorCostume:
		v := m.popInt()
		if resolve() {
			a.Costume = v
		}
	case opcode.ActorStepDist:
		y := m.popInt()
		x := m.popInt()
		if resolve() {
			a.SpeedX, a.SpeedY = x, y
		}
	case opcode.ActorInit, opcode.ActorNew:
		if resolve() {
			m.check(m.actors.Init(m.curActor))
		}
	case opcode.ActorElevation:
		v := m.popInt()
		if resolve() {
			a.Elevation = v
		}
	case opcode.ActorTalkColor:
		v := m.popInt()
		if resolve() {
			a.TalkColor = v
		}
	case opcode.ActorName:
		name := m.fetchString()
		if !m.faulted() && resolve() {
			a.Name = name
		}
	case opcode.ActorWidth:
		v := m.popInt()
		if resolve() {
			a.Width = v
		}
	case opcode.ActorScale:
		v := m.popInt()
		if resolve() {
			a.Scale = v
		}
	case opcode.ActorIgnoreBoxes, opcode.ActorFollowBoxes:
		if resolve() {
			a.IgnoreBoxes = sub == opcode.ActorIgnoreBoxes
		}
	case opcode.ActorAnimSpeed:
		v := m.popInt()
		if resolve() {
			a.AnimSpeed = v
		}
	case opcode.ActorLayer:
		v := m.popInt()
		if resolve() {
			a.Layer = v
		}
	case opcode.ActorDirection:
		v := m.popInt()
		if resolve() {
			m.check(m.actors.Face(m.curActor, v))
		}
	default:
		m.fail(subOpError(sub))
	}
}

func opGetActorFromXY(m *Machine) {
	y := m.popInt()
	x := m.popInt()
	m.push(int32(m.actors.At(m.roomNumber(), x, y)))
}

func opFindObject(m *Machine) {
	y := m.popInt()
	x := m.popInt()
	m.push(int32(m.objectAt(x, y)))
}

func opGetVerbEntrypoint(m *Machine) {
	verb := m.popInt()
	m.push(int32(m.verbEntrypoint(m.popInt(), verb)))
}

func opArrayOps(m *Machine) {
	sub := m.fetchByte()
	arr := m.fetchVarWord()
	switch sub {
	case opcode.ArrayAssignString:
		base := m.popInt()
		s := m.fetchString()
		if m.faulted() {
			return
		}
		if _, err := m.defineArray(arr, opcode.DimString, 0, base+len(s)); !m.check(err) {
			return
		}
		for i, c := range s {
			m.writeArray(arr, 0, base+i, int32(c))
		}
	case opcode.ArrayAssignList:
		base := m.popInt()
		list := m.popList()
		if m.faulted() {
			return
		}
		if m.readVar(arr) == 0 {
			if _, err := m.defineArray(arr, opcode.DimInt, 0, base+len(list)); !m.check(err) {
				return
			}
		}
		for i, v := range list {
			m.writeArray(arr, 0, base+i, v)
		}
	case opcode.ArrayAssign2D:
		base := m.popInt()
		list := m.popList()
		idx := m.popInt()
		if m.faulted() {
			return
		}
		if m.readVar(arr) == 0 {
			m.fail(fmt.Errorf("2D assign to undefined array: %w", ErrBadArray))
			return
		}
		for i, v := range list {
			m.writeArray(arr, idx, base+i, v)
		}
	default:
		m.fail(subOpError(sub))
	}
}

func opGetActorWidth(m *Machine) {
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.Width }))
}

func opGetActorScaleX(m *Machine) {
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.Scale }))
}

func opGetActorAnimCounter(m *Machine) {
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.AnimCounter }))
}

func opWait(m *Machine) {
	sub := m.fetchByte()
	if sub == opcode.WaitForActor {
		m.fetchOperand()
		n := m.popInt()
		if !m.faulted() {
			m.waitOp(sub, n)
		}
		return
	}
	m.waitOp(sub, 0)
}

func opIsAnyOf(m *Machine) {
	list := m.popList()
	v := m.pop()
	found := false
	for _, x := range list {
		if x == v {
			found = true
			break
		}
	}
	m.pushBool(found)
}

func opSystemOps(m *Machine) { m.systemOp(m.fetchByte()) }

func opDelay(m *Machine)        { m.delay(m.popInt()) }
func opDelaySeconds(m *Machine) { m.delay(m.popInt() * 60) }
func opDelayMinutes(m *Machine) { m.delay(m.popInt() * 3600) }

// opDelayFrames waits n frames of the main loop; one frame is TimerNext jiffies.
func opDelayFrames(m *Machine) {
	n := m.popInt()
	step := int(m.engineVar(vars.VarTimerNext))
	if step <= 0 {
		step = m.prof.TimerNext
	}
	m.delay(n * step)
}

func opStopSentence(m *Machine) {
	m.sentences = m.sentences[:0]
	if id := int(m.engineVar(vars.VarSentenceScript)); id != 0 {
		m.StopScript(id)
	}
}

// printer returns the handler of a print opcode for kind.
func printer(kind text.Kind) func(*Machine) {
	return func(m *Machine) { m.printOps(kind) }
}

func opPrintEgo(m *Machine) {
	m.push(m.engineVar(vars.VarEgo))
	m.printOps(text.KindActor)
}

func opTalkActor(m *Machine) { m.talkActor(m.popInt()) }
func opTalkEgo(m *Machine)   { m.talkActor(int(m.engineVar(vars.VarEgo))) }

func opDimArray(m *Machine) {
	kind := m.fetchByte()
	arr := m.fetchVarWord()
	if kind == opcode.DimNuke {
		m.nukeArray(int(m.readVar(arr)))
		m.writeVar(arr, 0)
		return
	}
	dim1 := m.popInt()
	if m.faulted() {
		return
	}
	_, err := m.defineArray(arr, kind, 0, dim1)
	m.check(err)
}

func opDim2DimArray(m *Machine) {
	kind := m.fetchByte()
	arr := m.fetchVarWord()
	if kind == opcode.DimNuke {
		m.nukeArray(int(m.readVar(arr)))
		m.writeVar(arr, 0)
		return
	}
	dim1 := m.popInt()
	dim2 := m.popInt()
	if m.faulted() {
		return
	}
	_, err := m.defineArray(arr, kind, dim2, dim1)
	m.check(err)
}

func opDistObjectObject(m *Machine) {
	b := m.popInt()
	m.push(m.dist(m.popInt(), b))
}

func opDistPtPt(m *Machine) {
	y2 := m.popInt()
	x2 := m.popInt()
	y1 := m.popInt()
	x1 := m.popInt()
	m.push(int32(max(abs(x1-x2), abs(y1-y2))))
}

func opKernelGetFunctions(m *Machine) {
	args := m.popList()
	if m.faulted() {
		return
	}
	m.push(m.kernelGet(args))
}

func opKernelSetFunctions(m *Machine) {
	args := m.popList()
	if !m.faulted() {
		m.kernelSet(args)
	}
}

func opPickOneOf(m *Machine) {
	list := m.popList()
	i := m.popInt()
	if m.faulted() {
		return
	}
	if i < 0 || i >= len(list) {
		m.fail(fmt.Errorf("pick %d of %d: %w", i, len(list), ErrBadArray))
		m.push(0)
		return
	}
	m.push(list[i])
}

func opPickOneOfDefault(m *Machine) {
	def := m.pop()
	list := m.popList()
	i := m.popInt()
	if m.faulted() {
		return
	}
	if i < 0 || i >= len(list) {
		m.push(def)
		return
	}
	m.push(list[i])
}

func opGetDateTime(m *Machine) { m.getDateTime() }
func opStopTalking(m *Machine) { m.talk.Stop() }

func opGetAnimateVariable(m *Machine) {
	m.popInt() // variable number
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.AnimCounter }))
}

func opShuffle(m *Machine) {
	hi := m.popInt()
	lo := m.popInt()
	arr := m.fetchVarWord()
	if !m.faulted() {
		m.shuffle(arr, lo, hi)
	}
}

// opFindAllObjects stores the objects of a room in an int array held by
// global 0 and pushes the array id. Element 0 is the count.
func opFindAllObjects(m *Machine) {
	room := m.popInt()
	if m.faulted() {
		return
	}
	ids := m.objs.InRoom(room)
	if _, err := m.defineArray(0, opcode.DimInt, 0, len(ids)); !m.check(err) {
		m.push(0)
		return
	}
	m.writeArray(0, 0, 0, int32(len(ids)))
	for i, id := range ids {
		m.writeArray(0, 0, i+1, int32(id))
	}
	m.push(m.readVar(0))
}

func opGetActorElevation(m *Machine) {
	m.push(m.actorValue(m.popInt(), func(a *actor.Actor) int { return a.Elevation }))
}

func opSoundKludge(m *Machine) {
	args := m.popList()
	if !m.faulted() {
		m.soundKludge(args)
	}
}
