package vm

import (
	"fmt"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
)

var v5Table Table

// Operand decoding of the V5 dialect. The parameter bits live in the byte
// last stored in m.op: the opcode itself, or the sub-opcode being decoded.

// argByte reads a byte operand, or a variable when mask is set in m.op.
func (m *Machine) argByte(mask int) int {
	if m.op&mask != 0 {
		return int(m.readVar(m.fetchWord()))
	}
	return m.fetchByte()
}

// argWord reads a signed word operand, or a variable when mask is set in m.op.
func (m *Machine) argWord(mask int) int {
	if m.op&mask != 0 {
		return int(m.readVar(m.fetchWord()))
	}
	return m.fetchSWord()
}

// varArgs reads a word argument list terminated by 0xFF.
func (m *Machine) varArgs() []int32 {
	saved := m.op
	defer func() { m.op = saved }()
	var args []int32
	for !m.faulted() {
		b := m.fetchByte()
		if b == opcode.V5End {
			break
		}
		m.op = b
		args = append(args, int32(m.argWord(opcode.Param1)))
	}
	return args
}

// subOps calls fn with every sub-opcode up to the 0xFF terminator, each one
// stored in m.op while fn decodes its operands.
func (m *Machine) subOps(fn func(sub int) bool) {
	saved := m.op
	defer func() { m.op = saved }()
	for !m.faulted() {
		sub := m.fetchByte()
		if sub == opcode.V5End {
			return
		}
		m.op = sub
		if !fn(sub) {
			return
		}
	}
}

// getResultPos reads the result variable of the current opcode.
func (m *Machine) getResultPos() { m.resultPos = m.indirect(m.fetchWord()) }

func (m *Machine) setResult(v int32) { m.writeVar(m.resultPos, v) }

// resultOf returns a handler that stores f's value in the result variable.
func resultOf(f func(m *Machine) int32) func(*Machine) {
	return func(m *Machine) {
		m.getResultPos()
		v := f(m)
		if !m.faulted() {
			m.setResult(v)
		}
	}
}

// actorResult returns a handler storing a property of the actor operand.
func actorResult(f func(a *actor.Actor) int) func(*Machine) {
	return resultOf(func(m *Machine) int32 {
		return m.actorValue(m.argByte(opcode.Param1), f)
	})
}

// arith returns a handler combining the result variable with a word operand.
func arith(f func(a, b int32) int32) func(*Machine) {
	return func(m *Machine) {
		m.getResultPos()
		b := int32(m.argWord(opcode.Param1))
		a := m.readVar(m.resultPos)
		if !m.faulted() {
			m.setResult(f(a, b))
		}
	}
}

// step returns a handler adding delta to the result variable.
func step(delta int32) func(*Machine) {
	return func(m *Machine) {
		m.getResultPos()
		m.setResult(m.readVar(m.resultPos) + delta)
	}
}

// compare returns a conditional jump: a variable is compared against a word
// operand, and the jump is taken when cond fails.
func compare(cond func(a, b int32) bool) func(*Machine) {
	return func(m *Machine) {
		a := m.readVar(m.fetchWord())
		b := int32(m.argWord(opcode.Param1))
		m.jumpRel(!cond(a, b))
	}
}

func opPutActorV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	x := m.argWord(opcode.Param2)
	y := m.argWord(opcode.Param3)
	if !m.faulted() {
		m.putActor(n, x, y, -1)
	}
}

func opStartSoundV5(m *Machine) { m.startSound(m.argByte(opcode.Param1)) }

func opSetStateV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	state := m.argByte(opcode.Param2)
	if !m.faulted() {
		m.setState(obj, state)
	}
}

func opFaceActorV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	obj := m.argWord(opcode.Param2)
	if !m.faulted() {
		m.faceActor(n, obj)
	}
}

// opStartScriptV5 takes its flags from the opcode: 0x20 freeze resistant,
// 0x40 recursive.
func opStartScriptV5(m *Machine) {
	op := m.op
	script := m.argByte(opcode.Param1)
	args := m.varArgs()
	if !m.faulted() {
		m.startScript(script, op&0x20 != 0, op&0x40 != 0, args)
	}
}

var v5ResourceSubOps = map[int]int{
	opcode.V5ResLoadScript:    opcode.ResLoadScript,
	opcode.V5ResLoadSound:     opcode.ResLoadSound,
	opcode.V5ResLoadCostume:   opcode.ResLoadCostume,
	opcode.V5ResLoadRoom:      opcode.ResLoadRoom,
	opcode.V5ResNukeScript:    opcode.ResNukeScript,
	opcode.V5ResNukeSound:     opcode.ResNukeSound,
	opcode.V5ResNukeCostume:   opcode.ResNukeCostume,
	opcode.V5ResNukeRoom:      opcode.ResNukeRoom,
	opcode.V5ResLockScript:    opcode.ResLockScript,
	opcode.V5ResLockSound:     opcode.ResLockSound,
	opcode.V5ResLockCostume:   opcode.ResLockCostume,
	opcode.V5ResLockRoom:      opcode.ResLockRoom,
	opcode.V5ResUnlockScript:  opcode.ResUnlockScript,
	opcode.V5ResUnlockSound:   opcode.ResUnlockSound,
	opcode.V5ResUnlockCostume: opcode.ResUnlockCostume,
	opcode.V5ResUnlockRoom:    opcode.ResUnlockRoom,
	opcode.V5ResLoadCharset:   opcode.ResLoadCharset,
	opcode.V5ResNukeCharset:   opcode.ResNukeCharset,
}

func opResourceRoutinesV5(m *Machine) {
	sub := m.fetchByte()
	saved := m.op
	m.op = sub
	defer func() { m.op = saved }()
	switch sub & 0x1F {
	case opcode.V5ResClearHeap:
		m.res.Purge()
		return
	case opcode.V5ResLoadFlObject:
		room := m.argByte(opcode.Param1)
		obj := m.argWord(opcode.Param2)
		if !m.faulted() {
			m.loadFlObject(obj, room)
		}
		return
	}
	idx := m.argByte(opcode.Param1)
	op, ok := resourceSubOps[v5ResourceSubOps[sub&0x1F]]
	if !ok {
		m.fail(subOpError(sub))
		return
	}
	if !m.faulted() {
		m.applyResource(op, idx)
	}
}

func opWalkActorToActor(m *Machine) {
	n := m.argByte(opcode.Param1)
	target := m.argByte(opcode.Param2)
	m.fetchByte() // distance
	if m.faulted() {
		return
	}
	t := m.getActor(target)
	if t == nil || t.Room != m.roomNumber() {
		return
	}
	m.check(m.actors.WalkTo(n, t.X, t.Y))
}

func opPutActorAtObjectV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	obj := m.argWord(opcode.Param2)
	if !m.faulted() {
		m.putActorAtObject(n, obj, -1)
	}
}

func opAnimateActorV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	anim := m.argByte(opcode.Param2)
	if !m.faulted() {
		m.check(m.actors.Animate(n, anim))
	}
}

func opActorOpsV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	if m.faulted() {
		return
	}
	a := m.getActor(n)
	if a == nil {
		return
	}
	m.subOps(func(sub int) bool {
		switch sub & 0x1F {
		case opcode.V5ActorCostume:
			a.Costume = m.argByte(opcode.Param1)
		case opcode.V5ActorStepDist:
			a.SpeedX = m.argByte(opcode.Param1)
			a.SpeedY = m.argByte(opcode.Param2)
		case opcode.V5ActorSound, opcode.V5ActorWalkAnim, opcode.V5ActorStandAnim, opcode.V5ActorInitAnim:
			m.argByte(opcode.Param1)
		case opcode.V5ActorTalkAnim:
			m.argByte(opcode.Param1)
			m.argByte(opcode.Param2)
		case opcode.V5ActorInit:
			m.check(m.actors.Init(n))
		case opcode.V5ActorElevation:
			a.Elevation = m.argWord(opcode.Param1)
		case opcode.V5ActorDefaultAnim:
			a.Frame = 0
		case opcode.V5ActorTalkColor:
			a.TalkColor = m.argByte(opcode.Param1)
		case opcode.V5ActorName:
			if name := m.fetchString(); !m.faulted() {
				a.Name = name
			}
		case opcode.V5ActorWidth:
			a.Width = m.argByte(opcode.Param1)
		case opcode.V5ActorScale:
			a.Scale = m.argByte(opcode.Param1)
			m.argByte(opcode.Param2)
		case opcode.V5ActorIgnoreBoxes, opcode.V5ActorFollowBoxes:
			a.IgnoreBoxes = sub&0x1F == opcode.V5ActorIgnoreBoxes
		case opcode.V5ActorAnimSpeed:
			a.AnimSpeed = m.argByte(opcode.Param1)
		default:
			m.fail(subOpError(sub))
			return false
		}
		return true
	})
}

// printKind maps the pseudo actors of V5 print to message kinds.
func printKind(n int) text.Kind {
	switch n {
	case 252:
		return text.KindSystem
	case 253:
		return text.KindText
	case 254:
		return text.KindLine
	}
	return text.KindActor
}

// printV5 decodes the print sub-opcodes for actor n. The message ends the list.
func (m *Machine) printV5(n int) {
	kind := printKind(n)
	st := &m.printStyle[kind]
	*st = m.printDefault[kind]
	m.printActor = n
	m.subOps(func(sub int) bool {
		switch sub & 0x0F {
		case opcode.V5PrintAt:
			st.X = m.argWord(opcode.Param1)
			st.Y = m.argWord(opcode.Param2)
			st.Overhead = false
		case opcode.V5PrintColor:
			st.Color = m.argByte(opcode.Param1)
		case opcode.V5PrintClipped:
			st.Right = m.argWord(opcode.Param1)
		case opcode.V5PrintErase:
			m.argWord(opcode.Param1)
			m.argWord(opcode.Param2)
		case opcode.V5PrintCenter:
			st.Center = true
			st.Overhead = false
		case opcode.V5PrintLeft:
			st.Center = false
			st.Overhead = false
		case opcode.V5PrintOverhead:
			st.Overhead = true
		case opcode.V5PrintVoice:
			m.argWord(opcode.Param1)
			m.argWord(opcode.Param2)
		case opcode.V5PrintString:
			msg := m.fetchString()
			if !m.faulted() {
				m.showMessage(kind, n, msg)
			}
			return false
		default:
			m.fail(subOpError(sub))
			return false
		}
		return true
	})
}

func opPrintV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	if !m.faulted() {
		m.printV5(n)
	}
}

func opPrintEgoV5(m *Machine) { m.printV5(int(m.engineVar(vars.VarEgo))) }

func opDoSentenceV5(m *Machine) {
	verb := m.argByte(opcode.Param1)
	if verb == 0xFE {
		opStopSentence(m)
		return
	}
	a := m.argWord(opcode.Param2)
	b := m.argWord(opcode.Param3)
	if !m.faulted() {
		m.queueSentence(verb, a, b)
	}
}

func opIfClassOfIsV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	var classes []int32
	m.subOps(func(int) bool {
		classes = append(classes, int32(m.argWord(opcode.Param1)))
		return true
	})
	if m.faulted() {
		return
	}
	m.jumpRel(!m.classMatch(obj, classes))
}

func opSetClassV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	var classes []int32
	m.subOps(func(int) bool {
		classes = append(classes, int32(m.argWord(opcode.Param1)))
		return true
	})
	if !m.faulted() {
		m.setClasses(obj, classes)
	}
}

func opWalkActorToV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	x := m.argWord(opcode.Param2)
	y := m.argWord(opcode.Param3)
	if !m.faulted() {
		m.check(m.actors.WalkTo(n, x, y))
	}
}

func opLoadRoomWithEgoV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	room := m.argByte(opcode.Param2)
	x := m.fetchSWord()
	y := m.fetchSWord()
	if !m.faulted() {
		m.loadRoomWithEgo(obj, room, x, y)
	}
}

func opPickupObjectV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	room := m.argByte(opcode.Param2)
	if !m.faulted() {
		m.pickupObject(obj, room)
	}
}

// opSetVarRange writes a run of immediates to consecutive variables, words
// when bit 0x80 of the opcode is set.
func opSetVarRange(m *Machine) {
	m.getResultPos()
	n := m.fetchByte()
	for ; n > 0 && !m.faulted(); n-- {
		var v int
		if m.op&0x80 != 0 {
			v = m.fetchSWord()
		} else {
			v = m.fetchByte()
		}
		m.setResult(int32(v))
		m.resultPos++
	}
}

func opSetOwnerOfV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	owner := m.argByte(opcode.Param2)
	if !m.faulted() {
		m.setOwner(obj, owner)
	}
}

func opDelayVariable(m *Machine) { m.delay(int(m.readVar(m.fetchWord()))) }

var v5CursorSubOps = map[int]int{
	opcode.V5CursorOn:       opcode.CursorOn,
	opcode.V5CursorOff:      opcode.CursorOff,
	opcode.V5UserputOn:      opcode.UserputOn,
	opcode.V5UserputOff:     opcode.UserputOff,
	opcode.V5CursorSoftOn:   opcode.CursorSoftOn,
	opcode.V5CursorSoftOff:  opcode.CursorSoftOff,
	opcode.V5UserputSoftOn:  opcode.UserputSoftOn,
	opcode.V5UserputSoftOff: opcode.UserputSoftOff,
}

func opCursorCommandV5(m *Machine) {
	sub := m.fetchByte()
	saved := m.op
	m.op = sub
	defer func() { m.op = saved }()
	if s, ok := v5CursorSubOps[sub&0x1F]; ok {
		m.setCursor(s)
		return
	}
	switch sub & 0x1F {
	case opcode.V5CursorImage:
		m.argByte(opcode.Param1)
		m.argByte(opcode.Param2)
	case opcode.V5CursorHotspot:
		m.argByte(opcode.Param1)
		m.argByte(opcode.Param2)
		m.argByte(opcode.Param3)
	case opcode.V5CursorInit, opcode.V5CursorInitCharset:
		m.argByte(opcode.Param1)
	case opcode.V5CursorCharsetCols:
		m.varArgs()
	default:
		m.fail(subOpError(sub))
	}
}

func opPutActorInRoom(m *Machine) {
	n := m.argByte(opcode.Param1)
	room := m.argByte(opcode.Param2)
	if m.faulted() {
		return
	}
	a := m.getActor(n)
	if a == nil {
		return
	}
	if room == 0 {
		m.check(m.actors.Put(n, 0, 0, 0))
		return
	}
	m.check(m.actors.Put(n, a.X, a.Y, room))
}

// opDelayV5 waits a 24-bit number of jiffies.
func opDelayV5(m *Machine) {
	d := m.fetchByte()
	d |= m.fetchByte() << 8
	d |= m.fetchByte() << 16
	if !m.faulted() {
		m.delay(d)
	}
}

// stateJump returns the ifState family: the jump is taken when the object's
// state equals the state operand exactly when jumpIfEqual is set.
func stateJump(jumpIfEqual bool) func(*Machine) {
	return func(m *Machine) {
		obj := m.argWord(opcode.Param1)
		state := m.argByte(opcode.Param2)
		if m.faulted() {
			return
		}
		m.jumpRel((int(m.getState(obj)) == state) == jumpIfEqual)
	}
}

func opRoomOpsV5(m *Machine) {
	sub := m.fetchByte()
	saved := m.op
	m.op = sub
	defer func() { m.op = saved }()
	switch sub & 0x1F {
	case opcode.V5RoomScroll:
		a := m.argWord(opcode.Param1)
		b := m.argWord(opcode.Param2)
		if !m.faulted() {
			m.roomScroll(a, b)
		}
	case opcode.V5RoomScreen:
		m.argWord(opcode.Param1)
		m.argWord(opcode.Param2)
	case opcode.V5RoomPalette:
		r := m.argWord(opcode.Param1)
		g := m.argWord(opcode.Param2)
		b := m.argWord(opcode.Param3)
		m.op = m.fetchByte()
		idx := m.argByte(opcode.Param1)
		if !m.faulted() {
			m.setPalColor(idx, r, g, b)
		}
	case opcode.V5RoomShake:
		m.screen.Shake(true)
	case opcode.V5RoomUnshake:
		m.screen.Shake(false)
	case opcode.V5RoomIntensity:
		scale := m.argByte(opcode.Param1)
		m.argByte(opcode.Param2)
		m.argByte(opcode.Param3)
		if !m.faulted() {
			m.screen.SetIntensity(scale)
		}
	case opcode.V5RoomFade:
		effect := m.argWord(opcode.Param1)
		if !m.faulted() {
			m.fade(effect)
		}
	case opcode.V5RoomRGBIntensity:
		r := m.argWord(opcode.Param1)
		g := m.argWord(opcode.Param2)
		b := m.argWord(opcode.Param3)
		m.op = m.fetchByte()
		m.argByte(opcode.Param1)
		m.argByte(opcode.Param2)
		if !m.faulted() {
			m.screen.SetIntensity((r + g + b) / 3)
		}
	case opcode.V5RoomCycleSpeed:
		slot := m.argByte(opcode.Param1)
		delay := m.argByte(opcode.Param2)
		if !m.faulted() {
			m.cycleSpeed(slot, delay)
		}
	default:
		m.fail(subOpError(sub))
	}
}

func opWalkActorToObjectV5(m *Machine) {
	n := m.argByte(opcode.Param1)
	obj := m.argWord(opcode.Param2)
	if !m.faulted() {
		m.walkActorToObject(n, obj)
	}
}

func opStartObjectV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	verb := m.argByte(opcode.Param2)
	args := m.varArgs()
	if !m.faulted() {
		m.startObject(obj, verb, false, false, args)
	}
}

func opCutsceneV5(m *Machine) {
	args := m.varArgs()
	if !m.faulted() {
		m.BeginCutscene(args)
	}
}

func opChainScriptV5(m *Machine) {
	script := m.argByte(opcode.Param1)
	args := m.varArgs()
	if !m.faulted() {
		m.chainScript(script, args)
	}
}

func opSoundKludgeV5(m *Machine) {
	args := m.varArgs()
	if !m.faulted() {
		m.soundKludge(args)
	}
}

func opSetObjectNameV5(m *Machine) {
	obj := m.argWord(opcode.Param1)
	if !m.faulted() {
		m.setObjectName(obj)
	}
}

// opOverride begins the override block of a cutscene when its sub-opcode is
// non-zero and ends it otherwise.
func opOverride(m *Machine) {
	if m.fetchByte() != 0 {
		m.beginOverride()
		return
	}
	m.endOverride()
}

var v5SystemSubOps = map[int]int{
	opcode.V5SysRestart: opcode.SysRestart,
	opcode.V5SysPause:   opcode.SysPause,
	opcode.V5SysQuit:    opcode.SysQuit,
}

func opSystemOpsV5(m *Machine) {
	sub := m.fetchByte()
	s, ok := v5SystemSubOps[sub]
	if !ok {
		m.fail(subOpError(sub))
		return
	}
	m.systemOp(s)
}

// opExpression evaluates a postfix expression on the stack of the executing
// instance and stores the value in the result variable. A nested opcode's
// result variable is read back onto the stack.
func opExpression(m *Machine) {
	m.getResultPos()
	dst := m.resultPos
	saved := m.op
	defer func() { m.op = saved }()
	for !m.faulted() {
		sub := m.fetchByte()
		if sub == opcode.V5ExprEnd {
			break
		}
		m.op = sub
		switch sub & 0x1F {
		case opcode.V5ExprValue:
			m.push(int32(m.argWord(opcode.Param1)))
		case opcode.V5ExprAdd:
			opAdd(m)
		case opcode.V5ExprSubtract:
			opSub(m)
		case opcode.V5ExprMultiply:
			opMul(m)
		case opcode.V5ExprDivide:
			opDiv(m)
		case opcode.V5ExprOpcode:
			op := m.fetchByte()
			e := &m.table[op]
			if e.Fn == nil {
				m.fail(fmt.Errorf("nested opcode 0x%02x: %w", op, ErrUnknownOpcode))
				return
			}
			m.op = op
			e.Fn(m)
			if m.faulted() {
				return
			}
			m.push(m.readVar(m.resultPos))
		default:
			m.fail(subOpError(sub))
		}
	}
	if m.faulted() {
		return
	}
	v := m.pop()
	m.resultPos = dst
	m.setResult(v)
}

var v5WaitSubOps = map[int]int{
	opcode.V5WaitForActor:    opcode.WaitForActor,
	opcode.V5WaitForMessage:  opcode.WaitForMessage,
	opcode.V5WaitForCamera:   opcode.WaitForCamera,
	opcode.V5WaitForSentence: opcode.WaitForSentence,
}

func opWaitV5(m *Machine) {
	sub := m.fetchByte()
	saved := m.op
	m.op = sub
	defer func() { m.op = saved }()
	s, ok := v5WaitSubOps[sub&0x1F]
	if !ok {
		m.fail(subOpError(sub))
		return
	}
	arg := 0
	if s == opcode.WaitForActor {
		arg = m.argByte(opcode.Param1)
	}
	if !m.faulted() {
		m.waitOp(s, arg)
	}
}

// family lists the opcode bytes a V5 handler occupies: its base with every
// combination of the given parameter bits.
func family(base int, bits int) []int {
	ops := []int{base}
	for _, b := range []int{opcode.Param1, opcode.Param2, opcode.Param3}[:bits] {
		for _, op := range ops {
			ops = append(ops, op|b)
		}
	}
	return ops
}

// bindV5 registers fn at every opcode of its family. V5 handlers keep the
// stack balanced, so all entries have zero arity.
func bindV5(base, bits int, name string, fn func(*Machine)) {
	for _, op := range family(base, bits) {
		v5Table.bind(op, name, fn, 0, 0)
	}
}

func init() {
	bindV5(opcode.V5StopObjectCode, 0, "stopObjectCode", opStopObjectCode)
	bindV5(opcode.V5StopObjectCodeB, 0, "stopObjectCode", opStopObjectCode)
	bindV5(opcode.V5BreakHere, 0, "breakHere", opBreakHere)
	bindV5(opcode.V5JumpRelative, 0, "jumpRelative", opJump)
	bindV5(opcode.V5Cutscene, 0, "cutscene", opCutsceneV5)
	bindV5(opcode.V5EndCutscene, 0, "endCutscene", opEndCutscene)
	bindV5(opcode.V5Override, 0, "override", opOverride)
	bindV5(opcode.V5StopMusic, 0, "stopMusic", opStopMusic)
	bindV5(opcode.V5Delay, 0, "delay", opDelayV5)
	bindV5(opcode.V5DelayVariable, 0, "delayVariable", opDelayVariable)
	bindV5(opcode.V5CursorCommand, 0, "cursorCommand", opCursorCommandV5)
	bindV5(opcode.V5ResourceRoutines, 0, "resourceRoutines", opResourceRoutinesV5)
	bindV5(opcode.V5RoomOps, 0, "roomOps", opRoomOpsV5)
	bindV5(opcode.V5SystemOps, 0, "systemOps", opSystemOpsV5)
	bindV5(opcode.V5Wait, 0, "wait", opWaitV5)
	bindV5(opcode.V5Expression, 0, "expression", opExpression)
	bindV5(opcode.V5SoundKludge, 0, "soundKludge", opSoundKludgeV5)
	bindV5(opcode.V5PrintEgo, 0, "printEgo", opPrintEgoV5)
	bindV5(opcode.V5SetVarRange, 0, "setVarRange", opSetVarRange)
	bindV5(opcode.V5SetVarRangeWords, 0, "setVarRange", opSetVarRange)
	bindV5(opcode.V5EqualZero, 0, "equalZero", func(m *Machine) { m.jumpRel(m.readVar(m.fetchWord()) != 0) })
	bindV5(opcode.V5NotEqualZero, 0, "notEqualZero", func(m *Machine) { m.jumpRel(m.readVar(m.fetchWord()) == 0) })
	bindV5(opcode.V5Increment, 0, "increment", step(1))
	bindV5(opcode.V5Decrement, 0, "decrement", step(-1))

	bindV5(opcode.V5IsEqual, 1, "isEqual", compare(func(a, b int32) bool { return b == a }))
	bindV5(opcode.V5IsNotEqual, 1, "isNotEqual", compare(func(a, b int32) bool { return b != a }))
	bindV5(opcode.V5IsGreater, 1, "isGreater", compare(func(a, b int32) bool { return b > a }))
	bindV5(opcode.V5IsGreaterEqual, 1, "isGreaterEqual", compare(func(a, b int32) bool { return b >= a }))
	bindV5(opcode.V5IsLess, 1, "isLess", compare(func(a, b int32) bool { return b < a }))
	bindV5(opcode.V5IsLessEqual, 1, "isLessEqual", compare(func(a, b int32) bool { return b <= a }))

	bindV5(opcode.V5Move, 1, "move", resultOf(func(m *Machine) int32 { return int32(m.argWord(opcode.Param1)) }))
	bindV5(opcode.V5Add, 1, "add", arith(func(a, b int32) int32 { return a + b }))
	bindV5(opcode.V5Subtract, 1, "subtract", arith(func(a, b int32) int32 { return a - b }))
	bindV5(opcode.V5Multiply, 1, "multiply", arith(func(a, b int32) int32 { return a * b }))
	bindV5(opcode.V5And, 1, "and", arith(func(a, b int32) int32 { return a & b }))
	bindV5(opcode.V5Or, 1, "or", arith(func(a, b int32) int32 { return a | b }))
	bindV5(opcode.V5Divide, 1, "divide", func(m *Machine) {
		m.getResultPos()
		b := int32(m.argWord(opcode.Param1))
		if b == 0 {
			m.fail(ErrDivideByZero)
			return
		}
		m.setResult(m.readVar(m.resultPos) / b)
	})
	bindV5(opcode.V5GetRandomNr, 1, "getRandomNr", resultOf(func(m *Machine) int32 {
		return m.random(0, m.argByte(opcode.Param1))
	}))

	bindV5(opcode.V5StartScript, 3, "startScript", opStartScriptV5)
	bindV5(opcode.V5ChainScript, 1, "chainScript", opChainScriptV5)
	bindV5(opcode.V5StopScript, 1, "stopScript", func(m *Machine) { m.stopScriptOp(m.argByte(opcode.Param1)) })
	bindV5(opcode.V5StartObject, 2, "startObject", opStartObjectV5)
	bindV5(opcode.V5StopObjectScript, 1, "stopObjectScript", func(m *Machine) { m.StopObjectScript(m.argWord(opcode.Param1)) })
	bindV5(opcode.V5IsScriptRunning, 1, "isScriptRunning", resultOf(func(m *Machine) int32 {
		return b2i(m.IsScriptRunning(m.argByte(opcode.Param1)))
	}))
	bindV5(opcode.V5FreezeScripts, 1, "freezeScripts", func(m *Machine) { m.freeze(m.argByte(opcode.Param1)) })
	bindV5(opcode.V5DoSentence, 3, "doSentence", opDoSentenceV5)

	bindV5(opcode.V5SetState, 2, "setState", opSetStateV5)
	bindV5(opcode.V5GetObjectState, 1, "getObjectState", resultOf(func(m *Machine) int32 {
		return m.getState(m.argWord(opcode.Param1))
	}))
	bindV5(opcode.V5IfState, 1, "ifState", stateJump(false))
	bindV5(opcode.V5IfNotState, 2, "ifNotState", stateJump(true))
	bindV5(opcode.V5GetObjectOwner, 1, "getObjectOwner", resultOf(func(m *Machine) int32 {
		return m.getOwner(m.argWord(opcode.Param1))
	}))
	bindV5(opcode.V5SetOwnerOf, 2, "setOwnerOf", opSetOwnerOfV5)
	bindV5(opcode.V5IfClassOfIs, 1, "ifClassOfIs", opIfClassOfIsV5)
	bindV5(opcode.V5SetClass, 1, "setClass", opSetClassV5)
	bindV5(opcode.V5SetObjectName, 1, "setObjectName", opSetObjectNameV5)
	bindV5(opcode.V5PickupObject, 2, "pickupObject", opPickupObjectV5)
	bindV5(opcode.V5GetVerbEntrypoint, 2, "getVerbEntrypoint", resultOf(func(m *Machine) int32 {
		obj := m.argWord(opcode.Param1)
		verb := m.argWord(opcode.Param2)
		return int32(m.verbEntrypoint(obj, verb))
	}))
	bindV5(opcode.V5FindObject, 2, "findObject", resultOf(func(m *Machine) int32 {
		x := m.argWord(opcode.Param1)
		y := m.argWord(opcode.Param2)
		return int32(m.objectAt(x, y))
	}))
	bindV5(opcode.V5GetDist, 2, "getDist", resultOf(func(m *Machine) int32 {
		a := m.argWord(opcode.Param1)
		b := m.argWord(opcode.Param2)
		return m.dist(a, b)
	}))
	bindV5(opcode.V5FindInventory, 2, "findInventory", resultOf(func(m *Machine) int32 {
		owner := m.argByte(opcode.Param1)
		idx := m.argByte(opcode.Param2)
		return m.findInventory(owner, idx)
	}))
	bindV5(opcode.V5GetInventoryCount, 1, "getInventoryCount", resultOf(func(m *Machine) int32 {
		return m.inventoryCount(m.argByte(opcode.Param1))
	}))

	bindV5(opcode.V5StartMusic, 1, "startMusic", opStartSoundV5)
	bindV5(opcode.V5StartSound, 1, "startSound", opStartSoundV5)
	bindV5(opcode.V5StopSound, 1, "stopSound", func(m *Machine) { m.audio.StopSound(m.argByte(opcode.Param1)) })
	bindV5(opcode.V5IsSoundRunning, 1, "isSoundRunning", resultOf(func(m *Machine) int32 {
		return b2i(m.audio.IsSoundRunning(m.argByte(opcode.Param1)))
	}))

	bindV5(opcode.V5PanCameraTo, 1, "panCameraTo", func(m *Machine) { m.camera.PanTo(m.argWord(opcode.Param1)) })
	bindV5(opcode.V5SetCameraAt, 1, "setCameraAt", func(m *Machine) { m.camera.SetAt(m.argWord(opcode.Param1)) })
	bindV5(opcode.V5ActorFollowCamera, 1, "actorFollowCamera", func(m *Machine) { m.actorFollowCamera(m.argByte(opcode.Param1)) })
	bindV5(opcode.V5LoadRoom, 1, "loadRoom", func(m *Machine) { m.loadRoom(m.argByte(opcode.Param1)) })
	bindV5(opcode.V5LoadRoomWithEgo, 2, "loadRoomWithEgo", opLoadRoomWithEgoV5)

	bindV5(opcode.V5PutActor, 3, "putActor", opPutActorV5)
	bindV5(opcode.V5PutActorAtObject, 2, "putActorAtObject", opPutActorAtObjectV5)
	bindV5(opcode.V5PutActorInRoom, 2, "putActorInRoom", opPutActorInRoom)
	bindV5(opcode.V5WalkActorTo, 3, "walkActorTo", opWalkActorToV5)
	bindV5(opcode.V5WalkActorToActor, 2, "walkActorToActor", opWalkActorToActor)
	bindV5(opcode.V5WalkActorToObject, 2, "walkActorToObject", opWalkActorToObjectV5)
	bindV5(opcode.V5FaceActor, 2, "faceActor", opFaceActorV5)
	bindV5(opcode.V5AnimateActor, 2, "animateActor", opAnimateActorV5)
	bindV5(opcode.V5ActorOps, 1, "actorOps", opActorOpsV5)
	bindV5(opcode.V5Print, 1, "print", opPrintV5)
	bindV5(opcode.V5GetActorRoom, 1, "getActorRoom", actorResult(func(a *actor.Actor) int { return a.Room }))
	bindV5(opcode.V5GetActorElevation, 1, "getActorElevation", actorResult(func(a *actor.Actor) int { return a.Elevation }))
	bindV5(opcode.V5GetAnimCounter, 1, "getAnimCounter", actorResult(func(a *actor.Actor) int { return a.AnimCounter }))
	bindV5(opcode.V5GetActorFacing, 1, "getActorFacing", actorResult(func(a *actor.Actor) int { return a.Facing }))
	bindV5(opcode.V5GetActorWidth, 1, "getActorWidth", actorResult(func(a *actor.Actor) int { return a.Width }))
	bindV5(opcode.V5GetActorCostume, 1, "getActorCostume", actorResult(func(a *actor.Actor) int { return a.Costume }))
	bindV5(opcode.V5GetActorMoving, 1, "getActorMoving", resultOf(func(m *Machine) int32 {
		n := m.argByte(opcode.Param1)
		return b2i(m.getActor(n) != nil && m.actors.Moving(n))
	}))
	bindV5(opcode.V5GetActorX, 1, "getActorX", resultOf(func(m *Machine) int32 {
		x, _, _ := m.objectPosition(m.argWord(opcode.Param1))
		return int32(x)
	}))
	bindV5(opcode.V5GetActorY, 1, "getActorY", resultOf(func(m *Machine) int32 {
		_, y, _ := m.objectPosition(m.argWord(opcode.Param1))
		return int32(y)
	}))
}
