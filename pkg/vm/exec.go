package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/version"
)

// fail records err against the executing instance. The first fault wins; the
// dispatch loop kills the instance after the current opcode returns.
func (m *Machine) fail(err error) {
	in := m.cur
	if in == nil {
		m.log.Error("Fault outside script execution", "error", err)
		return
	}
	if in.fault != nil {
		return
	}
	in.fault = NewRuntimeError(err, in.Script, in.opStart, m.op)
	if in.fault.IsFatal() {
		m.setFatal(in.fault)
	}
}

// faultAt records err on in before an opcode was decoded.
func (m *Machine) faultAt(in *Instance, err error) {
	in.fault = NewRuntimeError(err, in.Script, in.PC, -1)
	if in.fault.IsFatal() {
		m.setFatal(in.fault)
	}
}

func (m *Machine) setFatal(err *RuntimeError) {
	if m.fatal == nil {
		m.fatal = err
		m.log.Error("Fatal script error", "script", err.Script, "pc", err.PC, "type", string(err.Type), "error", err.Err)
	}
}

// faulted reports whether the current opcode already failed. Handlers check it
// before side effects that must not happen with garbage operands.
func (m *Machine) faulted() bool {
	return m.cur == nil || m.cur.fault != nil
}

// yield ends the current instance's turn at the opcode boundary.
func (m *Machine) yield() { m.yielded = true }

// codeOf returns the bytecode of in from its entry point, reloading the
// holding resource if the sweep dropped it.
func (m *Machine) codeOf(in *Instance) ([]byte, error) {
	data := m.res.Data(in.Code.Type, in.Code.Index)
	if data == nil {
		var err error
		if data, err = m.res.Load(in.Code.Type, in.Code.Index); err != nil {
			return nil, err
		}
	}
	if in.Entry < 0 || in.Entry > len(data) {
		return nil, fmt.Errorf("entry %d in %s: %w", in.Entry, in.Code, ErrCodeOverrun)
	}
	return data[in.Entry:], nil
}

func (m *Machine) fetchByte() int {
	in := m.cur
	if in.PC < 0 || in.PC >= len(m.code) {
		m.fail(fmt.Errorf("read at %d of %d: %w", in.PC, len(m.code), ErrCodeOverrun))
		return 0
	}
	v := m.code[in.PC]
	in.PC++
	return int(v)
}

func (m *Machine) fetchWord() int {
	in := m.cur
	if in.PC < 0 || in.PC+2 > len(m.code) {
		m.fail(fmt.Errorf("read word at %d of %d: %w", in.PC, len(m.code), ErrCodeOverrun))
		in.PC = len(m.code)
		return 0
	}
	v := binary.LittleEndian.Uint16(m.code[in.PC:])
	in.PC += 2
	return int(v)
}

func (m *Machine) fetchSWord() int { return int(int16(m.fetchWord())) }

func (m *Machine) fetchDWord() int32 {
	in := m.cur
	if in.PC < 0 || in.PC+4 > len(m.code) {
		m.fail(fmt.Errorf("read dword at %d of %d: %w", in.PC, len(m.code), ErrCodeOverrun))
		in.PC = len(m.code)
		return 0
	}
	v := binary.LittleEndian.Uint32(m.code[in.PC:])
	in.PC += 4
	return int32(v)
}

func (m *Machine) wide() bool { return m.prof.Has(version.FeatureWideOperands) }

// fetchOperand reads an immediate at the dialect's width, sign extended.
func (m *Machine) fetchOperand() int32 {
	if m.wide() {
		return m.fetchDWord()
	}
	return int32(m.fetchSWord())
}

// fetchVarWord reads a variable reference at the dialect's width.
func (m *Machine) fetchVarWord() int {
	if m.wide() {
		return int(uint32(m.fetchDWord()))
	}
	return m.fetchWord()
}

// fetchString reads an inline zero-terminated message.
func (m *Machine) fetchString() []byte {
	in := m.cur
	if in.PC < 0 || in.PC > len(m.code) {
		m.fail(ErrCodeOverrun)
		return nil
	}
	msg, n, err := text.Scan(m.code[in.PC:])
	if err != nil {
		m.fail(err)
		in.PC = len(m.code)
		return nil
	}
	in.PC += n
	return append([]byte(nil), msg...)
}

// jumpRel moves the program counter by a relative offset read from the code.
func (m *Machine) jumpRel(take bool) {
	off := int(m.fetchOperand())
	if take && !m.faulted() {
		m.cur.PC += off
	}
}

func (m *Machine) push(v int32) {
	in := m.cur
	if len(in.Stack) >= m.prof.Counts.StackSize {
		m.fail(fmt.Errorf("push beyond %d: %w", m.prof.Counts.StackSize, ErrStackOverflow))
		return
	}
	in.Stack = append(in.Stack, v)
}

func (m *Machine) pushBool(b bool) {
	if b {
		m.push(1)
	} else {
		m.push(0)
	}
}

func (m *Machine) pop() int32 {
	in := m.cur
	if len(in.Stack) == 0 {
		m.fail(ErrStackUnderflow)
		return 0
	}
	v := in.Stack[len(in.Stack)-1]
	in.Stack = in.Stack[:len(in.Stack)-1]
	return v
}

func (m *Machine) popInt() int { return int(m.pop()) }

// popList pops a counted argument list: the count on top, the arguments below
// it in push order.
func (m *Machine) popList() []int32 {
	n := m.popInt()
	if n < 0 || n > len(m.cur.Stack) {
		m.fail(fmt.Errorf("list of %d with %d on the stack: %w", n, len(m.cur.Stack), ErrStackUnderflow))
		return nil
	}
	args := make([]int32, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = m.pop()
	}
	return args
}

// execute runs in until it yields, dies or the machine stops. Nested calls
// restore the caller's decoding state on return.
func (m *Machine) execute(in *Instance) {
	prevCur, prevCode, prevOp, prevYield := m.cur, m.code, m.op, m.yielded
	m.depth++
	defer func() {
		m.depth--
		m.cur, m.code, m.op, m.yielded = prevCur, prevCode, prevOp, prevYield
	}()
	if m.depth > m.prof.Counts.NestDepth {
		m.setFatal(NewRuntimeError(fmt.Errorf("depth %d: %w", m.depth, ErrNestingTooDeep), in.Script, in.PC, -1))
		return
	}

	m.cur, m.yielded = in, false
	in.pass = m.pass
	id := in.id
	for !m.yielded && in.id == id && in.Status == StatusRunning && m.fatal == nil {
		m.step(in)
		if in.fault != nil {
			m.die(in)
			return
		}
	}
}

// step decodes and executes one opcode of in.
func (m *Machine) step(in *Instance) {
	code, err := m.codeOf(in)
	if err != nil {
		m.faultAt(in, err)
		return
	}
	m.code = code
	if in.PC < 0 || in.PC >= len(code) {
		m.faultAt(in, fmt.Errorf("pc %d of %d: %w", in.PC, len(code), ErrCodeOverrun))
		return
	}
	in.opStart = in.PC
	op := int(code[in.PC])
	in.PC++
	m.op = op

	e := &m.table[op]
	if e.Fn == nil {
		m.fail(ErrUnknownOpcode)
		return
	}
	id, before := in.id, len(in.Stack)
	if !e.Var && before < e.Pops {
		m.fail(fmt.Errorf("%s needs %d, stack holds %d: %w", e.Name, e.Pops, before, ErrStackUnderflow))
		return
	}
	e.Fn(m)
	if in.id != id || in.fault != nil || in.Status == StatusDead || e.Var {
		return
	}
	if after := len(in.Stack); after != before-e.Pops+e.Pushes {
		m.fail(fmt.Errorf("%s left %d, want %d: %w", e.Name, after, before-e.Pops+e.Pushes, ErrArityMismatch))
	}
}

// die kills a faulted instance and logs the fault with its position.
func (m *Machine) die(in *Instance) {
	f := in.fault
	logger.ForScript(m.log, in.Script, f.PC).Error("Script error",
		"opcode", f.Opcode, "type", string(f.Type), "error", f.Err, "owner", in.Owner.String())
	m.kill(in)
}

// kill marks the slot free. A cutscene override owned by the instance is dropped.
func (m *Machine) kill(in *Instance) {
	for i := range m.cutscenes {
		if m.cutscenes[i].slot == in.Slot {
			m.cutscenes[i].hasOverride = false
			m.cutscenes[i].slot = -1
		}
	}
	slot := in.Slot
	*in = Instance{Slot: slot}
}

// freeSlot returns the lowest dead slot.
func (m *Machine) freeSlot() (int, error) {
	for i := range m.slots {
		if !m.slots[i].Alive() {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%d slots in use: %w", len(m.slots), ErrNoFreeSlot)
}

// start fills a free slot and runs it immediately.
func (m *Machine) start(script int, owner OwnerKind, code resource.Handle, entry int, freezeResistant, recursive bool, args []int32) error {
	slot, err := m.freeSlot()
	if err != nil {
		re := NewRuntimeError(err, script, 0, -1)
		m.log.Error("Cannot start script", "script", script, "error", re)
		return re
	}
	in := &m.slots[slot]
	in.reset(slot, m.prof.Counts.Locals)
	m.nextID++
	in.id = m.nextID
	in.Script = script
	in.Owner = owner
	in.Code = code
	in.Entry = entry
	in.FreezeResistant = freezeResistant
	in.Recursive = recursive
	in.Cutscene = len(m.cutscenes)
	copy(in.Locals, args)
	in.Status = StatusRunning
	m.log.Debug("Script started", "script", script, "slot", slot, "owner", owner.String())
	m.execute(in)
	return nil
}

// RunScript starts script id with args in its locals and executes it until it
// first yields. Unless recursive, running instances of the same script stop first.
func (m *Machine) RunScript(id int, freezeResistant, recursive bool, args []int32) error {
	if id == 0 || m.fatal != nil {
		return m.Err()
	}
	if !recursive {
		m.StopScript(id)
	}
	if m.isLocal(id) {
		if m.room == nil {
			return NewRuntimeError(fmt.Errorf("local script %d with no room: %w", id, ErrNoCode), id, 0, -1)
		}
		entry, ok := m.room.Locals[id]
		if !ok {
			return NewRuntimeError(fmt.Errorf("local script %d not in room %d: %w", id, m.room.Number, ErrNoCode), id, 0, -1)
		}
		return m.start(id, OwnerLocal, resource.Handle{Type: resource.TypeRoom, Index: m.room.Number}, entry, freezeResistant, recursive, args)
	}
	if _, err := m.res.Load(resource.TypeScript, id); err != nil {
		re := NewRuntimeError(err, id, 0, -1)
		if re.IsFatal() {
			m.setFatal(re)
		}
		return re
	}
	return m.start(id, OwnerGlobal, resource.Handle{Type: resource.TypeScript, Index: id}, m.prof.HeaderSize, freezeResistant, recursive, args)
}

func (m *Machine) isLocal(id int) bool {
	return m.prof.Has(version.FeatureRoomScripts) && id >= m.prof.Counts.LocalScriptMin
}

// RunObjectScript runs the handler of obj for verb, falling back to the
// default verb. Objects without a matching handler are ignored.
func (m *Machine) RunObjectScript(obj, verb int, freezeResistant, recursive bool, args []int32) error {
	if m.fatal != nil {
		return m.Err()
	}
	h, entry, owner, ok := m.objectCode(obj, verb)
	if !ok {
		m.log.Debug("No object verb", "object", obj, "verb", verb)
		return nil
	}
	if !recursive {
		m.StopObjectScript(obj)
	}
	return m.start(obj, owner, h, entry, freezeResistant, recursive, args)
}

// runRoomCode runs entry or exit code of the current room.
func (m *Machine) runRoomCode(entry int) {
	if m.room == nil || entry < 0 {
		return
	}
	_ = m.start(m.room.Number, OwnerRoom, resource.Handle{Type: resource.TypeRoom, Index: m.room.Number}, entry, false, true, nil)
}

// startScript runs a script on behalf of an opcode; failures are logged and
// do not fault the caller.
func (m *Machine) startScript(id int, freezeResistant, recursive bool, args []int32) {
	if err := m.RunScript(id, freezeResistant, recursive, args); err != nil && m.fatal == nil {
		m.log.Warn("Script not started", "script", id, "caller", m.callerID(), "error", err)
	}
}

func (m *Machine) startObject(obj, verb int, freezeResistant, recursive bool, args []int32) {
	if err := m.RunObjectScript(obj, verb, freezeResistant, recursive, args); err != nil && m.fatal == nil {
		m.log.Warn("Object script not started", "object", obj, "verb", verb, "error", err)
	}
}

func (m *Machine) callerID() int {
	if m.cur == nil {
		return -1
	}
	return m.cur.Script
}

// StopScript kills every global or local instance of script id. An instance in
// the current call chain stops when control returns to it.
func (m *Machine) StopScript(id int) {
	for i := range m.slots {
		in := &m.slots[i]
		if in.Alive() && in.Script == id && (in.Owner == OwnerGlobal || in.Owner == OwnerLocal) {
			m.kill(in)
		}
	}
}

// StopObjectScript kills every instance running code of object obj.
func (m *Machine) StopObjectScript(obj int) {
	for i := range m.slots {
		in := &m.slots[i]
		if in.Alive() && in.Script == obj && (in.Owner == OwnerObject || in.Owner == OwnerInventory) {
			m.kill(in)
		}
	}
}

// IsScriptRunning reports whether a global or local instance of id is alive.
func (m *Machine) IsScriptRunning(id int) bool {
	for i := range m.slots {
		in := &m.slots[i]
		if in.Alive() && in.Script == id && (in.Owner == OwnerGlobal || in.Owner == OwnerLocal) {
			return true
		}
	}
	return false
}

// IsRoomScriptRunning reports whether object or room code of id is alive.
func (m *Machine) IsRoomScriptRunning(id int) bool {
	for i := range m.slots {
		in := &m.slots[i]
		if in.Alive() && in.Script == id && in.Owner != OwnerGlobal && in.Owner != OwnerLocal {
			return true
		}
	}
	return false
}

// FreezeScripts pauses every other instance. Freeze-resistant ones are kept
// running unless force is set.
func (m *Machine) FreezeScripts(force bool) {
	for i := range m.slots {
		in := &m.slots[i]
		if !in.Alive() || in == m.cur || (in.FreezeResistant && !force) {
			continue
		}
		in.Frozen++
	}
}

// UnfreezeScripts undoes one level of freezing on every instance.
func (m *Machine) UnfreezeScripts() {
	for i := range m.slots {
		if m.slots[i].Frozen > 0 {
			m.slots[i].Frozen--
		}
	}
}

// AdvanceTimers counts down script delays by jiffies.
func (m *Machine) AdvanceTimers(jiffies int) {
	for i := range m.slots {
		in := &m.slots[i]
		if in.Status != StatusWaitingOnDelay {
			continue
		}
		in.Delay -= jiffies
		if in.Delay <= 0 {
			in.Delay = 0
			in.Status = StatusRunning
		}
	}
}

// satisfied reports whether a waiting instance may continue.
func (m *Machine) satisfied(in *Instance) bool {
	switch in.Wait {
	case WaitActor:
		return !m.actors.Moving(in.WaitArg)
	case WaitMessage:
		return !m.talk.Talking()
	case WaitCamera:
		return !m.camera.Moving()
	case WaitSentence:
		return len(m.sentences) == 0 && !m.sentenceRunning()
	}
	return true
}

// RunAll gives every eligible instance one turn in ascending slot order.
// Instances that already ran during this pass, including ones started by
// another script, are skipped.
func (m *Machine) RunAll() error {
	m.pass++
	m.runSentence()
	for i := range m.slots {
		if m.fatal != nil {
			break
		}
		in := &m.slots[i]
		if in.Status == StatusWaitingOnInput && m.satisfied(in) {
			in.Status = StatusRunning
			in.Wait = WaitNone
		}
		if in.Status != StatusRunning || in.Frozen > 0 || in.pass == m.pass {
			continue
		}
		m.execute(in)
	}
	return m.Err()
}

func (m *Machine) wait(kind Wait, arg int) {
	in := m.cur
	in.Wait = kind
	in.WaitArg = arg
	if m.satisfied(in) {
		in.Wait = WaitNone
		return
	}
	in.Status = StatusWaitingOnInput
	m.yield()
}

func (m *Machine) delay(jiffies int) {
	if jiffies <= 0 {
		m.yield()
		return
	}
	in := m.cur
	in.Delay = jiffies
	in.Status = StatusWaitingOnDelay
	m.yield()
}

// stopCurrent ends the executing instance.
func (m *Machine) stopCurrent() {
	if m.cur == nil {
		return
	}
	m.log.Debug("Script ended", "script", m.cur.Script, "slot", m.cur.Slot)
	m.kill(m.cur)
}
