package vm

import "github.com/zurustar/sputm/pkg/vars"

// Host receives the requests scripts make of the surrounding engine.
type Host interface {
	Quit()
	Restart()
	Pause()
}

type nopHost struct{}

func (nopHost) Quit()    {}
func (nopHost) Restart() {}
func (nopHost) Pause()   {}

// Sentence is a queued verb/object command for the sentence script.
type Sentence struct {
	Verb int `msgpack:"verb"`
	ObjA int `msgpack:"obj_a"`
	ObjB int `msgpack:"obj_b"`
}

// maxSentences bounds the sentence queue.
const maxSentences = 6

// cutscene is one level of the cutscene stack. An override remembers the
// instance and code position the cutscene-exit key resumes at.
type cutscene struct {
	data        int32
	slot        int
	overridePC  int
	hasOverride bool
}

// queueSentence appends a command; verb 0xFE clears the queue.
func (m *Machine) queueSentence(verb, a, b int) {
	if verb == 0xFE {
		m.sentences = m.sentences[:0]
		return
	}
	if len(m.sentences) >= maxSentences {
		m.log.Warn("Sentence queue full", "verb", verb, "a", a, "b", b)
		return
	}
	m.sentences = append(m.sentences, Sentence{Verb: verb, ObjA: a, ObjB: b})
}

func (m *Machine) sentenceRunning() bool {
	id := int(m.engineVar(vars.VarSentenceScript))
	return id != 0 && m.IsScriptRunning(id)
}

// runSentence hands the oldest queued command to the sentence script when it is idle.
func (m *Machine) runSentence() {
	if len(m.sentences) == 0 || m.sentenceRunning() {
		return
	}
	s := m.sentences[0]
	m.sentences = m.sentences[1:]
	id := int(m.engineVar(vars.VarSentenceScript))
	if id == 0 {
		return
	}
	m.startScript(id, false, false, []int32{int32(s.Verb), int32(s.ObjA), int32(s.ObjB)})
}

// BeginCutscene pushes a cutscene level and runs the cutscene start script with args.
func (m *Machine) BeginCutscene(args []int32) {
	if len(m.cutscenes) >= m.prof.Counts.CutsceneDepth {
		script, pc := -1, 0
		if m.cur != nil {
			script, pc = m.cur.Script, m.cur.opStart
		}
		m.setFatal(NewRuntimeError(ErrCutsceneTooDeep, script, pc, m.op))
		return
	}
	var data int32
	if len(args) > 0 {
		data = args[0]
	}
	m.cutscenes = append(m.cutscenes, cutscene{data: data, slot: -1})
	if m.cur != nil {
		m.cur.Cutscene = len(m.cutscenes)
	}
	m.setEngineVar(vars.VarOverride, 0)
	if id := int(m.engineVar(vars.VarCutsceneStartScript)); id != 0 {
		m.startScript(id, false, false, args)
	}
}

// EndCutscene pops a cutscene level and runs the cutscene end script.
func (m *Machine) EndCutscene() {
	if len(m.cutscenes) == 0 {
		m.log.Warn("End of cutscene without a cutscene")
		return
	}
	top := m.cutscenes[len(m.cutscenes)-1]
	m.cutscenes = m.cutscenes[:len(m.cutscenes)-1]
	if m.cur != nil {
		m.cur.Cutscene = len(m.cutscenes)
	}
	m.setEngineVar(vars.VarOverride, 0)
	if id := int(m.engineVar(vars.VarCutsceneEndScript)); id != 0 {
		m.startScript(id, false, false, []int32{top.data})
	}
}

// CutsceneDepth returns the number of open cutscenes.
func (m *Machine) CutsceneDepth() int { return len(m.cutscenes) }

// beginOverride records the current position as the skip target of the
// innermost cutscene and steps over the jump that follows.
func (m *Machine) beginOverride() {
	if n := len(m.cutscenes); n > 0 {
		top := &m.cutscenes[n-1]
		top.slot = m.cur.Slot
		top.overridePC = m.cur.PC
		top.hasOverride = true
	}
	m.fetchByte()
	m.fetchOperand()
	m.setEngineVar(vars.VarOverride, 0)
}

func (m *Machine) endOverride() {
	if n := len(m.cutscenes); n > 0 {
		m.cutscenes[n-1].hasOverride = false
		m.cutscenes[n-1].slot = -1
	}
	m.setEngineVar(vars.VarOverride, 0)
}

// AbortCutscene resumes the override of the innermost cutscene, as the
// cutscene-exit key does. It reports whether an override was taken.
func (m *Machine) AbortCutscene() bool {
	if len(m.cutscenes) == 0 {
		return false
	}
	top := &m.cutscenes[len(m.cutscenes)-1]
	if !top.hasOverride || top.slot < 0 {
		return false
	}
	in := &m.slots[top.slot]
	if !in.Alive() {
		top.hasOverride = false
		return false
	}
	in.PC = top.overridePC
	in.Status = StatusRunning
	in.Delay = 0
	in.Wait = WaitNone
	in.Frozen = 0
	top.hasOverride = false
	m.setEngineVar(vars.VarOverride, 1)
	m.talk.Stop()
	return true
}
