package vm

import (
	"bytes"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
)

// resolver answers the escape sequences of messages from machine state.
type resolver struct{ m *Machine }

func (r resolver) ReadVar(word int) (int32, error) { return r.m.ReadVar(word) }

func (r resolver) VerbName(verb int) []byte {
	return cString(r.m.res.Data(resource.TypeVerb, verb))
}

func (r resolver) Name(id int) []byte {
	if a, err := r.m.actors.Get(id); err == nil && len(a.Name) > 0 {
		return a.Name
	}
	return r.m.objectName(id)
}

func (r resolver) String(id int) []byte { return r.m.arrayString(id) }

func cString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// showMessage expands and decodes msg and hands it to the talk channel.
func (m *Machine) showMessage(kind text.Kind, actorN int, msg []byte) {
	e, err := text.Expand(msg, resolver{m})
	if err != nil {
		m.fail(err)
		return
	}
	style := m.printStyle[kind]
	if e.Color >= 0 {
		style.Color = e.Color
	}
	if kind == text.KindActor {
		if a, err := m.actors.Get(actorN); err == nil && e.Color < 0 && style.Color == 0 {
			style.Color = a.TalkColor
		}
		m.setEngineVar(vars.VarTalkActor, int32(actorN))
		m.setEngineVar(vars.VarHaveMsg, 0xFF)
	}
	if e.Sound >= 0 {
		m.startSound(e.Sound)
	}
	m.talk.Show(text.Message{
		Kind:  kind,
		Actor: actorN,
		Style: style,
		Text:  m.decoder.Decode(e.Text()),
		Keep:  e.Keep,
	}, int(m.engineVar(vars.VarCharInc)))
}

// printOps runs one print sub-opcode of the stack dialects.
func (m *Machine) printOps(kind text.Kind) {
	st := &m.printStyle[kind]
	switch sub := m.fetchByte(); sub {
	case opcode.PrintBegin:
		if kind == text.KindActor {
			m.printActor = m.popInt()
		}
		*st = m.printDefault[kind]
	case opcode.PrintEnd:
		m.printDefault[kind] = *st
	case opcode.PrintAt:
		st.Y = m.popInt()
		st.X = m.popInt()
	case opcode.PrintColor:
		st.Color = m.popInt()
	case opcode.PrintClipped:
		st.Right = m.popInt()
	case opcode.PrintCenter:
		st.Center = true
	case opcode.PrintLeft:
		st.Center = false
	case opcode.PrintOverhead:
		st.Overhead = true
	case opcode.PrintMumble:
		st.Mumble = true
	case opcode.PrintString:
		msg := m.fetchString()
		if !m.faulted() {
			m.showMessage(kind, m.printActor, msg)
		}
	default:
		m.fail(subOpError(sub))
	}
}

// talkActor shows the inline message that follows as speech of actorN.
func (m *Machine) talkActor(actorN int) {
	m.printActor = actorN
	msg := m.fetchString()
	if m.faulted() {
		return
	}
	m.showMessage(text.KindActor, actorN, msg)
}
