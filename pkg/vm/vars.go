package vm

import (
	"fmt"

	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

type varKind uint8

const (
	varGlobal varKind = iota
	varLocal
	varBit
)

// decodeVar splits a variable word into its kind and index.
func (m *Machine) decodeVar(word int) (varKind, int) {
	if m.wide() {
		w := uint32(word)
		switch {
		case w&0x80000000 != 0:
			return varBit, int(w & 0x7FFFFFFF)
		case w&0x40000000 != 0:
			return varLocal, int(w & 0x0FFFFFFF)
		}
		return varGlobal, int(w)
	}
	w := word & 0xFFFF
	switch {
	case w&0x8000 != 0:
		return varBit, w & 0x7FFF
	case w&0x4000 != 0:
		return varLocal, w & 0x0FFF
	}
	return varGlobal, w & 0x1FFF
}

// ReadVar reads the variable a word refers to. Local words refer to the
// executing instance.
func (m *Machine) ReadVar(word int) (int32, error) {
	kind, idx := m.decodeVar(word)
	switch kind {
	case varBit:
		on, err := m.vars.Bit(idx)
		if on {
			return 1, err
		}
		return 0, err
	case varLocal:
		if m.cur == nil || idx >= len(m.cur.Locals) {
			return 0, fmt.Errorf("local %d: %w", idx, vars.ErrIllegalVariableAccess)
		}
		return m.cur.Locals[idx], nil
	}
	return m.vars.Global(idx)
}

// WriteVar writes the variable a word refers to. Global writes fire watches.
func (m *Machine) WriteVar(word int, v int32) error {
	kind, idx := m.decodeVar(word)
	switch kind {
	case varBit:
		return m.vars.SetBit(idx, v != 0)
	case varLocal:
		if m.cur == nil || idx >= len(m.cur.Locals) {
			return fmt.Errorf("local %d: %w", idx, vars.ErrIllegalVariableAccess)
		}
		m.cur.Locals[idx] = v
		return nil
	}
	return m.vars.SetGlobal(idx, v)
}

// indirect applies the 0x2000 index modifier of operand-encoded dialects,
// reading the index word that follows the variable word.
func (m *Machine) indirect(word int) int {
	if !m.prof.Has(version.FeatureIndirectVars) || word&0x2000 == 0 {
		return word
	}
	a := m.fetchWord()
	if a&0x2000 != 0 {
		word += int(m.readVar(a &^ 0x2000))
	} else {
		word += a & 0x0FFF
	}
	return word &^ 0x2000
}

func (m *Machine) readVar(word int) int32 {
	v, err := m.ReadVar(m.indirect(word))
	if err != nil {
		m.fail(err)
	}
	return v
}

func (m *Machine) writeVar(word int, v int32) {
	if err := m.WriteVar(word, v); err != nil {
		m.fail(err)
	}
}

// engineVar reads an engine variable, treating a missing one as zero.
func (m *Machine) engineVar(id vars.VarID) int32 {
	return m.vars.Peek(id)
}

func (m *Machine) setEngineVar(id vars.VarID, v int32) {
	m.vars.Poke(id, v)
}
