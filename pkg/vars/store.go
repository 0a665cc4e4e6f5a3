// Package vars holds the script-visible variable tables and per-object world state.
package vars

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zurustar/sputm/pkg/logger"
)

// ErrIllegalVariableAccess is returned for out-of-range slots and for VarIDs the dialect does not define.
var ErrIllegalVariableAccess = errors.New("illegal variable access")

// WatchFunc observes a global variable write.
type WatchFunc func(slot int, old, new int32)

// Store holds the global variables and the packed bit variables.
// Every write goes through SetGlobal or SetBit so watches fire.
type Store struct {
	globals []int32
	bits    []byte
	numBits int
	varMap  VarMap
	watches map[int][]WatchFunc
	log     *slog.Logger
}

// NewStore creates a store with numVars globals and numBits bit variables.
func NewStore(numVars, numBits int, m VarMap) *Store {
	return &Store{
		globals: make([]int32, numVars),
		bits:    make([]byte, (numBits+7)/8),
		numBits: numBits,
		varMap:  m,
		watches: make(map[int][]WatchFunc),
		log:     logger.GetLogger(),
	}
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(log *slog.Logger) {
	s.log = log
}

// NumGlobals returns the number of global slots.
func (s *Store) NumGlobals() int { return len(s.globals) }

// NumBits returns the number of bit variables.
func (s *Store) NumBits() int { return s.numBits }

// Global reads global slot i.
func (s *Store) Global(i int) (int32, error) {
	if i < 0 || i >= len(s.globals) {
		return 0, fmt.Errorf("global %d (of %d): %w", i, len(s.globals), ErrIllegalVariableAccess)
	}
	return s.globals[i], nil
}

// SetGlobal writes global slot i.
func (s *Store) SetGlobal(i int, v int32) error {
	if i < 0 || i >= len(s.globals) {
		return fmt.Errorf("global %d (of %d): %w", i, len(s.globals), ErrIllegalVariableAccess)
	}
	old := s.globals[i]
	s.globals[i] = v
	for _, fn := range s.watches[i] {
		fn(i, old, v)
	}
	return nil
}

// Bit reads bit variable i.
func (s *Store) Bit(i int) (bool, error) {
	if i < 0 || i >= s.numBits {
		return false, fmt.Errorf("bit variable %d (of %d): %w", i, s.numBits, ErrIllegalVariableAccess)
	}
	return s.bits[i>>3]&(1<<(i&7)) != 0, nil
}

// SetBit writes bit variable i.
func (s *Store) SetBit(i int, on bool) error {
	if i < 0 || i >= s.numBits {
		return fmt.Errorf("bit variable %d (of %d): %w", i, s.numBits, ErrIllegalVariableAccess)
	}
	if on {
		s.bits[i>>3] |= 1 << (i & 7)
	} else {
		s.bits[i>>3] &^= 1 << (i & 7)
	}
	return nil
}

// Slot resolves a VarID for the active dialect.
func (s *Store) Slot(id VarID) (int, error) {
	if id < 0 || id >= NumVarIDs {
		return 0, fmt.Errorf("variable id %d: %w", id, ErrIllegalVariableAccess)
	}
	slot := s.varMap[id]
	if slot == Absent {
		return 0, fmt.Errorf("VAR_%s not defined in this version: %w", id, ErrIllegalVariableAccess)
	}
	return slot, nil
}

// Has reports whether the dialect defines id.
func (s *Store) Has(id VarID) bool {
	_, err := s.Slot(id)
	return err == nil
}

// Get reads a named engine variable.
func (s *Store) Get(id VarID) (int32, error) {
	slot, err := s.Slot(id)
	if err != nil {
		return 0, err
	}
	return s.Global(slot)
}

// Set writes a named engine variable.
func (s *Store) Set(id VarID, v int32) error {
	slot, err := s.Slot(id)
	if err != nil {
		return err
	}
	return s.SetGlobal(slot, v)
}

// Peek reads id, returning 0 when the dialect does not define it.
// The main loop uses Peek/Poke to mirror state that only some dialects expose.
func (s *Store) Peek(id VarID) int32 {
	v, err := s.Get(id)
	if err != nil {
		return 0
	}
	return v
}

// Poke writes id when the dialect defines it.
func (s *Store) Poke(id VarID, v int32) {
	if err := s.Set(id, v); err != nil && !errors.Is(err, ErrIllegalVariableAccess) {
		s.log.Warn("variable mirror failed", "var", id.String(), "error", err)
	}
}

// Watch registers fn to run after every write to slot.
func (s *Store) Watch(slot int, fn WatchFunc) {
	s.watches[slot] = append(s.watches[slot], fn)
}

// Unwatch removes every watch on slot.
func (s *Store) Unwatch(slot int) {
	delete(s.watches, slot)
}

// WatchedSlots returns the watched slots in ascending order.
func (s *Store) WatchedSlots() []int {
	slots := make([]int, 0, len(s.watches))
	for slot := range s.watches {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}

// Globals returns a copy of the global slots in slot order.
func (s *Store) Globals() []int32 {
	out := make([]int32, len(s.globals))
	copy(out, s.globals)
	return out
}

// Bits returns a copy of the packed bit variables.
func (s *Store) Bits() []byte {
	out := make([]byte, len(s.bits))
	copy(out, s.bits)
	return out
}

// Restore replaces both tables. Sizes must match the store's shape; watches do not fire.
func (s *Store) Restore(globals []int32, bits []byte) error {
	if len(globals) != len(s.globals) {
		return fmt.Errorf("restore: %d globals, want %d", len(globals), len(s.globals))
	}
	if len(bits) != len(s.bits) {
		return fmt.Errorf("restore: %d bit bytes, want %d", len(bits), len(s.bits))
	}
	copy(s.globals, globals)
	copy(s.bits, bits)
	return nil
}

// Reset zeroes every variable.
func (s *Store) Reset() {
	clear(s.globals)
	clear(s.bits)
}
