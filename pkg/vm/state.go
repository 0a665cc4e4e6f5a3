package vm

import (
	"fmt"

	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/text"
)

// SlotState is the savable form of a live script slot.
type SlotState struct {
	Slot            int             `msgpack:"slot"`
	Script          int             `msgpack:"script"`
	Owner           OwnerKind       `msgpack:"owner"`
	Code            resource.Handle `msgpack:"code"`
	Entry           int             `msgpack:"entry"`
	PC              int             `msgpack:"pc"`
	Locals          []int32         `msgpack:"locals"`
	Stack           []int32         `msgpack:"stack"`
	Status          Status          `msgpack:"status"`
	FreezeResistant bool            `msgpack:"freeze_resistant"`
	Recursive       bool            `msgpack:"recursive"`
	Frozen          int             `msgpack:"frozen"`
	Delay           int             `msgpack:"delay"`
	Wait            Wait            `msgpack:"wait"`
	WaitArg         int             `msgpack:"wait_arg"`
	Cutscene        int             `msgpack:"cutscene"`
}

// CutsceneState is one saved level of the cutscene stack.
type CutsceneState struct {
	Data        int32 `msgpack:"data"`
	Slot        int   `msgpack:"slot"`
	OverridePC  int   `msgpack:"override_pc"`
	HasOverride bool  `msgpack:"has_override"`
}

// State is everything the machine itself owns that a save must carry.
// Variables, objects, actors and the palette are saved by their owners.
type State struct {
	Slots        []SlotState       `msgpack:"slots"`
	Cutscenes    []CutsceneState   `msgpack:"cutscenes"`
	Room         int               `msgpack:"room"`
	Inventory    []int             `msgpack:"inventory"`
	InventoryOBC [][]byte          `msgpack:"inventory_code"`
	Sentences    []Sentence        `msgpack:"sentences"`
	ObjectNames  map[int][]byte    `msgpack:"object_names"`
	Arrays       map[int][]byte    `msgpack:"arrays"`
	Cursor       int               `msgpack:"cursor"`
	Userput      int               `msgpack:"userput"`
	CurActor     int               `msgpack:"cur_actor"`
	PrintActor   int               `msgpack:"print_actor"`
	PrintStyle   [5]text.Style     `msgpack:"print_style"`
	PrintDefault [5]text.Style     `msgpack:"print_default"`
	Locks        []resource.Handle `msgpack:"locks"`
}

// State captures the machine between ticks.
func (m *Machine) State() State {
	st := State{
		Room:         m.roomNumber(),
		Inventory:    append([]int(nil), m.inventory...),
		Sentences:    append([]Sentence(nil), m.sentences...),
		ObjectNames:  make(map[int][]byte, len(m.objectNames)),
		Arrays:       make(map[int][]byte),
		Cursor:       m.cursor,
		Userput:      m.userput,
		CurActor:     m.curActor,
		PrintActor:   m.printActor,
		PrintStyle:   m.printStyle,
		PrintDefault: m.printDefault,
	}
	for i := range m.slots {
		in := &m.slots[i]
		if !in.Alive() {
			continue
		}
		st.Slots = append(st.Slots, SlotState{
			Slot:            in.Slot,
			Script:          in.Script,
			Owner:           in.Owner,
			Code:            in.Code,
			Entry:           in.Entry,
			PC:              in.PC,
			Locals:          append([]int32(nil), in.Locals...),
			Stack:           append([]int32(nil), in.Stack...),
			Status:          in.Status,
			FreezeResistant: in.FreezeResistant,
			Recursive:       in.Recursive,
			Frozen:          in.Frozen,
			Delay:           in.Delay,
			Wait:            in.Wait,
			WaitArg:         in.WaitArg,
			Cutscene:        in.Cutscene,
		})
	}
	for _, c := range m.cutscenes {
		st.Cutscenes = append(st.Cutscenes, CutsceneState{Data: c.data, Slot: c.slot, OverridePC: c.overridePC, HasOverride: c.hasOverride})
	}
	for i := range m.inventory {
		st.InventoryOBC = append(st.InventoryOBC, append([]byte(nil), m.res.Data(resource.TypeInventory, i)...))
	}
	for id, name := range m.objectNames {
		st.ObjectNames[id] = append([]byte(nil), name...)
	}
	for _, id := range m.Arrays() {
		st.Arrays[id] = append([]byte(nil), m.res.Data(resource.TypeString, id)...)
	}
	for _, h := range m.res.Locked() {
		if h.Type == resource.TypeRoom && h.Index == st.Room {
			continue
		}
		st.Locks = append(st.Locks, h)
	}
	return st
}

// Validate reports whether st fits this machine and its room can be entered,
// without changing anything.
func (m *Machine) Validate(st State) error {
	if len(st.Inventory) != len(st.InventoryOBC) {
		return fmt.Errorf("restore: %d inventory objects with %d code blocks", len(st.Inventory), len(st.InventoryOBC))
	}
	if len(st.Cutscenes) > m.prof.Counts.CutsceneDepth {
		return fmt.Errorf("restore: %d cutscenes: %w", len(st.Cutscenes), ErrCutsceneTooDeep)
	}
	for _, s := range st.Slots {
		if s.Slot < 0 || s.Slot >= len(m.slots) {
			return fmt.Errorf("restore: slot %d of %d: %w", s.Slot, len(m.slots), ErrNoFreeSlot)
		}
	}
	if st.Room != 0 {
		data, err := m.res.Load(resource.TypeRoom, st.Room)
		if err != nil {
			return fmt.Errorf("restore room %d: %w", st.Room, err)
		}
		if _, err := ParseRoom(st.Room, data, m.prof); err != nil {
			return fmt.Errorf("restore room %d: %w", st.Room, err)
		}
	}
	return nil
}

// Restore replaces the machine's state with st. The room is reloaded and
// parsed without running its entry code.
func (m *Machine) Restore(st State) error {
	if err := m.Validate(st); err != nil {
		return err
	}

	if m.room != nil {
		m.res.ForceFree(resource.TypeRoom, m.room.Number)
		m.room = nil
	}
	for _, h := range m.res.Locked() {
		m.res.ForceFree(h.Type, h.Index)
	}
	if st.Room != 0 {
		data, err := m.res.Load(resource.TypeRoom, st.Room)
		if err != nil {
			return fmt.Errorf("restore room %d: %w", st.Room, err)
		}
		r, err := ParseRoom(st.Room, data, m.prof)
		if err != nil {
			return fmt.Errorf("restore room %d: %w", st.Room, err)
		}
		if err := m.res.Lock(resource.TypeRoom, st.Room); err != nil {
			return err
		}
		m.room = r
	}

	for i := 0; i < m.res.Count(resource.TypeInventory); i++ {
		m.res.ForceFree(resource.TypeInventory, i)
	}
	for i, code := range st.InventoryOBC {
		if err := m.res.Store(resource.TypeInventory, i, code); err != nil {
			return fmt.Errorf("restore inventory %d: %w", st.Inventory[i], err)
		}
	}
	m.inventory = append(m.inventory[:0], st.Inventory...)

	for id := 1; id <= m.prof.Counts.Arrays; id++ {
		m.res.ForceFree(resource.TypeString, id)
	}
	for id, data := range st.Arrays {
		if err := m.res.Store(resource.TypeString, id, data); err != nil {
			return fmt.Errorf("restore array %d: %w", id, err)
		}
	}

	for _, h := range st.Locks {
		if err := m.res.Lock(h.Type, h.Index); err != nil {
			return fmt.Errorf("restore lock %s: %w", h, err)
		}
	}

	for i := range m.slots {
		m.slots[i] = Instance{Slot: i}
	}
	for _, s := range st.Slots {
		in := &m.slots[s.Slot]
		in.reset(s.Slot, m.prof.Counts.Locals)
		m.nextID++
		in.id = m.nextID
		in.Script = s.Script
		in.Owner = s.Owner
		in.Code = s.Code
		in.Entry = s.Entry
		in.PC = s.PC
		copy(in.Locals, s.Locals)
		in.Stack = append(in.Stack, s.Stack...)
		in.Status = s.Status
		in.FreezeResistant = s.FreezeResistant
		in.Recursive = s.Recursive
		in.Frozen = s.Frozen
		in.Delay = s.Delay
		in.Wait = s.Wait
		in.WaitArg = s.WaitArg
		in.Cutscene = s.Cutscene
	}

	m.cutscenes = m.cutscenes[:0]
	for _, c := range st.Cutscenes {
		m.cutscenes = append(m.cutscenes, cutscene{data: c.Data, slot: c.Slot, overridePC: c.OverridePC, hasOverride: c.HasOverride})
	}
	m.sentences = append(m.sentences[:0], st.Sentences...)
	m.objectNames = make(map[int][]byte, len(st.ObjectNames))
	for id, name := range st.ObjectNames {
		m.objectNames[id] = append([]byte(nil), name...)
	}
	m.cursor, m.userput = st.Cursor, st.Userput
	m.curActor, m.printActor = st.CurActor, st.PrintActor
	m.printStyle, m.printDefault = st.PrintStyle, st.PrintDefault
	m.cur = nil
	m.fatal = nil
	m.talk.Stop()
	m.log.Info("Machine state restored", "room", st.Room, "scripts", len(st.Slots), "arrays", len(st.Arrays))
	return nil
}
