package vm

import (
	"github.com/zurustar/sputm/pkg/resource"
)

// Status is the scheduling state of a script slot.
type Status uint8

const (
	StatusDead Status = iota
	StatusRunning
	StatusPaused
	StatusWaitingOnDelay
	StatusWaitingOnInput
)

func (s Status) String() string {
	switch s {
	case StatusDead:
		return "dead"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusWaitingOnDelay:
		return "delay"
	case StatusWaitingOnInput:
		return "waiting"
	}
	return "unknown"
}

// OwnerKind says where a script's code lives.
type OwnerKind uint8

const (
	OwnerGlobal OwnerKind = iota
	OwnerLocal
	OwnerRoom
	OwnerObject
	OwnerInventory
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerGlobal:
		return "global"
	case OwnerLocal:
		return "local"
	case OwnerRoom:
		return "room"
	case OwnerObject:
		return "object"
	case OwnerInventory:
		return "inventory"
	}
	return "unknown"
}

// Wait is what a StatusWaitingOnInput instance waits for.
type Wait uint8

const (
	WaitNone Wait = iota
	WaitActor
	WaitMessage
	WaitCamera
	WaitSentence
)

// Instance is one live invocation of a script.
type Instance struct {
	Slot   int
	Script int
	Owner  OwnerKind

	// Code is the resource holding the bytecode; Entry is the offset of the
	// first opcode in it and PC is relative to Entry.
	Code  resource.Handle
	Entry int
	PC    int

	Locals []int32
	Stack  []int32

	Status          Status
	FreezeResistant bool
	Recursive       bool
	Frozen          int
	Delay           int
	Wait            Wait
	WaitArg         int
	Cutscene        int

	id      uint64
	opStart int
	pass    uint32
	fault   *RuntimeError
}

// State returns the effective status, reporting frozen instances as paused.
func (in *Instance) State() Status {
	if in.Status != StatusDead && in.Frozen > 0 {
		return StatusPaused
	}
	return in.Status
}

// Alive reports whether the slot holds an instance.
func (in *Instance) Alive() bool { return in.Status != StatusDead }

func (in *Instance) reset(slot, locals int) {
	*in = Instance{
		Slot:   slot,
		Locals: make([]int32, locals),
		Stack:  make([]int32, 0, 16),
	}
}
