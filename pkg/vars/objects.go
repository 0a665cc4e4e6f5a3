package vars

import (
	"errors"
	"fmt"
)

// ErrObjectOutOfRange is returned for object ids outside the object table.
var ErrObjectOutOfRange = errors.New("object id out of range")

// NumClasses is the number of class bits per object. Class numbers run 1..NumClasses.
const NumClasses = 32

// Objects stores per-object owner, state, room membership and class mask.
type Objects struct {
	owner []uint8
	state []uint8
	room  []uint8
	class []uint32
}

// NewObjects creates a table for object ids 0..n-1.
func NewObjects(n int) *Objects {
	return &Objects{
		owner: make([]uint8, n),
		state: make([]uint8, n),
		room:  make([]uint8, n),
		class: make([]uint32, n),
	}
}

// Count returns the number of object ids.
func (o *Objects) Count() int { return len(o.owner) }

func (o *Objects) check(id int) error {
	if id < 0 || id >= len(o.owner) {
		return fmt.Errorf("object %d (of %d): %w", id, len(o.owner), ErrObjectOutOfRange)
	}
	return nil
}

// Owner returns the owner of id: an actor number, or the dialect's room-owner value.
func (o *Objects) Owner(id int) (int, error) {
	if err := o.check(id); err != nil {
		return 0, err
	}
	return int(o.owner[id]), nil
}

// PutOwner sets the owner of id.
func (o *Objects) PutOwner(id, owner int) error {
	if err := o.check(id); err != nil {
		return err
	}
	o.owner[id] = uint8(owner)
	return nil
}

// State returns the state of id.
func (o *Objects) State(id int) (int, error) {
	if err := o.check(id); err != nil {
		return 0, err
	}
	return int(o.state[id]), nil
}

// PutState sets the state of id.
func (o *Objects) PutState(id, state int) error {
	if err := o.check(id); err != nil {
		return err
	}
	o.state[id] = uint8(state)
	return nil
}

// Room returns the room id recorded for id.
func (o *Objects) Room(id int) (int, error) {
	if err := o.check(id); err != nil {
		return 0, err
	}
	return int(o.room[id]), nil
}

// PutRoom records the room id holding id.
func (o *Objects) PutRoom(id, room int) error {
	if err := o.check(id); err != nil {
		return err
	}
	o.room[id] = uint8(room)
	return nil
}

// Class reports whether class cls (1..32) is set on id.
func (o *Objects) Class(id, cls int) (bool, error) {
	if err := o.check(id); err != nil {
		return false, err
	}
	if cls < 1 || cls > NumClasses {
		return false, fmt.Errorf("class %d: %w", cls, ErrObjectOutOfRange)
	}
	return o.class[id]&(1<<(cls-1)) != 0, nil
}

// PutClass sets or clears class cls on id. Class 0 with set=false clears every class.
func (o *Objects) PutClass(id, cls int, set bool) error {
	if err := o.check(id); err != nil {
		return err
	}
	if cls == 0 && !set {
		o.class[id] = 0
		return nil
	}
	if cls < 1 || cls > NumClasses {
		return fmt.Errorf("class %d: %w", cls, ErrObjectOutOfRange)
	}
	if set {
		o.class[id] |= 1 << (cls - 1)
	} else {
		o.class[id] &^= 1 << (cls - 1)
	}
	return nil
}

// ClassMask returns the raw class bits of id.
func (o *Objects) ClassMask(id int) (uint32, error) {
	if err := o.check(id); err != nil {
		return 0, err
	}
	return o.class[id], nil
}

// OwnedBy returns the ids owned by owner in ascending order.
func (o *Objects) OwnedBy(owner int) []int {
	var ids []int
	for id, ow := range o.owner {
		if int(ow) == owner && id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// InRoom returns the ids whose recorded room is room, in ascending order.
func (o *Objects) InRoom(room int) []int {
	var ids []int
	for id, r := range o.room {
		if int(r) == room && id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// ObjectTables is the ordered, enumerable form of the table used by save games.
type ObjectTables struct {
	Owner []uint8  `msgpack:"owner"`
	State []uint8  `msgpack:"state"`
	Room  []uint8  `msgpack:"room"`
	Class []uint32 `msgpack:"class"`
}

// Tables returns copies of all four arrays.
func (o *Objects) Tables() ObjectTables {
	return ObjectTables{
		Owner: append([]uint8(nil), o.owner...),
		State: append([]uint8(nil), o.state...),
		Room:  append([]uint8(nil), o.room...),
		Class: append([]uint32(nil), o.class...),
	}
}

// Restore replaces all four arrays. Each must have Count() entries.
func (o *Objects) Restore(t ObjectTables) error {
	n := len(o.owner)
	if len(t.Owner) != n || len(t.State) != n || len(t.Room) != n || len(t.Class) != n {
		return fmt.Errorf("restore: object tables have %d/%d/%d/%d entries, want %d",
			len(t.Owner), len(t.State), len(t.Room), len(t.Class), n)
	}
	copy(o.owner, t.Owner)
	copy(o.state, t.State)
	copy(o.room, t.Room)
	copy(o.class, t.Class)
	return nil
}
