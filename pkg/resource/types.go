// Package resource owns every loaded game asset and the heap bookkeeping that
// decides when an unlocked asset may be evicted.
package resource

// Type identifies a resource kind. The numeric order is also the order in which
// the eviction sweep visits types.
type Type int

const (
	TypeInvalid Type = iota
	TypeRoom
	TypeScript
	TypeCostume
	TypeSound
	TypeInventory
	TypeCharset
	TypeString
	TypeVerb
	TypeActorName
	TypeBuffer
	TypeScaleTable
	TypeTemp
	TypeFlObject
	TypeMatrix
	TypeBox
	TypeObjectName
	TypeRoomScripts
	TypeRoomImage
	TypeImage
	TypeTalkie
	TypeSpoolBuffer

	NumTypes
)

var typeNames = [NumTypes]string{
	TypeInvalid:     "invalid",
	TypeRoom:        "room",
	TypeScript:      "script",
	TypeCostume:     "costume",
	TypeSound:       "sound",
	TypeInventory:   "inventory",
	TypeCharset:     "charset",
	TypeString:      "string",
	TypeVerb:        "verb",
	TypeActorName:   "actor_name",
	TypeBuffer:      "buffer",
	TypeScaleTable:  "scale_table",
	TypeTemp:        "temp",
	TypeFlObject:    "fl_object",
	TypeMatrix:      "matrix",
	TypeBox:         "box",
	TypeObjectName:  "object_name",
	TypeRoomScripts: "room_scripts",
	TypeRoomImage:   "room_image",
	TypeImage:       "image",
	TypeTalkie:      "talkie",
	TypeSpoolBuffer: "spool_buffer",
}

func (t Type) String() string {
	if t < 0 || t >= NumTypes {
		return "unknown"
	}
	return typeNames[t]
}

// Valid reports whether t names a real resource type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < NumTypes
}

// Dynamic reports whether resources of type t can be reloaded from the game
// data and are therefore eligible for eviction. Everything else (strings,
// arrays, inventory copies, verb images built at runtime) lives until freed.
func (t Type) Dynamic() bool {
	switch t {
	case TypeRoom, TypeScript, TypeCostume, TypeSound, TypeCharset,
		TypeRoomScripts, TypeRoomImage, TypeImage, TypeTalkie:
		return true
	}
	return false
}

// ParseType converts a type name produced by String back into a Type.
func ParseType(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name && Type(t) != TypeInvalid {
			return Type(t), true
		}
	}
	return TypeInvalid, false
}
