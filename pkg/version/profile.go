// Package version describes the bytecode dialects the engine understands.
// A Profile replaces per-version engine subclasses: everything that differs
// between dialects is a field here.
package version

import (
	"fmt"
	"strings"

	"github.com/zurustar/sputm/pkg/vars"
)

// ID names a bytecode dialect.
type ID int

const (
	Unknown ID = iota
	V5
	V6
	V7
	V8
)

func (id ID) String() string {
	switch id {
	case V5:
		return "v5"
	case V6:
		return "v6"
	case V7:
		return "v7"
	case V8:
		return "v8"
	}
	return "unknown"
}

// Parse converts "v5", "5", "V6", ... into an ID.
func Parse(s string) (ID, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v") {
	case "5":
		return V5, nil
	case "6":
		return V6, nil
	case "7":
		return V7, nil
	case "8":
		return V8, nil
	}
	return Unknown, fmt.Errorf("unsupported version %q", s)
}

// Feature is a dialect capability bit.
type Feature uint32

const (
	// FeatureOperandEncoded: opcodes carry parameter-kind bits and read operands inline.
	FeatureOperandEncoded Feature = 1 << iota
	// FeatureStack: opcodes take their arguments from the script's numeric stack.
	FeatureStack
	// FeatureIndirectVars: variable words may carry an index modifier (0x2000).
	FeatureIndirectVars
	// FeatureArrays: scripts allocate arrays as String resources.
	FeatureArrays
	// FeatureWideOperands: variable numbers and immediates are 32-bit.
	FeatureWideOperands
	// FeatureRoomScripts: global scripts 0..NumGlobalScripts-1, higher ids are room-local.
	FeatureRoomScripts
	// FeatureSubtitleVar: the dialect has a subtitles toggle variable.
	FeatureSubtitleVar
)

// Has reports whether f includes every bit of want.
func (f Feature) Has(want Feature) bool { return f&want == want }

// Counts holds the default sizes of the engine tables. Game index files may override them.
type Counts struct {
	Variables      int
	BitVariables   int
	Locals         int
	ScriptSlots    int
	NestDepth      int
	CutsceneDepth  int
	StackSize      int
	GlobalObjects  int
	Actors         int
	Inventory      int
	Arrays         int
	Verbs          int
	Rooms          int
	Scripts        int
	Sounds         int
	Costumes       int
	Charsets       int
	Strings        int
	LocalScriptMin int
}

// Profile is the complete description of one dialect.
type Profile struct {
	ID       ID
	Name     string
	Features Feature
	Vars     vars.VarMap
	Counts   Counts

	// HeapMin and HeapMax are the default eviction thresholds in bytes.
	HeapMin int
	HeapMax int

	// HeaderSize is the size of a resource block header.
	HeaderSize int

	// OwnerRoom is the owner value meaning "lies in its room" rather than held by an actor.
	OwnerRoom int

	// TimerNext is the default VAR_TIMER_NEXT value in jiffies (1/60 s).
	TimerNext int

	// ScreenWidth and ScreenHeight are the virtual screen size.
	ScreenWidth  int
	ScreenHeight int

	// Palette initialises the palette on boot and room change.
	Palette PaletteStrategy
}

// Has reports whether the profile carries feature f.
func (p *Profile) Has(f Feature) bool { return p.Features.Has(f) }

// ForID returns a copy of the built-in profile for id.
func ForID(id ID) (*Profile, error) {
	var p Profile
	switch id {
	case V5:
		p = v5Profile()
	case V6:
		p = v6Profile()
	case V7:
		p = v7Profile()
	case V8:
		p = v8Profile()
	default:
		return nil, fmt.Errorf("no profile for %s", id)
	}
	return &p, nil
}

// All returns the built-in profiles in ascending version order.
func All() []*Profile {
	var out []*Profile
	for _, id := range []ID{V5, V6, V7, V8} {
		p, _ := ForID(id)
		out = append(out, p)
	}
	return out
}

// Validate checks that the variable map fits the variable table and maps no
// slot twice.
func (p *Profile) Validate() error {
	seen := make(map[int]vars.VarID)
	for id := vars.VarID(0); id < vars.NumVarIDs; id++ {
		slot := p.Vars[id]
		if slot == vars.Absent {
			continue
		}
		if slot < 0 || slot >= p.Counts.Variables {
			return fmt.Errorf("%s: VAR_%s slot %d outside %d variables", p.ID, id, slot, p.Counts.Variables)
		}
		if prev, dup := seen[slot]; dup {
			return fmt.Errorf("%s: VAR_%s and VAR_%s share slot %d", p.ID, prev, id, slot)
		}
		seen[slot] = id
	}
	if p.Counts.Locals <= 0 || p.Counts.ScriptSlots <= 0 || p.Counts.StackSize <= 0 {
		return fmt.Errorf("%s: script limits must be positive", p.ID)
	}
	if p.HeapMin > p.HeapMax {
		return fmt.Errorf("%s: heap min %d above max %d", p.ID, p.HeapMin, p.HeapMax)
	}
	return nil
}

func baseCounts() Counts {
	return Counts{
		Variables:      800,
		BitVariables:   2048,
		Locals:         25,
		ScriptSlots:    25,
		NestDepth:      15,
		CutsceneDepth:  5,
		StackSize:      150,
		GlobalObjects:  1000,
		Actors:         13,
		Inventory:      80,
		Arrays:         50,
		Verbs:          100,
		Rooms:          100,
		Scripts:        200,
		Sounds:         200,
		Costumes:       200,
		Charsets:       10,
		Strings:        50,
		LocalScriptMin: 200,
	}
}

func v5Profile() Profile {
	c := baseCounts()
	c.Arrays = 0
	return Profile{
		ID:           V5,
		Name:         "SCUMM v5",
		Features:     FeatureOperandEncoded | FeatureIndirectVars | FeatureRoomScripts | FeatureSubtitleVar,
		Vars:         v5Vars(),
		Counts:       c,
		HeapMin:      400000,
		HeapMax:      550000,
		HeaderSize:   8,
		OwnerRoom:    0x0F,
		TimerNext:    4,
		ScreenWidth:  320,
		ScreenHeight: 200,
		Palette:      EGAPalette{},
	}
}

func v6Profile() Profile {
	c := baseCounts()
	c.Locals = 26
	c.Actors = 30
	c.Variables = 800
	return Profile{
		ID:           V6,
		Name:         "SCUMM v6",
		Features:     FeatureStack | FeatureArrays | FeatureRoomScripts | FeatureSubtitleVar,
		Vars:         v6Vars(),
		Counts:       c,
		HeapMin:      400000,
		HeapMax:      550000,
		HeaderSize:   8,
		OwnerRoom:    0x0F,
		TimerNext:    4,
		ScreenWidth:  320,
		ScreenHeight: 200,
		Palette:      ZeroPalette{},
	}
}

func v7Profile() Profile {
	c := baseCounts()
	c.Locals = 26
	c.ScriptSlots = 80
	c.Actors = 30
	c.Variables = 1000
	c.BitVariables = 4096
	c.GlobalObjects = 1600
	c.LocalScriptMin = 2000
	return Profile{
		ID:           V7,
		Name:         "SCUMM v7",
		Features:     FeatureStack | FeatureArrays | FeatureRoomScripts,
		Vars:         v7Vars(),
		Counts:       c,
		HeapMin:      1400000,
		HeapMax:      2000000,
		HeaderSize:   8,
		OwnerRoom:    0x0F,
		TimerNext:    4,
		ScreenWidth:  640,
		ScreenHeight: 480,
		Palette:      ZeroPalette{},
	}
}

func v8Profile() Profile {
	c := baseCounts()
	c.Locals = 26
	c.ScriptSlots = 80
	c.Actors = 80
	c.Variables = 1500
	c.BitVariables = 4096
	c.GlobalObjects = 2000
	c.LocalScriptMin = 2000
	return Profile{
		ID:           V8,
		Name:         "SCUMM v8",
		Features:     FeatureStack | FeatureArrays | FeatureWideOperands | FeatureRoomScripts,
		Vars:         v8Vars(),
		Counts:       c,
		HeapMin:      6000000,
		HeapMax:      8000000,
		HeaderSize:   8,
		OwnerRoom:    0x0F,
		TimerNext:    4,
		ScreenWidth:  640,
		ScreenHeight: 480,
		Palette:      ZeroPalette{},
	}
}
