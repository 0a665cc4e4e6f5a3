package gamedata

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

// Index block tags.
var (
	tagRNAM = resource.MakeTag("RNAM")
	tagMAXS = resource.MakeTag("MAXS")
	tagDROO = resource.MakeTag("DROO")
	tagDSCR = resource.MakeTag("DSCR")
	tagDSOU = resource.MakeTag("DSOU")
	tagDCOS = resource.MakeTag("DCOS")
	tagDCHR = resource.MakeTag("DCHR")
	tagDOBJ = resource.MakeTag("DOBJ")
)

// Data file block tags.
var (
	tagLECF = resource.MakeTag("LECF")
	tagLOFF = resource.MakeTag("LOFF")
)

// Directory maps a resource index to the room that holds it and the offset
// of its block from the start of that room.
type Directory struct {
	Rooms   []uint8
	Offsets []uint32
}

// Len returns the number of entries.
func (d Directory) Len() int { return len(d.Rooms) }

// Lookup returns the room and offset of idx. Room 0 marks an unused entry.
func (d Directory) Lookup(idx int) (room, offset int, ok bool) {
	if idx < 0 || idx >= len(d.Rooms) || d.Rooms[idx] == 0 {
		return 0, 0, false
	}
	return int(d.Rooms[idx]), int(d.Offsets[idx]), true
}

// Maxs holds the table sizes an index file declares. Zero means "use the
// profile default".
type Maxs struct {
	Variables     int
	BitVariables  int
	LocalObjects  int
	Arrays        int
	Verbs         int
	Inventory     int
	Rooms         int
	Scripts       int
	Sounds        int
	Charsets      int
	Costumes      int
	GlobalObjects int
}

// Apply overrides the non-zero sizes in c.
func (m Maxs) Apply(c *version.Counts) {
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&c.Variables, m.Variables)
	set(&c.BitVariables, m.BitVariables)
	set(&c.Arrays, m.Arrays)
	set(&c.Verbs, m.Verbs)
	set(&c.Inventory, m.Inventory)
	set(&c.Rooms, m.Rooms)
	set(&c.Scripts, m.Scripts)
	set(&c.Sounds, m.Sounds)
	set(&c.Charsets, m.Charsets)
	set(&c.Costumes, m.Costumes)
	set(&c.GlobalObjects, m.GlobalObjects)
}

// MAXS payload sizes by layout.
const (
	maxsShort = 9 * 2  // v5: 16-bit words, short form
	maxsLong  = 15 * 2 // v6, v7: 16-bit words
	maxsWide  = 15 * 4 // v8: 32-bit words
)

// Index is a parsed index file.
type Index struct {
	Maxs      Maxs
	RoomNames map[int]string
	Rooms     Directory
	Scripts   Directory
	Sounds    Directory
	Costumes  Directory
	Charsets  Directory
	Objects   *ObjectDirectory

	maxsSize int
}

// ObjectDirectory is the initial owner, state and class of every global object.
type ObjectDirectory struct {
	Owner []uint8
	State []uint8
	Class []uint32
}

// Tables sizes the directory to n objects for the object store. A nil
// directory yields zeroed tables.
func (d *ObjectDirectory) Tables(n int) vars.ObjectTables {
	t := vars.ObjectTables{
		Owner: make([]uint8, n),
		State: make([]uint8, n),
		Room:  make([]uint8, n),
		Class: make([]uint32, n),
	}
	if d == nil {
		return t
	}
	copy(t.Owner, d.Owner)
	copy(t.State, d.State)
	copy(t.Class, d.Class)
	return t
}

// Directory returns the directory for resources of type t.
func (ix *Index) Directory(t resource.Type) (Directory, bool) {
	switch t {
	case resource.TypeRoom:
		return ix.Rooms, true
	case resource.TypeScript:
		return ix.Scripts, true
	case resource.TypeSound:
		return ix.Sounds, true
	case resource.TypeCostume:
		return ix.Costumes, true
	case resource.TypeCharset:
		return ix.Charsets, true
	}
	return Directory{}, false
}

// decrypt XORs b with key in place.
func decrypt(b []byte, key byte) {
	if key == 0 {
		return
	}
	for i := range b {
		b[i] ^= key
	}
}

// ParseIndex decodes a decrypted index file.
func ParseIndex(b []byte) (*Index, error) {
	chunks, err := resource.Chunks(b)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	ix := &Index{RoomNames: make(map[int]string)}
	for _, c := range chunks {
		switch c.Tag {
		case tagRNAM:
			ix.RoomNames = parseRoomNames(c.Data)
		case tagMAXS:
			m, err := parseMaxs(c.Data)
			if err != nil {
				return nil, err
			}
			ix.Maxs, ix.maxsSize = m, len(c.Data)
		case tagDROO:
			ix.Rooms, err = parseDirectory(c)
		case tagDSCR:
			ix.Scripts, err = parseDirectory(c)
		case tagDSOU:
			ix.Sounds, err = parseDirectory(c)
		case tagDCOS:
			ix.Costumes, err = parseDirectory(c)
		case tagDCHR:
			ix.Charsets, err = parseDirectory(c)
		case tagDOBJ:
			ix.Objects, err = parseObjects(c.Data)
		}
		if err != nil {
			return nil, err
		}
	}
	if ix.maxsSize == 0 {
		return nil, fmt.Errorf("index: no MAXS block: %w", ErrCorruptIndex)
	}
	return ix, nil
}

// parseRoomNames reads (room, 9 bytes XOR 0xFF) records up to a zero room.
func parseRoomNames(b []byte) map[int]string {
	names := make(map[int]string)
	for len(b) >= 10 && b[0] != 0 {
		raw := make([]byte, 9)
		for i := range raw {
			raw[i] = b[1+i] ^ 0xFF
		}
		names[int(b[0])] = string(bytes.TrimRight(raw, "\x00"))
		b = b[10:]
	}
	return names
}

func parseMaxs(b []byte) (Maxs, error) {
	var words []int
	switch len(b) {
	case maxsShort, maxsLong:
		for i := 0; i+2 <= len(b); i += 2 {
			words = append(words, int(binary.LittleEndian.Uint16(b[i:])))
		}
	case maxsWide:
		for i := 0; i+4 <= len(b); i += 4 {
			words = append(words, int(binary.LittleEndian.Uint32(b[i:])))
		}
	default:
		return Maxs{}, fmt.Errorf("index: MAXS of %d bytes: %w", len(b), ErrCorruptIndex)
	}

	m := Maxs{Variables: words[0], BitVariables: words[2], LocalObjects: words[3]}
	if len(words) == 9 {
		m.Charsets = words[5]
		m.Inventory = words[8]
		return m, nil
	}
	m.Arrays = words[4]
	m.Verbs = words[6]
	m.Inventory = words[8]
	m.Rooms = words[9]
	m.Scripts = words[10]
	m.Sounds = words[11]
	m.Charsets = words[12]
	m.Costumes = words[13]
	m.GlobalObjects = words[14]
	return m, nil
}

// parseDirectory reads a count, the room bytes and the offsets.
func parseDirectory(c resource.Chunk) (Directory, error) {
	b := c.Data
	if len(b) < 2 {
		return Directory{}, fmt.Errorf("index: %s truncated: %w", c.Tag, ErrCorruptIndex)
	}
	n := int(binary.LittleEndian.Uint16(b))
	if len(b) < 2+n*5 {
		return Directory{}, fmt.Errorf("index: %s declares %d entries in %d bytes: %w", c.Tag, n, len(b), ErrCorruptIndex)
	}
	d := Directory{Rooms: make([]uint8, n), Offsets: make([]uint32, n)}
	copy(d.Rooms, b[2:2+n])
	off := 2 + n
	for i := range n {
		d.Offsets[i] = binary.LittleEndian.Uint32(b[off+i*4:])
	}
	return d, nil
}

// parseObjects reads a count, one state<<4|owner byte per object and one
// class mask per object.
func parseObjects(b []byte) (*ObjectDirectory, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("index: DOBJ truncated: %w", ErrCorruptIndex)
	}
	n := int(binary.LittleEndian.Uint16(b))
	if len(b) < 2+n*5 {
		return nil, fmt.Errorf("index: DOBJ declares %d objects in %d bytes: %w", n, len(b), ErrCorruptIndex)
	}
	d := &ObjectDirectory{Owner: make([]uint8, n), State: make([]uint8, n), Class: make([]uint32, n)}
	for i, v := range b[2 : 2+n] {
		d.Owner[i] = v & 0x0F
		d.State[i] = v >> 4
	}
	off := 2 + n
	for i := range n {
		d.Class[i] = binary.LittleEndian.Uint32(b[off+i*4:])
	}
	return d, nil
}
