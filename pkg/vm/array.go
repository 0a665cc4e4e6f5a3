package vm

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
)

// arrayHeaderSize is the size of the header in front of array elements:
// dim1, dim2 and the element kind, each a little-endian uint16.
const arrayHeaderSize = 6

// array is a view of an array held in a String resource.
type array struct {
	id   int
	dim1 int
	dim2 int
	kind int
	data []byte
}

// width returns the size of one element in bytes.
func (a array) width(wide bool) int {
	if a.kind != opcode.DimInt {
		return 1
	}
	if wide {
		return 4
	}
	return 2
}

func (m *Machine) arrayByID(id int) (array, error) {
	if id <= 0 || id > m.prof.Counts.Arrays {
		return array{}, fmt.Errorf("array %d: %w", id, ErrBadArray)
	}
	data := m.res.Data(resource.TypeString, id)
	if len(data) < arrayHeaderSize {
		return array{}, fmt.Errorf("array %d not defined: %w", id, ErrBadArray)
	}
	le := binary.LittleEndian
	return array{
		id:   id,
		dim1: int(le.Uint16(data)),
		dim2: int(le.Uint16(data[2:])),
		kind: int(le.Uint16(data[4:])),
		data: data[arrayHeaderSize:],
	}, nil
}

// freeArrayID returns the lowest array id without a resident resource.
func (m *Machine) freeArrayID() (int, error) {
	for id := 1; id <= m.prof.Counts.Arrays; id++ {
		if !m.res.Resident(resource.TypeString, id) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("all %d arrays in use: %w", m.prof.Counts.Arrays, ErrBadArray)
}

// defineArray allocates an array of (dim2+1) rows of (dim1+1) elements and
// stores its id in the variable varWord. An array the variable already held is freed.
func (m *Machine) defineArray(varWord, kind, dim2, dim1 int) (array, error) {
	if kind < opcode.DimInt || kind > opcode.DimString {
		return array{}, fmt.Errorf("array kind 0x%02x: %w", kind, ErrBadArray)
	}
	if dim1 < 0 || dim2 < 0 {
		return array{}, fmt.Errorf("array dimensions %dx%d: %w", dim2, dim1, ErrBadArray)
	}
	if old, err := m.ReadVar(varWord); err == nil && old != 0 {
		m.nukeArray(int(old))
	}
	id, err := m.freeArrayID()
	if err != nil {
		return array{}, err
	}
	a := array{id: id, dim1: dim1 + 1, dim2: dim2 + 1, kind: kind}
	d1, err := safecast.Conv[uint16](a.dim1)
	if err != nil {
		return array{}, fmt.Errorf("array dim1 %d: %w", a.dim1, ErrBadArray)
	}
	d2, err := safecast.Conv[uint16](a.dim2)
	if err != nil {
		return array{}, fmt.Errorf("array dim2 %d: %w", a.dim2, ErrBadArray)
	}
	size := arrayHeaderSize + a.dim1*a.dim2*a.width(m.wide())
	buf, err := m.res.Allocate(resource.TypeString, id, size)
	if err != nil {
		return array{}, err
	}
	le := binary.LittleEndian
	le.PutUint16(buf, d1)
	le.PutUint16(buf[2:], d2)
	le.PutUint16(buf[4:], uint16(kind))
	a.data = buf[arrayHeaderSize:]
	if err := m.WriteVar(varWord, int32(id)); err != nil {
		m.nukeArray(id)
		return array{}, err
	}
	m.log.Debug("Array defined", "id", id, "dim1", a.dim1, "dim2", a.dim2, "kind", kind)
	return a, nil
}

// nukeArray frees array id.
func (m *Machine) nukeArray(id int) {
	if id <= 0 || id > m.prof.Counts.Arrays {
		return
	}
	m.res.ForceFree(resource.TypeString, id)
}

// element returns the byte offset of [idx][base] in a.
func (m *Machine) element(a array, idx, base int) (int, error) {
	off := base + idx*a.dim1
	if idx < 0 || base < 0 || off >= a.dim1*a.dim2 {
		return 0, fmt.Errorf("array %d index [%d][%d] outside %dx%d: %w", a.id, idx, base, a.dim2, a.dim1, ErrBadArray)
	}
	return off * a.width(m.wide()), nil
}

// readArray reads element [idx][base] of the array whose id is in varWord.
func (m *Machine) readArray(varWord, idx, base int) int32 {
	a, err := m.arrayByID(int(m.readVar(varWord)))
	if err != nil {
		m.fail(err)
		return 0
	}
	off, err := m.element(a, idx, base)
	if err != nil {
		m.fail(err)
		return 0
	}
	switch a.width(m.wide()) {
	case 4:
		return int32(binary.LittleEndian.Uint32(a.data[off:]))
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(a.data[off:])))
	}
	return int32(a.data[off])
}

// writeArray writes element [idx][base] of the array whose id is in varWord.
func (m *Machine) writeArray(varWord, idx, base int, v int32) {
	a, err := m.arrayByID(int(m.readVar(varWord)))
	if err != nil {
		m.fail(err)
		return
	}
	off, err := m.element(a, idx, base)
	if err != nil {
		m.fail(err)
		return
	}
	switch a.width(m.wide()) {
	case 4:
		binary.LittleEndian.PutUint32(a.data[off:], uint32(v))
	case 2:
		binary.LittleEndian.PutUint16(a.data[off:], uint16(v))
	default:
		a.data[off] = byte(v)
	}
	m.res.MarkModified(resource.TypeString, a.id)
}

// arrayString returns the bytes of a string array up to its terminator.
func (m *Machine) arrayString(id int) []byte {
	a, err := m.arrayByID(id)
	if err != nil || a.width(m.wide()) != 1 {
		return nil
	}
	for i, c := range a.data {
		if c == 0 {
			return a.data[:i]
		}
	}
	return a.data
}

// Arrays returns the ids of every defined array.
func (m *Machine) Arrays() []int {
	var out []int
	for id := 1; id <= m.prof.Counts.Arrays; id++ {
		if m.res.Resident(resource.TypeString, id) {
			out = append(out, id)
		}
	}
	return out
}
