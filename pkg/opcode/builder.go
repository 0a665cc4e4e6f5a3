package opcode

import (
	"encoding/binary"
	"fmt"

	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/version"
)

type fixup struct {
	at    int
	label string
}

// Builder assembles a script for one dialect. Jump targets are symbolic labels
// resolved by Bytes.
type Builder struct {
	id     version.ID
	buf    []byte
	labels map[string]int
	fixups []fixup
}

// NewBuilder returns an empty builder for dialect id.
func NewBuilder(id version.ID) *Builder {
	return &Builder{id: id, labels: make(map[string]int)}
}

func (b *Builder) wide() bool { return b.id == version.V8 }

// Len returns the number of bytes emitted so far.
func (b *Builder) Len() int { return len(b.buf) }

// Op emits an opcode byte.
func (b *Builder) Op(op byte) *Builder {
	b.buf = append(b.buf, op)
	return b
}

// Byte emits one byte.
func (b *Builder) Byte(v int) *Builder {
	b.buf = append(b.buf, byte(v))
	return b
}

// Word emits a little-endian 16-bit value.
func (b *Builder) Word(v int) *Builder {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(v))
	return b
}

// DWord emits a little-endian 32-bit value.
func (b *Builder) DWord(v int) *Builder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
	return b
}

// Operand emits an immediate or variable word at the dialect's width.
func (b *Builder) Operand(v int) *Builder {
	if b.wide() {
		return b.DWord(v)
	}
	return b.Word(v)
}

// String emits s followed by a terminating zero.
func (b *Builder) String(s string) *Builder {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	return b
}

// Local returns the variable word for local n.
func (b *Builder) Local(n int) int {
	if b.wide() {
		return n | 0x40000000
	}
	return n | 0x4000
}

// Bit returns the variable word for bit variable n.
func (b *Builder) Bit(n int) int {
	if b.wide() {
		return n | -0x80000000
	}
	return n | 0x8000
}

// Push emits the shortest push of v for a stack dialect.
func (b *Builder) Push(v int) *Builder {
	switch b.id {
	case version.V6, version.V7:
		if v >= 0 && v <= 0xFF {
			return b.Op(V6PushByte).Byte(v)
		}
		return b.Op(V6PushWord).Word(v)
	case version.V8:
		return b.Op(V8PushWord).DWord(v)
	}
	panic(fmt.Sprintf("push is not available in %s", b.id))
}

// PushList pushes each value followed by the count, the layout list-taking opcodes expect.
func (b *Builder) PushList(vals ...int) *Builder {
	for _, v := range vals {
		b.Push(v)
	}
	return b.Push(len(vals))
}

// PushVar emits a push of variable word v.
func (b *Builder) PushVar(v int) *Builder {
	if b.wide() {
		return b.Op(V8PushWordVar).DWord(v)
	}
	return b.Op(V6PushWordVar).Word(v)
}

// WriteVar emits a pop into variable word v.
func (b *Builder) WriteVar(v int) *Builder {
	if b.wide() {
		return b.Op(V8WriteWordVar).DWord(v)
	}
	return b.Op(V6WriteWordVar).Word(v)
}

// VarArgs emits a V5 argument list: each value as an immediate word behind a
// 0x01 marker, then the 0xFF terminator.
func (b *Builder) VarArgs(vals ...int) *Builder {
	for _, v := range vals {
		b.Byte(0x01).Word(v)
	}
	return b.Byte(V5End)
}

// Label names the current position.
func (b *Builder) Label(name string) *Builder {
	b.labels[name] = len(b.buf)
	return b
}

// Rel emits a jump offset to label, relative to the end of the offset operand.
func (b *Builder) Rel(label string) *Builder {
	b.fixups = append(b.fixups, fixup{at: len(b.buf), label: label})
	return b.Operand(0)
}

// Jump emits op followed by a relative offset to label.
func (b *Builder) Jump(op byte, label string) *Builder {
	return b.Op(op).Rel(label)
}

// Raw appends pre-encoded bytes.
func (b *Builder) Raw(p ...byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Bytes resolves labels and returns the code.
func (b *Builder) Bytes() []byte {
	out := append([]byte(nil), b.buf...)
	width := 2
	if b.wide() {
		width = 4
	}
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			panic(fmt.Sprintf("undefined label %q", f.label))
		}
		rel := target - (f.at + width)
		if width == 4 {
			binary.LittleEndian.PutUint32(out[f.at:], uint32(rel))
		} else {
			binary.LittleEndian.PutUint16(out[f.at:], uint16(rel))
		}
	}
	return out
}

// Script wraps the code in a SCRP block as stored in a script resource.
func (b *Builder) Script() []byte {
	return resource.AppendChunk(nil, resource.MakeTag("SCRP"), b.Bytes())
}
