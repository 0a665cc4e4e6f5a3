package resource

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// ChunkHeaderSize is the size of a block header: a four-byte tag and a
// big-endian length that includes the header itself.
const ChunkHeaderSize = 8

// ErrBadChunk is returned for truncated or inconsistent block headers.
var ErrBadChunk = errors.New("malformed chunk")

// Tag is a four character block identifier such as "LSCR".
type Tag [4]byte

// MakeTag builds a Tag from a four character string.
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string { return string(t[:]) }

// Chunk is one block inside a resource. Data excludes the header.
type Chunk struct {
	Tag    Tag
	Offset int
	Data   []byte
}

// Size returns the encoded size including the header.
func (c Chunk) Size() int { return ChunkHeaderSize + len(c.Data) }

// ReadChunk decodes the block starting at off in b.
func ReadChunk(b []byte, off int) (Chunk, error) {
	if off < 0 || off+ChunkHeaderSize > len(b) {
		return Chunk{}, fmt.Errorf("chunk header at %d of %d bytes: %w", off, len(b), ErrBadChunk)
	}
	var c Chunk
	copy(c.Tag[:], b[off:off+4])
	size, err := safecast.Conv[int](binary.BigEndian.Uint32(b[off+4 : off+8]))
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk %s at %d: %w", c.Tag, off, err)
	}
	if size < ChunkHeaderSize || off+size > len(b) {
		return Chunk{}, fmt.Errorf("chunk %s at %d claims %d bytes of %d: %w", c.Tag, off, size, len(b)-off, ErrBadChunk)
	}
	c.Offset = off
	c.Data = b[off+ChunkHeaderSize : off+size]
	return c, nil
}

// Chunks decodes the consecutive blocks filling b.
func Chunks(b []byte) ([]Chunk, error) {
	var out []Chunk
	for off := 0; off < len(b); {
		c, err := ReadChunk(b, off)
		if err != nil {
			return out, err
		}
		out = append(out, c)
		off += c.Size()
	}
	return out, nil
}

// FindChunk returns the first block tagged tag among the consecutive blocks of b.
func FindChunk(b []byte, tag Tag) (Chunk, bool) {
	for off := 0; off+ChunkHeaderSize <= len(b); {
		c, err := ReadChunk(b, off)
		if err != nil {
			return Chunk{}, false
		}
		if c.Tag == tag {
			return c, true
		}
		off += c.Size()
	}
	return Chunk{}, false
}

// FindAll returns every block tagged tag among the consecutive blocks of b.
func FindAll(b []byte, tag Tag) []Chunk {
	var out []Chunk
	for off := 0; off+ChunkHeaderSize <= len(b); {
		c, err := ReadChunk(b, off)
		if err != nil {
			break
		}
		if c.Tag == tag {
			out = append(out, c)
		}
		off += c.Size()
	}
	return out
}

// AppendChunk encodes a block with the given tag and payload onto dst.
func AppendChunk(dst []byte, tag Tag, payload []byte) []byte {
	size, err := safecast.Conv[uint32](ChunkHeaderSize + len(payload))
	if err != nil {
		panic(fmt.Sprintf("chunk %s too large: %v", tag, err))
	}
	dst = append(dst, tag[:]...)
	dst = binary.BigEndian.AppendUint32(dst, size)
	return append(dst, payload...)
}
