package gamedata

import (
	"encoding/binary"
	"fmt"

	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/resource"
)

// BundleSource serves resources from an index file and its data file.
// The data file is read once and kept decrypted in memory.
type BundleSource struct {
	index *Index
	data  []byte
	rooms map[int]int // room -> absolute offset of its ROOM block
}

// OpenBundle reads and decrypts the index and data files from fsys.
func OpenBundle(fsys fileutil.FileSystem, indexName, dataName string, key byte) (*BundleSource, error) {
	raw, err := fsys.ReadFile(indexName)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", indexName, err)
	}
	decrypt(raw, key)
	ix, err := ParseIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexName, err)
	}

	data, err := fsys.ReadFile(dataName)
	if err != nil {
		return nil, fmt.Errorf("read data %s: %w", dataName, err)
	}
	decrypt(data, key)
	return NewBundleSource(ix, data)
}

// NewBundleSource wraps an already decrypted data file.
func NewBundleSource(ix *Index, data []byte) (*BundleSource, error) {
	rooms, err := parseRoomOffsets(data)
	if err != nil {
		return nil, err
	}
	return &BundleSource{index: ix, data: data, rooms: rooms}, nil
}

// Index returns the parsed index file.
func (s *BundleSource) Index() *Index { return s.index }

// parseRoomOffsets finds the LOFF table at the start of the LECF block.
func parseRoomOffsets(data []byte) (map[int]int, error) {
	lecf, err := resource.ReadChunk(data, 0)
	if err != nil {
		return nil, fmt.Errorf("data file: %w: %w", ErrCorruptData, err)
	}
	if lecf.Tag != tagLECF {
		return nil, fmt.Errorf("data file starts with %s, want LECF: %w", lecf.Tag, ErrCorruptData)
	}
	loff, ok := resource.FindChunk(lecf.Data, tagLOFF)
	if !ok || len(loff.Data) < 1 {
		return nil, fmt.Errorf("data file has no LOFF table: %w", ErrCorruptData)
	}
	n := int(loff.Data[0])
	if len(loff.Data) < 1+n*5 {
		return nil, fmt.Errorf("LOFF declares %d rooms in %d bytes: %w", n, len(loff.Data), ErrCorruptData)
	}
	rooms := make(map[int]int, n)
	for i := range n {
		rec := loff.Data[1+i*5:]
		rooms[int(rec[0])] = int(binary.LittleEndian.Uint32(rec[1:5]))
	}
	return rooms, nil
}

// LocateResource returns the room and in-room offset of (t, idx).
func (s *BundleSource) LocateResource(t resource.Type, idx int) (room, offset int, err error) {
	if t == resource.TypeRoom {
		if _, ok := s.rooms[idx]; !ok {
			return 0, 0, fmt.Errorf("room %d: %w", idx, ErrNotFound)
		}
		return idx, 0, nil
	}
	dir, ok := s.index.Directory(t)
	if !ok {
		return 0, 0, fmt.Errorf("%s has no directory: %w", t, ErrNotFound)
	}
	room, offset, ok = dir.Lookup(idx)
	if !ok {
		return 0, 0, fmt.Errorf("%s %d: %w", t, idx, ErrNotFound)
	}
	return room, offset, nil
}

// LoadResourceBytes returns a copy of the block holding (t, idx), header included.
func (s *BundleSource) LoadResourceBytes(t resource.Type, idx int) ([]byte, error) {
	room, offset, err := s.LocateResource(t, idx)
	if err != nil {
		return nil, err
	}
	base, ok := s.rooms[room]
	if !ok {
		return nil, fmt.Errorf("%s %d lives in room %d which has no offset: %w", t, idx, room, ErrCorruptData)
	}

	c, err := resource.ReadChunk(s.data, base+offset)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", t, idx, err)
	}
	out := make([]byte, c.Size())
	copy(out, s.data[c.Offset:c.Offset+c.Size()])
	return out, nil
}
