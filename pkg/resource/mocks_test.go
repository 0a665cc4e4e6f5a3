package resource

import (
	"fmt"
)

// fakeSource serves fixed bytes and records every load.
type fakeSource struct {
	data  map[Handle][]byte
	loads []Handle
}

func newFakeSource() *fakeSource {
	return &fakeSource{data: make(map[Handle][]byte)}
}

func (f *fakeSource) put(t Type, idx int, b []byte) {
	f.data[Handle{t, idx}] = b
}

func (f *fakeSource) LoadResourceBytes(t Type, idx int) ([]byte, error) {
	h := Handle{t, idx}
	f.loads = append(f.loads, h)
	b, ok := f.data[h]
	if !ok {
		return nil, fmt.Errorf("no data for %s", h)
	}
	return b, nil
}

func (f *fakeSource) LocateResource(t Type, idx int) (int, int, error) {
	if _, ok := f.data[Handle{t, idx}]; !ok {
		return 0, 0, fmt.Errorf("no data for %s", Handle{t, idx})
	}
	return idx % 7, 0, nil
}
