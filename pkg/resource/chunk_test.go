package resource

import (
	"errors"
	"testing"
)

func TestChunks_WalkAndFind(t *testing.T) {
	var b []byte
	b = AppendChunk(b, MakeTag("RMHD"), []byte{0, 1, 0, 2})
	b = AppendChunk(b, MakeTag("LSCR"), []byte{200, 0x80})
	b = AppendChunk(b, MakeTag("LSCR"), []byte{201, 0xA0})

	cs, err := Chunks(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 3 {
		t.Fatalf("got %d chunks, want 3", len(cs))
	}
	if cs[1].Offset != 12 || cs[1].Size() != 10 {
		t.Errorf("second chunk offset %d size %d", cs[1].Offset, cs[1].Size())
	}

	c, ok := FindChunk(b, MakeTag("LSCR"))
	if !ok || c.Data[0] != 200 {
		t.Errorf("FindChunk = %+v, %v", c, ok)
	}
	if got := FindAll(b, MakeTag("LSCR")); len(got) != 2 || got[1].Data[0] != 201 {
		t.Errorf("FindAll = %+v", got)
	}
	if _, ok := FindChunk(b, MakeTag("BOXD")); ok {
		t.Error("found a missing tag")
	}
}

func TestReadChunk_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte("LSC")},
		{"size below header", []byte{'L', 'S', 'C', 'R', 0, 0, 0, 4}},
		{"size past end", []byte{'L', 'S', 'C', 'R', 0, 0, 0, 20, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadChunk(tt.data, 0); !errors.Is(err, ErrBadChunk) {
				t.Errorf("error = %v, want ErrBadChunk", err)
			}
		})
	}
}
