package gamedata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/sputm/pkg/engine"
	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/version"
)

// testRes is one resource block placed in a room of a synthetic bundle.
type testRes struct {
	typ   resource.Type
	idx   int
	room  int
	block []byte
}

// bundle builds matching index and data files.
type bundle struct {
	maxs      []byte
	rooms     map[int][]byte
	res       []testRes
	roomNames map[int]string
	objects   []byte
}

func block(tag string, payload []byte) []byte {
	return resource.AppendChunk(nil, resource.MakeTag(tag), payload)
}

func maxsPayload(words []uint32, width int) []byte {
	var b []byte
	for _, w := range words {
		if width == 2 {
			b = binary.LittleEndian.AppendUint16(b, uint16(w))
		} else {
			b = binary.LittleEndian.AppendUint32(b, w)
		}
	}
	return b
}

// v6Maxs declares 800 variables and 120 global objects.
func v6Maxs() []byte {
	return maxsPayload([]uint32{800, 0, 2048, 200, 50, 0, 100, 50, 80, 10, 20, 30, 4, 40, 120}, 2)
}

func dirPayload(entries map[int][2]int) []byte {
	n := 0
	for idx := range entries {
		n = max(n, idx+1)
	}
	b := binary.LittleEndian.AppendUint16(nil, uint16(n))
	offsets := make([]uint32, n)
	rooms := make([]byte, n)
	for idx, e := range entries {
		rooms[idx] = byte(e[0])
		offsets[idx] = uint32(e[1])
	}
	b = append(b, rooms...)
	for _, o := range offsets {
		b = binary.LittleEndian.AppendUint32(b, o)
	}
	return b
}

func (bd bundle) files() (index, data []byte) {
	roomNums := make([]int, 0, len(bd.rooms))
	for r := range bd.rooms {
		roomNums = append(roomNums, r)
	}
	slices.Sort(roomNums)

	dirs := map[resource.Type]map[int][2]int{
		resource.TypeRoom:    {},
		resource.TypeScript:  {},
		resource.TypeSound:   {},
		resource.TypeCostume: {},
		resource.TypeCharset: {},
	}
	loffSize := resource.ChunkHeaderSize + 1 + 5*len(roomNums)
	cur := resource.ChunkHeaderSize + loffSize
	loff := []byte{byte(len(roomNums))}
	var lflfs []byte
	for _, r := range roomNums {
		roomPos := cur + resource.ChunkHeaderSize
		body := append([]byte(nil), bd.rooms[r]...)
		for _, res := range bd.res {
			if res.room != r {
				continue
			}
			dirs[res.typ][res.idx] = [2]int{r, len(body)}
			body = append(body, res.block...)
		}
		dirs[resource.TypeRoom][r] = [2]int{1, 0}
		loff = append(loff, byte(r))
		loff = binary.LittleEndian.AppendUint32(loff, uint32(roomPos))
		lflf := block("LFLF", body)
		lflfs = append(lflfs, lflf...)
		cur += len(lflf)
	}
	data = block("LECF", append(block("LOFF", loff), lflfs...))

	var rnam []byte
	for _, r := range roomNums {
		name, ok := bd.roomNames[r]
		if !ok {
			continue
		}
		raw := make([]byte, 9)
		copy(raw, name)
		rnam = append(rnam, byte(r))
		for _, c := range raw {
			rnam = append(rnam, c^0xFF)
		}
	}
	rnam = append(rnam, 0)

	index = block("RNAM", rnam)
	index = append(index, block("MAXS", bd.maxs)...)
	index = append(index, block("DROO", dirPayload(dirs[resource.TypeRoom]))...)
	index = append(index, block("DSCR", dirPayload(dirs[resource.TypeScript]))...)
	index = append(index, block("DSOU", dirPayload(dirs[resource.TypeSound]))...)
	index = append(index, block("DCOS", dirPayload(dirs[resource.TypeCostume]))...)
	index = append(index, block("DCHR", dirPayload(dirs[resource.TypeCharset]))...)
	if bd.objects != nil {
		index = append(index, block("DOBJ", bd.objects)...)
	}
	return index, data
}

func encrypted(b []byte, key byte) []byte {
	out := append([]byte(nil), b...)
	decrypt(out, key)
	return out
}

func emptyRoom() []byte {
	le := binary.LittleEndian
	rmhd := le.AppendUint16(nil, 320)
	rmhd = le.AppendUint16(rmhd, 200)
	rmhd = le.AppendUint16(rmhd, 0)
	return block("ROOM", block("RMHD", rmhd))
}

func counterScript() []byte {
	b := opcode.NewBuilder(version.V6)
	b.Label("top").Op(opcode.V6WordVarInc).Word(300).Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")
	return b.Script()
}

func sampleBundle() bundle {
	objs := binary.LittleEndian.AppendUint16(nil, 3)
	objs = append(objs, 0x0F, 0x21, 0x03)
	for _, c := range []uint32{0, 1 << 4, 0x80000000} {
		objs = binary.LittleEndian.AppendUint32(objs, c)
	}
	return bundle{
		maxs:      v6Maxs(),
		rooms:     map[int][]byte{1: emptyRoom(), 3: emptyRoom()},
		roomNames: map[int]string{1: "dock", 3: "bar"},
		objects:   objs,
		res: []testRes{
			{resource.TypeScript, 1, 1, counterScript()},
			{resource.TypeScript, 5, 3, block("SCRP", []byte{0xA0})},
			{resource.TypeSound, 2, 3, block("SOUN", []byte("sound bytes"))},
			{resource.TypeCostume, 7, 1, block("COST", bytes.Repeat([]byte{7}, 40))},
		},
	}
}

func bundleFS(bd bundle, indexName, dataName string, key byte) fileutil.FileSystem {
	index, data := bd.files()
	return fileutil.NewEmbedFS(fstest.MapFS{
		indexName: {Data: encrypted(index, key)},
		dataName:  {Data: encrypted(data, key)},
	}, ".")
}

func TestParseIndex(t *testing.T) {
	index, _ := sampleBundle().files()
	ix, err := ParseIndex(index)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Maxs.Variables != 800 || ix.Maxs.GlobalObjects != 120 || ix.Maxs.Costumes != 40 || ix.Maxs.Rooms != 10 {
		t.Errorf("Maxs = %+v", ix.Maxs)
	}
	if ix.RoomNames[1] != "dock" || ix.RoomNames[3] != "bar" {
		t.Errorf("RoomNames = %v", ix.RoomNames)
	}
	if room, _, ok := ix.Scripts.Lookup(5); !ok || room != 3 {
		t.Errorf("script 5 in room %d, %v", room, ok)
	}
	if _, _, ok := ix.Scripts.Lookup(2); ok {
		t.Error("unused script 2 was found")
	}
	if ix.Objects == nil || ix.Objects.Owner[0] != 0x0F || ix.Objects.Owner[1] != 1 || ix.Objects.State[1] != 2 || ix.Objects.Class[2] != 0x80000000 {
		t.Errorf("Objects = %+v", ix.Objects)
	}
	tables := ix.Objects.Tables(10)
	if len(tables.Owner) != 10 || tables.Owner[2] != 3 || tables.Class[1] != 1<<4 {
		t.Errorf("Tables = %+v", tables)
	}
}

func TestParseIndex_Corrupt(t *testing.T) {
	tests := []struct {
		name  string
		index []byte
	}{
		{"truncated block", []byte("MAXS\x00\x00\x00\x40")},
		{"no MAXS", block("DSCR", dirPayload(map[int][2]int{0: {1, 0}}))},
		{"odd MAXS", block("MAXS", make([]byte, 7))},
		{"short directory", append(block("MAXS", v6Maxs()), block("DSCR", []byte{9, 0, 1})...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIndex(tt.index); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBundleSource_LoadAndLocate(t *testing.T) {
	bd := sampleBundle()
	src, err := OpenBundle(bundleFS(bd, "GAME.000", "GAME.001", xorKey), "game.000", "game.001", xorKey)
	if err != nil {
		t.Fatalf("OpenBundle: %v", err)
	}

	for _, r := range bd.res {
		got, err := src.LoadResourceBytes(r.typ, r.idx)
		if err != nil {
			t.Fatalf("load %s %d: %v", r.typ, r.idx, err)
		}
		if !bytes.Equal(got, r.block) {
			t.Errorf("%s %d = % x, want % x", r.typ, r.idx, got, r.block)
		}
		room, _, err := src.LocateResource(r.typ, r.idx)
		if err != nil || room != r.room {
			t.Errorf("locate %s %d = room %d, %v; want %d", r.typ, r.idx, room, err, r.room)
		}
	}

	room, err := src.LoadResourceBytes(resource.TypeRoom, 3)
	if err != nil || !bytes.Equal(room, emptyRoom()) {
		t.Errorf("room 3 = % x, %v", room, err)
	}
	for _, h := range []resource.Handle{{Type: resource.TypeScript, Index: 2}, {Type: resource.TypeRoom, Index: 2}, {Type: resource.TypeVerb, Index: 1}} {
		if _, err := src.LoadResourceBytes(h.Type, h.Index); !errors.Is(err, ErrNotFound) {
			t.Errorf("load %s = %v, want ErrNotFound", h, err)
		}
	}
}

func TestBundleSource_CorruptData(t *testing.T) {
	index, _ := sampleBundle().files()
	ix, err := ParseIndex(index)
	if err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string][]byte{
		"not LECF": block("LFLF", nil),
		"no LOFF":  block("LECF", block("LFLF", nil)),
		"short":    block("LECF", block("LOFF", []byte{3, 1})),
	} {
		if _, err := NewBundleSource(ix, data); !errors.Is(err, ErrCorruptData) {
			t.Errorf("%s: %v, want ErrCorruptData", name, err)
		}
	}
}

func TestDetect(t *testing.T) {
	short := bundle{maxs: maxsPayload([]uint32{800, 0, 2048, 200, 0, 4, 0, 0, 80}, 2), rooms: map[int][]byte{1: emptyRoom()}}
	long := sampleBundle()
	v7 := bundle{maxs: maxsPayload([]uint32{1000, 0, 4096, 200, 50, 0, 100, 50, 80, 10, 20, 30, 4, 40, 1600}, 2), rooms: map[int][]byte{1: emptyRoom()}}
	wide := bundle{maxs: maxsPayload([]uint32{1500, 0, 4096, 200, 50, 0, 100, 50, 80, 10, 20, 30, 4, 40, 2000}, 4), rooms: map[int][]byte{1: emptyRoom()}}

	tests := []struct {
		name string
		fsys fileutil.FileSystem
		want version.ID
	}{
		{"v5 bundle", bundleFS(short, "MONKEY.000", "MONKEY.001", xorKey), version.V5},
		{"v6 bundle", bundleFS(long, "tentacle.000", "tentacle.001", xorKey), version.V6},
		{"v6 bundle unencrypted", bundleFS(long, "SAM.000", "SAM.001", 0), version.V6},
		{"v7 bundle", bundleFS(v7, "DIG.LA0", "DIG.LA1", 0), version.V7},
		{"v8 bundle", bundleFS(wide, "comi.la0", "comi.la1", 0), version.V8},
		{"flat", fileutil.NewEmbedFS(fstest.MapFS{"GAME.INI": {Data: []byte("[game]\nversion = v7\n")}}, "."), version.V7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.fsys)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetect_Unknown(t *testing.T) {
	index, _ := sampleBundle().files()
	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{"empty", fstest.MapFS{"readme.txt": {Data: []byte("hi")}}},
		{"index without data", fstest.MapFS{"GAME.000": {Data: encrypted(index, xorKey)}}},
		{"garbage index", fstest.MapFS{"GAME.000": {Data: []byte("garbage!")}, "GAME.001": {Data: []byte("x")}}},
		{"v8 MAXS in a v5 bundle", fstest.MapFS{
			"GAME.000": {Data: encrypted(block("MAXS", make([]byte, maxsWide)), xorKey)},
			"GAME.001": {Data: []byte("x")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Detect(fileutil.NewEmbedFS(tt.files, ".")); !errors.Is(err, ErrUnknownGame) {
				t.Errorf("Detect = %v, want ErrUnknownGame", err)
			}
		})
	}
}

func TestOpen_BundleSizesProfile(t *testing.T) {
	g, err := Open(bundleFS(sampleBundle(), "TENTACLE.000", "TENTACLE.001", xorKey), version.Unknown)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if g.Profile.ID != version.V6 || g.Layout != LayoutBundle || g.Name != "TENTACLE" {
		t.Errorf("game = %s %s %q", g.Profile.ID, g.Layout, g.Name)
	}
	if g.Profile.Counts.GlobalObjects != 120 || g.Profile.Counts.Costumes != 40 {
		t.Errorf("counts = %+v", g.Profile.Counts)
	}
	if g.RoomNames[1] != "dock" || g.Objects == nil {
		t.Errorf("room names %v, objects %v", g.RoomNames, g.Objects)
	}
}

func TestOpen_RunsInTheEngine(t *testing.T) {
	g, err := Open(bundleFS(sampleBundle(), "GAME.000", "GAME.001", xorKey), version.Unknown)
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(g.Profile, g.Source,
		engine.WithLogger(logger.Discard()),
		engine.WithObjects(g.Objects.Tables(g.Profile.Counts.GlobalObjects)))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := e.Init(0); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for range 3 {
		if _, err := e.RunTick(67); err != nil {
			t.Fatal(err)
		}
	}
	v, err := e.Machine().Vars().Global(300)
	if err != nil || v != 4 {
		t.Errorf("var 300 = %d, %v; want 4", v, err)
	}
	if owner, _ := e.Machine().Objects().Owner(2); owner != 3 {
		t.Errorf("object 2 owner = %d, want 3", owner)
	}
	if err := e.Machine().StartScene(3); err != nil {
		t.Errorf("StartScene(3): %v", err)
	}
}

func TestFlatSource(t *testing.T) {
	manifest := "[game]\nname = Demo\nversion = v6\nlanguage = jp\n\n[locations]\nscript.200 = 3:16\nsound.4 = 2\n"
	fsys := fileutil.NewEmbedFS(fstest.MapFS{
		"game.ini":       {Data: []byte(manifest)},
		"Script/200.BIN": {Data: []byte("local")},
		"Script/1.bin":   {Data: counterScript()},
		"sound/4.bin":    {Data: []byte("snd")},
		"room/3.bin":     {Data: emptyRoom()},
	}, ".")

	g, err := Open(fsys, version.Unknown)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if g.Layout != LayoutFlat || g.Profile.ID != version.V6 || g.Language != "jp" {
		t.Errorf("game = %+v", g)
	}

	tests := []struct {
		typ          resource.Type
		idx          int
		room, offset int
		data         string
	}{
		{resource.TypeScript, 200, 3, 16, "local"},
		{resource.TypeSound, 4, 2, 0, "snd"},
		{resource.TypeScript, 1, 0, 0, string(counterScript())},
		{resource.TypeRoom, 3, 3, 0, string(emptyRoom())},
	}
	for _, tt := range tests {
		room, off, err := g.Source.LocateResource(tt.typ, tt.idx)
		if err != nil || room != tt.room || off != tt.offset {
			t.Errorf("locate %s %d = %d:%d, %v", tt.typ, tt.idx, room, off, err)
		}
		b, err := g.Source.LoadResourceBytes(tt.typ, tt.idx)
		if err != nil || string(b) != tt.data {
			t.Errorf("load %s %d = %q, %v", tt.typ, tt.idx, b, err)
		}
	}
	if _, err := g.Source.LoadResourceBytes(resource.TypeCostume, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing costume = %v, want ErrNotFound", err)
	}
	if _, _, err := g.Source.LocateResource(resource.TypeCostume, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("locate missing costume = %v, want ErrNotFound", err)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"bad version":  "[game]\nversion = v9\n",
		"bad location": "[game]\nversion = v6\n[locations]\nscript.1 = x\n",
		"bad handle":   "[game]\nversion = v6\n[locations]\nwidget.1 = 1\n",
	} {
		if _, err := ParseManifest([]byte(src)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestProperty_BundleReturnsEveryStoredBlock(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every block placed in a room reads back unchanged", prop.ForAll(
		func(sizes []uint8, rooms []uint8) bool {
			bd := bundle{maxs: v6Maxs(), rooms: map[int][]byte{}}
			for i, size := range sizes {
				room := int(rooms[i%len(rooms)]%4) + 1
				bd.rooms[room] = emptyRoom()
				bd.res = append(bd.res, testRes{
					typ:   resource.TypeSound,
					idx:   i,
					room:  room,
					block: block("SOUN", bytes.Repeat([]byte{byte(i)}, int(size))),
				})
			}
			index, data := bd.files()
			ix, err := ParseIndex(encrypted(encrypted(index, xorKey), xorKey))
			if err != nil {
				return false
			}
			src, err := NewBundleSource(ix, data)
			if err != nil {
				return false
			}
			for _, r := range bd.res {
				got, err := src.LoadResourceBytes(r.typ, r.idx)
				if err != nil || !bytes.Equal(got, r.block) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.UInt8()),
		gen.SliceOfN(3, gen.UInt8()),
	))

	properties.TestingRun(t)
}
