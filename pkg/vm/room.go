package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

// Block tags of a room resource.
var (
	tagRoom = resource.MakeTag("ROOM")
	tagRMHD = resource.MakeTag("RMHD")
	tagCLUT = resource.MakeTag("CLUT")
	tagOBCD = resource.MakeTag("OBCD")
	tagCDHD = resource.MakeTag("CDHD")
	tagVERB = resource.MakeTag("VERB")
	tagOBNA = resource.MakeTag("OBNA")
	tagENCD = resource.MakeTag("ENCD")
	tagEXCD = resource.MakeTag("EXCD")
	tagLSCR = resource.MakeTag("LSCR")
)

// defaultVerb is the verb entry run when an object has no handler for the requested verb.
const defaultVerb = 0xFF

// Object is the code block of one object: header, verb table and name.
type Object struct {
	ID     int
	Bounds image.Rectangle
	Name   []byte
	// Verbs maps a verb to the absolute code offset in the holding resource.
	Verbs map[int]int

	start, end int
}

// Room is the parsed layout of a loaded room resource. Offsets are absolute
// positions in the resource data.
type Room struct {
	Number  int
	Width   int
	Height  int
	Palette []byte
	Entry   int
	Exit    int
	Locals  map[int]int
	Objects []Object
}

// Object returns the object block for id.
func (r *Room) Object(id int) (*Object, bool) {
	for i := range r.Objects {
		if r.Objects[i].ID == id {
			return &r.Objects[i], true
		}
	}
	return nil, false
}

// ParseRoom decodes the block layout of a room resource.
func ParseRoom(number int, data []byte, prof *version.Profile) (*Room, error) {
	r := &Room{Number: number, Width: prof.ScreenWidth, Height: prof.ScreenHeight, Entry: -1, Exit: -1, Locals: make(map[int]int)}
	body, base := data, 0
	if c, ok := resource.FindChunk(data, tagRoom); ok {
		body, base = c.Data, c.Offset+resource.ChunkHeaderSize
	}
	chunks, err := resource.Chunks(body)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", number, err)
	}
	for _, c := range chunks {
		start := base + c.Offset + resource.ChunkHeaderSize
		switch c.Tag {
		case tagRMHD:
			if len(c.Data) < 4 {
				return nil, fmt.Errorf("room %d header of %d bytes: %w", number, len(c.Data), resource.ErrBadChunk)
			}
			r.Width = int(binary.LittleEndian.Uint16(c.Data))
			r.Height = int(binary.LittleEndian.Uint16(c.Data[2:]))
		case tagCLUT:
			r.Palette = c.Data
		case tagENCD:
			r.Entry = start
		case tagEXCD:
			r.Exit = start
		case tagLSCR:
			id, n := localScriptID(c.Data, prof.ID)
			if n == 0 {
				return nil, fmt.Errorf("room %d local script block: %w", number, resource.ErrBadChunk)
			}
			r.Locals[id] = start + n
		case tagOBCD:
			obj, err := parseObject(c.Data, start)
			if err != nil {
				return nil, fmt.Errorf("room %d: %w", number, err)
			}
			obj.start, obj.end = base+c.Offset, base+c.Offset+c.Size()
			r.Objects = append(r.Objects, obj)
		}
	}
	return r, nil
}

// localScriptID reads the script number that prefixes local script code.
func localScriptID(b []byte, id version.ID) (int, int) {
	switch id {
	case version.V5, version.V6:
		if len(b) < 1 {
			return 0, 0
		}
		return int(b[0]), 1
	case version.V7:
		if len(b) < 2 {
			return 0, 0
		}
		return int(binary.LittleEndian.Uint16(b)), 2
	default:
		if len(b) < 4 {
			return 0, 0
		}
		return int(binary.LittleEndian.Uint32(b)), 4
	}
}

// parseObject decodes an OBCD payload starting at absolute offset start.
func parseObject(b []byte, start int) (Object, error) {
	obj := Object{Verbs: make(map[int]int)}
	hdr, ok := resource.FindChunk(b, tagCDHD)
	if !ok || len(hdr.Data) < 10 {
		return obj, fmt.Errorf("object without header: %w", resource.ErrBadChunk)
	}
	le := binary.LittleEndian
	obj.ID = int(le.Uint16(hdr.Data))
	x, y := int(le.Uint16(hdr.Data[2:])), int(le.Uint16(hdr.Data[4:]))
	obj.Bounds = image.Rect(x, y, x+int(le.Uint16(hdr.Data[6:])), y+int(le.Uint16(hdr.Data[8:])))

	if verb, ok := resource.FindChunk(b, tagVERB); ok {
		for i := 0; i+3 <= len(verb.Data) && verb.Data[i] != 0; i += 3 {
			off := int(le.Uint16(verb.Data[i+1:]))
			obj.Verbs[int(verb.Data[i])] = start + verb.Offset + off
		}
	}
	if name, ok := resource.FindChunk(b, tagOBNA); ok {
		if i := bytes.IndexByte(name.Data, 0); i >= 0 {
			obj.Name = append([]byte(nil), name.Data[:i]...)
		} else {
			obj.Name = append([]byte(nil), name.Data...)
		}
	}
	return obj, nil
}

// inventorySlot returns the index of obj in the inventory list, or -1.
func (m *Machine) inventorySlot(obj int) int {
	for i, o := range m.inventory {
		if o == obj {
			return i
		}
	}
	return -1
}

// objectBlock finds the code block of obj: the inventory copy first, then the current room.
func (m *Machine) objectBlock(obj int) (resource.Handle, *Object, OwnerKind, bool) {
	if i := m.inventorySlot(obj); i >= 0 {
		data := m.res.Data(resource.TypeInventory, i)
		o, err := parseObject(data[min(len(data), resource.ChunkHeaderSize):], resource.ChunkHeaderSize)
		if err == nil {
			return resource.Handle{Type: resource.TypeInventory, Index: i}, &o, OwnerInventory, true
		}
	}
	if m.room != nil {
		if o, ok := m.room.Object(obj); ok {
			return resource.Handle{Type: resource.TypeRoom, Index: m.room.Number}, o, OwnerObject, true
		}
	}
	return resource.Handle{}, nil, OwnerObject, false
}

// objectCode resolves the code of obj's handler for verb.
func (m *Machine) objectCode(obj, verb int) (resource.Handle, int, OwnerKind, bool) {
	h, o, owner, ok := m.objectBlock(obj)
	if !ok {
		return h, 0, owner, false
	}
	off, ok := o.Verbs[verb]
	if !ok {
		off, ok = o.Verbs[defaultVerb]
	}
	return h, off, owner, ok
}

// verbEntrypoint reports the code offset of obj's verb handler, or 0.
func (m *Machine) verbEntrypoint(obj, verb int) int {
	_, o, _, ok := m.objectBlock(obj)
	if !ok {
		return 0
	}
	return o.Verbs[verb]
}

// objectName returns a renamed object's name, else the name in its block.
func (m *Machine) objectName(obj int) []byte {
	if name, ok := m.objectNames[obj]; ok {
		return name
	}
	if _, o, _, ok := m.objectBlock(obj); ok {
		return o.Name
	}
	return nil
}

// objectAt returns the topmost object of the current room containing (x, y), or 0.
func (m *Machine) objectAt(x, y int) int {
	if m.room == nil {
		return 0
	}
	pt := image.Pt(x, y)
	for i := len(m.room.Objects) - 1; i >= 0; i-- {
		if o := &m.room.Objects[i]; pt.In(o.Bounds) {
			return o.ID
		}
	}
	return 0
}

// objectPosition returns the position of an actor or object id.
func (m *Machine) objectPosition(id int) (int, int, bool) {
	if id > 0 && id < m.actors.Count() {
		if a, err := m.actors.Get(id); err == nil {
			return a.X, a.Y, true
		}
	}
	if m.room != nil {
		if o, ok := m.room.Object(id); ok {
			c := o.Bounds.Min.Add(o.Bounds.Max).Div(2)
			return c.X, o.Bounds.Max.Y, true
		}
	}
	return 0, 0, false
}

// PickupObject moves obj from its room into ego's inventory, copying its code block.
func (m *Machine) PickupObject(obj, room int) error {
	if m.inventorySlot(obj) >= 0 {
		return nil
	}
	if m.room == nil || m.room.Number != room {
		return fmt.Errorf("pickup object %d from room %d: room not loaded: %w", obj, room, ErrNoCode)
	}
	o, ok := m.room.Object(obj)
	if !ok {
		return fmt.Errorf("pickup object %d: not in room %d: %w", obj, room, ErrNoCode)
	}
	slot := len(m.inventory)
	if slot >= m.res.Count(resource.TypeInventory) {
		return fmt.Errorf("inventory of %d full: %w", slot, resource.ErrOutOfRange)
	}
	data := m.res.Data(resource.TypeRoom, room)
	block := append([]byte(nil), data[o.start:o.end]...)
	if err := m.res.Store(resource.TypeInventory, slot, block); err != nil {
		return err
	}
	m.inventory = append(m.inventory, obj)
	if err := m.objs.PutOwner(obj, int(m.engineVar(vars.VarEgo))); err != nil {
		return err
	}
	return m.objs.PutState(obj, 1)
}

// dropInventory frees the inventory copies of objects no longer owned by an actor.
func (m *Machine) dropInventory() {
	kept := m.inventory[:0]
	for i, obj := range m.inventory {
		owner, err := m.objs.Owner(obj)
		if err == nil && owner != m.prof.OwnerRoom && owner != 0 {
			if len(kept) != i {
				data := m.res.Data(resource.TypeInventory, i)
				_ = m.res.Store(resource.TypeInventory, len(kept), data)
			}
			kept = append(kept, obj)
		}
	}
	for i := len(kept); i < len(m.inventory); i++ {
		m.res.ForceFree(resource.TypeInventory, i)
	}
	m.inventory = kept
}

// StartScene leaves the current room and enters room. Room 0 leaves without entering.
func (m *Machine) StartScene(room int) error {
	m.log.Debug("Start scene", "from", m.roomNumber(), "to", room)
	m.setEngineVar(vars.VarNewRoom, int32(room))
	if m.room != nil {
		m.startScript(int(m.engineVar(vars.VarExitScript)), false, false, nil)
		m.runRoomCode(m.room.Exit)
		m.startScript(int(m.engineVar(vars.VarExitScript2)), false, false, nil)
		if m.fatal != nil {
			return m.fatal
		}
	}

	m.killRoomScripts()
	m.talk.Stop()
	m.screen.ClearCycles()
	if m.room != nil {
		old := m.room.Number
		m.room = nil
		m.res.ForceFree(resource.TypeRoom, old)
	}
	m.setEngineVar(vars.VarRoom, int32(room))
	m.setEngineVar(vars.VarRoomResource, int32(room))
	m.actors.HideAll()
	if room == 0 {
		return nil
	}

	if err := m.enterRoom(room); err != nil {
		m.setEngineVar(vars.VarRoom, 0)
		m.setEngineVar(vars.VarRoomResource, 0)
		return err
	}
	for _, n := range m.actors.InRoom(room) {
		_ = m.actors.PutInRoom(n, room)
	}
	m.startScript(int(m.engineVar(vars.VarEntryScript)), false, false, nil)
	m.runRoomCode(m.room.Entry)
	m.startScript(int(m.engineVar(vars.VarEntryScript2)), false, false, nil)
	return m.Err()
}

// enterRoom loads, parses and locks room and resets the room-dependent state.
// A room that fails to parse is dropped again.
func (m *Machine) enterRoom(room int) error {
	data, err := m.res.Load(resource.TypeRoom, room)
	if err != nil {
		return fmt.Errorf("enter room %d: %w", room, err)
	}
	r, err := ParseRoom(room, data, m.prof)
	if err != nil {
		m.res.Free(resource.TypeRoom, room)
		return err
	}
	if err := m.res.Lock(resource.TypeRoom, room); err != nil {
		return err
	}
	m.room = r
	for _, o := range r.Objects {
		if err := m.objs.PutRoom(o.ID, room); err != nil {
			m.log.Warn("Room object out of range", "room", room, "object", o.ID, "error", err)
			continue
		}
		if owner, _ := m.objs.Owner(o.ID); owner == 0 {
			_ = m.objs.PutOwner(o.ID, m.prof.OwnerRoom)
		}
	}
	m.setEngineVar(vars.VarRoomWidth, int32(r.Width))
	m.setEngineVar(vars.VarRoomHeight, int32(r.Height))
	m.camera.Reset(r.Width)
	m.setEngineVar(vars.VarCameraMinX, int32(m.camera.MinX))
	m.setEngineVar(vars.VarCameraMaxX, int32(m.camera.MaxX))
	m.setEngineVar(vars.VarCameraPosX, int32(m.camera.X))

	m.screen.ResetPalette()
	if len(r.Palette) > 0 {
		if err := m.screen.LoadPalette(r.Palette); err != nil {
			m.log.Warn("Room palette rejected", "room", room, "error", err)
		}
	}
	m.screen.MarkAll()
	return nil
}

// killRoomScripts stops room, object and local scripts that are not freeze resistant.
func (m *Machine) killRoomScripts() {
	for i := range m.slots {
		in := &m.slots[i]
		if !in.Alive() || in.Owner == OwnerGlobal || in.Owner == OwnerInventory || in.FreezeResistant {
			continue
		}
		m.kill(in)
	}
}

func (m *Machine) roomNumber() int {
	if m.room == nil {
		return 0
	}
	return m.room.Number
}
