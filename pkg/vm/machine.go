// Package vm is the script interpreter: a flat opcode table per bytecode
// dialect, the script slots it schedules, and the handlers that drive the
// variable store, object table, actors, palette and sound through narrow
// collaborator interfaces.
package vm

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/audio"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/text"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
)

// OpEntry binds one opcode byte to its handler. Pops and Pushes are the
// declared stack arity, checked after every execution unless Var is set.
type OpEntry struct {
	Name   string
	Fn     func(m *Machine)
	Pops   int
	Pushes int
	Var    bool
}

// Table is the opcode table of one dialect.
type Table [256]OpEntry

// Machine executes scripts for one game.
type Machine struct {
	prof  *version.Profile
	table *Table

	res  *resource.Manager
	vars *vars.Store
	objs *vars.Objects

	actors  *actor.World
	camera  *actor.Camera
	screen  *screen.Screen
	audio   audio.Backend
	talk    *text.Channel
	decoder *text.Decoder
	host    Host
	rnd     *rand.Rand

	slots   []Instance
	cur     *Instance
	code    []byte
	op      int
	yielded bool
	depth   int
	pass    uint32
	nextID  uint64
	fatal   *RuntimeError

	resultPos int

	cutscenes   []cutscene
	room        *Room
	inventory   []int
	sentences   []Sentence
	objectNames map[int][]byte

	printActor   int
	printStyle   [5]text.Style
	printDefault [5]text.Style

	cursor   int
	userput  int
	curActor int

	log *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithAudio sets the sound backend.
func WithAudio(b audio.Backend) Option {
	return func(m *Machine) {
		m.audio = b
	}
}

// WithScreen sets the virtual screen.
func WithScreen(s *screen.Screen) Option {
	return func(m *Machine) {
		m.screen = s
	}
}

// WithTextSink sets where messages are delivered.
func WithTextSink(s text.Sink) Option {
	return func(m *Machine) {
		m.talk = text.NewChannel(s)
	}
}

// WithLanguage selects the message decoder.
func WithLanguage(lang string) Option {
	return func(m *Machine) {
		m.decoder = text.NewDecoder(lang)
	}
}

// WithHost sets the receiver of quit, restart and pause requests.
func WithHost(h Host) Option {
	return func(m *Machine) {
		m.host = h
	}
}

// WithSeed makes random numbers reproducible.
func WithSeed(seed int64) Option {
	return func(m *Machine) {
		m.rnd = rand.New(rand.NewPCG(uint64(seed), 0))
	}
}

// New creates a machine for the profile's dialect over the given stores.
func New(prof *version.Profile, res *resource.Manager, store *vars.Store, objs *vars.Objects, opts ...Option) (*Machine, error) {
	table, err := TableFor(prof.ID)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		prof:        prof,
		table:       table,
		res:         res,
		vars:        store,
		objs:        objs,
		host:        nopHost{},
		objectNames: make(map[int][]byte),
		cursor:      1,
		userput:     1,
		log:         logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if m.screen == nil {
		m.screen = screen.New(prof.ScreenWidth, prof.ScreenHeight, screen.WithPaletteStrategy(prof.Palette), screen.WithLogger(m.log))
	}
	if m.audio == nil {
		m.audio = audio.NewNull()
	}
	if m.talk == nil {
		m.talk = text.NewChannel(text.LogSink{Log: m.log})
	}
	if m.decoder == nil {
		m.decoder = text.NewDecoder("")
	}
	m.actors = actor.NewWorld(prof.Counts.Actors, actor.WithLogger(m.log))
	m.camera = actor.NewCamera(prof.ScreenWidth)
	m.slots = make([]Instance, prof.Counts.ScriptSlots)
	for i := range m.slots {
		m.slots[i].Slot = i
	}
	res.SetInUse(m.inUse)
	return m, nil
}

// TableFor returns the opcode table of dialect id.
func TableFor(id version.ID) (*Table, error) {
	switch id {
	case version.V5:
		return &v5Table, nil
	case version.V6:
		return &v6Table, nil
	case version.V7:
		return &v7Table, nil
	case version.V8:
		return &v8Table, nil
	}
	return nil, fmt.Errorf("no opcode table for %s", id)
}

// ConfigureResources sizes the resource tables the machine uses from the
// profile's counts and applies its heap thresholds.
func ConfigureResources(res *resource.Manager, prof *version.Profile) error {
	c := prof.Counts
	sizes := []struct {
		t resource.Type
		n int
	}{
		{resource.TypeRoom, c.Rooms},
		{resource.TypeScript, c.Scripts},
		{resource.TypeCostume, c.Costumes},
		{resource.TypeSound, c.Sounds},
		{resource.TypeInventory, c.Inventory},
		{resource.TypeCharset, c.Charsets},
		{resource.TypeVerb, c.Verbs},
		{resource.TypeString, c.Arrays + 1},
	}
	for _, s := range sizes {
		if err := res.Configure(s.t, s.n); err != nil {
			return fmt.Errorf("configure %s: %w", s.t, err)
		}
	}
	return res.SetHeapThreshold(prof.HeapMin, prof.HeapMax)
}

func (m *Machine) Profile() *version.Profile          { return m.prof }
func (m *Machine) Resources() *resource.Manager       { return m.res }
func (m *Machine) Vars() *vars.Store                  { return m.vars }
func (m *Machine) Objects() *vars.Objects             { return m.objs }
func (m *Machine) Actors() *actor.World               { return m.actors }
func (m *Machine) Camera() *actor.Camera              { return m.camera }
func (m *Machine) Screen() *screen.Screen             { return m.screen }
func (m *Machine) Audio() audio.Backend               { return m.audio }
func (m *Machine) Talk() *text.Channel                { return m.talk }
func (m *Machine) Table() *Table                      { return m.table }
func (m *Machine) Inventory() []int                   { return append([]int(nil), m.inventory...) }
func (m *Machine) CurrentRoom() *Room                 { return m.room }
func (m *Machine) PendingSentences() []Sentence       { return append([]Sentence(nil), m.sentences...) }
func (m *Machine) CursorState() (cursor, userput int) { return m.cursor, m.userput }

// Err returns the fatal error that stopped the machine, or nil.
func (m *Machine) Err() error {
	if m.fatal == nil {
		return nil
	}
	return m.fatal
}

// Slot returns script slot i.
func (m *Machine) Slot(i int) *Instance {
	if i < 0 || i >= len(m.slots) {
		return nil
	}
	return &m.slots[i]
}

// NumSlots returns the number of script slots.
func (m *Machine) NumSlots() int { return len(m.slots) }

// Current returns the executing instance, or nil between scripts.
func (m *Machine) Current() *Instance { return m.cur }

// inUse keeps the sweep away from code and sounds the machine still references.
func (m *Machine) inUse(t resource.Type, idx int) bool {
	switch t {
	case resource.TypeRoom:
		if m.room != nil && m.room.Number == idx {
			return true
		}
	case resource.TypeSound:
		return m.audio.IsSoundRunning(idx)
	case resource.TypeCostume:
		if m.room != nil {
			for _, n := range m.actors.InRoom(m.room.Number) {
				if a, err := m.actors.Get(n); err == nil && a.Costume == idx {
					return true
				}
			}
		}
		return false
	}
	for i := range m.slots {
		in := &m.slots[i]
		if in.Alive() && in.Code.Type == t && in.Code.Index == idx {
			return true
		}
	}
	return false
}
