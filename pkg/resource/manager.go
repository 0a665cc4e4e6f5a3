package resource

import (
	"errors"
	"fmt"
	"log/slog"

	"fortio.org/safecast"

	"github.com/zurustar/sputm/pkg/logger"
)

var (
	// ErrOutOfMemory is returned when an allocation exceeds the hard heap limit
	// even after the eviction sweep. It is fatal to the engine.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrLogic is returned for bookkeeping misuse that the manager repairs itself,
	// such as unlocking a resource that is not locked.
	ErrLogic = errors.New("resource logic error")

	// ErrOutOfRange is returned for a type or index the manager was not configured for.
	ErrOutOfRange = errors.New("resource index out of range")

	// ErrNoSource is returned by Load when no GameDataSource is attached.
	ErrNoSource = errors.New("no game data source")
)

// MinEvictAge is the default number of Age generations a resource must sit
// untouched before the sweep may evict it. Resources touched this tick or the
// previous one stay resident and the allocation goes over the max threshold.
const MinEvictAge = 2

// Default heap thresholds in bytes.
const (
	DefaultMinHeap = 400000
	DefaultMaxHeap = 550000
)

// GameDataSource reads raw resource bytes from the game files.
type GameDataSource interface {
	// LoadResourceBytes returns the bytes of resource idx of type t.
	LoadResourceBytes(t Type, idx int) ([]byte, error)
	// LocateResource returns the room holding the resource and its byte offset within that room.
	LocateResource(t Type, idx int) (room, offset int, err error)
}

// InUseFunc reports whether the engine is still referencing a resource that is
// otherwise unlocked (the current room, a running script, a playing sound).
type InUseFunc func(t Type, idx int) bool

// Flag holds per-resource state bits.
type Flag uint8

const (
	// FlagModified marks a resource whose bytes were changed after loading.
	FlagModified Flag = 1 << iota
	// FlagLocked mirrors lockCount > 0.
	FlagLocked
)

// Resource is one slot of the resource table.
type Resource struct {
	Type   Type
	Index  int
	Room   int
	Offset int

	data        []byte
	lockCount   int
	flags       Flag
	lastTouched uint32
}

// Data returns the resource bytes, or nil when not loaded. The slice is valid
// until the next call that can allocate.
func (r *Resource) Data() []byte { return r.data }

// Loaded reports whether the resource is resident.
func (r *Resource) Loaded() bool { return r.data != nil }

// Size returns the resident size in bytes.
func (r *Resource) Size() int { return len(r.data) }

// LockCount returns the number of outstanding locks.
func (r *Resource) LockCount() int { return r.lockCount }

// Flags returns the state bits.
func (r *Resource) Flags() Flag { return r.flags }

// LastTouched returns the Age generation of the most recent access.
func (r *Resource) LastTouched() uint32 { return r.lastTouched }

// Manager owns every resource buffer and keeps the running allocation total
// between the configured heap thresholds.
type Manager struct {
	tables    [NumTypes][]Resource
	allocated int
	minHeap   int
	maxHeap   int
	hardLimit int
	minAge    uint32
	tick      uint32

	source GameDataSource
	inUse  InUseFunc
	log    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithSource attaches the game data source used by Load.
func WithSource(src GameDataSource) Option {
	return func(m *Manager) {
		m.source = src
	}
}

// WithHardLimit makes allocations fail with ErrOutOfMemory once the total would
// exceed limit bytes after the sweep. Zero disables the limit.
func WithHardLimit(limit int) Option {
	return func(m *Manager) {
		m.hardLimit = limit
	}
}

// WithMinEvictAge sets how many Age generations a resource must sit untouched
// before the sweep may evict it. Zero makes every unlocked resource a candidate.
func WithMinEvictAge(gens uint32) Option {
	return func(m *Manager) {
		m.minAge = gens
	}
}

// NewManager creates a manager with the default heap thresholds and no configured types.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		minHeap: DefaultMinHeap,
		maxHeap: DefaultMaxHeap,
		minAge:  MinEvictAge,
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetSource attaches or replaces the game data source.
func (m *Manager) SetSource(src GameDataSource) { m.source = src }

// SetInUse installs the engine's in-use predicate consulted by the sweep.
func (m *Manager) SetInUse(fn InUseFunc) { m.inUse = fn }

// Configure sizes the table for type t to n slots, freeing anything already there.
func (m *Manager) Configure(t Type, n int) error {
	if !t.Valid() {
		return fmt.Errorf("configure %s: %w", t, ErrOutOfRange)
	}
	if n < 0 {
		return fmt.Errorf("configure %s with %d slots: %w", t, n, ErrOutOfRange)
	}
	for i := range m.tables[t] {
		m.allocated -= len(m.tables[t][i].data)
	}
	m.tables[t] = make([]Resource, n)
	for i := range m.tables[t] {
		m.tables[t][i].Type = t
		m.tables[t][i].Index = i
	}
	return nil
}

// Count returns the number of slots configured for t.
func (m *Manager) Count(t Type) int {
	if !t.Valid() {
		return 0
	}
	return len(m.tables[t])
}

// SetHeapThreshold sets the sweep trigger (max) and the level the sweep aims for (min).
func (m *Manager) SetHeapThreshold(minHeap, maxHeap int) error {
	if minHeap < 0 || minHeap > maxHeap {
		return fmt.Errorf("heap threshold min %d max %d: min must be in [0, max]", minHeap, maxHeap)
	}
	m.minHeap = minHeap
	m.maxHeap = maxHeap
	return nil
}

// HeapThreshold returns the configured min and max thresholds.
func (m *Manager) HeapThreshold() (minHeap, maxHeap int) {
	return m.minHeap, m.maxHeap
}

// Allocated returns the running total of resident bytes.
func (m *Manager) Allocated() int { return m.allocated }

// Tick returns the current Age generation.
func (m *Manager) Tick() uint32 { return m.tick }

// Age advances the expiry generation. The main loop calls it once per tick.
func (m *Manager) Age() { m.tick++ }

func (m *Manager) slot(t Type, idx int) (*Resource, error) {
	if !t.Valid() || idx < 0 || idx >= len(m.tables[t]) {
		return nil, fmt.Errorf("%s %d: %w", t, idx, ErrOutOfRange)
	}
	return &m.tables[t][idx], nil
}

// Allocate creates a zeroed buffer of size bytes for (t, idx), replacing any
// previous contents. The eviction sweep runs first when the new total would
// exceed the max threshold.
func (m *Manager) Allocate(t Type, idx, size int) ([]byte, error) {
	r, err := m.slot(t, idx)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("allocate %s %d: negative size %d", t, idx, size)
	}
	m.release(r)

	if m.allocated+size > m.maxHeap {
		m.expire(size)
	}
	if m.hardLimit > 0 && m.allocated+size > m.hardLimit {
		return nil, fmt.Errorf("allocate %s %d (%d bytes, %d resident, limit %d): %w",
			t, idx, size, m.allocated, m.hardLimit, ErrOutOfMemory)
	}

	r.data = make([]byte, size)
	r.lastTouched = m.tick
	m.allocated += size
	return r.data, nil
}

// Store allocates (t, idx) and copies b into it.
func (m *Manager) Store(t Type, idx int, b []byte) error {
	buf, err := m.Allocate(t, idx, len(b))
	if err != nil {
		return err
	}
	copy(buf, b)
	return nil
}

// Get returns the slot for (t, idx) and marks it touched. The result is nil for an
// invalid handle. A slot that is not loaded is returned with Loaded() == false.
func (m *Manager) Get(t Type, idx int) *Resource {
	r, err := m.slot(t, idx)
	if err != nil {
		return nil
	}
	if r.data != nil {
		r.lastTouched = m.tick
	}
	return r
}

// Data returns the resident bytes of (t, idx) without loading. Touches the resource.
func (m *Manager) Data(t Type, idx int) []byte {
	r := m.Get(t, idx)
	if r == nil {
		return nil
	}
	return r.data
}

// Resident reports whether (t, idx) is loaded. It does not touch the resource.
func (m *Manager) Resident(t Type, idx int) bool {
	r, err := m.slot(t, idx)
	return err == nil && r.data != nil
}

// Load returns the bytes of (t, idx), reading them through the game data source
// when not resident.
func (m *Manager) Load(t Type, idx int) ([]byte, error) {
	r, err := m.slot(t, idx)
	if err != nil {
		return nil, err
	}
	if r.data != nil {
		r.lastTouched = m.tick
		return r.data, nil
	}
	if m.source == nil {
		return nil, fmt.Errorf("load %s %d: %w", t, idx, ErrNoSource)
	}

	room, offset, err := m.source.LocateResource(t, idx)
	if err != nil {
		return nil, fmt.Errorf("locate %s %d: %w", t, idx, err)
	}
	b, err := m.source.LoadResourceBytes(t, idx)
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", t, idx, err)
	}
	if err := m.Store(t, idx, b); err != nil {
		return nil, err
	}
	// Store may have run the sweep; re-resolve the slot.
	r = &m.tables[t][idx]
	r.Room = room
	r.Offset = offset
	r.flags &^= FlagModified
	m.log.Debug("Resource loaded", "type", t.String(), "index", idx, "size", len(b), "room", room)
	return r.data, nil
}

// Lock pins (t, idx) so the sweep never evicts it. Locks nest.
func (m *Manager) Lock(t Type, idx int) error {
	r, err := m.slot(t, idx)
	if err != nil {
		return err
	}
	r.lockCount++
	r.flags |= FlagLocked
	return nil
}

// Unlock releases one lock. Unlocking an unlocked resource is logged and
// reported as ErrLogic; the count stays at zero.
func (m *Manager) Unlock(t Type, idx int) error {
	r, err := m.slot(t, idx)
	if err != nil {
		return err
	}
	if r.lockCount == 0 {
		m.log.Warn("Unlock of unlocked resource", "type", t.String(), "index", idx)
		return fmt.Errorf("unlock %s %d: lock count already zero: %w", t, idx, ErrLogic)
	}
	r.lockCount--
	if r.lockCount == 0 {
		r.flags &^= FlagLocked
	}
	return nil
}

// IsLocked reports whether (t, idx) holds at least one lock.
func (m *Manager) IsLocked(t Type, idx int) bool {
	r, err := m.slot(t, idx)
	return err == nil && r.lockCount > 0
}

// MarkModified flags (t, idx) as changed since it was loaded.
func (m *Manager) MarkModified(t Type, idx int) {
	if r, err := m.slot(t, idx); err == nil && r.data != nil {
		r.flags |= FlagModified
	}
}

// Free releases (t, idx). It returns false and does nothing when the resource is locked.
func (m *Manager) Free(t Type, idx int) bool {
	r, err := m.slot(t, idx)
	if err != nil || r.lockCount > 0 {
		return false
	}
	m.release(r)
	return true
}

// ForceFree releases (t, idx) and drops every lock on it. Room changes use it on the outgoing room.
func (m *Manager) ForceFree(t Type, idx int) {
	r, err := m.slot(t, idx)
	if err != nil {
		return
	}
	if r.lockCount > 0 {
		m.log.Debug("Force-freeing locked resource", "type", t.String(), "index", idx, "locks", r.lockCount)
	}
	r.lockCount = 0
	r.flags &^= FlagLocked
	m.release(r)
}

func (m *Manager) release(r *Resource) {
	if r.data == nil {
		return
	}
	m.allocated -= len(r.data)
	r.data = nil
	r.flags &^= FlagModified
	r.Room = 0
	r.Offset = 0
}

func (m *Manager) age(r *Resource) uint32 {
	return m.tick - r.lastTouched
}

// evictable reports whether the sweep may drop r.
func (m *Manager) evictable(r *Resource) bool {
	if r.data == nil || r.lockCount > 0 || !r.Type.Dynamic() {
		return false
	}
	if m.age(r) < m.minAge {
		return false
	}
	return m.inUse == nil || !m.inUse(r.Type, r.Index)
}

// Evictable counts the resources the sweep could drop right now.
func (m *Manager) Evictable() int {
	n := 0
	m.each(func(r *Resource) {
		if m.evictable(r) {
			n++
		}
	})
	return n
}

// Purge drops every resource the sweep could drop right now and returns how
// many went.
func (m *Manager) Purge() int {
	n := 0
	m.each(func(r *Resource) {
		if m.evictable(r) {
			m.release(r)
			n++
		}
	})
	if n > 0 {
		m.log.Debug("Heap purged", "evicted", n, "allocated", m.allocated)
	}
	return n
}

// expire runs the sweep for an upcoming allocation of size bytes. Types are
// visited in Type order; inside a type the oldest candidate goes first, lower
// index winning ties. The sweep stops once the total plus size fits under the
// min threshold or no candidate remains.
func (m *Manager) expire(size int) {
	before := m.allocated
	evicted := 0
	for t := TypeInvalid + 1; t < NumTypes; t++ {
		if !t.Dynamic() {
			continue
		}
		for m.allocated+size > m.minHeap {
			victim := m.oldest(t)
			if victim == nil {
				break
			}
			m.log.Debug("Evicting resource", "type", t.String(), "index", victim.Index,
				"size", len(victim.data), "age", m.age(victim))
			m.release(victim)
			evicted++
		}
		if m.allocated+size <= m.minHeap {
			break
		}
	}
	if evicted > 0 {
		freed, _ := safecast.Conv[uint32](before - m.allocated)
		m.log.Debug("Eviction sweep", "evicted", evicted, "freed", freed, "allocated", m.allocated)
	}
	if m.allocated+size > m.maxHeap {
		m.log.Debug("Heap above threshold after sweep", "allocated", m.allocated, "request", size, "max", m.maxHeap)
	}
}

func (m *Manager) oldest(t Type) *Resource {
	var best *Resource
	for i := range m.tables[t] {
		r := &m.tables[t][i]
		if !m.evictable(r) {
			continue
		}
		if best == nil || m.age(r) > m.age(best) {
			best = r
		}
	}
	return best
}

// each calls fn for every resident resource in Type then index order.
func (m *Manager) each(fn func(r *Resource)) {
	for t := range m.tables {
		for i := range m.tables[t] {
			if m.tables[t][i].data != nil {
				fn(&m.tables[t][i])
			}
		}
	}
}

// Locked returns handles of every locked resource in Type then index order.
// Save games carry them so script locks survive a restore.
func (m *Manager) Locked() []Handle {
	var hs []Handle
	for t := range m.tables {
		for i := range m.tables[t] {
			if m.tables[t][i].lockCount > 0 {
				hs = append(hs, Handle{Type: Type(t), Index: i})
			}
		}
	}
	return hs
}

// Handle is a stable reference to a resource slot. Callers keep handles across
// calls that can allocate, never the byte slices.
type Handle struct {
	Type  Type
	Index int
}

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Type, h.Index)
}
