package audio

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zurustar/sputm/pkg/logger"
)

type nullVoice struct {
	priority  int
	music     bool
	remaining time.Duration
	elapsed   time.Duration
}

// Null is a silent backend for headless runs and tests. Sounds last as long
// as their data says and finish when Advance moves the clock past their end.
type Null struct {
	mu       sync.Mutex
	voices   map[int]*nullVoice
	music    int
	finished []int
	played   []int
	log      *slog.Logger
}

// NewNull returns an idle silent backend.
func NewNull() *Null {
	return &Null{voices: make(map[int]*nullVoice), log: logger.GetLogger()}
}

func (n *Null) PlaySound(id int, data []byte, priority, volume, pan int) error {
	s := Classify(data)
	if s.Format == FormatUnknown {
		return ErrUnsupportedSound
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	music := s.Format == FormatMIDI
	if music && n.music != 0 {
		if cur, ok := n.voices[n.music]; ok && cur.priority > priority {
			n.log.Debug("Music refused by priority", "sound", id, "priority", priority, "playing", n.music)
			return nil
		}
		n.stopLocked(n.music)
	}
	n.stopLocked(id)
	n.voices[id] = &nullVoice{priority: priority, music: music, remaining: Duration(s)}
	if music {
		n.music = id
	}
	n.played = append(n.played, id)
	return nil
}

func (n *Null) stopLocked(id int) {
	if _, ok := n.voices[id]; !ok {
		return
	}
	delete(n.voices, id)
	if n.music == id {
		n.music = 0
	}
}

func (n *Null) StopSound(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked(id)
}

func (n *Null) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.voices)
	n.music = 0
}

func (n *Null) IsSoundRunning(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.voices[id]
	return ok
}

func (n *Null) Timer() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.voices[n.music]; ok {
		return jiffies(v.elapsed)
	}
	return 0
}

// Advance moves every sound forward by d.
func (n *Null) Advance(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int, 0, len(n.voices))
	for id := range n.voices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		v := n.voices[id]
		v.elapsed += d
		v.remaining -= d
		if v.remaining <= 0 {
			n.stopLocked(id)
			n.finished = append(n.finished, id)
		}
	}
}

// Update does nothing; Null sounds only end through Advance.
func (n *Null) Update() {}

func (n *Null) Finished() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.finished
	n.finished = nil
	return out
}

// Played returns every id passed to a successful PlaySound, in order.
func (n *Null) Played() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.played...)
}

func (n *Null) Close() error {
	n.StopAll()
	return nil
}
