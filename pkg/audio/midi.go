package audio

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// MIDIStream renders a sequencer into 16-bit stereo PCM for an ebiten player.
// It reports io.EOF once the song length has been rendered so the player stops.
type MIDIStream struct {
	sequencer *meltysynth.MidiFileSequencer
	total     int64
	rendered  int64
	stopped   bool
	mu        sync.Mutex
}

// NewMIDIStream wraps seq, ending after length of audio.
func NewMIDIStream(seq *meltysynth.MidiFileSequencer, length time.Duration) *MIDIStream {
	return &MIDIStream{
		sequencer: seq,
		total:     int64(length.Seconds() * SampleRate),
	}
}

// Read implements io.Reader.
func (s *MIDIStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil || (s.total > 0 && s.rendered >= s.total) {
		return 0, io.EOF
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)
	s.sequencer.Render(left, right)
	s.rendered += int64(samples)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

// Stop makes the next Read return io.EOF.
func (s *MIDIStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Rendered returns the number of sample frames produced so far.
func (s *MIDIStream) Rendered() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TempoEvent is a tempo change at a MIDI tick.
type TempoEvent struct {
	Tick          int
	MicrosPerBeat int
}

const defaultMicrosPerBeat = 500000

// TickCalculator converts between MIDI ticks and playback time across tempo changes.
type TickCalculator struct {
	ppq      int
	tempoMap []TempoEvent
	startAt  []time.Duration
}

// NewTickCalculator precomputes the start time of every tempo segment.
func NewTickCalculator(ppq int, tempoMap []TempoEvent) *TickCalculator {
	if ppq <= 0 {
		ppq = 480
	}
	if len(tempoMap) == 0 {
		tempoMap = []TempoEvent{{Tick: 0, MicrosPerBeat: defaultMicrosPerBeat}}
	}
	tc := &TickCalculator{ppq: ppq, tempoMap: tempoMap, startAt: make([]time.Duration, len(tempoMap))}
	for i := 1; i < len(tempoMap); i++ {
		prev := tempoMap[i-1]
		ticks := tempoMap[i].Tick - prev.Tick
		tc.startAt[i] = tc.startAt[i-1] + tc.span(ticks, prev.MicrosPerBeat)
	}
	return tc
}

func (tc *TickCalculator) span(ticks, microsPerBeat int) time.Duration {
	return time.Duration(int64(ticks)*int64(microsPerBeat)/int64(tc.ppq)) * time.Microsecond
}

// Duration returns the playback time at which tick is reached.
func (tc *TickCalculator) Duration(tick int) time.Duration {
	seg := 0
	for i := len(tc.tempoMap) - 1; i >= 0; i-- {
		if tick >= tc.tempoMap[i].Tick {
			seg = i
			break
		}
	}
	t := tc.tempoMap[seg]
	return tc.startAt[seg] + tc.span(tick-t.Tick, t.MicrosPerBeat)
}

// Tick returns the MIDI tick reached after d of playback.
func (tc *TickCalculator) Tick(d time.Duration) int {
	seg := 0
	for i := len(tc.tempoMap) - 1; i >= 0; i-- {
		if d >= tc.startAt[i] {
			seg = i
			break
		}
	}
	t := tc.tempoMap[seg]
	if t.MicrosPerBeat <= 0 {
		return t.Tick
	}
	into := (d - tc.startAt[seg]).Microseconds()
	return t.Tick + int(into*int64(tc.ppq)/int64(t.MicrosPerBeat))
}

// PPQ returns the ticks per quarter note.
func (tc *TickCalculator) PPQ() int { return tc.ppq }

// track walks the events of one MTrk body, calling fn with the absolute tick,
// status byte and event payload of every meta event, and returns the tick of
// the last event.
func track(data []byte, fn func(tick int, meta byte, payload []byte)) int {
	pos, tick := 0, 0
	var running byte
	for pos < len(data) {
		delta, n := readVarLen(data[pos:])
		if n == 0 {
			break
		}
		pos += n
		tick += delta
		if pos >= len(data) {
			break
		}

		status := data[pos]
		if status < 0x80 {
			status = running
		} else {
			pos++
			if status < 0xF0 {
				running = status
			}
		}

		switch {
		case status == 0xFF:
			running = 0
			if pos >= len(data) {
				return tick
			}
			meta := data[pos]
			pos++
			length, n := readVarLen(data[pos:])
			pos += n
			end := min(pos+length, len(data))
			if fn != nil {
				fn(tick, meta, data[pos:end])
			}
			pos = end
			if meta == 0x2F {
				return tick
			}
		case status == 0xF0 || status == 0xF7:
			running = 0
			length, n := readVarLen(data[pos:])
			pos += n + length
		case status >= 0xC0 && status < 0xE0:
			pos++
		case status >= 0x80:
			pos += 2
		default:
			// data byte with no running status
			pos++
		}
	}
	return tick
}

// tracks calls fn with the body of every MTrk chunk and returns the header's time division.
func tracks(data []byte, fn func(body []byte)) (division int, ok bool) {
	if len(data) < 14 || string(data[0:4]) != "MThd" {
		return 0, false
	}
	headerLen := int(binary.BigEndian.Uint32(data[4:8]))
	division = int(binary.BigEndian.Uint16(data[12:14]))
	for off := 8 + headerLen; off+8 <= len(data); {
		size := int(binary.BigEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := min(body+size, len(data))
		if string(data[off:off+4]) == "MTrk" {
			fn(data[body:end])
		}
		off = end
	}
	return division, true
}

// ParseTempoMap extracts the tempo changes and PPQ of a standard MIDI file.
// The map always starts with an event at tick 0.
func ParseTempoMap(data []byte) ([]TempoEvent, int) {
	ppq := 480
	var events []TempoEvent
	division, ok := tracks(data, func(body []byte) {
		track(body, func(tick int, meta byte, payload []byte) {
			if meta == 0x51 && len(payload) == 3 {
				mpb := int(payload[0])<<16 | int(payload[1])<<8 | int(payload[2])
				events = append(events, TempoEvent{Tick: tick, MicrosPerBeat: mpb})
			}
		})
	})
	if ok && division&0x8000 == 0 && division > 0 {
		ppq = division
	}
	if len(events) == 0 || events[0].Tick > 0 {
		events = append([]TempoEvent{{Tick: 0, MicrosPerBeat: defaultMicrosPerBeat}}, events...)
	}
	return events, ppq
}

// MIDILength returns the tick of the last event across all tracks.
func MIDILength(data []byte) int {
	last := 0
	tracks(data, func(body []byte) {
		last = max(last, track(body, nil))
	})
	return last
}

// readVarLen reads a MIDI variable-length quantity.
func readVarLen(data []byte) (int, int) {
	value, n := 0, 0
	for i := 0; i < len(data) && i < 4; i++ {
		n++
		value = value<<7 | int(data[i]&0x7F)
		if data[i]&0x80 == 0 {
			break
		}
	}
	return value, n
}
