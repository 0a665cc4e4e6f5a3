package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/sputm/pkg/logger"
)

var (
	// ebiten allows a single audio context per process.
	globalContext   *audio.Context
	globalContextMu sync.Mutex
)

func audioContext() *audio.Context {
	globalContextMu.Lock()
	defer globalContextMu.Unlock()
	if globalContext == nil {
		globalContext = audio.NewContext(SampleRate)
	}
	return globalContext
}

type ebitenVoice struct {
	player   *audio.Player
	stream   *MIDIStream
	priority int
	music    bool
}

// Ebiten plays sounds through ebiten's audio package. MIDI is synthesised with
// meltysynth, WAV is decoded by ebiten and raw 8-bit blocks are expanded in memory.
type Ebiten struct {
	ctx       *audio.Context
	soundFont *meltysynth.SoundFont
	muted     bool

	mu       sync.Mutex
	voices   map[int]*ebitenVoice
	music    int
	finished []int
	log      *slog.Logger
}

// EbitenOption configures an Ebiten backend.
type EbitenOption func(*Ebiten)

// WithSoundFont sets the SoundFont used for MIDI sounds.
func WithSoundFont(sf *meltysynth.SoundFont) EbitenOption {
	return func(e *Ebiten) {
		e.soundFont = sf
	}
}

// WithMuted silences every player. Headless runs keep timing without output.
func WithMuted(muted bool) EbitenOption {
	return func(e *Ebiten) {
		e.muted = muted
	}
}

// WithLogger sets the backend's logger.
func WithLogger(log *slog.Logger) EbitenOption {
	return func(e *Ebiten) {
		e.log = log
	}
}

// NewEbiten creates a backend on the process audio context.
func NewEbiten(opts ...EbitenOption) *Ebiten {
	e := &Ebiten{
		ctx:    audioContext(),
		voices: make(map[int]*ebitenVoice),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Ebiten) PlaySound(id int, data []byte, priority, volume, pan int) error {
	s := Classify(data)

	e.mu.Lock()
	defer e.mu.Unlock()

	music := s.Format == FormatMIDI
	if music && e.music != 0 {
		if cur, ok := e.voices[e.music]; ok && cur.priority > priority {
			e.log.Debug("Music refused by priority", "sound", id, "priority", priority, "playing", e.music)
			return nil
		}
		e.stopLocked(e.music)
	}
	e.stopLocked(id)

	v := &ebitenVoice{priority: priority, music: music}
	switch s.Format {
	case FormatMIDI:
		if e.soundFont == nil {
			return ErrNoSoundFont
		}
		midi, err := meltysynth.NewMidiFile(bytes.NewReader(s.Data))
		if err != nil {
			return fmt.Errorf("sound %d: invalid MIDI: %w", id, err)
		}
		synth, err := meltysynth.NewSynthesizer(e.soundFont, meltysynth.NewSynthesizerSettings(SampleRate))
		if err != nil {
			return fmt.Errorf("sound %d: failed to create synthesizer: %w", id, err)
		}
		seq := meltysynth.NewMidiFileSequencer(synth)
		seq.Play(midi, false)
		v.stream = NewMIDIStream(seq, midi.GetLength())
		if v.player, err = e.ctx.NewPlayer(v.stream); err != nil {
			return fmt.Errorf("sound %d: failed to create audio player: %w", id, err)
		}
	case FormatWAV:
		stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(s.Data))
		if err != nil {
			return fmt.Errorf("sound %d: invalid WAV: %w", id, err)
		}
		if v.player, err = e.ctx.NewPlayer(stream); err != nil {
			return fmt.Errorf("sound %d: failed to create audio player: %w", id, err)
		}
	case FormatPCM:
		v.player = e.ctx.NewPlayerFromBytes(ExpandPCM8(s.Data, s.Rate, pan))
	default:
		return fmt.Errorf("sound %d: %w", id, ErrUnsupportedSound)
	}

	if e.muted {
		v.player.SetVolume(0)
	} else {
		v.player.SetVolume(clampVolume(volume))
	}
	v.player.Play()
	e.voices[id] = v
	if music {
		e.music = id
	}
	e.log.Debug("Sound started", "sound", id, "format", s.Format.String(), "priority", priority)
	return nil
}

func (e *Ebiten) stopLocked(id int) {
	v, ok := e.voices[id]
	if !ok {
		return
	}
	if v.stream != nil {
		v.stream.Stop()
	}
	if err := v.player.Close(); err != nil {
		e.log.Warn("Closing audio player failed", "sound", id, "error", err)
	}
	delete(e.voices, id)
	if e.music == id {
		e.music = 0
	}
}

func (e *Ebiten) StopSound(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked(id)
}

func (e *Ebiten) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.voices {
		e.stopLocked(id)
	}
}

func (e *Ebiten) IsSoundRunning(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.voices[id]
	return ok
}

func (e *Ebiten) Timer() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.voices[e.music]; ok {
		return jiffies(v.player.Position())
	}
	return 0
}

// Update closes players that have run out of data and queues their ids.
func (e *Ebiten) Update() {
	e.mu.Lock()
	defer e.mu.Unlock()
	var done []int
	for id, v := range e.voices {
		if !v.player.IsPlaying() {
			done = append(done, id)
		}
	}
	sort.Ints(done)
	for _, id := range done {
		e.stopLocked(id)
	}
	e.finished = append(e.finished, done...)
}

func (e *Ebiten) Finished() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.finished
	e.finished = nil
	return out
}

// SetMuted silences or restores every current and future player.
func (e *Ebiten) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	for _, v := range e.voices {
		if muted {
			v.player.SetVolume(0)
		} else {
			v.player.SetVolume(1)
		}
	}
}

func (e *Ebiten) Close() error {
	e.StopAll()
	return nil
}
