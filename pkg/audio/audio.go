// Package audio plays sound resources for the engine. The engine talks to a
// Backend; playback itself runs on the backend's own goroutines and the only
// state shared with the main loop is the finished-sound queue and the music
// timer, both guarded by the backend's mutex.
package audio

import (
	"errors"
	"time"
)

// SampleRate is the output sample rate of every backend.
const SampleRate = 44100

// Volume and pan ranges used by the sound opcodes.
const (
	MaxVolume = 127
	MaxPan    = 127
)

var (
	// ErrNoSoundFont is returned when a MIDI sound is started without a SoundFont.
	ErrNoSoundFont = errors.New("SoundFont is required for MIDI playback")

	// ErrSoundFontNotFound is returned when the SoundFont file cannot be read.
	ErrSoundFontNotFound = errors.New("SoundFont file not found")

	// ErrUnsupportedSound is returned for sound data no decoder recognises.
	ErrUnsupportedSound = errors.New("unsupported sound format")
)

// Backend is the audio collaborator of the engine.
type Backend interface {
	// PlaySound starts sound id from its resource bytes. MIDI sounds are music:
	// only one plays at a time and a lower priority never replaces a higher one.
	PlaySound(id int, data []byte, priority, volume, pan int) error
	// StopSound stops id if it is playing.
	StopSound(id int)
	// StopAll stops every sound.
	StopAll()
	// IsSoundRunning reports whether id is still playing.
	IsSoundRunning(id int) bool
	// Timer returns the music position in jiffies (1/60 s).
	Timer() int
	// Update reaps sounds that have finished. The main loop calls it once per tick.
	Update()
	// Finished drains the ids of sounds that ended since the previous call.
	Finished() []int
	// Close releases every player.
	Close() error
}

// jiffies converts a playback position to 1/60 s units.
func jiffies(d time.Duration) int {
	return int(d * 60 / time.Second)
}

// clampVolume maps a script volume to the 0..1 range ebiten players use.
func clampVolume(volume int) float64 {
	switch {
	case volume <= 0:
		return 0
	case volume >= MaxVolume:
		return 1
	}
	return float64(volume) / MaxVolume
}
