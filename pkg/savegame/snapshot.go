// Package savegame serializes engine state and keeps it in numbered slots.
package savegame

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zurustar/sputm/pkg/actor"
	"github.com/zurustar/sputm/pkg/screen"
	"github.com/zurustar/sputm/pkg/vars"
	"github.com/zurustar/sputm/pkg/version"
	"github.com/zurustar/sputm/pkg/vm"
)

// FormatVersion is bumped whenever the Snapshot layout changes.
const FormatVersion uint16 = 1

var (
	// ErrFormat is returned for data written by an incompatible build.
	ErrFormat = errors.New("unsupported save format")
	// ErrWrongGame is returned when a snapshot belongs to another dialect.
	ErrWrongGame = errors.New("save belongs to another game version")
)

// Snapshot is the complete enumerable state of a running game between ticks.
type Snapshot struct {
	Format  uint16            `msgpack:"format"`
	Game    version.ID        `msgpack:"game"`
	Name    string            `msgpack:"name"`
	Tick    uint64            `msgpack:"tick"`
	Globals []int32           `msgpack:"globals"`
	Bits    []byte            `msgpack:"bits"`
	Objects vars.ObjectTables `msgpack:"objects"`
	Actors  []actor.State     `msgpack:"actors"`
	Camera  actor.CameraState `msgpack:"camera"`
	Screen  screen.State      `msgpack:"screen"`
	Machine vm.State          `msgpack:"machine"`
}

// Check reports whether s can be restored into an engine running game.
func (s *Snapshot) Check(game version.ID) error {
	if s.Format != FormatVersion {
		return fmt.Errorf("format %d, want %d: %w", s.Format, FormatVersion, ErrFormat)
	}
	if s.Game != game {
		return fmt.Errorf("save is %s, engine is %s: %w", s.Game, game, ErrWrongGame)
	}
	return nil
}

// Encode serializes s. Map keys are sorted so equal snapshots encode equally.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses data written by Encode and rejects other format versions.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Format != FormatVersion {
		return nil, fmt.Errorf("decode snapshot: format %d: %w", s.Format, ErrFormat)
	}
	return &s, nil
}
