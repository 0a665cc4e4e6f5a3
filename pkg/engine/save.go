package engine

import (
	"errors"
	"fmt"

	"github.com/zurustar/sputm/pkg/savegame"
	"github.com/zurustar/sputm/pkg/vars"
)

// ErrNoSaveStore is reported when a save or load is requested without slot storage.
var ErrNoSaveStore = errors.New("no save storage configured")

// RequestSave asks for the game to be saved in slot at the next tick.
func (e *Engine) RequestSave(slot int, name string) {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	e.pendingSave = &saveRequest{slot: slot, name: name}
}

// RequestLoad asks for slot to be loaded at the next tick.
func (e *Engine) RequestLoad(slot int) {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	e.pendingLoad = &slot
}

// handleRequests runs pending restart, save and load requests. It is the
// only place the loop replaces game state.
func (e *Engine) handleRequests() {
	if e.restartPending {
		e.restart()
		return
	}

	e.reqMu.Lock()
	save, load := e.pendingSave, e.pendingLoad
	e.pendingSave, e.pendingLoad = nil, nil
	e.reqMu.Unlock()

	if save != nil {
		e.save(save.slot, save.name)
	}
	if load != nil {
		e.load(*load)
	}
}

func (e *Engine) save(slot int, name string) {
	if e.saves == nil {
		e.dialog("Cannot save game", ErrNoSaveStore)
		return
	}
	if err := e.saves.Put(e.target, slot, e.Snapshot(name)); err != nil {
		e.dialog("Cannot save game", err)
		return
	}
	e.log.Info("Game saved", "target", e.target, "slot", slot, "name", name)
}

func (e *Engine) load(slot int) {
	if e.saves == nil {
		e.dialog("Cannot load game", ErrNoSaveStore)
		return
	}
	snap, err := e.saves.Get(e.target, slot)
	if err != nil {
		e.dialog("Cannot load game", err)
		return
	}
	if err := e.Restore(snap); err != nil {
		e.dialog("Cannot load game", err)
		return
	}
	e.vm.Vars().Poke(vars.VarGameLoaded, gameLoadedMarker)
	e.log.Info("Game loaded", "target", e.target, "slot", slot, "name", snap.Name)
}

// Snapshot captures the complete game state between ticks.
func (e *Engine) Snapshot(name string) *savegame.Snapshot {
	m := e.vm
	return &savegame.Snapshot{
		Format:  savegame.FormatVersion,
		Game:    e.prof.ID,
		Name:    name,
		Tick:    e.tick,
		Globals: m.Vars().Globals(),
		Bits:    m.Vars().Bits(),
		Objects: m.Objects().Tables(),
		Actors:  m.Actors().States(),
		Camera:  m.Camera().State(),
		Screen:  m.Screen().Snapshot(),
		Machine: m.State(),
	}
}

// Restore replaces the game state with snap. On failure the previous state
// is put back and the error returned.
func (e *Engine) Restore(snap *savegame.Snapshot) error {
	if err := snap.Check(e.prof.ID); err != nil {
		return err
	}
	if err := e.fits(snap); err != nil {
		return err
	}
	if err := e.vm.Validate(snap.Machine); err != nil {
		return err
	}
	e.audio.StopAll()
	backup := e.Snapshot("")
	if err := e.apply(snap); err != nil {
		if rerr := e.apply(backup); rerr != nil {
			e.fatal = fmt.Errorf("%w: rollback after failed restore: %w", ErrFatal, rerr)
		}
		return err
	}
	return nil
}

// fits checks the table shapes before anything is replaced.
func (e *Engine) fits(snap *savegame.Snapshot) error {
	m := e.vm
	switch {
	case len(snap.Globals) != m.Vars().NumGlobals():
		return fmt.Errorf("save has %d variables, game has %d", len(snap.Globals), m.Vars().NumGlobals())
	case len(snap.Bits) != len(m.Vars().Bits()):
		return fmt.Errorf("save has %d bit variable bytes, game has %d", len(snap.Bits), len(m.Vars().Bits()))
	case len(snap.Objects.Owner) != m.Objects().Count():
		return fmt.Errorf("save has %d objects, game has %d", len(snap.Objects.Owner), m.Objects().Count())
	case len(snap.Actors) != m.Actors().Count():
		return fmt.Errorf("save has %d actors, game has %d", len(snap.Actors), m.Actors().Count())
	}
	return nil
}

func (e *Engine) apply(snap *savegame.Snapshot) error {
	m := e.vm
	if err := m.Restore(snap.Machine); err != nil {
		return err
	}
	if err := m.Vars().Restore(snap.Globals, snap.Bits); err != nil {
		return err
	}
	if err := m.Objects().Restore(snap.Objects); err != nil {
		return err
	}
	if err := m.Actors().Restore(snap.Actors); err != nil {
		return err
	}
	m.Camera().Restore(snap.Camera)
	m.Screen().Restore(snap.Screen)
	e.tick = snap.Tick
	e.lastRoom = -1
	e.lastActors = nil
	return nil
}
