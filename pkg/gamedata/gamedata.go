// Package gamedata reads game files: the index/data bundles the original
// releases ship with and a flat one-file-per-resource layout used for
// development. It detects the bytecode dialect and yields a profile sized
// from the index together with a resource source.
package gamedata

import (
	"errors"
	"fmt"

	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/version"
)

var (
	// ErrUnknownGame is returned when no supported game files are found.
	ErrUnknownGame = errors.New("unknown game")
	// ErrCorruptIndex is returned for an index file that cannot be parsed.
	ErrCorruptIndex = errors.New("corrupt index file")
	// ErrCorruptData is returned for a data file whose layout is inconsistent.
	ErrCorruptData = errors.New("corrupt data file")
	// ErrNotFound is returned for a resource the game does not have.
	ErrNotFound = errors.New("resource not found")
)

// Game is an opened game ready to hand to the engine.
type Game struct {
	Name      string
	Layout    Layout
	Profile   *version.Profile
	Source    resource.GameDataSource
	Language  string
	RoomNames map[int]string
	// Objects is the initial object table, nil when the files carry none.
	Objects *ObjectDirectory
}

// Open reads the game in fsys. A non-Unknown id overrides the detected dialect.
func Open(fsys fileutil.FileSystem, id version.ID) (*Game, error) {
	d, err := Inspect(fsys)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger()
	if id != version.Unknown && id != d.ID {
		log.Warn("Version override differs from detected version", "detected", d.ID, "override", id)
		d.ID = id
	}
	prof, err := version.ForID(d.ID)
	if err != nil {
		return nil, err
	}

	g := &Game{Name: d.Name, Layout: d.Layout, Profile: prof, Language: "en", RoomNames: map[int]string{}}
	switch d.Layout {
	case LayoutBundle:
		src, err := OpenBundle(fsys, d.IndexFile, d.DataFile, d.Key)
		if err != nil {
			return nil, err
		}
		ix := src.Index()
		ix.Maxs.Apply(&prof.Counts)
		g.Source, g.RoomNames, g.Objects = src, ix.RoomNames, ix.Objects
	case LayoutFlat:
		b, err := fsys.ReadFile(ManifestName)
		if err != nil {
			return nil, err
		}
		m, err := ParseManifest(b)
		if err != nil {
			return nil, err
		}
		g.Source, g.Language = NewFlatSource(fsys, m), m.Language
	}
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}

	log.Info("Game opened", "name", g.Name, "version", prof.ID, "layout", g.Layout)
	return g, nil
}
