package gamedata

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/version"
)

// ManifestName is the file that marks a flat game directory.
const ManifestName = "game.ini"

// Manifest describes a flat game directory:
//
//	[game]
//	name     = Demo
//	version  = v6
//	language = en
//
//	[locations]
//	script.200 = 3:0
//
// Locations name the room and in-room offset of room-bound resources.
// Resources without an entry live in no room.
type Manifest struct {
	Name      string
	Version   version.ID
	Language  string
	locations map[resource.Handle][2]int
}

// ParseManifest reads a manifest.
func ParseManifest(b []byte) (*Manifest, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveSections:     true,
		InsensitiveKeys:         true,
		SkipUnrecognizableLines: true,
	}, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ManifestName, err)
	}
	sec := f.Section("game")
	m := &Manifest{
		Name:      sec.Key("name").String(),
		Language:  sec.Key("language").MustString("en"),
		locations: make(map[resource.Handle][2]int),
	}
	m.Version, err = version.Parse(sec.Key("version").String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ManifestName, err)
	}

	for _, k := range f.Section("locations").Keys() {
		h, err := parseHandle(k.Name())
		if err != nil {
			return nil, fmt.Errorf("%s: location %q: %w", ManifestName, k.Name(), err)
		}
		room, off, ok := strings.Cut(k.Value(), ":")
		r, rerr := strconv.Atoi(strings.TrimSpace(room))
		o, oerr := 0, error(nil)
		if ok {
			o, oerr = strconv.Atoi(strings.TrimSpace(off))
		}
		if rerr != nil || oerr != nil {
			return nil, fmt.Errorf("%s: location %q = %q: want room[:offset]", ManifestName, k.Name(), k.Value())
		}
		m.locations[h] = [2]int{r, o}
	}
	return m, nil
}

// parseHandle reads "script.200".
func parseHandle(s string) (resource.Handle, error) {
	name, num, ok := strings.Cut(s, ".")
	if !ok {
		return resource.Handle{}, errors.New("want type.index")
	}
	t, ok := resource.ParseType(name)
	if !ok {
		return resource.Handle{}, fmt.Errorf("unknown resource type %q", name)
	}
	idx, err := strconv.Atoi(num)
	if err != nil {
		return resource.Handle{}, err
	}
	return resource.Handle{Type: t, Index: idx}, nil
}

// FlatSource serves one file per resource, named <type>/<index>.bin.
type FlatSource struct {
	fsys     fileutil.FileSystem
	manifest *Manifest
}

// NewFlatSource reads resources from fsys as described by m.
func NewFlatSource(fsys fileutil.FileSystem, m *Manifest) *FlatSource {
	return &FlatSource{fsys: fsys, manifest: m}
}

// ResourcePath returns the file name of (t, idx) inside a flat directory.
func ResourcePath(t resource.Type, idx int) string {
	return fmt.Sprintf("%s/%d.bin", t, idx)
}

// LocateResource returns the manifest location of (t, idx). Rooms live in
// themselves.
func (s *FlatSource) LocateResource(t resource.Type, idx int) (room, offset int, err error) {
	f, err := s.fsys.Open(ResourcePath(t, idx))
	if err != nil {
		return 0, 0, fmt.Errorf("%s %d: %w", t, idx, notFound(err))
	}
	f.Close()
	if t == resource.TypeRoom {
		return idx, 0, nil
	}
	loc := s.manifest.locations[resource.Handle{Type: t, Index: idx}]
	return loc[0], loc[1], nil
}

// LoadResourceBytes reads the file of (t, idx).
func (s *FlatSource) LoadResourceBytes(t resource.Type, idx int) ([]byte, error) {
	b, err := s.fsys.ReadFile(ResourcePath(t, idx))
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", t, idx, notFound(err))
	}
	return b, nil
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
