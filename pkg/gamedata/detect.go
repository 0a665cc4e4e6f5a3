package gamedata

import (
	"fmt"
	"path"
	"strings"

	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/resource"
	"github.com/zurustar/sputm/pkg/version"
)

// Layout is the way a game's files are organised.
type Layout int

const (
	LayoutBundle Layout = iota + 1
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutBundle:
		return "bundle"
	case LayoutFlat:
		return "flat"
	}
	return "unknown"
}

// xorKey is the byte the v5 and v6 bundle files are XORed with.
const xorKey = 0x69

// bundleKind is one index/data extension pair and the dialects that use it.
type bundleKind struct {
	indexExt, dataExt string
	key               byte
	short, long, wide version.ID // by MAXS layout; Unknown when unused
}

var bundleKinds = []bundleKind{
	{indexExt: ".000", dataExt: ".001", key: xorKey, short: version.V5, long: version.V6},
	{indexExt: ".la0", dataExt: ".la1", key: 0, long: version.V7, wide: version.V8},
}

// Detection is what Detect found in a game directory.
type Detection struct {
	ID     version.ID
	Layout Layout
	Name   string

	// Bundle files.
	IndexFile string
	DataFile  string
	Key       byte
}

// Detect reports the dialect of the game in fsys.
func Detect(fsys fileutil.FileSystem) (version.ID, error) {
	d, err := Inspect(fsys)
	if err != nil {
		return version.Unknown, err
	}
	return d.ID, nil
}

// Inspect finds the game files in fsys and reads enough of them to name the dialect.
func Inspect(fsys fileutil.FileSystem) (Detection, error) {
	if b, err := fsys.ReadFile(ManifestName); err == nil {
		m, err := ParseManifest(b)
		if err != nil {
			return Detection{}, err
		}
		return Detection{ID: m.Version, Layout: LayoutFlat, Name: m.Name}, nil
	}

	entries, err := fsys.ReadDir(".")
	if err != nil {
		return Detection{}, fmt.Errorf("list game files: %w", err)
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names[strings.ToLower(e.Name())] = e.Name()
		}
	}

	for _, e := range entries {
		lower := strings.ToLower(e.Name())
		for _, kind := range bundleKinds {
			if e.IsDir() || path.Ext(lower) != kind.indexExt {
				continue
			}
			base := strings.TrimSuffix(lower, kind.indexExt)
			data, ok := names[base+kind.dataExt]
			if !ok {
				continue
			}
			d, err := inspectBundle(fsys, e.Name(), kind)
			if err != nil {
				return Detection{}, err
			}
			d.Name = strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
			d.DataFile = data
			return d, nil
		}
	}
	return Detection{}, fmt.Errorf("no index file or %s in %s: %w", ManifestName, fsys.BasePath(), ErrUnknownGame)
}

func inspectBundle(fsys fileutil.FileSystem, indexName string, kind bundleKind) (Detection, error) {
	raw, err := fsys.ReadFile(indexName)
	if err != nil {
		return Detection{}, fmt.Errorf("read index %s: %w", indexName, err)
	}
	key, ok := indexKey(raw, kind.key)
	if !ok {
		return Detection{}, fmt.Errorf("%s does not start with an index block: %w", indexName, ErrUnknownGame)
	}
	decrypt(raw, key)
	ix, err := ParseIndex(raw)
	if err != nil {
		return Detection{}, fmt.Errorf("%s: %w", indexName, err)
	}

	var id version.ID
	switch ix.maxsSize {
	case maxsShort:
		id = kind.short
	case maxsLong:
		id = kind.long
	case maxsWide:
		id = kind.wide
	}
	if id == version.Unknown {
		return Detection{}, fmt.Errorf("%s: MAXS of %d bytes matches no dialect: %w", indexName, ix.maxsSize, ErrUnknownGame)
	}
	return Detection{ID: id, Layout: LayoutBundle, IndexFile: indexName, Key: key}, nil
}

// indexKey returns the key under which b starts with a known index tag,
// trying the expected key first and plain files second.
func indexKey(b []byte, expected byte) (byte, bool) {
	if len(b) < 4 {
		return 0, false
	}
	for _, key := range []byte{expected, 0} {
		var tag resource.Tag
		for i := range tag {
			tag[i] = b[i] ^ key
		}
		if tag == tagRNAM || tag == tagMAXS {
			return key, true
		}
	}
	return 0, false
}
