package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/version"
)

// Target is one game entry of the targets file:
//
//	[monkey2]
//	path     = ~/games/monkey2
//	gameid   = monkey2
//	version  = v5
//	language = en
//	heap_min = 4000000
//	heap_max = 6000000
type Target struct {
	Name     string
	Path     string
	GameID   string
	Version  version.ID
	Language string
	HeapMin  int
	HeapMax  int
}

func iniOptions() ini.LoadOptions {
	return ini.LoadOptions{
		InsensitiveKeys:         true,
		SkipUnrecognizableLines: true,
	}
}

// ParseTargets reads a targets file.
func ParseTargets(b []byte) (map[string]Target, error) {
	f, err := ini.LoadSources(iniOptions(), b)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]Target)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		t := Target{
			Name:     sec.Name(),
			Path:     sec.Key("path").String(),
			GameID:   sec.Key("gameid").MustString(sec.Name()),
			Language: sec.Key("language").String(),
		}
		if v := sec.Key("version").String(); v != "" {
			if t.Version, err = version.Parse(v); err != nil {
				return nil, fmt.Errorf("target %s: %w", t.Name, err)
			}
		}
		if t.HeapMin, err = intKey(sec, "heap_min"); err != nil {
			return nil, err
		}
		if t.HeapMax, err = intKey(sec, "heap_max"); err != nil {
			return nil, err
		}
		if t.HeapMax > 0 && t.HeapMin > t.HeapMax {
			return nil, fmt.Errorf("target %s: heap_min %d exceeds heap_max %d", t.Name, t.HeapMin, t.HeapMax)
		}
		targets[t.Name] = t
	}
	return targets, nil
}

func intKey(sec *ini.Section, name string) (int, error) {
	k := sec.Key(name)
	if k.String() == "" {
		return 0, nil
	}
	v, err := k.Int()
	if err != nil {
		return 0, fmt.Errorf("target %s: %s = %q: %w", sec.Name(), name, k.String(), err)
	}
	return v, nil
}

// LoadTargets reads the targets file at path. A missing file has no targets.
func LoadTargets(path string) (map[string]Target, error) {
	p, err := fileutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Target{}, nil
	}
	if err != nil {
		return nil, err
	}
	targets, err := ParseTargets(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return targets, nil
}

// SaveTarget adds or replaces t in the targets file at path.
func SaveTarget(path string, t Target) error {
	p, err := fileutil.ExpandHome(path)
	if err != nil {
		return err
	}
	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, InsensitiveKeys: true}, p)
	if err != nil {
		return err
	}
	f.DeleteSection(t.Name)
	sec, err := f.NewSection(t.Name)
	if err != nil {
		return err
	}
	set := func(key, value string) {
		if value != "" {
			sec.Key(key).SetValue(value)
		}
	}
	set("path", t.Path)
	set("gameid", t.GameID)
	if t.Version != version.Unknown {
		set("version", t.Version.String())
	}
	set("language", t.Language)
	if t.HeapMin > 0 {
		set("heap_min", fmt.Sprint(t.HeapMin))
	}
	if t.HeapMax > 0 {
		set("heap_max", fmt.Sprint(t.HeapMax))
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return f.SaveTo(p)
}

// TargetNames returns the target names in order.
func TargetNames(targets map[string]Target) []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetName derives a target name from a game directory: its base name,
// lower-cased, keeping letters and digits.
func TargetName(dir string) string {
	base := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	var b strings.Builder
	for _, r := range base {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "game"
	}
	return b.String()
}
