package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zurustar/sputm/pkg/fileutil"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the path to the SoundFont file
	Path string
	// FileSystem is the FileSystem to use for loading (nil for external files)
	FileSystem fileutil.FileSystem
	// IsEmbedded indicates whether the SoundFont is bundled with the binary
	IsEmbedded bool
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for a SoundFont file in the following order:
//  1. The file named on the command line
//  2. The soundfonts directory bundled with the binary
//  3. Current directory
//  4. Game directory
//
// It returns nil if none is found.
func findSoundFont(assets fs.FS, explicit, gamePath string) *SoundFontLocation {
	if explicit != "" {
		if p, err := fileutil.ExpandHome(explicit); err == nil {
			if _, err := os.Stat(p); err == nil {
				return &SoundFontLocation{Path: p}
			}
		}
	}

	if assets != nil {
		if data, err := fs.ReadFile(assets, "soundfonts/"+DefaultSoundFontName); err == nil && len(data) > 0 {
			return &SoundFontLocation{
				Path:       DefaultSoundFontName, // relative to the soundfonts subtree
				FileSystem: fileutil.NewEmbedFS(assets, "soundfonts"),
				IsEmbedded: true,
			}
		}
	}

	if _, err := os.Stat(DefaultSoundFontName); err == nil {
		return &SoundFontLocation{Path: DefaultSoundFontName}
	}

	if gamePath != "" {
		if name, err := fileutil.Resolve(os.DirFS(gamePath), DefaultSoundFontName); err == nil {
			return &SoundFontLocation{Path: filepath.Join(gamePath, name)}
		}
	}
	return nil
}
