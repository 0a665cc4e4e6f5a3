package audio

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/sputm/pkg/fileutil"
)

// LoadSoundFont reads and parses a SoundFont. A nil fsys reads from the host file system.
func LoadSoundFont(fsys fileutil.FileSystem, path string) (*meltysynth.SoundFont, error) {
	var (
		data []byte
		err  error
	)
	if fsys == nil {
		data, err = os.ReadFile(path)
	} else {
		data, err = fsys.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSoundFontNotFound, path, err)
	}

	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont %s: %w", path, err)
	}
	return sf, nil
}
