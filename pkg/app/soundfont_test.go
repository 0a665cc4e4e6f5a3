package app

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindSoundFont_ExternalFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, DefaultSoundFontName), []byte("RIFF....sfbk"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	t.Chdir(tmpDir)

	result := findSoundFont(nil, "", "")
	if result == nil {
		t.Fatal("Expected to find SoundFont in current directory")
	}
	if result.IsEmbedded || result.FileSystem != nil {
		t.Errorf("Expected external file, got %+v", result)
	}
	if result.Path != DefaultSoundFontName {
		t.Errorf("Expected path %s, got %s", DefaultSoundFontName, result.Path)
	}
}

func TestFindSoundFont_GamePath(t *testing.T) {
	gameDir := filepath.Join(t.TempDir(), "game")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stored := "generaluser-gs.SF2"
	if err := os.WriteFile(filepath.Join(gameDir, stored), []byte("RIFF....sfbk"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())

	result := findSoundFont(nil, "", gameDir)
	if result == nil {
		t.Fatal("Expected to find SoundFont in game directory")
	}
	if want := filepath.Join(gameDir, stored); result.Path != want {
		t.Errorf("Expected path %s, got %s", want, result.Path)
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	if result := findSoundFont(fstest.MapFS{}, "/nonexistent/x.sf2", "/nonexistent/path"); result != nil {
		t.Errorf("Expected nil when no SoundFont found, got %+v", result)
	}
}

func TestFindSoundFont_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	gameDir := filepath.Join(tmpDir, "game")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}
	explicit := filepath.Join(tmpDir, "mine.sf2")
	for _, p := range []string{explicit, filepath.Join(tmpDir, DefaultSoundFontName), filepath.Join(gameDir, DefaultSoundFontName)} {
		if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(tmpDir)
	assets := fstest.MapFS{"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF-embedded")}}

	tests := []struct {
		name     string
		assets   fstest.MapFS
		explicit string
		wantPath string
		embedded bool
	}{
		{"flag first", assets, explicit, explicit, false},
		{"bundled before the file system", assets, "", DefaultSoundFontName, true},
		{"current directory before the game directory", nil, "", DefaultSoundFontName, false},
		{"missing flag file falls through", nil, filepath.Join(tmpDir, "gone.sf2"), DefaultSoundFontName, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result *SoundFontLocation
			if tt.assets == nil {
				result = findSoundFont(nil, tt.explicit, gameDir)
			} else {
				result = findSoundFont(tt.assets, tt.explicit, gameDir)
			}
			if result == nil {
				t.Fatal("Expected to find SoundFont")
			}
			if result.Path != tt.wantPath || result.IsEmbedded != tt.embedded {
				t.Errorf("got %s (embedded %v), want %s (embedded %v)", result.Path, result.IsEmbedded, tt.wantPath, tt.embedded)
			}
			if tt.embedded {
				if b, err := result.FileSystem.ReadFile(result.Path); err != nil || string(b) != "RIFF-embedded" {
					t.Errorf("bundled file = %q, %v", b, err)
				}
			}
		})
	}
}
