// Package cli resolves the launcher configuration. Values come from
// defaults, the targets file, the environment and command-line flags, each
// overriding the one before.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/zurustar/sputm/pkg/engine"
	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/version"
)

const (
	// DefaultTargetsFile lists the games the launcher knows by name.
	DefaultTargetsFile = "~/.sputm/targets.ini"
	// DefaultSaveDB is the save slot database.
	DefaultSaveDB = "~/.sputm/saves.db"
	// DefaultScale is the window magnification.
	DefaultScale = 2
)

// Config holds everything the launcher needs to start a game.
type Config struct {
	GamePath string     // directory holding the game files
	Target   string     // name the game's saves are filed under
	Version  version.ID // dialect override, Unknown to detect
	Language string     // message encoding, "" for the game's own

	LogLevel     string
	Headless     bool
	Timeout      time.Duration // 0 runs until the game quits
	MinHeap      int           // eviction thresholds in bytes, 0 for the profile's
	MaxHeap      int
	MaxTickDelta int // milliseconds

	TargetsFile  string
	SaveDB       string
	SoundFont    string
	Scale        int
	DebugOverlay bool
}

// Default returns the configuration before any source is applied.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		MaxTickDelta: engine.DefaultMaxTickDelta,
		TargetsFile:  DefaultTargetsFile,
		SaveDB:       DefaultSaveDB,
		Scale:        DefaultScale,
	}
}

// ApplyTarget copies the fields a target sets.
func (c *Config) ApplyTarget(t Target) {
	c.Target = t.Name
	if t.Path != "" {
		c.GamePath = t.Path
	}
	if t.Version != version.Unknown {
		c.Version = t.Version
	}
	if t.Language != "" {
		c.Language = t.Language
	}
	if t.HeapMin > 0 {
		c.MinHeap = t.HeapMin
	}
	if t.HeapMax > 0 {
		c.MaxHeap = t.HeapMax
	}
}

// ApplyEnv reads HEADLESS, TIMEOUT (seconds) and LOG_LEVEL. Unparsable or
// non-positive timeouts are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("HEADLESS"); v != "" {
		c.Headless = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getenv("TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			c.Timeout = time.Duration(sec) * time.Second
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w (must be debug, info, warn, or error)", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.MinHeap < 0 || c.MaxHeap < 0 {
		return errors.New("heap thresholds must be non-negative")
	}
	if c.MaxHeap > 0 && c.MinHeap > c.MaxHeap {
		return fmt.Errorf("min heap %d exceeds max heap %d", c.MinHeap, c.MaxHeap)
	}
	if c.MaxTickDelta <= 0 {
		return fmt.Errorf("max tick delta must be positive, got %d", c.MaxTickDelta)
	}
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	return nil
}

// Flags are the command-line overrides. Only flags the user set are applied.
type Flags struct {
	fs *pflag.FlagSet

	target, version, language string
	logLevel                  string
	headless                  bool
	timeoutSec                int
	minHeap, maxHeap          int
	maxTickDelta              int
	targetsFile, saveDB       string
	soundFont                 string
	scale                     int
	debugOverlay              bool
}

// AddFlags registers the launcher flags on fs.
func AddFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.target, "target", "", "game target from the targets file")
	fs.StringVar(&f.version, "game-version", "", "bytecode dialect (v5, v6, v7, v8) instead of detecting it")
	fs.StringVar(&f.language, "language", "", "message language (en, jp, de, fr, ...)")
	fs.StringVarP(&f.logLevel, "log-level", "l", d.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&f.headless, "headless", false, "run without a window")
	fs.IntVarP(&f.timeoutSec, "timeout", "t", 0, "stop after this many seconds (0 runs until the game quits)")
	fs.IntVar(&f.minHeap, "min-heap", 0, "eviction low-water mark in bytes")
	fs.IntVar(&f.maxHeap, "max-heap", 0, "eviction high-water mark in bytes")
	fs.IntVar(&f.maxTickDelta, "max-tick-delta", d.MaxTickDelta, "milliseconds a single tick may account for")
	fs.StringVar(&f.targetsFile, "targets-file", d.TargetsFile, "targets file")
	fs.StringVar(&f.saveDB, "save-db", d.SaveDB, "save slot database")
	fs.StringVar(&f.soundFont, "soundfont", "", "SoundFont for MIDI music")
	fs.IntVar(&f.scale, "scale", d.Scale, "window magnification")
	fs.BoolVar(&f.debugOverlay, "debug-overlay", false, "draw tick and frame rate over the game")
	return f
}

// Apply copies the flags the user set into c.
func (f *Flags) Apply(c *Config) error {
	var err error
	f.fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "target":
			c.Target = f.target
		case "game-version":
			id, perr := version.Parse(f.version)
			if perr != nil {
				err = perr
			}
			c.Version = id
		case "language":
			c.Language = f.language
		case "log-level":
			c.LogLevel = strings.ToLower(f.logLevel)
		case "headless":
			c.Headless = f.headless
		case "timeout":
			if f.timeoutSec < 0 {
				err = fmt.Errorf("timeout must be non-negative, got %d", f.timeoutSec)
			}
			c.Timeout = time.Duration(f.timeoutSec) * time.Second
		case "min-heap":
			c.MinHeap = f.minHeap
		case "max-heap":
			c.MaxHeap = f.maxHeap
		case "max-tick-delta":
			c.MaxTickDelta = f.maxTickDelta
		case "targets-file":
			c.TargetsFile = f.targetsFile
		case "save-db":
			c.SaveDB = f.saveDB
		case "soundfont":
			c.SoundFont = f.soundFont
		case "scale":
			c.Scale = f.scale
		case "debug-overlay":
			c.DebugOverlay = f.debugOverlay
		}
	})
	return err
}

// Load resolves the configuration. arg is the optional positional argument:
// a target name when the targets file has one by that name, a game directory
// otherwise.
func Load(f *Flags, arg string, getenv func(string) string) (*Config, error) {
	c := Default()
	if f.fs.Changed("targets-file") {
		c.TargetsFile = f.targetsFile
	}
	targets, err := LoadTargets(c.TargetsFile)
	if err != nil {
		return nil, err
	}

	name := f.target
	if name == "" {
		if _, ok := targets[arg]; ok {
			name, arg = arg, ""
		}
	}
	if name != "" {
		t, ok := targets[name]
		if !ok {
			return nil, fmt.Errorf("unknown target %q in %s", name, c.TargetsFile)
		}
		c.ApplyTarget(t)
	}

	c.ApplyEnv(getenv)
	if err := f.Apply(c); err != nil {
		return nil, err
	}
	if arg != "" {
		c.GamePath = arg
	}
	if c.GamePath != "" {
		if c.GamePath, err = fileutil.ExpandHome(c.GamePath); err != nil {
			return nil, err
		}
	}
	if c.Target == "" && c.GamePath != "" {
		c.Target = TargetName(c.GamePath)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadEnv is Load reading the process environment.
func LoadEnv(f *Flags, arg string) (*Config, error) {
	return Load(f, arg, os.Getenv)
}
