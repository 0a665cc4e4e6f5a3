// Package app wires a resolved configuration into a running game.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/zurustar/sputm/pkg/audio"
	"github.com/zurustar/sputm/pkg/cli"
	"github.com/zurustar/sputm/pkg/display"
	"github.com/zurustar/sputm/pkg/engine"
	"github.com/zurustar/sputm/pkg/fileutil"
	"github.com/zurustar/sputm/pkg/gamedata"
	"github.com/zurustar/sputm/pkg/logger"
	"github.com/zurustar/sputm/pkg/savegame"
)

// ErrNoGame is returned when neither a game directory nor a target was given.
var ErrNoGame = errors.New("no game directory or target given")

// Application runs one game from a resolved configuration.
type Application struct {
	config *cli.Config
	log    *slog.Logger
	assets fs.FS // files bundled with the binary, may be nil
	clock  display.Clock
}

// Option configures an Application.
type Option func(*Application)

// WithClock replaces the wall clock of headless runs.
func WithClock(c display.Clock) Option {
	return func(app *Application) {
		app.clock = c
	}
}

// New creates an Application. assets holds files bundled with the binary.
func New(assets fs.FS, opts ...Option) *Application {
	app := &Application{assets: assets, clock: display.SystemClock{}}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run opens the configured game and plays it until it quits, the timeout
// passes or ctx is cancelled.
func (app *Application) Run(ctx context.Context, cfg *cli.Config) error {
	app.config = cfg
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.GamePath == "" {
		return ErrNoGame
	}
	app.log.Info("Application started", "target", cfg.Target, "path", cfg.GamePath, "headless", cfg.Headless)

	game, err := gamedata.Open(fileutil.NewRealFS(cfg.GamePath), cfg.Version)
	if err != nil {
		return fmt.Errorf("failed to open game: %w", err)
	}

	backend := app.openAudio()
	defer backend.Close()

	saves, err := savegame.Open(cfg.SaveDB)
	if err != nil {
		return fmt.Errorf("failed to open save database: %w", err)
	}
	defer saves.Close()

	prof := game.Profile
	canvas := display.NewCanvas(prof.ScreenWidth, prof.ScreenHeight)
	e, err := engine.New(prof, game.Source, app.engineOptions(game, backend, saves, canvas)...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if err := e.Init(0); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	if err := app.runLoop(ctx, e, canvas, game.Name); err != nil {
		return err
	}
	app.log.Info("Application terminated normally", "ticks", e.Tick())
	return nil
}

// initLogger sets the process logger to the configured level.
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

func (app *Application) engineOptions(game *gamedata.Game, backend audio.Backend, saves *savegame.Store, canvas *display.Canvas) []engine.Option {
	cfg := app.config
	lang := cfg.Language
	if lang == "" {
		lang = game.Language
	}
	opts := []engine.Option{
		engine.WithLogger(app.log),
		engine.WithAudio(backend),
		engine.WithSaves(saves, cfg.Target),
		engine.WithLanguage(lang),
		engine.WithMaxTickDelta(cfg.MaxTickDelta),
	}
	if game.Objects != nil {
		opts = append(opts, engine.WithObjects(game.Objects.Tables(game.Profile.Counts.GlobalObjects)))
	}
	if cfg.MaxHeap > 0 {
		opts = append(opts, engine.WithHeap(cfg.MinHeap, cfg.MaxHeap))
	}
	if !cfg.Headless {
		opts = append(opts, engine.WithDisplay(canvas))
	}
	return opts
}

// openAudio returns a silent backend for headless runs and an ebiten
// backend otherwise. A missing SoundFont only disables MIDI music.
func (app *Application) openAudio() audio.Backend {
	if app.config.Headless {
		return audio.NewNull()
	}
	opts := []audio.EbitenOption{audio.WithLogger(app.log)}
	if loc := findSoundFont(app.assets, app.config.SoundFont, app.config.GamePath); loc != nil {
		sf, err := audio.LoadSoundFont(loc.FileSystem, loc.Path)
		if err != nil {
			app.log.Warn("SoundFont unusable, music disabled", "path", loc.Path, "error", err)
		} else {
			app.log.Info("SoundFont loaded", "path", loc.Path, "embedded", loc.IsEmbedded)
			opts = append(opts, audio.WithSoundFont(sf))
		}
	} else {
		app.log.Warn("No SoundFont found, music disabled", "name", DefaultSoundFontName)
	}
	return audio.NewEbiten(opts...)
}

func (app *Application) runLoop(ctx context.Context, e *engine.Engine, canvas *display.Canvas, title string) error {
	cfg := app.config
	if cfg.Headless {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		app.log.Info("Headless mode: running without a window", "timeout", cfg.Timeout)
		return display.RunHeadless(ctx, e, app.clock)
	}

	return display.Run(e, display.Config{
		Canvas:       canvas,
		Title:        title,
		Scale:        cfg.Scale,
		Timeout:      cfg.Timeout,
		DebugOverlay: cfg.DebugOverlay,
	})
}
