package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	pagesourceinadapter "pagesource/internal/modules/pagesource/adapter/in"
	pagesourceoutadapter "pagesource/internal/modules/pagesource/adapter/out"
	pagesourcein "pagesource/internal/modules/pagesource/port/in"
	pagesourceout "pagesource/internal/modules/pagesource/port/out"
	pagesourceservice "pagesource/internal/modules/pagesource/service"
	pagesourceusecase "pagesource/internal/modules/pagesource/usecase"
	"pagesource/internal/platform/clock"
	"pagesource/internal/platform/config"
	"pagesource/internal/platform/id"
	"pagesource/internal/platform/logging"
	uiapp "pagesource/internal/ui/app"
	"pagesource/internal/ui/window"
)

type App struct {
	Config   config.Config
	CLI      pagesourceinadapter.CLIHandler
	Graphics pagesourceout.Graphics

	usecase pagesourcein.Usecase
	service *pagesourceservice.SourceService
	store   *pagesourceoutadapter.SQLitePropertiesStore
}

// New wires one engine runtime, the properties store and the page source
// service. A nil graphics context selects in-memory textures.
func New(cfg config.Config, graphics pagesourceout.Graphics) (*App, error) {
	clk := clock.SystemClock{}
	if graphics == nil {
		graphics = pagesourceoutadapter.NewMemoryGraphics()
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	runtime, err := pagesourceservice.NewRuntime(engine, &id.Sequence{})
	if err != nil {
		_ = engine.Delete()
		return nil, fmt.Errorf("start engine runtime: %w", err)
	}

	store, err := pagesourceoutadapter.NewSQLitePropertiesStore(cfg.DBPath, clk)
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("new properties store: %w", err)
	}

	svc := pagesourceservice.NewSourceService(runtime, graphics, clk, store)
	uc := pagesourceusecase.NewInteractor(svc)
	return &App{
		Config:   cfg,
		CLI:      pagesourceinadapter.NewCLIHandler(uc),
		Graphics: graphics,
		usecase:  uc,
		service:  svc,
		store:    store,
	}, nil
}

// NewEngine builds the rasterization engine named by the config.
func NewEngine(cfg config.Config) (pagesourceout.Engine, error) {
	switch cfg.Engine.Kind {
	case config.EngineExec:
		return pagesourceoutadapter.NewExecEngine(cfg.Engine.Ghostscript), nil
	case config.EnginePlugin:
		engine, err := pagesourceoutadapter.NewPluginEngine(cfg.Engine.PluginBinary, pluginLogger(cfg.LogLevel))
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}
}

func pluginLogger(level string) hclog.Logger {
	if _, enabled, err := logging.ParseLevel(level); err != nil || !enabled {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "gsengine",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})
}

// Input returns the input router for one open source.
func (a *App) Input(name string) pagesourceinadapter.InputHandler {
	return pagesourceinadapter.NewInputHandler(a.usecase, pagesourceservice.Key(name))
}

// Close closes every open source, remembering pages of saved ones, then
// releases the engine and the store.
func (a *App) Close() error {
	var errs []error
	for _, name := range a.service.Names() {
		if err := a.usecase.Close(context.Background(), name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.service.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func RunTUI(app *App, name string) error {
	model := uiapp.New(app.CLI, app.Input(name))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}

// RunWindow needs an App built with a *window.Graphics.
func RunWindow(app *App, name string) error {
	gfx, ok := app.Graphics.(*window.Graphics)
	if !ok {
		return fmt.Errorf("window host needs window graphics, got %T", app.Graphics)
	}
	hotkeys, err := window.ParseHotkeys(app.Config.Hotkeys)
	if err != nil {
		return err
	}
	return window.Run(window.NewGame(app.CLI, app.Input(name), gfx, hotkeys))
}
