// Command sandbox runs the engine headless: a canvas backend paints into
// the log, two states walk through a scene, and a save slot round-trips.
// Stop it with Ctrl-C.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/footlight/footlight"
	"github.com/footlight/footlight/internal/core/observability/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("sandbox:", err)
		os.Exit(1)
	}
}

func run() error {
	scenesDir := "cmd/sandbox/scenes"
	if len(os.Args) > 1 {
		scenesDir = os.Args[1]
	}

	logger := footlight.NewLogger("debug", "console")

	cfg := footlight.DefaultConfig()
	cfg.Loop.TickRate = 4
	cfg.Renderer.Target = "console"
	cfg.Save.Slots = 3

	surface := newConsoleSurface(logger)
	engine, err := footlight.New(cfg,
		footlight.WithLogger(logger),
		footlight.WithRenderer(footlight.NewCanvasRenderer(surface, logger)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	// Decoding is the host's job; the sandbox "decodes" by wrapping the URL.
	err = engine.Assets().RegisterLoader("image", footlight.AssetLoaderFunc(
		func(_ context.Context, url string) (any, error) {
			return "decoded:" + url, nil
		}))
	if err != nil {
		return err
	}

	loaded, err := engine.Scenes().LoadDir(scenesDir)
	if err != nil {
		return err
	}
	logger.Info("scenes loaded", log.Int("count", loaded))

	if err := engine.Scenes().Switch("intro"); err != nil {
		return err
	}
	if sc := engine.Scenes().Current(); sc != nil {
		if err := engine.Assets().Preload(context.Background(), sc.Assets); err != nil {
			logger.Warn("preload incomplete", log.Error(err))
		}
	}

	if err := engine.States().Register(menuState{}); err != nil {
		return err
	}
	if err := engine.States().Register(newPlayState()); err != nil {
		return err
	}

	// The states talk to the host through events, never the other way
	// around; the host owns all stack transitions.
	engine.Bus().On("menu.start", func(footlight.Event) error {
		return engine.States().Replace("play")
	})
	engine.Bus().On("play.quit", func(footlight.Event) error {
		return engine.States().Replace("menu")
	})

	// A few host-driven frames first, the way a browser host would tick.
	if err := engine.States().Push("menu"); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := engine.Tick(0.25); err != nil {
			return err
		}
	}

	// Save, mutate, load back.
	gameCtx := engine.States().Context()
	gameCtx.SetFlag("met_stagehand")
	if err := engine.SaveGame("checkpoint"); err != nil {
		return err
	}
	gameCtx.ClearFlag("met_stagehand")
	if err := engine.LoadGame("checkpoint"); err != nil {
		return err
	}
	logger.Info("save round trip", log.Any("flag_restored", gameCtx.HasFlag("met_stagehand")))

	// Into the play state via the same path a real input event would take.
	engine.Dispatch(footlight.NewEvent("input.key", "host", "Enter", nil))

	// Hand the loop to the engine until Ctrl-C.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- engine.Start(ctx, "") }()

	select {
	case sig := <-stopCh:
		logger.Info("signal received", log.String("signal", sig.String()))
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
