// Package footlight assembles the engine subsystems behind a single facade.
// Hosts construct an Engine from a Config, register their states, scenes and
// asset loaders through the typed accessors, and either call Start for an
// engine-driven loop or feed Tick themselves.
package footlight

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/footlight/footlight/internal/core/assets"
	"github.com/footlight/footlight/internal/core/audio"
	"github.com/footlight/footlight/internal/core/container"
	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/render"
	"github.com/footlight/footlight/internal/core/save"
	"github.com/footlight/footlight/internal/core/save/storage"
	"github.com/footlight/footlight/internal/core/scene"
	"github.com/footlight/footlight/internal/core/state"
)

// Container keys for every engine-managed system. Hosts that need to hang
// their own systems off the container declare dependencies on these.
var (
	KeyBus      = container.NewKey("events.bus")
	KeyRenderer = container.NewKey("render.backend")
	KeyRender   = container.NewKey("render.manager")
	KeyScenes   = container.NewKey("scene.manager")
	KeyAssets   = container.NewKey("assets.manager")
	KeyAudio    = container.NewKey("audio.mixer")
	KeyStates   = container.NewKey("state.manager")
	KeySaves    = container.NewKey("save.manager")
)

// Option adjusts engine construction beyond what Config expresses.
type Option func(*options)

type options struct {
	renderer render.Renderer
	storage  storage.Adapter
	logger   log.Log
}

// WithRenderer injects a host-built renderer instead of looking one up in
// the backend registry. The config's Renderer.Backend is ignored.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithStorage injects a save storage adapter, overriding the config's
// Save.Dir selection.
func WithStorage(a storage.Adapter) Option {
	return func(o *options) { o.storage = a }
}

// WithLogger replaces the logger built from the config's Log section.
func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

// Engine owns the system container and exposes the subsystems a game works
// with. All gameplay-facing methods expect to run on the loop goroutine;
// Stop and Close are safe from anywhere.
type Engine struct {
	cfg Config
	log log.Log

	container *container.Container
	bus       bus.EventBus
	render    *render.Manager
	scenes    *scene.Manager
	assets    *assets.Manager
	audio     *audio.Mixer
	states    *state.Manager
	saves     *save.Manager

	running int32
	closed  int32

	mu     sync.Mutex
	stopCh chan struct{}
}

// New wires every subsystem into a container, initializes them in dependency
// order and returns the ready engine. Wiring problems (unknown renderer
// backend, failing Init) surface here, not later mid-frame.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.New(log.ParseLevel(cfg.Log.Level), cfg.Log.Encoding)
	}

	c := container.New(logger)
	if err := registerSystems(c, cfg, o, logger); err != nil {
		return nil, err
	}
	if err := c.InitializeAll(context.Background()); err != nil {
		_ = c.DisposeAll()
		return nil, err
	}

	e := &Engine{cfg: cfg, log: logger, container: c}
	if err := e.resolve(); err != nil {
		_ = c.DisposeAll()
		return nil, err
	}

	logger.Info("engine ready",
		log.String("renderer", cfg.Renderer.Backend),
		log.String("version", cfg.Version))
	return e, nil
}

func registerSystems(c *container.Container, cfg Config, o options, logger log.Log) error {
	err := c.Register(container.Definition{
		Key:     KeyBus,
		Factory: func(container.Resolver) (any, error) { return bus.New(), nil },
		Dispose: func(instance any) error {
			instance.(bus.EventBus).Clear()
			return nil
		},
	})
	if err != nil {
		return err
	}

	if o.renderer != nil {
		err = c.RegisterInstance(KeyRenderer, o.renderer)
	} else {
		err = c.Register(container.Definition{
			Key: KeyRenderer,
			Factory: func(container.Resolver) (any, error) {
				return render.NewRenderer(cfg.Renderer.Backend)
			},
		})
	}
	if err != nil {
		return err
	}

	err = c.Register(container.Definition{
		Key:          KeyRender,
		Dependencies: []container.Key{KeyBus, KeyRenderer},
		Factory: func(r container.Resolver) (any, error) {
			eventBus, err := container.Resolve[bus.EventBus](r, KeyBus)
			if err != nil {
				return nil, err
			}
			backend, err := container.Resolve[render.Renderer](r, KeyRenderer)
			if err != nil {
				return nil, err
			}
			return render.NewManager(backend, eventBus, logger), nil
		},
		Initialize: func(_ context.Context, instance any) error {
			return instance.(*render.Manager).Init(cfg.Renderer.Target)
		},
		Dispose: func(instance any) error {
			return instance.(*render.Manager).Dispose()
		},
	})
	if err != nil {
		return err
	}

	err = c.Register(container.Definition{
		Key:          KeyScenes,
		Dependencies: []container.Key{KeyBus},
		Factory: func(r container.Resolver) (any, error) {
			eventBus, err := container.Resolve[bus.EventBus](r, KeyBus)
			if err != nil {
				return nil, err
			}
			return scene.NewManager(eventBus, logger), nil
		},
	})
	if err != nil {
		return err
	}

	err = c.Register(container.Definition{
		Key:          KeyAssets,
		Dependencies: []container.Key{KeyBus},
		Factory: func(r container.Resolver) (any, error) {
			eventBus, err := container.Resolve[bus.EventBus](r, KeyBus)
			if err != nil {
				return nil, err
			}
			return assets.NewManager(eventBus, logger), nil
		},
		Dispose: func(instance any) error {
			instance.(*assets.Manager).Clear()
			return nil
		},
	})
	if err != nil {
		return err
	}

	err = c.Register(container.Definition{
		Key:          KeyAudio,
		Dependencies: []container.Key{KeyBus},
		Factory: func(r container.Resolver) (any, error) {
			eventBus, err := container.Resolve[bus.EventBus](r, KeyBus)
			if err != nil {
				return nil, err
			}
			mixer := audio.NewMixer(eventBus, logger)
			mixer.SetMasterGain(cfg.Audio.MasterGain)
			mixer.SetMasterMuted(cfg.Audio.Muted)
			for name, gain := range cfg.Audio.Channels {
				if err := mixer.AddChannel(name); err != nil {
					return nil, err
				}
				if err := mixer.SetGain(name, gain); err != nil {
					return nil, err
				}
			}
			return mixer, nil
		},
		Dispose: func(instance any) error {
			instance.(*audio.Mixer).StopAll()
			return nil
		},
	})
	if err != nil {
		return err
	}

	err = c.Register(container.Definition{
		Key:          KeyStates,
		Dependencies: []container.Key{KeyBus, KeyRender, KeyScenes, KeyAssets, KeyAudio},
		Factory: func(r container.Resolver) (any, error) {
			stateCtx := state.NewContext()
			stateCtx.Container = c
			stateCtx.Log = logger
			var err error
			if stateCtx.Bus, err = container.Resolve[bus.EventBus](r, KeyBus); err != nil {
				return nil, err
			}
			if stateCtx.Render, err = container.Resolve[*render.Manager](r, KeyRender); err != nil {
				return nil, err
			}
			if stateCtx.Scenes, err = container.Resolve[*scene.Manager](r, KeyScenes); err != nil {
				return nil, err
			}
			if stateCtx.Assets, err = container.Resolve[*assets.Manager](r, KeyAssets); err != nil {
				return nil, err
			}
			if stateCtx.Audio, err = container.Resolve[*audio.Mixer](r, KeyAudio); err != nil {
				return nil, err
			}
			return state.NewManager(stateCtx, stateCtx.Bus, logger), nil
		},
		Dispose: func(instance any) error {
			instance.(*state.Manager).Clear()
			return nil
		},
	})
	if err != nil {
		return err
	}

	return c.Register(container.Definition{
		Key:          KeySaves,
		Dependencies: []container.Key{KeyBus, KeyScenes, KeyStates, KeyAudio},
		Factory: func(r container.Resolver) (any, error) {
			eventBus, err := container.Resolve[bus.EventBus](r, KeyBus)
			if err != nil {
				return nil, err
			}
			scenes, err := container.Resolve[*scene.Manager](r, KeyScenes)
			if err != nil {
				return nil, err
			}
			states, err := container.Resolve[*state.Manager](r, KeyStates)
			if err != nil {
				return nil, err
			}
			mixer, err := container.Resolve[*audio.Mixer](r, KeyAudio)
			if err != nil {
				return nil, err
			}

			adapter := o.storage
			if adapter == nil {
				if cfg.Save.Dir != "" {
					adapter = storage.NewFileAdapter(cfg.Save.Dir)
				} else {
					adapter = storage.NewMemoryAdapter()
				}
			}

			registry := save.NewRegistry(cfg.Version, scenes, logger)
			if err := registry.Register(states.Context()); err != nil {
				return nil, err
			}
			if err := registry.Register(mixer); err != nil {
				return nil, err
			}

			manager := save.NewManager(registry, save.NewMigrator(logger), adapter, eventBus, logger)
			manager.SetMaxSlots(cfg.Save.Slots)
			return manager, nil
		},
	})
}

func (e *Engine) resolve() error {
	var err error
	if e.bus, err = container.Resolve[bus.EventBus](e.container, KeyBus); err != nil {
		return err
	}
	if e.render, err = container.Resolve[*render.Manager](e.container, KeyRender); err != nil {
		return err
	}
	if e.scenes, err = container.Resolve[*scene.Manager](e.container, KeyScenes); err != nil {
		return err
	}
	if e.assets, err = container.Resolve[*assets.Manager](e.container, KeyAssets); err != nil {
		return err
	}
	if e.audio, err = container.Resolve[*audio.Mixer](e.container, KeyAudio); err != nil {
		return err
	}
	if e.states, err = container.Resolve[*state.Manager](e.container, KeyStates); err != nil {
		return err
	}
	e.saves, err = container.Resolve[*save.Manager](e.container, KeySaves)
	return err
}

// Accessors for the engine-managed subsystems.

func (e *Engine) Bus() bus.EventBus               { return e.bus }
func (e *Engine) Render() *render.Manager         { return e.render }
func (e *Engine) Scenes() *scene.Manager          { return e.scenes }
func (e *Engine) Assets() *assets.Manager         { return e.assets }
func (e *Engine) Audio() *audio.Mixer             { return e.audio }
func (e *Engine) States() *state.Manager          { return e.states }
func (e *Engine) Saves() *save.Manager            { return e.saves }
func (e *Engine) Container() *container.Container { return e.container }
func (e *Engine) Config() Config                  { return e.cfg }

// Tick advances one frame: update the state stack, then flush the render
// queue. Hosts that own the loop (a browser animation frame callback) call
// this directly; Start calls it on a ticker.
//
// Not reentrant. dt is in seconds.
func (e *Engine) Tick(dt float64) error {
	if err := e.states.Update(dt); err != nil {
		return err
	}
	return e.render.Flush()
}

// Start pushes the initial state and runs the fixed-rate loop until the
// context is cancelled or Stop is called. Tick errors are logged and the
// loop keeps going; a broken frame must not end the game.
func (e *Engine) Start(ctx context.Context, stateName string) error {
	if atomic.LoadInt32(&e.closed) == 1 {
		return ErrEngineClosed
	}
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		return ErrEngineAlreadyRunning
	}
	defer atomic.StoreInt32(&e.running, 0)

	e.mu.Lock()
	stopCh := make(chan struct{})
	e.stopCh = stopCh
	e.mu.Unlock()

	if stateName != "" {
		if err := e.states.Push(stateName); err != nil {
			return fmt.Errorf("pushing initial state %q: %w", stateName, err)
		}
	}

	interval := time.Second / time.Duration(e.cfg.Loop.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("engine loop started", log.Int("tick_rate", e.cfg.Loop.TickRate))

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := e.Tick(dt); err != nil {
				e.log.Error("tick failed", log.Error(err))
			}
		case <-ctx.Done():
			e.log.Info("engine loop stopped", log.String("reason", "context"))
			return nil
		case <-stopCh:
			e.log.Info("engine loop stopped", log.String("reason", "stop"))
			return nil
		}
	}
}

// Stop ends a running Start loop. It returns ErrEngineNotRunning when no
// loop is active.
func (e *Engine) Stop() error {
	if atomic.LoadInt32(&e.running) == 0 {
		return ErrEngineNotRunning
	}
	e.mu.Lock()
	if e.stopCh != nil {
		close(e.stopCh)
		e.stopCh = nil
	}
	e.mu.Unlock()
	return nil
}

// SaveGame snapshots every registered system into the named slot.
func (e *Engine) SaveGame(slot string) error { return e.saves.Save(slot) }

// LoadGame restores the named slot, migrating old payloads first.
func (e *Engine) LoadGame(slot string) error { return e.saves.Load(slot) }

// Dispatch hands an event to the state stack, top down.
func (e *Engine) Dispatch(event bus.Event) bool { return e.states.Dispatch(event) }

// Close stops the loop if one is running and disposes every system in
// reverse construction order. The engine cannot be reused afterwards.
func (e *Engine) Close() error {
	if !atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		return nil
	}
	_ = e.Stop()
	return e.container.DisposeAll()
}
