package footlight

import (
	"context"

	"github.com/footlight/footlight/internal/core/assets"
	"github.com/footlight/footlight/internal/core/container"
	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/render"
	"github.com/footlight/footlight/internal/core/render/canvas"
	"github.com/footlight/footlight/internal/core/render/domtree"
	"github.com/footlight/footlight/internal/core/save"
	"github.com/footlight/footlight/internal/core/save/storage"
	"github.com/footlight/footlight/internal/core/scene"
	"github.com/footlight/footlight/internal/core/state"
)

// The engine implementation lives under internal/; this file re-exports the
// vocabulary a hosting game touches so embedders never need (and never can)
// import the internal packages directly.

// Events.
type (
	Event    = bus.Event
	EventBus = bus.EventBus
)

// Event types the engine publishes. Hosts subscribe to these for frame
// timing, save feedback and scene tracking; game code is free to publish
// its own dot-namespaced types alongside them.
const (
	EventFrameStart  = render.EventFrameStart
	EventFrameEnd    = render.EventFrameEnd
	EventSaved       = save.EventCompleted
	EventSaveFailed  = save.EventFailed
	EventLoaded      = save.EventLoaded
	EventLoadFailed  = save.EventLoadFailed
	EventSceneChange = scene.EventChanged
	EventStatePushed = state.EventPushed
	EventStatePopped = state.EventPopped
	EventAssetFailed = assets.EventLoadFailed
)

// NewEvent builds an event for Dispatch or for publishing on the bus.
func NewEvent(typ, src string, data any, metadata map[string]any) Event {
	return bus.NewEvent(typ, src, data, metadata)
}

// Service container. Hosts registering their own services use these along
// with the engine's Container accessor; the Key* variables in this package
// identify the built-in systems.
type (
	Container         = container.Container
	ServiceKey        = container.Key
	ServiceDefinition = container.Definition
	ServiceResolver   = container.Resolver
	ServiceFactory    = container.FactoryFunc
)

// NewServiceKey allocates a container key for a host-registered service.
func NewServiceKey(name string) ServiceKey { return container.NewKey(name) }

// ResolveService fetches and type-asserts a service in one step. The engine
// container itself is a valid resolver outside factory code.
func ResolveService[T any](r ServiceResolver, key ServiceKey) (T, error) {
	return container.Resolve[T](r, key)
}

// Game states.
type (
	State        = state.State
	StateContext = state.Context
	// NoopState is an embeddable State with empty hooks.
	NoopState = state.Noop
)

// Render commands and backends.
type (
	Renderer       = render.Renderer
	RenderCommand  = render.Command
	CommandBase    = render.Base
	ClearCommand   = render.Clear
	SpriteCommand  = render.Sprite
	TextCommand    = render.Text
	RectCommand    = render.Rect
	HotspotCommand = render.Hotspot

	// CanvasSurface is the paint target the immediate-mode backend draws
	// through; ElementOps is the node store the retained backend drives.
	CanvasSurface = canvas.Surface
	ElementOps    = domtree.ElementOps
)

// Z tiers for command ordering.
const (
	ZBackground = render.ZBackground
	ZScene      = render.ZScene
	ZActor      = render.ZActor
	ZEffect     = render.ZEffect
	ZUI         = render.ZUI
	ZOverlay    = render.ZOverlay
)

// NewCanvasRenderer builds the immediate-mode backend over a host surface.
func NewCanvasRenderer(surface CanvasSurface, logger Logger) Renderer {
	return canvas.New(surface, logger)
}

// NewDOMRenderer builds the retained-mode backend over host element ops.
func NewDOMRenderer(ops ElementOps, logger Logger) Renderer {
	return domtree.New(ops, logger)
}

// Scenes.
type (
	Scene      = scene.Scene
	SceneLayer = scene.Layer
	AssetRef   = scene.AssetRef
)

// Assets.
type (
	AssetLoader     = assets.Loader
	AssetLoaderFunc = assets.LoaderFunc
)

// FetchAsset loads and type-asserts an asset in one step.
func FetchAsset[T any](ctx context.Context, e *Engine, kind, key, url string) (T, error) {
	return assets.Fetch[T](ctx, e.Assets(), kind, key, url)
}

// Saves.
type (
	Serializable   = save.Serializable
	MigrationFunc  = save.MigrationFunc
	SavePayload    = save.Payload
	StorageAdapter = storage.Adapter
	SlotInfo       = storage.SlotInfo
)

// NewMemoryStorage keeps saves in process memory; NewFileStorage writes one
// file per slot under dir.
func NewMemoryStorage() StorageAdapter         { return storage.NewMemoryAdapter() }
func NewFileStorage(dir string) StorageAdapter { return storage.NewFileAdapter(dir) }

// Logging.
type Logger = log.Log

// NewLogger builds the engine's structured logger; level is one of "debug",
// "info", "warn", "error" and encoding "json" or "console".
func NewLogger(level, encoding string) Logger {
	return log.New(log.ParseLevel(level), encoding)
}

// NopLogger discards everything.
func NopLogger() Logger { return log.Nop() }
