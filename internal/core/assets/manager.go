package assets

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/scene"
	"github.com/footlight/footlight/pkg/concurrent"
	"github.com/footlight/footlight/pkg/sequence"
)

// DefaultPreloadLimit caps how many loads Preload keeps in flight at once.
const DefaultPreloadLimit = 4

// Manager caches decoded assets and coalesces concurrent loads: many
// callers asking for the same key while a load is in flight share one
// underlying Loader call and receive the identical value.
//
// Failed loads are not cached. The flight is forgotten so the next request
// issues a fresh attempt.
type Manager struct {
	log log.Log
	bus bus.EventBus

	mu      sync.RWMutex
	loaders map[string]Loader
	cache   map[string]any

	flights      singleflight.Group
	preloadLimit int
}

func NewManager(eventBus bus.EventBus, logger log.Log) *Manager {
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		log:          logger,
		bus:          eventBus,
		loaders:      make(map[string]Loader),
		cache:        make(map[string]any),
		preloadLimit: DefaultPreloadLimit,
	}
}

// SetPreloadLimit adjusts Preload concurrency. Zero or less means
// unlimited.
func (m *Manager) SetPreloadLimit(limit int) {
	m.mu.Lock()
	m.preloadLimit = limit
	m.mu.Unlock()
}

// RegisterLoader routes assets of the given kind through the loader.
// Re-registering a kind replaces the previous loader with a warning.
func (m *Manager) RegisterLoader(kind string, loader Loader) error {
	if kind == "" || loader == nil {
		return fault.New(fault.CodeLoaderNotFound, "loader needs a kind and an implementation", fault.ErrLoaderNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loaders[kind]; ok {
		m.log.Warn("replacing asset loader", log.String("kind", kind))
	}
	m.loaders[kind] = loader
	return nil
}

func cacheKey(kind, key string) string { return kind + ":" + key }

// Get returns the cached asset for kind/key, loading it through the
// registered loader on a miss. Concurrent misses for the same key share a
// single loader call.
//
// The loader runs with the context of the caller that started the flight;
// later joiners share its result regardless of their own contexts.
func (m *Manager) Get(ctx context.Context, kind, key, url string) (any, error) {
	ck := cacheKey(kind, key)

	m.mu.RLock()
	if v, ok := m.cache[ck]; ok {
		m.mu.RUnlock()
		return v, nil
	}
	loader, ok := m.loaders[kind]
	m.mu.RUnlock()

	if !ok {
		return nil, fault.New(fault.CodeLoaderNotFound,
			fmt.Sprintf("no loader registered for kind %q", kind), fault.ErrLoaderNotFound)
	}

	v, err, _ := m.flights.Do(ck, func() (any, error) {
		// a previous flight may have filled the cache while we queued
		m.mu.RLock()
		cached, hit := m.cache[ck]
		m.mu.RUnlock()
		if hit {
			return cached, nil
		}

		decoded, loadErr := loader.Load(ctx, url)
		if loadErr != nil {
			return nil, fault.New(fault.CodeAssetLoadFailed,
				fmt.Sprintf("loading %s %q from %q", kind, key, url), loadErr)
		}

		m.mu.Lock()
		m.cache[ck] = decoded
		m.mu.Unlock()
		return decoded, nil
	})
	if err != nil {
		m.flights.Forget(ck)
		m.log.Warn("asset load failed",
			log.String("kind", kind), log.String("key", key), log.String("url", url), log.Error(err))
		_ = m.bus.Publish(bus.NewEvent(EventLoadFailed, "assets", map[string]any{
			"kind": kind, "key": key, "url": url, "error": err.Error(),
		}, nil))
		return nil, err
	}
	return v, nil
}

// Preload loads a batch of scene asset references, highest Priority first,
// with at most the configured number of loads in flight. Individual
// failures are logged and published but do not stop the rest of the batch;
// the first error is returned once everything has settled.
func (m *Manager) Preload(ctx context.Context, refs []scene.AssetRef) error {
	if len(refs) == 0 {
		return nil
	}

	queue := sequence.NewPriorityQueue[scene.AssetRef]()
	for _, ref := range refs {
		queue.Enqueue(ref, ref.Priority)
	}
	ordered := make([]scene.AssetRef, 0, len(refs))
	for !queue.IsEmpty() {
		ref, _ := queue.Dequeue()
		ordered = append(ordered, ref)
	}

	m.mu.RLock()
	limit := m.preloadLimit
	m.mu.RUnlock()

	var mu sync.Mutex
	var firstErr error
	err := concurrent.ForEachLimit(sequence.From(ordered), limit, func(ref scene.AssetRef) error {
		if _, loadErr := m.Get(ctx, ref.Kind, ref.Key, ref.URL); loadErr != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = loadErr
			}
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return firstErr
}

// Has reports whether kind/key is cached.
func (m *Manager) Has(kind, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cache[cacheKey(kind, key)]
	return ok
}

// Evict drops one cached asset and reports whether it was present.
func (m *Manager) Evict(kind, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ck := cacheKey(kind, key)
	_, ok := m.cache[ck]
	delete(m.cache, ck)
	return ok
}

// Clear drops the whole cache. Registered loaders stay.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.cache = make(map[string]any)
	m.mu.Unlock()
}

// Len returns the number of cached assets.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// Fetch is a typed Get: it loads through the manager and asserts the
// result to T. A cached value of the wrong type logs a diagnostic and
// returns the zero value with a type mismatch error, so callers can treat
// it as a soft miss.
func Fetch[T any](ctx context.Context, m *Manager, kind, key, url string) (T, error) {
	var zero T
	v, err := m.Get(ctx, kind, key, url)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		err = fault.New(fault.CodeAssetTypeMismatch,
			fmt.Sprintf("asset %s %q is %T, want %T", kind, key, v, zero), fault.ErrAssetTypeMismatch)
		m.log.Warn("asset type mismatch",
			log.String("kind", kind), log.String("key", key), log.Error(err))
		return zero, err
	}
	return typed, nil
}
