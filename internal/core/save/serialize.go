package save

import (
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/sequence"
)

// Serializable is implemented by subsystems that travel in save files.
// SystemKey names the blob inside the payload's systems map; Serialize
// freezes current state into plain data (maps, slices, scalars) and
// Deserialize restores from the same shape after a JSON round trip.
type Serializable interface {
	SystemKey() string
	Serialize() (any, error)
	Deserialize(data any) error
}

// SceneBridge is the slice of the scene manager the save system needs:
// which scene is current at save time, and switching back at load time.
type SceneBridge interface {
	CurrentID() string
	Switch(id string) error
}

// Registry tracks the serializable systems, the engine's schema version,
// and the scene bridge.
type Registry struct {
	log log.Log

	mu      sync.RWMutex
	version string
	systems map[string]Serializable
	scenes  SceneBridge
}

func NewRegistry(version string, scenes SceneBridge, logger log.Log) *Registry {
	if version == "" {
		version = DefaultVersion
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{
		log:     logger,
		version: version,
		systems: make(map[string]Serializable),
		scenes:  scenes,
	}
}

// Register adds a serializable system. A key can only be claimed once;
// two systems writing the same blob would silently clobber each other.
func (r *Registry) Register(s Serializable) error {
	if s == nil || s.SystemKey() == "" {
		return fault.New(fault.CodeSystemKeyConflict, "serializable needs a system key", fault.ErrSystemKeyConflict)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.SystemKey()
	if _, taken := r.systems[key]; taken {
		return fault.New(fault.CodeSystemKeyConflict,
			fmt.Sprintf("system key %q is already registered", key), fault.ErrSystemKeyConflict)
	}
	r.systems[key] = s
	return nil
}

// Unregister removes a system and reports whether it was registered.
func (r *Registry) Unregister(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.systems[key]
	delete(r.systems, key)
	return ok
}

// Lookup returns the system registered under key.
func (r *Registry) Lookup(key string) (Serializable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.systems[key]
	return s, ok
}

// Keys returns the registered system keys, sorted, so payload assembly and
// restore walk systems in a stable order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.systems))
	for key := range r.systems {
		keys = append(keys, key)
	}
	r.mu.RUnlock()
	return sequence.From(keys).Sort(func(a, b string) bool { return a < b }).Collect()
}

// Version is the engine's current save-schema version; payloads are
// stamped with it at save time and migrated toward it at load time.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// CurrentSceneID asks the bridge which scene is current. Without a bridge
// it returns "".
func (r *Registry) CurrentSceneID() string {
	r.mu.RLock()
	scenes := r.scenes
	r.mu.RUnlock()
	if scenes == nil {
		return ""
	}
	return scenes.CurrentID()
}

// RestoreScene switches back to a saved scene. Without a bridge the saved
// scene is ignored with a warning.
func (r *Registry) RestoreScene(id string) error {
	r.mu.RLock()
	scenes := r.scenes
	r.mu.RUnlock()
	if scenes == nil {
		r.log.Warn("no scene bridge, saved scene ignored", log.String("scene", id))
		return nil
	}
	return scenes.Switch(id)
}
