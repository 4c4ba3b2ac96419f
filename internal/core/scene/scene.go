package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/sequence"
)

// EventChanged is published on every successful Switch with
// {"from": previousID, "to": newID}.
const EventChanged = "scene.changed"

// AssetRef names an asset a scene wants available before it shows. Priority
// orders preloading: higher loads first.
type AssetRef struct {
	Kind     string `yaml:"kind" json:"kind"`
	Key      string `yaml:"key" json:"key"`
	URL      string `yaml:"url" json:"url"`
	Priority int    `yaml:"priority" json:"priority"`
}

// Layer declares a named z band the scene draws into.
type Layer struct {
	Name string `yaml:"name" json:"name"`
	Z    int    `yaml:"z" json:"z"`
}

// Scene is declarative data: what exists, not how it behaves. Game states
// read the current scene and push render commands from it.
type Scene struct {
	ID     string         `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Layers []Layer        `yaml:"layers" json:"layers"`
	Props  map[string]any `yaml:"props" json:"props"`
	Assets []AssetRef     `yaml:"assets" json:"assets"`
}

// Manager tracks registered scenes and which one is current.
type Manager struct {
	mu      sync.RWMutex
	log     log.Log
	bus     bus.EventBus
	scenes  map[string]*Scene
	current string
}

func NewManager(eventBus bus.EventBus, logger log.Log) *Manager {
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		log:    logger,
		bus:    eventBus,
		scenes: make(map[string]*Scene),
	}
}

// Register adds a scene. Re-registering an ID replaces it with a warning.
func (m *Manager) Register(s *Scene) error {
	if s == nil || s.ID == "" {
		return fault.New(fault.CodeSceneInvalid, "scene needs an id", fault.ErrSceneInvalid)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[s.ID]; ok {
		m.log.Warn("replacing scene", log.String("scene", s.ID))
	}
	m.scenes[s.ID] = s
	return nil
}

// LoadFile reads one YAML scene file and registers it.
func (m *Manager) LoadFile(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	var s Scene
	if err = yaml.Unmarshal(raw, &s); err != nil {
		return nil, fault.New(fault.CodeSceneInvalid,
			fmt.Sprintf("parsing scene file %q", path), err)
	}
	if err = m.Register(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDir registers every .yaml/.yml file in dir and reports how many it
// loaded. The first broken file aborts.
func (m *Manager) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading scene dir: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if _, err = m.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// Has reports whether a scene is registered.
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scenes[id]
	return ok
}

// Get returns a registered scene.
func (m *Manager) Get(id string) (*Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenes[id]
	if !ok {
		return nil, fault.New(fault.CodeSceneNotFound,
			fmt.Sprintf("scene %q is not registered", id), fault.ErrSceneNotFound)
	}
	return s, nil
}

// List returns registered scene IDs, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.scenes))
	for id := range m.scenes {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	return sequence.From(ids).Sort(func(a, b string) bool { return a < b }).Collect()
}

// Switch makes a scene current and publishes EventChanged. Switching to the
// scene that is already current still publishes, so restore paths always
// refresh the host.
func (m *Manager) Switch(id string) error {
	m.mu.Lock()
	if _, ok := m.scenes[id]; !ok {
		m.mu.Unlock()
		return fault.New(fault.CodeSceneNotFound,
			fmt.Sprintf("cannot switch to unregistered scene %q", id), fault.ErrSceneNotFound)
	}
	from := m.current
	m.current = id
	m.mu.Unlock()

	m.log.Info("scene changed", log.String("from", from), log.String("to", id))
	_ = m.bus.Publish(bus.NewEvent(EventChanged, "scene", map[string]any{"from": from, "to": id}, nil))
	return nil
}

// Current returns the current scene, or nil before the first Switch.
func (m *Manager) Current() *Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == "" {
		return nil
	}
	return m.scenes[m.current]
}

// CurrentID returns the current scene ID, or "".
func (m *Manager) CurrentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
