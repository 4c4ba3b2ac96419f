package render

import (
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/pkg/sequence"
)

// Factory builds a fresh Renderer. Backends register one under a well-known
// name in their package init; hosts then select a backend by name in config.
type Factory func() Renderer

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// RegisterRenderer makes a backend available under name. Registering an
// existing name replaces it, which tests use to inject fakes.
func RegisterRenderer(name string, factory Factory) {
	if name == "" || factory == nil {
		return
	}
	registryMu.Lock()
	factories[name] = factory
	registryMu.Unlock()
}

// NewRenderer builds the backend registered under name.
func NewRenderer(name string) (Renderer, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fault.New(fault.CodeRendererNotFound,
			fmt.Sprintf("no renderer %q (have %v)", name, RendererNames()),
			fault.ErrRendererNotFound)
	}
	return factory(), nil
}

// RendererNames lists registered backends, sorted.
func RendererNames() []string {
	registryMu.RLock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	registryMu.RUnlock()
	return sequence.From(names).Sort(func(a, b string) bool { return a < b }).Collect()
}

// noopRenderer discards everything. It backs headless hosts and is the
// fallback when no backend is configured.
type noopRenderer struct{}

func (noopRenderer) Init(string) error     { return nil }
func (noopRenderer) Clear() error          { return nil }
func (noopRenderer) Flush([]Command) error { return nil }
func (noopRenderer) Dispose() error        { return nil }

func init() {
	RegisterRenderer("noop", func() Renderer { return noopRenderer{} })
}
