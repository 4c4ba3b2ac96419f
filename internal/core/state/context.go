package state

import (
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/assets"
	"github.com/footlight/footlight/internal/core/audio"
	"github.com/footlight/footlight/internal/core/container"
	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/render"
	"github.com/footlight/footlight/internal/core/scene"
)

// ContextKey is the save key the shared context serializes under.
const ContextKey = "state.context"

// Context is the bag every state hook receives: subsystem handles plus the
// shared gameplay flags and variables that travel in save files.
//
// The engine fills the subsystem fields once at startup; states treat them
// as read-only. Flags and vars are owned by the Context and safe for
// concurrent access.
type Context struct {
	Bus       bus.EventBus
	Render    *render.Manager
	Scenes    *scene.Manager
	Assets    *assets.Manager
	Audio     *audio.Mixer
	Container *container.Container
	Log       log.Log

	mu    sync.RWMutex
	flags map[string]struct{}
	vars  map[string]any
}

func NewContext() *Context {
	return &Context{
		flags: make(map[string]struct{}),
		vars:  make(map[string]any),
	}
}

func (c *Context) SetFlag(name string) {
	c.mu.Lock()
	c.flags[name] = struct{}{}
	c.mu.Unlock()
}

func (c *Context) ClearFlag(name string) {
	c.mu.Lock()
	delete(c.flags, name)
	c.mu.Unlock()
}

func (c *Context) HasFlag(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.flags[name]
	return ok
}

func (c *Context) SetVar(key string, value any) {
	c.mu.Lock()
	c.vars[key] = value
	c.mu.Unlock()
}

func (c *Context) Var(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[key]
	return v, ok
}

func (c *Context) DeleteVar(key string) {
	c.mu.Lock()
	delete(c.vars, key)
	c.mu.Unlock()
}

// SystemKey makes Context a serializable system: gameplay flags and vars
// are exactly what save files exist for.
func (c *Context) SystemKey() string { return ContextKey }

func (c *Context) Serialize() (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	flags := make([]string, 0, len(c.flags))
	for f := range c.flags {
		flags = append(flags, f)
	}
	vars := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return map[string]any{"flags": flags, "vars": vars}, nil
}

func (c *Context) Deserialize(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("context payload is %T, want map", data)
	}

	flags := make(map[string]struct{})
	switch raw := m["flags"].(type) {
	case nil:
	case []string:
		for _, f := range raw {
			flags[f] = struct{}{}
		}
	case []any:
		for _, f := range raw {
			name, isString := f.(string)
			if !isString {
				return fmt.Errorf("context flag is %T, want string", f)
			}
			flags[name] = struct{}{}
		}
	default:
		return fmt.Errorf("context flags are %T, want list", raw)
	}

	vars := make(map[string]any)
	if rawVars, present := m["vars"]; present && rawVars != nil {
		typed, isMap := rawVars.(map[string]any)
		if !isMap {
			return fmt.Errorf("context vars are %T, want map", rawVars)
		}
		for k, v := range typed {
			vars[k] = v
		}
	}

	c.mu.Lock()
	c.flags = flags
	c.vars = vars
	c.mu.Unlock()
	return nil
}
