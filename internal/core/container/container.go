package container

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/sequence"
)

type entry struct {
	def      Definition
	state    LifecycleState
	instance any
}

// Container owns every engine system: registration, lazy construction with
// dependency ordering, and disposal. All operations are safe for concurrent
// use; resolution runs under a single lock, so factories and hooks must not
// call back into the Container (they receive a Resolver instead).
type Container struct {
	mu       sync.Mutex
	log      log.Log
	items    map[Key]*entry
	regOrder []Key // registration order, drives InitializeAll
	order    []Key // construction order, reversed for disposal
}

func New(logger log.Log) *Container {
	if logger == nil {
		logger = log.Nop()
	}
	return &Container{
		log:   logger,
		items: make(map[Key]*entry),
	}
}

// Register stores a definition. Registering an existing key replaces the
// previous definition with a warning; a previously constructed instance is
// disposed first.
func (c *Container) Register(def Definition) error {
	if def.Key.IsZero() {
		return fault.New(fault.CodeInvalidDefinition, "definition has no key", fault.ErrInvalidDefinition)
	}
	if def.Factory == nil {
		return fault.New(fault.CodeInvalidDefinition,
			fmt.Sprintf("definition %q has no factory", def.Key.Name()), fault.ErrInvalidDefinition)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[def.Key]; ok {
		c.log.Warn("replacing system registration", log.String("system", def.Key.Name()))
		if err := c.disposeEntryLocked(def.Key, old); err != nil {
			c.log.Error("disposing replaced system", log.String("system", def.Key.Name()), log.Error(err))
		}
		c.removeFromOrderLocked(def.Key)
	} else {
		c.regOrder = append(c.regOrder, def.Key)
	}
	c.items[def.Key] = &entry{def: def, state: StateRegistered}
	return nil
}

// RegisterInstance stores an already-constructed system. The instance is
// immediately ready and participates in disposal ordering as of now.
func (c *Container) RegisterInstance(key Key, instance any) error {
	if key.IsZero() {
		return fault.New(fault.CodeInvalidDefinition, "instance has no key", fault.ErrInvalidDefinition)
	}
	if instance == nil {
		return fault.New(fault.CodeInvalidDefinition,
			fmt.Sprintf("nil instance for %q", key.Name()), fault.ErrInvalidDefinition)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[key]; ok {
		c.log.Warn("replacing system registration", log.String("system", key.Name()))
		if err := c.disposeEntryLocked(key, old); err != nil {
			c.log.Error("disposing replaced system", log.String("system", key.Name()), log.Error(err))
		}
		c.removeFromOrderLocked(key)
	} else {
		c.regOrder = append(c.regOrder, key)
	}
	c.items[key] = &entry{def: Definition{Key: key}, state: StateReady, instance: instance}
	c.order = append(c.order, key)
	return nil
}

// Get returns the instance for key, constructing it and its dependencies on
// first use.
func (c *Container) Get(key Key) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &resolution{c: c, ctx: context.Background()}
	return r.resolve(key)
}

// GetOptional returns the instance for key, or nil when the key is not
// registered or resolution fails. Failures are logged, never returned.
func (c *Container) GetOptional(key Key) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil
	}
	if e.state == StateReady {
		return e.instance
	}
	r := &resolution{c: c, ctx: context.Background()}
	v, err := r.resolve(key)
	if err != nil {
		c.log.Warn("optional resolution failed", log.String("system", key.Name()), log.Error(err))
		return nil
	}
	return v
}

// Has reports whether key is registered, in any lifecycle state.
func (c *Container) Has(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// State returns the lifecycle state for key, or StateUnregistered.
func (c *Container) State(key Key) LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		return e.state
	}
	return StateUnregistered
}

// Keys returns every registered key sorted by name.
func (c *Container) Keys() []Key {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	return sequence.From(keys).
		Sort(func(a, b Key) bool { return a.Name() < b.Name() }).
		Collect()
}

// Unregister drops a registration and releases its instance without running
// the dispose hook. Callers that need the hook call Dispose first.
func (c *Container) Unregister(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return fault.New(fault.CodeSystemNotFound,
			fmt.Sprintf("system %q is not registered", key.Name()), fault.ErrSystemNotFound)
	}
	delete(c.items, key)
	c.removeFromOrderLocked(key)
	c.removeFromRegOrderLocked(key)
	return nil
}

// InitializeAll eagerly constructs every non-lazy system in registration
// order; dependency chains construct depth-first, so dependencies always
// become ready before their dependents. The first failure aborts.
func (c *Container) InitializeAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]Key, len(c.regOrder))
	copy(snapshot, c.regOrder)
	for _, key := range snapshot {
		e, ok := c.items[key]
		if !ok || e.def.Lazy || e.state != StateRegistered {
			continue
		}
		r := &resolution{c: c, ctx: ctx}
		if _, err := r.resolve(key); err != nil {
			return err
		}
	}
	return nil
}

// Dispose tears down a single constructed system. The definition stays in a
// terminal disposed state; re-register the key to use it again.
func (c *Container) Dispose(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return fault.New(fault.CodeSystemNotFound,
			fmt.Sprintf("system %q is not registered", key.Name()), fault.ErrSystemNotFound)
	}
	err := c.disposeEntryLocked(key, e)
	c.removeFromOrderLocked(key)
	return err
}

// DisposeAll tears down every constructed system in reverse construction
// order and aggregates hook errors.
func (c *Container) DisposeAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposeAllLocked()
}

// Clear drops every registration and instance. Dispose hooks do not run;
// DisposeAll first when they must.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*entry)
	c.regOrder = nil
	c.order = nil
}

func (c *Container) disposeAllLocked() error {
	var all error
	for i := len(c.order) - 1; i >= 0; i-- {
		key := c.order[i]
		e, ok := c.items[key]
		if !ok {
			continue
		}
		if err := c.disposeEntryLocked(key, e); err != nil {
			all = errors.Join(all, err)
		}
	}
	c.order = c.order[:0]
	return all
}

func (c *Container) disposeEntryLocked(key Key, e *entry) error {
	if e.state != StateReady {
		return nil
	}
	var err error
	if e.def.Dispose != nil {
		if hookErr := e.def.Dispose(e.instance); hookErr != nil {
			err = fault.New(fault.CodeInternalError,
				fmt.Sprintf("disposing %q", key.Name()), hookErr)
		}
	}
	e.instance = nil
	e.state = StateDisposed
	c.log.Debug("system disposed", log.String("system", key.Name()))
	return err
}

func (c *Container) removeFromOrderLocked(key Key) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Container) removeFromRegOrderLocked(key Key) {
	for i, k := range c.regOrder {
		if k == key {
			c.regOrder = append(c.regOrder[:i], c.regOrder[i+1:]...)
			return
		}
	}
}

// resolution is a depth-first construction walk. It exists per top-level Get
// and carries the chain for cycle diagnostics; the container lock is held for
// its whole lifetime.
type resolution struct {
	c     *Container
	ctx   context.Context
	chain []Key
}

var _ Resolver = (*resolution)(nil)

func (r *resolution) Get(key Key) (any, error) {
	return r.resolve(key)
}

func (r *resolution) GetOptional(key Key) any {
	e, ok := r.c.items[key]
	if !ok {
		return nil
	}
	if e.state == StateReady {
		return e.instance
	}
	v, err := r.resolve(key)
	if err != nil {
		r.c.log.Warn("optional resolution failed", log.String("system", key.Name()), log.Error(err))
		return nil
	}
	return v
}

func (r *resolution) resolve(key Key) (any, error) {
	e, ok := r.c.items[key]
	if !ok {
		return nil, fault.New(fault.CodeSystemNotFound,
			fmt.Sprintf("system %q is not registered", key.Name()), fault.ErrSystemNotFound).
			WithContext("system", key.Name())
	}

	switch e.state {
	case StateReady:
		return e.instance, nil
	case StateDisposed:
		return nil, fault.New(fault.CodeSystemDisposed,
			fmt.Sprintf("system %q was disposed", key.Name()), fault.ErrSystemDisposed)
	case StateResolving:
		return nil, fault.New(fault.CodeCircularDependency,
			"circular dependency: "+r.chainString(key), fault.ErrCircularDependency).
			WithContext("chain", r.chainString(key))
	}

	e.state = StateResolving
	r.chain = append(r.chain, key)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()

	for _, dep := range e.def.Dependencies {
		if _, registered := r.c.items[dep]; !registered {
			e.state = StateRegistered
			return nil, fault.New(fault.CodeMissingDependency,
				fmt.Sprintf("system %q requires unregistered system %q", key.Name(), dep.Name()),
				fault.ErrMissingDependency).
				WithContext("system", key.Name()).
				WithContext("dependency", dep.Name())
		}
		if _, err := r.resolve(dep); err != nil {
			e.state = StateRegistered
			return nil, err
		}
	}

	instance, err := e.def.Factory(r)
	if err != nil {
		e.state = StateRegistered
		return nil, fault.New(fault.CodeFactoryFailed,
			fmt.Sprintf("constructing system %q", key.Name()), err)
	}
	if e.def.Initialize != nil {
		if err = e.def.Initialize(r.ctx, instance); err != nil {
			e.state = StateRegistered
			return nil, fault.New(fault.CodeInitializeFailed,
				fmt.Sprintf("initializing system %q", key.Name()), err)
		}
	}

	e.instance = instance
	e.state = StateReady
	r.c.order = append(r.c.order, key)
	r.c.log.Debug("system ready", log.String("system", key.Name()))
	return instance, nil
}

func (r *resolution) chainString(repeat Key) string {
	s := ""
	for _, k := range r.chain {
		s += k.Name() + " -> "
	}
	return s + repeat.Name()
}

// Resolve fetches and type-asserts a system in one step.
func Resolve[T any](r Resolver, key Key) (T, error) {
	var zero T
	v, err := r.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fault.New(fault.CodeTypeMismatch,
			fmt.Sprintf("system %q has type %T", key.Name(), v), fault.ErrTypeMismatch)
	}
	return typed, nil
}
