package state

import (
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
)

// Manager runs a stack of game states over a shared Context.
//
// Stack bookkeeping is mutex-guarded, but state hooks execute outside the
// lock so a state may push, pop or replace from within its own Update or
// HandleEvent. Transitions belong on the game loop goroutine.
type Manager struct {
	log log.Log
	bus bus.EventBus
	ctx *Context

	mu     sync.Mutex
	states map[string]State
	stack  []State
}

func NewManager(ctx *Context, eventBus bus.EventBus, logger log.Log) *Manager {
	if ctx == nil {
		ctx = NewContext()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		log:    logger,
		bus:    eventBus,
		ctx:    ctx,
		states: make(map[string]State),
	}
}

// Context returns the shared context the manager passes to every hook.
func (m *Manager) Context() *Context { return m.ctx }

// Register adds a state under its Name. Re-registering replaces with a
// warning.
func (m *Manager) Register(s State) error {
	if s == nil || s.Name() == "" {
		return fault.New(fault.CodeStateNotFound, "state needs a name", fault.ErrStateNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[s.Name()]; ok {
		m.log.Warn("replacing state", log.String("state", s.Name()))
	}
	m.states[s.Name()] = s
	return nil
}

// Push pauses the current top and enters the named state. If Enter fails
// the stack is rolled back and the previous top resumed.
func (m *Manager) Push(name string) error {
	m.mu.Lock()
	next, ok := m.states[name]
	if !ok {
		m.mu.Unlock()
		return fault.New(fault.CodeStateNotFound,
			fmt.Sprintf("state %q is not registered", name), fault.ErrStateNotFound)
	}
	var top State
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	}
	m.mu.Unlock()

	if top != nil {
		if err := top.Pause(m.ctx); err != nil {
			return fmt.Errorf("pausing %q: %w", top.Name(), err)
		}
	}

	if err := next.Enter(m.ctx); err != nil {
		if top != nil {
			if resumeErr := top.Resume(m.ctx); resumeErr != nil {
				m.log.Error("resuming after failed push", log.String("state", top.Name()), log.Error(resumeErr))
			}
		}
		return fmt.Errorf("entering %q: %w", name, err)
	}

	m.mu.Lock()
	m.stack = append(m.stack, next)
	depth := len(m.stack)
	m.mu.Unlock()

	m.log.Info("state pushed", log.String("state", name), log.Int("depth", depth))
	_ = m.bus.Publish(bus.NewEvent(EventPushed, "state", map[string]any{"state": name, "depth": depth}, nil))
	return nil
}

// Pop exits the top state and resumes the one underneath.
func (m *Manager) Pop() error {
	m.mu.Lock()
	if len(m.stack) == 0 {
		m.mu.Unlock()
		return fault.New(fault.CodeStateStackEmpty, "pop on empty stack", fault.ErrStateStackEmpty)
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	var below State
	if len(m.stack) > 0 {
		below = m.stack[len(m.stack)-1]
	}
	depth := len(m.stack)
	m.mu.Unlock()

	if err := top.Exit(m.ctx); err != nil {
		// the state is already off the stack; exit failures must not wedge it
		m.log.Error("exit hook failed", log.String("state", top.Name()), log.Error(err))
	}
	if below != nil {
		if err := below.Resume(m.ctx); err != nil {
			m.log.Error("resume hook failed", log.String("state", below.Name()), log.Error(err))
		}
	}

	m.log.Info("state popped", log.String("state", top.Name()), log.Int("depth", depth))
	_ = m.bus.Publish(bus.NewEvent(EventPopped, "state", map[string]any{"state": top.Name(), "depth": depth}, nil))
	return nil
}

// Replace swaps the top state without touching the one underneath: the top
// exits, the named state enters. Pause/Resume hooks do not run.
func (m *Manager) Replace(name string) error {
	m.mu.Lock()
	next, ok := m.states[name]
	if !ok {
		m.mu.Unlock()
		return fault.New(fault.CodeStateNotFound,
			fmt.Sprintf("state %q is not registered", name), fault.ErrStateNotFound)
	}
	if len(m.stack) == 0 {
		m.mu.Unlock()
		return fault.New(fault.CodeStateStackEmpty, "replace on empty stack", fault.ErrStateStackEmpty)
	}
	top := m.stack[len(m.stack)-1]
	m.mu.Unlock()

	if err := top.Exit(m.ctx); err != nil {
		m.log.Error("exit hook failed", log.String("state", top.Name()), log.Error(err))
	}
	if err := next.Enter(m.ctx); err != nil {
		// roll the old state back in so the stack stays coherent
		m.mu.Lock()
		m.stack[len(m.stack)-1] = top
		m.mu.Unlock()
		if reenterErr := top.Enter(m.ctx); reenterErr != nil {
			m.log.Error("re-entering after failed replace", log.String("state", top.Name()), log.Error(reenterErr))
		}
		return fmt.Errorf("entering %q: %w", name, err)
	}

	m.mu.Lock()
	m.stack[len(m.stack)-1] = next
	depth := len(m.stack)
	m.mu.Unlock()

	_ = m.bus.Publish(bus.NewEvent(EventPopped, "state", map[string]any{"state": top.Name(), "depth": depth}, nil))
	_ = m.bus.Publish(bus.NewEvent(EventPushed, "state", map[string]any{"state": name, "depth": depth}, nil))
	return nil
}

// Update ticks the top state. An empty stack is not an error; the engine
// may tick before the first state is pushed.
func (m *Manager) Update(dt float64) error {
	m.mu.Lock()
	var top State
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	}
	m.mu.Unlock()

	if top == nil {
		return nil
	}
	return top.Update(m.ctx, dt)
}

// Dispatch offers the event to states from the top down until one consumes
// it. Reports whether any state did.
func (m *Manager) Dispatch(event bus.Event) bool {
	m.mu.Lock()
	snapshot := make([]State, len(m.stack))
	copy(snapshot, m.stack)
	m.mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].HandleEvent(m.ctx, event) {
			return true
		}
	}
	return false
}

// Current returns the top state, or nil.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// CurrentName returns the top state's name, or "".
func (m *Manager) CurrentName() string {
	if s := m.Current(); s != nil {
		return s.Name()
	}
	return ""
}

// Depth returns the stack depth.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

// Clear pops every state, exiting from the top down.
func (m *Manager) Clear() {
	for m.Depth() > 0 {
		if err := m.Pop(); err != nil {
			return
		}
	}
}
