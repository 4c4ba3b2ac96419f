package state

import (
	"github.com/footlight/footlight/internal/core/events/bus"
)

// Events published by the Manager on stack changes.
const (
	EventPushed = "state.pushed"
	EventPopped = "state.popped"
)

// State is one mode of play: exploring, dialog, inventory, pause menu. The
// Manager keeps them on a stack; only the top state updates and sees events
// first.
//
// Hook order: Push pauses the current top, then enters the new state. Pop
// exits the top, then resumes the one underneath. Hooks run on the game
// loop goroutine.
type State interface {
	Name() string
	Enter(ctx *Context) error
	Exit(ctx *Context) error
	Pause(ctx *Context) error
	Resume(ctx *Context) error
	Update(ctx *Context, dt float64) error
	// HandleEvent reports whether the event was consumed. Unconsumed
	// events fall through to the state below.
	HandleEvent(ctx *Context, event bus.Event) bool
}

// Noop is a State with empty hooks. Embed it and override what you need.
type Noop struct{ StateName string }

func (n Noop) Name() string                        { return n.StateName }
func (Noop) Enter(*Context) error                  { return nil }
func (Noop) Exit(*Context) error                   { return nil }
func (Noop) Pause(*Context) error                  { return nil }
func (Noop) Resume(*Context) error                 { return nil }
func (Noop) Update(*Context, float64) error        { return nil }
func (Noop) HandleEvent(*Context, bus.Event) bool  { return false }
