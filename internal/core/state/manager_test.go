package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
)

// recordingState appends "name.hook" entries to a shared journal so tests
// can assert exact transition order.
type recordingState struct {
	name     string
	journal  *[]string
	enterErr error
	consume  bool
}

func (r *recordingState) record(hook string) { *r.journal = append(*r.journal, r.name+"."+hook) }

func (r *recordingState) Name() string { return r.name }

func (r *recordingState) Enter(*Context) error {
	r.record("enter")
	return r.enterErr
}

func (r *recordingState) Exit(*Context) error {
	r.record("exit")
	return nil
}

func (r *recordingState) Pause(*Context) error {
	r.record("pause")
	return nil
}

func (r *recordingState) Resume(*Context) error {
	r.record("resume")
	return nil
}

func (r *recordingState) Update(_ *Context, dt float64) error {
	r.record("update")
	return nil
}

func (r *recordingState) HandleEvent(*Context, bus.Event) bool {
	r.record("handle")
	return r.consume
}

func newTestManager(t *testing.T) (*Manager, *[]string) {
	t.Helper()
	journal := &[]string{}
	m := NewManager(NewContext(), bus.New(), nil)
	return m, journal
}

func TestStackTransitions(t *testing.T) {
	t.Run("push pauses current and enters next", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))

		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("menu"))

		require.Equal(t, []string{"play.enter", "play.pause", "menu.enter"}, *journal)
		require.Equal(t, "menu", m.CurrentName())
		require.Equal(t, 2, m.Depth())
	})

	t.Run("pop exits top and resumes below", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))
		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("menu"))
		*journal = (*journal)[:0]

		require.NoError(t, m.Pop())

		require.Equal(t, []string{"menu.exit", "play.resume"}, *journal)
		require.Equal(t, "play", m.CurrentName())
	})

	t.Run("pop on empty stack fails", func(t *testing.T) {
		m, _ := newTestManager(t)
		err := m.Pop()
		require.ErrorIs(t, err, fault.ErrStateStackEmpty)
	})

	t.Run("push of unregistered state fails", func(t *testing.T) {
		m, _ := newTestManager(t)
		err := m.Push("ghost")
		require.ErrorIs(t, err, fault.ErrStateNotFound)
		require.Equal(t, 0, m.Depth())
	})

	t.Run("failed enter rolls back and resumes previous top", func(t *testing.T) {
		m, journal := newTestManager(t)
		boom := errors.New("missing atlas")
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "broken", journal: journal, enterErr: boom}))
		require.NoError(t, m.Push("play"))
		*journal = (*journal)[:0]

		err := m.Push("broken")
		require.ErrorIs(t, err, boom)

		require.Equal(t, []string{"play.pause", "broken.enter", "play.resume"}, *journal)
		require.Equal(t, "play", m.CurrentName())
		require.Equal(t, 1, m.Depth())
	})

	t.Run("replace swaps top without touching below", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "settings", journal: journal}))
		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("menu"))
		*journal = (*journal)[:0]

		require.NoError(t, m.Replace("settings"))

		require.Equal(t, []string{"menu.exit", "settings.enter"}, *journal)
		require.Equal(t, "settings", m.CurrentName())
		require.Equal(t, 2, m.Depth())
	})

	t.Run("failed replace re-enters the old top", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "broken", journal: journal, enterErr: errors.New("nope")}))
		require.NoError(t, m.Push("play"))
		*journal = (*journal)[:0]

		require.Error(t, m.Replace("broken"))

		require.Equal(t, []string{"play.exit", "broken.enter", "play.enter"}, *journal)
		require.Equal(t, "play", m.CurrentName())
	})

	t.Run("clear exits top down", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))
		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("menu"))
		*journal = (*journal)[:0]

		m.Clear()

		require.Equal(t, []string{"menu.exit", "play.resume", "play.exit"}, *journal)
		require.Equal(t, 0, m.Depth())
		require.Nil(t, m.Current())
	})
}

func TestUpdateTicksTopOnly(t *testing.T) {
	m, journal := newTestManager(t)
	require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
	require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))

	require.NoError(t, m.Update(0.016)) // empty stack is fine

	require.NoError(t, m.Push("play"))
	require.NoError(t, m.Push("menu"))
	*journal = (*journal)[:0]

	require.NoError(t, m.Update(0.016))
	require.Equal(t, []string{"menu.update"}, *journal)
}

func TestDispatchFallsThrough(t *testing.T) {
	t.Run("unconsumed events reach lower states", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal, consume: true}))
		require.NoError(t, m.Register(&recordingState{name: "overlay", journal: journal}))
		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("overlay"))
		*journal = (*journal)[:0]

		consumed := m.Dispatch(bus.NewEvent("input.key", "test", "esc", nil))

		require.True(t, consumed)
		require.Equal(t, []string{"overlay.handle", "play.handle"}, *journal)
	})

	t.Run("consumption stops the walk", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Register(&recordingState{name: "dialog", journal: journal, consume: true}))
		require.NoError(t, m.Push("play"))
		require.NoError(t, m.Push("dialog"))
		*journal = (*journal)[:0]

		consumed := m.Dispatch(bus.NewEvent("input.key", "test", "space", nil))

		require.True(t, consumed)
		require.Equal(t, []string{"dialog.handle"}, *journal)
	})

	t.Run("nobody consumes", func(t *testing.T) {
		m, journal := newTestManager(t)
		require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
		require.NoError(t, m.Push("play"))
		*journal = (*journal)[:0]

		require.False(t, m.Dispatch(bus.NewEvent("input.key", "test", "x", nil)))
		require.Equal(t, []string{"play.handle"}, *journal)
	})
}

func TestStackEvents(t *testing.T) {
	eventBus := bus.New()
	var seen []string
	_, err := eventBus.Subscribe(EventPushed, func(e bus.Event) error {
		data := e.Data().(map[string]any)
		seen = append(seen, "pushed:"+data["state"].(string))
		return nil
	})
	require.NoError(t, err)
	_, err = eventBus.Subscribe(EventPopped, func(e bus.Event) error {
		data := e.Data().(map[string]any)
		seen = append(seen, "popped:"+data["state"].(string))
		return nil
	})
	require.NoError(t, err)

	journal := &[]string{}
	m := NewManager(NewContext(), eventBus, nil)
	require.NoError(t, m.Register(&recordingState{name: "play", journal: journal}))
	require.NoError(t, m.Register(&recordingState{name: "menu", journal: journal}))

	require.NoError(t, m.Push("play"))
	require.NoError(t, m.Push("menu"))
	require.NoError(t, m.Pop())

	require.Equal(t, []string{"pushed:play", "pushed:menu", "popped:menu"}, seen)
}

func TestContextFlagsAndVars(t *testing.T) {
	t.Run("flags toggle", func(t *testing.T) {
		ctx := NewContext()
		require.False(t, ctx.HasFlag("met_king"))
		ctx.SetFlag("met_king")
		require.True(t, ctx.HasFlag("met_king"))
		ctx.ClearFlag("met_king")
		require.False(t, ctx.HasFlag("met_king"))
	})

	t.Run("vars store and delete", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetVar("gold", 120)
		v, ok := ctx.Var("gold")
		require.True(t, ok)
		require.Equal(t, 120, v)
		ctx.DeleteVar("gold")
		_, ok = ctx.Var("gold")
		require.False(t, ok)
	})

	t.Run("serialize round trip", func(t *testing.T) {
		ctx := NewContext()
		ctx.SetFlag("met_king")
		ctx.SetFlag("bridge_down")
		ctx.SetVar("gold", 120)
		ctx.SetVar("chapter", "two")

		snapshot, err := ctx.Serialize()
		require.NoError(t, err)

		restored := NewContext()
		require.NoError(t, restored.Deserialize(snapshot))
		require.True(t, restored.HasFlag("met_king"))
		require.True(t, restored.HasFlag("bridge_down"))
		v, ok := restored.Var("gold")
		require.True(t, ok)
		require.Equal(t, 120, v)
	})

	t.Run("deserialize accepts decoded json shapes", func(t *testing.T) {
		// JSON decoding yields []any and map[string]any, never []string.
		ctx := NewContext()
		err := ctx.Deserialize(map[string]any{
			"flags": []any{"met_king"},
			"vars":  map[string]any{"gold": float64(120)},
		})
		require.NoError(t, err)
		require.True(t, ctx.HasFlag("met_king"))
		v, ok := ctx.Var("gold")
		require.True(t, ok)
		require.Equal(t, float64(120), v)
	})

	t.Run("deserialize rejects wrong shapes", func(t *testing.T) {
		ctx := NewContext()
		require.Error(t, ctx.Deserialize("not a map"))
		require.Error(t, ctx.Deserialize(map[string]any{"flags": "nope"}))
		require.Error(t, ctx.Deserialize(map[string]any{"vars": 42}))
	})

	t.Run("system key is stable", func(t *testing.T) {
		require.Equal(t, ContextKey, NewContext().SystemKey())
	})
}
