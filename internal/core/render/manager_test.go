package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
)

type fakeBackend struct {
	inits     []string
	clears    int
	batches   [][]Command
	disposed  bool
	failFlush error
	failClear error
}

func (f *fakeBackend) Init(target string) error {
	f.inits = append(f.inits, target)
	return nil
}

func (f *fakeBackend) Clear() error {
	f.clears++
	return f.failClear
}

func (f *fakeBackend) Flush(commands []Command) error {
	batch := make([]Command, len(commands))
	copy(batch, commands)
	f.batches = append(f.batches, batch)
	return f.failFlush
}

func (f *fakeBackend) Dispose() error {
	f.disposed = true
	return nil
}

type presentingBackend struct {
	*fakeBackend
	presents int
}

func (p *presentingBackend) Present() error {
	p.presents++
	return nil
}

type resizingBackend struct {
	*fakeBackend
	width, height int
}

func (r *resizingBackend) Resize(width, height int) {
	r.width, r.height = width, height
}

func ids(commands []Command) []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.CommandID()
	}
	return out
}

func TestFlushOrdering(t *testing.T) {
	t.Run("Flush: ascending z, stable ties, scene before ui", func(t *testing.T) {
		backend := &fakeBackend{}
		m := NewManager(backend, nil, nil)

		m.PushScene(Rect{Base: Base{ID: "bg", Z: ZBackground}})
		m.PushScene(Sprite{Base: Base{ID: "actor-late", Z: ZActor}})
		m.PushScene(Sprite{Base: Base{ID: "prop", Z: ZScene}})
		// same z as actor-late but pushed after: must stay after it
		m.PushScene(Sprite{Base: Base{ID: "actor-later", Z: ZActor}})
		// low z on the UI queue must still draw after every scene command
		m.PushUI(Text{Base: Base{ID: "hud", Z: 0}})
		m.PushUI(Rect{Base: Base{ID: "menu", Z: ZOverlay}})

		require.NoError(t, m.Flush())
		require.Len(t, backend.batches, 2)
		require.Equal(t, []string{"bg", "prop", "actor-late", "actor-later"}, ids(backend.batches[0]))
		require.Equal(t, []string{"hud", "menu"}, ids(backend.batches[1]))
	})

	t.Run("Flush: clear consumed by manager, backend cleared once", func(t *testing.T) {
		backend := &fakeBackend{}
		m := NewManager(backend, nil, nil)

		m.PushScene(Clear{Base: Base{ID: "wipe"}})
		m.PushScene(Sprite{Base: Base{ID: "hero", Z: ZActor}})
		m.PushUI(Clear{Base: Base{ID: "wipe-ui"}})

		require.NoError(t, m.Flush())
		require.Equal(t, 1, backend.clears)
		require.Equal(t, []string{"hero"}, ids(backend.batches[0]))
		require.Empty(t, backend.batches[1])
	})

	t.Run("Flush: empty frame still dispatches both batches", func(t *testing.T) {
		backend := &fakeBackend{}
		m := NewManager(backend, nil, nil)
		require.NoError(t, m.Flush())
		require.Equal(t, 0, backend.clears)
		require.Len(t, backend.batches, 2)
	})

	t.Run("Push: nil command dropped", func(t *testing.T) {
		m := NewManager(&fakeBackend{}, nil, nil)
		m.PushScene(nil)
		sceneLen, uiLen := m.QueueLens()
		require.Zero(t, sceneLen)
		require.Zero(t, uiLen)
	})
}

func TestFlushFailure(t *testing.T) {
	t.Run("Flush: queues reset even when backend fails", func(t *testing.T) {
		deviceLost := errors.New("device lost")
		backend := &fakeBackend{failFlush: deviceLost}
		m := NewManager(backend, nil, nil)

		m.PushScene(Sprite{Base: Base{ID: "hero"}})
		err := m.Flush()
		require.ErrorIs(t, err, fault.ErrFrameDeliveryFailed)
		require.ErrorIs(t, err, deviceLost)

		sceneLen, uiLen := m.QueueLens()
		require.Zero(t, sceneLen)
		require.Zero(t, uiLen)

		// recovered backend receives nothing from the failed frame
		backend.failFlush = nil
		require.NoError(t, m.Flush())
		last := backend.batches[len(backend.batches)-2]
		require.Empty(t, last, "failed frame's commands must not leak forward")
	})

	t.Run("Flush: clear failure aborts the frame", func(t *testing.T) {
		backend := &fakeBackend{failClear: errors.New("context gone")}
		m := NewManager(backend, nil, nil)
		m.PushScene(Clear{})
		m.PushScene(Sprite{Base: Base{ID: "hero"}})

		err := m.Flush()
		require.ErrorIs(t, err, fault.ErrFrameDeliveryFailed)
		require.Empty(t, backend.batches, "no batch may be dispatched after a failed clear")
	})
}

func TestFrameEvents(t *testing.T) {
	eventBus := bus.New()
	backend := &fakeBackend{}
	m := NewManager(backend, eventBus, nil)

	var started, ended []map[string]any
	eventBus.On(EventFrameStart, func(e bus.Event) error {
		started = append(started, e.Data().(map[string]any))
		return nil
	})
	eventBus.On(EventFrameEnd, func(e bus.Event) error {
		ended = append(ended, e.Data().(map[string]any))
		return nil
	})

	m.PushScene(Sprite{Base: Base{ID: "a"}})
	m.PushUI(Text{Base: Base{ID: "b"}})
	require.NoError(t, m.Flush())

	require.Len(t, started, 1)
	require.Len(t, ended, 1)
	require.Equal(t, uint64(1), started[0]["frame"])
	require.Equal(t, 2, ended[0]["commands"])
	require.NotContains(t, ended[0], "error")

	// frame end still fires when the backend fails, carrying the error
	backend.failFlush = errors.New("device lost")
	m.PushScene(Sprite{Base: Base{ID: "c"}})
	require.Error(t, m.Flush())
	require.Len(t, ended, 2)
	require.Contains(t, ended[1], "error")
	require.Equal(t, uint64(2), ended[1]["frame"])
}

func TestCapabilities(t *testing.T) {
	t.Run("Present: called once per frame after batches", func(t *testing.T) {
		backend := &presentingBackend{fakeBackend: &fakeBackend{}}
		m := NewManager(backend, nil, nil)
		require.NoError(t, m.Flush())
		require.NoError(t, m.Flush())
		require.Equal(t, 2, backend.presents)
	})

	t.Run("Resize: forwarded to capable backends", func(t *testing.T) {
		backend := &resizingBackend{fakeBackend: &fakeBackend{}}
		m := NewManager(backend, nil, nil)
		m.Resize(800, 600)
		require.Equal(t, 800, backend.width)
		require.Equal(t, 600, backend.height)
		w, h := m.Size()
		require.Equal(t, 800, w)
		require.Equal(t, 600, h)
	})

	t.Run("Resize: silently skipped otherwise", func(t *testing.T) {
		m := NewManager(&fakeBackend{}, nil, nil)
		m.Resize(100, 100) // must not panic
	})
}

func TestDispose(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(backend, nil, nil)
	require.NoError(t, m.Dispose())
	require.True(t, backend.disposed)
	require.NoError(t, m.Dispose()) // idempotent

	err := m.Flush()
	require.ErrorIs(t, err, fault.ErrRendererDisposed)
}

func TestRegistry(t *testing.T) {
	t.Run("NewRenderer: noop always available", func(t *testing.T) {
		r, err := NewRenderer("noop")
		require.NoError(t, err)
		require.NoError(t, r.Init("anything"))
		require.NoError(t, r.Flush([]Command{Sprite{}}))
	})

	t.Run("NewRenderer: unknown name", func(t *testing.T) {
		_, err := NewRenderer("vulkan")
		require.ErrorIs(t, err, fault.ErrRendererNotFound)
	})

	t.Run("RegisterRenderer: registered name resolves", func(t *testing.T) {
		backend := &fakeBackend{}
		RegisterRenderer("fake", func() Renderer { return backend })
		r, err := NewRenderer("fake")
		require.NoError(t, err)
		require.Same(t, Renderer(backend), r)
		require.Contains(t, RendererNames(), "fake")
	})
}
