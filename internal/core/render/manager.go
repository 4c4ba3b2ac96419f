package render

import (
	"fmt"
	"sync"

	"github.com/footlight/footlight/internal/core/events/bus"
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/pkg/generic"
	"github.com/footlight/footlight/pkg/sequence"
)

// Presenter is an optional Renderer capability invoked once per frame after
// both batches are flushed. Retained backends use it to drop nodes that were
// not re-submitted this frame; double-buffered backends swap here.
type Presenter interface {
	Present() error
}

type queued struct {
	cmd Command
	seq uint64
}

var scratchPool = generic.NewPool(func() []queued { return make([]queued, 0, 64) })

// Manager buffers draw commands in two queues (scene below, UI above) and
// flushes them through the configured Renderer once per frame.
//
// Each queue is sorted ascending by z; commands with equal z keep submission
// order. Scene always dispatches before UI regardless of z values, so UI can
// never be painted under the scene. Queues are handed off at the start of
// Flush: a failing backend cannot leak this frame's commands into the next.
//
// Pushes are safe from any goroutine; Flush is meant to be called from the
// game loop goroutine and is not reentrant.
type Manager struct {
	log      log.Log
	bus      bus.EventBus
	renderer Renderer

	mu       sync.Mutex
	scene    []queued
	ui       []queued
	seq      uint64
	frame    uint64
	width    int
	height   int
	disposed bool
}

func NewManager(renderer Renderer, eventBus bus.EventBus, logger log.Log) *Manager {
	if renderer == nil {
		renderer = noopRenderer{}
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		log:      logger,
		bus:      eventBus,
		renderer: renderer,
		scene:    scratchPool.Get()[:0],
		ui:       scratchPool.Get()[:0],
	}
}

// Init binds the backend to its host target.
func (m *Manager) Init(target string) error {
	if err := m.renderer.Init(target); err != nil {
		return fault.New(fault.CodeRendererInitFailed,
			fmt.Sprintf("initializing renderer for target %q", target), err)
	}
	return nil
}

// PushScene queues a command on the scene layer.
func (m *Manager) PushScene(cmd Command) {
	m.push(&m.scene, cmd)
}

// PushUI queues a command on the UI layer.
func (m *Manager) PushUI(cmd Command) {
	m.push(&m.ui, cmd)
}

func (m *Manager) push(queue *[]queued, cmd Command) {
	if cmd == nil {
		m.log.Warn("dropping nil render command")
		return
	}
	m.mu.Lock()
	m.seq++
	*queue = append(*queue, queued{cmd: cmd, seq: m.seq})
	m.mu.Unlock()
}

// QueueLens reports the pending command counts (scene, ui).
func (m *Manager) QueueLens() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scene), len(m.ui)
}

// Frames reports how many flushes have run.
func (m *Manager) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Flush drains both queues through the backend: frame start event, one
// Clear() if any clear command was queued, the sorted scene batch, the
// sorted UI batch, Present for backends that have it, frame end event.
//
// The queues are already reset by the time the backend runs; commands never
// survive into the next frame, even when the backend fails.
func (m *Manager) Flush() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return fault.New(fault.CodeRendererDisposed, "flush after dispose", fault.ErrRendererDisposed)
	}
	scene := m.scene
	ui := m.ui
	m.scene = scratchPool.Get()[:0]
	m.ui = scratchPool.Get()[:0]
	m.frame++
	frame := m.frame
	m.mu.Unlock()

	defer func() {
		scratchPool.Put(scene[:0])
		scratchPool.Put(ui[:0])
	}()

	_ = m.bus.Publish(bus.NewEvent(EventFrameStart, "render", map[string]any{"frame": frame}, nil))

	total := 0
	var err error
	defer func() {
		data := map[string]any{"frame": frame, "commands": total}
		if err != nil {
			data["error"] = err.Error()
		}
		_ = m.bus.Publish(bus.NewEvent(EventFrameEnd, "render", data, nil))
	}()

	hasClear := false
	drawable := func(in []queued) []Command {
		it := sequence.From(in).
			Filter(func(q queued) bool {
				if q.cmd.Kind() == KindClear {
					hasClear = true
					return false
				}
				return true
			}).
			Sort(func(a, b queued) bool {
				if a.cmd.ZIndex() != b.cmd.ZIndex() {
					return a.cmd.ZIndex() < b.cmd.ZIndex()
				}
				return a.seq < b.seq
			})
		return sequence.ToArray(it, func(q queued) Command { return q.cmd })
	}
	sceneCmds := drawable(scene)
	uiCmds := drawable(ui)

	if hasClear {
		if clearErr := m.renderer.Clear(); clearErr != nil {
			err = fault.New(fault.CodeFrameDeliveryFailed,
				fmt.Sprintf("clearing frame %d", frame), clearErr)
			m.log.Error("frame clear failed", log.Uint64("frame", frame), log.Error(err))
			return err
		}
	}

	if flushErr := m.renderer.Flush(sceneCmds); flushErr != nil {
		err = fault.New(fault.CodeFrameDeliveryFailed,
			fmt.Sprintf("scene batch of frame %d", frame), flushErr)
		m.log.Error("scene batch failed", log.Uint64("frame", frame), log.Error(err))
		return err
	}
	total += len(sceneCmds)

	if flushErr := m.renderer.Flush(uiCmds); flushErr != nil {
		err = fault.New(fault.CodeFrameDeliveryFailed,
			fmt.Sprintf("ui batch of frame %d", frame), flushErr)
		m.log.Error("ui batch failed", log.Uint64("frame", frame), log.Error(err))
		return err
	}
	total += len(uiCmds)

	if presenter, ok := m.renderer.(Presenter); ok {
		if presentErr := presenter.Present(); presentErr != nil {
			err = fault.New(fault.CodeFrameDeliveryFailed,
				fmt.Sprintf("presenting frame %d", frame), presentErr)
			m.log.Error("present failed", log.Uint64("frame", frame), log.Error(err))
			return err
		}
	}

	return nil
}

// Resize forwards the new output size to backends that support it.
func (m *Manager) Resize(width, height int) {
	m.mu.Lock()
	m.width = width
	m.height = height
	m.mu.Unlock()

	if resizer, ok := m.renderer.(Resizer); ok {
		resizer.Resize(width, height)
		return
	}
	m.log.Debug("renderer does not resize", log.Int("width", width), log.Int("height", height))
}

// Size returns the last size passed to Resize.
func (m *Manager) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// Dispose releases the backend. Further Flush calls fail.
func (m *Manager) Dispose() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.disposed = true
	m.scene = m.scene[:0]
	m.ui = m.ui[:0]
	m.mu.Unlock()
	return m.renderer.Dispose()
}
