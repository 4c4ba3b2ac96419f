package render

// Engine events published by the Manager around every flush.
const (
	EventFrameStart = "render.frame.start"
	EventFrameEnd   = "render.frame.end"
)

// Z tiers give gameplay code stable bands to draw into. Within a band,
// commands with equal z keep their submission order.
const (
	ZBackground = 0
	ZScene      = 100
	ZActor      = 200
	ZEffect     = 400
	ZUI         = 1000
	ZOverlay    = 2000
)

// Kind discriminates render command payloads.
type Kind uint8

const (
	KindClear Kind = iota
	KindSprite
	KindText
	KindRect
	KindHotspot
)

func (k Kind) String() string {
	switch k {
	case KindClear:
		return "clear"
	case KindSprite:
		return "sprite"
	case KindText:
		return "text"
	case KindRect:
		return "rect"
	case KindHotspot:
		return "hotspot"
	default:
		return "unknown"
	}
}

// Command is one drawing instruction. Commands are pure data: gameplay code
// pushes them each frame (or once, for retained backends) and never touches
// the display directly.
//
// CommandID identifies the logical element across frames; retained backends
// key their persistent nodes on it. ZIndex orders drawing, ascending.
type Command interface {
	CommandID() string
	ZIndex() int
	Kind() Kind
}

// Renderer is a display backend. The Manager owns exactly one and feeds it
// sorted batches; backends never reorder what they are given.
//
// Init binds the backend to a host target (a DOM mount point id, a canvas id,
// a window handle; the backend decides what the string means). Clear wipes
// the output. Flush draws one batch in order. Dispose releases the target.
type Renderer interface {
	Init(target string) error
	Clear() error
	Flush(commands []Command) error
	Dispose() error
}

// Resizer is an optional Renderer capability. Backends that can adapt to a
// new output size implement it; the Manager forwards Resize calls to them
// and silently skips backends that don't.
type Resizer interface {
	Resize(width, height int)
}
