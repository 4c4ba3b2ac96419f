package render

// Base carries the fields every command shares. Concrete commands embed it.
type Base struct {
	ID string
	Z  int
}

func (b Base) CommandID() string { return b.ID }
func (b Base) ZIndex() int       { return b.Z }

// Clear requests a full wipe of the output before any drawing. The Manager
// consumes Clear commands itself: the backend sees a single Clear() call,
// never the command.
type Clear struct {
	Base
}

func (Clear) Kind() Kind { return KindClear }

// Sprite draws an image asset at a position.
type Sprite struct {
	Base
	X, Y          float64
	Width, Height float64
	Image         string // asset key
	Opacity       float64
	FlipX, FlipY  bool
}

func (Sprite) Kind() Kind { return KindSprite }

// Text draws a text run.
type Text struct {
	Base
	X, Y    float64
	Content string
	Font    string
	Align   string // "left", "center", "right"
	Color   string
}

func (Text) Kind() Kind { return KindText }

// Rect draws a filled and/or stroked rectangle.
type Rect struct {
	Base
	X, Y          float64
	Width, Height float64
	Fill          string
	Stroke        string
	StrokeWidth   float64
}

func (Rect) Kind() Kind { return KindRect }

// Hotspot marks an interactive region. It is never drawn: immediate-mode
// backends skip it, retained backends materialize an invisible node so the
// host can hit-test against it. Data rides along to the host unchanged.
type Hotspot struct {
	Base
	X, Y          float64
	Width, Height float64
	Cursor        string
	Data          map[string]any
}

func (Hotspot) Kind() Kind { return KindHotspot }
