package canvas

import (
	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/render"
)

// Renderer implements render.Renderer and render.Resizer over a Surface.
type Renderer struct {
	log     log.Log
	surface Surface
}

var (
	_ render.Renderer = (*Renderer)(nil)
	_ render.Resizer  = (*Renderer)(nil)
)

func New(surface Surface, logger log.Log) *Renderer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Renderer{log: logger, surface: surface}
}

func (r *Renderer) Init(target string) error {
	if r.surface == nil {
		return fault.New(fault.CodeRendererInitFailed, "no surface attached", fault.ErrRendererInitFailed)
	}
	return r.surface.Bind(target)
}

func (r *Renderer) Clear() error {
	r.surface.Clear()
	return nil
}

// Flush paints the batch in order. Each command runs inside its own
// Save/Restore pair. Hotspots are invisible and skipped; immediate targets
// have no elements to hit-test, so hosts track interactive regions from the
// command stream instead.
func (r *Renderer) Flush(commands []render.Command) error {
	for _, cmd := range commands {
		switch c := cmd.(type) {
		case render.Sprite:
			r.surface.Save()
			r.surface.DrawImage(c.Image, c.X, c.Y, c.Width, c.Height, c.Opacity, c.FlipX, c.FlipY)
			r.surface.Restore()
		case render.Text:
			r.surface.Save()
			r.surface.FillText(c.Content, c.X, c.Y, c.Font, c.Align, c.Color)
			r.surface.Restore()
		case render.Rect:
			r.surface.Save()
			if c.Fill != "" {
				r.surface.FillRect(c.X, c.Y, c.Width, c.Height, c.Fill)
			}
			if c.Stroke != "" {
				r.surface.StrokeRect(c.X, c.Y, c.Width, c.Height, c.Stroke, c.StrokeWidth)
			}
			r.surface.Restore()
		case render.Hotspot:
			// invisible by contract
		default:
			r.log.Warn("skipping unknown command kind",
				log.String("kind", cmd.Kind().String()), log.String("id", cmd.CommandID()))
		}
	}
	return nil
}

func (r *Renderer) Resize(width, height int) {
	r.surface.SetSize(width, height)
}

func (r *Renderer) Dispose() error {
	return r.surface.Release()
}
