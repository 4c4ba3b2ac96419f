package canvas

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/footlight/footlight/internal/core/render"
)

type fakeSurface struct {
	bound    string
	released bool
	width    int
	height   int
	calls    []string
}

func (f *fakeSurface) Bind(target string) error {
	f.bound = target
	return nil
}

func (f *fakeSurface) SetSize(width, height int) {
	f.width, f.height = width, height
}

func (f *fakeSurface) Save()    { f.calls = append(f.calls, "save") }
func (f *fakeSurface) Restore() { f.calls = append(f.calls, "restore") }
func (f *fakeSurface) Clear()   { f.calls = append(f.calls, "clear") }

func (f *fakeSurface) DrawImage(image string, x, y, w, h, opacity float64, flipX, flipY bool) {
	f.calls = append(f.calls, fmt.Sprintf("image:%s@%.0f,%.0f", image, x, y))
}

func (f *fakeSurface) FillText(content string, x, y float64, font, align, color string) {
	f.calls = append(f.calls, "text:"+content)
}

func (f *fakeSurface) FillRect(x, y, w, h float64, fill string) {
	f.calls = append(f.calls, "fill:"+fill)
}

func (f *fakeSurface) StrokeRect(x, y, w, h float64, stroke string, sw float64) {
	f.calls = append(f.calls, "stroke:"+stroke)
}

func (f *fakeSurface) Release() error {
	f.released = true
	return nil
}

type oddCommand struct{ render.Base }

func (oddCommand) Kind() render.Kind { return render.Kind(42) }

func TestImmediatePainting(t *testing.T) {
	t.Run("Flush: every command bracketed by save/restore", func(t *testing.T) {
		surface := &fakeSurface{}
		r := New(surface, nil)
		require.NoError(t, r.Init("viewport"))
		require.Equal(t, "viewport", surface.bound)

		batch := []render.Command{
			render.Sprite{Base: render.Base{ID: "hero"}, Image: "hero.png", X: 5, Y: 10},
			render.Text{Base: render.Base{ID: "label"}, Content: "hello"},
			render.Rect{Base: render.Base{ID: "panel"}, Fill: "#222", Stroke: "#fff", StrokeWidth: 2},
		}
		require.NoError(t, r.Flush(batch))
		require.Equal(t, []string{
			"save", "image:hero.png@5,10", "restore",
			"save", "text:hello", "restore",
			"save", "fill:#222", "stroke:#fff", "restore",
		}, surface.calls)
	})

	t.Run("Flush: repaints everything every time", func(t *testing.T) {
		surface := &fakeSurface{}
		r := New(surface, nil)
		batch := []render.Command{render.Sprite{Base: render.Base{ID: "hero"}, Image: "hero.png"}}

		require.NoError(t, r.Flush(batch))
		require.NoError(t, r.Flush(batch))
		require.Len(t, surface.calls, 6, "identical batches still repaint")
	})

	t.Run("Flush: hotspot is a no-op", func(t *testing.T) {
		surface := &fakeSurface{}
		r := New(surface, nil)
		require.NoError(t, r.Flush([]render.Command{
			render.Hotspot{Base: render.Base{ID: "door"}, Data: map[string]any{"action": "open"}},
		}))
		require.Empty(t, surface.calls)
	})

	t.Run("Flush: unknown kind skipped", func(t *testing.T) {
		surface := &fakeSurface{}
		r := New(surface, nil)
		require.NoError(t, r.Flush([]render.Command{oddCommand{render.Base{ID: "weird"}}}))
		require.Empty(t, surface.calls)
	})

	t.Run("Rect: empty fill or stroke paints nothing for that part", func(t *testing.T) {
		surface := &fakeSurface{}
		r := New(surface, nil)
		require.NoError(t, r.Flush([]render.Command{
			render.Rect{Base: render.Base{ID: "only-fill"}, Fill: "#000"},
		}))
		require.Equal(t, []string{"save", "fill:#000", "restore"}, surface.calls)
	})
}

func TestSurfaceLifecycle(t *testing.T) {
	surface := &fakeSurface{}
	r := New(surface, nil)

	require.NoError(t, r.Clear())
	require.Equal(t, []string{"clear"}, surface.calls)

	r.Resize(320, 240)
	require.Equal(t, 320, surface.width)
	require.Equal(t, 240, surface.height)

	require.NoError(t, r.Dispose())
	require.True(t, surface.released)
}

func TestInitWithoutSurface(t *testing.T) {
	r := New(nil, nil)
	require.Error(t, r.Init("viewport"))
}
