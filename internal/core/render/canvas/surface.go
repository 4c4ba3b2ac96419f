// Package canvas is the immediate-mode render backend. Every flush repaints
// its whole batch through a Surface; nothing persists between frames, which
// matches bitmap targets (a 2D canvas context, a framebuffer, a software
// rasterizer).
package canvas

// Surface is the host-side paint target. Draw calls carry no return value:
// a 2D paint surface has no per-call failure mode, and a lost target shows
// up on the next Bind. Implementations are called only from the game loop
// goroutine.
type Surface interface {
	// Bind attaches the surface to a host target (for a browser host, the
	// id of the canvas element).
	Bind(target string) error
	// SetSize resizes the backing store.
	SetSize(width, height int)
	// Save pushes the paint state; Restore pops it. The backend brackets
	// every command with the pair so paint state never leaks between
	// commands.
	Save()
	Restore()
	// Clear wipes the whole surface.
	Clear()

	DrawImage(image string, x, y, width, height, opacity float64, flipX, flipY bool)
	FillText(content string, x, y float64, font, align, color string)
	FillRect(x, y, width, height float64, fill string)
	StrokeRect(x, y, width, height float64, stroke string, strokeWidth float64)

	// Release detaches from the target.
	Release() error
}
