package domtree

import (
	"errors"
	"fmt"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/observability/log"
	"github.com/footlight/footlight/internal/core/render"
)

type node struct {
	handle Handle
	kind   render.Kind
	z      int
	attrs  map[string]any
}

// Renderer implements render.Renderer and render.Presenter over an
// ElementOps tree. Nodes persist across frames keyed by command ID; a
// command that stops being submitted has its node removed at Present.
type Renderer struct {
	log   log.Log
	ops   ElementOps
	nodes map[string]*node
	seen  map[string]struct{}
}

var (
	_ render.Renderer  = (*Renderer)(nil)
	_ render.Presenter = (*Renderer)(nil)
)

func New(ops ElementOps, logger log.Log) *Renderer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Renderer{
		log:   logger,
		ops:   ops,
		nodes: make(map[string]*node),
		seen:  make(map[string]struct{}),
	}
}

func (r *Renderer) Init(target string) error {
	if r.ops == nil {
		return fault.New(fault.CodeRendererInitFailed, "no element tree attached", fault.ErrRendererInitFailed)
	}
	return r.ops.Mount(target)
}

// Clear drops every persistent node. The next flush rebuilds from scratch.
func (r *Renderer) Clear() error {
	r.nodes = make(map[string]*node)
	r.seen = make(map[string]struct{})
	return r.ops.Clear()
}

// Flush reconciles one batch against the persistent tree: create missing
// nodes, update changed ones, leave identical ones untouched. Removal of
// nodes that were not submitted this frame happens in Present, after both
// batches of the frame have run.
func (r *Renderer) Flush(commands []render.Command) error {
	for _, cmd := range commands {
		id := cmd.CommandID()
		if id == "" {
			r.log.Warn("retained node needs a command id", log.String("kind", cmd.Kind().String()))
			continue
		}
		attrs, ok := attrsFor(cmd)
		if !ok {
			r.log.Warn("skipping unknown command kind", log.String("kind", cmd.Kind().String()), log.String("id", id))
			continue
		}
		r.seen[id] = struct{}{}

		existing, found := r.nodes[id]
		if !found {
			handle, err := r.ops.CreateNode(cmd.Kind().String())
			if err != nil {
				return fmt.Errorf("creating node %q: %w", id, err)
			}
			existing = &node{handle: handle, kind: cmd.Kind()}
			r.nodes[id] = existing
		} else if existing.kind != cmd.Kind() {
			// same id reused with a different kind: rebuild the node
			if err := r.ops.Remove(existing.handle); err != nil {
				return fmt.Errorf("replacing node %q: %w", id, err)
			}
			handle, err := r.ops.CreateNode(cmd.Kind().String())
			if err != nil {
				return fmt.Errorf("replacing node %q: %w", id, err)
			}
			existing.handle = handle
			existing.kind = cmd.Kind()
			existing.attrs = nil
			existing.z = 0
		}

		// hotspot payloads carry arbitrary maps, so they skip the diff
		if existing.attrs == nil || cmd.Kind() == render.KindHotspot || !attrsEqual(existing.attrs, attrs) {
			if err := r.ops.SetAttrs(existing.handle, attrs); err != nil {
				return fmt.Errorf("updating node %q: %w", id, err)
			}
			existing.attrs = attrs
		}
		if !found || existing.z != cmd.ZIndex() {
			if err := r.ops.SetZ(existing.handle, cmd.ZIndex()); err != nil {
				return fmt.Errorf("restacking node %q: %w", id, err)
			}
			existing.z = cmd.ZIndex()
		}
	}
	return nil
}

// Present removes nodes that no command claimed this frame.
func (r *Renderer) Present() error {
	var all error
	for id, n := range r.nodes {
		if _, ok := r.seen[id]; ok {
			continue
		}
		if err := r.ops.Remove(n.handle); err != nil {
			all = errors.Join(all, fmt.Errorf("removing node %q: %w", id, err))
		}
		delete(r.nodes, id)
	}
	clear(r.seen)
	return all
}

func (r *Renderer) Dispose() error {
	r.nodes = make(map[string]*node)
	r.seen = make(map[string]struct{})
	if err := r.ops.Clear(); err != nil {
		return err
	}
	return r.ops.Unmount()
}

// NodeCount reports the persistent node count, for hosts that display debug
// overlays.
func (r *Renderer) NodeCount() int { return len(r.nodes) }

func attrsFor(cmd render.Command) (map[string]any, bool) {
	switch c := cmd.(type) {
	case render.Sprite:
		return map[string]any{
			"x": c.X, "y": c.Y, "width": c.Width, "height": c.Height,
			"image": c.Image, "opacity": c.Opacity, "flipX": c.FlipX, "flipY": c.FlipY,
		}, true
	case render.Text:
		return map[string]any{
			"x": c.X, "y": c.Y, "content": c.Content,
			"font": c.Font, "align": c.Align, "color": c.Color,
		}, true
	case render.Rect:
		return map[string]any{
			"x": c.X, "y": c.Y, "width": c.Width, "height": c.Height,
			"fill": c.Fill, "stroke": c.Stroke, "strokeWidth": c.StrokeWidth,
		}, true
	case render.Hotspot:
		return map[string]any{
			"x": c.X, "y": c.Y, "width": c.Width, "height": c.Height,
			"cursor": c.Cursor, "data": c.Data,
		}, true
	default:
		return nil, false
	}
}

// attrsEqual compares attribute maps. Hotspot maps never reach it, so all
// values are comparable.
func attrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
