// Package domtree is the retained-mode render backend. It keeps one
// persistent host element per command ID and mutates attributes across
// frames instead of repainting, which is the cheap path for element-tree
// display systems (a browser DOM, a scene graph, a terminal widget tree).
package domtree

// Handle is whatever the host uses to identify one of its elements. The
// backend never inspects it.
type Handle any

// ElementOps is the host-side element tree. The backend drives it; the host
// implements it over its real display system. Implementations are called
// only from the game loop goroutine.
type ElementOps interface {
	// Mount binds the element tree to a host target (for a browser host,
	// the id of the container element).
	Mount(target string) error
	// CreateNode makes an empty element of the given kind ("sprite",
	// "text", "rect", "hotspot") and returns the host's handle for it.
	CreateNode(kind string) (Handle, error)
	// SetAttrs applies the full attribute set for a node. Keys are
	// command-field names; values are strings, numbers and bools, except
	// "data" on hotspot nodes which is a map.
	SetAttrs(h Handle, attrs map[string]any) error
	// SetZ sets the stacking position of a node.
	SetZ(h Handle, z int) error
	// Remove deletes a node from the tree.
	Remove(h Handle) error
	// Clear removes every node the backend created.
	Clear() error
	// Unmount releases the target binding.
	Unmount() error
}
