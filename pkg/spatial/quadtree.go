// pkg/spatial/quadtree.go
package spatial

import "github.com/opd-ai/go-collide/pkg/physics"

// QuadTree is a region quadtree over item bounding rectangles. Each item is
// stored once, in the deepest node whose region fully contains its bounds;
// items straddling a split line stay in the common ancestor. Items whose
// bounds leave the root boundary are kept in the root, which every query
// scans, so they are still found at linear cost.
type QuadTree[T comparable] struct {
	root     *node[T]
	capacity int
	maxDepth int
	boundsOf BoundsFunc[T]
	entries  map[T]*entry[T]
}

type entry[T comparable] struct {
	node   *node[T]
	bounds physics.Rect
}

type node[T comparable] struct {
	boundary physics.Rect
	depth    int
	parent   *node[T]
	items    []T
	children *[4]*node[T]
}

// QuadTreeStats describes the current shape of a QuadTree.
type QuadTreeStats struct {
	Items    int
	Nodes    int
	MaxDepth int
}

// NewQuadTree creates a quadtree covering boundary. A node splits once it
// holds more than capacity items, down to maxDepth levels below the root.
// Non-positive values select DefaultNodeCapacity and DefaultMaxDepth.
func NewQuadTree[T comparable](boundary physics.Rect, capacity, maxDepth int, boundsOf BoundsFunc[T]) *QuadTree[T] {
	if capacity <= 0 {
		capacity = DefaultNodeCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &QuadTree[T]{
		root:     &node[T]{boundary: boundary.Bounds()},
		capacity: capacity,
		maxDepth: maxDepth,
		boundsOf: boundsOf,
		entries:  make(map[T]*entry[T]),
	}
}

// Boundary returns the region covered by the root node
func (qt *QuadTree[T]) Boundary() physics.Rect {
	return qt.root.boundary
}

// Insert adds item at the node that best fits its current bounds
func (qt *QuadTree[T]) Insert(item T) bool {
	if isZero(item) {
		panic(ErrNilItem)
	}
	if _, ok := qt.entries[item]; ok {
		return false
	}
	bounds := qt.boundsOf(item)
	n := qt.place(bounds)
	n.items = append(n.items, item)
	qt.entries[item] = &entry[T]{node: n, bounds: bounds}
	qt.split(n)
	return true
}

// Remove deletes item and collapses subtrees that became small enough
func (qt *QuadTree[T]) Remove(item T) bool {
	if isZero(item) {
		panic(ErrNilItem)
	}
	e, ok := qt.entries[item]
	if !ok {
		return false
	}
	e.node.drop(item)
	delete(qt.entries, item)
	qt.collapse(e.node)
	return true
}

// Contains reports whether item is stored
func (qt *QuadTree[T]) Contains(item T) bool {
	_, ok := qt.entries[item]
	return ok
}

// Len returns the number of stored items
func (qt *QuadTree[T]) Len() int {
	return len(qt.entries)
}

// Clear removes every item and all subdivisions
func (qt *QuadTree[T]) Clear() {
	qt.root = &node[T]{boundary: qt.root.boundary}
	qt.entries = make(map[T]*entry[T])
}

// Items returns all items in tree order
func (qt *QuadTree[T]) Items() []T {
	out := make([]T, 0, len(qt.entries))
	qt.root.walk(func(n *node[T]) {
		out = append(out, n.items...)
	})
	return out
}

// Query returns all items whose bounds overlap area
func (qt *QuadTree[T]) Query(area physics.Rect) []T {
	found := make([]T, 0)
	qt.query(qt.root, area, &found)
	return found
}

// QueryPoint returns all items whose bounds contain p, edges included
func (qt *QuadTree[T]) QueryPoint(p physics.Vector2D) []T {
	return qt.Query(physics.Rect{Center: p})
}

func (qt *QuadTree[T]) query(n *node[T], area physics.Rect, found *[]T) {
	for _, item := range n.items {
		if qt.entries[item].bounds.Overlaps(area) {
			*found = append(*found, item)
		}
	}
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		if child.boundary.Overlaps(area) {
			qt.query(child, area, found)
		}
	}
}

// Reset re-reads the bounds of every item and moves the ones that no longer
// belong to their node, either because they left it or because they now fit
// one of its children. It returns the number of items whose bounds changed.
func (qt *QuadTree[T]) Reset() int {
	moved := 0
	for _, item := range qt.Items() {
		e := qt.entries[item]
		bounds := qt.boundsOf(item)
		if bounds == e.bounds {
			continue
		}
		e.bounds = bounds
		moved++
		target := qt.place(bounds)
		if target == e.node {
			continue
		}
		old := e.node
		old.drop(item)
		target.items = append(target.items, item)
		e.node = target
		qt.split(target)
		qt.collapse(old)
	}
	return moved
}

// Stats reports the item count, node count and deepest level in use
func (qt *QuadTree[T]) Stats() QuadTreeStats {
	stats := QuadTreeStats{Items: len(qt.entries)}
	qt.root.walk(func(n *node[T]) {
		stats.Nodes++
		if n.depth > stats.MaxDepth {
			stats.MaxDepth = n.depth
		}
	})
	return stats
}

// place finds the deepest existing node whose region contains bounds.
func (qt *QuadTree[T]) place(bounds physics.Rect) *node[T] {
	n := qt.root
	if !n.boundary.ContainsRect(bounds) {
		return n
	}
	for n.children != nil {
		child := n.childFor(bounds)
		if child == nil {
			break
		}
		n = child
	}
	return n
}

// split subdivides n when it is over capacity and pushes down every item
// that fits a quadrant. Children that end up over capacity split in turn.
func (qt *QuadTree[T]) split(n *node[T]) {
	if n.children != nil || len(n.items) <= qt.capacity || n.depth >= qt.maxDepth {
		return
	}
	n.children = &[4]*node[T]{}
	for i := range n.children {
		n.children[i] = &node[T]{
			boundary: n.boundary.Quadrant(i),
			depth:    n.depth + 1,
			parent:   n,
		}
	}

	kept := make([]T, 0, len(n.items))
	for _, item := range n.items {
		e := qt.entries[item]
		child := n.childFor(e.bounds)
		if child == nil {
			kept = append(kept, item)
			continue
		}
		child.items = append(child.items, item)
		e.node = child
	}
	n.items = kept

	for _, child := range n.children {
		qt.split(child)
	}
}

// collapse walks up from n and folds any subtree holding no more than
// capacity items back into its root.
func (qt *QuadTree[T]) collapse(n *node[T]) {
	for ; n != nil; n = n.parent {
		if n.children == nil {
			continue
		}
		if n.count() > qt.capacity {
			return
		}
		for _, child := range n.children {
			child.walk(func(d *node[T]) {
				for _, item := range d.items {
					qt.entries[item].node = n
				}
				n.items = append(n.items, d.items...)
			})
		}
		n.children = nil
	}
}

func (n *node[T]) childFor(bounds physics.Rect) *node[T] {
	for _, child := range n.children {
		if child.boundary.ContainsRect(bounds) {
			return child
		}
	}
	return nil
}

func (n *node[T]) drop(item T) {
	for i, it := range n.items {
		if it == item {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

func (n *node[T]) count() int {
	total := 0
	n.walk(func(d *node[T]) { total += len(d.items) })
	return total
}

func (n *node[T]) walk(fn func(*node[T])) {
	fn(n)
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		child.walk(fn)
	}
}
