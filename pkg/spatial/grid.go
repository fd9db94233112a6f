// pkg/spatial/grid.go
package spatial

import (
	"math"

	"github.com/solarlune/resolv"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// GridIndex buckets items into the uniform cells of a resolv.Space. Items
// whose bounds are not entirely inside the grid are kept in an overflow list
// that every query scans.
type GridIndex[T comparable] struct {
	space    *resolv.Space
	extent   physics.Rect
	cellSize float64
	boundsOf BoundsFunc[T]
	entries  map[T]*gridEntry
	owners   map[*resolv.Object]T
	order    []T
}

type gridEntry struct {
	object  *resolv.Object
	bounds  physics.Rect
	inSpace bool
}

// NewGridIndex creates a grid covering boundary with square cells of
// cellSize world units. A non-positive cellSize selects DefaultCellSize.
func NewGridIndex[T comparable](boundary physics.Rect, cellSize int, boundsOf BoundsFunc[T]) *GridIndex[T] {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	boundary = boundary.Bounds()
	cols := int(math.Ceil(boundary.Width / float64(cellSize)))
	rows := int(math.Ceil(boundary.Height / float64(cellSize)))
	cols, rows = max(cols, 1), max(rows, 1)

	min := boundary.Min()
	extent := physics.RectFromTopLeft(min.X, min.Y, float64(cols*cellSize), float64(rows*cellSize))

	return &GridIndex[T]{
		space:    resolv.NewSpace(cols*cellSize, rows*cellSize, cellSize, cellSize),
		extent:   extent,
		cellSize: float64(cellSize),
		boundsOf: boundsOf,
		entries:  make(map[T]*gridEntry),
		owners:   make(map[*resolv.Object]T),
	}
}

// Extent returns the world region covered by grid cells
func (g *GridIndex[T]) Extent() physics.Rect {
	return g.extent
}

// Insert adds item to the cells its bounds touch
func (g *GridIndex[T]) Insert(item T) bool {
	if isZero(item) {
		panic(ErrNilItem)
	}
	if _, ok := g.entries[item]; ok {
		return false
	}
	bounds := g.boundsOf(item)
	e := &gridEntry{object: resolv.NewObject(0, 0, 0, 0), bounds: bounds}
	g.fit(e.object, bounds)
	g.entries[item] = e
	g.owners[e.object] = item
	g.order = append(g.order, item)
	if g.extent.ContainsRect(bounds) {
		g.space.Add(e.object)
		e.inSpace = true
	}
	return true
}

// Remove deletes item from the grid
func (g *GridIndex[T]) Remove(item T) bool {
	if isZero(item) {
		panic(ErrNilItem)
	}
	e, ok := g.entries[item]
	if !ok {
		return false
	}
	if e.inSpace {
		g.space.Remove(e.object)
	}
	delete(g.entries, item)
	delete(g.owners, e.object)
	for i, it := range g.order {
		if it == item {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether item is stored
func (g *GridIndex[T]) Contains(item T) bool {
	_, ok := g.entries[item]
	return ok
}

// Len returns the number of stored items
func (g *GridIndex[T]) Len() int {
	return len(g.entries)
}

// Items returns all items in insertion order
func (g *GridIndex[T]) Items() []T {
	out := make([]T, len(g.order))
	copy(out, g.order)
	return out
}

// Clear removes every item
func (g *GridIndex[T]) Clear() {
	for _, e := range g.entries {
		if e.inSpace {
			g.space.Remove(e.object)
		}
	}
	g.entries = make(map[T]*gridEntry)
	g.owners = make(map[*resolv.Object]T)
	g.order = nil
}

// Query returns the items whose bounds overlap area
func (g *GridIndex[T]) Query(area physics.Rect) []T {
	found := make([]T, 0)
	seen := make(map[T]struct{})

	// resolv registers objects by whole cells and trims a unit off the far
	// edge, so the query object is widened by one cell on every side.
	min := area.Min()
	x, y := g.toSpace(min)
	window := resolv.NewObject(x-g.cellSize, y-g.cellSize, area.Width+2*g.cellSize, area.Height+2*g.cellSize)
	g.space.Add(window)
	collision := window.Check(0, 0)
	g.space.Remove(window)

	if collision != nil {
		for _, obj := range collision.Objects {
			item, ok := g.owners[obj]
			if !ok {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			if g.entries[item].bounds.Overlaps(area) {
				found = append(found, item)
			}
		}
	}

	for _, item := range g.order {
		e := g.entries[item]
		if !e.inSpace && e.bounds.Overlaps(area) {
			found = append(found, item)
		}
	}
	return found
}

// QueryPoint returns the items whose bounds contain p, edges included
func (g *GridIndex[T]) QueryPoint(p physics.Vector2D) []T {
	return g.Query(physics.Rect{Center: p})
}

// Reset moves every item whose bounds changed to its new cells, or between
// the grid and the overflow list. It returns the number of items moved.
func (g *GridIndex[T]) Reset() int {
	moved := 0
	for _, item := range g.order {
		e := g.entries[item]
		bounds := g.boundsOf(item)
		if bounds == e.bounds {
			continue
		}
		e.bounds = bounds
		g.fit(e.object, bounds)

		inside := g.extent.ContainsRect(bounds)
		switch {
		case inside && e.inSpace:
			e.object.Update()
		case inside:
			g.space.Add(e.object)
		case e.inSpace:
			g.space.Remove(e.object)
		}
		e.inSpace = inside
		moved++
	}
	return moved
}

// fit sizes obj to bounds padded by one unit on each side. resolv computes
// the last covered cell from the far edge minus one, which would leave thin
// objects registered in no cell at all.
func (g *GridIndex[T]) fit(obj *resolv.Object, bounds physics.Rect) {
	obj.Position.X, obj.Position.Y = g.toSpace(bounds.Min())
	obj.Position.X--
	obj.Position.Y--
	obj.Size.X, obj.Size.Y = bounds.Width+2, bounds.Height+2
}

func (g *GridIndex[T]) toSpace(p physics.Vector2D) (float64, float64) {
	origin := g.extent.Min()
	return p.X - origin.X, p.Y - origin.Y
}
