// Package spatial provides broad-phase indices that bucket items by their
// bounding rectangle. Items move freely between calls; Reset re-buckets them.
package spatial

import (
	"errors"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// Default tuning for QuadTree.
const (
	DefaultNodeCapacity = 8
	DefaultMaxDepth     = 6
	DefaultCellSize     = 32
)

// ErrNilItem is the panic value used when a nil item reaches an index.
var ErrNilItem = errors.New("spatial: nil item")

// BoundsFunc reads an item's current bounding rectangle.
type BoundsFunc[T comparable] func(item T) physics.Rect

// Index is a broad-phase structure. Query results are conservative: they may
// contain items that do not overlap the region, but never miss one whose
// bounds, as of the last Insert or Reset, overlap it.
type Index[T comparable] interface {
	// Insert adds item, returning false when it is already present.
	Insert(item T) bool
	// Remove deletes item, returning false when it was not present.
	Remove(item T) bool
	// Contains reports whether item is present.
	Contains(item T) bool
	// Query returns the items whose bounds overlap region.
	Query(region physics.Rect) []T
	// QueryPoint returns the items whose bounds contain p.
	QueryPoint(p physics.Vector2D) []T
	// Reset re-reads every item's bounds and relocates the ones that moved
	// out of their bucket. It returns the number of items whose bounds
	// changed since the previous Insert or Reset.
	Reset() int
	// Len returns the number of items stored.
	Len() int
	// Items returns every stored item.
	Items() []T
	// Clear removes all items.
	Clear()
}

// Kind names an Index implementation in configuration.
type Kind string

// Supported index kinds.
const (
	KindQuadTree Kind = "quadtree"
	KindGrid     Kind = "grid"
)

// Options configures New.
type Options struct {
	Kind         Kind
	NodeCapacity int
	MaxDepth     int
	CellSize     int
}

// New builds the index described by opts over boundary.
func New[T comparable](boundary physics.Rect, boundsOf BoundsFunc[T], opts Options) Index[T] {
	if opts.Kind == KindGrid {
		return NewGridIndex(boundary, opts.CellSize, boundsOf)
	}
	return NewQuadTree(boundary, opts.NodeCapacity, opts.MaxDepth, boundsOf)
}

func isZero[T comparable](item T) bool {
	var zero T
	return item == zero
}
