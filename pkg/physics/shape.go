// pkg/physics/shape.go
package physics

import "fmt"

// Kind identifies one of the closed set of shape variants.
type Kind uint8

// Shape kinds. kindCount sizes the dispatch tables in resolve.go.
const (
	KindCircle Kind = iota
	KindRect
	KindOriented
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindRect:
		return "rect"
	case KindOriented:
		return "oriented_rect"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Shape is a collision shape. The set of implementations is closed: only
// Circle, Rect and OrientedRect satisfy it.
type Shape interface {
	// Kind returns the variant tag used for narrow-phase dispatch.
	Kind() Kind
	// Bounds returns the smallest axis-aligned rectangle containing the shape.
	Bounds() Rect
	// Position returns the shape's reference point (its centre).
	Position() Vector2D
	// ContainsPoint reports whether p lies strictly inside the shape.
	ContainsPoint(p Vector2D) bool
	// ClosestPoint returns the point on the shape's boundary nearest to p.
	ClosestPoint(p Vector2D) Vector2D
	// Intersects reports whether the two shapes overlap.
	Intersects(other Shape) bool
	// Translate returns a copy of the shape moved by d.
	Translate(d Vector2D) Shape

	sealed()
}

func nonNegative(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
