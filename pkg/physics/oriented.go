// pkg/physics/oriented.go
package physics

import "math"

// OrientedRect is a rectangle rotated about its center. HalfExtents are the
// radii along the rectangle's local X and Y axes; Rotation is in radians.
type OrientedRect struct {
	Center      Vector2D
	HalfExtents Vector2D
	Rotation    float64
}

// NewOrientedRect creates an oriented rectangle, clamping negative extents
func NewOrientedRect(center, halfExtents Vector2D, rotation float64) OrientedRect {
	return OrientedRect{
		Center:      center,
		HalfExtents: Vector2D{X: nonNegative(halfExtents.X), Y: nonNegative(halfExtents.Y)},
		Rotation:    rotation,
	}
}

// OrientedFromRect converts an axis-aligned rectangle to an oriented one with
// no rotation.
func OrientedFromRect(r Rect) OrientedRect {
	return OrientedRect{Center: r.Center, HalfExtents: r.HalfExtents()}
}

func (o OrientedRect) sealed() {}

// Kind implements Shape
func (o OrientedRect) Kind() Kind { return KindOriented }

// Position returns the rectangle's center
func (o OrientedRect) Position() Vector2D { return o.Center }

func (o OrientedRect) extents() Vector2D {
	return Vector2D{X: nonNegative(o.HalfExtents.X), Y: nonNegative(o.HalfExtents.Y)}
}

// Axes returns the rectangle's local X and Y axes in world space
func (o OrientedRect) Axes() (Vector2D, Vector2D) {
	sin, cos := math.Sincos(o.Rotation)
	return Vector2D{X: cos, Y: sin}, Vector2D{X: -sin, Y: cos}
}

// ToLocal maps a world point into the rectangle's frame, where it is an
// axis-aligned rectangle centered on the origin.
func (o OrientedRect) ToLocal(p Vector2D) Vector2D {
	return p.Sub(o.Center).Rotate(-o.Rotation)
}

// ToWorld maps a point from the rectangle's frame back to world space
func (o OrientedRect) ToWorld(p Vector2D) Vector2D {
	return p.Rotate(o.Rotation).Add(o.Center)
}

// LocalRect returns the rectangle as seen in its own frame
func (o OrientedRect) LocalRect() Rect {
	e := o.extents()
	return Rect{Width: 2 * e.X, Height: 2 * e.Y}
}

// Corners returns the four corners in world space
func (o OrientedRect) Corners() [4]Vector2D {
	local := o.LocalRect().Corners()
	var out [4]Vector2D
	for i, c := range local {
		out[i] = o.ToWorld(c)
	}
	return out
}

// Bounds returns the axis-aligned box enclosing the rotated rectangle
func (o OrientedRect) Bounds() Rect {
	ux, uy := o.Axes()
	e := o.extents()
	w := math.Abs(ux.X)*e.X + math.Abs(uy.X)*e.Y
	h := math.Abs(ux.Y)*e.X + math.Abs(uy.Y)*e.Y
	return Rect{Center: o.Center, Width: 2 * w, Height: 2 * h}
}

// ContainsPoint reports whether p lies strictly inside the rectangle
func (o OrientedRect) ContainsPoint(p Vector2D) bool {
	return o.LocalRect().ContainsPoint(o.ToLocal(p))
}

// ClosestPoint returns the point on the rectangle's edge nearest to p
func (o OrientedRect) ClosestPoint(p Vector2D) Vector2D {
	return o.ToWorld(o.LocalRect().ClosestPoint(o.ToLocal(p)))
}

// Intersects reports whether the rectangle overlaps other
func (o OrientedRect) Intersects(other Shape) bool {
	return Intersects(o, other)
}

// Translate implements Shape
func (o OrientedRect) Translate(d Vector2D) Shape {
	o.Center = o.Center.Add(d)
	return o
}
