// pkg/physics/circle.go
package physics

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// NewCircle creates a circle, clamping a negative radius to zero
func NewCircle(center Vector2D, radius float64) Circle {
	return Circle{Center: center, Radius: nonNegative(radius)}
}

func (c Circle) sealed() {}

// Kind implements Shape
func (c Circle) Kind() Kind { return KindCircle }

// Position returns the circle's center
func (c Circle) Position() Vector2D { return c.Center }

func (c Circle) radius() float64 { return nonNegative(c.Radius) }

// Bounds returns the square enclosing the circle
func (c Circle) Bounds() Rect {
	d := 2 * c.radius()
	return Rect{Center: c.Center, Width: d, Height: d}
}

// ContainsPoint reports whether p lies strictly inside the circle
func (c Circle) ContainsPoint(p Vector2D) bool {
	r := c.radius()
	return p.Sub(c.Center).LengthSquared() < r*r
}

// ClosestPoint returns the point on the circle's edge nearest to p. When p is
// the center the point straight along +Y is returned.
func (c Circle) ClosestPoint(p Vector2D) Vector2D {
	dir := p.Sub(c.Center)
	if dir.IsZero() {
		dir = defaultAxis
	}
	return c.Center.Add(dir.Normalize().Scale(c.radius()))
}

// Intersects reports whether the circle overlaps other
func (c Circle) Intersects(other Shape) bool {
	return Intersects(c, other)
}

// Translate implements Shape
func (c Circle) Translate(d Vector2D) Shape {
	c.Center = c.Center.Add(d)
	return c
}

// Collides checks if two circles are overlapping. Touching circles do not
// collide.
func (c Circle) Collides(other Circle) bool {
	return circleCircleIntersects(c, other)
}
