// pkg/physics/rect.go
package physics

import "math"

// Rect is an axis-aligned rectangle positioned by its center. It is both a
// collision shape and the bounding box type used by the spatial index.
type Rect struct {
	Center Vector2D
	Width  float64
	Height float64
}

// NewRect creates a rectangle, clamping negative sizes to zero
func NewRect(center Vector2D, width, height float64) Rect {
	return Rect{Center: center, Width: nonNegative(width), Height: nonNegative(height)}
}

// RectFromMinMax creates the rectangle spanning min to max. Swapped corners
// are reordered.
func RectFromMinMax(min, max Vector2D) Rect {
	if max.X < min.X {
		min.X, max.X = max.X, min.X
	}
	if max.Y < min.Y {
		min.Y, max.Y = max.Y, min.Y
	}
	return Rect{
		Center: Vector2D{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2},
		Width:  max.X - min.X,
		Height: max.Y - min.Y,
	}
}

// RectFromTopLeft creates a rectangle from its top-left corner and size
func RectFromTopLeft(x, y, width, height float64) Rect {
	width, height = nonNegative(width), nonNegative(height)
	return Rect{Center: Vector2D{X: x + width/2, Y: y + height/2}, Width: width, Height: height}
}

func (r Rect) sealed() {}

// Kind implements Shape
func (r Rect) Kind() Kind { return KindRect }

// Position returns the rectangle's center
func (r Rect) Position() Vector2D { return r.Center }

// HalfExtents returns half the width and height
func (r Rect) HalfExtents() Vector2D {
	return Vector2D{X: nonNegative(r.Width) / 2, Y: nonNegative(r.Height) / 2}
}

// Min returns the corner with the smallest coordinates
func (r Rect) Min() Vector2D {
	return r.Center.Sub(r.HalfExtents())
}

// Max returns the corner with the largest coordinates
func (r Rect) Max() Vector2D {
	return r.Center.Add(r.HalfExtents())
}

// Bounds returns the rectangle itself with sizes clamped
func (r Rect) Bounds() Rect {
	return NewRect(r.Center, r.Width, r.Height)
}

// ContainsPoint reports whether p lies strictly inside the rectangle
func (r Rect) ContainsPoint(p Vector2D) bool {
	min, max := r.Min(), r.Max()
	return p.X > min.X && p.X < max.X && p.Y > min.Y && p.Y < max.Y
}

// Contains reports whether p lies inside the rectangle, edges included
func (r Rect) Contains(p Vector2D) bool {
	min, max := r.Min(), r.Max()
	return p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y
}

// ContainsRect reports whether other lies entirely within r, edges included
func (r Rect) ContainsRect(other Rect) bool {
	min, max := r.Min(), r.Max()
	omin, omax := other.Min(), other.Max()
	return omin.X >= min.X && omax.X <= max.X && omin.Y >= min.Y && omax.Y <= max.Y
}

// Overlaps reports whether the two rectangles share any point, edges included.
// The spatial index uses this conservative test for queries.
func (r Rect) Overlaps(other Rect) bool {
	min, max := r.Min(), r.Max()
	omin, omax := other.Min(), other.Max()
	return min.X <= omax.X && omin.X <= max.X && min.Y <= omax.Y && omin.Y <= max.Y
}

// Intersection returns the overlapping region of two rectangles and whether
// they overlap at all.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	min, max := r.Min(), r.Max()
	omin, omax := other.Min(), other.Max()
	lo := Vector2D{X: math.Max(min.X, omin.X), Y: math.Max(min.Y, omin.Y)}
	hi := Vector2D{X: math.Min(max.X, omax.X), Y: math.Min(max.Y, omax.Y)}
	if lo.X > hi.X || lo.Y > hi.Y {
		return Rect{}, false
	}
	return RectFromMinMax(lo, hi), true
}

// Union returns the smallest rectangle containing both
func (r Rect) Union(other Rect) Rect {
	min, max := r.Min(), r.Max()
	omin, omax := other.Min(), other.Max()
	return RectFromMinMax(
		Vector2D{X: math.Min(min.X, omin.X), Y: math.Min(min.Y, omin.Y)},
		Vector2D{X: math.Max(max.X, omax.X), Y: math.Max(max.Y, omax.Y)},
	)
}

// Clamp returns the point inside the rectangle nearest to p
func (r Rect) Clamp(p Vector2D) Vector2D {
	min, max := r.Min(), r.Max()
	return Vector2D{
		X: math.Max(min.X, math.Min(p.X, max.X)),
		Y: math.Max(min.Y, math.Min(p.Y, max.Y)),
	}
}

// ClosestPoint returns the point on the rectangle's edge nearest to p.
// Interior points are projected onto the nearest edge, preferring the
// vertical edges on ties.
func (r Rect) ClosestPoint(p Vector2D) Vector2D {
	if !r.ContainsPoint(p) {
		return r.Clamp(p)
	}
	min, max := r.Min(), r.Max()
	left, right := p.X-min.X, max.X-p.X
	top, bottom := p.Y-min.Y, max.Y-p.Y

	edgeX, dx := min.X, left
	if right < left {
		edgeX, dx = max.X, right
	}
	edgeY, dy := min.Y, top
	if bottom < top {
		edgeY, dy = max.Y, bottom
	}
	if dx <= dy {
		return Vector2D{X: edgeX, Y: p.Y}
	}
	return Vector2D{X: p.X, Y: edgeY}
}

// Intersects reports whether the rectangle overlaps other
func (r Rect) Intersects(other Shape) bool {
	return Intersects(r, other)
}

// Translate implements Shape
func (r Rect) Translate(d Vector2D) Shape {
	r.Center = r.Center.Add(d)
	return r
}

// Corners returns the four corners in clockwise order starting at Min
func (r Rect) Corners() [4]Vector2D {
	min, max := r.Min(), r.Max()
	return [4]Vector2D{
		min,
		{X: max.X, Y: min.Y},
		max,
		{X: min.X, Y: max.Y},
	}
}

// Quadrant returns one quarter of the rectangle: 0 north-west, 1 north-east,
// 2 south-west, 3 south-east (north being -Y).
func (r Rect) Quadrant(i int) Rect {
	w, h := nonNegative(r.Width)/2, nonNegative(r.Height)/2
	offset := Vector2D{X: -w / 2, Y: -h / 2}
	if i == 1 || i == 3 {
		offset.X = w / 2
	}
	if i == 2 || i == 3 {
		offset.Y = h / 2
	}
	return Rect{Center: r.Center.Add(offset), Width: w, Height: h}
}
