// pkg/physics/sat.go
package physics

import "math"

// satAxes returns the edge normals of both boxes. Boxes only have two
// distinct normals each.
func satAxes(a, b OrientedRect) [4]Vector2D {
	ax, ay := a.Axes()
	bx, by := b.Axes()
	return [4]Vector2D{ax, ay, bx, by}
}

func project(corners [4]Vector2D, axis Vector2D) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		d := c.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// separation runs the separating axis test. It returns false as soon as an
// axis separates the boxes; otherwise it returns the displacement of minimum
// length that moves a clear of b.
func separation(a, b OrientedRect) (Vector2D, bool) {
	ca, cb := a.Corners(), b.Corners()
	best := math.Inf(1)
	var move Vector2D
	for _, axis := range satAxes(a, b) {
		alo, ahi := project(ca, axis)
		blo, bhi := project(cb, axis)
		towardNeg := ahi - blo
		towardPos := bhi - alo
		if towardNeg <= 0 || towardPos <= 0 {
			return Vector2D{}, false
		}
		depth, dir := towardNeg, axis.Neg()
		if towardPos < towardNeg {
			depth, dir = towardPos, axis
		}
		if depth < best {
			best = depth
			move = dir.Scale(depth)
		}
	}
	return move, true
}

func boxesIntersect(a, b OrientedRect) bool {
	_, hit := separation(a, b)
	return hit
}

func boxesPenetration(a, b OrientedRect) Vector2D {
	move, _ := separation(a, b)
	return move.Neg()
}
