// pkg/physics/resolve.go
package physics

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedShapePair is returned when the resolver has no formula for a
// pair of shapes.
var ErrUnsupportedShapePair = errors.New("unsupported shape pair")

// defaultAxis separates exactly coincident circles and is the fallback
// direction for degenerate closest-point queries.
var defaultAxis = Vector2D{X: 0, Y: 1}

type (
	intersectFunc   func(a, b Shape) bool
	penetrationFunc func(a, b Shape) Vector2D
)

// Both tables are indexed [a.Kind()][b.Kind()]. Entries below the diagonal
// reuse the mirrored formula.
var intersectTable = [kindCount][kindCount]intersectFunc{
	KindCircle: {
		KindCircle:   intersectCircleCircle,
		KindRect:     intersectCircleRect,
		KindOriented: intersectCircleOriented,
	},
	KindRect: {
		KindCircle:   flipIntersect(intersectCircleRect),
		KindRect:     intersectRectRect,
		KindOriented: intersectRectOriented,
	},
	KindOriented: {
		KindCircle:   flipIntersect(intersectCircleOriented),
		KindRect:     flipIntersect(intersectRectOriented),
		KindOriented: intersectOrientedOriented,
	},
}

var penetrationTable = [kindCount][kindCount]penetrationFunc{
	KindCircle: {
		KindCircle:   penetrateCircleCircle,
		KindRect:     penetrateCircleRect,
		KindOriented: penetrateCircleOriented,
	},
	KindRect: {
		KindCircle:   flipPenetration(penetrateCircleRect),
		KindRect:     penetrateRectRect,
		KindOriented: penetrateRectOriented,
	},
	KindOriented: {
		KindCircle:   flipPenetration(penetrateCircleOriented),
		KindRect:     flipPenetration(penetrateRectOriented),
		KindOriented: penetrateOrientedOriented,
	},
}

func flipIntersect(fn intersectFunc) intersectFunc {
	return func(a, b Shape) bool { return fn(b, a) }
}

func flipPenetration(fn penetrationFunc) penetrationFunc {
	return func(a, b Shape) Vector2D { return fn(b, a).Neg() }
}

func intersectCircleCircle(a, b Shape) bool { return circleCircleIntersects(a.(Circle), b.(Circle)) }
func intersectCircleRect(a, b Shape) bool   { return circleRectIntersects(a.(Circle), b.(Rect)) }
func intersectCircleOriented(a, b Shape) bool {
	return circleOrientedIntersects(a.(Circle), b.(OrientedRect))
}
func intersectRectRect(a, b Shape) bool { return rectRectIntersects(a.(Rect), b.(Rect)) }
func intersectRectOriented(a, b Shape) bool {
	return boxesIntersect(OrientedFromRect(a.(Rect)), b.(OrientedRect))
}
func intersectOrientedOriented(a, b Shape) bool {
	return boxesIntersect(a.(OrientedRect), b.(OrientedRect))
}

func penetrateCircleCircle(a, b Shape) Vector2D {
	return circleCirclePenetration(a.(Circle), b.(Circle))
}
func penetrateCircleRect(a, b Shape) Vector2D { return circleRectPenetration(a.(Circle), b.(Rect)) }
func penetrateCircleOriented(a, b Shape) Vector2D {
	return circleOrientedPenetration(a.(Circle), b.(OrientedRect))
}
func penetrateRectRect(a, b Shape) Vector2D { return rectRectPenetration(a.(Rect), b.(Rect)) }
func penetrateRectOriented(a, b Shape) Vector2D {
	return boxesPenetration(OrientedFromRect(a.(Rect)), b.(OrientedRect))
}
func penetrateOrientedOriented(a, b Shape) Vector2D {
	return boxesPenetration(a.(OrientedRect), b.(OrientedRect))
}

// canonical unwraps pointer shapes and rejects anything outside the closed
// set, such as structs that embed one of the shapes.
func canonical(s Shape) (Shape, bool) {
	switch v := s.(type) {
	case Circle, Rect, OrientedRect:
		return v, true
	case *Circle:
		if v != nil {
			return *v, true
		}
	case *Rect:
		if v != nil {
			return *v, true
		}
	case *OrientedRect:
		if v != nil {
			return *v, true
		}
	}
	return nil, false
}

func lookup(a, b Shape) (Shape, Shape, error) {
	ca, okA := canonical(a)
	cb, okB := canonical(b)
	if !okA || !okB {
		return nil, nil, fmt.Errorf("%w: %T and %T", ErrUnsupportedShapePair, a, b)
	}
	if ca.Kind() >= kindCount || cb.Kind() >= kindCount {
		return nil, nil, fmt.Errorf("%w: %s and %s", ErrUnsupportedShapePair, ca.Kind(), cb.Kind())
	}
	return ca, cb, nil
}

// Intersects reports whether two shapes overlap. Touching shapes do not
// intersect. Unsupported pairs never intersect.
func Intersects(a, b Shape) bool {
	ca, cb, err := lookup(a, b)
	if err != nil {
		return false
	}
	fn := intersectTable[ca.Kind()][cb.Kind()]
	if fn == nil {
		return false
	}
	return fn(ca, cb)
}

// PenetrationVector returns the vector p such that moving a by -p separates
// it from b. It points from a's position into b and is only meaningful
// when a intersects b; otherwise the zero vector is returned. Swapping the
// arguments negates the result.
func PenetrationVector(a, b Shape) (Vector2D, error) {
	ca, cb, err := lookup(a, b)
	if err != nil {
		return Vector2D{}, err
	}
	test := intersectTable[ca.Kind()][cb.Kind()]
	resolve := penetrationTable[ca.Kind()][cb.Kind()]
	if test == nil || resolve == nil {
		return Vector2D{}, fmt.Errorf("%w: %s and %s", ErrUnsupportedShapePair, ca.Kind(), cb.Kind())
	}
	if !test(ca, cb) {
		return Vector2D{}, nil
	}
	if ca.Kind() == cb.Kind() && !inOrder(ca, cb) {
		return resolve(cb, ca).Neg(), nil
	}
	return resolve(ca, cb), nil
}

// inOrder orders two shapes of the same kind by centre and then by size.
// Same-kind pairs are always resolved in this order so that ties between
// centres pick one axis for both argument orders.
func inOrder(a, b Shape) bool {
	ka, kb := orderKey(a), orderKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return true
}

func orderKey(s Shape) [5]float64 {
	switch v := s.(type) {
	case Circle:
		return [5]float64{v.Center.X, v.Center.Y, v.radius()}
	case Rect:
		return [5]float64{v.Center.X, v.Center.Y, v.Width, v.Height}
	case OrientedRect:
		return [5]float64{v.Center.X, v.Center.Y, v.HalfExtents.X, v.HalfExtents.Y, v.Rotation}
	}
	return [5]float64{}
}

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided bool
	// Vector is the penetration vector, see PenetrationVector.
	Vector Vector2D
	// Normal is the unit direction a must move to separate.
	Normal      Vector2D
	Penetration float64
}

// CheckCollision tests a against b and resolves the penetration in one call
func CheckCollision(a, b Shape) (CollisionResult, error) {
	ca, cb, err := lookup(a, b)
	if err != nil {
		return CollisionResult{}, err
	}
	if !Intersects(ca, cb) {
		return CollisionResult{}, nil
	}
	p, err := PenetrationVector(ca, cb)
	if err != nil {
		return CollisionResult{}, err
	}
	return CollisionResult{
		Collided:    true,
		Vector:      p,
		Normal:      p.Neg().Normalize(),
		Penetration: p.Length(),
	}, nil
}

func circleCircleIntersects(a, b Circle) bool {
	r := a.radius() + b.radius()
	return a.Center.Sub(b.Center).LengthSquared() < r*r
}

func circleCirclePenetration(a, b Circle) Vector2D {
	d := a.Center.Sub(b.Center)
	n := defaultAxis
	if !d.IsZero() {
		n = d.Normalize()
	}
	return d.Sub(n.Scale(a.radius() + b.radius()))
}

func circleRectIntersects(c Circle, r Rect) bool {
	if r.ContainsPoint(c.Center) {
		return true
	}
	rad := c.radius()
	return c.Center.Sub(r.Clamp(c.Center)).LengthSquared() < rad*rad
}

func circleRectPenetration(c Circle, r Rect) Vector2D {
	rad := c.radius()
	if r.Contains(c.Center) {
		min, max := r.Min(), r.Max()
		mx := nearerPush((min.X-rad)-c.Center.X, (max.X+rad)-c.Center.X)
		my := nearerPush((min.Y-rad)-c.Center.Y, (max.Y+rad)-c.Center.Y)
		if math.Abs(mx) <= math.Abs(my) {
			return Vector2D{X: -mx}
		}
		return Vector2D{Y: -my}
	}
	dir := c.Center.Sub(r.Clamp(c.Center))
	return dir.Sub(dir.Normalize().Scale(rad))
}

// nearerPush picks the smaller of a negative and a positive displacement,
// preferring the negative one on ties.
func nearerPush(neg, pos float64) float64 {
	if -neg <= pos {
		return neg
	}
	return pos
}

func circleOrientedIntersects(c Circle, o OrientedRect) bool {
	local := Circle{Center: o.ToLocal(c.Center), Radius: c.radius()}
	return circleRectIntersects(local, o.LocalRect())
}

func circleOrientedPenetration(c Circle, o OrientedRect) Vector2D {
	local := Circle{Center: o.ToLocal(c.Center), Radius: c.radius()}
	return circleRectPenetration(local, o.LocalRect()).Rotate(o.Rotation)
}

func rectRectIntersects(a, b Rect) bool {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	return amin.X < bmax.X && bmin.X < amax.X && amin.Y < bmax.Y && bmin.Y < amax.Y
}

func rectRectPenetration(a, b Rect) Vector2D {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	mx := axisPush(a.Center.X, b.Center.X, amax.X-bmin.X, bmax.X-amin.X)
	my := axisPush(a.Center.Y, b.Center.Y, amax.Y-bmin.Y, bmax.Y-amin.Y)
	if math.Abs(mx) <= math.Abs(my) {
		return Vector2D{X: -mx}
	}
	return Vector2D{Y: -my}
}

// axisPush returns how far a must move along one axis to clear b, choosing
// the side by comparing centers.
func axisPush(ac, bc, towardNeg, towardPos float64) float64 {
	switch {
	case ac < bc:
		return -towardNeg
	case ac > bc:
		return towardPos
	default:
		return nearerPush(-towardNeg, towardPos)
	}
}
