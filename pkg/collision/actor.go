// Package collision ties shapes, spatial indices and layers together into a
// World that finds and reports contacts once per frame.
//
// Actors move freely between frames. Each Update re-buckets every layer's
// index, walks the registered layer pairs to shortlist candidates, tests them
// exactly, and then calls OnCollision on both actors of every contact with
// opposite penetration vectors.
package collision

import (
	"fmt"
	"runtime"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// DefaultLayerName names the layer that always exists and collides with
// itself. Actors reporting an empty layer name belong to it.
const DefaultLayerName = "default"

// Actor is anything that takes part in collision detection. Implementations
// must be comparable, typically pointers; the World compares actors by
// identity and never copies or owns them.
type Actor interface {
	// GetBounds returns the actor's current shape. It is read at query time,
	// so the actor may move between frames without telling the World.
	GetBounds() physics.Shape
	// GetLayerName returns the layer the actor belongs to, or "" for the
	// default layer.
	GetLayerName() string
	// OnCollision is called once per contact per frame. Moving the actor by
	// -penetration separates it from other.
	OnCollision(other Actor, penetration physics.Vector2D) error
}

func layerNameOf(a Actor) string {
	if name := a.GetLayerName(); name != "" {
		return name
	}
	return DefaultLayerName
}

// checkedLayerName resolves a's layer and reads its bounds once. A nil
// interface, or a nil pointer whose methods dereference their receiver,
// reports ErrNilActor.
func checkedLayerName(a Actor) (name string, err error) {
	if a == nil {
		return "", ErrNilActor
	}
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: %v", ErrNilActor, re)
		}
	}()
	name = layerNameOf(a)
	actorBounds(a)
	return name, nil
}

func actorBounds(a Actor) physics.Rect {
	shape := a.GetBounds()
	if shape == nil {
		return physics.Rect{}
	}
	return shape.Bounds()
}
