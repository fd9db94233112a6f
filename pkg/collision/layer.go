package collision

import (
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
)

// Layer is a named group of actors sharing one spatial index
type Layer struct {
	name   string
	index  spatial.Index[Actor]
	actors []Actor
}

func newLayer(name string, index spatial.Index[Actor]) *Layer {
	return &Layer{name: name, index: index}
}

// Name returns the layer's name
func (l *Layer) Name() string { return l.name }

// Len returns the number of member actors
func (l *Layer) Len() int { return len(l.actors) }

// Actors returns the members in insertion order
func (l *Layer) Actors() []Actor {
	out := make([]Actor, len(l.actors))
	copy(out, l.actors)
	return out
}

// Contains reports whether a is a member
func (l *Layer) Contains(a Actor) bool {
	return l.index.Contains(a)
}

func (l *Layer) add(a Actor) bool {
	if !l.index.Insert(a) {
		return false
	}
	l.actors = append(l.actors, a)
	return true
}

func (l *Layer) remove(a Actor) bool {
	if !l.index.Remove(a) {
		return false
	}
	for i, member := range l.actors {
		if member == a {
			l.actors = append(l.actors[:i:i], l.actors[i+1:]...)
			break
		}
	}
	return true
}

func (l *Layer) clear() {
	l.index.Clear()
	l.actors = nil
}

func (l *Layer) candidates(area physics.Rect) []Actor {
	return l.index.Query(area)
}

// layerPair is an unordered pair of layer names
type layerPair struct {
	a, b string
}

func (p layerPair) matches(a, b string) bool {
	return (p.a == a && p.b == b) || (p.a == b && p.b == a)
}

func (p layerPair) references(name string) bool {
	return p.a == name || p.b == name
}
