package collision

import (
	"fmt"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// Query returns the actors whose shapes intersect area, searching the named
// layers or every layer when none are given. Between updates the indices are
// refreshed first; during an update they reflect positions at the start of
// the frame. Actors removed during the current update are never returned.
func (w *World) Query(area physics.Shape, layers ...string) ([]Actor, error) {
	if area == nil {
		return nil, nil
	}
	return w.search(area.Bounds(), func(s physics.Shape) bool {
		return physics.Intersects(s, area)
	}, layers)
}

// QueryPoint returns the actors whose shapes strictly contain p
func (w *World) QueryPoint(p physics.Vector2D, layers ...string) ([]Actor, error) {
	return w.search(physics.Rect{Center: p}, func(s physics.Shape) bool {
		return s.ContainsPoint(p)
	}, layers)
}

func (w *World) search(area physics.Rect, match func(physics.Shape) bool, names []string) ([]Actor, error) {
	if len(names) == 0 {
		names = w.layerOrder
	}
	selected := make([]*Layer, 0, len(names))
	for _, name := range names {
		layer, ok := w.layers[name]
		if !ok {
			return nil, fmt.Errorf("query: %w: %q", ErrUnknownLayerName, name)
		}
		selected = append(selected, layer)
	}

	found := make([]Actor, 0)
	for _, layer := range selected {
		if !w.inPass() {
			layer.index.Reset()
		}
		for _, a := range layer.candidates(area) {
			if w.isHidden(a) {
				continue
			}
			if shape := a.GetBounds(); shape != nil && match(shape) {
				found = append(found, a)
			}
		}
	}
	return found, nil
}
