package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-collide/pkg/physics"
)

func TestQuadTree_Defaults(t *testing.T) {
	qt := NewQuadTree(world, 0, -1, boxBounds)
	assert.Equal(t, DefaultNodeCapacity, qt.capacity)
	assert.Equal(t, DefaultMaxDepth, qt.maxDepth)
	assert.Equal(t, world, qt.Boundary())
}

func TestQuadTree_SplitsOverCapacity(t *testing.T) {
	qt := NewQuadTree(world, 4, 5, boxBounds)
	for i := 0; i < 4; i++ {
		qt.Insert(newBox(i, -40+float64(i), -40, 0.5, 0.5))
	}
	assert.Equal(t, 1, qt.Stats().Nodes, "at capacity, no split yet")

	qt.Insert(newBox(4, 30, 30, 0.5, 0.5))
	stats := qt.Stats()
	assert.Greater(t, stats.Nodes, 1)
	assert.Equal(t, 5, stats.Items)
	assert.Empty(t, qt.root.items)
}

func TestQuadTree_StraddlingItemsStayInAncestor(t *testing.T) {
	qt := NewQuadTree(world, 1, 5, boxBounds)
	straddle := newBox(1, 0, 0, 4, 4)
	corner := newBox(2, -30, -30, 2, 2)
	require.True(t, qt.Insert(straddle))
	require.True(t, qt.Insert(corner))

	assert.Same(t, qt.root, qt.entries[straddle].node)
	assert.NotSame(t, qt.root, qt.entries[corner].node)
	assert.Equal(t, []int{1, 2}, ids(qt.Query(physics.NewRect(physics.Vec(-15, -15), 40, 40))))
}

func TestQuadTree_MaxDepthBoundsSubdivision(t *testing.T) {
	qt := NewQuadTree(world, 2, 3, boxBounds)
	for i := 0; i < 50; i++ {
		qt.Insert(newBox(i, 10, 10, 0.01, 0.01))
	}
	stats := qt.Stats()
	assert.Equal(t, 50, stats.Items)
	assert.LessOrEqual(t, stats.MaxDepth, 3)
	assert.Len(t, qt.QueryPoint(physics.Vec(10, 10)), 50)
}

func TestQuadTree_CollapsesAfterRemoval(t *testing.T) {
	qt := NewQuadTree(world, 2, 4, boxBounds)
	var boxes []*box
	for i := 0; i < 12; i++ {
		b := newBox(i, float64(i*7-40), float64(i*5-30), 1, 1)
		boxes = append(boxes, b)
		qt.Insert(b)
	}
	require.Greater(t, qt.Stats().Nodes, 1)

	for _, b := range boxes[2:] {
		require.True(t, qt.Remove(b))
	}
	stats := qt.Stats()
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 2, stats.Items)
	for _, b := range boxes[:2] {
		assert.Same(t, qt.root, qt.entries[b].node)
	}
}

func TestQuadTree_ResetPushesItemsDown(t *testing.T) {
	qt := NewQuadTree(world, 1, 4, boxBounds)
	wide := newBox(1, 0, 0, 10, 10)
	anchor := newBox(2, 30, 30, 1, 1)
	qt.Insert(wide)
	qt.Insert(anchor)
	require.Same(t, qt.root, qt.entries[wide].node)

	wide.r = physics.NewRect(physics.Vec(-30, -30), 1, 1)
	assert.Equal(t, 1, qt.Reset())
	assert.NotSame(t, qt.root, qt.entries[wide].node)
	assert.True(t, qt.entries[wide].node.boundary.ContainsRect(wide.r))
}

func TestQuadTree_ItemsVisitsEveryNode(t *testing.T) {
	qt := NewQuadTree(world, 1, 4, boxBounds)
	for i := 0; i < 10; i++ {
		qt.Insert(newBox(i, float64(i*9-45), float64(45-i*9), 1, 1))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(qt.Items()))
}

func TestGridIndex_Extent(t *testing.T) {
	g := NewGridIndex(physics.RectFromMinMax(physics.Vec(-10, -10), physics.Vec(15, 5)), 10, boxBounds)
	assert.Equal(t, physics.RectFromTopLeft(-10, -10, 30, 20), g.Extent())

	inside := newBox(1, 0, 0, 2, 2)
	outside := newBox(2, 40, 0, 2, 2)
	g.Insert(inside)
	g.Insert(outside)
	assert.True(t, g.entries[inside].inSpace)
	assert.False(t, g.entries[outside].inSpace)

	outside.r.Center = physics.Vec(5, 0)
	inside.r.Center = physics.Vec(-40, 0)
	assert.Equal(t, 2, g.Reset())
	assert.True(t, g.entries[outside].inSpace)
	assert.False(t, g.entries[inside].inSpace)
	assert.Equal(t, []int{2}, ids(g.QueryPoint(physics.Vec(5, 0))))
	assert.Equal(t, []int{1}, ids(g.QueryPoint(physics.Vec(-40, 0))))
}
