package engosys

import (
	"errors"
	"testing"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-collide/pkg/collision"
	"github.com/opd-ai/go-collide/pkg/physics"
)

type entity struct {
	ecs.BasicEntity
	common.SpaceComponent
	CollisionComponent
}

func newEntity(x, y, w, h float32, col CollisionComponent) *entity {
	return &entity{
		BasicEntity: ecs.NewBasic(),
		SpaceComponent: common.SpaceComponent{
			Position: engo.Point{X: x, Y: y},
			Width:    w,
			Height:   h,
		},
		CollisionComponent: col,
	}
}

func setup(t *testing.T) (*ecs.World, *System, *[]CollisionMessage) {
	t.Helper()
	world := collision.NewWorld(physics.RectFromTopLeft(-100, -100, 200, 200))
	sys := NewSystem(world)
	sys.Mailbox = &engo.MessageManager{}

	var got []CollisionMessage
	sys.Mailbox.Listen(CollisionMessageType, func(msg engo.Message) {
		if m, ok := msg.(CollisionMessage); ok {
			got = append(got, m)
		}
	})

	w := &ecs.World{}
	w.AddSystem(sys)
	return w, sys, &got
}

func add(t *testing.T, sys *System, e *entity) {
	t.Helper()
	require.NoError(t, sys.Add(&e.BasicEntity, &e.SpaceComponent, &e.CollisionComponent))
}

func TestSystem_DispatchesOneMessagePerEntity(t *testing.T) {
	w, sys, got := setup(t)
	a := newEntity(0, 0, 10, 10, CollisionComponent{})
	b := newEntity(6, 0, 10, 10, CollisionComponent{})
	add(t, sys, a)
	add(t, sys, b)

	w.Update(1.0 / 60)

	require.Len(t, *got, 2)
	require.NoError(t, sys.LastError())
	byEntity := map[uint64]CollisionMessage{}
	for _, m := range *got {
		byEntity[m.Entity.ID()] = m
	}
	require.Contains(t, byEntity, a.ID())
	require.Contains(t, byEntity, b.ID())
	assert.Equal(t, b.ID(), byEntity[a.ID()].Other.ID())
	assert.Equal(t, a.ID(), byEntity[b.ID()].Other.ID())

	pa, pb := byEntity[a.ID()].Penetration, byEntity[b.ID()].Penetration
	assert.InDelta(t, 0, pa.X+pb.X, 1e-5)
	assert.InDelta(t, 0, pa.Y+pb.Y, 1e-5)
	assert.InDelta(t, 4, abs(pa.X)+abs(pa.Y), 1e-5)

	// Non-solid entities are left in place.
	assert.Equal(t, engo.Point{X: 0, Y: 0}, a.Position)
	assert.Equal(t, engo.Point{X: 6, Y: 0}, b.Position)
}

func TestSystem_SolidEntitiesSeparate(t *testing.T) {
	w, sys, got := setup(t)
	a := newEntity(0, 0, 10, 10, CollisionComponent{Solid: true})
	b := newEntity(6, 0, 10, 10, CollisionComponent{Solid: true})
	add(t, sys, a)
	add(t, sys, b)

	w.Update(1.0 / 60)
	require.Len(t, *got, 2)
	assert.InDelta(t, -2, a.Position.X, 1e-5)
	assert.InDelta(t, 8, b.Position.X, 1e-5)

	*got = nil
	w.Update(1.0 / 60)
	assert.Empty(t, *got, "touching entities do not collide")
}

func TestSystem_SolidAgainstTrigger(t *testing.T) {
	w, sys, _ := setup(t)
	wall := newEntity(0, 0, 10, 10, CollisionComponent{})
	ball := newEntity(6, 0, 10, 10, CollisionComponent{Solid: true, Shape: ShapeCircle})
	add(t, sys, wall)
	add(t, sys, ball)

	w.Update(1.0 / 60)

	assert.Equal(t, engo.Point{X: 0, Y: 0}, wall.Position)
	assert.InDelta(t, 10, ball.Position.X, 1e-5)
	assert.InDelta(t, 0, ball.Position.Y, 1e-5)
}

func TestSystem_RespectsLayers(t *testing.T) {
	world := collision.NewWorldWithOptions(collision.Options{
		Boundary: physics.RectFromTopLeft(-100, -100, 200, 200),
	})
	require.NoError(t, world.AddLayer("ghosts", world.Boundary()))
	sys := NewSystem(world)
	sys.Mailbox = &engo.MessageManager{}
	count := 0
	sys.Mailbox.Listen(CollisionMessageType, func(engo.Message) { count++ })
	sys.New(nil)

	add(t, sys, newEntity(0, 0, 10, 10, CollisionComponent{}))
	add(t, sys, newEntity(5, 5, 10, 10, CollisionComponent{Layer: "ghosts"}))
	sys.Update(1.0 / 60)
	assert.Zero(t, count)

	require.NoError(t, world.RegisterLayerPair(collision.DefaultLayerName, "ghosts"))
	sys.Update(1.0 / 60)
	assert.Equal(t, 2, count)
}

func TestSystem_AddUnknownLayer(t *testing.T) {
	_, sys, _ := setup(t)
	e := newEntity(0, 0, 1, 1, CollisionComponent{Layer: "missing"})

	err := sys.Add(&e.BasicEntity, &e.SpaceComponent, &e.CollisionComponent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, collision.ErrUnknownLayerName))
	assert.Zero(t, sys.Len())
}

func TestSystem_Remove(t *testing.T) {
	w, sys, got := setup(t)
	a := newEntity(0, 0, 10, 10, CollisionComponent{})
	b := newEntity(5, 0, 10, 10, CollisionComponent{})
	add(t, sys, a)
	add(t, sys, b)
	require.Equal(t, 2, sys.Len())

	w.RemoveEntity(b.BasicEntity)
	assert.Equal(t, 1, sys.Len())
	assert.Equal(t, 1, sys.World.Len())

	w.Update(1.0 / 60)
	assert.Empty(t, *got)

	// Removing an unknown entity is a no-op.
	sys.Remove(ecs.NewBasic())
	assert.Equal(t, 1, sys.Len())
}

func TestShapeOf(t *testing.T) {
	space := &common.SpaceComponent{Position: engo.Point{X: 10, Y: 20}, Width: 8, Height: 4}

	box := ShapeOf(space, ShapeBox)
	require.IsType(t, physics.Rect{}, box)
	assert.Equal(t, physics.Vec(14, 22), box.Position())
	assert.Equal(t, physics.NewRect(physics.Vec(14, 22), 8, 4), box)

	circle := ShapeOf(space, ShapeCircle)
	require.IsType(t, physics.Circle{}, circle)
	assert.Equal(t, 2.0, circle.(physics.Circle).Radius)

	space.Rotation = 90
	rotated := ShapeOf(space, ShapeBox)
	require.IsType(t, physics.OrientedRect{}, rotated)
	c := space.Center()
	assert.InDelta(t, float64(c.X), rotated.Position().X, 1e-4)
	assert.InDelta(t, float64(c.Y), rotated.Position().Y, 1e-4)
	assert.InDelta(t, 4, rotated.Bounds().Width, 1e-4)
	assert.InDelta(t, 8, rotated.Bounds().Height, 1e-4)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
