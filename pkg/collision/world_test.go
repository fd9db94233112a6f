package collision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
)

type hit struct {
	other Actor
	p     physics.Vector2D
}

type testActor struct {
	name  string
	shape physics.Shape
	layer string
	hits  []hit
	react func(self *testActor, other Actor, p physics.Vector2D) error
}

func (a *testActor) GetBounds() physics.Shape { return a.shape }
func (a *testActor) GetLayerName() string     { return a.layer }

func (a *testActor) OnCollision(other Actor, p physics.Vector2D) error {
	a.hits = append(a.hits, hit{other: other, p: p})
	if a.react != nil {
		return a.react(a, other, p)
	}
	return nil
}

func circleActor(name string, x, y, r float64) *testActor {
	return &testActor{name: name, shape: physics.NewCircle(physics.Vec(x, y), r)}
}

func rectActor(name string, x, y, w, h float64) *testActor {
	return &testActor{name: name, shape: physics.NewRect(physics.Vec(x, y), w, h)}
}

var bounds = physics.RectFromMinMax(physics.Vec(-100, -100), physics.Vec(100, 100))

func newTestWorld(t *testing.T, actors ...*testActor) *World {
	t.Helper()
	w := NewWorld(bounds)
	for _, a := range actors {
		require.NoError(t, w.Insert(a))
	}
	return w
}

func othersOf(a *testActor) []Actor {
	out := make([]Actor, 0, len(a.hits))
	for _, h := range a.hits {
		out = append(out, h.other)
	}
	return out
}

func TestNewWorld_DefaultLayer(t *testing.T) {
	w := NewWorld(bounds)

	assert.Equal(t, []string{DefaultLayerName}, w.Layers())
	assert.Equal(t, [][2]string{{DefaultLayerName, DefaultLayerName}}, w.LayerPairs())
	assert.Equal(t, PhaseIdle, w.Phase())
	assert.Equal(t, bounds, w.Boundary())
}

func TestAddLayer(t *testing.T) {
	w := NewWorld(bounds)

	require.NoError(t, w.AddLayer("walls", bounds))
	assert.ErrorIs(t, w.AddLayer("walls", bounds), ErrDuplicateLayerName)
	assert.ErrorIs(t, w.AddLayer(DefaultLayerName, bounds), ErrDuplicateLayerName)
	assert.ErrorIs(t, w.AddLayer("  ", bounds), ErrInvalidLayerName)

	assert.Equal(t, []string{DefaultLayerName, "walls"}, w.Layers())
	assert.Equal(t, [][2]string{
		{DefaultLayerName, DefaultLayerName},
		{DefaultLayerName, "walls"},
	}, w.LayerPairs())
}

func TestAddLayer_AutoPairDisabled(t *testing.T) {
	opts := DefaultOptions(bounds)
	opts.DefaultLayerAutoPair = false
	w := NewWorldWithOptions(opts)

	require.NoError(t, w.AddLayer("walls", bounds))
	assert.Equal(t, [][2]string{{DefaultLayerName, DefaultLayerName}}, w.LayerPairs())
}

func TestRegisterLayerPair(t *testing.T) {
	w := NewWorld(bounds)
	require.NoError(t, w.AddLayer("a", bounds))
	require.NoError(t, w.AddLayer("b", bounds))

	require.NoError(t, w.RegisterLayerPair("a", "b"))
	require.NoError(t, w.RegisterLayerPair("b", "a"))
	require.NoError(t, w.RegisterLayerPair("a", "a"))
	assert.ErrorIs(t, w.RegisterLayerPair("a", "ghost"), ErrUnknownLayerName)

	assert.Equal(t, [][2]string{
		{DefaultLayerName, DefaultLayerName},
		{DefaultLayerName, "a"},
		{DefaultLayerName, "b"},
		{"a", "b"},
		{"a", "a"},
	}, w.LayerPairs())

	assert.True(t, w.UnregisterLayerPair("b", "a"))
	assert.False(t, w.UnregisterLayerPair("a", "b"))
	assert.Len(t, w.LayerPairs(), 4)
}

func TestRemoveLayer(t *testing.T) {
	w := NewWorld(bounds)
	require.NoError(t, w.AddLayer("walls", bounds))
	require.NoError(t, w.RegisterLayerPair("walls", "walls"))
	wall := rectActor("wall", 0, 0, 10, 10)
	wall.layer = "walls"
	require.NoError(t, w.Insert(wall))

	assert.ErrorIs(t, w.RemoveLayer(DefaultLayerName), ErrDefaultLayer)
	assert.ErrorIs(t, w.RemoveLayer("ghost"), ErrUnknownLayerName)

	require.NoError(t, w.RemoveLayer("walls"))
	assert.Equal(t, []string{DefaultLayerName}, w.Layers())
	assert.Equal(t, [][2]string{{DefaultLayerName, DefaultLayerName}}, w.LayerPairs())
	assert.False(t, w.Contains(wall))
	assert.Equal(t, 0, w.Len())

	_, err := w.Remove(wall)
	assert.ErrorIs(t, err, ErrUnknownLayerName)
}

func TestInsertAndRemove(t *testing.T) {
	w := NewWorld(bounds)
	a := circleActor("a", 0, 0, 1)

	assert.ErrorIs(t, w.Insert(nil), ErrNilActor)
	_, err := w.Remove(nil)
	assert.ErrorIs(t, err, ErrNilActor)

	var typedNil *testActor
	assert.ErrorIs(t, w.Insert(typedNil), ErrNilActor)
	removed, err := w.Remove(typedNil)
	assert.False(t, removed)
	assert.ErrorIs(t, err, ErrNilActor)
	assert.False(t, w.Contains(typedNil))

	ghost := circleActor("ghost", 0, 0, 1)
	ghost.layer = "ghosts"
	assert.ErrorIs(t, w.Insert(ghost), ErrUnknownLayerName)

	require.NoError(t, w.Insert(a))
	require.NoError(t, w.Insert(a))
	assert.Equal(t, 1, w.Len())
	layer, ok := w.Layer(DefaultLayerName)
	require.True(t, ok)
	assert.Equal(t, []Actor{a}, layer.Actors())

	removed, err = w.Remove(a)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = w.Remove(a)
	require.NoError(t, err)
	assert.False(t, removed)

	found, err := w.Query(physics.NewRect(physics.Vec(0, 0), 10, 10))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdate_CoincidentCirclesAreAntisymmetric(t *testing.T) {
	a := circleActor("a", 0, 0, 2)
	b := circleActor("b", 0, 0, 2)
	w := newTestWorld(t, a, b)

	require.NoError(t, w.Update())

	require.Len(t, a.hits, 1)
	require.Len(t, b.hits, 1)
	assert.Same(t, b, a.hits[0].other)
	assert.Same(t, a, b.hits[0].other)
	assert.Equal(t, physics.Vec(0, -4), a.hits[0].p)
	assert.Equal(t, physics.Vec(0, 4), b.hits[0].p)
}

func TestUpdate_PenetrationSeparatesCircles(t *testing.T) {
	a := circleActor("a", 0, 1.5, 2)
	b := circleActor("b", 0, 0, 2)
	w := newTestWorld(t, a, b)

	require.NoError(t, w.Update())
	require.Len(t, a.hits, 1)
	p := a.hits[0].p
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, -2.5, p.Y, 1e-9)

	moved := a.shape.Translate(p.Neg()).(physics.Circle)
	assert.InDelta(t, 4, moved.Center.Distance(b.shape.Position()), 1e-9)
}

func TestUpdate_UnpairedLayersNeverCollide(t *testing.T) {
	w := NewWorld(bounds)
	require.NoError(t, w.AddLayer("circles", bounds))
	require.NoError(t, w.AddLayer("rects", bounds))

	c := circleActor("c", 0, 0, 2)
	c.layer = "circles"
	r := rectActor("r", 1, 0, 4, 4)
	r.layer = "rects"
	require.NoError(t, w.Insert(c))
	require.NoError(t, w.Insert(r))
	require.True(t, physics.Intersects(c.shape, r.shape))

	require.NoError(t, w.Update())
	assert.Empty(t, c.hits)
	assert.Empty(t, r.hits)

	require.NoError(t, w.RegisterLayerPair("rects", "circles"))
	require.NoError(t, w.Update())
	assert.Len(t, c.hits, 1)
	assert.Len(t, r.hits, 1)
}

func TestUpdate_SelfExclusion(t *testing.T) {
	solo := circleActor("solo", 0, 0, 5)
	w := newTestWorld(t, solo)

	require.NoError(t, w.Update())
	assert.Empty(t, solo.hits)
}

func TestUpdate_TouchingShapesDoNotCollide(t *testing.T) {
	a := circleActor("a", 0, 0, 1)
	b := circleActor("b", 2, 0, 1)
	c := rectActor("c", 5, 0, 2, 2)
	d := rectActor("d", 7, 0, 2, 2)
	w := newTestWorld(t, a, b, c, d)

	require.NoError(t, w.Update())
	for _, actor := range []*testActor{a, b, c, d} {
		assert.Empty(t, actor.hits, actor.name)
	}
	assert.Positive(t, w.Stats().Candidates)
	assert.Zero(t, w.Stats().Contacts)
}

func TestUpdate_EachPairDispatchedOnce(t *testing.T) {
	for _, kind := range []spatial.Kind{spatial.KindQuadTree, spatial.KindGrid} {
		t.Run(string(kind), func(t *testing.T) {
			opts := DefaultOptions(bounds)
			opts.Index = spatial.Options{Kind: kind, CellSize: 8}
			w := NewWorldWithOptions(opts)

			a := circleActor("a", 0, 0, 3)
			b := circleActor("b", 1, 0, 3)
			c := circleActor("c", 0, 1, 3)
			for _, actor := range []*testActor{a, b, c} {
				require.NoError(t, w.Insert(actor))
			}

			require.NoError(t, w.Update())
			assert.ElementsMatch(t, []Actor{b, c}, othersOf(a))
			assert.ElementsMatch(t, []Actor{a, c}, othersOf(b))
			assert.ElementsMatch(t, []Actor{a, b}, othersOf(c))
			assert.Equal(t, 3, w.Stats().Contacts)

			for _, h := range a.hits {
				other := h.other.(*testActor)
				for _, back := range other.hits {
					if back.other == Actor(a) {
						assert.Equal(t, h.p.Neg(), back.p)
					}
				}
			}
		})
	}
}

func TestUpdate_DeferredRebucketing(t *testing.T) {
	mover := circleActor("mover", -90, -90, 2)
	target := rectActor("target", 80, 80, 6, 6)
	w := newTestWorld(t, mover, target)
	for i := 0; i < 20; i++ {
		require.NoError(t, w.Insert(circleActor("filler", float64(i*8-80), 0, 1)))
	}

	require.NoError(t, w.Update())
	assert.Empty(t, mover.hits)

	mover.shape = physics.NewCircle(physics.Vec(80, 83), 2)
	require.NoError(t, w.Update())
	require.Len(t, mover.hits, 1)
	assert.Same(t, target, mover.hits[0].other)
	assert.GreaterOrEqual(t, w.Stats().Moved, 1)

	mover.shape = physics.NewCircle(physics.Vec(500, 500), 2)
	require.NoError(t, w.Update())
	assert.Len(t, mover.hits, 1, "no contact once it moved away, even outside the boundary")
}

func TestUpdate_DispatchFailuresAreIsolated(t *testing.T) {
	errBoom := errors.New("boom")
	a := circleActor("a", 0, 0, 3)
	a.react = func(*testActor, Actor, physics.Vector2D) error { return errBoom }
	b := circleActor("b", 1, 0, 3)
	b.react = func(*testActor, Actor, physics.Vector2D) error { panic("b exploded") }
	c := circleActor("c", 0, 1, 3)
	w := newTestWorld(t, a, b, c)

	bus := event.NewEventBus()
	var failed []*event.DispatchFailedEvent
	bus.Subscribe(event.DispatchFailed, func(e event.Event) {
		failed = append(failed, e.(*event.DispatchFailedEvent))
	})
	w.SetEventBus(bus)

	err := w.Update()
	require.Error(t, err)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Same(t, a, dispatchErr.Actor)
	assert.Same(t, b, dispatchErr.Other)
	assert.ErrorIs(t, err, errBoom)

	assert.Len(t, a.hits, 2)
	assert.Len(t, b.hits, 2)
	assert.Len(t, c.hits, 2)
	assert.Equal(t, 4, w.Stats().Failures)
	require.Len(t, failed, 4)

	var panicErr *PanicError
	assert.True(t, errors.As(failed[1].Err, &panicErr))
	assert.Equal(t, "b exploded", panicErr.Value)
	assert.Equal(t, PhaseIdle, w.Phase())
}

func TestUpdate_RemovalDuringDispatch(t *testing.T) {
	a := circleActor("a", 0, 0, 3)
	b := circleActor("b", 1, 0, 3)
	c := circleActor("c", 0, 1, 3)
	w := newTestWorld(t, a, b, c)

	var seen []Actor
	a.react = func(self *testActor, other Actor, _ physics.Vector2D) error {
		if other != Actor(b) {
			return nil
		}
		removed, err := w.Remove(c)
		if err != nil || !removed {
			return errors.New("remove failed")
		}
		seen, err = w.Query(physics.NewCircle(physics.Vec(0, 0), 50))
		return err
	}

	require.NoError(t, w.Update())

	assert.ElementsMatch(t, []Actor{a, b}, seen)
	assert.Empty(t, c.hits)
	assert.Equal(t, []Actor{b}, othersOf(a))
	assert.Equal(t, []Actor{a}, othersOf(b))

	assert.False(t, w.Contains(c))
	removed, err := w.Remove(c)
	require.NoError(t, err)
	assert.False(t, removed)
	layer, _ := w.Layer(DefaultLayerName)
	assert.Equal(t, 2, layer.Len())
}

func TestUpdate_InsertDuringDispatchIsDeferred(t *testing.T) {
	a := circleActor("a", 0, 0, 3)
	b := circleActor("b", 1, 0, 3)
	late := circleActor("late", 0, 1, 3)
	w := newTestWorld(t, a, b)

	var phase Phase
	var reentrant, removeLayer error
	a.react = func(*testActor, Actor, physics.Vector2D) error {
		phase = w.Phase()
		reentrant = w.Update()
		removeLayer = w.RemoveLayer(DefaultLayerName)
		return w.Insert(late)
	}

	require.NoError(t, w.Update())
	assert.Equal(t, PhaseDispatchEvents, phase)
	assert.ErrorIs(t, reentrant, ErrUpdateInProgress)
	assert.ErrorIs(t, removeLayer, ErrUpdateInProgress)
	assert.Empty(t, late.hits)
	assert.True(t, w.Contains(late))

	a.react = nil
	require.NoError(t, w.Update())
	assert.ElementsMatch(t, []Actor{a, b}, othersOf(late))
}

func TestUpdate_MigratesActorsBetweenLayers(t *testing.T) {
	opts := DefaultOptions(bounds)
	opts.DefaultLayerAutoPair = false
	w := NewWorldWithOptions(opts)
	require.NoError(t, w.AddLayer("x", bounds))
	require.NoError(t, w.AddLayer("y", bounds))
	require.NoError(t, w.RegisterLayerPair("x", "y"))

	a := circleActor("a", 0, 0, 2)
	a.layer = "x"
	b := circleActor("b", 1, 0, 2)
	b.layer = "x"
	require.NoError(t, w.Insert(a))
	require.NoError(t, w.Insert(b))

	require.NoError(t, w.Update())
	assert.Empty(t, a.hits)

	b.layer = "nowhere"
	require.NoError(t, w.Update())
	assert.Zero(t, w.Stats().Migrated)

	b.layer = "y"
	require.NoError(t, w.Update())
	assert.Equal(t, 1, w.Stats().Migrated)
	assert.Len(t, a.hits, 1)
	y, _ := w.Layer("y")
	assert.True(t, y.Contains(b))
}

func TestUpdate_PublishesEvents(t *testing.T) {
	bus := event.NewEventBus()
	var collisions []*event.CollisionEvent
	var inserted, added int
	bus.Subscribe(event.CollisionDetected, func(e event.Event) {
		collisions = append(collisions, e.(*event.CollisionEvent))
	})
	bus.Subscribe(event.ActorInserted, func(event.Event) { inserted++ })
	bus.Subscribe(event.LayerAdded, func(event.Event) { added++ })

	opts := DefaultOptions(bounds)
	opts.Bus = bus
	w := NewWorldWithOptions(opts)
	require.NoError(t, w.AddLayer("walls", bounds))

	ball := circleActor("ball", 0, 0, 2)
	wall := rectActor("wall", 2, 0, 2, 10)
	wall.layer = "walls"
	require.NoError(t, w.Insert(ball))
	require.NoError(t, w.Insert(wall))

	require.NoError(t, w.Update())
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, inserted)
	require.Len(t, collisions, 1)
	assert.Equal(t, DefaultLayerName, collisions[0].LayerA)
	assert.Equal(t, "walls", collisions[0].LayerB)
	assert.Equal(t, ball.hits[0].p, collisions[0].Penetration)
	assert.NotEmpty(t, w.Stats().CorrelationID)
	assert.Equal(t, uint64(1), w.Stats().Frame)
}

func TestWorld_Query(t *testing.T) {
	w := NewWorld(bounds)
	require.NoError(t, w.AddLayer("walls", bounds))
	a := circleActor("a", 0, 0, 2)
	b := rectActor("b", 10, 0, 4, 4)
	b.layer = "walls"
	require.NoError(t, w.Insert(a))
	require.NoError(t, w.Insert(b))

	area := physics.NewRect(physics.Vec(0, 0), 30, 30)
	found, err := w.Query(area)
	require.NoError(t, err)
	assert.Equal(t, []Actor{a, b}, found)

	found, err = w.Query(area, "walls")
	require.NoError(t, err)
	assert.Equal(t, []Actor{b}, found)

	found, err = w.Query(physics.NewCircle(physics.Vec(2, 2), 0.5))
	require.NoError(t, err)
	assert.Empty(t, found, "bounds overlap but the shapes do not")

	_, err = w.Query(area, "ghost")
	assert.ErrorIs(t, err, ErrUnknownLayerName)

	found, err = w.QueryPoint(physics.Vec(10, 0))
	require.NoError(t, err)
	assert.Equal(t, []Actor{b}, found)

	a.shape = physics.NewCircle(physics.Vec(10, 1), 2)
	found, err = w.QueryPoint(physics.Vec(10, 1))
	require.NoError(t, err)
	assert.Equal(t, []Actor{a, b}, found)
}

func TestNewWorldFromConfig(t *testing.T) {
	cfg := config.GetScenarioTemplate("layered")
	w, err := NewWorldFromConfig(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultLayerName, "players", "pickups"}, w.Layers())
	assert.Equal(t, [][2]string{
		{DefaultLayerName, DefaultLayerName},
		{"players", "pickups"},
	}, w.LayerPairs())
	players, _ := w.Layer("players")
	_, isGrid := players.index.(*spatial.GridIndex[Actor])
	assert.True(t, isGrid)

	var actors []*testActor
	for _, body := range cfg.Bodies {
		shape, err := body.Shape.Shape()
		require.NoError(t, err)
		a := &testActor{name: body.Name, shape: shape, layer: body.Layer}
		actors = append(actors, a)
		require.NoError(t, w.Insert(a))
	}
	p1, p2, coin := actors[0], actors[1], actors[2]

	require.NoError(t, w.Update())
	assert.Empty(t, p1.hits, "players share a layer that is not paired with itself")
	assert.Empty(t, p2.hits)

	p1.shape = p1.shape.Translate(physics.Vec(40, 0))
	require.NoError(t, w.Update())
	assert.Equal(t, []Actor{coin}, othersOf(p1))
	assert.Equal(t, []Actor{p1}, othersOf(coin))
}

func TestNewWorldFromConfig_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pairs = append(cfg.Pairs, config.PairConfig{A: "static", B: "ghost"})

	_, err := NewWorldFromConfig(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "dispatch_events", PhaseDispatchEvents.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
