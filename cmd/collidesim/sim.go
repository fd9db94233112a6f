// cmd/collidesim/sim.go
package main

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-collide/pkg/collision"
	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/render"
)

// body is a scenario body. Bodies with zero velocity are static: they never
// move and moving bodies take the whole push when they hit one.
type body struct {
	name     string
	layer    string
	shape    physics.Shape
	velocity physics.Vector2D
	hits     int
}

var _ collision.Actor = (*body)(nil)

func (b *body) GetBounds() physics.Shape { return b.shape }
func (b *body) GetLayerName() string     { return b.layer }

func (b *body) static() bool { return b.velocity.IsZero() }

// OnCollision pushes the body out of the contact and reflects its velocity
// when it is moving into the other body.
func (b *body) OnCollision(other collision.Actor, penetration physics.Vector2D) error {
	b.hits++
	if b.static() {
		return nil
	}
	push := penetration.Scale(0.5)
	if o, ok := other.(*body); ok && o.static() {
		push = penetration
	}
	b.shape = b.shape.Translate(push.Neg())

	normal := penetration.Normalize()
	if along := b.velocity.Dot(normal); along > 0 {
		b.velocity = b.velocity.Sub(normal.Scale(2 * along))
	}
	return nil
}

func (b *body) String() string { return b.name }

// simulation steps a scenario frame by frame
type simulation struct {
	world  *collision.World
	bus    *event.Bus
	bodies []*body
	logger *logging.Logger

	contacts int
}

func newSimulation(cfg *config.WorldConfig, logger *logging.Logger) (*simulation, error) {
	world, err := collision.NewWorldFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &simulation{
		world:  world,
		bus:    event.NewEventBus(),
		logger: logger,
	}
	world.SetEventBus(s.bus)
	s.bus.Subscribe(event.CollisionDetected, s.onCollision)
	s.bus.Subscribe(event.DispatchFailed, s.onDispatchFailed)

	for i, bc := range cfg.Bodies {
		shape, err := bc.Shape.Shape()
		if err != nil {
			return nil, logging.WrapError(err, "body %d", i)
		}
		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("body-%d", i)
		}
		layer := bc.Layer
		if layer == "" {
			layer = collision.DefaultLayerName
		}
		b := &body{name: name, layer: layer, shape: shape, velocity: bc.Velocity.Vector()}
		if err := world.Insert(b); err != nil {
			return nil, logging.WrapError(err, "insert body %q", name)
		}
		s.bodies = append(s.bodies, b)
	}
	return s, nil
}

// step moves every body by its velocity and runs one collision frame
func (s *simulation) step() (collision.FrameStats, error) {
	for _, b := range s.bodies {
		if !b.static() {
			b.shape = b.shape.Translate(b.velocity)
		}
	}
	err := s.world.Update()
	return s.world.Stats(), err
}

// draw renders every body, lettered in configuration order
func (s *simulation) draw(view *render.TerminalRenderer) {
	view.Clear()
	for i, b := range s.bodies {
		view.DrawShape(b.shape, rune('a'+i%26))
	}
}

func (s *simulation) onCollision(e event.Event) {
	ce, ok := e.(*event.CollisionEvent)
	if !ok {
		return
	}
	s.contacts++
	s.logger.Info(context.Background(), "collision",
		"a", fmt.Sprint(ce.A),
		"b", fmt.Sprint(ce.B),
		"layer_a", ce.LayerA,
		"layer_b", ce.LayerB,
		"penetration_x", ce.Penetration.X,
		"penetration_y", ce.Penetration.Y,
		"depth", ce.Penetration.Length())
}

func (s *simulation) onDispatchFailed(e event.Event) {
	if fe, ok := e.(*event.DispatchFailedEvent); ok {
		s.logger.Warn(context.Background(), "collision callback failed",
			"actor", fmt.Sprint(fe.Actor), "other", fmt.Sprint(fe.Other), "error", fe.Err.Error())
	}
}
