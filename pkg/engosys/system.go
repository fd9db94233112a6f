// Package engosys runs a collision.World as an engo ECS system. Entities
// are described by their common.SpaceComponent plus a CollisionComponent;
// contacts are reported through the engo message manager and, for solid
// entities, resolved by moving the entity out of the overlap.
package engosys

import (
	"context"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-collide/pkg/collision"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
)

// CollisionMessageType is the engo message type of CollisionMessage
const CollisionMessageType = "go-collide.CollisionMessage"

// ShapeKind selects how a SpaceComponent is turned into a collision shape
type ShapeKind int

const (
	// ShapeBox uses the component's rectangle, rotated when Rotation is set.
	ShapeBox ShapeKind = iota
	// ShapeCircle uses the largest circle centred in the component.
	ShapeCircle
)

// CollisionComponent marks an entity as collidable
type CollisionComponent struct {
	// Layer is the collision layer name; empty means the default layer.
	Layer string
	Shape ShapeKind
	// Solid entities are pushed out of contacts: by the full penetration
	// against non-solid entities, by half of it when both are solid.
	Solid bool
}

// CollisionMessage is dispatched once per entity per contact. Moving Entity
// by -Penetration separates it from Other.
type CollisionMessage struct {
	Entity      *ecs.BasicEntity
	Other       *ecs.BasicEntity
	Penetration engo.Point
}

// Type implements engo.Message
func (CollisionMessage) Type() string { return CollisionMessageType }

// System updates a collision.World every frame
type System struct {
	World *collision.World
	// Mailbox receives CollisionMessages. Nil selects engo.Mailbox.
	Mailbox *engo.MessageManager
	Logger  *logging.Logger

	bodies  map[uint64]*body
	lastErr error
}

// NewSystem creates a system driving world
func NewSystem(world *collision.World) *System {
	return &System{World: world, bodies: make(map[uint64]*body)}
}

// New implements ecs.Initializer
func (s *System) New(*ecs.World) {
	if s.bodies == nil {
		s.bodies = make(map[uint64]*body)
	}
	if s.Logger == nil {
		s.Logger = logging.NewDiscardLogger()
	}
}

// Add registers an entity with the collision world
func (s *System) Add(basic *ecs.BasicEntity, space *common.SpaceComponent, col *CollisionComponent) error {
	s.New(nil)
	b := &body{system: s, basic: basic, space: space, collision: col}
	if err := s.World.Insert(b); err != nil {
		return logging.WrapError(err, "add entity %d", basic.ID())
	}
	s.bodies[basic.ID()] = b
	return nil
}

// Remove satisfies the ecs.System interface
func (s *System) Remove(basic ecs.BasicEntity) {
	b, ok := s.bodies[basic.ID()]
	if !ok {
		return
	}
	delete(s.bodies, basic.ID())
	if _, err := s.World.Remove(b); err != nil {
		s.logger().Warn(context.Background(), "remove entity failed", "entity", basic.ID(), "error", err.Error())
	}
}

// Update runs one collision frame. Callback failures are logged and kept
// for LastError.
func (s *System) Update(dt float32) {
	s.lastErr = s.World.Update()
	if s.lastErr != nil {
		s.logger().Warn(context.Background(), "collision frame reported an error", "error", s.lastErr.Error())
	}
}

// LastError returns the error reported by the most recent Update
func (s *System) LastError() error {
	return s.lastErr
}

// Len returns the number of registered entities
func (s *System) Len() int {
	return len(s.bodies)
}

func (s *System) logger() *logging.Logger {
	if s.Logger == nil {
		s.Logger = logging.NewDiscardLogger()
	}
	return s.Logger
}

func (s *System) mailbox() *engo.MessageManager {
	if s.Mailbox != nil {
		return s.Mailbox
	}
	return engo.Mailbox
}

// body adapts an entity to collision.Actor
type body struct {
	system    *System
	basic     *ecs.BasicEntity
	space     *common.SpaceComponent
	collision *CollisionComponent
}

func (b *body) GetBounds() physics.Shape {
	return ShapeOf(b.space, b.collision.Shape)
}

func (b *body) GetLayerName() string {
	return b.collision.Layer
}

func (b *body) OnCollision(other collision.Actor, penetration physics.Vector2D) error {
	msg := CollisionMessage{Entity: b.basic, Penetration: toPoint(penetration)}
	o, isBody := other.(*body)
	if isBody {
		msg.Other = o.basic
	}
	if b.collision.Solid {
		push := penetration
		if isBody && o.collision.Solid {
			push = push.Scale(0.5)
		}
		b.space.Position.X -= float32(push.X)
		b.space.Position.Y -= float32(push.Y)
	}
	if mb := b.system.mailbox(); mb != nil {
		mb.Dispatch(msg)
	}
	return nil
}

// ShapeOf converts a space component to a collision shape. engo rotates
// entities about their top-left corner in degrees; the returned shape is
// centred on the rotated rectangle's centre.
func ShapeOf(space *common.SpaceComponent, kind ShapeKind) physics.Shape {
	c := space.Center()
	center := physics.Vec(float64(c.X), float64(c.Y))
	w, h := float64(space.Width), float64(space.Height)

	if kind == ShapeCircle {
		return physics.NewCircle(center, math.Min(w, h)/2)
	}
	if space.Rotation == 0 {
		return physics.NewRect(center, w, h)
	}
	return physics.NewOrientedRect(center, physics.Vec(w/2, h/2), float64(space.Rotation)*math.Pi/180)
}

func toPoint(v physics.Vector2D) engo.Point {
	return engo.Point{X: float32(v.X), Y: float32(v.Y)}
}
