package collision

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
)

// Phase is a stage of the per-frame pipeline
type Phase int

// Update runs Reset, BroadPhase, NarrowPhase and DispatchEvents in order and
// returns to Idle.
const (
	PhaseIdle Phase = iota
	PhaseReset
	PhaseBroadPhase
	PhaseNarrowPhase
	PhaseDispatchEvents
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReset:
		return "reset"
	case PhaseBroadPhase:
		return "broad_phase"
	case PhaseNarrowPhase:
		return "narrow_phase"
	case PhaseDispatchEvents:
		return "dispatch_events"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// FrameStats describes the most recent Update
type FrameStats struct {
	Frame         uint64
	CorrelationID string
	// Moved is the number of actors whose bounds changed since the
	// previous frame.
	Moved int
	// Migrated is the number of actors moved to the layer they now name.
	Migrated   int
	Candidates int
	Contacts   int
	Failures   int
}

type candidate struct {
	a, b Actor
}

type contact struct {
	a, b        Actor
	layerA      string
	layerB      string
	penetration physics.Vector2D
}

// Stats returns statistics for the last completed Update
func (w *World) Stats() FrameStats {
	return w.stats
}

// Update runs one frame. Callback failures do not stop the frame: every
// contact is still delivered to both actors, failures are logged, and the
// first one is returned as a *DispatchError once the frame completes.
// Calling Update from inside a callback returns ErrUpdateInProgress.
func (w *World) Update() error {
	if w.inPass() {
		return ErrUpdateInProgress
	}

	w.frame++
	ctx := logging.WithCorrelationID(context.Background(), "")
	w.ctx = ctx
	stats := FrameStats{Frame: w.frame, CorrelationID: logging.GetCorrelationID(ctx)}

	defer func() {
		w.phase = PhaseIdle
		w.flushPending()
		w.stats = stats
		w.ctx = context.Background()
	}()

	w.phase = PhaseReset
	stats.Migrated = w.migrateActors(ctx)
	for _, name := range w.layerOrder {
		stats.Moved += w.layers[name].index.Reset()
	}

	w.phase = PhaseBroadPhase
	candidates := w.broadPhase()
	stats.Candidates = len(candidates)

	w.phase = PhaseNarrowPhase
	contacts, err := w.narrowPhase(ctx, candidates)
	stats.Contacts = len(contacts)

	w.phase = PhaseDispatchEvents
	failures, dispatchErr := w.dispatch(ctx, contacts)
	stats.Failures = failures
	if err == nil {
		err = dispatchErr
	}

	w.logger.Debug(ctx, "frame complete",
		"frame", stats.Frame,
		"moved", stats.Moved,
		"candidates", stats.Candidates,
		"contacts", stats.Contacts,
		"failures", stats.Failures)
	return err
}

// migrateActors moves actors whose reported layer changed since they were
// inserted. Actors naming an unknown layer stay where they are.
func (w *World) migrateActors(ctx context.Context) int {
	migrated := 0
	for _, name := range w.layerOrder {
		layer := w.layers[name]
		for _, a := range layer.Actors() {
			target := layerNameOf(a)
			if target == layer.name {
				continue
			}
			dest, ok := w.layers[target]
			if !ok {
				w.logger.Warn(ctx, "actor names unknown layer, keeping current layer",
					"layer", layer.name, "requested_layer", target)
				continue
			}
			layer.remove(a)
			dest.add(a)
			w.membership[a] = dest
			migrated++
		}
	}
	return migrated
}

// broadPhase queries, for every registered pair, layer B's index with the
// bounds of each member of layer A. Each unordered actor pair is kept once.
func (w *World) broadPhase() []candidate {
	var out []candidate
	seen := make(map[candidate]struct{})
	for _, pair := range w.pairs {
		layerA, layerB := w.layers[pair.a], w.layers[pair.b]
		if layerA == nil || layerB == nil {
			continue
		}
		for _, a := range layerA.actors {
			for _, b := range layerB.candidates(actorBounds(a)) {
				if a == b {
					continue
				}
				if _, dup := seen[candidate{b, a}]; dup {
					continue
				}
				key := candidate{a, b}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, key)
			}
		}
	}
	return out
}

// narrowPhase keeps the candidates whose shapes intersect and computes each
// penetration vector once. Unsupported shape pairs are logged and skipped;
// the first such error is returned.
func (w *World) narrowPhase(ctx context.Context, candidates []candidate) ([]contact, error) {
	var (
		out      []contact
		firstErr error
	)
	for _, c := range candidates {
		sa, sb := c.a.GetBounds(), c.b.GetBounds()
		if sa == nil || sb == nil {
			continue
		}
		result, err := physics.CheckCollision(sa, sb)
		if err != nil {
			w.logger.Error(ctx, "narrow phase failed", err,
				"shape_a", fmt.Sprintf("%T", sa), "shape_b", fmt.Sprintf("%T", sb))
			if firstErr == nil {
				firstErr = fmt.Errorf("narrow phase: %w", err)
			}
			continue
		}
		if !result.Collided {
			continue
		}
		out = append(out, contact{
			a:           c.a,
			b:           c.b,
			layerA:      w.membership[c.a].name,
			layerB:      w.membership[c.b].name,
			penetration: result.Vector,
		})
	}
	return out, firstErr
}

// dispatch delivers each contact to both actors. A contact whose actor was
// removed by an earlier callback in this frame is skipped; once a contact
// starts, both callbacks run.
func (w *World) dispatch(ctx context.Context, contacts []contact) (int, error) {
	var firstErr error
	failures := 0
	report := func(actor, other Actor, err error) {
		if err == nil {
			return
		}
		failures++
		dispatchErr := &DispatchError{Actor: actor, Other: other, Err: err}
		w.logger.Warn(ctx, "collision callback failed",
			"actor", fmt.Sprintf("%T", actor),
			"other", fmt.Sprintf("%T", other),
			"error", err.Error())
		w.publish(event.NewDispatchFailedEvent(w, actor, other, err))
		if firstErr == nil {
			firstErr = dispatchErr
		}
	}

	for _, c := range contacts {
		if w.isHidden(c.a) || w.isHidden(c.b) {
			continue
		}
		report(c.a, c.b, safeCall(c.a, c.b, c.penetration))
		report(c.b, c.a, safeCall(c.b, c.a, c.penetration.Neg()))
		w.publish(event.NewCollisionEvent(w, c.a, c.b, c.layerA, c.layerB, c.penetration))
	}
	return failures, firstErr
}

func (w *World) isHidden(a Actor) bool {
	_, hidden := w.hidden[a]
	return hidden
}

func safeCall(actor, other Actor, penetration physics.Vector2D) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return actor.OnCollision(other, penetration)
}
