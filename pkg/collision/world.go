package collision

import (
	"context"
	"fmt"
	"strings"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
)

// Options configures a World
type Options struct {
	// Boundary is the region covered by each layer's index. Actors outside
	// it are still found, at linear cost.
	Boundary physics.Rect
	// Index selects and tunes the index built by AddLayer.
	Index spatial.Options
	// DefaultLayerAutoPair pairs every layer added later with the default
	// layer.
	DefaultLayerAutoPair bool
	// Logger receives frame and registry logs. Nil discards them.
	Logger *logging.Logger
	// Bus, when set, receives collision, membership and registry events.
	Bus *event.Bus
}

// DefaultOptions returns the options used by NewWorld
func DefaultOptions(boundary physics.Rect) Options {
	return Options{
		Boundary:             boundary,
		Index:                spatial.Options{Kind: spatial.KindQuadTree},
		DefaultLayerAutoPair: true,
	}
}

// World owns the layer registry, the collision matrix and the per-frame
// pipeline. It is not safe for concurrent use.
type World struct {
	opts   Options
	logger *logging.Logger
	bus    *event.Bus

	layers     map[string]*Layer
	layerOrder []string
	pairs      []layerPair
	membership map[Actor]*Layer

	phase   Phase
	pending []pendingOp
	hidden  map[Actor]struct{}

	frame uint64
	stats FrameStats
	ctx   context.Context
}

type pendingOp struct {
	actor  Actor
	insert bool
}

// NewWorld creates a world whose default layer and later layers index
// boundary, with default layer auto pairing enabled.
func NewWorld(boundary physics.Rect) *World {
	return NewWorldWithOptions(DefaultOptions(boundary))
}

// NewWorldWithOptions creates a world from opts. The default layer is
// created and paired with itself.
func NewWorldWithOptions(opts Options) *World {
	opts.Boundary = opts.Boundary.Bounds()
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	w := &World{
		opts:       opts,
		logger:     logger,
		bus:        opts.Bus,
		layers:     make(map[string]*Layer),
		membership: make(map[Actor]*Layer),
		hidden:     make(map[Actor]struct{}),
		ctx:        context.Background(),
	}
	w.layers[DefaultLayerName] = newLayer(DefaultLayerName, w.newIndex(opts.Index))
	w.layerOrder = append(w.layerOrder, DefaultLayerName)
	w.pairs = append(w.pairs, layerPair{DefaultLayerName, DefaultLayerName})
	return w
}

// NewWorldFromConfig validates cfg and builds the world it describes:
// layers, each with its own index settings, and the declared pairs.
// Bodies are not created; they belong to the host.
func NewWorldFromConfig(cfg *config.WorldConfig, logger *logging.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "build world")
	}
	w := NewWorldWithOptions(Options{
		Boundary:             cfg.Boundary.Rect(),
		Index:                cfg.Index.Options(),
		DefaultLayerAutoPair: cfg.AutoPairDefault(),
		Logger:               logger,
	})
	for _, lc := range cfg.Layers {
		opts := w.opts.Index
		if lc.Index != nil {
			opts = lc.Index.Options()
		}
		if err := w.AddLayerWithIndex(lc.Name, w.newIndex(opts)); err != nil {
			return nil, logging.WrapError(err, "build world")
		}
	}
	for _, p := range cfg.Pairs {
		if err := w.RegisterLayerPair(p.A, p.B); err != nil {
			return nil, logging.WrapError(err, "build world")
		}
	}
	return w, nil
}

func (w *World) newIndex(opts spatial.Options) spatial.Index[Actor] {
	return spatial.New[Actor](w.opts.Boundary, actorBounds, opts)
}

// SetEventBus attaches bus, or detaches the current one when bus is nil
func (w *World) SetEventBus(bus *event.Bus) {
	w.bus = bus
}

// Boundary returns the region covered by the world's indices
func (w *World) Boundary() physics.Rect {
	return w.opts.Boundary
}

// Phase returns the pipeline stage currently running
func (w *World) Phase() Phase {
	return w.phase
}

func (w *World) inPass() bool {
	return w.phase != PhaseIdle
}

func (w *World) publish(e event.Event) {
	if w.bus != nil {
		w.bus.Publish(e)
	}
}

// AddLayer registers a layer whose index, built with the world's index
// options, covers boundary.
func (w *World) AddLayer(name string, boundary physics.Rect) error {
	return w.AddLayerWithIndex(name, spatial.New[Actor](boundary, actorBounds, w.opts.Index))
}

// AddLayerWithIndex registers a layer backed by index, which must be empty
// and must read bounds through the actors' GetBounds.
func (w *World) AddLayerWithIndex(name string, index spatial.Index[Actor]) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLayerName, name)
	}
	if _, exists := w.layers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayerName, name)
	}

	w.layers[name] = newLayer(name, index)
	w.layerOrder = append(w.layerOrder, name)
	if w.opts.DefaultLayerAutoPair {
		w.addPair(DefaultLayerName, name)
	}

	w.logger.Debug(w.ctx, "layer added", "layer", name)
	w.publish(event.NewLayerEvent(event.LayerAdded, w, name))
	return nil
}

// RemoveLayer unregisters a layer, drops its members and every collision
// pair that references it.
func (w *World) RemoveLayer(name string) error {
	if w.inPass() {
		return fmt.Errorf("remove layer %q: %w", name, ErrUpdateInProgress)
	}
	if name == DefaultLayerName {
		return ErrDefaultLayer
	}
	layer, ok := w.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayerName, name)
	}

	for _, a := range layer.actors {
		delete(w.membership, a)
	}
	layer.clear()
	delete(w.layers, name)
	for i, n := range w.layerOrder {
		if n == name {
			w.layerOrder = append(w.layerOrder[:i], w.layerOrder[i+1:]...)
			break
		}
	}
	kept := w.pairs[:0]
	for _, p := range w.pairs {
		if !p.references(name) {
			kept = append(kept, p)
		}
	}
	w.pairs = kept

	w.logger.Debug(w.ctx, "layer removed", "layer", name)
	w.publish(event.NewLayerEvent(event.LayerRemoved, w, name))
	return nil
}

// Layer returns the named layer
func (w *World) Layer(name string) (*Layer, bool) {
	l, ok := w.layers[name]
	return l, ok
}

// Layers returns the layer names in registration order
func (w *World) Layers() []string {
	out := make([]string, len(w.layerOrder))
	copy(out, w.layerOrder)
	return out
}

// RegisterLayerPair makes members of a and b collide from the next update.
// Registering an existing pair, in either order, does nothing.
func (w *World) RegisterLayerPair(a, b string) error {
	for _, name := range []string{a, b} {
		if _, ok := w.layers[name]; !ok {
			return fmt.Errorf("register pair (%q, %q): %w: %q", a, b, ErrUnknownLayerName, name)
		}
	}
	w.addPair(a, b)
	return nil
}

func (w *World) addPair(a, b string) {
	for _, p := range w.pairs {
		if p.matches(a, b) {
			return
		}
	}
	w.pairs = append(w.pairs, layerPair{a, b})
}

// UnregisterLayerPair removes the pair, reporting whether it was registered
func (w *World) UnregisterLayerPair(a, b string) bool {
	for i, p := range w.pairs {
		if p.matches(a, b) {
			w.pairs = append(w.pairs[:i:i], w.pairs[i+1:]...)
			return true
		}
	}
	return false
}

// LayerPairs returns the registered pairs in registration order
func (w *World) LayerPairs() [][2]string {
	out := make([][2]string, 0, len(w.pairs))
	for _, p := range w.pairs {
		out = append(out, [2]string{p.a, p.b})
	}
	return out
}

// Insert adds actor to the layer it names. Inserting a member again does
// nothing. During an update the insert is applied once the pass completes.
// A nil actor, including a nil pointer that cannot answer GetLayerName or
// GetBounds, is rejected with ErrNilActor.
func (w *World) Insert(actor Actor) error {
	name, err := checkedLayerName(actor)
	if err != nil {
		return err
	}
	if _, ok := w.layers[name]; !ok {
		return fmt.Errorf("insert: %w: %q", ErrUnknownLayerName, name)
	}
	if w.inPass() {
		if !w.effectiveMember(actor) {
			w.pending = append(w.pending, pendingOp{actor: actor, insert: true})
		}
		return nil
	}
	w.applyInsert(actor)
	return nil
}

// Remove takes actor out of its layer, returning true on the first removal
// and false afterwards. During an update the actor disappears from queries
// and undelivered contacts at once; the index is updated after the pass.
func (w *World) Remove(actor Actor) (bool, error) {
	if actor == nil {
		return false, ErrNilActor
	}
	if !w.effectiveMember(actor) {
		name, err := checkedLayerName(actor)
		if err != nil {
			return false, err
		}
		if w.layers[name] == nil {
			return false, fmt.Errorf("remove: %w: %q", ErrUnknownLayerName, name)
		}
		return false, nil
	}
	if w.inPass() {
		if _, member := w.membership[actor]; member {
			w.hidden[actor] = struct{}{}
		}
		w.pending = append(w.pending, pendingOp{actor: actor})
		return true, nil
	}
	w.applyRemove(actor)
	return true, nil
}

// Contains reports whether actor is a member of any layer, taking removals
// and inserts made during the current update into account.
func (w *World) Contains(actor Actor) bool {
	return actor != nil && w.effectiveMember(actor)
}

// Len returns the number of member actors across all layers
func (w *World) Len() int {
	return len(w.membership)
}

// effectiveMember folds buffered operations over the committed membership.
func (w *World) effectiveMember(a Actor) bool {
	for i := len(w.pending) - 1; i >= 0; i-- {
		if w.pending[i].actor == a {
			return w.pending[i].insert
		}
	}
	if _, gone := w.hidden[a]; gone {
		return false
	}
	_, ok := w.membership[a]
	return ok
}

func (w *World) applyInsert(a Actor) {
	if _, ok := w.membership[a]; ok {
		return
	}
	layer, ok := w.layers[layerNameOf(a)]
	if !ok {
		w.logger.Warn(w.ctx, "dropping insert for unknown layer", "layer", layerNameOf(a))
		return
	}
	layer.add(a)
	w.membership[a] = layer
	w.publish(event.NewActorEvent(event.ActorInserted, w, a, layer.name))
}

func (w *World) applyRemove(a Actor) {
	layer, ok := w.membership[a]
	if !ok {
		return
	}
	layer.remove(a)
	delete(w.membership, a)
	w.publish(event.NewActorEvent(event.ActorRemoved, w, a, layer.name))
}

func (w *World) flushPending() {
	ops := w.pending
	w.pending = nil
	for _, op := range ops {
		if op.insert {
			w.applyInsert(op.actor)
		} else {
			w.applyRemove(op.actor)
		}
	}
	clear(w.hidden)
}
