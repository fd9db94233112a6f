// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/validation"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultLayerName is the layer used by bodies that name no layer.
const DefaultLayerName = "default"

// WorldConfig describes a collision world and, optionally, a scenario of
// bodies to populate it with.
type WorldConfig struct {
	Boundary             BoundaryConfig `json:"boundary" yaml:"boundary"`
	Index                IndexConfig    `json:"index" yaml:"index"`
	DefaultLayerAutoPair *bool          `json:"defaultLayerAutoPair,omitempty" yaml:"default_layer_auto_pair,omitempty"`
	Layers               []LayerConfig  `json:"layers" yaml:"layers"`
	Pairs                []PairConfig   `json:"pairs" yaml:"pairs"`
	Bodies               []BodyConfig   `json:"bodies,omitempty" yaml:"bodies,omitempty"`
}

// BoundaryConfig is the world region covered by each layer's index
type BoundaryConfig struct {
	MinX float64 `json:"minX" yaml:"min_x"`
	MinY float64 `json:"minY" yaml:"min_y"`
	MaxX float64 `json:"maxX" yaml:"max_x"`
	MaxY float64 `json:"maxY" yaml:"max_y"`
}

// IndexConfig selects and tunes the broad-phase index
type IndexConfig struct {
	Kind         string `json:"kind" yaml:"kind"`
	NodeCapacity int    `json:"nodeCapacity" yaml:"node_capacity"`
	MaxDepth     int    `json:"maxDepth" yaml:"max_depth"`
	CellSize     int    `json:"cellSize" yaml:"cell_size"`
}

// LayerConfig declares a layer. Index, when set, overrides the world index
// settings for this layer only.
type LayerConfig struct {
	Name  string       `json:"name" yaml:"name"`
	Index *IndexConfig `json:"index,omitempty" yaml:"index,omitempty"`
}

// PairConfig declares two layers whose members collide
type PairConfig struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// BodyConfig is a scenario body: a shape on a layer moving at a constant
// velocity per frame.
type BodyConfig struct {
	Name     string       `json:"name" yaml:"name"`
	Layer    string       `json:"layer,omitempty" yaml:"layer,omitempty"`
	Shape    ShapeConfig  `json:"shape" yaml:"shape"`
	Velocity VectorConfig `json:"velocity" yaml:"velocity"`
}

// ShapeConfig describes a shape. Kind is one of circle, rect or
// oriented_rect. Rotation is in degrees.
type ShapeConfig struct {
	Kind     string  `json:"kind" yaml:"kind"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Radius   float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width    float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// VectorConfig is a 2D vector
type VectorConfig struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect returns the boundary as a physics.Rect
func (b BoundaryConfig) Rect() physics.Rect {
	return physics.RectFromMinMax(physics.Vec(b.MinX, b.MinY), physics.Vec(b.MaxX, b.MaxY))
}

// Options converts the index settings for spatial.New
func (c IndexConfig) Options() spatial.Options {
	return spatial.Options{
		Kind:         spatial.Kind(strings.ToLower(c.Kind)),
		NodeCapacity: c.NodeCapacity,
		MaxDepth:     c.MaxDepth,
		CellSize:     c.CellSize,
	}
}

// Vector returns v as a physics.Vector2D
func (v VectorConfig) Vector() physics.Vector2D {
	return physics.Vec(v.X, v.Y)
}

// Shape builds the configured shape
func (s ShapeConfig) Shape() (physics.Shape, error) {
	center := physics.Vec(s.X, s.Y)
	switch strings.ToLower(s.Kind) {
	case physics.KindCircle.String():
		return physics.NewCircle(center, s.Radius), nil
	case physics.KindRect.String():
		return physics.NewRect(center, s.Width, s.Height), nil
	case physics.KindOriented.String():
		half := physics.Vec(s.Width/2, s.Height/2)
		return physics.NewOrientedRect(center, half, s.Rotation*math.Pi/180), nil
	default:
		return nil, fmt.Errorf("%w: unknown shape kind %q", ErrInvalidConfig, s.Kind)
	}
}

// AutoPairDefault reports whether every declared layer is paired with the
// default layer. Unset means true.
func (c *WorldConfig) AutoPairDefault() bool {
	return c.DefaultLayerAutoPair == nil || *c.DefaultLayerAutoPair
}

// Validate checks the configuration for internal consistency
func (c *WorldConfig) Validate() error {
	b := c.Boundary
	if err := validation.ValidateFinite([]string{"min_x", "min_y", "max_x", "max_y"}, b.MinX, b.MinY, b.MaxX, b.MaxY); err != nil {
		return fmt.Errorf("%w: boundary: %v", ErrInvalidConfig, err)
	}
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return fmt.Errorf("%w: boundary must have positive width and height", ErrInvalidConfig)
	}
	if err := c.Index.validate("index"); err != nil {
		return err
	}

	known := map[string]bool{DefaultLayerName: true}
	for i, l := range c.Layers {
		if err := validation.ValidateName("layer", l.Name); err != nil {
			return fmt.Errorf("%w: layers[%d]: %v", ErrInvalidConfig, i, err)
		}
		if known[l.Name] {
			return fmt.Errorf("%w: layer %q declared twice", ErrInvalidConfig, l.Name)
		}
		known[l.Name] = true
		if l.Index != nil {
			if err := l.Index.validate(fmt.Sprintf("layers[%d].index", i)); err != nil {
				return err
			}
		}
	}

	for i, p := range c.Pairs {
		if !known[p.A] || !known[p.B] {
			return fmt.Errorf("%w: pairs[%d] references unknown layer (%q, %q)", ErrInvalidConfig, i, p.A, p.B)
		}
	}

	for i, b := range c.Bodies {
		if b.Name != "" {
			if err := validation.ValidateName("body", b.Name); err != nil {
				return fmt.Errorf("%w: bodies[%d]: %v", ErrInvalidConfig, i, err)
			}
		}
		if b.Layer != "" && !known[b.Layer] {
			return fmt.Errorf("%w: bodies[%d] uses unknown layer %q", ErrInvalidConfig, i, b.Layer)
		}
		if _, err := b.Shape.Shape(); err != nil {
			return fmt.Errorf("bodies[%d]: %w", i, err)
		}
		if err := b.Shape.validate(); err != nil {
			return fmt.Errorf("%w: bodies[%d]: %v", ErrInvalidConfig, i, err)
		}
		if err := validation.ValidateFinite([]string{"velocity.x", "velocity.y"}, b.Velocity.X, b.Velocity.Y); err != nil {
			return fmt.Errorf("%w: bodies[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func (s ShapeConfig) validate() error {
	if err := validation.ValidateFinite([]string{"x", "y", "radius", "width", "height", "rotation"},
		s.X, s.Y, s.Radius, s.Width, s.Height, s.Rotation); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"radius", s.Radius}, {"width", s.Width}, {"height", s.Height}} {
		if err := validation.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func (c IndexConfig) validate(field string) error {
	switch spatial.Kind(strings.ToLower(c.Kind)) {
	case "", spatial.KindQuadTree, spatial.KindGrid:
	default:
		return fmt.Errorf("%w: %s.kind %q is not quadtree or grid", ErrInvalidConfig, field, c.Kind)
	}
	if c.NodeCapacity < 0 || c.MaxDepth < 0 || c.CellSize < 0 {
		return fmt.Errorf("%w: %s values must not be negative", ErrInvalidConfig, field)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a configuration from a file. Files ending in .yaml or
// .yml are parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config WorldConfig
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves a configuration to a file, in YAML or JSON by extension
func SaveConfig(config *WorldConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a world with one extra layer, "static", paired with
// the default layer, and no bodies.
func DefaultConfig() *WorldConfig {
	autoPair := true
	return &WorldConfig{
		Boundary: BoundaryConfig{MinX: -512, MinY: -512, MaxX: 512, MaxY: 512},
		Index: IndexConfig{
			Kind:         string(spatial.KindQuadTree),
			NodeCapacity: spatial.DefaultNodeCapacity,
			MaxDepth:     spatial.DefaultMaxDepth,
			CellSize:     spatial.DefaultCellSize,
		},
		DefaultLayerAutoPair: &autoPair,
		Layers:               []LayerConfig{{Name: "static"}},
		Pairs:                []PairConfig{{A: DefaultLayerName, B: "static"}},
	}
}
