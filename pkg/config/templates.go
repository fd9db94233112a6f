// pkg/config/templates.go
package config

import "sort"

// ScenarioTemplate is a named, ready-to-run world configuration
type ScenarioTemplate struct {
	Name        string
	Description string
	Config      func() *WorldConfig
}

var scenarioTemplates = map[string]ScenarioTemplate{
	"head_on": {
		Name:        "Head On",
		Description: "two circles on the default layer closing on each other",
		Config: func() *WorldConfig {
			c := DefaultConfig()
			c.Bodies = []BodyConfig{
				{Name: "left", Shape: ShapeConfig{Kind: "circle", X: -20, Radius: 4}, Velocity: VectorConfig{X: 2}},
				{Name: "right", Shape: ShapeConfig{Kind: "circle", X: 20, Radius: 4}, Velocity: VectorConfig{X: -2}},
			}
			return c
		},
	},
	"walls": {
		Name:        "Walls",
		Description: "movers on the default layer bouncing inside static walls",
		Config: func() *WorldConfig {
			c := DefaultConfig()
			c.Bodies = []BodyConfig{
				{Name: "north", Layer: "static", Shape: ShapeConfig{Kind: "rect", Y: -100, Width: 220, Height: 10}},
				{Name: "south", Layer: "static", Shape: ShapeConfig{Kind: "rect", Y: 100, Width: 220, Height: 10}},
				{Name: "west", Layer: "static", Shape: ShapeConfig{Kind: "rect", X: -100, Width: 10, Height: 220}},
				{Name: "east", Layer: "static", Shape: ShapeConfig{Kind: "rect", X: 100, Width: 10, Height: 220}},
				{Name: "ball", Shape: ShapeConfig{Kind: "circle", Radius: 6}, Velocity: VectorConfig{X: 5, Y: 3}},
				{Name: "crate", Shape: ShapeConfig{Kind: "oriented_rect", X: 30, Y: 30, Width: 12, Height: 8, Rotation: 30}, Velocity: VectorConfig{X: -4, Y: 2}},
			}
			return c
		},
	},
	"layered": {
		Name:        "Layered",
		Description: "players and pickups that only meet each other, never their own kind",
		Config: func() *WorldConfig {
			autoPair := false
			c := DefaultConfig()
			c.DefaultLayerAutoPair = &autoPair
			c.Index.Kind = "grid"
			c.Layers = []LayerConfig{{Name: "players"}, {Name: "pickups"}}
			c.Pairs = []PairConfig{{A: "players", B: "pickups"}}
			c.Bodies = []BodyConfig{
				{Name: "p1", Layer: "players", Shape: ShapeConfig{Kind: "rect", X: -30, Width: 8, Height: 8}, Velocity: VectorConfig{X: 3}},
				{Name: "p2", Layer: "players", Shape: ShapeConfig{Kind: "rect", X: -30, Y: 2, Width: 8, Height: 8}, Velocity: VectorConfig{X: 3}},
				{Name: "coin", Layer: "pickups", Shape: ShapeConfig{Kind: "circle", X: 10, Radius: 3}},
			}
			return c
		},
	},
}

// GetScenarioTemplate returns a fresh copy of the named template's
// configuration, or nil if the name is unknown.
func GetScenarioTemplate(name string) *WorldConfig {
	t, ok := scenarioTemplates[name]
	if !ok {
		return nil
	}
	return t.Config()
}

// ListScenarioTemplates returns the template names in sorted order
func ListScenarioTemplates() []string {
	names := make([]string, 0, len(scenarioTemplates))
	for name := range scenarioTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DescribeScenarioTemplate returns the display name and description of a
// template.
func DescribeScenarioTemplate(name string) (string, string, bool) {
	t, ok := scenarioTemplates[name]
	return t.Name, t.Description, ok
}
