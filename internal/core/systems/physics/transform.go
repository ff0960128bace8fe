package physics

import (
	"math"

	"gopkg.in/yaml.v3"
)

// Transform is a 2D placement: translation, rotation in radians and a uniform scale.
// The zero value is degenerate (scale 0); use Identity for "no offset".
type Transform struct {
	Position Vec2
	Rotation float64
	Scale    float64
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// At returns a transform translated to (x, y) with no rotation and unit scale.
func At(x, y float64) Transform {
	return Transform{Position: Vec2{X: x, Y: y}, Scale: 1}
}

// Compose places child in the space of t (t ∘ child). It is associative and
// Identity is neutral on both sides.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Position: t.Position.Add(child.Position.Scale(t.Scale).Rotate(t.Rotation)),
		Rotation: t.Rotation + child.Rotation,
		Scale:    t.Scale * child.Scale,
	}
}

// ApproxEqual compares component-wise within eps.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return math.Abs(t.Position.X-o.Position.X) <= eps &&
		math.Abs(t.Position.Y-o.Position.Y) <= eps &&
		math.Abs(t.Rotation-o.Rotation) <= eps &&
		math.Abs(t.Scale-o.Scale) <= eps
}

// transformDoc is the scene representation: {x, y, rotation, scale}.
type transformDoc struct {
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	Rotation float64  `yaml:"rotation"`
	Scale    *float64 `yaml:"scale"`
}

// UnmarshalYAML decodes {x, y, rotation, scale}; a missing scale means 1 so
// that an empty mapping is the identity.
func (t *Transform) UnmarshalYAML(node *yaml.Node) error {
	var doc transformDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	t.Position = Vec2{X: doc.X, Y: doc.Y}
	t.Rotation = doc.Rotation
	t.Scale = 1
	if doc.Scale != nil {
		t.Scale = *doc.Scale
	}
	return nil
}
