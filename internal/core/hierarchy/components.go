package hierarchy

import (
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
)

// Scene keys of the load-time records.
const (
	TempIDKey     = "parent_id"
	TempParentKey = "parent"
)

// TempID names an entity so others can refer to it before ids exist.
// It only lives between scene decoding and resolution.
type TempID struct {
	Name string `yaml:"name"`
}

// TempParent asks for a Parent link to the entity whose TempID is Parent.
// It only lives between scene decoding and resolution.
type TempParent struct {
	Parent string            `yaml:"parent"`
	Offset physics.Transform `yaml:"offset"`
}

// UnmarshalYAML defaults a missing offset to the identity.
func (p *TempParent) UnmarshalYAML(node *yaml.Node) error {
	type plain TempParent
	v := plain{Offset: physics.Identity()}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = TempParent(v)
	return nil
}

// Parent links an entity to its parent. Offset is the entity's transform in
// the parent's space. Entity is a lookup key, not an ownership relation: it
// may dangle once the parent is despawned.
type Parent struct {
	Entity models.EntityID
	Offset physics.Transform
}

// ParentedContext describes one resolved link.
type ParentedContext struct {
	Parent models.EntityID
	Child  models.EntityID
}
