package scene

import (
	"fmt"
	"slices"
)

// Built-in type names.
const (
	TypeSceneNode     = "SceneNode"
	TypeHierarchyNode = "HierarchyNode"
	TypeTransform     = "Transform"
	TypeLayer         = "Layer"
)

// NodeType is the metadata shared by every node of one type: display name,
// kind, icon and the registry of live instances.
type NodeType struct {
	Name       string
	Kind       Kind
	ImageIndex int

	instances idSet
	counter   int
}

// Instances returns the IDs of the type's nodes currently in a scene.
func (t *NodeType) Instances() []ID { return t.instances.Slice() }

// InstanceCount returns the number of live instances.
func (t *NodeType) InstanceCount() int { return t.instances.Len() }

// nextName generates the default display name: the type name followed by a
// per-type counter.
func (t *NodeType) nextName() string {
	t.counter++
	return fmt.Sprintf("%s%d", t.Name, t.counter)
}

// TypeRegistry maps type names to NodeTypes. Each Scene owns one.
type TypeRegistry struct {
	types map[string]*NodeType
	order []string
}

// NewTypeRegistry returns a registry holding the built-in types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]*NodeType)}
	r.mustRegister(TypeSceneNode, KindNode, 0)
	r.mustRegister(TypeHierarchyNode, KindHierarchy, 1)
	r.mustRegister(TypeTransform, KindTransform, 2)
	r.mustRegister(TypeLayer, KindLayer, 3)
	return r
}

func (r *TypeRegistry) mustRegister(name string, kind Kind, image int) {
	if _, err := r.Register(name, kind, image); err != nil {
		panic(err)
	}
}

// Register adds a type. Custom types reuse one of the built-in kinds for
// evaluation and are told apart by name for drawing.
func (r *TypeRegistry) Register(name string, kind Kind, imageIndex int) (*NodeType, error) {
	if name == "" || kind >= kindCount {
		return nil, fmt.Errorf("register type %q: %w", name, ErrUnknownType)
	}
	if _, ok := r.types[name]; ok {
		return nil, fmt.Errorf("register type %q: %w", name, ErrDuplicateType)
	}
	t := &NodeType{Name: name, Kind: kind, ImageIndex: imageIndex}
	r.types[name] = t
	r.order = append(r.order, name)
	return t, nil
}

func (r *TypeRegistry) Lookup(name string) (*NodeType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns the registered types in registration order.
func (r *TypeRegistry) Types() []*NodeType {
	out := make([]*NodeType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Names returns the registered type names sorted.
func (r *TypeRegistry) Names() []string {
	out := slices.Clone(r.order)
	slices.Sort(out)
	return out
}
