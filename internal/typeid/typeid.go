package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixNode      = "node"
	PrefixHierarchy = "hier"
	PrefixTransform = "xform"
	PrefixLayer     = "layer"
	PrefixScene     = "scene"
	PrefixSnapshot  = "snap"
	PrefixOp        = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewNodeID() string      { return New(PrefixNode) }
func NewHierarchyID() string { return New(PrefixHierarchy) }
func NewTransformID() string { return New(PrefixTransform) }
func NewLayerID() string     { return New(PrefixLayer) }
func NewSceneID() string     { return New(PrefixScene) }
func NewSnapshotID() string  { return New(PrefixSnapshot) }
func NewOpID() string        { return New(PrefixOp) }

// Prefix returns the type prefix of id.
func Prefix(id string) (string, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	return parsed.Prefix(), nil
}

func Validate(id, expectedPrefix string) error {
	prefix, err := Prefix(id)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, prefix, id)
	}
	return nil
}
