package document

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Description is the JSON form of a scene used for seeding and fixtures.
// Object keys are local to the description; the scene assigns node IDs.
type Description struct {
	Name    string    `json:"name"`
	Types   []TypeDef `json:"types"`
	Objects []Object  `json:"objects"`
}

// TypeDef declares a node type beyond the built-in ones.
type TypeDef struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"` // "node", "hierarchy", "transform", "layer"
	Image        int    `json:"image"`
	DistanceSort bool   `json:"distanceSort"`
}

type Transform struct {
	Translate mgl64.Vec3 `json:"translate"`
	Rotate    mgl64.Vec3 `json:"rotate"` // radians, applied X then Y then Z
	Scale     mgl64.Vec3 `json:"scale"`  // zero means unit
}

type Bounds struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

type Object struct {
	Key       string      `json:"key"`
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Parent    *string     `json:"parent"`
	Layer     *string     `json:"layer"`
	Transform *Transform  `json:"transform,omitempty"`
	Bounds    *Bounds     `json:"bounds,omitempty"`
	Hidden    bool        `json:"hidden"`
	Live      bool        `json:"live"`
	Color     *mgl64.Vec4 `json:"color,omitempty"` // layers only
}

// Parse decodes a description from JSON.
func Parse(data []byte) (*Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	return &d, nil
}

// JSON encodes the description.
func (d *Description) JSON() ([]byte, error) {
	return json.Marshal(d)
}

func ref(key string) *string { return &key }
