package document

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/scene"
)

// GlassType is the distance-sorted type used by the sample.
const GlassType = "Glass"

// NewSampleDescription returns a small furnished room: grouped transforms,
// a hierarchy-only shade, a glass pane and a layer holding the props.
func NewSampleDescription() *Description {
	return &Description{
		Name: "Sample Room",
		Types: []TypeDef{
			{Name: GlassType, Kind: scene.KindTransform.String(), Image: 4, DistanceSort: true},
		},
		Objects: []Object{
			{
				Key:   "props",
				Type:  scene.TypeLayer,
				Name:  "Props",
				Color: &mgl64.Vec4{0.91, 0.27, 0.38, 1},
			},
			{
				Key:  "floor",
				Type: scene.TypeTransform,
				Name: "Floor",
				Bounds: &Bounds{
					Min: mgl64.Vec3{-5, -0.1, -5},
					Max: mgl64.Vec3{5, 0, 5},
				},
			},
			{
				Key:       "table",
				Type:      scene.TypeTransform,
				Name:      "Table",
				Parent:    ref("floor"),
				Layer:     ref("props"),
				Transform: &Transform{Translate: mgl64.Vec3{0, 0, 0}},
				Bounds: &Bounds{
					Min: mgl64.Vec3{-2, 0, -1},
					Max: mgl64.Vec3{2, 1, 1},
				},
			},
			{
				Key:       "lamp",
				Type:      scene.TypeTransform,
				Name:      "Lamp",
				Parent:    ref("table"),
				Transform: &Transform{Translate: mgl64.Vec3{1, 1, 0}},
				Bounds: &Bounds{
					Min: mgl64.Vec3{-0.1, 0, -0.1},
					Max: mgl64.Vec3{0.1, 0.8, 0.1},
				},
			},
			{
				Key:    "shade",
				Type:   scene.TypeHierarchyNode,
				Name:   "Shade",
				Parent: ref("lamp"),
				Bounds: &Bounds{
					Min: mgl64.Vec3{-0.3, 0.6, -0.3},
					Max: mgl64.Vec3{0.3, 1, 0.3},
				},
			},
			{
				Key:    "chair",
				Type:   scene.TypeTransform,
				Name:   "Chair",
				Parent: ref("floor"),
				Layer:  ref("props"),
				Transform: &Transform{
					Translate: mgl64.Vec3{3, 0, 0},
					Rotate:    mgl64.Vec3{0, 0.5, 0},
				},
				Bounds: &Bounds{
					Min: mgl64.Vec3{-0.5, 0, -0.5},
					Max: mgl64.Vec3{0.5, 1.2, 0.5},
				},
			},
			{
				Key:       "window",
				Type:      GlassType,
				Name:      "Window",
				Transform: &Transform{Translate: mgl64.Vec3{0, 2, -4}, Scale: mgl64.Vec3{2, 1, 0.05}},
				Bounds: &Bounds{
					Min: mgl64.Vec3{-1, -1, -1},
					Max: mgl64.Vec3{1, 1, 1},
				},
			},
		},
	}
}
