// Package scene loads punctual lights and reflection probes from glTF files.
//
// Lights come from the KHR_lights_punctual extension. Probes are nodes whose
// extras hold {"reflectionProbe": {"extents": [x, y, z]}}; the box half
// extents are given in node space and follow the node's world transform.
package scene

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"

	"github.com/taigrr/tilecull/pkg/math3d"
	"github.com/taigrr/tilecull/pkg/tiling"
)

// Scene is the set of light and probe volumes found in a document, in world
// space.
type Scene struct {
	Lights     []tiling.Light
	LightNames []string
	Probes     []tiling.Probe
	ProbeNames []string
}

// Loader converts glTF documents into scenes.
type Loader struct {
	// DefaultRange replaces a missing or infinite light range, which has no
	// tile bound.
	DefaultRange float64
}

// NewLoader creates a loader with default options.
func NewLoader() *Loader {
	return &Loader{DefaultRange: 10}
}

// Load opens a glTF or GLB file with the default loader.
func Load(path string) (*Scene, error) {
	return NewLoader().Load(path)
}

// Load opens a glTF or GLB file and collects its lights and probes.
func (l *Loader) Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.FromDocument(doc)
}

const probeExtrasKey = "reflectionProbe"

type probeDef struct {
	Extents [3]float64 `json:"extents"`
}

// decodeExtras re-encodes an already decoded extras value into a typed
// value. It reports false when v is nil.
func decodeExtras(v any, dst any) (bool, error) {
	if v == nil {
		return false, nil
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return false, err
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// FromDocument walks the default scene of doc, or every root node when the
// document has no scenes.
func (l *Loader) FromDocument(doc *gltf.Document) (*Scene, error) {
	var defs lightspunctual.Lights
	if ext, ok := doc.Extensions[lightspunctual.ExtensionName]; ok {
		if defs, ok = ext.(lightspunctual.Lights); !ok {
			return nil, fmt.Errorf("%s: unexpected extension value %T", lightspunctual.ExtensionName, ext)
		}
	}

	w := walker{loader: l, doc: doc, defs: defs, scene: &Scene{}, visiting: make([]bool, len(doc.Nodes))}
	for _, root := range rootNodes(doc) {
		if err := w.visit(root, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	return w.scene, nil
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

type walker struct {
	loader   *Loader
	doc      *gltf.Document
	defs     lightspunctual.Lights
	scene    *Scene
	visiting []bool
}

func (w *walker) visit(index int, parent math3d.Mat4) error {
	if index < 0 || index >= len(w.doc.Nodes) {
		return fmt.Errorf("node %d: index out of range", index)
	}
	if w.visiting[index] {
		return fmt.Errorf("node %d: cycle in node hierarchy", index)
	}
	w.visiting[index] = true
	defer func() { w.visiting[index] = false }()

	node := w.doc.Nodes[index]
	world := parent.Mul(localTransform(node))

	if err := w.addLight(index, node, world); err != nil {
		return err
	}
	if err := w.addProbe(index, node, world); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := w.visit(child, world); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) addLight(index int, node *gltf.Node, world math3d.Mat4) error {
	ext, ok := node.Extensions[lightspunctual.ExtensionName]
	if !ok {
		return nil
	}
	ref, ok := ext.(lightspunctual.LightIndex)
	if !ok {
		return fmt.Errorf("node %d: unexpected light reference %T", index, ext)
	}
	li := int(ref)
	if li < 0 || li >= len(w.defs) || w.defs[li] == nil {
		return fmt.Errorf("node %d: light %d out of range", index, li)
	}
	def := w.defs[li]

	light := tiling.Light{
		Position:  world.Translation(),
		Direction: world.MulDir(math3d.V3(0, 0, -1)).Normalize(),
		Range:     w.loader.DefaultRange,
	}
	if def.Range != nil && !math.IsInf(*def.Range, 0) {
		light.Range = *def.Range
	}
	switch def.Type {
	case lightspunctual.TypeDirectional:
		light.Type = tiling.Directional
	case lightspunctual.TypePoint:
		light.Type = tiling.Point
	case lightspunctual.TypeSpot:
		light.Type = tiling.Spot
		var spot lightspunctual.Spot
		if def.Spot != nil {
			spot = *def.Spot
		}
		light.SpotAngle = 2 * spot.OuterConeAngleOrDefault() * 180 / math.Pi
	default:
		return fmt.Errorf("node %d: light %d has unknown type %q", index, li, def.Type)
	}

	name := def.Name
	if name == "" {
		name = node.Name
	}
	w.scene.Lights = append(w.scene.Lights, light)
	w.scene.LightNames = append(w.scene.LightNames, name)
	return nil
}

func (w *walker) addProbe(index int, node *gltf.Node, world math3d.Mat4) error {
	// Extras are free-form; only a malformed probe entry is an error.
	var extras map[string]json.RawMessage
	if ok, err := decodeExtras(node.Extras, &extras); err != nil || !ok {
		return nil
	}
	raw, ok := extras[probeExtrasKey]
	if !ok {
		return nil
	}
	var def probeDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return fmt.Errorf("node %d: decode reflection probe: %w", index, err)
	}

	e := def.Extents
	probe := tiling.Probe{
		Center: world.Translation(),
		Axes: [3]math3d.Vec3{
			world.MulDir(math3d.V3(e[0], 0, 0)),
			world.MulDir(math3d.V3(0, e[1], 0)),
			world.MulDir(math3d.V3(0, 0, e[2])),
		},
	}
	w.scene.Probes = append(w.scene.Probes, probe)
	w.scene.ProbeNames = append(w.scene.ProbeNames, node.Name)
	return nil
}

// localTransform returns the node matrix, or its TRS composition when no
// matrix is set.
func localTransform(n *gltf.Node) math3d.Mat4 {
	m := math3d.Mat4(n.Matrix)
	if m != (math3d.Mat4{}) && m != math3d.Identity() {
		return m
	}

	t := math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2])
	r := math3d.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]}
	if r == (math3d.Quat{}) {
		r = math3d.QuatIdentity()
	}
	s := math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	if s == (math3d.Vec3{}) {
		s = math3d.V3(1, 1, 1)
	}
	return math3d.FromTRS(t, r, s)
}
