// Package rigio loads and saves skinned rigs as glTF and builds the
// procedural demo rigs used when no asset is given.
package rigio

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/skeleton"
)

// SyntheticRoot names the bone inserted when a skin has several root joints.
const SyntheticRoot = "(root)"

// Load reads a .gltf or .glb file and returns its first skin as a model.
func Load(path string) (*skeleton.Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "rigio: open %s", path)
	}
	m, err := FromDocument(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "rigio: %s", path)
	}
	return m, nil
}

// Decode reads a glTF document from r.
func Decode(r io.Reader) (*skeleton.Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "rigio: decode")
	}
	return FromDocument(doc)
}

// FromDocument converts the first skin of doc and every mesh bound to it.
// Bone ids follow the skin's joint order and node scale is ignored. The
// skin's inverse bind matrices define the bind pose; without them the node
// pose is taken as the bind pose.
func FromDocument(doc *gltf.Document) (*skeleton.Model, error) {
	if len(doc.Skins) == 0 {
		return nil, errors.New("rigio: document has no skin")
	}
	skin := doc.Skins[0]
	if len(skin.Joints) == 0 {
		return nil, errors.New("rigio: skin has no joints")
	}

	parentOf := make(map[uint32]uint32, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parentOf[c] = uint32(i)
		}
	}
	boneOf := make(map[uint32]int, len(skin.Joints))
	for i, j := range skin.Joints {
		if int(j) >= len(doc.Nodes) {
			return nil, errors.Errorf("rigio: joint %d references missing node %d", i, j)
		}
		boneOf[j] = i
	}

	bones := make([]skeleton.Bone, len(skin.Joints))
	var roots []int
	for i, j := range skin.Joints {
		n := doc.Nodes[j]
		b := skeleton.Bone{
			Name:         n.Name,
			Parent:       skeleton.NoParent,
			BindPosition: mathutil.FromFloat32(n.Translation),
			Rotation:     quat(n.Rotation),
		}
		// The nearest ancestor node that is also a joint is the parent bone.
		node, ok := j, true
		for depth := 0; depth < skeleton.MaxDepth; depth++ {
			if node, ok = parentOf[node]; !ok {
				break
			}
			if p, isJoint := boneOf[node]; isJoint {
				b.Parent = p
				break
			}
		}
		if b.Parent == skeleton.NoParent {
			roots = append(roots, i)
		}
		bones[i] = b
	}
	if len(roots) > 1 {
		root := len(bones)
		bones = append(bones, skeleton.Bone{Name: SyntheticRoot, Parent: skeleton.NoParent})
		for _, r := range roots {
			bones[r].Parent = root
		}
	}

	skel, err := skeleton.New(bones)
	if err != nil {
		return nil, err
	}

	var meshes []skeleton.Mesh
	for _, n := range doc.Nodes {
		if n.Mesh == nil || n.Skin == nil || *n.Skin != 0 {
			continue
		}
		if int(*n.Mesh) >= len(doc.Meshes) {
			return nil, errors.Errorf("rigio: node %q references missing mesh %d", n.Name, *n.Mesh)
		}
		gm := doc.Meshes[*n.Mesh]
		for pi, prim := range gm.Primitives {
			mesh, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, errors.Wrapf(err, "rigio: mesh %q primitive %d", gm.Name, pi)
			}
			mesh.Name = gm.Name
			meshes = append(meshes, mesh)
		}
	}
	if len(meshes) == 0 {
		return nil, errors.New("rigio: no mesh is bound to the skin")
	}

	name := ""
	if len(doc.Scenes) > 0 {
		name = doc.Scenes[0].Name
	}
	m := skeleton.NewModel(name, skel, meshes)
	if skin.InverseBindMatrices != nil {
		inv, err := readInverseBind(doc, *skin.InverseBindMatrices, skel.Len())
		if err != nil {
			return nil, err
		}
		if err := m.SetInverseBindMatrices(inv); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// readInverseBind reads one matrix per joint. Bones past the joint list
// (the synthetic root) keep the identity.
func readInverseBind(doc *gltf.Document, idx uint32, bones int) ([]mgl64.Mat4, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, errors.Errorf("rigio: missing inverse bind accessor %d", idx)
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[idx], nil)
	if err != nil {
		return nil, errors.Wrap(err, "rigio: inverse bind matrices")
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, errors.Errorf("rigio: inverse bind matrices have type %T", data)
	}

	out := make([]mgl64.Mat4, bones)
	for i := range out {
		if i >= len(mats) {
			out[i] = mgl64.Ident4()
			continue
		}
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c*4+r] = float64(mats[i][c][r])
			}
		}
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (skeleton.Mesh, error) {
	var mesh skeleton.Mesh

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh, errors.New("missing POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return mesh, errors.Wrap(err, "POSITION")
	}
	mesh.Bind = make([]mgl64.Vec3, len(positions))
	for i, p := range positions {
		mesh.Bind[i] = mathutil.FromFloat32(p)
	}

	jIdx, hasJoints := prim.Attributes[gltf.JOINTS_0]
	wIdx, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if !hasJoints || !hasWeights {
		return mesh, nil
	}
	joints, err := modeler.ReadJoints(doc, doc.Accessors[jIdx], nil)
	if err != nil {
		return mesh, errors.Wrap(err, "JOINTS_0")
	}
	weights, err := modeler.ReadWeights(doc, doc.Accessors[wIdx], nil)
	if err != nil {
		return mesh, errors.Wrap(err, "WEIGHTS_0")
	}
	if len(joints) != len(positions) || len(weights) != len(positions) {
		return mesh, errors.Errorf("attribute counts differ: %d positions, %d joints, %d weights", len(positions), len(joints), len(weights))
	}

	mesh.Influences = make([][4]skeleton.Influence, len(positions))
	for vi := range positions {
		for k := 0; k < 4; k++ {
			mesh.Influences[vi][k] = skeleton.Influence{Bone: int(joints[vi][k]), Weight: float64(weights[vi][k])}
		}
	}
	return mesh, nil
}

// Export writes m as a binary glTF with the current bone rotations as the
// node pose. Vertices are written in bind pose.
func Export(w io.Writer, m *skeleton.Model) error {
	doc := gltf.NewDocument()
	doc.Scenes[0].Name = m.Name

	skel := m.Skeleton
	joints := make([]uint32, skel.Len())
	for i, b := range skel.Bones {
		joints[i] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: f32x3(b.BindPosition),
			Rotation:    f32x4(b.Rotation),
			Scale:       [3]float32{1, 1, 1},
		})
	}
	for i, b := range skel.Bones {
		for _, c := range b.Children {
			doc.Nodes[joints[i]].Children = append(doc.Nodes[joints[i]].Children, joints[c])
		}
	}

	ibm := make([][4][4]float32, skel.Len())
	for i, inv := range m.InverseBindMatrices() {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				ibm[i][c][r] = float32(inv[c*4+r])
			}
		}
	}
	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                m.Name,
		Joints:              joints,
		Skeleton:            gltf.Index(joints[skel.Root()]),
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, ibm)),
	})

	gm := &gltf.Mesh{Name: m.Name}
	for _, mesh := range m.Meshes {
		positions := make([][3]float32, len(mesh.Bind))
		jointIDs := make([][4]uint16, len(mesh.Bind))
		weights := make([][4]float32, len(mesh.Bind))
		for vi, v := range mesh.Bind {
			positions[vi] = f32x3(v)
			if vi >= len(mesh.Influences) {
				continue
			}
			for k, inf := range mesh.Influences[vi] {
				if inf.Weight <= 0 {
					continue
				}
				jointIDs[vi][k] = uint16(inf.Bone)
				weights[vi][k] = float32(inf.Weight)
			}
		}
		gm.Primitives = append(gm.Primitives, &gltf.Primitive{
			Mode: gltf.PrimitivePoints,
			Attributes: map[string]uint32{
				gltf.POSITION:  modeler.WritePosition(doc, positions),
				gltf.JOINTS_0:  modeler.WriteJoints(doc, jointIDs),
				gltf.WEIGHTS_0: modeler.WriteWeights(doc, weights),
			},
		})
	}
	doc.Meshes = append(doc.Meshes, gm)
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: m.Name,
		Mesh: gltf.Index(0),
		Skin: gltf.Index(0),
	})

	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, joints[skel.Root()], uint32(len(doc.Nodes)-1))

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(doc), "rigio: encode")
}

// quat converts a glTF (x, y, z, w) rotation. The zero value is identity.
func quat(r [4]float32) mgl64.Quat {
	if r == ([4]float32{}) {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: float64(r[3]), V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])}}.Normalize()
}

func f32x3(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func f32x4(q mgl64.Quat) [4]float32 {
	return [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)}
}
