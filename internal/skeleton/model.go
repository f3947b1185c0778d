package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Influence binds a vertex to one bone with a blend weight.
type Influence struct {
	Bone   int
	Weight float64
}

// Mesh holds skinned geometry. Bind holds the rest-pose positions in model
// space; World is rewritten by Model.ApplyBoneMotion.
type Mesh struct {
	Name       string
	Bind       []mgl64.Vec3
	Influences [][4]Influence
	World      []mgl64.Vec3
}

// Model is a skinned character: a skeleton, its meshes and the placement of
// the whole mesh group in the scene.
type Model struct {
	Name     string
	Skeleton *Skeleton
	Meshes   []Mesh

	Position mgl64.Vec3
	Rotation mgl64.Quat

	invBind []mgl64.Mat4
	worlds  []mgl64.Mat4
}

// NewModel captures the current skeleton pose as the bind pose and computes
// the initial world-space vertices.
func NewModel(name string, skel *Skeleton, meshes []Mesh) *Model {
	m := &Model{
		Name:     name,
		Skeleton: skel,
		Meshes:   meshes,
		Rotation: mgl64.QuatIdent(),
	}
	bind := skel.BuildWorldMatrices()
	m.invBind = make([]mgl64.Mat4, len(bind))
	for i, w := range bind {
		m.invBind[i] = w.Inv()
	}
	m.ApplyBoneMotion()
	return m
}

// Transform returns the model-to-world matrix.
func (m *Model) Transform() mgl64.Mat4 {
	t := mgl64.Translate3D(m.Position[0], m.Position[1], m.Position[2])
	return t.Mul4(m.Rotation.Normalize().Mat4())
}

// ApplyBoneMotion re-evaluates forward kinematics and linear blend skinning,
// refreshing every mesh's World positions.
func (m *Model) ApplyBoneMotion() {
	m.worlds = m.Skeleton.BuildWorldMatrices()
	place := m.Transform()

	skin := make([]mgl64.Mat4, len(m.worlds))
	for i := range m.worlds {
		skin[i] = place.Mul4(m.worlds[i].Mul4(m.invBind[i]))
	}

	for mi := range m.Meshes {
		mesh := &m.Meshes[mi]
		if len(mesh.World) != len(mesh.Bind) {
			mesh.World = make([]mgl64.Vec3, len(mesh.Bind))
		}
		for vi, v := range mesh.Bind {
			var out mgl64.Vec3
			var total float64
			if vi < len(mesh.Influences) {
				for _, inf := range mesh.Influences[vi] {
					if inf.Weight <= 0 || inf.Bone < 0 || inf.Bone >= len(skin) {
						continue
					}
					out = out.Add(skin[inf.Bone].Mul4x1(v.Vec4(1)).Vec3().Mul(inf.Weight))
					total += inf.Weight
				}
			}
			if total <= 0 {
				// Unskinned vertices follow the model placement only.
				mesh.World[vi] = place.Mul4x1(v.Vec4(1)).Vec3()
				continue
			}
			mesh.World[vi] = out.Mul(1 / total)
		}
	}
}

// BoneWorldPositions returns the world-space origin of every bone for the
// pose last evaluated by ApplyBoneMotion.
func (m *Model) BoneWorldPositions() []mgl64.Vec3 {
	place := m.Transform()
	out := make([]mgl64.Vec3, len(m.worlds))
	for i, w := range m.worlds {
		out[i] = place.Mul4(w).Col(3).Vec3()
	}
	return out
}

// Yaw rotates the whole model about its local Y axis by deg degrees.
func (m *Model) Yaw(deg float64) {
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{0, 1, 0})
	m.Rotation = m.Rotation.Mul(q).Normalize()
}

// Pitch rotates the whole model about its local X axis by deg degrees.
func (m *Model) Pitch(deg float64) {
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{1, 0, 0})
	m.Rotation = m.Rotation.Mul(q).Normalize()
}

// InverseBindMatrices returns a copy of the inverse bind pose matrices,
// indexed by bone id.
func (m *Model) InverseBindMatrices() []mgl64.Mat4 {
	return append([]mgl64.Mat4(nil), m.invBind...)
}

// SetInverseBindMatrices replaces the bind pose, for assets that store it
// apart from the rest pose, and re-skins the meshes. inv must hold one
// matrix per bone.
func (m *Model) SetInverseBindMatrices(inv []mgl64.Mat4) error {
	if len(inv) != m.Skeleton.Len() {
		return errors.Errorf("skeleton: %d inverse bind matrices for %d bones", len(inv), m.Skeleton.Len())
	}
	m.invBind = append(m.invBind[:0], inv...)
	m.ApplyBoneMotion()
	return nil
}

// WorldVertices returns the skinned vertices of every mesh in one slice.
func (m *Model) WorldVertices() []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, mesh := range m.Meshes {
		out = append(out, mesh.World...)
	}
	return out
}
