package skeleton

import "github.com/go-gl/mathgl/mgl64"

// CalculateBoneCenters returns the skin-weighted centroid of the world-space
// vertices each bone influences. Bones without any weighted vertex get the
// zero vector, which callers treat as "no directly skinned vertices".
func CalculateBoneCenters(meshes []Mesh, numBones int) []mgl64.Vec3 {
	centers, weights := accumulate(meshes, numBones)
	for i := range centers {
		if weights[i] > 0 {
			centers[i] = centers[i].Mul(1 / weights[i])
		}
	}
	return centers
}

// BoneWeights returns the total skin weight accumulated by each bone.
func BoneWeights(meshes []Mesh, numBones int) []float64 {
	_, weights := accumulate(meshes, numBones)
	return weights
}

// TODO: only the handle bones and their parents are read per frame; restrict
// the accumulation to those ids once the handle set is known.
func accumulate(meshes []Mesh, numBones int) ([]mgl64.Vec3, []float64) {
	sums := make([]mgl64.Vec3, numBones)
	weights := make([]float64, numBones)
	for mi := range meshes {
		mesh := &meshes[mi]
		for vi, infs := range mesh.Influences {
			if vi >= len(mesh.World) {
				break
			}
			p := mesh.World[vi]
			for _, inf := range infs {
				if inf.Weight <= 0 || inf.Bone < 0 || inf.Bone >= numBones {
					continue
				}
				sums[inf.Bone] = sums[inf.Bone].Add(p.Mul(inf.Weight))
				weights[inf.Bone] += inf.Weight
			}
		}
	}
	return sums, weights
}

// BoneCenters is CalculateBoneCenters over the model's current pose.
func (m *Model) BoneCenters() []mgl64.Vec3 {
	return CalculateBoneCenters(m.Meshes, m.Skeleton.Len())
}

// BoneWeights is BoneWeights over the model's meshes.
func (m *Model) BoneWeights() []float64 {
	return BoneWeights(m.Meshes, m.Skeleton.Len())
}
