package rigio

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rig-poser/internal/mathutil"
	"rig-poser/internal/models"
)

func TestDemoMatchesProfiles(t *testing.T) {
	t.Parallel()

	table := models.Default()
	for _, id := range table.IDs() {
		p, err := table.Profile(id)
		require.NoError(t, err)

		m, err := Demo(p)
		require.NoError(t, err, id)
		assert.Equal(t, 1+2*len(p.Bones), m.Skeleton.Len())

		weights := m.BoneWeights()
		centers := m.BoneCenters()
		for _, name := range p.Bones {
			id, ok := m.Skeleton.BoneByName(name)
			require.True(t, ok, name)
			assert.Greater(t, weights[id], 0.0)
			assert.False(t, mathutil.IsZero(centers[id]))
		}
		assert.False(t, mathutil.IsZero(centers[0]), "torso centroid must not be the sentinel")
	}
}

func TestDemoRejectsEmptyProfile(t *testing.T) {
	t.Parallel()

	_, err := Demo(models.Profile{ID: "empty"})
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := models.Default().Profile("treasure")
	require.NoError(t, err)
	m, err := Demo(p)
	require.NoError(t, err)

	lid, ok := m.Skeleton.BoneByName("Bone002")
	require.True(t, ok)
	pose := mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1})
	m.Skeleton.SetLocalRotation(lid, pose)
	m.ApplyBoneMotion()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, m))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "treasure", got.Name)
	require.Equal(t, m.Skeleton.Len(), got.Skeleton.Len())
	for i, b := range m.Skeleton.Bones {
		gb := got.Skeleton.Bones[i]
		assert.Equal(t, b.Name, gb.Name)
		assert.Equal(t, b.Parent, gb.Parent)
		assert.True(t, b.BindPosition.ApproxEqualThreshold(gb.BindPosition, 1e-5))
	}
	assert.True(t, mathutil.QuatEqual(pose, got.Skeleton.LocalRotation(lid), 1e-6))

	require.Len(t, got.Meshes, 1)
	// The stored bind pose keeps the posed lid where it was.
	for vi, v := range m.Meshes[0].World {
		assert.True(t, v.ApproxEqualThreshold(got.Meshes[0].World[vi], 1e-4), "vertex %d", vi)
	}
	assert.Len(t, got.Meshes[0].Bind, len(m.Meshes[0].Bind))
	assert.Equal(t, m.Meshes[0].Influences[len(m.Meshes[0].Influences)-1][0].Bone, got.Meshes[0].Influences[len(got.Meshes[0].Influences)-1][0].Bone)
}

func TestFromDocumentErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode(bytes.NewBufferString(`{"asset":{"version":"2.0"}}`))
	assert.ErrorContains(t, err, "no skin")

	_, err = Load("does-not-exist.glb")
	assert.Error(t, err)
}

func TestQuatZeroIsIdentity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mgl64.QuatIdent(), quat([4]float32{}))
	q := quat([4]float32{0, 0, 0, 2})
	assert.Equal(t, mgl64.QuatIdent(), q)
}
