package manip

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandles(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	weights := m.BoneWeights()

	t.Run("resolves handle bones", func(t *testing.T) {
		t.Parallel()
		hs, err := NewHandles("test", m.Skeleton, weights, []string{"arm", "tail", "root"})
		require.NoError(t, err)
		require.Len(t, hs, 3)

		assert.Equal(t, BoneHandle{Name: "arm", Bone: 1, HandleBone: 2}, hs[0])
		// tail has no skinned vertices, so its marker sits on root.
		assert.Equal(t, 3, hs[1].Bone)
		assert.Equal(t, 0, hs[1].HandleBone)
		// root's first-child chain ends at hand.
		assert.Equal(t, 2, hs[2].HandleBone)
	})

	t.Run("unknown bone", func(t *testing.T) {
		t.Parallel()
		_, err := NewHandles("test", m.Skeleton, weights, []string{"arm", "wing"})
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "wing", cerr.Bone)
		assert.Contains(t, cerr.Error(), `model "test"`)
	})

	t.Run("no skinned bone on the chain", func(t *testing.T) {
		t.Parallel()
		_, err := NewHandles("test", m.Skeleton, make([]float64, m.Skeleton.Len()), []string{"arm"})
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "arm", cerr.Bone)
	})

	t.Run("empty profile", func(t *testing.T) {
		t.Parallel()
		_, err := NewHandles("test", m.Skeleton, weights, nil)
		assert.Error(t, err)
	})
}

func TestPlaceMarkers(t *testing.T) {
	t.Parallel()

	hs := []BoneHandle{{HandleBone: 2}, {HandleBone: 0, Highlighted: true}}
	placeMarkers(hs, []mgl64.Vec3{{1, 1, 1}, {}, {3, 3, 3}})
	assert.Equal(t, mgl64.Vec3{3, 3, 3}, hs[0].Marker)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, hs[1].Marker)
	assert.Equal(t, MarkerActive, hs[1].Color())
	assert.Equal(t, MarkerIdle, hs[0].Color())
}
