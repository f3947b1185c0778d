package manip

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatePivot(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	handles, err := NewHandles("test", m.Skeleton, m.BoneWeights(), []string{"arm", "hand", "root"})
	require.NoError(t, err)
	centers := m.BoneCenters()

	t.Run("midpoint shifted by grab offset", func(t *testing.T) {
		t.Parallel()
		// marker (20,0), arm's parent is root at (0,-10).
		p, err := EstimatePivot(orthoProjector{}, m.Skeleton, centers, handles[0], mgl64.Vec2{21, 1})
		require.NoError(t, err)
		assert.InDelta(t, 11, p[0], 1e-12)
		assert.InDelta(t, -4, p[1], 1e-12)
	})

	t.Run("unskinned parent falls back to ancestor", func(t *testing.T) {
		t.Parallel()
		cs := append([]mgl64.Vec3(nil), centers...)
		cs[1] = mgl64.Vec3{}
		p, err := EstimatePivot(orthoProjector{}, m.Skeleton, cs, handles[1], mgl64.Vec2{20, 0})
		require.NoError(t, err)
		assert.InDelta(t, 10, p[0], 1e-12)
		assert.InDelta(t, -5, p[1], 1e-12)
	})

	t.Run("root handle is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := EstimatePivot(orthoProjector{}, m.Skeleton, centers, handles[2], mgl64.Vec2{20, 0})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRootHandle))
	})
}
