package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	table := Default()
	assert.Equal(t, []ID{"bird", "dog", "miku", "robot", "treasure", "tv"}, table.IDs())

	miku, err := table.Profile("miku")
	require.NoError(t, err)
	assert.Equal(t, []string{"left_hair1", "right_hair1", "left_arm", "right_arm", "left_leg", "right_leg"}, miku.Bones)
	assert.Nil(t, miku.Constraint)

	treasure, err := table.Profile("treasure")
	require.NoError(t, err)
	require.NotNil(t, treasure.Constraint)
	assert.Equal(t, [3]float64{0, 0, 1}, treasure.Constraint.Axis)
	assert.Equal(t, -90.0, treasure.Constraint.MinDeg)
	assert.Equal(t, 60.0, treasure.Constraint.MaxDeg)

	dog, err := table.Profile("dog")
	require.NoError(t, err)
	assert.Contains(t, dog.Bones, "尻尾1")
}

func TestProfileIsCopy(t *testing.T) {
	t.Parallel()

	table := Default()
	p, err := table.Profile("treasure")
	require.NoError(t, err)
	p.Bones[0] = "mutated"
	p.Constraint.MaxDeg = 1000

	again, err := table.Profile("treasure")
	require.NoError(t, err)
	assert.Equal(t, "Bone002", again.Bones[0])
	assert.Equal(t, 60.0, again.Constraint.MaxDeg)
}

func TestUnknownModel(t *testing.T) {
	t.Parallel()

	_, err := Default().Profile("dragon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no bones":     "x:\n  bones: []\n",
		"min over max": "x:\n  bones: [a]\n  constraint: {axis: [0,0,1], min_deg: 10, max_deg: -10}\n",
		"zero axis":    "x:\n  bones: [a]\n  constraint: {axis: [0,0,0], min_deg: -10, max_deg: 10}\n",
		"bad yaml":     "x: [",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chest:\n  bones: [lid]\n"), 0644))

	table, err := Load(path)
	require.NoError(t, err)
	p, err := table.Profile("chest")
	require.NoError(t, err)
	assert.Equal(t, ID("chest"), p.ID)
	assert.Equal(t, []string{"lid"}, p.Bones)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
