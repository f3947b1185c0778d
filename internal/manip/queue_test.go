package manip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePostDrops(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	assert.True(t, q.Post(KeyDown{Key: KeyControl}))
	assert.True(t, q.Post(KeyUp{Key: KeyControl}))
	assert.False(t, q.Post(KeyDown{Key: KeyControl}))
	assert.Equal(t, 2, q.Len())
}

func TestFrameAppliesEventsBeforeUpdate(t *testing.T) {
	t.Parallel()

	e, n := newTestEngine(t, armAndTail)
	q := NewQueue(0)
	for _, ev := range []Event{KeyDown{Key: KeyControl}, down(0, 20, 0), move(10, 20, 10), up(400, 20, 10)} {
		require.True(t, q.Post(ev))
	}

	effects, err := e.Frame(q)
	require.NoError(t, err)
	require.Len(t, effects, 4)
	assert.NotNil(t, effects[1].Started)
	assert.True(t, effects[2].Rotated)
	assert.NotNil(t, effects[3].Ended)
	assert.Zero(t, q.Len())
	assert.Len(t, n.starts, 1)
	assert.Len(t, n.ends, 1)

	effects, err = e.Frame(q)
	require.NoError(t, err)
	assert.Empty(t, effects)
}
