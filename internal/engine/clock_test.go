package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/interview-backend/internal/model"
)

func TestClockTickPersistsEachSecond(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	s := f.manager.lookup(1, f.round.ID)
	require.NotNil(t, s)

	for i := 1; i <= 3; i++ {
		f.advance(time.Second)
		assert.False(t, f.manager.clockTick(s), "clock keeps running while time remains")

		rec, err := f.store.Load(ctx, 1, f.round.ID)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 600-i, rec.Remaining, "each tick writes the recomputed countdown")
	}
}

func TestClockTickSubmitsAtDeadline(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	s := f.manager.lookup(1, f.round.ID)
	require.NotNil(t, s)
	assert.True(t, f.manager.clockTick(s), "clock stops at the deadline")

	assert.Equal(t, 1, f.sink.count())
	state, err := f.manager.State(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, state.Status)
}
