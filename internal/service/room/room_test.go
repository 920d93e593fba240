package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateWaiting, "Waiting"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{State(42), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestNewRoomDefaults(t *testing.T) {
	r := newRoom("abc123", "", "session-1", "user-1")

	assert.Equal(t, "abc123", r.ID())
	assert.Equal(t, defaultRoomName, r.name)
	assert.Equal(t, StateIdle, r.state)
	assert.Equal(t, int64(0), r.currentItemID)
	assert.Contains(t, r.members, "session-1")
	assert.Len(t, r.members, 1)
}

func TestEstimatedPositionNotPlaying(t *testing.T) {
	r := newRoom("r1", "test", "session-1", "user-1")

	r.mu.Lock()
	r.state = StatePaused
	r.positionTicks = 5 * ticksPerSecond
	r.lastUpdate = time.Now().UTC().Add(-10 * time.Second)
	r.mu.Unlock()

	// position does not advance while not playing
	assert.Equal(t, 5*ticksPerSecond, r.EstimatedPositionTicks())
}

func TestEstimatedPositionPlaying(t *testing.T) {
	r := newRoom("r1", "test", "session-1", "user-1")

	r.mu.Lock()
	r.state = StatePlaying
	r.positionTicks = 5 * ticksPerSecond
	r.lastUpdate = time.Now().UTC().Add(-time.Second)
	r.mu.Unlock()

	first := r.EstimatedPositionTicks()
	require.GreaterOrEqual(t, first, 6*ticksPerSecond)

	second := r.EstimatedPositionTicks()
	assert.GreaterOrEqual(t, second, first, "estimated position must be non-decreasing")
}

func TestSnapshot(t *testing.T) {
	r := newRoom("r1", "Movie Night", "session-1", "user-1")

	r.mu.Lock()
	r.state = StatePaused
	r.currentItemID = 42
	r.positionTicks = 100
	r.mu.Unlock()

	info := r.Snapshot()
	assert.Equal(t, "r1", info.ID)
	assert.Equal(t, "Movie Night", info.Name)
	assert.Equal(t, "session-1", info.OwnerSessionID)
	assert.Equal(t, "Paused", info.State)
	assert.Equal(t, int64(42), info.CurrentItemID)
	assert.Equal(t, int64(100), info.PositionTicks)
	assert.Equal(t, 1, info.MemberCount)
}
