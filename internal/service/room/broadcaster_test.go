package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutExcludesSender(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	_, err := s.JoinRoom(ctx, &JoinRoomParams{SessionID: "b", RoomID: info.ID})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{SessionID: "c", RoomID: info.ID})
	require.NoError(t, err)

	r := s.registry.getRoom(info.ID)
	s.broadcaster.pause(ctx, r, "a")

	assert.Empty(t, transport.commandsFor("a"))
	assert.Len(t, transport.commandsFor("b"), 1)
	assert.Len(t, transport.commandsFor("c"), 1)
}

func TestFanOutContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	transport.failFor("b", errors.New("connection gone"))
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	_, err := s.JoinRoom(ctx, &JoinRoomParams{SessionID: "b", RoomID: info.ID})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{SessionID: "c", RoomID: info.ID})
	require.NoError(t, err)

	r := s.registry.getRoom(info.ID)
	s.broadcaster.unpause(ctx, r, "a")

	assert.Empty(t, transport.commandsFor("b"))
	assert.Len(t, transport.commandsFor("c"), 1, "failure for one target must not abort the rest")
}

func TestBroadcastGuardLifecycle(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	r := s.registry.getRoom(info.ID)

	done := make(chan struct{})
	go func() {
		s.broadcaster.pause(ctx, r, "a")
		close(done)
	}()

	require.Eventually(t, func() bool {
		return r.isBroadcasting()
	}, time.Second, time.Millisecond, "guard must be raised during broadcast")

	<-done
	assert.False(t, r.isBroadcasting(), "guard must be lowered after settle delay")
}

func TestPlayItemSkippedWithoutItem(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	_, err := s.JoinRoom(ctx, &JoinRoomParams{SessionID: "b", RoomID: info.ID})
	require.NoError(t, err)

	r := s.registry.getRoom(info.ID)
	s.broadcaster.playItem(ctx, r, "a")

	assert.Empty(t, transport.sent)
}

// TestJoinIdleRoomPushesNothing pins the snapshot semantics of joining:
// the push decision is made from the room's state at join time, so a
// playback state that appears right after the join must not leak a
// play_item to the joiner.
func TestJoinIdleRoomPushesNothing(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	_, err := s.JoinRoom(ctx, &JoinRoomParams{SessionID: "b", RoomID: info.ID})
	require.NoError(t, err)

	r := s.registry.getRoom(info.ID)
	setPlaying(r, 42, 0)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, transport.commandsFor("b"), "idle room must not push state to a new member")
	assert.False(t, r.isBroadcasting(), "no push means no echo guard")
}

func TestSyncNewMemberPlaying(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	r := s.registry.getRoom(info.ID)
	setPlaying(r, 42, 5*ticksPerSecond)

	s.broadcaster.syncNewMember(ctx, r, "b", r.playbackSnapshot())

	cmds := transport.commandsFor("b")
	require.Len(t, cmds, 1)
	assert.Equal(t, "play_item", cmds[0].Command)
	assert.Equal(t, int64(42), cmds[0].ItemID)
	assert.GreaterOrEqual(t, cmds[0].PositionTicks, 5*ticksPerSecond, "position must be extrapolated")
}

func TestSyncNewMemberPaused(t *testing.T) {
	ctx := context.Background()
	transport := newFakeTransport()
	s := newTestService(transport)

	info := s.CreateRoom(ctx, &CreateRoomParams{SessionID: "a", UserID: "u1"})
	r := s.registry.getRoom(info.ID)

	r.mu.Lock()
	r.state = StatePaused
	r.currentItemID = 42
	r.positionTicks = 5 * ticksPerSecond
	r.lastUpdate = time.Now().UTC().Add(-time.Minute)
	r.mu.Unlock()

	s.broadcaster.syncNewMember(ctx, r, "b", r.playbackSnapshot())

	cmds := transport.commandsFor("b")
	require.Len(t, cmds, 2, "paused room must send play then pause")
	assert.Equal(t, "play_item", cmds[0].Command)
	assert.Equal(t, 5*ticksPerSecond, cmds[0].PositionTicks, "paused position must not be extrapolated")
	assert.Equal(t, "pause", cmds[1].Command)
}
