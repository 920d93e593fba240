package room

import (
	"context"
	"time"
)

// intent is the synchronization action classified from raw telemetry.
type intent int

const (
	intentNone intent = iota
	intentPlayItem
	intentPause
	intentUnpause
	intentSeek
)

func (i intent) String() string {
	switch i {
	case intentPlayItem:
		return "play_item"
	case intentPause:
		return "pause"
	case intentUnpause:
		return "unpause"
	case intentSeek:
		return "seek"
	default:
		return "none"
	}
}

type PlaybackStartParams struct {
	SessionID     string
	ItemID        int64
	PositionTicks int64
}

// HandlePlaybackStart marks the room as playing the reported item and
// pulls every other member onto it.
func (s *service) HandlePlaybackStart(ctx context.Context, params *PlaybackStartParams) {
	r := s.registry.roomForSession(params.SessionID)
	if r == nil || r.isBroadcasting() {
		return
	}
	if params.ItemID == 0 {
		return
	}

	r.mu.Lock()
	r.currentItemID = params.ItemID
	r.positionTicks = params.PositionTicks
	r.state = StatePlaying
	r.lastUpdate = time.Now().UTC()
	r.mu.Unlock()

	s.logger.DebugContext(ctx, "playback start",
		"session_id", params.SessionID,
		"room_id", r.id,
		"item_id", params.ItemID,
	)

	go s.broadcaster.playItem(context.WithoutCancel(ctx), r, params.SessionID)
}

type PlaybackProgressParams struct {
	SessionID     string
	PositionTicks int64
	IsPaused      bool
}

// HandlePlaybackProgress classifies a progress sample into at most one
// intent. Pause and unpause edges take precedence over seek detection;
// an ordinary heartbeat mutates nothing.
func (s *service) HandlePlaybackProgress(ctx context.Context, params *PlaybackProgressParams) {
	r := s.registry.roomForSession(params.SessionID)
	if r == nil || r.isBroadcasting() {
		return
	}

	now := time.Now().UTC()

	r.mu.Lock()
	classified := intentNone
	switch {
	case params.IsPaused && r.state == StatePlaying:
		r.state = StatePaused
		r.positionTicks = params.PositionTicks
		r.lastUpdate = now
		classified = intentPause

	case !params.IsPaused && r.state == StatePaused:
		r.state = StatePlaying
		r.positionTicks = params.PositionTicks
		r.lastUpdate = now
		classified = intentUnpause

	case r.state == StatePlaying:
		diff := params.PositionTicks - r.estimatedPositionLocked(now)
		if diff < 0 {
			diff = -diff
		}
		if diff > s.seekThresholdTicks {
			r.positionTicks = params.PositionTicks
			r.lastUpdate = now
			classified = intentSeek
		}
	}
	position := r.positionTicks
	r.mu.Unlock()

	if classified == intentNone {
		return
	}

	s.logger.DebugContext(ctx, "progress edge detected",
		"session_id", params.SessionID,
		"room_id", r.id,
		"intent", classified,
		"position_ticks", position,
	)

	bctx := context.WithoutCancel(ctx)
	switch classified {
	case intentPause:
		go s.broadcaster.pause(bctx, r, params.SessionID)
	case intentUnpause:
		go s.broadcaster.unpause(bctx, r, params.SessionID)
	case intentSeek:
		go s.broadcaster.seek(bctx, r, params.SessionID, position)
	}
}

// HandlePlaybackStopped clears the stopping session's ready flag. It
// deliberately does not touch the room state or its membership: a
// member that stopped watching may still rejoin playback, and members
// that merely paused must not be disrupted.
func (s *service) HandlePlaybackStopped(ctx context.Context, sessionID string) {
	r := s.registry.roomForSession(sessionID)
	if r == nil {
		return
	}

	r.mu.Lock()
	delete(r.readySessions, sessionID)
	r.mu.Unlock()

	s.logger.DebugContext(ctx, "playback stopped",
		"session_id", sessionID,
		"room_id", r.id,
	)
}

// HandleSessionEnded treats a disappearing session as an explicit leave.
func (s *service) HandleSessionEnded(ctx context.Context, sessionID string) {
	s.LeaveRoom(ctx, sessionID)
}
