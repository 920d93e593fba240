package room

import (
	"context"
	"log/slog"
	"time"
)

// broadcaster fans a transport command out to every room member except
// the one whose telemetry produced it.
//
// Every broadcast raises the room's echo guard before the first send
// and lowers it only after the fan-out plus a settle delay, because the
// commands it sends come straight back as telemetry from the receiving
// sessions. Deliveries are independent: one unreachable member must not
// starve the rest, so each send gets its own bounded context and a
// failure is logged and skipped.
type broadcaster struct {
	transport   iSessionTransport
	settleDelay time.Duration
	warmupDelay time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
}

func (b *broadcaster) playItem(ctx context.Context, r *Room, excludeSessionID string) {
	r.mu.Lock()
	itemID := r.currentItemID
	position := r.positionTicks
	r.mu.Unlock()

	if itemID == 0 {
		return
	}

	b.fanOut(ctx, r, excludeSessionID, "play_item", func(ctx context.Context, sessionID string) error {
		return b.transport.PlayItem(ctx, sessionID, itemID, position)
	})
}

func (b *broadcaster) pause(ctx context.Context, r *Room, excludeSessionID string) {
	b.fanOut(ctx, r, excludeSessionID, "pause", b.transport.Pause)
}

func (b *broadcaster) unpause(ctx context.Context, r *Room, excludeSessionID string) {
	b.fanOut(ctx, r, excludeSessionID, "unpause", b.transport.Unpause)
}

func (b *broadcaster) seek(ctx context.Context, r *Room, excludeSessionID string, positionTicks int64) {
	b.fanOut(ctx, r, excludeSessionID, "seek", func(ctx context.Context, sessionID string) error {
		return b.transport.Seek(ctx, sessionID, positionTicks)
	})
}

func (b *broadcaster) fanOut(ctx context.Context, r *Room, excludeSessionID, command string, send func(context.Context, string) error) {
	r.beginBroadcast()
	defer func() {
		// in-flight echo telemetry keeps arriving shortly after the
		// last send; hold the guard through the settle window
		time.Sleep(b.settleDelay)
		r.endBroadcast()
	}()

	for _, sessionID := range r.memberIDs() {
		if sessionID == excludeSessionID {
			continue
		}
		b.deliver(ctx, sessionID, command, send)
	}
}

// syncNewMember pushes the play state the room had when the session
// joined. The caller takes the snapshot synchronously at join time and
// skips the push entirely for an idle room. If the room was paused, the
// item is started first and paused again after a warm-up delay so the
// client has time to load.
func (b *broadcaster) syncNewMember(ctx context.Context, r *Room, sessionID string, snap playbackSnapshot) {
	r.beginBroadcast()
	defer func() {
		time.Sleep(b.settleDelay)
		r.endBroadcast()
	}()

	b.deliver(ctx, sessionID, "play_item", func(ctx context.Context, sessionID string) error {
		return b.transport.PlayItem(ctx, sessionID, snap.itemID, snap.positionTicks)
	})

	if snap.state == StatePaused {
		time.Sleep(b.warmupDelay)
		b.deliver(ctx, sessionID, "pause", b.transport.Pause)
	}

	b.logger.InfoContext(ctx, "synced new member to room state",
		"room_id", r.id,
		"session_id", sessionID,
		"item_id", snap.itemID,
		"position_ticks", snap.positionTicks,
	)
}

func (b *broadcaster) deliver(ctx context.Context, sessionID, command string, send func(context.Context, string) error) {
	sendCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
	defer cancel()

	if err := send(sendCtx, sessionID); err != nil {
		b.logger.WarnContext(ctx, "failed to send command",
			"command", command,
			"session_id", sessionID,
			"error", err,
		)
		return
	}

	b.logger.DebugContext(ctx, "sent command",
		"command", command,
		"session_id", sessionID,
	)
}
