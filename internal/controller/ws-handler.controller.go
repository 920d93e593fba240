package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/ctxlogger"
	"github.com/syncwatch/server/pkg/rest"
	"github.com/syncwatch/server/pkg/wsrouter"
)

// connectSession upgrades a playback client to a websocket after
// consuming its connect token. Inbound messages are playback telemetry;
// outbound messages are the transport commands the engine broadcasts.
// The connection dropping is treated as the session ending.
func (c *controller) connectSession(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "connect token was not provided"})
		return
	}

	sessionID, err := c.sessionRepo.GetSessionIDByConnectToken(r.Context(), token)
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to resolve connect token", "error", err)
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid connect token"})
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	if err := c.connRepo.Add(conn, sessionID); err != nil {
		c.logger.WarnContext(r.Context(), "failed to register connection", "session_id", sessionID, "error", err)
		conn.Close()
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sessionID))
	c.logger.InfoContext(ctx, "session connected")

	c.serveSession(ctx, conn, sessionID)
}

func (c *controller) serveSession(ctx context.Context, conn *websocket.Conn, sessionID string) {
	defer func() {
		conn.Close()
		if _, err := c.connRepo.RemoveByConn(conn); err != nil {
			c.logger.DebugContext(ctx, "failed to remove connection", "error", err)
		}
		c.roomService.HandleSessionEnded(ctx, sessionID)
		c.logger.InfoContext(ctx, "session disconnected")
	}()

	router := wsrouter.New()
	router.Handle("ALIVE", c.handleAlive)
	router.Handle("PLAYBACK_START", c.playbackStartHandler(sessionID))
	router.Handle("PLAYBACK_PROGRESS", c.playbackProgressHandler(sessionID))
	router.Handle("PLAYBACK_STOPPED", c.playbackStoppedHandler(sessionID))

	if err := router.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "websocket closed", "error", err)
	}
}

func (c *controller) handleAlive(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return nil
}

type playbackStartInput struct {
	ItemID        int64 `json:"item_id"`
	PositionTicks int64 `json:"position_ticks"`
}

func (c *controller) playbackStartHandler(sessionID string) wsrouter.HandlerFunc {
	return func(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
		var input playbackStartInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return err
		}

		c.roomService.HandlePlaybackStart(ctx, &room.PlaybackStartParams{
			SessionID:     sessionID,
			ItemID:        input.ItemID,
			PositionTicks: input.PositionTicks,
		})

		return nil
	}
}

type playbackProgressInput struct {
	PositionTicks int64 `json:"position_ticks"`
	IsPaused      bool  `json:"is_paused"`
}

func (c *controller) playbackProgressHandler(sessionID string) wsrouter.HandlerFunc {
	return func(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
		var input playbackProgressInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return err
		}

		c.roomService.HandlePlaybackProgress(ctx, &room.PlaybackProgressParams{
			SessionID:     sessionID,
			PositionTicks: input.PositionTicks,
			IsPaused:      input.IsPaused,
		})

		return nil
	}
}

func (c *controller) playbackStoppedHandler(sessionID string) wsrouter.HandlerFunc {
	return func(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
		c.roomService.HandlePlaybackStopped(ctx, sessionID)
		return nil
	}
}
