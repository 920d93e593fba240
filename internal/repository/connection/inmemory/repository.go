package inmemory

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/syncwatch/server/internal/repository/connection"
)

// repo maps session ids to live websocket connections and delivers
// transport commands over them. It is the engine's only path to a
// remote playback client.
type repo struct {
	mu       sync.RWMutex
	connList map[*websocket.Conn]string
	idList   map[string]*conn
}

// conn wraps a websocket connection with a write lock; gorilla allows
// one concurrent writer per connection.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*conn),
	}
}

func (r *repo) Add(ws *websocket.Conn, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[ws] != "" || r.idList[sessionID] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[ws] = sessionID
	r.idList[sessionID] = &conn{ws: ws}

	return nil
}

func (r *repo) RemoveByConn(ws *websocket.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.connList[ws]
	if !ok {
		return "", connection.ErrNotFound
	}

	delete(r.connList, ws)
	delete(r.idList, sessionID)

	return sessionID, nil
}

func (r *repo) RemoveBySessionID(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.idList[sessionID]
	if !ok {
		return connection.ErrNotFound
	}
	c.ws.Close()

	delete(r.connList, c.ws)
	delete(r.idList, sessionID)

	return nil
}

func (r *repo) GetSessionID(ws *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionID, ok := r.connList[ws]
	if !ok {
		return "", connection.ErrNotFound
	}

	return sessionID, nil
}

type message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type playItemPayload struct {
	ItemID        int64 `json:"item_id"`
	PositionTicks int64 `json:"position_ticks"`
}

type seekPayload struct {
	PositionTicks int64 `json:"position_ticks"`
}

func (r *repo) PlayItem(ctx context.Context, sessionID string, itemID, positionTicks int64) error {
	return r.send(ctx, sessionID, &message{
		Type:    "PLAY_ITEM",
		Payload: playItemPayload{ItemID: itemID, PositionTicks: positionTicks},
	})
}

func (r *repo) Pause(ctx context.Context, sessionID string) error {
	return r.send(ctx, sessionID, &message{Type: "PAUSE"})
}

func (r *repo) Unpause(ctx context.Context, sessionID string) error {
	return r.send(ctx, sessionID, &message{Type: "UNPAUSE"})
}

func (r *repo) Seek(ctx context.Context, sessionID string, positionTicks int64) error {
	return r.send(ctx, sessionID, &message{
		Type:    "SEEK",
		Payload: seekPayload{PositionTicks: positionTicks},
	})
}

func (r *repo) send(ctx context.Context, sessionID string, msg *message) error {
	r.mu.RLock()
	c, ok := r.idList[sessionID]
	r.mu.RUnlock()
	if !ok {
		return connection.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.ws.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}

	return c.ws.WriteJSON(msg)
}
