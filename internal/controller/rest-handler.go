package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/syncwatch/server/internal/repository/session"
	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/rest"
)

type registerSessionRequest struct {
	UserID   string `json:"user_id" validate:"required,max=64"`
	DeviceID string `json:"device_id" validate:"max=64"`
}

type registerSessionResponse struct {
	SessionID    string `json:"session_id"`
	ConnectToken string `json:"connect_token"`
}

// registerSession resolves a playback client into a session identity
// and hands out a single-use token for the websocket handshake.
func (c *controller) registerSession(w http.ResponseWriter, r *http.Request) {
	var req registerSessionRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	s := session.Session{
		ID:       uuid.NewString(),
		UserID:   req.UserID,
		DeviceID: req.DeviceID,
	}
	if err := c.sessionRepo.SetSession(r.Context(), &s); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to store session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	connectToken := uuid.NewString()
	if err := c.sessionRepo.CreateConnectToken(r.Context(), connectToken, s.ID); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to store connect token", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": registerSessionResponse{
		SessionID:    s.ID,
		ConnectToken: connectToken,
	}})
}

type createRoomRequest struct {
	Name string `json:"name" validate:"max=64"`
}

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	var req createRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	// room cap is policy of this layer, the engine itself only counts
	if c.cfg.RoomsLimit > 0 && c.roomService.RoomCount(r.Context()) >= c.cfg.RoomsLimit {
		rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "room limit reached"})
		return
	}

	info := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		SessionID: s.ID,
		UserID:    s.UserID,
		Name:      req.Name,
	})

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": c.mapRoomResponse(info, s.ID)})
}

func (c *controller) listRooms(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	infos := c.roomService.GetRooms(r.Context())
	rooms := make([]roomResponse, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, c.mapRoomResponse(info, s.ID))
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": rooms})
}

func (c *controller) getRoom(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	roomID := chi.URLParam(r, "room-id")
	info, err := c.roomService.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.mapRoomResponse(info, s.ID)})
}

func (c *controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	roomID := chi.URLParam(r, "room-id")

	if c.cfg.MembersLimit > 0 {
		info, err := c.roomService.GetRoom(r.Context(), roomID)
		if err == nil && info.MemberCount >= c.cfg.MembersLimit {
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "room is full"})
			return
		}
	}

	info, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		SessionID: s.ID,
		RoomID:    roomID,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.mapRoomResponse(info, s.ID)})
}

func (c *controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	c.roomService.LeaveRoom(r.Context(), s.ID)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": true})
}

func (c *controller) getStatus(w http.ResponseWriter, r *http.Request) {
	s := c.getSessionFromCtx(r.Context())

	status := c.roomService.GetStatus(r.Context(), s.ID)
	resp := statusResponse{InRoom: status.InRoom}
	if status.Room != nil {
		mapped := c.mapRoomResponse(*status.Room, s.ID)
		resp.Room = &mapped
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": resp})
}
