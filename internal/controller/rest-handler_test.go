package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncwatch/server/internal/repository/session"
	"github.com/syncwatch/server/internal/service/room"
)

type stubRoomService struct {
	rooms     map[string]room.RoomInfo
	status    room.SyncStatus
	roomCount int
	joinErr   error
	left      []string
}

func newStubRoomService() *stubRoomService {
	return &stubRoomService{rooms: make(map[string]room.RoomInfo)}
}

func (s *stubRoomService) CreateRoom(_ context.Context, params *room.CreateRoomParams) room.RoomInfo {
	info := room.RoomInfo{
		ID:             "room-1",
		Name:           params.Name,
		OwnerSessionID: params.SessionID,
		State:          "Idle",
		Members:        []string{params.SessionID},
		MemberCount:    1,
	}
	s.rooms[info.ID] = info
	return info
}

func (s *stubRoomService) JoinRoom(_ context.Context, params *room.JoinRoomParams) (room.RoomInfo, error) {
	if s.joinErr != nil {
		return room.RoomInfo{}, s.joinErr
	}
	info, ok := s.rooms[params.RoomID]
	if !ok {
		return room.RoomInfo{}, room.ErrRoomNotFound
	}
	return info, nil
}

func (s *stubRoomService) LeaveRoom(_ context.Context, sessionID string) {
	s.left = append(s.left, sessionID)
}

func (s *stubRoomService) GetRooms(context.Context) []room.RoomInfo {
	infos := make([]room.RoomInfo, 0, len(s.rooms))
	for _, info := range s.rooms {
		infos = append(infos, info)
	}
	return infos
}

func (s *stubRoomService) GetRoom(_ context.Context, roomID string) (room.RoomInfo, error) {
	info, ok := s.rooms[roomID]
	if !ok {
		return room.RoomInfo{}, room.ErrRoomNotFound
	}
	return info, nil
}

func (s *stubRoomService) GetStatus(context.Context, string) room.SyncStatus {
	return s.status
}

func (s *stubRoomService) RoomCount(context.Context) int {
	return s.roomCount
}

func (s *stubRoomService) HandlePlaybackStart(context.Context, *room.PlaybackStartParams)       {}
func (s *stubRoomService) HandlePlaybackProgress(context.Context, *room.PlaybackProgressParams) {}
func (s *stubRoomService) HandlePlaybackStopped(context.Context, string)                        {}
func (s *stubRoomService) HandleSessionEnded(context.Context, string)                           {}

type stubSessionRepo struct {
	sessions map[string]session.Session
	tokens   map[string]string
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{
		sessions: make(map[string]session.Session),
		tokens:   make(map[string]string),
	}
}

func (r *stubSessionRepo) SetSession(_ context.Context, s *session.Session) error {
	r.sessions[s.ID] = *s
	return nil
}

func (r *stubSessionRepo) GetSession(_ context.Context, sessionID string) (session.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) CreateConnectToken(_ context.Context, token, sessionID string) error {
	r.tokens[token] = sessionID
	return nil
}

func (r *stubSessionRepo) GetSessionIDByConnectToken(_ context.Context, token string) (string, error) {
	sessionID, ok := r.tokens[token]
	if !ok {
		return "", session.ErrConnectTokenNotFound
	}
	delete(r.tokens, token)
	return sessionID, nil
}

type stubConnRepo struct{}

func (stubConnRepo) Add(*websocket.Conn, string) error            { return nil }
func (stubConnRepo) RemoveByConn(*websocket.Conn) (string, error) { return "", nil }

func newTestController(roomService iRoomService, sessionRepo iSessionRepo) *controller {
	return NewController(roomService, sessionRepo, stubConnRepo{}, Config{
		PublicURL:    "http://example.com",
		RoomsLimit:   2,
		MembersLimit: 2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, c *controller, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if sessionID != "" {
		req.Header.Set(sessionIDHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	c.GetMux().ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterSession(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	c := newTestController(newStubRoomService(), sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/sessions", "", map[string]string{
		"user_id":   "user-1",
		"device_id": "device-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	sessionID := data["session_id"].(string)
	connectToken := data["connect_token"].(string)
	assert.NotEmpty(t, sessionID)
	assert.NotEmpty(t, connectToken)

	assert.Equal(t, "user-1", sessionRepo.sessions[sessionID].UserID)
	assert.Equal(t, sessionID, sessionRepo.tokens[connectToken])
}

func TestRegisterSessionValidation(t *testing.T) {
	c := newTestController(newStubRoomService(), newStubSessionRepo())

	rec := doRequest(t, c, http.MethodPost, "/api/v1/sessions", "", map[string]string{
		"device_id": "device-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomsRequireSession(t *testing.T) {
	c := newTestController(newStubRoomService(), newStubSessionRepo())

	rec := doRequest(t, c, http.MethodGet, "/api/v1/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/rooms", "unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRoom(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	c := newTestController(newStubRoomService(), sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/rooms", "session-1", map[string]string{
		"name": "Movie Night",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Movie Night", data["name"])
	assert.Equal(t, true, data["is_owner"])
	assert.Equal(t, "http://example.com/web/#syncwatch-join=room-1", data["join_link"])
}

func TestCreateRoomLimitReached(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	roomService := newStubRoomService()
	roomService.roomCount = 2
	c := newTestController(roomService, sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/rooms", "session-1", map[string]string{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRoomNotFound(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	c := newTestController(newStubRoomService(), sessionRepo)

	rec := doRequest(t, c, http.MethodGet, "/api/v1/rooms/missing", "session-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinRoomNotFound(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	c := newTestController(newStubRoomService(), sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/rooms/missing/join", "session-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinRoomFull(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-2"] = session.Session{ID: "session-2", UserID: "user-2"}
	roomService := newStubRoomService()
	roomService.rooms["room-1"] = room.RoomInfo{ID: "room-1", MemberCount: 2}
	c := newTestController(roomService, sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/rooms/room-1/join", "session-2", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaveRoom(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	roomService := newStubRoomService()
	c := newTestController(roomService, sessionRepo)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/rooms/leave", "session-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"session-1"}, roomService.left)
}

func TestGetStatus(t *testing.T) {
	sessionRepo := newStubSessionRepo()
	sessionRepo.sessions["session-1"] = session.Session{ID: "session-1", UserID: "user-1"}
	roomService := newStubRoomService()
	roomService.status = room.SyncStatus{
		InRoom: true,
		Room:   &room.RoomInfo{ID: "room-1", State: "Playing"},
	}
	c := newTestController(roomService, sessionRepo)

	rec := doRequest(t, c, http.MethodGet, "/api/v1/status", "session-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, true, data["in_room"])
	assert.Equal(t, "room-1", data["room"].(map[string]any)["id"])
}

func TestConnectSessionRequiresToken(t *testing.T) {
	c := newTestController(newStubRoomService(), newStubSessionRepo())

	rec := doRequest(t, c, http.MethodGet, "/api/v1/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/ws?token=bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
