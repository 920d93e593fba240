package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syncwatch/server/internal/repository/session"
	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/validator"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) room.RoomInfo
	JoinRoom(context.Context, *room.JoinRoomParams) (room.RoomInfo, error)
	LeaveRoom(ctx context.Context, sessionID string)
	GetRooms(context.Context) []room.RoomInfo
	GetRoom(ctx context.Context, roomID string) (room.RoomInfo, error)
	GetStatus(ctx context.Context, sessionID string) room.SyncStatus
	RoomCount(context.Context) int
	HandlePlaybackStart(context.Context, *room.PlaybackStartParams)
	HandlePlaybackProgress(context.Context, *room.PlaybackProgressParams)
	HandlePlaybackStopped(ctx context.Context, sessionID string)
	HandleSessionEnded(ctx context.Context, sessionID string)
}

type iSessionRepo interface {
	SetSession(context.Context, *session.Session) error
	GetSession(ctx context.Context, sessionID string) (session.Session, error)
	CreateConnectToken(ctx context.Context, token, sessionID string) error
	GetSessionIDByConnectToken(ctx context.Context, token string) (string, error)
}

type iConnRepo interface {
	Add(ws *websocket.Conn, sessionID string) error
	RemoveByConn(ws *websocket.Conn) (string, error)
}

type Config struct {
	// PublicURL is the externally reachable base URL used in join links.
	PublicURL string
	// RoomsLimit caps the number of live rooms; 0 means unlimited.
	RoomsLimit int
	// MembersLimit caps members per room; 0 means unlimited.
	MembersLimit int
}

type controller struct {
	roomService iRoomService
	sessionRepo iSessionRepo
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	cfg         Config
	logger      *slog.Logger
}

func NewController(roomService iRoomService, sessionRepo iSessionRepo, connRepo iConnRepo, cfg Config, logger *slog.Logger) *controller {
	return &controller{
		roomService: roomService,
		sessionRepo: sessionRepo,
		connRepo:    connRepo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		cfg:      cfg,
		logger:   logger,
	}
}
