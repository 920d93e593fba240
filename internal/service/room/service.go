package room

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrRoomNotFound = errors.New("room not found")

// iSessionTransport delivers transport commands to one playback
// session. Delivery is best-effort: errors are logged by the caller
// and never retried, the next telemetry heartbeat re-aligns the member.
type iSessionTransport interface {
	PlayItem(ctx context.Context, sessionID string, itemID, positionTicks int64) error
	Pause(ctx context.Context, sessionID string) error
	Unpause(ctx context.Context, sessionID string) error
	Seek(ctx context.Context, sessionID string, positionTicks int64) error
}

type Config struct {
	// SeekThreshold is the minimum position jump treated as a seek.
	SeekThreshold time.Duration
	// SettleDelay is how long the echo guard stays raised after a
	// broadcast fan-out completes.
	SettleDelay time.Duration
	// WarmupDelay models client load time before pausing a freshly
	// synced member.
	WarmupDelay time.Duration
	// SendTimeout bounds a single command delivery.
	SendTimeout time.Duration
	// RoomTimeout is the age after which an empty room is reaped.
	RoomTimeout time.Duration
	// CleanupInterval is how often the reaper sweeps.
	CleanupInterval time.Duration
}

const (
	DefaultSeekThreshold   = 2 * time.Second
	DefaultSettleDelay     = 200 * time.Millisecond
	DefaultWarmupDelay     = time.Second
	DefaultSendTimeout     = 5 * time.Second
	DefaultRoomTimeout     = 60 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

type service struct {
	registry    *registry
	broadcaster *broadcaster

	seekThresholdTicks int64
	roomTimeout        time.Duration
	cleanupInterval    time.Duration

	logger *slog.Logger
}

func NewService(transport iSessionTransport, cfg *Config, logger *slog.Logger) *service {
	if cfg == nil {
		cfg = &Config{}
	}
	seekThreshold := cfg.SeekThreshold
	if seekThreshold <= 0 {
		seekThreshold = DefaultSeekThreshold
	}
	settleDelay := cfg.SettleDelay
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	warmupDelay := cfg.WarmupDelay
	if warmupDelay <= 0 {
		warmupDelay = DefaultWarmupDelay
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	roomTimeout := cfg.RoomTimeout
	if roomTimeout <= 0 {
		roomTimeout = DefaultRoomTimeout
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	return &service{
		registry: newRegistry(),
		broadcaster: &broadcaster{
			transport:   transport,
			settleDelay: settleDelay,
			warmupDelay: warmupDelay,
			sendTimeout: sendTimeout,
			logger:      logger,
		},
		seekThresholdTicks: seekThreshold.Nanoseconds() / 100,
		roomTimeout:        roomTimeout,
		cleanupInterval:    cleanupInterval,
		logger:             logger,
	}
}

type CreateRoomParams struct {
	SessionID string
	UserID    string
	Name      string
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) RoomInfo {
	r := s.registry.createRoom(params.SessionID, params.UserID, params.Name)
	s.logger.InfoContext(ctx, "room created",
		"room_id", r.id,
		"room_name", r.name,
		"session_id", params.SessionID,
	)

	return r.Snapshot()
}

type JoinRoomParams struct {
	SessionID string
	RoomID    string
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (RoomInfo, error) {
	r := s.registry.joinRoom(params.SessionID, params.RoomID)
	if r == nil {
		s.logger.WarnContext(ctx, "room not found for join request", "room_id", params.RoomID)
		return RoomInfo{}, ErrRoomNotFound
	}

	s.logger.InfoContext(ctx, "session joined room",
		"room_id", r.id,
		"session_id", params.SessionID,
	)

	// bring the joining session up to the play state the room had at
	// join time; a room that was idle at join pushes nothing, even if
	// playback starts before the push runs
	if snap := r.playbackSnapshot(); snap.state != StateIdle && snap.itemID != 0 {
		go s.broadcaster.syncNewMember(context.WithoutCancel(ctx), r, params.SessionID, snap)
	}

	return r.Snapshot(), nil
}

func (s *service) LeaveRoom(ctx context.Context, sessionID string) {
	r := s.registry.leaveRoom(sessionID)
	if r == nil {
		return
	}

	s.logger.InfoContext(ctx, "session left room",
		"room_id", r.id,
		"session_id", sessionID,
	)
}

func (s *service) GetRooms(ctx context.Context) []RoomInfo {
	rooms := s.registry.getRooms()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Snapshot())
	}

	return infos
}

func (s *service) GetRoom(ctx context.Context, roomID string) (RoomInfo, error) {
	r := s.registry.getRoom(roomID)
	if r == nil {
		return RoomInfo{}, ErrRoomNotFound
	}

	return r.Snapshot(), nil
}

func (s *service) GetStatus(ctx context.Context, sessionID string) SyncStatus {
	r := s.registry.roomForSession(sessionID)
	if r == nil {
		return SyncStatus{}
	}

	info := r.Snapshot()
	return SyncStatus{InRoom: true, Room: &info}
}

func (s *service) RoomCount(ctx context.Context) int {
	return s.registry.roomCount()
}
