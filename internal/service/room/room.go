package room

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultRoomName = "Watch Party"

// ticksPerSecond is the resolution of playback positions (100ns ticks).
const ticksPerSecond = int64(10_000_000)

type State int

const (
	StateIdle State = iota
	// StateWaiting is reserved for "wait for everyone ready" semantics.
	// No transition populates it yet.
	StateWaiting
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaiting:
		return "Waiting"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Room holds the playback and membership state of one watch party.
//
// mu serializes every field mutation: the same room receives telemetry
// from several sessions concurrently and "read state, classify, write"
// must be atomic per room. Membership mutations additionally happen
// under the registry lock so the session index and the member set can
// never disagree; lock order is always registry.mu before Room.mu.
type Room struct {
	mu sync.Mutex

	// broadcasting counts in-flight command broadcasts for this room.
	// While it is non-zero, telemetry handlers ignore events for the
	// room so the engine does not react to its own command echo.
	broadcasting atomic.Int32

	id             string
	name           string
	ownerSessionID string
	ownerUserID    string
	createdAt      time.Time

	state         State
	currentItemID int64
	positionTicks int64
	lastUpdate    time.Time

	members       map[string]struct{}
	readySessions map[string]struct{}
}

func newRoom(id, name, ownerSessionID, ownerUserID string) *Room {
	if name == "" {
		name = defaultRoomName
	}

	now := time.Now().UTC()
	return &Room{
		id:             id,
		name:           name,
		ownerSessionID: ownerSessionID,
		ownerUserID:    ownerUserID,
		createdAt:      now,
		state:          StateIdle,
		lastUpdate:     now,
		members:        map[string]struct{}{ownerSessionID: {}},
		readySessions:  make(map[string]struct{}),
	}
}

func (r *Room) ID() string {
	return r.id
}

// estimatedPositionLocked extrapolates the playback position from the
// last authoritative sample. Callers must hold r.mu.
func (r *Room) estimatedPositionLocked(now time.Time) int64 {
	if r.state != StatePlaying {
		return r.positionTicks
	}

	return r.positionTicks + now.Sub(r.lastUpdate).Nanoseconds()/100
}

// EstimatedPositionTicks returns the current extrapolated playback
// position of the room.
func (r *Room) EstimatedPositionTicks() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.estimatedPositionLocked(time.Now().UTC())
}

func (r *Room) addMember(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[sessionID] = struct{}{}
}

func (r *Room) removeMember(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, sessionID)
	delete(r.readySessions, sessionID)

	return len(r.members)
}

// playbackSnapshot captures the room's play state at one instant so a
// deferred push reflects that instant, not whenever it happens to run.
type playbackSnapshot struct {
	state         State
	itemID        int64
	positionTicks int64
}

func (r *Room) playbackSnapshot() playbackSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return playbackSnapshot{
		state:         r.state,
		itemID:        r.currentItemID,
		positionTicks: r.estimatedPositionLocked(time.Now().UTC()),
	}
}

// memberIDs returns a snapshot of the current member set. Broadcasts
// iterate the snapshot so a concurrent leave cannot invalidate it.
func (r *Room) memberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}

	return ids
}

func (r *Room) beginBroadcast() {
	r.broadcasting.Add(1)
}

func (r *Room) endBroadcast() {
	r.broadcasting.Add(-1)
}

func (r *Room) isBroadcasting() bool {
	return r.broadcasting.Load() > 0
}

// Snapshot returns a consistent copy of the room state for callers
// outside the engine.
func (r *Room) Snapshot() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]string, 0, len(r.members))
	for id := range r.members {
		members = append(members, id)
	}

	return RoomInfo{
		ID:             r.id,
		Name:           r.name,
		OwnerSessionID: r.ownerSessionID,
		OwnerUserID:    r.ownerUserID,
		State:          r.state.String(),
		CurrentItemID:  r.currentItemID,
		PositionTicks:  r.estimatedPositionLocked(time.Now().UTC()),
		Members:        members,
		MemberCount:    len(members),
		CreatedAt:      r.createdAt,
	}
}
