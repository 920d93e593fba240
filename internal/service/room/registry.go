package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// registry owns the authoritative room table and the session to room
// index. Both maps are guarded by one RWMutex so that a membership
// mutation and its index update are observed together: a session is in
// the index if and only if it is in that room's member set.
type registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	sessionRoom map[string]string
	generator   iIDGenerator
}

type iIDGenerator interface {
	Generate() string
}

type shortidGenerator struct {
	sid *shortid.Shortid
}

func (g shortidGenerator) Generate() string {
	id, err := g.sid.Generate()
	if err != nil {
		// shortid only fails on clock anomalies; fall back to a uuid slice
		return uuid.NewString()[:8]
	}

	return id
}

func newRegistry() *registry {
	return &registry{
		rooms:       make(map[string]*Room),
		sessionRoom: make(map[string]string),
		generator:   shortidGenerator{sid: shortid.GetDefault()},
	}
}

// createRoom allocates a new room owned by sessionID. The session is
// removed from its previous room first, a session occupies at most one
// room at a time.
func (rg *registry) createRoom(sessionID, userID, name string) *Room {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.leaveLocked(sessionID)

	r := newRoom(rg.generator.Generate(), name, sessionID, userID)
	rg.rooms[r.id] = r
	rg.sessionRoom[sessionID] = r.id

	return r
}

// joinRoom adds sessionID to an existing room, leaving its previous
// room first. Returns nil if the room does not exist.
func (rg *registry) joinRoom(sessionID, roomID string) *Room {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	r, ok := rg.rooms[roomID]
	if !ok {
		return nil
	}

	// a member re-joining their own room must not pass through
	// leaveLocked: leaving first would empty and delete the room
	if rg.sessionRoom[sessionID] == roomID {
		return r
	}

	rg.leaveLocked(sessionID)

	r.addMember(sessionID)
	rg.sessionRoom[sessionID] = roomID

	return r
}

// leaveRoom removes the session from its room, deleting the room when
// its member set empties out. No-op for sessions not in any room.
// Returns the left room, or nil.
func (rg *registry) leaveRoom(sessionID string) *Room {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	return rg.leaveLocked(sessionID)
}

func (rg *registry) leaveLocked(sessionID string) *Room {
	roomID, ok := rg.sessionRoom[sessionID]
	if !ok {
		return nil
	}
	delete(rg.sessionRoom, sessionID)

	r, ok := rg.rooms[roomID]
	if !ok {
		return nil
	}

	if r.removeMember(sessionID) == 0 {
		delete(rg.rooms, roomID)
	}

	return r
}

func (rg *registry) getRoom(roomID string) *Room {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	return rg.rooms[roomID]
}

func (rg *registry) roomForSession(sessionID string) *Room {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	roomID, ok := rg.sessionRoom[sessionID]
	if !ok {
		return nil
	}

	return rg.rooms[roomID]
}

func (rg *registry) getRooms() []*Room {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	rooms := make([]*Room, 0, len(rg.rooms))
	for _, r := range rg.rooms {
		rooms = append(rooms, r)
	}

	return rooms
}

func (rg *registry) roomCount() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	return len(rg.rooms)
}

// cleanupStale deletes rooms that emptied out without being deleted
// synchronously. Rooms are normally removed by leaveRoom the moment
// their last member leaves; this is a safety net.
func (rg *registry) cleanupStale(timeout time.Duration) int {
	threshold := time.Now().UTC().Add(-timeout)

	rg.mu.Lock()
	defer rg.mu.Unlock()

	removed := 0
	for id, r := range rg.rooms {
		r.mu.Lock()
		stale := len(r.members) == 0 && r.createdAt.Before(threshold)
		r.mu.Unlock()

		if stale {
			delete(rg.rooms, id)
			removed++
		}
	}

	return removed
}
